// Package component defines the data attached to entities and the Registry
// that owns one ecs.Store per component type.
package component

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
)

// Position places an entity on the map.
type Position struct {
	X int
	Y int
}

// Point converts p into a map coordinate.
func (p Position) Point() gamemap.Point { return gamemap.Point{X: p.X, Y: p.Y} }

// PositionAt builds a Position from a map coordinate.
func PositionAt(pt gamemap.Point) Position { return Position{X: pt.X, Y: pt.Y} }

// Viewshed is an entity's field of view. VisibleTiles is recomputed only
// while Dirty is set.
type Viewshed struct {
	VisibleTiles mapset.Set[gamemap.Point]
	Range        int
	Dirty        bool
}

// NewViewshed returns a dirty viewshed with an empty tile set.
func NewViewshed(rng int) Viewshed {
	return Viewshed{VisibleTiles: mapset.New[gamemap.Point](), Range: rng, Dirty: true}
}

// CombatStats holds hit points and melee numbers. HP may go negative.
type CombatStats struct {
	MaxHP   int
	HP      int
	Defense int
	Power   int
}

// Alive reports whether HP is positive.
func (c CombatStats) Alive() bool { return c.HP > 0 }

// SufferDamage accumulates damage queued against an entity this turn.
type SufferDamage struct {
	Amounts []int
}

// Total sums every queued amount.
func (s SufferDamage) Total() int {
	total := 0
	for _, a := range s.Amounts {
		total += a
	}
	return total
}

// WantsToMelee is an attack intent.
type WantsToMelee struct {
	Target ecs.Entity
}

// WantsToPickupItem is a pickup intent.
type WantsToPickupItem struct {
	CollectedBy ecs.Entity
	Item        ecs.Entity
}

// WantsToDropItem is a drop intent.
type WantsToDropItem struct {
	Item ecs.Entity
}

// WantsToUseItem is a use intent. A nil Target means the user.
type WantsToUseItem struct {
	Item   ecs.Entity
	Target *gamemap.Point
}

// InBackpack marks an item as carried by Owner.
type InBackpack struct {
	Owner ecs.Entity
}

// Item tags an entity that can be picked up.
type Item struct{}

// Consumable items are deleted once used.
type Consumable struct{}

// Ranged items require a target within Range tiles.
type Ranged struct {
	Range int
}

// AreaOfEffect widens a target point into a blast of Radius tiles.
type AreaOfEffect struct {
	Radius int
}

// ProvidesHealing restores Amount hit points.
type ProvidesHealing struct {
	Amount int
}

// InflictsDamage queues Amount damage on each target.
type InflictsDamage struct {
	Amount int
}

// Confusion stops a monster acting for Turns turns. On an item it is the
// number of turns applied to each target.
type Confusion struct {
	Turns int
}

// BlocksTile marks an entity as occupying its tile for movement.
type BlocksTile struct{}

// Monster tags AI-driven entities.
type Monster struct{}

// Player tags the player entity.
type Player struct{}

// Name is a display name.
type Name struct {
	Name string
}

// Renderable is how an entity is drawn. Lower Order draws on top.
type Renderable struct {
	Glyph rune
	FG    string
	BG    string
	Order int
}
