package systems

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
)

// ItemCollection moves every item with a pickup intent off the floor and into
// the collector's backpack.
func ItemCollection(c *Context) {
	r := c.Reg
	defer r.WantsToPickup.Clear()

	for _, e := range r.WantsToPickup.Entities() {
		wants := r.WantsToPickup.MustGet(e)
		if !r.World.Alive(wants.Item) || r.InBackpack.Has(wants.Item) {
			continue
		}
		r.Positions.Remove(wants.Item)
		r.InBackpack.MustInsert(wants.Item, component.InBackpack{Owner: wants.CollectedBy})
		if c.IsPlayer(wants.CollectedBy) {
			c.Log.Addf("You pick up the %s.", c.nameOr(wants.Item, "item"))
		}
	}
}

// ItemDrop places every item with a drop intent on the dropper's tile.
func ItemDrop(c *Context) {
	r := c.Reg
	defer r.WantsToDrop.Clear()

	for _, e := range r.WantsToDrop.Entities() {
		wants := r.WantsToDrop.MustGet(e)
		if !r.World.Alive(wants.Item) || !r.InBackpack.Has(wants.Item) {
			continue
		}
		at := *r.Positions.MustGet(e)
		r.InBackpack.Remove(wants.Item)
		r.Positions.MustInsert(wants.Item, at)
		if c.IsPlayer(e) {
			c.Log.Addf("You drop the %s.", c.nameOr(wants.Item, "item"))
		}
	}
}

// ItemUse applies each used item's capabilities to its resolved targets.
//
// Targets resolve to the user when no point is given, to the occupants of the
// point otherwise, or, for area-of-effect items, to the occupants of every
// tile the blast can see within its radius that is not on the map edge.
// Healing and confusion only touch entities with combat stats. Damage is
// queued on every resolved target, items on the ground included; the Damage
// system discards what it cannot apply. Damage and confusion items are spent
// even when nothing stands at the target; a healing-only item is spent only
// when it healed someone. Spent consumables are deleted.
func ItemUse(c *Context) {
	r := c.Reg
	defer r.WantsToUse.Clear()

	for _, user := range r.WantsToUse.Entities() {
		wants := r.WantsToUse.MustGet(user)
		item := wants.Item
		if !r.World.Alive(item) {
			continue
		}
		itemName := c.nameOr(item, "item")
		targets := c.resolveTargets(user, wants)
		used := r.Damage.Has(item) || r.Confusion.Has(item)

		if heal, ok := r.Healing.Get(item); ok {
			for _, t := range targets {
				stats, ok := r.CombatStats.Get(t)
				if !ok {
					continue
				}
				stats.HP = min(stats.MaxHP, stats.HP+heal.Amount)
				used = true
				if c.IsPlayer(user) {
					c.Log.Addf("You drink the %s, healing %d hp.", itemName, heal.Amount)
				}
			}
		}

		if dmg, ok := r.Damage.Get(item); ok {
			for _, t := range targets {
				if !r.World.Alive(t) {
					continue
				}
				r.QueueDamage(t, dmg.Amount)
				if c.IsPlayer(user) {
					c.Log.Addf("You use %s on %s, inflicting %d damage.", itemName, c.nameOr(t, "something"), dmg.Amount)
				}
			}
		}

		if conf, ok := r.Confusion.Get(item); ok {
			for _, t := range targets {
				if !r.CombatStats.Has(t) {
					continue
				}
				r.Confusion.Set(t, component.Confusion{Turns: conf.Turns})
				if c.IsPlayer(user) {
					c.Log.Addf("You use %s on %s, confusing them!", itemName, c.nameOr(t, "something"))
				}
			}
		}

		c.logger().Debug("item used",
			zap.Any("user", user),
			zap.Any("item", item),
			zap.Int("targets", len(targets)),
			zap.Bool("used", used),
		)
		if used && r.Consumables.Has(item) {
			r.World.Delete(item)
		}
	}
}

func (c *Context) resolveTargets(user ecs.Entity, wants *component.WantsToUseItem) []ecs.Entity {
	if wants.Target == nil {
		return []ecs.Entity{user}
	}
	point := *wants.Target
	aoe, ok := c.Reg.AreaOfEffect.Get(wants.Item)
	if !ok {
		return append([]ecs.Entity(nil), c.Map.TileOccupants(point.X, point.Y)...)
	}

	var targets []ecs.Entity
	for _, p := range BlastTiles(c.Map, point, aoe.Radius) {
		targets = append(targets, c.Map.TileOccupants(p.X, p.Y)...)
	}
	return targets
}

// BlastTiles returns the tiles an area effect of radius centred on p reaches:
// those visible from p within radius, minus the outer boundary ring, in map
// index order.
func BlastTiles(m *gamemap.Map, p gamemap.Point, radius int) []gamemap.Point {
	var out []gamemap.Point
	m.TilesVisibleFrom(p, radius).Each(func(t gamemap.Point) {
		if m.Interior(t) {
			out = append(out, t)
		}
	})
	sort.Slice(out, func(i, j int) bool { return m.Index(out[i].X, out[i].Y) < m.Index(out[j].X, out[j].Y) })
	return out
}
