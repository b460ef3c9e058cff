// Package systems holds the turn pipeline: each system reads and writes the
// component registry through an explicit simulation Context.
package systems

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamelog"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

// Context is the mutable simulation state threaded through every system.
// Systems run one at a time; each owns whatever it writes for its duration.
type Context struct {
	Reg      *component.Registry
	Map      *gamemap.Map
	Player   ecs.Entity
	RunState runstate.Kind
	Log      *gamelog.Log
	Logger   *zap.Logger
}

// PlayerPos returns the player's current tile.
//
// Precondition: the player entity carries a Position.
func (c *Context) PlayerPos() gamemap.Point {
	return c.Reg.Positions.MustGet(c.Player).Point()
}

// IsPlayer reports whether e is the player entity.
func (c *Context) IsPlayer(e ecs.Entity) bool { return e == c.Player }

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// nameOr returns e's name, or fallback when it has none.
func (c *Context) nameOr(e ecs.Entity, fallback string) string {
	if n, ok := c.Reg.NameOf(e); ok {
		return n
	}
	return fallback
}
