package systems

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

// MeleeRange is the Euclidean distance under which a monster attacks.
const MeleeRange = 1.5

// MonsterAI decides each monster's action. It is a no-op outside MonsterTurn.
//
// Each monster independently: spends its turn shaking off confusion, attacks
// an adjacent player, or steps along the shortest path toward a player it can
// see. A failed path leaves the monster in place.
func MonsterAI(c *Context) {
	if c.RunState != runstate.MonsterTurn {
		return
	}
	r := c.Reg
	if !r.World.Alive(c.Player) || !r.Positions.Has(c.Player) {
		return
	}
	target := c.PlayerPos()

	for _, e := range ecs.Join(r.Viewsheds, r.Positions, r.Monsters) {
		if conf, ok := r.Confusion.Get(e); ok {
			conf.Turns--
			if conf.Turns <= 0 {
				r.Confusion.Remove(e)
			}
			c.logger().Debug("monster confused", zap.Any("entity", e), zap.Int("turns_left", conf.Turns))
			continue
		}

		pos := r.Positions.MustGet(e)
		here := pos.Point()
		if gamemap.Distance(here, target) < MeleeRange {
			r.WantsToMelee.MustInsert(e, component.WantsToMelee{Target: c.Player})
			c.logger().Debug("monster attacks", zap.Any("entity", e))
			continue
		}

		vs := r.Viewsheds.MustGet(e)
		if !vs.VisibleTiles.Has(target) {
			continue
		}
		path := c.Map.ShortestPath(here, target)
		if !path.Success || len(path.Steps) <= 1 {
			continue
		}
		next := path.Steps[1]
		c.Map.SetBlocked(here, false)
		*pos = component.PositionAt(next)
		c.Map.SetBlocked(next, true)
		vs.Dirty = true
		c.logger().Debug("monster moves",
			zap.Any("entity", e),
			zap.Int("x", next.X),
			zap.Int("y", next.Y),
		)
	}
}
