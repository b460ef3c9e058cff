package systems

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

// Visibility recomputes every dirty viewshed. When the player's viewshed is
// recomputed the map's visible bitmap is rebuilt and newly seen tiles are
// revealed.
func Visibility(c *Context) {
	r := c.Reg
	for _, e := range ecs.Join(r.Viewsheds, r.Positions) {
		vs := r.Viewsheds.MustGet(e)
		if !vs.Dirty {
			continue
		}
		pos := r.Positions.MustGet(e).Point()
		vs.Dirty = false
		vs.VisibleTiles = c.Map.TilesVisibleFrom(pos, vs.Range)

		if r.Players.Has(e) {
			c.Map.ResetVisible()
			vs.VisibleTiles.Each(c.Map.Reveal)
		}
		c.logger().Debug("viewshed recomputed",
			zap.Any("entity", e),
			zap.Int("tiles", vs.VisibleTiles.Size()),
		)
	}
}
