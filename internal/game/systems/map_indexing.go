package systems

// MapIndexing rebuilds the blocked bitmap and per-tile occupant lists from
// terrain plus every positioned entity. Nothing carries over from the
// previous pass.
func MapIndexing(c *Context) {
	r := c.Reg
	c.Map.PopulateBlocked()
	c.Map.ClearContents()
	for _, e := range r.Positions.Entities() {
		p := r.Positions.MustGet(e).Point()
		if r.BlocksTile.Has(e) {
			c.Map.SetBlocked(p, true)
		}
		c.Map.AddOccupant(p, e)
	}
}
