package gamemap

import "github.com/zyedidia/generic/mapset"

// octants transforms octant-local (dx, dy) into map space for each of the 8 octants.
var octants = [4][8]int{
	{1, 0, 0, -1, -1, 0, 0, 1},
	{0, 1, -1, 0, 0, -1, 1, 0},
	{0, 1, 1, 0, 0, -1, -1, 0},
	{1, 0, 0, 1, -1, 0, 0, -1},
}

// TilesVisibleFrom computes field of view from origin using recursive
// shadowcasting out to radius tiles.
//
// Precondition: origin is in bounds.
// Postcondition: every returned point is in bounds, within radius of origin
// (dx²+dy² ≤ radius²) and includes origin itself. Walls that stop sight are
// themselves visible. radius <= 0 yields only origin.
func (m *Map) TilesVisibleFrom(origin Point, radius int) mapset.Set[Point] {
	visible := mapset.New[Point]()
	if !m.InBounds(origin.X, origin.Y) {
		return visible
	}
	visible.Put(origin)
	if radius <= 0 {
		return visible
	}
	for o := 0; o < 8; o++ {
		m.castLight(visible, origin, 1, 1.0, 0.0, radius,
			octants[0][o], octants[1][o], octants[2][o], octants[3][o])
	}
	return visible
}

func (m *Map) castLight(visible mapset.Set[Point], origin Point, row int, start, end float64, radius, xx, xy, yx, yy int) {
	if start < end {
		return
	}
	radiusSq := radius * radius

	for j := row; j <= radius; j++ {
		dx, dy := -j-1, -j
		blocked := false
		newStart := start

		for {
			dx++
			if dx > 0 {
				break
			}

			lSlope := (float64(dx) - 0.5) / (float64(dy) + 0.5)
			rSlope := (float64(dx) + 0.5) / (float64(dy) - 0.5)
			if start < rSlope {
				continue
			}
			if end > lSlope {
				break
			}

			x := origin.X + dx*xx + dy*xy
			y := origin.Y + dx*yx + dy*yy
			if m.InBounds(x, y) && dx*dx+dy*dy <= radiusSq {
				visible.Put(Point{X: x, Y: y})
			}

			opaque := m.opaqueAt(x, y)
			if blocked {
				if opaque {
					newStart = rSlope
					continue
				}
				blocked = false
				start = newStart
			} else if opaque && j < radius {
				blocked = true
				m.castLight(visible, origin, j+1, start, lSlope, radius, xx, xy, yx, yy)
				newStart = rSlope
			}
		}
		if blocked {
			break
		}
	}
}

func (m *Map) opaqueAt(x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m.IsOpaque(m.Index(x, y))
}
