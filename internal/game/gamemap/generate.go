package gamemap

import "github.com/cory-johannsen/delve/internal/game/dice"

// Room generation limits.
const (
	MaxRooms    = 30
	MinRoomSize = 6
	MaxRoomSize = 10
)

// Generate carves a rooms-and-corridors level at the given depth.
//
// Rooms that would overlap an earlier room are discarded. Each kept room is
// joined to the previous one by an L-shaped corridor whose bend direction is
// chosen at random. The centre of the last room becomes the down stairs.
//
// Precondition: width and height are large enough to hold one MaxRoomSize room
// plus a border; smaller maps yield no rooms.
// Postcondition: the outer boundary ring is entirely Wall.
func Generate(width, height, depth int, src dice.Source) *Map {
	m := New(width, height, depth)

	for i := 0; i < MaxRooms; i++ {
		w := dice.Range(src, MinRoomSize, MaxRoomSize)
		h := dice.Range(src, MinRoomSize, MaxRoomSize)
		if width-w-1 < 1 || height-h-1 < 1 {
			continue
		}
		x := dice.RollDice(src, 1, width-w-1) - 1
		y := dice.RollDice(src, 1, height-h-1) - 1
		room := NewRect(x, y, w, h)

		overlaps := false
		for _, other := range m.Rooms {
			if room.Intersects(other) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}

		m.carveRoom(room)
		if len(m.Rooms) > 0 {
			next := room.Center()
			prev := m.Rooms[len(m.Rooms)-1].Center()
			if src.Intn(2) == 1 {
				m.carveHorizontal(prev.X, next.X, prev.Y)
				m.carveVertical(prev.Y, next.Y, next.X)
			} else {
				m.carveVertical(prev.Y, next.Y, prev.X)
				m.carveHorizontal(prev.X, next.X, next.Y)
			}
		}
		m.Rooms = append(m.Rooms, room)
	}

	if n := len(m.Rooms); n > 0 {
		m.SetTile(m.Rooms[n-1].Center(), DownStairs)
	}
	m.PopulateBlocked()
	return m
}

func (m *Map) carveRoom(r Rect) {
	for y := r.Y1 + 1; y <= r.Y2; y++ {
		for x := r.X1 + 1; x <= r.X2; x++ {
			m.carve(x, y)
		}
	}
}

func (m *Map) carveHorizontal(x1, x2, y int) {
	for x := min(x1, x2); x <= max(x1, x2); x++ {
		m.carve(x, y)
	}
}

func (m *Map) carveVertical(y1, y2, x int) {
	for y := min(y1, y2); y <= max(y1, y2); y++ {
		m.carve(x, y)
	}
}

// carve opens (x, y) unless it lies on the boundary ring.
func (m *Map) carve(x, y int) {
	if m.Interior(Point{X: x, Y: y}) {
		m.Tiles[m.Index(x, y)] = Floor
	}
}
