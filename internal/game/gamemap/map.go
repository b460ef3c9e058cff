// Package gamemap holds the spatial map: the tile grid, the revealed, visible
// and blocked bitmaps, per-tile occupant lists, field of view and pathfinding.
package gamemap

import (
	"math"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

// Point is an integer tile coordinate.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy int) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// TileType is the terrain of one tile.
type TileType int

const (
	Wall TileType = iota
	Floor
	DownStairs
)

// String returns the tile's lowercase name.
func (t TileType) String() string {
	switch t {
	case Wall:
		return "wall"
	case Floor:
		return "floor"
	case DownStairs:
		return "downstairs"
	default:
		return "unknown"
	}
}

// Glyph returns the character used to draw the tile.
func (t TileType) Glyph() rune {
	switch t {
	case Floor:
		return '.'
	case DownStairs:
		return '>'
	default:
		return '#'
	}
}

// Rect is an axis-aligned room rectangle; (X1,Y1) and (X2,Y2) are its corners.
type Rect struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

// NewRect returns the rectangle with corner (x, y) and size w x h.
func NewRect(x, y, w, h int) Rect {
	return Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

// Intersects reports whether r and o overlap, edges included.
func (r Rect) Intersects(o Rect) bool {
	return r.X1 <= o.X2 && r.X2 >= o.X1 && r.Y1 <= o.Y2 && r.Y2 >= o.Y1
}

// Center returns the centre tile of r.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Map is the grid for one dungeon level.
//
// Invariant: every per-tile slice has Width*Height entries, indexed by Index.
// Blocked and Contents are caches rebuilt from scratch each pass by the map
// indexing system; they are never persisted.
type Map struct {
	Width  int
	Height int
	Depth  int

	Tiles    []TileType
	Revealed []bool
	Visible  []bool
	Blocked  []bool
	Contents [][]ecs.Entity

	// Rooms is only consulted at generation and spawn time.
	Rooms []Rect

	// AllowDiagonal enables 8-way pathfinding with DiagonalCost per diagonal step.
	AllowDiagonal bool
}

// DiagonalCost is the pathing cost of one diagonal step.
const DiagonalCost = 1.45

// New returns a width x height map of walls at the given depth.
//
// Precondition: width > 0 and height > 0.
func New(width, height, depth int) *Map {
	n := width * height
	m := &Map{
		Width:    width,
		Height:   height,
		Depth:    depth,
		Tiles:    make([]TileType, n),
		Revealed: make([]bool, n),
		Visible:  make([]bool, n),
		Blocked:  make([]bool, n),
		Contents: make([][]ecs.Entity, n),
	}
	for i := range m.Tiles {
		m.Tiles[i] = Wall
	}
	return m
}

// Index maps (x, y) to the flat slice index.
func (m *Map) Index(x, y int) int { return y*m.Width + x }

// PointAt is the inverse of Index.
func (m *Map) PointAt(idx int) Point { return Point{X: idx % m.Width, Y: idx / m.Width} }

// InBounds reports whether (x, y) lies on the map.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// Interior reports whether p lies strictly inside the outer boundary ring.
func (m *Map) Interior(p Point) bool {
	return p.X > 0 && p.X < m.Width-1 && p.Y > 0 && p.Y < m.Height-1
}

// TileAt returns the terrain at p; out-of-bounds reads as Wall.
func (m *Map) TileAt(p Point) TileType {
	if !m.InBounds(p.X, p.Y) {
		return Wall
	}
	return m.Tiles[m.Index(p.X, p.Y)]
}

// SetTile sets the terrain at p. Out-of-bounds writes are ignored.
func (m *Map) SetTile(p Point, t TileType) {
	if m.InBounds(p.X, p.Y) {
		m.Tiles[m.Index(p.X, p.Y)] = t
	}
}

// IsOpaque reports whether the tile at idx blocks sight.
func (m *Map) IsOpaque(idx int) bool { return m.Tiles[idx] == Wall }

// TileBlocking reports whether (x, y) cannot be entered this turn.
// Out-of-bounds tiles are blocking.
func (m *Map) TileBlocking(x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m.Blocked[m.Index(x, y)]
}

// TileOccupants returns the entities indexed on (x, y) during the last rebuild.
func (m *Map) TileOccupants(x, y int) []ecs.Entity {
	if !m.InBounds(x, y) {
		return nil
	}
	return m.Contents[m.Index(x, y)]
}

// SetBlocked toggles the blocked flag at p.
func (m *Map) SetBlocked(p Point, blocked bool) {
	if m.InBounds(p.X, p.Y) {
		m.Blocked[m.Index(p.X, p.Y)] = blocked
	}
}

// PopulateBlocked resets the blocked bitmap to terrain only.
func (m *Map) PopulateBlocked() {
	for i, t := range m.Tiles {
		m.Blocked[i] = t == Wall
	}
}

// ClearContents empties every occupant list.
func (m *Map) ClearContents() {
	for i := range m.Contents {
		m.Contents[i] = m.Contents[i][:0]
	}
}

// AddOccupant appends e to the occupant list at p.
func (m *Map) AddOccupant(p Point, e ecs.Entity) {
	if m.InBounds(p.X, p.Y) {
		idx := m.Index(p.X, p.Y)
		m.Contents[idx] = append(m.Contents[idx], e)
	}
}

// ResetVisible clears the visible bitmap.
func (m *Map) ResetVisible() {
	for i := range m.Visible {
		m.Visible[i] = false
	}
}

// Reveal marks p as both visible and revealed.
func (m *Map) Reveal(p Point) {
	if m.InBounds(p.X, p.Y) {
		idx := m.Index(p.X, p.Y)
		m.Visible[idx] = true
		m.Revealed[idx] = true
	}
}

// IsVisible reports whether p is in the player's current view.
func (m *Map) IsVisible(p Point) bool {
	return m.InBounds(p.X, p.Y) && m.Visible[m.Index(p.X, p.Y)]
}
