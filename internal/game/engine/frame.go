package engine

import (
	"context"
	"sort"

	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

// Cell is one drawn map tile. A blank Glyph is unexplored.
type Cell struct {
	Glyph rune
	FG    string
	// Visible is false for remembered tiles, which are drawn dimmed.
	Visible bool
}

// Target is a visible monster within targeting range.
type Target struct {
	Point gamemap.Point
	Name  string
}

// Frame is everything a frontend needs to draw one screen.
type Frame struct {
	State runstate.Kind
	Turn  int
	Depth int
	HP    int
	MaxHP int
	// Cells is indexed [y][x]; nil outside a run.
	Cells [][]Cell
	// Log holds the most recent entries, newest first.
	Log []string
	// Title and Menu are set while a menu is open.
	Title string
	Menu  []MenuItem
	// Range and Targets are set while targeting.
	Range   int
	Targets []Target
	// Tooltip names what stands on the tile the player looked at.
	Tooltip []string
	Quit    bool
}

// Frame renders the current state.
func (g *Game) Frame() Frame {
	f := Frame{
		State:   g.machine.Kind(),
		Turn:    g.turn,
		Log:     g.log.Recent(g.cfg.LogLines),
		Tooltip: g.tooltip,
		Quit:    g.quit,
	}

	switch f.State {
	case runstate.MainMenu:
		f.Title = "Delve"
		f.Menu = g.mainMenuItems(context.Background())
		return f
	case runstate.ShowInventory:
		f.Title = "Inventory"
		f.Menu = g.backpackMenu()
	case runstate.ShowDropItem:
		f.Title = "Drop which item?"
		f.Menu = g.backpackMenu()
	case runstate.ShowTargeting:
		st := g.machine.State()
		f.Title = "Select target"
		f.Range = st.Range
		f.Targets = g.targetsInRange(st.Range)
	}

	if g.m == nil {
		return f
	}
	f.Depth = g.m.Depth
	if stats, ok := g.reg.CombatStats.Get(g.player); ok {
		f.HP, f.MaxHP = stats.HP, stats.MaxHP
	}
	f.Cells = g.drawMap()
	return f
}

func (g *Game) backpackMenu() []MenuItem {
	items := g.reg.Backpack(g.player)
	menu := make([]MenuItem, len(items))
	for i, e := range items {
		name, _ := g.reg.NameOf(e)
		menu[i] = MenuItem{Key: command.MenuLetter(i), Label: name, Action: command.ActionSelect}
	}
	return menu
}

// drawMap lays revealed terrain, then renderables on visible tiles so that
// lower render orders end on top.
func (g *Game) drawMap() [][]Cell {
	m := g.m
	cells := make([][]Cell, m.Height)
	for y := range cells {
		row := make([]Cell, m.Width)
		for x := range row {
			idx := m.Index(x, y)
			if !m.Revealed[idx] {
				row[x] = Cell{Glyph: ' '}
				continue
			}
			t := m.Tiles[idx]
			row[x] = Cell{Glyph: t.Glyph(), FG: tileColour(t), Visible: m.Visible[idx]}
		}
		cells[y] = row
	}

	r := g.reg
	drawn := ecs.Join(r.Renderables, r.Positions)
	sort.SliceStable(drawn, func(i, j int) bool {
		return r.Renderables.MustGet(drawn[i]).Order > r.Renderables.MustGet(drawn[j]).Order
	})
	for _, e := range drawn {
		p := r.Positions.MustGet(e).Point()
		if !m.InBounds(p.X, p.Y) || !m.IsVisible(p) {
			continue
		}
		rend := r.Renderables.MustGet(e)
		cells[p.Y][p.X] = Cell{Glyph: rend.Glyph, FG: rend.FG, Visible: true}
	}
	return cells
}

func tileColour(t gamemap.TileType) string {
	switch t {
	case gamemap.Wall:
		return "green"
	case gamemap.DownStairs:
		return "cyan"
	default:
		return "white"
	}
}
