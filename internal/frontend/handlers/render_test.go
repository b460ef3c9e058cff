package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/frontend/telnet"
	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/engine"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

func plain(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = telnet.StripANSI(l)
	}
	return out
}

func TestRenderFrame_Map(t *testing.T) {
	f := engine.Frame{
		State: runstate.AwaitingInput,
		Turn:  3,
		Depth: 2,
		HP:    25,
		MaxHP: 30,
		Cells: [][]engine.Cell{
			{{Glyph: '#', FG: "green", Visible: true}, {Glyph: '@', FG: "yellow", Visible: true}, {Glyph: '.', FG: "white"}},
			{{Glyph: ' '}, {Glyph: 'g', FG: "red", Visible: true}, {}},
		},
		Log: []string{"newest", "older"},
	}

	lines := plain(RenderFrame(f))
	require.Len(t, lines, 5)
	assert.Equal(t, "Depth 2  Turn 3  HP: 25/30", lines[0])
	assert.Equal(t, "#@.", lines[1])
	assert.Equal(t, " g ", lines[2])
	assert.Equal(t, []string{"newest", "older"}, lines[3:])
}

func TestRenderRow_RememberedTilesAreGrey(t *testing.T) {
	row := renderRow([]engine.Cell{{Glyph: '.', FG: "white"}})
	assert.True(t, strings.HasPrefix(row, telnet.BrightBlack))

	row = renderRow([]engine.Cell{{Glyph: 'g', FG: "red", Visible: true}})
	assert.True(t, strings.HasPrefix(row, telnet.Red))
}

func TestRenderRow_ColourOnlyOnChange(t *testing.T) {
	cells := []engine.Cell{
		{Glyph: '#', FG: "green", Visible: true},
		{Glyph: '#', FG: "green", Visible: true},
		{Glyph: '#', FG: "green", Visible: true},
	}
	row := renderRow(cells)
	assert.Equal(t, 1, strings.Count(row, telnet.Green))
	assert.Equal(t, telnet.Green+"###"+telnet.Reset, row)
}

func TestRenderFrame_MainMenu(t *testing.T) {
	f := engine.Frame{
		State: runstate.MainMenu,
		Title: "Delve",
		Menu: []engine.MenuItem{
			{Key: "a", Label: "Begin New Game"},
			{Key: "b", Label: "Quit"},
		},
		Log: []string{"There is no saved game to load."},
	}
	lines := plain(RenderFrame(f))
	assert.Equal(t, []string{"Delve", "  (a) Begin New Game", "  (b) Quit", "There is no saved game to load."}, lines)
}

func TestRenderFrame_EmptyInventory(t *testing.T) {
	lines := plain(RenderFrame(engine.Frame{State: runstate.ShowInventory, Title: "Inventory"}))
	assert.Contains(t, lines, "  (empty)")
}

func TestRenderFrame_Targets(t *testing.T) {
	f := engine.Frame{
		State:   runstate.ShowTargeting,
		Title:   "Select target",
		Range:   6,
		Targets: []engine.Target{{Point: gamemap.Point{X: 12, Y: 7}, Name: "Goblin"}},
		Tooltip: []string{"Goblin"},
	}
	lines := plain(RenderFrame(f))
	assert.Equal(t, "Select target (range 6)", lines[0])
	assert.Equal(t, "  12 7 Goblin", lines[1])
	assert.Contains(t, lines, "Goblin")
}

func TestRenderFrame_GameOver(t *testing.T) {
	lines := plain(RenderFrame(engine.Frame{State: runstate.GameOver, Log: []string{"You are dead!"}}))
	assert.Equal(t, "You are dead.", lines[0])
	assert.Equal(t, "You are dead!", lines[len(lines)-1])
}

func TestRenderHelp_ListsEveryCommand(t *testing.T) {
	r := command.DefaultRegistry()
	text := strings.Join(plain(RenderHelp(r)), "\n")
	for _, cmd := range r.Commands() {
		assert.Contains(t, text, cmd.Name)
	}
	assert.Contains(t, text, "Movement:")
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, command.ModeMenu, ModeFor(runstate.MainMenu))
	assert.Equal(t, command.ModeMenu, ModeFor(runstate.ShowInventory))
	assert.Equal(t, command.ModeMenu, ModeFor(runstate.ShowDropItem))
	assert.Equal(t, command.ModeTarget, ModeFor(runstate.ShowTargeting))
	assert.Equal(t, command.ModeMap, ModeFor(runstate.AwaitingInput))
}

// Property: a rendered map row always shows exactly one character per cell.
func TestPropertyRenderRowWidth(t *testing.T) {
	glyphs := []rune{'#', '.', '>', '@', 'g', 'o', '!', '?', ' '}
	colours := []string{"red", "green", "white", "orange", "nope"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 80).Draw(t, "width")
		row := make([]engine.Cell, n)
		for i := range row {
			row[i] = engine.Cell{
				Glyph:   glyphs[rapid.IntRange(0, len(glyphs)-1).Draw(t, "glyph")],
				FG:      colours[rapid.IntRange(0, len(colours)-1).Draw(t, "fg")],
				Visible: rapid.Bool().Draw(t, "visible"),
			}
		}
		assert.Equal(t, n, len([]rune(telnet.StripANSI(renderRow(row)))))
	})
}
