package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/delve/internal/frontend/telnet"
	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/engine"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

// remembered colours tiles the player has seen but cannot see now.
const remembered = telnet.BrightBlack

// RenderFrame lays out one screen: status line, map, menu or target list,
// tooltip and the most recent log entries.
//
// Postcondition: no returned line contains a line break.
func RenderFrame(f engine.Frame) []string {
	var lines []string
	if f.Cells != nil {
		lines = append(lines, renderStatus(f))
		for _, row := range f.Cells {
			lines = append(lines, renderRow(row))
		}
	}

	switch f.State {
	case runstate.MainMenu, runstate.ShowInventory, runstate.ShowDropItem:
		lines = append(lines, renderMenu(f.Title, f.Menu)...)
	case runstate.ShowTargeting:
		lines = append(lines, renderTargets(f)...)
	case runstate.GameOver:
		lines = append(lines,
			telnet.Colorize(telnet.Bold+telnet.Red, "You are dead."),
			"Type anything to return to the menu.")
	}

	if len(f.Tooltip) > 0 {
		lines = append(lines, telnet.Colorize(telnet.BrightWhite, strings.Join(f.Tooltip, ", ")))
	}
	return append(lines, f.Log...)
}

func renderStatus(f engine.Frame) string {
	hpColour := telnet.Green
	switch {
	case f.HP*3 <= f.MaxHP:
		hpColour = telnet.Red
	case f.HP*3 <= f.MaxHP*2:
		hpColour = telnet.Yellow
	}
	return fmt.Sprintf("Depth %d  Turn %d  HP: %s",
		f.Depth, f.Turn, telnet.Colorf(hpColour, "%d/%d", f.HP, f.MaxHP))
}

// renderRow writes a map row, emitting a colour code only when it changes.
func renderRow(row []engine.Cell) string {
	var b strings.Builder
	current := ""
	for _, c := range row {
		code := ""
		switch {
		case c.Glyph == ' ' || c.Glyph == 0:
		case c.Visible:
			code = telnet.ColorByName(c.FG)
		default:
			code = remembered
		}
		if code != current {
			if code == "" {
				b.WriteString(telnet.Reset)
			} else {
				b.WriteString(code)
			}
			current = code
		}
		if c.Glyph == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Glyph)
	}
	if current != "" {
		b.WriteString(telnet.Reset)
	}
	return b.String()
}

func renderMenu(title string, items []engine.MenuItem) []string {
	lines := []string{telnet.Colorize(telnet.Bold+telnet.BrightYellow, title)}
	if len(items) == 0 {
		return append(lines, telnet.Colorize(telnet.Dim, "  (empty)"), "Type cancel to close.")
	}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("  %s %s", telnet.Colorf(telnet.BrightCyan, "(%s)", it.Key), it.Label))
	}
	return lines
}

func renderTargets(f engine.Frame) []string {
	lines := []string{telnet.Colorf(telnet.Bold+telnet.BrightYellow, "%s (range %d)", f.Title, f.Range)}
	if len(f.Targets) == 0 {
		return append(lines, telnet.Colorize(telnet.Dim, "  Nothing in range. Type cancel."))
	}
	for _, t := range f.Targets {
		lines = append(lines, fmt.Sprintf("  %s %s", telnet.Colorf(telnet.BrightCyan, "%d %d", t.Point.X, t.Point.Y), t.Name))
	}
	return append(lines, "Type the x y of a target, or cancel.")
}

// RenderHelp lists every command grouped by category.
func RenderHelp(r *command.Registry) []string {
	byCat := r.CommandsByCategory()
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var lines []string
	for _, cat := range cats {
		lines = append(lines, telnet.Colorize(telnet.Cyan, strings.ToUpper(cat[:1])+cat[1:]+":"))
		for _, cmd := range byCat[cat] {
			name := cmd.Name
			if len(cmd.Aliases) > 0 {
				name += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			lines = append(lines, fmt.Sprintf("  %-28s %s", name, cmd.Help))
		}
	}
	return lines
}

// ModeFor tells command.Interpret how to read a line in state k.
func ModeFor(k runstate.Kind) command.Mode {
	switch k {
	case runstate.MainMenu, runstate.ShowInventory, runstate.ShowDropItem:
		return command.ModeMenu
	case runstate.ShowTargeting:
		return command.ModeTarget
	default:
		return command.ModeMap
	}
}
