package command

import (
	"strconv"

	"github.com/cory-johannsen/delve/internal/game/gamemap"
)

// Action is a discrete player input.
type Action int

const (
	ActionNone Action = iota
	ActionMove
	ActionPickup
	ActionInventory
	ActionDrop
	ActionDescend
	ActionWait
	ActionSave
	ActionSelect
	ActionTarget
	ActionCancel
	ActionNewGame
	ActionLoadGame
	ActionQuit
	ActionHelp
	ActionLook
)

var actionNames = [...]string{
	"none", "move", "pickup", "inventory", "drop", "descend", "wait", "save",
	"select", "target", "cancel", "new_game", "load_game", "quit", "help", "look",
}

// String returns the action's name.
func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Input is one tick's worth of player input. The zero value is "no input".
type Input struct {
	Action Action
	DX, DY int
	// Index is the menu row chosen by ActionSelect.
	Index int
	// Point is the tile chosen by ActionTarget or inspected by ActionLook.
	Point gamemap.Point
}

// Move returns a movement input.
func Move(dx, dy int) Input { return Input{Action: ActionMove, DX: dx, DY: dy} }

// Select returns a menu selection input.
func Select(index int) Input { return Input{Action: ActionSelect, Index: index} }

// Target returns a targeting input.
func Target(p gamemap.Point) Input { return Input{Action: ActionTarget, Point: p} }

// Do returns an input with no payload.
func Do(a Action) Input { return Input{Action: a} }

// Mode tells Interpret how to read a line.
type Mode int

const (
	// ModeMap reads registry commands.
	ModeMap Mode = iota
	// ModeMenu reads a menu letter (a, b, c...) or a registry command. A
	// letter past the end of the menu loses to a command of the same name.
	ModeMenu
	// ModeTarget reads "x y" or a registry command.
	ModeTarget
)

// Interpret converts line into an Input for mode. menuLen is the number of
// rows on screen and only matters in ModeMenu. Unrecognised text yields the
// zero Input and false.
//
// Postcondition: in ModeMenu a letter naming a shown row is always a
// selection; any other letter is a selection only when no command claims it.
func (r *Registry) Interpret(line string, mode Mode, menuLen int) (Input, bool) {
	p := Parse(line)
	if p.Command == "" {
		return Input{}, false
	}

	switch mode {
	case ModeMenu:
		idx, isLetter := menuIndex(p)
		if isLetter && idx < menuLen {
			return Select(idx), true
		}
		if in, ok := r.resolve(p); ok {
			return in, true
		}
		if isLetter {
			return Select(idx), true
		}
		return Input{}, false
	case ModeTarget:
		if pt, ok := parsePoint(append([]string{p.Command}, p.Args...)); ok {
			return Target(pt), true
		}
	}

	return r.resolve(p)
}

func (r *Registry) resolve(p ParseResult) (Input, bool) {
	cmd, ok := r.Resolve(p.Command)
	if !ok {
		return Input{}, false
	}
	in := Input{Action: cmd.Action, DX: cmd.DX, DY: cmd.DY}
	if pt, ok := parsePoint(p.Args); ok {
		in.Point = pt
	}
	return in, true
}

// parsePoint reads "x y" from args.
func parsePoint(args []string) (gamemap.Point, bool) {
	if len(args) != 2 {
		return gamemap.Point{}, false
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		return gamemap.Point{}, false
	}
	return gamemap.Point{X: x, Y: y}, true
}

// menuIndex maps a single letter a-z to 0-25.
func menuIndex(p ParseResult) (int, bool) {
	if len(p.Args) != 0 || len(p.Command) != 1 {
		return 0, false
	}
	c := p.Command[0]
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return int(c - 'a'), true
}

// MenuLetter is the inverse of the menu letter mapping.
func MenuLetter(index int) string {
	return string(rune('a' + index))
}
