// Package command maps player text input to game inputs.
package command

// Categories for organizing commands.
const (
	CategoryMovement = "movement"
	CategoryItems    = "items"
	CategoryTurn     = "turn"
	CategorySystem   = "system"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names, including single-key shortcuts.
	Aliases []string
	// Help is the short help text shown to players.
	Help string
	// Category groups the command for help output.
	Category string
	// Action is the input the command produces.
	Action Action
	// DX and DY are the step for movement commands.
	DX, DY int
}

// BuiltinCommands returns every command available on the map.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "west", Aliases: []string{"h", "left"}, Help: "Move west", Category: CategoryMovement, Action: ActionMove, DX: -1},
		{Name: "east", Aliases: []string{"l", "right"}, Help: "Move east", Category: CategoryMovement, Action: ActionMove, DX: 1},
		{Name: "north", Aliases: []string{"k", "up"}, Help: "Move north", Category: CategoryMovement, Action: ActionMove, DY: -1},
		{Name: "south", Aliases: []string{"j", "down"}, Help: "Move south", Category: CategoryMovement, Action: ActionMove, DY: 1},
		{Name: "northwest", Aliases: []string{"y", "nw"}, Help: "Move northwest", Category: CategoryMovement, Action: ActionMove, DX: -1, DY: -1},
		{Name: "northeast", Aliases: []string{"u", "ne"}, Help: "Move northeast", Category: CategoryMovement, Action: ActionMove, DX: 1, DY: -1},
		{Name: "southwest", Aliases: []string{"b", "sw"}, Help: "Move southwest", Category: CategoryMovement, Action: ActionMove, DX: -1, DY: 1},
		{Name: "southeast", Aliases: []string{"n", "se"}, Help: "Move southeast", Category: CategoryMovement, Action: ActionMove, DX: 1, DY: 1},

		{Name: "pickup", Aliases: []string{"g", "get"}, Help: "Pick up the item here", Category: CategoryItems, Action: ActionPickup},
		{Name: "inventory", Aliases: []string{"i", "inv"}, Help: "Use an item", Category: CategoryItems, Action: ActionInventory},
		{Name: "drop", Aliases: []string{"d"}, Help: "Drop an item", Category: CategoryItems, Action: ActionDrop},

		{Name: "descend", Aliases: []string{">", "."}, Help: "Take the stairs down", Category: CategoryTurn, Action: ActionDescend},
		{Name: "wait", Aliases: []string{"z", "rest"}, Help: "Skip a turn", Category: CategoryTurn, Action: ActionWait},

		{Name: "save", Aliases: []string{"s"}, Help: "Save and return to the menu", Category: CategorySystem, Action: ActionSave},
		{Name: "cancel", Aliases: []string{"esc"}, Help: "Close a menu", Category: CategorySystem, Action: ActionCancel},
		{Name: "new", Help: "Start a new game", Category: CategorySystem, Action: ActionNewGame},
		{Name: "load", Help: "Load the saved game", Category: CategorySystem, Action: ActionLoadGame},
		{Name: "quit", Aliases: []string{"q"}, Help: "Quit", Category: CategorySystem, Action: ActionQuit},
		{Name: "help", Aliases: []string{"?"}, Help: "List commands", Category: CategorySystem, Action: ActionHelp},
		{Name: "look", Help: "Name what stands at x y", Category: CategorySystem, Action: ActionLook},
	}
}
