// Package runstate models the turn controller's phases and the legal moves
// between them.
package runstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

// Kind identifies a run-state.
type Kind int

const (
	MainMenu Kind = iota
	PreRun
	AwaitingInput
	PlayerTurn
	MonsterTurn
	ShowInventory
	ShowDropItem
	ShowTargeting
	NextLevel
	SaveGame
	GameOver
)

var kindNames = map[Kind]string{
	MainMenu:      "main_menu",
	PreRun:        "pre_run",
	AwaitingInput: "awaiting_input",
	PlayerTurn:    "player_turn",
	MonsterTurn:   "monster_turn",
	ShowInventory: "show_inventory",
	ShowDropItem:  "show_drop_item",
	ShowTargeting: "show_targeting",
	NextLevel:     "next_level",
	SaveGame:      "save_game",
	GameOver:      "game_over",
}

// String returns the snake_case state name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// parseKind is the inverse of Kind.String.
func parseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("runstate: unknown state %q", s)
}

// State is the current run-state plus the payload carried by ShowTargeting.
type State struct {
	Kind  Kind
	Range int
	Item  ecs.Entity
}

// Targeting returns the ShowTargeting state for item with the given range.
func Targeting(rng int, item ecs.Entity) State {
	return State{Kind: ShowTargeting, Range: rng, Item: item}
}

// Event names accepted by Machine.Fire.
const (
	EventStart          = "start"
	EventAct            = "act"
	EventEndPlayerTurn  = "end_player_turn"
	EventEndMonsterTurn = "end_monster_turn"
	EventOpenInventory  = "open_inventory"
	EventOpenDrop       = "open_drop"
	EventTarget         = "target"
	EventCancel         = "cancel"
	EventDescend        = "descend"
	EventArrive         = "arrive"
	EventSave           = "save"
	EventSaved          = "saved"
	EventSaveFailed     = "save_failed"
	EventNewGame        = "new_game"
	EventLoadGame       = "load_game"
	EventDie            = "die"
	EventAcknowledge    = "acknowledge"
)

// ErrIllegalTransition is returned when an event is not valid from the current state.
var ErrIllegalTransition = errors.New("runstate: illegal transition")

func names(kinds ...Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}

func transitions() fsm.Events {
	inGame := names(PreRun, AwaitingInput, PlayerTurn, MonsterTurn, ShowInventory, ShowDropItem, ShowTargeting, NextLevel)
	return fsm.Events{
		{Name: EventStart, Src: names(PreRun), Dst: AwaitingInput.String()},
		{Name: EventAct, Src: names(AwaitingInput, ShowInventory, ShowDropItem, ShowTargeting), Dst: PlayerTurn.String()},
		{Name: EventEndPlayerTurn, Src: names(PlayerTurn), Dst: MonsterTurn.String()},
		{Name: EventEndMonsterTurn, Src: names(MonsterTurn), Dst: AwaitingInput.String()},
		{Name: EventOpenInventory, Src: names(AwaitingInput), Dst: ShowInventory.String()},
		{Name: EventOpenDrop, Src: names(AwaitingInput), Dst: ShowDropItem.String()},
		{Name: EventTarget, Src: names(ShowInventory), Dst: ShowTargeting.String()},
		{Name: EventCancel, Src: names(ShowInventory, ShowDropItem, ShowTargeting), Dst: AwaitingInput.String()},
		{Name: EventDescend, Src: names(AwaitingInput), Dst: NextLevel.String()},
		{Name: EventArrive, Src: names(NextLevel), Dst: PreRun.String()},
		{Name: EventSave, Src: names(AwaitingInput), Dst: SaveGame.String()},
		{Name: EventSaved, Src: names(SaveGame), Dst: MainMenu.String()},
		{Name: EventSaveFailed, Src: names(SaveGame), Dst: AwaitingInput.String()},
		{Name: EventNewGame, Src: names(MainMenu), Dst: PreRun.String()},
		{Name: EventLoadGame, Src: names(MainMenu), Dst: AwaitingInput.String()},
		{Name: EventDie, Src: inGame, Dst: GameOver.String()},
		{Name: EventAcknowledge, Src: names(GameOver), Dst: MainMenu.String()},
	}
}

// Machine guards run-state changes with a transition table.
//
// The simulation is single-threaded; Machine is not safe for concurrent use.
type Machine struct {
	fsm   *fsm.FSM
	state State
}

// NewMachine returns a machine in initial.
func NewMachine(initial State) *Machine {
	return &Machine{
		fsm:   fsm.NewFSM(initial.Kind.String(), transitions(), fsm.Callbacks{}),
		state: initial,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Kind returns the current state's kind.
func (m *Machine) Kind() Kind { return m.state.Kind }

// Can reports whether event is legal from the current state.
func (m *Machine) Can(event string) bool { return m.fsm.Can(event) }

// Fire applies event, moving to next.
//
// Precondition: next.Kind is the destination of event from the current state.
// Postcondition: on error the state is unchanged.
func (m *Machine) Fire(ctx context.Context, event string, next State) error {
	if !m.fsm.Can(event) {
		return fmt.Errorf("%w: %s from %s", ErrIllegalTransition, event, m.state.Kind)
	}
	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s from %s: %v", ErrIllegalTransition, event, m.state.Kind, err)
	}
	dst := m.fsm.Current()
	if got, err := parseKind(dst); err != nil || got != next.Kind {
		m.fsm.SetState(m.state.Kind.String())
		return fmt.Errorf("%w: %s leads to %s, not %s", ErrIllegalTransition, event, dst, next.Kind)
	}
	m.state = next
	return nil
}

// MustFire is Fire for transitions the caller has already validated; an
// illegal transition is a logic error and panics.
func (m *Machine) MustFire(ctx context.Context, event string, next State) {
	if err := m.Fire(ctx, event, next); err != nil {
		panic(err.Error())
	}
}

// Go fires event to the destination kind with no payload.
func (m *Machine) Go(ctx context.Context, event string, kind Kind) {
	m.MustFire(ctx, event, State{Kind: kind})
}
