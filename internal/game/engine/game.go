// Package engine is the turn controller: it owns the run-state machine, feeds
// player input into intents and drives the system pipeline one tick at a time.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamelog"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
	"github.com/cory-johannsen/delve/internal/game/spawner"
	"github.com/cory-johannsen/delve/internal/game/systems"
	"github.com/cory-johannsen/delve/internal/observability"
	"github.com/cory-johannsen/delve/internal/savegame"
)

// Config sizes the dungeon and names the save slot.
type Config struct {
	MapWidth         int
	MapHeight        int
	DiagonalMovement bool
	// Slot is the save slot used by save and load.
	Slot string
	// LogLines is how many game log entries a Frame carries.
	LogLines int
	Spawn    spawner.Config
	// Tracer traces ticks and pipeline passes; nil uses the global provider.
	Tracer trace.Tracer
}

// DefaultLogLines is used when Config.LogLines is not positive.
const DefaultLogLines = 5

// Game is one player's run. It is driven by a single goroutine.
type Game struct {
	cfg      Config
	reg      *component.Registry
	spawner  *spawner.Spawner
	roller   *dice.Roller
	pipeline *systems.Pipeline
	machine  *runstate.Machine
	log      *gamelog.Log
	store    savegame.Store
	tracer   trace.Tracer
	logger   *zap.Logger

	m       *gamemap.Map
	player  ecs.Entity
	turn    int
	quit    bool
	tooltip []string
}

// New returns a Game sitting at the main menu with no world.
//
// Precondition: catalog, roller, store and logger are non-nil; cfg.Slot is a valid slot.
// Postcondition: Returns an error when the spawner cannot be built or the slot is invalid.
func New(cfg Config, catalog *spawner.Catalog, roller *dice.Roller, store savegame.Store, logger *zap.Logger) (*Game, error) {
	if err := savegame.ValidSlot(cfg.Slot); err != nil {
		return nil, err
	}
	if cfg.LogLines <= 0 {
		cfg.LogLines = DefaultLogLines
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("delve/engine")
	}

	reg := component.NewRegistry()
	sp, err := spawner.New(reg, catalog, roller, cfg.Spawn, logger)
	if err != nil {
		return nil, fmt.Errorf("building spawner: %w", err)
	}

	return &Game{
		cfg:      cfg,
		reg:      reg,
		spawner:  sp,
		roller:   roller,
		pipeline: systems.NewPipeline(cfg.Tracer),
		machine:  runstate.NewMachine(runstate.State{Kind: runstate.MainMenu}),
		log:      gamelog.New(gamelog.DefaultCapacity, logger),
		store:    store,
		tracer:   tracer,
		logger:   logger,
	}, nil
}

// State returns the current run-state.
func (g *Game) State() runstate.State { return g.machine.State() }

// Registry exposes the component registry.
func (g *Game) Registry() *component.Registry { return g.reg }

// Map returns the current level, or nil outside a run.
func (g *Game) Map() *gamemap.Map { return g.m }

// Player returns the player entity, or ecs.Nil outside a run.
func (g *Game) Player() ecs.Entity { return g.player }

// Log returns the game log.
func (g *Game) Log() *gamelog.Log { return g.log }

// Turn returns the number of player turns taken this run.
func (g *Game) Turn() int { return g.turn }

// Quit reports whether the player chose Quit at the main menu.
func (g *Game) Quit() bool { return g.quit }

// Suspend saves a run in progress to the slot, closing any open menu first.
// It does nothing outside a run.
//
// Postcondition: reports true when the save was written; the main menu is
// showing afterwards.
func (g *Game) Suspend(ctx context.Context) bool {
	switch g.machine.Kind() {
	case runstate.ShowInventory, runstate.ShowDropItem, runstate.ShowTargeting:
		g.Step(ctx, command.Do(command.ActionCancel))
	}
	if g.machine.Kind() != runstate.AwaitingInput {
		return false
	}
	return g.Step(ctx, command.Do(command.ActionSave)).State == runstate.MainMenu
}

// waiting reports whether the current state needs player input to progress.
func (g *Game) waiting() bool {
	switch g.machine.Kind() {
	case runstate.MainMenu, runstate.AwaitingInput, runstate.ShowInventory,
		runstate.ShowDropItem, runstate.ShowTargeting, runstate.GameOver:
		return true
	}
	return false
}

// Step feeds in to the current state and keeps ticking until the game needs
// input again.
//
// Postcondition: the returned Frame reflects a state that waits for input.
func (g *Game) Step(ctx context.Context, in command.Input) Frame {
	ctx, span := g.tracer.Start(ctx, "game.step",
		trace.WithAttributes(attribute.String("action", in.Action.String())))
	defer span.End()

	g.tooltip = nil
	g.Tick(ctx, in)
	for !g.waiting() {
		g.Tick(ctx, command.Input{})
	}
	span.SetAttributes(attribute.String("run_state", g.machine.Kind().String()))
	observability.WithSpan(ctx, g.logger).Debug("step settled",
		zap.Stringer("action", in.Action),
		zap.Stringer("run_state", g.machine.Kind()),
		zap.Int("turn", g.turn),
	)
	return g.Frame()
}

// Tick evaluates the current run-state once, then sweeps the dead.
func (g *Game) Tick(ctx context.Context, in command.Input) {
	switch g.machine.Kind() {
	case runstate.MainMenu:
		g.mainMenu(ctx, in)
	case runstate.PreRun:
		g.runSystems(ctx)
		g.machine.Go(ctx, runstate.EventStart, runstate.AwaitingInput)
	case runstate.AwaitingInput:
		g.playerInput(ctx, in)
	case runstate.PlayerTurn:
		g.turn++
		g.log.SetTurn(g.turn)
		g.runSystems(ctx)
		g.machine.Go(ctx, runstate.EventEndPlayerTurn, runstate.MonsterTurn)
	case runstate.MonsterTurn:
		g.runSystems(ctx)
		g.machine.Go(ctx, runstate.EventEndMonsterTurn, runstate.AwaitingInput)
	case runstate.ShowInventory:
		g.inventoryMenu(ctx, in)
	case runstate.ShowDropItem:
		g.dropMenu(ctx, in)
	case runstate.ShowTargeting:
		g.targeting(ctx, in)
	case runstate.NextLevel:
		if err := g.nextLevel(); err != nil {
			g.logger.Error("building next level", zap.Error(err))
			g.log.Add("The stairs crumble beneath you.")
			g.machine.Go(ctx, runstate.EventDie, runstate.GameOver)
			break
		}
		g.machine.Go(ctx, runstate.EventArrive, runstate.PreRun)
	case runstate.SaveGame:
		g.save(ctx)
	case runstate.GameOver:
		if in.Action != command.ActionNone {
			g.endRun()
			g.machine.Go(ctx, runstate.EventAcknowledge, runstate.MainMenu)
		}
	}

	g.sweep(ctx)
}

// context builds the simulation context for the current level.
func (g *Game) context() *systems.Context {
	return &systems.Context{
		Reg:      g.reg,
		Map:      g.m,
		Player:   g.player,
		RunState: g.machine.Kind(),
		Log:      g.log,
		Logger:   g.logger,
	}
}

func (g *Game) runSystems(ctx context.Context) {
	g.pipeline.Run(ctx, g.context())
}

// sweep removes the dead once per tick and ends the run if the player died.
func (g *Game) sweep(ctx context.Context) {
	if g.m == nil || g.machine.Kind() == runstate.GameOver {
		return
	}
	res := systems.DeleteTheDead(g.context())
	if res.PlayerDead && g.machine.Can(runstate.EventDie) {
		g.logger.Info("player died", zap.Int("turn", g.turn), zap.Int("depth", g.m.Depth))
		g.machine.Go(ctx, runstate.EventDie, runstate.GameOver)
	}
}

func (g *Game) mainMenu(ctx context.Context, in command.Input) {
	action := in.Action
	if action == command.ActionSelect {
		items := g.mainMenuItems(ctx)
		if in.Index < 0 || in.Index >= len(items) {
			g.log.Add(MsgInvalidSelection)
			return
		}
		action = items[in.Index].Action
	}

	switch action {
	case command.ActionNewGame:
		if err := g.newRun(); err != nil {
			g.logger.Error("starting new game", zap.Error(err))
			g.log.Add("The dungeon could not be built.")
			return
		}
		g.machine.Go(ctx, runstate.EventNewGame, runstate.PreRun)
	case command.ActionLoadGame:
		if err := g.load(ctx); err != nil {
			if errors.Is(err, savegame.ErrNoSave) {
				g.log.Add("There is no saved game to load.")
				return
			}
			g.logger.Error("loading game", zap.Error(err))
			g.log.Add("The saved game could not be loaded.")
			return
		}
		g.machine.Go(ctx, runstate.EventLoadGame, runstate.AwaitingInput)
	case command.ActionQuit:
		g.quit = true
	}
}

// MenuItem is one selectable menu row.
type MenuItem struct {
	Key    string
	Label  string
	Action command.Action
}

func (g *Game) mainMenuItems(ctx context.Context) []MenuItem {
	items := []MenuItem{{Label: "Begin New Game", Action: command.ActionNewGame}}
	if ok, err := g.store.Exists(ctx, g.cfg.Slot); err != nil {
		g.logger.Warn("checking for saved game", zap.Error(err))
	} else if ok {
		items = append(items, MenuItem{Label: "Load Game", Action: command.ActionLoadGame})
	}
	items = append(items, MenuItem{Label: "Quit", Action: command.ActionQuit})
	for i := range items {
		items[i].Key = command.MenuLetter(i)
	}
	return items
}

// endRun drops the current world.
func (g *Game) endRun() {
	g.reg.World.Clear()
	g.m = nil
	g.player = ecs.Nil
}
