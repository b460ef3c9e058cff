package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
	"github.com/cory-johannsen/delve/internal/game/systems"
	"github.com/cory-johannsen/delve/internal/savegame"
)

// ErrNoRooms is returned when the generator produced a level with nowhere to stand.
var ErrNoRooms = errors.New("engine: generated level has no rooms")

// Messages written to the game log at run boundaries and by menus.
const (
	MsgWelcome          = "You find yourself in a dark room with no recollection of who you are."
	MsgDescend          = "You descend to the level below and take a moment to rest."
	MsgInvalidSelection = "Invalid selection."
)

func (g *Game) generate(depth int) (*gamemap.Map, error) {
	m := gamemap.Generate(g.cfg.MapWidth, g.cfg.MapHeight, depth, g.roller.Source())
	if len(m.Rooms) == 0 {
		return nil, ErrNoRooms
	}
	m.AllowDiagonal = g.cfg.DiagonalMovement
	return m, nil
}

// newRun replaces the world with a fresh depth-1 level and player.
func (g *Game) newRun() error {
	m, err := g.generate(1)
	if err != nil {
		return err
	}
	g.reg.World.Clear()
	g.m = m
	g.player = g.spawner.Player(m.Rooms[0].Center())
	g.spawner.Populate(m)
	g.turn = 0
	g.log.Reset(nil)
	g.log.SetTurn(0)
	g.log.Add(MsgWelcome)
	g.logger.Info("new game",
		zap.Int("rooms", len(m.Rooms)),
		zap.Int("entities", g.reg.World.Count()),
	)
	return nil
}

// nextLevel keeps the player and their backpack, discards everything else
// and builds the level below.
//
// Postcondition: the player stands at the centre of the first room with a
// dirty viewshed and at least half their maximum hit points.
func (g *Game) nextLevel() error {
	m, err := g.generate(g.m.Depth + 1)
	if err != nil {
		return err
	}

	r := g.reg
	for _, e := range r.World.Entities() {
		if e == g.player {
			continue
		}
		if bp, ok := r.InBackpack.Get(e); ok && bp.Owner == g.player {
			continue
		}
		r.World.Delete(e)
	}
	removed := r.World.Maintain()

	g.m = m
	g.spawner.Populate(m)

	start := m.Rooms[0].Center()
	pos := r.Positions.MustGet(g.player)
	pos.X, pos.Y = start.X, start.Y
	if vs, ok := r.Viewsheds.Get(g.player); ok {
		vs.Dirty = true
	}

	g.log.Add(MsgDescend)
	stats := r.CombatStats.MustGet(g.player)
	stats.HP = max(stats.HP, stats.MaxHP/2)

	g.logger.Info("descended",
		zap.Int("depth", m.Depth),
		zap.Int("removed", len(removed)),
		zap.Int("entities", r.World.Count()),
	)
	return nil
}

// save writes the run to the configured slot and returns to the main menu.
// On failure the run continues.
func (g *Game) save(ctx context.Context) {
	snap := savegame.Capture(g.reg, g.m, g.turn, g.log.Entries())
	data, err := savegame.Encode(snap)
	if err == nil {
		err = g.store.Save(ctx, g.cfg.Slot, data)
	}
	if err != nil {
		g.logger.Error("saving game", zap.String("slot", g.cfg.Slot), zap.Error(err))
		g.log.Add("Unable to save the game.")
		g.machine.Go(ctx, runstate.EventSaveFailed, runstate.AwaitingInput)
		return
	}
	g.logger.Info("game saved",
		zap.String("slot", g.cfg.Slot),
		zap.String("save_id", snap.ID),
		zap.Int("bytes", len(data)),
	)
	g.endRun()
	g.log.Reset(nil)
	g.machine.Go(ctx, runstate.EventSaved, runstate.MainMenu)
}

// load restores the slot's run. A loaded save is deleted.
func (g *Game) load(ctx context.Context) error {
	data, err := g.store.Load(ctx, g.cfg.Slot)
	if err != nil {
		return err
	}
	snap, err := savegame.Decode(data)
	if err != nil {
		return err
	}
	m, player, err := savegame.Restore(snap, g.reg)
	if err != nil {
		g.endRun()
		return fmt.Errorf("restoring save %s: %w", snap.ID, err)
	}

	g.m = m
	g.player = player
	g.turn = snap.Turn
	g.log.Reset(snap.Log)
	g.log.SetTurn(g.turn)

	c := g.context()
	systems.Visibility(c)
	systems.MapIndexing(c)

	if err := g.store.Delete(ctx, g.cfg.Slot); err != nil {
		g.logger.Warn("deleting loaded save", zap.String("slot", g.cfg.Slot), zap.Error(err))
	}
	g.logger.Info("game loaded",
		zap.String("slot", g.cfg.Slot),
		zap.String("save_id", snap.ID),
		zap.Int("depth", m.Depth),
		zap.Any("player", player),
	)
	return nil
}
