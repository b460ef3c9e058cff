// Package handlers runs a delve game for each Telnet connection.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/frontend/telnet"
	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/engine"
	"github.com/cory-johannsen/delve/internal/game/runstate"
	"github.com/cory-johannsen/delve/internal/savegame"
)

// GameFactory builds a game bound to a save slot.
type GameFactory func(ctx context.Context, slot string) (*engine.Game, error)

// ErrSlotInUse is returned when another connection is already playing a slot.
var ErrSlotInUse = errors.New("handlers: save slot in use")

// suspendTimeout bounds the save made when a session drops mid-run.
const suspendTimeout = 10 * time.Second

const banner = telnet.Bold + telnet.BrightYellow + "D E L V E" + telnet.Reset +
	"\r\nA dark dungeon, going down.\r\n"

// SessionHandler implements telnet.SessionHandler. Each session asks for a
// name, which becomes the save slot, and then plays one game per connection.
type SessionHandler struct {
	newGame     GameFactory
	registry    *command.Registry
	defaultSlot string
	logger      *zap.Logger

	mu    sync.Mutex
	slots map[string]struct{}
}

// NewSessionHandler creates a SessionHandler.
//
// Precondition: newGame, registry and logger are non-nil; defaultSlot is a
// valid slot used when the player enters an empty name.
// Postcondition: Returns a handler ready to serve sessions.
func NewSessionHandler(newGame GameFactory, registry *command.Registry, defaultSlot string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		newGame:     newGame,
		registry:    registry,
		defaultSlot: defaultSlot,
		logger:      logger,
		slots:       make(map[string]struct{}),
	}
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil when the player quits from the main menu, or an
// error if the session ended abnormally.
func (h *SessionHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	addr := conn.RemoteAddr().String()

	if err := conn.Write([]byte(banner)); err != nil {
		return fmt.Errorf("sending banner: %w", err)
	}
	slot, err := h.claimSlot(conn)
	if err != nil {
		return err
	}
	defer h.releaseSlot(slot)

	game, err := h.newGame(ctx, slot)
	if err != nil {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "The dungeon is closed right now."))
		return fmt.Errorf("creating game for %s: %w", slot, err)
	}
	h.logger.Info("session started", zap.String("remote_addr", addr), zap.String("slot", slot))

	frame := game.Frame()
	var notice []string
	for {
		if err := conn.WriteScreen(append(RenderFrame(frame), notice...)); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		notice = nil
		if frame.Quit {
			h.logger.Info("player quit",
				zap.String("slot", slot),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		line, err := conn.ReadLine()
		if ctx.Err() != nil {
			h.suspend(ctx, game, slot, ctx.Err())
			return ctx.Err()
		}
		if err != nil {
			if h.suspend(ctx, game, slot, err) && errors.Is(err, os.ErrDeadlineExceeded) {
				_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "You dozed off. Your game was saved."))
			}
			return fmt.Errorf("reading input: %w", err)
		}

		in, ok := h.interpret(line, frame)
		switch {
		case !ok:
			if strings.TrimSpace(line) != "" {
				notice = []string{telnet.Colorize(telnet.Dim, "Unknown command. Type help for a list.")}
			}
			continue
		case in.Action == command.ActionHelp:
			notice = RenderHelp(h.registry)
			continue
		}
		frame = game.Step(ctx, in)
	}
}

// suspend saves the run of a session that is ending without the player
// choosing to. The save outlives ctx so shutdown does not lose the run.
func (h *SessionHandler) suspend(ctx context.Context, game *engine.Game, slot string, cause error) bool {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), suspendTimeout)
	defer cancel()
	if !game.Suspend(saveCtx) {
		return false
	}
	h.logger.Info("run saved on disconnect", zap.String("slot", slot), zap.NamedError("cause", cause))
	return true
}

// interpret reads line against the frame on screen. While dead, any line
// acknowledges.
func (h *SessionHandler) interpret(line string, frame engine.Frame) (command.Input, bool) {
	if frame.State == runstate.GameOver {
		return command.Do(command.ActionCancel), true
	}
	return h.registry.Interpret(line, ModeFor(frame.State), len(frame.Menu))
}

// claimSlot asks for a name until the player gives a usable one.
func (h *SessionHandler) claimSlot(conn *telnet.Conn) (string, error) {
	for {
		if err := conn.WritePrompt(fmt.Sprintf("What is your name? [%s] ", h.defaultSlot)); err != nil {
			return "", fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return "", fmt.Errorf("reading name: %w", err)
		}

		slot := strings.ToLower(strings.TrimSpace(line))
		if slot == "" {
			slot = h.defaultSlot
		}
		if err := savegame.ValidSlot(slot); err != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Names are letters, digits, dashes and underscores."))
			continue
		}
		if err := h.lockSlot(slot); err != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Someone by that name is already below."))
			continue
		}
		return slot, nil
	}
}

func (h *SessionHandler) lockSlot(slot string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.slots[slot]; taken {
		return ErrSlotInUse
	}
	h.slots[slot] = struct{}{}
	return nil
}

func (h *SessionHandler) releaseSlot(slot string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.slots, slot)
}
