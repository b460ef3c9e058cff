package handlers_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/delve/content"
	"github.com/cory-johannsen/delve/internal/config"
	"github.com/cory-johannsen/delve/internal/frontend/handlers"
	"github.com/cory-johannsen/delve/internal/frontend/telnet"
	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/engine"
	"github.com/cory-johannsen/delve/internal/game/spawner"
	"github.com/cory-johannsen/delve/internal/savegame"
	"github.com/cory-johannsen/delve/internal/testutil"
)

const wait = 5 * time.Second

func gameFactory(t *testing.T, store savegame.Store, logger *zap.Logger) handlers.GameFactory {
	t.Helper()
	cat, err := spawner.LoadCatalog(content.FS)
	require.NoError(t, err)
	return func(_ context.Context, slot string) (*engine.Game, error) {
		return engine.New(engine.Config{
			MapWidth:         80,
			MapHeight:        50,
			DiagonalMovement: true,
			Slot:             slot,
			Spawn:            spawner.Config{MonstersPerRoom: "1d1-1", ItemsPerRoom: "1d1-1"},
		}, cat, dice.NewLoggedRoller(dice.NewSeededSource(7), logger), store, logger)
	}
}

func serve(t *testing.T, store savegame.Store) *telnet.Acceptor {
	t.Helper()
	return serveWithTimeout(t, store, wait)
}

func serveWithTimeout(t *testing.T, store savegame.Store, readTimeout time.Duration) *telnet.Acceptor {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := handlers.NewSessionHandler(gameFactory(t, store, logger), command.DefaultRegistry(), "default", logger)

	acc := telnet.NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		ReadTimeout:  readTimeout,
		WriteTimeout: wait,
	}, h, logger)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = acc.Serve(ln) }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(acc.Stop)
	return acc
}

func login(t *testing.T, addr, name string) (*testutil.TelnetClient, string) {
	t.Helper()
	c := testutil.NewTelnetClient(t, addr)
	c.ReadUntil("What is your name?", wait)
	c.ReadUntil("] ", wait)
	return c, c.Command(name, wait)
}

func TestSession_PlaySaveAndQuit(t *testing.T) {
	store := savegame.NewMemoryStore()
	acc := serve(t, store)

	c, screen := login(t, acc.Addr(), "hero")
	assert.Contains(t, screen, "(a) Begin New Game")
	assert.NotContains(t, screen, "Load Game")

	screen = c.Command("a", wait)
	assert.Contains(t, screen, "Depth 1  Turn 0  HP: 30/30")
	assert.Contains(t, screen, engine.MsgWelcome)
	assert.Contains(t, screen, "@")

	screen = c.Command("help", wait)
	assert.Contains(t, screen, "Movement:")
	assert.Contains(t, screen, "descend")

	screen = c.Command("frobnicate", wait)
	assert.Contains(t, screen, "Unknown command")

	screen = c.Command("z", wait)
	assert.Contains(t, screen, "Turn 1")

	screen = c.Command("i", wait)
	assert.Contains(t, screen, "Inventory")
	assert.Contains(t, screen, "(empty)")
	c.Command("cancel", wait)

	screen = c.Command("save", wait)
	assert.Contains(t, screen, "(b) Load Game")
	ok, err := store.Exists(context.Background(), "hero")
	require.NoError(t, err)
	assert.True(t, ok)

	c.Send("quit")
	require.Eventually(t, func() bool { return acc.Active() == 0 }, wait, 10*time.Millisecond)
}

func TestSession_LoadsByName(t *testing.T) {
	store := savegame.NewMemoryStore()
	acc := serve(t, store)

	c, _ := login(t, acc.Addr(), "Wanderer")
	c.Command("a", wait)
	c.Command("z", wait)
	c.Command("save", wait)
	c.Send("quit")
	require.Eventually(t, func() bool { return acc.Active() == 0 }, wait, 10*time.Millisecond)

	c, screen := login(t, acc.Addr(), "wanderer")
	require.Contains(t, screen, "(b) Load Game")
	screen = c.Command("b", wait)
	assert.Contains(t, screen, "Turn 1")
	ok, err := store.Exists(context.Background(), "wanderer")
	require.NoError(t, err)
	assert.False(t, ok, "a loaded save is consumed")
}

func TestSession_RejectsBadAndBusyNames(t *testing.T) {
	acc := serve(t, savegame.NewMemoryStore())

	_, screen := login(t, acc.Addr(), "hero")
	require.Contains(t, screen, "Begin New Game")

	other := testutil.NewTelnetClient(t, acc.Addr())
	other.ReadUntil("] ", wait)
	other.Send("no spaces allowed")
	assert.Contains(t, other.ReadUntil("] ", wait), "Names are letters")
	other.Send("hero")
	assert.Contains(t, other.ReadUntil("] ", wait), "already below")
	other.Send("")
	assert.Contains(t, other.ReadUntil("\r\n> ", wait), "Begin New Game")
}

func TestSession_MenuShortcutsFallBackToCommands(t *testing.T) {
	acc := serve(t, savegame.NewMemoryStore())
	c, _ := login(t, acc.Addr(), "hero")

	c.Command("a", wait)
	screen := c.Command("i", wait)
	require.Contains(t, screen, "(empty)")
	screen = c.Command("c", wait)
	assert.Contains(t, screen, "Invalid selection.")
	c.Command("cancel", wait)
	c.Command("save", wait)

	c.Send("q")
	require.Eventually(t, func() bool { return acc.Active() == 0 }, wait, 10*time.Millisecond)
}

func TestSession_IdleTimeoutSavesTheRun(t *testing.T) {
	store := savegame.NewMemoryStore()
	acc := serveWithTimeout(t, store, time.Second)
	c, _ := login(t, acc.Addr(), "sleeper")

	c.Command("a", wait)
	c.ReadUntil("Your game was saved.", wait)
	require.Eventually(t, func() bool { return acc.Active() == 0 }, wait, 10*time.Millisecond)

	ok, err := store.Exists(context.Background(), "sleeper")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSession_DisconnectAtMainMenuWritesNoSave(t *testing.T) {
	store := savegame.NewMemoryStore()
	acc := serve(t, store)
	c, _ := login(t, acc.Addr(), "visitor")
	c.Close()
	require.Eventually(t, func() bool { return acc.Active() == 0 }, wait, 10*time.Millisecond)

	ok, err := store.Exists(context.Background(), "visitor")
	require.NoError(t, err)
	assert.False(t, ok)
}
