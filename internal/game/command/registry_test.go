package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/gamemap"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotEmpty(t, r.Commands())
}

func TestResolve_MovementKeys(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		key    string
		dx, dy int
	}{
		{"h", -1, 0}, {"l", 1, 0}, {"k", 0, -1}, {"j", 0, 1},
		{"y", -1, -1}, {"u", 1, -1}, {"b", -1, 1}, {"n", 1, 1},
	}
	for _, tt := range tests {
		cmd, ok := r.Resolve(tt.key)
		require.True(t, ok, "key %q not found", tt.key)
		assert.Equal(t, ActionMove, cmd.Action)
		assert.Equal(t, tt.dx, cmd.DX, "key %q", tt.key)
		assert.Equal(t, tt.dy, cmd.DY, "key %q", tt.key)
	}
}

func TestResolve_TurnAndItemKeys(t *testing.T) {
	r := DefaultRegistry()
	tests := map[string]Action{
		"g": ActionPickup, "i": ActionInventory, "d": ActionDrop,
		".": ActionDescend, ">": ActionDescend, "z": ActionWait,
		"save": ActionSave, "esc": ActionCancel, "?": ActionHelp,
	}
	for key, want := range tests {
		cmd, ok := r.Resolve(key)
		require.True(t, ok, "key %q not found", key)
		assert.Equal(t, want, cmd.Action, "key %q", key)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := DefaultRegistry().Resolve("teleport")
	assert.False(t, ok)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "test"}, {Name: "test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	_, err := NewRegistry([]Command{
		{Name: "test1", Aliases: []string{"t"}},
		{Name: "test2", Aliases: []string{"t"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestCommandsByCategory(t *testing.T) {
	cats := DefaultRegistry().CommandsByCategory()
	assert.Len(t, cats[CategoryMovement], 8)
	assert.Contains(t, cats, CategoryItems)
	assert.Contains(t, cats, CategoryTurn)
	assert.Contains(t, cats, CategorySystem)
}

func TestInterpret_MapMode(t *testing.T) {
	r := DefaultRegistry()
	in, ok := r.Interpret("k", ModeMap, 0)
	require.True(t, ok)
	assert.Equal(t, Move(0, -1), in)

	in, ok = r.Interpret("a", ModeMap, 0)
	assert.False(t, ok)
	assert.Equal(t, Input{}, in)

	_, ok = r.Interpret("", ModeMap, 0)
	assert.False(t, ok)
}

func TestInterpret_MenuMode(t *testing.T) {
	r := DefaultRegistry()
	in, ok := r.Interpret("c", ModeMenu, 3)
	require.True(t, ok)
	assert.Equal(t, Select(2), in)

	in, ok = r.Interpret("cancel", ModeMenu, 3)
	require.True(t, ok)
	assert.Equal(t, Do(ActionCancel), in)
}

func TestInterpret_TargetMode(t *testing.T) {
	r := DefaultRegistry()
	in, ok := r.Interpret("12 7", ModeTarget, 0)
	require.True(t, ok)
	assert.Equal(t, Target(gamemap.Point{X: 12, Y: 7}), in)

	_, ok = r.Interpret("12 seven", ModeTarget, 0)
	assert.False(t, ok)

	in, ok = r.Interpret("esc", ModeTarget, 0)
	require.True(t, ok)
	assert.Equal(t, ActionCancel, in.Action)
}

func TestInterpret_LookCarriesPoint(t *testing.T) {
	r := DefaultRegistry()
	in, ok := r.Interpret("look 3 4", ModeMap, 0)
	require.True(t, ok)
	assert.Equal(t, ActionLook, in.Action)
	assert.Equal(t, gamemap.Point{X: 3, Y: 4}, in.Point)

	in, ok = r.Interpret("look", ModeMap, 0)
	require.True(t, ok)
	assert.Equal(t, gamemap.Point{}, in.Point)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "descend", ActionDescend.String())
	assert.Equal(t, "unknown", Action(99).String())
	assert.Equal(t, "c", MenuLetter(2))
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRegistry()
		cmds := r.Commands()
		idx := rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")
		cmd := cmds[idx]

		resolved, ok := r.Resolve(cmd.Name)
		if !ok || resolved.Name != cmd.Name {
			t.Fatalf("canonical name %q did not resolve to itself", cmd.Name)
		}
		for _, alias := range cmd.Aliases {
			aliasResolved, ok := r.Resolve(alias)
			if !ok {
				t.Fatalf("alias %q did not resolve", alias)
			}
			if aliasResolved.Name != cmd.Name {
				t.Fatalf("alias %q resolved to %q, expected %q", alias, aliasResolved.Name, cmd.Name)
			}
		}
	})
}

func TestInterpret_MenuLetterPastEndPrefersCommand(t *testing.T) {
	r := DefaultRegistry()

	in, ok := r.Interpret("q", ModeMenu, 2)
	require.True(t, ok)
	assert.Equal(t, Do(ActionQuit), in, "q at a two-row menu quits")

	in, ok = r.Interpret("i", ModeMenu, 1)
	require.True(t, ok)
	assert.Equal(t, ActionInventory, in.Action)

	in, ok = r.Interpret("i", ModeMenu, 9)
	require.True(t, ok)
	assert.Equal(t, Select(8), in, "a shown row wins over the alias")

	in, ok = r.Interpret("x", ModeMenu, 2)
	require.True(t, ok)
	assert.Equal(t, Select(23), in, "unclaimed letters still select and are rejected downstream")

	_, ok = r.Interpret("frobnicate", ModeMenu, 2)
	assert.False(t, ok)
}

func TestPropertyMenuLettersRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.IntRange(0, 25).Draw(t, "idx")
		in, ok := DefaultRegistry().Interpret(MenuLetter(idx), ModeMenu, idx+1)
		if !ok || in.Action != ActionSelect || in.Index != idx {
			t.Fatalf("letter %q gave %+v", MenuLetter(idx), in)
		}
	})
}
