package spawner_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/content"
	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/spawner"
)

func newSpawner(t *testing.T, cfg spawner.Config, src dice.Source) (*spawner.Spawner, *component.Registry) {
	t.Helper()
	cat, err := spawner.LoadCatalog(content.FS)
	require.NoError(t, err)
	reg := component.NewRegistry()
	logger := zaptest.NewLogger(t)
	s, err := spawner.New(reg, cat, dice.NewLoggedRoller(src, logger), cfg, logger)
	require.NoError(t, err)
	return s, reg
}

func defaultConfig() spawner.Config {
	return spawner.Config{MonstersPerRoom: "1d6-3", ItemsPerRoom: "1d4-3"}
}

func TestLoadCatalog_EmbeddedContent(t *testing.T) {
	cat, err := spawner.LoadCatalog(content.FS)
	require.NoError(t, err)

	ids := func() []string {
		var out []string
		for _, m := range cat.Monsters {
			out = append(out, m.ID)
		}
		return out
	}()
	assert.Equal(t, []string{"goblin", "orc"}, ids)
	assert.Len(t, cat.Items, 4)

	potion, err := cat.Item("health_potion")
	require.NoError(t, err)
	assert.Equal(t, 8, potion.Healing)
	assert.True(t, potion.Consumable)

	orc, err := cat.Monster("orc")
	require.NoError(t, err)
	assert.Equal(t, 16, orc.MaxHP)
	assert.Equal(t, 1, orc.Defense)
	assert.Equal(t, 4, orc.Power)
}

func TestCatalog_UnknownTemplate(t *testing.T) {
	cat, err := spawner.NewCatalog(nil, nil)
	require.NoError(t, err)
	_, err = cat.Monster("dragon")
	assert.True(t, errors.Is(err, spawner.ErrUnknownTemplate))
	_, err = cat.Item("wand")
	assert.True(t, errors.Is(err, spawner.ErrUnknownTemplate))
}

func TestNewCatalog_Duplicate(t *testing.T) {
	a := &spawner.MonsterTemplate{ID: "goblin"}
	_, err := spawner.NewCatalog([]*spawner.MonsterTemplate{a, a}, nil)
	assert.Error(t, err)
}

func TestMonsterTemplate_ValidateAggregates(t *testing.T) {
	_, err := spawner.LoadMonsterFromBytes([]byte("id: blob\nmax_hp: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be empty")
	assert.Contains(t, err.Error(), "glyph")
	assert.Contains(t, err.Error(), "max_hp")
}

func TestItemTemplate_RadiusRequiresRange(t *testing.T) {
	_, err := spawner.LoadItemFromBytes([]byte("id: bomb\nname: Bomb\nglyph: '*'\nradius: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "radius requires range")
}

func TestLoadCatalog_InvalidYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"monsters/bad.yaml": {Data: []byte("not: [valid")},
		"items/.keep":       {Data: nil},
	}
	_, err := spawner.LoadCatalog(fsys)
	assert.Error(t, err)
}

func TestLoadCatalog_MissingDir(t *testing.T) {
	_, err := spawner.LoadCatalog(fstest.MapFS{})
	assert.Error(t, err)
}

func TestNew_BadExpression(t *testing.T) {
	cat, err := spawner.NewCatalog(nil, nil)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	_, err = spawner.New(component.NewRegistry(), cat, dice.NewLoggedRoller(dice.NewSeededSource(1), logger),
		spawner.Config{MonstersPerRoom: "lots", ItemsPerRoom: "1d4"}, logger)
	assert.Error(t, err)
}

func TestSpawner_Player(t *testing.T) {
	s, reg := newSpawner(t, defaultConfig(), dice.NewSeededSource(1))
	p := s.Player(gamemap.Point{X: 3, Y: 4})

	assert.True(t, reg.Players.Has(p))
	assert.Equal(t, component.Position{X: 3, Y: 4}, *reg.Positions.MustGet(p))
	assert.Equal(t, component.CombatStats{MaxHP: 30, HP: 30, Defense: 2, Power: 5}, *reg.CombatStats.MustGet(p))
	vs := reg.Viewsheds.MustGet(p)
	assert.Equal(t, 8, vs.Range)
	assert.True(t, vs.Dirty)
	assert.False(t, reg.BlocksTile.Has(p))
}

func TestSpawner_ItemCapabilities(t *testing.T) {
	s, reg := newSpawner(t, defaultConfig(), dice.NewSeededSource(1))
	e, err := s.Item("fireball_scroll", gamemap.Point{X: 2, Y: 2})
	require.NoError(t, err)

	assert.True(t, reg.Items.Has(e))
	assert.True(t, reg.Consumables.Has(e))
	assert.Equal(t, 6, reg.Ranged.MustGet(e).Range)
	assert.Equal(t, 3, reg.AreaOfEffect.MustGet(e).Radius)
	assert.Equal(t, 20, reg.Damage.MustGet(e).Amount)
	assert.False(t, reg.Healing.Has(e))

	owner := s.Player(gamemap.Point{X: 1, Y: 1})
	carried, err := s.ItemInBackpack("confusion_scroll", owner)
	require.NoError(t, err)
	assert.False(t, reg.Positions.Has(carried))
	assert.Equal(t, owner, reg.InBackpack.MustGet(carried).Owner)
	assert.Equal(t, 4, reg.Confusion.MustGet(carried).Turns)

	_, err = s.Monster("dragon", gamemap.Point{})
	assert.ErrorIs(t, err, spawner.ErrUnknownTemplate)
}

func TestSpawner_FillRoomPlacesDistinctInteriorTiles(t *testing.T) {
	s, reg := newSpawner(t, spawner.Config{MonstersPerRoom: "1d1+3", ItemsPerRoom: "1d1-1"}, dice.NewSeededSource(9))
	m := gamemap.New(20, 20, 1)
	room := gamemap.NewRect(2, 2, 6, 6)
	for y := room.Y1 + 1; y <= room.Y2; y++ {
		for x := room.X1 + 1; x <= room.X2; x++ {
			m.SetTile(gamemap.Point{X: x, Y: y}, gamemap.Floor)
		}
	}

	s.FillRoom(m, room)

	monsters := reg.Monsters.Entities()
	require.Len(t, monsters, 4)
	assert.Zero(t, reg.Items.Len())
	seen := map[component.Position]bool{}
	for _, e := range monsters {
		pos := *reg.Positions.MustGet(e)
		assert.False(t, seen[pos], "duplicate tile %v", pos)
		seen[pos] = true
		assert.Greater(t, pos.X, room.X1)
		assert.LessOrEqual(t, pos.X, room.X2)
		assert.Greater(t, pos.Y, room.Y1)
		assert.LessOrEqual(t, pos.Y, room.Y2)
	}
}

func TestSpawner_PopulateSkipsFirstRoomProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		src := dice.NewSeededSource(seed)
		cat, err := spawner.LoadCatalog(content.FS)
		if err != nil {
			rt.Fatalf("catalog: %v", err)
		}
		reg := component.NewRegistry()
		logger := zaptest.NewLogger(t)
		s, err := spawner.New(reg, cat, dice.NewLoggedRoller(src, logger), defaultConfig(), logger)
		if err != nil {
			rt.Fatalf("spawner: %v", err)
		}
		m := gamemap.Generate(80, 50, 1, src)
		s.Populate(m)

		first := m.Rooms[0]
		for _, e := range reg.Positions.Entities() {
			pos := reg.Positions.MustGet(e)
			if pos.X > first.X1 && pos.X <= first.X2 && pos.Y > first.Y1 && pos.Y <= first.Y2 {
				if inOtherRoom(m, pos) {
					continue
				}
				rt.Fatalf("entity %v spawned in the starting room at %v", e, *pos)
			}
			if m.TileAt(pos.Point()) != gamemap.Floor {
				rt.Fatalf("entity %v spawned on %s", e, m.TileAt(pos.Point()))
			}
		}
		assertItemsOnFloor(rt, reg)
	})
}

func inOtherRoom(m *gamemap.Map, pos *component.Position) bool {
	for _, r := range m.Rooms[1:] {
		if pos.X > r.X1 && pos.X <= r.X2 && pos.Y > r.Y1 && pos.Y <= r.Y2 {
			return true
		}
	}
	return false
}

func assertItemsOnFloor(rt *rapid.T, reg *component.Registry) {
	for _, e := range ecs.Join(reg.Items) {
		if !reg.Positions.Has(e) || reg.InBackpack.Has(e) {
			rt.Fatalf("item %v not on floor", e)
		}
	}
}
