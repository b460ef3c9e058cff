package spawner

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
)

// Player defaults.
const (
	PlayerName      = "Player"
	PlayerMaxHP     = 30
	PlayerDefense   = 2
	PlayerPower     = 5
	PlayerViewRange = 8
)

// Render order: lower values draw on top.
const (
	OrderItem    = 2
	OrderMonster = 1
	OrderPlayer  = 0
)

// Config controls per-room population.
type Config struct {
	// MonstersPerRoom and ItemsPerRoom are dice expressions; negative rolls mean none.
	MonstersPerRoom string
	ItemsPerRoom    string
	// ViewRange overrides the player's view range when positive.
	ViewRange int
}

// Spawner builds entities from templates.
type Spawner struct {
	reg     *component.Registry
	catalog *Catalog
	roller  *dice.Roller
	logger  *zap.Logger

	monstersPerRoom dice.Expression
	itemsPerRoom    dice.Expression
	viewRange       int
}

// New returns a Spawner writing into reg.
//
// Precondition: reg, catalog, roller and logger are non-nil.
// Postcondition: returns an error if either per-room expression fails to parse.
func New(reg *component.Registry, catalog *Catalog, roller *dice.Roller, cfg Config, logger *zap.Logger) (*Spawner, error) {
	monsters, err := dice.Parse(cfg.MonstersPerRoom)
	if err != nil {
		return nil, fmt.Errorf("monsters per room: %w", err)
	}
	items, err := dice.Parse(cfg.ItemsPerRoom)
	if err != nil {
		return nil, fmt.Errorf("items per room: %w", err)
	}
	viewRange := cfg.ViewRange
	if viewRange <= 0 {
		viewRange = PlayerViewRange
	}
	return &Spawner{
		reg:             reg,
		catalog:         catalog,
		roller:          roller,
		logger:          logger,
		monstersPerRoom: monsters,
		itemsPerRoom:    items,
		viewRange:       viewRange,
	}, nil
}

// Catalog returns the templates the spawner draws from.
func (s *Spawner) Catalog() *Catalog { return s.catalog }

// Player creates the player entity at p.
func (s *Spawner) Player(p gamemap.Point) ecs.Entity {
	r := s.reg
	e := r.World.Create()
	r.Players.MustInsert(e, component.Player{})
	r.Names.MustInsert(e, component.Name{Name: PlayerName})
	r.Positions.MustInsert(e, component.PositionAt(p))
	r.CombatStats.MustInsert(e, component.CombatStats{
		MaxHP: PlayerMaxHP, HP: PlayerMaxHP, Defense: PlayerDefense, Power: PlayerPower,
	})
	r.Viewsheds.MustInsert(e, component.NewViewshed(s.viewRange))
	r.Renderables.MustInsert(e, component.Renderable{Glyph: '@', FG: "yellow", BG: "black", Order: OrderPlayer})
	return e
}

// Monster creates a monster from template id at p.
func (s *Spawner) Monster(id string, p gamemap.Point) (ecs.Entity, error) {
	t, err := s.catalog.Monster(id)
	if err != nil {
		return ecs.Nil, err
	}
	return s.monster(t, p), nil
}

func (s *Spawner) monster(t *MonsterTemplate, p gamemap.Point) ecs.Entity {
	r := s.reg
	e := r.World.Create()
	r.Monsters.MustInsert(e, component.Monster{})
	r.BlocksTile.MustInsert(e, component.BlocksTile{})
	r.Names.MustInsert(e, component.Name{Name: t.Name})
	r.Positions.MustInsert(e, component.PositionAt(p))
	r.CombatStats.MustInsert(e, component.CombatStats{MaxHP: t.MaxHP, HP: t.MaxHP, Defense: t.Defense, Power: t.Power})
	r.Viewsheds.MustInsert(e, component.NewViewshed(t.ViewRange))
	r.Renderables.MustInsert(e, component.Renderable{Glyph: []rune(t.Glyph)[0], FG: t.Color, BG: "black", Order: OrderMonster})
	s.logger.Debug("monster spawned", zap.String("template", t.ID), zap.Int("x", p.X), zap.Int("y", p.Y))
	return e
}

// Item creates an item from template id lying at p.
func (s *Spawner) Item(id string, p gamemap.Point) (ecs.Entity, error) {
	t, err := s.catalog.Item(id)
	if err != nil {
		return ecs.Nil, err
	}
	e := s.item(t)
	s.reg.Positions.MustInsert(e, component.PositionAt(p))
	return e, nil
}

// ItemInBackpack creates an item from template id carried by owner.
func (s *Spawner) ItemInBackpack(id string, owner ecs.Entity) (ecs.Entity, error) {
	t, err := s.catalog.Item(id)
	if err != nil {
		return ecs.Nil, err
	}
	e := s.item(t)
	s.reg.InBackpack.MustInsert(e, component.InBackpack{Owner: owner})
	return e, nil
}

func (s *Spawner) item(t *ItemTemplate) ecs.Entity {
	r := s.reg
	e := r.World.Create()
	r.Items.MustInsert(e, component.Item{})
	r.Names.MustInsert(e, component.Name{Name: t.Name})
	r.Renderables.MustInsert(e, component.Renderable{Glyph: []rune(t.Glyph)[0], FG: t.Color, BG: "black", Order: OrderItem})
	if t.Consumable {
		r.Consumables.MustInsert(e, component.Consumable{})
	}
	if t.Range > 0 {
		r.Ranged.MustInsert(e, component.Ranged{Range: t.Range})
	}
	if t.Radius > 0 {
		r.AreaOfEffect.MustInsert(e, component.AreaOfEffect{Radius: t.Radius})
	}
	if t.Healing > 0 {
		r.Healing.MustInsert(e, component.ProvidesHealing{Amount: t.Healing})
	}
	if t.Damage > 0 {
		r.Damage.MustInsert(e, component.InflictsDamage{Amount: t.Damage})
	}
	if t.Confusion > 0 {
		r.Confusion.MustInsert(e, component.Confusion{Turns: t.Confusion})
	}
	return e
}

// FillRoom rolls how many monsters and items room holds and places each on a
// distinct floor tile inside it. Stairs are never covered.
func (s *Spawner) FillRoom(m *gamemap.Map, room gamemap.Rect) {
	monsters := max(0, s.roller.Roll(s.monstersPerRoom).Total())
	items := max(0, s.roller.Roll(s.itemsPerRoom).Total())

	for _, p := range s.spawnPoints(m, room, monsters) {
		if t := pickMonster(s.catalog.Monsters, s.roller); t != nil {
			s.monster(t, p)
		}
	}
	for _, p := range s.spawnPoints(m, room, items) {
		if t := pickItem(s.catalog.Items, s.roller); t != nil {
			e := s.item(t)
			s.reg.Positions.MustInsert(e, component.PositionAt(p))
		}
	}
}

// Populate fills every room but the first, where the player starts.
func (s *Spawner) Populate(m *gamemap.Map) {
	for i, room := range m.Rooms {
		if i == 0 {
			continue
		}
		s.FillRoom(m, room)
	}
}

// spawnPoints picks up to n distinct floor tiles strictly inside room.
func (s *Spawner) spawnPoints(m *gamemap.Map, room gamemap.Rect, n int) []gamemap.Point {
	var candidates []gamemap.Point
	for y := room.Y1 + 1; y <= room.Y2; y++ {
		for x := room.X1 + 1; x <= room.X2; x++ {
			p := gamemap.Point{X: x, Y: y}
			if m.TileAt(p) == gamemap.Floor {
				candidates = append(candidates, p)
			}
		}
	}
	n = min(n, len(candidates))
	out := make([]gamemap.Point, 0, n)
	for i := 0; i < n; i++ {
		j := i + s.roller.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		out = append(out, candidates[i])
	}
	return out
}

func pickMonster(ts []*MonsterTemplate, src dice.Source) *MonsterTemplate {
	weights := make([]int, len(ts))
	for i, t := range ts {
		weights[i] = t.Weight
	}
	if i := weighted(weights, src); i >= 0 {
		return ts[i]
	}
	return nil
}

func pickItem(ts []*ItemTemplate, src dice.Source) *ItemTemplate {
	weights := make([]int, len(ts))
	for i, t := range ts {
		weights[i] = t.Weight
	}
	if i := weighted(weights, src); i >= 0 {
		return ts[i]
	}
	return nil
}

// weighted returns an index chosen with probability proportional to its
// weight, or -1 when every weight is zero.
func weighted(weights []int, src dice.Source) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return -1
	}
	roll := src.Intn(total)
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}
