// Package savegame captures the world into a portable snapshot, encodes it,
// and persists it through a Store.
package savegame

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
)

// FormatVersion is bumped whenever the snapshot layout changes incompatibly.
const FormatVersion = 1

// Snapshot is the serialisable state of one game in progress.
type Snapshot struct {
	Version  int            `yaml:"version"`
	ID       string         `yaml:"id"`
	SavedAt  time.Time      `yaml:"saved_at"`
	Turn     int            `yaml:"turn"`
	Map      MapRecord      `yaml:"map"`
	Entities []EntityRecord `yaml:"entities"`
	Log      []string       `yaml:"log,omitempty"`
}

// MapRecord stores the terrain and what the player has seen. Tiles holds one
// glyph per tile, one row per line.
type MapRecord struct {
	Width         int            `yaml:"width"`
	Height        int            `yaml:"height"`
	Depth         int            `yaml:"depth"`
	Tiles         string         `yaml:"tiles"`
	Revealed      string         `yaml:"revealed"`
	Rooms         []gamemap.Rect `yaml:"rooms"`
	AllowDiagonal bool           `yaml:"allow_diagonal,omitempty"`
}

// EntityRecord stores one entity's persistent components. Cross-references
// between entities are stored as indexes into Snapshot.Entities.
type EntityRecord struct {
	Name       string         `yaml:"name,omitempty"`
	Player     bool           `yaml:"player,omitempty"`
	Monster    bool           `yaml:"monster,omitempty"`
	Item       bool           `yaml:"item,omitempty"`
	BlocksTile bool           `yaml:"blocks_tile,omitempty"`
	Consumable bool           `yaml:"consumable,omitempty"`
	Position   *gamemap.Point `yaml:"position,omitempty"`
	ViewRange  *int           `yaml:"view_range,omitempty"`
	Stats      *StatsRecord   `yaml:"stats,omitempty"`
	// Owner is the backpack owner's record index.
	Owner        *int          `yaml:"owner,omitempty"`
	Ranged       int           `yaml:"ranged,omitempty"`
	AreaOfEffect int           `yaml:"area_of_effect,omitempty"`
	Healing      int           `yaml:"healing,omitempty"`
	Damage       int           `yaml:"damage,omitempty"`
	Confusion    int           `yaml:"confusion,omitempty"`
	Render       *RenderRecord `yaml:"render,omitempty"`
}

// StatsRecord mirrors component.CombatStats.
type StatsRecord struct {
	MaxHP   int `yaml:"max_hp"`
	HP      int `yaml:"hp"`
	Defense int `yaml:"defense"`
	Power   int `yaml:"power"`
}

// RenderRecord mirrors component.Renderable.
type RenderRecord struct {
	Glyph string `yaml:"glyph"`
	FG    string `yaml:"fg"`
	BG    string `yaml:"bg"`
	Order int    `yaml:"order"`
}

// ErrCorrupt is wrapped by Decode and Restore when a snapshot is unusable.
var ErrCorrupt = errors.New("savegame: corrupt snapshot")

// Capture copies the persistent state of reg and m into a new snapshot.
// Transient intents, damage accumulators and map caches are not captured.
//
// Postcondition: the returned snapshot has a fresh ID and exactly one player record.
func Capture(reg *component.Registry, m *gamemap.Map, turn int, log []string) *Snapshot {
	entities := reg.World.Entities()
	index := make(map[ecs.Entity]int, len(entities))
	for i, e := range entities {
		index[e] = i
	}

	records := make([]EntityRecord, len(entities))
	for i, e := range entities {
		rec := EntityRecord{
			Player:     reg.Players.Has(e),
			Monster:    reg.Monsters.Has(e),
			Item:       reg.Items.Has(e),
			BlocksTile: reg.BlocksTile.Has(e),
			Consumable: reg.Consumables.Has(e),
		}
		if n, ok := reg.NameOf(e); ok {
			rec.Name = n
		}
		if p, ok := reg.Positions.Get(e); ok {
			pt := p.Point()
			rec.Position = &pt
		}
		if vs, ok := reg.Viewsheds.Get(e); ok {
			r := vs.Range
			rec.ViewRange = &r
		}
		if s, ok := reg.CombatStats.Get(e); ok {
			rec.Stats = &StatsRecord{MaxHP: s.MaxHP, HP: s.HP, Defense: s.Defense, Power: s.Power}
		}
		if bp, ok := reg.InBackpack.Get(e); ok {
			if owner, ok := index[bp.Owner]; ok {
				rec.Owner = &owner
			}
		}
		if v, ok := reg.Ranged.Get(e); ok {
			rec.Ranged = v.Range
		}
		if v, ok := reg.AreaOfEffect.Get(e); ok {
			rec.AreaOfEffect = v.Radius
		}
		if v, ok := reg.Healing.Get(e); ok {
			rec.Healing = v.Amount
		}
		if v, ok := reg.Damage.Get(e); ok {
			rec.Damage = v.Amount
		}
		if v, ok := reg.Confusion.Get(e); ok {
			rec.Confusion = v.Turns
		}
		if v, ok := reg.Renderables.Get(e); ok {
			rec.Render = &RenderRecord{Glyph: string(v.Glyph), FG: v.FG, BG: v.BG, Order: v.Order}
		}
		records[i] = rec
	}

	return &Snapshot{
		Version:  FormatVersion,
		ID:       uuid.NewString(),
		SavedAt:  time.Now().UTC(),
		Turn:     turn,
		Map:      captureMap(m),
		Entities: records,
		Log:      append([]string(nil), log...),
	}
}

func captureMap(m *gamemap.Map) MapRecord {
	var tiles, revealed strings.Builder
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			idx := m.Index(x, y)
			tiles.WriteRune(m.Tiles[idx].Glyph())
			if m.Revealed[idx] {
				revealed.WriteByte('1')
			} else {
				revealed.WriteByte('0')
			}
		}
		tiles.WriteByte('\n')
		revealed.WriteByte('\n')
	}
	return MapRecord{
		Width:         m.Width,
		Height:        m.Height,
		Depth:         m.Depth,
		Tiles:         tiles.String(),
		Revealed:      revealed.String(),
		Rooms:         append([]gamemap.Rect(nil), m.Rooms...),
		AllowDiagonal: m.AllowDiagonal,
	}
}

// Restore replaces the contents of reg with the snapshot's entities and
// returns the rebuilt map and the player handle. Viewsheds come back dirty.
//
// Postcondition: on error reg may be partially populated; callers discard it.
func Restore(s *Snapshot, reg *component.Registry) (*gamemap.Map, ecs.Entity, error) {
	if err := s.Validate(); err != nil {
		return nil, ecs.Nil, err
	}
	m, err := restoreMap(s.Map)
	if err != nil {
		return nil, ecs.Nil, err
	}

	reg.World.Clear()
	handles := make([]ecs.Entity, len(s.Entities))
	for i := range s.Entities {
		handles[i] = reg.World.Create()
	}

	player := ecs.Nil
	for i, rec := range s.Entities {
		e := handles[i]
		if rec.Player {
			player = e
			reg.Players.MustInsert(e, component.Player{})
		}
		if rec.Monster {
			reg.Monsters.MustInsert(e, component.Monster{})
		}
		if rec.Item {
			reg.Items.MustInsert(e, component.Item{})
		}
		if rec.BlocksTile {
			reg.BlocksTile.MustInsert(e, component.BlocksTile{})
		}
		if rec.Consumable {
			reg.Consumables.MustInsert(e, component.Consumable{})
		}
		if rec.Name != "" {
			reg.Names.MustInsert(e, component.Name{Name: rec.Name})
		}
		if rec.Position != nil {
			reg.Positions.MustInsert(e, component.PositionAt(*rec.Position))
		}
		if rec.ViewRange != nil {
			reg.Viewsheds.MustInsert(e, component.NewViewshed(*rec.ViewRange))
		}
		if rec.Stats != nil {
			reg.CombatStats.MustInsert(e, component.CombatStats{
				MaxHP: rec.Stats.MaxHP, HP: rec.Stats.HP, Defense: rec.Stats.Defense, Power: rec.Stats.Power,
			})
		}
		if rec.Owner != nil {
			reg.InBackpack.MustInsert(e, component.InBackpack{Owner: handles[*rec.Owner]})
		}
		if rec.Ranged > 0 {
			reg.Ranged.MustInsert(e, component.Ranged{Range: rec.Ranged})
		}
		if rec.AreaOfEffect > 0 {
			reg.AreaOfEffect.MustInsert(e, component.AreaOfEffect{Radius: rec.AreaOfEffect})
		}
		if rec.Healing > 0 {
			reg.Healing.MustInsert(e, component.ProvidesHealing{Amount: rec.Healing})
		}
		if rec.Damage > 0 {
			reg.Damage.MustInsert(e, component.InflictsDamage{Amount: rec.Damage})
		}
		if rec.Confusion > 0 {
			reg.Confusion.MustInsert(e, component.Confusion{Turns: rec.Confusion})
		}
		if rec.Render != nil {
			reg.Renderables.MustInsert(e, component.Renderable{
				Glyph: []rune(rec.Render.Glyph)[0], FG: rec.Render.FG, BG: rec.Render.BG, Order: rec.Render.Order,
			})
		}
	}
	return m, player, nil
}

func restoreMap(r MapRecord) (*gamemap.Map, error) {
	m := gamemap.New(r.Width, r.Height, r.Depth)
	m.Rooms = append([]gamemap.Rect(nil), r.Rooms...)
	m.AllowDiagonal = r.AllowDiagonal

	tiles := strings.Split(strings.TrimSuffix(r.Tiles, "\n"), "\n")
	revealed := strings.Split(strings.TrimSuffix(r.Revealed, "\n"), "\n")
	if len(tiles) != r.Height || len(revealed) != r.Height {
		return nil, fmt.Errorf("%w: map has %d tile rows and %d revealed rows, want %d", ErrCorrupt, len(tiles), len(revealed), r.Height)
	}
	for y := 0; y < r.Height; y++ {
		row, seen := []rune(tiles[y]), revealed[y]
		if len(row) != r.Width || len(seen) != r.Width {
			return nil, fmt.Errorf("%w: map row %d has the wrong width", ErrCorrupt, y)
		}
		for x := 0; x < r.Width; x++ {
			idx := m.Index(x, y)
			switch row[x] {
			case '#':
				m.Tiles[idx] = gamemap.Wall
			case '.':
				m.Tiles[idx] = gamemap.Floor
			case '>':
				m.Tiles[idx] = gamemap.DownStairs
			default:
				return nil, fmt.Errorf("%w: unknown tile %q at %d,%d", ErrCorrupt, row[x], x, y)
			}
			m.Revealed[idx] = seen[x] == '1'
		}
	}
	m.PopulateBlocked()
	return m, nil
}

// Validate checks structural invariants that Restore relies on.
func (s *Snapshot) Validate() error {
	var errs []error
	if s.Version != FormatVersion {
		errs = append(errs, fmt.Errorf("version %d is not supported", s.Version))
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		errs = append(errs, fmt.Errorf("id %q: %v", s.ID, err))
	}
	if s.Map.Width <= 0 || s.Map.Height <= 0 {
		errs = append(errs, fmt.Errorf("map size %dx%d", s.Map.Width, s.Map.Height))
	}
	players := 0
	for i, rec := range s.Entities {
		if rec.Player {
			players++
			if rec.Position == nil || rec.Stats == nil {
				errs = append(errs, fmt.Errorf("player record %d lacks position or stats", i))
			}
		}
		if rec.Owner != nil && (*rec.Owner < 0 || *rec.Owner >= len(s.Entities)) {
			errs = append(errs, fmt.Errorf("record %d owner %d out of range", i, *rec.Owner))
		}
		if rec.Owner != nil && rec.Position != nil {
			errs = append(errs, fmt.Errorf("record %d is both carried and on the ground", i))
		}
		if rec.Render != nil && len([]rune(rec.Render.Glyph)) != 1 {
			errs = append(errs, fmt.Errorf("record %d glyph %q", i, rec.Render.Glyph))
		}
	}
	if players != 1 {
		errs = append(errs, fmt.Errorf("%d player records, want 1", players))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCorrupt, errors.Join(errs...))
	}
	return nil
}

// Encode serialises s as YAML.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a YAML snapshot and validates it.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
