// Package spawner loads monster and item templates and places entities built
// from them into the world.
package spawner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned when a template ID is not in the catalog.
var ErrUnknownTemplate = errors.New("spawner: unknown template")

// MonsterTemplate describes a monster archetype loaded from YAML.
type MonsterTemplate struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Glyph     string `yaml:"glyph"`
	Color     string `yaml:"color"`
	MaxHP     int    `yaml:"max_hp"`
	Defense   int    `yaml:"defense"`
	Power     int    `yaml:"power"`
	ViewRange int    `yaml:"view_range"`
	// Weight is the relative chance of this monster when one is picked at random.
	Weight int `yaml:"weight"`
}

// Validate checks the template's invariants.
//
// Postcondition: returns nil iff ID, Name and a single-rune Glyph are set,
// MaxHP >= 1, ViewRange >= 1, Defense and Power >= 0 and Weight >= 0;
// otherwise every violation is joined into one error.
func (t *MonsterTemplate) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if utf8.RuneCountInString(t.Glyph) != 1 {
		errs = append(errs, fmt.Errorf("glyph %q must be a single character", t.Glyph))
	}
	if t.MaxHP < 1 {
		errs = append(errs, errors.New("max_hp must be >= 1"))
	}
	if t.ViewRange < 1 {
		errs = append(errs, errors.New("view_range must be >= 1"))
	}
	if t.Defense < 0 || t.Power < 0 {
		errs = append(errs, errors.New("defense and power must be >= 0"))
	}
	if t.Weight < 0 {
		errs = append(errs, errors.New("weight must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("monster template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// ItemTemplate describes an item archetype. Zero-valued capabilities are absent.
type ItemTemplate struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Glyph      string `yaml:"glyph"`
	Color      string `yaml:"color"`
	Consumable bool   `yaml:"consumable"`
	Range      int    `yaml:"range"`
	Radius     int    `yaml:"radius"`
	Healing    int    `yaml:"healing"`
	Damage     int    `yaml:"damage"`
	Confusion  int    `yaml:"confusion"`
	Weight     int    `yaml:"weight"`
}

// Validate checks the template's invariants.
//
// Postcondition: returns nil iff ID, Name and a single-rune Glyph are set,
// every numeric field is >= 0, and Radius implies Range; otherwise every
// violation is joined into one error.
func (t *ItemTemplate) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if utf8.RuneCountInString(t.Glyph) != 1 {
		errs = append(errs, fmt.Errorf("glyph %q must be a single character", t.Glyph))
	}
	for field, v := range map[string]int{
		"range": t.Range, "radius": t.Radius, "healing": t.Healing,
		"damage": t.Damage, "confusion": t.Confusion, "weight": t.Weight,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0", field))
		}
	}
	if t.Radius > 0 && t.Range == 0 {
		errs = append(errs, errors.New("radius requires range"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// Catalog holds every loaded template, ordered by ID.
type Catalog struct {
	Monsters []*MonsterTemplate
	Items    []*ItemTemplate

	monsters map[string]*MonsterTemplate
	items    map[string]*ItemTemplate
}

// NewCatalog indexes the given templates.
//
// Postcondition: returns an error if any ID is duplicated within its kind.
func NewCatalog(monsters []*MonsterTemplate, items []*ItemTemplate) (*Catalog, error) {
	c := &Catalog{
		monsters: make(map[string]*MonsterTemplate, len(monsters)),
		items:    make(map[string]*ItemTemplate, len(items)),
	}
	for _, m := range monsters {
		if _, dup := c.monsters[m.ID]; dup {
			return nil, fmt.Errorf("duplicate monster template %q", m.ID)
		}
		c.monsters[m.ID] = m
		c.Monsters = append(c.Monsters, m)
	}
	for _, it := range items {
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item template %q", it.ID)
		}
		c.items[it.ID] = it
		c.Items = append(c.Items, it)
	}
	sort.Slice(c.Monsters, func(i, j int) bool { return c.Monsters[i].ID < c.Monsters[j].ID })
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ID < c.Items[j].ID })
	return c, nil
}

// Monster returns the monster template with id.
func (c *Catalog) Monster(id string) (*MonsterTemplate, error) {
	if t, ok := c.monsters[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("monster %q: %w", id, ErrUnknownTemplate)
}

// Item returns the item template with id.
func (c *Catalog) Item(id string) (*ItemTemplate, error) {
	if t, ok := c.items[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("item %q: %w", id, ErrUnknownTemplate)
}

// LoadMonsterFromBytes parses and validates one monster template.
func LoadMonsterFromBytes(data []byte) (*MonsterTemplate, error) {
	var t MonsterTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing monster template YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadItemFromBytes parses and validates one item template.
func LoadItemFromBytes(data []byte) (*ItemTemplate, error) {
	var t ItemTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing item template YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadCatalog reads monsters/*.yaml and items/*.yaml from fsys.
//
// Precondition: both directories exist in fsys.
// Postcondition: returns the full catalog, or an error on the first file that
// fails to read, parse or validate.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	var monsters []*MonsterTemplate
	err := eachYAML(fsys, "monsters", func(name string, data []byte) error {
		t, err := LoadMonsterFromBytes(data)
		if err != nil {
			return err
		}
		monsters = append(monsters, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var items []*ItemTemplate
	err = eachYAML(fsys, "items", func(name string, data []byte) error {
		t, err := LoadItemFromBytes(data)
		if err != nil {
			return err
		}
		items = append(items, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCatalog(monsters, items)
}

// LoadCatalogDir is LoadCatalog over a directory on disk.
func LoadCatalogDir(dir string) (*Catalog, error) {
	return LoadCatalog(os.DirFS(dir))
}

func eachYAML(fsys fs.FS, dir string, fn func(name string, data []byte) error) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading %s dir: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %q: %w", p, err)
		}
		if err := fn(p, data); err != nil {
			return fmt.Errorf("loading %q: %w", p, err)
		}
	}
	return nil
}
