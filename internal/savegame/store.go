package savegame

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrNoSave is returned when a slot holds no saved game.
var ErrNoSave = errors.New("savegame: no saved game")

// Store persists encoded snapshots by slot name.
type Store interface {
	// Save writes data to slot, replacing any previous save.
	Save(ctx context.Context, slot string, data []byte) error
	// Load returns the data in slot or ErrNoSave.
	Load(ctx context.Context, slot string) ([]byte, error)
	// Exists reports whether slot holds a save.
	Exists(ctx context.Context, slot string) (bool, error)
	// Delete removes slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, slot string) error
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidSlot reports whether slot is usable as a save name.
func ValidSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("savegame: invalid slot name %q", slot)
	}
	return nil
}

// FileStore keeps each slot in <dir>/<slot>.yaml.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(slot string) (string, error) {
	if err := ValidSlot(slot); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, slot+".yaml"), nil
}

// Save writes data atomically via a temporary file and rename.
func (f *FileStore) Save(_ context.Context, slot string, data []byte) error {
	p, err := f.path(slot)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing save %q: %w", slot, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("committing save %q: %w", slot, err)
	}
	return nil
}

// Load reads the slot's file.
func (f *FileStore) Load(_ context.Context, slot string) ([]byte, error) {
	p, err := f.path(slot)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("slot %q: %w", slot, ErrNoSave)
	}
	if err != nil {
		return nil, fmt.Errorf("reading save %q: %w", slot, err)
	}
	return data, nil
}

// Exists stats the slot's file.
func (f *FileStore) Exists(_ context.Context, slot string) (bool, error) {
	p, err := f.path(slot)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking save %q: %w", slot, err)
	}
	return true, nil
}

// Delete removes the slot's file.
func (f *FileStore) Delete(_ context.Context, slot string) error {
	p, err := f.path(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting save %q: %w", slot, err)
	}
	return nil
}

// MemoryStore is an in-process Store, used for tests and ephemeral sessions.
// Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, slot string, data []byte) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, fmt.Errorf("slot %q: %w", slot, ErrNoSave)
	}
	return append([]byte(nil), data...), nil
}

// Exists implements Store.
func (m *MemoryStore) Exists(_ context.Context, slot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[slot]
	return ok, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}
