package ecs

import (
	"errors"
	"fmt"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
	"github.com/yohamta/donburi/filter"
)

// ErrDeadEntity is returned when attaching a component to a dead handle.
var ErrDeadEntity = errors.New("ecs: entity is not alive")

// ErrDuplicate is returned by Insert when the entity already carries the component.
var ErrDuplicate = errors.New("ecs: component already present")

// Store is the table for one component type T in one World.
//
// Components are held by pointer in donburi storage; callers may mutate the
// value returned by Get in place.
type Store[T any] struct {
	world *World
	ctype *donburi.ComponentType[T]
	query *donburi.Query
}

// Register binds ctype to w. Component types are declared once per process
// and may be bound to any number of worlds.
func Register[T any](w *World, ctype *donburi.ComponentType[T]) *Store[T] {
	return &Store[T]{
		world: w,
		ctype: ctype,
		query: donburi.NewQuery(filter.Contains(ctype)),
	}
}

// Name returns the component type's name, used in diagnostics.
func (s *Store[T]) Name() string { return s.ctype.Name() }

// Insert attaches v to e.
//
// Postcondition: on nil error Has(e); ErrDuplicate leaves the existing value untouched.
func (s *Store[T]) Insert(e Entity, v T) error {
	entry, ok := s.world.entry(e)
	if !ok {
		return fmt.Errorf("%s on %v: %w", s.Name(), e, ErrDeadEntity)
	}
	if entry.HasComponent(s.ctype) {
		return fmt.Errorf("%s on %v: %w", s.Name(), e, ErrDuplicate)
	}
	entry.AddComponent(s.ctype)
	s.ctype.SetValue(entry, v)
	return nil
}

// MustInsert is Insert for invariant-bearing call sites: any failure is a
// logic error and panics.
func (s *Store[T]) MustInsert(e Entity, v T) {
	if err := s.Insert(e, v); err != nil {
		panic("ecs: unable to insert component: " + err.Error())
	}
}

// Set attaches v to e, replacing any existing value.
//
// Precondition: e is alive; panics otherwise.
func (s *Store[T]) Set(e Entity, v T) {
	entry, ok := s.world.entry(e)
	if !ok {
		panic(fmt.Sprintf("ecs: set %s on dead entity %v", s.Name(), e))
	}
	if !entry.HasComponent(s.ctype) {
		entry.AddComponent(s.ctype)
	}
	s.ctype.SetValue(entry, v)
}

// Get returns the component attached to e.
func (s *Store[T]) Get(e Entity) (*T, bool) {
	entry, ok := s.world.entry(e)
	if !ok || !entry.HasComponent(s.ctype) {
		return nil, false
	}
	return s.ctype.Get(entry), true
}

// MustGet returns the component attached to e and panics when it is missing.
func (s *Store[T]) MustGet(e Entity) *T {
	v, ok := s.Get(e)
	if !ok {
		panic(fmt.Sprintf("ecs: required component %s missing on %v", s.Name(), e))
	}
	return v
}

// Has reports whether e carries the component.
func (s *Store[T]) Has(e Entity) bool {
	entry, ok := s.world.entry(e)
	return ok && entry.HasComponent(s.ctype)
}

// Remove detaches the component from e. Removing an absent component is a no-op.
func (s *Store[T]) Remove(e Entity) {
	if entry, ok := s.world.entry(e); ok && entry.HasComponent(s.ctype) {
		entry.RemoveComponent(s.ctype)
	}
}

// Clear detaches the component from every entity.
//
// Postcondition: Len() == 0.
func (s *Store[T]) Clear() {
	for _, e := range s.Entities() {
		s.Remove(e)
	}
}

// Len returns the number of entities carrying the component.
func (s *Store[T]) Len() int { return s.query.Count(s.world.inner) }

// Entities returns the carrying entities in creation order. The slice is a
// snapshot, so callers may change components while ranging over it.
func (s *Store[T]) Entities() []Entity {
	return s.world.collect(s.query)
}

// Each calls fn for every (entity, component) pair in creation order.
func (s *Store[T]) Each(fn func(Entity, *T)) {
	for _, e := range s.Entities() {
		if v, ok := s.Get(e); ok {
			fn(e, v)
		}
	}
}

func (s *Store[T]) componentType() component.IComponentType { return s.ctype }

func (s *Store[T]) owner() *World { return s.world }
