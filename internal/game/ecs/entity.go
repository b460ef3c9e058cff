// Package ecs binds typed component tables to a donburi world and adds the
// deferred deletion the turn pipeline needs.
//
// Entities are donburi's versioned handles. Component data lives in donburi
// archetype storage, reached through one Store per component type. Structural
// changes made while a pipeline pass is iterating (Delete) are queued and
// committed by Maintain.
//
// The package is not safe for concurrent use; the turn loop is single-threaded
// and systems run one after another.
package ecs

import (
	"cmp"
	"slices"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// Entity is a versioned handle. A removed entity's handle never aliases a
// later one.
type Entity = donburi.Entity

// Nil is the zero Entity. It is never allocated and reports Alive == false.
const Nil Entity = 0

// handleTag marks every entity created through a World so World.Entities can
// enumerate them with a query.
var handleTag = donburi.NewTag().SetName("handle")

var allHandles = donburi.NewQuery(filter.Contains(handleTag))

// World wraps a donburi world and owns the deferred-deletion queue.
type World struct {
	inner donburi.World

	// live maps every live handle to its creation sequence, which orders
	// iteration.
	live map[Entity]uint64
	next uint64

	pending    []Entity
	pendingSet map[Entity]struct{}
}

// NewWorld returns an empty World.
//
// Postcondition: Count() == 0.
func NewWorld() *World {
	return &World{
		inner:      donburi.NewWorld(),
		live:       make(map[Entity]uint64),
		pendingSet: make(map[Entity]struct{}),
	}
}

// Create allocates a new live entity.
//
// Postcondition: Alive(result) is true and result has never been returned
// before.
func (w *World) Create() Entity {
	e := w.inner.Create(handleTag)
	if e == Nil {
		// Zero is reserved for Nil; leave it allocated and take the next one.
		e = w.inner.Create(handleTag)
	}
	w.live[e] = w.next
	w.next++
	return e
}

// Alive reports whether e refers to a live entity.
func (w *World) Alive(e Entity) bool {
	if _, ok := w.live[e]; !ok {
		return false
	}
	return w.inner.Valid(e)
}

// Delete queues e for removal at the next Maintain. Queuing a dead or
// already-queued entity is a no-op.
func (w *World) Delete(e Entity) {
	if !w.Alive(e) {
		return
	}
	if _, queued := w.pendingSet[e]; queued {
		return
	}
	w.pendingSet[e] = struct{}{}
	w.pending = append(w.pending, e)
}

// Pending reports whether e is queued for deletion.
func (w *World) Pending(e Entity) bool {
	_, ok := w.pendingSet[e]
	return ok
}

// Maintain commits every queued deletion. Removing an entity from the donburi
// world drops all of its components.
//
// Postcondition: no entity is pending; returns the entities removed, in the
// order they were queued.
func (w *World) Maintain() []Entity {
	if len(w.pending) == 0 {
		return nil
	}
	removed := w.pending
	w.pending = nil
	clear(w.pendingSet)
	for _, e := range removed {
		w.destroy(e)
	}
	return removed
}

func (w *World) destroy(e Entity) {
	if !w.Alive(e) {
		return
	}
	w.inner.Remove(e)
	delete(w.live, e)
}

// Entities returns every live entity in creation order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.live))
	allHandles.Each(w.inner, func(entry *donburi.Entry) {
		if e := entry.Entity(); w.Alive(e) {
			out = append(out, e)
		}
	})
	w.sort(out)
	return out
}

// Count returns the number of live entities.
func (w *World) Count() int { return len(w.live) }

// Clear removes every entity. Handles issued before Clear stay dead.
func (w *World) Clear() {
	for e := range w.live {
		w.inner.Remove(e)
	}
	clear(w.live)
	w.pending = nil
	clear(w.pendingSet)
}

func (w *World) sort(es []Entity) {
	slices.SortFunc(es, func(a, b Entity) int { return cmp.Compare(w.live[a], w.live[b]) })
}

// entry returns the donburi entry for a live entity.
func (w *World) entry(e Entity) (*donburi.Entry, bool) {
	if !w.Alive(e) {
		return nil, false
	}
	return w.inner.Entry(e), true
}
