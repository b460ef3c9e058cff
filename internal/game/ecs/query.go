package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
	"github.com/yohamta/donburi/filter"
)

// Queryable is a Store as seen by Join.
type Queryable interface {
	componentType() component.IComponentType
	owner() *World
}

// Join returns the entities carrying every given component, in creation order.
//
// Precondition: all stores belong to the same World.
// Postcondition: an empty argument list yields an empty result.
func Join(stores ...Queryable) []Entity {
	if len(stores) == 0 {
		return []Entity{}
	}
	types := make([]component.IComponentType, len(stores))
	for i, s := range stores {
		types[i] = s.componentType()
	}
	return stores[0].owner().collect(donburi.NewQuery(filter.Contains(types...)))
}

// collect snapshots the live entities matched by q.
func (w *World) collect(q *donburi.Query) []Entity {
	out := []Entity{}
	q.Each(w.inner, func(entry *donburi.Entry) {
		if e := entry.Entity(); w.Alive(e) {
			out = append(out, e)
		}
	})
	w.sort(out)
	return out
}
