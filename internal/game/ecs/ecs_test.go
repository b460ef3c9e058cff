package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

type health struct{ HP int }
type tag struct{}

var (
	healthType = donburi.NewComponentType[health]().SetName("health")
	tagType    = donburi.NewComponentType[tag]().SetName("tag")
)

func TestWorld_CreateIsAlive(t *testing.T) {
	w := ecs.NewWorld()
	e := w.Create()
	assert.True(t, w.Alive(e))
	assert.False(t, w.Alive(ecs.Nil))
	assert.Equal(t, 1, w.Count())
}

func TestWorld_StaleHandleAfterReuse(t *testing.T) {
	w := ecs.NewWorld()
	hp := ecs.Register(w, healthType)
	a := w.Create()
	hp.MustInsert(a, health{HP: 1})
	w.Delete(a)
	w.Maintain()
	b := w.Create()

	assert.NotEqual(t, a, b)
	assert.False(t, w.Alive(a), "stale handle must not alias the new entity")
	assert.True(t, w.Alive(b))
	assert.False(t, hp.Has(a))
	assert.False(t, hp.Has(b))
	assert.ErrorIs(t, hp.Insert(a, health{}), ecs.ErrDeadEntity)
}

func TestWorld_DeleteIsDeferredUntilMaintain(t *testing.T) {
	w := ecs.NewWorld()
	hp := ecs.Register(w, healthType)
	e := w.Create()
	hp.MustInsert(e, health{HP: 3})

	w.Delete(e)
	assert.True(t, w.Alive(e), "Delete only queues")
	assert.True(t, hp.Has(e))
	assert.True(t, w.Pending(e))

	removed := w.Maintain()
	assert.Equal(t, []ecs.Entity{e}, removed)
	assert.False(t, w.Alive(e))
	assert.False(t, hp.Has(e), "deletion cascades to component stores")
}

func TestWorld_DeleteTwiceIsNoop(t *testing.T) {
	w := ecs.NewWorld()
	e := w.Create()
	w.Delete(e)
	w.Delete(e)
	assert.Len(t, w.Maintain(), 1)
	assert.Nil(t, w.Maintain())
	w.Delete(e)
	assert.Nil(t, w.Maintain())
}

func TestStore_InsertDuplicate(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.Register(w, healthType)
	e := w.Create()
	require.NoError(t, s.Insert(e, health{HP: 1}))
	err := s.Insert(e, health{HP: 2})
	assert.ErrorIs(t, err, ecs.ErrDuplicate)
	assert.Equal(t, 1, s.MustGet(e).HP)
	assert.Panics(t, func() { s.MustInsert(e, health{HP: 3}) })
}

func TestStore_InsertOnDeadEntity(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.Register(w, healthType)
	e := w.Create()
	w.Delete(e)
	w.Maintain()
	assert.ErrorIs(t, s.Insert(e, health{}), ecs.ErrDeadEntity)
}

func TestStore_GetIsMutable(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.Register(w, healthType)
	e := w.Create()
	s.Set(e, health{HP: 10})
	h, ok := s.Get(e)
	require.True(t, ok)
	h.HP -= 4
	assert.Equal(t, 6, s.MustGet(e).HP)
}

func TestStore_MustGetPanicsWhenMissing(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.Register(w, healthType)
	assert.Panics(t, func() { s.MustGet(w.Create()) })
}

func TestJoin_Intersection(t *testing.T) {
	w := ecs.NewWorld()
	hp := ecs.Register(w, healthType)
	tags := ecs.Register(w, tagType)

	a, b, c := w.Create(), w.Create(), w.Create()
	hp.Set(a, health{})
	hp.Set(b, health{})
	hp.Set(c, health{})
	tags.Set(c, tag{})
	tags.Set(a, tag{})

	assert.Equal(t, []ecs.Entity{a, c}, ecs.Join(hp, tags))
	assert.Equal(t, []ecs.Entity{a, b, c}, hp.Entities())
	assert.Equal(t, 2, tags.Len())
	assert.Empty(t, ecs.Join())

	tags.Remove(a)
	assert.Equal(t, []ecs.Entity{c}, ecs.Join(hp, tags))
}

func TestJoin_SkipsDeadAndKeepsCreationOrder(t *testing.T) {
	w := ecs.NewWorld()
	hp := ecs.Register(w, healthType)
	var es []ecs.Entity
	for i := 0; i < 5; i++ {
		e := w.Create()
		hp.Set(e, health{HP: i})
		es = append(es, e)
	}
	w.Delete(es[1])
	w.Maintain()
	late := w.Create()
	hp.Set(late, health{})

	assert.Equal(t, []ecs.Entity{es[0], es[2], es[3], es[4], late}, ecs.Join(hp))
}

func TestStore_ClearOnlyDetachesComponent(t *testing.T) {
	w := ecs.NewWorld()
	hp := ecs.Register(w, healthType)
	e := w.Create()
	hp.Set(e, health{HP: 2})
	hp.Clear()
	assert.Zero(t, hp.Len())
	assert.True(t, w.Alive(e))
	assert.Equal(t, "health", hp.Name())
}

func TestWorld_Clear(t *testing.T) {
	w := ecs.NewWorld()
	s := ecs.Register(w, healthType)
	e := w.Create()
	s.Set(e, health{})
	w.Clear()
	assert.Equal(t, 0, w.Count())
	assert.Equal(t, 0, s.Len())
	assert.False(t, w.Alive(e))
	assert.Empty(t, w.Entities())
}

func TestWorld_Property_LiveCountMatchesEntities(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := ecs.NewWorld()
		var live []ecs.Entity
		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 60).Draw(rt, "ops")
		for _, op := range ops {
			switch {
			case op == 0 || len(live) == 0:
				live = append(live, w.Create())
			case op == 1:
				w.Delete(live[0])
				w.Delete(live[0])
				w.Maintain()
				live = live[1:]
			default:
				w.Delete(live[len(live)-1])
				w.Maintain()
				live = live[:len(live)-1]
			}
		}
		assert.Equal(rt, len(live), w.Count())
		assert.Equal(rt, live, w.Entities())
	})
}
