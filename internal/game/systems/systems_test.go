package systems

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamelog"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

func openMap(w, h int) *gamemap.Map {
	m := gamemap.New(w, h, 1)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			m.SetTile(gamemap.Point{X: x, Y: y}, gamemap.Floor)
		}
	}
	m.PopulateBlocked()
	return m
}

func newContext(logger *zap.Logger) *Context {
	reg := component.NewRegistry()
	player := reg.World.Create()
	reg.Players.MustInsert(player, component.Player{})
	reg.Names.MustInsert(player, component.Name{Name: "Player"})
	reg.Positions.MustInsert(player, component.Position{X: 5, Y: 5})
	reg.CombatStats.MustInsert(player, component.CombatStats{MaxHP: 30, HP: 30, Defense: 2, Power: 5})
	reg.Viewsheds.MustInsert(player, component.NewViewshed(8))
	return &Context{
		Reg:      reg,
		Map:      openMap(30, 30),
		Player:   player,
		RunState: runstate.PlayerTurn,
		Log:      gamelog.New(100, logger),
		Logger:   logger,
	}
}

func spawnMonster(c *Context, name string, x, y int, stats component.CombatStats) ecs.Entity {
	r := c.Reg
	e := r.World.Create()
	r.Monsters.MustInsert(e, component.Monster{})
	r.BlocksTile.MustInsert(e, component.BlocksTile{})
	r.Names.MustInsert(e, component.Name{Name: name})
	r.Positions.MustInsert(e, component.Position{X: x, Y: y})
	r.CombatStats.MustInsert(e, stats)
	r.Viewsheds.MustInsert(e, component.NewViewshed(8))
	return e
}

func spawnItem(c *Context, name string, at *gamemap.Point) ecs.Entity {
	r := c.Reg
	e := r.World.Create()
	r.Items.MustInsert(e, component.Item{})
	r.Names.MustInsert(e, component.Name{Name: name})
	if at != nil {
		r.Positions.MustInsert(e, component.PositionAt(*at))
	} else {
		r.InBackpack.MustInsert(e, component.InBackpack{Owner: c.Player})
	}
	return e
}

func goblin() component.CombatStats {
	return component.CombatStats{MaxHP: 16, HP: 16, Defense: 1, Power: 4}
}

func run(c *Context) []ecs.Entity {
	return NewPipeline(nil).Run(context.Background(), c)
}

func TestPipeline_Order(t *testing.T) {
	assert.Equal(t, []string{
		"visibility", "monster_ai", "map_indexing", "melee_combat",
		"damage", "item_collection", "item_use", "item_drop",
	}, NewPipeline(nil).Systems())
}

func TestVisibility_PlayerRevealsMap(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	Visibility(c)

	vs := c.Reg.Viewsheds.MustGet(c.Player)
	assert.False(t, vs.Dirty)
	assert.True(t, vs.VisibleTiles.Has(gamemap.Point{X: 5, Y: 5}))
	assert.True(t, c.Map.IsVisible(gamemap.Point{X: 8, Y: 5}))
	assert.True(t, c.Map.Revealed[c.Map.Index(8, 5)])
	assert.False(t, c.Map.IsVisible(gamemap.Point{X: 25, Y: 25}))
}

func TestVisibility_CleanViewshedUntouched(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	Visibility(c)
	c.Reg.Positions.MustGet(c.Player).X = 20
	Visibility(c)
	assert.False(t, c.Reg.Viewsheds.MustGet(c.Player).VisibleTiles.Has(gamemap.Point{X: 20, Y: 5}))
}

func TestMapIndexing_RebuildsFromScratch(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	m := spawnMonster(c, "Goblin", 10, 10, goblin())
	potion := spawnItem(c, "Health Potion", &gamemap.Point{X: 12, Y: 12})
	c.Map.SetBlocked(gamemap.Point{X: 3, Y: 3}, true)

	MapIndexing(c)

	assert.False(t, c.Map.TileBlocking(3, 3), "stale block cleared")
	assert.True(t, c.Map.TileBlocking(10, 10))
	assert.False(t, c.Map.TileBlocking(12, 12), "items do not block")
	assert.Equal(t, []ecs.Entity{m}, c.Map.TileOccupants(10, 10))
	assert.Equal(t, []ecs.Entity{potion}, c.Map.TileOccupants(12, 12))
	assert.Equal(t, []ecs.Entity{c.Player}, c.Map.TileOccupants(5, 5))
}

// Melee damage is the attacker's power minus the target's defense.
func TestMelee_DamageIsPowerMinusDefense(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	target := spawnMonster(c, "Goblin", 6, 5, component.CombatStats{MaxHP: 16, HP: 16, Defense: 2, Power: 4})
	c.Reg.WantsToMelee.MustInsert(c.Player, component.WantsToMelee{Target: target})

	run(c)

	assert.Equal(t, 13, c.Reg.CombatStats.MustGet(target).HP)
	assert.Contains(t, c.Log.Entries(), "Player hits Goblin for 3 damage!")
	assert.Zero(t, c.Reg.WantsToMelee.Len())
	assert.Zero(t, c.Reg.SufferDamage.Len())
}

// Defense equal to power blocks the blow entirely.
func TestMelee_EqualPowerAndDefenseCannotHurt(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	attacker := spawnMonster(c, "Orc", 6, 5, component.CombatStats{MaxHP: 16, HP: 16, Defense: 1, Power: 4})
	target := spawnMonster(c, "Golem", 7, 5, component.CombatStats{MaxHP: 16, HP: 16, Defense: 4, Power: 1})
	c.Reg.WantsToMelee.MustInsert(attacker, component.WantsToMelee{Target: target})

	run(c)

	assert.Equal(t, 16, c.Reg.CombatStats.MustGet(target).HP)
	assert.Equal(t, "Orc is unable to hurt Golem.", c.Log.Last())
}

func TestMelee_DeadAttackerOrTargetDoesNothing(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	dead := spawnMonster(c, "Corpse", 6, 5, component.CombatStats{MaxHP: 16, HP: 0, Defense: 1, Power: 9})
	c.Reg.WantsToMelee.MustInsert(dead, component.WantsToMelee{Target: c.Player})
	c.Reg.WantsToMelee.MustInsert(c.Player, component.WantsToMelee{Target: dead})

	MeleeCombat(c)

	assert.Zero(t, c.Reg.SufferDamage.Len())
	assert.Zero(t, c.Reg.WantsToMelee.Len())
	assert.Zero(t, c.Log.Len())
}

func TestDamage_DiscardsAccumulatorWithoutStats(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	rock := spawnItem(c, "Rock", &gamemap.Point{X: 7, Y: 7})
	c.Reg.QueueDamage(rock, 5)

	Damage(c)

	assert.False(t, c.Reg.SufferDamage.Has(rock))
	assert.True(t, c.Reg.World.Alive(rock))
}

func TestDeleteTheDead(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	named := spawnMonster(c, "Goblin", 10, 10, component.CombatStats{MaxHP: 16, HP: -2})
	nameless := spawnMonster(c, "x", 11, 10, component.CombatStats{MaxHP: 16, HP: 0})
	c.Reg.Names.Remove(nameless)
	survivor := spawnMonster(c, "Orc", 12, 10, goblin())
	c.Reg.CombatStats.MustGet(c.Player).HP = 0

	res := DeleteTheDead(c)

	assert.True(t, res.PlayerDead)
	assert.ElementsMatch(t, []ecs.Entity{named, nameless}, res.Deleted)
	assert.False(t, c.Reg.World.Alive(named))
	assert.False(t, c.Reg.Positions.Has(named))
	assert.False(t, c.Reg.World.Alive(nameless))
	assert.True(t, c.Reg.World.Alive(survivor))
	assert.True(t, c.Reg.World.Alive(c.Player))
	assert.Equal(t, []string{"You are dead!", "Goblin is dead"}, c.Log.Entries())
}

func TestItemUse_HealingPotion(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	c.Reg.CombatStats.MustGet(c.Player).HP = 10
	potion := spawnItem(c, "Health Potion", nil)
	c.Reg.Consumables.MustInsert(potion, component.Consumable{})
	c.Reg.Healing.MustInsert(potion, component.ProvidesHealing{Amount: 8})
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: potion})

	run(c)

	assert.Equal(t, 18, c.Reg.CombatStats.MustGet(c.Player).HP)
	assert.False(t, c.Reg.World.Alive(potion))
	assert.Empty(t, c.Reg.Backpack(c.Player))
	assert.Equal(t, "You drink the Health Potion, healing 8 hp.", c.Log.Last())
}

func TestItemUse_HealingClampsToMax(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	c.Reg.CombatStats.MustGet(c.Player).HP = 28
	potion := spawnItem(c, "Health Potion", nil)
	c.Reg.Healing.MustInsert(potion, component.ProvidesHealing{Amount: 8})
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: potion})

	ItemUse(c)

	assert.Equal(t, 30, c.Reg.CombatStats.MustGet(c.Player).HP)
	assert.True(t, c.Reg.World.Alive(potion), "non-consumable survives")
}

func TestItemUse_HealingWithNoValidTargetNotConsumed(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	potion := spawnItem(c, "Health Potion", nil)
	c.Reg.Consumables.MustInsert(potion, component.Consumable{})
	c.Reg.Healing.MustInsert(potion, component.ProvidesHealing{Amount: 8})
	empty := gamemap.Point{X: 20, Y: 20}
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: potion, Target: &empty})

	run(c)

	assert.True(t, c.Reg.World.Alive(potion))
	assert.Equal(t, []ecs.Entity{potion}, c.Reg.Backpack(c.Player))
	assert.Zero(t, c.Reg.WantsToUse.Len())
}

func TestItemUse_SingleTargetDamage(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	target := spawnMonster(c, "Orc", 9, 5, goblin())
	scroll := spawnItem(c, "Magic Missile Scroll", nil)
	c.Reg.Consumables.MustInsert(scroll, component.Consumable{})
	c.Reg.Ranged.MustInsert(scroll, component.Ranged{Range: 6})
	c.Reg.Damage.MustInsert(scroll, component.InflictsDamage{Amount: 8})
	at := gamemap.Point{X: 9, Y: 5}
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: scroll, Target: &at})

	run(c)
	assert.Equal(t, "You use Magic Missile Scroll on Orc, inflicting 8 damage.", c.Log.Last())
	assert.False(t, c.Reg.World.Alive(scroll))
	assert.Equal(t, 16, c.Reg.CombatStats.MustGet(target).HP, "queued damage lands on the next pass")

	c.RunState = runstate.AwaitingInput
	run(c)
	assert.Equal(t, 8, c.Reg.CombatStats.MustGet(target).HP)
}

func TestItemUse_ConfusionRefreshesTurns(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	target := spawnMonster(c, "Orc", 9, 5, goblin())
	c.Reg.Confusion.MustInsert(target, component.Confusion{Turns: 1})
	scroll := spawnItem(c, "Confusion Scroll", nil)
	c.Reg.Confusion.MustInsert(scroll, component.Confusion{Turns: 4})
	at := gamemap.Point{X: 9, Y: 5}
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: scroll, Target: &at})

	run(c)

	assert.Equal(t, 4, c.Reg.Confusion.MustGet(target).Turns)
	assert.Equal(t, "You use Confusion Scroll on Orc, confusing them!", c.Log.Last())
}

func TestItemUse_NoCapabilitiesNotConsumed(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	trinket := spawnItem(c, "Trinket", nil)
	c.Reg.Consumables.MustInsert(trinket, component.Consumable{})
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: trinket})

	run(c)

	assert.True(t, c.Reg.World.Alive(trinket))
	assert.Zero(t, c.Log.Len())
}

func TestItemUse_MissedScrollIsConsumed(t *testing.T) {
	cases := []struct {
		name  string
		equip func(r *component.Registry, scroll ecs.Entity)
	}{
		{"magic missile", func(r *component.Registry, scroll ecs.Entity) {
			r.Damage.MustInsert(scroll, component.InflictsDamage{Amount: 8})
		}},
		{"fireball", func(r *component.Registry, scroll ecs.Entity) {
			r.Damage.MustInsert(scroll, component.InflictsDamage{Amount: 20})
			r.AreaOfEffect.MustInsert(scroll, component.AreaOfEffect{Radius: 3})
		}},
		{"confusion", func(r *component.Registry, scroll ecs.Entity) {
			r.Confusion.MustInsert(scroll, component.Confusion{Turns: 4})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newContext(zaptest.NewLogger(t))
			scroll := spawnItem(c, "Scroll", nil)
			c.Reg.Consumables.MustInsert(scroll, component.Consumable{})
			c.Reg.Ranged.MustInsert(scroll, component.Ranged{Range: 10})
			tc.equip(c.Reg, scroll)
			empty := gamemap.Point{X: 12, Y: 12}
			c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: scroll, Target: &empty})

			run(c)

			assert.False(t, c.Reg.World.Alive(scroll))
			assert.Empty(t, c.Reg.Backpack(c.Player))
		})
	}
}

func TestItemUse_ConfusionAtStatlessItemIsConsumed(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	at := gamemap.Point{X: 12, Y: 12}
	loot := spawnItem(c, "Health Potion", &at)
	scroll := spawnItem(c, "Confusion Scroll", nil)
	c.Reg.Consumables.MustInsert(scroll, component.Consumable{})
	c.Reg.Confusion.MustInsert(scroll, component.Confusion{Turns: 4})
	MapIndexing(c)
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: scroll, Target: &at})

	ItemUse(c)
	c.Reg.World.Maintain()

	assert.False(t, c.Reg.World.Alive(scroll))
	assert.False(t, c.Reg.Confusion.Has(loot))
}

// Area damage is queued on every occupant of the blast, items lying on the
// floor included. The Damage system later discards what it cannot apply.
func TestItemUse_FireballQueuesDamageOnFloorItems(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	orc := spawnMonster(c, "Orc", 20, 20, goblin())
	loot := spawnItem(c, "Health Potion", &gamemap.Point{X: 21, Y: 20})
	fireball := spawnItem(c, "Fireball Scroll", nil)
	c.Reg.Damage.MustInsert(fireball, component.InflictsDamage{Amount: 20})
	c.Reg.AreaOfEffect.MustInsert(fireball, component.AreaOfEffect{Radius: 3})
	c.Reg.Consumables.MustInsert(fireball, component.Consumable{})
	MapIndexing(c)
	at := gamemap.Point{X: 20, Y: 20}
	c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: fireball, Target: &at})

	ItemUse(c)

	require.True(t, c.Reg.SufferDamage.Has(orc))
	require.True(t, c.Reg.SufferDamage.Has(loot))
	assert.Equal(t, []int{20}, c.Reg.SufferDamage.MustGet(loot).Amounts)

	Damage(c)
	assert.True(t, c.Reg.World.Alive(loot))
	assert.False(t, c.Reg.SufferDamage.Has(loot))
	assert.Equal(t, -4, c.Reg.CombatStats.MustGet(orc).HP)
}

func TestItemCollection_PickUp(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	potion := spawnItem(c, "Health Potion", &gamemap.Point{X: 5, Y: 5})
	c.Reg.WantsToPickup.MustInsert(c.Player, component.WantsToPickupItem{CollectedBy: c.Player, Item: potion})

	run(c)

	assert.False(t, c.Reg.Positions.Has(potion))
	assert.Equal(t, c.Player, c.Reg.InBackpack.MustGet(potion).Owner)
	assert.Contains(t, c.Log.Last(), "You pick up the Health Potion")
	assert.Zero(t, c.Reg.WantsToPickup.Len())
}

func TestItemDrop_PlacesAtDropper(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	potion := spawnItem(c, "Health Potion", nil)
	c.Reg.WantsToDrop.MustInsert(c.Player, component.WantsToDropItem{Item: potion})

	run(c)

	assert.False(t, c.Reg.InBackpack.Has(potion))
	assert.Equal(t, component.Position{X: 5, Y: 5}, *c.Reg.Positions.MustGet(potion))
	assert.Equal(t, "You drop the Health Potion.", c.Log.Last())
}

func TestMonsterAI_IdleOutsideMonsterTurn(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	spawnMonster(c, "Goblin", 6, 5, goblin())
	c.RunState = runstate.AwaitingInput

	run(c)

	assert.Equal(t, 30, c.Reg.CombatStats.MustGet(c.Player).HP)
}

// A confused monster loses its turn and the confusion counts down.
func TestMonsterAI_ConfusedMonsterSkipsTurn(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	m := spawnMonster(c, "Goblin", 6, 5, goblin())
	c.Reg.Confusion.MustInsert(m, component.Confusion{Turns: 1})
	c.RunState = runstate.MonsterTurn

	run(c)
	assert.False(t, c.Reg.Confusion.Has(m))
	assert.Equal(t, 30, c.Reg.CombatStats.MustGet(c.Player).HP)

	run(c)
	assert.Equal(t, 28, c.Reg.CombatStats.MustGet(c.Player).HP)
}

func TestMonsterAI_EveryAdjacentMonsterAttacks(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	spawnMonster(c, "Goblin", 6, 5, goblin())
	spawnMonster(c, "Orc", 4, 5, goblin())
	c.RunState = runstate.MonsterTurn

	run(c)

	assert.Equal(t, 26, c.Reg.CombatStats.MustGet(c.Player).HP)
}

func TestMonsterAI_ChasesVisiblePlayer(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	m := spawnMonster(c, "Goblin", 10, 5, goblin())
	c.RunState = runstate.MonsterTurn
	Visibility(c)
	MapIndexing(c)

	MonsterAI(c)

	assert.Equal(t, component.Position{X: 9, Y: 5}, *c.Reg.Positions.MustGet(m))
	assert.True(t, c.Reg.Viewsheds.MustGet(m).Dirty)
	assert.True(t, c.Map.TileBlocking(9, 5))
	assert.False(t, c.Map.TileBlocking(10, 5))
}

func TestMonsterAI_UnseenPlayerIgnored(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	m := spawnMonster(c, "Goblin", 25, 25, goblin())
	c.RunState = runstate.MonsterTurn

	run(c)

	assert.Equal(t, component.Position{X: 25, Y: 25}, *c.Reg.Positions.MustGet(m))
}

func TestMonsterAI_NoPathStaysPut(t *testing.T) {
	c := newContext(zaptest.NewLogger(t))
	m := spawnMonster(c, "Goblin", 10, 5, goblin())
	c.RunState = runstate.MonsterTurn
	Visibility(c)
	MapIndexing(c)
	// Surround the monster so it sees the player but cannot move.
	for _, p := range []gamemap.Point{{X: 9, Y: 5}, {X: 11, Y: 5}, {X: 10, Y: 4}, {X: 10, Y: 6}} {
		c.Map.SetBlocked(p, true)
	}

	MonsterAI(c)

	assert.Equal(t, component.Position{X: 10, Y: 5}, *c.Reg.Positions.MustGet(m))
}

// Damage from many sources sums before it is subtracted.
func TestDamage_AggregatesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newContext(zap.NewNop())
		hp := rapid.IntRange(1, 100).Draw(rt, "hp")
		m := spawnMonster(c, "Goblin", 10, 10, component.CombatStats{MaxHP: 100, HP: hp})
		amounts := rapid.SliceOfN(rapid.IntRange(0, 30), 1, 10).Draw(rt, "amounts")
		sum := 0
		for _, a := range amounts {
			c.Reg.QueueDamage(m, a)
			sum += a
		}
		if c.Reg.SufferDamage.Len() != 1 {
			rt.Fatalf("expected one accumulator, got %d", c.Reg.SufferDamage.Len())
		}

		Damage(c)

		if got := c.Reg.CombatStats.MustGet(m).HP; got != hp-sum {
			rt.Fatalf("hp = %d, want %d", got, hp-sum)
		}
		if c.Reg.SufferDamage.Len() != 0 {
			rt.Fatalf("accumulator not cleared")
		}
	})
}

// The dead are removed; the player never is.
func TestDeleteTheDead_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newContext(zap.NewNop())
		c.Reg.CombatStats.MustGet(c.Player).HP = rapid.IntRange(-10, 10).Draw(rt, "player_hp")
		hps := rapid.SliceOfN(rapid.IntRange(-10, 10), 0, 12).Draw(rt, "hps")
		monsters := make([]ecs.Entity, len(hps))
		for i, hp := range hps {
			monsters[i] = spawnMonster(c, "Goblin", 1+i, 1, component.CombatStats{MaxHP: 10, HP: hp})
		}

		DeleteTheDead(c)

		if !c.Reg.World.Alive(c.Player) {
			rt.Fatalf("player deleted")
		}
		for i, e := range monsters {
			if alive := c.Reg.World.Alive(e); alive != (hps[i] > 0) {
				rt.Fatalf("monster hp %d alive=%v", hps[i], alive)
			}
		}
	})
}

type snapshot struct {
	count     int
	positions map[ecs.Entity]component.Position
	stats     map[ecs.Entity]component.CombatStats
	backpack  map[ecs.Entity]ecs.Entity
}

func take(c *Context) snapshot {
	s := snapshot{
		count:     c.Reg.World.Count(),
		positions: map[ecs.Entity]component.Position{},
		stats:     map[ecs.Entity]component.CombatStats{},
		backpack:  map[ecs.Entity]ecs.Entity{},
	}
	c.Reg.Positions.Each(func(e ecs.Entity, p *component.Position) { s.positions[e] = *p })
	c.Reg.CombatStats.Each(func(e ecs.Entity, v *component.CombatStats) { s.stats[e] = *v })
	c.Reg.InBackpack.Each(func(e ecs.Entity, v *component.InBackpack) { s.backpack[e] = v.Owner })
	return s
}

// With no intents queued a pass changes nothing but viewsheds.
func TestPipeline_NoIntentsNoMutationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newContext(zap.NewNop())
		c.RunState = rapid.SampledFrom([]runstate.Kind{runstate.PreRun, runstate.PlayerTurn, runstate.AwaitingInput}).Draw(rt, "state")
		n := rapid.IntRange(0, 6).Draw(rt, "monsters")
		for i := 0; i < n; i++ {
			spawnMonster(c, "Goblin", rapid.IntRange(1, 28).Draw(rt, "mx"), rapid.IntRange(10, 28).Draw(rt, "my"), goblin())
		}
		k := rapid.IntRange(0, 4).Draw(rt, "items")
		for i := 0; i < k; i++ {
			if rapid.Bool().Draw(rt, "carried") {
				spawnItem(c, "Potion", nil)
			} else {
				spawnItem(c, "Potion", &gamemap.Point{X: rapid.IntRange(1, 28).Draw(rt, "ix"), Y: rapid.IntRange(1, 28).Draw(rt, "iy")})
			}
		}
		before := take(c)
		run(c)
		after := take(c)
		if before.count != after.count {
			rt.Fatalf("entity count changed %d -> %d", before.count, after.count)
		}
		assert.Equal(rt, before, after)
		if c.Log.Len() != 0 {
			rt.Fatalf("unexpected log entries %v", c.Log.Entries())
		}
	})
}

// An item is on the floor or in a pack, never both, never neither.
func TestItems_LocationExclusiveProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newContext(zap.NewNop())
		var items []ecs.Entity
		for i := 0; i < 4; i++ {
			items = append(items, spawnItem(c, "Potion", &gamemap.Point{X: 5, Y: 5}))
		}
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for s := 0; s < steps; s++ {
			item := rapid.SampledFrom(items).Draw(rt, "item")
			if rapid.Bool().Draw(rt, "pickup") {
				c.Reg.WantsToPickup.Set(c.Player, component.WantsToPickupItem{CollectedBy: c.Player, Item: item})
			} else {
				c.Reg.WantsToDrop.Set(c.Player, component.WantsToDropItem{Item: item})
			}
			run(c)
			for _, it := range items {
				onFloor := c.Reg.Positions.Has(it)
				carried := c.Reg.InBackpack.Has(it)
				if onFloor == carried {
					rt.Fatalf("item %v floor=%v carried=%v", it, onFloor, carried)
				}
			}
		}
	})
}

// A fireball never reaches past its visible radius or onto the map edge.
func TestFireball_ContainmentProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := newContext(zap.NewNop())
		for i := rapid.IntRange(0, 40).Draw(rt, "walls"); i > 0; i-- {
			c.Map.SetTile(gamemap.Point{X: rapid.IntRange(1, 28).Draw(rt, "wx"), Y: rapid.IntRange(1, 28).Draw(rt, "wy")}, gamemap.Wall)
		}
		c.Reg.Positions.MustGet(c.Player).X = 15
		c.Reg.Positions.MustGet(c.Player).Y = 15
		for i := rapid.IntRange(0, 30).Draw(rt, "monsters"); i > 0; i-- {
			spawnMonster(c, "Goblin", rapid.IntRange(0, 29).Draw(rt, "mx"), rapid.IntRange(0, 29).Draw(rt, "my"), goblin())
		}
		center := gamemap.Point{X: rapid.IntRange(0, 29).Draw(rt, "cx"), Y: rapid.IntRange(0, 29).Draw(rt, "cy")}

		fireball := spawnItem(c, "Fireball Scroll", nil)
		c.Reg.Damage.MustInsert(fireball, component.InflictsDamage{Amount: 20})
		c.Reg.AreaOfEffect.MustInsert(fireball, component.AreaOfEffect{Radius: 3})
		MapIndexing(c)
		c.Reg.WantsToUse.MustInsert(c.Player, component.WantsToUseItem{Item: fireball, Target: &center})

		ItemUse(c)

		reach := c.Map.TilesVisibleFrom(center, 3)
		for _, e := range c.Reg.SufferDamage.Entities() {
			p := c.Reg.Positions.MustGet(e).Point()
			dx, dy := p.X-center.X, p.Y-center.Y
			if dx*dx+dy*dy > 9 {
				rt.Fatalf("%v outside radius of %v", p, center)
			}
			if !c.Map.Interior(p) {
				rt.Fatalf("%v on boundary ring", p)
			}
			if !reach.Has(p) {
				rt.Fatalf("%v not visible from %v", p, center)
			}
		}
	})
}
