package component

import (
	"github.com/yohamta/donburi"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

// Component types are declared once and bound to each world by NewRegistry.
var (
	PositionType          = donburi.NewComponentType[Position]().SetName("position")
	ViewshedType          = donburi.NewComponentType[Viewshed]().SetName("viewshed")
	CombatStatsType       = donburi.NewComponentType[CombatStats]().SetName("combat_stats")
	SufferDamageType      = donburi.NewComponentType[SufferDamage]().SetName("suffer_damage")
	WantsToMeleeType      = donburi.NewComponentType[WantsToMelee]().SetName("wants_to_melee")
	WantsToPickupItemType = donburi.NewComponentType[WantsToPickupItem]().SetName("wants_to_pickup_item")
	WantsToDropItemType   = donburi.NewComponentType[WantsToDropItem]().SetName("wants_to_drop_item")
	WantsToUseItemType    = donburi.NewComponentType[WantsToUseItem]().SetName("wants_to_use_item")
	InBackpackType        = donburi.NewComponentType[InBackpack]().SetName("in_backpack")
	ItemType              = donburi.NewComponentType[Item]().SetName("item")
	ConsumableType        = donburi.NewComponentType[Consumable]().SetName("consumable")
	RangedType            = donburi.NewComponentType[Ranged]().SetName("ranged")
	AreaOfEffectType      = donburi.NewComponentType[AreaOfEffect]().SetName("area_of_effect")
	ProvidesHealingType   = donburi.NewComponentType[ProvidesHealing]().SetName("provides_healing")
	InflictsDamageType    = donburi.NewComponentType[InflictsDamage]().SetName("inflicts_damage")
	ConfusionType         = donburi.NewComponentType[Confusion]().SetName("confusion")
	BlocksTileType        = donburi.NewComponentType[BlocksTile]().SetName("blocks_tile")
	MonsterType           = donburi.NewComponentType[Monster]().SetName("monster")
	PlayerType            = donburi.NewComponentType[Player]().SetName("player")
	NameType              = donburi.NewComponentType[Name]().SetName("name")
	RenderableType        = donburi.NewComponentType[Renderable]().SetName("renderable")
)

// Registry owns the world and every component store.
//
// Systems receive the Registry through the simulation context and never
// create stores of their own.
type Registry struct {
	World *ecs.World

	Positions     *ecs.Store[Position]
	Viewsheds     *ecs.Store[Viewshed]
	CombatStats   *ecs.Store[CombatStats]
	SufferDamage  *ecs.Store[SufferDamage]
	WantsToMelee  *ecs.Store[WantsToMelee]
	WantsToPickup *ecs.Store[WantsToPickupItem]
	WantsToDrop   *ecs.Store[WantsToDropItem]
	WantsToUse    *ecs.Store[WantsToUseItem]
	InBackpack    *ecs.Store[InBackpack]

	Items        *ecs.Store[Item]
	Consumables  *ecs.Store[Consumable]
	Ranged       *ecs.Store[Ranged]
	AreaOfEffect *ecs.Store[AreaOfEffect]
	Healing      *ecs.Store[ProvidesHealing]
	Damage       *ecs.Store[InflictsDamage]
	Confusion    *ecs.Store[Confusion]

	BlocksTile  *ecs.Store[BlocksTile]
	Monsters    *ecs.Store[Monster]
	Players     *ecs.Store[Player]
	Names       *ecs.Store[Name]
	Renderables *ecs.Store[Renderable]
}

// NewRegistry creates an empty world with every store registered.
func NewRegistry() *Registry {
	w := ecs.NewWorld()
	return &Registry{
		World:         w,
		Positions:     ecs.Register(w, PositionType),
		Viewsheds:     ecs.Register(w, ViewshedType),
		CombatStats:   ecs.Register(w, CombatStatsType),
		SufferDamage:  ecs.Register(w, SufferDamageType),
		WantsToMelee:  ecs.Register(w, WantsToMeleeType),
		WantsToPickup: ecs.Register(w, WantsToPickupItemType),
		WantsToDrop:   ecs.Register(w, WantsToDropItemType),
		WantsToUse:    ecs.Register(w, WantsToUseItemType),
		InBackpack:    ecs.Register(w, InBackpackType),
		Items:         ecs.Register(w, ItemType),
		Consumables:   ecs.Register(w, ConsumableType),
		Ranged:        ecs.Register(w, RangedType),
		AreaOfEffect:  ecs.Register(w, AreaOfEffectType),
		Healing:       ecs.Register(w, ProvidesHealingType),
		Damage:        ecs.Register(w, InflictsDamageType),
		Confusion:     ecs.Register(w, ConfusionType),
		BlocksTile:    ecs.Register(w, BlocksTileType),
		Monsters:      ecs.Register(w, MonsterType),
		Players:       ecs.Register(w, PlayerType),
		Names:         ecs.Register(w, NameType),
		Renderables:   ecs.Register(w, RenderableType),
	}
}

// QueueDamage appends amount to target's damage accumulator, creating it on
// first use this turn.
//
// Precondition: target is alive.
func (r *Registry) QueueDamage(target ecs.Entity, amount int) {
	if acc, ok := r.SufferDamage.Get(target); ok {
		acc.Amounts = append(acc.Amounts, amount)
		return
	}
	r.SufferDamage.MustInsert(target, SufferDamage{Amounts: []int{amount}})
}

// NameOf returns e's display name and whether it has one.
func (r *Registry) NameOf(e ecs.Entity) (string, bool) {
	n, ok := r.Names.Get(e)
	if !ok {
		return "", false
	}
	return n.Name, true
}

// Backpack returns the items owned by owner in stable entity order.
func (r *Registry) Backpack(owner ecs.Entity) []ecs.Entity {
	var out []ecs.Entity
	for _, e := range ecs.Join(r.InBackpack, r.Items) {
		if bp := r.InBackpack.MustGet(e); bp.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}
