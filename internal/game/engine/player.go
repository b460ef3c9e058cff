package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/component"
	"github.com/cory-johannsen/delve/internal/game/ecs"
	"github.com/cory-johannsen/delve/internal/game/gamemap"
	"github.com/cory-johannsen/delve/internal/game/runstate"
)

// playerInput consumes one command while AwaitingInput. Turn-taking commands
// move to PlayerTurn even when they fail softly.
func (g *Game) playerInput(ctx context.Context, in command.Input) {
	switch in.Action {
	case command.ActionMove:
		g.tryMove(in.DX, in.DY)
	case command.ActionPickup:
		g.tryPickup()
	case command.ActionDescend:
		if g.onStairs() {
			g.machine.Go(ctx, runstate.EventDescend, runstate.NextLevel)
			return
		}
		g.log.Add("There is no way down from here.")
	case command.ActionWait:
		g.skipTurn()
	case command.ActionInventory:
		g.machine.Go(ctx, runstate.EventOpenInventory, runstate.ShowInventory)
		return
	case command.ActionDrop:
		g.machine.Go(ctx, runstate.EventOpenDrop, runstate.ShowDropItem)
		return
	case command.ActionSave, command.ActionQuit:
		g.machine.Go(ctx, runstate.EventSave, runstate.SaveGame)
		return
	case command.ActionLook:
		g.tooltip = g.Tooltip(in.Point)
		return
	default:
		return
	}
	g.machine.Go(ctx, runstate.EventAct, runstate.PlayerTurn)
}

// tryMove steps the player by (dx, dy), or queues a melee attack when the
// destination holds something with combat stats.
//
// Postcondition: at most one of {position changed, WantsToMelee inserted} holds.
func (g *Game) tryMove(dx, dy int) {
	r := g.reg
	pos := r.Positions.MustGet(g.player)
	dest := pos.Point().Add(dx, dy)
	if !g.m.InBounds(dest.X, dest.Y) {
		return
	}

	for _, occupant := range g.m.TileOccupants(dest.X, dest.Y) {
		if occupant == g.player || !r.CombatStats.Has(occupant) {
			continue
		}
		r.WantsToMelee.MustInsert(g.player, component.WantsToMelee{Target: occupant})
		g.logger.Debug("player attacks", zap.Any("target", occupant))
		return
	}

	if g.m.TileBlocking(dest.X, dest.Y) {
		return
	}
	pos.X, pos.Y = dest.X, dest.Y
	if vs, ok := r.Viewsheds.Get(g.player); ok {
		vs.Dirty = true
	}
}

// tryPickup queues a pickup of the item under the player.
func (g *Game) tryPickup() {
	r := g.reg
	here := r.Positions.MustGet(g.player).Point()
	target := ecs.Nil
	for _, e := range ecs.Join(r.Items, r.Positions) {
		if r.Positions.MustGet(e).Point() == here {
			target = e
		}
	}
	if target == ecs.Nil {
		g.log.Add("There is nothing to pick up.")
		return
	}
	r.WantsToPickup.MustInsert(g.player, component.WantsToPickupItem{CollectedBy: g.player, Item: target})
}

func (g *Game) onStairs() bool {
	here := g.reg.Positions.MustGet(g.player).Point()
	return g.m.TileAt(here) == gamemap.DownStairs
}

// skipTurn heals one hit point when no monster is in view.
func (g *Game) skipTurn() {
	r := g.reg
	vs, ok := r.Viewsheds.Get(g.player)
	if ok {
		hostile := false
		vs.VisibleTiles.Each(func(p gamemap.Point) {
			for _, e := range g.m.TileOccupants(p.X, p.Y) {
				if r.Monsters.Has(e) {
					hostile = true
				}
			}
		})
		if hostile {
			return
		}
	}
	stats := r.CombatStats.MustGet(g.player)
	stats.HP = min(stats.HP+1, stats.MaxHP)
}

// Tooltip names every entity on p when the player can see it.
func (g *Game) Tooltip(p gamemap.Point) []string {
	if g.m == nil || !g.m.InBounds(p.X, p.Y) || !g.m.IsVisible(p) {
		return nil
	}
	var names []string
	for _, e := range ecs.Join(g.reg.Names, g.reg.Positions) {
		if g.reg.Positions.MustGet(e).Point() == p {
			names = append(names, g.reg.Names.MustGet(e).Name)
		}
	}
	return names
}

// inventoryMenu handles ShowInventory. Ranged items open targeting; anything
// else is used on the spot.
func (g *Game) inventoryMenu(ctx context.Context, in command.Input) {
	switch in.Action {
	case command.ActionCancel:
		g.machine.Go(ctx, runstate.EventCancel, runstate.AwaitingInput)
		return
	case command.ActionSelect:
	default:
		return
	}

	item, ok := g.backpackItem(in.Index)
	if !ok {
		g.log.Add(MsgInvalidSelection)
		return
	}
	if ranged, ok := g.reg.Ranged.Get(item); ok {
		g.machine.MustFire(ctx, runstate.EventTarget, runstate.Targeting(ranged.Range, item))
		return
	}
	g.reg.WantsToUse.MustInsert(g.player, component.WantsToUseItem{Item: item})
	g.machine.Go(ctx, runstate.EventAct, runstate.PlayerTurn)
}

func (g *Game) dropMenu(ctx context.Context, in command.Input) {
	switch in.Action {
	case command.ActionCancel:
		g.machine.Go(ctx, runstate.EventCancel, runstate.AwaitingInput)
		return
	case command.ActionSelect:
	default:
		return
	}

	item, ok := g.backpackItem(in.Index)
	if !ok {
		g.log.Add(MsgInvalidSelection)
		return
	}
	g.reg.WantsToDrop.MustInsert(g.player, component.WantsToDropItem{Item: item})
	g.machine.Go(ctx, runstate.EventAct, runstate.PlayerTurn)
}

func (g *Game) backpackItem(index int) (ecs.Entity, bool) {
	items := g.reg.Backpack(g.player)
	if index < 0 || index >= len(items) {
		return ecs.Nil, false
	}
	return items[index], true
}

// targeting handles ShowTargeting. A target must be visible to the player and
// within the item's range.
func (g *Game) targeting(ctx context.Context, in command.Input) {
	switch in.Action {
	case command.ActionCancel:
		g.machine.Go(ctx, runstate.EventCancel, runstate.AwaitingInput)
		return
	case command.ActionTarget:
	default:
		return
	}

	st := g.machine.State()
	if !g.inRange(in.Point, st.Range) {
		g.log.Add("That target is out of range.")
		return
	}
	target := in.Point
	g.reg.WantsToUse.MustInsert(g.player, component.WantsToUseItem{Item: st.Item, Target: &target})
	g.machine.Go(ctx, runstate.EventAct, runstate.PlayerTurn)
}

func (g *Game) inRange(p gamemap.Point, rng int) bool {
	vs, ok := g.reg.Viewsheds.Get(g.player)
	if !ok || !vs.VisibleTiles.Has(p) {
		return false
	}
	from := g.reg.Positions.MustGet(g.player).Point()
	return gamemap.Distance(from, p) <= float64(rng)
}

// targetsInRange lists visible monsters the current targeting state can reach.
func (g *Game) targetsInRange(rng int) []Target {
	var out []Target
	for _, e := range ecs.Join(g.reg.Monsters, g.reg.Positions) {
		p := g.reg.Positions.MustGet(e).Point()
		if !g.inRange(p, rng) {
			continue
		}
		name, _ := g.reg.NameOf(e)
		out = append(out, Target{Point: p, Name: name})
	}
	return out
}
