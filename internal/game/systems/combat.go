package systems

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

// MeleeCombat resolves every attack intent from a living attacker against a
// living target. Damage is power minus defense; anything at or below zero is
// reported as unable to hurt and queues nothing. All attack intents are
// cleared afterwards.
func MeleeCombat(c *Context) {
	r := c.Reg
	defer r.WantsToMelee.Clear()

	for _, e := range r.WantsToMelee.Entities() {
		wants := r.WantsToMelee.MustGet(e)
		attacker, ok := r.CombatStats.Get(e)
		if !ok || !attacker.Alive() {
			continue
		}
		if !r.World.Alive(wants.Target) {
			continue
		}
		target, ok := r.CombatStats.Get(wants.Target)
		if !ok || !target.Alive() {
			continue
		}

		attackerName := c.nameOr(e, "Something")
		targetName := c.nameOr(wants.Target, "something")
		damage := max(0, attacker.Power-target.Defense)
		if damage == 0 {
			c.Log.Addf("%s is unable to hurt %s.", attackerName, targetName)
		} else {
			c.Log.Addf("%s hits %s for %d damage!", attackerName, targetName, damage)
			r.QueueDamage(wants.Target, damage)
		}
		c.logger().Debug("melee resolved",
			zap.Any("attacker", e),
			zap.Any("target", wants.Target),
			zap.Int("damage", damage),
		)
	}
}

// Damage subtracts every queued amount from hit points. HP is not clamped;
// death is decided by DeleteTheDead. Accumulators on entities without stats
// are discarded.
func Damage(c *Context) {
	r := c.Reg
	defer r.SufferDamage.Clear()

	for _, e := range r.SufferDamage.Entities() {
		stats, ok := r.CombatStats.Get(e)
		if !ok {
			continue
		}
		total := r.SufferDamage.MustGet(e).Total()
		stats.HP -= total
		c.logger().Debug("damage applied",
			zap.Any("entity", e),
			zap.Int("amount", total),
			zap.Int("hp", stats.HP),
		)
	}
}

// SweepResult reports the outcome of DeleteTheDead.
type SweepResult struct {
	Deleted    []ecs.Entity
	PlayerDead bool
}

// DeleteTheDead removes every non-player entity at or below zero hit points
// and reports whether the player has died. The player is never deleted here.
//
// Postcondition: deletions are committed before returning.
func DeleteTheDead(c *Context) SweepResult {
	r := c.Reg
	var res SweepResult
	for _, e := range r.CombatStats.Entities() {
		if r.CombatStats.MustGet(e).Alive() {
			continue
		}
		if c.IsPlayer(e) {
			res.PlayerDead = true
			c.Log.Add("You are dead!")
			continue
		}
		if name, ok := r.NameOf(e); ok {
			c.Log.Addf("%s is dead", name)
		}
		r.World.Delete(e)
	}
	res.Deleted = r.World.Maintain()
	if len(res.Deleted) > 0 {
		c.logger().Debug("dead removed", zap.Int("count", len(res.Deleted)))
	}
	return res
}
