package systems

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/ecs"
)

// System is one stage of the pipeline.
type System struct {
	Name string
	Run  func(*Context)
}

// Pipeline runs its systems in a fixed order and then commits deferred
// deletions.
type Pipeline struct {
	systems []System
	tracer  trace.Tracer
}

// DefaultSystems returns the turn systems in their required order.
func DefaultSystems() []System {
	return []System{
		{Name: "visibility", Run: Visibility},
		{Name: "monster_ai", Run: MonsterAI},
		{Name: "map_indexing", Run: MapIndexing},
		{Name: "melee_combat", Run: MeleeCombat},
		{Name: "damage", Run: Damage},
		{Name: "item_collection", Run: ItemCollection},
		{Name: "item_use", Run: ItemUse},
		{Name: "item_drop", Run: ItemDrop},
	}
}

// NewPipeline returns the default pipeline traced with tracer. A nil tracer
// uses the global provider.
func NewPipeline(tracer trace.Tracer) *Pipeline {
	if tracer == nil {
		tracer = otel.Tracer("delve/systems")
	}
	return &Pipeline{systems: DefaultSystems(), tracer: tracer}
}

// Systems returns the stage names in execution order.
func (p *Pipeline) Systems() []string {
	out := make([]string, len(p.systems))
	for i, s := range p.systems {
		out[i] = s.Name
	}
	return out
}

// Run executes one full pass. It never suspends and has no cancellation
// point; ctx only carries the trace.
//
// Postcondition: no entity is pending deletion; the returned slice lists the
// entities removed by the commit.
func (p *Pipeline) Run(ctx context.Context, c *Context) []ecs.Entity {
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run_state", c.RunState.String())))
	defer span.End()

	for _, s := range p.systems {
		_, sysSpan := p.tracer.Start(ctx, "system."+s.Name)
		s.Run(c)
		sysSpan.End()
	}

	deleted := c.Reg.World.Maintain()
	span.SetAttributes(
		attribute.Int("entities.live", c.Reg.World.Count()),
		attribute.Int("entities.deleted", len(deleted)),
	)
	c.logger().Debug("pipeline pass complete",
		zap.Stringer("run_state", c.RunState),
		zap.Int("deleted", len(deleted)),
	)
	return deleted
}
