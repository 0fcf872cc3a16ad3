// Package components contains the plain component structs stored in the ECS
// world. Systems live in package sim.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slither/dna"
	"github.com/pthm-cable/slither/grid"
	"github.com/pthm-cable/slither/neural"
)

// Position is the cell a head or body segment occupies.
type Position = grid.Position

// Energy holds the per-tick variable state of a snake's energy economy.
type Energy struct {
	// MovePotential accumulates toward 1.0; a move spends 1.0.
	// Newborns start below zero so they cannot move immediately.
	MovePotential  float32
	PlantInStomach float32
	MeatInStomach  float32
	Value          float32
	// GrowthMatter is meat matter set aside to build the next segment.
	GrowthMatter float32
}

// Metabolism holds the derived rates of a snake. It changes only when the
// body changes: on growth, split, and brain replacement.
type Metabolism struct {
	MoveCost           float32
	BasicCost          float32
	Mobility           float32
	EnergyProduction   float32
	PlantProcessing    float32
	MeatProcessing     float32
	MaxPlantsInStomach float32
	MaxMeatInStomach   float32
	MaxEnergy          float32
	GrowthProduction   float32
}

// Snake is the head component. Segments lists the body entities in order,
// head first; the head entity is always its own first segment.
type Snake struct {
	Direction    grid.Direction
	Decision     neural.Action
	Brain        neural.Brain
	Segments     []ecs.Entity
	NewPosition  grid.Position
	LastPosition grid.Position
	Generation   uint32
	Mutations    uint32
	// SpeciesID is 0 until the classifier assigns one.
	SpeciesID  uint32
	Dna        dna.Dna
	Metabolism Metabolism
	Energy     Energy
	// CollidedSolid marks the snake for death at the start of next tick.
	CollidedSolid bool
}

// Segment is a body segment belonging to some snake.
type Segment struct {
	Kind dna.Kind
}

// Age tracks ticks lived and the derived efficiency factor that scales
// costs and digestion as the snake grows old.
type Age struct {
	Value      uint32
	Efficiency float32
}
