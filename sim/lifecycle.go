package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slither/components"
	"github.com/pthm-cable/slither/dna"
	"github.com/pthm-cable/slither/grid"
	"github.com/pthm-cable/slither/neural"
)

// newbornMovePotential puts fresh snakes in movement debt so a split pair
// cannot immediately crawl over each other.
const newbornMovePotential = -2.0

// Stomach segments extend meat digestion beyond the head's baseline.
const (
	stomachMeatProcessing = 1.0
	stomachMeatCapacity   = 200.0
)

// spawnSnake creates a head-only snake at p. The head counts as its own
// first segment. Returns the new entity.
func (s *Simulation) spawnSnake(p grid.Position, dir grid.Direction, brain neural.Brain, generation uint32) ecs.Entity {
	snake := components.Snake{
		Direction:    dir,
		Decision:     neural.ActionWait,
		Brain:        brain,
		NewPosition:  p,
		LastPosition: p,
		Generation:   generation,
		Dna:          dna.Random(s.rng, s.cfg.Population.GenePoolSize),
		Energy: components.Energy{
			MovePotential: newbornMovePotential,
			Value:         float32(s.cfg.Population.StartEnergy),
		},
	}
	snake.Metabolism = s.baseMetabolism(snake.Brain)

	entity := s.headMapper.NewEntity(&p, &snake, &components.Age{Efficiency: 1})
	head := s.snakeMap.Get(entity)
	head.Segments = append(head.Segments, entity)

	s.occupancy.Set(p, entity)
	s.newborns = append(s.newborns, entity)
	s.births++
	s.ledger.SeedInput += s.cfg.Population.StartEnergy + s.cfg.Energy.NewSegmentCost*s.cfg.Energy.MeatEnergyContent
	return entity
}

// baseMetabolism is the head-only metabolic profile from configuration,
// plus the standing cost of running the given brain.
func (s *Simulation) baseMetabolism(brain neural.Brain) components.Metabolism {
	h := &s.cfg.Head
	return components.Metabolism{
		MoveCost:           float32(h.MoveCost),
		BasicCost:          float32(h.BasicCost) + brain.RunCost(),
		Mobility:           float32(h.Mobility),
		EnergyProduction:   float32(h.EnergyProduction),
		PlantProcessing:    float32(h.PlantProcessingSpeed),
		MeatProcessing:     float32(h.MeatProcessingSpeed),
		MaxPlantsInStomach: float32(h.MaxPlantsInStomach),
		MaxMeatInStomach:   float32(h.MaxMeatInStomach),
		MaxEnergy:          float32(h.MaxEnergy),
		GrowthProduction:   float32(h.GrowthProductionSpeed),
	}
}

// recalcMetabolism derives a snake's metabolic profile from its current
// body. Called whenever the body or brain changes.
func (s *Simulation) recalcMetabolism(snake *components.Snake) {
	met := s.baseMetabolism(snake.Brain)
	mobility := met.Mobility

	for _, seg := range snake.Segments[1:] {
		kind := s.segMap.Get(seg).Kind
		t := kind.Traits()

		met.MoveCost += t.MoveCost
		mobility += t.Mobility
		if t.UpkeepCost >= 0 {
			met.BasicCost += t.UpkeepCost
		} else {
			met.EnergyProduction += -t.UpkeepCost
		}
		if kind == dna.Stomach {
			met.MeatProcessing += stomachMeatProcessing
			met.MaxMeatInStomach += stomachMeatCapacity
		}
	}

	// A long body is slower: mobility is the per-segment average.
	met.Mobility = mobility / float32(len(snake.Segments))
	snake.Metabolism = met
}

// starve removes snakes whose energy ran out.
func (s *Simulation) starve() {
	s.deadBuf = s.deadBuf[:0]
	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		if snake.Energy.Value <= 0 {
			s.deadBuf = append(s.deadBuf, query.Entity())
		}
	}
	for _, e := range s.deadBuf {
		s.killSnake(e)
	}
}

// killSnake converts every body cell into meat, books residual energy and
// stomach contents as heat, and removes the entities.
func (s *Simulation) killSnake(head ecs.Entity) {
	snake := s.snakeMap.Get(head)
	segmentMeat := float32(s.cfg.Energy.NewSegmentCost)

	for _, seg := range snake.Segments {
		pos := *s.posMap.Get(seg)
		s.maps.DepositMeat(pos, segmentMeat, s.tick)
		s.occupancy.Set(pos, ecs.Entity{})
	}

	e := &snake.Energy
	s.ledger.HeatLoss += float64(e.Value) +
		float64(e.PlantInStomach)*s.cfg.Energy.PlantEnergyContent +
		float64(e.MeatInStomach)*s.cfg.Energy.MeatEnergyContent +
		float64(e.GrowthMatter)*s.cfg.Energy.MeatEnergyContent

	for _, seg := range snake.Segments[1:] {
		s.segMapper.Remove(seg)
	}
	s.headMapper.Remove(head)
	s.deaths++
}

// growSegments builds a new tail segment for every snake that saved up
// enough growth matter, placing it on the cell the tail last vacated.
func (s *Simulation) growSegments() {
	segmentCost := float32(s.cfg.Energy.NewSegmentCost)

	for _, head := range s.headEntities() {
		snake := s.snakeMap.Get(head)
		if snake.Energy.GrowthMatter < segmentCost {
			continue
		}

		cell := snake.LastPosition
		tail := snake.Segments[len(snake.Segments)-1]
		if cell == *s.posMap.Get(tail) {
			// The snake has not moved since its last growth.
			continue
		}
		if s.maps.IsSolid(cell) || !s.occupancy.At(cell).IsZero() {
			continue
		}

		snake.Energy.GrowthMatter -= segmentCost
		kind := snake.Dna.NextSegment()
		seg := s.segMapper.NewEntity(&cell, &components.Segment{Kind: kind})
		s.occupancy.Set(cell, seg)

		snake = s.snakeMap.Get(head)
		snake.Segments = append(snake.Segments, seg)
		s.recalcMetabolism(snake)
	}
}

// splitLargeSnakes divides every snake that reached the split size into
// parent and child, halving energy stores between them.
func (s *Simulation) splitLargeSnakes() {
	for _, head := range s.headEntities() {
		snake := s.snakeMap.Get(head)
		if len(snake.Segments) < s.cfg.Population.SizeToSplit {
			continue
		}
		s.split(head)
	}
}

// split cuts the back half of the body off as a new snake. The first
// severed segment becomes the child's head; the child faces away at a
// random slant and inherits a mutated copy of the parent's genome.
func (s *Simulation) split(head ecs.Entity) {
	snake := s.snakeMap.Get(head)
	half := len(snake.Segments) / 2
	front := snake.Segments[:half]
	back := snake.Segments[half:]

	// The leading back segment is replaced by the child's head entity.
	neck := back[0]
	neckPos := *s.posMap.Get(neck)
	s.segMapper.Remove(neck)

	childDir := snake.Direction.TurnLeft()
	if s.rng.Intn(2) == 1 {
		childDir = snake.Direction.TurnRight()
	}

	childBrain := snake.Brain.Clone()
	childDna := snake.Dna.Clone()
	mutations := s.mutateOffspring(&childBrain, &childDna)

	e := &snake.Energy
	e.Value /= 2
	e.PlantInStomach /= 2
	e.MeatInStomach /= 2
	e.GrowthMatter /= 2

	child := components.Snake{
		Direction:    childDir,
		Decision:     neural.ActionWait,
		Brain:        childBrain,
		NewPosition:  neckPos,
		LastPosition: neckPos,
		Generation:   snake.Generation + 1,
		Mutations:    snake.Mutations + mutations,
		Dna:          childDna,
		Energy: components.Energy{
			MovePotential:  newbornMovePotential,
			Value:          e.Value,
			PlantInStomach: e.PlantInStomach,
			MeatInStomach:  e.MeatInStomach,
			GrowthMatter:   e.GrowthMatter,
		},
	}
	child.Metabolism = s.baseMetabolism(child.Brain)

	pos := neckPos
	childHead := s.headMapper.NewEntity(&pos, &child, &components.Age{Efficiency: 1})
	s.occupancy.Set(neckPos, childHead)

	childSnake := s.snakeMap.Get(childHead)
	childSnake.Segments = append(childSnake.Segments, childHead)
	childSnake.Segments = append(childSnake.Segments, back[1:]...)
	s.recalcMetabolism(childSnake)

	// NewEntity may have moved archetypes; re-fetch the parent.
	snake = s.snakeMap.Get(head)
	snake.Segments = front
	s.recalcMetabolism(snake)

	s.newborns = append(s.newborns, childHead)
	s.births++
}

// mutateOffspring applies the configured mutation operators in place and
// returns how many changed something.
func (s *Simulation) mutateOffspring(brain *neural.Brain, genes *dna.Dna) uint32 {
	m := &s.cfg.Mutation
	var applied uint32

	if s.rng.Float64() < m.DnaMutationChance {
		genes.Mutate(s.rng, dna.MutationParams{
			MaxGenes:           s.cfg.Population.MaxGenes,
			DuplicateKindLimit: s.cfg.Population.DuplicateKindLimit,
		})
		applied++
	}

	if brain.Kind != neural.BrainNeural {
		return applied
	}
	net := brain.Net

	if s.rng.Float64() < m.ConnectionFlipChance {
		if net.FlipRandomConnection(s.rng) == nil {
			applied++
		}
	}
	if s.rng.Float64() < m.WeightPerturbationChance {
		if net.PerturbRandomWeight(s.rng, float32(m.WeightPerturbationRange), m.PerturbDisabledConnections) == nil {
			applied++
		}
	}
	if s.rng.Float64() < m.WeightResetChance {
		if net.ResetRandomWeight(s.rng, float32(m.WeightResetRange), m.PerturbResetConnections) == nil {
			applied++
		}
	}
	if s.rng.Float64() < m.AddConnectionChance {
		if net.AddRandomConnection(s.rng, s.tracker) == nil {
			applied++
		}
	}
	if s.rng.Float64() < m.AddNodeChance {
		if net.AddRandomNode(s.rng, s.tracker) == nil {
			applied++
		}
	}
	return applied
}

// advanceAge ticks every snake's age forward and rescales its efficiency.
// Efficiency stays at 1 until max age, then falls off as maxAge/age.
func (s *Simulation) advanceAge() {
	maxAge := float32(s.cfg.Aging.MaxAge)
	step := uint32(s.cfg.Aging.AgeStep)

	query := s.headFilter.Query()
	for query.Next() {
		_, _, age := query.Get()
		age.Value += step

		eff := float32(1)
		if float32(age.Value) > maxAge {
			eff = maxAge / float32(age.Value)
		}
		if eff < 0.01 {
			eff = 0.01
		}
		age.Efficiency = eff
	}
}
