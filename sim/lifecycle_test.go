package sim

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slither/components"
	"github.com/pthm-cable/slither/dna"
	"github.com/pthm-cable/slither/grid"
	"github.com/pthm-cable/slither/neural"
)

// addSegment attaches a body segment at p to the snake behind head.
func addSegment(s *Simulation, head ecs.Entity, p grid.Position, kind dna.Kind) ecs.Entity {
	seg := s.segMapper.NewEntity(&p, &components.Segment{Kind: kind})
	s.occupancy.Set(p, seg)
	snake := s.snakeMap.Get(head)
	snake.Segments = append(snake.Segments, seg)
	return seg
}

func TestSplitHalvesEnergyStores(t *testing.T) {
	s := newTestSim(t, testConfig(), 11)
	head := s.spawnSnake(grid.Position{Q: 5, R: 5}, grid.East, forwardBrain(t), 0)
	addSegment(s, head, grid.Position{Q: 4, R: 5}, dna.Muscle)
	addSegment(s, head, grid.Position{Q: 3, R: 5}, dna.Muscle)
	addSegment(s, head, grid.Position{Q: 2, R: 5}, dna.Stomach)

	snake := s.snakeMap.Get(head)
	snake.Energy.Value = 200
	snake.Energy.PlantInStomach = 100
	snake.Energy.MeatInStomach = 60
	snake.Energy.GrowthMatter = 20

	s.split(head)

	heads := s.headEntities()
	if len(heads) != 2 {
		t.Fatalf("head count after split = %d, want 2", len(heads))
	}

	var child ecs.Entity
	for _, h := range heads {
		if h != head {
			child = h
		}
	}
	parent := s.snakeMap.Get(head)
	kid := s.snakeMap.Get(child)

	if len(parent.Segments) != 2 || len(kid.Segments) != 2 {
		t.Errorf("segment split = %d/%d, want 2/2", len(parent.Segments), len(kid.Segments))
	}
	if parent.Energy.Value != 100 || kid.Energy.Value != 100 {
		t.Errorf("energy split = %g/%g, want 100/100", parent.Energy.Value, kid.Energy.Value)
	}
	if parent.Energy.PlantInStomach != 50 || kid.Energy.PlantInStomach != 50 {
		t.Errorf("plant stomach split = %g/%g, want 50/50",
			parent.Energy.PlantInStomach, kid.Energy.PlantInStomach)
	}
	if parent.Energy.MeatInStomach != 30 || kid.Energy.MeatInStomach != 30 {
		t.Errorf("meat stomach split = %g/%g, want 30/30",
			parent.Energy.MeatInStomach, kid.Energy.MeatInStomach)
	}
	if kid.Generation != 1 {
		t.Errorf("child generation = %d, want 1", kid.Generation)
	}
	if kid.Energy.MovePotential != newbornMovePotential {
		t.Errorf("child move potential = %g, want %g", kid.Energy.MovePotential, float32(newbornMovePotential))
	}

	// The child head took over the severed segment's cell.
	childPos := *s.posMap.Get(child)
	if want := (grid.Position{Q: 3, R: 5}); childPos != want {
		t.Errorf("child head at %v, want %v", childPos, want)
	}
	if s.occupancy.At(childPos) != child {
		t.Error("occupancy does not point at the child head")
	}
}

func TestSplitTriggersAtConfiguredSize(t *testing.T) {
	cfg := testConfig()
	cfg.Population.SizeToSplit = 3
	s := newTestSim(t, cfg, 13)

	head := s.spawnSnake(grid.Position{Q: 8, R: 8}, grid.East, forwardBrain(t), 0)
	addSegment(s, head, grid.Position{Q: 7, R: 8}, dna.Muscle)
	addSegment(s, head, grid.Position{Q: 6, R: 8}, dna.Muscle)

	s.splitLargeSnakes()

	if got := len(s.headEntities()); got != 2 {
		t.Errorf("snakes after reaching split size = %d, want 2", got)
	}
}

func TestGrowthFollowsGeneSequence(t *testing.T) {
	s := newTestSim(t, testConfig(), 17)
	head := s.spawnSnake(grid.Position{Q: 5, R: 5}, grid.East, forwardBrain(t), 0)

	snake := s.snakeMap.Get(head)
	snake.Dna = dna.Dna{Genes: []dna.Kind{dna.Solar, dna.Stomach}}
	snake.Energy.GrowthMatter = 60
	snake.LastPosition = grid.Position{Q: 4, R: 5}

	s.growSegments()

	snake = s.snakeMap.Get(head)
	if len(snake.Segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(snake.Segments))
	}
	seg := snake.Segments[1]
	if kind := s.segMap.Get(seg).Kind; kind != dna.Solar {
		t.Errorf("grown segment kind = %v, want solar", kind)
	}
	if snake.Dna.Cursor != 1 {
		t.Errorf("gene cursor = %d, want 1", snake.Dna.Cursor)
	}
	if want := float32(60 - s.cfg.Energy.NewSegmentCost); snake.Energy.GrowthMatter != want {
		t.Errorf("growth matter = %g, want %g", snake.Energy.GrowthMatter, want)
	}
	if s.occupancy.At(grid.Position{Q: 4, R: 5}) != seg {
		t.Error("new segment is not registered in the occupancy map")
	}

	// A solar segment raises production when the metabolism is rebuilt.
	if snake.Metabolism.EnergyProduction <= float32(s.cfg.Head.EnergyProduction) {
		t.Error("metabolism was not rebuilt after growth")
	}
}

func TestGrowthNeedsFreeCell(t *testing.T) {
	s := newTestSim(t, testConfig(), 19)
	head := s.spawnSnake(grid.Position{Q: 5, R: 5}, grid.East, forwardBrain(t), 0)

	snake := s.snakeMap.Get(head)
	snake.Energy.GrowthMatter = 100
	snake.LastPosition = grid.Position{Q: 4, R: 5}
	s.maps.Solids.Set(grid.Position{Q: 4, R: 5}, true)

	s.growSegments()

	snake = s.snakeMap.Get(head)
	if len(snake.Segments) != 1 {
		t.Errorf("segment grew onto a solid cell")
	}
	if snake.Energy.GrowthMatter != 100 {
		t.Errorf("growth matter spent without growing: %g", snake.Energy.GrowthMatter)
	}
}

func TestRecalcMetabolismStomachBonus(t *testing.T) {
	s := newTestSim(t, testConfig(), 23)
	head := s.spawnSnake(grid.Position{Q: 5, R: 5}, grid.East, neural.NewRandomBrain(), 0)
	addSegment(s, head, grid.Position{Q: 4, R: 5}, dna.Stomach)

	snake := s.snakeMap.Get(head)
	s.recalcMetabolism(snake)

	base := s.baseMetabolism(snake.Brain)
	if want := base.MeatProcessing + stomachMeatProcessing; snake.Metabolism.MeatProcessing != want {
		t.Errorf("meat processing = %g, want %g", snake.Metabolism.MeatProcessing, want)
	}
	if want := base.MaxMeatInStomach + stomachMeatCapacity; snake.Metabolism.MaxMeatInStomach != want {
		t.Errorf("meat capacity = %g, want %g", snake.Metabolism.MaxMeatInStomach, want)
	}
	// Stomach traits: upkeep 1.0 joins the basic cost, mobility averages
	// (1.0 + 0.5) / 2.
	if want := base.BasicCost + 1.0; snake.Metabolism.BasicCost != want {
		t.Errorf("basic cost = %g, want %g", snake.Metabolism.BasicCost, want)
	}
	if want := float32(0.75); snake.Metabolism.Mobility != want {
		t.Errorf("mobility = %g, want %g", snake.Metabolism.Mobility, want)
	}
}

func TestAgingReducesEfficiency(t *testing.T) {
	cfg := testConfig()
	cfg.Aging.MaxAge = 100
	cfg.Aging.Cadence = 1
	cfg.Aging.AgeStep = 50
	s := newTestSim(t, cfg, 29)
	head := s.spawnSnake(grid.Position{Q: 5, R: 5}, grid.East, neural.NewRandomBrain(), 0)

	s.advanceAge()
	s.advanceAge()
	if eff := s.ageMap.Get(head).Efficiency; eff != 1 {
		t.Errorf("efficiency at max age = %g, want 1", eff)
	}

	s.advanceAge()
	// age 150, efficiency 100/150
	want := float32(100) / 150
	if eff := s.ageMap.Get(head).Efficiency; eff != want {
		t.Errorf("efficiency past max age = %g, want %g", eff, want)
	}
}
