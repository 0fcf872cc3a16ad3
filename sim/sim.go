// Package sim runs the evolutionary hex-grid simulation: snakes sense their
// surroundings, decide through their brains, move, eat, grow, split and die.
// All state lives in an ark ECS world plus dense per-cell maps.
package sim

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/slither/components"
	"github.com/pthm-cable/slither/config"
	"github.com/pthm-cable/slither/grid"
	"github.com/pthm-cable/slither/neural"
)

// Simulation holds the complete state of one world instance.
type Simulation struct {
	name string
	cfg  *config.Config
	seed int64
	rng  *rand.Rand
	log  *slog.Logger

	world *ecs.World

	headMapper *ecs.Map3[components.Position, components.Snake, components.Age]
	headFilter *ecs.Filter3[components.Position, components.Snake, components.Age]
	segMapper  *ecs.Map2[components.Position, components.Segment]

	// Individual component mappers for lookups
	posMap   *ecs.Map1[components.Position]
	snakeMap *ecs.Map1[components.Snake]
	ageMap   *ecs.Map1[components.Age]
	segMap   *ecs.Map1[components.Segment]

	maps      *grid.WorldMaps
	occupancy *grid.Map2D[ecs.Entity]
	fertility opensimplex.Noise

	tracker *neural.InnovationTracker
	species *speciesRegistry

	tick         int64
	births       int64
	deaths       int64
	neuralErrors int64
	ledger       EnergyLedger
	stats        Stats

	// newborns await species assignment at the start of the next tick.
	newborns []ecs.Entity
	headBuf  []ecs.Entity
	deadBuf  []ecs.Entity

	parallel *parallelState

	commands chan Command
	events   chan Event
	speed    int
	paused   bool
	finished bool
}

// New creates a simulation instance with its own world, RNG and innovation
// history. Instances never share state, so batches can run them in parallel.
func New(name string, cfg *config.Config, seed int64, log *slog.Logger) *Simulation {
	if log == nil {
		log = slog.Default()
	}
	world := ecs.NewWorld()
	bounds := grid.Bounds{Columns: cfg.World.Columns, Rows: cfg.World.Rows}

	s := &Simulation{
		name:  name,
		cfg:   cfg,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
		log:   log.With("instance", name),
		world: world,
		headMapper: ecs.NewMap3[
			components.Position,
			components.Snake,
			components.Age,
		](world),
		headFilter: ecs.NewFilter3[
			components.Position,
			components.Snake,
			components.Age,
		](world),
		segMapper: ecs.NewMap2[
			components.Position,
			components.Segment,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		snakeMap:  ecs.NewMap1[components.Snake](world),
		ageMap:    ecs.NewMap1[components.Age](world),
		segMap:    ecs.NewMap1[components.Segment](world),
		maps:      grid.NewWorldMaps(bounds),
		occupancy: grid.NewMap2D[ecs.Entity](bounds),
		fertility: opensimplex.NewNormalized(seed),
		tracker:   neural.NewInnovationTracker(),
		species:   newSpeciesRegistry(float32(cfg.Species.Threshold)),
		parallel:  newParallelState(),
		commands:  make(chan Command, 16),
		events:    make(chan Event, cfg.Engine.EventBuffer),
		speed:     1,
	}

	if cfg.World.AddWalls {
		s.buildWalls()
	}
	s.seedFood()
	s.seedSnakes()

	return s
}

// Name returns the instance name given at construction.
func (s *Simulation) Name() string { return s.name }

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int64 { return s.tick }

// Commands returns the channel the engine drains between ticks.
func (s *Simulation) Commands() chan<- Command { return s.commands }

// Events returns the channel the engine publishes on. Sends never block;
// events are dropped when the consumer falls behind.
func (s *Simulation) Events() <-chan Event { return s.events }

// buildWalls lays three horizontal walls across the world, each with a
// three-cell gap in the middle so lineages can still migrate between bands.
func (s *Simulation) buildWalls() {
	b := s.maps.Bounds
	mid := b.Columns / 2
	for _, r := range []int{b.Rows / 4, b.Rows / 2, 3 * b.Rows / 4} {
		for q := 0; q < b.Columns; q++ {
			if q >= mid-1 && q <= mid+1 {
				continue
			}
			s.maps.Solids.Set(grid.Position{Q: q, R: r}, true)
		}
	}
}

// seedFood scatters the initial plant matter using the fertility field.
func (s *Simulation) seedFood() {
	for i := 0; i < s.cfg.Population.StartingFood; i++ {
		if p, ok := s.fertileCell(); ok {
			s.depositPlant(p, float32(s.cfg.Food.PlantMatterPerSegment))
		}
	}
}

// seedSnakes spawns the founder population on free cells. Founders draw
// their networks from the shared innovation tracker so that matching
// connections carry matching innovation numbers across the whole run.
func (s *Simulation) seedSnakes() {
	neuralCount := int(float64(s.cfg.Population.StartingSnakes) * s.cfg.Population.NeuralBrainRatio)
	for i := 0; i < s.cfg.Population.StartingSnakes; i++ {
		p, ok := s.freeCell()
		if !ok {
			s.log.Warn("world too crowded for full founder population", "spawned", i)
			return
		}
		s.spawnSnake(p, grid.RandomDirection(s.rng), s.newFounderBrain(i < neuralCount), 0)
	}
}

func (s *Simulation) newFounderBrain(neuralBrain bool) neural.Brain {
	if !neuralBrain {
		return neural.NewRandomBrain()
	}
	net := neural.RandomNetwork(
		NumInputs,
		int(neural.NumActions),
		s.cfg.Mutation.ConnectionActiveProbability,
		s.tracker,
		s.rng,
	)
	return neural.NewNeuralBrain(net)
}

// freeCell draws random positions until it finds one that is neither solid
// nor occupied. Gives up after a bounded number of attempts.
func (s *Simulation) freeCell() (grid.Position, bool) {
	for attempt := 0; attempt < 100; attempt++ {
		p := s.maps.Bounds.RandomPosition(s.rng)
		if !s.maps.IsSolid(p) && s.occupancy.At(p).IsZero() {
			return p, true
		}
	}
	return grid.Position{}, false
}

// Step advances the world by one tick.
func (s *Simulation) Step() {
	s.tick++

	s.classifyNewborns()
	if s.tick%int64(s.cfg.Species.Cadence) == 0 {
		s.reclassifyAll()
	}

	s.starve()
	s.spawnFood()
	s.rechargeMovePotential()
	s.metabolize()
	s.reapCollided()
	s.growSegments()

	if s.cfg.Scent.Enabled {
		s.depositScents()
	}

	s.decideParallel()

	if s.tick%int64(s.cfg.Aging.Cadence) == 0 {
		s.advanceAge()
	}

	if s.cfg.Scent.Enabled {
		s.maps.DiffuseAndDecayScent(
			float32(s.cfg.Scent.DiffusionRate),
			float32(s.cfg.Scent.DispersionPerStep),
		)
	}

	s.applyDecisions()
	s.moveBodies()
	s.splitLargeSnakes()
	s.eatFood()

	if s.tick%int64(s.cfg.Food.DecayCadence) == 0 {
		s.decayFood()
	}

	s.computeStats()
}

// headEntities collects the living heads into a reused buffer. Systems that
// mutate components or perform structural changes iterate this slice instead
// of holding a query open.
func (s *Simulation) headEntities() []ecs.Entity {
	s.headBuf = s.headBuf[:0]
	query := s.headFilter.Query()
	for query.Next() {
		s.headBuf = append(s.headBuf, query.Entity())
	}
	return s.headBuf
}

// Extinct reports whether no snakes remain.
func (s *Simulation) Extinct() bool {
	alive := false
	query := s.headFilter.Query()
	for query.Next() {
		alive = true
	}
	return !alive
}

// Close releases worker goroutines. The simulation must not be stepped
// afterwards.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}
