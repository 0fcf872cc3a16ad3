package sim

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slither/grid"
	"github.com/pthm-cable/slither/neural"
)

// parallelThreshold is the minimum head count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// headSnapshot captures read-only state for parallel processing.
type headSnapshot struct {
	entity      ecs.Entity
	pos         grid.Position
	dir         grid.Direction
	brain       neural.Brain
	plantLevel  float32
	meatLevel   float32
	energyLevel float32
	efficiency  float32
	// seed drives the agent's per-tick randomness. Seeds are drawn from the
	// main RNG in snapshot order, so results do not depend on worker timing.
	seed int64
}

// decision captures one brain's computed output to apply after the
// parallel phase.
type decision struct {
	action neural.Action
	failed bool
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	src    rand.Source
	rng    *rand.Rand
	inputs [NumInputs]float32
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel decision computation.
type parallelState struct {
	snapshots  []headSnapshot
	decisions  []decision
	scratches  []workerScratch
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState() *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		src := rand.NewSource(0)
		scratches[i] = workerScratch{src: src, rng: rand.New(src)}
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]headSnapshot, 0, 512),
		decisions:  make([]decision, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *Simulation, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// decideParallel runs every brain against the current world state.
// Phase A snapshots heads single-threaded, phase B computes decisions on
// the worker pool, phase C applies them single-threaded.
func (s *Simulation) decideParallel() {
	p := s.parallel
	p.snapshots = p.snapshots[:0]

	query := s.headFilter.Query()
	for query.Next() {
		pos, snake, age := query.Get()
		met := &snake.Metabolism

		snap := headSnapshot{
			entity:      query.Entity(),
			pos:         *pos,
			dir:         snake.Direction,
			brain:       snake.Brain,
			energyLevel: snake.Energy.Value / met.MaxEnergy,
			efficiency:  age.Efficiency,
			seed:        s.rng.Int63(),
		}
		if met.MaxPlantsInStomach > 0 {
			snap.plantLevel = snake.Energy.PlantInStomach / met.MaxPlantsInStomach
		}
		if met.MaxMeatInStomach > 0 {
			snap.meatLevel = snake.Energy.MeatInStomach / met.MaxMeatInStomach
		}
		p.snapshots = append(p.snapshots, snap)
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}

	if cap(p.decisions) < n {
		p.decisions = make([]decision, n)
	}
	p.decisions = p.decisions[:n]

	if n < parallelThreshold {
		s.computeChunk(0, n, &p.scratches[0])
	} else {
		s.computeParallel(n)
	}

	for i := range p.snapshots {
		snake := s.snakeMap.Get(p.snapshots[i].entity)
		if snake == nil {
			continue
		}
		snake.Decision = p.decisions[i].action
		if p.decisions[i].failed {
			s.neuralErrors++
		}
	}
}

// computeChunk evaluates a range of snapshots with one worker's scratch.
func (s *Simulation) computeChunk(start, end int, scratch *workerScratch) {
	p := s.parallel
	for i := start; i < end; i++ {
		snap := &p.snapshots[i]
		scratch.src.Seed(snap.seed)

		s.senseInputs(snap, scratch.rng, &scratch.inputs)
		action, err := snap.brain.Decide(scratch.inputs[:], scratch.rng)
		p.decisions[i] = decision{action: action, failed: err != nil}
	}
}

// computeParallel dispatches work to the worker pool.
func (s *Simulation) computeParallel(n int) {
	p := s.parallel
	if !p.running {
		p.startWorkers(s)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
