package sim

import (
	"github.com/pthm-cable/slither/grid"
)

// Command is a control message handled between ticks.
type Command interface{ isCommand() }

// AddAgents spawns count fresh snakes on free cells.
type AddAgents struct{ Count int }

// SetSpeed changes how many ticks run per engine iteration.
type SetSpeed struct{ StepsPerIteration int }

// Pause suspends stepping until Resume or Stop arrives.
type Pause struct{}

// Resume continues a paused run.
type Resume struct{}

// Stop ends the run after the current tick.
type Stop struct{}

// RequestStats asks for an immediate StatsUpdate event.
type RequestStats struct{}

func (AddAgents) isCommand()    {}
func (SetSpeed) isCommand()     {}
func (Pause) isCommand()        {}
func (Resume) isCommand()       {}
func (Stop) isCommand()         {}
func (RequestStats) isCommand() {}

// Event is a notification published by the engine. Consumers that fall
// behind lose events rather than stalling the simulation.
type Event interface{ isEvent() }

// StatsUpdate carries the end-of-tick snapshot plus a per-snake energy
// sample for distribution statistics.
type StatsUpdate struct {
	Stats    Stats
	Energies []float64
}

// CellState describes one visible cell in a frame.
type CellState struct {
	Pos     grid.Position
	Plant   float32
	Meat    float32
	Scent   float32
	Wall    bool
	Snake   bool
	Species uint32
}

// FrameDrawn carries a sparse world snapshot for external viewers.
type FrameDrawn struct {
	Tick  int64
	Cells []CellState
}

// SimulationFinished is the final event of a run.
type SimulationFinished struct {
	Reason string
	Final  Stats
}

func (StatsUpdate) isEvent()        {}
func (FrameDrawn) isEvent()         {}
func (SimulationFinished) isEvent() {}

// handleCommand applies one control message.
func (s *Simulation) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case AddAgents:
		for i := 0; i < c.Count; i++ {
			p, ok := s.freeCell()
			if !ok {
				s.log.Warn("no free cell for added agent", "requested", c.Count, "added", i)
				return
			}
			s.spawnSnake(p, grid.RandomDirection(s.rng), s.newFounderBrain(true), 0)
		}
	case SetSpeed:
		if c.StepsPerIteration > 0 {
			s.speed = c.StepsPerIteration
		}
	case Pause:
		s.paused = true
	case Resume:
		s.paused = false
	case Stop:
		s.finished = true
	case RequestStats:
		s.emit(StatsUpdate{Stats: s.stats, Energies: s.SnakeEnergies(nil)})
	}
}

// emit publishes without blocking; the event is dropped when the buffer
// is full.
func (s *Simulation) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// emitFinal makes room for the terminal event by evicting the oldest
// buffered one. Consumers may miss intermediate events but not the end
// of the run.
func (s *Simulation) emitFinal(ev Event) {
	select {
	case s.events <- ev:
		return
	default:
	}
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- ev:
	default:
	}
}

// frame builds the sparse cell snapshot for FrameDrawn events.
func (s *Simulation) frame() []CellState {
	var cells []CellState

	s.maps.Food.Each(func(p grid.Position, f *grid.Food) {
		if f.HasFood() {
			cells = append(cells, CellState{Pos: p, Plant: f.Plant, Meat: f.Meat, Scent: s.maps.ScentAt(p)})
		}
	})
	s.maps.Solids.Each(func(p grid.Position, wall *bool) {
		if *wall {
			cells = append(cells, CellState{Pos: p, Wall: true})
		}
	})

	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		for _, seg := range snake.Segments {
			p := *s.posMap.Get(seg)
			cells = append(cells, CellState{Pos: p, Snake: true, Species: snake.SpeciesID, Scent: s.maps.ScentAt(p)})
		}
	}
	return cells
}
