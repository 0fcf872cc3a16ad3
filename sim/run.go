package sim

import (
	"context"
	"time"
)

// Result summarizes one finished run.
type Result struct {
	Name      string
	Seed      int64
	Steps     int64
	Duration  time.Duration
	Reason    string
	Cancelled bool
	Final     Stats
}

// Run steps the simulation until the context is cancelled, a Stop command
// arrives, the population goes extinct (when configured to stop then), or
// maxTicks is reached. A maxTicks of zero means unbounded.
func (s *Simulation) Run(ctx context.Context, maxTicks int64) Result {
	start := time.Now()
	defer s.Close()

	reason := ""
	cancelled := false

	for reason == "" {
		select {
		case <-ctx.Done():
			reason = "cancelled"
			cancelled = true
			continue
		default:
		}

		s.drainCommands()
		if s.finished {
			reason = "stopped"
			continue
		}
		if s.paused {
			s.waitWhilePaused(ctx)
			continue
		}

		for i := 0; i < s.speed && reason == ""; i++ {
			s.Step()

			if s.tick%int64(s.cfg.Telemetry.StatsWindow) == 0 {
				s.emit(StatsUpdate{Stats: s.stats, Energies: s.SnakeEnergies(nil)})
			}
			if s.tick%int64(s.cfg.Telemetry.FrameCadence) == 0 {
				s.emit(FrameDrawn{Tick: s.tick, Cells: s.frame()})
			}

			if maxTicks > 0 && s.tick >= maxTicks {
				reason = "tick limit"
			}
			if s.cfg.Engine.StopWhenExtinct && s.Extinct() {
				reason = "extinct"
			}
		}
	}

	s.finished = true
	s.emitFinal(SimulationFinished{Reason: reason, Final: s.stats})
	s.log.Info("run finished",
		"reason", reason,
		"ticks", s.tick,
		"duration", time.Since(start),
		"snakes", s.stats.Snakes,
		"species", s.stats.SpeciesCount,
	)

	return Result{
		Name:      s.name,
		Seed:      s.seed,
		Steps:     s.tick,
		Duration:  time.Since(start),
		Reason:    reason,
		Cancelled: cancelled,
		Final:     s.stats,
	}
}

// drainCommands applies all pending control messages.
func (s *Simulation) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		default:
			return
		}
	}
}

// waitWhilePaused blocks on the command channel until unpaused.
func (s *Simulation) waitWhilePaused(ctx context.Context) {
	for s.paused && !s.finished {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		}
	}
}
