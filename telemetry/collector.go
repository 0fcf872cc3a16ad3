package telemetry

import (
	"github.com/pthm-cable/slither/sim"
)

// Collector turns end-of-tick snapshots into windowed statistics. The
// simulation reports cumulative event counters; the collector differences
// them into per-window counts.
type Collector struct {
	windowTicks int64

	windowStartTick  int64
	lastBirths       int64
	lastDeaths       int64
	lastNeuralErrors int64
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces the WindowStats for the closing window and starts the
// next one. energies is the per-snake energy sample at window end; it is
// sorted in place.
func (c *Collector) Flush(s sim.Stats, energies []float64) WindowStats {
	dist := ComputeDistribution(energies)
	input := s.Ledger.SeedInput + s.Ledger.FoodInput + s.Ledger.SolarInput

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   s.Tick,

		Snakes:        s.Snakes,
		Segments:      s.Segments,
		Species:       s.SpeciesCount,
		OldestAge:     s.OldestAge,
		MaxGeneration: s.MaxGeneration,
		MaxMutations:  s.MaxMutations,

		Births:       s.Births - c.lastBirths,
		Deaths:       s.Deaths - c.lastDeaths,
		NeuralErrors: s.NeuralErrors - c.lastNeuralErrors,

		EnergyMean: dist.Mean,
		EnergyStd:  dist.Std,
		EnergyP10:  dist.P10,
		EnergyP50:  dist.P50,
		EnergyP90:  dist.P90,

		TotalPlantMatter: s.TotalPlantMatter,
		TotalMeatMatter:  s.TotalMeatMatter,

		TotalEnergy:       s.TotalEnergy,
		HeatLossAccum:     s.Ledger.HeatLoss,
		EnergyInput:       input,
		ConservationError: s.ConservationError,
	}

	c.windowStartTick = s.Tick
	c.lastBirths = s.Births
	c.lastDeaths = s.Deaths
	c.lastNeuralErrors = s.NeuralErrors

	return stats
}
