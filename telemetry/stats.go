// Package telemetry aggregates simulation statistics into windows and
// writes them as CSV experiment output.
package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	Snakes        int    `csv:"snakes"`
	Segments      int    `csv:"segments"`
	Species       int    `csv:"species"`
	OldestAge     uint32 `csv:"oldest_age"`
	MaxGeneration uint32 `csv:"max_generation"`
	MaxMutations  uint32 `csv:"max_mutations"`

	// Events during window
	Births       int64 `csv:"births"`
	Deaths       int64 `csv:"deaths"`
	NeuralErrors int64 `csv:"neural_errors"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Standing matter
	TotalPlantMatter float64 `csv:"total_plant"`
	TotalMeatMatter  float64 `csv:"total_meat"`

	// Energy pools (for conservation validation)
	TotalEnergy       float64 `csv:"total_energy"`
	HeatLossAccum     float64 `csv:"heat_loss_accum"`
	EnergyInput       float64 `csv:"energy_input"`
	ConservationError float64 `csv:"conservation_error"`
}

// Distribution summarizes a sample of values.
type Distribution struct {
	Mean, Std, P10, P50, P90 float64
}

// ComputeDistribution calculates mean, standard deviation and percentiles.
// The input slice is sorted in place.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sort.Float64s(values)

	d := Distribution{
		Mean: stat.Mean(values, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, values, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, values, nil),
	}
	if len(values) > 1 {
		d.Std = stat.StdDev(values, nil)
	}
	return d
}
