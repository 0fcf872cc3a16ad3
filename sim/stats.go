package sim

// EnergyLedger tracks every energy flow across the world boundary.
// Together with the standing totals it closes the books: at any tick,
// total standing energy plus heat equals the sum of all inputs.
type EnergyLedger struct {
	// SeedInput is energy granted to founder snakes (starting energy plus
	// the matter of their head).
	SeedInput float64
	// FoodInput is the energy content of spawned plant matter.
	FoodInput float64
	// SolarInput is energy produced by solar segments.
	SolarInput float64
	// HeatLoss is energy dissipated by movement, upkeep, digestion
	// inefficiency, decay and death.
	HeatLoss float64
}

// Stats is a snapshot of the world at the end of a tick.
type Stats struct {
	Tick          int64
	Snakes        int
	Segments      int
	SpeciesCount  int
	OldestAge     uint32
	MaxGeneration uint32
	MaxMutations  uint32

	TotalSnakeEnergy  float64
	TotalPlantStomach float64
	TotalMeatStomach  float64
	TotalGrowthMatter float64
	TotalPlantMatter  float64
	TotalMeatMatter   float64

	// TotalEnergy values all standing matter at its energy content.
	TotalEnergy float64
	// ConservationError is TotalEnergy plus heat minus all inputs; it
	// should stay at zero up to float accumulation noise.
	ConservationError float64

	Births       int64
	Deaths       int64
	NeuralErrors int64
	Ledger       EnergyLedger
}

// computeStats rebuilds the end-of-tick snapshot.
func (s *Simulation) computeStats() {
	st := Stats{
		Tick:         s.tick,
		SpeciesCount: s.species.count(),
		Births:       s.births,
		Deaths:       s.deaths,
		NeuralErrors: s.neuralErrors,
		Ledger:       s.ledger,
	}

	query := s.headFilter.Query()
	for query.Next() {
		_, snake, age := query.Get()
		st.Snakes++
		st.Segments += len(snake.Segments)
		st.TotalSnakeEnergy += float64(snake.Energy.Value)
		st.TotalPlantStomach += float64(snake.Energy.PlantInStomach)
		st.TotalMeatStomach += float64(snake.Energy.MeatInStomach)
		st.TotalGrowthMatter += float64(snake.Energy.GrowthMatter)
		if age.Value > st.OldestAge {
			st.OldestAge = age.Value
		}
		if snake.Generation > st.MaxGeneration {
			st.MaxGeneration = snake.Generation
		}
		if snake.Mutations > st.MaxMutations {
			st.MaxMutations = snake.Mutations
		}
	}

	st.TotalPlantMatter, st.TotalMeatMatter = s.maps.TotalFood()

	plantContent := s.cfg.Energy.PlantEnergyContent
	meatContent := s.cfg.Energy.MeatEnergyContent
	bodyMatter := float64(st.Segments) * s.cfg.Energy.NewSegmentCost

	st.TotalEnergy = st.TotalSnakeEnergy +
		(st.TotalPlantStomach+st.TotalPlantMatter)*plantContent +
		(st.TotalMeatStomach+st.TotalMeatMatter+st.TotalGrowthMatter+bodyMatter)*meatContent
	st.ConservationError = st.TotalEnergy + st.Ledger.HeatLoss -
		st.Ledger.SeedInput - st.Ledger.FoodInput - st.Ledger.SolarInput

	s.stats = st
}

// Stats returns the snapshot from the end of the last tick.
func (s *Simulation) Stats() Stats {
	return s.stats
}

// SnakeEnergies appends the energy of every living snake to buf and
// returns it. Used by telemetry to build distribution statistics.
func (s *Simulation) SnakeEnergies(buf []float64) []float64 {
	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		buf = append(buf, float64(snake.Energy.Value))
	}
	return buf
}
