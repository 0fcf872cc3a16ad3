package sim

import (
	"github.com/pthm-cable/slither/components"
	"github.com/pthm-cable/slither/grid"
)

// fertileCell draws candidate cells and accepts them with a probability
// given by the fertility noise field, so plants cluster in fertile bands
// instead of raining down uniformly.
func (s *Simulation) fertileCell() (grid.Position, bool) {
	for attempt := 0; attempt < 8; attempt++ {
		p := s.maps.Bounds.RandomPosition(s.rng)
		if s.maps.IsSolid(p) {
			continue
		}
		if s.rng.Float64() < s.fertilityAt(p) {
			return p, true
		}
	}
	return grid.Position{}, false
}

// fertilityAt samples the static fertility field in [0, 1].
func (s *Simulation) fertilityAt(p grid.Position) float64 {
	scale := s.cfg.Food.FertilityScale
	return s.fertility.Eval2(float64(p.Q)*scale, float64(p.R)*scale)
}

// depositPlant adds plant matter to a cell and books it as external input.
func (s *Simulation) depositPlant(p grid.Position, amount float32) {
	s.maps.DepositPlant(p, amount, s.tick)
	s.ledger.FoodInput += float64(amount) * s.cfg.Energy.PlantEnergyContent
}

// spawnFood grows new plant matter on fertile empty cells. Cells that
// already hold food are left alone so matter never silently vanishes.
func (s *Simulation) spawnFood() {
	amount := float32(s.cfg.Food.PlantMatterPerSegment)
	for i := 0; i < s.cfg.Food.PerStep; i++ {
		p, ok := s.fertileCell()
		if !ok {
			continue
		}
		if s.maps.FoodAt(p).HasFood() {
			continue
		}
		s.depositPlant(p, amount)
	}
}

// eatFood moves the matter under each head into its stomach, limited by
// stomach capacity. Leftovers stay on the cell.
func (s *Simulation) eatFood() {
	query := s.headFilter.Query()
	for query.Next() {
		pos, snake, _ := query.Get()
		food := s.maps.Food.Ptr(*pos)
		if !food.HasFood() {
			continue
		}
		e := &snake.Energy
		met := &snake.Metabolism

		if food.Plant > 0 {
			bite := food.Plant
			if room := met.MaxPlantsInStomach - e.PlantInStomach; bite > room {
				bite = room
			}
			if bite > 0 {
				e.PlantInStomach += bite
				food.Plant -= bite
			}
		}
		if food.Meat > 0 {
			bite := food.Meat
			if room := met.MaxMeatInStomach - e.MeatInStomach; bite > room {
				bite = room
			}
			if bite > 0 {
				e.MeatInStomach += bite
				food.Meat -= bite
			}
		}
	}
}

// metabolize charges each snake's standing cost, runs solar production,
// digests stomach contents, and diverts surplus energy into growth matter.
func (s *Simulation) metabolize() {
	plantContent := float32(s.cfg.Energy.PlantEnergyContent)
	meatContent := float32(s.cfg.Energy.MeatEnergyContent)

	query := s.headFilter.Query()
	for query.Next() {
		_, snake, age := query.Get()
		e := &snake.Energy
		met := &snake.Metabolism
		eff := age.Efficiency

		s.debit(snake, met.BasicCost/eff)

		// Solar segments stop producing when the body is too worn out.
		if met.EnergyProduction > 0 && eff > 0.2 {
			gain := met.EnergyProduction * eff
			if over := e.Value + gain - met.MaxEnergy; over > 0 {
				gain -= over
			}
			if gain > 0 {
				e.Value += gain
				s.ledger.SolarInput += float64(gain)
			}
		}

		if e.Value < met.MaxEnergy {
			s.digest(e, &e.PlantInStomach, met.PlantProcessing, plantContent, eff)
			s.digest(e, &e.MeatInStomach, met.MeatProcessing, meatContent, eff)
		}

		// Surplus energy above three quarters of capacity is converted
		// into growth matter for the next body segment.
		if e.Value > met.MaxEnergy*0.75 && met.GrowthProduction > 0 {
			produced := met.GrowthProduction
			if limit := (e.Value - met.MaxEnergy*0.75) / meatContent; produced > limit {
				produced = limit
			}
			e.Value -= produced * meatContent
			e.GrowthMatter += produced
		}
	}
}

// digest converts up to speed units of stomach matter into energy. The
// aging efficiency decides how much of the food's energy content is
// actually captured; the rest is lost as heat.
func (s *Simulation) digest(e *components.Energy, stomach *float32, speed, content, eff float32) {
	amount := speed
	if amount > *stomach {
		amount = *stomach
	}
	if amount <= 0 {
		return
	}
	*stomach -= amount
	e.Value += amount * content * eff
	s.ledger.HeatLoss += float64(amount*content) * float64(1-eff)
}

// decayFood removes food that has been lying around past its lifetime.
func (s *Simulation) decayFood() {
	lifetime := int64(s.cfg.Food.LifetimeTicks)
	plantContent := s.cfg.Energy.PlantEnergyContent
	meatContent := s.cfg.Energy.MeatEnergyContent

	s.maps.Food.Each(func(p grid.Position, f *grid.Food) {
		if !f.HasFood() || s.tick-f.SpawnTick < lifetime {
			return
		}
		s.ledger.HeatLoss += float64(f.Plant)*plantContent + float64(f.Meat)*meatContent
		*f = grid.Food{}
	})
}
