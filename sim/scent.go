package sim

// depositScents marks every body cell with scent. The field saturates at
// the configured cap, so a parked snake cannot build an unbounded beacon.
func (s *Simulation) depositScents() {
	amount := float32(s.cfg.Energy.NewSegmentCost)
	ceiling := float32(s.cfg.Scent.Cap)

	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		for _, seg := range snake.Segments {
			s.maps.AddScent(*s.posMap.Get(seg), amount, ceiling)
		}
	}
}
