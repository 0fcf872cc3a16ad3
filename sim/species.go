package sim

import (
	"github.com/pthm-cable/slither/neural"
)

// specie groups genomes within the distance threshold of its leader.
// The leader network is a frozen clone; it does not evolve with the
// member it came from.
type specie struct {
	id      uint32
	leader  *neural.Network
	members int
}

// speciesRegistry assigns species ids to neural genomes. Snakes with the
// random baseline policy stay unspeciated (id 0).
type speciesRegistry struct {
	threshold float32
	nextID    uint32
	species   []*specie
}

func newSpeciesRegistry(threshold float32) *speciesRegistry {
	return &speciesRegistry{threshold: threshold, nextID: 1}
}

// classify finds the first species whose leader is within the threshold,
// founding a new one when none matches.
func (r *speciesRegistry) classify(net *neural.Network) uint32 {
	for _, sp := range r.species {
		if neural.Distance(net, sp.leader) < r.threshold {
			sp.members++
			return sp.id
		}
	}
	sp := &specie{id: r.nextID, leader: net.Clone(), members: 1}
	r.nextID++
	r.species = append(r.species, sp)
	return sp.id
}

// resetMembers zeroes the member counts before a full reclassification.
func (r *speciesRegistry) resetMembers() {
	for _, sp := range r.species {
		sp.members = 0
	}
}

// prune drops species that ended a reclassification without members.
func (r *speciesRegistry) prune() {
	kept := r.species[:0]
	for _, sp := range r.species {
		if sp.members > 0 {
			kept = append(kept, sp)
		}
	}
	r.species = kept
}

// count returns the number of living species.
func (r *speciesRegistry) count() int {
	return len(r.species)
}

// classifyNewborns assigns species to snakes born since the last tick.
func (s *Simulation) classifyNewborns() {
	for _, e := range s.newborns {
		if !s.world.Alive(e) {
			continue
		}
		snake := s.snakeMap.Get(e)
		if snake.Brain.Kind == neural.BrainNeural {
			snake.SpeciesID = s.species.classify(snake.Brain.Net)
		}
	}
	s.newborns = s.newborns[:0]
}

// reclassifyAll rebuilds the species assignment of the whole population.
// Leaders survive the pass, so established species keep their identity as
// long as anyone still resembles them.
func (s *Simulation) reclassifyAll() {
	s.species.resetMembers()

	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		if snake.Brain.Kind == neural.BrainNeural {
			snake.SpeciesID = s.species.classify(snake.Brain.Net)
		}
	}

	s.species.prune()
}
