package neural

import (
	"math/rand"
)

// maxConnectionAttempts bounds the random search for a novel connection.
const maxConnectionAttempts = 20

// FlipRandomConnection toggles the enabled flag of one random connection.
func (n *Network) FlipRandomConnection(rng *rand.Rand) error {
	if len(n.Connections) == 0 {
		return ErrNoConnections
	}
	index := rng.Intn(len(n.Connections))
	n.Connections[index].Enabled = !n.Connections[index].Enabled
	return nil
}

// pickConnection selects a connection index, restricted to enabled ones
// unless includeDisabled is set or none are enabled.
func (n *Network) pickConnection(rng *rand.Rand, includeDisabled bool) (int, error) {
	if len(n.Connections) == 0 {
		return 0, ErrNoConnections
	}
	if includeDisabled || n.EnabledConnections() == 0 {
		return rng.Intn(len(n.Connections)), nil
	}
	pick := rng.Intn(n.EnabledConnections())
	for i, c := range n.Connections {
		if !c.Enabled {
			continue
		}
		if pick == 0 {
			return i, nil
		}
		pick--
	}
	return 0, ErrNoConnections
}

// PerturbRandomWeight scales one connection weight by a random factor
// 1/(1+s*u) or (1+s*u) with equal probability, where u is uniform [0,1).
func (n *Network) PerturbRandomWeight(rng *rand.Rand, strength float32, includeDisabled bool) error {
	index, err := n.pickConnection(rng, includeDisabled)
	if err != nil {
		return err
	}
	factor := 1.0 + strength*rng.Float32()
	if rng.Float64() < 0.5 {
		n.Connections[index].Weight *= factor
	} else {
		n.Connections[index].Weight /= factor
	}
	return nil
}

// ResetRandomWeight resamples one connection weight uniformly in
// [-bound, bound).
func (n *Network) ResetRandomWeight(rng *rand.Rand, bound float32, includeDisabled bool) error {
	index, err := n.pickConnection(rng, includeDisabled)
	if err != nil {
		return err
	}
	n.Connections[index].Weight = rng.Float32()*(bound*2) - bound
	return nil
}

// AddRandomConnection tries to connect two previously unconnected nodes
// without creating a cycle. Candidates run from any non-output node to any
// non-input node. The search gives up after a bounded number of attempts;
// giving up is not an error, the mutation just did not happen.
func (n *Network) AddRandomConnection(rng *rand.Rand, tracker *InnovationTracker) error {
	for attempt := 0; attempt < maxConnectionAttempts; attempt++ {
		from := rng.Intn(len(n.Nodes))
		to := rng.Intn(len(n.Nodes))
		if n.Nodes[from].Kind == Output || n.Nodes[to].Kind == Input || from == to {
			continue
		}
		if n.hasConnection(from, to) || n.pathExists(to, from) {
			continue
		}
		weight := rng.Float32()*2 - 1
		return n.AddConnection(from, to, weight, true, tracker.InnovationFor(from, to))
	}
	return nil
}

// AddRandomNode splits one enabled connection: the old connection is
// disabled, a hidden node takes its place with a weight-1.0 inbound edge
// and the old weight outbound, both freshly innovation-tracked.
func (n *Network) AddRandomNode(rng *rand.Rand, tracker *InnovationTracker) error {
	enabled := n.EnabledConnections()
	if enabled == 0 {
		return ErrNoConnections
	}
	pick := rng.Intn(enabled)
	index := -1
	for i, c := range n.Connections {
		if !c.Enabled {
			continue
		}
		if pick == 0 {
			index = i
			break
		}
		pick--
	}

	old := n.Connections[index]
	n.Connections[index].Enabled = false

	n.Nodes = append(n.Nodes, NodeGene{Kind: Hidden, Activation: ActSigmoid})
	hidden := len(n.Nodes) - 1

	n.Connections = append(n.Connections, ConnectionGene{
		From: old.From, To: hidden, Weight: 1.0, Enabled: true,
		Innovation: tracker.InnovationFor(old.From, hidden),
	})
	n.Connections = append(n.Connections, ConnectionGene{
		From: hidden, To: old.To, Weight: old.Weight, Enabled: true,
		Innovation: tracker.InnovationFor(hidden, old.To),
	})
	n.rebuild()
	return nil
}

func (n *Network) hasConnection(from, to int) bool {
	for _, c := range n.Connections {
		if c.From == from && c.To == to {
			return true
		}
	}
	return false
}
