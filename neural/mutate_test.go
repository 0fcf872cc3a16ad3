package neural

import (
	"errors"
	"math/rand"
	"testing"
)

func testNetwork(t *testing.T) *Network {
	t.Helper()
	n := NewNetwork(
		[]Activation{ActLinear, ActLinear},
		[]Activation{ActSigmoid, ActSigmoid},
	)
	conns := []struct {
		from, to int
		weight   float32
	}{
		{0, 2, 0.5}, {0, 3, -0.25}, {1, 2, 1.0},
	}
	for i, c := range conns {
		if err := n.AddConnection(c.from, c.to, c.weight, true, i); err != nil {
			t.Fatal(err)
		}
	}
	return n
}

func TestFlipRandomConnection(t *testing.T) {
	n := testNetwork(t)
	rng := rand.New(rand.NewSource(1))

	before := n.EnabledConnections()
	if err := n.FlipRandomConnection(rng); err != nil {
		t.Fatal(err)
	}
	if got := n.EnabledConnections(); got != before-1 {
		t.Errorf("enabled count = %d, want %d", got, before-1)
	}

	empty := NewNetwork([]Activation{ActLinear}, []Activation{ActSigmoid})
	if err := empty.FlipRandomConnection(rng); !errors.Is(err, ErrNoConnections) {
		t.Errorf("flip on empty: err = %v, want ErrNoConnections", err)
	}
}

func TestPerturbRandomWeightBounded(t *testing.T) {
	n := testNetwork(t)
	rng := rand.New(rand.NewSource(2))

	original := make([]float32, len(n.Connections))
	for i, c := range n.Connections {
		original[i] = c.Weight
	}

	const strength = 0.1
	for i := 0; i < 100; i++ {
		if err := n.PerturbRandomWeight(rng, strength, false); err != nil {
			t.Fatal(err)
		}
	}

	// Multiplicative perturbation never changes sign and never zeroes.
	for i, c := range n.Connections {
		if (original[i] > 0) != (c.Weight > 0) {
			t.Errorf("connection %d changed sign: %g -> %g", i, original[i], c.Weight)
		}
		if c.Weight == 0 {
			t.Errorf("connection %d collapsed to zero", i)
		}
	}
}

func TestResetRandomWeightInRange(t *testing.T) {
	n := testNetwork(t)
	rng := rand.New(rand.NewSource(3))

	// Only one connection is resampled per call; the fixture seeds a weight
	// of 1.0, so untouched connections may sit outside the bound.
	const bound = 1.0
	resets := 0
	before := make([]float32, len(n.Connections))
	for i := 0; i < 200; i++ {
		for j, c := range n.Connections {
			before[j] = c.Weight
		}
		if err := n.ResetRandomWeight(rng, bound, true); err != nil {
			t.Fatal(err)
		}
		for j, c := range n.Connections {
			if c.Weight == before[j] {
				continue
			}
			resets++
			if c.Weight < -bound || c.Weight >= bound {
				t.Fatalf("reset weight %g out of [-%g, %g)", c.Weight, bound, bound)
			}
		}
	}
	if resets == 0 {
		t.Fatal("no connection was ever resampled")
	}
}

func TestPerturbSkipsDisabled(t *testing.T) {
	n := testNetwork(t)
	n.Connections[1].Enabled = false
	frozen := n.Connections[1].Weight
	rng := rand.New(rand.NewSource(4))

	for i := 0; i < 50; i++ {
		if err := n.PerturbRandomWeight(rng, 0.5, false); err != nil {
			t.Fatal(err)
		}
	}
	if n.Connections[1].Weight != frozen {
		t.Error("disabled connection was perturbed with includeDisabled=false")
	}
}

func TestAddRandomConnectionStaysAcyclic(t *testing.T) {
	tracker := NewInnovationTracker()
	rng := rand.New(rand.NewSource(5))
	n := RandomNetwork(3, 2, 1.0, tracker, rng)

	for i := 0; i < 10; i++ {
		if err := n.AddRandomNode(rng, tracker); err != nil {
			t.Fatal(err)
		}
		if err := n.AddRandomConnection(rng, tracker); err != nil {
			t.Fatal(err)
		}
	}

	// No duplicate pairs, no cycles, order covers all nodes.
	seen := make(map[[2]int]bool)
	for _, c := range n.Connections {
		key := [2]int{c.From, c.To}
		if seen[key] {
			t.Errorf("duplicate connection %d -> %d", c.From, c.To)
		}
		seen[key] = true
	}
	if len(n.order) != len(n.Nodes) {
		t.Errorf("topological order covers %d of %d nodes (cycle?)", len(n.order), len(n.Nodes))
	}
	if _, err := n.Run(make([]float32, 3)); err != nil {
		t.Errorf("mutated network failed to run: %v", err)
	}
}

func TestAddRandomNodeSplitsConnection(t *testing.T) {
	tracker := NewInnovationTracker()
	rng := rand.New(rand.NewSource(6))
	n := NewNetwork([]Activation{ActLinear}, []Activation{ActSigmoid})
	if err := n.AddConnection(0, 1, 0.75, true, tracker.InnovationFor(0, 1)); err != nil {
		t.Fatal(err)
	}

	if err := n.AddRandomNode(rng, tracker); err != nil {
		t.Fatal(err)
	}

	if len(n.Nodes) != 3 {
		t.Fatalf("node count = %d, want 3", len(n.Nodes))
	}
	if n.Nodes[2].Kind != Hidden {
		t.Errorf("new node kind = %v, want Hidden", n.Nodes[2].Kind)
	}
	if n.Connections[0].Enabled {
		t.Error("split connection should be disabled")
	}

	var inbound, outbound *ConnectionGene
	for i := range n.Connections[1:] {
		c := &n.Connections[1+i]
		if c.To == 2 {
			inbound = c
		}
		if c.From == 2 {
			outbound = c
		}
	}
	if inbound == nil || outbound == nil {
		t.Fatal("split did not create both replacement connections")
	}
	if inbound.Weight != 1.0 {
		t.Errorf("inbound weight = %g, want 1.0", inbound.Weight)
	}
	if outbound.Weight != 0.75 {
		t.Errorf("outbound weight = %g, want old weight 0.75", outbound.Weight)
	}

	// The behavior is preserved up to the hidden activation.
	if _, err := n.Run([]float32{1}); err != nil {
		t.Errorf("network failed after node split: %v", err)
	}
}

func TestAddRandomNodeNeedsEnabledConnection(t *testing.T) {
	tracker := NewInnovationTracker()
	rng := rand.New(rand.NewSource(7))
	n := NewNetwork([]Activation{ActLinear}, []Activation{ActSigmoid})

	if err := n.AddRandomNode(rng, tracker); !errors.Is(err, ErrNoConnections) {
		t.Errorf("err = %v, want ErrNoConnections", err)
	}
}
