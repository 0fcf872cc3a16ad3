// Package neural implements the evolvable controller: an acyclic network of
// node and connection genes, NEAT-style innovation tracking, structural and
// parametric mutation, and species distance.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrInvalidActivation reports a node gene with an unknown activation.
	ErrInvalidActivation = errors.New("neural: invalid activation")
	// ErrInvalidNode reports a connection referencing a node that does not exist.
	ErrInvalidNode = errors.New("neural: connection references unknown node")
	// ErrNoConnections reports a network with no enabled connections to act on.
	ErrNoConnections = errors.New("neural: no enabled connections")
	// ErrCycle reports a connection that would make evaluation order undefined.
	ErrCycle = errors.New("neural: connection would create a cycle")
)

// NodeKind classifies a node gene.
type NodeKind uint8

const (
	Input NodeKind = iota
	Hidden
	Output
)

// Activation selects a node's transfer function. The zero value is
// deliberately invalid so an unset gene surfaces as ErrInvalidActivation
// instead of silently passing values through.
type Activation uint8

const (
	ActNone Activation = iota
	ActSigmoid
	ActRelu
	ActTanh
	ActLinear
)

// Apply runs the transfer function.
func (a Activation) Apply(x float32) (float32, error) {
	switch a {
	case ActSigmoid:
		return float32(1.0 / (1.0 + math.Exp(-float64(x)))), nil
	case ActRelu:
		if x < 0 {
			return 0, nil
		}
		return x, nil
	case ActTanh:
		return float32(math.Tanh(float64(x))), nil
	case ActLinear:
		return x, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidActivation, a)
	}
}

// NodeGene is one node of the network. Nodes are identified by their index
// in the gene list; indices are stable because nodes are never removed.
type NodeGene struct {
	Kind       NodeKind
	Activation Activation
}

// ConnectionGene is one weighted edge. Innovation is the historical marker
// used for genome alignment during speciation.
type ConnectionGene struct {
	From       int
	To         int
	Weight     float32
	Enabled    bool
	Innovation int
}

// InnovationTracker assigns innovation numbers to structural novelty.
// The same (from, to) pair always maps to the same number within one
// tracker, so parallel lineages in a run stay alignable. Each simulation
// run owns its own tracker; there is no global state.
type InnovationTracker struct {
	next    int
	history map[[2]int]int
}

// NewInnovationTracker creates an empty tracker.
func NewInnovationTracker() *InnovationTracker {
	return &InnovationTracker{history: make(map[[2]int]int)}
}

// InnovationFor returns the innovation number for the (from, to) pair,
// assigning the next free number on first sight.
func (t *InnovationTracker) InnovationFor(from, to int) int {
	key := [2]int{from, to}
	if n, ok := t.history[key]; ok {
		return n
	}
	n := t.next
	t.next++
	t.history[key] = n
	return n
}

// Count returns how many innovations have been assigned.
func (t *InnovationTracker) Count() int {
	return t.next
}

// Network is an acyclic genome evaluated in a fixed topological order.
// The order and per-node incoming edge lists are cached and rebuilt on
// structural change.
type Network struct {
	Nodes       []NodeGene
	Connections []ConnectionGene

	order    []int   // node indices in evaluation order
	incoming [][]int // connection indices per node
	values   []float32
}

// NewNetwork builds a network with the given input and output activations
// and no connections.
func NewNetwork(inputActivations, outputActivations []Activation) *Network {
	n := &Network{}
	for _, a := range inputActivations {
		n.Nodes = append(n.Nodes, NodeGene{Kind: Input, Activation: a})
	}
	for _, a := range outputActivations {
		n.Nodes = append(n.Nodes, NodeGene{Kind: Output, Activation: a})
	}
	n.rebuild()
	return n
}

// RandomNetwork builds the founder genome: a full input-to-output layer
// where each connection is enabled with the given probability and weighted
// uniformly in [-0.5, 0.5). Innovations come from the tracker, so all
// founders of a run share the same numbering.
func RandomNetwork(inputs, outputs int, activeProbability float64, tracker *InnovationTracker, rng *rand.Rand) *Network {
	inputActs := make([]Activation, inputs)
	for i := range inputActs {
		inputActs[i] = ActRelu
	}
	outputActs := make([]Activation, outputs)
	for i := range outputActs {
		outputActs[i] = ActSigmoid
	}
	n := NewNetwork(inputActs, outputActs)

	for i := 0; i < inputs; i++ {
		for j := 0; j < outputs; j++ {
			to := inputs + j
			n.Connections = append(n.Connections, ConnectionGene{
				From:       i,
				To:         to,
				Weight:     rng.Float32() - 0.5,
				Enabled:    rng.Float64() < activeProbability,
				Innovation: tracker.InnovationFor(i, to),
			})
		}
	}
	n.rebuild()
	return n
}

// Clone returns a deep copy sharing no state with the original.
func (n *Network) Clone() *Network {
	c := &Network{
		Nodes:       append([]NodeGene(nil), n.Nodes...),
		Connections: append([]ConnectionGene(nil), n.Connections...),
	}
	c.rebuild()
	return c
}

// AddConnection appends a connection after validating node indices and
// acyclicity, then refreshes the evaluation order.
func (n *Network) AddConnection(from, to int, weight float32, enabled bool, innovation int) error {
	if from < 0 || from >= len(n.Nodes) || to < 0 || to >= len(n.Nodes) {
		return fmt.Errorf("%w: %d -> %d with %d nodes", ErrInvalidNode, from, to, len(n.Nodes))
	}
	if from == to || n.pathExists(to, from) {
		return fmt.Errorf("%w: %d -> %d", ErrCycle, from, to)
	}
	n.Connections = append(n.Connections, ConnectionGene{
		From:       from,
		To:         to,
		Weight:     weight,
		Enabled:    enabled,
		Innovation: innovation,
	})
	n.rebuild()
	return nil
}

// pathExists reports whether to is reachable from from, following
// connections regardless of their enabled flag. Disabled connections can
// re-enable later, so they count for acyclicity.
func (n *Network) pathExists(from, to int) bool {
	if from == to {
		return true
	}
	visited := make([]bool, len(n.Nodes))
	stack := []int{from}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == to {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		for _, c := range n.Connections {
			if c.From == node && !visited[c.To] {
				stack = append(stack, c.To)
			}
		}
	}
	return false
}

// rebuild recomputes the topological evaluation order and the incoming
// edge lists. Connections are acyclic by construction, so the sort always
// succeeds.
func (n *Network) rebuild() {
	nodes := len(n.Nodes)
	n.incoming = make([][]int, nodes)
	indegree := make([]int, nodes)
	outgoing := make([][]int, nodes)

	for ci, c := range n.Connections {
		n.incoming[c.To] = append(n.incoming[c.To], ci)
		indegree[c.To]++
		outgoing[c.From] = append(outgoing[c.From], c.To)
	}

	n.order = n.order[:0]
	queue := make([]int, 0, nodes)
	for i := 0; i < nodes; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		n.order = append(n.order, node)
		for _, next := range outgoing[node] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if cap(n.values) < nodes {
		n.values = make([]float32, nodes)
	}
}

// EnabledConnections counts enabled connections.
func (n *Network) EnabledConnections() int {
	count := 0
	for _, c := range n.Connections {
		if c.Enabled {
			count++
		}
	}
	return count
}

// RunCost is the per-tick thinking cost: it grows with enabled connection
// count and total weight magnitude, with a small floor so thinking is
// never free.
func (n *Network) RunCost() float32 {
	var lenCost, weightCost float32
	for _, c := range n.Connections {
		if c.Enabled {
			lenCost += 0.15
			weightCost += float32(math.Abs(float64(c.Weight))) * 0.1
		}
	}
	return lenCost + weightCost + 0.01
}

// Run evaluates the network. Inputs map onto input nodes in gene order;
// missing trailing inputs read as zero. Outputs come back in output gene
// order. A network with no enabled connection into any output cannot
// express a preference and returns ErrNoConnections.
func (n *Network) Run(inputs []float32) ([]float32, error) {
	feedsOutput := false
	for _, c := range n.Connections {
		if c.Enabled && n.Nodes[c.To].Kind == Output {
			feedsOutput = true
			break
		}
	}
	if !feedsOutput {
		return nil, ErrNoConnections
	}

	values := n.values[:len(n.Nodes)]
	for i := range values {
		values[i] = 0
	}

	inputIdx := 0
	for i, node := range n.Nodes {
		if node.Kind != Input {
			continue
		}
		if inputIdx < len(inputs) {
			values[i] = inputs[inputIdx]
		}
		inputIdx++
	}

	for _, ni := range n.order {
		node := n.Nodes[ni]
		if node.Kind == Input {
			continue
		}
		var sum float32
		for _, ci := range n.incoming[ni] {
			c := n.Connections[ci]
			if c.Enabled {
				sum += values[c.From] * c.Weight
			}
		}
		v, err := node.Activation.Apply(sum)
		if err != nil {
			return nil, err
		}
		values[ni] = v
	}

	var outputs []float32
	for i, node := range n.Nodes {
		if node.Kind == Output {
			outputs = append(outputs, values[i])
		}
	}
	return outputs, nil
}
