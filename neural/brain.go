package neural

import "math/rand"

// Action is a snake's decision for one tick.
type Action uint8

const (
	ActionForward Action = iota
	ActionLeft
	ActionRight
	ActionWait
	NumActions
)

var actionNames = [NumActions]string{"forward", "left", "right", "wait"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// BrainKind selects the controller variant.
type BrainKind uint8

const (
	// BrainRandom picks actions uniformly; the evolutionary baseline.
	BrainRandom BrainKind = iota
	// BrainNeural runs a Network over the sensory inputs.
	BrainNeural
)

// Brain is a tagged controller variant. Net is nil unless Kind is
// BrainNeural.
type Brain struct {
	Kind BrainKind
	Net  *Network
}

// NewRandomBrain returns the uniform baseline controller.
func NewRandomBrain() Brain {
	return Brain{Kind: BrainRandom}
}

// NewNeuralBrain wraps a network.
func NewNeuralBrain(net *Network) Brain {
	return Brain{Kind: BrainNeural, Net: net}
}

// Clone deep-copies the brain.
func (b Brain) Clone() Brain {
	if b.Kind == BrainNeural && b.Net != nil {
		return Brain{Kind: BrainNeural, Net: b.Net.Clone()}
	}
	return Brain{Kind: b.Kind}
}

// RunCost returns the per-tick thinking cost of this brain.
func (b Brain) RunCost() float32 {
	if b.Kind == BrainNeural && b.Net != nil {
		return b.Net.RunCost()
	}
	return 0
}

// Decide maps sensory inputs to an action. Neural evaluation errors are
// returned alongside the safe fallback ActionWait so the caller can count
// them without treating them as fatal.
func (b Brain) Decide(inputs []float32, rng *rand.Rand) (Action, error) {
	switch b.Kind {
	case BrainNeural:
		outputs, err := b.Net.Run(inputs)
		if err != nil {
			return ActionWait, err
		}
		return argmaxAction(outputs), nil
	default:
		return Action(rng.Intn(int(NumActions))), nil
	}
}

// argmaxAction picks the strongest output; ties break toward the lowest
// index so evaluation is fully deterministic.
func argmaxAction(outputs []float32) Action {
	if len(outputs) == 0 {
		return ActionWait
	}
	best := 0
	for i := 1; i < len(outputs) && i < int(NumActions); i++ {
		if outputs[i] > outputs[best] {
			best = i
		}
	}
	return Action(best)
}
