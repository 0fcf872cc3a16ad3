// Package dna implements the segment-gene body plan of a snake and its
// mutation operators.
package dna

import "math/rand"

// Kind identifies the body segment a gene builds.
type Kind uint8

const (
	Muscle Kind = iota
	Solid
	Solar
	Stomach
	numKinds
)

var kindNames = [numKinds]string{"muscle", "solid", "solar", "stomach"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Traits holds the fixed metabolic contribution of one segment kind.
// UpkeepCost is paid every tick; a negative value produces energy.
type Traits struct {
	MoveCost   float32
	UpkeepCost float32
	Mobility   float32
}

var kindTraits = [numKinds]Traits{
	Muscle:  {MoveCost: 1.0, UpkeepCost: 0.0, Mobility: 1.0},
	Solid:   {MoveCost: 1.0, UpkeepCost: 0.0, Mobility: 0.1},
	Solar:   {MoveCost: 1.0, UpkeepCost: -0.1, Mobility: 0.2},
	Stomach: {MoveCost: 1.0, UpkeepCost: 1.0, Mobility: 0.5},
}

// Traits returns the segment traits for this kind.
func (k Kind) Traits() Traits {
	return kindTraits[k%numKinds]
}

// AllKinds lists every segment kind.
func AllKinds() []Kind {
	return []Kind{Muscle, Solid, Solar, Stomach}
}

// Dna is a linear gene sequence with a build cursor. NextSegment reads
// the gene under the cursor and advances it, wrapping at the end.
// The cursor always satisfies 0 <= Cursor <= len(Genes).
type Dna struct {
	Genes  []Kind
	Cursor int
}

// Random creates a Dna with size genes drawn uniformly from all kinds.
func Random(rng *rand.Rand, size int) Dna {
	if size < 1 {
		size = 1
	}
	genes := make([]Kind, size)
	for i := range genes {
		genes[i] = Kind(rng.Intn(int(numKinds)))
	}
	return Dna{Genes: genes}
}

// Clone returns a deep copy.
func (d Dna) Clone() Dna {
	genes := make([]Kind, len(d.Genes))
	copy(genes, d.Genes)
	return Dna{Genes: genes, Cursor: d.Cursor}
}

// Len returns the gene count.
func (d Dna) Len() int {
	return len(d.Genes)
}

// NextSegment returns the kind under the cursor and advances it with wrap.
// An empty sequence builds muscle; mutation never empties the sequence,
// so this is purely defensive.
func (d *Dna) NextSegment() Kind {
	if len(d.Genes) == 0 {
		return Muscle
	}
	if d.Cursor >= len(d.Genes) {
		d.Cursor = 0
	}
	kind := d.Genes[d.Cursor]
	d.Cursor++
	if d.Cursor >= len(d.Genes) {
		d.Cursor = 0
	}
	return kind
}

// KindCounts tallies genes per kind.
func (d Dna) KindCounts() map[Kind]int {
	counts := make(map[Kind]int, numKinds)
	for _, g := range d.Genes {
		counts[g]++
	}
	return counts
}

// AvailableKinds returns the kinds whose gene count is below limit.
// With limit <= 0 or when every kind is saturated, all kinds are available.
func (d Dna) AvailableKinds(limit int) []Kind {
	if limit <= 0 {
		return AllKinds()
	}
	counts := d.KindCounts()
	var available []Kind
	for _, k := range AllKinds() {
		if counts[k] < limit {
			available = append(available, k)
		}
	}
	if len(available) == 0 {
		return AllKinds()
	}
	return available
}

// MutationParams bounds structural Dna mutations.
type MutationParams struct {
	MaxGenes           int
	DuplicateKindLimit int
}

// Mutate applies one random mutation: add a gene, remove a gene, or
// substitute a gene's kind. Additions respect MaxGenes and the duplicate
// kind limit; removal keeps at least one gene and clamps the cursor so it
// stays on the gene it pointed at.
func (d *Dna) Mutate(rng *rand.Rand, params MutationParams) {
	switch rng.Intn(3) {
	case 0:
		d.addGene(rng, params)
	case 1:
		d.removeGene(rng)
	case 2:
		d.substituteGene(rng, params)
	}
}

func (d *Dna) addGene(rng *rand.Rand, params MutationParams) {
	if params.MaxGenes > 0 && len(d.Genes) >= params.MaxGenes {
		return
	}
	available := d.AvailableKinds(params.DuplicateKindLimit)
	kind := available[rng.Intn(len(available))]
	index := rng.Intn(len(d.Genes) + 1)

	d.Genes = append(d.Genes, 0)
	copy(d.Genes[index+1:], d.Genes[index:])
	d.Genes[index] = kind

	// Keep the cursor on the gene it pointed at.
	if index <= d.Cursor {
		d.Cursor++
	}
}

func (d *Dna) removeGene(rng *rand.Rand) {
	if len(d.Genes) <= 1 {
		return
	}
	d.removeAt(rng.Intn(len(d.Genes)))
}

func (d *Dna) removeAt(index int) {
	d.Genes = append(d.Genes[:index], d.Genes[index+1:]...)

	// Removal at or before the cursor shifts it back, floor zero.
	if index <= d.Cursor && d.Cursor > 0 {
		d.Cursor--
	}
	if d.Cursor > len(d.Genes) {
		d.Cursor = len(d.Genes)
	}
}

func (d *Dna) substituteGene(rng *rand.Rand, params MutationParams) {
	if len(d.Genes) == 0 {
		return
	}
	available := d.AvailableKinds(params.DuplicateKindLimit)
	d.Genes[rng.Intn(len(d.Genes))] = available[rng.Intn(len(available))]
}
