package dna

import (
	"math/rand"
	"testing"
)

func TestRandomDnaShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := Random(rng, 8)

	if d.Len() != 8 {
		t.Errorf("Len = %d, want 8", d.Len())
	}
	if d.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", d.Cursor)
	}
	for i, g := range d.Genes {
		if g >= numKinds {
			t.Errorf("gene %d has invalid kind %d", i, g)
		}
	}
}

func TestNextSegmentWraps(t *testing.T) {
	d := Dna{Genes: []Kind{Muscle, Solid, Solar}}

	want := []Kind{Muscle, Solid, Solar, Muscle, Solid}
	for i, w := range want {
		if got := d.NextSegment(); got != w {
			t.Errorf("call %d: got %v, want %v", i, got, w)
		}
	}
}

func TestNextSegmentCursorAtLen(t *testing.T) {
	// Cursor == len(Genes) is a legal state; the next read wraps to 0.
	d := Dna{Genes: []Kind{Stomach, Muscle}, Cursor: 2}
	if got := d.NextSegment(); got != Stomach {
		t.Errorf("got %v, want Stomach", got)
	}
	if d.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", d.Cursor)
	}
}

func TestRemoveGeneClampsCursor(t *testing.T) {
	tests := []struct {
		name       string
		genes      []Kind
		cursor     int
		remove     int
		wantCursor int
	}{
		{"removal before cursor", []Kind{Muscle, Solid, Solar, Stomach}, 2, 0, 1},
		{"removal at cursor", []Kind{Muscle, Solid, Solar, Stomach}, 2, 2, 1},
		{"removal after cursor", []Kind{Muscle, Solid, Solar, Stomach}, 1, 3, 1},
		{"removal at zero with cursor zero", []Kind{Muscle, Solid, Solar}, 0, 0, 0},
		{"cursor at end", []Kind{Muscle, Solid, Solar}, 3, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Dna{Genes: append([]Kind(nil), tt.genes...), Cursor: tt.cursor}
			d.removeAt(tt.remove)
			if d.Cursor != tt.wantCursor {
				t.Errorf("Cursor = %d, want %d", d.Cursor, tt.wantCursor)
			}
			if d.Len() != len(tt.genes)-1 {
				t.Errorf("Len = %d, want %d", d.Len(), len(tt.genes)-1)
			}
		})
	}
}

func TestRemoveGeneKeepsLastGene(t *testing.T) {
	d := Dna{Genes: []Kind{Muscle}}
	d.removeGene(rand.New(rand.NewSource(1)))
	if d.Len() != 1 {
		t.Errorf("Len = %d, want 1 (last gene must survive)", d.Len())
	}
}

func TestAddGeneRespectsMaxGenes(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d := Dna{Genes: []Kind{Muscle, Solid}}
	params := MutationParams{MaxGenes: 2}

	d.addGene(rng, params)
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2 (MaxGenes reached)", d.Len())
	}
}

func TestAddGeneShiftsCursor(t *testing.T) {
	// Insertion at or before the cursor moves it forward so it still
	// points at the same gene.
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		d := Dna{Genes: []Kind{Muscle, Solid, Solar}, Cursor: 1}
		pointedAt := d.Genes[d.Cursor]
		d.addGene(rng, MutationParams{MaxGenes: 10})
		if d.Genes[d.Cursor] != pointedAt {
			t.Fatalf("seed %d: cursor no longer points at %v", seed, pointedAt)
		}
	}
}

func TestAvailableKindsDuplicateLimit(t *testing.T) {
	d := Dna{Genes: []Kind{Muscle, Muscle, Muscle, Solid}}

	available := d.AvailableKinds(3)
	for _, k := range available {
		if k == Muscle {
			t.Error("muscle is at the duplicate limit and should be excluded")
		}
	}
	if len(available) != 3 {
		t.Errorf("got %d available kinds, want 3", len(available))
	}

	// All kinds saturated: fall back to the full set.
	sat := Dna{Genes: []Kind{Muscle, Solid, Solar, Stomach}}
	if got := sat.AvailableKinds(1); len(got) != 4 {
		t.Errorf("saturated fallback returned %d kinds, want 4", len(got))
	}
}

func TestMutateInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	d := Random(rng, 8)
	params := MutationParams{MaxGenes: 16, DuplicateKindLimit: 8}

	for i := 0; i < 5000; i++ {
		d.Mutate(rng, params)
		if d.Len() < 1 || d.Len() > params.MaxGenes {
			t.Fatalf("iteration %d: gene count %d out of [1, %d]", i, d.Len(), params.MaxGenes)
		}
		if d.Cursor < 0 || d.Cursor > d.Len() {
			t.Fatalf("iteration %d: cursor %d out of [0, %d]", i, d.Cursor, d.Len())
		}
		// Reading stays safe in every reachable state.
		clone := d.Clone()
		if k := clone.NextSegment(); k >= numKinds {
			t.Fatalf("iteration %d: invalid kind %d", i, k)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := Dna{Genes: []Kind{Muscle, Solid}, Cursor: 1}
	c := d.Clone()
	c.Genes[0] = Stomach
	c.Cursor = 0

	if d.Genes[0] != Muscle || d.Cursor != 1 {
		t.Error("mutating clone altered the original")
	}
}

func TestKindTraits(t *testing.T) {
	if Solar.Traits().UpkeepCost >= 0 {
		t.Error("solar segments must produce energy (negative upkeep)")
	}
	if Muscle.Traits().Mobility != 1.0 {
		t.Errorf("muscle mobility = %g, want 1.0", Muscle.Traits().Mobility)
	}
	if Stomach.Traits().UpkeepCost <= 0 {
		t.Error("stomach segments must cost upkeep")
	}
}
