package grid

import (
	"math/rand"
	"testing"
)

func TestTurnsAreInverses(t *testing.T) {
	for d := Direction(0); d < NumDirections; d++ {
		if d.TurnLeft().TurnRight() != d {
			t.Errorf("TurnLeft then TurnRight of %v != identity", d)
		}
		if d.TurnRight().TurnLeft() != d {
			t.Errorf("TurnRight then TurnLeft of %v != identity", d)
		}
		if d.Flip().Flip() != d {
			t.Errorf("double Flip of %v != identity", d)
		}
	}
}

func TestTurnSequence(t *testing.T) {
	// Six right turns come back around.
	d := NorthEast
	for i := 0; i < NumDirections; i++ {
		d = d.TurnRight()
	}
	if d != NorthEast {
		t.Errorf("six right turns from NorthEast = %v", d)
	}

	if East.TurnLeft() != NorthEast {
		t.Errorf("East.TurnLeft() = %v, want NorthEast", East.TurnLeft())
	}
	if East.TurnRight() != SouthEast {
		t.Errorf("East.TurnRight() = %v, want SouthEast", East.TurnRight())
	}
	if East.Flip() != West {
		t.Errorf("East.Flip() = %v, want West", East.Flip())
	}
}

func TestStepNeighborsDistinct(t *testing.T) {
	b := Bounds{Columns: 10, Rows: 10}
	p := Position{Q: 5, R: 5}

	seen := make(map[Position]bool)
	for d := Direction(0); d < NumDirections; d++ {
		n := b.Step(p, d)
		if n == p {
			t.Errorf("Step(%v) did not move", d)
		}
		if seen[n] {
			t.Errorf("duplicate neighbor %v in direction %v", n, d)
		}
		seen[n] = true
	}
	if len(seen) != NumDirections {
		t.Errorf("expected %d distinct neighbors, got %d", NumDirections, len(seen))
	}
}

func TestStepOppositeRoundTrip(t *testing.T) {
	b := Bounds{Columns: 9, Rows: 7}
	p := Position{Q: 3, R: 2}
	for d := Direction(0); d < NumDirections; d++ {
		back := b.Step(b.Step(p, d), d.Flip())
		if back != p {
			t.Errorf("step %v then %v from %v = %v, want start", d, d.Flip(), p, back)
		}
	}
}

func TestWrapTorus(t *testing.T) {
	b := Bounds{Columns: 10, Rows: 8}
	tests := []struct {
		in, want Position
	}{
		{Position{Q: 0, R: 0}, Position{Q: 0, R: 0}},
		{Position{Q: 10, R: 8}, Position{Q: 0, R: 0}},
		{Position{Q: -1, R: -1}, Position{Q: 9, R: 7}},
		{Position{Q: 25, R: -9}, Position{Q: 5, R: 7}},
	}
	for _, tt := range tests {
		if got := b.Wrap(tt.in); got != tt.want {
			t.Errorf("Wrap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStepWrapsAtEdges(t *testing.T) {
	b := Bounds{Columns: 5, Rows: 5}
	if got := b.Step(Position{Q: 4, R: 0}, East); got != (Position{Q: 0, R: 0}) {
		t.Errorf("east from right edge = %v, want wrap to column 0", got)
	}
	if got := b.Step(Position{Q: 0, R: 0}, NorthWest); got != (Position{Q: 0, R: 4}) {
		t.Errorf("north-west from top edge = %v, want wrap to row 4", got)
	}
}

func TestRandomDirectionInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		d := RandomDirection(rng)
		if d >= NumDirections {
			t.Fatalf("RandomDirection produced %d", d)
		}
	}
}
