// Package grid implements the hexagonal world: axial coordinates, directions,
// and the flat-slice maps the simulation reads and writes every tick.
package grid

import "math/rand"

// Position is an axial hex coordinate.
type Position struct {
	Q int
	R int
}

// Direction is one of the six hex directions, clockwise from north-east.
type Direction uint8

const (
	NorthEast Direction = iota
	East
	SouthEast
	SouthWest
	West
	NorthWest
)

// NumDirections is the number of hex directions.
const NumDirections = 6

// axialOffsets holds the neighbor offset per direction, indexed by Direction.
var axialOffsets = [NumDirections]Position{
	{Q: 1, R: -1}, // NorthEast
	{Q: 1, R: 0},  // East
	{Q: 0, R: 1},  // SouthEast
	{Q: -1, R: 1}, // SouthWest
	{Q: -1, R: 0}, // West
	{Q: 0, R: -1}, // NorthWest
}

var directionNames = [NumDirections]string{
	"north-east", "east", "south-east", "south-west", "west", "north-west",
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// TurnLeft rotates one step counter-clockwise.
func (d Direction) TurnLeft() Direction {
	return (d + NumDirections - 1) % NumDirections
}

// TurnRight rotates one step clockwise.
func (d Direction) TurnRight() Direction {
	return (d + 1) % NumDirections
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	return (d + NumDirections/2) % NumDirections
}

// RandomDirection picks a uniform direction from rng.
func RandomDirection(rng *rand.Rand) Direction {
	return Direction(rng.Intn(NumDirections))
}

// Bounds describes the toroidal world extent.
type Bounds struct {
	Columns int
	Rows    int
}

// Wrap maps any position onto the torus.
func (b Bounds) Wrap(p Position) Position {
	if b.Columns <= 0 || b.Rows <= 0 {
		return Position{}
	}
	q := p.Q % b.Columns
	if q < 0 {
		q += b.Columns
	}
	r := p.R % b.Rows
	if r < 0 {
		r += b.Rows
	}
	return Position{Q: q, R: r}
}

// Step returns the wrapped neighbor of p in direction d.
func (b Bounds) Step(p Position, d Direction) Position {
	off := axialOffsets[d%NumDirections]
	return b.Wrap(Position{Q: p.Q + off.Q, R: p.R + off.R})
}

// Contains reports whether p lies inside the unwrapped extent.
func (b Bounds) Contains(p Position) bool {
	return p.Q >= 0 && p.Q < b.Columns && p.R >= 0 && p.R < b.Rows
}

// Cells returns the total cell count.
func (b Bounds) Cells() int {
	return b.Columns * b.Rows
}

// RandomPosition picks a uniform cell from rng.
func (b Bounds) RandomPosition(rng *rand.Rand) Position {
	return Position{Q: rng.Intn(b.Columns), R: rng.Intn(b.Rows)}
}
