package sim

import (
	"math/rand"

	"github.com/pthm-cable/slither/grid"
)

// NumInputs is the width of the sensory vector fed to every brain.
//
// Layout: bias, chaos, scent F/L/R, plant F/L/R, meat F/L/R, solid F/L/R,
// plant stomach level, meat stomach level, energy level, age efficiency.
const NumInputs = 18

const (
	inBias = iota
	inChaos
	inScentFront
	inScentLeft
	inScentRight
	inPlantFront
	inPlantLeft
	inPlantRight
	inMeatFront
	inMeatLeft
	inMeatRight
	inSolidFront
	inSolidLeft
	inSolidRight
	inPlantLevel
	inMeatLevel
	inEnergyLevel
	inAgeEfficiency
)

// scentScale normalizes raw scent concentration into a usable input range.
const scentScale = 500.0

// senseInputs fills dst with the sensory vector for one head snapshot.
// It only reads the cell maps, so the parallel decide phase can call it
// concurrently from several workers.
func (s *Simulation) senseInputs(snap *headSnapshot, rng *rand.Rand, dst *[NumInputs]float32) {
	for i := range dst {
		dst[i] = 0
	}
	dst[inBias] = 1

	vision := &s.cfg.Vision
	if vision.ChaosInputEnabled {
		dst[inChaos] = rng.Float32()
	}

	front := snap.dir
	left := snap.dir.TurnLeft()
	right := snap.dir.TurnRight()

	if vision.ScentSensingEnabled && s.cfg.Scent.Enabled {
		dst[inScentFront] = s.scentAhead(snap.pos, front)
		dst[inScentLeft] = s.scentAhead(snap.pos, left)
		dst[inScentRight] = s.scentAhead(snap.pos, right)
	}

	if vision.Plant.Enabled {
		dst[inPlantFront] = s.castRay(snap.pos, front, vision.Plant.FrontRange, seePlant)
		dst[inPlantLeft] = s.castRay(snap.pos, left, vision.Plant.LeftRange, seePlant)
		dst[inPlantRight] = s.castRay(snap.pos, right, vision.Plant.RightRange, seePlant)
	}
	if vision.Meat.Enabled {
		dst[inMeatFront] = s.castRay(snap.pos, front, vision.Meat.FrontRange, seeMeat)
		dst[inMeatLeft] = s.castRay(snap.pos, left, vision.Meat.LeftRange, seeMeat)
		dst[inMeatRight] = s.castRay(snap.pos, right, vision.Meat.RightRange, seeMeat)
	}
	if vision.Obstacle.Enabled {
		dst[inSolidFront] = s.castRay(snap.pos, front, vision.Obstacle.FrontRange, seeSolid)
		dst[inSolidLeft] = s.castRay(snap.pos, left, vision.Obstacle.LeftRange, seeSolid)
		dst[inSolidRight] = s.castRay(snap.pos, right, vision.Obstacle.RightRange, seeSolid)
	}

	dst[inPlantLevel] = snap.plantLevel
	dst[inMeatLevel] = snap.meatLevel
	dst[inEnergyLevel] = snap.energyLevel
	dst[inAgeEfficiency] = snap.efficiency
}

// scentAhead samples the scent concentration of the adjacent cell.
func (s *Simulation) scentAhead(p grid.Position, d grid.Direction) float32 {
	return s.maps.ScentAt(s.maps.Bounds.Step(p, d)) / scentScale
}

type rayTarget uint8

const (
	seePlant rayTarget = iota
	seeMeat
	seeSolid
)

// castRay walks up to rayRange cells in direction d and returns a proximity
// signal for the first cell matching the target: 1.0 when adjacent, fading
// linearly to 1/rayRange at the far end, 0 when nothing is visible. Solid
// cells block plant and meat rays.
func (s *Simulation) castRay(p grid.Position, d grid.Direction, rayRange int, target rayTarget) float32 {
	cell := p
	for i := 0; i < rayRange; i++ {
		cell = s.maps.Bounds.Step(cell, d)
		solid := s.maps.IsSolid(cell) || !s.occupancy.At(cell).IsZero()

		if target == seeSolid {
			if solid {
				return float32(rayRange-i) / float32(rayRange)
			}
			continue
		}
		if solid {
			return 0
		}

		food := s.maps.FoodAt(cell)
		if (target == seePlant && food.IsPlant()) || (target == seeMeat && food.IsMeat()) {
			return float32(rayRange-i) / float32(rayRange)
		}
	}
	return 0
}
