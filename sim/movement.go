package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/slither/components"
	"github.com/pthm-cable/slither/neural"
)

// rechargeMovePotential tops up every snake's move budget by its mobility.
// A full move spends 1.0; newborns start in debt and have to wait it out.
func (s *Simulation) rechargeMovePotential() {
	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		snake.Energy.MovePotential += snake.Metabolism.Mobility
		if snake.Energy.MovePotential > 1 {
			snake.Energy.MovePotential = 1
		}
	}
}

// applyDecisions turns each brain's decision into a heading and a move
// target, charging movement costs. The actual position change happens in
// moveBodies so collisions resolve against a consistent occupancy state.
func (s *Simulation) applyDecisions() {
	moveCost := float32(s.cfg.Energy.MoveCost)
	waitCost := float32(s.cfg.Energy.WaitCost)

	query := s.headFilter.Query()
	for query.Next() {
		pos, snake, age := query.Get()

		if snake.Decision == neural.ActionWait {
			snake.NewPosition = *pos
			s.debit(snake, waitCost)
			continue
		}
		if snake.Energy.MovePotential < 1 {
			snake.NewPosition = *pos
			continue
		}

		switch snake.Decision {
		case neural.ActionLeft:
			snake.Direction = snake.Direction.TurnLeft()
		case neural.ActionRight:
			snake.Direction = snake.Direction.TurnRight()
		}

		snake.Energy.MovePotential -= 1
		snake.NewPosition = s.maps.Bounds.Step(*pos, snake.Direction)
		s.debit(snake, snake.Metabolism.MoveCost*moveCost/age.Efficiency)
	}
}

// moveBodies commits the targets computed by applyDecisions. Heads moving
// into a wall or an occupied cell are marked collided and stay put; the
// mark is reaped at the start of the next tick. Processing order is the
// head collection order, which is stable for a given seed.
func (s *Simulation) moveBodies() {
	for _, head := range s.headEntities() {
		pos := s.posMap.Get(head)
		snake := s.snakeMap.Get(head)
		target := snake.NewPosition
		if target == *pos {
			continue
		}

		if s.maps.IsSolid(target) || !s.occupancy.At(target).IsZero() {
			snake.CollidedSolid = true
			snake.NewPosition = *pos
			continue
		}

		carry := *pos
		*pos = target
		s.occupancy.Set(target, head)

		// Each body segment steps into the cell its predecessor vacated.
		for _, seg := range snake.Segments[1:] {
			segPos := s.posMap.Get(seg)
			carry, *segPos = *segPos, carry
			s.occupancy.Set(*segPos, seg)
		}
		snake.LastPosition = carry
		s.occupancy.Set(carry, ecs.Entity{})
	}
}

// reapCollided removes snakes marked by the previous tick's collision
// resolution, converting their bodies to meat.
func (s *Simulation) reapCollided() {
	s.deadBuf = s.deadBuf[:0]
	query := s.headFilter.Query()
	for query.Next() {
		_, snake, _ := query.Get()
		if snake.CollidedSolid {
			s.deadBuf = append(s.deadBuf, query.Entity())
		}
	}
	for _, e := range s.deadBuf {
		s.killSnake(e)
	}
}

// debit charges energy and books the same amount as heat loss, keeping the
// world's energy ledger balanced.
func (s *Simulation) debit(snake *components.Snake, amount float32) {
	snake.Energy.Value -= amount
	s.ledger.HeatLoss += float64(amount)
}
