package game

import (
	"context"
	"log"
	"time"
)

// The collision/goal resolver runs on its own fixed-period timer, decoupled
// from the simulation tick. That bounds collision-check cost independently
// of frame rate at the price of up to one poll interval of detection
// latency, which consumers (and tests) must tolerate.

func (s *GolfSession) runResolver(ctx context.Context) {
	ticker := time.NewTicker(s.tuning.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.resolvePass()
		}
	}
}

// resolvePass is one resolver poll: target proximity checks, then goal
// capture. The whole pass holds the session lock so target and ball
// mutations commit atomically; it short-circuits when the world has been
// invalidated by a reload racing the poll.
func (s *GolfSession) resolvePass() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return
	}
	ball, ok := s.world.Ball()
	if !ok {
		return
	}

	s.resolveTargetsLocked(ball)
	s.resolveGoalLocked(ball)
}

// resolveTargetsLocked marks targets within combined-radius reach. A hit is
// write-once: the ball stops dead (zeroed, not softened) and gets a small
// upward nudge for visual feedback.
func (s *GolfSession) resolveTargetsLocked(ball *Body) {
	for _, t := range s.course.Targets {
		if t.Hit {
			continue
		}
		reach := t.Radius + ball.Radius
		if ball.Position.Minus(t.Position).MagnitudeSquared() > reach*reach {
			continue
		}

		t.Hit = true
		relSpeed := ball.Speed()
		s.world.ZeroMotion()
		s.world.ApplyImpulse(Vec3{Y: TargetNudgeImpulse})

		remaining := s.course.RemainingTargets()
		log.Printf("[RESOLVER] target %s hit (speed=%.2f, %d remaining)", t.ID, relSpeed, remaining)
		s.bus.PublishTargetHit(TargetHitEvent{
			TargetID:      t.ID,
			Position:      t.Position,
			RelativeSpeed: relSpeed,
			Remaining:     remaining,
		})
	}
}

// resolveGoalLocked evaluates capture: all targets down and the ball's
// horizontal distance within the capture radius. The goalFired guard keeps
// the event from re-firing while the ball lingers in the capture zone.
func (s *GolfSession) resolveGoalLocked(ball *Body) {
	if s.goalFired || s.course.Hole == nil {
		return
	}
	if !s.course.AllTargetsHit() {
		return
	}
	hole := s.course.Hole
	if ball.Position.HorizontalDistanceTo(hole.Position) > hole.CaptureRadius {
		return
	}

	s.goalFired = true
	s.completed = true

	center := hole.Position
	center.Y = s.world.GroundY + ball.Radius
	s.world.Teleport(center)
	s.shot.ForceIdle()
	s.cling.Reset()

	log.Printf("[RESOLVER] goal reached: session=%s strokes=%d par=%d",
		s.ID, s.strokes, s.descriptor.Par)
	s.bus.PublishGoalReached(GoalReachedEvent{
		Position: center,
		Strokes:  s.strokes,
		Par:      s.descriptor.Par,
	})
}
