package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// RunPhase is the coarse game-flow state exposed to presentation layers. It
// is derived from the shot machine on every read; the shot machine is the
// single authoritative state owner, so the two can never diverge.
type RunPhase string

const (
	RunIdle      RunPhase = "IDLE"
	RunAiming    RunPhase = "AIMING"
	RunInFlight  RunPhase = "IN_FLIGHT"
	RunCompleted RunPhase = "COMPLETED"
)

const oobRecoveryDelay = 800 * time.Millisecond

// GolfSession is one player's run at one course: the world, the shot
// machine, the cling detector and the resolver, glued to a typed event bus.
// All mutation happens under the session mutex; the tick loop and the
// resolver timer are the only two contexts that touch shared state, and each
// pass commits atomically before yielding.
type GolfSession struct {
	ID    string
	Token string

	mu     sync.Mutex
	tuning Tuning

	descriptor *CourseDescriptor
	world      *World
	course     *Course
	shot       *ShotMachine
	cling      *ClingDetector
	bus        *Bus

	strokes       int
	completed     bool
	goalFired     bool
	oobRecovering bool
	lastRest      Vec3

	// generation guards deferred actions (delayed out-of-bounds recovery)
	// against firing into a course that has been torn down by a reset.
	generation int64

	running bool
	cancel  context.CancelFunc

	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

// NewGolfSession builds a session from a course descriptor.
func NewGolfSession(id, token string, d *CourseDescriptor, tuning Tuning, expiry time.Duration) (*GolfSession, error) {
	world, course, err := BuildCourse(d)
	if err != nil {
		return nil, fmt.Errorf("build course: %w", err)
	}

	bus := NewBus()
	now := time.Now()
	s := &GolfSession{
		ID:           id,
		Token:        token,
		tuning:       tuning,
		descriptor:   d,
		world:        world,
		course:       course,
		shot:         NewShotMachine(world, bus, tuning),
		cling:        NewClingDetector(world, bus),
		bus:          bus,
		lastRest:     d.Start,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(expiry),
	}

	if tuning.RestitutionScale != 1.0 {
		world.Surfaces().ScaleRestitution(tuning.RestitutionScale)
	}

	bus.PublishCourseLoaded(CourseLoadedEvent{
		Name:    d.Name,
		Par:     d.Par,
		Targets: len(course.Targets),
	})
	return s, nil
}

// Bus exposes the event bus for presentation-layer subscribers.
func (s *GolfSession) Bus() *Bus { return s.bus }

// Start launches the tick loop and the resolver timer. Idempotent.
func (s *GolfSession) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	go s.runLoop(ctx)
	go s.runResolver(ctx)
	log.Printf("[SESSION] %s started on course %q", s.ID, s.descriptor.Name)
}

// Stop cancels the tick loop and resolver.
func (s *GolfSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

// RunPhase derives the game-flow state from the shot machine and completion.
func (s *GolfSession) RunPhase() RunPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runPhaseLocked()
}

func (s *GolfSession) runPhaseLocked() RunPhase {
	if s.completed {
		return RunCompleted
	}
	switch s.shot.Phase() {
	case PhaseAiming, PhasePower, PhaseSpin:
		return RunAiming
	case PhaseExecuting:
		return RunInFlight
	default:
		return RunIdle
	}
}

func (s *GolfSession) touchLocked() {
	s.LastActivity = time.Now()
}

// === Input events ===

func (s *GolfSession) StartShot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return false
	}
	s.touchLocked()
	return s.shot.EnterAiming()
}

func (s *GolfSession) ConfirmAngle(angle float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.shot.SetAngleAndContinue(angle)
}

func (s *GolfSession) ConfirmPower(power float64, skipSpin bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	ok := s.shot.SetPowerAndContinue(power, skipSpin)
	if ok && s.shot.Phase() == PhaseExecuting {
		s.strokes++
	}
	return ok
}

func (s *GolfSession) ConfirmSpin(spin Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	ok := s.shot.SetSpinAndExecute(spin)
	if ok && s.shot.Phase() == PhaseExecuting {
		s.strokes++
	}
	return ok
}

func (s *GolfSession) CancelShot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.shot.Cancel()
}

func (s *GolfSession) RequestBounce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.shot.RequestBounce()
}

// PredictShot computes the aim preview from the ball's current position.
func (s *GolfSession) PredictShot(angle, power float64) TrajectoryPreview {
	s.mu.Lock()
	start := s.lastRest
	if ball, ok := s.world.Ball(); ok {
		start = ball.Position
	}
	groundY := s.world.GroundY
	tuning := s.tuning
	s.mu.Unlock()
	return PredictTrajectory(start, angle, power, groundY, tuning)
}

// Strokes returns the stroke count for the current hole.
func (s *GolfSession) Strokes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strokes
}

// Completed reports whether the hole has been finished.
func (s *GolfSession) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Reset atomically rebuilds the session: deferred callbacks are invalidated
// by the generation bump, the old world is detached so racing polls
// short-circuit, and the course is rebuilt from its descriptor. A partial
// reset that leaves a stale timer alive is a correctness bug, so everything
// happens under one lock hold.
func (s *GolfSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.world.Invalidate()

	world, course, err := BuildCourse(s.descriptor)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	s.world = world
	s.course = course
	s.shot = NewShotMachine(world, s.bus, s.tuning)
	s.cling = NewClingDetector(world, s.bus)
	s.strokes = 0
	s.completed = false
	s.goalFired = false
	s.oobRecovering = false
	s.lastRest = s.descriptor.Start
	s.touchLocked()

	log.Printf("[SESSION] %s reset (generation %d)", s.ID, s.generation)
	s.bus.PublishCourseLoaded(CourseLoadedEvent{
		Name:    s.descriptor.Name,
		Par:     s.descriptor.Par,
		Targets: len(course.Targets),
	})
	return nil
}

// RetuneSurfaces applies a runtime surface profile change (game modifier) to
// the live world.
func (s *GolfSession) RetuneSurfaces(tag SurfaceTag, profile SurfaceProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world.Surfaces().Retune(tag, profile)
}

// tick is one pass of the render/simulation loop: physics step, cling
// detection, shot auto-transitions, out-of-bounds detection. No internal
// parallelism; the whole pass holds the lock.
func (s *GolfSession) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ball, ok := s.world.Ball()
	if !ok {
		return
	}

	s.world.Step(TickDT)
	s.cling.Tick(TickDT)

	if s.shot.Tick() {
		s.lastRest = ball.Position
	}

	if !s.oobRecovering && ball.Position.Y < OutOfBoundsY {
		s.handleOutOfBoundsLocked(ball)
	}
}

// handleOutOfBoundsLocked publishes the penalty and schedules the delayed
// recovery, guarded against resets by the generation counter.
func (s *GolfSession) handleOutOfBoundsLocked(ball *Body) {
	s.oobRecovering = true
	s.strokes++
	pos := ball.Position
	gen := s.generation

	log.Printf("[SESSION] %s out of bounds at (%.1f, %.1f, %.1f)", s.ID, pos.X, pos.Y, pos.Z)
	s.bus.PublishOutOfBounds(OutOfBoundsEvent{Position: pos})

	time.AfterFunc(oobRecoveryDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return // course was reset while the recovery was pending
		}
		s.world.Teleport(s.lastRest)
		s.shot.ForceIdle()
		s.cling.Reset()
		s.oobRecovering = false
	})
}

func (s *GolfSession) runLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// === Snapshot for presentation ===

// TargetState is the serializable view of a target.
type TargetState struct {
	ID       string  `json:"id"`
	Position Vec3    `json:"position"`
	Radius   float64 `json:"radius"`
	Hit      bool    `json:"hit"`
}

// SessionSnapshot is the published state an external presentation layer
// renders from.
type SessionSnapshot struct {
	Token       string        `json:"token"`
	Course      string        `json:"course"`
	Par         int           `json:"par"`
	Strokes     int           `json:"strokes"`
	Phase       RunPhase      `json:"phase"`
	ShotPhase   ShotPhase     `json:"shot_phase"`
	Ball        *Body         `json:"ball,omitempty"`
	Targets     []TargetState `json:"targets"`
	Hole        *Hole         `json:"hole,omitempty"`
	ClingActive bool          `json:"cling_active"`
	Completed   bool          `json:"completed"`
}

// Snapshot returns a copy of the published state.
func (s *GolfSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		Token:       s.Token,
		Course:      s.descriptor.Name,
		Par:         s.descriptor.Par,
		Strokes:     s.strokes,
		Phase:       s.runPhaseLocked(),
		ShotPhase:   s.shot.Phase(),
		ClingActive: s.cling.Active(),
		Completed:   s.completed,
		Hole:        s.course.Hole,
	}
	if ball, ok := s.world.Ball(); ok {
		copy := *ball
		snap.Ball = &copy
	}
	for _, t := range s.course.Targets {
		snap.Targets = append(snap.Targets, TargetState{
			ID:       t.ID,
			Position: t.Position,
			Radius:   t.Radius,
			Hit:      t.Hit,
		})
	}
	return snap
}

// BallMoving reports whether the ball is above the stop threshold, used by
// the transport layer to decide whether to stream pose snapshots.
func (s *GolfSession) BallMoving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ball, ok := s.world.Ball()
	if !ok {
		return false
	}
	return ball.Speed() >= s.tuning.StopThreshold
}

// Expired reports whether the session passed its expiry without activity.
func (s *GolfSession) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.ExpiresAt)
}
