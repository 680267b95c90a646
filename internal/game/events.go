package game

import "sync"

// Typed in-process publish/subscribe bus. One payload struct per event kind,
// one subscribe method per kind, so a payload-shape mistake is a compile
// error rather than a runtime surprise. Dispatch is synchronous: publishers
// already hold the session lock, subscribers must not re-enter the session.

// ShotStartedEvent fires when an impulse is applied to the ball.
type ShotStartedEvent struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
	Spin  Vec3    `json:"spin"`
}

// BallStoppedEvent fires when the ball comes to rest after a shot.
type BallStoppedEvent struct {
	Position Vec3 `json:"position"`
}

// TargetHitEvent fires once per target, when the ball first reaches it.
type TargetHitEvent struct {
	TargetID      string  `json:"target_id"`
	Position      Vec3    `json:"position"`
	RelativeSpeed float64 `json:"relative_speed"`
	Remaining     int     `json:"remaining"`
}

// WallClingStartEvent fires when wall clinging activates.
type WallClingStartEvent struct {
	Normal Vec3 `json:"normal"`
}

// WallClingEndEvent fires when wall clinging deactivates.
type WallClingEndEvent struct{}

// GoalReachedEvent fires exactly once per hole, when the ball is captured
// with all targets down.
type GoalReachedEvent struct {
	Position Vec3 `json:"position"`
	Strokes  int  `json:"strokes"`
	Par      int  `json:"par"`
}

// OutOfBoundsEvent fires when the ball falls off the course.
type OutOfBoundsEvent struct {
	Position Vec3 `json:"position"`
}

// BouncePerformedEvent fires on an accepted mid-flight bounce.
type BouncePerformedEvent struct {
	Count     int `json:"count"`
	Remaining int `json:"remaining"`
}

// CourseLoadedEvent fires after a course descriptor is built into the world.
type CourseLoadedEvent struct {
	Name    string `json:"name"`
	Par     int    `json:"par"`
	Targets int    `json:"targets"`
}

// Bus routes core events to presentation-layer subscribers. The core never
// queries subscribers back. Subscribing is safe from any goroutine; the
// internal lock covers the subscriber lists, not the session state the
// publishers hold their own mutex for.
type Bus struct {
	mu sync.RWMutex

	shotStarted    []func(ShotStartedEvent)
	ballStopped    []func(BallStoppedEvent)
	targetHit      []func(TargetHitEvent)
	wallClingStart []func(WallClingStartEvent)
	wallClingEnd   []func(WallClingEndEvent)
	goalReached    []func(GoalReachedEvent)
	outOfBounds    []func(OutOfBoundsEvent)
	bounce         []func(BouncePerformedEvent)
	courseLoaded   []func(CourseLoadedEvent)
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) OnShotStarted(fn func(ShotStartedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shotStarted = append(b.shotStarted, fn)
}

func (b *Bus) OnBallStopped(fn func(BallStoppedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ballStopped = append(b.ballStopped, fn)
}

func (b *Bus) OnTargetHit(fn func(TargetHitEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targetHit = append(b.targetHit, fn)
}

func (b *Bus) OnWallClingStart(fn func(WallClingStartEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wallClingStart = append(b.wallClingStart, fn)
}

func (b *Bus) OnWallClingEnd(fn func(WallClingEndEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wallClingEnd = append(b.wallClingEnd, fn)
}

func (b *Bus) OnGoalReached(fn func(GoalReachedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.goalReached = append(b.goalReached, fn)
}

func (b *Bus) OnOutOfBounds(fn func(OutOfBoundsEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outOfBounds = append(b.outOfBounds, fn)
}

func (b *Bus) OnBounce(fn func(BouncePerformedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bounce = append(b.bounce, fn)
}

func (b *Bus) OnCourseLoaded(fn func(CourseLoadedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.courseLoaded = append(b.courseLoaded, fn)
}

func (b *Bus) PublishShotStarted(e ShotStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.shotStarted {
		fn(e)
	}
}

func (b *Bus) PublishBallStopped(e BallStoppedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.ballStopped {
		fn(e)
	}
}

func (b *Bus) PublishTargetHit(e TargetHitEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.targetHit {
		fn(e)
	}
}

func (b *Bus) PublishWallClingStart(e WallClingStartEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.wallClingStart {
		fn(e)
	}
}

func (b *Bus) PublishWallClingEnd(e WallClingEndEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.wallClingEnd {
		fn(e)
	}
}

func (b *Bus) PublishGoalReached(e GoalReachedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.goalReached {
		fn(e)
	}
}

func (b *Bus) PublishOutOfBounds(e OutOfBoundsEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.outOfBounds {
		fn(e)
	}
}

func (b *Bus) PublishBounce(e BouncePerformedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.bounce {
		fn(e)
	}
}

func (b *Bus) PublishCourseLoaded(e CourseLoadedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.courseLoaded {
		fn(e)
	}
}
