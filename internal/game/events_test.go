package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDispatchesToAllSubscribersInOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.OnShotStarted(func(ShotStartedEvent) { order = append(order, "first") })
	bus.OnShotStarted(func(ShotStartedEvent) { order = append(order, "second") })

	bus.PublishShotStarted(ShotStartedEvent{Power: 0.5})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBusWithNoSubscribersIsSafe(t *testing.T) {
	bus := NewBus()
	bus.PublishGoalReached(GoalReachedEvent{Strokes: 2})
	bus.PublishWallClingEnd(WallClingEndEvent{})
	bus.PublishOutOfBounds(OutOfBoundsEvent{})
}

func TestBusSubscribeIsSafeDuringPublish(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{})

	// A presentation client attaching while the session publishes, as when a
	// WebSocket connect races a course reload.
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			bus.OnCourseLoaded(func(CourseLoadedEvent) {})
		}
	}()
	for i := 0; i < 500; i++ {
		bus.PublishCourseLoaded(CourseLoadedEvent{Name: "first-green"})
	}
	<-done
}

func TestBusPassesPayloadThrough(t *testing.T) {
	bus := NewBus()
	var got TargetHitEvent
	bus.OnTargetHit(func(e TargetHitEvent) { got = e })

	bus.PublishTargetHit(TargetHitEvent{TargetID: "target-3", Remaining: 2})

	assert.Equal(t, "target-3", got.TargetID)
	assert.Equal(t, 2, got.Remaining)
}
