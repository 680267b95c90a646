package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine() (*ShotMachine, *World, *Bus) {
	w := NewWorld(40, 40)
	w.SpawnBall(NewVec3(0, BallRadius, 0))
	bus := NewBus()
	m := NewShotMachine(w, bus, DefaultTuning())
	return m, w, bus
}

// Drive the machine straight to EXECUTING with spin skipped.
func executeTestShot(m *ShotMachine, angle, power float64) {
	m.EnterAiming()
	m.SetAngleAndContinue(angle)
	m.SetPowerAndContinue(power, true)
}

func TestShotPhaseSequence(t *testing.T) {
	m, _, _ := newTestMachine()

	assert.Equal(t, PhaseIdle, m.Phase())
	assert.True(t, m.EnterAiming())
	assert.Equal(t, PhaseAiming, m.Phase())
	assert.True(t, m.SetAngleAndContinue(0.5))
	assert.Equal(t, PhasePower, m.Phase())
	assert.True(t, m.SetPowerAndContinue(0.7, false))
	assert.Equal(t, PhaseSpin, m.Phase())
	assert.True(t, m.SetSpinAndExecute(Vec3{}))
	assert.Equal(t, PhaseExecuting, m.Phase())
}

func TestIllegalTransitionsAreRejectedWithoutSideEffects(t *testing.T) {
	m, w, _ := newTestMachine()

	// Everything except EnterAiming is illegal from IDLE.
	assert.False(t, m.SetAngleAndContinue(1))
	assert.False(t, m.SetPowerAndContinue(0.5, false))
	assert.False(t, m.SetSpinAndExecute(Vec3{X: 1}))
	assert.False(t, m.RequestBounce())
	assert.False(t, m.Cancel())

	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Equal(t, ShotParams{}, m.Params())

	ball, _ := w.Ball()
	assert.True(t, ball.Velocity.IsZero(), "rejected inputs must not move the ball")
}

func TestBackwardsNavigation(t *testing.T) {
	m, _, _ := newTestMachine()

	m.EnterAiming()
	m.SetAngleAndContinue(1)
	assert.True(t, m.BackToAiming())
	assert.Equal(t, PhaseAiming, m.Phase())

	m.SetAngleAndContinue(1)
	m.SetPowerAndContinue(0.5, false)
	assert.True(t, m.BackToPower())
	assert.Equal(t, PhasePower, m.Phase())
}

func TestCancelResetsParams(t *testing.T) {
	m, _, _ := newTestMachine()

	m.EnterAiming()
	m.SetAngleAndContinue(1.2)
	assert.True(t, m.Cancel())
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Equal(t, ShotParams{}, m.Params())

	// Cancel is not available once the shot is executing.
	executeTestShot(m, 0, 0.5)
	assert.False(t, m.Cancel())
}

func TestPowerZeroStillLaunches(t *testing.T) {
	m, w, _ := newTestMachine()
	executeTestShot(m, 0, 0)

	ball, _ := w.Ball()
	assert.Greater(t, ball.Speed(), 0.0, "power 0 must still produce an impulse")
}

func TestPowerIsClampedToUnitRange(t *testing.T) {
	m, w, _ := newTestMachine()
	executeTestShot(m, 0, 7.5)

	ball, _ := w.Ball()
	// Curved power tops out at 1, so the horizontal speed is bounded by
	// multiplier over mass.
	maxSpeed := DefaultTuning().PowerMultiplier / BallMass
	assert.LessOrEqual(t, ball.Velocity.X, maxSpeed+1e-6)
}

func TestAngleZeroLaunchesAlongPositiveX(t *testing.T) {
	m, w, _ := newTestMachine()
	executeTestShot(m, 0, 0.6)

	ball, _ := w.Ball()
	assert.Greater(t, ball.Velocity.X, 0.0)
	assert.InDelta(t, 0, ball.Velocity.Z, 1e-4)
	assert.Greater(t, ball.Velocity.Y, 0.0, "launch always carries the upward bias")
}

func TestHigherPowerLaunchesFaster(t *testing.T) {
	low, lw, _ := newTestMachine()
	executeTestShot(low, 0, 0.2)
	lowBall, _ := lw.Ball()

	high, hw, _ := newTestMachine()
	executeTestShot(high, 0, 0.9)
	highBall, _ := hw.Ball()

	assert.Greater(t, highBall.Velocity.X, lowBall.Velocity.X)
}

func TestSpinAppliesTorqueAndOffset(t *testing.T) {
	m, w, _ := newTestMachine()
	m.EnterAiming()
	m.SetAngleAndContinue(0)
	m.SetPowerAndContinue(0.5, false)
	require.True(t, m.SetSpinAndExecute(Vec3{Y: 1, Z: -1}))

	ball, _ := w.Ball()
	assert.False(t, ball.AngularVelocity.IsZero(), "spin above the noise floor must apply torque")

	params := m.Params()
	assert.InDelta(t, HitOffsetScale, params.OffsetX, 1e-9)
	assert.InDelta(t, -HitOffsetScale, params.OffsetY, 1e-9)
}

func TestSpinBelowNoiseFloorIsIgnored(t *testing.T) {
	m, w, _ := newTestMachine()
	m.EnterAiming()
	m.SetAngleAndContinue(0)
	m.SetPowerAndContinue(0.5, false)
	m.SetSpinAndExecute(Vec3{Y: 0.01})

	ball, _ := w.Ball()
	assert.True(t, ball.AngularVelocity.IsZero())
}

func TestBounceCapAndCooldown(t *testing.T) {
	m, w, _ := newTestMachine()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	executeTestShot(m, 0, 0) // gentle launch, well under the speed ceiling

	tuning := DefaultTuning()
	for i := 0; i < tuning.MaxBounces; i++ {
		w.SetVelocity(Vec3{X: 1}) // settle between hops so the ceiling never interferes
		assert.True(t, m.RequestBounce(), "bounce %d should be accepted", i+1)
		// Cooldown blocks an immediate retry.
		assert.False(t, m.RequestBounce())
		clock = clock.Add(tuning.BounceCooldown + time.Millisecond)
	}

	w.SetVelocity(Vec3{X: 1})
	assert.False(t, m.RequestBounce(), "cap must reject bounce %d", tuning.MaxBounces+1)
}

func TestBounceRejectedAboveSpeedCeiling(t *testing.T) {
	m, w, _ := newTestMachine()
	executeTestShot(m, 0, 1)

	ball, _ := w.Ball()
	require.GreaterOrEqual(t, ball.Speed(), BounceSpeedCeiling)
	assert.False(t, m.RequestBounce())
}

func TestBouncePublishesRemainingBudget(t *testing.T) {
	m, _, bus := newTestMachine()
	var got BouncePerformedEvent
	bus.OnBounce(func(e BouncePerformedEvent) { got = e })

	executeTestShot(m, 0, 0)
	require.True(t, m.RequestBounce())

	assert.Equal(t, 1, got.Count)
	assert.Equal(t, DefaultTuning().MaxBounces-1, got.Remaining)
}

func TestBounceBudgetResetsPerShot(t *testing.T) {
	m, w, _ := newTestMachine()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	executeTestShot(m, 0, 0)
	tuning := DefaultTuning()
	for i := 0; i < tuning.MaxBounces; i++ {
		w.SetVelocity(Vec3{X: 1})
		require.True(t, m.RequestBounce())
		clock = clock.Add(tuning.BounceCooldown + time.Millisecond)
	}
	w.SetVelocity(Vec3{X: 1})
	require.False(t, m.RequestBounce())

	// Bring the ball to rest; the machine returns to IDLE.
	w.SetVelocity(Vec3{})
	ball, _ := w.Ball()
	ball.Position = NewVec3(1, BallRadius, 0)
	require.True(t, m.Tick())

	executeTestShot(m, 0, 0)
	assert.True(t, m.RequestBounce(), "a fresh shot gets a fresh bounce budget")
}

func TestTickStopsSlowGroundedBall(t *testing.T) {
	m, w, bus := newTestMachine()
	var stopped *BallStoppedEvent
	bus.OnBallStopped(func(e BallStoppedEvent) { stopped = &e })

	executeTestShot(m, 0, 0.5)

	// Fast ball keeps executing.
	assert.False(t, m.Tick())

	w.SetVelocity(Vec3{X: 0.01})
	ball, _ := w.Ball()
	ball.Position = NewVec3(2, BallRadius, 1)

	assert.True(t, m.Tick())
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.True(t, ball.Velocity.IsZero())
	require.NotNil(t, stopped)
	assert.Equal(t, ball.Position, stopped.Position)
}

func TestTickIgnoresSlowAirborneBall(t *testing.T) {
	m, w, _ := newTestMachine()
	executeTestShot(m, 0, 0.5)

	// Slow at the apex of a lob: not a stop.
	w.SetVelocity(Vec3{Y: 0.01})
	ball, _ := w.Ball()
	ball.Position = NewVec3(2, 3, 1)

	assert.False(t, m.Tick())
	assert.Equal(t, PhaseExecuting, m.Phase())
}

func TestPowerCurveShape(t *testing.T) {
	assert.InDelta(t, PowerCurveFloor, powerCurve(0), 1e-9)
	assert.InDelta(t, 1.0, powerCurve(1), 1e-4)
	// Quadratic weighting: the midpoint lands under the linear curve.
	assert.Less(t, powerCurve(0.5), 0.525)
}
