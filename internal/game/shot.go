package game

import (
	"log"
	"math"
	"time"
)

// ShotPhase is the shot lifecycle state. The machine is the single
// authoritative owner of shot state; the session's run phase is derived from
// it, never stored alongside.
type ShotPhase string

const (
	PhaseIdle      ShotPhase = "IDLE"
	PhaseAiming    ShotPhase = "AIMING"
	PhasePower     ShotPhase = "POWER"
	PhaseSpin      ShotPhase = "SPIN"
	PhaseExecuting ShotPhase = "EXECUTING"
)

// ShotParams accumulates across the machine's phases and resets to zero on
// every return to IDLE.
type ShotParams struct {
	Angle   float64 `json:"angle"` // radians, horizontal plane
	Power   float64 `json:"power"` // normalized 0-1
	Spin    Vec3    `json:"spin"`  // X: left/right, Y: side, Z: top/back
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// ShotMachine turns input events into a physical impulse. Illegal transition
// calls are rejected and logged, never thrown; callers check the boolean.
type ShotMachine struct {
	world  *World
	bus    *Bus
	tuning Tuning

	phase  ShotPhase
	params ShotParams

	bounces    int
	lastBounce time.Time

	now func() time.Time
}

func NewShotMachine(world *World, bus *Bus, tuning Tuning) *ShotMachine {
	return &ShotMachine{
		world:  world,
		bus:    bus,
		tuning: tuning,
		phase:  PhaseIdle,
		now:    time.Now,
	}
}

func (m *ShotMachine) Phase() ShotPhase { return m.phase }

func (m *ShotMachine) Params() ShotParams { return m.params }

func (m *ShotMachine) reject(op string) bool {
	log.Printf("[SHOT] rejected %s in phase %s", op, m.phase)
	return false
}

// EnterAiming starts a new shot. Valid only from IDLE.
func (m *ShotMachine) EnterAiming() bool {
	if m.phase != PhaseIdle {
		return m.reject("enterAiming")
	}
	m.phase = PhaseAiming
	return true
}

// SetAngleAndContinue stores the launch angle and advances to POWER.
func (m *ShotMachine) SetAngleAndContinue(angle float64) bool {
	if m.phase != PhaseAiming {
		return m.reject("setAngleAndContinue")
	}
	m.params.Angle = angle
	m.phase = PhasePower
	return true
}

// SetPowerAndContinue stores the clamped power and advances to SPIN, or
// straight to execution when spin input is skipped.
func (m *ShotMachine) SetPowerAndContinue(power float64, skipSpin bool) bool {
	if m.phase != PhasePower {
		return m.reject("setPowerAndContinue")
	}
	m.params.Power = clamp(power, 0, 1)
	if skipSpin {
		m.phase = PhaseExecuting
		m.executeShot()
		return true
	}
	m.phase = PhaseSpin
	return true
}

// SetSpinAndExecute stores the spin vector, derives the hit-position offset
// from it, and executes the shot.
func (m *ShotMachine) SetSpinAndExecute(spin Vec3) bool {
	if m.phase != PhaseSpin {
		return m.reject("setSpinAndExecute")
	}
	m.params.Spin = spin
	m.params.OffsetX = clamp(spin.Y, -1, 1) * HitOffsetScale
	m.params.OffsetY = clamp(spin.Z, -1, 1) * HitOffsetScale
	m.phase = PhaseExecuting
	m.executeShot()
	return true
}

// BackToAiming re-opens angle selection from POWER.
func (m *ShotMachine) BackToAiming() bool {
	if m.phase != PhasePower {
		return m.reject("backToAiming")
	}
	m.phase = PhaseAiming
	return true
}

// BackToPower re-opens power selection from SPIN.
func (m *ShotMachine) BackToPower() bool {
	if m.phase != PhaseSpin {
		return m.reject("backToPower")
	}
	m.phase = PhasePower
	return true
}

// Cancel abandons the shot from AIMING or POWER.
func (m *ShotMachine) Cancel() bool {
	if m.phase != PhaseAiming && m.phase != PhasePower {
		return m.reject("cancel")
	}
	m.phase = PhaseIdle
	m.params = ShotParams{}
	return true
}

// powerCurve maps normalized input to impulse share. Quadratic-weighted so
// fine control is easier at low power, with a floor so power 0 still moves
// the ball.
func powerCurve(p float64) float64 {
	curved := PowerCurveWeight*p*p + (1-PowerCurveWeight)*p
	return fix(PowerCurveFloor + (1-PowerCurveFloor)*curved)
}

// executeShot converts the accumulated parameters into an impulse and
// optional torque. A missing ball here is a wiring bug in the surrounding
// application and is fatal.
func (m *ShotMachine) executeShot() {
	if m.phase != PhaseExecuting {
		m.reject("executeShot")
		return
	}
	ball, ok := m.world.Ball()
	if !ok {
		log.Panicf("[SHOT] executeShot with no ball bound (phase=%s)", m.phase)
	}

	// Launch direction: the aim angle, perturbed by the hit-position offset
	// derived from spin input.
	dir := DirectionFromAngle(m.params.Angle - m.params.OffsetX)

	curved := powerCurve(m.params.Power)
	impulse := dir.Times(curved * m.tuning.PowerMultiplier)
	impulse.Y = fix(UpwardLaunchBias + m.params.OffsetY*m.tuning.PowerMultiplier*0.1)

	m.world.ApplyImpulse(impulse)

	if m.params.Spin.Magnitude() > SpinNoiseThreshold {
		scale := SpinTorqueMultiplier * (1 + SpinPowerGain*curved)
		m.world.ApplyTorque(m.params.Spin.Times(scale))
	}

	m.bounces = 0
	m.lastBounce = time.Time{}

	log.Printf("[SHOT] executed: angle=%.3f power=%.2f curved=%.3f speed=%.2f",
		m.params.Angle, m.params.Power, curved, ball.Speed())

	m.bus.PublishShotStarted(ShotStartedEvent{
		Angle: m.params.Angle,
		Power: m.params.Power,
		Spin:  m.params.Spin,
	})
}

// RequestBounce applies a mid-flight upward hop. Accepted only while
// EXECUTING, below the speed ceiling, off cooldown and under the per-shot
// cap.
func (m *ShotMachine) RequestBounce() bool {
	if m.phase != PhaseExecuting {
		return m.reject("requestBounce")
	}
	ball, ok := m.world.Ball()
	if !ok {
		return false
	}
	if m.bounces >= m.tuning.MaxBounces {
		log.Printf("[SHOT] bounce cap reached (%d)", m.tuning.MaxBounces)
		return false
	}
	if ball.Speed() >= BounceSpeedCeiling {
		return false
	}
	if !m.lastBounce.IsZero() && m.now().Sub(m.lastBounce) < m.tuning.BounceCooldown {
		return false
	}

	up := BounceImpulse
	if ball.Velocity.Y > 0 {
		up *= BounceUpBoost
	}

	v := ball.Velocity
	v.X = fix(v.X * BounceHorizontalKeep)
	v.Z = fix(v.Z * BounceHorizontalKeep)
	m.world.SetVelocity(v)
	m.world.ApplyImpulse(Vec3{Y: up})

	m.bounces++
	m.lastBounce = m.now()

	m.bus.PublishBounce(BouncePerformedEvent{
		Count:     m.bounces,
		Remaining: m.tuning.MaxBounces - m.bounces,
	})
	return true
}

// Tick runs the per-tick auto-recovery: once the executing ball's speed
// falls under the stop threshold, motion is hard-zeroed and the machine
// returns to IDLE. Returns true when the ball came to rest this tick.
func (m *ShotMachine) Tick() bool {
	if m.phase != PhaseExecuting {
		return false
	}
	ball, ok := m.world.Ball()
	if !ok {
		return false
	}
	if ball.Speed() >= m.tuning.StopThreshold {
		return false
	}
	if math.Abs(ball.Position.Y-m.world.GroundY-ball.Radius) > BallRadius {
		// Still airborne; slow apex of a lob is not a stop.
		return false
	}

	m.world.ZeroMotion()
	m.phase = PhaseIdle
	m.params = ShotParams{}
	m.bus.PublishBallStopped(BallStoppedEvent{Position: ball.Position})
	return true
}

// ForceIdle resets the machine without publishing, for hole reload.
func (m *ShotMachine) ForceIdle() {
	m.phase = PhaseIdle
	m.params = ShotParams{}
	m.bounces = 0
	m.lastBounce = time.Time{}
}
