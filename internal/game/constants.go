package game

import "time"

// Physics and gameplay tuning constants. Values the surrounding application
// may need to override at deploy time (power multiplier, bounce budget, poll
// cadence) live in Tuning instead.

const (
	Gravity    = 9.81
	BallRadius = 0.25
	BallMass   = 0.5
	TickRate   = 60
	TickDT     = 1.0 / float64(TickRate)

	// Launch
	PowerCurveWeight = 0.7  // quadratic share of the power curve
	PowerCurveFloor  = 0.05 // curve output at power 0; keeps the impulse non-zero
	UpwardLaunchBias = 0.35
	HitOffsetScale   = 0.12 // radians of launch-direction perturbation per unit of side spin

	// Spin
	SpinNoiseThreshold   = 0.05
	SpinTorqueMultiplier = 2.0
	SpinPowerGain        = 1.5 // torque grows with curved power

	// Stop detection
	StopSpeedThreshold = 0.08

	// Mid-flight bounce
	BounceImpulse        = 2.2
	BounceSpeedCeiling   = 8.0
	BounceHorizontalKeep = 0.9
	BounceUpBoost        = 1.25

	// Wall clinging
	ClingRayCount         = 8
	ClingRayReach         = BallRadius + 0.12
	ClingMinHeight        = 0.5
	ClingMaxVerticalSpeed = 1.5
	ClingGravityCancel    = 0.85
	ClingInwardForce      = 2.0
	ClingUpwardDamp       = 0.6
	ClingHorizontalDecay  = 0.985

	// Targets and goal
	TargetNudgeImpulse   = 0.6
	DefaultTargetRadius  = 0.4
	DefaultCaptureRadius = 0.45

	// Trajectory preview
	TrajectoryDT             = 1.0 / 30.0
	TrajectoryMaxSteps       = 120
	TrajectoryMaxBounces     = 5
	TrajectoryEnergyLoss     = 0.6
	TrajectoryMinBounceSpeed = 0.5
	TrajectoryMinRollSpeed   = 0.5
	TrajectoryRollDecay      = 0.96

	// World
	OutOfBoundsY        = -5.0
	MaxSubstepTravel    = BallRadius * 0.5 // CCD: max distance covered per substep
	GroundRestVelocity  = 0.25             // vertical bounces below this are killed
	GroundFrictionScale = 2.2
	WallFrictionTangent = 0.25
)

// Tuning collects the knobs the config layer exposes. Everything else is a
// plain constant above.
type Tuning struct {
	PowerMultiplier  float64
	MaxBounces       int
	BounceCooldown   time.Duration
	StopThreshold    float64
	PollInterval     time.Duration
	RestitutionScale float64 // global "bouncy day" modifier, 1.0 = normal
}

// DefaultTuning returns the stock gameplay tuning.
func DefaultTuning() Tuning {
	return Tuning{
		PowerMultiplier:  12.0,
		MaxBounces:       3,
		BounceCooldown:   450 * time.Millisecond,
		StopThreshold:    StopSpeedThreshold,
		PollInterval:     100 * time.Millisecond,
		RestitutionScale: 1.0,
	}
}
