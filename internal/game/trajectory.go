package game

// TrajectoryPoint is one sample of the aim preview. Bounce marks ground
// contacts.
type TrajectoryPoint struct {
	Position Vec3 `json:"position"`
	Bounce   bool `json:"bounce"`
}

// TrajectoryPreview is the ephemeral aim feedback: recomputed in full on
// every input change, never persisted.
type TrajectoryPreview struct {
	Points  []TrajectoryPoint `json:"points"`
	Bounces int               `json:"bounces"`
}

// PredictTrajectory integrates simple projectile motion for an aim preview:
// constant gravity, explicit time step, vertical reflection with an
// energy-loss factor at the ground plane. It never touches the live physics
// world and is cheap enough to re-run on every input change.
//
// groundY is the course ground plane; tuning supplies the same power
// multiplier the live shot uses so the preview matches the launch.
func PredictTrajectory(start Vec3, angle, power float64, groundY float64, tuning Tuning) TrajectoryPreview {
	curved := powerCurve(clamp(power, 0, 1))
	dir := DirectionFromAngle(angle)

	vel := dir.Times(curved * tuning.PowerMultiplier / BallMass)
	vel.Y = fix(UpwardLaunchBias / BallMass)

	pos := start
	preview := TrajectoryPreview{
		Points: make([]TrajectoryPoint, 0, TrajectoryMaxSteps),
	}

	rolling := false
	for step := 0; step < TrajectoryMaxSteps; step++ {
		if !rolling {
			vel.Y = fix(vel.Y - Gravity*TrajectoryDT)
		}
		pos = pos.Plus(vel.Times(TrajectoryDT))

		bounced := false
		if pos.Y-BallRadius <= groundY {
			pos.Y = fix(groundY + BallRadius)
			if !rolling {
				preview.Bounces++
				bounced = true
				vel.Y = fix(-vel.Y * TrajectoryEnergyLoss)
				if vel.Y < TrajectoryMinBounceSpeed {
					// Energy below the continuation threshold: the ball
					// stays down and rolls out.
					vel.Y = 0
					rolling = true
				}
			}
		}

		if rolling {
			vel.X = fix(vel.X * TrajectoryRollDecay)
			vel.Z = fix(vel.Z * TrajectoryRollDecay)
		}

		preview.Points = append(preview.Points, TrajectoryPoint{Position: pos, Bounce: bounced})

		if preview.Bounces >= TrajectoryMaxBounces {
			break
		}
		if rolling && vel.HorizontalMagnitude() < TrajectoryMinRollSpeed {
			break
		}
	}

	return preview
}
