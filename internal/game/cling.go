package game

import "math"

// ClingDetector decides, every tick, whether the ball should hug a nearby
// wall. Activation needs three things at once: elevation above the ground,
// near-zero vertical speed, and at least one wall within ray reach. While
// active it cancels most of gravity, damps climbing, pulls the ball into the
// wall and bleeds horizontal speed for control. Inactive ticks are free of
// side effects.
type ClingDetector struct {
	world *World
	bus   *Bus

	active bool
	normal Vec3 // accumulated inward surface normal while active
}

func NewClingDetector(world *World, bus *Bus) *ClingDetector {
	return &ClingDetector{world: world, bus: bus}
}

func (d *ClingDetector) Active() bool { return d.active }

// Normal is the accumulated inward surface normal of the clung walls,
// meaningful while Active.
func (d *ClingDetector) Normal() Vec3 { return d.normal }

// sampleWalls casts the fixed ray ring (four axes plus four diagonals)
// outward from the ball center, slightly beyond its radius, and accumulates
// the inward normal of every wall-tagged hit.
func (d *ClingDetector) sampleWalls(ball *Body) (Vec3, int) {
	accum := Vec3{}
	hits := 0
	for i := 0; i < ClingRayCount; i++ {
		angle := float64(i) * (2 * math.Pi / ClingRayCount)
		dir := Vec3{X: fix(math.Cos(angle)), Z: fix(math.Sin(angle))}
		hit, ok := d.world.RayCast(ball.Position, dir, ClingRayReach)
		if !ok {
			continue
		}
		if hit.Collider.Profile.Tag != SurfaceWall {
			continue
		}
		accum = accum.Plus(dir.Invert())
		hits++
	}
	return accum.Normalize(), hits
}

// Tick evaluates the cling conditions and, when they all hold, applies the
// per-tick correction forces. It is a continuous correction, not an event;
// the bus only sees activation edges.
func (d *ClingDetector) Tick(dt float64) {
	ball, ok := d.world.Ball()
	if !ok {
		d.setActive(false)
		return
	}
	if ball.Speed() < StopSpeedThreshold {
		d.setActive(false)
		return
	}

	elevation := ball.Position.Y - d.world.GroundY
	if elevation <= ClingMinHeight {
		d.setActive(false)
		return
	}
	if math.Abs(ball.Velocity.Y) >= ClingMaxVerticalSpeed {
		d.setActive(false)
		return
	}

	normal, hits := d.sampleWalls(ball)
	if hits == 0 {
		d.setActive(false)
		return
	}

	d.normal = normal
	d.setActive(true)

	// Cancel most of gravity's pull; the remainder keeps the slide downward.
	d.world.ApplyForce(Vec3{Y: Gravity * ball.Mass * ClingGravityCancel}, dt)

	// Any climb decays quickly.
	if ball.Velocity.Y > 0 {
		ball.Velocity.Y = fix(ball.Velocity.Y * ClingUpwardDamp)
	}

	// Pull toward the wall, against the accumulated inward normal.
	d.world.ApplyForce(normal.Invert().Times(ClingInwardForce), dt)

	// Uniform horizontal decay for controllability.
	ball.Velocity.X = fix(ball.Velocity.X * ClingHorizontalDecay)
	ball.Velocity.Z = fix(ball.Velocity.Z * ClingHorizontalDecay)
}

func (d *ClingDetector) setActive(active bool) {
	if active == d.active {
		return
	}
	d.active = active
	if active {
		d.bus.PublishWallClingStart(WallClingStartEvent{Normal: d.normal})
	} else {
		d.normal = Vec3{}
		d.bus.PublishWallClingEnd(WallClingEndEvent{})
	}
}

// Reset clears detector state without publishing, for hole reload.
func (d *ClingDetector) Reset() {
	d.active = false
	d.normal = Vec3{}
}
