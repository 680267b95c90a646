package game

import (
	"math"
)

// Body is the dynamic rigid body for the ball. Position is mutated only by
// Step and Teleport; gameplay code acts through impulses, torques and
// velocity resets.
type Body struct {
	Position        Vec3    `json:"position"`
	Velocity        Vec3    `json:"velocity"`
	AngularVelocity Vec3    `json:"angular_velocity"`
	Radius          float64 `json:"radius"`
	Mass            float64 `json:"mass"`
}

// Speed is the magnitude of the linear velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Magnitude()
}

// ColliderKind distinguishes solid obstacles from flat ground-material zones.
type ColliderKind string

const (
	ColliderBox   ColliderKind = "box"   // solid obstacle: wall, bumper
	ColliderPatch ColliderKind = "patch" // ground zone: ice, sand, bounce pad
)

// Collider is a static course shape. The surface profile is attached directly
// to the collider; there is no side lookup table.
type Collider struct {
	ID          string
	Kind        ColliderKind
	Center      Vec3
	HalfExtents Vec3
	Yaw         float64 // rotation about the vertical axis, radians
	Profile     SurfaceProfile
}

// RayHit describes the nearest collider intersected by a ray.
type RayHit struct {
	Collider *Collider
	Point    Vec3
	Normal   Vec3
	Distance float64
}

const (
	spinSurfaceGrip  = 0.2  // tangential kick a spinning ball gets off a wall
	spinRollTransfer = 0.35 // how strongly top/back spin drives the rolling ball
	angularDamping   = 1.2
)

// World owns the rigid-body simulation: the single ball, the static course
// colliders, integration, ray casting and force application. Every other
// component acts through it.
type World struct {
	GroundY     float64
	HalfExtentX float64
	HalfExtentZ float64

	surfaces  *SurfaceSet
	colliders []*Collider
	ball      *Body
	valid     bool
}

// NewWorld creates an empty world with the given terrain extents (full sizes
// along X and Z).
func NewWorld(extentX, extentZ float64) *World {
	return &World{
		HalfExtentX: extentX / 2,
		HalfExtentZ: extentZ / 2,
		surfaces:    NewSurfaceSet(),
		valid:       true,
	}
}

func (w *World) Surfaces() *SurfaceSet { return w.surfaces }

// SpawnBall places the ball at the start position with zero motion.
func (w *World) SpawnBall(pos Vec3) {
	if pos.Y < w.GroundY+BallRadius {
		pos.Y = w.GroundY + BallRadius
	}
	w.ball = &Body{Position: pos, Radius: BallRadius, Mass: BallMass}
}

// Ball returns the ball body, or ok=false when the world has been invalidated
// (hole reload racing a poll) or no ball is spawned.
func (w *World) Ball() (*Body, bool) {
	if !w.valid || w.ball == nil {
		return nil, false
	}
	return w.ball, true
}

// Invalidate detaches the world from gameplay. All accessors short-circuit
// afterwards; callers skip their pass rather than fail hard.
func (w *World) Invalidate() {
	w.valid = false
	w.ball = nil
}

func (w *World) Valid() bool { return w.valid }

// AddBox adds a solid obstacle collider with the material of the given tag.
func (w *World) AddBox(id string, center, halfExtents Vec3, yaw float64, tag SurfaceTag) *Collider {
	c := &Collider{
		ID:          id,
		Kind:        ColliderBox,
		Center:      center,
		HalfExtents: halfExtents,
		Yaw:         yaw,
		Profile:     w.surfaces.ProfileFor(tag),
	}
	w.surfaces.attach(c)
	w.colliders = append(w.colliders, c)
	return c
}

// AddPatch adds a flat ground zone that overrides the ground material inside
// its footprint. Patches never block movement.
func (w *World) AddPatch(id string, center, halfExtents Vec3, tag SurfaceTag) *Collider {
	c := &Collider{
		ID:          id,
		Kind:        ColliderPatch,
		Center:      center,
		HalfExtents: halfExtents,
		Profile:     w.surfaces.ProfileFor(tag),
	}
	w.surfaces.attach(c)
	w.colliders = append(w.colliders, c)
	return c
}

func (w *World) Colliders() []*Collider { return w.colliders }

// ApplyImpulse applies an instantaneous momentum change to the ball.
func (w *World) ApplyImpulse(impulse Vec3) bool {
	ball, ok := w.Ball()
	if !ok {
		return false
	}
	ball.Velocity = ball.Velocity.Plus(impulse.Times(1 / ball.Mass))
	return true
}

// ApplyForce integrates a continuous force over dt.
func (w *World) ApplyForce(force Vec3, dt float64) bool {
	ball, ok := w.Ball()
	if !ok {
		return false
	}
	ball.Velocity = ball.Velocity.Plus(force.Times(dt / ball.Mass))
	return true
}

// ApplyTorque applies an angular impulse, using the solid-sphere moment of
// inertia.
func (w *World) ApplyTorque(torque Vec3) bool {
	ball, ok := w.Ball()
	if !ok {
		return false
	}
	inertia := 0.4 * ball.Mass * ball.Radius * ball.Radius
	ball.AngularVelocity = ball.AngularVelocity.Plus(torque.Times(1 / inertia))
	return true
}

// SetVelocity replaces the linear velocity outright.
func (w *World) SetVelocity(v Vec3) bool {
	ball, ok := w.Ball()
	if !ok {
		return false
	}
	ball.Velocity = v
	return true
}

// ZeroMotion hard-zeroes linear and angular velocity. Used instead of
// damping so a stopped ball never drifts.
func (w *World) ZeroMotion() bool {
	ball, ok := w.Ball()
	if !ok {
		return false
	}
	ball.Velocity = Vec3{}
	ball.AngularVelocity = Vec3{}
	return true
}

// Teleport writes the ball position directly and kills all motion. The only
// legal direct position write: hole load, out-of-bounds recovery and goal
// centering go through here.
func (w *World) Teleport(pos Vec3) bool {
	ball, ok := w.Ball()
	if !ok {
		return false
	}
	ball.Position = pos
	ball.Velocity = Vec3{}
	ball.AngularVelocity = Vec3{}
	return true
}

// groundProfileAt returns the ground material under an XZ position: the last
// added patch containing the point wins, else the default profile.
func (w *World) groundProfileAt(pos Vec3) SurfaceProfile {
	profile := w.surfaces.ProfileFor(SurfaceDefault)
	for _, c := range w.colliders {
		if c.Kind != ColliderPatch {
			continue
		}
		local := pos.Minus(c.Center)
		if math.Abs(local.X) <= c.HalfExtents.X && math.Abs(local.Z) <= c.HalfExtents.Z {
			profile = c.Profile
		}
	}
	return profile
}

// onGround reports whether the ball is resting on (or cutting into) the
// ground plane inside the terrain extents.
func (w *World) onGround(ball *Body) bool {
	if math.Abs(ball.Position.X) > w.HalfExtentX || math.Abs(ball.Position.Z) > w.HalfExtentZ {
		return false
	}
	return ball.Position.Y-ball.Radius <= w.GroundY+1e-9
}

// Step advances the simulation by dt. Fast travel is split into substeps so
// the ball cannot tunnel through thin colliders.
func (w *World) Step(dt float64) {
	ball, ok := w.Ball()
	if !ok {
		return
	}

	travel := ball.Speed() * dt
	substeps := 1
	if travel > MaxSubstepTravel {
		substeps = int(math.Ceil(travel / MaxSubstepTravel))
	}
	h := dt / float64(substeps)

	for i := 0; i < substeps; i++ {
		ball.Velocity.Y = fix(ball.Velocity.Y - Gravity*h)
		ball.Position = ball.Position.Plus(ball.Velocity.Times(h))

		w.collideGround(ball, h)
		for _, c := range w.colliders {
			if c.Kind == ColliderBox {
				w.collideBox(ball, c)
			}
		}

		// Angular velocity decays on its own; contact handling transfers
		// some of it into linear motion.
		ball.AngularVelocity = ball.AngularVelocity.Times(math.Max(0, 1-angularDamping*h))
	}
}

func (w *World) collideGround(ball *Body, h float64) {
	if math.Abs(ball.Position.X) > w.HalfExtentX || math.Abs(ball.Position.Z) > w.HalfExtentZ {
		return // off the terrain: keep falling
	}
	if ball.Position.Y-ball.Radius > w.GroundY {
		return
	}

	profile := w.groundProfileAt(ball.Position)
	ball.Position.Y = fix(w.GroundY + ball.Radius)

	if ball.Velocity.Y < 0 {
		rebound := fix(-ball.Velocity.Y * profile.Restitution)
		if rebound < GroundRestVelocity {
			rebound = 0
		}
		ball.Velocity.Y = rebound
	}

	// Rolling friction and spin transfer only act while grounded.
	keep := math.Max(0, 1-profile.Friction*GroundFrictionScale*h)
	ball.Velocity.X = fix(ball.Velocity.X * keep)
	ball.Velocity.Z = fix(ball.Velocity.Z * keep)

	if !ball.AngularVelocity.IsZero() {
		up := Vec3{Y: 1}
		roll := ball.AngularVelocity.Cross(up).Times(ball.Radius * spinRollTransfer * h)
		ball.Velocity = ball.Velocity.Plus(roll)
	}
}

// collideBox resolves sphere-vs-oriented-box contact: push out along the
// contact normal, reflect the normal velocity with the surface restitution,
// shave the tangent with surface friction.
func (w *World) collideBox(ball *Body, c *Collider) {
	local := ball.Position.Minus(c.Center).RotateY(-c.Yaw)

	clamped := Vec3{
		X: clamp(local.X, -c.HalfExtents.X, c.HalfExtents.X),
		Y: clamp(local.Y, -c.HalfExtents.Y, c.HalfExtents.Y),
		Z: clamp(local.Z, -c.HalfExtents.Z, c.HalfExtents.Z),
	}
	delta := local.Minus(clamped)
	distSq := delta.MagnitudeSquared()
	if distSq >= ball.Radius*ball.Radius || distSq == 0 {
		return
	}

	dist := math.Sqrt(distSq)
	normal := delta.Times(1 / dist).RotateY(c.Yaw)

	// Push out of penetration.
	ball.Position = ball.Position.Plus(normal.Times(ball.Radius - dist))

	vn := ball.Velocity.Dot(normal)
	if vn >= 0 {
		return // already separating
	}
	normalPart := normal.Times(vn)
	tangentPart := ball.Velocity.Minus(normalPart)

	tangentPart = tangentPart.Times(math.Max(0, 1-c.Profile.Friction*WallFrictionTangent))

	// Spin kicks the ball along the wall, pool-english style.
	if !ball.AngularVelocity.IsZero() {
		kick := ball.AngularVelocity.Cross(normal).Times(ball.Radius * spinSurfaceGrip)
		tangentPart = tangentPart.Plus(kick)
	}

	ball.Velocity = tangentPart.Plus(normalPart.Times(-c.Profile.Restitution))
}

// RayCast finds the nearest solid collider along a ray. Patches are not
// raycastable.
func (w *World) RayCast(origin, dir Vec3, maxDist float64) (*RayHit, bool) {
	if !w.valid {
		return nil, false
	}
	dir = dir.Normalize()
	if dir.IsZero() {
		return nil, false
	}

	var best *RayHit
	for _, c := range w.colliders {
		if c.Kind != ColliderBox {
			continue
		}
		if hit, ok := rayBox(origin, dir, maxDist, c); ok {
			if best == nil || hit.Distance < best.Distance {
				best = hit
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// rayBox is the slab test against an oriented box, run in the box's local
// frame.
func rayBox(origin, dir Vec3, maxDist float64, c *Collider) (*RayHit, bool) {
	o := origin.Minus(c.Center).RotateY(-c.Yaw)
	d := dir.RotateY(-c.Yaw)

	tMin, tMax := 0.0, maxDist
	normal := Vec3{}

	axes := [3]struct {
		o, d, half float64
		n          Vec3
	}{
		{o.X, d.X, c.HalfExtents.X, Vec3{X: 1}},
		{o.Y, d.Y, c.HalfExtents.Y, Vec3{Y: 1}},
		{o.Z, d.Z, c.HalfExtents.Z, Vec3{Z: 1}},
	}

	for _, a := range axes {
		if math.Abs(a.d) < 1e-12 {
			if a.o < -a.half || a.o > a.half {
				return nil, false
			}
			continue
		}
		t1 := (-a.half - a.o) / a.d
		t2 := (a.half - a.o) / a.d
		n := a.n.Times(-sign(a.d))
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
			normal = n
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return nil, false
		}
	}

	if tMin <= 0 || tMin > maxDist {
		return nil, false
	}

	return &RayHit{
		Collider: c,
		Point:    origin.Plus(dir.Times(tMin)),
		Normal:   normal.RotateY(c.Yaw),
		Distance: fix(tMin),
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
