package game

import (
	"math"
	"testing"
)

// Helper to create an open world with the ball spawned at the origin.
func setupWorld() *World {
	w := NewWorld(20, 20)
	w.SpawnBall(NewVec3(0, BallRadius, 0))
	return w
}

func TestSpawnBallClampsToGround(t *testing.T) {
	w := NewWorld(10, 10)
	w.SpawnBall(NewVec3(0, -3, 0))
	ball, ok := w.Ball()
	if !ok {
		t.Fatal("ball not spawned")
	}
	if ball.Position.Y != w.GroundY+BallRadius {
		t.Errorf("spawn below ground should clamp to resting height, got y=%v", ball.Position.Y)
	}
}

func TestInvalidateDetachesBall(t *testing.T) {
	w := setupWorld()
	w.Invalidate()

	if _, ok := w.Ball(); ok {
		t.Error("invalidated world should not expose the ball")
	}
	if w.ApplyImpulse(Vec3{X: 1}) {
		t.Error("impulse on invalidated world should be rejected")
	}
	if _, ok := w.RayCast(Vec3{}, Vec3{X: 1}, 5); ok {
		t.Error("raycast on invalidated world should miss")
	}
}

func TestGroundBounceUsesRestitution(t *testing.T) {
	w := setupWorld()
	ball, _ := w.Ball()
	ball.Position.Y = 0.2 // cutting into the ground
	ball.Velocity = Vec3{Y: -2}

	w.collideGround(ball, TickDT)

	if ball.Position.Y != w.GroundY+BallRadius {
		t.Errorf("ball should be pushed to resting height, got y=%v", ball.Position.Y)
	}
	// Default ground restitution is 0.5: -2 down becomes 1 up.
	if math.Abs(ball.Velocity.Y-1.0) > 1e-4 {
		t.Errorf("rebound = %v, want 1.0", ball.Velocity.Y)
	}
}

func TestGroundKillsTinyRebound(t *testing.T) {
	w := setupWorld()
	ball, _ := w.Ball()
	ball.Position.Y = 0.2
	ball.Velocity = Vec3{Y: -0.3} // rebound would be 0.15, under the rest cutoff

	w.collideGround(ball, TickDT)

	if ball.Velocity.Y != 0 {
		t.Errorf("tiny rebound should be killed, got vy=%v", ball.Velocity.Y)
	}
}

func TestGroundFrictionSlowsRolling(t *testing.T) {
	w := setupWorld()
	ball, _ := w.Ball()
	ball.Velocity = Vec3{X: 2}
	before := ball.Velocity.X

	for i := 0; i < 30; i++ {
		w.collideGround(ball, TickDT)
	}

	if ball.Velocity.X >= before {
		t.Errorf("rolling ball should slow down: before=%v after=%v", before, ball.Velocity.X)
	}
}

func TestSandPatchOverridesGroundProfile(t *testing.T) {
	w := setupWorld()
	w.AddPatch("trap", NewVec3(3, 0, 0), NewVec3(1, 0.1, 1), SurfaceSand)

	p := w.groundProfileAt(NewVec3(3, 0.25, 0))
	if p.Tag != SurfaceSand {
		t.Errorf("profile inside patch = %q, want sand", p.Tag)
	}

	p = w.groundProfileAt(NewVec3(0, 0.25, 0))
	if p.Tag != SurfaceDefault {
		t.Errorf("profile outside patch = %q, want default", p.Tag)
	}
}

func TestLastPatchWinsOnOverlap(t *testing.T) {
	w := setupWorld()
	w.AddPatch("a", NewVec3(0, 0, 0), NewVec3(2, 0.1, 2), SurfaceSand)
	w.AddPatch("b", NewVec3(0, 0, 0), NewVec3(1, 0.1, 1), SurfaceIce)

	if p := w.groundProfileAt(NewVec3(0, 0.25, 0)); p.Tag != SurfaceIce {
		t.Errorf("overlapping patches: got %q, want the later ice patch", p.Tag)
	}
}

func TestBoxCollisionReflectsVelocity(t *testing.T) {
	w := setupWorld()
	c := w.AddBox("wall", NewVec3(2, 0.25, 0), NewVec3(0.1, 0.5, 5), 0, SurfaceWall)

	ball, _ := w.Ball()
	ball.Position = NewVec3(1.7, 0.25, 0) // edge cutting into the wall face
	ball.Velocity = Vec3{X: 3}

	w.collideBox(ball, c)

	if ball.Velocity.X >= 0 {
		t.Errorf("velocity should reflect off the wall, got vx=%v", ball.Velocity.X)
	}
	// Pushed out of penetration, back toward the open side.
	if ball.Position.X+ball.Radius > 1.91 {
		t.Errorf("ball should be pushed out of the wall, got x=%v", ball.Position.X)
	}
}

func TestBoxCollisionIgnoresSeparatingBall(t *testing.T) {
	w := setupWorld()
	c := w.AddBox("wall", NewVec3(2, 0.25, 0), NewVec3(0.1, 0.5, 5), 0, SurfaceWall)

	ball, _ := w.Ball()
	ball.Position = NewVec3(1.7, 0.25, 0)
	ball.Velocity = Vec3{X: -3} // already leaving

	w.collideBox(ball, c)

	if ball.Velocity.X != -3 {
		t.Errorf("separating velocity should be untouched, got vx=%v", ball.Velocity.X)
	}
}

func TestStepDoesNotTunnelThroughThinWall(t *testing.T) {
	w := setupWorld()
	w.AddBox("wall", NewVec3(3, 0.5, 0), NewVec3(0.05, 1, 5), 0, SurfaceWall)

	// Fast enough to cross the wall in a single naive step.
	w.SetVelocity(Vec3{X: 30})
	for i := 0; i < 30; i++ {
		w.Step(TickDT)
	}

	ball, _ := w.Ball()
	if ball.Position.X > 3 {
		t.Errorf("ball tunneled through thin wall: x=%v", ball.Position.X)
	}
}

func TestRayCastFindsNearestWall(t *testing.T) {
	w := setupWorld()
	w.AddBox("far", NewVec3(5, 0.5, 0), NewVec3(0.1, 1, 2), 0, SurfaceWall)
	w.AddBox("near", NewVec3(1, 0.5, 0), NewVec3(0.1, 1, 2), 0, SurfaceWall)

	hit, ok := w.RayCast(NewVec3(0, 0.5, 0), Vec3{X: 1}, 10)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Collider.ID != "near" {
		t.Errorf("nearest collider = %q, want near", hit.Collider.ID)
	}
	if math.Abs(hit.Distance-0.9) > 1e-4 {
		t.Errorf("hit distance = %v, want 0.9", hit.Distance)
	}
	if hit.Normal.X != -1 {
		t.Errorf("hit normal = %+v, want -X", hit.Normal)
	}
}

func TestRayCastIgnoresPatches(t *testing.T) {
	w := setupWorld()
	w.AddPatch("pad", NewVec3(2, 0, 0), NewVec3(1, 0.1, 1), SurfaceBouncePad)

	if _, ok := w.RayCast(NewVec3(0, 0.25, 0), Vec3{X: 1}, 10); ok {
		t.Error("patches must not be raycastable")
	}
}

func TestApplyTorqueSpinsBall(t *testing.T) {
	w := setupWorld()
	w.ApplyTorque(Vec3{Y: 1})
	ball, _ := w.Ball()
	if ball.AngularVelocity.IsZero() {
		t.Error("torque should produce angular velocity")
	}
}

func TestTeleportKillsMotion(t *testing.T) {
	w := setupWorld()
	w.SetVelocity(Vec3{X: 5, Y: 2})
	w.ApplyTorque(Vec3{Z: 3})

	w.Teleport(NewVec3(4, BallRadius, 4))

	ball, _ := w.Ball()
	if !ball.Velocity.IsZero() || !ball.AngularVelocity.IsZero() {
		t.Error("teleport should zero all motion")
	}
	if ball.Position.X != 4 || ball.Position.Z != 4 {
		t.Errorf("teleport position = %+v", ball.Position)
	}
}
