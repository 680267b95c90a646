package game

import (
	"math"
	"testing"
)

func TestFixRoundsToFourDecimals(t *testing.T) {
	if got := fix(1.23456789); got != 1.2346 {
		t.Errorf("fix(1.23456789) = %v, want 1.2346", got)
	}
	if got := fix(math.NaN()); got != 0 {
		t.Errorf("fix(NaN) = %v, want 0", got)
	}
}

func TestDirectionFromAngle(t *testing.T) {
	d := DirectionFromAngle(0)
	if d.X != 1 || d.Y != 0 || d.Z != 0 {
		t.Errorf("angle 0 should point along +X, got %+v", d)
	}

	d = DirectionFromAngle(math.Pi / 2)
	if math.Abs(d.X) > 1e-4 || math.Abs(d.Z-1) > 1e-4 {
		t.Errorf("angle pi/2 should point along +Z, got %+v", d)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	if got := (Vec3{}).Normalize(); !got.IsZero() {
		t.Errorf("normalizing zero vector should stay zero, got %+v", got)
	}
}

func TestHorizontalDistanceIgnoresY(t *testing.T) {
	a := NewVec3(0, 10, 0)
	b := NewVec3(3, -2, 4)
	if got := a.HorizontalDistanceTo(b); got != 5 {
		t.Errorf("horizontal distance = %v, want 5", got)
	}
}

func TestRotateYQuarterTurn(t *testing.T) {
	v := NewVec3(1, 2, 0)
	r := v.RotateY(math.Pi / 2)
	if math.Abs(r.X) > 1e-4 || math.Abs(r.Z+1) > 1e-4 || r.Y != 2 {
		t.Errorf("quarter turn of +X should give -Z, got %+v", r)
	}
}

func TestCrossFollowsRightHandRule(t *testing.T) {
	got := Vec3{X: 1}.Cross(Vec3{Y: 1})
	if got.Z != 1 || got.X != 0 || got.Y != 0 {
		t.Errorf("X cross Y = %+v, want +Z", got)
	}
}
