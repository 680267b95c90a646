package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileForUnknownTagFallsBack(t *testing.T) {
	s := NewSurfaceSet()
	p := s.ProfileFor("lava")
	assert.Equal(t, SurfaceDefault, p.Tag)
}

func TestRetuneReachesExistingColliders(t *testing.T) {
	w := NewWorld(10, 10)
	wall := w.AddBox("wall", NewVec3(2, 0.5, 0), NewVec3(0.2, 1, 2), 0, SurfaceWall)
	ice := w.AddPatch("rink", NewVec3(-2, 0, 0), NewVec3(1, 0.1, 1), SurfaceIce)

	w.Surfaces().Retune(SurfaceWall, SurfaceProfile{Friction: 0.1, Restitution: 0.9})

	assert.Equal(t, 0.1, wall.Profile.Friction)
	assert.Equal(t, 0.9, wall.Profile.Restitution)
	assert.Equal(t, SurfaceWall, wall.Profile.Tag, "retune keeps the tag")
	assert.Equal(t, SurfaceIce, ice.Profile.Tag, "other tags are untouched")

	// Colliders added after the retune pick the new profile up too.
	later := w.AddBox("wall2", NewVec3(4, 0.5, 0), NewVec3(0.2, 1, 2), 0, SurfaceWall)
	assert.Equal(t, 0.9, later.Profile.Restitution)
}

func TestScaleRestitutionHitsProfilesAndColliders(t *testing.T) {
	w := NewWorld(10, 10)
	wall := w.AddBox("wall", NewVec3(2, 0.5, 0), NewVec3(0.2, 1, 2), 0, SurfaceWall)
	base := wall.Profile.Restitution

	w.Surfaces().ScaleRestitution(2.0)

	assert.InDelta(t, base*2, wall.Profile.Restitution, 1e-9)
	assert.InDelta(t, base*2, w.Surfaces().ProfileFor(SurfaceWall).Restitution, 1e-9)
}
