package game

import "log"

// SurfaceTag classifies a course surface for physics and gameplay purposes.
type SurfaceTag string

const (
	SurfaceDefault   SurfaceTag = "default"
	SurfaceWall      SurfaceTag = "wall"
	SurfaceIce       SurfaceTag = "ice"
	SurfaceSand      SurfaceTag = "sand"
	SurfaceBouncePad SurfaceTag = "bounce-pad"
)

// SurfaceProfile is the physics material for a surface tag.
type SurfaceProfile struct {
	Friction    float64    `json:"friction"`
	Restitution float64    `json:"restitution"`
	Tag         SurfaceTag `json:"tag"`
}

// DefaultProfiles returns the stock tag-to-material mapping. Walls carry high
// friction so clinging is viable; sand kills nearly all rebound; bounce pads
// return more energy than they receive.
func DefaultProfiles() map[SurfaceTag]SurfaceProfile {
	return map[SurfaceTag]SurfaceProfile{
		SurfaceDefault:   {Friction: 0.30, Restitution: 0.50, Tag: SurfaceDefault},
		SurfaceWall:      {Friction: 0.90, Restitution: 0.40, Tag: SurfaceWall},
		SurfaceIce:       {Friction: 0.02, Restitution: 0.50, Tag: SurfaceIce},
		SurfaceSand:      {Friction: 0.95, Restitution: 0.05, Tag: SurfaceSand},
		SurfaceBouncePad: {Friction: 0.30, Restitution: 1.25, Tag: SurfaceBouncePad},
	}
}

// SurfaceSet owns the tag-to-profile mapping and tracks every collider built
// from it, so a runtime retune reaches colliders that already exist rather
// than only future ones.
type SurfaceSet struct {
	profiles map[SurfaceTag]SurfaceProfile
	attached []*Collider
}

func NewSurfaceSet() *SurfaceSet {
	return &SurfaceSet{profiles: DefaultProfiles()}
}

// ProfileFor returns the material for a tag, falling back to the default
// profile for unknown tags.
func (s *SurfaceSet) ProfileFor(tag SurfaceTag) SurfaceProfile {
	if p, ok := s.profiles[tag]; ok {
		return p
	}
	log.Printf("[SURFACE] unknown tag %q, using default profile", tag)
	return s.profiles[SurfaceDefault]
}

// attach registers a collider so later retunes can reach it.
func (s *SurfaceSet) attach(c *Collider) {
	s.attached = append(s.attached, c)
}

// Retune replaces the profile for a tag and pushes the change to every
// already-attached collider carrying that tag.
func (s *SurfaceSet) Retune(tag SurfaceTag, profile SurfaceProfile) {
	profile.Tag = tag
	s.profiles[tag] = profile
	updated := 0
	for _, c := range s.attached {
		if c.Profile.Tag == tag {
			c.Profile = profile
			updated++
		}
	}
	log.Printf("[SURFACE] retuned tag %q (friction=%.2f restitution=%.2f) on %d colliders",
		tag, profile.Friction, profile.Restitution, updated)
}

// ScaleRestitution multiplies every profile's restitution by the given
// factor, existing colliders included. Used by the global bouncy modifier.
func (s *SurfaceSet) ScaleRestitution(factor float64) {
	for tag, p := range s.profiles {
		p.Restitution = fix(p.Restitution * factor)
		s.profiles[tag] = p
	}
	for _, c := range s.attached {
		c.Profile.Restitution = fix(c.Profile.Restitution * factor)
	}
}
