package game

import (
	"fmt"
	"log"
)

// ElementKind is the type of a course element in a descriptor.
type ElementKind string

const (
	ElementWall     ElementKind = "wall"
	ElementTarget   ElementKind = "target"
	ElementBumper   ElementKind = "bumper"
	ElementBoostPad ElementKind = "boost-pad"
	ElementSandTrap ElementKind = "sand-trap"
	ElementHole     ElementKind = "hole"
)

// CourseElement is one typed entry in a course descriptor.
type CourseElement struct {
	Kind     ElementKind `json:"kind"`
	Position Vec3        `json:"position"`
	Rotation float64     `json:"rotation"` // yaw, radians
	Scale    Vec3        `json:"scale"`
	Surface  SurfaceTag  `json:"surface,omitempty"`
}

// CourseDescriptor is the course loading contract: consumed once per hole
// load to populate the world, targets and hole.
type CourseDescriptor struct {
	Name     string          `json:"name"`
	Par      int             `json:"par"`
	ExtentX  float64         `json:"extent_x"`
	ExtentZ  float64         `json:"extent_z"`
	Start    Vec3            `json:"start"`
	Elements []CourseElement `json:"elements"`
}

// Validate checks the structural invariants: exactly one hole, positive
// extents and par, known element kinds.
func (d *CourseDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("course has no name")
	}
	if d.Par <= 0 {
		return fmt.Errorf("course %q: par must be positive", d.Name)
	}
	if d.ExtentX <= 0 || d.ExtentZ <= 0 {
		return fmt.Errorf("course %q: terrain extents must be positive", d.Name)
	}
	holes := 0
	for i, el := range d.Elements {
		switch el.Kind {
		case ElementWall, ElementTarget, ElementBumper, ElementBoostPad, ElementSandTrap:
		case ElementHole:
			holes++
		default:
			return fmt.Errorf("course %q: element %d has unknown kind %q", d.Name, i, el.Kind)
		}
	}
	if holes != 1 {
		return fmt.Errorf("course %q: needs exactly one hole, has %d", d.Name, holes)
	}
	return nil
}

// Target is a destructible obstacle the ball must strike. The hit flag is
// write-once per hole.
type Target struct {
	ID       string  `json:"id"`
	Position Vec3    `json:"position"`
	Radius   float64 `json:"radius"`
	Hit      bool    `json:"hit"`
}

// Hole is the goal volume. Capture is only evaluated once every target is
// hit.
type Hole struct {
	Position      Vec3    `json:"position"`
	CaptureRadius float64 `json:"capture_radius"`
}

// Course is a built descriptor: live targets and hole, with the colliders
// already registered in the world.
type Course struct {
	Descriptor *CourseDescriptor
	Targets    []*Target
	Hole       *Hole
}

// AllTargetsHit reports whether every target has been struck.
func (c *Course) AllTargetsHit() bool {
	for _, t := range c.Targets {
		if !t.Hit {
			return false
		}
	}
	return true
}

// RemainingTargets counts targets not yet hit.
func (c *Course) RemainingTargets() int {
	n := 0
	for _, t := range c.Targets {
		if !t.Hit {
			n++
		}
	}
	return n
}

// BuildCourse consumes a descriptor: walls and bumpers become solid
// colliders, boost pads and sand traps become ground patches, targets and
// the hole become proximity entities. Returns the ready world alongside the
// course.
func BuildCourse(d *CourseDescriptor) (*World, *Course, error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}

	w := NewWorld(d.ExtentX, d.ExtentZ)
	course := &Course{Descriptor: d}

	for i, el := range d.Elements {
		id := fmt.Sprintf("%s-%d", el.Kind, i)
		switch el.Kind {
		case ElementWall:
			tag := el.Surface
			if tag == "" {
				tag = SurfaceWall
			}
			w.AddBox(id, el.Position, el.Scale.Times(0.5), el.Rotation, tag)

		case ElementBumper:
			tag := el.Surface
			if tag == "" {
				tag = SurfaceBouncePad
			}
			w.AddBox(id, el.Position, el.Scale.Times(0.5), el.Rotation, tag)

		case ElementBoostPad:
			w.AddPatch(id, el.Position, el.Scale.Times(0.5), SurfaceBouncePad)

		case ElementSandTrap:
			w.AddPatch(id, el.Position, el.Scale.Times(0.5), SurfaceSand)

		case ElementTarget:
			radius := DefaultTargetRadius
			if el.Scale.X > 0 {
				radius = el.Scale.X / 2
			}
			course.Targets = append(course.Targets, &Target{
				ID:       id,
				Position: el.Position,
				Radius:   radius,
			})

		case ElementHole:
			radius := DefaultCaptureRadius
			if el.Scale.X > 0 {
				radius = el.Scale.X / 2
			}
			course.Hole = &Hole{Position: el.Position, CaptureRadius: radius}
		}
	}

	w.SpawnBall(d.Start)

	log.Printf("[COURSE] built %q: par=%d colliders=%d targets=%d",
		d.Name, d.Par, len(w.Colliders()), len(course.Targets))
	return w, course, nil
}

// DefaultCourses returns the embedded course catalog, used when the database
// has no rows (or no database is configured).
func DefaultCourses() []*CourseDescriptor {
	return []*CourseDescriptor{
		{
			Name:    "first-green",
			Par:     2,
			ExtentX: 20,
			ExtentZ: 12,
			Start:   NewVec3(-8, 0.25, 0),
			Elements: []CourseElement{
				{Kind: ElementWall, Position: NewVec3(0, 0.5, -6), Scale: NewVec3(20, 1, 0.5), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(0, 0.5, 6), Scale: NewVec3(20, 1, 0.5), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(-10, 0.5, 0), Scale: NewVec3(0.5, 1, 12), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(10, 0.5, 0), Scale: NewVec3(0.5, 1, 12), Surface: SurfaceWall},
				{Kind: ElementTarget, Position: NewVec3(0, 0.4, 2), Scale: NewVec3(0.8, 0.8, 0.8)},
				{Kind: ElementSandTrap, Position: NewVec3(4, 0, -2), Scale: NewVec3(3, 0.1, 3)},
				{Kind: ElementHole, Position: NewVec3(8, 0, 0), Scale: NewVec3(0.9, 0.1, 0.9)},
			},
		},
		{
			Name:    "switchback",
			Par:     3,
			ExtentX: 24,
			ExtentZ: 16,
			Start:   NewVec3(-10, 0.25, -5),
			Elements: []CourseElement{
				{Kind: ElementWall, Position: NewVec3(0, 0.5, -8), Scale: NewVec3(24, 1, 0.5), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(0, 0.5, 8), Scale: NewVec3(24, 1, 0.5), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(-12, 0.5, 0), Scale: NewVec3(0.5, 1, 16), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(12, 0.5, 0), Scale: NewVec3(0.5, 1, 16), Surface: SurfaceWall},
				{Kind: ElementWall, Position: NewVec3(0, 0.5, -1), Scale: NewVec3(14, 1, 0.5), Surface: SurfaceWall},
				{Kind: ElementBumper, Position: NewVec3(6, 0.4, 4), Scale: NewVec3(1, 0.8, 1)},
				{Kind: ElementTarget, Position: NewVec3(8, 0.4, -5), Scale: NewVec3(0.8, 0.8, 0.8)},
				{Kind: ElementTarget, Position: NewVec3(-6, 0.4, 4), Scale: NewVec3(0.8, 0.8, 0.8)},
				{Kind: ElementBoostPad, Position: NewVec3(0, 0, 4), Scale: NewVec3(3, 0.1, 2)},
				{Kind: ElementSandTrap, Position: NewVec3(9, 0, 5), Scale: NewVec3(3, 0.1, 3)},
				{Kind: ElementHole, Position: NewVec3(10, 0, 6), Scale: NewVec3(0.9, 0.1, 0.9)},
			},
		},
	}
}
