package metrics

import (
	"math"

	"github.com/san-kum/boxsim/internal/dynamics"
)

// MaxPenetration is the deepest overlap seen in any contact manifold,
// reported as a positive depth.
type MaxPenetration struct {
	name  string
	depth float64
}

func NewMaxPenetration() *MaxPenetration {
	return &MaxPenetration{name: "max_penetration"}
}

func (p *MaxPenetration) Name() string { return p.name }

func (p *MaxPenetration) Observe(w *dynamics.World, t float64) {
	for _, c := range w.Contacts() {
		if !c.IsTouching() {
			continue
		}
		m := c.Manifold()
		for i := 0; i < m.PointCount; i++ {
			p.depth = max(p.depth, -m.Points[i].Separation)
		}
	}
}

func (p *MaxPenetration) Value() float64 { return p.depth }
func (p *MaxPenetration) Reset()         { p.depth = 0 }

// ContactCount is the mean number of touching contacts per step.
type ContactCount struct {
	name    string
	samples int
	total   int
}

func NewContactCount() *ContactCount {
	return &ContactCount{name: "contacts"}
}

func (c *ContactCount) Name() string { return c.name }

func (c *ContactCount) Observe(w *dynamics.World, t float64) {
	for _, contact := range w.Contacts() {
		if contact.IsTouching() {
			c.total++
		}
	}
	c.samples++
}

func (c *ContactCount) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.total) / float64(c.samples)
}

func (c *ContactCount) Reset() {
	c.samples = 0
	c.total = 0
}

// SleepRatio is the fraction of non-static bodies asleep at the last
// observation.
type SleepRatio struct {
	name  string
	ratio float64
}

func NewSleepRatio() *SleepRatio {
	return &SleepRatio{name: "sleep_ratio"}
}

func (s *SleepRatio) Name() string { return s.name }

func (s *SleepRatio) Observe(w *dynamics.World, t float64) {
	dynamic, sleeping := 0, 0
	for _, b := range w.Bodies() {
		if b.IsStatic() {
			continue
		}
		dynamic++
		if b.IsSleeping() {
			sleeping++
		}
	}
	s.ratio = 0
	if dynamic > 0 {
		s.ratio = float64(sleeping) / float64(dynamic)
	}
}

func (s *SleepRatio) Value() float64 { return s.ratio }
func (s *SleepRatio) Reset()         { s.ratio = 0 }

// JointError is the largest constraint violation seen: the anchor gap of
// revolute joints and the length error of distance joints.
type JointError struct {
	name string
	max  float64
}

func NewJointError() *JointError {
	return &JointError{name: "joint_error"}
}

func (j *JointError) Name() string { return j.name }

func (j *JointError) Observe(w *dynamics.World, t float64) {
	for _, joint := range w.Joints() {
		j.max = max(j.max, jointError(joint))
	}
}

func jointError(joint dynamics.Joint) float64 {
	switch jj := joint.(type) {
	case *dynamics.RevoluteJoint:
		return jj.Anchor2().Sub(jj.Anchor1()).Length()
	case *dynamics.DistanceJoint:
		return math.Abs(jj.Anchor2().Sub(jj.Anchor1()).Length() - jj.Length())
	default:
		return 0
	}
}

func (j *JointError) Value() float64 { return j.max }
func (j *JointError) Reset()         { j.max = 0 }
