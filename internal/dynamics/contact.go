package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/settings"
)

type contactFlags uint8

const (
	contactIsland contactFlags = 1 << iota
	contactDestroy
)

// Contact tracks the narrow-phase state of two shapes whose bounding boxes
// overlap. It is touching when its manifold holds points.
type Contact struct {
	shape1, shape2 *Shape

	manifold      collision.Manifold
	manifoldCount int

	friction    float64
	restitution float64

	flags contactFlags
}

func newContact(s1, s2 *Shape) *Contact {
	// Mixed circle/polygon pairs are evaluated polygon first.
	if s1.Kind() == collision.KindCircle && s2.Kind() == collision.KindPolygon {
		s1, s2 = s2, s1
	}
	return &Contact{
		shape1:      s1,
		shape2:      s2,
		friction:    math.Sqrt(s1.friction * s2.friction),
		restitution: math.Max(s1.restitution, s2.restitution),
	}
}

func (c *Contact) Shape1() *Shape { return c.shape1 }
func (c *Contact) Shape2() *Shape { return c.shape2 }

// Manifold returns the contact manifold. Only meaningful when ManifoldCount
// is nonzero.
func (c *Contact) Manifold() *collision.Manifold { return &c.manifold }

func (c *Contact) ManifoldCount() int   { return c.manifoldCount }
func (c *Contact) IsTouching() bool     { return c.manifoldCount > 0 }
func (c *Contact) Friction() float64    { return c.friction }
func (c *Contact) Restitution() float64 { return c.restitution }
func (c *Contact) isFlagged() bool      { return c.flags&contactDestroy != 0 }
func (c *Contact) bothSleeping() bool {
	return c.shape1.body.IsSleeping() && c.shape2.body.IsSleeping()
}

// evaluate re-runs the narrow phase and carries accumulated impulses over
// to points whose feature key survived.
func (c *Contact) evaluate() {
	old := c.manifold

	collision.Collide(&c.manifold, c.shape1.geometry, c.shape1.transform(), c.shape2.geometry, c.shape2.transform(), false)

	var matched [settings.MaxManifoldPoints]bool
	for i := 0; i < c.manifold.PointCount; i++ {
		cp := &c.manifold.Points[i]
		cp.NormalImpulse = 0
		cp.TangentImpulse = 0
		key := cp.ID.Key()

		for j := 0; j < old.PointCount; j++ {
			if matched[j] {
				continue
			}
			if old.Points[j].ID.Key() == key {
				matched[j] = true
				cp.NormalImpulse = old.Points[j].NormalImpulse
				cp.TangentImpulse = old.Points[j].TangentImpulse
				break
			}
		}
	}

	if c.manifold.PointCount > 0 {
		c.manifoldCount = 1
	} else {
		c.manifoldCount = 0
	}
}
