package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

const maxTOIIterations = 50

// sweep is the motion of a body over the step as seen by the time of
// impact search.
type sweep struct {
	p0 vec.Vec2
	a0 float64
	v  vec.Vec2
	w  float64
}

func (s sweep) transform(t float64) vec.Transform {
	return vec.NewTransform(s.p0.Add(s.v.Scale(t)), s.a0+t*s.w)
}

// bodySweep returns the motion of b over the step. A body already resolved
// stays still at its time of impact pose.
func bodySweep(b *Body) sweep {
	if b.flags&flagTOIResolved != 0 {
		t := b.toi
		return sweep{
			p0: b.position0.Scale(1 - t).Add(b.position.Scale(t)),
			a0: (1-t)*b.rotation0 + t*b.rotation,
		}
	}
	return sweep{
		p0: b.position0,
		a0: b.rotation0,
		v:  b.position.Sub(b.position0),
		w:  b.rotation - b.rotation0,
	}
}

// conservativeTOI computes the fraction of the step at which two shapes
// first come within linear slop of each other, by conservative advancement
// over their core shapes. It returns 1 when there is no impact, when the
// pair does not need continuous collision, or when the search fails.
func conservativeTOI(s1, s2 *Shape) float64 {
	b1, b2 := s1.body, s2.body

	if b1.flags&(flagStatic|flagFast) == 0 && b2.flags&(flagStatic|flagFast) == 0 {
		return 1
	}
	resolved1 := b1.flags&flagTOIResolved != 0
	resolved2 := b2.flags&flagTOIResolved != 0
	if resolved1 && resolved2 {
		return 1
	}

	sw1, sw2 := bodySweep(b1), bodySweep(b2)
	r1, r2 := s1.MaxRadius(), s2.MaxRadius()
	p1, p2 := collision.MakeProxy(s1.geometry), collision.MakeProxy(s2.geometry)

	s := 0.0
	invRelativeVelocity := 0.0

	for iter := 0; iter < maxTOIIterations; iter++ {
		xf1 := collision.Frame(s1.geometry, sw1.transform(s))
		xf2 := collision.Frame(s2.geometry, sw2.transform(s))
		out := collision.Distance(p1, xf1, p2, xf2)

		if out.Distance < settings.LinearSlop {
			if iter == 0 {
				s = 1
			}
			break
		}

		if iter == 0 {
			d, _ := out.PointB.Sub(out.PointA).Normalize()
			rv := d.Dot(sw1.v.Sub(sw2.v)) + math.Abs(sw1.w)*r1 + math.Abs(sw2.w)*r2
			if math.Abs(rv) < vec.Epsilon {
				s = 1
				break
			}
			invRelativeVelocity = 1 / rv
		}

		s2 := s + out.Distance*invRelativeVelocity
		if s2 < 0 || 1 < s2 {
			s = 1
			break
		}
		if s2 < (1+100*vec.Epsilon)*s {
			break
		}
		s = s2
	}

	b1.toi = math.Min(b1.toi, s)
	b2.toi = math.Min(b2.toi, s)
	return s
}
