package dynamics

import (
	"math"

	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

type contactConstraintPoint struct {
	localAnchor1 vec.Vec2
	localAnchor2 vec.Vec2

	normalImpulse   float64
	tangentImpulse  float64
	positionImpulse float64

	normalMass  float64
	tangentMass float64

	separation   float64
	velocityBias float64
}

type contactConstraint struct {
	points     [settings.MaxManifoldPoints]contactConstraintPoint
	pointCount int
	normal     vec.Vec2
	manifold   *collision.Manifold

	body1, body2 *Body

	friction    float64
	restitution float64
}

// contactSolver runs sequential impulses over the touching contacts of one
// island.
type contactSolver struct {
	step        TimeStep
	constraints []contactConstraint
}

// newContactSolver builds constraints for contacts. The constraint slice
// is taken from scratch and handed back there, so consecutive islands
// share one allocation.
func newContactSolver(step TimeStep, contacts []*Contact, scratch *[]contactConstraint) *contactSolver {
	constraints := (*scratch)[:0]

	for _, contact := range contacts {
		if contact.manifoldCount == 0 {
			continue
		}
		b1 := contact.shape1.body
		b2 := contact.shape2.body
		m := &contact.manifold
		assert(m.PointCount > 0, "touching contact without points")

		v1, v2 := b1.linearVelocity, b2.linearVelocity
		w1, w2 := b1.angularVelocity, b2.angularVelocity

		c := contactConstraint{
			pointCount:  m.PointCount,
			normal:      m.Normal,
			manifold:    m,
			body1:       b1,
			body2:       b2,
			friction:    contact.friction,
			restitution: contact.restitution,
		}
		normal := c.normal
		tangent := vec.CrossVS(normal, 1)

		for k := 0; k < c.pointCount; k++ {
			cp := &m.Points[k]
			ccp := &c.points[k]

			ccp.normalImpulse = cp.NormalImpulse
			ccp.tangentImpulse = cp.TangentImpulse
			ccp.separation = cp.Separation

			r1 := cp.Position.Sub(b1.position)
			r2 := cp.Position.Sub(b2.position)
			ccp.localAnchor1 = vec.MulT(b1.r, r1)
			ccp.localAnchor2 = vec.MulT(b2.r, r2)

			r1Sqr := r1.Dot(r1)
			r2Sqr := r2.Dot(r2)

			rn1 := r1.Dot(normal)
			rn2 := r2.Dot(normal)
			kNormal := b1.invMass + b2.invMass
			kNormal += b1.invI*(r1Sqr-rn1*rn1) + b2.invI*(r2Sqr-rn2*rn2)
			assert(kNormal > vec.Epsilon, "contact normal mass is singular")
			ccp.normalMass = 1 / kNormal

			rt1 := r1.Dot(tangent)
			rt2 := r2.Dot(tangent)
			kTangent := b1.invMass + b2.invMass
			kTangent += b1.invI*(r1Sqr-rt1*rt1) + b2.invI*(r2Sqr-rt2*rt2)
			assert(kTangent > vec.Epsilon, "contact tangent mass is singular")
			ccp.tangentMass = 1 / kTangent

			// Restitution bias, plus a push for points that are not yet
			// touching.
			if ccp.separation > 0 {
				ccp.velocityBias = -60 * ccp.separation
			}
			dv := v2.Add(vec.CrossSV(w2, r2)).Sub(v1).Sub(vec.CrossSV(w1, r1))
			vRel := normal.Dot(dv)
			if vRel < -settings.VelocityThreshold {
				ccp.velocityBias += -c.restitution * vRel
			}
		}

		constraints = append(constraints, c)
	}

	*scratch = constraints
	return &contactSolver{step: step, constraints: constraints}
}

// initVelocityConstraints applies the impulses carried over from the last
// step, or clears them when warm starting is off.
func (s *contactSolver) initVelocityConstraints() {
	for i := range s.constraints {
		c := &s.constraints[i]
		b1, b2 := c.body1, c.body2
		normal := c.normal
		tangent := vec.CrossVS(normal, 1)

		if !s.step.WarmStarting {
			for j := 0; j < c.pointCount; j++ {
				c.points[j].normalImpulse = 0
				c.points[j].tangentImpulse = 0
			}
			continue
		}

		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]
			P := normal.Scale(ccp.normalImpulse).Add(tangent.Scale(ccp.tangentImpulse))
			r1 := vec.Mul(b1.r, ccp.localAnchor1)
			r2 := vec.Mul(b2.r, ccp.localAnchor2)
			b1.angularVelocity -= b1.invI * vec.Cross(r1, P)
			b1.linearVelocity = b1.linearVelocity.Sub(P.Scale(b1.invMass))
			b2.angularVelocity += b2.invI * vec.Cross(r2, P)
			b2.linearVelocity = b2.linearVelocity.Add(P.Scale(b2.invMass))
		}
	}
}

func (s *contactSolver) solveVelocityConstraints() {
	for i := range s.constraints {
		c := &s.constraints[i]
		b1, b2 := c.body1, c.body2
		invMass1, invI1 := b1.invMass, b1.invI
		invMass2, invI2 := b2.invMass, b2.invI
		normal := c.normal
		tangent := vec.CrossVS(normal, 1)

		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]
			r1 := vec.Mul(b1.r, ccp.localAnchor1)
			r2 := vec.Mul(b2.r, ccp.localAnchor2)

			dv := relativeVelocity(b1, b2, r1, r2)
			vn := dv.Dot(normal)
			lambda := -ccp.normalMass * (vn - ccp.velocityBias)

			newImpulse := math.Max(ccp.normalImpulse+lambda, 0)
			lambda = newImpulse - ccp.normalImpulse

			P := normal.Scale(lambda)
			b1.linearVelocity = b1.linearVelocity.Sub(P.Scale(invMass1))
			b1.angularVelocity -= invI1 * vec.Cross(r1, P)
			b2.linearVelocity = b2.linearVelocity.Add(P.Scale(invMass2))
			b2.angularVelocity += invI2 * vec.Cross(r2, P)

			ccp.normalImpulse = newImpulse
		}

		// Friction is bounded by the normal impulse of this iteration.
		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]
			r1 := vec.Mul(b1.r, ccp.localAnchor1)
			r2 := vec.Mul(b2.r, ccp.localAnchor2)

			dv := relativeVelocity(b1, b2, r1, r2)
			vt := dv.Dot(tangent)
			lambda := ccp.tangentMass * -vt

			maxFriction := c.friction * ccp.normalImpulse
			newImpulse := vec.Clamp(ccp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - ccp.tangentImpulse

			P := tangent.Scale(lambda)
			b1.linearVelocity = b1.linearVelocity.Sub(P.Scale(invMass1))
			b1.angularVelocity -= invI1 * vec.Cross(r1, P)
			b2.linearVelocity = b2.linearVelocity.Add(P.Scale(invMass2))
			b2.angularVelocity += invI2 * vec.Cross(r2, P)

			ccp.tangentImpulse = newImpulse
		}
	}
}

// finalizeVelocityConstraints stores impulses for the next step.
func (s *contactSolver) finalizeVelocityConstraints() {
	for i := range s.constraints {
		c := &s.constraints[i]
		for j := 0; j < c.pointCount; j++ {
			c.manifold.Points[j].NormalImpulse = c.points[j].normalImpulse
			c.manifold.Points[j].TangentImpulse = c.points[j].tangentImpulse
		}
	}
}

// solvePositionConstraints pushes overlapping bodies apart and reports
// whether the deepest overlap is within linear slop.
func (s *contactSolver) solvePositionConstraints() bool {
	minSeparation := 0.0

	for i := range s.constraints {
		c := &s.constraints[i]
		b1, b2 := c.body1, c.body2
		invMass1, invI1 := b1.invMass, b1.invI
		invMass2, invI2 := b2.invMass, b2.invI
		normal := c.normal

		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]
			r1 := vec.Mul(b1.r, ccp.localAnchor1)
			r2 := vec.Mul(b2.r, ccp.localAnchor2)

			p1 := b1.position.Add(r1)
			p2 := b2.position.Add(r2)
			dp := p2.Sub(p1)

			// Approximate the current separation.
			separation := dp.Dot(normal) + ccp.separation
			minSeparation = math.Min(minSeparation, separation)

			C := settings.ContactBaumgarte * vec.Clamp(separation+settings.LinearSlop, -settings.MaxLinearCorrection, 0)
			dImpulse := -ccp.normalMass * C

			impulse0 := ccp.positionImpulse
			ccp.positionImpulse = math.Max(impulse0+dImpulse, 0)
			dImpulse = ccp.positionImpulse - impulse0

			impulse := normal.Scale(dImpulse)

			b1.position = b1.position.Sub(impulse.Scale(invMass1))
			b1.setRotation(b1.rotation - invI1*vec.Cross(r1, impulse))

			b2.position = b2.position.Add(impulse.Scale(invMass2))
			b2.setRotation(b2.rotation + invI2*vec.Cross(r2, impulse))
		}
	}

	return minSeparation >= -settings.LinearSlop
}

func relativeVelocity(b1, b2 *Body, r1, r2 vec.Vec2) vec.Vec2 {
	return b2.linearVelocity.Add(vec.CrossSV(b2.angularVelocity, r2)).
		Sub(b1.linearVelocity).Sub(vec.CrossSV(b1.angularVelocity, r1))
}
