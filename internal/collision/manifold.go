package collision

import (
	"github.com/san-kum/boxsim/internal/settings"
	"github.com/san-kum/boxsim/internal/vec"
)

// NullFeature marks an unused feature index.
const NullFeature = 255

// Features identifies the pair of polygon features that produced a contact
// point, so the point can be matched across steps.
type Features struct {
	ReferenceEdge  uint8
	IncidentEdge   uint8
	IncidentVertex uint8
	Flip           uint8
}

// ContactID packs Features into a comparable key.
type ContactID struct {
	Features Features
}

// Key returns the packed 32-bit identity of the contact point.
func (id ContactID) Key() uint32 {
	f := id.Features
	return uint32(f.ReferenceEdge) | uint32(f.IncidentEdge)<<8 | uint32(f.IncidentVertex)<<16 | uint32(f.Flip)<<24
}

// ManifoldPoint is a single contact point with its accumulated impulses.
type ManifoldPoint struct {
	Position        vec.Vec2
	Separation      float64
	NormalImpulse   float64
	TangentImpulse  float64
	PositionImpulse float64
	ID              ContactID
}

// Manifold holds up to two contact points sharing a normal that points
// from shape1 to shape2.
type Manifold struct {
	Points     [settings.MaxManifoldPoints]ManifoldPoint
	Normal     vec.Vec2
	PointCount int
}

// Reset clears the manifold for reuse.
func (m *Manifold) Reset() {
	*m = Manifold{}
}

func nullID() ContactID {
	return ContactID{Features: Features{
		ReferenceEdge:  NullFeature,
		IncidentEdge:   NullFeature,
		IncidentVertex: NullFeature,
	}}
}
