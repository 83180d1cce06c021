package dynamics

// BoundaryResponse tells the world what to do with a body that left the
// world bounds.
type BoundaryResponse int

const (
	BoundaryKeep BoundaryResponse = iota
	BoundaryDestroy
)

func (r BoundaryResponse) String() string {
	if r == BoundaryDestroy {
		return "destroy"
	}
	return "keep"
}

// WorldListener receives structural events from the world.
type WorldListener interface {
	// NotifyJointDestroyed is called when a joint goes away because one of
	// its bodies was destroyed.
	NotifyJointDestroyed(j Joint)

	// NotifyBoundaryViolated is called once per step for each frozen body.
	NotifyBoundaryViolated(b *Body) BoundaryResponse
}

// CollisionFilter decides whether two shapes may collide. It is consulted
// once when their bounding boxes start to overlap.
type CollisionFilter interface {
	ShouldCollide(s1, s2 *Shape) bool
}

// FilterFunc adapts a function to CollisionFilter.
type FilterFunc func(s1, s2 *Shape) bool

func (f FilterFunc) ShouldCollide(s1, s2 *Shape) bool { return f(s1, s2) }

// DefaultFilter applies group and category rules. Shapes sharing a nonzero
// group always collide when the group is positive and never when it is
// negative. Otherwise each shape's mask must accept the other's category.
type DefaultFilter struct{}

func (DefaultFilter) ShouldCollide(s1, s2 *Shape) bool {
	f1, f2 := s1.filter, s2.filter
	if f1.GroupIndex == f2.GroupIndex && f1.GroupIndex != 0 {
		return f1.GroupIndex > 0
	}
	return f1.MaskBits&f2.CategoryBits != 0 && f1.CategoryBits&f2.MaskBits != 0
}
