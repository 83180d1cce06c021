package dynamics

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/san-kum/boxsim/internal/broadphase"
	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/vec"
)

// StepStats summarizes the most recent step.
type StepStats struct {
	Islands            int
	Contacts           int
	TouchingContacts   int
	TOIEvents          int
	PositionIterations int
}

// World owns bodies, joints and contacts and advances them in time.
type World struct {
	def WorldDef
	log logr.Logger

	broadPhase     *broadphase.BroadPhase
	contactManager contactManager

	bodies   []*Body
	contacts []*Contact
	joints   []Joint

	// pendingBodies holds bodies passed to DestroyBody until the next step
	// finalizes them.
	pendingBodies []*Body

	groundBody *Body

	listener WorldListener
	filter   CollisionFilter

	island        island
	stack         []*Body
	seeds         []*Body
	solverScratch []contactConstraint

	positionIterations int
	stats              StepStats
	stepCount          int
	time               float64
}

// NewWorld creates an empty world with a ground body that has no shapes.
func NewWorld(def WorldDef, opts ...Option) *World {
	w := &World{
		def:    def,
		log:    logr.Discard(),
		filter: DefaultFilter{},
	}
	for _, opt := range opts {
		opt(w)
	}

	w.contactManager.world = w
	w.broadPhase = broadphase.New(def.Bounds, &w.contactManager)

	w.island.gravity = def.Gravity
	w.island.scratch = &w.solverScratch
	w.island.log = w.log

	ground, err := newBody(NewBodyDef(), w)
	assert(err == nil, "ground body")
	w.groundBody = ground
	w.bodies = append(w.bodies, ground)

	w.log.V(1).Info("world created", "bounds", def.Bounds, "gravity", def.Gravity)
	return w
}

// SetListener replaces the world listener. A nil listener is allowed.
func (w *World) SetListener(l WorldListener) { w.listener = l }

// SetFilter replaces the collision filter. A nil filter lets every pair
// through the remaining checks.
func (w *World) SetFilter(f CollisionFilter) { w.filter = f }

func (w *World) Def() WorldDef            { return w.def }
func (w *World) Gravity() vec.Vec2        { return w.def.Gravity }
func (w *World) Bounds() collision.AABB   { return w.def.Bounds }
func (w *World) GroundBody() *Body        { return w.groundBody }
func (w *World) Bodies() []*Body          { return w.bodies }
func (w *World) Joints() []Joint          { return w.joints }
func (w *World) Contacts() []*Contact     { return w.contacts }
func (w *World) BodyCount() int           { return len(w.bodies) }
func (w *World) JointCount() int          { return len(w.joints) }
func (w *World) ContactCount() int        { return len(w.contacts) }
func (w *World) PositionIterations() int  { return w.positionIterations }
func (w *World) LastStepStats() StepStats { return w.stats }
func (w *World) StepCount() int           { return w.stepCount }
func (w *World) Time() float64            { return w.time }
func (w *World) Logger() logr.Logger      { return w.log }

// SetGravity changes gravity for the following steps.
func (w *World) SetGravity(g vec.Vec2) {
	w.def.Gravity = g
	w.island.gravity = g
}

// CreateBody validates bd and adds the body to the world. A body whose
// shapes start outside the world bounds is created frozen.
func (w *World) CreateBody(bd *BodyDef) (*Body, error) {
	if bd == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidBody)
	}
	if err := bd.Validate(); err != nil {
		return nil, err
	}
	b, err := newBody(bd, w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	b.attach()
	w.bodies = append(w.bodies, b)
	return b, nil
}

// DestroyBody removes b from the world. Its joints and shapes are torn down
// at the start of the next step. Repeated calls are ignored.
func (w *World) DestroyBody(b *Body) {
	if b == nil || b.IsDestroyed() {
		return
	}
	assert(b != w.groundBody, "destroying the ground body")

	if i := slices.Index(w.bodies, b); i >= 0 {
		w.bodies = slices.Delete(w.bodies, i, i+1)
	}
	b.flags |= flagDestroy
	w.pendingBodies = append(w.pendingBodies, b)
	w.log.V(1).Info("body destroy deferred", "position", b.position, "shapes", len(b.shapes))
}

// cleanBodyList finalizes bodies passed to DestroyBody.
func (w *World) cleanBodyList() {
	if len(w.pendingBodies) == 0 {
		return
	}
	w.contactManager.destroyImmediate = true

	for _, b := range w.pendingBodies {
		for len(b.joints) > 0 {
			j := b.joints[0].Joint
			if w.listener != nil {
				w.listener.NotifyJointDestroyed(j)
			}
			w.log.V(1).Info("joint destroyed with body", "type", j.Type())
			w.DestroyJoint(j)
		}

		for _, s := range b.shapes {
			s.destroyProxy(w.broadPhase)
		}
		w.log.V(1).Info("body destroyed", "position", b.position)
	}

	clear(w.pendingBodies)
	w.pendingBodies = w.pendingBodies[:0]
	w.contactManager.destroyImmediate = false
}

// CreateJoint validates def and links the new joint into both bodies.
func (w *World) CreateJoint(def JointDef) (Joint, error) {
	j, err := newJoint(def, w.groundBody)
	if err != nil {
		return nil, err
	}

	b1, b2 := j.Body1(), j.Body2()
	w.joints = append(w.joints, j)
	b1.linkJoint(b2, j)
	b2.linkJoint(b1, j)

	if !j.CollideConnected() {
		w.resetProxies(b1, b2)
	}
	return j, nil
}

// DestroyJoint unlinks j from its bodies and wakes them.
func (w *World) DestroyJoint(j Joint) {
	i := slices.Index(w.joints, j)
	if i < 0 {
		return
	}
	w.joints = slices.Delete(w.joints, i, i+1)

	b1, b2 := j.Body1(), j.Body2()
	b1.WakeUp()
	b2.WakeUp()
	b1.unlinkJoint(j)
	b2.unlinkJoint(j)

	if !j.CollideConnected() {
		w.resetProxies(b1, b2)
	}
}

// resetProxies makes the broad phase offer the pairs of the body with fewer
// shapes again, so contacts follow the joint's collide flag.
func (w *World) resetProxies(b1, b2 *Body) {
	b := b2
	if len(b1.shapes) < len(b2.shapes) {
		b = b1
	}
	for _, s := range b.shapes {
		s.resetProxy(w.broadPhase)
	}
}

// Query returns up to maxCount shapes whose proxies overlap aabb.
func (w *World) Query(aabb collision.AABB, maxCount int) []*Shape {
	found := w.broadPhase.Query(aabb, maxCount)
	shapes := make([]*Shape, 0, len(found))
	for _, u := range found {
		shapes = append(shapes, u.(*Shape))
	}
	return shapes
}

// Step advances the world by dt, running iterations velocity and position
// passes per island.
func (w *World) Step(dt float64, iterations int) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error(fmt.Errorf("%v", r), "step panicked", "step", w.stepCount, "time", w.time)
			panic(r)
		}
	}()

	step := TimeStep{
		Dt:                 dt,
		Iterations:         iterations,
		WarmStarting:       w.def.WarmStarting,
		PositionCorrection: w.def.PositionCorrection,
	}
	if dt > 0 {
		step.InvDt = 1 / dt
	}
	w.stats = StepStats{}

	// Handle deferred contact destruction.
	w.contactManager.cleanContactList()

	// Handle deferred body destruction.
	w.cleanBodyList()

	// Integrate velocities, solve velocity constraints, and integrate positions.
	w.integrate(step)

	// Update contacts.
	w.broadPhase.Commit()
	w.notifyFrozen()
	w.contactManager.collide(step)

	if step.PositionCorrection {
		w.solvePositionConstraints(step)
	}

	w.stepCount++
	w.time += dt
	w.stats.Contacts = len(w.contacts)
	for _, c := range w.contacts {
		if c.IsTouching() {
			w.stats.TouchingContacts++
		}
	}
	w.stats.TOIEvents = w.contactManager.toiEvents
	w.stats.PositionIterations = w.positionIterations

	w.log.V(2).Info("step",
		"step", w.stepCount,
		"bodies", len(w.bodies),
		"contacts", w.stats.Contacts,
		"touching", w.stats.TouchingContacts,
		"islands", w.stats.Islands,
		"toi", w.stats.TOIEvents,
		"positionIterations", w.positionIterations)
}

// notifyFrozen hands every frozen body to the listener.
func (w *World) notifyFrozen() {
	if w.listener == nil {
		return
	}
	w.seeds = append(w.seeds[:0], w.bodies...)
	for _, b := range w.seeds {
		if !b.IsFrozen() {
			continue
		}
		if w.listener.NotifyBoundaryViolated(b) == BoundaryDestroy {
			w.DestroyBody(b)
		}
	}
	clear(w.seeds)
}

func (w *World) clearIslandFlags() {
	for _, b := range w.bodies {
		b.flags &^= flagIsland
	}
	for _, c := range w.contacts {
		c.flags &^= contactIsland
	}
	for _, j := range w.joints {
		j.base().islandFlag = false
	}
}

// buildIslands runs a depth-first search from every awake dynamic body and
// calls fn once per island. Static bodies join islands but do not connect
// them.
func (w *World) buildIslands(fn func(is *island)) {
	w.clearIslandFlags()

	// fn may destroy bodies, so walk a snapshot.
	w.seeds = append(w.seeds[:0], w.bodies...)
	is := &w.island

	for _, seed := range w.seeds {
		if seed.flags&(flagStatic|flagIsland|flagSleep|flagFrozen) != 0 {
			continue
		}

		is.clear()
		w.stack = append(w.stack[:0], seed)
		seed.flags |= flagIsland

		for len(w.stack) > 0 {
			b := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			is.addBody(b)

			// Make sure the body is awake.
			b.flags &^= flagSleep

			// Do not propagate through static bodies.
			if b.flags&flagStatic != 0 {
				continue
			}

			for _, e := range b.contacts {
				if e.Contact.flags&contactIsland != 0 {
					continue
				}
				is.addContact(e.Contact)
				e.Contact.flags |= contactIsland

				other := e.Other
				if other.flags&flagIsland != 0 {
					continue
				}
				w.stack = append(w.stack, other)
				other.flags |= flagIsland
			}

			for _, e := range b.joints {
				jb := e.Joint.base()
				if jb.islandFlag {
					continue
				}
				is.addJoint(e.Joint)
				jb.islandFlag = true

				other := e.Other
				if other.flags&flagIsland != 0 {
					continue
				}
				w.stack = append(w.stack, other)
				other.flags |= flagIsland
			}
		}

		fn(is)

		// Allow static bodies to participate in other islands.
		for _, b := range is.bodies {
			if b.flags&flagStatic != 0 {
				b.flags &^= flagIsland
			}
		}
	}

	is.clear()
	clear(w.seeds)
	clear(w.stack)
}

func (w *World) integrate(step TimeStep) {
	w.buildIslands(func(is *island) {
		is.integrate(step)
		w.stats.Islands++
	})
}

func (w *World) solvePositionConstraints(step TimeStep) {
	w.positionIterations = 0
	if step.Dt == 0 {
		return
	}

	w.buildIslands(func(is *island) {
		is.solvePositionConstraints(step)
		w.positionIterations = max(w.positionIterations, is.positionIterations)

		if w.def.AllowSleep {
			is.updateSleep(step)
		}

		// Move the shapes to the corrected poses. Bodies pushed outside
		// the world are reported here.
		for _, b := range is.bodies {
			if b.flags&flagStatic != 0 {
				continue
			}
			wasFrozen := b.IsFrozen()
			b.synchronizeShapes()
			if wasFrozen || !b.IsFrozen() {
				continue
			}
			w.log.V(1).Info("body frozen", "position", b.position)
			if w.listener != nil && w.listener.NotifyBoundaryViolated(b) == BoundaryDestroy {
				w.DestroyBody(b)
			}
		}
	})

	w.broadPhase.Commit()
}

// Validate reports the first body whose state is no longer finite.
func (w *World) Validate() error {
	for i, b := range w.bodies {
		if !b.IsValid() {
			return fmt.Errorf("%w: body %d at %v", ErrUnstable, i, b.position)
		}
	}
	return nil
}
