package dynamics

import (
	"slices"
)

// contactManager creates and destroys contacts in response to broad-phase
// pair events and runs the narrow phase each step.
type contactManager struct {
	world *World

	// destroyImmediate is set while bodies are being finalized; pair
	// removals then destroy contacts on the spot instead of flagging them.
	destroyImmediate bool

	toiEvents int
}

// PairAdded is called by the broad phase when two proxies start to overlap.
// A nil result marks a filtered pair.
func (cm *contactManager) PairAdded(userData1, userData2 any) any {
	s1 := userData1.(*Shape)
	s2 := userData2.(*Shape)
	b1, b2 := s1.body, s2.body

	if b1.IsStatic() && b2.IsStatic() {
		return nil
	}
	if b1 == b2 {
		return nil
	}
	if b2.IsConnected(b1) {
		return nil
	}
	if f := cm.world.filter; f != nil && !f.ShouldCollide(s1, s2) {
		return nil
	}

	// body2 carries mass when either does.
	if b2.invMass == 0 {
		s1, s2 = s2, s1
	}

	c := newContact(s1, s2)
	cm.world.contacts = append(cm.world.contacts, c)
	return c
}

// PairRemoved is called by the broad phase when two proxies stop
// overlapping.
func (cm *contactManager) PairRemoved(_, _ any, pairData any) {
	c, ok := pairData.(*Contact)
	if !ok || c == nil {
		return
	}
	if cm.destroyImmediate {
		cm.destroyContact(c)
		return
	}
	c.flags |= contactDestroy
}

func (cm *contactManager) destroyContact(c *Contact) {
	w := cm.world
	i := slices.Index(w.contacts, c)
	assert(i >= 0, "destroying a contact that is not in the world")
	w.contacts = slices.Delete(w.contacts, i, i+1)

	if c.manifoldCount > 0 {
		b1, b2 := c.shape1.body, c.shape2.body
		b1.WakeUp()
		b2.WakeUp()
		b1.unlinkContact(c)
		b2.unlinkContact(c)
	}
}

// cleanContactList destroys contacts flagged since the last step.
func (cm *contactManager) cleanContactList() {
	w := cm.world
	var flagged []*Contact
	for _, c := range w.contacts {
		if c.isFlagged() {
			flagged = append(flagged, c)
		}
	}
	for _, c := range flagged {
		cm.destroyContact(c)
	}
}

// collide runs the time-of-impact pass and then updates every contact that
// is not between two sleeping bodies.
func (cm *contactManager) collide(step TimeStep) {
	w := cm.world
	cm.toiEvents = 0

	if step.Dt > 0 && step.PositionCorrection {
		cm.resolveTOI()
	}

	for _, c := range w.contacts {
		if c.bothSleeping() {
			continue
		}

		oldCount := c.manifoldCount
		c.evaluate()
		newCount := c.manifoldCount

		b1, b2 := c.shape1.body, c.shape2.body
		switch {
		case oldCount == 0 && newCount > 0:
			assert(c.manifold.PointCount > 0, "touching contact without points")
			b1.linkContact(b2, c)
			b2.linkContact(b1, c)
		case oldCount > 0 && newCount == 0:
			b1.unlinkContact(c)
			b2.unlinkContact(c)
		}
	}
}

// resolveTOI repeatedly finds the earliest impact among unresolved bodies,
// marks both bodies resolved, and finally rewinds every awake body to its
// time of impact.
func (cm *contactManager) resolveTOI() {
	w := cm.world
	for _, b := range w.bodies {
		b.toi = 1
		if b.IsSleeping() {
			b.flags |= flagTOIResolved
		} else {
			b.flags &^= flagTOIResolved
		}
	}

	for {
		minTOI := 1.0
		var toiContact *Contact
		for _, c := range w.contacts {
			if c.bothSleeping() {
				continue
			}
			toi := conservativeTOI(c.shape1, c.shape2)
			if toi < minTOI {
				minTOI = toi
				toiContact = c
			}
		}
		if toiContact == nil {
			break
		}
		toiContact.shape1.body.flags |= flagTOIResolved
		toiContact.shape2.body.flags |= flagTOIResolved
		cm.toiEvents++
	}

	for _, b := range w.bodies {
		if b.IsSleeping() || b.IsFrozen() {
			continue
		}
		t := b.toi
		b.position = b.position0.Scale(1 - t).Add(b.position.Scale(t))
		b.setRotation((1-t)*b.rotation0 + t*b.rotation)
		b.quickSyncShapes()
	}
}
