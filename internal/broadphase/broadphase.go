// Package broadphase keeps a set of proxy bounding boxes and reports
// overlapping pairs through a callback. Overlaps are found by sorting the
// boxes on their lower x bound and sweeping.
package broadphase

import (
	"cmp"
	"slices"

	"github.com/san-kum/boxsim/internal/collision"
)

// NullProxy is the id of a shape that has no proxy.
const NullProxy = -1

// PairCallback receives pair transitions. PairAdded returns the pair's user
// data; nil marks the pair as filtered and it is not offered again while the
// boxes keep overlapping. PairRemoved receives whatever PairAdded returned.
type PairCallback interface {
	PairAdded(userData1, userData2 any) any
	PairRemoved(userData1, userData2, pairData any)
}

type proxy struct {
	aabb     collision.AABB
	userData any
	alive    bool
}

type pairKey struct {
	id1, id2 int
}

func makeKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

func compareKeys(a, b pairKey) int {
	if c := cmp.Compare(a.id1, b.id1); c != 0 {
		return c
	}
	return cmp.Compare(a.id2, b.id2)
}

// BroadPhase is a sort-and-sweep proxy index. It is not safe for
// concurrent use.
type BroadPhase struct {
	worldAABB collision.AABB
	callback  PairCallback

	proxies []proxy
	free    []int
	pairs   map[pairKey]any

	order []int // scratch for Commit
}

// New creates an empty broad phase covering worldAABB.
func New(worldAABB collision.AABB, callback PairCallback) *BroadPhase {
	return &BroadPhase{
		worldAABB: worldAABB,
		callback:  callback,
		pairs:     make(map[pairKey]any),
	}
}

// InRange reports whether aabb lies inside the world bounds.
func (bp *BroadPhase) InRange(aabb collision.AABB) bool {
	return bp.worldAABB.Contains(aabb)
}

// CreateProxy registers a box. Pairs with existing proxies are reported on
// the next Commit. An out-of-range box gets NullProxy.
func (bp *BroadPhase) CreateProxy(aabb collision.AABB, userData any) int {
	if !bp.InRange(aabb) {
		return NullProxy
	}

	p := proxy{aabb: aabb, userData: userData, alive: true}
	if n := len(bp.free); n > 0 {
		id := bp.free[n-1]
		bp.free = bp.free[:n-1]
		bp.proxies[id] = p
		return id
	}

	bp.proxies = append(bp.proxies, p)
	return len(bp.proxies) - 1
}

// DestroyProxy removes a proxy. Its live pairs are reported removed
// immediately, in pair order.
func (bp *BroadPhase) DestroyProxy(id int) {
	if !bp.valid(id) {
		return
	}

	var ended []pairKey
	for key := range bp.pairs {
		if key.id1 == id || key.id2 == id {
			ended = append(ended, key)
		}
	}
	slices.SortFunc(ended, compareKeys)

	for _, key := range ended {
		data := bp.pairs[key]
		delete(bp.pairs, key)
		bp.callback.PairRemoved(bp.proxies[key.id1].userData, bp.proxies[key.id2].userData, data)
	}

	bp.proxies[id] = proxy{}
	bp.free = append(bp.free, id)
}

// MoveProxy updates a proxy's box. Pair changes are reported on Commit.
func (bp *BroadPhase) MoveProxy(id int, aabb collision.AABB) {
	if !bp.valid(id) {
		return
	}
	bp.proxies[id].aabb = aabb
}

// UserData returns the data a proxy was created with.
func (bp *BroadPhase) UserData(id int) any {
	if !bp.valid(id) {
		return nil
	}
	return bp.proxies[id].userData
}

// Commit recomputes the overlapping pairs and reports the differences:
// removed pairs first, then added pairs, each in (id1, id2) order.
func (bp *BroadPhase) Commit() {
	current := bp.overlaps()

	var ended []pairKey
	for key := range bp.pairs {
		if _, ok := current[key]; !ok {
			ended = append(ended, key)
		}
	}
	slices.SortFunc(ended, compareKeys)

	var started []pairKey
	for key := range current {
		if _, ok := bp.pairs[key]; !ok {
			started = append(started, key)
		}
	}
	slices.SortFunc(started, compareKeys)

	for _, key := range ended {
		data := bp.pairs[key]
		delete(bp.pairs, key)
		bp.callback.PairRemoved(bp.proxies[key.id1].userData, bp.proxies[key.id2].userData, data)
	}

	for _, key := range started {
		// A callback may have destroyed one of the proxies.
		if !bp.valid(key.id1) || !bp.valid(key.id2) {
			continue
		}
		bp.pairs[key] = bp.callback.PairAdded(bp.proxies[key.id1].userData, bp.proxies[key.id2].userData)
	}
}

// overlaps sweeps the proxies sorted by lower x bound.
func (bp *BroadPhase) overlaps() map[pairKey]struct{} {
	bp.order = bp.order[:0]
	for id := range bp.proxies {
		if bp.proxies[id].alive {
			bp.order = append(bp.order, id)
		}
	}

	slices.SortFunc(bp.order, func(a, b int) int {
		if c := cmp.Compare(bp.proxies[a].aabb.Min.X, bp.proxies[b].aabb.Min.X); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	result := make(map[pairKey]struct{})
	for i, a := range bp.order {
		boxA := bp.proxies[a].aabb
		for _, b := range bp.order[i+1:] {
			boxB := bp.proxies[b].aabb
			if boxB.Min.X > boxA.Max.X {
				break
			}
			if boxA.Overlaps(boxB) {
				result[makeKey(a, b)] = struct{}{}
			}
		}
	}
	return result
}

// Query returns the user data of up to maxCount proxies overlapping aabb, in id
// order. A maxCount of zero or less means no limit.
func (bp *BroadPhase) Query(aabb collision.AABB, maxCount int) []any {
	var out []any
	for id := range bp.proxies {
		p := &bp.proxies[id]
		if !p.alive || !p.aabb.Overlaps(aabb) {
			continue
		}
		out = append(out, p.userData)
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
	}
	return out
}

// ProxyCount returns the number of live proxies.
func (bp *BroadPhase) ProxyCount() int {
	return len(bp.proxies) - len(bp.free)
}

// PairCount returns the number of live pairs, filtered pairs included.
func (bp *BroadPhase) PairCount() int {
	return len(bp.pairs)
}

func (bp *BroadPhase) valid(id int) bool {
	return id >= 0 && id < len(bp.proxies) && bp.proxies[id].alive
}
