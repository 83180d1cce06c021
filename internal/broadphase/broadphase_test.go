package broadphase_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/boxsim/internal/broadphase"
	"github.com/san-kum/boxsim/internal/collision"
	"github.com/san-kum/boxsim/internal/vec"
)

type recorder struct {
	added   []string
	removed []string
	reject  map[string]bool
}

func (r *recorder) PairAdded(u1, u2 any) any {
	name := fmt.Sprintf("%v-%v", u1, u2)
	r.added = append(r.added, name)
	if r.reject[name] {
		return nil
	}
	return name
}

func (r *recorder) PairRemoved(u1, u2, pairData any) {
	r.removed = append(r.removed, fmt.Sprintf("%v-%v:%v", u1, u2, pairData))
}

func box(x, y, h float64) collision.AABB {
	return collision.AABB{Min: vec.V(x-h, y-h), Max: vec.V(x+h, y+h)}
}

var _ = Describe("BroadPhase", func() {
	var (
		rec *recorder
		bp  *broadphase.BroadPhase
	)

	BeforeEach(func() {
		rec = &recorder{reject: map[string]bool{}}
		world := collision.AABB{Min: vec.V(-100, -100), Max: vec.V(100, 100)}
		bp = broadphase.New(world, rec)
	})

	It("reports an overlapping pair once", func() {
		bp.CreateProxy(box(0, 0, 1), "a")
		bp.CreateProxy(box(1, 0, 1), "b")
		bp.CreateProxy(box(10, 0, 1), "c")

		bp.Commit()
		Expect(rec.added).To(Equal([]string{"a-b"}))

		bp.Commit()
		Expect(rec.added).To(HaveLen(1))
		Expect(bp.PairCount()).To(Equal(1))
	})

	It("removes a pair after separation", func() {
		a := bp.CreateProxy(box(0, 0, 1), "a")
		bp.CreateProxy(box(1, 0, 1), "b")
		bp.Commit()

		bp.MoveProxy(a, box(-5, 0, 1))
		bp.Commit()
		Expect(rec.removed).To(Equal([]string{"a-b:a-b"}))
		Expect(bp.PairCount()).To(BeZero())
	})

	It("keeps filtered pairs without offering them again", func() {
		rec.reject["a-b"] = true
		a := bp.CreateProxy(box(0, 0, 1), "a")
		bp.CreateProxy(box(1, 0, 1), "b")
		bp.Commit()
		bp.MoveProxy(a, box(0.1, 0, 1))
		bp.Commit()

		Expect(rec.added).To(Equal([]string{"a-b"}))
		Expect(bp.PairCount()).To(Equal(1))

		bp.MoveProxy(a, box(-5, 0, 1))
		bp.Commit()
		Expect(rec.removed).To(Equal([]string{"a-b:<nil>"}))
	})

	It("reports removals immediately on destroy and recycles ids", func() {
		a := bp.CreateProxy(box(0, 0, 1), "a")
		bp.CreateProxy(box(1, 0, 1), "b")
		bp.CreateProxy(box(0, 1, 1), "c")
		bp.Commit()
		Expect(rec.added).To(Equal([]string{"a-b", "a-c", "b-c"}))

		bp.DestroyProxy(a)
		Expect(rec.removed).To(Equal([]string{"a-b:a-b", "a-c:a-c"}))
		Expect(bp.ProxyCount()).To(Equal(2))

		d := bp.CreateProxy(box(50, 50, 1), "d")
		Expect(d).To(Equal(a))
		Expect(bp.UserData(d)).To(Equal("d"))
	})

	It("orders new pairs by proxy id", func() {
		bp.CreateProxy(box(3, 0, 1), "p0")
		bp.CreateProxy(box(0, 0, 1), "p1")
		bp.CreateProxy(box(1.5, 0, 1), "p2")
		bp.Commit()
		Expect(rec.added).To(Equal([]string{"p0-p2", "p1-p2"}))
	})

	It("rejects boxes outside the world", func() {
		Expect(bp.InRange(box(99.5, 0, 1))).To(BeFalse())
		Expect(bp.CreateProxy(box(99.5, 0, 1), "x")).To(Equal(broadphase.NullProxy))
	})

	It("queries overlapping proxies", func() {
		bp.CreateProxy(box(0, 0, 1), "a")
		bp.CreateProxy(box(5, 0, 1), "b")
		bp.CreateProxy(box(0.5, 0.5, 0.1), "c")

		Expect(bp.Query(box(0, 0, 0.5), 0)).To(Equal([]any{"a", "c"}))
		Expect(bp.Query(box(0, 0, 0.5), 1)).To(Equal([]any{"a"}))
		Expect(bp.Query(box(-20, -20, 1), 0)).To(BeEmpty())
	})
})
