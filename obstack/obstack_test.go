package obstack

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/skiplang/skiprt/vtable"
)

func TestObstack(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "obstack Suite")
}

var leafVT = vtable.New(vtable.KindRefClass, 8, 0, 0, nil, nil)

var _ = Describe("Obstack.Alloc", func() {
	It("advances the current position on each allocation", func() {
		s := New(nil)
		before := s.Note()
		o := s.Alloc(leafVT, nil)
		Expect(o.Pos()).To(Equal(before))
		after := s.Note()
		Expect(after.Offset()).To(Equal(before.Offset() + 1))
	})
})

var _ = Describe("Obstack.Collect", func() {
	It("drops every object allocated after the given note", func() {
		s := New(nil)
		note := s.Note()
		s.Alloc(leafVT, nil)
		s.Alloc(leafVT, nil)
		Expect(s.live).To(HaveLen(2))

		s.Collect(note)
		Expect(s.live).To(BeEmpty())
		Expect(s.Note()).To(Equal(note))
	})

	It("keeps objects allocated before the note", func() {
		s := New(nil)
		kept := s.Alloc(leafVT, nil)
		note := s.Note()
		s.Alloc(leafVT, nil)

		s.Collect(note)
		Expect(s.live).To(ConsistOf(kept))
	})
})

var _ = Describe("Obstack.CollectWithRoots", func() {
	It("keeps objects transitively reachable from roots and drops the rest", func() {
		s := New(nil)
		note := s.Note()
		kept := s.Alloc(leafVT, nil)
		keptParent := s.Alloc(leafVT, []*Obj{kept})
		dropped := s.Alloc(leafVT, nil)

		s.CollectWithRoots(note, []*Obj{keptParent})

		Expect(s.live).To(ContainElement(kept))
		Expect(s.live).To(ContainElement(keptParent))
		Expect(s.live).NotTo(ContainElement(dropped))
	})

	It("treats a live Handle's target as an implicit root", func() {
		s := New(nil)
		note := s.Note()
		target := s.Alloc(leafVT, nil)
		h := s.MakeHandle(target)
		dropped := s.Alloc(leafVT, nil)

		s.CollectWithRoots(note, nil)

		Expect(s.live).To(ContainElement(target))
		Expect(s.live).NotTo(ContainElement(dropped))
		Expect(h.Get()).To(Equal(target))
	})
})

var _ = Describe("Handle", func() {
	It("returns the object it was constructed with", func() {
		s := New(nil)
		o := s.Alloc(leafVT, nil)
		h := s.MakeHandle(o)
		Expect(h.Get()).To(Equal(o))
	})

	It("reflects a retarget", func() {
		s := New(nil)
		o1 := s.Alloc(leafVT, nil)
		o2 := s.Alloc(leafVT, nil)
		h := s.MakeHandle(o1)
		h.retarget(o2)
		Expect(h.Get()).To(Equal(o2))
	})
})

var _ = Describe("Pos", func() {
	It("orders by generation first, then offset", func() {
		p1 := makePos(1, 5)
		p2 := makePos(1, 6)
		p3 := makePos(2, 0)
		Expect(p1.Less(p2)).To(BeTrue())
		Expect(p2.Less(p3)).To(BeTrue())
		Expect(p3.Less(p1)).To(BeFalse())
	})
})
