package vtable

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestVTable(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "vtable Suite")
}

var _ = Describe("VTable ref slots", func() {
	It("reports a traced slot only where the bitmask has a bit set", func() {
		vt := New(KindRefClass, 16, 0, 0, []uint64{0b101}, nil)
		Expect(vt.HasRefSlot(StripeGC, 0)).To(BeTrue())
		Expect(vt.HasRefSlot(StripeGC, 1)).To(BeFalse())
		Expect(vt.HasRefSlot(StripeGC, 2)).To(BeTrue())
		Expect(vt.HasRefSlot(StripeFreeze, 0)).To(BeFalse(), "freeze stripe wasn't given a mask")
	})

	It("reports false past the end of the bitmask instead of panicking", func() {
		vt := New(KindRefClass, 8, 0, 0, []uint64{0b1}, nil)
		Expect(vt.HasRefSlot(StripeGC, 1000)).To(BeFalse())
	})

	It("is unfrozen until MarkFrozen is called", func() {
		vt := New(KindString, 0, 0, 0, nil, nil)
		Expect(vt.IsFrozen()).To(BeFalse())
		vt.MarkFrozen()
		Expect(vt.IsFrozen()).To(BeTrue())
	})

	It("fires the state-change hook with the transition it was given", func() {
		var got Transition
		var fired bool
		vt := New(KindArray, 0, 0, 0, nil, nil)
		vt.OnStateChange = func(obj uintptr, t Transition) { fired = true; got = t }
		vt.Fire(0, TransitionFinalize)
		Expect(fired).To(BeTrue())
		Expect(got).To(Equal(TransitionFinalize))
	})

	It("is a no-op when no hook is registered", func() {
		vt := New(KindArray, 0, 0, 0, nil, nil)
		Expect(func() { vt.Fire(0, TransitionFreeze) }).NotTo(Panic())
	})
})

var _ = Describe("Descriptor registry", func() {
	It("round-trips a registered class by id and by VTable pointer", func() {
		vt := New(KindRefClass, 8, 0, 0, nil, nil)
		Register(4242, vt, Descriptor{Name: "Widget", Kind: KindRefClass})

		d, ok := Lookup(4242)
		Expect(ok).To(BeTrue())
		Expect(d.Name).To(Equal("Widget"))

		got, ok := VTableByID(4242)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(vt))

		id, ok := IDOf(vt)
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(uint32(4242)))
	})

	It("reports not-found for an id nothing registered", func() {
		_, ok := Lookup(99999999)
		Expect(ok).To(BeFalse())
	})
})
