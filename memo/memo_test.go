package memo

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestMemo(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "memo Suite")
}

var _ = Describe("Cell", func() {
	It("reads back the value it was constructed with", func() {
		c := NewCell(Int(7))
		ctx := NewContext(nil, NewestVisibleTxn())
		var got Value
		c.Get(ctx, func(v Value) { got = v })
		Expect(c.inv.head).NotTo(BeNil())
		Expect(got.Equal(Int(7))).To(BeTrue())
	})

	It("makes a write visible only from the committed TxnId onward", func() {
		c := NewCell(Int(1))
		before := NewestVisibleTxn()
		committed := c.SetNow(Int(2))
		Expect(committed).To(BeNumerically(">", before))
		Expect(c.inv.head.value.Equal(Int(2))).To(BeTrue())
		Expect(c.inv.head.Begin).To(Equal(committed))
	})
})

var _ = Describe("Invocation lookup protocol", func() {
	It("runs the thunk exactly once on a miss and caches a pure result", func() {
		calls := 0
		var inv *Invocation
		inv = NewInvocation(nil, func(ctx *Context) {
			calls++
			ctx.EvaluateDone(Int(42))
		})

		ctx1 := NewContext(inv, NewestVisibleTxn())
		var got1 Value
		inv.AsyncEvaluate(ctx1, func(v Value) { got1 = v })
		Expect(calls).To(Equal(1))
		Expect(inv.head).NotTo(BeNil())
		Expect(got1.Equal(Int(42))).To(BeTrue())

		ctx2 := NewContext(inv, NewestVisibleTxn())
		var got2 Value
		inv.AsyncEvaluate(ctx2, func(v Value) { got2 = v })
		Expect(calls).To(Equal(1), "second lookup should hit the cached pure revision")
		Expect(got2.Equal(Int(42))).To(BeTrue())
	})
})

var _ = Describe("Context.CallerChain", func() {
	It("records the nested caller that triggered a miss", func() {
		var inner *Invocation
		inner = NewInvocation(nil, func(ctx *Context) {
			Expect(ctx.CallerChain()).To(HaveLen(1))
			ctx.EvaluateDone(Int(3))
		})

		outer := NewContext(nil, NewestVisibleTxn())
		var got Value
		inner.AsyncEvaluate(outer, func(v Value) { got = v })
		Expect(got.Equal(Int(3))).To(BeTrue())
	})
})

var _ = Describe("Invocation.AsyncEvaluate with a concurrent second caller", func() {
	It("delivers to a caller that joins while the thunk is still running", func() {
		started := make(chan struct{})
		release := make(chan struct{})
		var inv *Invocation
		inv = NewInvocation(nil, func(ctx *Context) {
			close(started)
			<-release
			ctx.EvaluateDone(Int(5))
		})

		ctx1 := NewContext(inv, NewestVisibleTxn())
		go inv.AsyncEvaluate(ctx1, func(v Value) {})

		<-started // the thunk is now blocked on release, placeholder installed

		ctx2 := NewContext(inv, NewestVisibleTxn())
		got2 := make(chan Value, 1)
		inv.AsyncEvaluate(ctx2, func(v Value) { got2 <- v })

		close(release)
		Expect((<-got2).Equal(Int(5))).To(BeTrue())
	})
})

var _ = Describe("invalidation propagation via SubscriptionSet", func() {
	It("marks a dependent's trace edge inactive when the cell it read gets rewritten", func() {
		cell := NewCell(Int(1))
		var derived *Invocation
		derived = NewInvocation(nil, func(ctx *Context) {
			cell.Get(ctx, func(v Value) { ctx.EvaluateDone(v) })
		})

		ctx1 := NewContext(derived, NewestVisibleTxn())
		var got1 Value
		derived.AsyncEvaluate(ctx1, func(v Value) { got1 = v })
		Expect(got1.Equal(Int(1))).To(BeTrue())

		head := derived.head
		Expect(head.trace).NotTo(BeNil())

		oldCellHead := cell.inv.head
		Expect(oldCellHead.subs.len()).To(Equal(1), "reading the cell should have registered derived's head as a subscriber")

		committed := cell.SetNow(Int(2))

		Expect(head.End).To(Equal(committed), "the stale dependent should be truncated at the commit's TxnId")
		Expect(head.trace.isInactive(0)).To(BeTrue(), "invalidateWorklist should mark the now-stale cell edge inactive")
	})
})

var _ = Describe("Revision.detachTrace", func() {
	It("drops the displaced head's reciprocal subscriber entry on its dependency", func() {
		cell := NewCell(Int(1))
		var derived *Invocation
		derived = NewInvocation(nil, func(ctx *Context) {
			cell.Get(ctx, func(v Value) { ctx.EvaluateDone(v) })
		})

		ctx1 := NewContext(derived, NewestVisibleTxn())
		var got1 Value
		derived.AsyncEvaluate(ctx1, func(v Value) { got1 = v })
		Expect(got1.Equal(Int(1))).To(BeTrue())

		oldHead := derived.head
		Expect(oldHead.trace).NotTo(BeNil())

		firstCellRev := cell.inv.head
		Expect(firstCellRev.subs.len()).To(Equal(1), "reading the cell should have registered derived's head as a subscriber")

		committed := cell.SetNow(Int(2))
		Expect(oldHead.End).To(Equal(committed), "the stale head should have been truncated by invalidation")

		ctx2 := NewContext(derived, committed)
		var got2 Value
		derived.AsyncEvaluate(ctx2, func(v Value) { got2 = v })
		Expect(got2.Equal(Int(2))).To(BeTrue())

		Expect(derived.head).NotTo(BeIdenticalTo(oldHead), "a fresh candidate should have replaced the stale head")
		Expect(oldHead.trace).To(BeNil(), "the displaced head's trace should be detached, not merely replaced")
		Expect(firstCellRev.subs.len()).To(Equal(0), "the displaced head's subscriber entry on its dependency should be gone")
	})

	It("releases every retain/subscriber entry a trace holds once detached", func() {
		cell := NewCell(Int(1))
		dep := cell.inv.head
		Expect(dep.refcount.Load()).To(Equal(int32(0)))

		ctx := NewContext(nil, NewestVisibleTxn())
		ctx.addDependency(dep)
		Expect(dep.refcount.Load()).To(Equal(int32(1)), "addDependency should retain the revision it observed")

		candidate := newRevision(PureTxn, NeverTxnId, Int(1))
		candidate.trace = newTrace(ctx.traceEdges(candidate))
		Expect(dep.subs.len()).To(Equal(1), "traceEdges should have registered the reciprocal subscriber entry")

		candidate.detachTrace(nil)
		Expect(candidate.trace).To(BeNil())
		Expect(dep.subs.len()).To(Equal(0), "detachTrace should remove the reciprocal subscriber entry")
		Expect(dep.refcount.Load()).To(Equal(int32(0)), "detachTrace should release the retain addDependency took")
	})
})

var _ = Describe("Invocation.retain/release", func() {
	It("returns the refcount to its base value once an in-flight evaluation completes", func() {
		var inv *Invocation
		inv = NewInvocation(nil, func(ctx *Context) { ctx.EvaluateDone(Int(9)) })
		Expect(inv.refcount.Load()).To(Equal(int32(1)))

		ctx := NewContext(inv, NewestVisibleTxn())
		inv.AsyncEvaluate(ctx, func(v Value) {})
		Expect(inv.refcount.Load()).To(Equal(int32(1)), "installPlaceholder's retain should be matched by EvaluateDone's release")
	})
})

var _ = Describe("Value.Equal", func() {
	It("treats identical-bit floats as equal, unlike IEEE754 NaN", func() {
		nan := Float(0x7ff8000000000001)
		Expect(nan.Equal(Float(0x7ff8000000000001))).To(BeTrue())
	})

	It("distinguishes kinds with the same underlying bits", func() {
		Expect(Int(0).Equal(Value{Kind: KindNull})).To(BeFalse())
	})
})
