package asyncrt

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/skiplang/skiprt/memo"
)

func TestAsyncrt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "asyncrt Suite")
}

var _ = Describe("Process", func() {
	It("runs scheduled tasks in order when drained", func() {
		p := NewProcess(nil)
		var order []int
		p.Schedule(func() { order = append(order, 1) })
		p.Schedule(func() { order = append(order, 2) })
		p.RunReadyTasks()
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("leaves the queue empty after draining", func() {
		p := NewProcess(nil)
		p.Schedule(func() {})
		p.RunReadyTasks()
		Expect(p.pending).To(BeEmpty())
	})
})

var _ = Describe("Unowned", func() {
	It("silently drops a post after Detach", func() {
		p := NewProcess(nil)
		u := p.Unowned()
		u.Detach()

		ran := false
		u.Post(func() { ran = true })
		p.RunReadyTasks()
		Expect(ran).To(BeFalse())
	})

	It("forwards a post through to the owning Process while attached", func() {
		p := NewProcess(nil)
		u := p.Unowned()

		ran := false
		u.Post(func() { ran = true })
		p.RunReadyTasks()
		Expect(ran).To(BeTrue())
	})
})

var _ = Describe("Awaitable", func() {
	It("runs a waiter immediately queued on its own Process once resolved", func() {
		a := NewAwaitable()
		p := NewProcess(nil)

		var got memo.Value
		var gotExc bool
		a.SKIP_awaitableSuspend(p, func(v memo.Value, isException bool) {
			got, gotExc = v, isException
		})

		a.Resolve(memo.Int(9))
		p.RunReadyTasks()

		Expect(gotExc).To(BeFalse())
		Expect(got.Equal(memo.Int(9))).To(BeTrue())
	})

	It("delivers immediately to a waiter suspended after completion", func() {
		a := NewAwaitable()
		p := NewProcess(nil)
		a.Reject(memo.Int(1))

		var gotExc bool
		a.SKIP_awaitableSuspend(p, func(v memo.Value, isException bool) {
			gotExc = isException
		})
		p.RunReadyTasks()

		Expect(gotExc).To(BeTrue())
	})

	It("ignores a second finish", func() {
		a := NewAwaitable()
		a.Resolve(memo.Int(1))
		a.Resolve(memo.Int(2))
		Expect(a.value.Equal(memo.Int(1))).To(BeTrue())
	})
})
