package skiprt

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/skiplang/skiprt/asyncrt"
	"github.com/skiplang/skiprt/intern"
	"github.com/skiplang/skiprt/memo"
)

// leafKey is a minimal Internable with no outgoing references, standing in
// for a memoized call's argument tuple.
type leafKey struct{ bytes []byte }

func (k leafKey) UserBytes() []byte   { return k.bytes }
func (k leafKey) VTableID() uint32    { return 1 }
func (k leafKey) Refs() []intern.Edge { return nil }

func TestSkiprt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "skiprt Suite")
}

var _ = Describe("MemoizeCall", func() {
	It("resolves the Awaitable with the thunk's EvaluateDone value", func() {
		in := intern.NewInterner()
		calls := 0
		thunk := func(ctx *memo.Context) {
			calls++
			ctx.EvaluateDone(memo.Int(17))
		}

		result := asyncrt.NewAwaitable()
		key := leafKey{bytes: []byte("call-a")}
		MemoizeCall(in, key, map[intern.Internable]uint32{key: 1}, thunk, result)

		p := asyncrt.NewProcess(nil)
		var got memo.Value
		result.SKIP_awaitableSuspend(p, func(v memo.Value, isException bool) {
			Expect(isException).To(BeFalse())
			got = v
		})
		p.RunReadyTasks()
		Expect(got.Equal(memo.Int(17))).To(BeTrue())
		Expect(calls).To(Equal(1))
	})

	It("shares one Invocation across two calls with byte-equal keys", func() {
		in := intern.NewInterner()
		calls := 0
		thunk := func(ctx *memo.Context) {
			calls++
			ctx.EvaluateDone(memo.Int(1))
		}

		key1 := leafKey{bytes: []byte("shared")}
		key2 := leafKey{bytes: []byte("shared")}

		r1 := asyncrt.NewAwaitable()
		MemoizeCall(in, key1, map[intern.Internable]uint32{key1: 1}, thunk, r1)

		r2 := asyncrt.NewAwaitable()
		MemoizeCall(in, key2, map[intern.Internable]uint32{key2: 1}, thunk, r2)

		Expect(calls).To(Equal(1), "second call with an equal key should hit the cache")
	})
})
