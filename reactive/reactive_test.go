package reactive

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/skiplang/skiprt/memo"
)

func TestReactive(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "reactive Suite")
}

var _ = Describe("Reactive global cache", func() {
	It("allocates distinct, increasing ids per family", func() {
		a := Reactive_nextReactiveGlobalCacheID()
		b := Reactive_nextReactiveGlobalCacheID()
		Expect(b).To(BeNumerically(">", a))
	})

	It("lazily creates the cell with its initial value on first get", func() {
		id := Reactive_nextReactiveGlobalCacheID()
		ctx := memo.NewContext(nil, memo.NewestVisibleTxn())
		var got memo.Value
		Reactive_reactiveGlobalCacheGet(ctx, id, memo.Int(11), func(v memo.Value) { got = v })
		Expect(got.Equal(memo.Int(11))).To(BeTrue())
	})

	It("makes a set visible only after the transaction that wrote it commits", func() {
		id := Reactive_nextReactiveGlobalCacheID()
		ctx := memo.NewContext(nil, memo.NewestVisibleTxn())
		var before memo.Value
		Reactive_reactiveGlobalCacheGet(ctx, id, memo.Int(1), func(v memo.Value) { before = v })
		Expect(before.Equal(memo.Int(1))).To(BeTrue())

		committed := Reactive_withTransaction(func(tx *memo.Transaction) {
			Reactive_reactiveGlobalCacheSet(tx, id, memo.Int(1), memo.Int(2))
		})
		Expect(committed).To(BeNumerically(">", 0))

		ctx2 := memo.NewContext(nil, memo.NewestVisibleTxn())
		var after memo.Value
		Reactive_reactiveGlobalCacheGet(ctx2, id, memo.Int(1), func(v memo.Value) { after = v })
		Expect(after.Equal(memo.Int(2))).To(BeTrue())
	})
})
