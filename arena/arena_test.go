package arena

import (
	"testing"
	"unsafe"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestArena(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "arena Suite")
}

var _ = Describe("AlignUp", func() {
	It("rounds up to the next multiple of the alignment", func() {
		Expect(AlignUp(0, 8)).To(Equal(uintptr(0)))
		Expect(AlignUp(1, 8)).To(Equal(uintptr(8)))
		Expect(AlignUp(8, 8)).To(Equal(uintptr(8)))
		Expect(AlignUp(9, 8)).To(Equal(uintptr(16)))
	})

	It("panics on a non-power-of-two alignment", func() {
		Expect(func() { AlignUp(1, 3) }).To(Panic())
	})

	It("panics above maxAlign", func() {
		Expect(func() { AlignUp(1, maxAlign*2) }).To(Panic())
	})
})

var _ = Describe("Arena chunk classification", func() {
	It("classifies a freshly allocated chunk as the kind it was requested with", func() {
		a := New(nil)
		p, err := a.AllocAligned(1, 8, KindObstack)
		Expect(err).NotTo(HaveOccurred())

		kind, ok := RawMemoryKind(p)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(KindObstack))
	})

	It("reports not-ok for an address that was never tagged", func() {
		var stackVar int
		_, ok := RawMemoryKind(unsafe.Pointer(&stackVar))
		Expect(ok).To(BeFalse())
	})

	It("reuses a freed chunk from the per-kind cache rather than allocating fresh", func() {
		calls := 0
		src := &countingSource{allocs: &calls}
		a := New(src)

		p1, err := a.AllocAligned(1, 8, KindIObj)
		Expect(err).NotTo(HaveOccurred())
		a.Free(p1, KindIObj)

		p2, err := a.AllocAligned(1, 8, KindIObj)
		Expect(err).NotTo(HaveOccurred())

		Expect(p2).To(Equal(p1), "the freed chunk should have been handed back out of the cache")
		Expect(calls).To(Equal(1), "only the first AllocAligned should have reached the backing source")
	})

	It("untags a chunk on Free so classification no longer reports its old kind", func() {
		a := New(nil)
		p, _ := a.AllocAligned(1, 8, KindLarge)
		a.Free(p, KindLarge)

		_, ok := RawMemoryKind(p)
		Expect(ok).To(BeFalse())
	})
})

type countingSource struct {
	allocs *int
}

func (c *countingSource) AllocChunk() (unsafe.Pointer, error) {
	*c.allocs++
	raw := make([]byte, ChunkSize*2)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := AlignUp(base, ChunkSize)
	return unsafe.Pointer(&raw[aligned-base]), nil
}

func (c *countingSource) FreeChunk(unsafe.Pointer) {}
