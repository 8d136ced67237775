package serialize

import (
	"bytes"
	"io"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/skiplang/skiprt/internal/xerr"
)

// memFile is a minimal in-memory io.WriteSeeker, standing in for the
// *os.File a real memo-cache write target would be.
type memFile struct {
	buf []byte
	pos int
}

func (f *memFile) Write(p []byte) (int, error) {
	end := f.pos + len(p)
	if end > len(f.buf) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[f.pos:end], p)
	f.pos = end
	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = int(offset)
	case io.SeekCurrent:
		f.pos += int(offset)
	case io.SeekEnd:
		f.pos = len(f.buf) + int(offset)
	}
	return int64(f.pos), nil
}

func TestSerialize(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "serialize Suite")
}

var _ = Describe("Writer/Reader round trip", func() {
	It("recovers every record tag it wrote, in order", func() {
		f := &memFile{}
		w, err := NewWriter(f, 42)
		Expect(err).NotTo(HaveOccurred())

		Expect(w.WriteRecord(Record{Tag: TagRefClass, VTableID: 7, UserBytes: []byte("hi")})).To(Succeed())
		Expect(w.WriteRecord(Record{Tag: TagLongString, UserBytes: []byte("a long string")})).To(Succeed())
		Expect(w.WriteRecord(Record{Tag: TagArray, VTableID: 3, ArraySize: 5, UserBytes: []byte{1, 2, 3}})).To(Succeed())
		Expect(w.WriteRecord(Record{Tag: TagInvocation, VTableID: 1, UserBytes: []byte("call"), MemoValue: []byte("v"), TargetIDs: []uint32{1, 2}})).To(Succeed())
		Expect(w.Close()).To(Succeed())

		r, err := NewReader(bytes.NewReader(f.buf), 42)
		Expect(err).NotTo(HaveOccurred())

		rec1, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec1.Tag).To(Equal(TagRefClass))
		Expect(rec1.VTableID).To(Equal(uint32(7)))

		rec2, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec2.Tag).To(Equal(TagLongString))
		Expect(string(rec2.UserBytes)).To(Equal("a long string"))

		rec3, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec3.Tag).To(Equal(TagArray))
		Expect(rec3.ArraySize).To(Equal(uint32(5)))

		rec4, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec4.Tag).To(Equal(TagInvocation))
		Expect(rec4.TargetIDs).To(Equal([]uint32{1, 2}))

		_, err = r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("rejects a build-hash mismatch with FormatMismatchError, not a crash", func() {
		f := &memFile{}
		w, err := NewWriter(f, 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())

		_, err = NewReader(bytes.NewReader(f.buf), 99)
		Expect(err).To(HaveOccurred())
		_, ok := err.(*xerr.FormatMismatchError)
		Expect(ok).To(BeTrue())
	})
})
