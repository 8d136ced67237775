package serialize

import (
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v3"
	"github.com/pkg/errors"

	"github.com/skiplang/skiprt/internal/xerr"
)

// Writer streams records to an lz4-compressed memo-cache file, tracking
// each emitted object's 1-based index so later records can reference
// earlier ones purely by position (spec §4.10: "non-null references are
// replaced by the 1-based index of the referenced object").
type Writer struct {
	buildHash uint64
	zw        *lz4.Writer
	w         io.WriteSeeker
	iobjCount uint64
	invCount  uint64
	headerLen int64
}

func NewWriter(w io.WriteSeeker, buildHash uint64) (*Writer, error) {
	wr := &Writer{buildHash: buildHash, w: w, zw: lz4.NewWriter(w)}
	if err := wr.writeHeader(); err != nil {
		return nil, err
	}
	return wr, nil
}

func (w *Writer) writeHeader() error {
	var hdr [32]byte
	binary.LittleEndian.PutUint64(hdr[0:8], FormatVersion)
	binary.LittleEndian.PutUint64(hdr[8:16], w.buildHash)
	// iobj_count and invocation_count are placeholders, rewritten by Close.
	n, err := w.w.Write(hdr[:])
	w.headerLen = int64(n)
	if err != nil {
		return xerr.NewIOError("serialize: write header", err)
	}
	return nil
}

// WriteRecord appends one record to the compressed stream, bumping the
// running object/invocation counts the header will be rewritten with on
// Close.
func (w *Writer) WriteRecord(r Record) error {
	switch r.Tag {
	case TagRefClass, TagLongString, TagArray:
		w.iobjCount++
	case TagInvocation:
		w.invCount++
	}

	if err := w.putByte(byte(r.Tag)); err != nil {
		return err
	}
	switch r.Tag {
	case TagRefClass:
		return w.putUint32AndBytes(r.VTableID, r.UserBytes)
	case TagLongString:
		return w.putBytes(r.UserBytes)
	case TagArray:
		if err := w.putUint32(r.VTableID); err != nil {
			return err
		}
		if err := w.putUint32(r.ArraySize); err != nil {
			return err
		}
		return w.putBytes(r.UserBytes)
	case TagInvocation:
		if err := w.putUint32(r.VTableID); err != nil {
			return err
		}
		if err := w.putBytes(r.UserBytes); err != nil {
			return err
		}
		if err := w.putBytes(r.MemoValue); err != nil {
			return err
		}
		if err := w.putUint32(uint32(len(r.TargetIDs))); err != nil {
			return err
		}
		for _, id := range r.TargetIDs {
			if err := w.putUint32(id); err != nil {
				return err
			}
		}
		return nil
	case TagRegex:
		if err := w.putBytes(r.Pattern); err != nil {
			return err
		}
		return w.putInt64(r.RegexFlags)
	default:
		return errors.Errorf("serialize: unknown record tag %d", r.Tag)
	}
}

// Close writes the terminal tag and rewrites the header's counts.
func (w *Writer) Close() error {
	if err := w.putByte(byte(TagEnd)); err != nil {
		return err
	}
	if err := w.zw.Close(); err != nil {
		return xerr.NewIOError("serialize: close lz4 writer", err)
	}
	if _, err := w.w.Seek(w.headerLen-16, io.SeekStart); err != nil {
		return xerr.NewIOError("serialize: seek to rewrite header", err)
	}
	var counts [16]byte
	binary.LittleEndian.PutUint64(counts[0:8], w.iobjCount)
	binary.LittleEndian.PutUint64(counts[8:16], w.invCount)
	if _, err := w.w.Write(counts[:]); err != nil {
		return xerr.NewIOError("serialize: rewrite counts", err)
	}
	return nil
}

func (w *Writer) putByte(b byte) error {
	_, err := w.zw.Write([]byte{b})
	return err
}

func (w *Writer) putUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.zw.Write(b[:])
	return err
}

func (w *Writer) putInt64(v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.zw.Write(b[:])
	return err
}

func (w *Writer) putBytes(b []byte) error {
	if err := w.putUint32(uint32(len(b))); err != nil {
		return err
	}
	_, err := w.zw.Write(b)
	return err
}

func (w *Writer) putUint32AndBytes(v uint32, b []byte) error {
	if err := w.putUint32(v); err != nil {
		return err
	}
	return w.putBytes(b)
}
