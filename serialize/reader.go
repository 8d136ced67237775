package serialize

import (
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v3"

	"github.com/skiplang/skiprt/internal/xerr"
)

// Reader decodes a memo-cache stream written by Writer. On a build-hash
// mismatch, NewReader returns a *xerr.FormatMismatchError; callers treat
// that as "start with an empty cache" rather than fatal, per spec §4.10.
type Reader struct {
	zr io.Reader
}

func NewReader(r io.Reader, wantBuildHash uint64) (*Reader, error) {
	var hdr [32]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, xerr.NewIOError("serialize: read header", err)
	}
	version := binary.LittleEndian.Uint64(hdr[0:8])
	buildHash := binary.LittleEndian.Uint64(hdr[8:16])
	if version != FormatVersion {
		return nil, xerr.NewIOError("serialize: unsupported format version", errUnsupportedVersion(version))
	}
	if buildHash != wantBuildHash {
		return nil, &xerr.FormatMismatchError{Want: wantBuildHash, Got: buildHash}
	}
	return &Reader{zr: lz4.NewReader(r)}, nil
}

type errUnsupportedVersion uint64

func (e errUnsupportedVersion) Error() string { return "unsupported memo-cache format version" }

// Next decodes the next record, returning io.EOF once TagEnd is reached.
func (r *Reader) Next() (Record, error) {
	tag, err := r.getByte()
	if err != nil {
		return Record{}, err
	}
	switch RecordTag(tag) {
	case TagEnd:
		return Record{}, io.EOF
	case TagRefClass:
		vt, err := r.getUint32()
		if err != nil {
			return Record{}, err
		}
		b, err := r.getBytes()
		if err != nil {
			return Record{}, err
		}
		return Record{Tag: TagRefClass, VTableID: vt, UserBytes: b}, nil
	case TagLongString:
		b, err := r.getBytes()
		if err != nil {
			return Record{}, err
		}
		return Record{Tag: TagLongString, UserBytes: b}, nil
	case TagArray:
		vt, err := r.getUint32()
		if err != nil {
			return Record{}, err
		}
		size, err := r.getUint32()
		if err != nil {
			return Record{}, err
		}
		b, err := r.getBytes()
		if err != nil {
			return Record{}, err
		}
		return Record{Tag: TagArray, VTableID: vt, ArraySize: size, UserBytes: b}, nil
	case TagInvocation:
		vt, err := r.getUint32()
		if err != nil {
			return Record{}, err
		}
		b, err := r.getBytes()
		if err != nil {
			return Record{}, err
		}
		mv, err := r.getBytes()
		if err != nil {
			return Record{}, err
		}
		n, err := r.getUint32()
		if err != nil {
			return Record{}, err
		}
		targets := make([]uint32, n)
		for i := range targets {
			targets[i], err = r.getUint32()
			if err != nil {
				return Record{}, err
			}
		}
		return Record{Tag: TagInvocation, VTableID: vt, UserBytes: b, MemoValue: mv, TargetIDs: targets}, nil
	case TagRegex:
		pat, err := r.getBytes()
		if err != nil {
			return Record{}, err
		}
		flags, err := r.getInt64()
		if err != nil {
			return Record{}, err
		}
		return Record{Tag: TagRegex, Pattern: pat, RegexFlags: flags}, nil
	default:
		return Record{}, xerr.NewIOError("serialize: decode record", errUnsupportedVersion(0))
	}
}

func (r *Reader) getByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.zr, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) getUint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.zr, b[:]); err != nil {
		return 0, xerr.NewIOError("serialize: read uint32", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *Reader) getInt64() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.zr, b[:]); err != nil {
		return 0, xerr.NewIOError("serialize: read int64", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (r *Reader) getBytes() ([]byte, error) {
	n, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.zr, b); err != nil {
		return nil, xerr.NewIOError("serialize: read bytes", err)
	}
	return b, nil
}
