// Package serialize implements the on-disk memo-cache format (spec
// §4.10): a build-hash-stamped header, a sequence of tagged,
// length-prefixed records (ref-class/long-string/array/invocation/regex),
// lz4-compressed, with graph edges replaced by 1-based emission-order
// indices so vtable identity survives ASLR across processes. Grounded in
// the teacher's cmn/cos checksum-and-compress-on-write convention and
// written with pierrec/lz4/v3 plus encoding/binary for the fixed-width
// record fields instead of the original runtime's raw memcpy layout,
// which Go cannot reproduce without unsafe pointer arithmetic.
package serialize

const FormatVersion uint64 = 0

// RecordTag distinguishes the records a memo-cache file can contain.
type RecordTag uint8

const (
	TagRefClass RecordTag = iota
	TagLongString
	TagArray
	TagInvocation
	TagRegex
	TagEnd
)

// Record is one decoded unit of the memo-cache stream. Fields not
// relevant to a given Tag are zero.
type Record struct {
	Tag        RecordTag
	VTableID   uint32
	UserBytes  []byte
	ArraySize  uint32
	MemoValue  []byte // encoded memo.Value, opaque to this package
	TargetIDs  []uint32
	Pattern    []byte
	RegexFlags int64
}

// Header precedes the record stream.
type Header struct {
	FormatVersion   uint64
	BuildHash       uint64
	IObjCount       uint64 // filled in at end, rewritten via Seek on Close
	InvocationCount uint64
}
