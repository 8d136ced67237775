// Package arena supplies chunk-aligned memory in three kinds and a
// per-chunk global kind table that classifies any pointer in O(1),
// grounded on the teacher's memsys page-pool design (slabs handed out by
// kind, classified by address range) referenced throughout xact/xs (e.g.
// cluster.T.PageMM().GetSlab(...)).
package arena

import (
	"sync"
	"unsafe"

	"github.com/skiplang/skiprt/internal/debug"
)

// Kind identifies which subsystem owns a chunk.
type Kind uint8

const (
	KindObstack Kind = iota
	KindLarge
	KindIObj
)

// ChunkSize is the fixed, aligned allocation unit. Platform-specific
// allocator shims are out of scope; we model them as a producer of
// ChunkSize-aligned blocks via ChunkSource.
const ChunkSize = 2 << 20 // 2 MiB

// maxAlign is the largest alignment allocAligned will honor; larger
// requests are rejected as allocator fragmentation per the contract.
const maxAlign = 4096

// chunkShift is the number of low address bits (the offset within a chunk)
// dropped to key the kind table; they are irrelevant to classification.
const chunkShift = 21 // log2(ChunkSize)

// ChunkSource produces ChunkSize-aligned memory blocks. The default
// implementation below services it from Go's allocator plus manual
// alignment; a platform shim would swap this out without touching any
// other component.
type ChunkSource interface {
	AllocChunk() (unsafe.Pointer, error)
	FreeChunk(unsafe.Pointer)
}

// kindTable is the global per-chunk classification table of Kind values, keyed by
// the high bits of the address (i.e. the chunk number). A sync.Map is used
// instead of a flat array because the address space touched is sparse and
// unpredictable across OSes; this trades a constant-factor lookup cost for
// never needing to size the table up front.
var kindTable sync.Map // map[uintptr]Kind

func chunkKey(p unsafe.Pointer) uintptr {
	return uintptr(p) >> chunkShift
}

// tagChunk records kind for the chunk containing p.
func tagChunk(p unsafe.Pointer, kind Kind) {
	kindTable.Store(chunkKey(p), kind)
}

func untagChunk(p unsafe.Pointer) {
	kindTable.Delete(chunkKey(p))
}

// RawMemoryKind classifies any pointer in O(1) by its enclosing chunk.
// ok is false if the address was never tagged by this arena (e.g. a
// pointer that doesn't belong to any managed chunk).
func RawMemoryKind(p unsafe.Pointer) (kind Kind, ok bool) {
	v, found := kindTable.Load(chunkKey(p))
	if !found {
		return 0, false
	}
	return v.(Kind), true
}

// GetMemoryKind classifies an object's interior address. Callers are
// expected to pass an address chosen to never lie exactly at a chunk
// boundary (e.g. the object header, never byte 0 of a chunk).
func GetMemoryKind(interior unsafe.Pointer) Kind {
	kind, ok := RawMemoryKind(interior)
	debug.Assert(ok, "address does not belong to any tagged chunk")
	return kind
}

// AlignUp rounds size up to the given alignment. align must be a power of
// two no greater than maxAlign.
func AlignUp(size, align uintptr) uintptr {
	debug.Assertf(align > 0 && align&(align-1) == 0, "alignment %d is not a power of two", align)
	debug.Assertf(align <= maxAlign, "alignment %d exceeds max %d", align, maxAlign)
	return (size + align - 1) &^ (align - 1)
}
