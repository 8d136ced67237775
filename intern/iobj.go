// Package intern implements the content-addressed interning subsystem:
// IObj metadata, the InternTable, cycle collapsing via Tarjan SCC plus a
// canonical CycleHandle, and safe concurrent decref.
package intern

import (
	"github.com/skiplang/skiprt/internal/ratomic"
	"github.com/skiplang/skiprt/vtable"
)

// Reserved refcount sentinels (spec §3, IObj metadata).
const (
	CycleMemberRefcountSentinel = ^uint32(0)     // delegates to its CycleHandle
	BeingInternedRefcountSentinel = ^uint32(0) - 1
	DeadRefcountSentinel          = ^uint32(0) - 2
	MaxRefcount                   = ^uint32(0) - 3
)

// next is the union "next" slot: during its lifetime an IObj's next field
// means different things (intern-table chain link, cycle handle back
// pointer, freelist link, Tarjan scratch node) — modeled as an interface
// value rather than an unsafe union since Go gives us sum types for free
// at a small, acceptable cost here.
type next interface{ isNext() }

type chainLink struct{ n *IObj }
type cycleBack struct{ h *CycleHandle }
type freelistLink struct{ n *IObj }
type tarjanNode struct{ idx, low int; onStack bool }

func (chainLink) isNext()    {}
func (cycleBack) isNext()    {}
func (freelistLink) isNext() {}
func (tarjanNode) isNext()   {}

// IObj precedes (conceptually; here it's held alongside) an interned
// object's user bytes.
type IObj struct {
	VT        *vtable.VTable
	UserBytes []byte
	ArraySize uint32

	refcount ratomic.Uint32
	hash     uint64

	nextSlot next

	// Refs are the (already-interned) outgoing references, preserved so
	// decref can walk them without re-deriving structure from UserBytes.
	Refs []*IObj
}

// Refcount returns the raw refcount word, which may be a sentinel.
func (o *IObj) Refcount() uint32 { return o.refcount.Load() }

// IsCycleMember reports whether this object delegates its refcount to a
// CycleHandle.
func (o *IObj) IsCycleMember() bool {
	return o.refcount.Load() == CycleMemberRefcountSentinel
}

// CycleHandleOf returns the owning CycleHandle, only valid when
// IsCycleMember is true.
func (o *IObj) CycleHandleOf() *CycleHandle {
	if cb, ok := o.nextSlot.(cycleBack); ok {
		return cb.h
	}
	return nil
}

func (o *IObj) setCycleHandle(h *CycleHandle) {
	o.refcount.Store(CycleMemberRefcountSentinel)
	o.nextSlot = cycleBack{h}
}

func (o *IObj) chainNext() *IObj {
	if c, ok := o.nextSlot.(chainLink); ok {
		return c.n
	}
	return nil
}

func (o *IObj) setChainNext(n *IObj) { o.nextSlot = chainLink{n} }
