// Package vtable describes each runtime class: byte sizes, ref-slot
// bitmasks per stripe, element arity, and a state-change hook invoked at
// finalize and freeze transitions.
//
// The Descriptor registry mirrors the teacher's
// xact.Table[kind] -> xact.Descriptor pattern (xact/xreg/xreg.go): a small
// process-wide registry of per-class metadata keyed by a stable uint32 id
// and guarded by an RWMutex.
package vtable

import "sync/atomic"

// Kind classifies what a VTable describes.
type Kind uint8

const (
	KindRefClass Kind = iota
	KindArray
	KindString
	KindInvocation
	KindCycleHandle
)

// Stripe selects which ref-slot bitmask to consult: GC collection walks
// references differently from freeze (which must also cross into
// as-yet-uninterned siblings).
type Stripe uint8

const (
	StripeGC Stripe = iota
	StripeFreeze
	numStripes
)

// StateChangeHook is invoked at finalize (refcount reaches zero) and at
// freeze (an object becomes eligible for interning) transitions.
type StateChangeHook func(obj uintptr, transition Transition)

type Transition uint8

const (
	TransitionFinalize Transition = iota
	TransitionFreeze
)

// VTable is immutable once constructed; the single low-order "frozen" bit
// the spec calls for on the vtable pointer is modeled here as an atomic
// flag on the VTable value itself, set once at freeze time for the class
// (not per-instance; no per-instance frozen flag exists).
type VTable struct {
	Kind Kind

	UserByteSize            uintptr
	UninternedMetadataSize  uintptr
	InternedMetadataSize    uintptr
	ElementArity            int // > 0 for array classes: bytes-per-element multiplier info lives in refSlots[*]

	refSlots [numStripes][]uint64 // one bit per pointer-sized slot, per stripe

	OnStateChange StateChangeHook

	frozen uint32
}

// New constructs a VTable. refSlotsGC/refSlotsFreeze are bitmasks (one bit
// per pointer-sized slot in UserByteSize) used by the GC and freeze walks
// respectively; pass nil for a class with no pointer slots.
func New(kind Kind, userSize, uninternedMeta, internedMeta uintptr, refSlotsGC, refSlotsFreeze []uint64) *VTable {
	vt := &VTable{
		Kind:                   kind,
		UserByteSize:           userSize,
		UninternedMetadataSize: uninternedMeta,
		InternedMetadataSize:   internedMeta,
	}
	vt.refSlots[StripeGC] = refSlotsGC
	vt.refSlots[StripeFreeze] = refSlotsFreeze
	return vt
}

// RefSlots returns the ref-slot bitmask for the given stripe; for array
// classes this describes one element's layout and callers replicate it
// ElementArity times.
func (vt *VTable) RefSlots(stripe Stripe) []uint64 { return vt.refSlots[stripe] }

// HasRefSlot reports whether the pointer-sized slot at index idx (0-based,
// counting from the start of the user bytes) holds a traced reference.
func (vt *VTable) HasRefSlot(stripe Stripe, idx int) bool {
	bits := vt.refSlots[stripe]
	word := idx / 64
	if word >= len(bits) {
		return false
	}
	return bits[word]&(1<<uint(idx%64)) != 0
}

// MarkFrozen sets the low-order frozen bit atomically; MarkFrozen is
// idempotent and safe to call concurrently from multiple freeze walks that
// raced to freeze the same class description.
func (vt *VTable) MarkFrozen()    { atomic.StoreUint32(&vt.frozen, 1) }
func (vt *VTable) IsFrozen() bool { return atomic.LoadUint32(&vt.frozen) != 0 }

// Fire invokes OnStateChange if vt is non-nil and the hook is set, passing obj's address as an opaque
// uintptr (the hook never receives a typed pointer: it must not dereference
// memory the caller doesn't already hold a lock or reference for).
func (vt *VTable) Fire(obj uintptr, t Transition) {
	if vt != nil && vt.OnStateChange != nil {
		vt.OnStateChange(obj, t)
	}
}
