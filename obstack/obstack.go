// Package obstack implements the per-task bump allocator: scoped "notes"
// (positions), a generational Cheney-style collector over [note, top), and
// promotion/interning of objects that escape a task's scope.
//
// One Obstack instance exists per task and is never shared between tasks;
// every method here assumes the caller already owns it (no internal
// locking), matching the teacher's per-jogger-owned-state convention in
// xact/xs (each XactTCB/lruJ mutates only its own fields, coordinating with
// siblings solely through channels, WaitGroups, and atomics).
package obstack

import (
	"github.com/skiplang/skiprt/internal/debug"
	"github.com/skiplang/skiprt/internal/rtstats"
	"github.com/skiplang/skiprt/intern"
	"github.com/skiplang/skiprt/vtable"
)

// Obj is a bump-allocated object. Obstack never hands out raw unsafe
// pointers; callers address objects through *Obj, whose identity is stable
// across a collection; CollectWithRoots rewrites a surviving Obj's position
// in place when it moves it.
type Obj struct {
	pos    Pos
	vt     *vtable.VTable
	bytes  []byte
	refs   []*Obj // outgoing references, in ref-slot order
	pinned bool
	large  bool
}

func (o *Obj) VTable() *vtable.VTable { return o.vt }
func (o *Obj) Bytes() []byte          { return o.bytes }
func (o *Obj) Refs() []*Obj           { return o.refs }
func (o *Obj) Pos() Pos               { return o.pos }

// largeObjHeader records an allocation that doesn't fit in a chunk, kept in
// a per-obstack singly-linked list ordered by position (spec §3).
type largeObjHeader struct {
	obj  *Obj
	next *largeObjHeader
}

// internReg tracks an IObj registered to this obstack's position so it can
// be decref'd on rollback (collect(note) dropping everything newer).
type internReg struct {
	pos  Pos
	iobj *intern.IObj
}

// Obstack is a single task's bump-allocation arena.
type Obstack struct {
	interner *intern.Interner

	generation uint64
	offset     uint32

	live []*Obj // objects at or after the current generation's start, in allocation order

	largeHead *largeObjHeader
	internRegs []internReg

	handles []*Handle
}

func New(interner *intern.Interner) *Obstack {
	return &Obstack{interner: interner}
}

func (s *Obstack) currentPos() Pos { return makePos(s.generation, s.offset) }

// Alloc bump-allocates vt.UserByteSize bytes for an object described by vt, linking in
// refs (already-allocated or already-interned dependencies resolved by the
// caller — Obstack doesn't know a class's layout beyond what vt reports).
func (s *Obstack) Alloc(vt *vtable.VTable, refs []*Obj) *Obj {
	o := &Obj{pos: s.currentPos(), vt: vt, bytes: make([]byte, vt.UserByteSize), refs: refs}
	s.offset++
	s.live = append(s.live, o)
	return o
}

// AllocPinned allocates like Alloc and sets the object's pinned flag.
// Collection does not consult the flag: CollectWithRoots reassigns a pinned
// survivor's position and drops an unreachable pinned object like any other.
func (s *Obstack) AllocPinned(vt *vtable.VTable, refs []*Obj) *Obj {
	o := s.Alloc(vt, refs)
	o.pinned = true
	return o
}

// AllocLarge allocates directly as a large object, threading a header into
// this obstack's large-object list at the current position.
func (s *Obstack) AllocLarge(vt *vtable.VTable, refs []*Obj) *Obj {
	o := s.Alloc(vt, refs)
	o.large = true
	s.largeHead = &largeObjHeader{obj: o, next: s.largeHead}
	return o
}

// Note records the current Pos.
func (s *Obstack) Note() Pos { return s.currentPos() }

// Collect performs a no-root collection: it drops everything newer than
// note, including large objects and intern-table registrations whose
// position is newer than note.
func (s *Obstack) Collect(note Pos) {
	s.sweepNewerThan(note)
	rtstats.GCCollections.Inc()
}

// CollectWithRoots compacts live data in [note, frontier) forward, treating
// roots as the surviving set (a Cheney-style copy over a single linear
// address range), then "reinstalls" survivors past note. Root Obj pointers
// are updated in place: their position is bumped to sit just after note,
// exactly as if they'd been allocated fresh there, and everything in
// [note, frontier) NOT reachable from roots is dropped.
func (s *Obstack) CollectWithRoots(note Pos, roots []*Obj) {
	roots = append(append([]*Obj(nil), roots...), s.handleRoots()...)
	keep := make(map[*Obj]bool, len(roots)*2)
	var mark func(o *Obj)
	mark = func(o *Obj) {
		if o == nil || keep[o] || o.pos.Less(note) {
			return
		}
		keep[o] = true
		for _, r := range o.refs {
			mark(r)
		}
	}
	for _, r := range roots {
		mark(r)
	}

	survivors := make([]*Obj, 0, len(keep))
	newOffset := note.Offset()
	newGen := note.Generation()
	for _, o := range s.live {
		if o.pos.Less(note) {
			survivors = append(survivors, o)
			continue
		}
		if !keep[o] {
			continue // dropped: unreachable from roots
		}
		o.pos = makePos(newGen, newOffset)
		newOffset++
		survivors = append(survivors, o)
	}
	s.live = survivors
	s.offset = newOffset
	s.sweepLargeAndInterns(note, keep)
	rtstats.GCCollections.Inc()
	debug.Assertf(s.currentPos().Generation() == newGen, "collect left obstack generation inconsistent")
}

func (s *Obstack) sweepNewerThan(note Pos) {
	kept := make(map[*Obj]bool, len(s.live))
	survivors := s.live[:0:0]
	for _, o := range s.live {
		if !o.pos.Less(note) {
			continue
		}
		survivors = append(survivors, o)
		kept[o] = true
	}
	s.live = survivors
	s.sweepLargeAndInterns(note, kept)
	s.offset = note.Offset()
	s.generation = note.Generation()
}

func (s *Obstack) sweepLargeAndInterns(note Pos, kept map[*Obj]bool) {
	var newLarge *largeObjHeader
	// rebuild the large-object list by walking newest-first, keeping entries
	// whose position predates note or whose object survived compaction
	var rebuilt []*largeObjHeader
	for h := s.largeHead; h != nil; h = h.next {
		if h.obj.pos.Less(note) || kept[h.obj] {
			rebuilt = append(rebuilt, h)
		}
	}
	for i := len(rebuilt) - 1; i >= 0; i-- {
		rebuilt[i].next = newLarge
		newLarge = rebuilt[i]
	}
	s.largeHead = newLarge

	survivorsRegs := s.internRegs[:0:0]
	for _, reg := range s.internRegs {
		if reg.pos.Less(note) {
			survivorsRegs = append(survivorsRegs, reg)
			continue
		}
		if s.interner != nil {
			s.interner.Decref(reg.iobj)
		}
	}
	s.internRegs = survivorsRegs
}
