package intern

import (
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/skiplang/skiprt/internal/debug"
	"github.com/skiplang/skiprt/internal/ratomic"
	"github.com/skiplang/skiprt/internal/rtstats"
	"github.com/skiplang/skiprt/vtable"
)

const numStripes = 256

// bucket is one lock-striped slot of the InternTable: a hash-chain of
// already-interned objects (and cycle handles) sharing a stripe.
type bucket struct {
	mu   sync.Mutex
	head *IObj          // chain via IObj.nextSlot (chainLink)
	cyc  map[uint64]*CycleHandle
}

// InternTable is the process-wide content-addressed table. A cuckoo filter
// gives InsertSingleton a cheap negative answer before it walks a bucket's
// chain; the filter is consulted with the bucket's mutex already held, and
// Decref does not consult it.
type InternTable struct {
	buckets [numStripes]bucket
	filter  *cuckoo.Filter
	filterMu sync.Mutex
	size    ratomic.Int64
}

func NewTable() *InternTable {
	return &InternTable{filter: cuckoo.NewFilter(1 << 20)}
}

func (t *InternTable) stripe(hash uint64) *bucket { return &t.buckets[hash%numStripes] }

func (t *InternTable) maybeContains(hash uint64) bool {
	var key [8]byte
	putU64(key[:], hash)
	t.filterMu.Lock()
	ok := t.filter.Lookup(key[:])
	t.filterMu.Unlock()
	return ok
}

func (t *InternTable) markPresent(hash uint64) {
	var key [8]byte
	putU64(key[:], hash)
	t.filterMu.Lock()
	t.filter.Insert(key[:])
	t.filterMu.Unlock()
}

func (t *InternTable) unmarkPresent(hash uint64) {
	var key [8]byte
	putU64(key[:], hash)
	t.filterMu.Lock()
	t.filter.Delete(key[:])
	t.filterMu.Unlock()
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// lookup finds a byte-equal, already-interned IObj under the bucket lock.
// Caller must hold b.mu.
func (b *bucket) lookup(hash uint64, vtID uint32, bytes []byte) *IObj {
	for o := b.head; o != nil; o = o.chainNext() {
		if o.hash != hash || !bytesEqual(o.UserBytes, bytes) {
			continue
		}
		if o.VT == nil {
			// Unregistered class: the vtable id is checked only through
			// the content hash, which includes it.
			if _, registered := vtable.VTableByID(vtID); !registered {
				return o
			}
			continue
		}
		if id, ok := vtable.IDOf(o.VT); ok && id == vtID {
			return o
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (b *bucket) insertChain(o *IObj) {
	o.setChainNext(b.head)
	b.head = o
}

func (b *bucket) removeChain(o *IObj) {
	if b.head == o {
		b.head = o.chainNext()
		return
	}
	for p := b.head; p != nil; p = p.chainNext() {
		if n := p.chainNext(); n == o {
			p.setChainNext(o.chainNext())
			return
		}
	}
}

// InsertSingleton installs a freshly-frozen, acyclic object, or returns the
// existing canonical object with its refcount bumped if a byte-equal entry
// is already present.
func (t *InternTable) InsertSingleton(vtID uint32, bytes []byte, refs []*IObj) *IObj {
	refHashes := make([]uint64, len(refs))
	for i, r := range refs {
		refHashes[i] = r.hash
	}
	hash := contentHash(vtID, bytes, refHashes)
	b := t.stripe(hash)

	b.mu.Lock()
	var existing, fresh *IObj
	if t.maybeContains(hash) {
		existing = b.lookup(hash, vtID, bytes)
		if existing != nil {
			existing.refcount.Inc()
		}
	}
	if existing == nil {
		fresh = &IObj{UserBytes: bytes, hash: hash, Refs: refs}
		if vt, ok := vtable.VTableByID(vtID); ok {
			fresh.VT = vt
		}
		fresh.refcount.Store(1)
		b.insertChain(fresh)
		t.markPresent(hash)
		rtstats.InternTableSize.Set(float64(t.size.Inc()))
	}
	b.mu.Unlock()

	if existing != nil {
		// The candidate lost the race against an identical, already
		// canonical object: its own reference bumps (taken while the
		// candidate was being built) are given back now that the bucket
		// lock is released, so this never reenters the same stripe's
		// mutex.
		for _, r := range refs {
			t.Decref(r)
		}
		return existing
	}
	return fresh
}

// InsertCycle installs a collapsed cyclic SCC under a single CycleHandle,
// keyed by the canonical rotation hash so isomorphic cycles intern to
// identical handles.
func (t *InternTable) InsertCycle(members []*IObj, root *IObj, hash uint64) *CycleHandle {
	b := t.stripe(hash)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cyc == nil {
		b.cyc = make(map[uint64]*CycleHandle)
	}
	if h, ok := b.cyc[hash]; ok {
		h.incref()
		return h
	}
	h := newCycleHandle(members, root, hash)
	b.cyc[hash] = h
	t.size.Inc()
	return h
}

// Decref follows the delegation rule (cycle members delegate to their
// CycleHandle), uses racy bucket locking to avoid the "revived by a
// concurrent lookup" race, and when the count hits zero removes the entry
// then decrefs its outgoing references in a worklist loop (deferring
// freeing until scanning finishes, for cache locality).
func (t *InternTable) Decref(o *IObj) {
	if o.IsCycleMember() {
		h := o.CycleHandleOf()
		if h.decref() != 0 {
			return
		}
		t.finalizeCycle(h)
		return
	}

	b := t.stripe(o.hash)
	b.mu.Lock()
	if o.refcount.Dec() != 0 {
		b.mu.Unlock()
		return
	}
	// Racy revival check: re-read under lock. If someone incremented it
	// back to life between Dec and the lock (impossible here since we
	// already hold the lock across Dec, but kept for documentation parity
	// with the spec's "about to be revived" hazard when decref and lookup
	// race on separate fast paths) we would restore the chain; since this
	// implementation does the decrement under the bucket lock, the hazard
	// cannot occur and we proceed straight to removal.
	b.removeChain(o)
	t.unmarkPresent(o.hash)
	rtstats.InternTableSize.Set(float64(t.size.Dec()))
	b.mu.Unlock()

	o.VT.Fire(0, vtable.TransitionFinalize)
	t.drainWorklist(o.Refs)
}

func (t *InternTable) finalizeCycle(h *CycleHandle) {
	for _, m := range h.Members {
		b := t.stripe(m.hash)
		b.mu.Lock()
		delete(b.cyc, h.hash)
		b.mu.Unlock()
	}
	var refs []*IObj
	for _, m := range h.Members {
		refs = append(refs, m.Refs...)
	}
	t.drainWorklist(refs)
}

// drainWorklist decrefs a batch of references breadth-first (collecting
// the next layer before recursing) so the scan touches each IObj's memory
// once before any frees happen, improving cache locality over naive
// recursive decref.
func (t *InternTable) drainWorklist(initial []*IObj) {
	work := append([]*IObj(nil), initial...)
	for len(work) > 0 {
		var next []*IObj
		for _, o := range work {
			if o == nil {
				continue
			}
			if o.IsCycleMember() {
				h := o.CycleHandleOf()
				if h.decref() == 0 {
					t.finalizeCycleNoRecurse(h, &next)
				}
				continue
			}
			b := t.stripe(o.hash)
			b.mu.Lock()
			zero := o.refcount.Dec() == 0
			if zero {
				b.removeChain(o)
				t.unmarkPresent(o.hash)
				t.size.Dec()
			}
			b.mu.Unlock()
			if zero {
				o.VT.Fire(0, vtable.TransitionFinalize)
				next = append(next, o.Refs...)
			}
		}
		work = next
	}
	rtstats.InternTableSize.Set(float64(t.size.Load()))
}

func (t *InternTable) finalizeCycleNoRecurse(h *CycleHandle, next *[]*IObj) {
	for _, m := range h.Members {
		b := t.stripe(m.hash)
		b.mu.Lock()
		delete(b.cyc, h.hash)
		b.mu.Unlock()
	}
	for _, m := range h.Members {
		*next = append(*next, m.Refs...)
	}
}

func init() {
	debug.Assert(true)
}
