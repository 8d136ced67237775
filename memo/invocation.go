package memo

import (
	"sync"

	"github.com/skiplang/skiprt/internal/debug"
	"github.com/skiplang/skiprt/internal/nlog"
	"github.com/skiplang/skiprt/internal/ratomic"
	"github.com/skiplang/skiprt/intern"
)

// OwningList tags which background list, if any, currently holds an
// Invocation discardable for memory pressure (spec §3: "OwningList tag ∈
// {None, Lru, Cleanup}").
type OwningList uint8

const (
	OwningNone OwningList = iota
	OwningLru
	OwningCleanup
)

// Invocation is one cache entry keyed by (function, arguments): once
// interned, the key is immutable and two calls with byte-equal arguments
// resolve to the identical *Invocation pointer. The revision list is
// guarded by mu; the LRU links are updated under the LRU list's own mutex,
// and the OwningList tag is written under either lock,
// mirroring the teacher's rule that an XactTCB's own fields are touched
// only from methods that already hold whatever coordination the caller
// arranged (xact/xs/tcb.go: wg/refc/dm mutated only inside Run/recv/TxnAbort).
type Invocation struct {
	Key *intern.IObj // nil for a pure Cell with no real key

	mu sync.Mutex

	head, tail *Revision // head = newest end, tail = oldest begin

	lruPrev, lruNext *Invocation
	owningList       OwningList

	refcount ratomic.Int32

	// thunk computes the value on a cache miss. Callers blocked on a
	// placeholder are held on the placeholder Revision itself (spec §4.5.1
	// step 3a: "register caller with that placeholder's context").
	thunk func(ctx *Context)
}

// NewInvocation constructs an invocation around an already-interned key and
// the thunk to run on a cache miss.
func NewInvocation(key *intern.IObj, thunk func(ctx *Context)) *Invocation {
	inv := &Invocation{Key: key, thunk: thunk}
	inv.refcount.Store(1)
	return inv
}

func (inv *Invocation) retain() { inv.refcount.Inc() }
func (inv *Invocation) release() {
	if inv.refcount.Dec() == 0 {
		nlog.Infoln("invocation finalized")
	}
}

// AsyncEvaluate implements spec §4.5.1: resolve this invocation's value as
// seen by caller's queryTxn, installing a placeholder and running the
// thunk on a miss, spawning a Refresher on a stale-but-refreshable hit, or
// completing synchronously on a live hit. onReady is caller's continuation
// (spec §4.8): it always receives the resolved value exactly once, whether
// that happens before this call returns (a hit) or later from another
// goroutine (a miss, a refresher join, or a wake-from-placeholder).
func (inv *Invocation) AsyncEvaluate(caller *Context, onReady func(Value)) {
	t := caller.QueryTxn

	inv.mu.Lock()
	if inv.owningList == OwningLru {
		globalLRU.touch(inv)
	}

	rev := inv.findCovering(t)
	switch {
	case rev == nil:
		ctx := inv.installPlaceholder(t)
		ctx.caller = caller
		ctx.registerWaiter(waiter{ctx: caller, onReady: onReady})
		inv.mu.Unlock()
		inv.runThunk(ctx)
		return

	case rev.IsPlaceholder():
		rev.value.Wakers = append(rev.value.Wakers, waiter{ctx: caller, onReady: onReady})
		inv.mu.Unlock()
		return

	case rev.trace != nil && !rev.canRefresh:
		// has a value but is known stale: spawn (or join) a refresher.
		r := rev.refresher
		if r == nil {
			r = newRefresher(inv, rev)
			rev.refresher = r
		}
		inv.mu.Unlock()
		r.join(caller, onReady)
		return

	default:
		caller.addDependency(rev)
		inv.mu.Unlock()
		onReady(rev.value)
		return
	}
}

// findCovering walks the revision list (newest-end-first) for the first
// revision whose [Begin,End) contains t. Caller must hold inv.mu.
func (inv *Invocation) findCovering(t TxnId) *Revision {
	for r := inv.head; r != nil; r = r.next {
		if r.covers(t) {
			return r
		}
		if r.End <= t {
			break // list is sorted by End descending: nothing further covers t
		}
	}
	return nil
}

// installPlaceholder inserts a new placeholder Revision spanning
// [t, next.Begin) or [t, kNeverTxnId), and returns a fresh Context wired to
// it. Caller must hold inv.mu; it's released by the time the thunk runs.
func (inv *Invocation) installPlaceholder(t TxnId) *Context {
	end := NeverTxnId
	var insertBefore *Revision // first existing revision with Begin <= t (ph's older neighbor)
	for r := inv.head; r != nil; r = r.next {
		if r.Begin > t {
			end = r.Begin
			continue
		}
		insertBefore = r
		break
	}
	ph := newRevision(t, end, contextValue())
	inv.linkBefore(ph, insertBefore)

	inv.retain() // released by EvaluateDone once this evaluation finishes
	ctx := &Context{Invocation: inv, QueryTxn: t, placeholder: ph, deps: make(map[*Revision]int)}
	return ctx
}

func (inv *Invocation) linkBefore(r, before *Revision) {
	r.owner = inv
	if before == nil {
		r.prev = inv.tail
		if inv.tail != nil {
			inv.tail.next = r
		}
		inv.tail = r
		if inv.head == nil {
			inv.head = r
		}
		return
	}
	r.next = before
	r.prev = before.prev
	if before.prev != nil {
		before.prev.next = r
	} else {
		inv.head = r
	}
	before.prev = r
}

func (inv *Invocation) unlink(r *Revision) {
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		inv.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	} else {
		inv.tail = r.prev
	}
	r.prev, r.next = nil, nil
}

func (inv *Invocation) runThunk(ctx *Context) {
	debug.Assert(inv.thunk != nil)
	inv.thunk(ctx)
}

// insertCandidate implements spec §4.5.2 step 3-4: insert candidate in
// place of placeholder, merging with a touching equal-valued neighbor,
// truncating the placeholder to the portion still needed by its original
// query (dropping the rest), or inserting fresh when neither applies.
// Caller must hold inv.mu. Returns the Revision that now represents
// candidate's value in the list (which may be an extended neighbor).
func (inv *Invocation) insertCandidate(placeholder, candidate *Revision) *Revision {
	if placeholder == nil {
		// Replay path (serialize.FakeCaller): there is no placeholder to
		// replace, just a fresh revision to insert at its sorted position.
		var before *Revision
		for r := inv.head; r != nil; r = r.next {
			if r.Begin <= candidate.Begin {
				before = r
				break
			}
		}
		inv.linkBefore(candidate, before)
		return candidate
	}

	before := placeholder.next // older neighbor, if any
	after := placeholder.prev  // newer neighbor, if any

	if after != nil && after.Begin == candidate.End && after.value.Equal(candidate.value) {
		after.Begin = candidate.Begin
		inv.dropPlaceholderRemainder(placeholder, candidate)
		// candidate itself is never linked in; its freshly-built trace would
		// otherwise hold every dependency's retain/subs entry forever.
		candidate.detachTrace(inv)
		return after
	}
	if before != nil && before.End == candidate.Begin && before.value.Equal(candidate.value) {
		before.End = candidate.End
		inv.dropPlaceholderRemainder(placeholder, candidate)
		candidate.detachTrace(inv)
		return before
	}

	inv.dropPlaceholderRemainder(placeholder, candidate)
	inv.linkBefore(candidate, before)
	return candidate
}

// dropPlaceholderRemainder removes the placeholder Revision, since the
// query that created it is now answered by candidate; any part of the
// placeholder's span outside candidate's lifespan is simply discarded (a
// later AsyncEvaluate for that sub-range re-enters the lookup protocol).
func (inv *Invocation) dropPlaceholderRemainder(placeholder, candidate *Revision) {
	inv.unlink(placeholder)
}
