package memo

import "github.com/skiplang/skiprt/internal/ratomic"

// Revision is one cached value over a half-open [Begin, End) TxnId range,
// linked into its owning Invocation's doubly-linked list (spec §3).
// Revisions in a list are sorted by End descending and never overlap; the
// list's discipline (sorted-by-end, touching-equal-values merged) is
// maintained exclusively by Invocation.insertCandidate under the
// Invocation's lock — Revision itself exposes no public mutators.
type Revision struct {
	Begin, End TxnId

	prev, next *Revision // list order: prev = newer, next = older

	value Value

	owner    *Invocation
	refcount ratomic.Int32

	attached   bool // part of owner's live list right now
	canRefresh bool // has a trace and a non-placeholder value
	detached   bool // evicted by LRU/cleanup: only this rev's own lock applies

	subs      SubscriptionSet
	trace     *Trace // only the head may carry a non-nil trace
	refresher *Refresher
}

// IsPure reports the spec's "begin=0 ⇒ end=kNeverTxnId, no trace, no
// subscribers" pure revision.
func (r *Revision) IsPure() bool { return r.Begin == PureTxn }

// IsPlaceholder reports whether this revision's value is the Context
// sentinel (still being computed).
func (r *Revision) IsPlaceholder() bool { return r.value.IsPlaceholder() }

// covers reports whether txn falls in [Begin, End).
func (r *Revision) covers(txn TxnId) bool { return r.Begin <= txn && txn < r.End }

func newRevision(begin, end TxnId, v Value) *Revision {
	return &Revision{Begin: begin, End: end, value: v, canRefresh: false}
}

func (r *Revision) retain() { r.refcount.Inc() }

func (r *Revision) release() {
	if r.refcount.Dec() == 0 {
		r.subs = SubscriptionSet{}
		r.trace = nil
	}
}

// detachTrace undoes what Context.traceEdges did when r was built: each
// dependency's reciprocal subscriber entry is removed and the retain
// Context.addDependency took on it is released. Called whenever r's trace
// stops mattering — superseded as head (context.go's EvaluateDone) or
// discarded unlinked after a merge (Invocation.insertCandidate) — so a
// dependency's subs/refcount don't keep every past candidate's edge alive
// forever. heldOwner is the Invocation whose lock the caller already
// holds (nil if none), matching ctx.traceEdges's cross-owner locking rule
// for a dependency owned by a different Invocation.
func (r *Revision) detachTrace(heldOwner *Invocation) {
	if r.trace == nil {
		return
	}
	for _, e := range r.trace.edges {
		dep := e.rev
		if dep.owner != nil && dep.owner != heldOwner {
			dep.owner.mu.Lock()
		}
		dep.subs.removeAt(e.subIndex)
		if dep.owner != nil && dep.owner != heldOwner {
			dep.owner.mu.Unlock()
		}
		dep.release()
	}
	r.trace = nil
}
