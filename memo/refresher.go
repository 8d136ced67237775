package memo

import "sync"

// Refresher implements spec §4.5.3: try to extend a stale head revision's
// End forward to at least the query txn without re-running the user
// thunk, by recursively refreshing inactive trace inputs. Multiple
// concurrent callers share one Refresher (installed on the Revision by
// Invocation.AsyncEvaluate); joiners block on done and all observe the
// same outcome.
type Refresher struct {
	inv *Invocation
	rev *Revision

	mu   sync.Mutex
	done bool
	ok   bool
	cond *sync.Cond
}

func newRefresher(inv *Invocation, rev *Revision) *Refresher {
	r := &Refresher{inv: inv, rev: rev}
	r.cond = sync.NewCond(&r.mu)
	go r.run()
	return r
}

// join blocks caller until the refresh attempt resolves, then re-enters
// the lookup protocol so AsyncEvaluate re-reads whatever state resulted
// (either the extended head, or a freshly spawned recomputation), passing
// onReady through as caller's continuation.
func (r *Refresher) join(caller *Context, onReady func(Value)) {
	r.mu.Lock()
	for !r.done {
		r.cond.Wait()
	}
	r.mu.Unlock()
	r.inv.AsyncEvaluate(caller, onReady)
}

// run executes the refresh attempt: every trace input the inactive
// bitmask flags is recursively re-evaluated at the same query txn; if any
// input's identity revision changed (it refused to refresh to the value
// this trace still references) the whole attempt fails and falls back to
// re-running the thunk on next lookup (AsyncEvaluate will see canRefresh
// still false and take the miss path).
func (r *Refresher) run() {
	ok := r.attemptExtend()

	r.inv.mu.Lock()
	r.rev.refresher = nil
	if ok {
		r.rev.canRefresh = true
	}
	r.inv.mu.Unlock()

	r.mu.Lock()
	r.done, r.ok = true, ok
	r.mu.Unlock()
	r.cond.Broadcast()
}

// attemptExtend walks the head's trace, refreshing each input flagged
// inactive; the new End is the minimum of every (possibly refreshed)
// input's End. An input whose value changed identity fails the whole
// attempt.
func (r *Refresher) attemptExtend() bool {
	t := r.rev.trace
	if t == nil {
		return false
	}
	newEnd := NeverTxnId
	for i, e := range t.edges {
		input := e.rev
		if t.isInactive(i) {
			refreshed, changed := refreshInput(input, r.inv.head)
			if changed {
				return false
			}
			input = refreshed
		}
		if input.End < newEnd {
			newEnd = input.End
		}
	}
	if newEnd <= r.rev.Begin {
		return false
	}
	r.inv.mu.Lock()
	r.rev.End = newEnd
	r.inv.mu.Unlock()
	return true
}

// refreshInput asks input's own owner to bring it up to date; returns the
// (possibly same) Revision and whether its identity/value changed in a
// way that invalidates this refresh attempt.
func refreshInput(input *Revision, at *Revision) (*Revision, bool) {
	if input.owner == nil {
		return input, false // pure or detached: nothing to refresh
	}
	input.owner.mu.Lock()
	defer input.owner.mu.Unlock()
	head := input.owner.head
	if head == input {
		return input, false
	}
	return input, !head.value.Equal(input.value)
}
