package memo

// invalidateWorklist implements spec §4.5.4: committing a transaction at T
// truncates the target's head to end=T, then propagates to every
// subscriber, children before parents, re-acquiring each revision's owning
// invocation lock fresh as the walk climbs upward: while holding an input's
// owning lock it takes each subscriber's owning lock (child before parent,
// per the lock hierarchy in §4.5.5).
func invalidateWorklist(initial []*Revision, t TxnId) {
	work := initial
	for len(work) > 0 {
		var next []*Revision
		for _, rev := range work {
			inv := rev.owner
			if inv == nil {
				continue
			}
			inv.mu.Lock()
			rev.subs.each(func(sub subscriber) {
				// sub.rev's trace/End/canRefresh belong to its own owning
				// Invocation, not inv: take that lock too (unless it's the
				// same Invocation already held above), the same rule
				// Context.traceEdges follows when registering the
				// reciprocal edge.
				subInv := sub.rev.owner
				if subInv != nil && subInv != inv {
					subInv.mu.Lock()
				}
				if sub.rev.trace != nil {
					sub.rev.trace.markInactive(sub.traceIdx)
				}
				if sub.rev.End == NeverTxnId {
					sub.rev.End = t
					next = append(next, sub.rev)
				}
				if sub.rev.trace == nil || sub.rev.trace.len() == 0 {
					sub.rev.canRefresh = false
					next = append(next, sub.rev)
				}
				if subInv != nil && subInv != inv {
					subInv.mu.Unlock()
				}
			})
			inv.mu.Unlock()
		}
		work = next
	}
}
