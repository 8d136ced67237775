package memo

import "sync"

// CleanupList is the per-TxnId bucket spec §4.7 describes: invocations
// whose revision lists need trimming once oldestVisibleTxn advances past
// that TxnId. Both register and Drain take the exclusive write lock (the
// insert path is not lock-free; only empty uses the read lock), following
// the teacher's housekeeper convention of an always-on insert path and a
// periodic, coarser-grained sweep that hk's single background goroutine
// would run over what foreground calls appended.
type CleanupList struct {
	mu      sync.RWMutex
	buckets map[TxnId][]*Invocation
}

var globalCleanup = &CleanupList{buckets: make(map[TxnId][]*Invocation)}

func (c *CleanupList) register(t TxnId, inv *Invocation) {
	c.mu.Lock()
	c.buckets[t] = append(c.buckets[t], inv)
	c.mu.Unlock()
}

// empty reports whether any TxnId has a pending cleanup bucket, under the
// same lock register/Drain use (spec §4.6 step 3: Commit only bumps
// oldestVisibleTxn immediately when there is nothing waiting to be
// cleaned up first).
func (c *CleanupList) empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buckets) == 0
}

// Drain runs every invocation's cleanup for every TxnId no longer visible
// (<= oldestVisibleTxn), trimming tail revisions whose End <= that bound
// and then pushing each invocation onto the LRU list.
// Mirrors hkPruneActive/hkDelOld's "swap the head, walk it, drop the
// lock" shape so a slow cleanup() never blocks new registrations.
func (c *CleanupList) Drain() {
	oldest := OldestVisibleTxn()

	c.mu.Lock()
	var due []*Invocation
	for t, invs := range c.buckets {
		if t > oldest {
			continue
		}
		due = append(due, invs...)
		delete(c.buckets, t)
	}
	c.mu.Unlock()

	for _, inv := range due {
		inv.cleanup(oldest)
	}
}

// cleanup trims tail revisions whose End <= oldest, then pushes the
// invocation onto the LRU list whatever its owningList tag.
func (inv *Invocation) cleanup(oldest TxnId) {
	inv.mu.Lock()
	for inv.tail != nil && inv.tail != inv.head && inv.tail.End <= oldest {
		dead := inv.tail
		inv.unlink(dead)
		dead.owner = nil
	}
	if inv.owningList == OwningNone {
		inv.owningList = OwningCleanup
	}
	inv.mu.Unlock()

	globalLRU.pushHead(inv)
}
