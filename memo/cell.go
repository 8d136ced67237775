package memo

// Cell is a mutable memoization root (spec §4.6): an Invocation with no
// real key, pre-populated with a single initial revision. Reads go
// through AsyncEvaluate like any other invocation; writes flow through a
// Transaction so they participate in the same commit/invalidation
// protocol as ordinary memoized assignments.
type Cell struct {
	inv *Invocation
}

// NewCell creates a Cell holding initial as a pure ([0, kNeverTxnId))
// revision, matching a fresh, never-yet-written input.
func NewCell(initial Value) *Cell {
	inv := &Invocation{}
	inv.refcount.Store(1)
	rev := newRevision(PureTxn, NeverTxnId, initial)
	rev.owner = inv
	inv.head, inv.tail = rev, rev
	return &Cell{inv: inv}
}

// Get reads the Cell's current value as seen by caller's queryTxn,
// delivering it through onReady (spec §4.8: delivery is always by
// continuation, even though a Cell read is almost always a synchronous
// hit against its always-present initial-or-latest revision).
func (c *Cell) Get(caller *Context, onReady func(Value)) { c.inv.AsyncEvaluate(caller, onReady) }

// Set queues a write to commit as part of tx, making this Cell's new
// value visible from tx.Commit()'s returned TxnId onward.
func (c *Cell) Set(tx *Transaction, v Value) { tx.Set(c.inv, v) }

// SetNow is a convenience wrapper that builds and commits a single-element
// Transaction, returning the TxnId the write became visible at.
func (c *Cell) SetNow(v Value) TxnId {
	tx := NewTransaction()
	c.Set(tx, v)
	return tx.Commit()
}
