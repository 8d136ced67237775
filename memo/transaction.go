package memo

import "sync"

var txnMu sync.Mutex

// assignment is one pending (Invocation, Value) pair in a Transaction,
// spec §3/§4.6.
type assignment struct {
	inv *Invocation
	val Value
}

// Transaction batches Cell writes for atomic commit (spec §4.6). Callers
// build one with NewTransaction, call Set repeatedly, then Commit.
type Transaction struct {
	assigns []assignment
}

func NewTransaction() *Transaction { return &Transaction{} }

func (tx *Transaction) Set(inv *Invocation, v Value) {
	tx.assigns = append(tx.assigns, assignment{inv: inv, val: v})
}

// Commit implements spec §4.6: acquire the global txn mutex, allocate the
// next TxnId, truncate+replace each assignment's head (deduplicated,
// latest-wins, in reverse order), publish newestVisibleTxn, and notify
// invalidation watchers outside the lock.
func (tx *Transaction) Commit() TxnId {
	txnMu.Lock()
	begin := NewestVisibleTxn() + 1

	seen := make(map[*Invocation]bool, len(tx.assigns))
	var invalidated []*Revision
	for i := len(tx.assigns) - 1; i >= 0; i-- {
		a := tx.assigns[i]
		if seen[a.inv] {
			continue
		}
		seen[a.inv] = true

		a.inv.mu.Lock()
		head := a.inv.head
		if head != nil && head.End == NeverTxnId && head.value.Equal(a.val) {
			a.inv.mu.Unlock()
			continue
		}
		if head != nil {
			head.End = begin
			invalidated = append(invalidated, head)
		}
		fresh := newRevision(begin, NeverTxnId, a.val)
		a.inv.linkBefore(fresh, head)
		a.inv.mu.Unlock()

		globalCleanup.register(begin, a.inv)
	}

	publishNewestVisible(begin)
	if globalCleanup.empty() {
		bumpOldestVisible(begin)
	}
	txnMu.Unlock()

	invalidateWorklist(invalidated, begin)
	return begin
}
