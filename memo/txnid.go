// Package memo implements the memoization graph: Invocation/Revision chains,
// Context-driven evaluation, Transaction commit, invalidation propagation,
// and the Invocation LRU/CleanupList housekeeping that reclaims discardable
// entries. The refcounted lifecycle and lock-hierarchy discipline mirror the
// teacher's XactTCB/BckJog state machines (xact/xs/tcb.go): a small set of
// fields mutated only under a single owning lock, finished exactly once,
// with cleanup deferred to a background sweep rather than run inline.
package memo

import "github.com/skiplang/skiprt/internal/ratomic"

// TxnId is a 64-bit monotonically increasing transaction identifier.
type TxnId int64

const (
	// PureTxn marks a revision that never invalidates.
	PureTxn TxnId = 0
	// NeverTxnId is "infinite future": the end of any not-yet-truncated
	// revision's lifespan.
	NeverTxnId TxnId = (1 << 63) - 1
)

var (
	oldestVisibleTxn = ratomic.Int64{}
	newestVisibleTxn = ratomic.Int64{}
)

func init() {
	// txn 0 is reserved for pure values; the first real commit starts at 1.
	newestVisibleTxn.Store(0)
	oldestVisibleTxn.Store(0)
}

// OldestVisibleTxn returns the inclusive lower bound of any currently
// running task's view of the world.
func OldestVisibleTxn() TxnId { return TxnId(oldestVisibleTxn.Load()) }

// NewestVisibleTxn returns the most recently committed transaction.
func NewestVisibleTxn() TxnId { return TxnId(newestVisibleTxn.Load()) }

func publishNewestVisible(t TxnId) { newestVisibleTxn.Store(int64(t)) }
func bumpOldestVisible(t TxnId)    { oldestVisibleTxn.Store(int64(t)) }
