// Package reactive implements the Reactive_* entry points (spec §6): a
// thin keyed-Cell wrapper so generated code can address a family of
// global reactive cells by a runtime-assigned integer id, all
// participating in the same Transaction commit machinery as any other
// memo.Cell write.
package reactive

import (
	"sync"

	"github.com/skiplang/skiprt/internal/ratomic"
	"github.com/skiplang/skiprt/memo"
)

var nextID ratomic.Int64

var (
	cellsMu sync.RWMutex
	cells   = make(map[int64]*memo.Cell)
)

// Reactive_nextReactiveGlobalCacheID allocates a fresh id for a new family
// of reactive globals, matching generated code's one-call-per-declaration
// convention.
func Reactive_nextReactiveGlobalCacheID() int64 { return nextID.Inc() }

// Reactive_reactiveGlobalCacheGet reads the cell for id as seen by ctx's
// query txn, lazily creating it with initial if this is the first
// observation (mirrors Cell's "pre-populated with a single initial
// revision" construction, spec §4.6), delivering the value through onReady
// once known — a Cell read is almost always a synchronous hit (its head
// revision spans every not-yet-superseded txn) but still goes through the
// same continuation convention every other memoized call uses, since
// nothing guarantees a given embedding resolves it inline.
func Reactive_reactiveGlobalCacheGet(ctx *memo.Context, id int64, initial memo.Value, onReady func(memo.Value)) {
	cell := cellFor(id, initial)
	cell.Get(ctx, onReady)
}

// Reactive_reactiveGlobalCacheSet queues a write to id's cell as part of
// tx; the caller still must call tx.Commit() to make it visible.
func Reactive_reactiveGlobalCacheSet(tx *memo.Transaction, id int64, initial, v memo.Value) {
	cell := cellFor(id, initial)
	cell.Set(tx, v)
}

// Reactive_withTransaction runs fn with a fresh Transaction, committing it
// afterward and returning the TxnId the writes became visible at.
func Reactive_withTransaction(fn func(tx *memo.Transaction)) memo.TxnId {
	tx := memo.NewTransaction()
	fn(tx)
	return tx.Commit()
}

func cellFor(id int64, initial memo.Value) *memo.Cell {
	cellsMu.RLock()
	c, ok := cells[id]
	cellsMu.RUnlock()
	if ok {
		return c
	}

	cellsMu.Lock()
	defer cellsMu.Unlock()
	if c, ok = cells[id]; ok {
		return c
	}
	c = memo.NewCell(initial)
	cells[id] = c
	return c
}
