package intern

import "github.com/skiplang/skiprt/internal/ratomic"

// CycleHandle is the canonical representative of a cyclic interned SCC: it
// owns the delegated refcount for every member. Members' own refcount
// fields hold CycleMemberRefcountSentinel and point back here.
type CycleHandle struct {
	Root    *IObj   // the canonically-chosen member (see rotation hash, tarjan.go)
	Members []*IObj // all SCC members, including Root

	refcount ratomic.Uint32
	hash     uint64 // canonical rotation hash, used as the InternTable key
}

func newCycleHandle(members []*IObj, root *IObj, hash uint64) *CycleHandle {
	h := &CycleHandle{Root: root, Members: members, hash: hash}
	h.refcount.Store(1)
	for _, m := range members {
		m.setCycleHandle(h)
	}
	return h
}

func (h *CycleHandle) incref() uint32 { return h.refcount.Inc() }
func (h *CycleHandle) decref() uint32 { return h.refcount.Dec() }
func (h *CycleHandle) load() uint32   { return h.refcount.Load() }
