package skiprt

import (
	"sync"

	"github.com/skiplang/skiprt/intern"
	"github.com/skiplang/skiprt/memo"
)

// invocationRegistry maps an interned call-site key to the single shared
// Invocation representing it, mirroring the teacher's xreg entries{active,
// all} split: a read-mostly fast path (RLock, the common "already
// running/cached" case) with a write path only taken the first time a
// given key is observed.
type invocationRegistry struct {
	mu      sync.RWMutex
	byIObj  map[*intern.IObj]*memo.Invocation
}

func newInvocationRegistry() *invocationRegistry {
	return &invocationRegistry{byIObj: make(map[*intern.IObj]*memo.Invocation)}
}

func (r *invocationRegistry) getOrCreate(key *intern.IObj, thunk func(ctx *memo.Context)) *memo.Invocation {
	r.mu.RLock()
	inv, ok := r.byIObj[key]
	r.mu.RUnlock()
	if ok {
		return inv
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok = r.byIObj[key]; ok {
		return inv
	}
	inv = memo.NewInvocation(key, thunk)
	r.byIObj[key] = inv
	return inv
}
