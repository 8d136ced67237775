package memo

import "sync"

// invocationLRU is the doubly-linked, single-mutex list spec §3 calls the
// Invocation LRU list: discardable invocations move to head on use and are
// evicted from the tail on memory pressure. Lock nesting rule (§4.5.5):
// this mutex and the cleanup-lists mutex are never held together.
type invocationLRU struct {
	mu         sync.Mutex
	head, tail *Invocation
}

var globalLRU = &invocationLRU{}

func (l *invocationLRU) pushHead(inv *Invocation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlink(inv)
	inv.lruNext = l.head
	if l.head != nil {
		l.head.lruPrev = inv
	}
	l.head = inv
	if l.tail == nil {
		l.tail = inv
	}
	inv.owningList = OwningLru
}

func (l *invocationLRU) touch(inv *Invocation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.head == inv {
		return
	}
	l.unlink(inv)
	inv.lruNext = l.head
	if l.head != nil {
		l.head.lruPrev = inv
	}
	l.head = inv
	if l.tail == nil {
		l.tail = inv
	}
}

// unlink removes inv from the list without touching owningList; callers
// decide the new state. Must hold l.mu.
func (l *invocationLRU) unlink(inv *Invocation) {
	if inv.lruPrev == nil && inv.lruNext == nil && l.head != inv {
		return // not currently linked
	}
	if inv.lruPrev != nil {
		inv.lruPrev.lruNext = inv.lruNext
	} else if l.head == inv {
		l.head = inv.lruNext
	}
	if inv.lruNext != nil {
		inv.lruNext.lruPrev = inv.lruPrev
	} else if l.tail == inv {
		l.tail = inv.lruPrev
	}
	inv.lruPrev, inv.lruNext = nil, nil
}

// EvictTail detaches up to n invocations from the LRU tail under memory
// pressure, discarding their revision lists beyond the head (the head
// revision's value is kept — only the ability to refresh/replay history
// is given up).
func (l *invocationLRU) EvictTail(n int) int {
	evicted := 0
	for evicted < n {
		l.mu.Lock()
		victim := l.tail
		if victim == nil {
			l.mu.Unlock()
			break
		}
		l.unlink(victim)
		victim.owningList = OwningNone
		l.mu.Unlock()

		victim.mu.Lock()
		for victim.tail != nil && victim.tail != victim.head {
			dead := victim.tail
			victim.unlink(dead)
			dead.owner = nil
		}
		victim.mu.Unlock()
		evicted++
	}
	return evicted
}

// EvictTail is the package-level entry point the housekeeper calls.
func EvictTail(n int) int { return globalLRU.EvictTail(n) }
