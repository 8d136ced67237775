package asyncrt

import (
	"sync"

	"github.com/skiplang/skiprt/internal/nlog"
	"github.com/skiplang/skiprt/memo"
)

// contState is the Awaitable's continuation word's coarse tag (spec §4.8:
// "a tagged pointer — either the value sentinel, the exception sentinel,
// or the head of a linked list of suspended awaiters").
type contState uint8

const (
	stateSuspended contState = iota
	stateValue
	stateException
)

// Awaitable is what a still-computing memoized call returns. Go has no
// tagged-pointer trick to steal low bits from, so the three states are
// modeled as an explicit enum guarded by mu rather than packed into one
// word; the externally-visible behavior (SKIP_awaitableSuspend,
// awaitableFinish, WakeAwaitables) is unchanged.
type Awaitable struct {
	// id is a short opaque debug name (spec §4.11) logged at suspend and
	// finish time so a trace across Processes can follow one Awaitable's
	// lifecycle without printing its address.
	id string

	mu      sync.Mutex
	state   contState
	value   memo.Value
	waiters []*waiter
}

type waiter struct {
	process *Process
	onReady func(memo.Value, bool)
}

func NewAwaitable() *Awaitable { return &Awaitable{state: stateSuspended, id: newDebugID()} }

// ID returns this Awaitable's short debug name.
func (a *Awaitable) ID() string { return a.id }

// SKIP_awaitableSuspend prepends a waiter to waitee's list, to be woken
// when waitee finishes (spec §4.8).
func (waitee *Awaitable) SKIP_awaitableSuspend(onProcess *Process, onReady func(memo.Value, isException bool)) {
	waitee.mu.Lock()
	switch waitee.state {
	case stateValue:
		v, p := waitee.value, onProcess
		waitee.mu.Unlock()
		p.Schedule(func() { onReady(v, false) })
		return
	case stateException:
		v, p := waitee.value, onProcess
		waitee.mu.Unlock()
		p.Schedule(func() { onReady(v, true) })
		return
	}
	waitee.waiters = append([]*waiter{{process: onProcess, onReady: onReady}}, waitee.waiters...)
	waitee.mu.Unlock()
	if nlog.FastV(4) {
		nlog.Infof("awaitable %s: process %s suspended on it", waitee.id, onProcess.id)
	}
}

// awaitableFinish atomically swaps the continuation to a terminal marker
// and posts a single WakeAwaitables task per waiter.
func (a *Awaitable) awaitableFinish(v memo.Value, isException bool) {
	a.mu.Lock()
	if a.state != stateSuspended {
		a.mu.Unlock()
		return
	}
	if isException {
		a.state = stateException
	} else {
		a.state = stateValue
	}
	a.value = v
	waiters := a.waiters
	a.waiters = nil
	a.mu.Unlock()

	if nlog.FastV(4) {
		nlog.Infof("awaitable %s: finished (exception=%v), waking %d waiter(s)", a.id, isException, len(waiters))
	}
	a.wakeAwaitables(waiters, v, isException)
}

// Resolve completes the Awaitable with a value.
func (a *Awaitable) Resolve(v memo.Value) { a.awaitableFinish(v, false) }

// Reject completes the Awaitable with an exception value.
func (a *Awaitable) Reject(exc memo.Value) { a.awaitableFinish(exc, true) }

// wakeAwaitables walks the suspended list, posting exactly one task per
// waiter to its own Process (never running the waiter's continuation
// inline, per the no-locks-held-in-callbacks rule shared with memo's
// Context/Transaction protocols).
func (a *Awaitable) wakeAwaitables(waiters []*waiter, v memo.Value, isException bool) {
	for _, w := range waiters {
		w := w
		w.process.Schedule(func() { w.onReady(v, isException) })
	}
}
