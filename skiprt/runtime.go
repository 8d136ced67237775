// Package skiprt is the integration point generated code calls into: it
// wires memo, intern, asyncrt, and tabulate together behind the entry
// points spec §6 names (memoizeCall, the awaitable* family,
// parallelTabulate; the Reactive_* entry points live in package reactive
// and are not re-exported here), the way the teacher's single ais/ package
// wires cluster/xact/fs/memsys behind one HTTP handler surface rather than
// exposing each subsystem directly to callers.
package skiprt

import (
	"context"

	"github.com/skiplang/skiprt/asyncrt"
	"github.com/skiplang/skiprt/internal/debug"
	"github.com/skiplang/skiprt/internal/xerr"
	"github.com/skiplang/skiprt/intern"
	"github.com/skiplang/skiprt/memo"
	"github.com/skiplang/skiprt/tabulate"
)

// MemoizeCall hands off an Awaitable bound to a freshly allocated
// uninterned Invocation key (spec §6 memoizeCall): the runtime interns
// the key through interner, resolves it to (or creates) the shared
// Invocation, and runs the evaluation protocol, resolving or rejecting
// result once the value is known.
func MemoizeCall(interner *intern.Interner, key intern.Internable, vtableIDs map[intern.Internable]uint32, thunk func(ctx *memo.Context), result *asyncrt.Awaitable) {
	iobj := interner.Intern(key, vtableIDs)
	inv := invocationFor(iobj, thunk)

	ctx := memo.NewContext(inv, memo.NewestVisibleTxn())
	inv.AsyncEvaluate(ctx, func(v memo.Value) {
		AwaitableNotifyWaitersValueIsReady(result, v, v.Kind == memo.KindException)
	})
}

// invocationFor resolves the Invocation keyed by iobj, creating one the
// first time this key is seen. A process-wide table keyed by the
// interned pointer gives the "two calls with byte-equal arguments share
// one Invocation" property the interner alone doesn't provide (the
// interner addresses IObjs, not Invocations).
var invocationTable = newInvocationRegistry()

func invocationFor(key *intern.IObj, thunk func(ctx *memo.Context)) *memo.Invocation {
	return invocationTable.getOrCreate(key, thunk)
}

// AwaitableSuspend is spec §4.8's SKIP_awaitableSuspend, re-exported at
// the runtime integration boundary generated code actually calls.
func AwaitableSuspend(waitee *asyncrt.Awaitable, onProcess *asyncrt.Process, onReady func(memo.Value, bool)) {
	waitee.SKIP_awaitableSuspend(onProcess, onReady)
}

// AwaitableNotifyWaitersValueIsReady resolves waitee with v, or rejects it
// with v if isException.
func AwaitableNotifyWaitersValueIsReady(waitee *asyncrt.Awaitable, v memo.Value, isException bool) {
	if isException {
		waitee.Reject(v)
		return
	}
	waitee.Resolve(v)
}

// AwaitableThrow rejects waitee with exc.
func AwaitableThrow(waitee *asyncrt.Awaitable, exc memo.Value) { waitee.Reject(exc) }

// ParallelTabulate is spec §4.9/§6's parallelTabulate entry point: count
// must lie in [0, 2^31]; a negative count or one above 2^31 fails with
// InvariantViolation.
func ParallelTabulate(ctx context.Context, count int64, closure func(i int) (interface{}, error)) ([]interface{}, error) {
	if count < 0 || count > (1<<31) {
		return nil, xerr.NewInvariantViolation("parallelTabulate: count %d out of range", count)
	}
	return tabulate.Tabulate(ctx, int(count), closure)
}

func init() {
	debug.Assert(true)
}
