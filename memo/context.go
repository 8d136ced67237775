package memo

import (
	"sort"
)

// waiter pairs a Context blocked on some other Invocation's result with the
// continuation to resume once that result is known (spec §4.8: any
// memoized call can suspend, so delivery is always by callback, never by
// return value). The Context half carries QueryTxn/addDependency state the
// wake path still needs; the callback half is what actually resumes the
// suspended caller.
type waiter struct {
	ctx     *Context
	onReady func(Value)
}

// Context is the active-computation state spec §3 describes: the query
// txn, the owning invocation, the callers waiting on it, its own
// placeholder Revision, and the insertion-ordered dependency map built up
// as the user thunk calls other memoized functions.
type Context struct {
	Invocation *Invocation
	QueryTxn   TxnId

	placeholder *Revision

	caller *Context // the Context (if any) that is itself blocked on us

	deps     map[*Revision]int // revision -> insertion order
	depOrder []*Revision

	waiting []waiter // waiters blocked on this Context's own evaluation
}

// CallerChain walks ctx.caller back to the top-level Context that started
// this evaluation, closest-caller first — a debug aid for diagnosing a
// deep miss chain, mirroring the teacher's Snap()-style introspection
// (xact/xs/tcb.go's Snap dumps an XactTCB's state without touching its
// locks from a goroutine that isn't running it).
func (ctx *Context) CallerChain() []*Context {
	var chain []*Context
	for c := ctx.caller; c != nil; c = c.caller {
		chain = append(chain, c)
	}
	return chain
}

// NewContext builds a top-level Context for a call with no enclosing
// memoized computation (e.g. the runtime integration boundary's
// MemoizeCall entry point) — its deps map is pre-initialized so
// AsyncEvaluate's hit path can safely record a dependency on it.
func NewContext(inv *Invocation, queryTxn TxnId) *Context {
	return &Context{Invocation: inv, QueryTxn: queryTxn, deps: make(map[*Revision]int)}
}

// AddDependencyForReplay is addDependency's exported seam for
// serialize.FakeCaller: memo-cache deserialization reconstructs a
// Context's dependency set from recorded target ids rather than by
// observing live calls, but must still go through the same insertion-order
// bookkeeping a normal evaluation would have produced.
func (ctx *Context) AddDependencyForReplay(rev *Revision) {
	if ctx.deps == nil {
		ctx.deps = make(map[*Revision]int)
	}
	ctx.addDependency(rev)
}

// addDependency records rev as an input this Context's computation
// observed, in first-seen order (spec §4.5.2 step 1: "linearize ... into
// insertion order").
func (ctx *Context) addDependency(rev *Revision) {
	if _, ok := ctx.deps[rev]; ok {
		return
	}
	rev.retain()
	ctx.deps[rev] = len(ctx.depOrder)
	ctx.depOrder = append(ctx.depOrder, rev)
}

// registerWaiter records w as blocked on ctx's own eventual completion,
// woken by EvaluateDone once ctx's candidate revision is installed.
func (ctx *Context) registerWaiter(w waiter) {
	ctx.waiting = append(ctx.waiting, w)
}

// EvaluateDone implements spec §4.5.2: the user thunk produced v (or an
// exception wrapped in a Value of KindException). Compute the candidate's
// lifespan as the intersection of every dependency's current [Begin,End),
// insert it under the invocation lock (merging with a touching
// equal-valued neighbor, truncating an overlapping placeholder, or
// inserting fresh), then wake every registered caller.
func (ctx *Context) EvaluateDone(v Value) {
	begin, end := ctx.computeLifespan()

	inv := ctx.Invocation
	inv.mu.Lock()

	candidate := newRevision(begin, end, v)
	if len(ctx.depOrder) > 0 {
		candidate.trace = newTrace(ctx.traceEdges(candidate))
		candidate.canRefresh = true
	}

	final := inv.insertCandidate(ctx.placeholder, candidate)

	if final == inv.head {
		if old := final.next; old != nil {
			old.detachTrace(inv)
		}
	}

	if final.End != NeverTxnId {
		globalCleanup.register(final.End, inv)
	}

	// Wakers fall into two groups: other concurrent AsyncEvaluate calls
	// that found our placeholder mid-flight (rev.value.Wakers, spec
	// §4.5.1 step 3a), and whichever caller triggered this evaluation as
	// a cache miss (ctx.waiting, registered via registerWaiter in
	// AsyncEvaluate's miss branch). Both need the same retry-or-deliver
	// treatment once the candidate's final lifespan is known.
	var wakers []waiter
	if ctx.placeholder != nil {
		wakers = ctx.placeholder.value.Wakers
	}
	wakers = append(wakers, ctx.waiting...)
	ctx.waiting = nil
	inv.mu.Unlock()

	if ctx.placeholder != nil {
		// Matches the retain installPlaceholder took when it built this ctx
		// (spec §3: an Invocation is held open for as long as an evaluation
		// it owns is still in flight). The replay path (ctx.placeholder ==
		// nil, serialize.FakeCaller) never retained inv, so it releases
		// nothing here.
		inv.release()
	}

	for _, w := range wakers {
		if w.ctx.QueryTxn < final.Begin || w.ctx.QueryTxn >= final.End {
			inv.AsyncEvaluate(w.ctx, w.onReady) // retry: our lifespan doesn't cover them
			continue
		}
		w.ctx.addDependency(final)
		w.onReady(final.value)
	}
}

// computeLifespan intersects every observed dependency's [Begin,End); with
// no dependencies the result is [0, kNeverTxnId) ("pure").
func (ctx *Context) computeLifespan() (TxnId, TxnId) {
	if len(ctx.depOrder) == 0 {
		return PureTxn, NeverTxnId
	}
	begin, end := TxnId(0), NeverTxnId
	for _, d := range ctx.depOrder {
		if d.Begin > begin {
			begin = d.Begin
		}
		if d.End < end {
			end = d.End
		}
	}
	if begin > ctx.QueryTxn {
		begin = ctx.QueryTxn
	}
	return begin, end
}

// traceEdges builds candidate's Trace in dependency insertion order,
// registering the reciprocal subscriber edge on each input (spec §3
// SubscriptionSet: "paired with a down-edge stored in the subscriber's
// trace") so invalidateWorklist has something to walk when an input's
// owner later truncates it. A dependency owned by a different Invocation
// than the one candidate is about to be installed into needs its own
// owner's lock held across the add; a dependency on the same Invocation is
// already covered by the lock EvaluateDone holds across this call.
func (ctx *Context) traceEdges(candidate *Revision) []traceEdge {
	ordered := append([]*Revision(nil), ctx.depOrder...)
	sort.Slice(ordered, func(i, j int) bool { return ctx.deps[ordered[i]] < ctx.deps[ordered[j]] })
	edges := make([]traceEdge, len(ordered))
	for i, d := range ordered {
		var subIdx int
		if d.owner != nil && d.owner != ctx.Invocation {
			d.owner.mu.Lock()
			subIdx = d.subs.add(candidate, i)
			d.owner.mu.Unlock()
		} else {
			subIdx = d.subs.add(candidate, i)
		}
		edges[i] = traceEdge{rev: d, subIndex: subIdx}
	}
	return edges
}
