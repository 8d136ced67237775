// Package asyncrt implements the Process/task-queue and Awaitable
// primitives spec §4.8/§4.11 describe: a Process owning one obstack and an
// MPSC task queue, and the tagged-continuation Awaitable a still-computing
// memoized call returns. The queue/worker shape follows the teacher's
// BckJog/mpather jogger pattern (xact/xs/tcb.go: one goroutine per
// worker, fed by a channel, drained to completion on Run/Wait) rather than
// a thread-local switcher, since Go schedules goroutines instead of OS
// threads pinned per call site.
package asyncrt

import (
	"sync"

	"github.com/teris-io/shortid"

	"github.com/skiplang/skiprt/internal/debug"
	"github.com/skiplang/skiprt/internal/nlog"
	"github.com/skiplang/skiprt/obstack"
)

// Task is one unit of deferred work a Process runs with no locks held
// (spec §4.5.5: "Callbacks and user code must run with no locks held").
type Task func()

// Process owns one Obstack and a task queue; schedule is safe to call
// from any goroutine (MPSC), but tasks themselves run only on the
// Process's own goroutine.
type Process struct {
	Obstack *obstack.Obstack

	// id is a short opaque debug name (spec §4.11), logged alongside
	// Schedule/RunReadyTasks at high verbosity so a multi-Process trace
	// can tell which queue a task landed on without printing the
	// Process's address.
	id string

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Task
	closed  bool
}

// NewProcess constructs a Process that owns stack (the Process never
// shares an Obstack with another Process).
func NewProcess(stack *obstack.Obstack) *Process {
	p := &Process{Obstack: stack, id: newDebugID()}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// ID returns this Process's short debug name.
func (p *Process) ID() string { return p.id }

// Schedule enqueues fn to run on this Process's own goroutine.
func (p *Process) Schedule(fn Task) {
	p.mu.Lock()
	p.pending = append(p.pending, fn)
	p.cond.Signal()
	n := len(p.pending)
	p.mu.Unlock()
	if nlog.FastV(4) {
		nlog.Infof("process %s: scheduled task (%d pending)", p.id, n)
	}
}

// newDebugID generates a short, human-typeable id for logging; falls back
// to an empty string (FastV-gated log lines simply print "" for it) if
// the generator's internal worker/seed pool is exhausted rather than
// failing construction over a debug-only concern.
func newDebugID() string {
	id, err := shortid.Generate()
	if err != nil {
		return ""
	}
	return id
}

// RunReadyTasks drains the queue to empty, running each task with no
// Process lock held (tasks are copied out before release).
func (p *Process) RunReadyTasks() {
	for {
		p.mu.Lock()
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		batch := p.pending
		p.pending = nil
		p.mu.Unlock()

		if nlog.FastV(4) {
			nlog.Infof("process %s: running %d ready task(s)", p.id, len(batch))
		}
		for _, t := range batch {
			t()
		}
	}
}

// RunExactlyOneTaskSleepingIfNecessary blocks until at least one task is
// queued, then runs exactly one.
func (p *Process) RunExactlyOneTaskSleepingIfNecessary() {
	p.mu.Lock()
	for len(p.pending) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	t := p.pending[0]
	p.pending = p.pending[1:]
	p.mu.Unlock()
	t()
}

func (p *Process) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Unowned is a weak handle used to post a task back to a parent Process
// without keeping it alive: Post is a silent no-op once the handle's
// Process pointer is nil, and otherwise enqueues on the Process, including
// after Close, matching the teacher's "UnregRecv after Close is fine"
// discipline in tcb.go's shutdown path.
type Unowned struct {
	mu sync.Mutex
	p  *Process
}

func (p *Process) Unowned() *Unowned { return &Unowned{p: p} }

func (u *Unowned) Post(fn Task) {
	u.mu.Lock()
	p := u.p
	u.mu.Unlock()
	if p == nil {
		return
	}
	p.Schedule(fn)
}

// Detach severs the weak handle, e.g. once the owning Process has been
// torn down; further Post calls become no-ops.
func (u *Unowned) Detach() {
	u.mu.Lock()
	u.p = nil
	u.mu.Unlock()
}

func init() {
	debug.Assert(true) // build-tag smoke check: package loads under both debug and nodebug builds
}
