package obstack

import "sync"

// Handle is a cross-task root: it keeps the pointed-to object alive and
// lets it be moved by further GCs of the originating obstack, while a
// different task (which does not own that obstack) can still dereference
// it safely via Get.
type Handle struct {
	mu  sync.Mutex
	obj *Obj
}

// MakeHandle produces a cross-task root for ptr. The Obstack retains it in
// its handles list so that a later CollectWithRoots treats every live
// handle's target as an implicit root, in addition to the caller-supplied
// roots slice.
func (s *Obstack) MakeHandle(ptr *Obj) *Handle {
	h := &Handle{obj: ptr}
	s.handles = append(s.handles, h)
	return h
}

// Get returns the handle's current target, safe to call from any task.
func (h *Handle) Get() *Obj {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.obj
}

func (h *Handle) retarget(o *Obj) {
	h.mu.Lock()
	h.obj = o
	h.mu.Unlock()
}

// handleRoots returns every live handle's target, to be unioned with the
// explicit roots passed to CollectWithRoots.
func (s *Obstack) handleRoots() []*Obj {
	roots := make([]*Obj, 0, len(s.handles))
	for _, h := range s.handles {
		if o := h.Get(); o != nil {
			roots = append(roots, o)
		}
	}
	return roots
}
