package obstack

import "github.com/skiplang/skiprt/intern"

// frozenObj adapts an obstack Obj to intern.Internable once it (and its
// transitive non-interned references) has been recursively marked frozen.
type frozenObj struct {
	o     *Obj
	vtID  uint32
	edges []intern.Edge
}

func (f *frozenObj) UserBytes() []byte    { return f.o.bytes }
func (f *frozenObj) VTableID() uint32     { return f.vtID }
func (f *frozenObj) Refs() []intern.Edge  { return f.edges }

// Freeze recursively traverses all reachable objects, preparing them for
// interning, and marks each one's VTable frozen (the flag is per class, so
// every object sharing that VTable reads as frozen). vtableIDOf resolves each Obj's
// stable registry id (the obstack itself doesn't track the registry).
func (s *Obstack) Freeze(root *Obj, vtableIDOf func(*Obj) uint32) intern.Internable {
	visited := make(map[*Obj]*frozenObj)
	var visit func(o *Obj) intern.Internable
	visit = func(o *Obj) intern.Internable {
		if o == nil {
			return nil
		}
		if f, ok := visited[o]; ok {
			return f
		}
		f := &frozenObj{o: o, vtID: vtableIDOf(o)}
		visited[o] = f
		edges := make([]intern.Edge, 0, len(o.refs))
		for _, r := range o.refs {
			edges = append(edges, intern.Edge{ToUninterned: visit(r)})
		}
		f.edges = edges
		o.vt.MarkFrozen()
		return f
	}
	return visit(root)
}

// Intern content-addresses root (which must already be reachable and
// frozen) plus its transitive non-interned references, returning the
// canonical IObj and registering it against the current position so it is
// decref'd automatically if the obstack's position later retreats past
// this call site (via Collect/CollectWithRoots).
func (s *Obstack) Intern(root *Obj, vtableIDOf func(*Obj) uint32) *intern.IObj {
	frozen := s.Freeze(root, vtableIDOf)
	vtableIDs := make(map[intern.Internable]uint32)
	var collectIDs func(n intern.Internable)
	seen := make(map[intern.Internable]bool)
	collectIDs = func(n intern.Internable) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if f, ok := n.(*frozenObj); ok {
			vtableIDs[n] = f.vtID
			for _, e := range f.edges {
				collectIDs(e.ToUninterned)
			}
		}
	}
	collectIDs(frozen)

	iobj := s.interner.Intern(frozen, vtableIDs)
	s.RegisterIObj(iobj)
	return iobj
}

// RegisterIObj attaches an already-interned reference to the current
// position so its refcount is decremented automatically on rollback.
func (s *Obstack) RegisterIObj(iobj *intern.IObj) {
	s.internRegs = append(s.internRegs, internReg{pos: s.currentPos(), iobj: iobj})
}
