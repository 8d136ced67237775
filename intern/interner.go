package intern

import "github.com/skiplang/skiprt/vtable"

// Interner is the entry point described in spec §4.3: Intern(r) returns an
// IObj such that any two structurally-equal objects produce identical
// pointers.
type Interner struct {
	Table *InternTable
}

func NewInterner() *Interner { return &Interner{Table: NewTable()} }

// Intern freezes the subgraph rooted at root (the freeze walk itself lives
// in obstack.Freeze; by the time a graph reaches Intern every node is
// assumed frozen), finds its SCCs via Tarjan, collapses cycles under a
// single CycleHandle chosen by canonical rotation, and installs singletons
// and cycle handles into the table.
//
// vtableIDs maps each Internable node to its stable registry id, resolved
// once up front so the hot hashing path never touches the vtable registry's
// mutex per node.
func (in *Interner) Intern(root Internable, vtableIDs map[Internable]uint32) *IObj {
	sccs := tarjanSCC(root)
	// sccs is in reverse topological order (dependencies of a node appear
	// before it), which is exactly the order we must intern in: a node's
	// references must already be canonical IObjs before we hash the node.
	resolved := make(map[Internable]*IObj, len(sccs))

	var result *IObj
	for _, scc := range sccs {
		if len(scc) == 1 && !selfEdge(scc[0]) {
			n := scc[0]
			iobj := in.internSingleton(n, vtableIDs, resolved)
			resolved[n] = iobj
			result = iobj
			continue
		}
		root, hash := canonicalRotation(scc)
		members := make([]*IObj, 0, len(scc))
		memberOf := make(map[Internable]bool, len(scc))
		for _, n := range scc {
			memberOf[n] = true
		}
		// Build each member's IObj shell referencing resolved externals;
		// intra-cycle edges are resolved after all shells exist.
		shells := make(map[Internable]*IObj, len(scc))
		for _, n := range scc {
			shells[n] = &IObj{UserBytes: n.UserBytes()}
		}
		for _, n := range scc {
			var refs []*IObj
			for _, e := range n.Refs() {
				if e.ToInterned != nil {
					refs = append(refs, e.ToInterned)
				} else if memberOf[e.ToUninterned] {
					refs = append(refs, shells[e.ToUninterned])
				} else {
					refs = append(refs, resolved[e.ToUninterned])
				}
			}
			shells[n].Refs = refs
			if vt, ok := vtable.VTableByID(vtableIDs[n]); ok {
				shells[n].VT = vt
			}
		}
		for _, n := range scc {
			members = append(members, shells[n])
		}
		h := in.Table.InsertCycle(members, shells[root], hash)
		for _, n := range scc {
			resolved[n] = h.Root
		}
		result = h.Root
	}
	return result
}

func selfEdge(n Internable) bool {
	for _, e := range n.Refs() {
		if e.ToUninterned == n {
			return true
		}
	}
	return false
}

func (in *Interner) internSingleton(n Internable, vtableIDs map[Internable]uint32, resolved map[Internable]*IObj) *IObj {
	var refs []*IObj
	for _, e := range n.Refs() {
		if e.ToInterned != nil {
			refs = append(refs, e.ToInterned)
		} else {
			refs = append(refs, resolved[e.ToUninterned])
		}
	}
	vtID := vtableIDs[n]
	o := in.Table.InsertSingleton(vtID, n.UserBytes(), refs)
	if o.VT == nil {
		if vt, ok := vtable.VTableByID(vtID); ok {
			SetVTable(o, vt)
		}
	}
	return o
}

// SetVTable lets the caller attach the resolved *vtable.VTable once an IObj
// has been installed, if none is attached yet (InsertSingleton already
// resolves registered ids itself, under its bucket lock).
func SetVTable(o *IObj, vt *vtable.VTable) {
	if o.VT == nil {
		o.VT = vt
	}
}

// Decref is the public entry point matching spec §4.3's decref(iobj).
func (in *Interner) Decref(o *IObj) { in.Table.Decref(o) }
