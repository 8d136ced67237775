package intern

import (
	"encoding/binary"

	xxhash "github.com/OneOfOne/xxhash"
)

// Internable is the frozen, not-yet-interned graph the caller hands to
// Intern: a root plus its transitive non-interned references.
type Internable interface {
	// UserBytes returns this node's raw bytes with outgoing reference
	// slots omitted (they're supplied separately via Refs so the hasher
	// never needs to know the layout).
	UserBytes() []byte
	// VTableID is the stable registry id for this node's class.
	VTableID() uint32
	// Refs returns outgoing references: each is either another
	// not-yet-interned Internable (still being frozen/interned) or an
	// already-interned *IObj (a reference that escaped the cycle).
	Refs() []Edge
}

// Edge is one outgoing reference from an Internable node.
type Edge struct {
	ToUninterned Internable
	ToInterned   *IObj
}

// tarjanSCC finds the strongly connected components of the subgraph rooted
// at root, restricted to not-yet-interned nodes (edges into already
// interned IObjs are leaves for this purpose: they never participate in a
// new cycle). Returns SCCs in reverse topological order, smallest unit
// first as Tarjan naturally produces.
func tarjanSCC(root Internable) [][]Internable {
	var (
		index   int
		stack   []Internable
		onStack = make(map[Internable]bool)
		idx     = make(map[Internable]int)
		low     = make(map[Internable]int)
		sccs    [][]Internable
	)

	var strongconnect func(v Internable)
	strongconnect = func(v Internable) {
		idx[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range v.Refs() {
			if e.ToUninterned == nil {
				continue // already-interned leaf, not part of any new SCC
			}
			w := e.ToUninterned
			if _, seen := idx[w]; !seen {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if idx[w] < low[v] {
					low[v] = idx[w]
				}
			}
		}

		if low[v] == idx[v] {
			var scc []Internable
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	strongconnect(root)
	return sccs
}

// canonicalRotation picks, among the members of a cyclic SCC, the member
// whose rooted hash (a Merkle-style hash computed by walking the cycle
// starting from that member) is lexicographically minimal. This makes
// isomorphic cycles intern to identical CycleHandles (spec §9, property 7).
func canonicalRotation(members []Internable) (root Internable, hash uint64) {
	if len(members) == 1 {
		return members[0], rootedHash(members, members[0])
	}
	var bestHash uint64
	var best Internable
	for i, m := range members {
		h := rootedHash(members, m)
		if i == 0 || h < bestHash {
			bestHash, best = h, m
		}
	}
	return best, bestHash
}

// rootedHash computes a hash of the SCC's bytes when walked starting from
// root, so that two isomorphic cycles rooted at their respective canonical
// members produce the same digest regardless of original allocation order.
func rootedHash(members []Internable, root Internable) uint64 {
	memberIndex := make(map[Internable]int, len(members))
	order := make([]Internable, 0, len(members))
	var visit func(n Internable)
	seen := make(map[Internable]bool, len(members))
	visit = func(n Internable) {
		if seen[n] {
			return
		}
		seen[n] = true
		memberIndex[n] = len(order)
		order = append(order, n)
		for _, e := range n.Refs() {
			if e.ToUninterned != nil {
				visit(e.ToUninterned)
			}
		}
	}
	visit(root)

	h := xxhash.New64()
	var buf [8]byte
	for _, n := range order {
		binary.LittleEndian.PutUint32(buf[:4], n.VTableID())
		h.Write(buf[:4])
		h.Write(n.UserBytes())
		for _, e := range n.Refs() {
			if e.ToInterned != nil {
				binary.LittleEndian.PutUint64(buf[:], e.ToInterned.hash)
				h.Write(buf[:])
			} else if idx, ok := memberIndex[e.ToUninterned]; ok {
				// self-cycle reference: hash the member's position within
				// this rooted walk, not its identity, so rotation-equal
				// cycles collide.
				binary.LittleEndian.PutUint64(buf[:], uint64(idx))
				h.Write(buf[:])
			}
		}
	}
	return h.Sum64()
}

func contentHash(vtID uint32, bytes []byte, refHashes []uint64) uint64 {
	h := xxhash.New64()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], vtID)
	h.Write(buf[:4])
	h.Write(bytes)
	for _, rh := range refHashes {
		binary.LittleEndian.PutUint64(buf[:], rh)
		h.Write(buf[:])
	}
	return h.Sum64()
}
