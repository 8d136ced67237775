package intern

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/skiplang/skiprt/vtable"
)

func TestIntern(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "intern Suite")
}

// node is an Internable that can point at other not-yet-interned nodes,
// used to build small acyclic and cyclic graphs for Tarjan/Intern tests.
type node struct {
	name  string
	bytes []byte
	vtID  uint32
	refs  []*node
}

func (n *node) UserBytes() []byte { return n.bytes }
func (n *node) VTableID() uint32  { return n.vtID }
func (n *node) Refs() []Edge {
	edges := make([]Edge, len(n.refs))
	for i, r := range n.refs {
		edges[i] = Edge{ToUninterned: r}
	}
	return edges
}

var _ = Describe("InternTable.InsertSingleton", func() {
	It("returns the same IObj for two byte-equal, vtable-equal singletons", func() {
		tbl := NewTable()
		a := tbl.InsertSingleton(1, []byte("hello"), nil)
		b := tbl.InsertSingleton(1, []byte("hello"), nil)
		Expect(b).To(BeIdenticalTo(a))
		Expect(a.Refcount()).To(Equal(uint32(2)))
	})

	It("distinguishes byte-equal content under different vtable ids", func() {
		tbl := NewTable()
		a := tbl.InsertSingleton(1, []byte("hello"), nil)
		b := tbl.InsertSingleton(2, []byte("hello"), nil)
		Expect(b).NotTo(BeIdenticalTo(a))
	})

	It("frees a singleton's outgoing references once its own refcount hits zero", func() {
		tbl := NewTable()
		child := tbl.InsertSingleton(1, []byte("child"), nil)
		Expect(child.Refcount()).To(Equal(uint32(1)))

		parent := tbl.InsertSingleton(2, []byte("parent"), []*IObj{child})
		Expect(child.Refcount()).To(Equal(uint32(1)), "InsertSingleton takes ownership of the refs it's handed, not a fresh increment")

		tbl.Decref(parent)
		Expect(child.Refcount()).To(Equal(uint32(0)), "decref of the parent should cascade to its reference")
	})
})

var _ = Describe("Interner.Intern", func() {
	It("interns isomorphic acyclic graphs to the same root", func() {
		n1 := &node{name: "n1", bytes: []byte("n"), vtID: 10, refs: nil}
		vtableIDs := map[Internable]uint32{n1: 10}

		in := NewInterner()
		r1 := in.Intern(n1, vtableIDs)

		n2 := &node{name: "n2", bytes: []byte("n"), vtID: 10, refs: nil}
		r2 := in.Intern(n2, map[Internable]uint32{n2: 10})

		Expect(r2).To(BeIdenticalTo(r1), "structurally identical graphs should intern to the same IObj")
	})

	It("collapses a two-node cycle into one CycleHandle shared by both members", func() {
		a := &node{name: "a", bytes: []byte("a"), vtID: 1}
		b := &node{name: "b", bytes: []byte("b"), vtID: 1}
		a.refs = []*node{b}
		b.refs = []*node{a}

		vtableIDs := map[Internable]uint32{a: 1, b: 1}
		in := NewInterner()
		root := in.Intern(a, vtableIDs)

		Expect(root.IsCycleMember()).To(BeTrue())
		h := root.CycleHandleOf()
		Expect(h).NotTo(BeNil())
		Expect(h.Members).To(HaveLen(2))
	})

	It("interns rotation-isomorphic cycles to the same CycleHandle", func() {
		a1 := &node{name: "a1", bytes: []byte("x"), vtID: 1}
		b1 := &node{name: "b1", bytes: []byte("y"), vtID: 1}
		a1.refs = []*node{b1}
		b1.refs = []*node{a1}

		// same cycle, entered from the other member: b2 -> a2 -> b2
		b2 := &node{name: "b2", bytes: []byte("y"), vtID: 1}
		a2 := &node{name: "a2", bytes: []byte("x"), vtID: 1}
		b2.refs = []*node{a2}
		a2.refs = []*node{b2}

		in := NewInterner()
		root1 := in.Intern(a1, map[Internable]uint32{a1: 1, b1: 1})
		root2 := in.Intern(b2, map[Internable]uint32{a2: 1, b2: 1})

		Expect(root2.CycleHandleOf()).To(BeIdenticalTo(root1.CycleHandleOf()))
	})
})

var _ = Describe("VTable registry integration", func() {
	It("attaches the registered VTable to a freshly interned IObj", func() {
		vt := vtable.New(vtable.KindRefClass, 8, 0, 0, nil, nil)
		vtable.Register(777001, vt, vtable.Descriptor{Name: "intern-test-class"})

		n := &node{bytes: []byte("tagged"), vtID: 777001}
		in := NewInterner()
		iobj := in.Intern(n, map[Internable]uint32{n: 777001})

		Expect(iobj.VT).To(BeIdenticalTo(vt))
	})
})
