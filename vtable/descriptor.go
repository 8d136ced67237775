package vtable

import "sync"

// Descriptor is stable, process-wide metadata about a named class,
// independent of any single VTable instance — analogous to the teacher's
// xact.Table[kind] -> xact.Descriptor static registry consulted on the hot
// path without synchronization beyond the registry's own RWMutex.
type Descriptor struct {
	Name string
	Kind Kind
	// CanonicalOffset is this class's stable offset relative to the
	// well-known canonical vtable (Vector<String>) (see §4.10). Package
	// serialize does not read it: its records carry the vtable id the
	// caller supplies.
	CanonicalOffset uint32
}

type registry struct {
	mu      sync.RWMutex
	byID    map[uint32]*Descriptor
	vtByID  map[uint32]*VTable
	byVT    map[*VTable]uint32
}

var reg = &registry{
	byID:   make(map[uint32]*Descriptor, 64),
	vtByID: make(map[uint32]*VTable, 64),
	byVT:   make(map[*VTable]uint32, 64),
}

// Register associates a VTable with a stable Descriptor id. Called once per
// class at program (or shared-library) load time.
func Register(id uint32, vt *VTable, desc Descriptor) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byID[id] = &desc
	reg.vtByID[id] = vt
	reg.byVT[vt] = id
}

// Lookup returns the Descriptor for a stable id, as used when deserializing
// a memo-cache record's vtable_id.
func Lookup(id uint32) (*Descriptor, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	d, ok := reg.byID[id]
	return d, ok
}

// VTableByID resolves the live *VTable for a stable id.
func VTableByID(id uint32) (*VTable, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	vt, ok := reg.vtByID[id]
	return vt, ok
}

// IDOf returns the stable id a VTable was registered under.
func IDOf(vt *VTable) (uint32, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.byVT[vt]
	return id, ok
}
