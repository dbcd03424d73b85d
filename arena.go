package cset

import "sync/atomic"

// node is a fixed-layout link record in the arena. hash is the normalized
// hash of the stored element, or 0 if the slot is unused; next is the
// arena index of the successor in the bucket chain (or freelist), or 0 for
// end-of-chain; data is the element payload, uninitialized when hash == 0.
type node[E any] struct {
	hash uint32
	next uint32
	data E
}

// arena is the densely packed, resizable array of link nodes a [Set]
// allocates elements from. Index 0 is the sentinel meaning "no node".
// Indices [0, stripes) are freelist heads, one per stripe; element nodes
// live at indices >= stripes.
//
// The nodes slice itself is only ever replaced wholesale by the resize
// barrier, which holds every stripe lock while doing so. Between resizes,
// allocate/free operate on a fixed-length backing array: allocate's
// freelist path is called under the owning stripe's lock and so needs no
// further synchronization; allocate's bump path advances a shared atomic
// counter because it is not exclusive to one stripe.
type arena[E any] struct {
	nodes       []node[E]
	nodePointer atomic.Uint32 // next unallocated index at the bump frontier
	stripes     int
}

// newArena allocates an arena sized for slotCount buckets plus the
// per-stripe freelist heads, with all freelist heads empty and
// nodePointer starting immediately past them.
func newArena[E any](slotCount, stripes int) *arena[E] {
	a := &arena[E]{
		nodes:   make([]node[E], slotCount+stripes),
		stripes: stripes,
	}
	a.nodePointer.Store(uint32(stripes))
	return a
}

// allocate returns the index of a free node for stripe s, reusing the
// stripe's freelist if non-empty and otherwise bumping the arena's
// high-water mark, and reports whether the index came from the freelist
// (so the caller can adjust its free-node bookkeeping). If the bump
// frontier would overrun the backing array, allocate leaves nodePointer
// unchanged and reports ok=false so the caller can force a resize instead
// of indexing out of range. Callers must hold stripe s's lock.
func (a *arena[E]) allocate(s int) (index uint32, fromFreelist bool, ok bool) {
	head := &a.nodes[s]
	if head.next != 0 {
		i := head.next
		head.next = a.nodes[i].next
		return i, true, true
	}
	i := a.nodePointer.Add(1) - 1
	if int(i) >= len(a.nodes) {
		a.nodePointer.Add(^uint32(0)) // undo: two's-complement -1
		return 0, false, false
	}
	return i, false, true
}

// free pushes index i onto stripe s's freelist and clears its hash so
// arena scans (traversal, resize) treat it as empty. Callers must hold
// stripe s's lock.
func (a *arena[E]) free(i uint32, s int) {
	head := &a.nodes[s]
	a.nodes[i].next = head.next
	head.next = i
	a.nodes[i].hash = 0
	var zero E
	a.nodes[i].data = zero
}

// at returns an unchecked pointer to node i for direct read/write.
func (a *arena[E]) at(i uint32) *node[E] {
	return &a.nodes[i]
}

// high returns the current bump-allocation frontier: the first arena
// index that has never been allocated.
func (a *arena[E]) high() uint32 {
	return a.nodePointer.Load()
}

// growCopy builds a new arena sized for newSlotCount buckets, with every
// existing node (freelist heads and the live/free element nodes below the
// current high-water mark) copied unchanged at the same index and the
// bump frontier carried forward. It never mutates a in place: the
// resize barrier installs the result via an atomic pointer swap so a
// concurrent reader that bypasses the stripe locks (in violation of the
// single-threaded contract on Contains/Clear/Iterate) observes either the
// whole old arena or the whole new one, never a torn slice header.
func (a *arena[E]) growCopy(newSlotCount int) *arena[E] {
	high := a.nodePointer.Load()
	newNodes := make([]node[E], newSlotCount+a.stripes)
	copy(newNodes, a.nodes[:high])
	na := &arena[E]{nodes: newNodes, stripes: a.stripes}
	na.nodePointer.Store(high)
	return na
}
