package neighbour

import "github.com/PypeBros/skiptree/ident"

// DefaultHalfRingSize is the bound spec §4.5 names ("bounded (default 16)
// sorted list").
const DefaultHalfRingSize = 16

// HalfRing is a bounded, direction-sorted list of neighbours, nearest to
// self first. The zero value is not usable; build with NewHalfRing.
type HalfRing struct {
	direction  ident.Direction
	selfNameID ident.NameID
	maxSize    int
	nodes      []NodeRef
}

// NewHalfRing returns an empty half-ring owned by a peer identified by
// selfNameID, bounded to maxSize entries (DefaultHalfRingSize if <= 0).
func NewHalfRing(direction ident.Direction, selfNameID ident.NameID, maxSize int) *HalfRing {
	if maxSize <= 0 {
		maxSize = DefaultHalfRingSize
	}
	return &HalfRing{direction: direction, selfNameID: selfNameID, maxSize: maxSize}
}

// Len returns the current neighbour count.
func (h *HalfRing) Len() int { return len(h.nodes) }

// Nodes returns the current ordering, nearest first. Callers must not
// mutate the returned slice.
func (h *HalfRing) Nodes() []NodeRef { return h.nodes }

// CanWrap reports whether this half-ring, as currently populated, has
// already wrapped past the far side of the ring back toward self — spec
// §4.5: RIGHT wraps when its first (closest) entry's NameID is actually
// less than self's; LEFT wraps when its first entry's NameID is greater.
// An empty half-ring cannot have wrapped.
func (h *HalfRing) CanWrap() bool {
	if len(h.nodes) == 0 {
		return false
	}
	first := h.nodes[0].NameID
	if h.direction == ident.RIGHT {
		return first.Less(h.selfNameID)
	}
	return h.selfNameID.Less(first)
}

// AddNeighbour inserts node in sorted order, refreshing its CPE in place
// if already present (returning false, no insertion happened), rejecting
// self-references outright, and dropping the farthest entry if the bound
// is exceeded (spec §4.5).
func (h *HalfRing) AddNeighbour(node NodeRef) bool {
	if node.NameID.Equal(h.selfNameID) {
		return false
	}
	for i := range h.nodes {
		if h.nodes[i].NameID.Equal(node.NameID) {
			h.nodes[i].CPE = node.CPE
			return false
		}
	}

	wrap := h.CanWrap()
	insertAt := len(h.nodes)
	for i := range h.nodes {
		prev := h.selfNameID
		if i > 0 {
			prev = h.nodes[i-1].NameID
		}
		cur := h.nodes[i].NameID
		if ident.LiesBetweenDirection(h.direction, prev, node.NameID, cur, wrap) {
			insertAt = i
			break
		}
	}

	h.nodes = append(h.nodes, NodeRef{})
	copy(h.nodes[insertAt+1:], h.nodes[insertAt:])
	h.nodes[insertAt] = node

	if len(h.nodes) > h.maxSize {
		h.nodes = h.nodes[:h.maxSize]
	}
	return true
}

// RemoveNeighbour drops the entry with node's NameID, if present,
// reporting whether anything was removed.
func (h *HalfRing) RemoveNeighbour(node NodeRef) bool {
	for i := range h.nodes {
		if h.nodes[i].NameID.Equal(node.NameID) {
			h.nodes = append(h.nodes[:i], h.nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Closest returns the nearest neighbour, or ok=false if the half-ring is
// empty.
func (h *HalfRing) Closest() (NodeRef, bool) {
	if len(h.nodes) == 0 {
		return NodeRef{}, false
	}
	return h.nodes[0], true
}
