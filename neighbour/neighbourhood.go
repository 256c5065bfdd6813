package neighbour

import "github.com/PypeBros/skiptree/ident"

// Neighbourhood is the full set of per-level rings a peer maintains: ring
// i holds peers sharing a numeric-id prefix of length >= i with the local
// node, with R = bits(NumericID)+1 levels (spec §4.5). Level 0 is the
// base ring containing every peer this one currently knows about;
// membership in ring i+1 is always a subset of ring i, enforced by
// repair_level only ever promoting candidates upward (see the join and
// heartbeat packages), never by this type filtering on prefix length
// itself.
type Neighbourhood struct {
	self  NodeRef
	rings []*Ring
}

// New builds a Neighbourhood with ident.NumericIDBits+1 empty rings,
// owned by self.
func New(self NodeRef, maxHalfRingSize int) *Neighbourhood {
	rings := make([]*Ring, ident.NumericIDBits+1)
	for i := range rings {
		rings[i] = NewRing(self.NameID, maxHalfRingSize)
	}
	return &Neighbourhood{self: self, rings: rings}
}

// Self returns the owning peer's own descriptor.
func (nh *Neighbourhood) Self() NodeRef { return nh.self }

// SetSelf replaces the local descriptor, used once a SkipTree join
// commits a partition-id and CPE the peer didn't have before.
func (nh *Neighbourhood) SetSelf(self NodeRef) { nh.self = self }

// Levels returns the number of ring levels.
func (nh *Neighbourhood) Levels() int { return len(nh.rings) }

// Ring returns ring level (0-indexed). Panics if level is out of range,
// matching the reference's fixed-size ring array.
func (nh *Neighbourhood) Ring(level int) *Ring { return nh.rings[level] }

// RepairLevel adds every candidate to ring_level's LEFT and RIGHT
// half-rings, returning which sides actually gained at least one new
// entry — the heartbeat/join caller uses this to decide whether an
// SNPingMessage announcement and an SNFixupHigher propagation are needed
// on that side (spec §4.8).
func (nh *Neighbourhood) RepairLevel(level int, candidates []NodeRef) (addedLeft, addedRight bool) {
	ring := nh.Ring(level)
	for _, c := range candidates {
		l, r := ring.AddNeighbour(c)
		addedLeft = addedLeft || l
		addedRight = addedRight || r
	}
	return addedLeft, addedRight
}

// RemoveNeighbour removes node from every ring level, reporting whether
// any level actually held it (spec §8's "repair_level/fix_from_level to
// remove it from every surviving table").
func (nh *Neighbourhood) RemoveNeighbour(node NodeRef) bool {
	removed := false
	for _, ring := range nh.rings {
		if ring.RemoveNeighbour(node) {
			removed = true
		}
	}
	return removed
}

// GetNeighbour returns the closest neighbour on the given side of the
// given ring level, or self if that half-ring is empty (spec §4.5).
func (nh *Neighbourhood) GetNeighbour(direction ident.Direction, level int) NodeRef {
	if closest, ok := nh.Ring(level).Side(direction).Closest(); ok {
		return closest
	}
	return nh.self
}
