package cpe

import (
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/space"
)

// CPE (Characteristic Plane Equation) is the root-first ordered list of
// split decisions leading to one peer's leaf; it both defines the region
// the peer owns and is the routing table the by-CPE router classifies
// queries against.
type CPE struct {
	nodes []InternalNode
}

// New returns an empty CPE, the single-peer-in-the-network case.
func New() *CPE { return &CPE{} }

// AddNode appends a split decision. Order matters: the first call is the
// tree root, the last is the split immediately above this leaf.
func (c *CPE) AddNode(n InternalNode) {
	c.nodes = append(c.nodes, n)
}

// Nodes returns the root-first node list. Callers must not mutate it.
func (c *CPE) Nodes() []InternalNode { return c.nodes }

// Len returns the number of split decisions (the CPE's depth).
func (c *CPE) Len() int { return len(c.nodes) }

// Clone returns an independent copy whose Nodes slice can grow without
// aliasing the receiver's backing array — used when a join extends a
// peer's own CPE but the welcoming peer must keep its pre-join CPE
// un-mutated until the join commits.
func (c *CPE) Clone() *CPE {
	out := &CPE{nodes: make([]InternalNode, len(c.nodes))}
	copy(out.nodes, c.nodes)
	return out
}

// Reset replaces c's nodes with a copy of other's — used when a join
// commits a freshly-computed CPE onto an existing (possibly empty) one.
func (c *CPE) Reset(other *CPE) {
	c.nodes = append([]InternalNode(nil), other.nodes...)
}

// GobEncode/GobDecode let CPE round-trip over gob despite its field being
// unexported (the wire codec, package wire, gob-encodes whole Envelope
// values including embedded CPEs).
func (c *CPE) GobEncode() ([]byte, error) {
	return gobEncode(c.nodes)
}

func (c *CPE) GobDecode(data []byte) error {
	return gobDecode(data, &c.nodes)
}

// Dimensions returns, for every dimension appearing in this CPE, how many
// split decisions were made on it.
func (c *CPE) Dimensions() map[space.Dimension]int {
	counts := make(map[space.Dimension]int)
	for _, n := range c.nodes {
		counts[n.Dim]++
	}
	return counts
}

// K returns the number of distinct dimensions split on in this CPE. A
// freshly-joined peer whose ST join has not yet committed has K()==0; the
// by-CPE router uses that to detect an incomplete routing table and defer
// (spec §4.6 step 4, "nh.cpe.k == 0").
func (c *CPE) K() int { return len(c.Dimensions()) }

// WhichSideSpace classifies part against every split decision in the CPE,
// in root-to-leaf order, per spec §4.2. forking=false requires part to
// define every dimension the CPE splits on (returns MissingDimension
// otherwise); forking=true instead treats a missing dimension as
// potentially matching either side and keeps scanning.
func (c *CPE) WhichSideSpace(part *space.SpacePart, forking bool) (left, here, right bool, err error) {
	nbHere := 0
	for _, n := range c.nodes {
		comp, ok := part.Component(n.Dim)
		if !ok {
			if !forking {
				return false, false, false, errs.New(errs.MissingDimension, string(n.Dim), nil)
			}
			nbHere++
			switch n.Direction.Opposite() {
			case ident.LEFT:
				left = true
			case ident.RIGHT:
				right = true
			}
			continue
		}

		r := comp.Value()
		if n.IsHere(r) {
			nbHere++
			// Only the part of r past the pivot, on the side opposite
			// n.Direction, belongs to another leaf.
			if n.Direction == ident.RIGHT && r.AnyPointBefore(n.Value) {
				left = true
			}
			if n.Direction == ident.LEFT && r.AnyPointAfter(n.Value) {
				right = true
			}
			continue
		}

		// Entirely on the other side of this split: nothing further down
		// the path can contradict a whole-space rejection.
		switch n.Direction.Opposite() {
		case ident.LEFT:
			left = true
		case ident.RIGHT:
			right = true
		}
		break
	}

	here = nbHere == len(c.nodes)
	if !left && !here && !right {
		// Every classification must land somewhere; a CPE with zero nodes
		// (the single-peer case) is always "here".
		here = true
	}
	return left, here, right, nil
}

// GetRange scans the CPE from leaf back to root and returns the bound on
// dim implied by the most recent split on it: the lower bound (exclusive)
// from the closest-to-leaf RIGHT node, the upper bound (inclusive) from
// the closest-to-leaf LEFT node. Either or both bounds are nil if no split
// on dim exists in the corresponding direction.
func (c *CPE) GetRange(dim space.Dimension) space.Range[float64] {
	var out space.Range[float64]
	haveMin, haveMax := false, false
	for i := len(c.nodes) - 1; i >= 0 && !(haveMin && haveMax); i-- {
		n := c.nodes[i]
		if n.Dim != dim {
			continue
		}
		switch n.Direction {
		case ident.RIGHT:
			if !haveMin {
				v := n.Value
				out.Min = &v
				out.MinIncluded = false
				haveMin = true
			}
		case ident.LEFT:
			if !haveMax {
				v := n.Value
				out.Max = &v
				out.MaxIncluded = true
				haveMax = true
			}
		}
	}
	return out
}
