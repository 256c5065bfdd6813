// Package cpe implements the Characteristic Plane Equation: the ordered
// path of split decisions from the skip-tree root to one peer's leaf
// (spec §3/§4.2).
package cpe

import (
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/space"
)

// InternalNode is one split decision on the path from the tree root to a
// leaf: direction=LEFT means the leaf sits on the side where values on
// Dim are <= Value; direction=RIGHT means Dim > Value.
type InternalNode struct {
	Direction ident.Direction
	Dim       space.Dimension
	Value     float64
}

// HalfSpace returns the (possibly half-open, always unbounded on one end)
// range of Dim values that lie on this node's side of the split.
func (n InternalNode) HalfSpace() space.Range[float64] {
	v := n.Value
	if n.Direction == ident.LEFT {
		return space.Range[float64]{Max: &v, MaxIncluded: true}
	}
	return space.Range[float64]{Min: &v, MinIncluded: false}
}

// IsHere reports whether r intersects this node's half-space at all.
func (n InternalNode) IsHere(r space.Range[float64]) bool {
	return r.Overlaps(n.HalfSpace())
}
