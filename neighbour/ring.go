package neighbour

import "github.com/PypeBros/skiptree/ident"

// Ring is one skip-level's pair of half-rings (spec §3/§4.5).
type Ring struct {
	Left  *HalfRing
	Right *HalfRing
}

// NewRing builds an empty ring owned by a peer identified by selfNameID.
func NewRing(selfNameID ident.NameID, maxSize int) *Ring {
	return &Ring{
		Left:  NewHalfRing(ident.LEFT, selfNameID, maxSize),
		Right: NewHalfRing(ident.RIGHT, selfNameID, maxSize),
	}
}

// Side returns the half-ring for direction.
func (r *Ring) Side(direction ident.Direction) *HalfRing {
	if direction == ident.LEFT {
		return r.Left
	}
	return r.Right
}

// AddNeighbour adds node to both half-rings (a candidate is always
// evaluated against LEFT and RIGHT independently; each decides for
// itself whether node belongs). Returns whether either side actually
// inserted node (as opposed to merely refreshing an existing entry or
// rejecting it).
func (r *Ring) AddNeighbour(node NodeRef) (addedLeft, addedRight bool) {
	return r.Left.AddNeighbour(node), r.Right.AddNeighbour(node)
}

// RemoveNeighbour removes node from both half-rings, reporting whether
// either side actually held it.
func (r *Ring) RemoveNeighbour(node NodeRef) bool {
	l := r.Left.RemoveNeighbour(node)
	rr := r.Right.RemoveNeighbour(node)
	return l || rr
}

// UniqueNeighbours returns the union of both half-rings, each NameID
// appearing once (used by SNFixupHigher's upward-propagation collection,
// spec §4.8).
func (r *Ring) UniqueNeighbours() []NodeRef {
	seen := make(map[string]struct{})
	var out []NodeRef
	for _, n := range r.Left.Nodes() {
		key := n.NameID.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	for _, n := range r.Right.Nodes() {
		key := n.NameID.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
