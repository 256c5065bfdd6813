// Package neighbour implements the per-level ring routing tables every
// peer maintains: bounded, sorted half-rings grouped into a Neighbourhood
// indexed by numeric-id prefix length (spec §3/§4.5).
package neighbour

import (
	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/ident"
)

// NodeRef is a non-owning descriptor of a remote peer: enough to route to
// and classify against, never a live handle on the peer itself. Per spec
// §9's design note on the SkipNet/SkipTree reference graph being cyclic
// (Node -> Neighbourhood -> Node), this type deliberately never embeds
// anything that points back to a *overlay.Local.
type NodeRef struct {
	NameID    ident.NameID
	NumericID ident.NumericID
	PartID    ident.PartitionID
	Addr      string
	CPE       *cpe.CPE
}

// Equal compares two refs by NameID, the identifier that is stable across
// a peer's address changing (spec treats NameID as the canonical key for
// half-ring membership).
func (n NodeRef) Equal(other NodeRef) bool { return n.NameID.Equal(other.NameID) }
