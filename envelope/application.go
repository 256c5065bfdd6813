package envelope

import (
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/space"
)

// InsertData is the application payload of a non-forking RouteByCPE
// insertion: key must be a point SpacePart.
type InsertData struct {
	Key  *space.SpacePart
	Data []byte
}

// LookupRequest is the application payload of a forking RouteByCPE
// query; key is typically a range. Nonce correlates replies with this
// request at the originator.
type LookupRequest struct {
	Key        *space.SpacePart
	Originator neighbour.NodeRef
	Nonce      string
}

// LookupReply carries one peer's matching data (or an error) back to a
// LookupRequest's originator.
type LookupReply struct {
	Nonce string
	Data  [][]byte
	Trace []neighbour.NodeRef
	Error string
}

// RoutingError builds the LookupReply a LookupRequest's EmptyRouting
// handler sends back to Originator when by-CPE routing produces no
// destinations at all (spec §7's "invoke payload's routing_error() if
// present").
func (req *LookupRequest) RoutingError(reason string) *LookupReply {
	return &LookupReply{Nonce: req.Nonce, Error: reason}
}

// IdentityRequest/IdentityReply let a freshly-joined peer confirm a
// neighbour's identity before trusting an SNJoinReply — present in
// original_source/src/messages.py and exercised by its batch test
// harness, though spec.md's core algorithm prose never names them.
type IdentityRequest struct {
	Asker neighbour.NodeRef
}

type IdentityReply struct {
	Responder neighbour.NodeRef
}

// EncapsulatedMessage wraps one envelope inside another's payload — used
// by the SkipNet join handshake to route a SEED-state SNJoinRequest by
// name after a direct hop to the bootstrap contact (spec §4.7.1).
type EncapsulatedMessage struct {
	Inner *Envelope
}
