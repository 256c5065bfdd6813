// Package join implements the two-phase SkipNet ring join and the
// two-phase SkipTree join that grows the tree (spec §4.7), as pure
// decision functions over a peer's CPE/DataStore/Neighbourhood — the
// dispatcher that actually sends the returned envelopes lives in
// package overlay (spec §5: core-state mutation only happens in the
// dispatcher, routing/join decisions never perform I/O themselves).
package join

import (
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/neighbour"
)

// StartSkipNetJoin builds the envelope a freshly-started peer sends to a
// known bootstrap contact: a direct hop carrying an EncapsulatedMessage
// whose inner envelope is a by-name route of an SNJoinRequest(SEED)
// (spec §4.7.1).
func StartSkipNetJoin(self neighbour.NodeRef, contact neighbour.NodeRef) *envelope.Envelope {
	req := envelope.SNJoinRequest{State: envelope.SNJoinSeed, JoiningNode: self}
	inner := envelope.NewRouteByName(self.NameID, req)
	return envelope.NewRouteDirect(contact, envelope.EncapsulatedMessage{Inner: inner})
}

// HandleSeed processes an SNJoinRequest(SEED) that just arrived directly
// at the seed contact, still wrapped in its EncapsulatedMessage. Drops
// (ok=false) if the seed IS the joiner (a self-bootstrap loop). On
// success, returns the inner envelope with its state advanced to
// ROUTING, ready to be routed by name towards the joiner.
func HandleSeed(self neighbour.NodeRef, msg envelope.EncapsulatedMessage) (*envelope.Envelope, bool) {
	req, ok := msg.Inner.Payload.(envelope.SNJoinRequest)
	if !ok {
		return nil, false
	}
	if req.JoiningNode.NameID.Equal(self.NameID) {
		return nil, false
	}
	req.State = envelope.SNJoinRouting
	msg.Inner.Payload = req
	return msg.Inner, true
}

// HandleRouted processes an SNJoinRequest(ROUTING) that has just arrived
// locally (by-name routing delivered it here, at the peer nearest the
// joiner in the level-0 ring): replies directly to the joiner with this
// peer's current level-0 ring neighbours (spec §4.7.1).
func HandleRouted(nh *neighbour.Neighbourhood, req envelope.SNJoinRequest) *envelope.Envelope {
	reply := envelope.SNJoinReply{Neighbours: nh.Ring(0).UniqueNeighbours()}
	return envelope.NewRouteDirect(req.JoiningNode, reply)
}

// HandleSNJoinReply processes the joiner's receipt of its nearest ring
// peer's neighbour list: folds them into the level-0 ring, then picks a
// SkipTree join contact and returns the STJoinRequest(ASK) envelope to
// send it (spec §4.7.1's closing step).
func HandleSNJoinReply(nh *neighbour.Neighbourhood, reply envelope.SNJoinReply) (*envelope.Envelope, error) {
	nh.RepairLevel(0, reply.Neighbours)

	self := nh.Self()
	contact, err := chooseSkipTreeContact(self, nh)
	if err != nil {
		return nil, err
	}
	req := envelope.STJoinRequest{JoiningNode: self, Phase: envelope.STJoinAsk}
	return envelope.NewRouteDirect(contact, req), nil
}

// chooseSkipTreeContact picks between the level-0 left and right
// neighbour: prefer whichever side does not require wrapping; among
// non-wrapping sides (or if both/neither wrap), prefer the larger
// name-id shared prefix (spec §4.7.1).
func chooseSkipTreeContact(self neighbour.NodeRef, nh *neighbour.Neighbourhood) (neighbour.NodeRef, error) {
	left := nh.Ring(0).Left
	right := nh.Ring(0).Right
	lNode, lok := left.Closest()
	rNode, rok := right.Closest()

	switch {
	case !lok && !rok:
		return neighbour.NodeRef{}, errs.New(errs.EmptyRouting, "no level-0 ring neighbours to join against", nil)
	case lok && !rok:
		return lNode, nil
	case rok && !lok:
		return rNode, nil
	}

	lWraps, rWraps := left.CanWrap(), right.CanWrap()
	switch {
	case !lWraps && rWraps:
		return lNode, nil
	case lWraps && !rWraps:
		return rNode, nil
	default:
		if self.NameID.LongestCommonPrefix(lNode.NameID) >= self.NameID.LongestCommonPrefix(rNode.NameID) {
			return lNode, nil
		}
		return rNode, nil
	}
}

