package envelope

import (
	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/store"
)

// SNJoinState is the two-state machine of a SkipNet join request.
type SNJoinState int

const (
	SNJoinSeed SNJoinState = iota
	SNJoinRouting
)

// SNJoinRequest carries a joining peer's descriptor through the ring
// lookup that locates its nearest level-0 neighbour (spec §4.7.1).
type SNJoinRequest struct {
	State       SNJoinState
	JoiningNode neighbour.NodeRef
}

// SNJoinReply is sent directly back to the joining peer once its nearest
// ring neighbour is found.
type SNJoinReply struct {
	Neighbours []neighbour.NodeRef
}

// SNLeaveRequest announces a peer's intent to leave the overlay.
type SNLeaveRequest struct {
	LeavingNode neighbour.NodeRef
}

// SNLeaveReply confirms a leave was seen by one contacted peer.
type SNLeaveReply struct {
	ContactedNode neighbour.NodeRef
}

// SNPingMessage announces src's presence at ring_level, fire-and-forget.
type SNPingMessage struct {
	Src       neighbour.NodeRef
	RingLevel int
}

// SNPingRequest asks the recipient to reply with an SNPingMessage, used
// when a by-CPE fork meets a peer whose routing table isn't usable yet
// (spec §4.6 step 4).
type SNPingRequest struct {
	Src       neighbour.NodeRef
	RingLevel int
}

// SNFixupHigher propagates a newly repaired ring level upward so higher
// rings learn about src too (spec §4.8).
type SNFixupHigher struct {
	Src       neighbour.NodeRef
	RingLevel int
	Direction ident.Direction
}

// SNFixupReport carries a completed SNFixupHigher scan's result back to
// the peer that originated it, triggering that peer's
// repair_level(ring_level+1, collected) (spec §4.8: "on arrival
// src.repair_level(ring_level+1, collected)").
type SNFixupReport struct {
	RingLevel int
	Collected []neighbour.NodeRef
}

// STJoinPhase is the four-state machine of a SkipTree join.
type STJoinPhase int

const (
	STJoinAsk STJoinPhase = iota
	STJoinPropose
	STJoinAccept
	STJoinConfirm
	STJoinErrorPhase
)

// STJoinRequest is sent by the joining peer J to its chosen welcoming
// peer W, and again by J back to W once it has adopted W's PROPOSE.
type STJoinRequest struct {
	JoiningNode neighbour.NodeRef
	Phase       STJoinPhase
}

// STJoinReply carries W's decision back to J: W's own descriptor as
// Contact, the phase, and — on PROPOSE — the new partition-id, CPE, and data J must
// adopt.
type STJoinReply struct {
	Contact     neighbour.NodeRef
	Phase       STJoinPhase
	PartitionID ident.PartitionID
	CPE         *cpe.CPE
	Data        []store.StoredItem
}

// STJoinErrorReason enumerates why a SkipTree join was refused.
type STJoinErrorReason int

const (
	STJoinErrorBusy STJoinErrorReason = iota
	STJoinErrorInconsistent
	STJoinErrorExhausted
	STJoinErrorTimeout
)

// STJoinError replaces the reference implementation's debugger breakpoint
// on an inconsistent join (spec §9): a typed reply instead of a halt.
type STJoinError struct {
	Reason   STJoinErrorReason
	Original STJoinRequest
}
