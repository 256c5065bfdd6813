package join

import (
	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/store"
)

// PendingJoin is the welcoming peer's proposed-but-uncommitted join
// state, held from ASK until ACCEPT confirms it (spec §4.7.2: "Retain
// the new W.cpe and items-remaining locally but do not commit until
// ACCEPT").
type PendingJoin struct {
	Joiner            neighbour.NodeRef
	JoinerSide        ident.Direction
	WelcomerSide      ident.Direction
	NewWelcomerCPE    *cpe.CPE
	JoinerCPE         *cpe.CPE
	JoinerPartitionID ident.PartitionID
	JoinerItems       []store.StoredItem
}

// Processor runs the welcoming-peer and joining-peer halves of a
// SkipTree join against one peer's live state. Both halves share a
// single Processor because a real peer may be W for one join and J for
// another only sequentially, never concurrently — the Busy flag below is
// exactly that mutual exclusion (spec §4.7.2 step 1).
type Processor struct {
	CPE   *cpe.CPE
	Store *store.DataStore
	NH    *neighbour.Neighbourhood
	Rand  ident.Rand

	Busy    bool
	Pending *PendingJoin
}

// NewProcessor builds a join Processor over a peer's live CPE, DataStore,
// and Neighbourhood.
func NewProcessor(c *cpe.CPE, s *store.DataStore, nh *neighbour.Neighbourhood, rnd ident.Rand) *Processor {
	return &Processor{CPE: c, Store: s, NH: nh, Rand: rnd}
}

// HandleAsk processes an incoming STJoinRequest(ASK) at the welcoming
// peer W (spec §4.7.2 steps 1-5). On success it marks the processor busy
// and returns an STJoinReply(PROPOSE) to send to the joiner; on any
// failure it returns an STJoinError instead and leaves state unchanged.
func (p *Processor) HandleAsk(joiner neighbour.NodeRef) *envelope.Envelope {
	if p.Busy {
		return errorReply(joiner, envelope.STJoinErrorBusy)
	}
	p.Busy = true

	self := p.NH.Self()
	direction, err := decideSide(self, joiner, p.NH)
	if err != nil {
		p.Busy = false
		return errorReply(joiner, envelope.STJoinErrorInconsistent)
	}

	pid, err := computeJoinPartitionID(self, direction, p.NH, p.Rand)
	if err != nil {
		p.Busy = false
		return errorReply(joiner, envelope.STJoinErrorExhausted)
	}

	pv, err := p.Store.GetPartitionValue(p.CPE)
	if err != nil {
		p.Busy = false
		return errorReply(joiner, envelope.STJoinErrorExhausted)
	}

	joinerSide := direction
	welcomerSide := direction.Opposite()

	joinerCPE := p.CPE.Clone()
	joinerCPE.AddNode(cpe.InternalNode{Direction: joinerSide, Dim: pv.Dim, Value: pv.Pivot})

	newWelcomerCPE := p.CPE.Clone()
	newWelcomerCPE.AddNode(cpe.InternalNode{Direction: welcomerSide, Dim: pv.Dim, Value: pv.Pivot})

	var joinerSlots []int
	if joinerSide == ident.LEFT {
		joinerSlots = pv.ItemsLeft
	} else {
		joinerSlots = pv.ItemsRight
	}
	joinerItems := p.Store.ExtractSlots(joinerSlots)

	p.Pending = &PendingJoin{
		Joiner:            joiner,
		JoinerSide:        joinerSide,
		WelcomerSide:      welcomerSide,
		NewWelcomerCPE:    newWelcomerCPE,
		JoinerCPE:         joinerCPE,
		JoinerPartitionID: pid,
		JoinerItems:       joinerItems,
	}

	reply := envelope.STJoinReply{
		Contact:     self,
		Phase:       envelope.STJoinPropose,
		PartitionID: pid,
		CPE:         joinerCPE,
		Data:        joinerItems,
	}
	return envelope.NewRouteDirect(joiner, reply)
}

// HandlePropose processes an STJoinReply(PROPOSE) at the joining peer J:
// adopts the proposed partition-id and CPE, replaces J's store wholesale
// with the handed-off items, marks busy until CONFIRM, and returns the
// STJoinRequest(ACCEPT) to send back to the welcoming peer (spec §4.7.2).
func (p *Processor) HandlePropose(welcomer neighbour.NodeRef, reply envelope.STJoinReply) *envelope.Envelope {
	self := p.NH.Self()
	self.PartID = reply.PartitionID
	self.CPE = reply.CPE
	p.NH.SetSelf(self)
	p.CPE.Reset(reply.CPE)

	p.Store.Reset(p.Rand)
	for _, item := range reply.Data {
		p.Store.Add(item.Part, item.Data)
	}

	p.Busy = true
	req := envelope.STJoinRequest{JoiningNode: self, Phase: envelope.STJoinAccept}
	return envelope.NewRouteDirect(welcomer, req)
}

// CommitResult is the outcome of HandleAccept: the STJoinReply(CONFIRM)
// to send the joiner, plus the peers a status-update ping should go to.
type CommitResult struct {
	Reply       *envelope.Envelope
	PingTargets []neighbour.NodeRef
}

// HandleAccept processes an STJoinRequest(ACCEPT) at the welcoming peer
// W: commits the pending new CPE, folds the now-confirmed joiner into
// W's level-0 ring, clears busy, and returns the CONFIRM reply plus the
// ring neighbours W's "publish" status update should ping (spec §4.7.2
// step, "run a status update: ping all ring neighbours, run
// fix_from_level(0)").
func (p *Processor) HandleAccept(joiner neighbour.NodeRef) (*CommitResult, error) {
	if p.Pending == nil {
		return nil, errs.Of(errs.JoinInconsistent)
	}
	pending := p.Pending

	p.CPE.Reset(pending.NewWelcomerCPE)

	joinerRef := pending.Joiner
	joinerRef.PartID = pending.JoinerPartitionID
	joinerRef.CPE = pending.JoinerCPE
	p.NH.RepairLevel(0, []neighbour.NodeRef{joinerRef})

	p.Pending = nil
	p.Busy = false

	reply := envelope.STJoinReply{Contact: p.NH.Self(), Phase: envelope.STJoinConfirm}
	return &CommitResult{
		Reply:       envelope.NewRouteDirect(joiner, reply),
		PingTargets: p.NH.Ring(0).UniqueNeighbours(),
	}, nil
}

func errorReply(joiner neighbour.NodeRef, reason envelope.STJoinErrorReason) *envelope.Envelope {
	err := envelope.STJoinError{
		Reason:   reason,
		Original: envelope.STJoinRequest{JoiningNode: joiner, Phase: envelope.STJoinAsk},
	}
	return envelope.NewRouteDirect(joiner, err)
}

// decideSide picks which side of W the joiner lands on (spec §4.7.2 step
// 2): the by-name direction from W to J, falling back to the opposite
// side if the level-0 ring's ordering there is inconsistent with J's
// position, and reporting JoinInconsistent if neither side resolves.
func decideSide(self, joiner neighbour.NodeRef, nh *neighbour.Neighbourhood) (ident.Direction, error) {
	direction := ident.RIGHT
	if joiner.NameID.Less(self.NameID) {
		direction = ident.LEFT
	}
	if sideConsistent(self, joiner, nh, direction) {
		return direction, nil
	}
	opposite := direction.Opposite()
	if sideConsistent(self, joiner, nh, opposite) {
		return opposite, nil
	}
	return 0, errs.Of(errs.JoinInconsistent)
}

func sideConsistent(self, joiner neighbour.NodeRef, nh *neighbour.Neighbourhood, direction ident.Direction) bool {
	half := nh.Ring(0).Side(direction)
	nodes := half.Nodes()
	idx := 0
	for idx < len(nodes) && nodes[idx].NameID.Equal(joiner.NameID) {
		idx++
	}
	if idx >= len(nodes) {
		// No other neighbour on this side: J becomes W's closest one there.
		return true
	}
	next := nodes[idx]
	return ident.LiesBetweenDirection(direction, self.NameID, joiner.NameID, next.NameID, half.CanWrap())
}

// computeJoinPartitionID picks the new partition-id for the joiner (spec
// §4.7.2 step 3): drawn between W and its closest ring-0 neighbour on the
// chosen side, or from the unbounded side if that neighbour turns out to
// sit on the wrong side of W's own partition-id (a cross-wrap case,
// treated as if there were no neighbour there at all).
func computeJoinPartitionID(self neighbour.NodeRef, direction ident.Direction, nh *neighbour.Neighbourhood, rnd ident.Rand) (ident.PartitionID, error) {
	half := nh.Ring(0).Side(direction)
	next, ok := half.Closest()
	if ok {
		if direction == ident.RIGHT && !self.PartID.Less(next.PartID) {
			ok = false
		}
		if direction == ident.LEFT && !next.PartID.Less(self.PartID) {
			ok = false
		}
	}

	if !ok {
		if direction == ident.RIGHT {
			return ident.GenAfter(rnd, self.PartID)
		}
		return ident.GenBefore(rnd, self.PartID)
	}

	if direction == ident.RIGHT {
		return ident.GenBetween(rnd, self.PartID, next.PartID)
	}
	return ident.GenBetween(rnd, next.PartID, self.PartID)
}
