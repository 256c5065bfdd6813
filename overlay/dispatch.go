package overlay

import (
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/join"
	"github.com/PypeBros/skiptree/neighbour"
)

// routineDispatch is the single ingress actor (spec §5: "one ingress
// dispatcher drains a thread-safe FIFO strictly sequentially... all
// mutation of Node state occurs inside the dispatcher, removing the need
// for locks on core state"). Every CPE/Store/Neighbourhood/join-processor
// mutation in this package happens only on this goroutine.
func (l *Local) routineDispatch() {
	defer func() {
		l.Log.Verbosef("dispatcher stopped")
		l.stopping.Done()
	}()

	for msg := range l.ingress {
		l.handleEnvelope(msg.env, msg.from)
	}
}

// handleEnvelope routes env, then for every local destination interprets
// its payload; remote destinations are forwarded through the sender.
func (l *Local) handleEnvelope(env *envelope.Envelope, from string) {
	dests, err := l.router.Route(env)
	if err != nil {
		l.handleRoutingError(env, err)
		return
	}
	for _, d := range dests {
		if d.Deferred {
			l.Log.Verbosef("deferring envelope to %s: routing table not ready", d.Peer.NameID.String())
			l.send(envelope.NewRouteDirect(d.Peer, envelope.SNPingRequest{Src: l.Self, RingLevel: 0}))
			continue
		}
		if d.Local {
			l.handleLocalPayload(d.Envelope, from)
			continue
		}
		peer := d.Peer
		d.Envelope.Dest = &peer
		l.send(d.Envelope)
	}
}

func (l *Local) handleRoutingError(env *envelope.Envelope, err error) {
	l.Log.Errorf("routing failed: %v", err)
	if lr, ok := env.Payload.(envelope.LookupRequest); ok {
		reply := lr.RoutingError(err.Error())
		l.send(envelope.NewRouteDirect(lr.Originator, *reply))
	}
}

// send hands env (which must already carry a resolved Dest) to the
// configured Sender, treating a failure as spec §7's PeerUnreachable: drop
// the peer from every ring so it self-heals on the next heartbeat.
func (l *Local) send(env *envelope.Envelope) {
	if env.Dest == nil {
		l.Log.Errorf("dropping envelope with no resolved destination")
		return
	}
	dest := *env.Dest
	if l.sender == nil {
		l.Log.Errorf("no sender configured, dropping envelope to %s", dest.NameID.String())
		return
	}
	if err := l.sender.Send(dest, env); err != nil {
		l.Log.Errorf("send to %s failed: %v; evicting peer", dest.NameID.String(), err)
		l.NH.RemoveNeighbour(dest)
	}
}

// handleLocalPayload dispatches one locally-delivered envelope's payload
// to the appropriate control/application handler (spec §6's payload
// taxonomy).
func (l *Local) handleLocalPayload(env *envelope.Envelope, from string) {
	switch p := env.Payload.(type) {
	case envelope.EncapsulatedMessage:
		l.handleEncapsulated(p)
	case envelope.SNJoinRequest:
		l.handleSNJoinRequest(p)
	case envelope.SNJoinReply:
		l.handleSNJoinReply(p)
	case envelope.SNLeaveRequest:
		l.handleSNLeaveRequest(p)
	case envelope.SNPingMessage:
		l.handleSNPingMessage(p)
	case envelope.SNPingRequest:
		l.handleSNPingRequest(p)
	case envelope.SNFixupHigher:
		l.handleFixupHigher(p)
	case envelope.SNFixupReport:
		l.NH.RepairLevel(p.RingLevel, p.Collected)
	case envelope.STJoinRequest:
		l.handleSTJoinRequest(p)
	case envelope.STJoinReply:
		l.handleSTJoinReply(p)
	case envelope.STJoinError:
		l.Log.Errorf("join refused by %s: %s", p.Original.JoiningNode.NameID.String(), errReason(p.Reason))
	case envelope.InsertData:
		l.Store.Add(p.Key, p.Data)
	case envelope.LookupRequest:
		l.handleLookupRequest(p)
	case envelope.LookupReply:
		l.Log.Verbosef("lookup %s: %d result(s)", p.Nonce, len(p.Data))
	case envelope.IdentityRequest:
		l.send(envelope.NewRouteDirect(p.Asker, envelope.IdentityReply{Responder: l.Self}))
	case envelope.IdentityReply:
		l.Log.Verbosef("identity confirmed for %s", p.Responder.NameID.String())
	default:
		l.Log.Errorf("unhandled local payload of type %T (from %s)", p, from)
	}
}

func (l *Local) handleEncapsulated(msg envelope.EncapsulatedMessage) {
	req, ok := msg.Inner.Payload.(envelope.SNJoinRequest)
	if !ok {
		l.Log.Errorf("encapsulated message carries unexpected payload %T", msg.Inner.Payload)
		return
	}
	if req.State == envelope.SNJoinSeed {
		routed, ok := join.HandleSeed(l.Self, msg)
		if !ok {
			return
		}
		l.handleEnvelope(routed, "")
		return
	}
	l.handleEnvelope(msg.Inner, "")
}

func (l *Local) handleSNJoinRequest(req envelope.SNJoinRequest) {
	out := join.HandleRouted(l.NH, req)
	l.send(out)
}

func (l *Local) handleSNJoinReply(reply envelope.SNJoinReply) {
	out, err := join.HandleSNJoinReply(l.NH, reply)
	if err != nil {
		l.Log.Errorf("skiptree join contact selection failed: %v", err)
		return
	}
	l.send(out)
}

func (l *Local) handleSNLeaveRequest(req envelope.SNLeaveRequest) {
	removed := l.NH.RemoveNeighbour(req.LeavingNode)
	if removed {
		l.send(envelope.NewRouteDirect(req.LeavingNode, envelope.SNLeaveReply{ContactedNode: l.Self}))
	}
}

func (l *Local) handleSNPingMessage(msg envelope.SNPingMessage) {
	l.NH.RepairLevel(msg.RingLevel, []neighbour.NodeRef{msg.Src})
}

func (l *Local) handleSNPingRequest(req envelope.SNPingRequest) {
	l.send(envelope.NewRouteDirect(req.Src, envelope.SNPingMessage{Src: l.Self, RingLevel: req.RingLevel}))
}

func (l *Local) handleFixupHigher(fx envelope.SNFixupHigher) {
	outcome := neighbour.ProcessFixupHigher(l.Self, neighbour.FixupHigher{Src: fx.Src, RingLevel: fx.RingLevel, Direction: fx.Direction}, l.NH)
	switch {
	case outcome.Stop:
		return
	case outcome.ReportToSrc:
		l.send(envelope.NewRouteByPayload(fx.Src, envelope.SNFixupReport{RingLevel: fx.RingLevel + 1, Collected: outcome.Collected}))
	default:
		l.send(envelope.NewRouteDirect(outcome.Next, fx))
	}
}

func (l *Local) handleSTJoinRequest(req envelope.STJoinRequest) {
	switch req.Phase {
	case envelope.STJoinAsk:
		out := l.join.HandleAsk(req.JoiningNode)
		l.send(out)
	case envelope.STJoinAccept:
		commit, err := l.join.HandleAccept(req.JoiningNode)
		if err != nil {
			l.Log.Errorf("accept with no pending join from %s: %v", req.JoiningNode.NameID.String(), err)
			return
		}
		l.send(commit.Reply)
		for _, peer := range commit.PingTargets {
			l.send(envelope.NewRouteDirect(peer, envelope.SNPingMessage{Src: l.Self, RingLevel: 0}))
		}
	}
}

func (l *Local) handleSTJoinReply(reply envelope.STJoinReply) {
	switch reply.Phase {
	case envelope.STJoinPropose:
		out := l.join.HandlePropose(reply.Contact, reply)
		l.send(out)
	case envelope.STJoinConfirm:
		l.Log.Verbosef("skiptree join confirmed by %s", reply.Contact.NameID.String())
	}
}

func (l *Local) handleLookupRequest(req envelope.LookupRequest) {
	data := l.Store.Get(req.Key)
	out := make([][]byte, 0, len(data))
	for _, d := range data {
		if raw, ok := d.([]byte); ok {
			out = append(out, raw)
		}
	}
	reply := envelope.LookupReply{Nonce: req.Nonce, Data: out, Trace: []neighbour.NodeRef{l.Self}}
	l.send(envelope.NewRouteDirect(req.Originator, reply))
}

func errReason(reason envelope.STJoinErrorReason) string {
	switch reason {
	case envelope.STJoinErrorBusy:
		return "busy"
	case envelope.STJoinErrorInconsistent:
		return "inconsistent"
	case envelope.STJoinErrorExhausted:
		return "exhausted"
	case envelope.STJoinErrorTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
