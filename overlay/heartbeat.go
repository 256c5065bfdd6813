package overlay

import (
	"time"

	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
)

// routineHeartbeat implements spec §4.8's periodic maintenance: "every T
// seconds (default 10 min), for each ring level, ping the full ring and
// call fix_from_level(0)". Both the ping fan-out and the fixup kickoff
// are only ever scheduled here; the actual mutation happens back on the
// dispatcher goroutine once the resulting envelopes are self-delivered.
func (l *Local) routineHeartbeat() {
	defer func() {
		l.Log.Verbosef("heartbeat stopped")
		l.stopping.Done()
	}()

	ticker := time.NewTicker(l.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.quit:
			return
		case <-ticker.C:
			l.runHeartbeat()
		}
	}
}

func (l *Local) runHeartbeat() {
	l.Log.Verbosef("heartbeat: pinging %d ring level(s)", l.NH.Levels())
	for level := 0; level < l.NH.Levels(); level++ {
		ring := l.NH.Ring(level)
		for _, side := range []ident.Direction{ident.LEFT, ident.RIGHT} {
			for _, peer := range ring.Side(side).Nodes() {
				msg := envelope.SNPingMessage{Src: l.Self, RingLevel: level}
				l.Deliver(envelope.NewRouteDirect(peer, msg), "")
			}
		}
	}
	l.fixFromLevel(0)
}

// fixFromLevel starts an SNFixupHigher scan from the lowest level whose
// half-ring grew since the last heartbeat would normally trigger it; here
// it is driven directly off the current ring contents on every tick,
// which is simpler than tracking a dirty bit and no less correct since
// ProcessFixupHigher is idempotent against an already-consistent ring.
func (l *Local) fixFromLevel(level int) {
	for ; level < l.NH.Levels(); level++ {
		for _, side := range []ident.Direction{ident.LEFT, ident.RIGHT} {
			next, fx, ok := neighbour.StartFixupHigher(l.Self, level, side, l.NH)
			if !ok {
				continue
			}
			env := envelope.NewRouteDirect(next, envelope.SNFixupHigher{
				Src:       fx.Src,
				RingLevel: fx.RingLevel,
				Direction: fx.Direction,
			})
			l.Deliver(env, "")
		}
	}
}
