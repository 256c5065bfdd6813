package overlay

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/netip"

	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/internal/ratelimiter"
	"github.com/PypeBros/skiptree/wire"
)

// routineAccept is the listener's accept loop: one reader goroutine per
// accepted connection, each feeding framed envelopes into the shared
// ingress queue. The accept loop itself never touches core state.
func (l *Local) routineAccept() {
	defer func() {
		l.Log.Verbosef("accept loop stopped")
		l.stopping.Done()
	}()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if l.isClosed() {
				return
			}
			l.Log.Errorf("accept failed: %v", err)
			continue
		}
		l.connsMu.Lock()
		l.conns[conn] = struct{}{}
		l.connsMu.Unlock()

		l.stopping.Add(1)
		go l.routineRead(conn)
	}
}

// routineRead drains one accepted connection, decoding netstring-framed
// envelopes and handing each to the dispatcher via Deliver. It rate-limits
// ingress per source address, budgeted separately for join traffic versus
// ping/fixup chatter (internal/ratelimiter), matching spec §5's note that
// a misbehaving peer must not monopolize the dispatcher.
func (l *Local) routineRead(conn net.Conn) {
	defer func() {
		conn.Close()
		l.connsMu.Lock()
		delete(l.conns, conn)
		l.connsMu.Unlock()
		l.stopping.Done()
	}()

	addr := conn.RemoteAddr().String()
	r := bufio.NewReader(conn)

	for {
		env, err := wire.Decode(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && !l.isClosed() {
				l.Log.Errorf("frame decode from %s failed: %v", addr, err)
			}
			return
		}

		if ip, ok := remoteIP(conn); ok && !l.limit.Allow(ip, classify(env)) {
			l.Log.Verbosef("rate-limited envelope from %s", addr)
			continue
		}

		l.Deliver(env, addr)
	}
}

func remoteIP(conn net.Conn) (netip.Addr, bool) {
	tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return netip.Addr{}, false
	}
	return netip.AddrFromSlice(tcpAddr.IP)
}

// classify sorts an inbound envelope into the traffic class its payload
// belongs to for rate-limiting purposes: join-handshake messages mutate
// ring/CPE state and get the tighter budget, everything else (pings,
// fixups, application traffic) is charged as chatter.
func classify(env *envelope.Envelope) ratelimiter.Class {
	switch env.Payload.(type) {
	case envelope.SNJoinRequest, envelope.SNJoinReply,
		envelope.STJoinRequest, envelope.STJoinReply, envelope.STJoinError,
		envelope.EncapsulatedMessage:
		return ratelimiter.Join
	default:
		return ratelimiter.Chatter
	}
}
