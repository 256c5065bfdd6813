package overlay

import (
	"bufio"
	"net"
	"sync"

	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/wire"
)

// egressConn is one live outbound socket plus the writer guarding it.
// Every send, large or small, holds mu for the whole encode and flush, so
// two sends to the same peer cannot interleave; the manager's map lock is
// held only while looking up or dialing the connection.
type egressConn struct {
	mu   sync.Mutex
	conn net.Conn
	w    *bufio.Writer
}

// egressManager owns the per-peer outbound socket map, opening and closing
// TCP connections lazily as envelopes need to go out (spec §5: "egress
// manager... may open/reuse TCP connections under its own lock"). This is
// the production Sender; dispatch.go only ever sees the Sender interface.
type egressManager struct {
	mu    sync.Mutex
	conns map[string]*egressConn
}

// newEgressManager returns an egressManager with no open connections.
func newEgressManager() *egressManager {
	return &egressManager{conns: make(map[string]*egressConn)}
}

// NewTCPSender returns the production Sender: a fresh egressManager with no
// open connections. Tests that don't want real sockets inject their own
// Sender into Local.Up instead.
func NewTCPSender() Sender { return newEgressManager() }

// Close implements an optional closer Local.Close probes for, tearing down
// every cached outbound connection.
func (m *egressManager) Close() { m.closeAll() }

// Send encodes env as one netstring frame and writes it to dest's socket,
// opening a fresh TCP connection if none is cached or the cached one is
// dead. A >LargeSendThreshold payload blocks until fully written rather
// than being chunked, matching spec §5's "sends above the large-message
// threshold block the egress path for that peer rather than being queued
// piecemeal".
func (m *egressManager) Send(dest neighbour.NodeRef, env *envelope.Envelope) error {
	if dest.Addr == "" {
		return errs.New(errs.PeerUnreachable, "peer has no known address", nil)
	}

	ec, err := m.connFor(dest.Addr)
	if err != nil {
		return errs.New(errs.PeerUnreachable, "dialing "+dest.Addr, err)
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	if err := wire.Encode(ec.w, env); err != nil {
		m.drop(dest.Addr)
		return errs.New(errs.PeerUnreachable, "encoding to "+dest.Addr, err)
	}
	if err := ec.w.Flush(); err != nil {
		m.drop(dest.Addr)
		return errs.New(errs.PeerUnreachable, "flushing to "+dest.Addr, err)
	}
	return nil
}

func (m *egressManager) connFor(addr string) (*egressConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ec, ok := m.conns[addr]; ok {
		return ec, nil
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	ec := &egressConn{conn: conn, w: bufio.NewWriterSize(conn, wire.LargeSendThreshold)}
	m.conns[addr] = ec
	return ec, nil
}

func (m *egressManager) drop(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ec, ok := m.conns[addr]; ok {
		ec.conn.Close()
		delete(m.conns, addr)
	}
}

// closeAll tears down every cached connection, called from Local.Close.
func (m *egressManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for addr, ec := range m.conns {
		ec.conn.Close()
		delete(m.conns, addr)
	}
}
