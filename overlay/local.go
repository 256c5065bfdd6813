// Package overlay wires the pure decision packages (routing, join,
// neighbour) to actual network I/O: one ingress dispatcher goroutine per
// node, one egress manager owning the peer socket map, one heartbeat
// goroutine, and a listener goroutine per accepted connection (spec §5).
// The lifecycle and goroutine-management style — an atomic state enum, a
// stopping WaitGroup, a closed channel — is adapted from the teacher's
// device.Device (device/device.go).
package overlay

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/internal/logctx"
	"github.com/PypeBros/skiptree/internal/ratelimiter"
	"github.com/PypeBros/skiptree/join"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/routing"
	"github.com/PypeBros/skiptree/store"
)

// localState mirrors device.deviceState's down/up/closed lifecycle.
type localState uint32

const (
	stateDown localState = iota
	stateUp
	stateClosed
)

// DefaultIngressQueueSize bounds the ingress dispatcher's backlog before a
// sender blocks, matching the teacher's QueueHandshakeSize-style sizing of
// fixed-capacity channels rather than an unbounded queue.
const DefaultIngressQueueSize = 1024

// DefaultHeartbeatInterval is spec §4.8's "every T seconds (default 10
// min)".
const DefaultHeartbeatInterval = 10 * time.Minute

// Sender delivers one envelope to a remote peer. The production
// implementation is *egressManager (egress.go); tests inject an in-memory
// fake so dispatch logic can be exercised without real sockets — the same
// role the teacher's conn.Bind interface plays for Device.
type Sender interface {
	Send(dest neighbour.NodeRef, env *envelope.Envelope) error
}

// Local is one peer's full runtime state: the dispatcher-owned core
// (CPE/Store/Neighbourhood/join processor), the listener, the egress
// sender, and the goroutine bookkeeping needed to start and stop cleanly.
type Local struct {
	Self  neighbour.NodeRef
	CPE   *cpe.CPE
	Store *store.DataStore
	NH    *neighbour.Neighbourhood
	Rand  ident.Rand
	Log   *logctx.Logger

	router *routing.Router
	join   *join.Processor
	limit  ratelimiter.Ratelimiter

	ingress chan ingressMsg
	sender  Sender

	listener net.Listener

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	heartbeatInterval time.Duration

	state    atomic.Uint32
	stopping sync.WaitGroup
	quit     chan struct{}
	closed   chan struct{}
}

// ingressMsg pairs a received envelope with the remote address it arrived
// from, for rate-limiting and PeerUnreachable bookkeeping.
type ingressMsg struct {
	env  *envelope.Envelope
	from string
}

// New builds a Local over self's identity and a freshly-joined (or
// single-peer) CPE/Store/Neighbourhood. Start the dispatcher and listener
// with Up.
func New(self neighbour.NodeRef, c *cpe.CPE, s *store.DataStore, nh *neighbour.Neighbourhood, rnd ident.Rand, log *logctx.Logger) *Local {
	l := &Local{
		Self:              self,
		CPE:               c,
		Store:             s,
		NH:                nh,
		Rand:              rnd,
		Log:               log,
		router:            routing.New(c, nh),
		join:              join.NewProcessor(c, s, nh, rnd),
		ingress:           make(chan ingressMsg, DefaultIngressQueueSize),
		heartbeatInterval: DefaultHeartbeatInterval,
		quit:              make(chan struct{}),
		closed:            make(chan struct{}),
		conns:             make(map[net.Conn]struct{}),
	}
	l.limit.Init()
	return l
}

// Up starts the dispatcher and heartbeat goroutines, binds sender as the
// egress path, and begins accepting connections on listenAddr.
func (l *Local) Up(listenAddr string, sender Sender) error {
	if !l.state.CompareAndSwap(uint32(stateDown), uint32(stateUp)) {
		return errs.New(errs.EmptyRouting, "local already started", nil)
	}
	l.sender = sender

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		l.state.Store(uint32(stateDown))
		return err
	}
	l.listener = ln

	l.stopping.Add(3)
	go l.routineDispatch()
	go l.routineAccept()
	go l.routineHeartbeat()
	return nil
}

// SetHeartbeatInterval overrides DefaultHeartbeatInterval. Must be called
// before Up.
func (l *Local) SetHeartbeatInterval(d time.Duration) { l.heartbeatInterval = d }

func (l *Local) isClosed() bool { return localState(l.state.Load()) == stateClosed }

// Close stops every goroutine and releases the listener and rate limiter.
// Idempotent.
func (l *Local) Close() {
	if l.isClosed() {
		return
	}
	l.state.Store(uint32(stateClosed))
	close(l.quit)
	if l.listener != nil {
		l.listener.Close()
	}
	l.connsMu.Lock()
	for conn := range l.conns {
		conn.Close()
	}
	l.connsMu.Unlock()
	close(l.ingress)
	l.limit.Close()
	l.stopping.Wait()
	if closer, ok := l.sender.(interface{ Close() }); ok {
		closer.Close()
	}
	close(l.closed)
}

// Wait returns a channel closed once Close has finished tearing everything
// down.
func (l *Local) Wait() <-chan struct{} { return l.closed }

// Deliver enqueues env, received from addr (empty for locally-originated
// traffic), for the dispatcher to process. Blocks if the ingress queue is
// full, same backpressure the teacher's bounded queues apply.
func (l *Local) Deliver(env *envelope.Envelope, addr string) {
	if l.isClosed() {
		return
	}
	l.ingress <- ingressMsg{env: env, from: addr}
}

// Join sends the initial SkipNet SEED request to contact, kicking off
// the join handshake described in spec §4.7.1. The joining peer only
// gains ring/CPE state once contact's side of the handshake replies;
// this call itself just enqueues the first hop.
func (l *Local) Join(contact neighbour.NodeRef) {
	l.Deliver(join.StartSkipNetJoin(l.Self, contact), "")
}

// Leave announces departure to every ring-0 neighbour. Per this module's
// resolution of spec §9's open question on a non-empty leaving node, it
// refuses to leave while the local store still holds data, since nothing
// in spec §4.7 describes handing stored items off to a ring neighbour on
// departure.
func (l *Local) Leave() error {
	if l.Store.Len() != 0 {
		return errs.New(errs.EmptyStore, "refusing to leave: store is not empty", nil)
	}
	ring := l.NH.Ring(0)
	for _, side := range ring.Left.Nodes() {
		l.Deliver(envelope.NewRouteDirect(side, envelope.SNLeaveRequest{LeavingNode: l.Self}), "")
	}
	for _, side := range ring.Right.Nodes() {
		l.Deliver(envelope.NewRouteDirect(side, envelope.SNLeaveRequest{LeavingNode: l.Self}), "")
	}
	return nil
}
