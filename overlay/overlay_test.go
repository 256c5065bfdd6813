package overlay

import (
	"strings"
	"sync"
	"testing"

	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/logctx"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/space"
	"github.com/PypeBros/skiptree/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender wires two (or more) *Local instances together without any
// real socket, recursing straight into the destination's handleEnvelope —
// the same seam the teacher's conn.Bind fake plays for Device in its
// tests. This keeps a round trip fully synchronous, so a test needs no
// dispatcher goroutine or channel teardown to observe the outcome.
type fakeSender struct {
	mu     sync.Mutex
	lookup map[string]*Local
}

func newFakeSender() *fakeSender { return &fakeSender{lookup: make(map[string]*Local)} }

func (f *fakeSender) register(addr string, l *Local) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookup[addr] = l
}

func (f *fakeSender) Send(dest neighbour.NodeRef, env *envelope.Envelope) error {
	f.mu.Lock()
	target, ok := f.lookup[dest.Addr]
	f.mu.Unlock()
	if !ok {
		return assert.AnError
	}
	target.handleEnvelope(env, "fake")
	return nil
}

func newTestLocal(t *testing.T, name, addr string) *Local {
	t.Helper()
	nameID := ident.NewNameID(name)
	numID, err := ident.NewNumericIDFromSeed([]byte(name))
	require.NoError(t, err)
	return newLocalWithIDs(t, name, addr, nameID, numID)
}

// newTestLocalWithNumeric builds a Local whose NumericID is an exact,
// caller-chosen bit pattern (32 hex digits, 128 bits) rather than a hash
// of name — needed to force specific LongestCommonPrefix outcomes when
// testing SNFixupHigher's hop-by-hop prefix comparison.
func newTestLocalWithNumeric(t *testing.T, name, addr, numericHex string) *Local {
	t.Helper()
	numID, err := ident.ParseNumericID(numericHex)
	require.NoError(t, err)
	return newLocalWithIDs(t, name, addr, ident.NewNameID(name), numID)
}

func newLocalWithIDs(t *testing.T, name, addr string, nameID ident.NameID, numID ident.NumericID) *Local {
	t.Helper()
	self := neighbour.NodeRef{NameID: nameID, NumericID: numID, Addr: addr, CPE: cpe.New()}
	nh := neighbour.New(self, 8)
	s := store.New(nil)
	log := logctx.New(name, logctx.LevelSilent)
	return New(self, cpe.New(), s, nh, nil, log)
}

func TestLocalDeliverIdentityRoundTrip(t *testing.T) {
	a := newTestLocal(t, "node-a", "127.0.0.1:1")
	b := newTestLocal(t, "node-b", "127.0.0.1:2")

	sender := newFakeSender()
	sender.register(a.Self.Addr, a)
	sender.register(b.Self.Addr, b)

	a.sender = sender
	b.sender = sender

	req := envelope.NewRouteDirect(b.Self, envelope.IdentityRequest{Asker: a.Self})
	a.handleEnvelope(req, "")
}

func TestLocalPingMessageRepairsLevel(t *testing.T) {
	a := newTestLocal(t, "node-a", "127.0.0.1:1")
	b := newTestLocal(t, "node-b", "127.0.0.1:2")

	ping := envelope.NewRouteDirect(a.Self, envelope.SNPingMessage{Src: b.Self, RingLevel: 0})
	a.handleLocalPayload(ping, "")

	got := a.NH.GetNeighbour(ident.RIGHT, 0)
	assert.True(t, got.Equal(b.Self))
}

func TestLeaveRefusesWhenStoreNonEmpty(t *testing.T) {
	a := newTestLocal(t, "node-a", "127.0.0.1:1")
	a.Store.Add(space.New(), []byte("x"))

	err := a.Leave()
	assert.Error(t, err)
}

func TestLeaveSucceedsWhenStoreEmpty(t *testing.T) {
	a := newTestLocal(t, "node-a", "127.0.0.1:1")
	err := a.Leave()
	assert.NoError(t, err)
}

// TestFixupHigherMultiHopReportsToSrc drives a two-hop SNFixupHigher scan
// (a -> b, which forwards since it shares no numeric-id prefix with a ->
// c, which does and reports) and asserts the resulting SNFixupReport
// actually repairs a's ring at level+1 — the wiring
// handleFixupHigher/handleLocalPayload previously dropped silently.
func TestFixupHigherMultiHopReportsToSrc(t *testing.T) {
	zero := strings.Repeat("0", 32)
	a := newTestLocalWithNumeric(t, "a", "127.0.0.1:20", zero)
	b := newTestLocalWithNumeric(t, "m", "127.0.0.1:21", "80"+strings.Repeat("0", 30))
	c := newTestLocalWithNumeric(t, "z", "127.0.0.1:22", zero)

	sender := newFakeSender()
	sender.register(a.Self.Addr, a)
	sender.register(b.Self.Addr, b)
	sender.register(c.Self.Addr, c)
	a.sender, b.sender, c.sender = sender, sender, sender

	// b's ring 0 points toward c, so the first hop forwards rather than
	// reporting (LongestCommonPrefix(b, a) == 0, not > fx.RingLevel).
	b.NH.Ring(0).AddNeighbour(c.Self)

	// c needs its own "closest" on ring 0 so ProcessFixupHigher doesn't
	// stop for an empty half-ring; any farther NameID works.
	c.NH.Ring(0).AddNeighbour(neighbour.NodeRef{NameID: ident.NewNameID("zz"), Addr: "127.0.0.1:23"})

	// c shares a's numeric prefix (LongestCommonPrefix == 128 > 0), so it
	// is the peer that reports back, carrying its own ring-1 contents.
	ring1Candidate := neighbour.NodeRef{NameID: ident.NewNameID("d"), Addr: "127.0.0.1:24"}
	c.NH.Ring(1).AddNeighbour(ring1Candidate)

	fx := envelope.SNFixupHigher{Src: a.Self, RingLevel: 0, Direction: ident.RIGHT}
	b.handleFixupHigher(fx)

	got := a.NH.GetNeighbour(ident.RIGHT, 1)
	assert.True(t, got.Equal(ring1Candidate))
}
