package ratelimiter

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T) (*Ratelimiter, *time.Time) {
	t.Helper()
	now := time.Now()
	r := &Ratelimiter{timeNow: func() time.Time { return now }}
	r.Init()
	t.Cleanup(r.Close)
	return r, &now
}

// drainBurst calls Allow for class repeatedly (no simulated time passing
// between calls) until it first returns false, and reports how many calls
// succeeded before that.
func drainBurst(r *Ratelimiter, addr netip.Addr, class Class) int {
	successes := 0
	for r.Allow(addr, class) {
		successes++
		if successes > 1000 {
			panic("burst never exhausted")
		}
	}
	return successes
}

func TestAllowBurstThenExhausts(t *testing.T) {
	r, _ := newTestLimiter(t)
	addr := netip.MustParseAddr("10.0.0.1")

	got := drainBurst(r, addr, Join)
	assert.Equal(t, int(classBudgets[Join].burstable)-1, got)
}

func TestJoinAndChatterBudgetsAreIndependent(t *testing.T) {
	r, _ := newTestLimiter(t)
	addr := netip.MustParseAddr("10.0.0.2")

	drainBurst(r, addr, Join)
	assert.False(t, r.Allow(addr, Join), "join budget exhausted")

	// Chatter has its own bucket: exhausting Join must not block it.
	assert.True(t, r.Allow(addr, Chatter), "chatter budget unaffected by join exhaustion")
}

func TestAllowRefillsOverTime(t *testing.T) {
	r, now := newTestLimiter(t)
	addr := netip.MustParseAddr("10.0.0.3")

	drainBurst(r, addr, Chatter)
	assert.False(t, r.Allow(addr, Chatter))

	*now = now.Add(time.Second)
	assert.True(t, r.Allow(addr, Chatter), "tokens should refill after time passes")
}
