// Package ratelimiter bounds how often a remote address may have its
// control traffic processed, independently of the dispatcher's own ingress
// queue. It keeps two independent token-bucket budgets per address rather
// than one shared one: Join traffic (SNJoinRequest/STJoinRequest, which
// mutates ring/CPE state and is costly per message) and Chatter traffic
// (SNPingMessage/SNPingRequest/SNFixupHigher/SNFixupReport, cheap and
// expected at heartbeat frequency). A peer hammering join retries must not
// also exhaust the budget its legitimate heartbeat keepalive needs, and a
// burst of pings must not starve a pending join — spec §5's "a misbehaving
// peer must not monopolize the dispatcher" read per traffic class, since
// the two have very different legitimate rates. The token-bucket mechanics
// (background sweep toggled by a stopReset channel, refill-on-access) are
// adapted from the teacher's handshake-initiation limiter.
package ratelimiter

import (
	"net/netip"
	"sync"
	"time"
)

// Class distinguishes the two traffic shapes this limiter budgets
// separately.
type Class int

const (
	// Chatter covers pings and fixup propagation: frequent, cheap,
	// fire-and-forget.
	Chatter Class = iota
	// Join covers SkipNet/SkipTree join requests: rarer, but each one
	// walks rings and mutates CPE/Store state on arrival.
	Join
	numClasses
)

// budget is one class's steady-state rate and burst allowance.
type budget struct {
	perSecond int64
	burstable int64
}

// classBudgets gives join traffic a much tighter allowance than chatter:
// a node only legitimately joins once, while heartbeat chatter recurs
// every DefaultHeartbeatInterval tick for every ring level this peer sits
// on.
var classBudgets = [numClasses]budget{
	Chatter: {perSecond: 20, burstable: 8},
	Join:    {perSecond: 4, burstable: 2},
}

func (b budget) cost() int64      { return int64(time.Second) / b.perSecond }
func (b budget) maxTokens() int64 { return b.cost() * b.burstable }

const garbageCollectTime = time.Second

// tokenBucket is one (address, class) pair's running balance.
type tokenBucket struct {
	mu       sync.Mutex
	lastTime time.Time
	tokens   int64
}

// entry is one address's full set of per-class buckets.
type entry struct {
	buckets [numClasses]tokenBucket
}

// Ratelimiter gates ingress traffic per source address and Class so a
// single misbehaving or retrying peer cannot monopolize the dispatcher on
// either traffic shape. Zero value must be initialized with Init before
// use.
type Ratelimiter struct {
	mu      sync.RWMutex
	timeNow func() time.Time

	stopReset chan struct{} // send to reset, close to stop
	table     map[netip.Addr]*entry
}

// Init (re)starts the limiter, discarding any previously tracked addresses.
func (r *Ratelimiter) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timeNow == nil {
		r.timeNow = time.Now
	}
	if r.stopReset != nil {
		close(r.stopReset)
	}

	r.stopReset = make(chan struct{})
	r.table = make(map[netip.Addr]*entry)
	stopReset := r.stopReset

	go func() {
		ticker := time.NewTicker(time.Second)
		ticker.Stop()
		for {
			select {
			case _, ok := <-stopReset:
				ticker.Stop()
				if !ok {
					return
				}
				ticker = time.NewTicker(time.Second)
			case <-ticker.C:
				if r.cleanup() {
					ticker.Stop()
				}
			}
		}
	}()
}

// Close stops the background sweep. Safe to call on a zero-value limiter.
func (r *Ratelimiter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopReset != nil {
		close(r.stopReset)
		r.stopReset = nil
	}
}

// cleanup drops any address whose every class bucket has been idle past
// garbageCollectTime, reporting whether the table emptied out entirely.
func (r *Ratelimiter) cleanup() (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timeNow()
	for key, e := range r.table {
		stale := true
		for i := range e.buckets {
			b := &e.buckets[i]
			b.mu.Lock()
			if now.Sub(b.lastTime) <= garbageCollectTime {
				stale = false
			}
			b.mu.Unlock()
		}
		if stale {
			delete(r.table, key)
		}
	}
	return len(r.table) == 0
}

// Allow reports whether a message of the given Class from addr may be
// processed now, consuming one token from that class's bucket if so. New
// addresses start every class bucket full, so a peer's first message of
// either shape is never rejected regardless of which class it lands in
// first.
func (r *Ratelimiter) Allow(addr netip.Addr, class Class) bool {
	r.mu.RLock()
	e := r.table[addr]
	r.mu.RUnlock()

	if e == nil {
		e = &entry{}
		now := r.timeNow()
		for i := range e.buckets {
			e.buckets[i].lastTime = now
			e.buckets[i].tokens = classBudgets[i].maxTokens()
		}
		r.mu.Lock()
		r.table[addr] = e
		if len(r.table) == 1 {
			r.stopReset <- struct{}{}
		}
		r.mu.Unlock()
	}

	b := &e.buckets[class]
	bud := classBudgets[class]

	b.mu.Lock()
	defer b.mu.Unlock()
	now := r.timeNow()
	b.tokens += now.Sub(b.lastTime).Nanoseconds()
	b.lastTime = now
	if max := bud.maxTokens(); b.tokens > max {
		b.tokens = max
	}
	if cost := bud.cost(); b.tokens > cost {
		b.tokens -= cost
		return true
	}
	return false
}
