package ident

import (
	"math/rand"

	"github.com/PypeBros/skiptree/internal/errs"
)

// PartitionID is a real number in the open interval (0,1) giving a total
// left-to-right order on skip-tree leaves (spec §3). The zero value is not
// a valid PartitionID; every live peer's id comes from one of the Gen*
// constructors below.
type PartitionID float64

const (
	partitionLow  PartitionID = 0.0
	partitionHigh PartitionID = 1.0
)

// Less is plain float order.
func (p PartitionID) Less(other PartitionID) bool { return p < other }

// Equal is plain float equality.
func (p PartitionID) Equal(other PartitionID) bool { return p == other }

// Rand is injected so tests (and any caller wanting reproducible joins)
// can supply a seeded source; nil means "use math/rand's global source",
// matching spec §9's "tests require a seedable RNG injected per peer."
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// DefaultRand wraps the package-level math/rand functions.
type defaultRand struct{}

func (defaultRand) Float64() float64 { return rand.Float64() }
func (defaultRand) Intn(n int) int   { return rand.Intn(n) }

// DefaultRand is the Rand used when a caller passes a nil Rand.
var DefaultRand Rand = defaultRand{}

func pickRand(r Rand) Rand {
	if r == nil {
		return DefaultRand
	}
	return r
}

// GenBetween draws a PartitionID uniformly from the open interval
// (lower, upper), retrying until the draw differs from both bounds; an
// interval with no floating-point room between its bounds fails with
// errs.Exhausted rather than looping forever (spec §4.1).
func GenBetween(r Rand, lower, upper PartitionID) (PartitionID, error) {
	if lower >= upper {
		return 0, errs.New(errs.Exhausted, "empty partition-id interval", nil)
	}
	rr := pickRand(r)
	const maxAttempts = 64
	for i := 0; i < maxAttempts; i++ {
		pick := lower + PartitionID(rr.Float64())*(upper-lower)
		if pick != lower && pick != upper {
			return pick, nil
		}
	}
	return 0, errs.New(errs.Exhausted, "partition-id interval numerically empty", nil)
}

// Gen draws a PartitionID from the full (0,1) interval.
func Gen(r Rand) (PartitionID, error) { return GenBetween(r, partitionLow, partitionHigh) }

// GenBefore draws a PartitionID from (0, ref).
func GenBefore(r Rand, ref PartitionID) (PartitionID, error) { return GenBetween(r, partitionLow, ref) }

// GenAfter draws a PartitionID from (ref, 1).
func GenAfter(r Rand, ref PartitionID) (PartitionID, error) { return GenBetween(r, ref, partitionHigh) }
