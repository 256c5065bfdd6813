package space

import (
	"testing"

	"github.com/PypeBros/skiptree/ident"
	"github.com/stretchr/testify/assert"
)

func TestRangeIncludesValue(t *testing.T) {
	lo, hi := 0.0, 10.0
	r := Range[float64]{Min: &lo, Max: &hi, MinIncluded: true, MaxIncluded: false}

	assert.True(t, r.IncludesValue(0))
	assert.True(t, r.IncludesValue(5))
	assert.False(t, r.IncludesValue(10))
	assert.False(t, r.IncludesValue(-1))
}

func TestRangeUnboundedIncludesEverything(t *testing.T) {
	r := Unbounded[float64]()
	assert.True(t, r.IncludesValue(1e9))
	assert.True(t, r.IncludesValue(-1e9))
	assert.True(t, r.AnyPointBefore(0))
	assert.True(t, r.AnyPointAfter(0))
}

func TestRangeRestrictNarrows(t *testing.T) {
	r := Unbounded[float64]()
	left := r.Restrict(ident.LEFT, 5.0, true)
	assert.True(t, left.IncludesValue(5))
	assert.False(t, left.IncludesValue(5.1))

	right := r.Restrict(ident.RIGHT, 5.0, false)
	assert.False(t, right.IncludesValue(5))
	assert.True(t, right.IncludesValue(5.1))
}

func TestPointIsPoint(t *testing.T) {
	p := Point(3.0)
	assert.True(t, p.IsPoint())
	assert.True(t, p.IncludesValue(3))
	assert.False(t, p.IncludesValue(3.0001))
}
