package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpacePartIncludesValue(t *testing.T) {
	query := New()
	query.SetComponent(NewRangeComponent("x", Range[float64]{
		Min: f(0), Max: f(10), MinIncluded: true, MaxIncluded: true,
	}))

	key := New()
	key.SetComponent(NewPointComponent("x", 5))
	assert.True(t, query.IncludesValue(key))

	outside := New()
	outside.SetComponent(NewPointComponent("x", 50))
	assert.False(t, query.IncludesValue(outside))

	missingDim := New()
	assert.False(t, query.IncludesValue(missingDim))
}

func TestSpacePartGeneralizeAndVal2Range(t *testing.T) {
	s := New()
	s.SetComponent(NewPointComponent("x", 5))
	s.SetComponent(NewPointComponent("y", 9))

	gen := s.Generalize("y")
	assert.False(t, gen.HasDimension("y"))
	assert.True(t, gen.HasDimension("x"))

	widened := s.Val2Range()
	c, ok := widened.Component("x")
	assert.True(t, ok)
	assert.True(t, c.IsRangeValue())
	assert.True(t, c.Value().IsPoint())
}

func f(v float64) *float64 { return &v }
