package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameIDLongestCommonPrefix(t *testing.T) {
	a, b := NewNameID("node-alpha"), NewNameID("node-beta")
	lcp := a.LongestCommonPrefix(b)
	assert.InDelta(t, 5.0, lcp, 0.1, "shares 'node-'")

	x, y := NewNameID("aaa"), NewNameID("zzz")
	assert.Less(t, 0.0, x.LongestCommonPrefix(y), "no shared prefix still yields a fractional tie-breaker")
}

func TestNameIDOrdering(t *testing.T) {
	assert.True(t, NewNameID("a").Less(NewNameID("b")))
	assert.False(t, NewNameID("b").Less(NewNameID("a")))
	assert.True(t, NewNameID("x").Equal(NewNameID("x")))
}
