package ident

import (
	"testing"

	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenBetweenWithinOpenInterval(t *testing.T) {
	for i := 0; i < 100; i++ {
		x, err := GenBetween(nil, 0.2, 0.8)
		require.NoError(t, err)
		assert.Greater(t, float64(x), 0.2)
		assert.Less(t, float64(x), 0.8)
	}
}

func TestGenBetweenEmptyIntervalFails(t *testing.T) {
	_, err := GenBetween(nil, 0.5, 0.5)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.Exhausted, e.Kind)
}

func TestGenFamilyRespectsReference(t *testing.T) {
	ref := PartitionID(0.5)
	before, err := GenBefore(nil, ref)
	require.NoError(t, err)
	assert.Less(t, before, ref)

	after, err := GenAfter(nil, ref)
	require.NoError(t, err)
	assert.Greater(t, after, ref)
}
