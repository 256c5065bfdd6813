package neighbour

import (
	"testing"

	"github.com/PypeBros/skiptree/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(name string) NodeRef {
	return NodeRef{NameID: ident.NewNameID(name)}
}

func TestHalfRingRejectsSelf(t *testing.T) {
	h := NewHalfRing(ident.RIGHT, ident.NewNameID("m"), 4)
	assert.False(t, h.AddNeighbour(ref("m")))
	assert.Equal(t, 0, h.Len())
}

func TestHalfRingOrdersRightSide(t *testing.T) {
	h := NewHalfRing(ident.RIGHT, ident.NewNameID("m"), 16)
	require.True(t, h.AddNeighbour(ref("p")))
	require.True(t, h.AddNeighbour(ref("n")))
	require.True(t, h.AddNeighbour(ref("z")))

	names := make([]string, 0, h.Len())
	for _, n := range h.Nodes() {
		names = append(names, n.NameID.String())
	}
	assert.Equal(t, []string{"n", "p", "z"}, names)
}

func TestHalfRingAddExistingRefreshesNotInserts(t *testing.T) {
	h := NewHalfRing(ident.RIGHT, ident.NewNameID("m"), 16)
	require.True(t, h.AddNeighbour(ref("n")))
	assert.False(t, h.AddNeighbour(ref("n")))
	assert.Equal(t, 1, h.Len())
}

func TestHalfRingBoundDropsFarthest(t *testing.T) {
	h := NewHalfRing(ident.RIGHT, ident.NewNameID("a"), 2)
	h.AddNeighbour(ref("b"))
	h.AddNeighbour(ref("c"))
	h.AddNeighbour(ref("d"))
	assert.Equal(t, 2, h.Len())
	names := make([]string, 0, h.Len())
	for _, n := range h.Nodes() {
		names = append(names, n.NameID.String())
	}
	assert.Equal(t, []string{"b", "c"}, names)
}

func TestNeighbourhoodGetNeighbourDefaultsToSelf(t *testing.T) {
	self := ref("m")
	nh := New(self, 16)
	got := nh.GetNeighbour(ident.RIGHT, 0)
	assert.True(t, got.Equal(self))
}

func TestNeighbourhoodRepairLevelAndRemove(t *testing.T) {
	self := ref("m")
	nh := New(self, 16)
	added := []NodeRef{ref("n"), ref("a")}
	left, right := nh.RepairLevel(0, added)
	assert.True(t, left || right)

	assert.True(t, nh.RemoveNeighbour(ref("n")))
	assert.False(t, nh.RemoveNeighbour(ref("zzz-not-present")))
}

func TestRingUniqueNeighbours(t *testing.T) {
	self := ref("m")
	r := NewRing(self.NameID, 16)
	r.AddNeighbour(ref("a"))
	r.AddNeighbour(ref("z"))
	uniq := r.UniqueNeighbours()
	assert.Len(t, uniq, 2)
}
