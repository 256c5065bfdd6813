package wire

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello, skiptree")
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameGracefulClose(t *testing.T) {
	_, err := ReadFrame(bufio.NewReader(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("99999999999;")
	_, err := ReadFrame(bufio.NewReader(&buf))
	assert.Error(t, err)
}

func TestEncodeDecodeEnvelopeRoundTrip(t *testing.T) {
	dest := neighbour.NodeRef{
		NameID:    ident.NewNameID("peer-b"),
		PartID:    ident.PartitionID(0.42),
		Addr:      "10.0.0.2:9000",
		CPE:       cpe.New(),
	}
	dest.CPE.AddNode(cpe.InternalNode{Direction: ident.RIGHT, Dim: "x", Value: 5})

	req := envelope.STJoinRequest{JoiningNode: dest, Phase: envelope.STJoinAsk}
	env := envelope.NewRouteDirect(dest, req)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, env))

	got, err := Decode(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, env.Kind, got.Kind)
	require.NotNil(t, got.Dest)
	assert.True(t, got.Dest.NameID.Equal(dest.NameID))
	assert.Equal(t, dest.PartID, got.Dest.PartID)

	gotReq, ok := got.Payload.(envelope.STJoinRequest)
	require.True(t, ok)
	assert.True(t, gotReq.JoiningNode.NameID.Equal(dest.NameID))
	require.NotNil(t, gotReq.JoiningNode.CPE)
	assert.Equal(t, 1, gotReq.JoiningNode.CPE.Len())
}
