package wire

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"io"

	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/internal/errs"
)

// init registers every concrete payload type an Envelope.Payload field may
// hold, so gob can round-trip the interface value self-describingly (spec
// §6: "Payload-level encoding MUST be self-describing"). This mirrors the
// teacher's own uapi.go pattern of listing every wire-visible type
// explicitly rather than inferring it.
func init() {
	gob.Register(envelope.SNJoinRequest{})
	gob.Register(envelope.SNJoinReply{})
	gob.Register(envelope.SNLeaveRequest{})
	gob.Register(envelope.SNLeaveReply{})
	gob.Register(envelope.SNPingMessage{})
	gob.Register(envelope.SNPingRequest{})
	gob.Register(envelope.SNFixupHigher{})
	gob.Register(envelope.SNFixupReport{})
	gob.Register(envelope.STJoinRequest{})
	gob.Register(envelope.STJoinReply{})
	gob.Register(envelope.STJoinError{})
	gob.Register(envelope.InsertData{})
	gob.Register(envelope.LookupRequest{})
	gob.Register(envelope.LookupReply{})
	gob.Register(envelope.IdentityRequest{})
	gob.Register(envelope.IdentityReply{})
	gob.Register(envelope.EncapsulatedMessage{})

	// store.PureData is `any`; StoredItem values cross the wire during a
	// SkipTree join's data handoff, so the concrete storage type needs
	// registering too (spec §6: InsertData.Data is raw bytes).
	gob.Register([]byte(nil))
}

// Encode serialises e with encoding/gob and writes it as one netstring
// frame to w.
func Encode(w io.Writer, e *envelope.Envelope) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return errs.New(errs.WireFraming, "gob-encoding envelope", err)
	}
	return WriteFrame(w, buf.Bytes())
}

// Decode reads one netstring frame from r and gob-decodes it as an
// Envelope. Returns io.EOF verbatim on a graceful close.
func Decode(r *bufio.Reader) (*envelope.Envelope, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	var e envelope.Envelope
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&e); err != nil {
		return nil, errs.New(errs.WireFraming, "gob-decoding envelope", err)
	}
	return &e, nil
}
