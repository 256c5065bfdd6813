// Package wire implements the netstring byte framing spec §6 mandates for
// the TCP streams between peers (`len;payload,`), plus the gob-based
// envelope codec layered on top of it. Framing is the one concern this
// module leans on the standard library for rather than a pack dependency:
// no example repo carries a length-prefixed-stream library, and a
// netstring reader/writer is a few dozen lines of bufio/strconv, not a
// concern that justifies reaching outside the pack for something untested
// by any example (see DESIGN.md).
package wire

import (
	"bufio"
	"fmt"
	"io"

	"github.com/PypeBros/skiptree/internal/errs"
)

// MaxFrameSize is the largest payload ReadFrame accepts (spec §6: "Maximum
// accepted length: 16 MiB").
const MaxFrameSize = 16 * 1024 * 1024

// LargeSendThreshold is the buffer size of the overlay egress manager's
// per-connection writer; every send there, whatever its size, is written
// and flushed synchronously by the sending goroutine (spec §5: "large envelopes (>64 KiB) are sent blocking to
// avoid partial-send complexity").
const LargeSendThreshold = 64 * 1024

// ReadFrame reads one netstring frame from r: ASCII decimal length, ';',
// exactly that many payload bytes, then ','. A zero-byte read at the very
// start of a frame (io.EOF with nothing consumed) is the graceful close
// spec §6 describes and is returned as io.EOF verbatim; any other failure
// is wrapped as errs.WireFraming.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	lenStr, err := r.ReadString(';')
	if err != nil {
		if err == io.EOF && lenStr == "" {
			return nil, io.EOF
		}
		return nil, errs.New(errs.WireFraming, "reading frame length", err)
	}
	lenStr = lenStr[:len(lenStr)-1]

	var n int
	if _, err := fmt.Sscanf(lenStr, "%d", &n); err != nil {
		return nil, errs.New(errs.WireFraming, "malformed frame length "+lenStr, err)
	}
	if n < 0 || n > MaxFrameSize {
		return nil, errs.New(errs.WireFraming, fmt.Sprintf("frame length %d exceeds cap", n), nil)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errs.New(errs.WireFraming, "reading frame payload", err)
	}

	tail := make([]byte, 1)
	if _, err := io.ReadFull(r, tail); err != nil {
		return nil, errs.New(errs.WireFraming, "reading frame terminator", err)
	}
	if tail[0] != ',' {
		return nil, errs.New(errs.WireFraming, "frame missing trailing comma", nil)
	}

	return payload, nil
}

// WriteFrame writes payload as one netstring frame, synchronously; Encode
// uses it for every envelope regardless of size.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errs.New(errs.WireFraming, "payload exceeds frame cap", nil)
	}
	if _, err := fmt.Fprintf(w, "%d;", len(payload)); err != nil {
		return errs.New(errs.WireFraming, "writing frame length", err)
	}
	if _, err := w.Write(payload); err != nil {
		return errs.New(errs.WireFraming, "writing frame payload", err)
	}
	if _, err := w.Write([]byte{','}); err != nil {
		return errs.New(errs.WireFraming, "writing frame terminator", err)
	}
	return nil
}
