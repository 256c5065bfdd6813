// Package cli is the operator-facing command loop: one command per line
// over stdin, exit code 0 on EOF. Grounded in
// original_source/src/__main__.py's ThreadTalker menu (show/add/join/
// leave/send-data/find-data/dump) and src/test1.py's scripted batch
// scenarios, reworked from a numbered menu into the line-oriented
// command spec §6/MODULE 10 describes.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/overlay"
	"github.com/PypeBros/skiptree/space"
)

// REPL reads commands from in, one per line, writing responses to out,
// until EOF. Recognised commands: show node, show cpe, add, insert, find,
// ping, join <host:port>, leave, dump.
type REPL struct {
	Local *overlay.Local
	In    io.Reader
	Out   io.Writer
}

// New builds a REPL operating on l.
func New(l *overlay.Local, in io.Reader, out io.Writer) *REPL {
	return &REPL{Local: l, In: in, Out: out}
}

// Run drains In one line at a time until it is exhausted, returning nil
// on a clean EOF (matching the Python original's "ACK: end-of-input.
// Terminating" exit(0) path).
func (r *REPL) Run() error {
	scanner := bufio.NewScanner(r.In)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.dispatch(line)
	}
	return scanner.Err()
}

func (r *REPL) dispatch(line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "show":
		r.cmdShow(args)
	case "add":
		r.cmdAdd(line)
	case "insert":
		r.cmdInsert(line)
	case "find":
		r.cmdFind(args)
	case "ping":
		r.cmdPing(args)
	case "join":
		r.cmdJoin(args)
	case "leave":
		r.cmdLeave()
	case "dump":
		r.cmdDump()
	default:
		fmt.Fprintf(r.Out, "-ERR unknown command %q\n", cmd)
	}
}

func (r *REPL) cmdShow(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.Out, "-ERR show needs node|cpe")
		return
	}
	self := r.Local.Self
	switch args[0] {
	case "node":
		fmt.Fprintf(r.Out, "name=%s numeric=%s partition=%f addr=%s\n",
			self.NameID.String(), self.NumericID.String(), float64(self.PartID), self.Addr)
	case "cpe":
		for _, n := range r.Local.CPE.Nodes() {
			fmt.Fprintf(r.Out, "cpe dim=%s dir=%s value=%v\n", n.Dim, n.Direction, n.Value)
		}
	default:
		fmt.Fprintf(r.Out, "-ERR unknown show target %q\n", args[0])
	}
}

// parseKeyPart parses a "dim=value" or "dim=lo,hi" token list, as found
// before a ':' separator in add/insert/find lines, into a point-or-range
// SpacePart.
func parseKeyPart(tokens []string) (*space.SpacePart, error) {
	part := space.New()
	for _, tok := range tokens {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed component %q", tok)
		}
		dim := space.Dimension(kv[0])
		if strings.Contains(kv[1], ",") {
			bounds := strings.SplitN(kv[1], ",", 2)
			lo, err := strconv.ParseFloat(bounds[0], 64)
			if err != nil {
				return nil, err
			}
			hi, err := strconv.ParseFloat(bounds[1], 64)
			if err != nil {
				return nil, err
			}
			rng := space.Range[float64]{Min: &lo, Max: &hi, MinIncluded: true, MaxIncluded: true}
			part.SetComponent(space.NewRangeComponent(dim, rng))
			continue
		}
		v, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return nil, err
		}
		part.SetComponent(space.NewPointComponent(dim, v))
	}
	return part, nil
}

// splitKeyAndData pulls "dim=val dim=val : payload" into its two halves;
// payload may itself contain spaces.
func splitKeyAndData(line, cmd string) (keyTokens []string, data string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))
	parts := strings.SplitN(rest, ":", 2)
	keyTokens = strings.Fields(parts[0])
	if len(parts) == 2 {
		data = strings.TrimSpace(parts[1])
	}
	return keyTokens, data
}

func (r *REPL) cmdAdd(line string) {
	tokens, data := splitKeyAndData(line, "add")
	part, err := parseKeyPart(tokens)
	if err != nil {
		fmt.Fprintf(r.Out, "-ERR %v\n", err)
		return
	}
	r.Local.Store.Add(part, []byte(data))
	fmt.Fprintln(r.Out, "+OK")
}

func (r *REPL) cmdInsert(line string) {
	tokens, data := splitKeyAndData(line, "insert")
	part, err := parseKeyPart(tokens)
	if err != nil {
		fmt.Fprintf(r.Out, "-ERR %v\n", err)
		return
	}
	env := envelope.NewRouteByCPE(part, false, envelope.InsertData{Key: part, Data: []byte(data)})
	r.Local.Deliver(env, "")
	fmt.Fprintln(r.Out, "+OK queued")
}

func (r *REPL) cmdFind(args []string) {
	part, err := parseKeyPart(args)
	if err != nil {
		fmt.Fprintf(r.Out, "-ERR %v\n", err)
		return
	}
	req := envelope.LookupRequest{Key: part, Originator: r.Local.Self, Nonce: nonce()}
	env := envelope.NewRouteByCPE(part, true, req)
	r.Local.Deliver(env, "")
	fmt.Fprintf(r.Out, "@_@ SEND %s\n", req.Nonce)
}

func (r *REPL) cmdPing(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.Out, "-ERR ping needs a numeric id (hex)")
		return
	}
	target, err := ident.ParseNumericID(args[0])
	if err != nil {
		fmt.Fprintf(r.Out, "-ERR %v\n", err)
		return
	}
	msg := envelope.SNPingMessage{Src: r.Local.Self, RingLevel: 0}
	r.Local.Deliver(envelope.NewRouteByNumeric(target, msg), "")
	fmt.Fprintln(r.Out, "+OK queued")
}

func (r *REPL) cmdJoin(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.Out, "-ERR join needs host:port")
		return
	}
	contact := neighbour.NodeRef{Addr: args[0]}
	r.Local.Join(contact)
	fmt.Fprintf(r.Out, "+OK joining %s\n", args[0])
}

func (r *REPL) cmdLeave() {
	if err := r.Local.Leave(); err != nil {
		fmt.Fprintf(r.Out, "-ERR %v\n", err)
		return
	}
	fmt.Fprintln(r.Out, "+OK")
}

func (r *REPL) cmdDump() {
	for _, item := range r.Local.Store.All() {
		raw, _ := item.Data.([]byte)
		fmt.Fprintf(r.Out, "%v -> %s\n", dimensionSummary(item.Part), raw)
	}
}

func dimensionSummary(part *space.SpacePart) string {
	dims := part.Dimensions()
	out := make([]string, 0, len(dims))
	for _, d := range dims {
		c, _ := part.Component(d)
		out = append(out, fmt.Sprintf("%s=%v", d, c.Value()))
	}
	return strings.Join(out, " ")
}

// nonce returns a correlation id for a LookupRequest, unique enough across
// this peer's in-flight requests and any concurrent requester elsewhere in
// the ring to never collide (spec §4.6's RouteByCPE "forking" search
// correlates replies by this value alone).
func nonce() string {
	return uuid.New().String()
}
