// Command skiptree-node boots one overlay peer: bind its listener,
// optionally join a bootstrap contact, then hand control to an operator
// REPL (interactive mode) or replay a batch file of commands (batch
// mode) — spec §6/MODULE 10, grounded in
// original_source/src/__main__.py's argv dispatch
// ("<IP> <PORT> <NAME_ID> <NUMERIC_ID> [WELCOME_IP] [WELCOME_PORT]
// [BATCH_FILE]"). github.com/spf13/cobra/pflag replace that raw argv
// indexing with named, validated positional arguments and flags, the
// way several pack repos front their own daemons.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/PypeBros/skiptree/cli"
	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/logctx"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/overlay"
	"github.com/PypeBros/skiptree/store"
	"github.com/spf13/cobra"
)

var (
	flagBootstrapAddr string
	flagBatchFile     string
	flagVerbose       bool
	flagHeartbeat     time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "skiptree-node <local-ip> <local-port> <name-id> <numeric-id>",
		Short: "run one skiptree overlay peer",
		Args:  cobra.ExactArgs(4),
		RunE:  runNode,
	}
	root.Flags().StringVar(&flagBootstrapAddr, "join", "", "bootstrap contact host:port to join on startup")
	root.Flags().StringVar(&flagBatchFile, "batch", "", "replay commands from this file instead of reading stdin interactively")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "log at VRB level instead of ERR-only")
	root.Flags().DurationVar(&flagHeartbeat, "heartbeat", overlay.DefaultHeartbeatInterval, "ring heartbeat interval")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runNode(cmd *cobra.Command, args []string) error {
	localIP, localPort, nameArg, numericArg := args[0], args[1], args[2], args[3]
	listenAddr := net.JoinHostPort(localIP, localPort)

	nameID := ident.NewNameID(nameArg)
	numericID, err := ident.ParseNumericID(numericArg)
	if err != nil {
		return fmt.Errorf("parsing numeric id: %w", err)
	}

	self := neighbour.NodeRef{NameID: nameID, NumericID: numericID, Addr: listenAddr, CPE: cpe.New()}

	level := logctx.LevelError
	if flagVerbose {
		level = logctx.LevelVerbose
	}
	log := logctx.New(nameArg, level)

	nh := neighbour.New(self, neighbour.DefaultHalfRingSize)
	s := store.New(nil)
	l := overlay.New(self, cpe.New(), s, nh, nil, log)
	l.SetHeartbeatInterval(flagHeartbeat)

	fmt.Printf("NameID: %s\n", nameID.String())
	fmt.Printf("NumericID: %s\n", numericID.String())

	if err := l.Up(listenAddr, overlay.NewTCPSender()); err != nil {
		return fmt.Errorf("starting listener on %s: %w", listenAddr, err)
	}
	defer l.Close()

	if flagBootstrapAddr != "" {
		l.Join(neighbour.NodeRef{Addr: flagBootstrapAddr})
		fmt.Printf("joining %s\n", flagBootstrapAddr)
	}

	if flagBatchFile != "" {
		f, err := os.Open(flagBatchFile)
		if err != nil {
			return fmt.Errorf("opening batch file: %w", err)
		}
		defer f.Close()
		return cli.New(l, f, os.Stdout).Run()
	}

	return cli.New(l, os.Stdin, os.Stdout).Run()
}
