// Package logctx provides the logger carried by every long-lived overlay
// object, mirroring the teacher's *Logger field on Device/Peer: a small
// struct of formatting functions rather than an interface, so call sites
// read like fmt.Printf and a nil sink is cheap to check for.
package logctx

import (
	"fmt"
	"log"
	"os"
)

// Level selects which of a Logger's function fields are wired to an actual
// sink versus a no-op.
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelVerbose
)

// Logger groups the two log levels this module ever emits. Both fields are
// always callable; at LevelSilent they are no-ops rather than nil, so call
// sites never need a nil check.
type Logger struct {
	Verbosef func(format string, args ...any)
	Errorf   func(format string, args ...any)
}

// New builds a Logger that writes to os.Stderr via the standard library
// logger, tagging every line with prefix (typically the local node's
// name identifier) and filtering by level.
func New(prefix string, level Level) *Logger {
	std := log.New(os.Stderr, "", log.Ldate|log.Ltime)
	noop := func(string, ...any) {}

	l := &Logger{Verbosef: noop, Errorf: noop}
	if level >= LevelVerbose {
		l.Verbosef = func(format string, args ...any) {
			std.Printf("%s: VRB: %s", prefix, fmt.Sprintf(format, args...))
		}
	}
	if level >= LevelError {
		l.Errorf = func(format string, args ...any) {
			std.Printf("%s: ERR: %s", prefix, fmt.Sprintf(format, args...))
		}
	}
	return l
}
