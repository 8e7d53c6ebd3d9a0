// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the loader and the CLI. The driver itself does
// not return errors during a normal run — missing parents are legal
// structural states (see Driver.Run) — but it panics with an
// invariantViolation if one of its own monotonicity guarantees is broken,
// which Driver.Run recovers and turns into ErrInvariantViolation.
var (
	// ErrIoFailure is returned when the input file cannot be read or the
	// output file cannot be written.
	ErrIoFailure = errors.New("gossip: io failure")

	// ErrMalformedInput is returned when the parser finds no cluster, a
	// cluster with no name or no events, an unterminated cluster block, a
	// malformed edge line, or an event name used in more than one cluster.
	// A document without a trailing edge block is not malformed.
	ErrMalformedInput = errors.New("gossip: malformed input")

	// ErrDanglingReference is returned when an other-parent edge names an
	// event that does not exist in any cluster.
	ErrDanglingReference = errors.New("gossip: dangling reference")

	// ErrInvariantViolation is returned when a driver-internal invariant
	// (marked monotonicity, decision immutability) does not hold. Seeing
	// this indicates a bug in the driver, not a malformed input.
	ErrInvariantViolation = errors.New("gossip: invariant violation")
)

// invariantViolation is panicked by assertion helpers inside the driver and
// recovered at the top of Driver.Run: an internal invariant failing here
// indicates a driver bug, not bad input, so it fails loudly rather than
// being silently tolerated.
type invariantViolation struct {
	msg string
}

func (e invariantViolation) Error() string { return e.msg }

// Unwrap lets callers match a returned invariantViolation against
// ErrInvariantViolation via errors.Is, even though Driver.Run returns the
// concrete invariantViolation value (not a wrapped ErrInvariantViolation)
// so its message is preserved verbatim.
func (e invariantViolation) Unwrap() error { return ErrInvariantViolation }

func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(invariantViolation{msg: fmt.Sprintf(format, args...)})
	}
}
