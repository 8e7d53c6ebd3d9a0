// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gossip reconstructs the causal event DAG of a PARSEC-style gossip
// run from a textual diagram and executes binary-value consensus against
// each event, exactly as described for the annotator's core (parse, index,
// seed, drive).
package gossip

import (
	"github.com/luxfi/gossipgraph/set"
)

// Event is the single central entity of the gossip graph: one action by one
// node, either an initial (generation-0, bootstrap) event or the reception
// of a remote event plus local successor.
//
// Structural fields (Creator, Index, Generation, SelfParent, SelfChild,
// OtherParent, OtherChildren) are fixed once the Loader and Indexer have
// run. Consensus-state fields (Round, Step, Estimation, BinaryValue,
// AuxVote, Decision, Marked) are filled in monotonically by the Driver.
// All parent/child references are event names, resolved through the owning
// Graph's map — this sidesteps the mutual-reference problem between an
// event and its children without any shared ownership or pointer cycles.
type Event struct {
	Name       string
	Creator    string
	Index      int
	Generation int

	SelfParent    string
	SelfChild     string
	OtherParent   string
	OtherChildren set.Set[string]

	// Per-voter consensus state. Keys are voter (creator) names. BitSet is
	// a two-valued set ({true}, {false}, {true,false} or empty) since
	// estimation and binary_value are each sets of bits, not single values.
	Round       map[string]int
	Step        map[string]int
	Estimation  map[string]BitSet
	BinaryValue map[string]BitSet
	AuxVote     map[string]Vote
	Decision    map[string]Vote

	Marked bool
}

// Vote is an optional boolean: aux_vote and decision are each
// present-or-absent, which a bare bool cannot express.
type Vote struct {
	Set   bool
	Value bool
}

// Decided returns a set Vote with the given value.
func Decided(v bool) Vote { return Vote{Set: true, Value: v} }

func newEvent(name, creator string) *Event {
	return &Event{
		Name:          name,
		Creator:       creator,
		OtherChildren: set.Of[string](),
		Round:         make(map[string]int),
		Step:          make(map[string]int),
		Estimation:    make(map[string]BitSet),
		BinaryValue:   make(map[string]BitSet),
		AuxVote:       make(map[string]Vote),
		Decision:      make(map[string]Vote),
	}
}

// BitSet is the {true,false}-valued set used for estimation and
// binary_value. Represented as two booleans rather than set.Set[bool] so
// that zero-value BitSet{} is already the empty set and no map allocation
// is needed per voter per event — there are only four possible states.
type BitSet struct {
	HasTrue  bool
	HasFalse bool
}

// SingleBit returns a BitSet containing exactly b.
func SingleBit(b bool) BitSet {
	if b {
		return BitSet{HasTrue: true}
	}
	return BitSet{HasFalse: true}
}

// Insert adds b to the set, returning the updated set.
func (s BitSet) Insert(b bool) BitSet {
	if b {
		s.HasTrue = true
	} else {
		s.HasFalse = true
	}
	return s
}

// Len returns the number of bits present (0, 1 or 2).
func (s BitSet) Len() int {
	n := 0
	if s.HasTrue {
		n++
	}
	if s.HasFalse {
		n++
	}
	return n
}

// Empty reports whether no bit is present.
func (s BitSet) Empty() bool { return !s.HasTrue && !s.HasFalse }

// Only returns the single bit present and true, or (false, false) if the set
// does not contain exactly one bit.
func (s BitSet) Only() (bool, bool) {
	switch {
	case s.HasTrue && !s.HasFalse:
		return true, true
	case s.HasFalse && !s.HasTrue:
		return false, true
	default:
		return false, false
	}
}

// Bits returns the bits present in the canonical false-then-true order, the
// ordering the renderer and the tests rely on for deterministic output.
func (s BitSet) Bits() []bool {
	var out []bool
	if s.HasFalse {
		out = append(out, false)
	}
	if s.HasTrue {
		out = append(out, true)
	}
	return out
}
