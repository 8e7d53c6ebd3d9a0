// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDriverReachesDecisionOnSingleCreatorGraph exercises the full
// estimation-merge / binary-value / aux-vote / step-machine pipeline on the
// smallest graph that can ever reach a decision: one creator, N=1, where
// the initial event's own self-child is immediately seen by the whole
// (trivial) network and so starts with a complete, all-true estimation.
func TestDriverReachesDecisionOnSingleCreatorGraph(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1
}
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, g.N())

	Index(g)
	Seed(g)
	require.Equal(t, SingleBit(true), g.MustEvent("A1").Estimation["Alice"])

	d := NewDriver(nil)
	require.NoError(t, d.Run(g))

	require.True(t, g.MustEvent("A0").Marked)
	a1 := g.MustEvent("A1")
	require.True(t, a1.Marked)
	require.Equal(t, Decided(true), a1.Decision["Alice"])
	require.Equal(t, 1, a1.Step["Alice"])
}

func TestDriverMarksEveryEvent(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1
}

subgraph cluster_Carol {
  label="Carol"
  C0 -> C1
}

subgraph cluster_Dave {
  label="Dave"
  D0 -> D1
}

A0 -> B1
B1 -> C1
C1 -> D1
D1 -> A2
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	Index(g)
	Seed(g)

	d := NewDriver(nil)
	require.NoError(t, d.Run(g))

	for name, e := range g.Events() {
		require.Truef(t, e.Marked, "event %s should be marked after Run", name)
	}
	require.Equal(t, len(g.Events()), d.MarkedCount())
}

// TestStepZeroDecisionDoesNotClobberPriorFalseEstimation is spec seed
// scenario 4 ("Decision at step 0"), built with N=4 so the super-majority
// (3) and one-third (2) thresholds differ: voter "A"'s estimation merges to
// {false} at step 1 of deduceVoter (two qualifying ancestors — C0 and D0 —
// hold only false in their estimation, short of the two votes needed to
// also admit true), and its aux-vote tally then reaches a *unanimous* true
// super-majority (A0, B0 and C0 via inherited/ancestor aux votes, with
// nothing ever casting false). Because nobody ever cast false, the aux-seen
// map for this voter has no false entry at all — the sparse case that
// exposed the regression where a dense {false,true} enumeration forced
// own.estimation back to a phantom-false-branch placeholder immediately
// before the decision-bearing true branch's "continue" could apply. The
// correct (and expected) outcome is that target.Estimation["A"] keeps the
// {false} step-1 merge verbatim, while Decision["A"] still records true.
func TestStepZeroDecisionDoesNotClobberPriorFalseEstimation(t *testing.T) {
	g := NewGraph()

	a0 := newEvent("A0", "A")
	a0.Generation = 0
	g.put(a0)

	b0 := newEvent("B0", "B")
	b0.Generation = 0
	g.put(b0)

	c0 := newEvent("C0", "C")
	c0.Generation = 0
	g.put(c0)

	d0 := newEvent("D0", "D")
	d0.Generation = 0
	g.put(d0)

	a1 := newEvent("A1", "A")
	a1.Generation = 1
	a1.SelfParent = "A0"
	g.put(a1)
	a0.SelfChild = "A1"

	// Chain B0 -> C0 -> D0 as other-parents so all three are qualifying
	// ancestors of A1 through its own other-parent D0.
	c0.OtherParent = "B0"
	b0.OtherChildren.Add("C0")
	d0.OtherParent = "C0"
	c0.OtherChildren.Add("D0")
	a1.OtherParent = "D0"
	d0.OtherChildren.Add("A1")

	g.initialEvents = []string{"A0", "B0", "C0", "D0"}

	// Self-parent A0 already carries an inherited aux vote of true for
	// voter "A" — Step 4 inherits it directly, independent of this event's
	// own binary-value computation.
	a0.AuxVote["A"] = Decided(true)

	// B0 and C0 each cast an aux vote of true for "A", giving a
	// super-majority (A0, B0, C0 = 3) with no false entry at all.
	b0.AuxVote["A"] = Decided(true)
	c0.AuxVote["A"] = Decided(true)

	// C0 and D0 each hold only false in their estimation for "A" — two
	// qualifying ancestors, meeting the one-third (2) threshold and merging
	// false into own.estimation at Step 1, without also meeting it for true.
	c0.Estimation["A"] = SingleBit(false)
	d0.Estimation["A"] = SingleBit(false)

	// A1's own pre-existing (seeded) estimation for every voter, as Seed
	// would have left it before the driver ever reaches A1.
	a1.Estimation = map[string]BitSet{
		"A": SingleBit(true),
		"B": SingleBit(true),
		"C": SingleBit(true),
		"D": SingleBit(true),
	}

	th := NewThresholds(4)
	require.Equal(t, 3, th.SuperMajority)
	require.Equal(t, 2, th.OneThird)

	d := NewDriver(nil)
	d.deduceVoter(g, a1, a0, "A", th)

	require.Equal(t, SingleBit(false), a1.Estimation["A"], "step 1's {false} merge must survive a step-0 decision reached through a false-free aux-vote tally")
	require.Equal(t, Decided(true), a1.Decision["A"])
	require.Equal(t, 1, a1.Step["A"])
}

// TestStepTwoSplitVoteWrapsRoundAndClearsTransientState is spec seed
// scenario 5 ("Advance past step 2"): voter "A" reaches step 2 with a
// genuine binary value ({true}, from three qualifying ancestors B, C and D
// all estimating true) and a derived aux vote ({true}), but the aux-vote
// tally at step 2 ends up split across two qualifying ancestors (C and D
// cast false) plus A1's own true vote — three distinct voters in total
// (clearing the super-majority gate to enter the step machine at all) but
// neither bit individually reaching the three-voter super-majority. Spec.md
// §4.5 Step 6 step-2 case then falls through to the placeholder coin-flip
// branch for both bits, and Step 7 must clear binary_value/aux_vote because
// step changed (2 -> 0) while round advances by one.
func TestStepTwoSplitVoteWrapsRoundAndClearsTransientState(t *testing.T) {
	g := NewGraph()

	a0 := newEvent("A0", "A")
	a0.Round["A"] = 2
	a0.Step["A"] = 2
	g.put(a0)

	a1 := newEvent("A1", "A")
	a1.Generation = 1
	a1.SelfParent = "A0"
	a1.Estimation["A"] = SingleBit(true)
	g.put(a1)
	a0.SelfChild = "A1"

	eb := newEvent("B1", "B") // estimates true only
	eb.Round["B"], eb.Step["B"] = 0, 0
	eb.Round["A"], eb.Step["A"] = 2, 2
	eb.Estimation["A"] = SingleBit(true)
	g.put(eb)

	ec := newEvent("C1", "C") // estimates true, aux-votes false
	ec.Round["A"], ec.Step["A"] = 2, 2
	ec.Estimation["A"] = SingleBit(true)
	ec.AuxVote["A"] = Decided(false)
	ec.OtherParent = "B1"
	eb.OtherChildren.Add("C1")
	g.put(ec)

	ed := newEvent("D1", "D") // estimates true, aux-votes false
	ed.Round["A"], ed.Step["A"] = 2, 2
	ed.Estimation["A"] = SingleBit(true)
	ed.AuxVote["A"] = Decided(false)
	ed.OtherParent = "C1"
	ec.OtherChildren.Add("D1")
	g.put(ed)

	a1.OtherParent = "D1"
	ed.OtherChildren.Add("A1")

	g.initialEvents = []string{"A0", "B1", "C1", "D1"}

	th := NewThresholds(4)
	require.Equal(t, 3, th.SuperMajority)

	d := NewDriver(nil)
	d.deduceVoter(g, a1, a0, "A", th)

	require.Equal(t, 0, a1.Step["A"])
	require.Equal(t, 3, a1.Round["A"])
	require.Equal(t, SingleBit(true), a1.Estimation["A"])
	require.Equal(t, BitSet{}, a1.BinaryValue["A"], "binary_value must be cleared on the round-advancing event")
	require.Equal(t, Vote{}, a1.AuxVote["A"], "aux_vote must be cleared on the round-advancing event")
	_, decided := a1.Decision["A"]
	require.False(t, decided, "a split step-2 vote must not record a decision")
}

// TestDecisionIsImmutableDownSelfChildChain checks the property that once a
// voter's decision is set at an event, every self-child descendant inherits
// the identical value — never a different one.
func TestDecisionIsImmutableDownSelfChildChain(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2 -> A3
}
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	Index(g)
	Seed(g)

	d := NewDriver(nil)
	require.NoError(t, d.Run(g))

	var lastDecision map[string]Vote
	name := g.InitialEvents()[0]
	for name != "" {
		e := g.MustEvent(name)
		for voter, v := range e.Decision {
			if lastDecision != nil {
				if prior, ok := lastDecision[voter]; ok {
					require.Equal(t, prior.Value, v.Value, "decision for %s changed along self-parent chain at %s", voter, name)
				}
			}
		}
		lastDecision = e.Decision
		name = e.SelfChild
	}
}
