// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexPropagatesAlongOtherChildren(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1 -> B2
}

A0 -> B0
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	Index(g)

	require.Equal(t, 0, g.MustEvent("A0").Index)
	require.Equal(t, 1, g.MustEvent("A1").Index)
	require.Equal(t, 2, g.MustEvent("A2").Index)

	// B0 received from A0 at the same index, so it must be bumped strictly
	// past A0, and the bump must propagate down Bob's whole chain.
	require.Equal(t, 1, g.MustEvent("B0").Index)
	require.Equal(t, 2, g.MustEvent("B1").Index)
	require.Equal(t, 3, g.MustEvent("B2").Index)
}

func TestIndexLeavesAlreadyAheadChainsUntouched(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1 -> B2 -> B3
}

A0 -> B2
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	Index(g)

	// B2 (index 2) already strictly exceeds A0 (index 0): no bump needed.
	require.Equal(t, 0, g.MustEvent("B0").Index)
	require.Equal(t, 1, g.MustEvent("B1").Index)
	require.Equal(t, 2, g.MustEvent("B2").Index)
	require.Equal(t, 3, g.MustEvent("B3").Index)
}

func TestIndexSatisfiesBothParentInvariant(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1 -> B2
}

subgraph cluster_Carol {
  label="Carol"
  C0 -> C1 -> C2
}

A1 -> B1
B0 -> C1
C1 -> A2
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	Index(g)

	for _, e := range g.Events() {
		if e.SelfParent == "" || e.OtherParent == "" {
			continue
		}
		sp := g.MustEvent(e.SelfParent)
		op := g.MustEvent(e.OtherParent)
		max := sp.Index
		if op.Index > max {
			max = op.Index
		}
		require.Greaterf(t, e.Index, max, "event %s must strictly exceed both parents", e.Name)
	}
}
