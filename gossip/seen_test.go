// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/gossipgraph/set"
)

func TestBuildSeenGraphExcludesRoot(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1
}

A0 -> B1
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	seen := BuildSeenGraph(g, "A0")
	_, ok := seen["A0"]
	require.False(t, ok)

	require.Equal(t, set.Of("Alice"), seen["A1"])
	require.Equal(t, set.Of("Bob"), seen["B1"])
}

func TestBuildSeenGraphUnionsMultiplePaths(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1
}

A0 -> B0
B0 -> A2
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	seen := BuildSeenGraph(g, "A0")

	// A2 is reached both via Alice's own chain (A0 -> A1 -> A2) and via the
	// detour through Bob (A0 -> B0 -> A2); its seen-set must union both
	// contributing creators rather than keep only the first path found.
	require.Equal(t, set.Of("Alice", "Bob"), seen["A2"])
	require.Equal(t, set.Of("Bob"), seen["B0"])
	require.Equal(t, set.Of("Bob"), seen["B1"])
	require.Equal(t, set.Of("Alice"), seen["A1"])
}
