// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSimpleChain(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1 -> A2
}

subgraph cluster_Bob {
  label="Bob"
  B0 -> B1
}

A0 -> B1
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 2, g.N())
	require.ElementsMatch(t, []string{"A0", "B0"}, g.InitialEvents())

	a1 := g.MustEvent("A1")
	require.Equal(t, "A0", a1.SelfParent)
	require.Equal(t, "A2", a1.SelfChild)
	require.Equal(t, "Alice", a1.Creator)
	require.Equal(t, 1, a1.Generation)

	b1 := g.MustEvent("B1")
	require.Equal(t, "A0", b1.OtherParent)
	require.True(t, g.MustEvent("A0").OtherChildren.Contains("B1"))

	require.Len(t, g.Edges(), 1)
	require.Equal(t, Edge{Src: "A0", Dst: "B1"}, g.Edges()[0])
}

func TestLoadOneEventPerLine(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0
  A1
  A2
}
`
	g, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, "A1", g.MustEvent("A0").SelfChild)
	require.Equal(t, "A1", g.MustEvent("A2").SelfParent)
}

func TestLoadRejectsDuplicateEventName(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1
}

subgraph cluster_Bob {
  label="Bob"
  A0 -> B1
}
`
	_, err := Load(strings.NewReader(input))
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestLoadRejectsDanglingOtherParent(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
  A0 -> A1
}

A0 -> NoSuchEvent
`
	_, err := Load(strings.NewReader(input))
	require.ErrorIs(t, err, ErrDanglingReference)
}

func TestLoadRejectsEmptyCluster(t *testing.T) {
	input := `
subgraph cluster_Alice {
  label="Alice"
}
`
	_, err := Load(strings.NewReader(input))
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestLoadRejectsNoClusters(t *testing.T) {
	_, err := Load(strings.NewReader("digraph G {}"))
	require.ErrorIs(t, err, ErrMalformedInput)
}
