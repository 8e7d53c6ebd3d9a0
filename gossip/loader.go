// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Load parses a Graphviz-style gossip diagram into a Graph. Each node's
// cluster is expected to list its self-parent chain of event names in
// order; a trailing block (outside any cluster) lists other-parent edges
// as "src -> dst" lines.
//
// The format is intentionally narrow — one clustered subgraph per node plus
// a trailing edge block — so Load is a direct line/token scanner rather
// than a full Graphviz grammar; bringing in a general-purpose DOT parser
// dependency isn't worth it for a shape this constrained.
func Load(r io.Reader) (*Graph, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoFailure, err)
	}

	clusters, err := splitClusters(string(contents))
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		return nil, fmt.Errorf("%w: no subgraph clusters found", ErrMalformedInput)
	}

	g := NewGraph()
	for _, c := range clusters {
		if err := g.addChain(c.node, c.events); err != nil {
			return nil, err
		}
	}

	edges, err := trailingEdges(string(contents))
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if err := g.linkOtherParent(e.Src, e.Dst); err != nil {
			return nil, err
		}
	}

	return g, nil
}

type cluster struct {
	node   string
	events []string
}

// splitClusters locates every `subgraph cluster_<Node> { ... }` block and
// extracts the node name and the ordered list of event names inside it
// (self-parent chains are written either as "a -> b -> c" or one name per
// line).
func splitClusters(contents string) ([]cluster, error) {
	var clusters []cluster
	for _, part := range strings.Split(contents, "subgraph") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "cluster_") {
			continue
		}
		open := strings.Index(part, "{")
		close := strings.Index(part, "}")
		if open < 0 || close < 0 || close < open {
			return nil, fmt.Errorf("%w: unterminated subgraph block", ErrMalformedInput)
		}
		header := part[:open]
		body := part[open+1 : close]

		name := strings.TrimPrefix(header, "cluster_")
		if i := strings.IndexAny(name, " \t\n"); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: cluster with no node name", ErrMalformedInput)
		}

		events := clusterEvents(body)
		if len(events) == 0 {
			return nil, fmt.Errorf("%w: cluster %q has no events", ErrMalformedInput, name)
		}
		clusters = append(clusters, cluster{node: name, events: events})
	}
	return clusters, nil
}

// clusterEvents pulls the ordered event-name chain out of a cluster body,
// tolerating both "a -> b -> c" chains and newline-separated event tokens,
// and skipping bookkeeping lines such as `label=...` or `[style=...]`.
func clusterEvents(body string) []string {
	var events []string
	seen := map[string]bool{}
	add := func(tok string) {
		tok = strings.Trim(tok, "\"; \t\r")
		if tok == "" || strings.Contains(tok, "=") || strings.HasPrefix(tok, "[") {
			return
		}
		if seen[tok] {
			return
		}
		seen[tok] = true
		events = append(events, tok)
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "label") {
			continue
		}
		for _, tok := range strings.Split(line, "->") {
			add(tok)
		}
	}
	return events
}

// trailingEdges returns the "src -> dst" lines that follow the last blank
// line in the document — the cross-cluster other-parent block — in
// discovery (textual) order, since the Indexer's tie-breaking depends on
// that order. When the last block is itself a cluster, the document has no
// edge block and no edges are returned.
func trailingEdges(contents string) ([]Edge, error) {
	blocks := strings.Split(contents, "\n\n")
	tail := blocks[len(blocks)-1]
	if strings.Contains(tail, "subgraph") {
		return nil, nil
	}

	var edges []Edge
	scanner := bufio.NewScanner(strings.NewReader(tail))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.Contains(line, "->") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: malformed edge line %q", ErrMalformedInput, line)
		}
		src := strings.Trim(fields[0], "\"")
		dst := strings.Trim(fields[2], "\"")
		if src == "" || dst == "" {
			return nil, fmt.Errorf("%w: malformed edge line %q", ErrMalformedInput, line)
		}
		edges = append(edges, Edge{Src: src, Dst: dst})
	}
	return edges, scanner.Err()
}

// addChain installs one creator's self-parent chain: events[0] becomes the
// generation-0 initial event, and each subsequent event is linked to its
// predecessor via SelfParent/SelfChild.
func (g *Graph) addChain(node string, events []string) error {
	for i, name := range events {
		if _, exists := g.events[name]; exists {
			return fmt.Errorf("%w: event %q appears in more than one cluster", ErrMalformedInput, name)
		}
		e := newEvent(name, node)
		e.Generation = i
		e.Index = i
		if i > 0 {
			e.SelfParent = events[i-1]
		}
		g.put(e)
	}
	for i := 1; i < len(events); i++ {
		g.MustEvent(events[i-1]).SelfChild = events[i]
	}
	g.initialEvents = append(g.initialEvents, events[0])
	return nil
}

// linkOtherParent records src as the other-parent of dst and dst as an
// other-child of src, failing with ErrDanglingReference if either name is
// unknown.
func (g *Graph) linkOtherParent(src, dst string) error {
	srcEvent, ok := g.events[src]
	if !ok {
		return fmt.Errorf("%w: edge source %q", ErrDanglingReference, src)
	}
	dstEvent, ok := g.events[dst]
	if !ok {
		return fmt.Errorf("%w: edge destination %q", ErrDanglingReference, dst)
	}
	srcEvent.OtherChildren.Add(dst)
	dstEvent.OtherParent = src
	g.edgeOrder = append(g.edgeOrder, Edge{Src: src, Dst: dst})
	return nil
}
