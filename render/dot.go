// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package render writes an annotated Graphviz DOT rendering of a marked
// gossip graph: one subgraph per creator, cross-cluster other-parent edges,
// per-event consensus-state labels, and one highlighted "observor" event
// per creator.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luxfi/gossipgraph/gossip"
)

// Write emits g as a Graphviz DOT document to w. It is read-only on g and
// may be called any number of times, including before Seed and the driver
// have run (in which case every event falls back to its short label).
func Write(w io.Writer, g *gossip.Graph) error {
	bw := &bufWriter{w: w}

	nodes := creators(g)

	bw.printf("digraph GossipGraph {\n")
	bw.printf("  splines=false\n")
	bw.printf("  rankdir=BT\n")

	for _, node := range nodes {
		events := eventsByCreator(g, node)
		writeSubgraph(bw, node, g, events)
		writeOtherParents(bw, events)
	}

	writeEvaluates(bw, g)
	writeHeading(bw, nodes)
	bw.printf("}\n")

	return bw.err
}

// creators returns the creator names in the order their initial events were
// discovered, matching the Loader's discovery order.
func creators(g *gossip.Graph) []string {
	var out []string
	for _, initial := range g.InitialEvents() {
		out = append(out, g.MustEvent(initial).Creator)
	}
	return out
}

// eventsByCreator returns every event belonging to node, sorted by index —
// the self-parent chain order.
func eventsByCreator(g *gossip.Graph, node string) []*gossip.Event {
	var out []*gossip.Event
	for _, e := range g.Events() {
		if e.Creator == node {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func writeSubgraph(bw *bufWriter, node string, g *gossip.Graph, events []*gossip.Event) {
	bw.printf("  subgraph cluster_%s {\n", node)
	bw.printf("    label=%q\n", node)
	writeSelfParents(bw, node, g, events)
	bw.printf("\n")
	bw.printf("  }\n")
}

// writeSelfParents draws the in-cluster self-parent chain, widening an edge
// with minlen whenever the indexer left a gap larger than one between a
// parent and its self-child.
func writeSelfParents(bw *bufWriter, node string, g *gossip.Graph, events []*gossip.Event) {
	bw.printf("    %q [style=invis]\n", node)
	for _, e := range events {
		if e.SelfParent == "" {
			bw.printf("    %q -> %q [style=invis]\n", node, e.Name)
			continue
		}
		selfParent := g.MustEvent(e.SelfParent)
		if e.Index <= selfParent.Index+1 {
			bw.printf("    %q -> %q\n", e.SelfParent, e.Name)
		} else {
			gap := e.Index - selfParent.Index
			bw.printf("    %q -> %q [minlen=%d]\n", e.SelfParent, e.Name, gap)
		}
	}
}

func writeOtherParents(bw *bufWriter, events []*gossip.Event) {
	for _, e := range events {
		if e.OtherParent != "" {
			bw.printf("  %q -> %q [constraint=false]\n", e.OtherParent, e.Name)
		}
	}
}

// writeHeading emits the rank=same block of invisible node-heading labels
// plus the invisible ordering edge that keeps creators in a stable column
// order regardless of rankdir.
func writeHeading(bw *bufWriter, nodes []string) {
	bw.printf("  {\n")
	bw.printf("    rank=same\n")
	for _, node := range nodes {
		bw.printf("    %q [style=filled, color=white]\n", node)
	}
	bw.printf("  }\n")

	bw.printf("  ")
	for i, node := range nodes {
		bw.printf("%q", node)
		if i < len(nodes)-1 {
			bw.printf(" -> ")
		}
	}
	bw.printf(" [style=invis]\n")
}

// writeEvaluates emits one label statement per event and then the
// per-creator "observor" highlight.
func writeEvaluates(bw *bufWriter, g *gossip.Graph) {
	n := g.N()

	var names []string
	for name := range g.Events() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := g.MustEvent(name)
		if len(e.Estimation) != n {
			bw.printf(" %s [label=\"%s\"]\n", e.Name, shortLabel(e))
			continue
		}

		if selfParent := g.Event(e.SelfParent); selfParent != nil && sameConsensusState(e, selfParent) {
			bw.printf(" %s [label=\"%s\"]\n", e.Name, shortLabel(e))
			continue
		}

		bw.printf(" %s [shape=rectangle]\n", e.Name)
		bw.printf(" %s [label=%q]\n", e.Name, extendedLabel(e))
	}

	th := gossip.NewThresholds(n)
	for _, initial := range g.InitialEvents() {
		cur := g.MustEvent(initial)
		for {
			child := g.Event(cur.SelfChild)
			if child == nil {
				break
			}
			if len(child.BinaryValue) >= th.SuperMajority {
				bw.printf(" %s [style=filled, fillcolor=beige]\n", child.Name)
				break
			}
			cur = child
		}
	}

	bw.printf("\n")
}

func shortLabel(e *gossip.Event) string {
	return fmt.Sprintf("%c_%d", initial(e.Creator), e.Generation)
}

// sameConsensusState reports whether e carries the same round, step,
// estimation, binary_value and decision as other — used to collapse an
// event's label to its short form whenever the self-parent step produced
// no observable change. Aux vote is deliberately excluded, matching the
// comparison the original renderer performs.
func sameConsensusState(e, other *gossip.Event) bool {
	return equalIntMaps(e.Round, other.Round) &&
		equalIntMaps(e.Step, other.Step) &&
		equalBitMaps(e.Estimation, other.Estimation) &&
		equalBitMaps(e.BinaryValue, other.BinaryValue) &&
		equalVoteMaps(e.Decision, other.Decision)
}

func equalIntMaps(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func equalBitMaps(a, b map[string]gossip.BitSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func equalVoteMaps(a, b map[string]gossip.Vote) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// extendedLabel builds the multi-line Round/Step/Est/Bin/Aux/Dec label for
// a fully-estimated event whose state differs from its self-parent.
func extendedLabel(e *gossip.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%c_%d", initial(e.Creator), e.Generation)

	fmt.Fprint(&b, "\nRound: [")
	for _, v := range sortedVoters(e.Round) {
		fmt.Fprintf(&b, " %c:%d ", initial(v), e.Round[v])
	}
	fmt.Fprint(&b, "]")

	fmt.Fprint(&b, "\nStep: [")
	for _, v := range sortedVoters(e.Step) {
		fmt.Fprintf(&b, " %c:%d ", initial(v), e.Step[v])
	}
	fmt.Fprint(&b, "]")

	fmt.Fprint(&b, "\nEst: [")
	for _, v := range sortedBitVoters(e.Estimation) {
		fmt.Fprintf(&b, "%c:{%s} ", initial(v), bitsetLabel(e.Estimation[v]))
	}
	fmt.Fprint(&b, "]")

	if len(e.BinaryValue) > 0 {
		fmt.Fprint(&b, "\nBin: [")
		for _, v := range sortedBitVoters(e.BinaryValue) {
			fmt.Fprintf(&b, "%c:{%s} ", initial(v), bitsetLabel(e.BinaryValue[v]))
		}
		fmt.Fprint(&b, "]")

		fmt.Fprint(&b, "\nAux: [")
		for _, v := range sortedVoteVoters(e.AuxVote) {
			fmt.Fprintf(&b, "%c:{%s} ", initial(v), voteLabel(e.AuxVote[v]))
		}
		fmt.Fprint(&b, "]")

		if len(e.Decision) > 0 {
			fmt.Fprint(&b, "\nDec: [")
			for _, v := range sortedVoteVoters(e.Decision) {
				fmt.Fprintf(&b, "%c:{%s} ", initial(v), voteLabel(e.Decision[v]))
			}
			fmt.Fprint(&b, "]")
		}
	}

	return b.String()
}

func bitsetLabel(s gossip.BitSet) string {
	bits := s.Bits()
	parts := make([]string, 0, len(bits))
	for _, bit := range bits {
		if bit {
			parts = append(parts, "t")
		} else {
			parts = append(parts, "f")
		}
	}
	return strings.Join(parts, ",")
}

func voteLabel(v gossip.Vote) string {
	if v.Value {
		return "t"
	}
	return "f"
}

func sortedVoters(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedBitVoters(m map[string]gossip.BitSet) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedVoteVoters(m map[string]gossip.Vote) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func initial(creator string) rune {
	for _, r := range creator {
		return r
	}
	return '?'
}

// bufWriter accumulates the first error from a sequence of Fprintf calls so
// call sites don't need to thread an error return through every line.
type bufWriter struct {
	w   io.Writer
	err error
}

func (b *bufWriter) printf(format string, args ...interface{}) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}
