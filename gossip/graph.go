// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import "fmt"

// Graph is the single owner of every Event in a run. All cross-references
// between events are names, resolved through this map — grounded on the
// teacher's dag.DAG (blocks map[BlockID]*Block, tips map[BlockID]struct{}):
// one struct owns every node, lookups go through the map rather than
// shared pointers.
type Graph struct {
	events        map[string]*Event
	initialEvents []string // one per creator, in discovered order
	edgeOrder     []Edge   // other-parent edges, in discovery order (drives the Indexer)
}

// Edge is a discovered other-parent relation: src is the other_parent of
// dst, dst is an other_child of src.
type Edge struct {
	Src, Dst string
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{events: make(map[string]*Event)}
}

// Event returns the named event, or nil if it does not exist. A nil lookup
// is a legal structural state (a missing self/other parent means "no such
// event yet" for tips, or "treat as pre-marked with empty state" for the
// driver).
func (g *Graph) Event(name string) *Event {
	if name == "" {
		return nil
	}
	return g.events[name]
}

// MustEvent returns the named event and panics with an invariantViolation
// if it is absent — used where the caller has already established the
// name refers to a real event (e.g. the current cursor position).
func (g *Graph) MustEvent(name string) *Event {
	e, ok := g.events[name]
	assertf(ok, "gossip: event %q does not exist", name)
	return e
}

func (g *Graph) put(e *Event) {
	g.events[e.Name] = e
}

// InitialEvents returns the per-creator generation-0 event names, ordered by
// the creator ordering derived from the input.
func (g *Graph) InitialEvents() []string {
	return g.initialEvents
}

// Edges returns the other-parent edges in discovery order.
func (g *Graph) Edges() []Edge {
	return g.edgeOrder
}

// N returns the number of voters (= number of initial events = number of
// creators).
func (g *Graph) N() int {
	return len(g.initialEvents)
}

// Events returns every event in the graph, keyed by name. Callers must not
// mutate the returned map's structural fields once the Indexer has run.
func (g *Graph) Events() map[string]*Event {
	return g.events
}

// Thresholds holds the two supermajority predicates derived from N:
// super_majority = floor(2N/3)+1, one_third = floor(N/3)+1.
type Thresholds struct {
	SuperMajority int
	OneThird      int
}

// NewThresholds derives the thresholds for a network of n voters.
func NewThresholds(n int) Thresholds {
	return Thresholds{
		SuperMajority: (2*n)/3 + 1,
		OneThird:      n/3 + 1,
	}
}

func (t Thresholds) String() string {
	return fmt.Sprintf("{super_majority=%d one_third=%d}", t.SuperMajority, t.OneThird)
}
