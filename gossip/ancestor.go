// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import "github.com/luxfi/gossipgraph/set"

// qualifies reports whether an ancestor's (round, step) for voter node is
// at least as advanced as (round, step) — the gate every ancestor walk
// applies before consulting that ancestor's state, and before recursing
// past it.
func qualifies(ancestor *Event, node string, round, step int) bool {
	return ancestor.Round[node] >= round && ancestor.Step[node] >= step
}

// ancestorEstimationSeen walks every self-parent/other-parent ancestor of
// target whose (round, step) for node qualifies against (round, step),
// collecting, for each estimation bit actually held by some qualifying
// ancestor, the set of distinct ancestor creators that hold it. The
// returned map is sparse — a bit key exists only once some ancestor has
// actually cast it, exactly like the Rust reference's
// BTreeMap<bool, BTreeSet<String>> (main.rs's estimation_seen_list), never
// pre-populated with both keys — so callers iterating the result only ever
// see entries that correspond to a real vote. Both the estimation merge
// and the binary-value aggregation step read the same ancestor field
// under the same qualification gate, so one walk serves both (see
// DESIGN.md's gossip/ancestor.go notes). Implemented as an explicit
// work-queue since the walk spans the whole qualifying ancestor region,
// not just immediate parents.
func ancestorEstimationSeen(g *Graph, target *Event, node string, round, step int) map[bool]set.Set[string] {
	out := map[bool]set.Set[string]{}
	visitQualifyingAncestors(g, target, node, round, step, func(a *Event) bool {
		for _, b := range a.Estimation[node].Bits() {
			addSeen(out, b, a.Creator)
		}
		return true
	})
	return out
}

// addSeen records creator as having cast bit b in the sparse seen-map m,
// allocating the per-bit set on first use. m only ever gains a key when a
// real vote for that bit is recorded, matching the Rust reference's
// BTreeMap, which is never pre-populated with both boolean keys.
func addSeen(m map[bool]set.Set[string], b bool, creator string) {
	if m[b] == nil {
		m[b] = set.Of[string]()
	}
	m[b].Add(creator)
}

// ancestorAuxVoteSeen walks qualifying ancestors collecting, for each aux
// vote bit actually cast by some qualifying ancestor, the set of distinct
// ancestor creators that cast it. Sparse for the same reason as
// ancestorEstimationSeen — matching main.rs's aux_votes_seen_list, which
// is only ever inserted into inside an "if let Some(aux_vote) = ..." guard.
func ancestorAuxVoteSeen(g *Graph, target *Event, node string, round, step int) map[bool]set.Set[string] {
	out := map[bool]set.Set[string]{}
	visitQualifyingAncestors(g, target, node, round, step, func(a *Event) bool {
		if v := a.AuxVote[node]; v.Set {
			addSeen(out, v.Value, a.Creator)
		}
		return true
	})
	return out
}

// visitQualifyingAncestors performs the dual self-parent/other-parent walk:
// starting from target, at each node it inspects the self-parent and
// other-parent; if an ancestor qualifies (its (round, step) for node is
// >= (round, step)), visit is called on it and the walk continues past it
// to its own parents; an ancestor that does not qualify is not visited and
// the walk does not continue past it.
func visitQualifyingAncestors(g *Graph, target *Event, node string, round, step int, visit func(*Event) bool) {
	type frontier struct{ name string }
	queue := []frontier{{target.Name}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		event := g.Event(cur.name)
		if event == nil {
			continue
		}

		if sp := g.Event(event.SelfParent); sp != nil && qualifies(sp, node, round, step) {
			if visit(sp) {
				queue = append(queue, frontier{sp.Name})
			}
		}
		if op := g.Event(event.OtherParent); op != nil && qualifies(op, node, round, step) {
			if visit(op) {
				queue = append(queue, frontier{op.Name})
			}
		}
	}
}
