// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

// Seed assigns every event its initial per-voter estimation.
//
// For every initial event I (creator c): build the seen-graph rooted at I;
// for every event X seen by at least SuperMajority distinct creators,
// insert true into X.Estimation[c].
//
// Once every initial has been processed, any event whose estimation set
// has reached SuperMajority entries but is still missing some voters
// cannot possibly hear from the missing creators anymore under a
// supermajority-honest assumption, so those voters are seeded false at
// that event and the false verdict is disseminated to every one-third
// descendant (the "reliable broadcast" threshold).
func Seed(g *Graph) {
	th := NewThresholds(g.N())

	type falseSeed struct {
		at      string
		missing []string
	}
	var falseSeeds []falseSeed

	for _, initial := range g.InitialEvents() {
		initialEvent := g.MustEvent(initial)
		seen := BuildSeenGraph(g, initial)
		for name, seers := range seen {
			if seers.Len() >= th.SuperMajority {
				g.MustEvent(name).Estimation[initialEvent.Creator] = g.MustEvent(name).Estimation[initialEvent.Creator].Insert(true)
			}
		}
	}

	for name, e := range g.Events() {
		if len(e.Estimation) < th.SuperMajority || len(e.Estimation) == g.N() {
			continue
		}
		var missing []string
		for _, initial := range g.InitialEvents() {
			creator := g.MustEvent(initial).Creator
			if _, ok := e.Estimation[creator]; !ok {
				e.Estimation[creator] = SingleBit(false)
				missing = append(missing, creator)
			}
		}
		falseSeeds = append(falseSeeds, falseSeed{at: name, missing: missing})
	}

	// Disseminate each false verdict to its one-third-seen descendants.
	// A later false-seed event can broadcast a weaker (already-present)
	// verdict to the same descendant as an earlier one; BitSet.Insert is
	// idempotent so re-applying it is harmless: a descendant's estimation
	// only ever gains bits (union, never overwrite; see DESIGN.md, Open
	// Question decision 4, for how this differs from the Rust reference).
	for _, fs := range falseSeeds {
		seen := BuildSeenGraph(g, fs.at)
		for name, seers := range seen {
			if seers.Len() < th.OneThird {
				continue
			}
			target := g.MustEvent(name)
			for _, creator := range fs.missing {
				target.Estimation[creator] = target.Estimation[creator].Insert(false)
			}
		}
	}
}
