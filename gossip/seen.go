// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import "github.com/luxfi/gossipgraph/set"

// SeenGraph maps an event name to the set of distinct creators among the
// events on any causal path from some root event to it. It is ephemeral
// scratch built fresh for each root and discarded once consumed — it never
// outlives a single Seeder pass.
type SeenGraph map[string]set.Set[string]

// BuildSeenGraph computes SeenGraph rooted at root: seen[root] is empty,
// and for every self-child/other-child C of a node already in the
// traversal, seen[C] accumulates seen[current] ∪ {C.Creator}. Multiple
// paths to the same descendant union their contributions (monotone:
// revisiting a node only ever grows its set), so this is implemented as an
// explicit work-queue rather than naive recursion, re-enqueuing a
// descendant whenever its set actually grows.
func BuildSeenGraph(g *Graph, root string) SeenGraph {
	seen := SeenGraph{}
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		cur := g.Event(name)
		if cur == nil {
			continue
		}
		curSeen := seen[name]

		visit := func(childName string) {
			child := g.Event(childName)
			if child == nil {
				return
			}
			before := seen[childName]
			grown := before.Union(curSeen)
			grown.Add(child.Creator)
			if grown.Len() > before.Len() {
				seen[childName] = grown
				queue = append(queue, childName)
			}
		}

		for _, childName := range set.Sorted(cur.OtherChildren) {
			visit(childName)
		}
		if cur.SelfChild != "" {
			visit(cur.SelfChild)
		}
	}
	delete(seen, root)
	return seen
}
