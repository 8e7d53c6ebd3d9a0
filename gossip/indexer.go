// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import "github.com/luxfi/gossipgraph/set"

// Index assigns every event a monotonically increasing topological index
// consistent with both self-parent and other-parent orderings.
//
// Each event already carries its within-chain (generation) index from the
// Loader. Index then walks the other-parent edges in discovery order: if
// an edge's destination index does not strictly exceed its source's, the
// destination is bumped to source.Index+1 and the bump is propagated to
// every descendant (self-child and other-children, transitively) whose
// index no longer strictly exceeds its own (possibly just-raised) parent.
func Index(g *Graph) {
	for _, e := range g.Edges() {
		src := g.Event(e.Src)
		dst := g.Event(e.Dst)
		if src == nil || dst == nil {
			continue
		}
		if dst.Index <= src.Index {
			dst.Index = src.Index + 1
			propagateIndex(g, dst)
		}
	}
}

// propagateIndex raises every descendant of current whose index no longer
// strictly exceeds current's, recursing along both self-child and
// other-children edges. Implemented as an explicit work-queue rather than
// recursion to avoid stack limits on large graphs.
func propagateIndex(g *Graph, current *Event) {
	queue := []*Event{current}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, childName := range set.Sorted(cur.OtherChildren) {
			child := g.Event(childName)
			if child == nil {
				continue
			}
			if child.Index <= cur.Index {
				child.Index = cur.Index + 1
				queue = append(queue, child)
			}
		}

		if sc := g.Event(cur.SelfChild); sc != nil {
			if sc.Index <= cur.Index {
				sc.Index = cur.Index + 1
				queue = append(queue, sc)
			}
		}
	}
}
