// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package set implements a generic set data structure used throughout the
// gossip-graph annotator to track creators, voters and other-children.
package set

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// Set is a set of unique elements.
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with [elts].
func Of[T comparable](elts ...T) Set[T] {
	s := make(Set[T], len(elts))
	s.Add(elts...)
	return s
}

// Add adds elements to the set.
func (s Set[T]) Add(elts ...T) {
	for _, elt := range elts {
		s[elt] = struct{}{}
	}
}

// Contains returns true if the set contains the element.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Remove removes elements from the set.
func (s Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(s, elt)
	}
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// List returns the elements of the set as a slice.
// The order is non-deterministic; use Sorted for callers that require a
// stable iteration order (the indexer's and seen-graph builder's walks over
// other-children do, see package gossip).
func (s Set[T]) List() []T {
	out := make([]T, 0, len(s))
	for elt := range s {
		out = append(out, elt)
	}
	return out
}

// Equals returns true if the sets contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool {
	return maps.Equal(s, other)
}

// Union returns a new set containing all elements from both sets.
func (s Set[T]) Union(other Set[T]) Set[T] {
	result := make(Set[T], max(s.Len(), other.Len()))
	maps.Copy(result, s)
	maps.Copy(result, other)
	return result
}

// Clone returns a copy of the set.
func (s Set[T]) Clone() Set[T] {
	result := make(Set[T], s.Len())
	maps.Copy(result, s)
	return result
}

// String returns a string representation of the set, in sorted order when T
// is a string — this keeps debug output and test failure messages stable.
func (s Set[T]) String() string {
	parts := make([]string, 0, len(s))
	for elt := range s {
		parts = append(parts, fmt.Sprintf("%v", elt))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// Sorted returns the elements of a string set in ascending lexical order.
// The indexer and the seen-graph builder in package gossip iterate
// other-children through this instead of List, so that two runs over the
// same frozen graph visit descendants in identical order.
func Sorted(s Set[string]) []string {
	out := s.List()
	sort.Strings(out)
	return out
}
