// Package aggregate provides grouping and summation over record slices.
//
// Groups are built with Fold, which threads an accumulator value through a
// step function per key and remembers first-occurrence order, so results are
// deterministic and independent of map iteration.
package aggregate

import (
	"cmp"
	"slices"
)

// Groups is the result of a fold: accumulators by key plus the order in
// which keys were first seen.
type Groups[K comparable, A any] struct {
	Keys   []K
	Values map[K]A
}

// Len returns the number of groups.
func (g Groups[K, A]) Len() int {
	return len(g.Keys)
}

// Get returns the accumulator of key.
func (g Groups[K, A]) Get(key K) (A, bool) {
	v, ok := g.Values[key]
	return v, ok
}

// Fold groups items by key. zero builds the initial accumulator for a key
// from its first item; step returns the next accumulator for every item,
// including the first.
func Fold[T any, K comparable, A any](items []T, key func(T) K, zero func(T) A, step func(A, T) A) Groups[K, A] {
	g := Groups[K, A]{Values: make(map[K]A)}
	for _, item := range items {
		k := key(item)
		acc, ok := g.Values[k]
		if !ok {
			acc = zero(item)
			g.Keys = append(g.Keys, k)
		}
		g.Values[k] = step(acc, item)
	}
	return g
}

// Collect maps every group, in first-occurrence order, to an output value.
func Collect[K comparable, A any, R any](g Groups[K, A], fn func(K, A) R) []R {
	out := make([]R, 0, len(g.Keys))
	for _, k := range g.Keys {
		out = append(out, fn(k, g.Values[k]))
	}
	return out
}

// Top stably sorts items descending by metric and returns at most n of them.
// A negative n keeps everything.
func Top[T any](items []T, n int, metric func(T) float64) []T {
	sorted := append(make([]T, 0, len(items)), items...)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(metric(b), metric(a))
	})
	return Limit(sorted, n)
}

// Limit returns the first n items. A negative n keeps everything.
func Limit[T any](items []T, n int) []T {
	if n < 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// OrderedSet keeps distinct values in insertion order.
type OrderedSet[T comparable] struct {
	seen  map[T]struct{}
	items []T
}

// Add inserts v if it is not already present.
func (s *OrderedSet[T]) Add(v T) {
	if s.seen == nil {
		s.seen = make(map[T]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// Len returns the number of distinct values.
func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Items returns the values in insertion order; never nil.
func (s *OrderedSet[T]) Items() []T {
	if s.items == nil {
		return []T{}
	}
	return slices.Clone(s.items)
}
