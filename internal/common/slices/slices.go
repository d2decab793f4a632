package slices

import (
	"golang.org/x/exp/constraints"
)

// Map returns a new slice obtained by applying fn to every element of s.
func Map[S ~[]E, E any, V any](s S, fn func(E) V) []V {
	if s == nil {
		return nil
	}
	rv := make([]V, len(s))
	for i, e := range s {
		rv[i] = fn(e)
	}
	return rv
}

// Filter returns the elements of s for which predicate returns true, preserving order.
func Filter[S ~[]E, E any](s S, predicate func(E) bool) S {
	if s == nil {
		return nil
	}
	rv := make(S, 0, len(s))
	for _, e := range s {
		if predicate(e) {
			rv = append(rv, e)
		}
	}
	return rv
}

// MinMax returns the smallest and largest elements of s.
// The boolean is false if s is empty, in which case the zero value is returned for both.
func MinMax[S ~[]E, E constraints.Ordered](s S) (E, E, bool) {
	var lo, hi E
	if len(s) == 0 {
		return lo, hi, false
	}
	lo, hi = s[0], s[0]
	for _, e := range s[1:] {
		if e < lo {
			lo = e
		}
		if e > hi {
			hi = e
		}
	}
	return lo, hi, true
}

// Unique returns a copy of s with duplicate elements removed, keeping only the first occurrence.
func Unique[S ~[]E, E comparable](s S) S {
	if s == nil {
		return nil
	}
	rv := make(S, 0)
	seen := make(map[E]bool)
	for _, v := range s {
		if !seen[v] {
			rv = append(rv, v)
			seen[v] = true
		}
	}
	return rv
}
