// Package quantile estimates quantiles over multisets of float64 values in which each distinct
// value may be repeated many times. Repeats are held as counts, so a series of millions of
// operations sharing a handful of per-interval latencies costs one entry per interval.
package quantile

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Cunnane is the plotting-position parameter (used for both alpha and beta) of Cunnane's estimator.
const Cunnane = 1.0 / 3.0

// Weighted is an immutable, ascending multiset of values.
type Weighted struct {
	values []float64
	// cumulative[i] is the number of elements with value <= values[i].
	cumulative []int64
}

// NewWeighted returns the multiset in which values[i] occurs counts[i] times.
// Zero counts are dropped. NaN values and negative counts are rejected.
func NewWeighted(values []float64, counts []int64) (*Weighted, error) {
	if len(values) != len(counts) {
		return nil, errors.Errorf("got %d values but %d counts", len(values), len(counts))
	}
	type entry struct {
		value float64
		count int64
	}
	entries := make([]entry, 0, len(values))
	for i, v := range values {
		if counts[i] < 0 {
			return nil, errors.Errorf("negative count %d for value %v", counts[i], v)
		}
		if math.IsNaN(v) {
			return nil, errors.Errorf("value at index %d is NaN", i)
		}
		if counts[i] > 0 {
			entries = append(entries, entry{value: v, count: counts[i]})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	w := &Weighted{
		values:     make([]float64, len(entries)),
		cumulative: make([]int64, len(entries)),
	}
	var total int64
	for i, e := range entries {
		total += e.count
		w.values[i] = e.value
		w.cumulative[i] = total
	}
	return w, nil
}

// FromValues returns the multiset in which every value occurs once.
func FromValues(values []float64) (*Weighted, error) {
	counts := make([]int64, len(values))
	for i := range counts {
		counts[i] = 1
	}
	return NewWeighted(values, counts)
}

// Len returns the number of elements, counting repeats.
func (w *Weighted) Len() int64 {
	if len(w.cumulative) == 0 {
		return 0
	}
	return w.cumulative[len(w.cumulative)-1]
}

// At returns the i-th smallest element (0-based, counting repeats).
func (w *Weighted) At(i int64) float64 {
	j := sort.Search(len(w.cumulative), func(k int) bool { return w.cumulative[k] > i })
	return w.values[j]
}

// Min returns the smallest element, or NaN if the multiset is empty.
func (w *Weighted) Min() float64 {
	if w.Len() == 0 {
		return math.NaN()
	}
	return w.values[0]
}

// Max returns the largest element, or NaN if the multiset is empty.
func (w *Weighted) Max() float64 {
	if w.Len() == 0 {
		return math.NaN()
	}
	return w.values[len(w.values)-1]
}

// PlottingPosition returns the p-th quantile using the plotting-position parameters alpha and beta,
// with the same definition as scipy.stats.mstats.mquantiles(alphap=alpha, betap=beta).
// Returns NaN if the multiset is empty.
func (w *Weighted) PlottingPosition(p, alpha, beta float64) float64 {
	n := w.Len()
	switch n {
	case 0:
		return math.NaN()
	case 1:
		return w.At(0)
	}
	m := alpha + p*(1-alpha-beta)
	aleph := float64(n)*p + m
	k := int64(math.Floor(clip(aleph, 1, float64(n-1))))
	gamma := clip(aleph-float64(k), 0, 1)
	return (1-gamma)*w.At(k-1) + gamma*w.At(k)
}

// Cunnane returns the p-th quantile using Cunnane's plotting positions (alpha = beta = 1/3).
func (w *Weighted) Cunnane(p float64) float64 {
	return w.PlottingPosition(p, Cunnane, Cunnane)
}

// Linear returns the p-th quantile by linear interpolation between the closest ranks,
// i.e. numpy's default "linear" method. Returns NaN if the multiset is empty.
func (w *Weighted) Linear(p float64) float64 {
	n := w.Len()
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * clip(p, 0, 1)
	lo := int64(math.Floor(h))
	if lo >= n-1 {
		return w.At(n - 1)
	}
	xlo := w.At(lo)
	xhi := w.At(lo + 1)
	return xlo + (h-float64(lo))*(xhi-xlo)
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
