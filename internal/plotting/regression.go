package plotting

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/armadaproject/perftools/internal/common/perferrors"
)

// FitKind selects the least-squares model fitted by Fit.
type FitKind int

const (
	FitNone FitKind = iota
	// y = slope * x + intercept
	FitLinear
	// y = slope * log2(x) + intercept
	FitLog2
)

var fitKindNames = map[FitKind]string{
	FitNone:   "none",
	FitLinear: "line",
	FitLog2:   "log",
}

func (k FitKind) String() string {
	if name, ok := fitKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseFitKind accepts "none" (or ""), "line"/"linear" and "log"/"log2".
func ParseFitKind(name string) (FitKind, error) {
	switch name {
	case "", "none":
		return FitNone, nil
	case "line", "linear":
		return FitLinear, nil
	case "log", "log2":
		return FitLog2, nil
	}
	return FitNone, errors.Errorf("unknown fit %q; expected none, line or log", name)
}

// Regression is a fitted degree-1 polynomial.
type Regression struct {
	Kind      FitKind
	Slope     float64
	Intercept float64
}

// Predict returns the fitted value at x, or NaN if nothing was fitted.
func (r Regression) Predict(x float64) float64 {
	switch r.Kind {
	case FitLinear:
		return r.Slope*x + r.Intercept
	case FitLog2:
		return r.Slope*math.Log2(x) + r.Intercept
	default:
		return math.NaN()
	}
}

// Equation returns the fitted polynomial, e.g. "0.5 log2(x) + 3", or "" if nothing was fitted.
func (r Regression) Equation() string {
	slope := formatFloat(r.Slope)
	intercept := formatFloat(r.Intercept)
	switch r.Kind {
	case FitLinear:
		return fmt.Sprintf("%s x + %s", slope, intercept)
	case FitLog2:
		return fmt.Sprintf("%s log2(x) + %s", slope, intercept)
	default:
		return ""
	}
}

// Fit fits y against x (or log2 x) by weighted least squares. weights may be nil.
// At least two distinct x values are required, and a log2 fit needs every x to be positive.
func Fit(x, y, weights []float64, kind FitKind) (Regression, error) {
	if kind == FitNone {
		return Regression{Kind: FitNone}, nil
	}
	if len(x) != len(y) || (weights != nil && len(weights) != len(x)) {
		return Regression{}, errors.Errorf("mismatched lengths: %d x values, %d y values and %d weights", len(x), len(y), len(weights))
	}
	xs := x
	if kind == FitLog2 {
		xs = make([]float64, len(x))
		for i, v := range x {
			if v <= 0 {
				return Regression{}, regressionError(fmt.Sprintf("log2 fit requires positive x values, got %v", v))
			}
			xs[i] = math.Log2(v)
		}
	}
	if len(xs) < 2 || floats.Min(xs) == floats.Max(xs) {
		return Regression{}, regressionError("at least two distinct x values are required")
	}
	if floats.HasNaN(xs) || floats.HasNaN(y) {
		return Regression{}, regressionError("input contains NaN")
	}

	intercept, slope := stat.LinearRegression(xs, y, weights, false)
	return Regression{Kind: kind, Slope: slope, Intercept: intercept}, nil
}

func regressionError(message string) error {
	return errors.WithStack(&perferrors.ErrComputation{Statistic: "regression", Message: message})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
