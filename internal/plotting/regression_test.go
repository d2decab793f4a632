package plotting

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/perftools/internal/common/perferrors"
)

func TestFit(t *testing.T) {
	tests := map[string]struct {
		x, y              []float64
		kind              FitKind
		expectedSlope     float64
		expectedIntercept float64
		expectedEquation  string
	}{
		"linear": {
			x:                 []float64{1, 2, 3, 4},
			y:                 []float64{3, 5, 7, 9},
			kind:              FitLinear,
			expectedSlope:     2,
			expectedIntercept: 1,
			expectedEquation:  "2 x + 1",
		},
		"log2": {
			x:                 []float64{1, 2, 4, 8},
			y:                 []float64{0.5, 3.5, 6.5, 9.5},
			kind:              FitLog2,
			expectedSlope:     3,
			expectedIntercept: 0.5,
			expectedEquation:  "3 log2(x) + 0.5",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			regression, err := Fit(tc.x, tc.y, nil, tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, regression.Kind)
			assert.InDelta(t, tc.expectedSlope, regression.Slope, 1e-9)
			assert.InDelta(t, tc.expectedIntercept, regression.Intercept, 1e-9)
			for i, x := range tc.x {
				assert.InDelta(t, tc.y[i], regression.Predict(x), 1e-9)
			}
			regression.Slope = math.Round(regression.Slope*1e6) / 1e6
			regression.Intercept = math.Round(regression.Intercept*1e6) / 1e6
			assert.Equal(t, tc.expectedEquation, regression.Equation())
		})
	}
}

func TestFit_WeightsActAsRepeats(t *testing.T) {
	weighted, err := Fit([]float64{1, 2, 3}, []float64{1, 4, 4}, []float64{1, 3, 1}, FitLinear)
	require.NoError(t, err)
	repeated, err := Fit([]float64{1, 2, 2, 2, 3}, []float64{1, 4, 4, 4, 4}, nil, FitLinear)
	require.NoError(t, err)
	assert.InDelta(t, repeated.Slope, weighted.Slope, 1e-9)
	assert.InDelta(t, repeated.Intercept, weighted.Intercept, 1e-9)
}

func TestFit_None(t *testing.T) {
	regression, err := Fit(nil, nil, nil, FitNone)
	require.NoError(t, err)
	assert.Equal(t, "", regression.Equation())
	assert.True(t, math.IsNaN(regression.Predict(1)))
}

func TestFit_Errors(t *testing.T) {
	tests := map[string]struct {
		x, y        []float64
		kind        FitKind
		computation bool
	}{
		"single point": {
			x: []float64{1}, y: []float64{1}, kind: FitLinear, computation: true,
		},
		"identical x": {
			x: []float64{2, 2, 2}, y: []float64{1, 2, 3}, kind: FitLinear, computation: true,
		},
		"log of zero": {
			x: []float64{0, 1, 2}, y: []float64{1, 2, 3}, kind: FitLog2, computation: true,
		},
		"nan": {
			x: []float64{1, 2, 3}, y: []float64{1, math.NaN(), 3}, kind: FitLinear, computation: true,
		},
		"mismatched lengths": {
			x: []float64{1, 2, 3}, y: []float64{1, 2}, kind: FitLinear,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Fit(tc.x, tc.y, nil, tc.kind)
			require.Error(t, err)
			var e *perferrors.ErrComputation
			assert.Equal(t, tc.computation, errors.As(err, &e))
		})
	}
}

func TestParseFitKind(t *testing.T) {
	tests := map[string]FitKind{
		"":       FitNone,
		"none":   FitNone,
		"line":   FitLinear,
		"linear": FitLinear,
		"log":    FitLog2,
		"log2":   FitLog2,
	}
	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			kind, err := ParseFitKind(name)
			require.NoError(t, err)
			assert.Equal(t, expected, kind)
		})
	}
	_, err := ParseFitKind("cubic")
	assert.Error(t, err)
}
