package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"sidecar/domain/core"
)

// DefaultNumSteps is the grid resolution used when none is configured
const DefaultNumSteps = 100

// Result bundles one evaluation: the grid, the empirical CDF on it and the
// fitted normal CDF scaled to the empirical maximum. It is owned by the
// caller and holds no reference to the sample it came from.
type Result struct {
	Grid          Grid          `json:"grid"`
	Empirical     []float64     `json:"empirical"`
	Theoretical   []float64     `json:"theoretical"`
	Scale         float64       `json:"scale"`
	Fit           NormalFit     `json:"fit"`
	Normalization Normalization `json:"normalization"`
}

type options struct {
	normalization Normalization
}

// Option configures ComputeCDF
type Option func(*options)

// WithNormalization overrides the eCDF divisor (grid by default)
func WithNormalization(n Normalization) Option {
	return func(o *options) {
		o.normalization = n
	}
}

// ComputeCDF builds the grid, evaluates the empirical CDF and fits the
// scaled normal CDF. The first failing step's error is returned unchanged.
func ComputeCDF(sample []float64, numSteps int, opts ...Option) (*Result, error) {
	o := options{normalization: NormalizeByGrid}
	for _, opt := range opts {
		opt(&o)
	}

	grid, err := BuildGrid(sample, numSteps)
	if err != nil {
		return nil, err
	}

	empirical, err := EmpiricalCDF(grid, sample, o.normalization)
	if err != nil {
		return nil, err
	}

	scale := floats.Max(empirical)
	fit, err := FitNormal(sample)
	if err != nil {
		return nil, err
	}
	theoretical, err := fit.CDF(grid, scale)
	if err != nil {
		return nil, err
	}

	return &Result{
		Grid:          grid,
		Empirical:     empirical,
		Theoretical:   theoretical,
		Scale:         scale,
		Fit:           fit,
		Normalization: o.normalization,
	}, nil
}

// Len returns the number of grid points
func (r *Result) Len() int {
	return len(r.Grid)
}

// Fingerprint hashes the exact bits of grid, empirical and theoretical
// columns; equal inputs always produce equal fingerprints.
func (r *Result) Fingerprint() core.Hash {
	return core.HashFloatColumns(r.Grid, r.Empirical, r.Theoretical)
}

// MaxGap is the largest absolute distance between the empirical and the
// fitted curve over the grid.
func (r *Result) MaxGap() float64 {
	var gap float64
	for i := range r.Empirical {
		gap = math.Max(gap, math.Abs(r.Empirical[i]-r.Theoretical[i]))
	}
	return gap
}
