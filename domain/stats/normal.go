package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"sidecar/domain/core"
)

// NormalFit holds the parameters of a normal distribution fitted to a sample.
// StdDev is the population standard deviation (divide by n).
type NormalFit struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// FitNormal estimates mean and population standard deviation
func FitNormal(sample []float64) (NormalFit, error) {
	if len(sample) == 0 {
		return NormalFit{}, core.NewDegenerateSampleError("empty sample")
	}
	if err := checkFinite(sample); err != nil {
		return NormalFit{}, err
	}
	// identical values can still leave a rounding-sized deviation around the mean
	if floats.Min(sample) == floats.Max(sample) {
		return NormalFit{}, core.NewDegenerateSampleError("zero variance: all %d values equal %v", len(sample), sample[0])
	}

	mean, err := mstats.Mean(sample)
	if err != nil {
		return NormalFit{}, core.NewDegenerateSampleError("mean: %v", err)
	}
	stdDev, err := mstats.StandardDeviationPopulation(sample)
	if err != nil {
		return NormalFit{}, core.NewDegenerateSampleError("standard deviation: %v", err)
	}
	if stdDev == 0 {
		return NormalFit{}, core.NewDegenerateSampleError("zero variance")
	}
	if math.IsNaN(stdDev) || math.IsInf(stdDev, 0) || math.IsInf(mean, 0) {
		return NormalFit{}, core.NewNumericError("fit overflowed: mean %v, std %v", mean, stdDev)
	}
	return NormalFit{Mean: mean, StdDev: stdDev}, nil
}

// Distribution returns the fitted gonum distribution
func (f NormalFit) Distribution() distuv.Normal {
	return distuv.Normal{Mu: f.Mean, Sigma: f.StdDev}
}

// CDF evaluates scale * Φ((v-μ)/σ) at every grid point
func (f NormalFit) CDF(grid Grid, scale float64) ([]float64, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return nil, core.NewNumericError("invalid scale %v", scale)
	}
	dist := f.Distribution()
	out := make([]float64, len(grid))
	for i, v := range grid {
		out[i] = scale * dist.CDF(v)
	}
	return out, nil
}

// NormalCDF fits a normal distribution to sample and evaluates it on the
// grid, scaled so its ceiling is scale. Callers normally pass the maximum of
// the empirical CDF to line the two curves up.
func NormalCDF(grid Grid, sample []float64, scale float64) ([]float64, error) {
	fit, err := FitNormal(sample)
	if err != nil {
		return nil, err
	}
	return fit.CDF(grid, scale)
}
