package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"sidecar/domain/core"
)

// quantileSample places n points at the (i-0.5)/n quantiles of dist
func quantileSample(n int, quantile func(float64) float64) []float64 {
	sample := make([]float64, n)
	for i := range sample {
		sample[i] = quantile((float64(i) + 0.5) / float64(n))
	}
	return sample
}

func TestDescribeShape_NormalQuantiles(t *testing.T) {
	sample := quantileSample(1000, distuv.Normal{Mu: 0.001, Sigma: 0.02}.Quantile)

	shape, err := DescribeShape(sample)
	require.NoError(t, err)

	assert.InDelta(t, 0, shape.Skewness, 1e-9)
	assert.InDelta(t, 0, shape.ExcessKurtosis, 0.1)
	assert.InDelta(t, 0.001, shape.Median, 1e-4)
	assert.True(t, shape.IsNormalAt(0.05), "p=%v", shape.JarqueBeraP)
	assert.Less(t, shape.Q25, shape.Median)
	assert.Greater(t, shape.Q75, shape.Median)
}

func TestDescribeShape_SkewedRejectsNormality(t *testing.T) {
	sample := quantileSample(1000, func(p float64) float64 { return -math.Log(1 - p) })

	shape, err := DescribeShape(sample)
	require.NoError(t, err)

	assert.Greater(t, shape.Skewness, 1.5)
	assert.Greater(t, shape.ExcessKurtosis, 3.0)
	assert.False(t, shape.IsNormalAt(0.05))
	assert.Greater(t, shape.Outliers, 0)
}

func TestDescribeShape_Outliers(t *testing.T) {
	shape, err := DescribeShape([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, shape.Outliers)
}

func TestDescribeShape_SmallSamples(t *testing.T) {
	shape, err := DescribeShape([]float64{-1, 1})
	require.NoError(t, err)
	assert.Equal(t, -1.0, shape.Q25)
	assert.Equal(t, 1.0, shape.Q75)
	assert.InDelta(t, 0, shape.Skewness, 1e-15)
	assert.Equal(t, 0, shape.Outliers)

	// log-changes of 100, 110, 121, 108.9
	sample := []float64{math.Log(1.1), math.Log(1.1), math.Log(0.9)}
	shape, err = DescribeShape(sample)
	require.NoError(t, err)
	assert.Equal(t, math.Log(0.9), shape.Q25)
	assert.Equal(t, math.Log(1.1), shape.Q75)
	assert.Less(t, shape.Skewness, 0.0)
	assert.False(t, math.IsNaN(shape.JarqueBeraP))
}

func TestUnknownShape(t *testing.T) {
	shape := UnknownShape()
	assert.True(t, math.IsNaN(shape.Skewness))
	assert.True(t, math.IsNaN(shape.JarqueBeraP))
	assert.False(t, shape.IsNormalAt(0.05))
	assert.Equal(t, 0, shape.Outliers)
}

func TestDescribeShape_Degenerate(t *testing.T) {
	_, err := DescribeShape([]float64{3, 3, 3})
	assert.True(t, core.IsDegenerateSample(err))

	_, err = DescribeShape(nil)
	assert.True(t, core.IsDegenerateSample(err))
}

func TestResult_MaxGap(t *testing.T) {
	r := &Result{
		Empirical:   []float64{0.1, 0.5, 0.9},
		Theoretical: []float64{0.15, 0.3, 0.88},
	}
	assert.InDelta(t, 0.2, r.MaxGap(), 1e-15)

	res, err := ComputeCDF(randomSample(3, 500), 100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.MaxGap(), 0.0)
	assert.LessOrEqual(t, res.MaxGap(), res.Scale)
}
