package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"sidecar/domain/core"
)

// Shape summarizes how a sample departs from the normal it is compared to.
// Moments are population moments, matching NormalFit.
type Shape struct {
	Median         float64 `json:"median"`
	Q25            float64 `json:"q25"`
	Q75            float64 `json:"q75"`
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
	JarqueBera     float64 `json:"jarque_bera"`
	JarqueBeraP    float64 `json:"jarque_bera_p"`
	Outliers       int     `json:"outliers"` // outside 1.5 IQR of the quartiles
}

// UnknownShape is reported when a sample is too small or flat to describe
func UnknownShape() Shape {
	nan := math.NaN()
	return Shape{
		Median:         nan,
		Q25:            nan,
		Q75:            nan,
		Skewness:       nan,
		ExcessKurtosis: nan,
		JarqueBera:     nan,
		JarqueBeraP:    nan,
	}
}

// DescribeShape computes quartiles, skewness, excess kurtosis and the
// Jarque-Bera normality statistic with its chi-square(2) p-value.
// Quartiles are empirical quantiles, defined for any sample size.
func DescribeShape(sample []float64) (Shape, error) {
	fit, err := FitNormal(sample)
	if err != nil {
		return Shape{}, err
	}

	var shape Shape
	if shape.Median, err = mstats.Median(sample); err != nil {
		return Shape{}, core.NewDegenerateSampleError("median: %v", err)
	}
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	shape.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	shape.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)

	n := float64(len(sample))
	var m3, m4 float64
	for _, x := range sample {
		d := (x - fit.Mean) / fit.StdDev
		d2 := d * d
		m3 += d2 * d
		m4 += d2 * d2
	}
	shape.Skewness = m3 / n
	shape.ExcessKurtosis = m4/n - 3

	shape.JarqueBera = n / 6 * (shape.Skewness*shape.Skewness + shape.ExcessKurtosis*shape.ExcessKurtosis/4)
	shape.JarqueBeraP = 1 - distuv.ChiSquared{K: 2}.CDF(shape.JarqueBera)
	if math.IsNaN(shape.JarqueBeraP) {
		return Shape{}, core.NewNumericError("jarque-bera p-value is NaN for statistic %v", shape.JarqueBera)
	}

	iqr := shape.Q75 - shape.Q25
	lower, upper := shape.Q25-1.5*iqr, shape.Q75+1.5*iqr
	for _, x := range sample {
		if x < lower || x > upper {
			shape.Outliers++
		}
	}
	return shape, nil
}

// IsNormalAt reports whether normality is not rejected at significance alpha
func (s Shape) IsNormalAt(alpha float64) bool {
	return s.JarqueBeraP > alpha
}
