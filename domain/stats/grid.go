package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"sidecar/domain/core"
)

// Grid is the ordered set of thresholds at which both CDFs are evaluated.
// It is strictly increasing; the first point is min(sample) and the last
// point is strictly below max(sample).
type Grid []float64

// Step returns the spacing between consecutive points
func (g Grid) Step() float64 {
	if len(g) < 2 {
		return 0
	}
	return g[1] - g[0]
}

// BuildGrid spans [min(sample), max(sample)) with roughly numSteps evenly
// spaced points. Points are computed as start+i*step rather than by
// accumulation so rounding error does not drift along the grid. The point
// count follows the usual numeric range rule ceil((stop-start)/step), so the
// length may be numSteps or numSteps±1 depending on rounding at the boundary.
func BuildGrid(sample []float64, numSteps int) (Grid, error) {
	if numSteps < 1 {
		return nil, core.NewDegenerateSampleError("num steps must be positive, got %d", numSteps)
	}
	if len(sample) == 0 {
		return nil, core.NewDegenerateSampleError("empty sample")
	}
	if err := checkFinite(sample); err != nil {
		return nil, err
	}

	start, stop := floats.Min(sample), floats.Max(sample)
	if start == stop {
		return nil, core.NewDegenerateSampleError("sample has a single distinct value %v", start)
	}

	span := stop - start
	if math.IsInf(span, 0) {
		return nil, core.NewNumericError("sample range [%v, %v] overflows", start, stop)
	}
	step := span / float64(numSteps)
	if step == 0 {
		return nil, core.NewNumericError("step underflows for range [%v, %v] and %d steps", start, stop, numSteps)
	}

	n := int(math.Ceil(span / step))
	grid := make(Grid, 0, n)
	for i := 0; i < n; i++ {
		v := start + float64(i)*step
		if v >= stop {
			break
		}
		if i > 0 && v <= grid[i-1] {
			return nil, core.NewNumericError("step %v is below float resolution at %v", step, v)
		}
		grid = append(grid, v)
	}
	return grid, nil
}

func checkFinite(sample []float64) error {
	for i, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewNumericError("sample[%d] is %v", i, v)
		}
	}
	return nil
}
