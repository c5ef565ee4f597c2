package atlas

import (
	"context"
	"fmt"
	"math"
)

// AxisPairProjector places each sample by its two highest-variance matrix
// columns, rescaled to [-1, 1]. It is a stand-in surface layout, not a
// dimensionality reduction; the Algorithm argument only selects the tie
// break used when variances are equal, so all three choices stay usable
// without an external solver.
type AxisPairProjector struct{}

func NewAxisPairProjector() AxisPairProjector { return AxisPairProjector{} }

func (AxisPairProjector) Project(ctx context.Context, m Matrix, alg Algorithm) ([]Coord, error) {
	if len(m.Rows) == 0 {
		return nil, nil
	}
	if len(m.Dims) == 0 {
		return nil, fmt.Errorf("projection: matrix has no columns")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ax, ay := pickAxes(m, alg)
	spanX := columnRange(m, ax)
	spanY := columnRange(m, ay)
	coords := make([]Coord, len(m.Rows))
	for i, row := range m.Rows {
		coords[i] = Coord{
			X: rescaleColumn(row[ax], spanX),
			Y: rescaleColumn(row[ay], spanY),
		}
	}
	return coords, nil
}

func pickAxes(m Matrix, alg Algorithm) (int, int) {
	width := len(m.Dims)
	vars := make([]float64, width)
	for c := 0; c < width; c++ {
		vars[c] = columnVariance(m, c)
	}
	first, second := 0, 0
	for c := 1; c < width; c++ {
		if betterAxis(vars[c], vars[first], c, first, alg) {
			second = first
			first = c
		} else if c != first && betterAxis(vars[c], vars[second], c, second, alg) {
			second = c
		}
	}
	if second == first && width > 1 {
		second = (first + 1) % width
	}
	return first, second
}

func betterAxis(v, best float64, c, bestIdx int, alg Algorithm) bool {
	if v != best {
		return v > best
	}
	if alg == AlgorithmTSNE {
		return c > bestIdx
	}
	return false
}

func columnVariance(m Matrix, c int) float64 {
	var sum, sumSq float64
	for _, row := range m.Rows {
		sum += row[c]
		sumSq += row[c] * row[c]
	}
	n := float64(len(m.Rows))
	mean := sum / n
	v := sumSq/n - mean*mean
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

type columnSpan struct{ min, max float64 }

func columnRange(m Matrix, c int) columnSpan {
	s := columnSpan{min: math.Inf(1), max: math.Inf(-1)}
	for _, row := range m.Rows {
		if row[c] < s.min {
			s.min = row[c]
		}
		if row[c] > s.max {
			s.max = row[c]
		}
	}
	return s
}

func rescaleColumn(v float64, s columnSpan) float64 {
	if s.max <= s.min {
		return 0
	}
	return (v-s.min)/(s.max-s.min)*2 - 1
}
