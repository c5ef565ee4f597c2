package atlas

import (
	"math"
	"sort"
)

// dimStats holds corpus statistics for one dimension, computed over the
// non-null, finite values only.
type dimStats struct {
	count  int
	min    float64
	max    float64
	median float64
	q1     float64
	q3     float64
	iqr    float64
	mean   float64
	std    float64
}

func computeDimStats(records []FeatureRecord, dim string) dimStats {
	values := make([]float64, 0, len(records))
	for i := range records {
		if v, ok := presentValue(&records[i], dim); ok {
			values = append(values, v)
		}
	}
	var s dimStats
	s.count = len(values)
	if s.count == 0 {
		return s
	}
	sort.Float64s(values)
	s.min = values[0]
	s.max = values[len(values)-1]
	s.median = quantile(values, 0.5)
	s.q1 = quantile(values, 0.25)
	s.q3 = quantile(values, 0.75)
	s.iqr = s.q3 - s.q1
	var sum float64
	for _, v := range values {
		sum += v
	}
	s.mean = sum / float64(s.count)
	var sq float64
	for _, v := range values {
		d := v - s.mean
		sq += d * d
	}
	s.std = math.Sqrt(sq / float64(s.count))
	return s
}

// quantile interpolates linearly between order statistics. values must be
// sorted and non-empty.
func quantile(values []float64, q float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	pos := q * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return values[lo]
	}
	frac := pos - float64(lo)
	return values[lo]*(1-frac) + values[hi]*frac
}

// presentValue reports a descriptor value only when it exists and is finite.
// NaN and infinities count as missing, same as an absent key.
func presentValue(rec *FeatureRecord, dim string) (float64, bool) {
	v, ok := rec.Descriptors[dim]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizeValue maps a present raw value into [0,1] using the corpus stats
// for its dimension.
func normalizeValue(v float64, s dimStats, method NormalizationMethod) float64 {
	switch method {
	case NormRobust:
		denom := 1.5 * s.iqr
		if denom == 0 {
			return minmaxValue(v, s)
		}
		// Logistic squash keeps ordering monotonic while pulling outliers
		// into the [0.05, 0.95] band. The clamp absorbs float rounding at
		// the band edges.
		t := (v - s.median) / denom
		return clampRange(0.05+0.9*logistic(t), 0.05, 0.95)
	case NormZScore:
		if s.std == 0 {
			return 0.5
		}
		return clamp01(0.5 + (v-s.mean)/(6*s.std))
	default:
		return minmaxValue(v, s)
	}
}

func minmaxValue(v float64, s dimStats) float64 {
	span := s.max - s.min
	if span == 0 {
		return 0.5
	}
	return clamp01((v - s.min) / span)
}

func logistic(t float64) float64 {
	return 1 / (1 + math.Exp(-t))
}

func sqrtFloat(n int) float64 {
	return math.Sqrt(float64(n))
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
