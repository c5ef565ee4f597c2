package atlas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, descriptors map[string]float64, tags ...string) FeatureRecord {
	return FeatureRecord{ID: id, Name: id, Descriptors: descriptors, Tags: tags}
}

func TestBuildMatrixAllZeroWeights(t *testing.T) {
	records := []FeatureRecord{
		rec("a", map[string]float64{"rms_energy": 0.2}),
		rec("b", map[string]float64{"rms_energy": 0.8}),
	}
	m := BuildMatrix(records, FeatureWeights{}, NormMinMax, TagFeatureOptions{})
	assert.Empty(t, m.Rows)
	assert.Empty(t, m.ValidIndices)
	assert.Empty(t, m.Dims)
}

func TestBuildMatrixMinMax(t *testing.T) {
	const w = 2.0
	weights := FeatureWeights{"duration": 1, "rms_energy": w}
	records := []FeatureRecord{
		rec("min", map[string]float64{"duration": 1, "rms_energy": 0.1}),
		rec("mid", map[string]float64{"duration": 1, "rms_energy": 0.5}),
		rec("max", map[string]float64{"duration": 1, "rms_energy": 0.9}),
		rec("gap", map[string]float64{"duration": 1}),
	}
	m := BuildMatrix(records, weights, NormMinMax, TagFeatureOptions{})
	require.Len(t, m.Rows, 4)
	require.Equal(t, []string{"duration", "rms_energy"}, m.Dims)

	assert.InDelta(t, 0.0, m.Rows[0][1], 1e-9, "corpus minimum scales to 0")
	assert.InDelta(t, 0.5*w, m.Rows[1][1], 1e-9)
	assert.InDelta(t, w, m.Rows[2][1], 1e-9, "corpus maximum scales to the weight")
	assert.InDelta(t, 0.5*w, m.Rows[3][1], 1e-9, "missing value imputes at 0.5 x weight")
}

func TestBuildMatrixDropsFullyMissingRecords(t *testing.T) {
	weights := FeatureWeights{"rms_energy": 1}
	records := []FeatureRecord{
		rec("a", map[string]float64{"rms_energy": 0.2}),
		rec("empty", map[string]float64{}),
		rec("b", map[string]float64{"rms_energy": 0.9}),
	}
	m := BuildMatrix(records, weights, NormMinMax, TagFeatureOptions{})
	require.Len(t, m.Rows, 2)
	assert.Equal(t, []int{0, 2}, m.ValidIndices)
}

func TestBuildMatrixDegenerateSpan(t *testing.T) {
	weights := FeatureWeights{"rms_energy": 1}
	records := []FeatureRecord{
		rec("a", map[string]float64{"rms_energy": 0.4}),
		rec("b", map[string]float64{"rms_energy": 0.4}),
	}
	m := BuildMatrix(records, weights, NormMinMax, TagFeatureOptions{})
	require.Len(t, m.Rows, 2)
	assert.InDelta(t, 0.5, m.Rows[0][0], 1e-9)
	assert.InDelta(t, 0.5, m.Rows[1][0], 1e-9)
}

func TestBuildMatrixRobustBandAndOrdering(t *testing.T) {
	weights := FeatureWeights{"loudness": 1}
	values := []float64{-40, -30, -25, -22, -20, -18, -15, 500} // one wild outlier
	records := make([]FeatureRecord, len(values))
	for i, v := range values {
		records[i] = rec(string(rune('a'+i)), map[string]float64{"loudness": v})
	}
	m := BuildMatrix(records, weights, NormRobust, TagFeatureOptions{})
	require.Len(t, m.Rows, len(values))
	prev := -1.0
	for i, row := range m.Rows {
		v := row[0]
		assert.GreaterOrEqual(t, v, 0.05, "row %d below band", i)
		assert.LessOrEqual(t, v, 0.95, "row %d above band", i)
		assert.Greater(t, v, prev, "ordering must stay monotonic")
		prev = v
	}
	// The outlier lands near the band edge instead of stretching the scale.
	assert.Greater(t, m.Rows[len(values)-1][0], 0.9)
}

func TestNormalizeRobustExtremesStayInBand(t *testing.T) {
	s := dimStats{median: 0, iqr: 1}
	for _, v := range []float64{-1e9, -50, 0, 50, 1e9} {
		n := normalizeValue(v, s, NormRobust)
		assert.GreaterOrEqual(t, n, 0.05, "value %g", v)
		assert.LessOrEqual(t, n, 0.95, "value %g", v)
	}
}

func TestBuildMatrixZScoreClamped(t *testing.T) {
	weights := FeatureWeights{"spectral_centroid": 1}
	values := []float64{100, 200, 300, 400, 1e7}
	records := make([]FeatureRecord, len(values))
	for i, v := range values {
		records[i] = rec(string(rune('a'+i)), map[string]float64{"spectral_centroid": v})
	}
	m := BuildMatrix(records, weights, NormZScore, TagFeatureOptions{})
	for i, row := range m.Rows {
		assert.GreaterOrEqual(t, row[0], 0.0, "row %d", i)
		assert.LessOrEqual(t, row[0], 1.0, "row %d", i)
	}
}

func TestContrastAxesMutuallyExclusive(t *testing.T) {
	weights := FeatureWeights{DimTonalCharacter: 1, DimNoisyCharacter: 1}
	records := []FeatureRecord{
		rec("pad", map[string]float64{
			"harmonic_ratio":     0.9,
			"spectral_flatness":  0.05,
			"zero_crossing_rate": 0.02,
		}),
		rec("hat", map[string]float64{
			"harmonic_ratio":     0.1,
			"spectral_flatness":  0.8,
			"zero_crossing_rate": 0.2,
		}),
	}
	m := BuildMatrix(records, weights, NormMinMax, TagFeatureOptions{})
	require.Len(t, m.Rows, 2)
	require.Equal(t, []string{DimTonalCharacter, DimNoisyCharacter}, m.Dims)
	for i, row := range m.Rows {
		tonal, noisy := row[0], row[1]
		assert.False(t, tonal > 0.8 && noisy > 0.8, "row %d: axes saturated together", i)
		assert.InDelta(t, 1.0, tonal+noisy, 1e-6, "dominance scores are complementary")
	}
	assert.Greater(t, m.Rows[0][0], m.Rows[0][1], "pad reads tonal")
	assert.Greater(t, m.Rows[1][1], m.Rows[1][0], "hat reads noisy")
}

func TestContrastAxisImputedWithoutCues(t *testing.T) {
	weights := FeatureWeights{"duration": 1, DimTonalCharacter: 1}
	records := []FeatureRecord{
		rec("a", map[string]float64{"duration": 0.2}),
		rec("b", map[string]float64{"duration": 2.0}),
	}
	m := BuildMatrix(records, weights, NormMinMax, TagFeatureOptions{})
	require.Len(t, m.Rows, 2)
	assert.InDelta(t, 0.5, m.Rows[0][1], 1e-9)
}
