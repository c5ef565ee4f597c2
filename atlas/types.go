package atlas

// FeatureRecord is one analyzed sample: its precomputed numeric descriptors
// plus free-text tags. Records are supplied by the upstream analyzer and are
// never mutated here. A descriptor absent from the map is treated as null.
type FeatureRecord struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Descriptors map[string]float64 `json:"descriptors"`
	Tags        []string           `json:"tags,omitempty"`
	// Path locates the source audio file, absolute or relative to the
	// configured samples directory. Empty when the audio is unavailable.
	Path string `json:"path,omitempty"`
}

// FeatureWeights maps dimension names to non-negative weights.
// A weight of zero disables the dimension entirely.
type FeatureWeights map[string]float64

// NormalizationMethod selects how raw descriptor values are scaled.
type NormalizationMethod string

const (
	// NormMinMax scales linearly onto [0,1] over the corpus range.
	NormMinMax NormalizationMethod = "minmax"
	// NormRobust centers on the median and squashes by IQR, damping outliers.
	NormRobust NormalizationMethod = "robust"
	// NormZScore centers on the mean and scales by six standard deviations.
	NormZScore NormalizationMethod = "zscore"
)

// RowNormMode controls how a row's tag contributions are scaled.
type RowNormMode string

const (
	// RowNormNone leaves every active tag at the full tag weight.
	RowNormNone RowNormMode = "none"
	// RowNormSqrt divides each active tag by sqrt(activeTagCount) so rows
	// with many tags don't dominate distance purely through tag count.
	RowNormSqrt RowNormMode = "sqrt"
)

// TagFeatureOptions controls the tag block appended to the numeric matrix.
type TagFeatureOptions struct {
	Enabled bool `json:"enabled"`
	// Weight is the value each active tag dimension carries.
	Weight float64 `json:"weight"`
	// ExcludeDerived lists tags dropped as redundant with numeric features.
	// Nil means DerivedTagVocabulary; an empty non-nil slice excludes nothing.
	ExcludeDerived []string `json:"excludeDerived,omitempty"`
	// MinDocFreq is the minimum number of records a tag must appear in.
	MinDocFreq int         `json:"minDocFreq"`
	RowNorm    RowNormMode `json:"rowNorm"`
}

// Coord is a projected 2-D position, each component in [-1,1].
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SamplePoint is one displayable sample: projected position, cluster label
// and a read-only reference back to its source record.
type SamplePoint struct {
	ID      string
	Name    string
	X       float64
	Y       float64
	Cluster Label
	Record  *FeatureRecord
}

// Matrix is the weighted, normalized output of BuildMatrix. ValidIndices[i]
// maps row i back to the position of its source record, so callers can line
// projection results up with the records that survived.
type Matrix struct {
	Rows         [][]float64
	ValidIndices []int
	// Dims lists the active numeric dimensions followed by the active tag
	// dimensions, in the column order of Rows.
	Dims []string
}

// Empty reports whether the matrix has no rows.
func (m Matrix) Empty() bool { return len(m.Rows) == 0 }

// MergePoints combines surviving records, their projected coordinates and
// cluster labels into the point list handed to the render host. Coordinates
// are clamped to the logical [-1,1] square.
func MergePoints(records []FeatureRecord, validIndices []int, coords []Coord, labels []Label) []SamplePoint {
	n := len(coords)
	if len(validIndices) < n {
		n = len(validIndices)
	}
	points := make([]SamplePoint, 0, n)
	for i := 0; i < n; i++ {
		rec := &records[validIndices[i]]
		label := Noise
		if i < len(labels) {
			label = labels[i]
		}
		points = append(points, SamplePoint{
			ID:      rec.ID,
			Name:    rec.Name,
			X:       clampUnit(coords[i].X),
			Y:       clampUnit(coords[i].Y),
			Cluster: label,
			Record:  rec,
		})
	}
	return points
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
