package atlas

// BuildMatrix converts feature records into the weighted, normalized matrix
// handed to the projection collaborator.
//
// Only dimensions with weight > 0 participate, in registry order, followed
// by the active tag columns in lexicographic order. Missing descriptor
// values are imputed at a neutral 0.5 before weighting so absent data does
// not skew distance; a record survives only if at least one of its columns
// carries a real, non-imputed value. An all-zero weight configuration with
// no tag columns yields an empty matrix and is not an error.
func BuildMatrix(records []FeatureRecord, weights FeatureWeights, method NormalizationMethod, tagOpts TagFeatureOptions) Matrix {
	numericDims := activeDims(weights)
	tags := buildTagColumns(records, tagOpts)

	stats := make(map[string]dimStats)
	for _, dim := range numericDims {
		if !isDerivedDim(dim) {
			stats[dim] = computeDimStats(records, dim)
		}
	}
	// The derived axes read their cues through corpus stats too, even when
	// the cue dimension itself carries no weight.
	needContrast := false
	for _, dim := range numericDims {
		if isDerivedDim(dim) {
			needContrast = true
		}
	}
	if needContrast {
		for _, dim := range contrastDims() {
			if _, ok := stats[dim]; !ok {
				stats[dim] = computeDimStats(records, dim)
			}
		}
	}

	width := len(numericDims) + len(tags.names)
	m := Matrix{
		Rows:         make([][]float64, 0, len(records)),
		ValidIndices: make([]int, 0, len(records)),
		Dims:         append(append([]string(nil), numericDims...), tags.names...),
	}
	if width == 0 {
		m.Rows = [][]float64{}
		m.ValidIndices = []int{}
		return m
	}

	for i := range records {
		rec := &records[i]
		row := make([]float64, width)
		hasReal := false
		for col, dim := range numericDims {
			w := weights[dim]
			value, present := dimValue(rec, dim, stats, method)
			if present {
				hasReal = true
			}
			row[col] = value * w
		}
		activeTags := tags.active[i]
		if len(activeTags) > 0 {
			hasReal = true
			v := rowTagValue(tagOpts, len(activeTags))
			for col, name := range tags.names {
				if _, ok := activeTags[name]; ok {
					row[len(numericDims)+col] = v
				}
			}
		}
		if !hasReal {
			continue
		}
		m.Rows = append(m.Rows, row)
		m.ValidIndices = append(m.ValidIndices, i)
	}
	return m
}

// dimValue yields the normalized (pre-weight) value for one dimension and
// whether it came from real data rather than imputation.
func dimValue(rec *FeatureRecord, dim string, stats map[string]dimStats, method NormalizationMethod) (float64, bool) {
	switch dim {
	case DimTonalCharacter:
		if v, ok := contrastValue(rec, tonalCues, noisyCues, stats); ok {
			return v, true
		}
		return 0.5, false
	case DimNoisyCharacter:
		if v, ok := contrastValue(rec, noisyCues, tonalCues, stats); ok {
			return v, true
		}
		return 0.5, false
	}
	v, ok := presentValue(rec, dim)
	if !ok {
		return 0.5, false
	}
	return normalizeValue(v, stats[dim], method), true
}

// activeDims filters the registry down to weight > 0 dimensions, keeping
// registry order stable across builds.
func activeDims(weights FeatureWeights) []string {
	dims := make([]string, 0, len(weights))
	for _, dim := range Registry() {
		if weights[dim] > 0 {
			dims = append(dims, dim)
		}
	}
	return dims
}
