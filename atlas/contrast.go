package atlas

// Mutually exclusive character axes: a sample can read as tonal or as noisy,
// never both. Each side gathers confidence-weighted evidence from whatever
// cue descriptors the record carries, and the stored value is the sigmoid of
// the evidence difference, so the axis expresses relative dominance rather
// than raw magnitude.
//
// The cue weights and the sharpness constant are empirically tuned against
// the stock analyzer's output. Do not read deeper semantics into them.

const contrastSharpness = 4.0

// contrastCue contributes one 0-1 signal to an evidence score. The cue reads
// the corpus-minmax-normalized value of dim, optionally inverted.
type contrastCue struct {
	dim        string
	invert     bool
	confidence float64
}

var tonalCues = []contrastCue{
	{dim: "harmonic_ratio", confidence: 1.0},
	{dim: "spectral_flatness", invert: true, confidence: 0.8},
	{dim: "zero_crossing_rate", invert: true, confidence: 0.6},
	{dim: "spectral_contrast", confidence: 0.5},
}

var noisyCues = []contrastCue{
	{dim: "spectral_flatness", confidence: 1.0},
	{dim: "zero_crossing_rate", confidence: 0.9},
	{dim: "percussive_ratio", confidence: 0.5},
	{dim: "harmonic_ratio", invert: true, confidence: 0.4},
}

// contrastDims lists every cue dimension so the builder can compute stats
// for them even when their own weight is zero.
func contrastDims() []string {
	seen := make(map[string]struct{})
	dims := make([]string, 0, len(tonalCues)+len(noisyCues))
	for _, cue := range append(append([]contrastCue(nil), tonalCues...), noisyCues...) {
		if _, ok := seen[cue.dim]; ok {
			continue
		}
		seen[cue.dim] = struct{}{}
		dims = append(dims, cue.dim)
	}
	return dims
}

// evidence averages the available cues by confidence. ok is false when the
// record carries none of the cue descriptors.
func evidence(rec *FeatureRecord, cues []contrastCue, stats map[string]dimStats) (float64, bool) {
	var sum, conf float64
	for _, cue := range cues {
		v, ok := presentValue(rec, cue.dim)
		if !ok {
			continue
		}
		s, ok := stats[cue.dim]
		if !ok || s.count == 0 {
			continue
		}
		cv := minmaxValue(v, s)
		if cue.invert {
			cv = 1 - cv
		}
		sum += cv * cue.confidence
		conf += cue.confidence
	}
	if conf == 0 {
		return 0, false
	}
	return sum / conf, true
}

// contrastValue computes one derived axis for a record. primary and opposing
// select which side dominates: for the tonal axis primary=tonalCues, for the
// noisy axis primary=noisyCues. ok is false when neither side has any cue.
func contrastValue(rec *FeatureRecord, primary, opposing []contrastCue, stats map[string]dimStats) (float64, bool) {
	p, pok := evidence(rec, primary, stats)
	o, ook := evidence(rec, opposing, stats)
	if !pok && !ook {
		return 0, false
	}
	return logistic(contrastSharpness * (p - o)), true
}
