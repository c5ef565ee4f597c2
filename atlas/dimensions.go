package atlas

import "fmt"

// Registry returns the canonical dimension names in their stable column
// order: analyzer basics, spectral shape, energy/dynamics, rhythm, harmony,
// the two derived character axes, then the MFCC and chroma banks.
func Registry() []string {
	dims := []string{
		"duration",
		"onset_count",
		"onset_density",

		"spectral_centroid",
		"spectral_rolloff",
		"spectral_bandwidth",
		"spectral_contrast",
		"spectral_flatness",
		"spectral_crest",
		"spectral_slope",
		"spectral_flux",
		"zero_crossing_rate",

		"rms_energy",
		"peak_amplitude",
		"loudness",
		"dynamic_range",
		"crest_factor",
		"energy_variance",
		"energy_entropy",
		"silence_ratio",
		"onset_strength",
		"attack_time",

		"bpm",
		"beats_count",
		"tempo_confidence",

		"harmonic_ratio",
		"percussive_ratio",
		"pitch_mean",
		"pitch_range",

		DimTonalCharacter,
		DimNoisyCharacter,
	}
	for i := 1; i <= 13; i++ {
		dims = append(dims, fmt.Sprintf("mfcc_%d", i))
	}
	for i := 1; i <= 12; i++ {
		dims = append(dims, fmt.Sprintf("chroma_%d", i))
	}
	return dims
}

// Derived character axes. These are not read from the record directly; their
// values come from the contrast scoring in contrast.go.
const (
	DimTonalCharacter = "tonal_character"
	DimNoisyCharacter = "noisy_character"
)

func isDerivedDim(name string) bool {
	return name == DimTonalCharacter || name == DimNoisyCharacter
}

// DefaultWeights enables the dimensions the stock analyzer always emits.
// MFCC banks get a reduced weight so thirteen correlated columns don't
// drown out the scalar descriptors; chroma stays off until a record set
// actually carries it.
func DefaultWeights() FeatureWeights {
	w := FeatureWeights{
		"duration":           0.5,
		"onset_count":        0.5,
		"spectral_centroid":  1.0,
		"spectral_rolloff":   1.0,
		"spectral_bandwidth": 0.8,
		"spectral_contrast":  0.8,
		"zero_crossing_rate": 1.0,
		"rms_energy":         1.0,
		"loudness":           0.8,
		"dynamic_range":      0.6,
		"onset_strength":     0.8,
		"bpm":                0.4,
		DimTonalCharacter:    1.0,
		DimNoisyCharacter:    1.0,
	}
	for i := 1; i <= 13; i++ {
		w[fmt.Sprintf("mfcc_%d", i)] = 0.3
	}
	return w
}

// DerivedTagVocabulary lists the tags the analyzer derives from numeric
// features. They are excluded from the tag block by default because the
// same signal already reaches the matrix through the numeric columns.
func DerivedTagVocabulary() []string {
	return []string{
		"one-shot", "loop",
		"slow", "downtempo", "midtempo", "uptempo", "fast",
		"60-80bpm", "80-100bpm", "100-120bpm", "120-140bpm", "140+bpm",
		"bright", "mid-range", "dark",
		"bass-heavy", "high-freq",
		"punchy", "soft",
		"aggressive", "ambient",
		"dynamic", "compressed",
		"noisy", "smooth",
	}
}
