package atlas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// analysisDoc mirrors the analyzer's per-sample JSON output.
type analysisDoc struct {
	Duration         *float64  `json:"duration"`
	OnsetCount       *float64  `json:"onset_count"`
	SpectralCentroid *float64  `json:"spectral_centroid"`
	SpectralRolloff  *float64  `json:"spectral_rolloff"`
	SpectralBand     *float64  `json:"spectral_bandwidth"`
	SpectralContrast *float64  `json:"spectral_contrast"`
	ZeroCrossingRate *float64  `json:"zero_crossing_rate"`
	MFCCMean         []float64 `json:"mfcc_mean"`
	ChromaMean       []float64 `json:"chroma_mean"`
	RMSEnergy        *float64  `json:"rms_energy"`
	Loudness         *float64  `json:"loudness"`
	DynamicRange     *float64  `json:"dynamic_range"`
	OnsetStrength    *float64  `json:"onset_strength"`
	BPM              *float64  `json:"bpm"`
	BeatsCount       *float64  `json:"beats_count"`
	Path             string    `json:"path"`
	SuggestedTags    []string  `json:"suggested_tags"`
	Predictions      []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"instrument_predictions"`
}

// ParseAnalysisFile reads one analyzer JSON document into a FeatureRecord.
// The record id and name derive from the file name.
func ParseAnalysisFile(path string) (FeatureRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FeatureRecord{}, fmt.Errorf("read analysis file: %w", err)
	}
	var doc analysisDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return FeatureRecord{}, fmt.Errorf("decode analysis file %s: %w", filepath.Base(path), err)
	}
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	rec := FeatureRecord{
		ID:          name,
		Name:        name,
		Descriptors: make(map[string]float64, 32),
		Path:        doc.Path,
	}
	put := func(dim string, v *float64) {
		if v != nil {
			rec.Descriptors[dim] = *v
		}
	}
	put("duration", doc.Duration)
	put("onset_count", doc.OnsetCount)
	put("spectral_centroid", doc.SpectralCentroid)
	put("spectral_rolloff", doc.SpectralRolloff)
	put("spectral_bandwidth", doc.SpectralBand)
	put("spectral_contrast", doc.SpectralContrast)
	put("zero_crossing_rate", doc.ZeroCrossingRate)
	put("rms_energy", doc.RMSEnergy)
	put("loudness", doc.Loudness)
	put("dynamic_range", doc.DynamicRange)
	put("onset_strength", doc.OnsetStrength)
	put("bpm", doc.BPM)
	put("beats_count", doc.BeatsCount)
	for i, v := range doc.MFCCMean {
		if i >= 13 {
			break
		}
		rec.Descriptors[fmt.Sprintf("mfcc_%d", i+1)] = v
	}
	for i, v := range doc.ChromaMean {
		if i >= 12 {
			break
		}
		rec.Descriptors[fmt.Sprintf("chroma_%d", i+1)] = v
	}

	seen := make(map[string]struct{})
	for _, t := range doc.SuggestedTags {
		if n := NormalizeTag(t); n != "" {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				rec.Tags = append(rec.Tags, n)
			}
		}
	}
	for _, p := range doc.Predictions {
		if p.Confidence <= 0.55 {
			continue
		}
		if n := NormalizeTag(p.Name); n != "" {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				rec.Tags = append(rec.Tags, n)
			}
		}
	}
	return rec, nil
}

// LoadRecords reads feature records from path. A directory is scanned for
// *.json analyzer documents; a file is read either as a native record array
// or as a single analyzer document.
func LoadRecords(path string) ([]FeatureRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat records path: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read records file: %w", err)
		}
		var records []FeatureRecord
		if err := json.Unmarshal(data, &records); err == nil {
			return records, nil
		}
		rec, err := ParseAnalysisFile(path)
		if err != nil {
			return nil, err
		}
		return []FeatureRecord{rec}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read records dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	records := make([]FeatureRecord, 0, len(names))
	for _, name := range names {
		rec, err := ParseAnalysisFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
