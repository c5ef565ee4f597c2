package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"samplemap/atlas"
)

var previewExtensions = []string{".wav", ".mp3", ".flac", ".ogg"}

// Service is the view model between the atlas pipeline and the UI. It owns
// the active configuration and record set, rebuilds the point list whenever
// either changes and pushes the result to OnPoints. Clustering goes through
// the deferred assigner, so a burst of slider changes produces one apply.
type Service struct {
	mu       sync.Mutex
	cfg      atlas.Config
	cfgPath  string
	records  []atlas.FeatureRecord
	byID     map[string]*atlas.FeatureRecord
	assigner *atlas.Assigner
	proj     atlas.Projector
	logger   *log.Logger

	// OnPoints receives every rebuilt point list. It is called from the
	// assigner's scheduling goroutine; UI callers must marshal to the UI
	// thread themselves.
	OnPoints func([]atlas.SamplePoint)
	// OnStatus receives short human-readable pipeline summaries.
	OnStatus func(string)
}

func NewService(cfg atlas.Config, cfgPath string, proj atlas.Projector, assigner *atlas.Assigner, logger *log.Logger) *Service {
	if assigner == nil {
		assigner = atlas.NewAssigner(nil, logger)
	}
	return &Service{
		cfg:      cfg,
		cfgPath:  cfgPath,
		proj:     proj,
		assigner: assigner,
		logger:   logger,
		byID:     make(map[string]*atlas.FeatureRecord),
	}
}

// SetRecords replaces the active record set and rebuilds.
func (s *Service) SetRecords(records []atlas.FeatureRecord) {
	s.mu.Lock()
	s.records = records
	s.byID = make(map[string]*atlas.FeatureRecord, len(records))
	for i := range records {
		s.byID[records[i].ID] = &records[i]
	}
	s.mu.Unlock()
	s.Rebuild()
}

// Config returns a deep copy of the active configuration.
func (s *Service) Config() atlas.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// UpdateConfig applies fn to the configuration, persists it and rebuilds.
func (s *Service) UpdateConfig(fn func(*atlas.Config)) {
	s.mu.Lock()
	fn(&s.cfg)
	cfg := s.cfg.Clone()
	path := s.cfgPath
	s.mu.Unlock()
	if err := atlas.SaveConfig(path, cfg); err != nil {
		s.logf("save config: %v", err)
	}
	s.Rebuild()
}

// ImportWeights merges a learned-weights file into the active weights.
func (s *Service) ImportWeights(path string) error {
	s.mu.Lock()
	merged, err := atlas.ImportLearnedWeights(path, s.cfg.Weights)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.UpdateConfig(func(c *atlas.Config) { c.Weights = merged })
	return nil
}

// Rebuild runs matrix build and projection synchronously, then requests
// clustering through the assigner. The resulting points reach OnPoints only
// if no newer rebuild supersedes this one.
func (s *Service) Rebuild() {
	s.mu.Lock()
	records := s.records
	cfg := s.cfg.Clone()
	s.mu.Unlock()

	matrix := atlas.BuildMatrix(records, cfg.Weights, cfg.Normalization, cfg.Tags)
	if matrix.Empty() {
		s.publish(nil, cfg, atlas.Result{})
		return
	}
	coords, err := s.proj.Project(context.Background(), matrix, cfg.Projection)
	if err != nil {
		s.logf("projection failed: %v", err)
		s.status(fmt.Sprintf("Projection failed: %v", err))
		return
	}
	s.assigner.Request(coords, cfg.Cluster.Method, cfg.Cluster.Params, func(res atlas.Result) {
		points := atlas.MergePoints(records, matrix.ValidIndices, coords, res.Labels)
		s.publish(points, cfg, res)
	})
}

func (s *Service) publish(points []atlas.SamplePoint, cfg atlas.Config, res atlas.Result) {
	if s.OnPoints != nil {
		s.OnPoints(points)
	}
	if s.OnStatus != nil {
		s.OnStatus(summarize(points, cfg, res))
	}
}

func summarize(points []atlas.SamplePoint, cfg atlas.Config, res atlas.Result) string {
	if len(points) == 0 {
		return "No samples to display"
	}
	noise := 0
	for _, p := range points {
		if p.Cluster.IsNoise() {
			noise++
		}
	}
	msg := fmt.Sprintf("%d samples, %d clusters (%s/%s)",
		len(points), res.Count, cfg.Cluster.Method, cfg.Normalization)
	if noise > 0 {
		msg += fmt.Sprintf(", %d unclustered", noise)
	}
	return msg
}

// HoverPreview reports whether hover should trigger audio playback.
func (s *Service) HoverPreview() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.HoverPreview
}

// LocatorFor resolves the audio file for a sample id. Records carrying an
// explicit path win; otherwise the samples directory is probed for the
// record name with each known extension.
func (s *Service) LocatorFor(id string) (string, bool) {
	s.mu.Lock()
	rec, ok := s.byID[id]
	dir := s.cfg.SamplesDir
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	if rec.Path != "" {
		p := rec.Path
		if !filepath.IsAbs(p) && dir != "" {
			p = filepath.Join(dir, p)
		}
		return p, true
	}
	if dir == "" {
		return "", false
	}
	for _, ext := range previewExtensions {
		p := filepath.Join(dir, rec.Name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// RecordFor returns the source record for a sample id.
func (s *Service) RecordFor(id string) (*atlas.FeatureRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	return rec, ok
}

// TagVocabulary returns the normalized, sorted union of tags across the
// active record set.
func (s *Service) TagVocabulary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	for i := range s.records {
		for _, t := range s.records[i].Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *Service) status(msg string) {
	if s.OnStatus != nil {
		s.OnStatus(msg)
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
