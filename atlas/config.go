package atlas

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const defaultConfigFile = "config.json"

// ClusterConfig captures the clustering method plus its parameters.
type ClusterConfig struct {
	Method Method `json:"method"`
	Params Params `json:"params"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Normalization NormalizationMethod `json:"normalization"`
	Weights       FeatureWeights      `json:"weights"`
	Tags          TagFeatureOptions   `json:"tags"`
	Cluster       ClusterConfig       `json:"cluster"`
	Projection    Algorithm           `json:"projection"`
	SamplesDir    string              `json:"samplesDir"`
	HoverPreview  bool                `json:"hoverPreview"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Normalization == "" {
		c.Normalization = NormRobust
	}
	if c.Weights == nil {
		c.Weights = DefaultWeights()
	}
	if c.Tags.Weight == 0 {
		c.Tags.Weight = 0.5
	}
	if c.Tags.MinDocFreq == 0 {
		c.Tags.MinDocFreq = 2
	}
	if c.Tags.RowNorm == "" {
		c.Tags.RowNorm = RowNormSqrt
	}
	if c.Cluster.Method == "" {
		c.Cluster.Method = MethodDensity
	}
	if c.Cluster.Params.Eps == 0 {
		c.Cluster.Params.Eps = 0.08
	}
	if c.Cluster.Params.MinPoints == 0 {
		c.Cluster.Params.MinPoints = 3
	}
	if c.Cluster.Params.K == 0 {
		c.Cluster.Params.K = 6
	}
	if c.Projection == "" {
		c.Projection = AlgorithmPCA
	}
}

// LoadConfig loads configuration from the given path or the default
// config.json. A missing file yields defaults without error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.Tags.Enabled = true
			cfg.HoverPreview = true
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk via a temp file rename.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// learnedWeights mirrors the weight-learning tool's output document.
type learnedWeights struct {
	Weights  map[string]float64 `json:"weights"`
	Accuracy float64            `json:"accuracy"`
}

// ImportLearnedWeights reads a learned-weights JSON file and merges it into
// the current weights. The tool emits camelCase names; registry names are
// snake_case, so keys are folded before matching. Learned values are clamped
// to [0.1, 2.0]; unknown names are ignored.
func ImportLearnedWeights(path string, into FeatureWeights) (FeatureWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	var doc learnedWeights
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode weights file: %w", err)
	}
	if len(doc.Weights) == 0 {
		return nil, errors.New("weights file contains no weights")
	}
	byFold := make(map[string]string)
	for _, dim := range Registry() {
		byFold[foldName(dim)] = dim
	}
	out := make(FeatureWeights, len(into)+len(doc.Weights))
	for k, v := range into {
		out[k] = v
	}
	for name, w := range doc.Weights {
		dim, ok := byFold[foldName(name)]
		if !ok {
			continue
		}
		if w < 0.1 {
			w = 0.1
		}
		if w > 2.0 {
			w = 2.0
		}
		out[dim] = w
	}
	return out, nil
}

// foldName lowercases and strips separators so camelCase and snake_case
// spellings of the same dimension collide.
func foldName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
