package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fundlens/fundlens-backend/internal/platform/envutil"
)

// SimilarityWeights are the fixed linear-combination weights of the
// co-funding similarity score. They should sum to 1.0.
type SimilarityWeights struct {
	Jaccard     float64 `yaml:"jaccard"`
	Correlation float64 `yaml:"correlation"`
	NTEE        float64 `yaml:"ntee"`
	Geographic  float64 `yaml:"geographic"`
}

// Tuning carries every analysis threshold that operators may want to
// adjust without a redeploy. Zero values are replaced by defaults.
type Tuning struct {
	Weights              SimilarityWeights `yaml:"similarity_weights"`
	MinSimilarity        float64           `yaml:"min_similarity"`
	HighOverlap          float64           `yaml:"high_overlap"`
	StableTolerance      float64           `yaml:"stable_tolerance"`
	TrendStep            float64           `yaml:"trend_step"`
	PeerTopN             int               `yaml:"peer_top_n"`
	MinClusterSize       int               `yaml:"min_cluster_size"`
	NameMatchThreshold   float64           `yaml:"name_match_threshold"`
	LouvainMaxIters      int               `yaml:"louvain_max_iterations"`
	DefaultMinFunders    int               `yaml:"default_min_foundations"`
	CacheTTL             time.Duration     `yaml:"cache_ttl"`
	PipelineTimeout      time.Duration     `yaml:"pipeline_timeout"`
	ComputeWorkers       int               `yaml:"compute_workers"`
	BridgeTopDecile      float64           `yaml:"bridge_top_decile"`
	MinBridgeCommunities int               `yaml:"min_bridge_communities"`
}

// UnmarshalYAML accepts Go duration strings ("24h", "90s") for the
// time-valued knobs; everything else decodes directly.
func (t *Tuning) UnmarshalYAML(value *yaml.Node) error {
	type rawTuning struct {
		Weights              SimilarityWeights `yaml:"similarity_weights"`
		MinSimilarity        float64           `yaml:"min_similarity"`
		HighOverlap          float64           `yaml:"high_overlap"`
		StableTolerance      float64           `yaml:"stable_tolerance"`
		TrendStep            float64           `yaml:"trend_step"`
		PeerTopN             int               `yaml:"peer_top_n"`
		MinClusterSize       int               `yaml:"min_cluster_size"`
		NameMatchThreshold   float64           `yaml:"name_match_threshold"`
		LouvainMaxIters      int               `yaml:"louvain_max_iterations"`
		DefaultMinFunders    int               `yaml:"default_min_foundations"`
		CacheTTL             string            `yaml:"cache_ttl"`
		PipelineTimeout      string            `yaml:"pipeline_timeout"`
		ComputeWorkers       int               `yaml:"compute_workers"`
		BridgeTopDecile      float64           `yaml:"bridge_top_decile"`
		MinBridgeCommunities int               `yaml:"min_bridge_communities"`
	}
	var raw rawTuning
	if err := value.Decode(&raw); err != nil {
		return err
	}

	t.Weights = raw.Weights
	t.MinSimilarity = raw.MinSimilarity
	t.HighOverlap = raw.HighOverlap
	t.StableTolerance = raw.StableTolerance
	t.TrendStep = raw.TrendStep
	t.PeerTopN = raw.PeerTopN
	t.MinClusterSize = raw.MinClusterSize
	t.NameMatchThreshold = raw.NameMatchThreshold
	t.LouvainMaxIters = raw.LouvainMaxIters
	t.DefaultMinFunders = raw.DefaultMinFunders
	t.ComputeWorkers = raw.ComputeWorkers
	t.BridgeTopDecile = raw.BridgeTopDecile
	t.MinBridgeCommunities = raw.MinBridgeCommunities

	if raw.CacheTTL != "" {
		d, err := time.ParseDuration(raw.CacheTTL)
		if err != nil {
			return fmt.Errorf("config: cache_ttl: %w", err)
		}
		t.CacheTTL = d
	}
	if raw.PipelineTimeout != "" {
		d, err := time.ParseDuration(raw.PipelineTimeout)
		if err != nil {
			return fmt.Errorf("config: pipeline_timeout: %w", err)
		}
		t.PipelineTimeout = d
	}
	return nil
}

func Defaults() Tuning {
	return Tuning{
		Weights: SimilarityWeights{
			Jaccard:     0.4,
			Correlation: 0.3,
			NTEE:        0.2,
			Geographic:  0.1,
		},
		MinSimilarity:        0.15,
		HighOverlap:          0.5,
		StableTolerance:      0.10,
		TrendStep:            0.15,
		PeerTopN:             5,
		MinClusterSize:       2,
		NameMatchThreshold:   0.85,
		LouvainMaxIters:      20,
		DefaultMinFunders:    2,
		CacheTTL:             24 * time.Hour,
		PipelineTimeout:      60 * time.Second,
		ComputeWorkers:       4,
		BridgeTopDecile:      0.10,
		MinBridgeCommunities: 2,
	}
}

// Load reads the tuning file named by FUNDLENS_TUNING_PATH (or the given
// path) and overlays it onto the defaults. A missing path is not an
// error; a present but unparseable file is.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		path = envutil.Str("FUNDLENS_TUNING_PATH", "")
	}
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("config: parse %s: %w", path, err)
	}
	fill(&t)
	return t, nil
}

func fill(t *Tuning) {
	d := Defaults()
	if t.Weights.Jaccard == 0 && t.Weights.Correlation == 0 && t.Weights.NTEE == 0 && t.Weights.Geographic == 0 {
		t.Weights = d.Weights
	}
	if t.MinSimilarity <= 0 {
		t.MinSimilarity = d.MinSimilarity
	}
	if t.HighOverlap <= 0 {
		t.HighOverlap = d.HighOverlap
	}
	if t.StableTolerance <= 0 {
		t.StableTolerance = d.StableTolerance
	}
	if t.TrendStep <= 0 {
		t.TrendStep = d.TrendStep
	}
	if t.PeerTopN <= 0 {
		t.PeerTopN = d.PeerTopN
	}
	if t.MinClusterSize <= 0 {
		t.MinClusterSize = d.MinClusterSize
	}
	if t.NameMatchThreshold <= 0 {
		t.NameMatchThreshold = d.NameMatchThreshold
	}
	if t.LouvainMaxIters <= 0 {
		t.LouvainMaxIters = d.LouvainMaxIters
	}
	if t.DefaultMinFunders <= 0 {
		t.DefaultMinFunders = d.DefaultMinFunders
	}
	if t.CacheTTL <= 0 {
		t.CacheTTL = d.CacheTTL
	}
	if t.PipelineTimeout <= 0 {
		t.PipelineTimeout = d.PipelineTimeout
	}
	if t.ComputeWorkers <= 0 {
		t.ComputeWorkers = d.ComputeWorkers
	}
	if t.BridgeTopDecile <= 0 {
		t.BridgeTopDecile = d.BridgeTopDecile
	}
	if t.MinBridgeCommunities <= 0 {
		t.MinBridgeCommunities = d.MinBridgeCommunities
	}
}
