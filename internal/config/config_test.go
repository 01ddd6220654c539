package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Defaults()
	if got.MinSimilarity != want.MinSimilarity || got.CacheTTL != want.CacheTTL {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := "min_similarity: 0.25\ncache_ttl: 1h\npeer_top_n: 3\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.MinSimilarity != 0.25 {
		t.Fatalf("min similarity = %v, want 0.25", got.MinSimilarity)
	}
	if got.CacheTTL != time.Hour {
		t.Fatalf("cache ttl = %v, want 1h", got.CacheTTL)
	}
	if got.PeerTopN != 3 {
		t.Fatalf("peer top n = %d, want 3", got.PeerTopN)
	}
	// Untouched knobs keep their defaults.
	if got.HighOverlap != Defaults().HighOverlap {
		t.Fatalf("high overlap = %v, want default", got.HighOverlap)
	}
	if got.Weights != Defaults().Weights {
		t.Fatalf("weights = %+v, want defaults", got.Weights)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("min_similarity: [not a number"), 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("bad yaml accepted")
	}
}
