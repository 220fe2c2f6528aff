package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"FACEID_STORE", "FACEID_STORE_PATH", "EMBEDDING_MODEL", "EMBEDDING_DIM",
		"MATCH_THRESHOLD", "WEB_PORT", "WEB_REQUEST_TIMEOUT", "WEB_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Store.Backend != "file" {
		t.Errorf("expected default backend 'file', got '%s'", cfg.Store.Backend)
	}
	if cfg.Embedding.Model != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, cfg.Embedding.Model)
	}
	if cfg.Web.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Web.Port)
	}
	if cfg.Web.RequestTimeout != 20*time.Second {
		t.Errorf("expected default timeout 20s, got %v", cfg.Web.RequestTimeout)
	}
	if cfg.Match.ThresholdSet {
		t.Error("expected threshold to be unset")
	}
	if len(cfg.Web.AllowedOrigins) != 0 {
		t.Errorf("expected no allowed origins, got %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FACEID_STORE", "SQLite")
	t.Setenv("FACEID_STORE_PATH", "/data/faces.db")
	t.Setenv("EMBEDDING_DIM", "128")
	t.Setenv("MATCH_THRESHOLD", "0.55")
	t.Setenv("WEB_REQUEST_TIMEOUT", "45s")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := Load()

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected backend to be lowercased to 'sqlite', got '%s'", cfg.Store.Backend)
	}
	if cfg.Store.Path != "/data/faces.db" {
		t.Errorf("unexpected store path '%s'", cfg.Store.Path)
	}
	if cfg.EmbeddingDim() != 128 || cfg.ModelDim() != 128 {
		t.Errorf("expected EMBEDDING_DIM to win, got %d/%d", cfg.EmbeddingDim(), cfg.ModelDim())
	}
	if got := cfg.MatchThreshold(); got != 0.55 {
		t.Errorf("expected threshold 0.55, got %v", got)
	}
	if cfg.Web.RequestTimeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.Web.RequestTimeout)
	}
	if len(cfg.Web.AllowedOrigins) != 2 {
		t.Errorf("expected 2 allowed origins, got %v", cfg.Web.AllowedOrigins)
	}
}

func TestEnvInt_InvalidFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 25},
		{"valid", "10", 10},
		{"negative", "-3", 25},
		{"zero", "0", 25},
		{"garbage", "abc", 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tc.value)
			if got := envInt("TEST_ENV_INT", 25); got != tc.want {
				t.Errorf("envInt(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestModelSpec_Catalog(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "")
	t.Setenv("MATCH_THRESHOLD", "")
	cfg := Load()

	spec, ok := cfg.ModelSpec("arcface")
	if !ok {
		t.Fatal("expected ArcFace to be found case-insensitively")
	}
	if spec.Dim != 512 {
		t.Errorf("expected ArcFace dim 512, got %d", spec.Dim)
	}

	cfg.Embedding.Model = "Facenet"
	if cfg.ModelDim() != 128 {
		t.Errorf("expected Facenet dim 128, got %d", cfg.ModelDim())
	}
	if cfg.EmbeddingDim() != 0 {
		t.Errorf("catalog dim must not constrain raw embeddings, got %d", cfg.EmbeddingDim())
	}
	if cfg.InputSize() != 160 {
		t.Errorf("expected Facenet input size 160, got %d", cfg.InputSize())
	}
	if cfg.MatchThreshold() != 0.60 {
		t.Errorf("expected Facenet threshold 0.60, got %v", cfg.MatchThreshold())
	}
}

func TestModelSpec_UnknownModel(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Model: "custom"}}

	if _, ok := cfg.ModelSpec("custom"); ok {
		t.Error("expected unknown model to be missing")
	}
	if cfg.EmbeddingDim() != 0 || cfg.ModelDim() != 0 {
		t.Errorf("expected dim 0 for unknown model, got %d/%d", cfg.EmbeddingDim(), cfg.ModelDim())
	}
	if cfg.InputSize() != DefaultInputSize {
		t.Errorf("expected default input size, got %d", cfg.InputSize())
	}
	if cfg.MatchThreshold() != -1 {
		t.Errorf("expected threshold -1 for unknown model, got %v", cfg.MatchThreshold())
	}
}

func TestStorePath(t *testing.T) {
	cfg := &Config{}
	if got := cfg.StorePath("models/x.gob"); got != "models/x.gob" {
		t.Errorf("expected default path, got %s", got)
	}
	cfg.Store.Path = "/tmp/y.gob"
	if got := cfg.StorePath("models/x.gob"); got != "/tmp/y.gob" {
		t.Errorf("expected configured path, got %s", got)
	}
}

func TestEmbeddingDim_Defaults(t *testing.T) {
	tests := []struct {
		name          string
		value         string
		wantEmbedding int
		wantModel     int
	}{
		{"unset uses catalog for extractor only", "", 0, 512},
		{"auto disables catalog", "auto", 0, 0},
		{"auto any case", " AUTO ", 0, 0},
		{"zero behaves like unset", "0", 0, 512},
		{"explicit", "256", 256, 256},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("EMBEDDING_MODEL", "")
			t.Setenv("EMBEDDING_DIM", tc.value)
			cfg := Load()
			if got := cfg.EmbeddingDim(); got != tc.wantEmbedding {
				t.Errorf("EmbeddingDim() = %d, want %d", got, tc.wantEmbedding)
			}
			if got := cfg.ModelDim(); got != tc.wantModel {
				t.Errorf("ModelDim() = %d, want %d", got, tc.wantModel)
			}
		})
	}
}
