package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Store     StoreConfig
	Database  DatabaseConfig
	MariaDB   MariaDBConfig
	Embedding EmbeddingConfig
	Match     MatchConfig
	Web       WebConfig
	Log       LogConfig
	Models    ModelsConfig
}

type StoreConfig struct {
	Backend string // file, sqlite, postgres or mariadb (default file)
	Path    string // collection location for the file and sqlite backends
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MariaDBConfig struct {
	DSN string // e.g. faceid:faceid@tcp(mariadb:3306)/faceid
}

type EmbeddingConfig struct {
	URL     string // extractor server, defaults to http://localhost:8000
	Model   string // defaults to ArcFace
	Dim     int    // EMBEDDING_DIM; 0 = the first enrolled face decides
	DimAuto bool   // EMBEDDING_DIM=auto: extractor output is not checked against the catalog
}

type MatchConfig struct {
	Threshold    float64
	ThresholdSet bool // MATCH_THRESHOLD was given explicitly
}

type WebConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

type ModelsConfig struct {
	Models map[string]ModelSpec `yaml:"models"`
}

// ModelSpec describes an embedding model served by the extractor.
type ModelSpec struct {
	Dim       int     `yaml:"dim"`
	InputSize int     `yaml:"input_size"`
	Threshold float64 `yaml:"threshold"`
}

const (
	DefaultModel          = "ArcFace"
	DefaultInputSize      = 224
	defaultRequestTimeout = 20 * time.Second
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float.
// The second result is false when the variable is unset or invalid.
func envFloat(key string) (float64, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// envDuration reads an environment variable as a time.Duration ("30s", "2m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString returns the env var or a default when it is unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// splitList splits a comma separated env value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	threshold, thresholdSet := envFloat("MATCH_THRESHOLD")

	return &Config{
		Store: StoreConfig{
			Backend: strings.ToLower(envString("FACEID_STORE", "file")),
			Path:    os.Getenv("FACEID_STORE_PATH"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		Embedding: EmbeddingConfig{
			URL:     os.Getenv("EMBEDDING_URL"),
			Model:   envString("EMBEDDING_MODEL", DefaultModel),
			Dim:     envInt("EMBEDDING_DIM", 0),
			DimAuto: strings.EqualFold(strings.TrimSpace(os.Getenv("EMBEDDING_DIM")), "auto"),
		},
		Match: MatchConfig{
			Threshold:    threshold,
			ThresholdSet: thresholdSet,
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8000),
			RequestTimeout: envDuration("WEB_REQUEST_TIMEOUT", defaultRequestTimeout),
			AllowedOrigins: splitList(os.Getenv("WEB_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
		Models: models,
	}
}

// ModelSpec returns the catalog entry for a model name (case-insensitive).
func (c *Config) ModelSpec(name string) (ModelSpec, bool) {
	if spec, ok := c.Models.Models[name]; ok {
		return spec, true
	}
	for key, spec := range c.Models.Models {
		if strings.EqualFold(key, name) {
			return spec, true
		}
	}
	return ModelSpec{}, false
}

// EmbeddingDim returns the length every embedding must have: EMBEDDING_DIM
// when set, otherwise 0 and the first enrolled face establishes it.
func (c *Config) EmbeddingDim() int {
	return c.Embedding.Dim
}

// ModelDim returns the length the extractor is expected to produce:
// EMBEDDING_DIM if set, otherwise the configured model's catalog dimension.
// It is 0 with EMBEDDING_DIM=auto or for a model missing from the catalog.
func (c *Config) ModelDim() int {
	if c.Embedding.DimAuto {
		return 0
	}
	if c.Embedding.Dim > 0 {
		return c.Embedding.Dim
	}
	if spec, ok := c.ModelSpec(c.Embedding.Model); ok {
		return spec.Dim
	}
	return 0
}

// InputSize returns the face crop size the configured model expects.
func (c *Config) InputSize() int {
	if spec, ok := c.ModelSpec(c.Embedding.Model); ok && spec.InputSize > 0 {
		return spec.InputSize
	}
	return DefaultInputSize
}

// MatchThreshold returns the minimum similarity for an accepted match:
// MATCH_THRESHOLD if set, otherwise the model's recommended threshold,
// otherwise -1 (every best match is accepted).
func (c *Config) MatchThreshold() float64 {
	if c.Match.ThresholdSet {
		return c.Match.Threshold
	}
	if spec, ok := c.ModelSpec(c.Embedding.Model); ok {
		return spec.Threshold
	}
	return -1
}

// StorePath returns the configured store path or the backend default.
func (c *Config) StorePath(defaultPath string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return defaultPath
}
