package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/config"
	"github.com/kozaktomas/face-id/internal/database"
	"github.com/kozaktomas/face-id/internal/database/filestore"
	"github.com/kozaktomas/face-id/internal/database/mariadb"
	"github.com/kozaktomas/face-id/internal/database/postgres"
	"github.com/kozaktomas/face-id/internal/database/sqlite"
	"github.com/kozaktomas/face-id/internal/extractor"
	"github.com/kozaktomas/face-id/internal/logging"
	"github.com/kozaktomas/face-id/internal/recognition"
)

func init() {
	database.RegisterBackend(database.BackendFile, filestore.Open)
	database.RegisterBackend(database.BackendSQLite, sqlite.Open)
	database.RegisterBackend(database.BackendPostgres, postgres.Open)
	database.RegisterBackend(database.BackendMariaDB, mariadb.Open)
}

// loadConfig loads the environment config and applies the persistent store flags.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
	}
	if path, _ := cmd.Flags().GetString("store-path"); path != "" {
		cfg.Store.Path = path
	}
	return cfg
}

// openService opens the configured store and builds the recognition service on it.
// A --threshold flag, when present and set, overrides the configured threshold.
func openService(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*recognition.Service, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	store, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	threshold := cfg.MatchThreshold()
	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		threshold = mustGetFloat64(cmd, "threshold")
	}

	return recognition.NewService(store, recognition.Options{
		Dim:       cfg.EmbeddingDim(),
		ModelDim:  cfg.ModelDim(),
		Threshold: threshold,
		Extractor: extractor.NewClient(cfg.Embedding.URL, cfg.Embedding.Model, cfg.InputSize()),
		Logger:    logger,
	}), nil
}

// readProbe returns the embedding given by --embedding, or nil with the image
// bytes of --image.
func readProbe(cmd *cobra.Command) ([]float32, []byte, error) {
	embeddingArg := mustGetString(cmd, "embedding")
	imagePath := mustGetString(cmd, "image")

	switch {
	case embeddingArg != "" && imagePath != "":
		return nil, nil, fmt.Errorf("use either --embedding or --image, not both")
	case embeddingArg != "":
		emb, err := parseEmbedding(embeddingArg)
		if err != nil {
			return nil, nil, err
		}
		return emb, nil, nil
	case imagePath != "":
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read image: %w", err)
		}
		return nil, data, nil
	}
	return nil, nil, fmt.Errorf("--embedding or --image is required")
}

// addProbeFlags registers the probe input flags.
func addProbeFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Face image file sent to the embedding server")
	cmd.Flags().String("embedding", "", `Precomputed embedding, e.g. "0.9,0.1,0"`)
	cmd.Flags().Bool("json", false, "Output as JSON")
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
