package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-id",
	Short: "Enroll and identify faces by embedding similarity",
	Long: `face-id keeps a collection of enrolled face embeddings and identifies
new faces by exhaustive cosine similarity against it.

Embeddings come from a face embedding server (EMBEDDING_URL) or are passed
directly. The collection is stored in a local file, SQLite, PostgreSQL
(pgvector) or MariaDB, selected with FACEID_STORE.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("store", "", "Store backend: file, sqlite, postgres or mariadb (overrides FACEID_STORE)")
	rootCmd.PersistentFlags().String("store-path", "", "Collection path for the file and sqlite backends (overrides FACEID_STORE_PATH)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
