package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.RequestTimeout)
	defer cancel()

	svc, err := openService(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(stats)
	}
	fmt.Printf("Store:     %s\n", cfg.Store.Backend)
	fmt.Printf("Model:     %s\n", cfg.Embedding.Model)
	fmt.Printf("Entries:   %d\n", stats.Entries)
	fmt.Printf("Subjects:  %d\n", stats.Subjects)
	fmt.Printf("Dimension: %d", stats.Dimension)
	if stats.ExpectedDimension > 0 && stats.Dimension != 0 && stats.Dimension != stats.ExpectedDimension {
		fmt.Printf(" (model expects %d)", stats.ExpectedDimension)
	}
	fmt.Println()
	return nil
}
