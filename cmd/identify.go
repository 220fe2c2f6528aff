package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/recognition"
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify a face against the collection (1:N)",
	Long: `Find the enrolled face most similar to the given one.

Examples:
  face-id identify --image probe.jpg
  face-id identify --embedding "0.9,0.1,0" --top 3`,
	Args: cobra.NoArgs,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	addProbeFlags(identifyCmd)
	identifyCmd.Flags().Int("top", 0, "Also list the best match of up to N distinct persons")
	identifyCmd.Flags().Float64("threshold", 0, "Minimum similarity for an accepted match (overrides MATCH_THRESHOLD)")
}

type identifyOutput struct {
	*recognition.IdentificationResult
	Candidates []recognition.IdentificationResult `json:"candidates,omitempty"`
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.RequestTimeout)
	defer cancel()

	emb, image, err := readProbe(cmd)
	if err != nil {
		return err
	}

	svc, err := openService(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	top := mustGetInt(cmd, "top")
	var out identifyOutput
	if emb != nil {
		out.IdentificationResult, out.Candidates, err = svc.IdentifyRanked(ctx, emb, top)
	} else {
		out.IdentificationResult, out.Candidates, err = svc.IdentifyImageRanked(ctx, image, top)
	}
	if err != nil {
		return fmt.Errorf("identify failed: %w", err)
	}
	res := out.IdentificationResult

	if mustGetBool(cmd, "json") {
		return outputJSON(out)
	}

	status := "accepted"
	if !res.Accepted {
		status = fmt.Sprintf("below threshold %.2f", svc.Threshold())
	}
	fmt.Printf("Best match: %s (%s) similarity %.4f [%s]\n", res.PersonID, res.DisplayName, res.Similarity, status)
	for i, c := range out.Candidates {
		fmt.Printf("  %d. %-20s %-24s %.4f\n", i+1, c.PersonID, c.DisplayName, c.Similarity)
	}
	return nil
}
