package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/recognition"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <person-id>",
	Short: "Verify a face belongs to a person (1:1)",
	Long: `Identify the face and check that the best match is the expected person
and passes the acceptance threshold.

Examples:
  face-id verify p1 --image probe.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	addProbeFlags(verifyCmd)
	verifyCmd.Flags().Float64("threshold", 0, "Minimum similarity for an accepted match (overrides MATCH_THRESHOLD)")
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	var res *recognition.VerificationResult
	if emb != nil {
		res, err = svc.Verify(ctx, args[0], emb)
	} else {
		res, err = svc.VerifyImage(ctx, args[0], image)
	}
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(res)
	}

	if res.Verified {
		fmt.Printf("VERIFIED: %s (similarity %.4f)\n", res.ExpectedPersonID, res.Best.Similarity)
		return nil
	}
	fmt.Printf("NOT VERIFIED: expected %s, best match %s (similarity %.4f)\n",
		res.ExpectedPersonID, res.Best.PersonID, res.Best.Similarity)
	if res.SubjectSimilarity > -1 {
		fmt.Printf("  best similarity to %s: %.4f\n", res.ExpectedPersonID, res.SubjectSimilarity)
	} else {
		fmt.Printf("  %s is not enrolled\n", res.ExpectedPersonID)
	}
	return nil
}
