package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/recognition"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <person-id>",
	Short: "Enroll a face for a person",
	Long: `Add one face embedding to the collection.

Examples:
  # Enroll from an image (the embedding server computes the embedding)
  face-id enroll p1 --name "Alice" --image alice.jpg

  # Enroll a precomputed embedding
  face-id enroll p1 --name "Alice" --embedding "1,0,0"`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Display name")
	addProbeFlags(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
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

	personID, name := args[0], mustGetString(cmd, "name")

	var res *recognition.EnrollmentResult
	if emb != nil {
		res, err = svc.Enroll(ctx, recognition.EnrollRequest{PersonID: personID, DisplayName: name, Embedding: emb})
	} else {
		res, err = svc.EnrollImage(ctx, personID, name, image)
	}
	if err != nil {
		return fmt.Errorf("enroll failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(res)
	}
	fmt.Printf("Enrolled %s (entry %s), total entries: %d\n", res.PersonID, res.EntryID, res.TotalEntries)
	return nil
}
