package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List enrolled entries",
	Long: `List enrolled entries in enrollment order. An optional query filters by
display name or person id, ignoring case and diacritics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Int("limit", 0, "Limit number of entries (0 = no limit)")
	listCmd.Flags().Bool("json", false, "Output as JSON")
}

type listEntry struct {
	ID        string    `json:"id"`
	PersonID  string    `json:"person_id"`
	Name      string    `json:"name"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.RequestTimeout)
	defer cancel()

	svc, err := openService(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	var query string
	if len(args) > 0 {
		query = args[0]
	}
	entries, err := svc.Entries(ctx, query)
	if err != nil {
		return err
	}
	if limit := mustGetInt(cmd, "limit"); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]listEntry, len(entries))
	for i, e := range entries {
		out[i] = listEntry{ID: e.ID, PersonID: e.PersonID, Name: e.DisplayName, Dim: len(e.Embedding), CreatedAt: e.CreatedAt}
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(out)
	}

	if len(out) == 0 {
		fmt.Println("No entries found")
		return nil
	}
	fmt.Printf("%-36s  %-20s  %-24s  %s\n", "ENTRY", "PERSON", "NAME", "ENROLLED")
	for _, e := range out {
		fmt.Printf("%-36s  %-20s  %-24s  %s\n", e.ID, e.PersonID, e.Name, e.CreatedAt.Format(time.DateTime))
	}
	fmt.Printf("\n%d entries\n", len(out))
	return nil
}
