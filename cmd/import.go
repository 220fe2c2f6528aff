package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-id/internal/recognition"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Bulk-enroll a directory of face images",
	Long: `Enroll every image below a directory. Each sub-directory is one person:

  <dir>/<person_id>/*.jpg
  <dir>/<person_id>__<Display_Name>/*.jpg

Underscores in the display name become spaces. Embeddings are computed in
parallel by the embedding server; enrollments are written one at a time.

Examples:
  face-id import ./faces
  face-id import ./faces --concurrency 8 --ext jpg,png`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", 4, "Number of parallel workers")
	importCmd.Flags().Int("limit", 0, "Limit number of images to process (0 = no limit)")
	importCmd.Flags().StringSlice("ext", []string{"jpg", "jpeg", "png", "bmp", "gif", "webp"}, "Image file extensions to import")
}

// importJob is one image to enroll.
type importJob struct {
	Path        string
	PersonID    string
	DisplayName string
}

// parsePersonDir splits a directory name into person id and display name.
func parsePersonDir(name string) (personID, displayName string) {
	personID, rest, found := strings.Cut(name, "__")
	personID = strings.TrimSpace(personID)
	if !found || strings.TrimSpace(rest) == "" {
		return personID, personID
	}
	return personID, strings.TrimSpace(strings.ReplaceAll(rest, "_", " "))
}

// collectImportJobs lists the images below root in a stable order.
func collectImportJobs(root string, exts []string) ([]importJob, error) {
	allowed := make([]string, len(exts))
	for i, e := range exts {
		allowed[i] = "." + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var jobs []importJob
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		personID, displayName := parsePersonDir(d.Name())
		if personID == "" {
			continue
		}

		files, err := os.ReadDir(filepath.Join(root, d.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", d.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !slices.Contains(allowed, strings.ToLower(filepath.Ext(f.Name()))) {
				continue
			}
			jobs = append(jobs, importJob{
				Path:        filepath.Join(root, d.Name(), f.Name()),
				PersonID:    personID,
				DisplayName: displayName,
			})
		}
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency := max(mustGetInt(cmd, "concurrency"), 1)
	limit := mustGetInt(cmd, "limit")

	jobs, err := collectImportJobs(args[0], mustGetStringSlice(cmd, "ext"))
	if err != nil {
		return err
	}
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	if len(jobs) == 0 {
		fmt.Println("No images found")
		return nil
	}

	ctx := context.Background()
	cfg := loadConfig(cmd)

	svc, err := openService(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Printf("Images to import: %d\n\n", len(jobs))

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var successCount int
	var failures []string
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(j importJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := importOne(ctx, svc, cfg.Web.RequestTimeout, j)

			mu.Lock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", j.Path, err))
			} else {
				successCount++
			}
			mu.Unlock()
			bar.Add(1)
		}(job)
	}

	wg.Wait()
	fmt.Println()

	sort.Strings(failures)
	for _, f := range failures {
		fmt.Printf("  failed %s\n", f)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nCompleted: %d enrolled, %d errors\n", successCount, len(failures))
	fmt.Printf("Total entries: %d (%d subjects)\n", stats.Entries, stats.Subjects)

	if successCount == 0 {
		return errors.New("no image was enrolled")
	}
	return nil
}

// importOne enrolls a single image with its own timeout.
func importOne(ctx context.Context, svc *recognition.Service, timeout time.Duration, j importJob) error {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err = svc.EnrollImage(ctx, j.PersonID, j.DisplayName, data)
	return err
}
