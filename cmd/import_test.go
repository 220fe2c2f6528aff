package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParsePersonDir(t *testing.T) {
	tests := []struct {
		in       string
		wantID   string
		wantName string
	}{
		{"p1", "p1", "p1"},
		{"p1__Alice", "p1", "Alice"},
		{"jnovak__Jan_Novák", "jnovak", "Jan Novák"},
		{"p2__", "p2", "p2"},
		{"__Nobody", "", "Nobody"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			id, name := parsePersonDir(tc.in)
			if id != tc.wantID || name != tc.wantName {
				t.Errorf("parsePersonDir(%q) = %q, %q; want %q, %q", tc.in, id, name, tc.wantID, tc.wantName)
			}
		})
	}
}

func TestCollectImportJobs(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"p1__Alice/a.jpg",
		"p1__Alice/b.PNG",
		"p1__Alice/notes.txt",
		"p2/x.jpeg",
		".hidden/y.jpg",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Loose files at the root are ignored.
	os.WriteFile(filepath.Join(root, "loose.jpg"), []byte("x"), 0o644)

	jobs, err := collectImportJobs(root, []string{"jpg", ".png", "JPEG"})
	if err != nil {
		t.Fatalf("collectImportJobs failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d: %+v", len(jobs), jobs)
	}
	if jobs[0].PersonID != "p1" || jobs[0].DisplayName != "Alice" || filepath.Base(jobs[0].Path) != "a.jpg" {
		t.Errorf("unexpected first job: %+v", jobs[0])
	}
	if jobs[2].PersonID != "p2" || jobs[2].DisplayName != "p2" {
		t.Errorf("unexpected last job: %+v", jobs[2])
	}
}

func TestParseEmbedding(t *testing.T) {
	tests := []struct {
		in      string
		want    []float32
		wantErr bool
	}{
		{"0.9,0.1,0", []float32{0.9, 0.1, 0}, false},
		{"[1, 2, 3]", []float32{1, 2, 3}, false},
		{"1 -2\t3", []float32{1, -2, 3}, false},
		{"", nil, true},
		{"1,abc", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseEmbedding(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseEmbedding(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("component %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}
