package wrangle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sunwrangle/sunwrangle-cli/internal/fetch"
	"github.com/sunwrangle/sunwrangle-cli/internal/uvindex"
)

func writeUVFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

const melbourne2023 = `Date-Time,UV-Index
01/01/2023 10:00,3.0
01/01/2023 12:00,5.0
02/01/2023 11:00,1.0
`

const brisbane2023 = `timestamp,uv_index
01/01/2023 10:00,8.0
`

func TestRunLocalDirWithoutWorkbook(t *testing.T) {
	uvDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeUVFixture(t, uvDir, "Melbourne-2023.csv", melbourne2023)
	writeUVFixture(t, uvDir, "Brisbane-2023.csv", brisbane2023)

	w := New(Options{
		Years:        []int{2023},
		OutDir:       outDir,
		UVSourceDir:  uvDir,
		RateStandard: "2001",
	})
	res, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Locations != 2 {
		t.Errorf("expected 2 locations with data, got %d", res.Locations)
	}
	if len(res.FilesWritten) != 3 {
		t.Errorf("expected 3 output files, got %v", res.FilesWritten)
	}

	// Six capitals had no fixture, plus the workbook skip.
	if len(res.Warnings) != 7 {
		t.Errorf("expected 7 warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}
	var workbookWarned bool
	for _, warn := range res.Warnings {
		if strings.Contains(warn, "workbook") {
			workbookWarned = true
		}
	}
	if !workbookWarned {
		t.Errorf("expected a workbook warning in %v", res.Warnings)
	}

	lines := readLines(t, filepath.Join(outDir, FileMonthly))
	want := []string{
		"city,year,month,mean_daily_max_uvi",
		"Brisbane,2023,1,8",
		"Melbourne,2023,1,3",
	}
	if len(lines) != len(want) {
		t.Fatalf("monthly output mismatch: %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("monthly line %d: got %q, want %q", i, lines[i], want[i])
		}
	}

	// Brisbane out-sunnies Melbourne, so the state metric leads with QLD.
	metric := readLines(t, filepath.Join(outDir, FileStateMetric))
	if metric[1] != "QLD,Queensland,Brisbane,8,1,8" {
		t.Errorf("unexpected leading state metric row: %q", metric[1])
	}
	if metric[2] != "VIC,Victoria,Melbourne,3,1,3" {
		t.Errorf("unexpected second state metric row: %q", metric[2])
	}

	var m struct {
		RunID    string   `json:"run_id"`
		Years    []int    `json:"years"`
		Files    []string `json:"files"`
		Warnings []string `json:"warnings"`
	}
	b, err := os.ReadFile(filepath.Join(outDir, "run.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.RunID == "" {
		t.Error("manifest missing run id")
	}
	if len(m.Files) != 3 || len(m.Warnings) != 7 {
		t.Errorf("manifest out of step with result: %+v", m)
	}
}

func TestRunMissingWorkbookFileIsNonFatal(t *testing.T) {
	uvDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeUVFixture(t, uvDir, "Melbourne-2023.csv", melbourne2023)

	w := New(Options{
		Years:        []int{2023},
		OutDir:       outDir,
		UVSourceDir:  uvDir,
		WorkbookPath: filepath.Join(t.TempDir(), "missing.xlsx"),
		RateStandard: "2001",
	})
	res, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.FilesWritten) != 3 {
		t.Errorf("expected UV outputs only, got %v", res.FilesWritten)
	}
	var warned bool
	for _, warn := range res.Warnings {
		if strings.Contains(warn, "workbook not found") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a workbook-not-found warning in %v", res.Warnings)
	}
}

type stubFetcher struct {
	byLabel map[string]string
}

func (s *stubFetcher) ListYearResources(_ context.Context, _, fileLabel string, years []int) ([]fetch.Resource, error) {
	if _, ok := s.byLabel[fileLabel]; !ok {
		return nil, nil
	}
	return []fetch.Resource{{Year: years[0], URL: fileLabel, Name: fmt.Sprintf("%s-%d.csv", fileLabel, years[0])}}, nil
}

func (s *stubFetcher) Download(_ context.Context, url string) ([]byte, error) {
	return []byte(s.byLabel[url]), nil
}

func TestRunFetchMode(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	w := New(Options{
		Years:        []int{2023},
		OutDir:       outDir,
		RateStandard: "2001",
		Fetcher:      &stubFetcher{byLabel: map[string]string{"Brisbane": brisbane2023}},
	})
	res, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Locations != 1 {
		t.Errorf("expected 1 location, got %d", res.Locations)
	}
	lines := readLines(t, filepath.Join(outDir, FileMonthly))
	if len(lines) != 2 || lines[1] != "Brisbane,2023,1,8" {
		t.Errorf("unexpected monthly output: %v", lines)
	}
}

func TestRunAbortsOnUnrecognizableSchema(t *testing.T) {
	uvDir := t.TempDir()
	writeUVFixture(t, uvDir, "Melbourne-2023.csv", "foo,bar\n1,2\n")

	w := New(Options{
		Years:       []int{2023},
		OutDir:      filepath.Join(t.TempDir(), "out"),
		UVSourceDir: uvDir,
	})
	_, err := w.Run(context.Background())
	var schemaErr *uvindex.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}
