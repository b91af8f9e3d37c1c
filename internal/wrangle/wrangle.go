// Package wrangle runs the end-to-end aggregation: UV-index series per
// capital city are reduced to monthly climatology and a per-state exposure
// metric, melanoma incidence statistics are filtered from the AIHW workbook,
// and the two sides are joined on state code. All results land as CSV files
// plus a run manifest in the output directory.
package wrangle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sunwrangle/sunwrangle-cli/internal/fetch"
	"github.com/sunwrangle/sunwrangle-cli/internal/melanoma"
	"github.com/sunwrangle/sunwrangle-cli/internal/regions"
	"github.com/sunwrangle/sunwrangle-cli/internal/utils"
	"github.com/sunwrangle/sunwrangle-cli/internal/uvindex"
)

// Melanoma reporting years are fixed by the AIHW table, independent of the
// configured UV years.
const (
	melanomaFromYear = 2017
	melanomaToYear   = 2021
)

// Fetcher lists and downloads per-city yearly UV resources.
type Fetcher interface {
	ListYearResources(ctx context.Context, packageID, fileLabel string, years []int) ([]fetch.Resource, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Options configures a pipeline run.
type Options struct {
	Years        []int
	OutDir       string
	UVSourceDir  string // when set, read <FileLabel>-<year>.csv from this dir instead of fetching
	WorkbookPath string
	SheetName    string
	HeaderRow    int
	RateStandard string
	SkipMelanoma bool
	Concurrency  int
	Fetcher      Fetcher
}

// Result reports what a run produced. Warnings are non-fatal conditions the
// caller should surface; the run itself still succeeded.
type Result struct {
	RunID        string
	FilesWritten []string
	Warnings     []string
	Locations    int
}

type manifest struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Years        []int     `json:"years"`
	RateStandard string    `json:"rate_standard"`
	Files        []string  `json:"files"`
	Warnings     []string  `json:"warnings"`
}

// Wrangler executes the pipeline described by its options.
type Wrangler struct {
	opts Options
}

// New validates nothing eagerly; Run reports problems as they are hit.
func New(opts Options) *Wrangler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Wrangler{opts: opts}
}

// Run executes the full pipeline. UV retrieval fans out per capital across a
// bounded group; every reduction is commutative, so worker completion order
// never changes the output. A missing workbook downgrades the melanoma half
// to a warning; schema and join-key failures abort the run.
func (w *Wrangler) Run(ctx context.Context) (*Result, error) {
	started := time.Now().UTC()
	res := &Result{RunID: uuid.NewString()}

	if err := utils.EnsureDir(w.opts.OutDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	capitals := regions.Capitals()
	perCity := make([][]uvindex.CityMonthly, len(capitals))
	perCityWarn := make([]string, len(capitals))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(w.opts.Concurrency)
	for i, cap := range capitals {
		i, cap := i, cap
		eg.Go(func() error {
			monthly, warn, err := w.cityMonthly(egCtx, cap)
			if err != nil {
				return err
			}
			perCity[i] = monthly
			perCityWarn[i] = warn
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var monthly []uvindex.CityMonthly
	for i := range capitals {
		if perCityWarn[i] != "" {
			res.Warnings = append(res.Warnings, perCityWarn[i])
			continue
		}
		monthly = append(monthly, perCity[i]...)
		res.Locations++
	}
	// Capitals come pre-sorted by city and each city's rows by (year, month),
	// so the merged slice is already in output order.

	if err := w.writeOut(res, FileMonthly, func(path string) error {
		return writeMonthly(path, monthly)
	}); err != nil {
		return nil, err
	}

	clim := uvindex.ClimatologyProfile(monthly)
	if err := w.writeOut(res, FileClimatology, func(path string) error {
		return writeClimatology(path, clim)
	}); err != nil {
		return nil, err
	}

	locs := locationMetrics(uvindex.SummarizeLocations(clim))
	if err := w.writeOut(res, FileStateMetric, func(path string) error {
		return writeStateMetric(path, locs)
	}); err != nil {
		return nil, err
	}

	if err := w.runMelanoma(res, locs); err != nil {
		return nil, err
	}

	m := manifest{
		RunID:        res.RunID,
		StartedAt:    started,
		FinishedAt:   time.Now().UTC(),
		Years:        w.opts.Years,
		RateStandard: w.opts.RateStandard,
		Files:        res.FilesWritten,
		Warnings:     res.Warnings,
	}
	b, err := utils.PrettyJSON(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := utils.SafeWriteFile(filepath.Join(w.opts.OutDir, "run.json"), b); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return res, nil
}

// runMelanoma executes the statistics half and the join. Skipped entirely on
// request or when the workbook is absent; the UV outputs already written
// stand on their own.
func (w *Wrangler) runMelanoma(res *Result, locs []LocationMetric) error {
	if w.opts.SkipMelanoma {
		res.Warnings = append(res.Warnings, "melanoma stage skipped by request")
		return nil
	}
	if w.opts.WorkbookPath == "" {
		res.Warnings = append(res.Warnings, "no workbook path configured; skipping melanoma stage")
		return nil
	}
	if _, err := os.Stat(w.opts.WorkbookPath); errors.Is(err, fs.ErrNotExist) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("workbook not found at %s; skipping melanoma stage", w.opts.WorkbookPath))
		return nil
	}

	rows, err := melanoma.ReadSheet(w.opts.WorkbookPath, w.opts.SheetName)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}
	records, err := melanoma.FilterIncidence(rows, melanoma.FilterOptions{
		HeaderRow:    w.opts.HeaderRow,
		RateStandard: w.opts.RateStandard,
		FromYear:     melanomaFromYear,
		ToYear:       melanomaToYear,
	})
	if err != nil {
		return fmt.Errorf("filter incidence: %w", err)
	}
	if err := w.writeOut(res, FileRatesYearly, func(path string) error {
		return writeRatesYearly(path, records)
	}); err != nil {
		return err
	}

	summaries := melanoma.SummarizeRegions(records)
	if err := w.writeOut(res, FileRatesMean, func(path string) error {
		return writeRatesMean(path, summaries)
	}); err != nil {
		return err
	}

	joined, err := Join(locs, summaries)
	if err != nil {
		return err
	}
	return w.writeOut(res, FileScatter, func(path string) error {
		return writeScatter(path, joined)
	})
}

func (w *Wrangler) writeOut(res *Result, name string, write func(path string) error) error {
	path := filepath.Join(w.opts.OutDir, name)
	if err := write(path); err != nil {
		return err
	}
	res.FilesWritten = append(res.FilesWritten, path)
	return nil
}

// cityMonthly produces one capital's monthly means. A city with no readings
// for any requested year is reported as a warning, not an error.
func (w *Wrangler) cityMonthly(ctx context.Context, cap regions.Capital) ([]uvindex.CityMonthly, string, error) {
	var readings []uvindex.Reading
	if w.opts.UVSourceDir != "" {
		for _, year := range w.opts.Years {
			path := filepath.Join(w.opts.UVSourceDir, fmt.Sprintf("%s-%d.csv", cap.FileLabel, year))
			content, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, "", fmt.Errorf("read %s: %w", path, err)
			}
			parsed, err := uvindex.ParseSeriesCSV(content)
			if err != nil {
				return nil, "", fmt.Errorf("parse %s: %w", path, err)
			}
			readings = append(readings, parsed...)
		}
	} else {
		if w.opts.Fetcher == nil {
			return nil, "", errors.New("no fetcher configured and no local uv source dir")
		}
		resources, err := w.opts.Fetcher.ListYearResources(ctx, cap.Package, cap.FileLabel, w.opts.Years)
		if err != nil {
			return nil, "", fmt.Errorf("list resources for %s: %w", cap.City, err)
		}
		for _, r := range resources {
			content, err := w.opts.Fetcher.Download(ctx, r.URL)
			if err != nil {
				return nil, "", fmt.Errorf("download %s: %w", r.Name, err)
			}
			parsed, err := uvindex.ParseSeriesCSV(content)
			if err != nil {
				return nil, "", fmt.Errorf("parse %s: %w", r.Name, err)
			}
			readings = append(readings, parsed...)
		}
	}

	if len(readings) == 0 {
		return nil, fmt.Sprintf("no UV data for %s in the requested years; location skipped", cap.City), nil
	}
	daily := uvindex.DailyMaxima(readings)
	means := uvindex.MonthlyMeans(daily)
	monthly := make([]uvindex.CityMonthly, 0, len(means))
	for _, m := range means {
		monthly = append(monthly, uvindex.CityMonthly{City: cap.City, Year: m.Year, Month: m.Month, Value: m.Value})
	}
	return monthly, "", nil
}

// locationMetrics lifts city summaries to their states, sorted descending by
// annual mean so the output table reads sunniest-first.
func locationMetrics(summaries []uvindex.LocationSummary) []LocationMetric {
	out := make([]LocationMetric, 0, len(summaries))
	for _, s := range summaries {
		cap, ok := regions.ByCity(s.City)
		if !ok {
			continue
		}
		out = append(out, LocationMetric{
			StateCode:  cap.StateCode,
			StateName:  cap.StateName,
			Capital:    s.City,
			AnnualMean: s.AnnualMean,
			PeakMonth:  s.PeakMonth,
			PeakValue:  s.PeakValue,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnnualMean > out[j].AnnualMean })
	return out
}
