package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/sunwrangle/sunwrangle-cli/internal/config"
	"github.com/sunwrangle/sunwrangle-cli/internal/fetch"
	"github.com/sunwrangle/sunwrangle-cli/internal/wrangle"
)

var (
	wrangleYears        string
	wrangleOut          string
	wrangleWorkbook     string
	wrangleRateStandard string
	wrangleUVDir        string
	wrangleSkipMelanoma bool
)

var wrangleCmd = &cobra.Command{
	Use:   "wrangle",
	Short: "Run the full UV/melanoma aggregation pipeline",
	Long: `Wrangle fetches ARPANSA UV-index CSVs for each capital city (or reads them
from --uv-dir), reduces them to monthly means, climatology and per-state
metrics, filters melanoma incidence from the AIHW workbook, and writes the
joined tables plus a run manifest to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		opts, err := wrangleOptions()
		if err != nil {
			return err
		}
		res, err := wrangle.New(opts).Run(cmd.Context())
		if err != nil {
			return err
		}
		for _, warn := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", warn)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrangled %d locations, run %s\n", res.Locations, res.RunID)
		for _, f := range res.FilesWritten {
			fmt.Fprintf(cmd.OutOrStdout(), " - %s\n", f)
		}
		return nil
	},
}

// wrangleOptions merges config with command flags, flags winning.
func wrangleOptions() (wrangle.Options, error) {
	opts := wrangle.Options{
		Years:        cfg.Years,
		OutDir:       cfg.OutDir,
		UVSourceDir:  cfg.UVSourceDir,
		WorkbookPath: cfg.WorkbookPath,
		SheetName:    cfg.SheetName,
		HeaderRow:    cfg.HeaderRow,
		RateStandard: cfg.RateStandard,
		SkipMelanoma: wrangleSkipMelanoma,
		Concurrency:  cfg.FetchConcurrency,
	}
	if wrangleYears != "" {
		years, err := parseYearList(wrangleYears)
		if err != nil {
			return opts, err
		}
		opts.Years = years
	}
	if wrangleOut != "" {
		opts.OutDir = wrangleOut
	}
	if wrangleWorkbook != "" {
		opts.WorkbookPath = wrangleWorkbook
	}
	if wrangleUVDir != "" {
		opts.UVSourceDir = wrangleUVDir
	}
	if wrangleRateStandard != "" {
		if wrangleRateStandard != "2001" && wrangleRateStandard != "2025" {
			return opts, fmt.Errorf("invalid --rate-standard: %s (use 2001 or 2025)", wrangleRateStandard)
		}
		opts.RateStandard = wrangleRateStandard
	}
	if opts.UVSourceDir == "" {
		opts.Fetcher = fetch.NewClient(fetch.Options{
			BaseURL:     cfg.CKANBaseURL,
			Timeout:     time.Duration(cfg.HTTPTimeoutSec) * time.Second,
			RPS:         cfg.RateLimitRPS,
			Burst:       cfg.RateLimitBurst,
			RetryMax:    cfg.RetryMaxAttempts,
			RetryBase:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
			RetryMaxCap: time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		})
	}
	return opts, nil
}

func init() {
	rootCmd.AddCommand(wrangleCmd)
	wrangleCmd.Flags().StringVar(&wrangleYears, "years", "", "comma-separated UV years (default from config)")
	wrangleCmd.Flags().StringVarP(&wrangleOut, "out", "o", "", "output directory (default from config)")
	wrangleCmd.Flags().StringVar(&wrangleWorkbook, "workbook", "", "path to the AIHW statistics workbook")
	wrangleCmd.Flags().StringVar(&wrangleRateStandard, "rate-standard", "", "age-standardisation population (2001 or 2025)")
	wrangleCmd.Flags().StringVar(&wrangleUVDir, "uv-dir", "", "read City-YYYY.csv files from this directory instead of fetching")
	wrangleCmd.Flags().BoolVar(&wrangleSkipMelanoma, "skip-melanoma", false, "skip the melanoma/join stages")
}
