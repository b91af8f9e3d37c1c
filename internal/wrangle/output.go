package wrangle

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/sunwrangle/sunwrangle-cli/internal/melanoma"
	"github.com/sunwrangle/sunwrangle-cli/internal/utils"
	"github.com/sunwrangle/sunwrangle-cli/internal/uvindex"
)

// Output file names, written under the configured output directory.
const (
	FileMonthly     = "uv_monthly_by_year.csv"
	FileClimatology = "uv_climatology_selected_years.csv"
	FileStateMetric = "uv_state_metric.csv"
	FileRatesYearly = "melanoma_rates_state_2017_2021.csv"
	FileRatesMean   = "melanoma_rates_state_5yr_mean.csv"
	FileScatter     = "uv_melanoma_scatter.csv"
)

// formatFloat renders values the shortest way that round-trips, so means like
// 3.0 come out as "3" and 15.333333333333334 keeps full precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeMonthly(path string, monthly []uvindex.CityMonthly) error {
	rows := make([][]string, 0, len(monthly))
	for _, m := range monthly {
		rows = append(rows, []string{
			m.City,
			strconv.Itoa(m.Year),
			strconv.Itoa(m.Month),
			formatFloat(m.Value),
		})
	}
	return writeCSV(path, []string{"city", "year", "month", "mean_daily_max_uvi"}, rows)
}

func writeClimatology(path string, clim []uvindex.Climatology) error {
	rows := make([][]string, 0, len(clim))
	for _, c := range clim {
		rows = append(rows, []string{
			c.City,
			strconv.Itoa(c.Month),
			formatFloat(c.Value),
		})
	}
	return writeCSV(path, []string{"city", "month", "mean_daily_max_uvi_clim"}, rows)
}

func writeStateMetric(path string, locs []LocationMetric) error {
	rows := make([][]string, 0, len(locs))
	for _, l := range locs {
		rows = append(rows, []string{
			l.StateCode,
			l.StateName,
			l.Capital,
			formatFloat(l.AnnualMean),
			strconv.Itoa(l.PeakMonth),
			formatFloat(l.PeakValue),
		})
	}
	header := []string{"state_code", "state_name", "capital", "annual_mean_uvi", "peak_month", "peak_uvi"}
	return writeCSV(path, header, rows)
}

func writeRatesYearly(path string, records []melanoma.StatRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.StateCode,
			r.StateName,
			strconv.Itoa(r.Year),
			formatFloat(r.Rate),
			strconv.Itoa(r.Count),
		})
	}
	return writeCSV(path, []string{"state_code", "state_name", "year", "asr_per_100k", "count"}, rows)
}

func writeRatesMean(path string, summaries []melanoma.RegionSummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.StateCode,
			s.StateName,
			formatFloat(s.RateMean),
			strconv.Itoa(s.CountSum),
		})
	}
	return writeCSV(path, []string{"state_code", "state_name", "asr_2017_2021_mean", "count_sum"}, rows)
}

func writeScatter(path string, joined []JoinedRecord) error {
	rows := make([][]string, 0, len(joined))
	for _, j := range joined {
		rows = append(rows, []string{
			j.StateCode,
			j.StateName,
			formatFloat(j.AnnualMean),
			formatFloat(j.RateMean),
			strconv.Itoa(j.CountSum),
		})
	}
	header := []string{"state_code", "state_name", "annual_mean_uvi", "asr_2017_2021_mean", "count_sum"}
	return writeCSV(path, header, rows)
}
