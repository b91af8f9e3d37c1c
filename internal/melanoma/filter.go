package melanoma

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sunwrangle/sunwrangle-cli/internal/regions"
)

// Fixed category triple the extraction is scoped to. The workbook carries
// every cancer group, both incidence and mortality, and per-sex breakdowns;
// only this slice feeds the UV comparison.
const (
	dataTypeIncidence = "Incidence"
	cancerGroupTarget = "Melanoma of the skin"
	sexPersons        = "Persons"
	nationalTotalName = "Australia"

	rateColumnLabel = "Age-standardised rate"
)

// Header labels of the fixed columns in the AIHW sheet.
const (
	colDataType    = "Data type"
	colCancerGroup = "Cancer group/site"
	colSex         = "Sex"
	colYear        = "Year"
	colState       = "State or Territory"
	colCount       = "Count"
)

// StatRecord is one state's melanoma incidence for one reporting year.
// StateCode is empty when the state name has no mapping; such rows survive
// filtering but fall out of the final join.
type StatRecord struct {
	StateCode string
	StateName string
	Year      int
	Rate      float64 // age-standardised rate per 100,000
	Count     int
}

// ColumnNotFoundError reports a required workbook column that could not be
// resolved. Aggregating without it would silently produce garbage, so the
// caller must treat this as fatal.
type ColumnNotFoundError struct {
	Label string
	Token string // extra token the header must also contain, if any
}

func (e *ColumnNotFoundError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("no column matching %q with standard %q in workbook header", e.Label, e.Token)
	}
	return fmt.Sprintf("column %q not found in workbook header", e.Label)
}

// FilterOptions controls the workbook extraction.
type FilterOptions struct {
	HeaderRow    int    // 0-based index of the header row in the sheet
	RateStandard string // "2001" or "2025" Australian Standard Population
	FromYear     int    // inclusive
	ToYear       int    // inclusive
}

// FilterIncidence extracts the melanoma incidence subset from raw sheet rows:
// Incidence / Melanoma of the skin / Persons, reporting years in
// [FromYear, ToYear], the national total row removed, and the rate taken from
// the age-standardised column for the chosen standard. Rows with malformed
// years or numbers are dropped. Output is sorted by (state code, year).
func FilterIncidence(rows [][]string, opts FilterOptions) ([]StatRecord, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow >= len(rows) {
		return nil, fmt.Errorf("header row %d out of range (%d rows in sheet)", opts.HeaderRow, len(rows))
	}
	header := rows[opts.HeaderRow]

	dataType, err := findColumn(header, colDataType)
	if err != nil {
		return nil, err
	}
	group, err := findColumn(header, colCancerGroup)
	if err != nil {
		return nil, err
	}
	sex, err := findColumn(header, colSex)
	if err != nil {
		return nil, err
	}
	year, err := findColumn(header, colYear)
	if err != nil {
		return nil, err
	}
	state, err := findColumn(header, colState)
	if err != nil {
		return nil, err
	}
	count, err := findColumn(header, colCount)
	if err != nil {
		return nil, err
	}
	rate, err := findRateColumn(header, opts.RateStandard)
	if err != nil {
		return nil, err
	}

	var out []StatRecord
	for _, row := range rows[opts.HeaderRow+1:] {
		if dataType >= len(row) || group >= len(row) || sex >= len(row) ||
			year >= len(row) || state >= len(row) || count >= len(row) || rate >= len(row) {
			continue
		}
		if strings.TrimSpace(row[dataType]) != dataTypeIncidence ||
			strings.TrimSpace(row[group]) != cancerGroupTarget ||
			strings.TrimSpace(row[sex]) != sexPersons {
			continue
		}
		name := strings.TrimSpace(row[state])
		if name == "" || name == nationalTotalName {
			continue
		}
		y, ok := parseYear(row[year])
		if !ok || y < opts.FromYear || y > opts.ToYear {
			continue
		}
		r, ok := parseNumber(row[rate])
		if !ok {
			continue
		}
		c, ok := parseNumber(row[count])
		if !ok {
			continue
		}
		code, _ := regions.CodeForStateName(name) // unmapped -> ""
		out = append(out, StatRecord{
			StateCode: code,
			StateName: name,
			Year:      y,
			Rate:      r,
			Count:     int(c),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StateCode != out[j].StateCode {
			return out[i].StateCode < out[j].StateCode
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

// findColumn locates a header cell by exact label after trimming.
func findColumn(header []string, label string) (int, error) {
	for i, h := range header {
		if strings.TrimSpace(h) == label {
			return i, nil
		}
	}
	return 0, &ColumnNotFoundError{Label: label}
}

// findRateColumn locates the age-standardised rate column for the chosen
// standard. The header must contain both the rate label and the standard-year
// token; AIHW ships one column per standard population.
func findRateColumn(header []string, standard string) (int, error) {
	for i, h := range header {
		if strings.Contains(h, rateColumnLabel) && strings.Contains(h, standard) {
			return i, nil
		}
	}
	return 0, &ColumnNotFoundError{Label: rateColumnLabel, Token: standard}
}

// parseYear accepts plain integers and numeric cell text like "2019.0".
func parseYear(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// parseNumber is a tolerant numeric coercion: trims whitespace, drops
// thousands separators, and rejects anything else.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
