package melanoma

import (
	"errors"
	"math"
	"testing"
)

const headerRow = 5

// sheetFixture builds raw sheet rows shaped like the AIHW table: preamble
// rows, a header at index 5, then data rows.
func sheetFixture(extra ...[]string) [][]string {
	rows := [][]string{
		{"Cancer data in Australia"},
		{},
		{"Book 7"},
		{},
		{},
		{
			"Data type", "Cancer group/site", "Year", "Sex", "State or Territory",
			"Count", "Age-standardised rate (2001 Australian Standard Population)",
			"Age-standardised rate (2025 Australian Standard Population)",
		},
	}
	base := [][]string{
		{"Incidence", "Melanoma of the skin", "2019", "Persons", "Victoria", "2900", "38.1", "36.0"},
		{"Incidence", "Melanoma of the skin", "2018", "Persons", "Victoria", "2800", "37.5", "35.2"},
		{"Incidence", "Melanoma of the skin", "2019", "Persons", "Queensland", "4100", "70.2", "66.9"},
		// Excluded: national total, wrong sex, wrong group, wrong data type,
		// year outside the range, malformed rate.
		{"Incidence", "Melanoma of the skin", "2019", "Persons", "Australia", "16000", "54.0", "51.0"},
		{"Incidence", "Melanoma of the skin", "2019", "Males", "Victoria", "1700", "45.0", "42.0"},
		{"Incidence", "Breast cancer", "2019", "Persons", "Victoria", "5100", "65.0", "61.0"},
		{"Mortality", "Melanoma of the skin", "2019", "Persons", "Victoria", "300", "3.5", "3.1"},
		{"Incidence", "Melanoma of the skin", "2016", "Persons", "Victoria", "2700", "36.0", "33.9"},
		{"Incidence", "Melanoma of the skin", "2020", "Persons", "Victoria", "n.p.", "n.p.", "n.p."},
	}
	return append(rows, append(base, extra...)...)
}

func defaultOpts() FilterOptions {
	return FilterOptions{HeaderRow: headerRow, RateStandard: "2001", FromYear: 2017, ToYear: 2021}
}

func TestFilterIncidence(t *testing.T) {
	records, err := FilterIncidence(sheetFixture(), defaultOpts())
	if err != nil {
		t.Fatalf("FilterIncidence: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %#v, want 3", records)
	}
	// Sorted by (state code, year): QLD before VIC, VIC 2018 before 2019.
	if records[0].StateCode != "QLD" || records[0].Year != 2019 {
		t.Fatalf("records[0] = %#v", records[0])
	}
	if records[1].StateCode != "VIC" || records[1].Year != 2018 {
		t.Fatalf("records[1] = %#v", records[1])
	}
	if records[2].StateCode != "VIC" || records[2].Year != 2019 {
		t.Fatalf("records[2] = %#v", records[2])
	}
	if records[2].Rate != 38.1 || records[2].Count != 2900 {
		t.Fatalf("records[2] = %#v", records[2])
	}
	if records[0].StateName != "Queensland" {
		t.Fatalf("records[0] name = %q", records[0].StateName)
	}
}

func TestFilterIncidenceRateStandardSelection(t *testing.T) {
	records, err := FilterIncidence(sheetFixture(), FilterOptions{
		HeaderRow: headerRow, RateStandard: "2025", FromYear: 2017, ToYear: 2021,
	})
	if err != nil {
		t.Fatalf("FilterIncidence: %v", err)
	}
	if records[2].Rate != 36.0 {
		t.Fatalf("rate = %v, want the 2025-standard column", records[2].Rate)
	}
}

func TestFilterIncidenceUnknownStandard(t *testing.T) {
	_, err := FilterIncidence(sheetFixture(), FilterOptions{
		HeaderRow: headerRow, RateStandard: "1999", FromYear: 2017, ToYear: 2021,
	})
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) {
		t.Fatalf("err = %v, want ColumnNotFoundError", err)
	}
	if cnf.Token != "1999" {
		t.Fatalf("token = %q", cnf.Token)
	}
}

func TestFilterIncidenceMissingFixedColumn(t *testing.T) {
	rows := sheetFixture()
	rows[headerRow][4] = "Jurisdiction" // rename the state column
	_, err := FilterIncidence(rows, defaultOpts())
	var cnf *ColumnNotFoundError
	if !errors.As(err, &cnf) {
		t.Fatalf("err = %v, want ColumnNotFoundError", err)
	}
	if cnf.Label != "State or Territory" {
		t.Fatalf("label = %q", cnf.Label)
	}
}

func TestFilterIncidenceUnmappedRegionKeepsEmptyCode(t *testing.T) {
	rows := sheetFixture([]string{
		"Incidence", "Melanoma of the skin", "2019", "Persons", "Norfolk Island", "5", "12.0", "11.0",
	})
	records, err := FilterIncidence(rows, defaultOpts())
	if err != nil {
		t.Fatalf("FilterIncidence: %v", err)
	}
	// Empty code sorts first.
	if records[0].StateCode != "" || records[0].StateName != "Norfolk Island" {
		t.Fatalf("records[0] = %#v, want unmapped region with empty code", records[0])
	}
}

func TestFilterIncidenceHeaderRowOutOfRange(t *testing.T) {
	if _, err := FilterIncidence([][]string{{"only row"}}, defaultOpts()); err == nil {
		t.Fatal("expected error for out-of-range header row")
	}
}

func TestFilterIncidenceFromWorkbook(t *testing.T) {
	path := writeWorkbook(t, sheetFixture())
	rows, err := ReadSheet(path, "Table S7.1")
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	records, err := FilterIncidence(rows, defaultOpts())
	if err != nil {
		t.Fatalf("FilterIncidence: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %#v, want 3", records)
	}
}

func TestSummarizeRegions(t *testing.T) {
	records := []StatRecord{
		{StateCode: "VIC", StateName: "Victoria", Year: 2018, Rate: 10.0, Count: 5},
		{StateCode: "VIC", StateName: "Victoria", Year: 2019, Rate: 20.0, Count: 15},
		{StateCode: "NSW", StateName: "New South Wales", Year: 2019, Rate: 30.0, Count: 7},
	}
	sums := SummarizeRegions(records)
	if len(sums) != 2 {
		t.Fatalf("summaries = %#v", sums)
	}
	if sums[0].StateCode != "NSW" || sums[0].CountSum != 7 {
		t.Fatalf("summaries[0] = %#v", sums[0])
	}
	vic := sums[1]
	if vic.StateCode != "VIC" || math.Abs(vic.RateMean-15.0) > 1e-9 || vic.CountSum != 20 {
		t.Fatalf("summaries[1] = %#v, want rate mean 15.0 and count sum 20", vic)
	}
}

func TestSummarizeRegionsEmptyInput(t *testing.T) {
	if sums := SummarizeRegions(nil); len(sums) != 0 {
		t.Fatalf("summaries = %#v, want none (no zero-filling)", sums)
	}
}
