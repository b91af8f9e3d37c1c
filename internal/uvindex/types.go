// Package uvindex turns raw UV-index instrument exports into monthly and
// climatological aggregates.
//
// ARPANSA publishes one CSV per detector per year with minute-level samples.
// Column naming drifts across years and sites ("UV_Index", "UVIndex",
// "Date-Time", "timestamp", ...), and older files are Latin-1 encoded, so
// parsing is deliberately tolerant: rows that cannot be read are dropped,
// only an unrecognizable header is an error.
//
// The aggregation ladder is fixed: minute readings reduce to a daily maximum,
// daily maxima reduce to a monthly mean, and monthly means across the selected
// years reduce to a 12-month climatology per city. Every reduction is a plain
// mean or max, so results never depend on input ordering.
package uvindex

import "time"

// Reading is a single instrument sample.
type Reading struct {
	At    time.Time
	Value float64
}

// Date is a calendar date used as a grouping key.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Before reports whether d sorts before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DailyMax is the maximum reading observed on one date.
type DailyMax struct {
	Date  Date
	Value float64
}

// MonthlyMean is the mean of one month's daily maxima. Year and Month are
// derived from the daily dates, never supplied separately.
type MonthlyMean struct {
	Year  int
	Month int
	Value float64
}

// CityMonthly is a MonthlyMean tagged with the city it was measured in.
type CityMonthly struct {
	City  string
	Year  int
	Month int
	Value float64
}

// Climatology is the mean of a city's monthly values for one calendar month
// across all selected years that have data.
type Climatology struct {
	City  string
	Month int
	Value float64
}

// LocationSummary condenses a city's climatology into an annual mean and the
// peak month. Ties on the peak value resolve to the lowest month number.
type LocationSummary struct {
	City       string
	AnnualMean float64
	PeakMonth  int
	PeakValue  float64
}
