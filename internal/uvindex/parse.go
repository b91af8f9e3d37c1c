package uvindex

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Plausible physical range for a UV index. Samples outside it are instrument
// noise and are dropped, never clamped.
const (
	minPlausibleUV = 0.0
	maxPlausibleUV = 25.0
)

// Column-name candidates in priority order, compared after normalization
// (lowercase, punctuation stripped). The lists cover every header variant seen
// in the published ARPANSA files.
var (
	valueCandidates = []string{
		"uvindex", "uv_index", "uv", "uvi", "uv1min", "uvindex1min", "uvindexminute",
	}
	timeCandidates = []string{
		"utctime", "utc", "timestamp", "datetime", "datetimeutc", "date_time", "datetimelocal",
		"date", "time", "datetimeaest", "datetimeaedt", "datetimeacst", "datetimeawst",
		"datetimeawdt", "datetimeacdt",
	}
)

var normRe = regexp.MustCompile(`[^a-z0-9_]+`)

// SchemaError reports a raw table whose header cannot be mapped to a value
// and timestamp column. Data of unknown shape is unsafe to aggregate, so this
// aborts the run instead of being skipped.
type SchemaError struct {
	Missing string   // "value", "timestamp", or "value and timestamp"
	Header  []string // original column names, for diagnostics
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("cannot locate %s column; header was: %s", e.Missing, strings.Join(e.Header, ", "))
}

// timeLayouts are tried in order. Day-first layouts come before month-first
// because the source data is Australian.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/01/2006 15:04",
	"2/1/2006 15:04",
	"02/01/2006",
	"01/02/2006 15:04",
}

// ParseSeriesCSV parses one raw time-series table into readings.
//
// Decoding never fails: the blob is treated as UTF-8 (with an optional BOM),
// falling back to a lossy Latin-1 decode for legacy files. Individual rows
// with unparseable timestamps, non-numeric values, or values outside the
// plausible UV range are silently dropped. Only an unresolvable header
// produces an error (a *SchemaError).
func ParseSeriesCSV(content []byte) ([]Reading, error) {
	r := csv.NewReader(strings.NewReader(decodeTable(content)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Missing: "value and timestamp", Header: nil}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	valueIdx, timeIdx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var out []Reading
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Ragged or quoted-badly rows: skip, keep reading.
			continue
		}
		if valueIdx >= len(rec) || timeIdx >= len(rec) {
			continue
		}
		at, ok := parseTimestamp(rec[timeIdx])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueIdx]), 64)
		if err != nil || v < minPlausibleUV || v > maxPlausibleUV {
			continue
		}
		out = append(out, Reading{At: at, Value: v})
	}
	return out, nil
}

// decodeTable converts a raw blob to a string without ever raising a decode
// error: UTF-8 input (BOM stripped) passes through, anything else gets a
// permissive Latin-1 interpretation.
func decodeTable(b []byte) string {
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO 8859-1 maps every byte; this is unreachable in practice.
		return string(b)
	}
	return string(decoded)
}

// resolveColumns finds the value and timestamp column indexes in a header.
// Exact candidate matches win; otherwise the first column whose normalized
// name starts with "uv" (value) or contains "time"/"date" (timestamp) is used.
func resolveColumns(header []string) (valueIdx, timeIdx int, err error) {
	norm := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeName(h)
		norm[i] = n
		if _, seen := index[n]; !seen {
			index[n] = i
		}
	}

	valueIdx = -1
	for _, cand := range valueCandidates {
		if i, ok := index[cand]; ok {
			valueIdx = i
			break
		}
	}
	if valueIdx < 0 {
		for i, n := range norm {
			if strings.HasPrefix(n, "uv") {
				valueIdx = i
				break
			}
		}
	}

	timeIdx = -1
	for _, cand := range timeCandidates {
		if i, ok := index[cand]; ok {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		for i, n := range norm {
			if strings.Contains(n, "time") || strings.Contains(n, "date") {
				timeIdx = i
				break
			}
		}
	}

	switch {
	case valueIdx < 0 && timeIdx < 0:
		return 0, 0, &SchemaError{Missing: "value and timestamp", Header: header}
	case valueIdx < 0:
		return 0, 0, &SchemaError{Missing: "value", Header: header}
	case timeIdx < 0:
		return 0, 0, &SchemaError{Missing: "timestamp", Header: header}
	}
	return valueIdx, timeIdx, nil
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	return normRe.ReplaceAllString(s, "")
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
