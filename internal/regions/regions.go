// Package regions holds the fixed lookup tables that tie UV monitoring sites
// to Australian states and territories. The tables are configuration-like
// constants: they are initialized once and never mutated, and every accessor
// returns copies so callers cannot alter them.
package regions

import "sort"

// Capital describes one monitored capital city and the state it stands in for.
// ARPANSA publishes each city's UV series as a CKAN package on data.gov.au;
// FileLabel is the city name used inside resource file names, which differs
// from the city for Hobart (its detector is sited at Kingston).
type Capital struct {
	City      string
	FileLabel string
	Package   string
	StateCode string
	StateName string
}

var capitals = map[string]Capital{
	"Adelaide":  {City: "Adelaide", FileLabel: "Adelaide", Package: "ultraviolet-radiation-index-adelaide", StateCode: "SA", StateName: "South Australia"},
	"Brisbane":  {City: "Brisbane", FileLabel: "Brisbane", Package: "ultraviolet-radiation-index-brisbane", StateCode: "QLD", StateName: "Queensland"},
	"Canberra":  {City: "Canberra", FileLabel: "Canberra", Package: "ultraviolet-radiation-index-canberra", StateCode: "ACT", StateName: "Australian Capital Territory"},
	"Darwin":    {City: "Darwin", FileLabel: "Darwin", Package: "ultraviolet-radiation-index-darwin", StateCode: "NT", StateName: "Northern Territory"},
	"Hobart":    {City: "Hobart", FileLabel: "Kingston", Package: "ultraviolet-radiation-index-kingston", StateCode: "TAS", StateName: "Tasmania"},
	"Melbourne": {City: "Melbourne", FileLabel: "Melbourne", Package: "ultraviolet-radiation-index-melbourne", StateCode: "VIC", StateName: "Victoria"},
	"Perth":     {City: "Perth", FileLabel: "Perth", Package: "ultraviolet-radiation-index-perth", StateCode: "WA", StateName: "Western Australia"},
	"Sydney":    {City: "Sydney", FileLabel: "Sydney", Package: "ultraviolet-radiation-index-sydney", StateCode: "NSW", StateName: "New South Wales"},
}

var nameToCode = map[string]string{
	"New South Wales":              "NSW",
	"Victoria":                     "VIC",
	"Queensland":                   "QLD",
	"South Australia":              "SA",
	"Western Australia":            "WA",
	"Tasmania":                     "TAS",
	"Northern Territory":           "NT",
	"Australian Capital Territory": "ACT",
}

// Capitals returns all monitored capitals sorted by city name.
func Capitals() []Capital {
	out := make([]Capital, 0, len(capitals))
	for _, c := range capitals {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// ByCity looks up a capital by its city name.
func ByCity(city string) (Capital, bool) {
	c, ok := capitals[city]
	return c, ok
}

// CodeForStateName maps a full state/territory name to its code.
// The second result is false for unrecognized names, including the
// country-level "Australia" aggregate.
func CodeForStateName(name string) (string, bool) {
	code, ok := nameToCode[name]
	return code, ok
}
