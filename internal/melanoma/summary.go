package melanoma

import "sort"

// RegionSummary aggregates one state's records across all reporting periods.
type RegionSummary struct {
	StateCode string
	StateName string
	RateMean  float64
	CountSum  int
}

// SummarizeRegions groups records by (state code, state name) and emits the
// mean rate and summed count per group, sorted by state code. States with no
// records simply do not appear; nothing is zero-filled.
func SummarizeRegions(records []StatRecord) []RegionSummary {
	type key struct{ code, name string }
	type acc struct {
		rateSum  float64
		countSum int
		n        int
	}
	groups := make(map[key]*acc)
	for _, r := range records {
		k := key{code: r.StateCode, name: r.StateName}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		a.rateSum += r.Rate
		a.countSum += r.Count
		a.n++
	}
	out := make([]RegionSummary, 0, len(groups))
	for k, a := range groups {
		out = append(out, RegionSummary{
			StateCode: k.code,
			StateName: k.name,
			RateMean:  a.rateSum / float64(a.n),
			CountSum:  a.countSum,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StateCode < out[j].StateCode })
	return out
}
