package wrangle

import (
	"fmt"
	"sort"

	"github.com/sunwrangle/sunwrangle-cli/internal/melanoma"
)

// LocationMetric is a city's UV summary lifted to its state, ready to join
// against the melanoma region summaries.
type LocationMetric struct {
	StateCode  string
	StateName  string
	Capital    string
	AnnualMean float64
	PeakMonth  int
	PeakValue  float64
}

// JoinedRecord pairs a state's UV exposure metric with its melanoma burden.
type JoinedRecord struct {
	StateCode  string
	StateName  string
	AnnualMean float64
	RateMean   float64
	CountSum   int
}

// DuplicateKeyError reports a state code appearing more than once on one side
// of the join. Both inputs are keyed uniquely by state; a duplicate means an
// upstream grouping bug, and joining through it would multiply rows.
type DuplicateKeyError struct {
	Side string
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate state code %q in %s input", e.Key, e.Side)
}

// Join inner-joins location metrics with region summaries on state code.
// States present on only one side are dropped. Output is sorted descending by
// annual mean UV so the sunniest states lead.
func Join(locs []LocationMetric, regions []melanoma.RegionSummary) ([]JoinedRecord, error) {
	byCode := make(map[string]melanoma.RegionSummary, len(regions))
	for _, r := range regions {
		if _, dup := byCode[r.StateCode]; dup {
			return nil, &DuplicateKeyError{Side: "region summary", Key: r.StateCode}
		}
		byCode[r.StateCode] = r
	}

	seen := make(map[string]bool, len(locs))
	var out []JoinedRecord
	for _, l := range locs {
		if seen[l.StateCode] {
			return nil, &DuplicateKeyError{Side: "location summary", Key: l.StateCode}
		}
		seen[l.StateCode] = true
		r, ok := byCode[l.StateCode]
		if !ok {
			continue
		}
		out = append(out, JoinedRecord{
			StateCode:  l.StateCode,
			StateName:  l.StateName,
			AnnualMean: l.AnnualMean,
			RateMean:   r.RateMean,
			CountSum:   r.CountSum,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnnualMean > out[j].AnnualMean })
	return out, nil
}
