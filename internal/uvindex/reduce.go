package uvindex

import "sort"

// DailyMaxima groups readings by calendar date and keeps the maximum value
// per date. Input ordering is irrelevant; output is sorted by date.
func DailyMaxima(readings []Reading) []DailyMax {
	byDate := make(map[Date]float64, len(readings))
	for _, r := range readings {
		d := Date{Year: r.At.Year(), Month: int(r.At.Month()), Day: r.At.Day()}
		if cur, ok := byDate[d]; !ok || r.Value > cur {
			byDate[d] = r.Value
		}
	}
	out := make([]DailyMax, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, DailyMax{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MonthlyMeans groups daily maxima by (year, month) and averages them. Year
// and month come from each date, so a mean can never mix months.
func MonthlyMeans(daily []DailyMax) []MonthlyMean {
	type key struct{ year, month int }
	type acc struct {
		sum float64
		n   int
	}
	byMonth := make(map[key]*acc)
	for _, d := range daily {
		k := key{year: d.Date.Year, month: d.Date.Month}
		a := byMonth[k]
		if a == nil {
			a = &acc{}
			byMonth[k] = a
		}
		a.sum += d.Value
		a.n++
	}
	out := make([]MonthlyMean, 0, len(byMonth))
	for k, a := range byMonth {
		out = append(out, MonthlyMean{Year: k.year, Month: k.month, Value: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}
