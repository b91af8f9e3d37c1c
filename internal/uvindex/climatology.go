package uvindex

import "sort"

// ClimatologyProfile averages monthly values across years into one value per
// (city, month). A month present in only some of the selected years is
// averaged over the years that have it; missing months are absent from the
// result, never imputed as zero.
func ClimatologyProfile(monthly []CityMonthly) []Climatology {
	type key struct {
		city  string
		month int
	}
	type acc struct {
		sum float64
		n   int
	}
	byMonth := make(map[key]*acc)
	for _, m := range monthly {
		k := key{city: m.City, month: m.Month}
		a := byMonth[k]
		if a == nil {
			a = &acc{}
			byMonth[k] = a
		}
		a.sum += m.Value
		a.n++
	}
	out := make([]Climatology, 0, len(byMonth))
	for k, a := range byMonth {
		out = append(out, Climatology{City: k.city, Month: k.month, Value: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// SummarizeLocations reduces each city's climatology to an annual mean and
// peak month. The annual mean averages whatever months are present. The peak
// is a stable argmax: scanning months in ascending order and replacing only on
// a strictly greater value makes the lowest month win ties.
func SummarizeLocations(clim []Climatology) []LocationSummary {
	byCity := make(map[string][]Climatology)
	for _, c := range clim {
		byCity[c.City] = append(byCity[c.City], c)
	}
	out := make([]LocationSummary, 0, len(byCity))
	for city, rows := range byCity {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
		var sum float64
		peak := rows[0]
		for _, r := range rows {
			sum += r.Value
			if r.Value > peak.Value {
				peak = r
			}
		}
		out = append(out, LocationSummary{
			City:       city,
			AnnualMean: sum / float64(len(rows)),
			PeakMonth:  peak.Month,
			PeakValue:  peak.Value,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}
