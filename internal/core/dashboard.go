package core

import (
	"math"
	"sort"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
)

// TopCountriesLimit is how many countries the dashboard ranks.
const TopCountriesLimit = 5

type MonthlyPoint struct {
	Month     string `json:"date"`
	NewCases  int    `json:"newCases"`
	Deaths    int    `json:"deaths"`
	Recovered int    `json:"recovered"`
}

type WeeklyStats struct {
	NewCases       int     `json:"newCases"`
	PreviousWeek   int     `json:"previousWeek"`
	ActiveCases    int     `json:"activeCases"`
	TotalCases     int     `json:"totalCases"`
	TotalDeaths    int     `json:"totalDeaths"`
	TotalRecovered int     `json:"totalRecovered"`
	RecoveryRate   float64 `json:"recoveryRate"`
	MortalityRate  float64 `json:"mortalityRate"`
	Trend          float64 `json:"trend"`
	// TrendPositive is true when new cases went down week over week.
	TrendPositive bool `json:"trendPositive"`
}

type CountryStat struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Cases     int     `json:"cases"`
	Deaths    int     `json:"deaths"`
	Mortality float64 `json:"mortality"`
}

// GroupByMonth sums records per YYYY-MM, ascending. Months without records
// are absent, as are records whose date is too short to carry a month.
func GroupByMonth(records []model.Record) []MonthlyPoint {
	byMonth := make(map[string]*MonthlyPoint)
	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}
		month := r.Date[:7]
		p, ok := byMonth[month]
		if !ok {
			p = &MonthlyPoint{Month: month}
			byMonth[month] = p
		}
		p.NewCases += r.NewCases
		p.Deaths += r.Deaths
		p.Recovered += r.Recovered
	}

	out := make([]MonthlyPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// ComputeWeeklyStats compares the seven days ending today, (now-7d, now],
// with the seven before, (now-14d, now-7d], at day granularity. Totals and
// rates cover every record given.
func ComputeWeeklyStats(records []model.Record, now time.Time) WeeklyStats {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := today.AddDate(0, 0, -7)
	twoWeeksAgo := today.AddDate(0, 0, -14)

	var stats WeeklyStats
	active := 0
	for _, r := range records {
		stats.TotalCases += r.NewCases
		stats.TotalDeaths += r.Deaths
		stats.TotalRecovered += r.Recovered
		active += r.NewCases - r.Recovered - r.Deaths

		day, ok := r.Day()
		if !ok {
			continue
		}
		switch {
		case day.After(weekAgo) && !day.After(today):
			stats.NewCases += r.NewCases
		case day.After(twoWeeksAgo) && !day.After(weekAgo):
			stats.PreviousWeek += r.NewCases
		}
	}

	if active > 0 {
		stats.ActiveCases = active
	}
	stats.RecoveryRate = percent(stats.TotalRecovered, stats.TotalCases)
	stats.MortalityRate = percent(stats.TotalDeaths, stats.TotalCases)
	if stats.PreviousWeek > 0 {
		stats.Trend = round1(float64(stats.NewCases-stats.PreviousWeek) / float64(stats.PreviousWeek) * 100)
		stats.TrendPositive = stats.NewCases < stats.PreviousWeek
	}
	return stats
}

// TopCountries ranks countries by summed new cases. Every country passed in
// is ranked, with zero counts when none of its regions has records; records
// from regions that are not listed are ignored.
func TopCountries(records []model.Record, regions []model.Region, countries []model.Country, limit int) []CountryStat {
	if limit <= 0 {
		limit = TopCountriesLimit
	}

	regionCountry := make(map[int]int, len(regions))
	for _, r := range regions {
		regionCountry[r.ID] = r.CountryID
	}

	stats := make([]CountryStat, 0, len(countries))
	index := make(map[int]int, len(countries))
	for _, c := range countries {
		if _, dup := index[c.ID]; dup {
			continue
		}
		index[c.ID] = len(stats)
		stats = append(stats, CountryStat{ID: c.ID, Name: c.Name})
	}

	for _, rec := range records {
		countryID, ok := regionCountry[rec.RegionID]
		if !ok {
			continue
		}
		i, ok := index[countryID]
		if !ok {
			continue
		}
		stats[i].Cases += rec.NewCases
		stats[i].Deaths += rec.Deaths
	}

	for i := range stats {
		stats[i].Mortality = percent(stats[i].Deaths, stats[i].Cases)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Cases != stats[j].Cases {
			return stats[i].Cases > stats[j].Cases
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// FilterRecords keeps records dated within [start, end] for the region.
// Empty bounds and a zero region do not filter.
func FilterRecords(records []model.Record, start, end string, regionID int) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if regionID > 0 && r.RegionID != regionID {
			continue
		}
		day := r.Date
		if len(day) > len(model.DateLayout) {
			day = day[:len(model.DateLayout)]
		}
		if start != "" && day < start {
			continue
		}
		if end != "" && day > end {
			continue
		}
		out = append(out, r)
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
