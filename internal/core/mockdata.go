package core

import "time"

var mockMonthly = []MonthlyPoint{
	{Month: "2023-01", NewCases: 1200, Deaths: 45, Recovered: 980},
	{Month: "2023-02", NewCases: 1800, Deaths: 78, Recovered: 1400},
	{Month: "2023-03", NewCases: 2400, Deaths: 120, Recovered: 1950},
	{Month: "2023-04", NewCases: 3100, Deaths: 165, Recovered: 2600},
	{Month: "2023-05", NewCases: 2700, Deaths: 135, Recovered: 2300},
	{Month: "2023-06", NewCases: 2300, Deaths: 98, Recovered: 2100},
	{Month: "2023-07", NewCases: 1900, Deaths: 76, Recovered: 1750},
	{Month: "2023-08", NewCases: 1500, Deaths: 56, Recovered: 1400},
	{Month: "2023-09", NewCases: 1800, Deaths: 67, Recovered: 1650},
	{Month: "2023-10", NewCases: 2100, Deaths: 89, Recovered: 1850},
	{Month: "2023-11", NewCases: 2400, Deaths: 110, Recovered: 2100},
	{Month: "2023-12", NewCases: 2000, Deaths: 85, Recovered: 1800},
}

var mockTopCountries = []CountryStat{
	{ID: 1, Name: "France", Cases: 3245678, Deaths: 154789},
	{ID: 2, Name: "Germany", Cases: 3098765, Deaths: 142567},
	{ID: 3, Name: "Italy", Cases: 2876543, Deaths: 137890},
	{ID: 4, Name: "Spain", Cases: 2654321, Deaths: 128765},
	{ID: 5, Name: "United Kingdom", Cases: 2543210, Deaths: 124321},
}

// MockDashboard is the built-in demo dataset shown when neither the backend
// nor a snapshot is available.
func MockDashboard(now time.Time) DashboardView {
	monthly := make([]MonthlyPoint, len(mockMonthly))
	copy(monthly, mockMonthly)

	top := make([]CountryStat, len(mockTopCountries))
	for i, c := range mockTopCountries {
		c.Mortality = percent(c.Deaths, c.Cases)
		top[i] = c
	}

	return DashboardView{
		Mode:        ModeOffline,
		Banner:      OfflineBanner,
		GeneratedAt: now.UTC(),
		Stats: WeeklyStats{
			NewCases:      2345,
			ActiveCases:   18756,
			RecoveryRate:  92.3,
			MortalityRate: 1.8,
			Trend:         12.5,
			TrendPositive: false,
		},
		Monthly:      monthly,
		TopCountries: top,
	}
}
