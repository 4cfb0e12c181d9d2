package model

import "time"

// DateLayout is the ISO date format used by the backend for every record date.
const DateLayout = "2006-01-02"

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Disease struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

type DiseaseInput struct {
	Name string `json:"name"`
}

type Variant struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	DiseaseID int    `json:"diseaseId"`
}

// Country numeric geo fields are nil when the backend sent nothing usable.
type Country struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	ISOCode     string   `json:"isoCode"`
	Population  *int64   `json:"population"`
	ContinentID *int     `json:"continentId,omitempty"`
	Continent   string   `json:"continent,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Area        *float64 `json:"area"`
	Density     *float64 `json:"density"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (c Country) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

type Region struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Code      string   `json:"code,omitempty"`
	CountryID int      `json:"countryId"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Record is one dated observation for a region and disease pair.
type Record struct {
	ID               int    `json:"id"`
	Date             string `json:"date"`
	NewCases         int    `json:"newCases"`
	Deaths           int    `json:"deaths"`
	Recovered        int    `json:"recovered"`
	Hospitalizations int    `json:"hospitalizations"`
	ICUAdmissions    int    `json:"icuAdmissions"`
	TestsPerformed   int    `json:"testsPerformed"`
	VaccinatedCount  int    `json:"vaccinatedCount"`
	Vaccinated       int    `json:"vaccinated"`
	OnVentilator     int    `json:"onVentilator"`
	RegionID         int    `json:"regionId"`
	DiseaseID        int    `json:"diseaseId"`
}

// Day parses the record date. ok is false for anything that is not YYYY-MM-DD.
func (r Record) Day() (time.Time, bool) {
	t, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateRange bounds a record query. Both ends are inclusive ISO dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FontSize values accepted by Preferences.
const (
	FontSmall  = "small"
	FontMedium = "medium"
	FontLarge  = "large"
)

// Preferences are the accessibility settings kept with a session.
type Preferences struct {
	HighContrast bool   `json:"highContrast"`
	FontSize     string `json:"fontSize"`
}

func DefaultPreferences() Preferences {
	return Preferences{FontSize: FontMedium}
}

func (p Preferences) Valid() bool {
	switch p.FontSize {
	case FontSmall, FontMedium, FontLarge:
		return true
	}
	return false
}
