package model

import "fmt"

// SeriesLength is the size of the historical window consumed by the temporal models.
const SeriesLength = 30

// Temporal series names, as the backend and the CSV import know them.
const (
	SeriesNewCases         = "nbNouveauCas"
	SeriesDeaths           = "nbDeces"
	SeriesHospitalizations = "nbHospitalisation"
	SeriesICU              = "nbHospiSoinsIntensif"
	SeriesTests            = "nbTeste"
	SeriesDates            = "dates"
)

// SeriesNames lists the six temporal series in payload order.
var SeriesNames = []string{
	SeriesNewCases,
	SeriesDeaths,
	SeriesHospitalizations,
	SeriesICU,
	SeriesTests,
	SeriesDates,
}

type MortalityRequest struct {
	NewCases        int     `json:"nbNouveauCas"`
	Deaths          int     `json:"nbDeces"`
	Density         float64 `json:"densitePopulation"`
	GDP             float64 `json:"PIB"`
	Population      int64   `json:"populationTotale"`
	FullyVaccinated int64   `json:"nbVaccineTotalement"`
	ICU             int     `json:"nbHospiSoinsIntensif"`
	Country         string  `json:"pays"`
}

type MortalityResponse struct {
	Country       string  `json:"pays"`
	MortalityRate float64 `json:"taux_mortalite"`
}

type HospitalizationRequest struct {
	Country    string `json:"pays"`
	NewCases   int    `json:"nbNouveauCas"`
	Deaths     int    `json:"nbDeces"`
	Recovered  int    `json:"nbGueri"`
	Population int64  `json:"populationTotale"`
}

type HospitalizationResponse struct {
	Country          string  `json:"pays"`
	Hospitalizations float64 `json:"nombre_hospitalisations"`
}

type NewCasesRequest struct {
	Country         string  `json:"pays"`
	CurrentCases    int     `json:"nbNouveauCas"`
	Population      int64   `json:"populationTotale"`
	VaccinationRate float64 `json:"tauxVaccination"`
	MobilityIndex   float64 `json:"indiceMobilite"`
	Temperature     float64 `json:"temperature"`
	Horizon         int     `json:"prediction_horizon"`
}

type HistoricalData struct {
	NewCases         []int    `json:"nbNouveauCas"`
	Deaths           []int    `json:"nbDeces"`
	Hospitalizations []int    `json:"nbHospitalisation"`
	ICU              []int    `json:"nbHospiSoinsIntensif"`
	Tests            []int    `json:"nbTeste"`
	Dates            []string `json:"dates"`
}

type TemporalRequest struct {
	Country        string         `json:"country"`
	ModelType      string         `json:"model_type"`
	HistoricalData HistoricalData `json:"historical_data"`
	Horizon        int            `json:"prediction_horizon"`
}

// SeriesResponse covers both the temporal and the new-cases endpoints. The
// temporal endpoint names its dates prediction_dates, older builds use dates.
type SeriesResponse struct {
	Country            string               `json:"country"`
	Pays               string               `json:"pays"`
	ModelType          string               `json:"model_type"`
	Predictions        []float64            `json:"predictions"`
	PredictionDates    []string             `json:"prediction_dates"`
	Dates              []string             `json:"dates"`
	ConfidenceInterval map[string][]float64 `json:"confidence_interval"`
	Metrics            map[string]float64   `json:"metrics"`
}

type PredictionKind string

const (
	KindRate   PredictionKind = "rate"
	KindCount  PredictionKind = "count"
	KindSeries PredictionKind = "series"
)

type RatePayload struct {
	Percent  float64 `json:"percent"`
	Severity string  `json:"severity"`
}

type CountPayload struct {
	Value int64 `json:"value"`
}

type SeriesPoint struct {
	Date  string   `json:"date"`
	Value float64  `json:"value"`
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

type SeriesPayload struct {
	Horizon int                `json:"horizon"`
	Points  []SeriesPoint      `json:"points"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// PredictionResult is a tagged union: exactly one payload matches Kind.
type PredictionResult struct {
	Kind    PredictionKind `json:"kind"`
	Country string         `json:"country"`
	Model   string         `json:"model,omitempty"`
	Rate    *RatePayload   `json:"rate,omitempty"`
	Count   *CountPayload  `json:"count,omitempty"`
	Series  *SeriesPayload `json:"series,omitempty"`
}

func NewRateResult(country string, percent float64) PredictionResult {
	return PredictionResult{
		Kind:    KindRate,
		Country: country,
		Rate:    &RatePayload{Percent: percent, Severity: Severity(percent)},
	}
}

func NewCountResult(country string, value int64) PredictionResult {
	return PredictionResult{Kind: KindCount, Country: country, Count: &CountPayload{Value: value}}
}

func NewSeriesResult(country, modelType string, series SeriesPayload) PredictionResult {
	return PredictionResult{Kind: KindSeries, Country: country, Model: modelType, Series: &series}
}

// Severity buckets a mortality percentage the way the result card colors it.
func Severity(percent float64) string {
	switch {
	case percent < 1:
		return "low"
	case percent < 3:
		return "moderate"
	case percent < 5:
		return "high"
	default:
		return "very_high"
	}
}

// Summary renders a one-line description of the result.
func (r PredictionResult) Summary() string {
	switch r.Kind {
	case KindRate:
		return fmt.Sprintf("%s: predicted mortality rate %.2f%% (%s)", r.Country, r.Rate.Percent, r.Rate.Severity)
	case KindCount:
		return fmt.Sprintf("%s: %d predicted hospitalizations", r.Country, r.Count.Value)
	case KindSeries:
		var total float64
		for _, p := range r.Series.Points {
			total += p.Value
		}
		return fmt.Sprintf("%s: %.0f cases forecast over %d days", r.Country, total, r.Series.Horizon)
	default:
		return fmt.Sprintf("%s: unknown prediction kind %q", r.Country, r.Kind)
	}
}
