package core

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// Temporal model types accepted by the backend.
const (
	ModelGRU  = "GRU"
	ModelLSTM = "LSTM"
)

// DatasetProducer yields a 30 day historical window. Every source goes
// through ValidateDataset before submission.
type DatasetProducer interface {
	Produce() (model.HistoricalData, error)
}

var dateColumns = []string{model.SeriesDates, "date", "dateReleve"}

// ManualDataset backs the table editor. It starts as 30 zero days ending the
// day before end.
type ManualDataset struct {
	data model.HistoricalData
}

func NewManualDataset(end time.Time) *ManualDataset {
	d := model.HistoricalData{
		NewCases:         make([]int, model.SeriesLength),
		Deaths:           make([]int, model.SeriesLength),
		Hospitalizations: make([]int, model.SeriesLength),
		ICU:              make([]int, model.SeriesLength),
		Tests:            make([]int, model.SeriesLength),
		Dates:            windowDates(end),
	}
	return &ManualDataset{data: d}
}

// ManualDatasetFrom wraps a table submitted as a whole.
func ManualDatasetFrom(data model.HistoricalData) *ManualDataset {
	return &ManualDataset{data: data}
}

// Set edits one day of one series. Numeric values that do not parse become 0.
func (m *ManualDataset) Set(day int, series, value string) error {
	if day < 0 || day >= len(m.data.Dates) {
		return invalid("day", "Day %d is outside the 1..%d window", day+1, len(m.data.Dates))
	}
	if series == model.SeriesDates {
		m.data.Dates[day] = strings.TrimSpace(value)
		return nil
	}
	values, ok := seriesValues(&m.data, series)
	if !ok {
		return invalid("series", "Unknown series %q", series)
	}
	if day >= len(*values) {
		return invalid(series, "Day %d is outside the series", day+1)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		n = 0
	}
	(*values)[day] = n
	return nil
}

func (m *ManualDataset) Produce() (model.HistoricalData, error) {
	return cloneHistorical(m.data), nil
}

// CSVDataset imports a table with one column per series. Only the last 30
// rows are kept.
type CSVDataset struct {
	Content []byte
}

func (c CSVDataset) Produce() (model.HistoricalData, error) {
	rows, err := readCSV(c.Content)
	if err != nil {
		return model.HistoricalData{}, err
	}
	return seriesFromTable(rows)
}

// XLSXDataset imports the same layout as CSVDataset from a workbook. Sheet
// defaults to the first one.
type XLSXDataset struct {
	Content []byte
	Sheet   string
}

func (x XLSXDataset) Produce() (model.HistoricalData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(x.Content))
	if err != nil {
		return model.HistoricalData{}, &ParseError{Message: fmt.Sprintf("failed to parse Excel file: %v", err)}
	}
	defer f.Close()

	sheet := x.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return model.HistoricalData{}, &ParseError{Message: "Excel file has no sheets"}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return model.HistoricalData{}, &ParseError{Message: fmt.Sprintf("failed to read rows: %v", err)}
	}
	var kept [][]string
	for _, row := range rows {
		blank := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			kept = append(kept, row)
		}
	}
	return seriesFromTable(kept)
}

// SyntheticDataset generates a plausible random walk for demos.
type SyntheticDataset struct {
	End  time.Time
	Base int
	Rand *rand.Rand
}

func (s SyntheticDataset) Produce() (model.HistoricalData, error) {
	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	base := s.Base
	if base <= 0 {
		base = 1000
	}
	end := s.End
	if end.IsZero() {
		end = time.Now()
	}

	d := model.HistoricalData{Dates: windowDates(end)}
	level := float64(base)
	for i := 0; i < model.SeriesLength; i++ {
		weekly := math.Sin(float64(i)/7*math.Pi) * 0.05
		level = math.Max(1, level*(1+rng.Float64()*0.1-0.05+weekly))
		cases := int(math.Round(level))
		d.NewCases = append(d.NewCases, cases)
		d.Deaths = append(d.Deaths, int(math.Round(level*(0.01+rng.Float64()*0.01))))
		hosp := int(math.Round(level * (0.05 + rng.Float64()*0.03)))
		d.Hospitalizations = append(d.Hospitalizations, hosp)
		d.ICU = append(d.ICU, int(math.Round(float64(hosp)*(0.15+rng.Float64()*0.1))))
		d.Tests = append(d.Tests, int(math.Round(level*(8+rng.Float64()*4))))
	}
	return d, nil
}

// ValidateDataset checks the six series before submission: each exactly 30
// long, no negative counts, new cases not all zero, ISO dates.
func ValidateDataset(d model.HistoricalData) error {
	lengths := []struct {
		name string
		n    int
	}{
		{model.SeriesNewCases, len(d.NewCases)},
		{model.SeriesDeaths, len(d.Deaths)},
		{model.SeriesHospitalizations, len(d.Hospitalizations)},
		{model.SeriesICU, len(d.ICU)},
		{model.SeriesTests, len(d.Tests)},
		{model.SeriesDates, len(d.Dates)},
	}
	for _, l := range lengths {
		if l.n != model.SeriesLength {
			return invalid(l.name, "%s must contain exactly %d values, got %d", l.name, model.SeriesLength, l.n)
		}
	}

	for _, name := range model.SeriesNames {
		values, ok := seriesValues(&d, name)
		if !ok {
			continue
		}
		for i, v := range *values {
			if v < 0 {
				return invalid(name, "%s cannot contain negative values (day %d)", name, i+1)
			}
		}
	}

	allZero := true
	for _, v := range d.NewCases {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return invalid(model.SeriesNewCases, "%s cannot be all null", model.SeriesNewCases)
	}

	for i, s := range d.Dates {
		if _, err := time.Parse(model.DateLayout, s); err != nil {
			return invalid(model.SeriesDates, "dates[%d] %q is not an ISO date (YYYY-MM-DD)", i, s)
		}
	}
	return nil
}

type TemporalForm struct {
	Country   string `json:"country"`
	ModelType string `json:"modelType"`
	Horizon   int    `json:"horizon"`
}

// BuildTemporalRequest validates the form and the produced dataset and
// assembles the backend payload.
func BuildTemporalRequest(form TemporalForm, producer DatasetProducer) (model.TemporalRequest, error) {
	country := strings.TrimSpace(form.Country)
	if country == "" {
		return model.TemporalRequest{}, invalid("country", "Please select a country")
	}
	modelType := strings.ToUpper(strings.TrimSpace(form.ModelType))
	if modelType != ModelGRU && modelType != ModelLSTM {
		return model.TemporalRequest{}, invalid("modelType", "The model must be GRU or LSTM")
	}
	if !validHorizon(form.Horizon) {
		return model.TemporalRequest{}, invalid("horizon", "The prediction horizon must be 7 or 14 days")
	}

	data, err := producer.Produce()
	if err != nil {
		return model.TemporalRequest{}, err
	}
	if err := ValidateDataset(data); err != nil {
		return model.TemporalRequest{}, err
	}
	return model.TemporalRequest{
		Country:        country,
		ModelType:      modelType,
		HistoricalData: data,
		Horizon:        form.Horizon,
	}, nil
}

// seriesFromTable reads a header row plus data rows into the six series.
func seriesFromTable(rows [][]string) (model.HistoricalData, error) {
	if len(rows) == 0 {
		return model.HistoricalData{}, &ParseError{Message: "The file is empty"}
	}
	headers := rows[0]
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.TrimSpace(h)] = i
	}

	dateCol := -1
	for _, name := range dateColumns {
		if i, ok := col[name]; ok {
			dateCol = i
			break
		}
	}
	numeric := model.SeriesNames[:len(model.SeriesNames)-1]
	missing := missingColumns(headers, numeric)
	if dateCol < 0 {
		missing = append(missing, model.SeriesDates)
	}
	if len(missing) > 0 {
		return model.HistoricalData{}, &ParseError{Line: 1, Missing: missing}
	}

	data := rows[1:]
	first := 0
	if len(data) > model.SeriesLength {
		first = len(data) - model.SeriesLength
	}

	var d model.HistoricalData
	for i := first; i < len(data); i++ {
		row := data[i]
		line := i + 2
		d.Dates = append(d.Dates, cell(row, dateCol))
		for _, name := range numeric {
			values, _ := seriesValues(&d, name)
			n, err := parseCount(cell(row, col[name]))
			if err != nil {
				return model.HistoricalData{}, &ParseError{Line: line, Message: fmt.Sprintf("%s: %v", name, err)}
			}
			*values = append(*values, n)
		}
	}
	return d, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseCount reads an integer count; blanks are 0 and decimals are rounded.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return int(math.Round(f)), nil
}

func seriesValues(d *model.HistoricalData, name string) (*[]int, bool) {
	switch name {
	case model.SeriesNewCases:
		return &d.NewCases, true
	case model.SeriesDeaths:
		return &d.Deaths, true
	case model.SeriesHospitalizations:
		return &d.Hospitalizations, true
	case model.SeriesICU:
		return &d.ICU, true
	case model.SeriesTests:
		return &d.Tests, true
	}
	return nil, false
}

// windowDates lists the 30 days before end, oldest first.
func windowDates(end time.Time) []string {
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -model.SeriesLength)
	dates := make([]string, model.SeriesLength)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format(model.DateLayout)
	}
	return dates
}

func cloneHistorical(d model.HistoricalData) model.HistoricalData {
	return model.HistoricalData{
		NewCases:         append([]int(nil), d.NewCases...),
		Deaths:           append([]int(nil), d.Deaths...),
		Hospitalizations: append([]int(nil), d.Hospitalizations...),
		ICU:              append([]int(nil), d.ICU...),
		Tests:            append([]int(nil), d.Tests...),
		Dates:            append([]string(nil), d.Dates...),
	}
}
