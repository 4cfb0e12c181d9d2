package core

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
)

const PredictionFallback = "Prediction failed, please retry"

// Form names, also used as the kind column of recorded runs.
const (
	FormMortality          = "mortality"
	FormHospitalization    = "hospitalization"
	FormHospitalizationCSV = "hospitalization_csv"
	FormNewCases           = "new_cases"
	FormTemporal           = "temporal"
)

// PredictionBackend is the prediction endpoint group of the API client.
type PredictionBackend interface {
	Mortality(ctx context.Context, req model.MortalityRequest) (model.MortalityResponse, error)
	Hospitalization(ctx context.Context, req model.HospitalizationRequest) (model.HospitalizationResponse, error)
	HospitalizationCSV(ctx context.Context, filename string, content []byte, country string) (model.HospitalizationResponse, error)
	Temporal(ctx context.Context, req model.TemporalRequest) (model.SeriesResponse, error)
	NewCases(ctx context.Context, req model.NewCasesRequest) (model.SeriesResponse, error)
}

// PredictionError is a submission the backend rejected or never answered.
// Message is what the form displays.
type PredictionError struct {
	Form    string
	Message string
	Err     error
}

func (e *PredictionError) Error() string { return e.Message }

func (e *PredictionError) Unwrap() error { return e.Err }

type PredictionService struct {
	backend  PredictionBackend
	recorder repository.PredictionRecorder
	notifier notify.Notifier
	logger   *logger.Logger
	forms    map[string]*FormMachine
}

// NewPredictionService builds the service. recorder may be nil, which turns
// off run recording.
func NewPredictionService(
	backend PredictionBackend,
	recorder repository.PredictionRecorder,
	notifier notify.Notifier,
	log *logger.Logger,
) *PredictionService {
	forms := make(map[string]*FormMachine)
	for _, name := range []string{FormMortality, FormHospitalization, FormHospitalizationCSV, FormNewCases, FormTemporal} {
		forms[name] = NewFormMachine()
	}
	return &PredictionService{
		backend:  backend,
		recorder: recorder,
		notifier: notifier,
		logger:   log.With("component", "predictions"),
		forms:    forms,
	}
}

// FormState reports where the named form currently is.
func (s *PredictionService) FormState(form string) FormState {
	if m, ok := s.forms[form]; ok {
		return m.State()
	}
	return FormIdle
}

func (s *PredictionService) PredictMortality(ctx context.Context, form MortalityForm) (model.PredictionResult, error) {
	var (
		req    model.MortalityRequest
		result model.PredictionResult
	)
	err := s.forms[FormMortality].Run(
		func() (err error) {
			req, err = form.Validate()
			return err
		},
		func() error {
			resp, err := s.backend.Mortality(ctx, req)
			if err != nil {
				return s.failed(ctx, FormMortality, req.Country, req, err)
			}
			result = model.NewRateResult(countryOr(resp.Country, req.Country), resp.MortalityRate)
			s.succeeded(ctx, FormMortality, req.Country, req, result)
			return nil
		},
	)
	return result, err
}

func (s *PredictionService) PredictHospitalization(ctx context.Context, form HospitalizationForm) (model.PredictionResult, error) {
	var (
		req    model.HospitalizationRequest
		result model.PredictionResult
	)
	err := s.forms[FormHospitalization].Run(
		func() (err error) {
			req, err = form.Validate()
			return err
		},
		func() error {
			resp, err := s.backend.Hospitalization(ctx, req)
			if err != nil {
				return s.failed(ctx, FormHospitalization, req.Country, req, err)
			}
			result = hospitalizationResult(resp, req.Country)
			s.succeeded(ctx, FormHospitalization, req.Country, req, result)
			return nil
		},
	)
	return result, err
}

// PredictHospitalizationCSV submits an upload only once its preview parsed.
func (s *PredictionService) PredictHospitalizationCSV(ctx context.Context, filename string, content []byte, country string) (model.PredictionResult, error) {
	var result model.PredictionResult
	country = strings.TrimSpace(country)
	err := s.forms[FormHospitalizationCSV].Run(
		func() error {
			if country == "" {
				return invalid("country", "Please select a country")
			}
			_, err := PreviewCSV(filename, content, HospitalizationCSVHeaders)
			return err
		},
		func() error {
			run := map[string]string{"filename": filename, "pays": country}
			resp, err := s.backend.HospitalizationCSV(ctx, filename, content, country)
			if err != nil {
				return s.failed(ctx, FormHospitalizationCSV, country, run, err)
			}
			result = hospitalizationResult(resp, country)
			s.succeeded(ctx, FormHospitalizationCSV, country, run, result)
			return nil
		},
	)
	return result, err
}

func (s *PredictionService) PredictNewCases(ctx context.Context, form NewCasesForm) (model.PredictionResult, error) {
	var (
		req    model.NewCasesRequest
		result model.PredictionResult
	)
	err := s.forms[FormNewCases].Run(
		func() (err error) {
			req, err = form.Validate()
			return err
		},
		func() error {
			resp, err := s.backend.NewCases(ctx, req)
			if err != nil {
				return s.failed(ctx, FormNewCases, req.Country, req, err)
			}
			result = model.NewSeriesResult(countryOr(resp.Pays, countryOr(resp.Country, req.Country)), resp.ModelType, SeriesFromResponse(resp, req.Horizon))
			s.succeeded(ctx, FormNewCases, req.Country, req, result)
			return nil
		},
	)
	return result, err
}

func (s *PredictionService) PredictTemporal(ctx context.Context, form TemporalForm, producer DatasetProducer) (model.PredictionResult, error) {
	var (
		req    model.TemporalRequest
		result model.PredictionResult
	)
	err := s.forms[FormTemporal].Run(
		func() (err error) {
			req, err = BuildTemporalRequest(form, producer)
			return err
		},
		func() error {
			resp, err := s.backend.Temporal(ctx, req)
			if err != nil {
				return s.failed(ctx, FormTemporal, req.Country, req, err)
			}
			modelType := resp.ModelType
			if modelType == "" {
				modelType = req.ModelType
			}
			result = model.NewSeriesResult(countryOr(resp.Country, req.Country), modelType, SeriesFromResponse(resp, req.Horizon))
			s.succeeded(ctx, FormTemporal, req.Country, req, result)
			return nil
		},
	)
	return result, err
}

// SeriesFromResponse pairs each predicted value with its date and, when the
// backend sent one, its confidence band.
func SeriesFromResponse(resp model.SeriesResponse, horizon int) model.SeriesPayload {
	dates := resp.PredictionDates
	if len(dates) == 0 {
		dates = resp.Dates
	}
	lower := resp.ConfidenceInterval["lower"]
	upper := resp.ConfidenceInterval["upper"]

	points := make([]model.SeriesPoint, len(resp.Predictions))
	for i, v := range resp.Predictions {
		p := model.SeriesPoint{Value: v}
		if i < len(dates) {
			p.Date = dates[i]
		}
		if i < len(lower) {
			l := lower[i]
			p.Lower = &l
		}
		if i < len(upper) {
			u := upper[i]
			p.Upper = &u
		}
		points[i] = p
	}
	if horizon <= 0 {
		horizon = len(points)
	}
	return model.SeriesPayload{Horizon: horizon, Points: points, Metrics: resp.Metrics}
}

func hospitalizationResult(resp model.HospitalizationResponse, country string) model.PredictionResult {
	return model.NewCountResult(countryOr(resp.Country, country), int64(math.Round(resp.Hospitalizations)))
}

func countryOr(got, fallback string) string {
	if strings.TrimSpace(got) != "" {
		return got
	}
	return fallback
}

func (s *PredictionService) failed(ctx context.Context, form, country string, request interface{}, err error) error {
	msg := PredictionFallback
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		msg = apiErr.Detail
	}
	s.logger.Warn("Prediction failed", "form", form, "country", country, "error", err)
	s.record(ctx, repository.PredictionRun{Kind: form, Country: country, Request: request, Error: msg})
	return &PredictionError{Form: form, Message: msg, Err: err}
}

func (s *PredictionService) succeeded(ctx context.Context, form, country string, request interface{}, result model.PredictionResult) {
	s.logger.Info("Prediction computed", "form", form, "country", country, "kind", result.Kind)
	s.notifier.Success("Prediction computed successfully", result.Summary())
	s.record(ctx, repository.PredictionRun{Kind: form, Country: country, Request: request, Result: result})
}

func (s *PredictionService) record(ctx context.Context, run repository.PredictionRun) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordPrediction(ctx, run); err != nil {
		s.logger.Error("Failed to record prediction run", "form", run.Kind, "error", err)
	}
}
