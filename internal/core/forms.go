package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
)

// ValidationError rejects form input before anything is sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type FormState string

const (
	FormIdle       FormState = "idle"
	FormValidating FormState = "validating"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
	FormError      FormState = "error"
)

var (
	ErrInvalidTransition = errors.New("invalid form transition")
	ErrFormBusy          = errors.New("a submission is already in progress")
)

var formTransitions = map[FormState][]FormState{
	FormIdle:       {FormValidating},
	FormValidating: {FormSubmitting, FormError, FormIdle},
	FormSubmitting: {FormSuccess, FormError},
	FormSuccess:    {FormIdle},
	FormError:      {FormIdle},
}

// FormMachine tracks one prediction form. A finished submission always goes
// back to idle so the form is usable again.
type FormMachine struct {
	mu    sync.Mutex
	state FormState
}

func NewFormMachine() *FormMachine {
	return &FormMachine{state: FormIdle}
}

func (m *FormMachine) State() FormState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *FormMachine) Transition(to FormState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, allowed := range formTransitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}

// Run drives one submission through the machine: validate, then submit,
// then reset to idle whatever the outcome.
func (m *FormMachine) Run(validate func() error, submit func() error) error {
	if err := m.Transition(FormValidating); err != nil {
		return ErrFormBusy
	}
	if err := validate(); err != nil {
		_ = m.Transition(FormError)
		_ = m.Transition(FormIdle)
		return err
	}
	_ = m.Transition(FormSubmitting)
	err := submit()
	if err != nil {
		_ = m.Transition(FormError)
	} else {
		_ = m.Transition(FormSuccess)
	}
	_ = m.Transition(FormIdle)
	return err
}

type MortalityForm struct {
	Country         string  `json:"country"`
	NewCases        int     `json:"newCases"`
	Deaths          int     `json:"deaths"`
	Density         float64 `json:"density"`
	GDP             float64 `json:"gdp"`
	Population      int64   `json:"population"`
	FullyVaccinated int64   `json:"fullyVaccinated"`
	ICU             int     `json:"icu"`
}

func (f MortalityForm) Validate() (model.MortalityRequest, error) {
	country := strings.TrimSpace(f.Country)
	switch {
	case country == "":
		return model.MortalityRequest{}, invalid("country", "Please select a country")
	case f.NewCases <= 0:
		return model.MortalityRequest{}, invalid("newCases", "The number of new cases must be greater than 0")
	case f.Deaths < 0:
		return model.MortalityRequest{}, invalid("deaths", "The number of deaths cannot be negative")
	case f.Deaths > f.NewCases:
		return model.MortalityRequest{}, invalid("deaths", "Deaths (%d) cannot exceed new cases (%d)", f.Deaths, f.NewCases)
	case f.ICU < 0:
		return model.MortalityRequest{}, invalid("icu", "The number of ICU patients cannot be negative")
	case f.ICU > f.NewCases:
		return model.MortalityRequest{}, invalid("icu", "ICU patients (%d) cannot exceed new cases (%d)", f.ICU, f.NewCases)
	case f.Population <= 0:
		return model.MortalityRequest{}, invalid("population", "The population must be greater than 0")
	case f.FullyVaccinated < 0:
		return model.MortalityRequest{}, invalid("fullyVaccinated", "The number of vaccinated people cannot be negative")
	case f.FullyVaccinated > f.Population:
		return model.MortalityRequest{}, invalid("fullyVaccinated", "Vaccinated people (%d) cannot exceed the population (%d)", f.FullyVaccinated, f.Population)
	case f.Density < 0:
		return model.MortalityRequest{}, invalid("density", "The population density cannot be negative")
	case f.GDP < 0:
		return model.MortalityRequest{}, invalid("gdp", "The GDP cannot be negative")
	}
	return model.MortalityRequest{
		NewCases:        f.NewCases,
		Deaths:          f.Deaths,
		Density:         f.Density,
		GDP:             f.GDP,
		Population:      f.Population,
		FullyVaccinated: f.FullyVaccinated,
		ICU:             f.ICU,
		Country:         country,
	}, nil
}

type HospitalizationForm struct {
	Country    string `json:"country"`
	NewCases   int    `json:"newCases"`
	Deaths     int    `json:"deaths"`
	Recovered  int    `json:"recovered"`
	Population int64  `json:"population"`
}

func (f HospitalizationForm) Validate() (model.HospitalizationRequest, error) {
	country := strings.TrimSpace(f.Country)
	switch {
	case country == "":
		return model.HospitalizationRequest{}, invalid("country", "Please select a country")
	case f.NewCases < 0 || f.Deaths < 0 || f.Recovered < 0:
		return model.HospitalizationRequest{}, invalid("newCases", "Counts cannot be negative")
	case f.Deaths > f.NewCases:
		return model.HospitalizationRequest{}, invalid("deaths", "Deaths (%d) cannot exceed new cases (%d)", f.Deaths, f.NewCases)
	case f.Recovered > f.NewCases:
		return model.HospitalizationRequest{}, invalid("recovered", "Recoveries (%d) cannot exceed new cases (%d)", f.Recovered, f.NewCases)
	case f.Population <= 0:
		return model.HospitalizationRequest{}, invalid("population", "The population must be greater than 0")
	}
	return model.HospitalizationRequest{
		Country:    country,
		NewCases:   f.NewCases,
		Deaths:     f.Deaths,
		Recovered:  f.Recovered,
		Population: f.Population,
	}, nil
}

type NewCasesForm struct {
	Country         string  `json:"country"`
	CurrentCases    int     `json:"currentCases"`
	Population      int64   `json:"population"`
	VaccinationRate float64 `json:"vaccinationRate"`
	MobilityIndex   float64 `json:"mobilityIndex"`
	Temperature     float64 `json:"temperature"`
	Horizon         int     `json:"horizon"`
}

func (f NewCasesForm) Validate() (model.NewCasesRequest, error) {
	country := strings.TrimSpace(f.Country)
	switch {
	case country == "":
		return model.NewCasesRequest{}, invalid("country", "Please select a country")
	case f.CurrentCases < 0:
		return model.NewCasesRequest{}, invalid("currentCases", "The number of current cases cannot be negative")
	case f.VaccinationRate < 0 || f.VaccinationRate > 100:
		return model.NewCasesRequest{}, invalid("vaccinationRate", "The vaccination rate must be between 0 and 100")
	case f.Population <= 0:
		return model.NewCasesRequest{}, invalid("population", "The population must be greater than 0")
	case !validHorizon(f.Horizon):
		return model.NewCasesRequest{}, invalid("horizon", "The prediction horizon must be 7 or 14 days")
	}
	return model.NewCasesRequest{
		Country:         country,
		CurrentCases:    f.CurrentCases,
		Population:      f.Population,
		VaccinationRate: f.VaccinationRate,
		MobilityIndex:   f.MobilityIndex,
		Temperature:     f.Temperature,
		Horizon:         f.Horizon,
	}, nil
}

func validHorizon(h int) bool {
	return h == 7 || h == 14
}
