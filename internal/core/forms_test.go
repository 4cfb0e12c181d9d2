package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMortalityForm() MortalityForm {
	return MortalityForm{
		Country:         "France",
		NewCases:        50,
		Deaths:          2,
		Density:         120,
		GDP:             2.9e12,
		Population:      67000000,
		FullyVaccinated: 50000000,
		ICU:             5,
	}
}

func TestMortalityFormValidate(t *testing.T) {
	req, err := validMortalityForm().Validate()
	require.NoError(t, err)
	assert.Equal(t, "France", req.Country)
	assert.Equal(t, 50, req.NewCases)

	tests := []struct {
		name  string
		edit  func(*MortalityForm)
		field string
	}{
		{"missing country", func(f *MortalityForm) { f.Country = "  " }, "country"},
		{"zero cases", func(f *MortalityForm) { f.NewCases = 0 }, "newCases"},
		{"deaths above cases", func(f *MortalityForm) { f.Deaths = 60 }, "deaths"},
		{"icu above cases", func(f *MortalityForm) { f.ICU = 51 }, "icu"},
		{"zero population", func(f *MortalityForm) { f.Population = 0 }, "population"},
		{"vaccinated above population", func(f *MortalityForm) { f.FullyVaccinated = 68000000 }, "fullyVaccinated"},
		{"negative density", func(f *MortalityForm) { f.Density = -1 }, "density"},
		{"negative gdp", func(f *MortalityForm) { f.GDP = -1 }, "gdp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validMortalityForm()
			tt.edit(&form)
			_, err := form.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestMortalityDeathsAboveCasesNamesBothValues(t *testing.T) {
	form := validMortalityForm()
	form.Deaths = 60
	_, err := form.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Deaths (60) cannot exceed new cases (50)")
}

func TestHospitalizationFormValidate(t *testing.T) {
	form := HospitalizationForm{Country: "Italy", NewCases: 100, Deaths: 5, Recovered: 80, Population: 59000000}
	req, err := form.Validate()
	require.NoError(t, err)
	assert.Equal(t, int64(59000000), req.Population)

	form.Recovered = 101
	_, err = form.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "recovered", verr.Field)

	form.Recovered = 0
	form.Deaths = 101
	_, err = form.Validate()
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "deaths", verr.Field)
}

func TestNewCasesFormValidate(t *testing.T) {
	form := NewCasesForm{Country: "Spain", CurrentCases: 0, Population: 47000000, VaccinationRate: 80, Horizon: 14}
	_, err := form.Validate()
	require.NoError(t, err)

	form.VaccinationRate = 100.5
	_, err = form.Validate()
	assert.Error(t, err)

	form.VaccinationRate = 50
	form.Horizon = 10
	_, err = form.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "horizon", verr.Field)
}

func TestFormMachineTransitions(t *testing.T) {
	m := NewFormMachine()
	assert.Equal(t, FormIdle, m.State())

	assert.ErrorIs(t, m.Transition(FormSubmitting), ErrInvalidTransition)
	require.NoError(t, m.Transition(FormValidating))
	require.NoError(t, m.Transition(FormSubmitting))
	assert.ErrorIs(t, m.Transition(FormIdle), ErrInvalidTransition)
	require.NoError(t, m.Transition(FormSuccess))
	require.NoError(t, m.Transition(FormIdle))
}

func TestFormMachineRunReturnsToIdle(t *testing.T) {
	m := NewFormMachine()
	submitted := false

	err := m.Run(func() error { return &ValidationError{Field: "x", Message: "bad"} }, func() error {
		submitted = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, submitted)
	assert.Equal(t, FormIdle, m.State())

	boom := errors.New("boom")
	err = m.Run(func() error { return nil }, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, FormIdle, m.State())

	err = m.Run(func() error { return nil }, func() error {
		submitted = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, FormIdle, m.State())
}

func TestFormMachineRejectsConcurrentSubmission(t *testing.T) {
	m := NewFormMachine()
	err := m.Run(func() error { return nil }, func() error {
		return m.Run(func() error { return nil }, func() error { return nil })
	})
	assert.ErrorIs(t, err, ErrFormBusy)
	assert.Equal(t, FormIdle, m.State())
}
