package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Success(string, string) {}

func (n *recordingNotifier) Error(_, description string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, description)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, token string) (*Client, *recordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	n := &recordingNotifier{}
	c := New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second}, staticToken(token), n, logger.NewNop())
	return c, n
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"idMaladie": 1, "nomMaladie": "COVID-19"}]`))
	}, "abc123")

	diseases, err := c.Diseases.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
	require.Len(t, diseases, 1)
	assert.Equal(t, "COVID-19", diseases[0].Name)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}, "")

	_, err := c.Regions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientSurfacesDetailOnServerError(t *testing.T) {
	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"DB down"}`))
	}, "")

	_, err := c.Countries.List(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Message(), "DB down")
	assert.Contains(t, n.last(), "DB down")
}

func TestClientFallsBackOnEmptyErrorBody(t *testing.T) {
	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, "")

	err := c.Diseases.Delete(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, FallbackMessage, err.Error())
	assert.Equal(t, FallbackMessage, n.last())
}

func TestClientJoinsValidationDetails(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","nbDeces"],"msg":"field required"}]}`))
	}, "")

	_, err := c.Predictions.Mortality(context.Background(), model.MortalityRequest{})
	require.Error(t, err)
	assert.Equal(t, "nbDeces: field required", err.Error())
}

func TestClientNormalizesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := &recordingNotifier{}
	c := New(Options{BaseURL: url, Timeout: time.Second}, nil, n, logger.NewNop())

	_, err := c.Records.List(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Network())
	assert.Equal(t, FallbackMessage, n.last())
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: 100 * time.Millisecond}, nil, &recordingNotifier{}, logger.NewNop())
	_, err := c.Regions.List(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Network())
	assert.True(t, apiErr.Timeout)
}

func TestRecordsByRegionAndDateRange(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/releves/region/7/range/", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("end_date"))
		_, _ = w.Write([]byte(`[{"idReleve": 1, "dateReleve": "2024-01-05", "nbNouveauCas": 12, "nbGueri": null, "idRegion": 7, "idMaladie": 1}]`))
	}, "")

	records, err := c.Records.ByRegionAndDateRange(context.Background(), 7, model.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 12, records[0].NewCases)
	assert.Equal(t, 0, records[0].Recovered)
}

func TestCountryCreateSendsWireNames(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Suisse", body["nomPays"])
		assert.NotContains(t, body, "idPays")
		body["idPays"] = 9
		_ = json.NewEncoder(w).Encode(body)
	}, "")

	pop := int64(8700000)
	created, err := c.Countries.Create(context.Background(), model.Country{ID: 3, Name: "Suisse", ISOCode: "CHE", Population: &pop})
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)
	require.NotNil(t, created.Population)
	assert.Equal(t, pop, *created.Population)
}

func TestHospitalizationCSVUsesMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "france", r.FormValue("pays"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "data.csv", hdr.Filename)
		assert.Contains(t, string(content), "nbNouveauCas")
		_, _ = w.Write([]byte(`{"pays": "france", "nombre_hospitalisations": 42}`))
	}, "")

	out, err := c.Predictions.HospitalizationCSV(context.Background(), "data.csv", []byte("nbNouveauCas,nbDeces\n1,0\n"), "france")
	require.NoError(t, err)
	assert.Equal(t, float64(42), out.Hospitalizations)
}

func TestPingDoesNotToast(t *testing.T) {
	c, n := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, "")

	assert.Error(t, c.Ping(context.Background()))
	assert.Empty(t, n.last())
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "DB down", MessageOf(&APIError{Status: 500, Detail: "DB down"}, "fallback"))
	assert.Equal(t, "fallback", MessageOf(&APIError{Status: 500}, "fallback"))
	assert.Equal(t, "plain", MessageOf(errors.New("plain"), "fallback"))
}
