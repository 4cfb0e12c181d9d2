package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreflightIsAnsweredWithoutSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodOptions, "/api/dashboard", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/dashboard", "/api/diseases", "/api/auth/me", "/api/preferences"} {
		rec := env.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Authentication required", errorOf(t, rec).Error, path)
	}
	assert.Zero(t, env.backend.count("GET /maladies/"))
}

func TestLoginThenMe(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	rec := env.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body sessionResponse
	decodeBody(t, rec, &body)
	assert.True(t, body.Authenticated)
	assert.Equal(t, "alice", body.User.Username)
}

func TestLoginRequiresCredentials(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username", errorOf(t, rec).Field)
	assert.Zero(t, env.backend.count("POST /token"))
}

func TestLoginRejectedByBackend(t *testing.T) {
	env := newTestEnv(t, routes{
		"POST /token": reply(http.StatusUnauthorized, `{"detail":"Incorrect username or password"}`),
	})

	rec := env.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "nope123"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect username or password", errorOf(t, rec).Error)
	assert.False(t, env.session.IsAuthenticated())
}

func TestRegisterValidatesEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "alice.example.com", "password": "secret1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", errorOf(t, rec).Field)
	assert.Zero(t, env.backend.count("POST /users"))
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	rec := env.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	rec := env.do(http.MethodPut, "/api/preferences", model.Preferences{HighContrast: true, FontSize: model.FontLarge})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/preferences", nil)
	var prefs model.Preferences
	decodeBody(t, rec, &prefs)
	assert.Equal(t, model.Preferences{HighContrast: true, FontSize: model.FontLarge}, prefs)

	rec = env.do(http.MethodPut, "/api/preferences", model.Preferences{FontSize: "huge"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fontSize", errorOf(t, rec).Field)
}

func TestNotificationsListRecentToasts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	rec := env.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body notificationsResponse
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body.Toasts)
	assert.Equal(t, "Login successful", body.Toasts[len(body.Toasts)-1].Title)
	assert.Equal(t, notify.VariantDefault, body.Toasts[len(body.Toasts)-1].Variant)
}

func TestStatusReportsBackendDown(t *testing.T) {
	env := newTestEnv(t, routes{"GET /": reply(http.StatusServiceUnavailable, `{"detail":"maintenance"}`)})

	rec := env.do(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status core.AvailabilityStatus
	decodeBody(t, rec, &status)
	assert.True(t, status.Known)
	assert.False(t, status.Active)
}

func TestPathIDFromRouteVars(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/diseases/7", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	id, err := pathID(req)
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	req = mux.SetURLVars(req, map[string]string{"id": "0"})
	_, err = pathID(req)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "id", vErr.Field)
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := NewHandler(Services{}, logger.NewNop())
	wrapped := h.requestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		field   string
	}{
		{
			name:    "validation",
			err:     &core.ValidationError{Field: "deaths", Message: "too many"},
			status:  http.StatusBadRequest,
			message: "too many",
			field:   "deaths",
		},
		{
			name:    "parse",
			err:     &core.ParseError{Missing: []string{"nbDeces"}},
			status:  http.StatusBadRequest,
			message: "missing required columns: nbDeces",
			field:   "file",
		},
		{
			name:    "busy",
			err:     fmt.Errorf("submit: %w", core.ErrFormBusy),
			status:  http.StatusConflict,
			message: "A submission is already in progress",
		},
		{
			name:    "prediction",
			err:     &core.PredictionError{Form: core.FormMortality, Message: "DB down"},
			status:  http.StatusBadGateway,
			message: "DB down",
		},
		{
			name:    "prediction backend forbidden",
			err:     &core.PredictionError{Form: core.FormMortality, Message: "Forbidden", Err: &apiclient.APIError{Status: http.StatusForbidden, Detail: "Forbidden"}},
			status:  http.StatusForbidden,
			message: "Forbidden",
		},
		{
			name:    "not authenticated",
			err:     core.ErrNotAuthenticated,
			status:  http.StatusUnauthorized,
			message: "Authentication required",
		},
		{
			name:    "backend not found",
			err:     fmt.Errorf("load: %w", &apiclient.APIError{Status: http.StatusNotFound, Detail: "Pays non trouvé"}),
			status:  http.StatusNotFound,
			message: "Pays non trouvé",
		},
		{
			name:    "backend unreachable",
			err:     &apiclient.APIError{Err: errors.New("connection refused")},
			status:  http.StatusBadGateway,
			message: apiclient.FallbackMessage,
		},
		{
			name:    "unknown",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message, field := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login()

	rec := env.do(http.MethodGet, "/api/diseases/abc", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "404"))
}
