package api

import (
	"net/http"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds CSV and XLSX uploads.
const maxUploadBytes = 10 << 20

// Services groups what the handlers delegate to.
type Services struct {
	Session     *core.Session
	Monitor     *core.Monitor
	Notices     *notify.Center
	Dashboard   *core.DashboardService
	Catalog     *core.Catalog
	Predictions *core.PredictionService
}

type Handler struct {
	session     *core.Session
	monitor     *core.Monitor
	notices     *notify.Center
	dashboard   *core.DashboardService
	catalog     *core.Catalog
	predictions *core.PredictionService
	logger      *logger.Logger
	now         func() time.Time
}

func NewHandler(s Services, log *logger.Logger) *Handler {
	return &Handler{
		session:     s.Session,
		monitor:     s.Monitor,
		notices:     s.Notices,
		dashboard:   s.Dashboard,
		catalog:     s.Catalog,
		predictions: s.Predictions,
		logger:      log.With("component", "http"),
		now:         time.Now,
	}
}

// NewRouter registers every route of the service.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(h.requestLogger)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.Notifications).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(h.requireAuth)

	protected.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/preferences", h.GetPreferences).Methods(http.MethodGet)
	protected.HandleFunc("/preferences", h.UpdatePreferences).Methods(http.MethodPut)

	protected.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)

	protected.HandleFunc("/diseases", h.ListDiseases).Methods(http.MethodGet)
	protected.HandleFunc("/diseases", h.CreateDisease).Methods(http.MethodPost)
	protected.HandleFunc("/diseases/{id:[0-9]+}", h.GetDisease).Methods(http.MethodGet)
	protected.HandleFunc("/diseases/{id:[0-9]+}", h.UpdateDisease).Methods(http.MethodPut)
	protected.HandleFunc("/diseases/{id:[0-9]+}", h.DeleteDisease).Methods(http.MethodDelete)

	protected.HandleFunc("/countries", h.ListCountries).Methods(http.MethodGet)
	protected.HandleFunc("/countries", h.CreateCountry).Methods(http.MethodPost)
	protected.HandleFunc("/countries/{id:[0-9]+}", h.GetCountry).Methods(http.MethodGet)
	protected.HandleFunc("/countries/{id:[0-9]+}", h.UpdateCountry).Methods(http.MethodPut)
	protected.HandleFunc("/countries/{id:[0-9]+}", h.DeleteCountry).Methods(http.MethodDelete)
	protected.HandleFunc("/countries/{id:[0-9]+}/regions", h.ListCountryRegions).Methods(http.MethodGet)

	protected.HandleFunc("/regions", h.ListRegions).Methods(http.MethodGet)
	protected.HandleFunc("/regions", h.CreateRegion).Methods(http.MethodPost)
	protected.HandleFunc("/regions/{id:[0-9]+}", h.GetRegion).Methods(http.MethodGet)
	protected.HandleFunc("/regions/{id:[0-9]+}", h.UpdateRegion).Methods(http.MethodPut)
	protected.HandleFunc("/regions/{id:[0-9]+}", h.DeleteRegion).Methods(http.MethodDelete)

	protected.HandleFunc("/records", h.ListRecords).Methods(http.MethodGet)
	protected.HandleFunc("/records", h.CreateRecord).Methods(http.MethodPost)
	protected.HandleFunc("/records/{id:[0-9]+}", h.GetRecord).Methods(http.MethodGet)
	protected.HandleFunc("/records/{id:[0-9]+}", h.UpdateRecord).Methods(http.MethodPut)
	protected.HandleFunc("/records/{id:[0-9]+}", h.DeleteRecord).Methods(http.MethodDelete)

	protected.HandleFunc("/predictions/mortality", h.PredictMortality).Methods(http.MethodPost)
	protected.HandleFunc("/predictions/hospitalization", h.PredictHospitalization).Methods(http.MethodPost)
	protected.HandleFunc("/predictions/hospitalization/csv", h.PredictHospitalizationCSV).Methods(http.MethodPost)
	protected.HandleFunc("/predictions/hospitalization/template.csv", h.HospitalizationTemplate).Methods(http.MethodGet)
	protected.HandleFunc("/predictions/new-cases", h.PredictNewCases).Methods(http.MethodPost)
	protected.HandleFunc("/predictions/temporal", h.PredictTemporal).Methods(http.MethodPost)

	return cors(r)
}
