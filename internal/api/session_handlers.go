package api

import (
	"net/http"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User          model.User `json:"user"`
	Authenticated bool       `json:"authenticated"`
}

type notificationsResponse struct {
	Toasts        []notify.Toast        `json:"toasts"`
	Announcements []notify.Announcement `json:"announcements"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status probes the backend unless the on-demand budget is spent, in which
// case the last known status is returned.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, _ := h.monitor.ProbeNow(r.Context())
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	toasts, announcements := h.notices.Recent()
	h.writeJSON(w, http.StatusOK, notificationsResponse{Toasts: toasts, Announcements: announcements})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.session.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{User: user, Authenticated: true})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.session.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sessionResponse{User: user, Authenticated: true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.session.CurrentUser()
	h.writeJSON(w, http.StatusOK, sessionResponse{User: user, Authenticated: ok})
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.Preferences())
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.session.SetPreferences(r.Context(), prefs); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, prefs)
}
