package api

import (
	"net/http"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
)

// Dashboard never fails on backend trouble: the view degrades to a snapshot
// or demo data and says so in its mode and banner. Availability is probed
// first, subject to the monitor's on-demand budget.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start, end, regionID, err := rangeParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.monitor.ProbeNow(r.Context())
	view := h.dashboard.Load(r.Context(), core.DashboardQuery{Start: start, End: end, RegionID: regionID})
	if view.Banner != "" {
		h.notices.Announce(view.Banner)
	}
	h.writeJSON(w, http.StatusOK, view)
}
