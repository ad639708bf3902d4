// dashboard.go — обработчик агрегатов панели управления.
package handlers

import "net/http"

// DashboardStats — GET /dashboard/stats. Только персонал.
// Все показатели вычисляются на момент вызова.
func (h *APIHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	stats, err := h.dashboard.Stats(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
