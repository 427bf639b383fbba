package handlers

import (
	"net/http"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/refresh"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
)

// AdminHandler exposes operator actions.
type AdminHandler struct {
	refresher *refresh.Orchestrator
	logger    logging.Logger
}

func NewAdminHandler(refresher *refresh.Orchestrator, log logging.Logger) *AdminHandler {
	return &AdminHandler{refresher: refresher, logger: log}
}

// TriggerRefresh handles POST /api/v1/admin/refresh. The walk runs
// synchronously and returns the full report; callers are expected to be
// operators or cron, not interactive users.
func (h *AdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := h.refresher.RefreshAll(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.logger.Info("refresh triggered over http",
		logging.Int("sources", len(report.Sources)))
	writeJSON(w, http.StatusOK, report)
}
