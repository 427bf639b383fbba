package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/application/resolution"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// IntelHandler accepts extracted candidate batches and resolves them
// against the POI register.
type IntelHandler struct {
	resolver *resolution.Service
	logger   logging.Logger
}

func NewIntelHandler(resolver *resolution.Service, log logging.Logger) *IntelHandler {
	return &IntelHandler{resolver: resolver, logger: log}
}

// ResolveResponse wraps the per-candidate outcomes of one submission.
type ResolveResponse struct {
	Results []resolution.ResolveResult `json:"results"`
}

// ResolveCandidates handles POST /api/v1/intel/candidates.
func (h *IntelHandler) ResolveCandidates(w http.ResponseWriter, r *http.Request) {
	var in resolution.ResolveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if len(in.Candidates) == 0 {
		writeAppError(w, errors.New(errors.ErrCodeValidation, "at least one candidate required"))
		return
	}

	results, err := h.resolver.Resolve(r.Context(), &in)
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.logger.Info("candidate batch resolved",
		logging.String("source_type", string(in.SourceType)),
		logging.String("source_id", in.SourceID),
		logging.Int("candidates", len(in.Candidates)),
	)
	writeJSON(w, http.StatusOK, ResolveResponse{Results: results})
}
