package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/types"
)

const maxPreviewEntries = 1000

// ResultsDependencies defines the interface for results tables and value
// validation.
type ResultsDependencies interface {
	Standings(ctx context.Context, q model.ResultsQuery) (types.Standings, error)
	ValidateResult(ctx context.Context, req types.ValidateRequest) (types.ValidatedValue, error)
	Preview(ctx context.Context, req types.PreviewRequest) types.Preview
}

// ResultsHandler handles results requests.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleGetResults handles GET /results?sport_type_id=&gender= requests.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := queryInt64(r, "sport_type_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if id == nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, errors.New("missing sport_type_id")))
		return
	}
	gender, err := queryGender(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	st, err := h.deps.Standings(r.Context(), model.ResultsQuery{SportTypeID: *id, Gender: gender})
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

// HandleValidate handles POST /results/validate requests.
func (h *ResultsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_result"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.ValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.ValidateResult(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

// HandlePreview handles POST /standings/preview requests.
func (h *ResultsHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview_standings"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.PreviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Entries) > maxPreviewEntries {
		err := fmt.Errorf("too many entries; at most %d allowed", maxPreviewEntries)
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, r, http.StatusOK, h.deps.Preview(r.Context(), req))
}
