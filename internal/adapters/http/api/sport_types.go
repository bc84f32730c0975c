package api

import (
	"context"
	"net/http"

	"github.com/okian/spartakiad/internal/domain/types"
)

// SportTypeDependencies defines the interface for sport type listings.
type SportTypeDependencies interface {
	SportTypes(ctx context.Context) ([]types.SportTypeView, error)
}

// SportTypesHandler handles sport type requests.
type SportTypesHandler struct {
	deps SportTypeDependencies
}

// NewSportTypesHandler creates a new sport types handler.
func NewSportTypesHandler(deps SportTypeDependencies) *SportTypesHandler {
	return &SportTypesHandler{deps: deps}
}

// HandleList handles GET /sport-types requests.
func (h *SportTypesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_sport_types"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	list, err := h.deps.SportTypes(r.Context())
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	if list == nil {
		list = []types.SportTypeView{}
	}
	writeJSON(w, r, http.StatusOK, list)
}
