package api

import (
	"context"
	"net/http"

	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/types"
)

// RatingDependencies defines the interface for faculty ratings.
type RatingDependencies interface {
	Rating(ctx context.Context, sportTypeID *int64, gender model.Gender) (types.Rating, error)
}

// RatingHandler handles rating requests.
type RatingHandler struct {
	deps RatingDependencies
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(deps RatingDependencies) *RatingHandler {
	return &RatingHandler{deps: deps}
}

// HandleGetRating handles GET /rating?sport_type_id=&gender= requests. Both
// filters are optional.
func (h *RatingHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rating"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := queryInt64(r, "sport_type_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	gender, err := queryGender(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	rating, err := h.deps.Rating(r.Context(), id, gender)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	if rating.Rows == nil {
		rating.Rows = []types.RatingRow{}
	}
	writeJSON(w, r, http.StatusOK, rating)
}
