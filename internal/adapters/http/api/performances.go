package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/spartakiad/internal/domain/types"
)

// IdempotencyKeyHeader lets a form mark retries of the same submission.
const IdempotencyKeyHeader = "Idempotency-Key"

// PerformanceDependencies defines the interface for result submission.
type PerformanceDependencies interface {
	SubmitPerformance(ctx context.Context, key string, req types.SubmissionRequest) (types.SubmissionResult, error)
	DeletePerformance(ctx context.Context, id int64) error
}

// PerformanceHandler handles performance requests.
type PerformanceHandler struct {
	deps PerformanceDependencies
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(deps PerformanceDependencies) *PerformanceHandler {
	return &PerformanceHandler{deps: deps}
}

// HandleCreate handles POST /performances requests. A new record answers
// 201, a duplicate submission 200.
func (h *PerformanceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_performance"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitPerformance(r.Context(), r.Header.Get(IdempotencyKeyHeader), req)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	w.Header().Set(IdempotencyKeyHeader, res.IdempotencyKey)
	writeJSON(w, r, status, res)
}

// HandleDelete handles DELETE /performances/{id} requests.
func (h *PerformanceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_performance"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/performances/")
	id, err := strconv.ParseInt(path, 10, 64)
	if path == "" || strings.Contains(path, "/") || err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.DeletePerformance(r.Context(), id); err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
