// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/spartakiad/internal/adapters/backend"
	service "github.com/okian/spartakiad/internal/app"
	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/resultvalue"
	"github.com/okian/spartakiad/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Error codes of the JSON error body.
const (
	CodeBadRequest         = "bad_request"
	CodeInvalidField       = "invalid_field"
	CodeNotFound           = "not_found"
	CodeBackendRejected    = "backend_rejected"
	CodeBackendUnavailable = "backend_unavailable"
	CodeInternal           = "internal_error"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SportTypeDependencies
	ResultsDependencies
	RatingDependencies
	PerformanceDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sportTypesHandler  *SportTypesHandler
	resultsHandler     *ResultsHandler
	ratingHandler      *RatingHandler
	performanceHandler *PerformanceHandler
	log                logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger handlers report response failures to.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		sportTypesHandler:  NewSportTypesHandler(deps),
		resultsHandler:     NewResultsHandler(deps),
		ratingHandler:      NewRatingHandler(deps),
		performanceHandler: NewPerformanceHandler(deps),
		log:                logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	s.handle(mux, "/healthz", s.healthHandler.HandleHealth, "healthz")
	s.handle(mux, "/stats", s.statsHandler.HandleStats, "stats")
	s.handle(mux, "/sport-types", s.sportTypesHandler.HandleList, "sport_types")
	s.handle(mux, "/results", s.resultsHandler.HandleGetResults, "results")
	s.handle(mux, "/results/validate", s.resultsHandler.HandleValidate, "results_validate")
	s.handle(mux, "/standings/preview", s.resultsHandler.HandlePreview, "standings_preview")
	s.handle(mux, "/rating", s.ratingHandler.HandleGetRating, "rating")
	s.handle(mux, "/performances", s.performanceHandler.HandleCreate, "performances")
	s.handle(mux, "/performances/", s.performanceHandler.HandleDelete, "performance")
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc, endpoint string) {
	mux.HandleFunc(pattern, MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(logger.ContextWithLogger(r.Context(), s.log)))
	}, endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON encodes v before any header is sent. A value that cannot be
// encoded is logged and answered with a 500 error body instead.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context()).Error(r.Context(), "failed to encode response",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: CodeInternal, Message: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.FromContext(r.Context()).Warn(r.Context(), "failed to write response",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, r, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates errors returned by the service into a status
// and an error code. Validation errors carry their own user-facing message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var statusErr *backend.StatusError
	switch {
	case service.IsValidation(err):
		writeJSON(w, r, http.StatusUnprocessableEntity, validationResponse(err))
	case errors.Is(err, service.ErrUnknownSportType), errors.Is(err, backend.ErrNotFound):
		writeError(w, r, http.StatusNotFound, CodeNotFound, WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNoJudge):
		writeError(w, r, http.StatusUnprocessableEntity, CodeBackendRejected, Wrap(op, err))
	case errors.Is(err, backend.ErrRejected):
		msg := err.Error()
		if errors.As(err, &statusErr) && statusErr.Detail != "" {
			msg = statusErr.Detail
		}
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Code: CodeBackendRejected, Message: msg})
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, CodeBackendUnavailable, Wrap(op, err))
	case errors.Is(err, backend.ErrUnavailable):
		writeError(w, r, http.StatusBadGateway, CodeBackendUnavailable, Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, r, http.StatusServiceUnavailable, CodeInternal, Wrap(op, err))
	default:
		writeError(w, r, http.StatusInternalServerError, CodeInternal, Wrap(op, err))
	}
}

func validationResponse(err error) errorResponse {
	var (
		valueErr *resultvalue.ValueError
		fieldErr *service.FieldError
	)
	switch {
	case errors.As(err, &valueErr):
		return errorResponse{Code: valueErr.Code(), Message: valueErr.Message}
	case errors.As(err, &fieldErr):
		return errorResponse{Code: CodeInvalidField, Message: fieldErr.Message, Field: fieldErr.Field}
	default:
		return errorResponse{Code: CodeInvalidField, Message: err.Error()}
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

// queryInt64 parses an optional positive integer query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, fmt.Errorf("invalid %s; must be a positive integer", name)
	}
	return &v, nil
}

// queryGender parses the optional gender filter.
func queryGender(r *http.Request) (model.Gender, error) {
	g, ok := model.ParseGender(r.URL.Query().Get("gender"))
	if !ok {
		return model.GenderAny, errors.New("invalid gender; must be М or Ж")
	}
	return g, nil
}
