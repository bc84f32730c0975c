// Package backend is the HTTP client of the external Spartakiad REST API.
//
// The backend owns persistence and the authoritative point computation; this
// client only reads listings and forwards new results. Calls are sequential
// and honor ctx for cancellation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/pkg/logger"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "http://localhost:8000/api"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Outcomes reported to the Observer.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
	observe Observer
}

// New creates a client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SportTypes lists the sport events.
func (c *Client) SportTypes(ctx context.Context) ([]model.SportType, error) {
	const op = "backend.SportTypes"
	var out []sportTypeDTO
	if err := c.do(ctx, op, http.MethodGet, "/competitions/sport-types/", nil, nil, &out); err != nil {
		return nil, err
	}
	res := make([]model.SportType, len(out))
	for i, d := range out {
		res[i] = d.toModel()
	}
	return res, nil
}

// Performances lists the results of one sport, optionally filtered by gender.
func (c *Client) Performances(ctx context.Context, q model.ResultsQuery) ([]model.Performance, error) {
	const op = "backend.Performances"
	var out []performanceDTO
	if err := c.do(ctx, op, http.MethodGet, "/results/competition-results/", filterQuery(&q.SportTypeID, q.Gender), nil, &out); err != nil {
		return nil, err
	}
	res := make([]model.Performance, len(out))
	for i, d := range out {
		res[i] = d.toModel()
	}
	return res, nil
}

// FacultySportRating returns the faculty rating of one sport (or of all
// sports when sportTypeID is nil), optionally for one gender.
func (c *Client) FacultySportRating(ctx context.Context, sportTypeID *int64, gender model.Gender) ([]model.FacultyRating, error) {
	const op = "backend.FacultySportRating"
	var out []ratingDTO
	if err := c.do(ctx, op, http.MethodGet, "/results/faculty-sport-rating/", filterQuery(sportTypeID, gender), nil, &out); err != nil {
		return nil, err
	}
	return ratings(out), nil
}

// SpartakiadRating returns the overall faculty standings.
func (c *Client) SpartakiadRating(ctx context.Context) ([]model.FacultyRating, error) {
	const op = "backend.SpartakiadRating"
	var out []ratingDTO
	if err := c.do(ctx, op, http.MethodGet, "/results/spartakiada-rating/", nil, nil, &out); err != nil {
		return nil, err
	}
	return ratings(out), nil
}

// FindOrCreateStudent resolves a student by faculty and full name, creating
// the record when it does not exist.
func (c *Client) FindOrCreateStudent(ctx context.Context, q model.StudentQuery) (model.Student, error) {
	const op = "backend.FindOrCreateStudent"
	in := studentRequestDTO{
		FacultyAbbreviation: q.FacultyAbbreviation,
		FullName:            q.FullName,
		Gender:              string(q.Gender),
	}
	var out studentResponseDTO
	if err := c.do(ctx, op, http.MethodPost, "/students/find-or-create/", nil, in, &out); err != nil {
		return model.Student{}, err
	}
	return model.Student{
		ID:          out.StudentID,
		Name:        out.StudentName,
		FacultyID:   out.FacultyID,
		FacultyName: out.FacultyName,
		Created:     out.Created,
	}, nil
}

// CompetitionBySport returns the active competition of a sport.
func (c *Client) CompetitionBySport(ctx context.Context, sportTypeID int64) (model.Competition, error) {
	const op = "backend.CompetitionBySport"
	var out competitionDTO
	path := "/competitions/by-sport/" + strconv.FormatInt(sportTypeID, 10)
	if err := c.do(ctx, op, http.MethodGet, path, nil, nil, &out); err != nil {
		return model.Competition{}, err
	}
	return model.Competition{
		ID:          out.ID,
		Name:        out.Name,
		SportTypeID: out.SportTypeID,
		Date:        out.Date,
		Location:    out.Location,
	}, nil
}

// Judges lists the judges assigned to a sport.
func (c *Client) Judges(ctx context.Context, sportTypeID int64) ([]model.Judge, error) {
	const op = "backend.Judges"
	var out []judgeDTO
	q := url.Values{"sport_type_id": {strconv.FormatInt(sportTypeID, 10)}}
	if err := c.do(ctx, op, http.MethodGet, "/students/judges/", q, nil, &out); err != nil {
		return nil, err
	}
	res := make([]model.Judge, len(out))
	for i, d := range out {
		res[i] = model.Judge{ID: d.ID, UserID: d.UserID, Name: d.Name, SportTypeID: d.SportTypeID}
	}
	return res, nil
}

// CreatePerformance records a result and returns the new performance id.
func (c *Client) CreatePerformance(ctx context.Context, p model.NewPerformance) (int64, error) {
	const op = "backend.CreatePerformance"
	in := newPerformanceDTO{
		StudentID:      p.StudentID,
		SportTypeID:    p.SportTypeID,
		CompetitionID:  p.CompetitionID,
		JudgeID:        p.JudgeID,
		OriginalResult: p.OriginalResult,
	}
	if p.TimeResult != "" {
		in.TimeResult = &p.TimeResult
	}
	var out createdPerformanceDTO
	if err := c.do(ctx, op, http.MethodPost, "/results/performances/", nil, in, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// DeletePerformance removes a recorded result.
func (c *Client) DeletePerformance(ctx context.Context, id int64) error {
	const op = "backend.DeletePerformance"
	path := "/results/performances/" + strconv.FormatInt(id, 10)
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, nil)
}

// do performs one request. A nil in sends no body; a nil out discards the
// response body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	start := time.Now()
	ctx, requestID := withRequestID(ctx)
	defer func() {
		took := time.Since(start)
		if c.observe != nil {
			c.observe(op, outcome(err), took)
		}
		if err != nil {
			c.log.Warn(ctx, "backend call failed",
				logger.String("op", op),
				logger.Duration("took", took),
				logger.Error(err),
			)
			return
		}
		c.log.Debug(ctx, "backend call",
			logger.String("op", op),
			logger.Duration("took", took),
		)
	}()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Status: resp.StatusCode, Detail: errorDetail(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %w", op, ErrUnavailable, err)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrRejected):
		return OutcomeRejected
	default:
		return OutcomeUnavailable
	}
}

func filterQuery(sportTypeID *int64, gender model.Gender) url.Values {
	q := url.Values{}
	if sportTypeID != nil && *sportTypeID > 0 {
		q.Set("sport_type_id", strconv.FormatInt(*sportTypeID, 10))
	}
	if gender != model.GenderAny {
		q.Set("gender", string(gender))
	}
	return q
}

// errorDetail extracts the message of an error body shaped {"detail": ...},
// where detail is either a string or a list of {"msg": ...} items.
func errorDetail(raw []byte) string {
	detail := gjson.GetBytes(raw, "detail")
	if !gjson.ValidBytes(raw) || !detail.Exists() {
		return strings.TrimSpace(string(raw))
	}

	switch {
	case detail.Type == gjson.String:
		return detail.Str
	case detail.Type == gjson.Null:
		return ""
	case detail.IsArray():
		var msgs []string
		for _, m := range detail.Get("#.msg").Array() {
			if msg := m.String(); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	default:
		return detail.Raw
	}
}
