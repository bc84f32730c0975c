// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/spartakiad/internal/adapters/backend"
	"github.com/okian/spartakiad/internal/domain/dedupe"
	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/resultvalue"
	"github.com/okian/spartakiad/internal/domain/scoring"
	"github.com/okian/spartakiad/internal/domain/sport"
	"github.com/okian/spartakiad/internal/domain/standings"
	"github.com/okian/spartakiad/internal/domain/types"
	"github.com/okian/spartakiad/pkg/logger"
	"github.com/okian/spartakiad/pkg/metrics"
)

// Submission outcomes recorded in metrics.
const (
	SubmissionCreated   = "created"
	SubmissionDuplicate = "duplicate"
	SubmissionInvalid   = "invalid"
	SubmissionFailed    = "failed"
)

// Backend is the subset of the external REST API the service calls.
type Backend interface {
	SportTypes(ctx context.Context) ([]model.SportType, error)
	Performances(ctx context.Context, q model.ResultsQuery) ([]model.Performance, error)
	FacultySportRating(ctx context.Context, sportTypeID *int64, gender model.Gender) ([]model.FacultyRating, error)
	SpartakiadRating(ctx context.Context) ([]model.FacultyRating, error)
	FindOrCreateStudent(ctx context.Context, q model.StudentQuery) (model.Student, error)
	CompetitionBySport(ctx context.Context, sportTypeID int64) (model.Competition, error)
	Judges(ctx context.Context, sportTypeID int64) ([]model.Judge, error)
	CreatePerformance(ctx context.Context, p model.NewPerformance) (int64, error)
	DeletePerformance(ctx context.Context, id int64) error
}

// Service implements the API dependencies for the results gateway.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend    Backend
	deduper    dedupe.Deduper
	classifier *sport.Classifier
	points     *scoring.PlacePoints

	// Configuration
	dedupeSize int
	institutes []string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackend sets the backend client.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithDedupeSize sets the size of the submission deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClassifier sets the sport classifier.
func WithClassifier(c *sport.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithPlacePoints sets the place points table used by previews.
func WithPlacePoints(p *scoring.PlacePoints) Option {
	return func(s *Service) {
		if p != nil {
			s.points = p
		}
	}
}

// WithInstitutes sets the faculties accepted by submissions, in their
// canonical spelling.
func WithInstitutes(institutes []string) Option {
	return func(s *Service) {
		var cleaned []string
		for _, inst := range institutes {
			if inst = strings.TrimSpace(inst); inst != "" {
				cleaned = append(cleaned, inst)
			}
		}
		if len(cleaned) > 0 {
			s.institutes = cleaned
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dedupeSize: 10_000,
		institutes: []string{"ИМИТ", "ИЛГИСН", "ФТИ", "МедИН", "ИИИТ"},
		classifier: sport.NewClassifier(),
		points:     scoring.NewPlacePoints(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.backend == nil {
		s.backend = backend.New(backend.WithLogger(s.logger.Named("backend")))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.logger.Info(ctx, "results service started",
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("institutes", len(s.institutes)),
	)
	return nil
}

// Stop shuts the service down. Remembered submission keys are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.deduper = nil
	s.logger.Info(context.Background(), "results service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SportTypes lists the sport types with their classification.
func (s *Service) SportTypes(ctx context.Context) ([]types.SportTypeView, error) {
	const op = "service.SportTypes"
	if err := s.ready(); err != nil {
		return nil, err
	}

	list, err := s.backend.SportTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]types.SportTypeView, len(list))
	for i, st := range list {
		kind := s.classifier.Classify(st)
		views[i] = types.SportTypeView{ID: st.ID, Name: st.Name, TimeBased: kind.TimeBased, Team: kind.Team}
	}
	return views, nil
}

// Standings fetches the results protocol of one sport and ranks it.
func (s *Service) Standings(ctx context.Context, q model.ResultsQuery) (types.Standings, error) {
	const op = "service.Standings"
	if err := s.ready(); err != nil {
		return types.Standings{}, err
	}
	if q.SportTypeID <= 0 {
		return types.Standings{}, invalidField("sport_type_id", "must be a positive integer")
	}

	st, err := s.sportType(ctx, q.SportTypeID)
	if err != nil {
		return types.Standings{}, fmt.Errorf("%s: %w", op, err)
	}
	perfs, err := s.backend.Performances(ctx, q)
	if err != nil {
		return types.Standings{}, fmt.Errorf("%s: %w", op, err)
	}

	kind := s.classifier.Classify(st)
	if st.IsTeam == nil && reportsTeam(perfs) {
		kind.Team = true
	}

	out := standings.FromPerformances(perfs, standings.Params{
		Team:           kind.Team,
		GenderFiltered: q.Gender != model.GenderAny,
		TimeBased:      kind.TimeBased,
	})
	out.SportTypeID = st.ID
	out.SportTypeName = st.Name
	out.Gender = string(q.Gender)

	metrics.RecordStandings(out.Mode, out.Source)
	s.logger.Debug(ctx, "standings computed",
		logger.Int64("sportTypeID", st.ID),
		logger.String("gender", string(q.Gender)),
		logger.String("mode", out.Mode),
		logger.String("source", out.Source),
		logger.Int("performances", len(perfs)),
	)
	return out, nil
}

// Rating returns the faculty rating for a sport and gender. When the
// per-sport table is unavailable it falls back to the gender table, then to
// the overall Spartakiad rating; Scope reports which one answered.
func (s *Service) Rating(ctx context.Context, sportTypeID *int64, gender model.Gender) (types.Rating, error) {
	const op = "service.Rating"
	if err := s.ready(); err != nil {
		return types.Rating{}, err
	}

	if sportTypeID != nil {
		rows, err := s.backend.FacultySportRating(ctx, sportTypeID, gender)
		if err == nil {
			return newRating(sportTypeID, gender, types.RatingScopeSport, rows), nil
		}
		if ctx.Err() != nil {
			return types.Rating{}, fmt.Errorf("%s: %w", op, err)
		}
		s.logger.Warn(ctx, "sport rating unavailable, falling back",
			logger.Int64("sportTypeID", *sportTypeID),
			logger.Error(err),
		)
	}

	if gender != model.GenderAny {
		rows, err := s.backend.FacultySportRating(ctx, nil, gender)
		if err == nil {
			return newRating(nil, gender, types.RatingScopeGender, rows), nil
		}
		if ctx.Err() != nil {
			return types.Rating{}, fmt.Errorf("%s: %w", op, err)
		}
		s.logger.Warn(ctx, "gender rating unavailable, falling back",
			logger.String("gender", string(gender)),
			logger.Error(err),
		)
	}

	rows, err := s.backend.SpartakiadRating(ctx)
	if err != nil {
		return types.Rating{}, fmt.Errorf("%s: %w", op, err)
	}
	return newRating(nil, model.GenderAny, types.RatingScopeOverall, rows), nil
}

// ValidateResult checks one typed-in value and returns it normalized.
func (s *Service) ValidateResult(ctx context.Context, req types.ValidateRequest) (types.ValidatedValue, error) {
	const op = "service.ValidateResult"

	var timeBased bool
	switch {
	case req.TimeBased != nil:
		timeBased = *req.TimeBased
	case req.SportTypeID != nil:
		if err := s.ready(); err != nil {
			return types.ValidatedValue{}, err
		}
		st, err := s.sportType(ctx, *req.SportTypeID)
		if err != nil {
			return types.ValidatedValue{}, fmt.Errorf("%s: %w", op, err)
		}
		timeBased = s.classifier.Classify(st).TimeBased
	default:
		return types.ValidatedValue{}, invalidField("sport_type_id", "sport_type_id or time_based is required")
	}

	n, err := resultvalue.Normalize(req.Value, timeBased)
	if err != nil {
		metrics.RecordValidationFailure(resultvalue.Code(err))
		return types.ValidatedValue{}, err
	}
	return types.ValidatedValue{
		Input:          req.Value,
		TimeBased:      timeBased,
		TimeResult:     n.TimeResult,
		OriginalResult: n.OriginalResult,
		Display:        displayNormalized(n),
	}, nil
}

// Preview ranks typed-in results without touching the backend.
func (s *Service) Preview(_ context.Context, req types.PreviewRequest) types.Preview {
	out := standings.Preview(req, s.points)
	for _, e := range out.Errors {
		metrics.RecordValidationFailure(e.Code)
	}
	return out
}

// SubmitPerformance validates a judge's submission and forwards it through
// the record-creation chain. A submission whose key was already seen is
// acknowledged as a duplicate without calling the backend. An empty key is
// derived from the normalized content.
func (s *Service) SubmitPerformance(ctx context.Context, key string, req types.SubmissionRequest) (types.SubmissionResult, error) {
	const op = "service.SubmitPerformance"
	if err := s.ready(); err != nil {
		return types.SubmissionResult{}, err
	}

	sub, err := s.validateSubmission(req)
	if err != nil {
		metrics.RecordSubmission(SubmissionInvalid)
		return types.SubmissionResult{}, err
	}

	st, err := s.sportType(ctx, sub.SportTypeID)
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	kind := s.classifier.Classify(st)
	if kind.Team {
		metrics.RecordSubmission(SubmissionInvalid)
		return types.SubmissionResult{}, invalidField("sport_type_id", "team results cannot be submitted individually")
	}

	n, err := resultvalue.Normalize(sub.Result, kind.TimeBased)
	if err != nil {
		metrics.RecordValidationFailure(resultvalue.Code(err))
		metrics.RecordSubmission(SubmissionInvalid)
		return types.SubmissionResult{}, err
	}

	sub.IdempotencyKey = strings.TrimSpace(key)
	if sub.IdempotencyKey == "" {
		sub.IdempotencyKey = dedupe.ContentKey(
			sub.Institute, sub.FullName, string(sub.Gender),
			strconv.FormatInt(sub.SportTypeID, 10), displayNormalized(n),
		)
	}

	deduper := s.currentDeduper()
	if deduper == nil {
		return types.SubmissionResult{}, ErrNotStarted
	}
	if deduper.SeenAndRecord(ctx, sub.IdempotencyKey) {
		metrics.RecordSubmission(SubmissionDuplicate)
		s.logger.Debug(ctx, "duplicate submission skipped", logger.String("key", sub.IdempotencyKey))
		return types.SubmissionResult{Duplicate: true, IdempotencyKey: sub.IdempotencyKey}, nil
	}
	metrics.UpdateDedupeSize(deduper.Size())

	res, err := s.forward(ctx, sub, n)
	if err != nil {
		deduper.Unrecord(ctx, sub.IdempotencyKey)
		metrics.UpdateDedupeSize(deduper.Size())
		metrics.RecordSubmission(SubmissionFailed)
		s.logger.Warn(ctx, "submission failed",
			logger.String("key", sub.IdempotencyKey),
			logger.Int64("sportTypeID", sub.SportTypeID),
			logger.Error(err),
		)
		return types.SubmissionResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordSubmission(SubmissionCreated)
	s.logger.Info(ctx, "performance created",
		logger.Int64("performanceID", res.PerformanceID),
		logger.Int64("studentID", res.StudentID),
		logger.Int64("sportTypeID", sub.SportTypeID),
	)
	return res, nil
}

// forward runs find-or-create student, competition lookup, judge lookup and
// record creation in order.
func (s *Service) forward(ctx context.Context, sub model.Submission, n resultvalue.Normalized) (types.SubmissionResult, error) {
	student, err := s.backend.FindOrCreateStudent(ctx, model.StudentQuery{
		FacultyAbbreviation: sub.Institute,
		FullName:            sub.FullName,
		Gender:              sub.Gender,
	})
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("find student: %w", err)
	}

	competition, err := s.backend.CompetitionBySport(ctx, sub.SportTypeID)
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("find competition: %w", err)
	}

	judges, err := s.backend.Judges(ctx, sub.SportTypeID)
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("find judge: %w", err)
	}
	if len(judges) == 0 {
		return types.SubmissionResult{}, ErrNoJudge
	}
	judge := judges[0]

	original := n.OriginalResult
	id, err := s.backend.CreatePerformance(ctx, model.NewPerformance{
		StudentID:      student.ID,
		SportTypeID:    sub.SportTypeID,
		CompetitionID:  competition.ID,
		JudgeID:        judge.ID,
		TimeResult:     n.TimeResult,
		OriginalResult: &original,
	})
	if err != nil {
		return types.SubmissionResult{}, fmt.Errorf("create performance: %w", err)
	}

	return types.SubmissionResult{
		IdempotencyKey: sub.IdempotencyKey,
		PerformanceID:  id,
		StudentID:      student.ID,
		StudentName:    student.Name,
		StudentCreated: student.Created,
		FacultyID:      student.FacultyID,
		CompetitionID:  competition.ID,
		JudgeID:        judge.ID,
		TimeResult:     n.TimeResult,
		OriginalResult: n.OriginalResult,
	}, nil
}

// validateSubmission checks the form fields that do not need the backend.
func (s *Service) validateSubmission(req types.SubmissionRequest) (model.Submission, error) {
	institute, ok := s.canonicalInstitute(req.Institute)
	if !ok {
		return model.Submission{}, invalidField("institute",
			"unknown institute, expected one of "+strings.Join(s.institutes, ", "))
	}

	words := strings.Fields(req.FullName)
	if len(words) < 2 {
		return model.Submission{}, invalidField("full_name", "full name must contain at least two words")
	}

	gender, ok := model.ParseGender(req.Gender)
	if !ok || gender == model.GenderAny {
		return model.Submission{}, invalidField("gender", "gender must be М or Ж")
	}

	if req.SportTypeID <= 0 {
		return model.Submission{}, invalidField("sport_type_id", "must be a positive integer")
	}

	return model.Submission{
		Institute:   institute,
		FullName:    strings.Join(words, " "),
		Gender:      gender,
		SportTypeID: req.SportTypeID,
		Result:      req.Result,
	}, nil
}

func (s *Service) canonicalInstitute(in string) (string, bool) {
	in = strings.TrimSpace(in)
	for _, inst := range s.institutes {
		if strings.EqualFold(inst, in) {
			return inst, true
		}
	}
	return "", false
}

// DeletePerformance removes a recorded result.
func (s *Service) DeletePerformance(ctx context.Context, id int64) error {
	const op = "service.DeletePerformance"
	if err := s.ready(); err != nil {
		return err
	}
	if id <= 0 {
		return invalidField("id", "must be a positive integer")
	}
	if err := s.backend.DeletePerformance(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, "performance deleted", logger.Int64("performanceID", id))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"dedupeSize":     s.dedupeSize,
		"institutes":     len(s.institutes),
		"maxPlacePoints": s.points.ForPlace(1),
	}

	if s.started {
		keys := s.deduper.Size()
		stats["dedupeKeys"] = keys
		metrics.UpdateDedupeSize(keys)
	}

	return stats
}

// Size returns the current number of remembered submission keys.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) currentDeduper() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

// sportType looks a sport type up by id.
func (s *Service) sportType(ctx context.Context, id int64) (model.SportType, error) {
	list, err := s.backend.SportTypes(ctx)
	if err != nil {
		return model.SportType{}, err
	}
	for _, st := range list {
		if st.ID == id {
			return st, nil
		}
	}
	return model.SportType{}, fmt.Errorf("%w: %d", ErrUnknownSportType, id)
}

func reportsTeam(perfs []model.Performance) bool {
	for _, p := range perfs {
		if p.IsTeamSport {
			return true
		}
	}
	return false
}

func newRating(sportTypeID *int64, gender model.Gender, scope string, in []model.FacultyRating) types.Rating {
	rows := make([]types.RatingRow, len(in))
	for i, r := range in {
		rows[i] = types.RatingRow{
			Place:               r.Place,
			FacultyID:           r.FacultyID,
			FacultyName:         r.FacultyName,
			FacultyAbbreviation: r.FacultyAbbreviation,
			TotalPoints:         r.TotalPoints,
		}
	}
	return types.Rating{SportTypeID: sportTypeID, Gender: string(gender), Scope: scope, Rows: rows}
}

func displayNormalized(n resultvalue.Normalized) string {
	if n.TimeResult != "" {
		return n.TimeResult
	}
	return strconv.FormatFloat(n.OriginalResult, 'f', -1, 64)
}

// IsValidation reports whether err is a client input error rather than a
// backend failure.
func IsValidation(err error) bool {
	var ve *resultvalue.ValueError
	return errors.Is(err, ErrInvalidField) || errors.As(err, &ve)
}
