package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/spartakiad/internal/adapters/backend"
	service "github.com/okian/spartakiad/internal/app"
	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/resultvalue"
	"github.com/okian/spartakiad/internal/domain/types"
	"github.com/okian/spartakiad/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeBackend is an in-memory Backend with per-call error injection.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	sportTypes []model.SportType
	perfs      []model.Performance
	ratings    map[string][]model.FacultyRating
	judges     []model.Judge
	errs       map[string]error

	created []model.NewPerformance
	deleted []int64
}

func newFakeBackend() *fakeBackend {
	team := true
	return &fakeBackend{
		sportTypes: []model.SportType{
			{ID: 1, Name: "Бег 100 м"},
			{ID: 2, Name: "Шахматы"},
			{ID: 3, Name: "Баскетбол"},
			{ID: 4, Name: "Эстафета", IsTeam: &team},
		},
		ratings: map[string][]model.FacultyRating{},
		judges:  []model.Judge{{ID: 5, Name: "Судья"}, {ID: 6, Name: "Второй"}},
		errs:    map[string]error{},
	}
}

func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeBackend) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) SportTypes(context.Context) ([]model.SportType, error) {
	if err := f.record("SportTypes"); err != nil {
		return nil, err
	}
	return f.sportTypes, nil
}

func (f *fakeBackend) Performances(_ context.Context, _ model.ResultsQuery) ([]model.Performance, error) {
	if err := f.record("Performances"); err != nil {
		return nil, err
	}
	return f.perfs, nil
}

func (f *fakeBackend) FacultySportRating(_ context.Context, id *int64, gender model.Gender) ([]model.FacultyRating, error) {
	call := "GenderRating"
	if id != nil {
		call = "SportRating"
	}
	if err := f.record(call); err != nil {
		return nil, err
	}
	return f.ratings[call+string(gender)], nil
}

func (f *fakeBackend) SpartakiadRating(context.Context) ([]model.FacultyRating, error) {
	if err := f.record("SpartakiadRating"); err != nil {
		return nil, err
	}
	return f.ratings["SpartakiadRating"], nil
}

func (f *fakeBackend) FindOrCreateStudent(_ context.Context, q model.StudentQuery) (model.Student, error) {
	if err := f.record("FindOrCreateStudent"); err != nil {
		return model.Student{}, err
	}
	return model.Student{ID: 7, Name: q.FullName, FacultyID: 1, Created: true}, nil
}

func (f *fakeBackend) CompetitionBySport(_ context.Context, id int64) (model.Competition, error) {
	if err := f.record("CompetitionBySport"); err != nil {
		return model.Competition{}, err
	}
	return model.Competition{ID: 3, SportTypeID: id}, nil
}

func (f *fakeBackend) Judges(context.Context, int64) ([]model.Judge, error) {
	if err := f.record("Judges"); err != nil {
		return nil, err
	}
	return f.judges, nil
}

func (f *fakeBackend) CreatePerformance(_ context.Context, p model.NewPerformance) (int64, error) {
	if err := f.record("CreatePerformance"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	return int64(100 + len(f.created)), nil
}

func (f *fakeBackend) DeletePerformance(_ context.Context, id int64) error {
	if err := f.record("DeletePerformance"); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func startService(fb *fakeBackend, opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithBackend(fb), service.WithLogger(logger.Nop())}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func f64(v float64) *float64 { return &v }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["dedupeSize"], ShouldEqual, 10_000)
			So(svc.GetStats()["institutes"], ShouldEqual, 5)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDedupeSize(25),
			service.WithInstitutes([]string{" ИМИТ ", ""}),
			service.WithDedupeSize(-1),
		)

		Convey("Then valid options should apply and invalid ones be ignored", func() {
			stats := svc.GetStats()
			So(stats["dedupeSize"], ShouldEqual, 25)
			So(stats["institutes"], ShouldEqual, 1)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithBackend(newFakeBackend()), service.WithLogger(logger.Nop()))
		defer svc.Stop()

		Convey("When it is used before starting", func() {
			_, err := svc.SportTypes(context.Background())

			Convey("Then it should report that it is not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["dedupeKeys"], ShouldEqual, int64(0))
			})

			Convey("And stopping should mark it stopped", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_SportTypes(t *testing.T) {
	Convey("Given a backend listing sport types", t, func() {
		svc := startService(newFakeBackend())
		defer svc.Stop()

		views, err := svc.SportTypes(context.Background())

		Convey("Then each sport should be classified", func() {
			So(err, ShouldBeNil)
			So(views, ShouldHaveLength, 4)
			So(views[0], ShouldResemble, types.SportTypeView{ID: 1, Name: "Бег 100 м", TimeBased: true})
			So(views[1].TimeBased, ShouldBeFalse)
			So(views[2].Team, ShouldBeTrue)
			So(views[3].Team, ShouldBeTrue)
		})
	})
}

func TestService_Standings(t *testing.T) {
	Convey("Given a results protocol", t, func() {
		fb := newFakeBackend()
		svc := startService(fb)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When the sport is individual and places are present", func() {
			fb.perfs = []model.Performance{
				{StudentName: "Б", FacultyAbbreviation: "ФТИ", Place: 1, Points: f64(10), TimeResult: "0:00:12.10"},
				{StudentName: "А", FacultyAbbreviation: "ИМИТ", Place: 2, Points: f64(9), TimeResult: "0:00:12.50"},
			}
			st, err := svc.Standings(ctx, model.ResultsQuery{SportTypeID: 1, Gender: model.GenderMale})

			Convey("Then the server order should be kept", func() {
				So(err, ShouldBeNil)
				So(st.Mode, ShouldEqual, types.ModeIndividual)
				So(st.Source, ShouldEqual, types.SourceServer)
				So(st.TimeBased, ShouldBeTrue)
				So(st.SportTypeName, ShouldEqual, "Бег 100 м")
				So(st.Gender, ShouldEqual, "М")
				So(st.Individuals, ShouldHaveLength, 2)
				So(st.Individuals[0].StudentName, ShouldEqual, "Б")
			})
		})

		Convey("When the sport is a team sport with a gender filter", func() {
			fb.perfs = []model.Performance{
				{StudentName: "A1", FacultyID: 1, FacultyAbbreviation: "ИМИТ", Points: f64(8)},
				{StudentName: "B1", FacultyID: 2, FacultyAbbreviation: "ФТИ", Points: f64(10)},
				{StudentName: "A2", FacultyID: 1, FacultyAbbreviation: "ИМИТ", Points: f64(8)},
			}
			st, err := svc.Standings(ctx, model.ResultsQuery{SportTypeID: 3, Gender: model.GenderFemale})

			Convey("Then teams should be recomputed locally", func() {
				So(err, ShouldBeNil)
				So(st.Mode, ShouldEqual, types.ModeTeam)
				So(st.Source, ShouldEqual, types.SourceLocal)
				So(st.Teams, ShouldHaveLength, 2)
				So(st.Teams[0].FacultyAbbreviation, ShouldEqual, "ФТИ")
				So(st.Teams[1].Members, ShouldResemble, []string{"A1", "A2"})
			})
		})

		Convey("When the performances flag a team sport the name does not reveal", func() {
			fb.perfs = []model.Performance{{StudentName: "A", FacultyID: 1, FacultyAbbreviation: "ИМИТ (М)", IsTeamSport: true, Place: 1, Points: f64(10)}}
			st, err := svc.Standings(ctx, model.ResultsQuery{SportTypeID: 2})

			Convey("Then the table should be a team table", func() {
				So(err, ShouldBeNil)
				So(st.Mode, ShouldEqual, types.ModeTeam)
			})
		})

		Convey("When the sport type is unknown", func() {
			_, err := svc.Standings(ctx, model.ResultsQuery{SportTypeID: 42})
			So(errors.Is(err, service.ErrUnknownSportType), ShouldBeTrue)
			So(fb.callCount("Performances"), ShouldEqual, 0)
		})

		Convey("When the sport type id is missing", func() {
			_, err := svc.Standings(ctx, model.ResultsQuery{})
			So(errors.Is(err, service.ErrInvalidField), ShouldBeTrue)
		})

		Convey("When the backend fails", func() {
			fb.errs["Performances"] = backend.ErrUnavailable
			_, err := svc.Standings(ctx, model.ResultsQuery{SportTypeID: 1})
			So(errors.Is(err, backend.ErrUnavailable), ShouldBeTrue)
		})
	})
}

func TestService_Rating(t *testing.T) {
	Convey("Given rating tables", t, func() {
		fb := newFakeBackend()
		fb.ratings["SportRatingЖ"] = []model.FacultyRating{{Place: 1, FacultyAbbreviation: "ФТИ", TotalPoints: 10}}
		fb.ratings["GenderRatingЖ"] = []model.FacultyRating{{Place: 1, FacultyAbbreviation: "ИМИТ", TotalPoints: 50}}
		fb.ratings["SpartakiadRating"] = []model.FacultyRating{{Place: 1, FacultyAbbreviation: "МедИН", TotalPoints: 90}}
		svc := startService(fb)
		defer svc.Stop()
		ctx := context.Background()
		id := int64(1)

		Convey("When the per-sport table answers", func() {
			r, err := svc.Rating(ctx, &id, model.GenderFemale)
			So(err, ShouldBeNil)
			So(r.Scope, ShouldEqual, types.RatingScopeSport)
			So(*r.SportTypeID, ShouldEqual, 1)
			So(r.Rows[0].FacultyAbbreviation, ShouldEqual, "ФТИ")
		})

		Convey("When the per-sport table fails", func() {
			fb.errs["SportRating"] = backend.ErrUnavailable
			r, err := svc.Rating(ctx, &id, model.GenderFemale)

			Convey("Then it should fall back to the gender table", func() {
				So(err, ShouldBeNil)
				So(r.Scope, ShouldEqual, types.RatingScopeGender)
				So(r.SportTypeID, ShouldBeNil)
				So(r.Rows[0].TotalPoints, ShouldEqual, 50)
			})

			Convey("And to the overall rating when that fails too", func() {
				fb.errs["GenderRating"] = backend.ErrNotFound
				r, err := svc.Rating(ctx, &id, model.GenderFemale)
				So(err, ShouldBeNil)
				So(r.Scope, ShouldEqual, types.RatingScopeOverall)
				So(r.Rows[0].FacultyAbbreviation, ShouldEqual, "МедИН")
			})
		})

		Convey("When no filter is given", func() {
			r, err := svc.Rating(ctx, nil, model.GenderAny)
			So(err, ShouldBeNil)
			So(r.Scope, ShouldEqual, types.RatingScopeOverall)
			So(fb.callCount("SportRating"), ShouldEqual, 0)
		})

		Convey("When every table fails", func() {
			fb.errs["SpartakiadRating"] = backend.ErrUnavailable
			_, err := svc.Rating(ctx, nil, model.GenderAny)
			So(errors.Is(err, backend.ErrUnavailable), ShouldBeTrue)
		})
	})
}

func TestService_ValidateResult(t *testing.T) {
	Convey("Given the validation endpoint logic", t, func() {
		svc := startService(newFakeBackend())
		defer svc.Stop()
		ctx := context.Background()

		Convey("When the event kind comes from the sport type", func() {
			id := int64(1)
			v, err := svc.ValidateResult(ctx, types.ValidateRequest{SportTypeID: &id, Value: "1:23.45"})
			So(err, ShouldBeNil)
			So(v.TimeBased, ShouldBeTrue)
			So(v.TimeResult, ShouldEqual, "0:01:23.45")
			So(v.OriginalResult, ShouldAlmostEqual, 83.45, 1e-9)
			So(v.Display, ShouldEqual, "0:01:23.45")
		})

		Convey("When the event kind is given explicitly", func() {
			tb := false
			v, err := svc.ValidateResult(ctx, types.ValidateRequest{TimeBased: &tb, Value: "85.5"})
			So(err, ShouldBeNil)
			So(v.Display, ShouldEqual, "85.5")
			So(v.TimeResult, ShouldBeEmpty)
		})

		Convey("When the value is malformed", func() {
			tb := true
			_, err := svc.ValidateResult(ctx, types.ValidateRequest{TimeBased: &tb, Value: "abc"})
			So(errors.Is(err, resultvalue.ErrInvalidFormat), ShouldBeTrue)
			So(service.IsValidation(err), ShouldBeTrue)
		})

		Convey("When no event kind is given", func() {
			_, err := svc.ValidateResult(ctx, types.ValidateRequest{Value: "1"})
			So(errors.Is(err, service.ErrInvalidField), ShouldBeTrue)
		})
	})
}

func TestService_Preview(t *testing.T) {
	Convey("Given typed-in results", t, func() {
		svc := startService(newFakeBackend())
		defer svc.Stop()

		p := svc.Preview(context.Background(), types.PreviewRequest{
			TimeBased: true,
			Entries: []types.PreviewEntry{
				{Name: "A", Faculty: "ИМИТ", Value: "12.5"},
				{Name: "B", Faculty: "ФТИ", Value: "12.1"},
				{Name: "C", Faculty: "ФТИ", Value: "?"},
			},
		})

		Convey("Then the fastest should be first and invalid entries reported", func() {
			So(p.Rows, ShouldHaveLength, 2)
			So(p.Rows[0].Name, ShouldEqual, "B")
			So(p.Rows[0].Points, ShouldEqual, 10)
			So(p.Errors, ShouldHaveLength, 1)
			So(p.Errors[0].Code, ShouldEqual, "invalid_format")
		})
	})
}

func TestService_SubmitPerformance(t *testing.T) {
	Convey("Given a judge submitting a result", t, func() {
		fb := newFakeBackend()
		svc := startService(fb)
		defer svc.Stop()
		ctx := context.Background()

		req := types.SubmissionRequest{
			Institute:   "имит",
			FullName:    "  Иванов   Иван ",
			Gender:      "M",
			SportTypeID: 1,
			Result:      "1:23.45",
		}

		Convey("When the submission is valid", func() {
			res, err := svc.SubmitPerformance(ctx, "", req)

			Convey("Then the chain should run in order and create the record", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(res.PerformanceID, ShouldEqual, 101)
				So(res.StudentName, ShouldEqual, "Иванов Иван")
				So(res.JudgeID, ShouldEqual, 5)
				So(res.CompetitionID, ShouldEqual, 3)
				So(res.IdempotencyKey, ShouldNotBeEmpty)
				So(fb.created, ShouldHaveLength, 1)
				So(fb.created[0].TimeResult, ShouldEqual, "0:01:23.45")
				So(*fb.created[0].OriginalResult, ShouldAlmostEqual, 83.45, 1e-9)
			})

			Convey("And the same content submitted again should be a duplicate", func() {
				again := req
				again.Result = "83.45"
				again.Institute = "ИМИТ"
				dup, err := svc.SubmitPerformance(ctx, "", again)
				So(err, ShouldBeNil)
				So(dup.Duplicate, ShouldBeTrue)
				So(dup.IdempotencyKey, ShouldEqual, res.IdempotencyKey)
				So(fb.callCount("CreatePerformance"), ShouldEqual, 1)
			})
		})

		Convey("When an idempotency key is supplied twice", func() {
			_, err := svc.SubmitPerformance(ctx, "form-1", req)
			So(err, ShouldBeNil)
			other := req
			other.Result = "2:00"
			dup, err := svc.SubmitPerformance(ctx, "form-1", other)
			So(err, ShouldBeNil)
			So(dup.Duplicate, ShouldBeTrue)
			So(svc.Size(), ShouldEqual, 1)
		})

		Convey("When a field is invalid", func() {
			cases := map[string]func(r *types.SubmissionRequest){
				"institute":     func(r *types.SubmissionRequest) { r.Institute = "МГУ" },
				"full_name":     func(r *types.SubmissionRequest) { r.FullName = "Иванов" },
				"gender":        func(r *types.SubmissionRequest) { r.Gender = "X" },
				"sport_type_id": func(r *types.SubmissionRequest) { r.SportTypeID = 0 },
			}

			Convey("Then nothing should be forwarded", func() {
				for field, mutate := range cases {
					bad := req
					mutate(&bad)
					_, err := svc.SubmitPerformance(ctx, "", bad)
					var fe *service.FieldError
					So(errors.As(err, &fe), ShouldBeTrue)
					So(fe.Field, ShouldEqual, field)
				}
				So(fb.callCount("FindOrCreateStudent"), ShouldEqual, 0)
			})
		})

		Convey("When the result does not match the event kind", func() {
			bad := req
			bad.SportTypeID = 2
			bad.Result = "1:30"
			_, err := svc.SubmitPerformance(ctx, "", bad)
			So(errors.Is(err, resultvalue.ErrInvalidNumber), ShouldBeTrue)
		})

		Convey("When the sport is a team sport", func() {
			bad := req
			bad.SportTypeID = 3
			bad.Result = "10"
			_, err := svc.SubmitPerformance(ctx, "", bad)
			So(errors.Is(err, service.ErrInvalidField), ShouldBeTrue)
		})

		Convey("When no judge is assigned", func() {
			fb.judges = nil
			_, err := svc.SubmitPerformance(ctx, "k", req)

			Convey("Then it should fail and release the key for a retry", func() {
				So(errors.Is(err, service.ErrNoJudge), ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 0)
				So(fb.callCount("CreatePerformance"), ShouldEqual, 0)
			})
		})

		Convey("When record creation is rejected", func() {
			fb.errs["CreatePerformance"] = &backend.StatusError{Op: "create", Status: 422, Detail: "bad"}
			_, err := svc.SubmitPerformance(ctx, "k", req)
			So(errors.Is(err, backend.ErrRejected), ShouldBeTrue)

			Convey("And a retry should reach the backend again", func() {
				delete(fb.errs, "CreatePerformance")
				res, err := svc.SubmitPerformance(ctx, "k", req)
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(fb.callCount("CreatePerformance"), ShouldEqual, 2)
			})
		})
	})
}

func TestService_DeletePerformance(t *testing.T) {
	Convey("Given a recorded performance", t, func() {
		fb := newFakeBackend()
		svc := startService(fb)
		defer svc.Stop()

		So(svc.DeletePerformance(context.Background(), 9), ShouldBeNil)
		So(fb.deleted, ShouldResemble, []int64{9})

		err := svc.DeletePerformance(context.Background(), 0)
		So(errors.Is(err, service.ErrInvalidField), ShouldBeTrue)

		fb.errs["DeletePerformance"] = backend.ErrNotFound
		err = svc.DeletePerformance(context.Background(), 10)
		So(errors.Is(err, backend.ErrNotFound), ShouldBeTrue)
	})
}
