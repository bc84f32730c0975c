// Package standings turns backend performances into render-ready tables.
//
// It owns the decision the ranker leaves to its callers: when to recompute
// places locally and when to trust the order and places the server sent.
//
//   - team sport with a gender filter: group by faculty, recompute by points;
//   - team sport without a filter: group by team label in first-seen order,
//     keep the server place;
//   - individual sport: keep the server order and place, recompute only when
//     a server place is missing.
package standings

import (
	"math"

	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/ranking"
	"github.com/okian/spartakiad/internal/domain/resultvalue"
	"github.com/okian/spartakiad/internal/domain/scoring"
	"github.com/okian/spartakiad/internal/domain/types"
)

// Params describes the event and the active filters.
type Params struct {
	Team           bool
	GenderFiltered bool
	TimeBased      bool
}

// FromPerformances builds standings from a results listing. Only Mode, Source,
// TimeBased and the rows are set; the caller fills the sport and gender.
func FromPerformances(perfs []model.Performance, p Params) types.Standings {
	st := types.Standings{TimeBased: p.TimeBased}
	if p.Team {
		st.Mode = types.ModeTeam
		st.Source, st.Teams = teamRows(perfs, p)
		return st
	}
	st.Mode = types.ModeIndividual
	st.Source, st.Individuals = individualRows(perfs, p)
	return st
}

func individualRows(perfs []model.Performance, p Params) (string, []types.ResultRow) {
	source := types.SourceServer
	var ranked []model.RankedPerformance
	if missingPlace(perfs) {
		source = types.SourceLocal
		ranked = ranking.RankIndividuals(perfs, localScore(perfs, p.TimeBased))
	} else {
		ranked = ranking.ServerIndividuals(perfs)
	}

	rows := make([]types.ResultRow, len(ranked))
	for i, r := range ranked {
		rows[i] = types.ResultRow{
			Place:               r.Place,
			PerformanceID:       r.PerformanceID,
			StudentID:           r.StudentID,
			StudentName:         r.StudentName,
			Gender:              string(r.Gender),
			FacultyID:           r.FacultyID,
			FacultyName:         r.FacultyName,
			FacultyAbbreviation: r.FacultyAbbreviation,
			Points:              r.Points,
			OriginalResult:      r.OriginalResult,
			TimeResult:          r.TimeResult,
			Display:             display(r.TimeResult, r.OriginalResult, p.TimeBased),
		}
	}
	return source, rows
}

func teamRows(perfs []model.Performance, p Params) (string, []types.TeamRow) {
	source := types.SourceServer
	var ranked []model.RankedTeam
	if p.GenderFiltered {
		source = types.SourceLocal
		ranked = ranking.RankTeams(ranking.GroupTeams(perfs, ranking.ByFaculty))
	} else {
		teams := ranking.GroupTeams(perfs, ranking.ByTeamLabel)
		if missingTeamPlace(teams) {
			source = types.SourceLocal
			ranked = ranking.RankTeams(teams)
		} else {
			ranked = ranking.ServerTeams(teams)
		}
	}

	rows := make([]types.TeamRow, len(ranked))
	for i, t := range ranked {
		rows[i] = types.TeamRow{
			Place:               t.Place,
			FacultyID:           t.FacultyID,
			FacultyName:         t.FacultyName,
			FacultyAbbreviation: t.FacultyAbbreviation,
			Points:              t.Points,
			Display:             display(t.TimeResult, t.OriginalResult, p.TimeBased),
			Members:             t.Members,
		}
	}
	return source, rows
}

// localScore picks one unit for the whole listing: server points when every
// performance has them, the raw result otherwise. A time result is negated so
// that the fastest time ranks first; a missing result ranks last.
func localScore(perfs []model.Performance, timeBased bool) func(model.Performance) float64 {
	if allPointed(perfs) {
		return model.Performance.Score
	}
	return func(p model.Performance) float64 {
		if p.OriginalResult == nil {
			return math.Inf(-1)
		}
		return scoring.RankingScore(*p.OriginalResult, timeBased)
	}
}

func allPointed(perfs []model.Performance) bool {
	for _, p := range perfs {
		if p.Points == nil {
			return false
		}
	}
	return true
}

func missingPlace(perfs []model.Performance) bool {
	for _, p := range perfs {
		if p.Place <= 0 {
			return true
		}
	}
	return false
}

func missingTeamPlace(teams []model.TeamAggregate) bool {
	for _, t := range teams {
		if t.ServerPlace <= 0 {
			return true
		}
	}
	return false
}

func display(timeResult string, originalResult *float64, timeBased bool) string {
	if timeResult == "" && timeBased && originalResult != nil && *originalResult > 0 {
		return resultvalue.FormatSeconds(*originalResult)
	}
	return resultvalue.Display(timeResult, originalResult)
}
