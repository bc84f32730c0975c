// Package ranking assigns display places to results.
//
// Places follow standard competition ranking ("1,2,2,4"): entries are sorted
// by score descending with a stable sort, equal scores share a place and the
// entry after a tied block takes its ordinal position. Scores are compared
// with exact equality. Every function here is pure.
package ranking

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/okian/spartakiad/internal/domain/model"
)

// Ranked pairs an item with the score it was ranked by and its place.
type Ranked[T any] struct {
	Item  T
	Score float64
	Place int
}

// Rank orders items by score descending and assigns places. Items with equal
// scores keep their input order. An empty input yields an empty result.
func Rank[T any](items []T, score func(T) float64) []Ranked[T] {
	out := make([]Ranked[T], len(items))
	for i, it := range items {
		out[i] = Ranked[T]{Item: it, Score: score(it)}
	}

	slices.SortStableFunc(out, func(a, b Ranked[T]) int {
		return cmp.Compare(b.Score, a.Score)
	})

	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Place = out[i-1].Place
			continue
		}
		out[i].Place = i + 1
	}
	return out
}

// TeamKey extracts the grouping key of a performance.
type TeamKey func(model.Performance) string

// ByFaculty groups by faculty id. Used when a gender filter is active and a
// faculty fields exactly one team.
func ByFaculty(p model.Performance) string {
	return strconv.FormatInt(p.FacultyID, 10)
}

// ByTeamLabel groups by the server team label. In the unfiltered protocol the
// label embeds the team's gender, so one faculty may field two teams.
func ByTeamLabel(p model.Performance) string {
	return p.FacultyAbbreviation
}

// GroupTeams builds team aggregates in first-seen order. Team fields come
// from the first member seen; members keep input order.
func GroupTeams(perfs []model.Performance, key TeamKey) []model.TeamAggregate {
	index := make(map[string]int, len(perfs))
	teams := make([]model.TeamAggregate, 0)

	for _, p := range perfs {
		k := key(p)
		i, ok := index[k]
		if !ok {
			i = len(teams)
			index[k] = i
			teams = append(teams, model.TeamAggregate{
				Key:                 k,
				FacultyID:           p.FacultyID,
				FacultyName:         p.FacultyName,
				FacultyAbbreviation: p.FacultyAbbreviation,
				Points:              p.Score(),
				ServerPlace:         p.Place,
				OriginalResult:      p.OriginalResult,
				TimeResult:          p.TimeResult,
			})
		}
		teams[i].Members = append(teams[i].Members, p.StudentName)
	}
	return teams
}

// RankIndividuals recomputes places for performances. A nil score ranks by
// Performance.Score.
func RankIndividuals(perfs []model.Performance, score func(model.Performance) float64) []model.RankedPerformance {
	if score == nil {
		score = model.Performance.Score
	}
	ranked := Rank(perfs, score)
	out := make([]model.RankedPerformance, len(ranked))
	for i, r := range ranked {
		out[i] = model.RankedPerformance{Performance: r.Item, Place: r.Place}
	}
	return out
}

// RankTeams recomputes places for team aggregates by Points.
func RankTeams(teams []model.TeamAggregate) []model.RankedTeam {
	ranked := Rank(teams, func(t model.TeamAggregate) float64 { return t.Points })
	out := make([]model.RankedTeam, len(ranked))
	for i, r := range ranked {
		out[i] = model.RankedTeam{TeamAggregate: r.Item, Place: r.Place}
	}
	return out
}

// ServerIndividuals keeps the server order and places.
func ServerIndividuals(perfs []model.Performance) []model.RankedPerformance {
	out := make([]model.RankedPerformance, len(perfs))
	for i, p := range perfs {
		out[i] = model.RankedPerformance{Performance: p, Place: p.Place}
	}
	return out
}

// ServerTeams keeps the first-seen order and the server place of each team.
func ServerTeams(teams []model.TeamAggregate) []model.RankedTeam {
	out := make([]model.RankedTeam, len(teams))
	for i, t := range teams {
		out[i] = model.RankedTeam{TeamAggregate: t, Place: t.ServerPlace}
	}
	return out
}
