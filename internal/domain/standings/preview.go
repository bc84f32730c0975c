package standings

import (
	"strconv"
	"strings"

	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/ranking"
	"github.com/okian/spartakiad/internal/domain/resultvalue"
	"github.com/okian/spartakiad/internal/domain/scoring"
	"github.com/okian/spartakiad/internal/domain/types"
)

type previewItem struct {
	entry      types.PreviewEntry
	normalized resultvalue.Normalized
}

// Preview ranks typed-in results offline. Invalid entries are reported in
// Errors and left out of the ranking. Team previews group entries by faculty
// in first-seen order and take the first member's value as the team result.
func Preview(req types.PreviewRequest, points *scoring.PlacePoints) types.Preview {
	if points == nil {
		points = scoring.NewPlacePoints()
	}
	out := types.Preview{
		TimeBased: req.TimeBased,
		Team:      req.Team,
		Rows:      []types.PreviewRow{},
	}

	items := make([]previewItem, 0, len(req.Entries))
	for i, e := range req.Entries {
		n, err := resultvalue.Normalize(e.Value, req.TimeBased)
		if err != nil {
			out.Errors = append(out.Errors, types.PreviewError{
				Index:   i,
				Name:    e.Name,
				Value:   e.Value,
				Code:    resultvalue.Code(err),
				Message: err.Error(),
			})
			continue
		}
		items = append(items, previewItem{entry: e, normalized: n})
	}

	ranked := ranking.Rank(items, func(it previewItem) float64 {
		return scoring.RankingScore(it.normalized.OriginalResult, req.TimeBased)
	})
	for _, r := range ranked {
		out.Rows = append(out.Rows, types.PreviewRow{
			Place:   r.Place,
			Name:    strings.TrimSpace(r.Item.entry.Name),
			Faculty: strings.TrimSpace(r.Item.entry.Faculty),
			Display: previewDisplay(r.Item.normalized),
			Result:  r.Item.normalized.OriginalResult,
			Points:  points.ForPlace(r.Place),
		})
	}

	if req.Team {
		out.Teams = previewTeams(items, req.TimeBased, points)
	}
	return out
}

func previewTeams(items []previewItem, timeBased bool, points *scoring.PlacePoints) []types.PreviewTeamRow {
	perfs := make([]model.Performance, len(items))
	for i, it := range items {
		score := scoring.RankingScore(it.normalized.OriginalResult, timeBased)
		result := it.normalized.OriginalResult
		perfs[i] = model.Performance{
			StudentName:         strings.TrimSpace(it.entry.Name),
			FacultyAbbreviation: strings.TrimSpace(it.entry.Faculty),
			Points:              &score,
			OriginalResult:      &result,
			TimeResult:          previewDisplay(it.normalized),
		}
	}

	ranked := ranking.RankTeams(ranking.GroupTeams(perfs, ranking.ByTeamLabel))
	rows := make([]types.PreviewTeamRow, len(ranked))
	for i, t := range ranked {
		rows[i] = types.PreviewTeamRow{
			Place:   t.Place,
			Faculty: t.FacultyAbbreviation,
			Display: t.TimeResult,
			Result:  *t.OriginalResult,
			Points:  points.ForPlace(t.Place),
			Members: t.Members,
		}
	}
	return rows
}

func previewDisplay(n resultvalue.Normalized) string {
	if n.TimeResult != "" {
		return n.TimeResult
	}
	return strconv.FormatFloat(n.OriginalResult, 'f', -1, 64)
}
