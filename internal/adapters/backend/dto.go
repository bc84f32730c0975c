package backend

import "github.com/okian/spartakiad/internal/domain/model"

// Wire shapes of the backend. Nullable fields are pointers.

type sportTypeDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ResultType  *string `json:"result_type,omitempty"`
	IsTeamSport *bool   `json:"is_team_sport,omitempty"`
}

func (d sportTypeDTO) toModel() model.SportType {
	st := model.SportType{ID: d.ID, Name: d.Name, IsTeam: d.IsTeamSport}
	if d.ResultType != nil {
		switch rt := model.ResultType(*d.ResultType); rt {
		case model.ResultTypeTime, model.ResultTypePoints:
			st.ResultType = rt
		}
	}
	return st
}

type performanceDTO struct {
	Place               *int     `json:"place"`
	FacultyID           int64    `json:"faculty_id"`
	FacultyName         string   `json:"faculty_name"`
	FacultyAbbreviation string   `json:"faculty_abbreviation"`
	StudentID           int64    `json:"student_id"`
	StudentName         string   `json:"student_name"`
	Gender              string   `json:"gender"`
	TimeResult          *string  `json:"time_result"`
	Points              *float64 `json:"points"`
	PerformanceID       int64    `json:"performance_id"`
	SportTypeID         int64    `json:"sport_type_id"`
	SportTypeName       string   `json:"sport_type_name"`
	IsTeamSport         bool     `json:"is_team_sport"`
	OriginalResult      *float64 `json:"original_result"`
}

func (d performanceDTO) toModel() model.Performance {
	p := model.Performance{
		PerformanceID:       d.PerformanceID,
		StudentID:           d.StudentID,
		StudentName:         d.StudentName,
		FacultyID:           d.FacultyID,
		FacultyName:         d.FacultyName,
		FacultyAbbreviation: d.FacultyAbbreviation,
		SportTypeID:         d.SportTypeID,
		SportTypeName:       d.SportTypeName,
		IsTeamSport:         d.IsTeamSport,
		Points:              d.Points,
		OriginalResult:      d.OriginalResult,
	}
	if g, ok := model.ParseGender(d.Gender); ok {
		p.Gender = g
	}
	if d.Place != nil {
		p.Place = *d.Place
	}
	if d.TimeResult != nil {
		p.TimeResult = *d.TimeResult
	}
	return p
}

// ratingDTO covers both rating endpoints: the per-sport rating sends
// "place", the overall rating sends "overall_place".
type ratingDTO struct {
	Place               *int    `json:"place"`
	OverallPlace        *int    `json:"overall_place"`
	FacultyID           int64   `json:"faculty_id"`
	FacultyName         string  `json:"faculty_name"`
	FacultyAbbreviation string  `json:"faculty_abbreviation"`
	TotalPoints         float64 `json:"total_points"`
	SportTypeID         *int64  `json:"sport_type_id"`
}

func ratings(in []ratingDTO) []model.FacultyRating {
	out := make([]model.FacultyRating, len(in))
	for i, d := range in {
		r := model.FacultyRating{
			FacultyID:           d.FacultyID,
			FacultyName:         d.FacultyName,
			FacultyAbbreviation: d.FacultyAbbreviation,
			TotalPoints:         d.TotalPoints,
			SportTypeID:         d.SportTypeID,
		}
		switch {
		case d.Place != nil:
			r.Place = *d.Place
		case d.OverallPlace != nil:
			r.Place = *d.OverallPlace
		}
		out[i] = r
	}
	return out
}

type studentRequestDTO struct {
	FacultyAbbreviation string `json:"faculty_abbreviation"`
	FullName            string `json:"full_name"`
	Gender              string `json:"gender"`
}

type studentResponseDTO struct {
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	FacultyID   int64  `json:"faculty_id"`
	FacultyName string `json:"faculty_name"`
	Created     bool   `json:"created"`
}

type competitionDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SportTypeID int64  `json:"sport_type_id"`
	Date        string `json:"date"`
	Location    string `json:"location"`
}

type judgeDTO struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	SportTypeID int64  `json:"sport_type_id"`
}

type newPerformanceDTO struct {
	StudentID      int64    `json:"student_id"`
	SportTypeID    int64    `json:"sport_type_id"`
	CompetitionID  int64    `json:"competition_id"`
	JudgeID        int64    `json:"judge_id"`
	TimeResult     *string  `json:"time_result"`
	OriginalResult *float64 `json:"original_result"`
}

type createdPerformanceDTO struct {
	ID int64 `json:"id"`
}
