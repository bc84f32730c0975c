// Package types contains the response and request shapes of the gateway API.
package types

// Standings modes and ranking sources.
const (
	ModeIndividual = "individual"
	ModeTeam       = "team"

	SourceServer = "server"
	SourceLocal  = "local"
)

// ResultRow is one individual row of a results table.
type ResultRow struct {
	Place               int      `json:"place" yaml:"place"`
	PerformanceID       int64    `json:"performance_id,omitempty" yaml:"performance_id,omitempty"`
	StudentID           int64    `json:"student_id,omitempty" yaml:"student_id,omitempty"`
	StudentName         string   `json:"student_name" yaml:"student_name"`
	Gender              string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	FacultyID           int64    `json:"faculty_id,omitempty" yaml:"faculty_id,omitempty"`
	FacultyName         string   `json:"faculty_name,omitempty" yaml:"faculty_name,omitempty"`
	FacultyAbbreviation string   `json:"faculty_abbreviation" yaml:"faculty_abbreviation"`
	Points              *float64 `json:"points,omitempty" yaml:"points,omitempty"`
	OriginalResult      *float64 `json:"original_result,omitempty" yaml:"original_result,omitempty"`
	TimeResult          string   `json:"time_result,omitempty" yaml:"time_result,omitempty"`
	Display             string   `json:"display" yaml:"display"`
}

// TeamRow is one team row of a results table.
type TeamRow struct {
	Place               int      `json:"place" yaml:"place"`
	FacultyID           int64    `json:"faculty_id,omitempty" yaml:"faculty_id,omitempty"`
	FacultyName         string   `json:"faculty_name,omitempty" yaml:"faculty_name,omitempty"`
	FacultyAbbreviation string   `json:"faculty_abbreviation" yaml:"faculty_abbreviation"`
	Points              float64  `json:"points" yaml:"points"`
	Display             string   `json:"display" yaml:"display"`
	Members             []string `json:"members" yaml:"members"`
}

// Standings is a render-ready results table of one sport event.
type Standings struct {
	SportTypeID   int64       `json:"sport_type_id,omitempty" yaml:"sport_type_id,omitempty"`
	SportTypeName string      `json:"sport_type_name,omitempty" yaml:"sport_type_name,omitempty"`
	Gender        string      `json:"gender,omitempty" yaml:"gender,omitempty"`
	Mode          string      `json:"mode" yaml:"mode"`
	Source        string      `json:"source" yaml:"source"`
	TimeBased     bool        `json:"time_based" yaml:"time_based"`
	Individuals   []ResultRow `json:"individuals,omitempty" yaml:"individuals,omitempty"`
	Teams         []TeamRow   `json:"teams,omitempty" yaml:"teams,omitempty"`
}

// Rating scopes, from most to least specific.
const (
	RatingScopeSport   = "sport"
	RatingScopeGender  = "gender"
	RatingScopeOverall = "overall"
)

// RatingRow is one faculty row of a rating table.
type RatingRow struct {
	Place               int     `json:"place"`
	FacultyID           int64   `json:"faculty_id"`
	FacultyName         string  `json:"faculty_name"`
	FacultyAbbreviation string  `json:"faculty_abbreviation"`
	TotalPoints         float64 `json:"total_points"`
}

// Rating is a faculty rating table. Scope tells which table answered after
// fallbacks.
type Rating struct {
	SportTypeID *int64      `json:"sport_type_id,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	Scope       string      `json:"scope"`
	Rows        []RatingRow `json:"rows"`
}

// SportTypeView is a sport type annotated with its classification.
type SportTypeView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	TimeBased bool   `json:"time_based"`
	Team      bool   `json:"team"`
}

// ValidateRequest asks to validate one typed-in value. Either SportTypeID or
// TimeBased selects the event kind.
type ValidateRequest struct {
	SportTypeID *int64 `json:"sport_type_id,omitempty"`
	TimeBased   *bool  `json:"time_based,omitempty"`
	Value       string `json:"value"`
}

// ValidatedValue is a value that passed validation, normalized for submission.
type ValidatedValue struct {
	Input          string  `json:"input"`
	TimeBased      bool    `json:"time_based"`
	TimeResult     string  `json:"time_result,omitempty"`
	OriginalResult float64 `json:"original_result"`
	Display        string  `json:"display"`
}

// PreviewEntry is one typed-in result of an offline preview.
type PreviewEntry struct {
	Name    string `json:"name" yaml:"name"`
	Faculty string `json:"faculty" yaml:"faculty"`
	Value   string `json:"value" yaml:"value"`
}

// PreviewRequest ranks raw entries without touching the backend.
type PreviewRequest struct {
	TimeBased bool           `json:"time_based" yaml:"time_based"`
	Team      bool           `json:"team" yaml:"team"`
	Entries   []PreviewEntry `json:"entries" yaml:"entries"`
}

// PreviewRow is one ranked entry of a preview.
type PreviewRow struct {
	Place   int     `json:"place" yaml:"place"`
	Name    string  `json:"name" yaml:"name"`
	Faculty string  `json:"faculty" yaml:"faculty"`
	Display string  `json:"display" yaml:"display"`
	Result  float64 `json:"result" yaml:"result"`
	Points  float64 `json:"points" yaml:"points"`
}

// PreviewTeamRow is one ranked team of a preview.
type PreviewTeamRow struct {
	Place   int      `json:"place" yaml:"place"`
	Faculty string   `json:"faculty" yaml:"faculty"`
	Display string   `json:"display" yaml:"display"`
	Result  float64  `json:"result" yaml:"result"`
	Points  float64  `json:"points" yaml:"points"`
	Members []string `json:"members" yaml:"members"`
}

// PreviewError reports an entry that was left out of a preview.
type PreviewError struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Preview is the ranked outcome of a PreviewRequest.
type Preview struct {
	TimeBased bool             `json:"time_based" yaml:"time_based"`
	Team      bool             `json:"team" yaml:"team"`
	Rows      []PreviewRow     `json:"rows" yaml:"rows"`
	Teams     []PreviewTeamRow `json:"teams,omitempty" yaml:"teams,omitempty"`
	Errors    []PreviewError   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SubmissionRequest is a result typed in by a judge.
type SubmissionRequest struct {
	Institute   string `json:"institute"`
	FullName    string `json:"full_name"`
	Gender      string `json:"gender"`
	SportTypeID int64  `json:"sport_type_id"`
	Result      string `json:"result"`
}

// SubmissionResult acknowledges a forwarded (or duplicate) submission.
type SubmissionResult struct {
	Duplicate      bool    `json:"duplicate"`
	IdempotencyKey string  `json:"idempotency_key"`
	PerformanceID  int64   `json:"performance_id,omitempty"`
	StudentID      int64   `json:"student_id,omitempty"`
	StudentName    string  `json:"student_name,omitempty"`
	StudentCreated bool    `json:"student_created,omitempty"`
	FacultyID      int64   `json:"faculty_id,omitempty"`
	CompetitionID  int64   `json:"competition_id,omitempty"`
	JudgeID        int64   `json:"judge_id,omitempty"`
	TimeResult     string  `json:"time_result,omitempty"`
	OriginalResult float64 `json:"original_result"`
}
