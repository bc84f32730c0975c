// Package model contains domain models passed between layers.
package model

import "strings"

// Gender is the competition category a performance is counted in.
// Values mirror the backend enum.
type Gender string

// Supported genders.
const (
	GenderAny    Gender = ""
	GenderMale   Gender = "М"
	GenderFemale Gender = "Ж"
)

// ParseGender accepts the backend values and their Latin look-alikes.
// Empty input means "no gender filter".
func ParseGender(s string) (Gender, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return GenderAny, true
	case "М", "M":
		return GenderMale, true
	case "Ж", "F", "W":
		return GenderFemale, true
	default:
		return GenderAny, false
	}
}

// Performance is one participant's or team member's result in one sport event,
// as returned by the results-listing endpoint.
type Performance struct {
	PerformanceID       int64
	StudentID           int64
	StudentName         string // may already embed a gender annotation
	Gender              Gender
	FacultyID           int64
	FacultyName         string
	FacultyAbbreviation string // team label in the unfiltered team protocol
	SportTypeID         int64
	SportTypeName       string
	IsTeamSport         bool
	Place               int      // server-computed place, 0 when absent
	Points              *float64 // ranking points computed by the server
	OriginalResult      *float64 // raw points or seconds
	TimeResult          string   // formatted time, time-based events only
}

// Score returns the value used for local re-ranking: points when the server
// provided them, the original result otherwise.
func (p Performance) Score() float64 {
	switch {
	case p.Points != nil:
		return *p.Points
	case p.OriginalResult != nil:
		return *p.OriginalResult
	default:
		return 0
	}
}

// TeamAggregate is one faculty's team entry in a team sport. It is built per
// ranking pass and never persisted.
type TeamAggregate struct {
	Key                 string
	FacultyID           int64
	FacultyName         string
	FacultyAbbreviation string
	Points              float64 // identical for all members
	ServerPlace         int
	OriginalResult      *float64
	TimeResult          string
	Members             []string
}

// RankedPerformance annotates a performance with its display place (1-based).
type RankedPerformance struct {
	Performance
	Place int
}

// RankedTeam annotates a team aggregate with its display place (1-based).
type RankedTeam struct {
	TeamAggregate
	Place int
}

// ResultType is the explicit event kind a backend may attach to a sport type.
type ResultType string

// Known result types. ResultTypeUnknown means the name must be classified.
const (
	ResultTypeUnknown ResultType = ""
	ResultTypeTime    ResultType = "time"
	ResultTypePoints  ResultType = "points"
)

// SportType is a sport event of the Spartakiad.
type SportType struct {
	ID         int64
	Name       string
	ResultType ResultType
	IsTeam     *bool
}

// FacultyRating is one row of a faculty rating table.
type FacultyRating struct {
	Place               int
	FacultyID           int64
	FacultyName         string
	FacultyAbbreviation string
	TotalPoints         float64
	SportTypeID         *int64
}

// ResultsQuery selects a results protocol.
type ResultsQuery struct {
	SportTypeID int64
	Gender      Gender
}

// Submission is a result typed in by a judge before it is forwarded.
type Submission struct {
	IdempotencyKey string
	Institute      string
	FullName       string
	Gender         Gender
	SportTypeID    int64
	Result         string
}
