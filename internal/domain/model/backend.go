package model

// StudentQuery identifies a student for find-or-create.
type StudentQuery struct {
	FacultyAbbreviation string
	FullName            string
	Gender              Gender
}

// Student is the outcome of find-or-create.
type Student struct {
	ID          int64
	Name        string
	FacultyID   int64
	FacultyName string
	Created     bool
}

// Competition is the active competition of a sport.
type Competition struct {
	ID          int64
	Name        string
	SportTypeID int64
	Date        string
	Location    string
}

// Judge is a judge assigned to a sport.
type Judge struct {
	ID          int64
	UserID      int64
	Name        string
	SportTypeID int64
}

// NewPerformance is a result ready to be recorded. Exactly one of TimeResult
// or a points-only OriginalResult is meaningful, depending on the event kind.
type NewPerformance struct {
	StudentID      int64
	SportTypeID    int64
	CompetitionID  int64
	JudgeID        int64
	TimeResult     string
	OriginalResult *float64
}
