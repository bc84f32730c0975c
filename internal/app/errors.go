package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrInvalidField     = errors.New("invalid field")
	ErrUnknownSportType = errors.New("unknown sport type")
	ErrNoJudge          = errors.New("no judge assigned to sport type")
)

// FieldError reports a submission or query field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Unwrap makes FieldError match ErrInvalidField.
func (e *FieldError) Unwrap() error { return ErrInvalidField }

func invalidField(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}
