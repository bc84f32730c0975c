package resultvalue

import "errors"

// Sentinel kinds for value errors. These allow errors.Is from callers.
var (
	ErrEmptyValue    = errors.New("empty value")
	ErrInvalidFormat = errors.New("invalid time format")
	ErrInvalidNumber = errors.New("invalid number")
)

// User-facing messages.
const (
	msgEmptyValue    = "result must not be empty"
	msgInvalidFormat = "invalid time format, use 12.34 (ss.ss), 1:23.45 (mm:ss.ss) or 1:02:03.45 (h:mm:ss.ss)"
	msgInvalidNumber = "result must be a non-negative number"
)

// ValueError is the typed failure of parsing or validating a result value.
// Message is safe to show to the person who typed Input.
type ValueError struct {
	Kind    error
	Input   string
	Message string
}

func (e *ValueError) Error() string { return e.Message }

// Unwrap exposes the sentinel kind.
func (e *ValueError) Unwrap() error { return e.Kind }

// Code returns a stable machine-readable code for the error kind.
func (e *ValueError) Code() string {
	return Code(e)
}

// Code maps an error to empty_value, invalid_format or invalid_number.
// It returns an empty string for errors of other kinds.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmptyValue):
		return "empty_value"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidNumber):
		return "invalid_number"
	default:
		return ""
	}
}

func newError(kind error, input, msg string) *ValueError {
	return &ValueError{Kind: kind, Input: input, Message: msg}
}
