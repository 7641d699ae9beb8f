package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrInvalidRule marks a malformed recurrence configuration
	ErrInvalidRule = stderrors.New("invalid recurrence rule")
	// ErrDuplicateCompletion is returned when a day already has a completion report
	ErrDuplicateCompletion = stderrors.New("habit already completed on this day")
	// ErrNotFound is returned for unknown habits and missing completion reports
	ErrNotFound = stderrors.New("not found")
	// ErrFutureDate rejects completions for days that have not arrived yet
	ErrFutureDate = stderrors.New("cannot complete a habit for a day that has not yet arrived")
	// ErrPhotoNotAllowed rejects photos on habits that do not accept them
	ErrPhotoNotAllowed = stderrors.New("habit does not accept photos")
	// ErrNotScheduled rejects completions on days the habit is not current
	ErrNotScheduled = stderrors.New("habit is not scheduled on this day")
	// ErrInvalidInput marks a request field outside its allowed range
	ErrInvalidInput = stderrors.New("invalid input")
	// ErrAlreadyExists is returned when a live habit already uses the name
	ErrAlreadyExists = stderrors.New("already exists")
)

// InvalidRuleError describes which part of a recurrence rule is malformed.
type InvalidRuleError struct {
	Field  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRule, e.Field, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}

// InvalidRule builds an InvalidRuleError for field.
func InvalidRule(field, reason string) error {
	return &InvalidRuleError{Field: field, Reason: reason}
}

// InvalidInput reports a bad request field; it unwraps to ErrInvalidInput.
func InvalidInput(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// NotFoundError names the missing entity. It unwraps to ErrNotFound.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound builds a NotFoundError for an entity of the given kind.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// Kind returns a short stable name for the error's category, or "internal"
// when the error is not one of the package's sentinels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrInvalidRule):
		return "invalid_rule"
	case stderrors.Is(err, ErrDuplicateCompletion):
		return "duplicate_completion"
	case stderrors.Is(err, ErrNotFound):
		return "not_found"
	case stderrors.Is(err, ErrFutureDate):
		return "future_date"
	case stderrors.Is(err, ErrPhotoNotAllowed):
		return "photo_not_allowed"
	case stderrors.Is(err, ErrNotScheduled):
		return "not_scheduled"
	case stderrors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case stderrors.Is(err, ErrAlreadyExists):
		return "already_exists"
	default:
		return "internal"
	}
}
