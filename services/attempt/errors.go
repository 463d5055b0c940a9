package attempt

import (
	"errors"
	"fmt"

	courseModels "lms/models/course"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrOptionNotFound   = errors.New("option not found")
	ErrAnswerNotFound   = errors.New("answer not found")

	ErrQuizNotPublished = errors.New("quiz is not published")
	ErrInvalidDuration  = errors.New("quiz duration must be greater than zero")

	ErrAttemptNotActive       = errors.New("attempt is no longer in progress")
	ErrAttemptExpired         = errors.New("attempt time window has ended")
	ErrInvalidStateTransition = errors.New("invalid attempt state transition")

	ErrDuplicateAnswer      = errors.New("an answer was already recorded for this question")
	ErrDuplicateAttempt     = errors.New("attempt number already taken, retry the start request")
	ErrManualReviewRequired = errors.New("answers awaiting manual review")

	ErrValidationFailed = errors.New("validation failed")
	ErrLockTimeout      = errors.New("timed out waiting for attempt lock")
)

// ValidationError is a field-scoped ValidationFailed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsNotFound reports whether err is one of the not-found errors of this package.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrOptionNotFound) ||
		errors.Is(err, ErrAnswerNotFound)
}

func transitionError(op string, from courseModels.AttemptStatus) error {
	return fmt.Errorf("%w: cannot %s an attempt that is %s", ErrInvalidStateTransition, op, from)
}
