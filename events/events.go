package events

import (
	"time"

	courseModels "lms/models/course"

	"github.com/google/uuid"
)

const (
	AttemptSubmittedEvent    = "attempt.submitted"
	AttemptGradedEvent       = "attempt.graded"
	EnrollmentCompletedEvent = "enrollment.completed"
)

// Event is a domain event published after the transaction that produced it commits.
type Event interface {
	Name() string
	EventID() uuid.UUID
}

// Meta carries the identity and time of an event. The ID doubles as the
// idempotency key for downstream consumers.
type Meta struct {
	ID         uuid.UUID `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (m Meta) EventID() uuid.UUID { return m.ID }

func newMeta(at time.Time) Meta {
	return Meta{ID: uuid.New(), OccurredAt: at}
}

type AttemptSubmitted struct {
	Meta
	Attempt courseModels.Attempt `json:"attempt"`
}

func (AttemptSubmitted) Name() string { return AttemptSubmittedEvent }

func NewAttemptSubmitted(attempt courseModels.Attempt, at time.Time) AttemptSubmitted {
	return AttemptSubmitted{Meta: newMeta(at), Attempt: attempt}
}

type AttemptGraded struct {
	Meta
	Attempt courseModels.Attempt `json:"attempt"`
}

func (AttemptGraded) Name() string { return AttemptGradedEvent }

func NewAttemptGraded(attempt courseModels.Attempt, at time.Time) AttemptGraded {
	return AttemptGraded{Meta: newMeta(at), Attempt: attempt}
}

// EnrollmentCompleted fires when an enrollment's progress first reaches 100%.
type EnrollmentCompleted struct {
	Meta
	Enrollment courseModels.Enrollment `json:"enrollment"`
}

func (EnrollmentCompleted) Name() string { return EnrollmentCompletedEvent }

func NewEnrollmentCompleted(enrollment courseModels.Enrollment, at time.Time) EnrollmentCompleted {
	return EnrollmentCompleted{Meta: newMeta(at), Enrollment: enrollment}
}
