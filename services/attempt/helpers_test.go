package attempt

import (
	"sync"
	"testing"
	"time"

	"lms/database"
	"lms/events"
	courseModels "lms/models/course"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) Named(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, evt := range p.events {
		if evt.Name() == name {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	manager   *Manager
	clock     *fakeClock
	publisher *recordingPublisher
	quiz      courseModels.Quiz
	mcq       courseModels.Question
	correct   courseModels.QuestionOption
	wrong     courseModels.QuestionOption
	trueFalse courseModels.Question
	text      courseModels.Question
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T, enforceTimeWindow bool) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{
		db:        db,
		clock:     &fakeClock{now: t0},
		publisher: &recordingPublisher{},
	}
	f.manager = NewManager(db, NewSequencer(0), NewAnswerValidator(), NewGradingEngine(true), f.publisher, enforceTimeWindow).
		WithClock(f.clock.Now)

	f.quiz = courseModels.Quiz{
		CourseID:         1,
		Title:            "Fractions",
		DurationMinutes:  30,
		PassingScore:     55,
		MaxScore:         100,
		Status:           courseModels.QuizPublished,
		AutoGradeEnabled: true,
	}
	require.NoError(t, db.Create(&f.quiz).Error)

	f.mcq = courseModels.Question{QuizID: f.quiz.ID, Type: courseModels.QuestionMCQ, Text: "1/2 + 1/4 = ?", Point: 40}
	require.NoError(t, db.Create(&f.mcq).Error)
	f.correct = courseModels.QuestionOption{QuestionID: f.mcq.ID, OptionText: "3/4", IsCorrect: true}
	f.wrong = courseModels.QuestionOption{QuestionID: f.mcq.ID, OptionText: "2/6", OrderIndex: 1}
	require.NoError(t, db.Create(&f.correct).Error)
	require.NoError(t, db.Create(&f.wrong).Error)

	expected := true
	f.trueFalse = courseModels.Question{QuizID: f.quiz.ID, Type: courseModels.QuestionTrueFalse, Text: "2/4 equals 1/2", Point: 15, ExpectedBoolean: &expected}
	require.NoError(t, db.Create(&f.trueFalse).Error)

	f.text = courseModels.Question{QuizID: f.quiz.ID, Type: courseModels.QuestionText, Text: "Explain common denominators", Point: 45}
	require.NoError(t, db.Create(&f.text).Error)

	return f
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
func uintPtr(u uint) *uint { return &u }
