package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
	"github.com/mkaya/coursebuilder/internal/pkg/jobqueue"
)

type fakeRegistrations struct {
	reg       *models.Registration
	err       error
	listCalls int32
}

func (f *fakeRegistrations) GetByLearnerAndCourse(_ context.Context, _ string, _ int64) (*models.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reg, nil
}

func (f *fakeRegistrations) ListByCourse(_ context.Context, _ int64) ([]*models.Registration, error) {
	atomic.AddInt32(&f.listCalls, 1)
	return []*models.Registration{f.reg}, nil
}

type fakeScores struct {
	score *int
}

func (f *fakeScores) LatestScore(_ context.Context, _ string, _ int64) (*int, error) {
	return f.score, nil
}

type fakeCourses struct {
	getCalls int32
}

func (f *fakeCourses) GetByID(_ context.Context, id int64) (*models.Course, error) {
	atomic.AddInt32(&f.getCalls, 1)
	return &models.Course{ID: id, Name: "Test Course"}, nil
}

type fakeIssuer struct {
	mu   sync.Mutex
	reqs []CredentialRequest
}

func (f *fakeIssuer) Issue(_ context.Context, req CredentialRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return nil
}

func (f *fakeIssuer) requests() []CredentialRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CredentialRequest{}, f.reqs...)
}

func testEvent() dto.CompletionEvent {
	return dto.CompletionEvent{
		CourseID:    42,
		CourseName:  "Test Course",
		LearnerID:   "learner-1",
		CompletedAt: time.Now(),
	}
}

func runCompletion(t *testing.T, regs *fakeRegistrations, scores *fakeScores, courses *fakeCourses, issuer *fakeIssuer) {
	t.Helper()

	queue := jobqueue.New(2, 0, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)

	svc := NewCompletionService(queue, regs, scores, courses, issuer)
	svc.OnCourseCompletion(context.Background(), testEvent())

	// Stop accepting work and drain what was enqueued.
	time.Sleep(50 * time.Millisecond)
	cancel()
	queue.Wait()
}

func TestOnCourseCompletion_MissingRegistrationIsNoOp(t *testing.T) {
	regs := &fakeRegistrations{err: apperrors.ErrRegistrationNotFound}
	courses := &fakeCourses{}
	issuer := &fakeIssuer{}

	runCompletion(t, regs, &fakeScores{}, courses, issuer)

	assert.Empty(t, issuer.requests())
	assert.Equal(t, int32(0), atomic.LoadInt32(&regs.listCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&courses.getCalls))
}

func TestOnCourseCompletion_NoEmailSkipsCredential(t *testing.T) {
	regs := &fakeRegistrations{reg: &models.Registration{
		ID:        1,
		LearnerID: "learner-1",
		CourseID:  42,
		Status:    models.RegistrationCompleted,
	}}
	courses := &fakeCourses{}
	issuer := &fakeIssuer{}

	runCompletion(t, regs, &fakeScores{}, courses, issuer)

	assert.Empty(t, issuer.requests())
	// Analytics and report jobs still run.
	assert.Equal(t, int32(1), atomic.LoadInt32(&regs.listCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&courses.getCalls))
}

func TestOnCourseCompletion_IssuesCredentialWithScore(t *testing.T) {
	email := "learner@example.com"
	score := 87
	regs := &fakeRegistrations{reg: &models.Registration{
		ID:           1,
		LearnerID:    "learner-1",
		LearnerEmail: &email,
		CourseID:     42,
		Status:       models.RegistrationCompleted,
	}}
	issuer := &fakeIssuer{}

	runCompletion(t, regs, &fakeScores{score: &score}, &fakeCourses{}, issuer)

	reqs := issuer.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "learner-1", reqs[0].LearnerID)
	assert.Equal(t, email, reqs[0].LearnerEmail)
	assert.Equal(t, 87, reqs[0].Score)
	assert.Equal(t, "Test Course", reqs[0].CourseName)
}

func TestOnCourseCompletion_DefaultScoreWhenNoneRecorded(t *testing.T) {
	email := "learner@example.com"
	regs := &fakeRegistrations{reg: &models.Registration{
		ID:           1,
		LearnerID:    "learner-1",
		LearnerEmail: &email,
		CourseID:     42,
	}}
	issuer := &fakeIssuer{}

	runCompletion(t, regs, &fakeScores{}, &fakeCourses{}, issuer)

	reqs := issuer.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, defaultAssessmentScore, reqs[0].Score)
}
