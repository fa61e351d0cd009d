package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
	"github.com/mkaya/coursebuilder/internal/pkg/jobqueue"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// defaultAssessmentScore is assumed when a learner completed a course
// without any recorded assessment.
const defaultAssessmentScore = 100

// registrationLookup is the slice of the registration repository the
// completion pipeline needs.
type registrationLookup interface {
	GetByLearnerAndCourse(ctx context.Context, learnerID string, courseID int64) (*models.Registration, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Registration, error)
}

type scoreLookup interface {
	LatestScore(ctx context.Context, learnerID string, courseID int64) (*int, error)
}

type courseLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Course, error)
}

type credentialIssuer interface {
	Issue(ctx context.Context, req CredentialRequest) error
}

// CompletionService fans out follow-up work after a course completion:
// credential issuance, analytics and report preparation. Everything is
// best-effort; failures are logged and never surface to the caller.
type CompletionService struct {
	queue         *jobqueue.Queue
	registrations registrationLookup
	scores        scoreLookup
	courses       courseLookup
	credential    credentialIssuer
	log           zerolog.Logger
}

// NewCompletionService creates a new CompletionService
func NewCompletionService(queue *jobqueue.Queue, registrations registrationLookup, scores scoreLookup, courses courseLookup, credential credentialIssuer) *CompletionService {
	return &CompletionService{
		queue:         queue,
		registrations: registrations,
		scores:        scores,
		courses:       courses,
		credential:    credential,
		log:           logger.With("completion_service"),
	}
}

// OnCourseCompletion handles one completion event. A missing
// registration means the event is stale or duplicated; nothing is
// enqueued in that case.
func (s *CompletionService) OnCourseCompletion(ctx context.Context, event dto.CompletionEvent) {
	reg, err := s.registrations.GetByLearnerAndCourse(ctx, event.LearnerID, event.CourseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRegistrationNotFound) {
			s.log.Warn().
				Str("learnerId", event.LearnerID).
				Int64("courseId", event.CourseID).
				Msg("Completion event without registration, ignoring")
		} else {
			s.log.Error().Err(err).Int64("courseId", event.CourseID).Msg("Registration lookup failed for completion event")
		}
		return
	}

	score := defaultAssessmentScore
	latest, err := s.scores.LatestScore(ctx, event.LearnerID, event.CourseID)
	if err != nil {
		s.log.Error().Err(err).Int64("courseId", event.CourseID).Msg("Assessment lookup failed, using default score")
	} else if latest != nil {
		score = *latest
	}

	if reg.LearnerEmail != nil && *reg.LearnerEmail != "" {
		credReq := CredentialRequest{
			LearnerID:    event.LearnerID,
			LearnerEmail: *reg.LearnerEmail,
			CourseID:     event.CourseID,
			CourseName:   event.CourseName,
			Score:        score,
			CompletedAt:  event.CompletedAt,
		}
		s.queue.Enqueue("credential-issuance", func(ctx context.Context, payload interface{}) error {
			return s.credential.Issue(ctx, payload.(CredentialRequest))
		}, credReq, jobqueue.Options{Priority: jobqueue.PriorityHigh, Retries: -1})
	} else {
		s.log.Info().
			Str("learnerId", event.LearnerID).
			Int64("courseId", event.CourseID).
			Msg("Learner email unknown, skipping credential issuance")
	}

	s.queue.Enqueue("analytics-preparation", s.prepareAnalytics, event, jobqueue.Options{Retries: -1})
	s.queue.Enqueue("report-preparation", s.prepareReport, event, jobqueue.Options{Retries: -1})

	s.log.Info().
		Str("learnerId", event.LearnerID).
		Int64("courseId", event.CourseID).
		Int("score", score).
		Msg("Completion follow-up jobs enqueued")
}

func (s *CompletionService) prepareAnalytics(ctx context.Context, payload interface{}) error {
	event := payload.(dto.CompletionEvent)

	regs, err := s.registrations.ListByCourse(ctx, event.CourseID)
	if err != nil {
		return err
	}

	completed := 0
	for _, reg := range regs {
		if reg.Status == models.RegistrationCompleted {
			completed++
		}
	}

	s.log.Info().
		Int64("courseId", event.CourseID).
		Int("registrations", len(regs)).
		Int("completed", completed).
		Msg("Completion analytics prepared")
	return nil
}

func (s *CompletionService) prepareReport(ctx context.Context, payload interface{}) error {
	event := payload.(dto.CompletionEvent)

	course, err := s.courses.GetByID(ctx, event.CourseID)
	if err != nil {
		return err
	}

	s.log.Info().
		Int64("courseId", event.CourseID).
		Str("courseName", course.Name).
		Str("learnerId", event.LearnerID).
		Time("completedAt", event.CompletedAt).
		Msg("Completion report prepared")
	return nil
}
