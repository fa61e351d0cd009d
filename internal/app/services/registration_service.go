package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/app/models/dto"
	"github.com/mkaya/coursebuilder/internal/app/repositories"
	"github.com/mkaya/coursebuilder/internal/db"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// RegistrationService manages learner enrollments and progress.
type RegistrationService struct {
	db         *db.PostgresDB
	repos      *repositories.Repositories
	completion *CompletionService
	log        zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(database *db.PostgresDB, repos *repositories.Repositories, completion *CompletionService) *RegistrationService {
	return &RegistrationService{
		db:         database,
		repos:      repos,
		completion: completion,
		log:        logger.With("registration_service"),
	}
}

// Register enrolls a learner on an existing course. The registration
// insert and the course's enrolled counter move together or not at all.
func (s *RegistrationService) Register(ctx context.Context, courseID int64, learnerID, learnerEmail string) (*models.Registration, error) {
	if _, err := s.repos.CourseRepository.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		LearnerID:    learnerID,
		CourseID:     courseID,
		Status:       models.RegistrationInProgress,
		Progress:     0,
		IsEnrolled:   true,
		EnrolledDate: time.Now(),
	}
	if learnerEmail != "" {
		email := learnerEmail
		reg.LearnerEmail = &email
	}

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		id, err := s.repos.RegistrationRepository.InsertTx(ctx, tx, reg)
		if err != nil {
			return err
		}
		reg.ID = id
		return s.repos.CourseRepository.IncrementEnrolledTx(ctx, tx, courseID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("learnerId", learnerID).Int64("courseId", courseID).Msg("Learner registered")
	return reg, nil
}

// GetEnrollment reports a learner's enrollment state for a course.
// A registration row with is_enrolled false is a data inconsistency;
// it is reported, not silently corrected.
func (s *RegistrationService) GetEnrollment(ctx context.Context, learnerID string, courseID int64) (*dto.EnrollmentResponse, error) {
	reg, err := s.repos.RegistrationRepository.GetByLearnerAndCourse(ctx, learnerID, courseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRegistrationNotFound) {
			return &dto.EnrollmentResponse{IsEnrolled: false}, nil
		}
		return nil, err
	}

	response := &dto.EnrollmentResponse{
		Registration: reg,
		IsEnrolled:   true,
	}
	if !reg.IsEnrolled {
		response.Inconsistent = true
		s.log.Warn().
			Str("learnerId", learnerID).
			Int64("courseId", courseID).
			Msg("Registration exists but enrollment flag is false")
	}
	return response, nil
}

// ListLearnerCourses returns all of a learner's registrations.
func (s *RegistrationService) ListLearnerCourses(ctx context.Context, learnerID string) ([]*models.Registration, error) {
	return s.repos.RegistrationRepository.ListByLearner(ctx, learnerID)
}

// UpdateProgress sets a registration's progress. Reaching 100 completes
// the registration and triggers the completion follow-up pipeline.
func (s *RegistrationService) UpdateProgress(ctx context.Context, courseID int64, learnerID string, progress int) (*models.Registration, error) {
	if progress < 0 || progress > 100 {
		return nil, apperrors.ErrInvalidProgress
	}

	reg, err := s.repos.RegistrationRepository.GetByLearnerAndCourse(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}

	if progress >= 100 {
		return s.complete(ctx, reg)
	}

	if err := s.repos.RegistrationRepository.UpdateProgress(ctx, reg.ID, progress); err != nil {
		return nil, err
	}
	reg.Progress = progress
	return reg, nil
}

// CompleteLesson records a finished lesson and recomputes progress from
// the completed-lesson count against the course's lesson total.
func (s *RegistrationService) CompleteLesson(ctx context.Context, courseID int64, learnerID string, lessonID int64) (*models.Registration, error) {
	reg, err := s.repos.RegistrationRepository.GetByLearnerAndCourse(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}

	inserted, err := s.repos.RegistrationRepository.InsertLessonCompletion(ctx, reg.ID, lessonID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		s.log.Debug().Int64("lessonId", lessonID).Int64("registrationId", reg.ID).Msg("Lesson already completed")
		return reg, nil
	}

	total, err := s.repos.StructureRepository.CountLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return reg, nil
	}

	completed, err := s.repos.RegistrationRepository.CountCompletedLessons(ctx, reg.ID)
	if err != nil {
		return nil, err
	}

	progress := completed * 100 / total
	if progress >= 100 {
		return s.complete(ctx, reg)
	}

	if err := s.repos.RegistrationRepository.UpdateProgress(ctx, reg.ID, progress); err != nil {
		return nil, err
	}
	reg.Progress = progress
	return reg, nil
}

// complete transitions the registration and fires the completion
// pipeline exactly once per registration.
func (s *RegistrationService) complete(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	completedAt := time.Now()
	transitioned, err := s.repos.RegistrationRepository.MarkCompleted(ctx, reg.ID, completedAt)
	if err != nil {
		return nil, err
	}

	reg.Progress = 100
	reg.Status = models.RegistrationCompleted
	reg.CompletedAt = &completedAt

	if !transitioned {
		return reg, nil
	}

	course, err := s.repos.CourseRepository.GetByID(ctx, reg.CourseID)
	courseName := ""
	if err != nil {
		s.log.Error().Err(err).Int64("courseId", reg.CourseID).Msg("Course lookup failed for completion event")
	} else {
		courseName = course.Name
	}

	s.completion.OnCourseCompletion(ctx, dto.CompletionEvent{
		CourseID:    reg.CourseID,
		CourseName:  courseName,
		LearnerID:   reg.LearnerID,
		CompletedAt: completedAt,
	})

	return reg, nil
}
