package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/app/repositories"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// FeedbackService records and lists learner feedback on courses.
type FeedbackService struct {
	repos *repositories.Repositories
	log   zerolog.Logger
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(repos *repositories.Repositories) *FeedbackService {
	return &FeedbackService{
		repos: repos,
		log:   logger.With("feedback_service"),
	}
}

// SubmitFeedback stores a rating with an optional comment.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, courseID int64, learnerID string, rating int, comment string) (*models.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}

	if _, err := s.repos.CourseRepository.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	feedback := &models.Feedback{
		CourseID:  courseID,
		LearnerID: learnerID,
		Rating:    rating,
	}
	if comment != "" {
		feedback.Comment = &comment
	}

	id, err := s.repos.FeedbackRepository.Insert(ctx, feedback)
	if err != nil {
		return nil, err
	}
	feedback.ID = id

	s.log.Info().Int64("courseId", courseID).Int("rating", rating).Msg("Feedback recorded")
	return feedback, nil
}

// ListFeedback returns a course's feedback entries with the average rating.
func (s *FeedbackService) ListFeedback(ctx context.Context, courseID int64) ([]*models.Feedback, *float64, error) {
	if _, err := s.repos.CourseRepository.GetByID(ctx, courseID); err != nil {
		return nil, nil, err
	}

	entries, err := s.repos.FeedbackRepository.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	avg, err := s.repos.FeedbackRepository.AverageRating(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	return entries, avg, nil
}
