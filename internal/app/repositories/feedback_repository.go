package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaya/coursebuilder/internal/app/models"
)

// FeedbackRepository handles database operations for course feedback
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores one feedback entry and returns its id. A learner may
// leave feedback more than once; each submission is kept.
func (r *FeedbackRepository) Insert(ctx context.Context, feedback *models.Feedback) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO course_feedback (course_id, learner_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, feedback.CourseID, feedback.LearnerID, feedback.Rating, feedback.Comment).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting feedback: %w", err)
	}
	return id, nil
}

// ListByCourse returns feedback entries for a course, newest first.
func (r *FeedbackRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Feedback, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, course_id, learner_id, rating, comment, created_at
		FROM course_feedback
		WHERE course_id = $1
		ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	entries := []*models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.CourseID, &f.LearnerID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		entries = append(entries, &f)
	}
	return entries, rows.Err()
}

// AverageRating computes the mean rating for a course; nil when the
// course has no feedback yet.
func (r *FeedbackRepository) AverageRating(ctx context.Context, courseID int64) (*float64, error) {
	var avg *float64
	err := r.db.QueryRow(ctx, `
		SELECT AVG(rating)::float8
		FROM course_feedback
		WHERE course_id = $1
	`, courseID).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("error computing average rating: %w", err)
	}
	return avg, nil
}
