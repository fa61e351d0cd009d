package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaya/coursebuilder/internal/app/models"
)

// AssessmentRepository handles database operations for assessment scores
type AssessmentRepository struct {
	db *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository
func NewAssessmentRepository(db *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Insert records an assessment score.
func (r *AssessmentRepository) Insert(ctx context.Context, score *models.AssessmentScore) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO assessment_scores (course_id, learner_id, score)
		VALUES ($1, $2, $3)
		RETURNING id
	`, score.CourseID, score.LearnerID, score.Score).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting assessment score: %w", err)
	}
	return id, nil
}

// LatestScore returns a learner's most recent score for a course, or
// nil when none was ever recorded.
func (r *AssessmentRepository) LatestScore(ctx context.Context, learnerID string, courseID int64) (*int, error) {
	var score int
	err := r.db.QueryRow(ctx, `
		SELECT score
		FROM assessment_scores
		WHERE learner_id = $1 AND course_id = $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`, learnerID, courseID).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying assessment score: %w", err)
	}
	return &score, nil
}
