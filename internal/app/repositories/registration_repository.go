package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
	"github.com/mkaya/coursebuilder/internal/pkg/dberrors"
)

// RegistrationRepository handles database operations for registrations
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// InsertTx creates a registration within an open transaction. A second
// registration for the same (learner, course) pair violates the unique
// constraint and is reported as a conflict.
func (r *RegistrationRepository) InsertTx(ctx context.Context, tx pgx.Tx, reg *models.Registration) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO registrations (learner_id, learner_email, course_id, status, progress, is_enrolled, enrolled_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, reg.LearnerID, reg.LearnerEmail, reg.CourseID, reg.Status, reg.Progress, reg.IsEnrolled, reg.EnrolledDate).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "uq_registrations_learner_course") {
			return 0, apperrors.ErrAlreadyRegistered
		}
		return 0, fmt.Errorf("error inserting registration: %w", err)
	}
	return id, nil
}

// GetByLearnerAndCourse looks up a learner's registration for a course.
func (r *RegistrationRepository) GetByLearnerAndCourse(ctx context.Context, learnerID string, courseID int64) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.QueryRow(ctx, `
		SELECT id, learner_id, learner_email, course_id, status, progress, is_enrolled, enrolled_date, completed_at
		FROM registrations
		WHERE learner_id = $1 AND course_id = $2
	`, learnerID, courseID).Scan(
		&reg.ID, &reg.LearnerID, &reg.LearnerEmail, &reg.CourseID,
		&reg.Status, &reg.Progress, &reg.IsEnrolled, &reg.EnrolledDate, &reg.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &reg, nil
}

// ListByCourse returns all registrations for a course.
func (r *RegistrationRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Registration, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, learner_id, learner_email, course_id, status, progress, is_enrolled, enrolled_date, completed_at
		FROM registrations
		WHERE course_id = $1
		ORDER BY enrolled_date DESC
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	regs := []*models.Registration{}
	for rows.Next() {
		var reg models.Registration
		err := rows.Scan(&reg.ID, &reg.LearnerID, &reg.LearnerEmail, &reg.CourseID,
			&reg.Status, &reg.Progress, &reg.IsEnrolled, &reg.EnrolledDate, &reg.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}

// ListByLearner returns all registrations for a learner, newest first.
func (r *RegistrationRepository) ListByLearner(ctx context.Context, learnerID string) ([]*models.Registration, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, learner_id, learner_email, course_id, status, progress, is_enrolled, enrolled_date, completed_at
		FROM registrations
		WHERE learner_id = $1
		ORDER BY enrolled_date DESC
	`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	regs := []*models.Registration{}
	for rows.Next() {
		var reg models.Registration
		err := rows.Scan(&reg.ID, &reg.LearnerID, &reg.LearnerEmail, &reg.CourseID,
			&reg.Status, &reg.Progress, &reg.IsEnrolled, &reg.EnrolledDate, &reg.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}

// UpdateProgress writes the new progress value. Completion is handled
// separately so the status transition stays in one place.
func (r *RegistrationRepository) UpdateProgress(ctx context.Context, id int64, progress int) error {
	result, err := r.db.Exec(ctx, `
		UPDATE registrations
		SET progress = $1
		WHERE id = $2
	`, progress, id)
	if err != nil {
		return fmt.Errorf("error updating progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrRegistrationNotFound
	}
	return nil
}

// MarkCompleted transitions a registration to completed with full
// progress. Already-completed rows are left untouched so completion
// side effects fire at most once.
func (r *RegistrationRepository) MarkCompleted(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE registrations
		SET status = $1, progress = 100, completed_at = $2
		WHERE id = $3 AND status <> $1
	`, models.RegistrationCompleted, completedAt, id)
	if err != nil {
		return false, fmt.Errorf("error marking registration completed: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// CountCompletedLessons returns how many lessons a learner has finished
// in a course.
func (r *RegistrationRepository) CountCompletedLessons(ctx context.Context, registrationID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lesson_completions
		WHERE registration_id = $1
	`, registrationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting completed lessons: %w", err)
	}
	return count, nil
}

// InsertLessonCompletion records one finished lesson. Re-completing the
// same lesson is a no-op and returns false.
func (r *RegistrationRepository) InsertLessonCompletion(ctx context.Context, registrationID, lessonID int64) (bool, error) {
	result, err := r.db.Exec(ctx, `
		INSERT INTO lesson_completions (registration_id, lesson_id)
		VALUES ($1, $2)
		ON CONFLICT (registration_id, lesson_id) DO NOTHING
	`, registrationID, lessonID)
	if err != nil {
		return false, fmt.Errorf("error inserting lesson completion: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
