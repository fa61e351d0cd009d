package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
)

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: db}
}

// InsertTx inserts a course row within an open transaction and returns its id.
func (r *CourseRepository) InsertTx(ctx context.Context, tx pgx.Tx, course *models.Course) (int64, error) {
	metadata, err := json.Marshal(course.Metadata)
	if err != nil {
		return 0, fmt.Errorf("error marshaling course metadata: %w", err)
	}

	query := `
		INSERT INTO courses (name, description, type, status, level, duration, created_by, structured_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		course.Name, course.Description, course.Type, course.Status,
		course.Level, course.Duration, course.CreatedBy, metadata).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting course: %w", err)
	}

	return id, nil
}

// UpdateMetadataTx replaces the structured metadata JSON within a transaction.
func (r *CourseRepository) UpdateMetadataTx(ctx context.Context, tx pgx.Tx, courseID int64, metadata models.CourseMetadata) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("error marshaling course metadata: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE courses
		SET structured_metadata = $1, updated_at = NOW()
		WHERE id = $2
	`, data, courseID)
	if err != nil {
		return fmt.Errorf("error updating course metadata: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// IncrementEnrolledTx bumps the enrolled counter in place. Row-level
// increment avoids lost updates under concurrent registrations.
func (r *CourseRepository) IncrementEnrolledTx(ctx context.Context, tx pgx.Tx, courseID int64) error {
	result, err := tx.Exec(ctx, `
		UPDATE courses
		SET enrolled_count = enrolled_count + 1, updated_at = NOW()
		WHERE id = $1
	`, courseID)
	if err != nil {
		return fmt.Errorf("error incrementing enrolled count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// GetByID retrieves a course without its structure tree.
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `
		SELECT id, name, description, type, status, level, duration, created_by,
			structured_metadata, enrolled_count, created_at, updated_at
		FROM courses
		WHERE id = $1
	`

	var course models.Course
	var metadata []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&course.ID,
		&course.Name,
		&course.Description,
		&course.Type,
		&course.Status,
		&course.Level,
		&course.Duration,
		&course.CreatedBy,
		&metadata,
		&course.EnrolledCount,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &course.Metadata); err != nil {
			return nil, fmt.Errorf("error unmarshaling course metadata: %w", err)
		}
	}

	return &course, nil
}

// GetAll retrieves courses with filtering and pagination.
func (r *CourseRepository) GetAll(ctx context.Context, courseType *string, status *string, page, pageSize int) ([]*models.Course, int64, error) {
	builder := squirrel.Select(
		"id", "name", "description", "type", "status", "level", "duration",
		"created_by", "structured_metadata", "enrolled_count", "created_at", "updated_at",
		"COUNT(*) OVER() AS total_count",
	).
		From("courses").
		PlaceholderFormat(squirrel.Dollar)

	if courseType != nil && *courseType != "" {
		builder = builder.Where("type = ?", *courseType)
	}
	if status != nil && *status != "" {
		builder = builder.Where("status = ?", *status)
	}

	offset := (page - 1) * pageSize
	builder = builder.OrderBy("id DESC").Limit(uint64(pageSize)).Offset(uint64(offset))

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	var total int64
	for rows.Next() {
		var course models.Course
		var metadata []byte
		err := rows.Scan(
			&course.ID,
			&course.Name,
			&course.Description,
			&course.Type,
			&course.Status,
			&course.Level,
			&course.Duration,
			&course.CreatedBy,
			&metadata,
			&course.EnrolledCount,
			&course.CreatedAt,
			&course.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &course.Metadata); err != nil {
				return nil, 0, fmt.Errorf("error unmarshaling course metadata: %w", err)
			}
		}

		courses = append(courses, &course)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, total, nil
}

// UpdateStatus transitions a course's publication status.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id int64, status models.CourseStatus) error {
	result, err := r.db.Exec(ctx, `
		UPDATE courses
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// Delete removes a course; child rows cascade at the schema level.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("courses").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}
