package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/apperrors"
)

// VersionRepository stores immutable snapshots of entities. Version
// numbers are monotonic per entity, assigned inside the insert itself.
type VersionRepository struct {
	db *pgxpool.Pool
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *pgxpool.Pool) *VersionRepository {
	return &VersionRepository{db: db}
}

// InsertTx writes the next version snapshot for an entity within an open
// transaction and returns the assigned version number.
func (r *VersionRepository) InsertTx(ctx context.Context, tx pgx.Tx, entityType string, entityID int64, data interface{}) (int, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("error marshaling version data: %w", err)
	}

	var versionNumber int
	err = tx.QueryRow(ctx, `
		INSERT INTO entity_versions (entity_type, entity_id, version_number, data)
		SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3
		FROM entity_versions
		WHERE entity_type = $1 AND entity_id = $2
		RETURNING version_number
	`, entityType, entityID, payload).Scan(&versionNumber)
	if err != nil {
		return 0, fmt.Errorf("error inserting version: %w", err)
	}

	return versionNumber, nil
}

// ListByEntity returns all snapshots of an entity, newest first.
func (r *VersionRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*models.Version, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, entity_type, entity_id, version_number, data, created_at
		FROM entity_versions
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY version_number DESC
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("error querying versions: %w", err)
	}
	defer rows.Close()

	versions := []*models.Version{}
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.EntityType, &v.EntityID, &v.VersionNumber, &v.Data, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning version: %w", err)
		}
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

// GetByNumber returns a single snapshot of an entity.
func (r *VersionRepository) GetByNumber(ctx context.Context, entityType string, entityID int64, versionNumber int) (*models.Version, error) {
	var v models.Version
	err := r.db.QueryRow(ctx, `
		SELECT id, entity_type, entity_id, version_number, data, created_at
		FROM entity_versions
		WHERE entity_type = $1 AND entity_id = $2 AND version_number = $3
	`, entityType, entityID, versionNumber).Scan(
		&v.ID, &v.EntityType, &v.EntityID, &v.VersionNumber, &v.Data, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrVersionNotFound
		}
		return nil, fmt.Errorf("error querying version: %w", err)
	}
	return &v, nil
}
