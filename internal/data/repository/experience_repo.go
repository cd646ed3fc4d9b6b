package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atlas-booking/internal/data/entity"
	"atlas-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ExperienceFilter struct {
	Type       *entity.ExperienceType
	ActiveOnly bool
}

type ExperienceRepository interface {
	Create(ctx context.Context, experience *entity.Experience) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Experience, error)
	FindAll(ctx context.Context, filter ExperienceFilter, limit, offset int) ([]*entity.Experience, error)
	CountAll(ctx context.Context, filter ExperienceFilter) (int64, error)
	Update(ctx context.Context, experience *entity.Experience) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type experienceRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewExperienceRepository(db database.PgxIface, log *zap.Logger) ExperienceRepository {
	return &experienceRepository{
		db:  db,
		log: log.With(zap.String("repository", "experience")),
	}
}

const experienceColumns = `id, type, title, description, location, unit_price, image_ref, is_active, created_at, updated_at, deleted_at`

func scanExperience(row scanner) (*entity.Experience, error) {
	var e entity.Experience
	err := row.Scan(
		&e.ID,
		&e.Type,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.UnitPrice,
		&e.ImageRef,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *experienceRepository) Create(ctx context.Context, e *entity.Experience) error {
	query := `
		INSERT INTO experiences (id, type, title, description, location, unit_price,
		                         image_ref, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		e.ID,
		e.Type,
		e.Title,
		e.Description,
		e.Location,
		e.UnitPrice,
		e.ImageRef,
		e.IsActive,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create experience",
			zap.Error(err),
			zap.String("title", e.Title),
		)
		return fmt.Errorf("create experience: %w", err)
	}

	return nil
}

func (r *experienceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Experience, error) {
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = $1 AND deleted_at IS NULL`

	e, err := scanExperience(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find experience by ID",
			zap.Error(err),
			zap.String("experience_id", id.String()),
		)
		return nil, fmt.Errorf("find experience %s: %w", id, err)
	}

	return e, nil
}

// where builds the shared filter clause and returns the next placeholder index.
func (f ExperienceFilter) where() (string, []interface{}, int) {
	var sb strings.Builder
	sb.WriteString(" WHERE deleted_at IS NULL")

	args := []interface{}{}
	argCount := 1

	if f.Type != nil && *f.Type != "" {
		sb.WriteString(fmt.Sprintf(" AND type = $%d", argCount))
		args = append(args, *f.Type)
		argCount++
	}
	if f.ActiveOnly {
		sb.WriteString(" AND is_active = TRUE")
	}

	return sb.String(), args, argCount
}

func (r *experienceRepository) FindAll(ctx context.Context, filter ExperienceFilter, limit, offset int) ([]*entity.Experience, error) {
	where, args, argCount := filter.where()
	query := `SELECT ` + experienceColumns + ` FROM experiences` + where +
		fmt.Sprintf(" ORDER BY title ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find experiences",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find experiences: %w", err)
	}
	defer rows.Close()

	var experiences []*entity.Experience
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			r.log.Error("Failed to scan experience row", zap.Error(err))
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		experiences = append(experiences, e)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate experience rows: %w", err)
	}

	r.log.Debug("Experiences found", zap.Int("count", len(experiences)))
	return experiences, nil
}

func (r *experienceRepository) CountAll(ctx context.Context, filter ExperienceFilter) (int64, error) {
	where, args, _ := filter.where()

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM experiences`+where, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count experiences", zap.Error(err))
		return 0, fmt.Errorf("count experiences: %w", err)
	}

	return total, nil
}

func (r *experienceRepository) Update(ctx context.Context, e *entity.Experience) error {
	query := `
		UPDATE experiences
		SET type = $2, title = $3, description = $4, location = $5,
		    unit_price = $6, image_ref = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		e.ID,
		e.Type,
		e.Title,
		e.Description,
		e.Location,
		e.UnitPrice,
		e.ImageRef,
		e.IsActive,
		e.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update experience",
			zap.Error(err),
			zap.String("experience_id", e.ID.String()),
		)
		return fmt.Errorf("update experience %s: %w", e.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update experience %s: %w", e.ID, ErrNotFound)
	}

	return nil
}

func (r *experienceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE experiences SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete experience",
			zap.Error(err),
			zap.String("experience_id", id.String()),
		)
		return fmt.Errorf("delete experience %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete experience %s: %w", id, ErrNotFound)
	}

	r.log.Info("Experience soft deleted", zap.String("experience_id", id.String()))
	return nil
}
