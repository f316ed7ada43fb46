package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProfileRepository handles scheduling profile data access
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create persists a profile. Partial unique indexes back the one-individual-
// per-user and business-name-unique-per-user rules.
func (r *ProfileRepository) Create(ctx context.Context, p *domain.SchedulingProfile) error {
	query := `
		INSERT INTO scheduling_profiles (id, user_id, type, display_name, business_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		p.ID, p.UserID, p.Type, p.DisplayName, p.BusinessName, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "scheduling_profiles_one_individual_per_user") {
			return domain.ConflictError("PROFILE_ALREADY_EXISTS",
				"user %s already has an individual profile", p.UserID)
		}
		if IsUniqueViolation(err, "scheduling_profiles_business_name_per_user") {
			return domain.ConflictError("BUSINESS_NAME_ALREADY_EXISTS",
				"user %s already has a profile named %q", p.UserID, p.BusinessName)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

const profileColumns = `id, user_id, type, COALESCE(display_name, ''), COALESCE(business_name, ''), created_at, updated_at`

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SchedulingProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scheduling_profiles WHERE id = $1`

	var p domain.SchedulingProfile
	err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Type, &p.DisplayName, &p.BusinessName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// ListByUser returns all profiles owned by a user
func (r *ProfileRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SchedulingProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM scheduling_profiles WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.querier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.SchedulingProfile
	for rows.Next() {
		var p domain.SchedulingProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Type, &p.DisplayName, &p.BusinessName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
