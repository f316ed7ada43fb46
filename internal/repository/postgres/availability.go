package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AvailabilityRepository handles availability and time slot data access
type AvailabilityRepository struct {
	db *DB
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db *DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create persists an availability together with its generated slots
func (r *AvailabilityRepository) Create(ctx context.Context, av *domain.Availability) error {
	q := r.db.querier(ctx)

	query := `
		INSERT INTO availabilities
			(id, host_profile_id, schedule_id, start_time, end_time, slot_duration_minutes,
			 min_advance_booking_minutes, max_advance_booking_days, cancellation_deadline_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.Exec(ctx, query,
		av.ID, av.HostProfileID, av.ScheduleID, av.StartTime, av.EndTime, av.SlotDurationMinutes,
		av.Constraints.MinAdvanceBookingMinutes, av.Constraints.MaxAdvanceBookingDays,
		av.Constraints.CancellationDeadlineMinutes, av.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}

	slotQuery := `
		INSERT INTO time_slots (id, availability_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, s := range av.Slots {
		if _, err := q.Exec(ctx, slotQuery, s.ID, s.AvailabilityID, s.StartTime, s.EndTime, s.Status); err != nil {
			return fmt.Errorf("failed to create time slot: %w", err)
		}
	}

	return nil
}

const availabilityColumns = `id, host_profile_id, schedule_id, start_time, end_time, slot_duration_minutes,
	min_advance_booking_minutes, max_advance_booking_days, cancellation_deadline_minutes, created_at`

func scanAvailability(row pgx.Row) (*domain.Availability, error) {
	var av domain.Availability
	err := row.Scan(
		&av.ID, &av.HostProfileID, &av.ScheduleID, &av.StartTime, &av.EndTime, &av.SlotDurationMinutes,
		&av.Constraints.MinAdvanceBookingMinutes, &av.Constraints.MaxAdvanceBookingDays,
		&av.Constraints.CancellationDeadlineMinutes, &av.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan availability: %w", err)
	}
	return &av, nil
}

// GetByID retrieves an availability without its slots
func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE id = $1`
	return scanAvailability(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// HasOverlapping reports whether the host already has an availability whose
// half-open window intersects [start, end)
func (r *AvailabilityRepository) HasOverlapping(ctx context.Context, hostProfileID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM availabilities
			WHERE host_profile_id = $1 AND start_time < $3 AND $2 < end_time
		)
	`

	var exists bool
	if err := r.db.querier(ctx).QueryRow(ctx, query, hostProfileID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check availability overlap: %w", err)
	}
	return exists, nil
}

// ListByProfile returns a host's availabilities intersecting [from, to)
func (r *AvailabilityRepository) ListByProfile(ctx context.Context, hostProfileID uuid.UUID, from, to time.Time) ([]domain.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availabilities
		WHERE host_profile_id = $1 AND start_time < $3 AND $2 < end_time
		ORDER BY start_time ASC
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, hostProfileID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}
	defer rows.Close()

	var avs []domain.Availability
	for rows.Next() {
		var av domain.Availability
		if err := rows.Scan(
			&av.ID, &av.HostProfileID, &av.ScheduleID, &av.StartTime, &av.EndTime, &av.SlotDurationMinutes,
			&av.Constraints.MinAdvanceBookingMinutes, &av.Constraints.MaxAdvanceBookingDays,
			&av.Constraints.CancellationDeadlineMinutes, &av.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		avs = append(avs, av)
	}
	return avs, rows.Err()
}

const slotColumns = `id, availability_id, start_time, end_time, status`

func scanSlot(row pgx.Row) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	err := row.Scan(&s.ID, &s.AvailabilityID, &s.StartTime, &s.EndTime, &s.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan time slot: %w", err)
	}
	return &s, nil
}

// GetSlot retrieves a time slot by ID
func (r *AvailabilityRepository) GetSlot(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`
	return scanSlot(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// GetSlotForUpdate retrieves a time slot holding a row lock for the rest of
// the transaction; a concurrent booker serializes here
func (r *AvailabilityRepository) GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1 FOR UPDATE`
	return scanSlot(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// GetSlotOwner returns the host profile that owns the slot's availability
func (r *AvailabilityRepository) GetSlotOwner(ctx context.Context, slotID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT a.host_profile_id
		FROM time_slots s
		INNER JOIN availabilities a ON s.availability_id = a.id
		WHERE s.id = $1
	`

	var owner uuid.UUID
	err := r.db.querier(ctx).QueryRow(ctx, query, slotID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to get slot owner: %w", err)
	}
	return owner, nil
}

// UpdateSlotStatus transitions a slot from one status to another; returns
// whether the guarded transition actually applied
func (r *AvailabilityRepository) UpdateSlotStatus(ctx context.Context, slotID uuid.UUID, from, to domain.SlotStatus) (bool, error) {
	query := `UPDATE time_slots SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := r.db.querier(ctx).Exec(ctx, query, slotID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update slot status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListAvailableSlots returns a host's available slots within [from, to),
// ascending by start time
func (r *AvailabilityRepository) ListAvailableSlots(ctx context.Context, hostProfileID uuid.UUID, from, to time.Time) ([]domain.TimeSlot, error) {
	query := `
		SELECT s.id, s.availability_id, s.start_time, s.end_time, s.status
		FROM time_slots s
		INNER JOIN availabilities a ON s.availability_id = a.id
		WHERE a.host_profile_id = $1
		  AND s.status = 'available'
		  AND s.start_time >= $2 AND s.start_time < $3
		ORDER BY s.start_time ASC
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, hostProfileID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.TimeSlot
	for rows.Next() {
		var s domain.TimeSlot
		if err := rows.Scan(&s.ID, &s.AvailabilityID, &s.StartTime, &s.EndTime, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListSlotsByAvailability returns all slots of an availability in order
func (r *AvailabilityRepository) ListSlotsByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]domain.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE availability_id = $1 ORDER BY start_time ASC`

	rows, err := r.db.querier(ctx).Query(ctx, query, availabilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.TimeSlot
	for rows.Next() {
		var s domain.TimeSlot
		if err := rows.Scan(&s.ID, &s.AvailabilityID, &s.StartTime, &s.EndTime, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
