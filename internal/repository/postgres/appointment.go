package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppointmentRepository handles appointment data access
type AppointmentRepository struct {
	db *DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create persists an appointment. The unique constraint on time_slot_id is
// the final backstop against two concurrent bookings of the same slot.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	query := `
		INSERT INTO appointments
			(id, time_slot_id, host_profile_id, guest_profile_id, status, created_at, canceled_at, canceled_by, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		a.ID, a.TimeSlotID, a.HostProfileID, a.GuestProfileID, a.Status,
		a.CreatedAt, a.CanceledAt, a.CanceledBy, a.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "appointments_one_booked_per_slot") {
			return domain.ConflictError("TIMESLOT_NOT_AVAILABLE",
				"time slot %s is already booked", a.TimeSlotID)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

const appointmentColumns = `id, time_slot_id, host_profile_id, guest_profile_id, status, created_at, canceled_at, canceled_by, completed_at`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID, &a.TimeSlotID, &a.HostProfileID, &a.GuestProfileID, &a.Status,
		&a.CreatedAt, &a.CanceledAt, &a.CanceledBy, &a.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan appointment: %w", err)
	}
	return &a, nil
}

// GetByID retrieves an appointment by ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return scanAppointment(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an appointment holding a row lock
func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`
	return scanAppointment(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// Update persists the mutable fields of an appointment
func (r *AppointmentRepository) Update(ctx context.Context, a *domain.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $2, canceled_at = $3, canceled_by = $4, completed_at = $5
		WHERE id = $1
	`

	tag, err := r.db.querier(ctx).Exec(ctx, query, a.ID, a.Status, a.CanceledAt, a.CanceledBy, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("APPOINTMENT_NOT_FOUND", "appointment %s not found", a.ID)
	}
	return nil
}

// ListByProfile returns appointments where the profile is host or guest,
// newest first
func (r *AppointmentRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE host_profile_id = $1 OR guest_profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(
			&a.ID, &a.TimeSlotID, &a.HostProfileID, &a.GuestProfileID, &a.Status,
			&a.CreatedAt, &a.CanceledAt, &a.CanceledBy, &a.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
