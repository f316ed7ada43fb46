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

// ScheduleRepository handles recurring schedule data access
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func weekdaysToInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func intsToWeekdays(ints []int32) []time.Weekday {
	out := make([]time.Weekday, len(ints))
	for i, d := range ints {
		out[i] = time.Weekday(d)
	}
	return out
}

// Create persists a schedule; (profile_id, name) is unique
func (r *ScheduleRepository) Create(ctx context.Context, s *domain.Schedule) error {
	query := `
		INSERT INTO schedules
			(id, profile_id, name, days_of_week, start_minute, end_minute, slot_duration_minutes,
			 min_advance_booking_minutes, max_advance_booking_days, cancellation_deadline_minutes,
			 effective_from, effective_until, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		s.ID, s.ProfileID, s.Name, weekdaysToInts(s.DaysOfWeek),
		s.StartTimeOfDay.Minutes(), s.EndTimeOfDay.Minutes(), s.SlotDurationMinutes,
		s.Constraints.MinAdvanceBookingMinutes, s.Constraints.MaxAdvanceBookingDays,
		s.Constraints.CancellationDeadlineMinutes,
		s.EffectiveFrom, s.EffectiveUntil, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "schedules_profile_id_name_key") {
			return domain.ConflictError("SCHEDULE_NAME_TAKEN",
				"profile %s already has a schedule named %q", s.ProfileID, s.Name)
		}
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

const scheduleColumns = `id, profile_id, name, days_of_week, start_minute, end_minute, slot_duration_minutes,
	min_advance_booking_minutes, max_advance_booking_days, cancellation_deadline_minutes,
	effective_from, effective_until, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	var days []int32
	var startMinute, endMinute int

	err := row.Scan(
		&s.ID, &s.ProfileID, &s.Name, &days, &startMinute, &endMinute, &s.SlotDurationMinutes,
		&s.Constraints.MinAdvanceBookingMinutes, &s.Constraints.MaxAdvanceBookingDays,
		&s.Constraints.CancellationDeadlineMinutes,
		&s.EffectiveFrom, &s.EffectiveUntil, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	s.DaysOfWeek = intsToWeekdays(days)
	s.StartTimeOfDay = domain.TimeOfDay(startMinute)
	s.EndTimeOfDay = domain.TimeOfDay(endMinute)
	return &s, nil
}

// GetByID retrieves a schedule by ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	return scanSchedule(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// ListByProfile returns a profile's schedules
func (r *ScheduleRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE profile_id = $1 ORDER BY name`

	rows, err := r.db.querier(ctx).Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		var days []int32
		var startMinute, endMinute int
		if err := rows.Scan(
			&s.ID, &s.ProfileID, &s.Name, &days, &startMinute, &endMinute, &s.SlotDurationMinutes,
			&s.Constraints.MinAdvanceBookingMinutes, &s.Constraints.MaxAdvanceBookingDays,
			&s.Constraints.CancellationDeadlineMinutes,
			&s.EffectiveFrom, &s.EffectiveUntil, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		s.DaysOfWeek = intsToWeekdays(days)
		s.StartTimeOfDay = domain.TimeOfDay(startMinute)
		s.EndTimeOfDay = domain.TimeOfDay(endMinute)
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// SetActive toggles a schedule's active flag
func (r *ScheduleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) error {
	query := `UPDATE schedules SET is_active = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.db.querier(ctx).Exec(ctx, query, id, active, now)
	if err != nil {
		return fmt.Errorf("failed to set schedule active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("SCHEDULE_NOT_FOUND", "schedule %s not found", id)
	}
	return nil
}
