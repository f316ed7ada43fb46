package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is minutes since midnight
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" into minutes since midnight
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, ValidationError("INVALID_TIME_OF_DAY", "cannot parse %q as HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, ValidationError("INVALID_TIME_OF_DAY", "%q is out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Minutes returns the value as whole minutes since midnight
func (t TimeOfDay) Minutes() int { return int(t) }

// BookingConstraints carries the booking-window parameters a schedule stamps
// onto the availabilities it generates
type BookingConstraints struct {
	MinAdvanceBookingMinutes    int `json:"min_advance_booking_minutes" validate:"min=0"`
	MaxAdvanceBookingDays       int `json:"max_advance_booking_days" validate:"min=0"`
	CancellationDeadlineMinutes int `json:"cancellation_deadline_minutes" validate:"min=0"`
}

// Schedule is a recurring weekly availability rule
type Schedule struct {
	ID                  uuid.UUID      `json:"id"`
	ProfileID           uuid.UUID      `json:"profile_id"`
	Name                string         `json:"name"`
	DaysOfWeek          []time.Weekday `json:"days_of_week"`
	StartTimeOfDay      TimeOfDay      `json:"start_time_of_day"`
	EndTimeOfDay        TimeOfDay      `json:"end_time_of_day"`
	SlotDurationMinutes int            `json:"slot_duration_minutes"`
	Constraints         BookingConstraints `json:"constraints"`
	EffectiveFrom       time.Time      `json:"effective_from"`
	EffectiveUntil      *time.Time     `json:"effective_until,omitempty"`
	IsActive            bool           `json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// ScheduleCreate represents schedule creation data. Times of day are "HH:MM",
// dates are "2006-01-02".
type ScheduleCreate struct {
	Name                string             `json:"name" validate:"required,max=255"`
	DaysOfWeek          []int              `json:"days_of_week" validate:"required,min=1,max=7,dive,min=0,max=6"`
	StartTimeOfDay      string             `json:"start_time_of_day" validate:"required"`
	EndTimeOfDay        string             `json:"end_time_of_day" validate:"required"`
	SlotDurationMinutes int                `json:"slot_duration_minutes" validate:"required,min=1"`
	Constraints         BookingConstraints `json:"constraints"`
	EffectiveFrom       string             `json:"effective_from" validate:"required"`
	EffectiveUntil      string             `json:"effective_until,omitempty"`
}

const dateLayout = "2006-01-02"

// ParseDate parses a calendar date in UTC
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ValidationError("INVALID_DATE", "cannot parse %q as YYYY-MM-DD", s)
	}
	return d, nil
}

// NewSchedule validates and builds a schedule from creation data
func NewSchedule(profileID uuid.UUID, input ScheduleCreate, now time.Time) (*Schedule, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ValidationError("INVALID_SCHEDULE_NAME", "schedule name is empty")
	}

	start, err := ParseTimeOfDay(input.StartTimeOfDay)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(input.EndTimeOfDay)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, ValidationError("INVALID_TIME_RANGE", "start %s must be before end %s", start, end)
	}
	if input.SlotDurationMinutes <= 0 {
		return nil, ValidationError("INVALID_SLOT_DURATION", "slot duration must be positive")
	}
	if input.Constraints.MinAdvanceBookingMinutes < 0 ||
		input.Constraints.MaxAdvanceBookingDays < 0 ||
		input.Constraints.CancellationDeadlineMinutes < 0 {
		return nil, ValidationError("INVALID_BOOKING_CONSTRAINTS", "booking constraints must be non-negative")
	}

	from, err := ParseDate(input.EffectiveFrom)
	if err != nil {
		return nil, err
	}

	var until *time.Time
	if strings.TrimSpace(input.EffectiveUntil) != "" {
		u, err := ParseDate(input.EffectiveUntil)
		if err != nil {
			return nil, err
		}
		if u.Before(from) {
			return nil, ValidationError("INVALID_DATE_RANGE", "effective_until precedes effective_from")
		}
		until = &u
	}

	days := make([]time.Weekday, 0, len(input.DaysOfWeek))
	seen := make(map[time.Weekday]struct{}, len(input.DaysOfWeek))
	for _, d := range input.DaysOfWeek {
		if d < 0 || d > 6 {
			return nil, ValidationError("INVALID_DAY_OF_WEEK", "day of week %d is out of range", d)
		}
		wd := time.Weekday(d)
		if _, dup := seen[wd]; dup {
			continue
		}
		seen[wd] = struct{}{}
		days = append(days, wd)
	}
	if len(days) == 0 {
		return nil, ValidationError("INVALID_DAY_OF_WEEK", "schedule requires at least one day of week")
	}

	return &Schedule{
		ID:                  uuid.New(),
		ProfileID:           profileID,
		Name:                name,
		DaysOfWeek:          days,
		StartTimeOfDay:      start,
		EndTimeOfDay:        end,
		SlotDurationMinutes: input.SlotDurationMinutes,
		Constraints:         input.Constraints,
		EffectiveFrom:       from,
		EffectiveUntil:      until,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// IsEffectiveOn reports whether the schedule generates availability on the
// given calendar date: the schedule is active, the date lies in the effective
// range, and the weekday is selected.
func (s *Schedule) IsEffectiveOn(date time.Time) bool {
	if !s.IsActive {
		return false
	}
	day := date.Truncate(24 * time.Hour)
	if day.Before(s.EffectiveFrom) {
		return false
	}
	if s.EffectiveUntil != nil && day.After(*s.EffectiveUntil) {
		return false
	}
	for _, wd := range s.DaysOfWeek {
		if day.Weekday() == wd {
			return true
		}
	}
	return false
}

// WindowOn returns the concrete UTC availability window for the given date
func (s *Schedule) WindowOn(date time.Time) (start, end time.Time) {
	day := date.Truncate(24 * time.Hour)
	start = day.Add(time.Duration(s.StartTimeOfDay) * time.Minute)
	end = day.Add(time.Duration(s.EndTimeOfDay) * time.Minute)
	return start, end
}
