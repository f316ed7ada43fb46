package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProfileType distinguishes individual and business scheduling profiles
type ProfileType string

const (
	ProfileTypeIndividual ProfileType = "individual"
	ProfileTypeBusiness   ProfileType = "business"
)

// SchedulingProfile is the scheduling-side identity owning schedules and
// availabilities
type SchedulingProfile struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Type         ProfileType `json:"type"`
	DisplayName  string      `json:"display_name,omitempty"`
	BusinessName string      `json:"business_name,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ProfileCreate represents profile creation data
type ProfileCreate struct {
	Type         ProfileType `json:"type" validate:"required,oneof=individual business"`
	DisplayName  string      `json:"display_name,omitempty" validate:"omitempty,max=255"`
	BusinessName string      `json:"business_name,omitempty" validate:"omitempty,max=255"`
}

// NewSchedulingProfile validates and builds a profile. Business profiles
// require a business name; individual profiles must not carry one.
func NewSchedulingProfile(userID uuid.UUID, input ProfileCreate, now time.Time) (*SchedulingProfile, error) {
	businessName := strings.TrimSpace(input.BusinessName)

	switch input.Type {
	case ProfileTypeIndividual:
		if businessName != "" {
			return nil, ValidationError("INVALID_PROFILE", "individual profiles cannot have a business name")
		}
	case ProfileTypeBusiness:
		if businessName == "" {
			return nil, ValidationError("INVALID_PROFILE", "business profiles require a business name")
		}
	default:
		return nil, ValidationError("INVALID_PROFILE", "unknown profile type %q", input.Type)
	}

	return &SchedulingProfile{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         input.Type,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		BusinessName: businessName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
