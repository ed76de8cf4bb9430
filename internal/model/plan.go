package model

import (
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPlus    Plan = "plus"
	PlanPremium Plan = "premium"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusExpired   PlanStatus = "expired"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// PlanSubscription mirrors the subscription state managed by the billing
// collaborator. This core only reads it to gate the monthly credit bonus.
type PlanSubscription struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Plan      Plan       `json:"plan" db:"plan"`
	Status    PlanStatus `json:"status" db:"status"`
	StartedAt *time.Time `json:"started_at,omitempty" db:"started_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsActivePaid reports whether the subscription entitles the user to the
// monthly credit bonus at the given instant.
func (s *PlanSubscription) IsActivePaid(now time.Time) bool {
	if s.Status != PlanStatusActive || s.Plan == PlanFree {
		return false
	}
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return false
	}
	return true
}
