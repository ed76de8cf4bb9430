package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FeatureType identifies one paid AI-backed analysis feature.
type FeatureType string

const (
	FeatureSpendingReport FeatureType = "spending_report"
	FeatureBudgetPlan     FeatureType = "budget_plan"
	FeatureAdvisorChat    FeatureType = "advisor_chat"
)

// ParseFeatureType resolves a wire string to a known feature type.
func ParseFeatureType(s string) (FeatureType, bool) {
	switch FeatureType(s) {
	case FeatureSpendingReport, FeatureBudgetPlan, FeatureAdvisorChat:
		return FeatureType(s), true
	}
	return "", false
}

// Conversational reports whether the feature appends to a message thread
// instead of running a stateless request/response.
func (f FeatureType) Conversational() bool {
	return f == FeatureAdvisorChat
}

// FeatureResult is the persisted output of one completed feature invocation.
// Display only; the credit account remains the source of truth for balance.
type FeatureResult struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         int64           `json:"user_id" db:"user_id"`
	FeatureType    FeatureType     `json:"feature_type" db:"feature_type"`
	Output         json.RawMessage `json:"output" db:"output"`
	CreditsCharged int             `json:"credits_charged" db:"credits_charged"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// FeatureOutput is the payload stored in FeatureResult.Output.
type FeatureOutput struct {
	Text string `json:"text"`
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of a user's advisor thread.
type ChatMessage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Role      ChatRole  `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
