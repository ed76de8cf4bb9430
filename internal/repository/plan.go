package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

var ErrPlanNotFound = errors.New("plan subscription not found")

// GetActivePlan returns the user's most recent active plan subscription.
// The subscription rows are written by the billing collaborator; this core
// only reads them.
func (r *Repository) GetActivePlan(ctx context.Context, userID int64) (*model.PlanSubscription, error) {
	var sub model.PlanSubscription
	query := `
		SELECT * FROM plan_subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &sub, nil
}
