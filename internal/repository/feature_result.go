package repository

import (
	"context"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

// SaveFeatureResult appends one completed feature invocation for display.
// The id is assigned by the caller so the spend transaction can reference
// the result it paid for.
func (r *Repository) SaveFeatureResult(ctx context.Context, res *model.FeatureResult) error {
	query := `
		INSERT INTO feature_results (id, user_id, feature_type, output, credits_charged)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRowContext(ctx, query,
		res.ID,
		res.UserID,
		string(res.FeatureType),
		[]byte(res.Output),
		res.CreditsCharged,
	).Scan(&res.CreatedAt)
}

// GetFeatureResults returns a user's feature history, most recent first.
func (r *Repository) GetFeatureResults(ctx context.Context, userID int64, limit int) ([]model.FeatureResult, error) {
	var results []model.FeatureResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT * FROM feature_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit)
	return results, err
}
