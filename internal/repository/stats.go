package repository

import "context"

// CreditStats is the aggregate view used by the admin surface.
type CreditStats struct {
	TotalAccounts     int64 `db:"total_accounts" json:"total_accounts"`
	TotalBalance      int64 `db:"total_balance" json:"total_balance"`
	LifetimePurchased int64 `db:"lifetime_purchased" json:"lifetime_purchased"`
	LifetimeSpent     int64 `db:"lifetime_spent" json:"lifetime_spent"`
}

func (r *Repository) GetCreditStats(ctx context.Context) (*CreditStats, error) {
	var stats CreditStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_accounts,
			COALESCE(SUM(balance), 0) AS total_balance,
			COALESCE(SUM(lifetime_purchased), 0) AS lifetime_purchased,
			COALESCE(SUM(lifetime_spent), 0) AS lifetime_spent
		FROM credit_accounts`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
