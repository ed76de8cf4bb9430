package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

// ErrLedgerUnreachable marks a failed round trip to an atomic ledger
// procedure. No charge has been applied when it is returned.
var ErrLedgerUnreachable = errors.New("credit ledger unreachable")

// SpendResult is the outcome of the spend_credits procedure.
type SpendResult struct {
	Success      bool
	NewBalance   int
	ErrorMessage string
}

// GetCreditAccount returns the account row for a user, creating it lazily
// with a zero balance on first read.
func (r *Repository) GetCreditAccount(ctx context.Context, userID int64) (*model.CreditAccount, error) {
	var account model.CreditAccount
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO credit_accounts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING *`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit account: %w", err)
	}
	return &account, nil
}

// SpendCredits invokes the atomic spend_credits procedure: one server-side
// transaction that locks the account, rejects overdraw, decrements the
// balance and appends the ledger row. The caller never does a client-side
// read-modify-write of the balance.
func (r *Repository) SpendCredits(ctx context.Context, userID int64, amount int, feature model.FeatureType, referenceID *uuid.UUID) (*SpendResult, error) {
	var row struct {
		Success      bool    `db:"success"`
		NewBalance   int     `db:"new_balance"`
		ErrorMessage *string `db:"error_message"`
	}
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM spend_credits($1, $2, $3, $4)",
		userID, amount, string(feature), referenceID)
	if err != nil {
		return nil, fmt.Errorf("%w: spend_credits: %v", ErrLedgerUnreachable, err)
	}

	res := &SpendResult{Success: row.Success, NewBalance: row.NewBalance}
	if row.ErrorMessage != nil {
		res.ErrorMessage = *row.ErrorMessage
	}
	return res, nil
}

// AddCredits invokes the atomic add_credits procedure and returns the new
// balance. Used for purchases, refunds and bonus grants alike.
func (r *Repository) AddCredits(ctx context.Context, userID int64, amount int, txType model.TransactionType, metadata model.Metadata) (int, error) {
	var row struct {
		Success    bool `db:"success"`
		NewBalance int  `db:"new_balance"`
	}
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM add_credits($1, $2, $3, $4)",
		userID, amount, string(txType), metadata)
	if err != nil {
		return 0, fmt.Errorf("%w: add_credits: %v", ErrLedgerUnreachable, err)
	}
	return row.NewBalance, nil
}

// GrantMonthlyBonus invokes the grant_monthly_bonus procedure, which folds
// the last-bonus-month check and the increment into one transaction so
// concurrent claims in the same month grant at most once.
func (r *Repository) GrantMonthlyBonus(ctx context.Context, userID int64, amount int, monthKey string) (bool, int, error) {
	var row struct {
		Granted    bool `db:"granted"`
		NewBalance int  `db:"new_balance"`
	}
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM grant_monthly_bonus($1, $2, $3)",
		userID, amount, monthKey)
	if err != nil {
		return false, 0, fmt.Errorf("%w: grant_monthly_bonus: %v", ErrLedgerUnreachable, err)
	}
	return row.Granted, row.NewBalance, nil
}

// GetCreditTransactions returns ledger history for a user, most recent first.
func (r *Repository) GetCreditTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.CreditTransaction, error) {
	var transactions []model.CreditTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
