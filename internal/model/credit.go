package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypePurchase          TransactionType = "purchase"
	TransactionTypeSpend             TransactionType = "spend"
	TransactionTypeRefund            TransactionType = "refund"
	TransactionTypeBonus             TransactionType = "bonus"
	TransactionTypeSubscriptionBonus TransactionType = "subscription_bonus"
)

// CreditAccount is the authoritative balance projection for one user.
// Rows are created lazily with a zero balance on first touch.
type CreditAccount struct {
	UserID            int64     `json:"user_id" db:"user_id"`
	Balance           int       `json:"balance" db:"balance"`
	LifetimePurchased int       `json:"lifetime_purchased" db:"lifetime_purchased"`
	LifetimeSpent     int       `json:"lifetime_spent" db:"lifetime_spent"`
	LastBonusMonth    *string   `json:"last_bonus_month,omitempty" db:"last_bonus_month"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// CreditTransaction is one row of the append-only ledger.
type CreditTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Amount        int             `json:"amount" db:"amount"` // positive = credit, negative = debit
	Type          TransactionType `json:"type" db:"type"`
	FeatureType   *FeatureType    `json:"feature_type,omitempty" db:"feature_type"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty" db:"reference_id"`
	Metadata      Metadata        `json:"metadata,omitempty" db:"metadata"`
	BalanceBefore int             `json:"balance_before" db:"balance_before"`
	BalanceAfter  int             `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Metadata is a flat string map stored as JSONB.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}

// CreditPackage is a purchasable bundle of credits. The catalog is loaded at
// startup and immutable at runtime; the external price is what the store
// front charges, the credit amounts are what the ledger grants.
type CreditPackage struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CreditAmount int     `json:"credit_amount"`
	BonusAmount  int     `json:"bonus_amount"`
	PriceUSD     float64 `json:"price_usd"`
}

// TotalCredits returns the credits granted by one purchase.
func (p *CreditPackage) TotalCredits() int {
	return p.CreditAmount + p.BonusAmount
}

// DefaultCreditPackages is the built-in package catalog.
func DefaultCreditPackages() []CreditPackage {
	return []CreditPackage{
		{ID: "starter", Name: "Starter", CreditAmount: 50, BonusAmount: 0, PriceUSD: 4.99},
		{ID: "standard", Name: "Standard", CreditAmount: 120, BonusAmount: 10, PriceUSD: 9.99},
		{ID: "premium", Name: "Premium", CreditAmount: 300, BonusAmount: 45, PriceUSD: 19.99},
		{ID: "mega", Name: "Mega", CreditAmount: 650, BonusAmount: 130, PriceUSD: 39.99},
	}
}
