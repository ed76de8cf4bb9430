package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/pricing"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
)

var (
	ErrUnknownPackage   = errors.New("unknown credit package")
	ErrFreePeriodActive = errors.New("purchases are disabled during the free period")
	ErrPlanNotEligible  = errors.New("no active paid plan")
)

// InsufficientCreditsError is the expected failure of a spend against a
// balance that cannot cover it. The balance is unchanged when it is returned.
type InsufficientCreditsError struct {
	Required int
	Balance  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d", e.Balance, e.Required)
}

// Shortfall is how many credits the user is missing.
func (e *InsufficientCreditsError) Shortfall() int {
	return e.Required - e.Balance
}

// LedgerStore is the slice of the repository the credit service relies on.
// Every mutation is a single atomic round trip; the service never does a
// client-side read-modify-write of the balance.
type LedgerStore interface {
	GetCreditAccount(ctx context.Context, userID int64) (*model.CreditAccount, error)
	SpendCredits(ctx context.Context, userID int64, amount int, feature model.FeatureType, referenceID *uuid.UUID) (*repository.SpendResult, error)
	AddCredits(ctx context.Context, userID int64, amount int, txType model.TransactionType, metadata model.Metadata) (int, error)
	GrantMonthlyBonus(ctx context.Context, userID int64, amount int, monthKey string) (bool, int, error)
	GetCreditTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.CreditTransaction, error)
}

// PlanReader reports subscription state owned by the billing collaborator.
type PlanReader interface {
	GetActivePlan(ctx context.Context, userID int64) (*model.PlanSubscription, error)
}

type CreditService struct {
	store       LedgerStore
	plans       PlanReader
	pricing     *pricing.Engine
	packages    []model.CreditPackage
	packageByID map[string]model.CreditPackage
	bonusAmount int
	now         func() time.Time
}

func NewCreditService(store LedgerStore, plans PlanReader, engine *pricing.Engine, packages []model.CreditPackage, bonusAmount int) *CreditService {
	byID := make(map[string]model.CreditPackage, len(packages))
	for _, p := range packages {
		byID[p.ID] = p
	}
	return &CreditService{
		store:       store,
		plans:       plans,
		pricing:     engine,
		packages:    packages,
		packageByID: byID,
		bonusAmount: bonusAmount,
		now:         time.Now,
	}
}

// GetAccount returns the user's account, creating it lazily.
func (s *CreditService) GetAccount(ctx context.Context, userID int64) (*model.CreditAccount, error) {
	return s.store.GetCreditAccount(ctx, userID)
}

// GetBalance returns the user's current balance.
func (s *CreditService) GetBalance(ctx context.Context, userID int64) (int, error) {
	account, err := s.store.GetCreditAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Spend charges amount credits for one feature invocation. It returns the
// resulting balance and whether a charge was actually applied: during the
// free period (and for a zero amount) it is a no-op success, and callers
// must only compensate a failure when charged is true.
func (s *CreditService) Spend(ctx context.Context, userID int64, amount int, feature model.FeatureType, referenceID *uuid.UUID) (balance int, charged bool, err error) {
	if amount < 0 {
		return 0, false, fmt.Errorf("spend amount must not be negative, got %d", amount)
	}
	if amount == 0 || s.pricing.FreePeriodActive(s.now()) {
		balance, err = s.GetBalance(ctx, userID)
		return balance, false, err
	}

	res, err := s.store.SpendCredits(ctx, userID, amount, feature, referenceID)
	if err != nil {
		return 0, false, err
	}
	if !res.Success {
		return res.NewBalance, false, &InsufficientCreditsError{Required: amount, Balance: res.NewBalance}
	}
	return res.NewBalance, true, nil
}

// Grant credits the user unconditionally and returns the new balance. Used
// for refunds, engagement rewards and other collaborator-driven grants.
func (s *CreditService) Grant(ctx context.Context, userID int64, amount int, txType model.TransactionType, metadata model.Metadata) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	return s.store.AddCredits(ctx, userID, amount, txType, metadata)
}

// Refund restores credits after a failed provider call.
func (s *CreditService) Refund(ctx context.Context, userID int64, amount int, metadata model.Metadata) (int, error) {
	return s.Grant(ctx, userID, amount, model.TransactionTypeRefund, metadata)
}

// Packages returns the immutable package catalog in display order.
func (s *CreditService) Packages() []model.CreditPackage {
	return s.packages
}

// PurchaseResult is the outcome of a completed package purchase.
type PurchaseResult struct {
	Package      model.CreditPackage `json:"package"`
	TotalCredits int                 `json:"total_credits"`
	NewBalance   int                 `json:"new_balance"`
}

// PurchasePackage credits a purchased package. Receipt verification against
// the payment provider happens upstream; receiptRef is recorded for audit.
func (s *CreditService) PurchasePackage(ctx context.Context, userID int64, packageID, receiptRef string) (*PurchaseResult, error) {
	if s.pricing.FreePeriodActive(s.now()) {
		return nil, ErrFreePeriodActive
	}

	pkg, ok := s.packageByID[packageID]
	if !ok {
		return nil, ErrUnknownPackage
	}

	total := pkg.TotalCredits()
	newBalance, err := s.store.AddCredits(ctx, userID, total, model.TransactionTypePurchase, model.Metadata{
		"package_id":  pkg.ID,
		"receipt_ref": receiptRef,
	})
	if err != nil {
		return nil, err
	}

	return &PurchaseResult{Package: pkg, TotalCredits: total, NewBalance: newBalance}, nil
}

// BonusResult is the outcome of a monthly bonus claim.
type BonusResult struct {
	Granted    bool `json:"granted"`
	Amount     int  `json:"amount"`
	NewBalance int  `json:"new_balance"`
}

// GrantSubscriptionBonus grants the fixed monthly credit bonus to an active
// paying subscriber. Safe to call repeatedly: the month check and the
// increment run inside one atomic ledger procedure, so each call after the
// first in a calendar month is a no-op.
func (s *CreditService) GrantSubscriptionBonus(ctx context.Context, userID int64) (*BonusResult, error) {
	plan, err := s.plans.GetActivePlan(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotEligible
		}
		return nil, err
	}

	now := s.now()
	if !plan.IsActivePaid(now) {
		return nil, ErrPlanNotEligible
	}

	monthKey := now.UTC().Format("2006-01")
	granted, newBalance, err := s.store.GrantMonthlyBonus(ctx, userID, s.bonusAmount, monthKey)
	if err != nil {
		return nil, err
	}

	res := &BonusResult{Granted: granted, NewBalance: newBalance}
	if granted {
		res.Amount = s.bonusAmount
	}
	return res, nil
}

// GetTransactions returns ledger history, most recent first.
func (s *CreditService) GetTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.GetCreditTransactions(ctx, userID, limit, offset)
}
