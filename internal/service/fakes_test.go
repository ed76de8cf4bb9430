package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
)

// fakeLedger is an in-memory LedgerStore mirroring the semantics of the
// atomic stored procedures: every mutation holds one lock for its whole
// read-check-write, so concurrent spends cannot overdraw.
type fakeLedger struct {
	mu          sync.Mutex
	accounts    map[int64]*model.CreditAccount
	txs         []model.CreditTransaction
	unreachable bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: make(map[int64]*model.CreditAccount)}
}

// account lazily creates the row; callers must hold mu.
func (f *fakeLedger) account(userID int64) *model.CreditAccount {
	acc, ok := f.accounts[userID]
	if !ok {
		acc = &model.CreditAccount{UserID: userID}
		f.accounts[userID] = acc
	}
	return acc
}

func (f *fakeLedger) appendTx(tx model.CreditTransaction) {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	f.txs = append(f.txs, tx)
}

func (f *fakeLedger) GetCreditAccount(_ context.Context, userID int64) (*model.CreditAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, fmt.Errorf("%w: connection refused", repository.ErrLedgerUnreachable)
	}
	acc := *f.account(userID)
	return &acc, nil
}

func (f *fakeLedger) SpendCredits(_ context.Context, userID int64, amount int, feature model.FeatureType, referenceID *uuid.UUID) (*repository.SpendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, fmt.Errorf("%w: connection refused", repository.ErrLedgerUnreachable)
	}

	acc := f.account(userID)
	if acc.Balance < amount {
		return &repository.SpendResult{Success: false, NewBalance: acc.Balance, ErrorMessage: "insufficient balance"}, nil
	}

	before := acc.Balance
	acc.Balance -= amount
	acc.LifetimeSpent += amount
	f.appendTx(model.CreditTransaction{
		UserID:        userID,
		Amount:        -amount,
		Type:          model.TransactionTypeSpend,
		FeatureType:   &feature,
		ReferenceID:   referenceID,
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
	})
	return &repository.SpendResult{Success: true, NewBalance: acc.Balance}, nil
}

func (f *fakeLedger) AddCredits(_ context.Context, userID int64, amount int, txType model.TransactionType, metadata model.Metadata) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return 0, fmt.Errorf("%w: connection refused", repository.ErrLedgerUnreachable)
	}

	acc := f.account(userID)
	before := acc.Balance
	acc.Balance += amount
	if txType == model.TransactionTypePurchase {
		acc.LifetimePurchased += amount
	}
	f.appendTx(model.CreditTransaction{
		UserID:        userID,
		Amount:        amount,
		Type:          txType,
		Metadata:      metadata,
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
	})
	return acc.Balance, nil
}

func (f *fakeLedger) GrantMonthlyBonus(_ context.Context, userID int64, amount int, monthKey string) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return false, 0, fmt.Errorf("%w: connection refused", repository.ErrLedgerUnreachable)
	}

	acc := f.account(userID)
	if acc.LastBonusMonth != nil && *acc.LastBonusMonth == monthKey {
		return false, acc.Balance, nil
	}

	before := acc.Balance
	acc.Balance += amount
	month := monthKey
	acc.LastBonusMonth = &month
	f.appendTx(model.CreditTransaction{
		UserID:        userID,
		Amount:        amount,
		Type:          model.TransactionTypeSubscriptionBonus,
		Metadata:      model.Metadata{"month": monthKey},
		BalanceBefore: before,
		BalanceAfter:  acc.Balance,
	})
	return true, acc.Balance, nil
}

func (f *fakeLedger) GetCreditTransactions(_ context.Context, userID int64, limit, offset int) ([]model.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var mine []model.CreditTransaction
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].UserID == userID {
			mine = append(mine, f.txs[i])
		}
	}
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (f *fakeLedger) balanceOf(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.account(userID).Balance
}

func (f *fakeLedger) txsFor(userID int64) []model.CreditTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []model.CreditTransaction
	for _, tx := range f.txs {
		if tx.UserID == userID {
			mine = append(mine, tx)
		}
	}
	return mine
}

// fakePlans is an in-memory PlanReader.
type fakePlans struct {
	plans map[int64]*model.PlanSubscription
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: make(map[int64]*model.PlanSubscription)}
}

func (f *fakePlans) GetActivePlan(_ context.Context, userID int64) (*model.PlanSubscription, error) {
	plan, ok := f.plans[userID]
	if !ok {
		return nil, repository.ErrPlanNotFound
	}
	return plan, nil
}

// fakeProvider is a scripted AIProvider.
type fakeProvider struct {
	output       string
	err          error
	analyzeCalls int
	chatCalls    int
	lastHistory  []model.ChatMessage
}

func (f *fakeProvider) Analyze(_ context.Context, _ model.FeatureType, _ json.RawMessage) (string, error) {
	f.analyzeCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeProvider) Chat(_ context.Context, history []model.ChatMessage, _ string) (string, error) {
	f.chatCalls++
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

// fakeResults is an in-memory ResultStore.
type fakeResults struct {
	results  []model.FeatureResult
	messages []model.ChatMessage
	saveErr  error
}

func (f *fakeResults) SaveFeatureResult(_ context.Context, res *model.FeatureResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	res.CreatedAt = time.Now()
	f.results = append(f.results, *res)
	return nil
}

func (f *fakeResults) GetFeatureResults(_ context.Context, userID int64, limit int) ([]model.FeatureResult, error) {
	var mine []model.FeatureResult
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].UserID == userID {
			mine = append(mine, f.results[i])
		}
		if len(mine) == limit {
			break
		}
	}
	return mine, nil
}

func (f *fakeResults) AppendChatMessage(_ context.Context, msg *model.ChatMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeResults) GetRecentChatMessages(_ context.Context, userID int64, limit int) ([]model.ChatMessage, error) {
	var mine []model.ChatMessage
	for _, m := range f.messages {
		if m.UserID == userID {
			mine = append(mine, m)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
