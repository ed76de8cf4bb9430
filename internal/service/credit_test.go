package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/pricing"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
)

const testUser int64 = 42

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestCreditService(ledger *fakeLedger, plans *fakePlans, window pricing.FreePeriod) *CreditService {
	engine := pricing.NewEngine(pricing.DefaultTariff(), window)
	svc := NewCreditService(ledger, plans, engine, model.DefaultCreditPackages(), 30)
	svc.now = fixedClock(testNow)
	return svc
}

func activeFreePeriod() pricing.FreePeriod {
	return pricing.FreePeriod{
		Start: testNow.Add(-time.Hour),
		End:   testNow.Add(time.Hour),
	}
}

func seedBalance(t *testing.T, ledger *fakeLedger, userID int64, amount int) {
	t.Helper()
	_, err := ledger.AddCredits(context.Background(), userID, amount, model.TransactionTypeBonus, nil)
	require.NoError(t, err)
}

func TestSpendSuccess(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})
	seedBalance(t, ledger, testUser, 10)

	newBalance, charged, err := svc.Spend(context.Background(), testUser, 7, model.FeatureBudgetPlan, nil)

	require.NoError(t, err)
	assert.True(t, charged)
	assert.Equal(t, 3, newBalance)

	txs := ledger.txsFor(testUser)
	require.Len(t, txs, 2)
	spend := txs[1]
	assert.Equal(t, model.TransactionTypeSpend, spend.Type)
	assert.Equal(t, -7, spend.Amount)
	assert.Equal(t, 3, spend.BalanceAfter)
}

func TestSpendInsufficientBalance(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})
	seedBalance(t, ledger, testUser, 3)

	newBalance, charged, err := svc.Spend(context.Background(), testUser, 7, model.FeatureBudgetPlan, nil)

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.False(t, charged)
	assert.Equal(t, 4, insufficient.Shortfall())
	assert.Equal(t, 7, insufficient.Required)
	assert.Equal(t, 3, insufficient.Balance)
	assert.Equal(t, 3, newBalance)
	assert.Equal(t, 3, ledger.balanceOf(testUser), "balance unchanged on failed spend")
	assert.Len(t, ledger.txsFor(testUser), 1, "no spend transaction appended")
}

func TestSpendDuringFreePeriodIsNoOp(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), activeFreePeriod())
	seedBalance(t, ledger, testUser, 10)

	newBalance, charged, err := svc.Spend(context.Background(), testUser, 7, model.FeatureBudgetPlan, nil)

	require.NoError(t, err)
	assert.False(t, charged, "free-period spend reports no charge")
	assert.Equal(t, 10, newBalance)
	assert.Len(t, ledger.txsFor(testUser), 1, "no transaction during free period")
}

func TestSpendZeroAmountIsNoOp(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})
	seedBalance(t, ledger, testUser, 5)

	newBalance, charged, err := svc.Spend(context.Background(), testUser, 0, model.FeatureAdvisorChat, nil)

	require.NoError(t, err)
	assert.False(t, charged)
	assert.Equal(t, 5, newBalance)
	assert.Len(t, ledger.txsFor(testUser), 1)
}

func TestSpendLedgerUnreachable(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})
	ledger.unreachable = true

	_, _, err := svc.Spend(context.Background(), testUser, 7, model.FeatureBudgetPlan, nil)

	assert.ErrorIs(t, err, repository.ErrLedgerUnreachable)
}

func TestPurchasePackage(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})

	result, err := svc.PurchasePackage(context.Background(), testUser, "standard", "receipt-123")

	require.NoError(t, err)
	assert.Equal(t, 130, result.TotalCredits, "120 credits plus 10 bonus")
	assert.Equal(t, 130, result.NewBalance)

	txs := ledger.txsFor(testUser)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TransactionTypePurchase, txs[0].Type)
	assert.Equal(t, "receipt-123", txs[0].Metadata["receipt_ref"])
	assert.Equal(t, "standard", txs[0].Metadata["package_id"])
}

func TestPurchasePackageRejectedDuringFreePeriod(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), activeFreePeriod())

	_, err := svc.PurchasePackage(context.Background(), testUser, "standard", "receipt-123")

	assert.ErrorIs(t, err, ErrFreePeriodActive)
	assert.Empty(t, ledger.txsFor(testUser))
}

func TestPurchaseUnknownPackage(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})

	_, err := svc.PurchasePackage(context.Background(), testUser, "colossal", "receipt-123")

	assert.ErrorIs(t, err, ErrUnknownPackage)
}

func subscribed(plans *fakePlans, userID int64, plan model.Plan, status model.PlanStatus) {
	expires := testNow.Add(20 * 24 * time.Hour)
	plans.plans[userID] = &model.PlanSubscription{
		UserID:    userID,
		Plan:      plan,
		Status:    status,
		ExpiresAt: &expires,
	}
}

func TestGrantSubscriptionBonusIdempotentWithinMonth(t *testing.T) {
	ledger := newFakeLedger()
	plans := newFakePlans()
	subscribed(plans, testUser, model.PlanPlus, model.PlanStatusActive)
	svc := newTestCreditService(ledger, plans, pricing.FreePeriod{})

	first, err := svc.GrantSubscriptionBonus(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, first.Granted)
	assert.Equal(t, 30, first.Amount)
	assert.Equal(t, 30, first.NewBalance)

	second, err := svc.GrantSubscriptionBonus(context.Background(), testUser)
	require.NoError(t, err)
	assert.False(t, second.Granted)
	assert.Equal(t, 0, second.Amount)
	assert.Equal(t, 30, second.NewBalance)

	var bonusTxs int
	for _, tx := range ledger.txsFor(testUser) {
		if tx.Type == model.TransactionTypeSubscriptionBonus {
			bonusTxs++
		}
	}
	assert.Equal(t, 1, bonusTxs, "credits granted at most once per month")
}

func TestGrantSubscriptionBonusNewMonthGrantsAgain(t *testing.T) {
	ledger := newFakeLedger()
	plans := newFakePlans()
	subscribed(plans, testUser, model.PlanPremium, model.PlanStatusActive)
	svc := newTestCreditService(ledger, plans, pricing.FreePeriod{})

	first, err := svc.GrantSubscriptionBonus(context.Background(), testUser)
	require.NoError(t, err)
	require.True(t, first.Granted)

	svc.now = fixedClock(testNow.AddDate(0, 1, 0))
	expires := testNow.AddDate(0, 2, 0)
	plans.plans[testUser].ExpiresAt = &expires

	second, err := svc.GrantSubscriptionBonus(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, second.Granted)
	assert.Equal(t, 60, second.NewBalance)
}

func TestGrantSubscriptionBonusFailsClosed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(plans *fakePlans)
	}{
		{
			name:  "no subscription",
			setup: func(plans *fakePlans) {},
		},
		{
			name: "free plan",
			setup: func(plans *fakePlans) {
				subscribed(plans, testUser, model.PlanFree, model.PlanStatusActive)
			},
		},
		{
			name: "expired plan",
			setup: func(plans *fakePlans) {
				subscribed(plans, testUser, model.PlanPlus, model.PlanStatusActive)
				expired := testNow.Add(-time.Hour)
				plans.plans[testUser].ExpiresAt = &expired
			},
		},
		{
			name: "cancelled plan",
			setup: func(plans *fakePlans) {
				subscribed(plans, testUser, model.PlanPlus, model.PlanStatusCancelled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			plans := newFakePlans()
			tt.setup(plans)
			svc := newTestCreditService(ledger, plans, pricing.FreePeriod{})

			_, err := svc.GrantSubscriptionBonus(context.Background(), testUser)

			assert.ErrorIs(t, err, ErrPlanNotEligible)
			assert.Empty(t, ledger.txsFor(testUser))
		})
	}
}

func TestConservationAndAppendInvariant(t *testing.T) {
	ledger := newFakeLedger()
	plans := newFakePlans()
	subscribed(plans, testUser, model.PlanPlus, model.PlanStatusActive)
	svc := newTestCreditService(ledger, plans, pricing.FreePeriod{})
	ctx := context.Background()

	_, err := svc.PurchasePackage(ctx, testUser, "starter", "r1")
	require.NoError(t, err)
	_, _, err = svc.Spend(ctx, testUser, 12, model.FeatureBudgetPlan, nil)
	require.NoError(t, err)
	_, err = svc.GrantSubscriptionBonus(ctx, testUser)
	require.NoError(t, err)
	_, _, err = svc.Spend(ctx, testUser, 5, model.FeatureSpendingReport, nil)
	require.NoError(t, err)
	_, err = svc.Refund(ctx, testUser, 5, model.Metadata{"reason": "provider_failure"})
	require.NoError(t, err)

	txs := ledger.txsFor(testUser)
	require.NotEmpty(t, txs)

	sum := 0
	for i, tx := range txs {
		sum += tx.Amount
		if i == 0 {
			assert.Equal(t, tx.Amount, tx.BalanceAfter)
		} else {
			assert.Equal(t, txs[i-1].BalanceAfter+tx.Amount, tx.BalanceAfter,
				"append invariant broken at index %d", i)
		}
	}
	assert.Equal(t, ledger.balanceOf(testUser), sum, "balance equals sum of all transaction amounts")
}

func TestConcurrentSpendsNeverOverdraw(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})
	seedBalance(t, ledger, testUser, 10)

	var wg sync.WaitGroup
	successes := make(chan int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Spend(context.Background(), testUser, 3, model.FeatureBudgetPlan, nil); err == nil {
				successes <- 3
			}
		}()
	}
	wg.Wait()
	close(successes)

	spent := 0
	for s := range successes {
		spent += s
	}
	assert.LessOrEqual(t, spent, 10, "cannot spend more than the starting balance")
	assert.GreaterOrEqual(t, ledger.balanceOf(testUser), 0)
	assert.Equal(t, 10-spent, ledger.balanceOf(testUser))
}

func TestGetTransactionsClampsLimit(t *testing.T) {
	ledger := newFakeLedger()
	svc := newTestCreditService(ledger, newFakePlans(), pricing.FreePeriod{})
	for i := 0; i < 30; i++ {
		seedBalance(t, ledger, testUser, 1)
	}

	txs, err := svc.GetTransactions(context.Background(), testUser, 0, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 20, "zero limit falls back to the default page size")

	txs, err = svc.GetTransactions(context.Background(), testUser, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 30, "oversized limit is capped, not an error")
}
