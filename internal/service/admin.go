package service

import (
	"context"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
)

// StatsReader exposes the aggregate ledger view for the admin surface.
type StatsReader interface {
	GetCreditStats(ctx context.Context) (*repository.CreditStats, error)
}

// AdminService backs the operational surface: aggregate stats and manual
// credit grants (engagement rewards, support compensation).
type AdminService struct {
	credits  *CreditService
	stats    StatsReader
	adminIDs map[int64]struct{}
}

func NewAdminService(credits *CreditService, stats StatsReader, adminUserIDs []int64) *AdminService {
	ids := make(map[int64]struct{}, len(adminUserIDs))
	for _, id := range adminUserIDs {
		ids[id] = struct{}{}
	}
	return &AdminService{credits: credits, stats: stats, adminIDs: ids}
}

// IsAdmin reports whether the user is on the configured admin allowlist.
func (s *AdminService) IsAdmin(userID int64) bool {
	_, ok := s.adminIDs[userID]
	return ok
}

func (s *AdminService) GetStats(ctx context.Context) (*repository.CreditStats, error) {
	return s.stats.GetCreditStats(ctx)
}

func (s *AdminService) GetAccount(ctx context.Context, userID int64) (*model.CreditAccount, error) {
	return s.credits.GetAccount(ctx, userID)
}

// GrantReward credits a user manually, recorded as a bonus transaction.
func (s *AdminService) GrantReward(ctx context.Context, userID int64, amount int, note string) (int, error) {
	return s.credits.Grant(ctx, userID, amount, model.TransactionTypeBonus, model.Metadata{
		"source": "admin",
		"note":   note,
	})
}
