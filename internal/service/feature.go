package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/pricing"
)

// ProviderError wraps a failed or unusable AI provider call. Refunded tells
// the caller whether the charge for the attempt was restored; the net cost
// of a refunded failure is zero.
type ProviderError struct {
	Feature  model.FeatureType
	Refunded bool
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call for %s failed: %v", e.Feature, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AIProvider is the external analysis backend, one adapter per feature kind.
type AIProvider interface {
	Analyze(ctx context.Context, feature model.FeatureType, payload json.RawMessage) (string, error)
	Chat(ctx context.Context, history []model.ChatMessage, userMessage string) (string, error)
}

// ResultStore persists feature outputs and the advisor chat thread.
type ResultStore interface {
	SaveFeatureResult(ctx context.Context, res *model.FeatureResult) error
	GetFeatureResults(ctx context.Context, userID int64, limit int) ([]model.FeatureResult, error)
	AppendChatMessage(ctx context.Context, msg *model.ChatMessage) error
	GetRecentChatMessages(ctx context.Context, userID int64, limit int) ([]model.ChatMessage, error)
}

const chatHistoryWindow = 20

// FeatureService sequences pricing, charging, the provider call and the
// refund-on-failure for one metered feature invocation.
type FeatureService struct {
	pricing  *pricing.Engine
	credits  *CreditService
	provider AIProvider
	results  ResultStore
	now      func() time.Time
}

func NewFeatureService(engine *pricing.Engine, credits *CreditService, provider AIProvider, results ResultStore) *FeatureService {
	return &FeatureService{
		pricing:  engine,
		credits:  credits,
		provider: provider,
		results:  results,
		now:      time.Now,
	}
}

// QuoteFeature prices an invocation for pre-flight display.
func (s *FeatureService) QuoteFeature(feature model.FeatureType, tier model.Tier) (pricing.Quote, error) {
	return s.pricing.Quote(feature, tier, s.now())
}

// ExecuteRequest is one metered feature invocation.
type ExecuteRequest struct {
	UserID  int64
	Feature model.FeatureType
	Tier    model.Tier
	Input   json.RawMessage // stateless features
	Message string          // conversational features
}

// ExecuteFeature runs the charge -> call -> persist protocol:
// the cost is charged before the provider is invoked, and a provider
// failure after a non-zero charge is unconditionally refunded so a failed
// attempt never costs the user anything. Charge failures never reach the
// provider. No step is retried here.
func (s *FeatureService) ExecuteFeature(ctx context.Context, req ExecuteRequest) (*model.FeatureResult, error) {
	quote, err := s.pricing.Quote(req.Feature, req.Tier, s.now())
	if err != nil {
		return nil, err
	}

	// The spend re-checks the free period on its own clock and may no-op
	// without charging; only a confirmed charge is ever refunded.
	referenceID := uuid.New()
	charged := 0
	if quote.DiscountedCost > 0 {
		_, didCharge, err := s.credits.Spend(ctx, req.UserID, quote.DiscountedCost, req.Feature, &referenceID)
		if err != nil {
			return nil, err
		}
		if didCharge {
			charged = quote.DiscountedCost
		}
	}

	output, err := s.callProvider(ctx, req)
	if err != nil {
		refunded := false
		if charged > 0 {
			meta := model.Metadata{
				"feature_type": string(req.Feature),
				"reference_id": referenceID.String(),
				"reason":       "provider_failure",
			}
			if _, refundErr := s.credits.Refund(ctx, req.UserID, charged, meta); refundErr != nil {
				// Known gap: a lost refund is not queued or retried here.
				log.Printf("failed to refund %d credits to user %d: %v", charged, req.UserID, refundErr)
			} else {
				refunded = true
			}
		}
		return nil, &ProviderError{Feature: req.Feature, Refunded: refunded, Err: err}
	}

	payload, err := json.Marshal(model.FeatureOutput{Text: output})
	if err != nil {
		return nil, err
	}

	result := &model.FeatureResult{
		ID:             referenceID,
		UserID:         req.UserID,
		FeatureType:    req.Feature,
		Output:         payload,
		CreditsCharged: charged,
	}
	if err := s.results.SaveFeatureResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist feature result: %w", err)
	}

	// Both turns land in the thread only once the exchange completed, so a
	// failed attempt leaves no unanswered message for a retry to resend.
	if req.Feature.Conversational() {
		userMsg := &model.ChatMessage{UserID: req.UserID, Role: model.ChatRoleUser, Content: req.Message}
		if err := s.results.AppendChatMessage(ctx, userMsg); err != nil {
			log.Printf("failed to append user message for user %d: %v", req.UserID, err)
		}
		reply := &model.ChatMessage{UserID: req.UserID, Role: model.ChatRoleAssistant, Content: output}
		if err := s.results.AppendChatMessage(ctx, reply); err != nil {
			log.Printf("failed to append assistant message for user %d: %v", req.UserID, err)
		}
	}

	return result, nil
}

func (s *FeatureService) callProvider(ctx context.Context, req ExecuteRequest) (string, error) {
	if !req.Feature.Conversational() {
		return s.provider.Analyze(ctx, req.Feature, req.Input)
	}

	history, err := s.results.GetRecentChatMessages(ctx, req.UserID, chatHistoryWindow)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	return s.provider.Chat(ctx, history, req.Message)
}

// GetResults returns the user's feature history, most recent first.
func (s *FeatureService) GetResults(ctx context.Context, userID int64, limit int) ([]model.FeatureResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.results.GetFeatureResults(ctx, userID, limit)
}
