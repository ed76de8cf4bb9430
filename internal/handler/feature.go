package handler

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jimmyjeon420-png/baln-sub003/internal/middleware"
	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/pricing"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
	"github.com/jimmyjeon420-png/baln-sub003/internal/service"
)

// GetQuote prices a feature invocation for pre-flight display.
func (h *Handler) GetQuote(c *fiber.Ctx) error {
	feature, ok := model.ParseFeatureType(c.Query("feature"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown feature",
		})
	}

	quote, err := h.featureSvc.QuoteFeature(feature, model.ParseTier(c.Query("tier")))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown feature",
		})
	}

	return c.JSON(quote)
}

type ExecuteFeatureRequest struct {
	Feature string          `json:"feature"`
	Tier    string          `json:"tier"`
	Input   json.RawMessage `json:"input,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ExecuteFeature runs one metered feature invocation.
func (h *Handler) ExecuteFeature(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	var req ExecuteFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	feature, ok := model.ParseFeatureType(req.Feature)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown feature",
		})
	}

	if feature.Conversational() {
		if req.Message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "message is required for conversational features",
			})
		}
	} else if len(req.Input) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "input is required",
		})
	}

	result, err := h.featureSvc.ExecuteFeature(c.Context(), service.ExecuteRequest{
		UserID:  userID,
		Feature: feature,
		Tier:    model.ParseTier(req.Tier),
		Input:   req.Input,
		Message: req.Message,
	})
	if err != nil {
		var insufficient *service.InsufficientCreditsError
		var providerErr *service.ProviderError
		switch {
		case errors.Is(err, pricing.ErrUnknownFeature):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown feature",
			})
		case errors.As(err, &insufficient):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":     "insufficient credits",
				"balance":   insufficient.Balance,
				"required":  insufficient.Required,
				"shortfall": insufficient.Shortfall(),
			})
		case errors.As(err, &providerErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":    "analysis provider unavailable, please retry",
				"refunded": providerErr.Refunded,
			})
		case errors.Is(err, repository.ErrLedgerUnreachable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "credit ledger unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to execute feature",
		})
	}

	return c.JSON(result)
}

// GetFeatureResults returns past feature outputs, most recent first.
func (h *Handler) GetFeatureResults(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	results, err := h.featureSvc.GetResults(c.Context(), userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load feature results",
		})
	}

	return c.JSON(fiber.Map{
		"results": results,
	})
}
