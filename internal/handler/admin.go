package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
	"github.com/jimmyjeon420-png/baln-sub003/internal/service"
)

type AdminHandler struct {
	adminSvc *service.AdminService
}

func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// GetStats returns aggregate ledger totals.
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.adminSvc.GetStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load stats",
		})
	}
	return c.JSON(stats)
}

// GetUserCredits returns one user's account.
func (h *AdminHandler) GetUserCredits(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user_id",
		})
	}

	account, err := h.adminSvc.GetAccount(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load credit account",
		})
	}
	return c.JSON(account)
}

type AddCreditsRequest struct {
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

// AddCredits grants credits to a user manually.
func (h *AdminHandler) AddCredits(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid user_id",
		})
	}

	var req AddCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "amount must be positive",
		})
	}

	newBalance, err := h.adminSvc.GrantReward(c.Context(), userID, req.Amount, req.Note)
	if err != nil {
		if errors.Is(err, repository.ErrLedgerUnreachable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "credit ledger unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to add credits",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"new_balance": newBalance,
	})
}
