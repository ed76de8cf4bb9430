package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jimmyjeon420-png/baln-sub003/internal/middleware"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
	"github.com/jimmyjeon420-png/baln-sub003/internal/service"
)

// GetCredits returns the user's account: balance and lifetime stats.
func (h *Handler) GetCredits(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	account, err := h.creditSvc.GetAccount(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load credit account",
		})
	}

	return c.JSON(account)
}

// GetCreditTransactions returns ledger history, most recent first.
func (h *Handler) GetCreditTransactions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	transactions, err := h.creditSvc.GetTransactions(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load transaction history",
		})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
	})
}

// GetPackages returns the purchasable package catalog.
func (h *Handler) GetPackages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"packages": h.creditSvc.Packages(),
	})
}

type PurchasePackageRequest struct {
	PackageID  string `json:"package_id"`
	ReceiptRef string `json:"receipt_ref"`
}

// PurchasePackage credits a package purchase. The store receipt has already
// been verified upstream.
func (h *Handler) PurchasePackage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	var req PurchasePackageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.PackageID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "package_id is required",
		})
	}

	result, err := h.creditSvc.PurchasePackage(c.Context(), userID, req.PackageID, req.ReceiptRef)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFreePeriodActive):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "purchases are disabled during the free period",
			})
		case errors.Is(err, service.ErrUnknownPackage):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown package",
			})
		case errors.Is(err, repository.ErrLedgerUnreachable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "credit ledger unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to complete purchase",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"total_credits": result.TotalCredits,
		"new_balance":   result.NewBalance,
	})
}

// ClaimSubscriptionBonus grants the monthly bonus for active paying plans.
// Idempotent within a calendar month.
func (h *Handler) ClaimSubscriptionBonus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	result, err := h.creditSvc.GrantSubscriptionBonus(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotEligible):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "an active paid plan is required",
			})
		case errors.Is(err, repository.ErrLedgerUnreachable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "credit ledger unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to claim bonus",
		})
	}

	return c.JSON(result)
}
