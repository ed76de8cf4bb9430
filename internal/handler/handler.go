package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jimmyjeon420-png/baln-sub003/internal/config"
	"github.com/jimmyjeon420-png/baln-sub003/internal/service"
)

type Handler struct {
	cfg        *config.Config
	creditSvc  *service.CreditService
	featureSvc *service.FeatureService
}

func New(cfg *config.Config, creditSvc *service.CreditService, featureSvc *service.FeatureService) *Handler {
	return &Handler{
		cfg:        cfg,
		creditSvc:  creditSvc,
		featureSvc: featureSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
