package rest

import (
	"context"
	"time"

	"github.com/AzielCF/az-hub/bridge"
	"github.com/AzielCF/az-hub/pkg/msgworker"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Health expone el estado del hub y de su enlace con el bridge.
type Health struct {
	Bridge *bridge.Client
}

func InitRestHealth(router fiber.Router, bridgeClient *bridge.Client) Health {
	rest := Health{Bridge: bridgeClient}
	router.Get("/health", rest.Check)
	router.Get("/health/workers", rest.Workers)
	return rest
}

func (handler *Health) Check(c *fiber.Ctx) error {
	bridgeUp := false
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()
	if _, res, err := handler.Bridge.ListSessions(ctx); err == nil && res.OK {
		bridgeUp = true
	}

	status := "ok"
	if !bridgeUp {
		status = "degraded"
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health checked",
		Results: fiber.Map{
			"status": status,
			"bridge": bridgeUp,
			"time":   time.Now().UTC(),
		},
	})
}

func (handler *Health) Workers(c *fiber.Ctx) error {
	stats := msgworker.GetGlobalStats()
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Worker stats retrieved",
		Results: stats,
	})
}
