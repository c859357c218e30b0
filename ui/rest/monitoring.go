package rest

import (
	"github.com/AzielCF/az-hub/pkg/utils"
	webhookDomain "github.com/AzielCF/az-hub/webhook/domain"
	"github.com/gofiber/fiber/v2"
)

// Monitoring expone los registros de error del ingreso de eventos.
type Monitoring struct {
	Errors webhookDomain.ErrorLogRepository
}

func InitRestMonitoring(router fiber.Router, errors webhookDomain.ErrorLogRepository) Monitoring {
	rest := Monitoring{Errors: errors}
	router.Get("/monitoring/errors", rest.ListErrors)
	return rest
}

func (handler *Monitoring) ListErrors(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries, err := handler.Errors.ListRecent(c.UserContext(), limit)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Error log retrieved",
		Results: entries,
	})
}
