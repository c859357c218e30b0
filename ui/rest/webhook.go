package rest

import (
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	webhookApp "github.com/AzielCF/az-hub/webhook/application"
	"github.com/gofiber/fiber/v2"
)

// Webhook es la puerta de entrada de eventos del bridge.
type Webhook struct {
	Processor *webhookApp.Processor
}

func InitRestWebhook(router fiber.Router, processor *webhookApp.Processor) Webhook {
	rest := Webhook{Processor: processor}
	router.Post("/node", rest.Ingest)
	router.Post("/node/", rest.Ingest)
	return rest
}

func (handler *Webhook) Ingest(c *fiber.Ctx) error {
	var frame BridgeWebhookFrame
	err := c.BodyParser(&frame)
	utils.PanicIfNeeded(err)

	if frame.SessionID == "" {
		panic(pkgError.WebhookError("sessionId is required"))
	}
	if frame.Type == "" {
		panic(pkgError.WebhookError("type is required"))
	}

	result := handler.Processor.Process(c.UserContext(), frame.Type, frame.SessionID, frame.Data)
	return c.Status(result.Code).JSON(fiber.Map{"status": result.Status})
}
