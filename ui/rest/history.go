package rest

import (
	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
)

// History expone el historial de conversación de la instancia autenticada.
type History struct {
	Messages messagesDomain.MessageRepository
}

func InitRestHistory(router fiber.Router, messages messagesDomain.MessageRepository) History {
	rest := History{Messages: messages}
	router.Get("/chats/:jid/messages", rest.List)
	return rest
}

func (handler *History) List(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	messages, err := handler.Messages.List(c.UserContext(), instance.ID, c.Params("jid"), limit, offset)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Messages retrieved",
		Results: messages,
	})
}
