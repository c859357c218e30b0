package rest

import (
	"github.com/AzielCF/az-hub/bridge"
	"github.com/gofiber/fiber/v2"
)

// Chat cubre las operaciones de gestión de conversaciones.
type Chat struct {
	Bridge *bridge.Client
}

func InitRestChat(router fiber.Router, bridgeClient *bridge.Client) Chat {
	rest := Chat{Bridge: bridgeClient}
	proxy := Message{Bridge: bridgeClient}
	router.Post("/chat/manage/archive", proxy.proxy(bridgeClient.ArchiveChat))
	router.Post("/chat/manage/mute", proxy.proxy(bridgeClient.MuteChat))
	router.Post("/chat/manage/clear", proxy.proxy(bridgeClient.ClearChat))
	router.Post("/chat/manage/mark-read", proxy.proxy(bridgeClient.MarkChatRead))
	return rest
}
