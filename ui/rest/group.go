package rest

import (
	"context"

	"github.com/AzielCF/az-hub/bridge"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
)

// Group cubre la gestión de grupos de WhatsApp vía bridge.
type Group struct {
	Bridge *bridge.Client
}

func InitRestGroup(router fiber.Router, bridgeClient *bridge.Client) Group {
	rest := Group{Bridge: bridgeClient}
	router.Get("/groups", rest.List)
	router.Post("/groups/create", rest.Create)
	router.Post("/groups/join", rest.Join)
	router.Post("/groups/:gid/participants", rest.groupCall(bridgeClient.UpdateGroupParticipants))
	router.Put("/groups/:gid/subject", rest.groupCall(bridgeClient.UpdateGroupSubject))
	router.Put("/groups/:gid/description", rest.groupCall(bridgeClient.UpdateGroupDescription))
	router.Put("/groups/:gid/settings", rest.groupCall(bridgeClient.UpdateGroupSetting))
	router.Post("/groups/:gid/leave", rest.Leave)
	router.Get("/groups/:gid/invite-code", rest.InviteCode)
	router.Post("/groups/:gid/revoke-invite", rest.RevokeInvite)
	return rest
}

func (handler *Group) List(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.FetchGroups(c.UserContext(), instance.SessionID, token)
	})
	return bridgeReply(c, res, err, "Groups retrieved")
}

func (handler *Group) Create(c *fiber.Ctx) error {
	var request GroupCreateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.Subject == "" {
		panic(pkgError.ValidationError("subject is required"))
	}

	instance := middleware.InstanceFromCtx(c)
	payload := map[string]any{
		"subject":      request.Subject,
		"participants": request.Participants,
	}
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.CreateGroup(c.UserContext(), instance.SessionID, token, payload)
	})
	return bridgeReply(c, res, err, "Group created")
}

func (handler *Group) Join(c *fiber.Ctx) error {
	var request GroupJoinRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.InviteCode == "" {
		panic(pkgError.ValidationError("invite_code is required"))
	}

	instance := middleware.InstanceFromCtx(c)
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.JoinGroup(c.UserContext(), instance.SessionID, token, map[string]any{"inviteCode": request.InviteCode})
	})
	return bridgeReply(c, res, err, "Group joined")
}

func (handler *Group) Leave(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	gid := c.Params("gid")
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.LeaveGroup(c.UserContext(), instance.SessionID, token, gid)
	})
	return bridgeReply(c, res, err, "Group left")
}

func (handler *Group) InviteCode(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	gid := c.Params("gid")
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.GetGroupInviteCode(c.UserContext(), instance.SessionID, token, gid)
	})
	return bridgeReply(c, res, err, "Invite code retrieved")
}

func (handler *Group) RevokeInvite(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	gid := c.Params("gid")
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.RevokeGroupInviteCode(c.UserContext(), instance.SessionID, token, gid)
	})
	return bridgeReply(c, res, err, "Invite code revoked")
}

type groupBridgeCall func(ctx context.Context, sessionID, token, groupID string, payload map[string]any) (bridge.Result, error)

func (handler *Group) groupCall(call groupBridgeCall) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload map[string]any
		err := c.BodyParser(&payload)
		utils.PanicIfNeeded(err)

		instance := middleware.InstanceFromCtx(c)
		gid := c.Params("gid")
		res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
			return call(c.UserContext(), instance.SessionID, token, gid, payload)
		})
		return bridgeReply(c, res, err, "Group updated")
	}
}
