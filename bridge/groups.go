package bridge

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) FetchGroups(ctx context.Context, sessionID, token string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/%s/groups", sessionID), c.userHeaders(token), nil)
}

func (c *Client) CreateGroup(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/groups/create", sessionID), c.userHeaders(token), payload)
}

// UpdateGroupParticipants adds, removes, promotes or demotes members.
// payload {participants: [...], action}.
func (c *Client) UpdateGroupParticipants(ctx context.Context, sessionID, token, groupID string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/groups/%s/participants", sessionID, groupID), c.userHeaders(token), payload)
}

func (c *Client) UpdateGroupSetting(ctx context.Context, sessionID, token, groupID string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/%s/groups/%s/settings", sessionID, groupID), c.userHeaders(token), payload)
}

func (c *Client) UpdateGroupSubject(ctx context.Context, sessionID, token, groupID string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/%s/groups/%s/subject", sessionID, groupID), c.userHeaders(token), payload)
}

func (c *Client) UpdateGroupDescription(ctx context.Context, sessionID, token, groupID string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/%s/groups/%s/description", sessionID, groupID), c.userHeaders(token), payload)
}

func (c *Client) GetGroupInviteCode(ctx context.Context, sessionID, token, groupID string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/%s/groups/%s/invite-code", sessionID, groupID), c.userHeaders(token), nil)
}

func (c *Client) RevokeGroupInviteCode(ctx context.Context, sessionID, token, groupID string) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/groups/%s/revoke-invite", sessionID, groupID), c.userHeaders(token), nil)
}

func (c *Client) LeaveGroup(ctx context.Context, sessionID, token, groupID string) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/groups/%s/leave", sessionID, groupID), c.userHeaders(token), nil)
}

func (c *Client) JoinGroup(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/groups/join", sessionID), c.userHeaders(token), payload)
}
