package bridge

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) FetchProfile(ctx context.Context, sessionID, token, jid string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/%s/profile/%s", sessionID, jid), c.userHeaders(token), nil)
}

func (c *Client) UpdateProfileStatus(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPut, fmt.Sprintf("/%s/profile/status", sessionID), c.userHeaders(token), payload)
}

// UpdateProfilePicture uploads a new avatar (multipart).
func (c *Client) UpdateProfilePicture(ctx context.Context, sessionID, token string, files []File) (Result, error) {
	return c.requestMultipart(ctx, http.MethodPut, fmt.Sprintf("/%s/profile/picture", sessionID), c.userHeaders(token), nil, files)
}

// BlockUser blocks or unblocks a contact: payload {jid, action}.
func (c *Client) BlockUser(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/users/block", sessionID), c.userHeaders(token), payload)
}

func (c *Client) GetBlocklist(ctx context.Context, sessionID, token string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/%s/users/blocklist", sessionID), c.userHeaders(token), nil)
}

// SetPresence posts a chat presence state: payload {to, presence} with
// presence in {composing, paused}.
func (c *Client) SetPresence(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/users/presence", sessionID), c.userHeaders(token), payload)
}

// CheckOnWhatsApp verifies whether a JID is a registered WhatsApp account.
func (c *Client) CheckOnWhatsApp(ctx context.Context, sessionID, token, jid string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/%s/on-whatsapp/%s", sessionID, jid), c.userHeaders(token), nil)
}
