package bridge

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ArchiveChat(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/chats/archive", sessionID), c.userHeaders(token), payload)
}

func (c *Client) MuteChat(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/chats/mute", sessionID), c.userHeaders(token), payload)
}

func (c *Client) ClearChat(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/chats/clear", sessionID), c.userHeaders(token), payload)
}

// MarkChatRead clears the unread badge for a whole chat.
func (c *Client) MarkChatRead(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/chats/mark-read", sessionID), c.userHeaders(token), payload)
}
