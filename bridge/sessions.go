package bridge

import (
	"context"
	"fmt"
	"net/http"
)

// SessionEntry is one row of the admin session list.
type SessionEntry struct {
	SessionID   string
	Status      string
	Token       string
	PhoneNumber string
}

// CreateSession asks the bridge to spawn a session. Admin route.
func (c *Client) CreateSession(ctx context.Context, sessionID string) (Result, error) {
	return c.request(ctx, http.MethodPost, "/sessions/start", c.adminHeaders(), map[string]any{"sessionId": sessionID})
}

// DeleteSession tears a session down. Admin route.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (Result, error) {
	return c.request(ctx, http.MethodDelete, "/sessions/"+sessionID, c.adminHeaders(), nil)
}

// ListSessions returns every session the bridge knows about. Admin route.
// The payload shape varies between bridge builds (bare list, or an object
// wrapping it under sessions/data/result), so entries are normalized here.
func (c *Client) ListSessions(ctx context.Context) ([]SessionEntry, Result, error) {
	res, err := c.request(ctx, http.MethodGet, "/sessions", c.adminHeaders(), nil)
	if err != nil || !res.OK {
		return nil, res, err
	}

	raw := res.List()
	if raw == nil {
		for _, key := range []string{"sessions", "data", "result"} {
			if v, ok := res.Body[key].([]any); ok {
				raw = v
				break
			}
		}
	}

	entries := make([]SessionEntry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := SessionEntry{
			SessionID:   stringField(m, "sessionId"),
			Status:      stringField(m, "status"),
			PhoneNumber: stringField(m, "phoneNumber"),
		}
		// Bridge builds disagree on the token field name.
		for _, key := range []string{"token", "sessionToken", "bearerToken"} {
			if t := stringField(m, key); t != "" {
				entry.Token = t
				break
			}
		}
		if entry.SessionID != "" {
			entries = append(entries, entry)
		}
	}
	return entries, res, nil
}

// GetQRCode fetches the current QR payload for a session. Admin route.
func (c *Client) GetQRCode(ctx context.Context, sessionID string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/sessions/%s/qr", sessionID), c.adminHeaders(), nil)
}

// GetStatus queries a session's connection status. User route.
func (c *Client) GetStatus(ctx context.Context, sessionID, token string) (Result, error) {
	return c.request(ctx, http.MethodGet, fmt.Sprintf("/%s/status", sessionID), c.userHeaders(token), nil)
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
