package bridge

import (
	"context"
	"fmt"
	"net/http"
)

// SendMessage posts a plain text message: payload {to, message}.
func (c *Client) SendMessage(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/send", sessionID), c.userHeaders(token), payload)
}

// SendQuote posts a text message quoting a previous one:
// payload {to, message, quotedMessage}.
func (c *Client) SendQuote(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/send-quote", sessionID), c.userHeaders(token), payload)
}

// SendMedia uploads and sends a media file (multipart, 120s timeout).
func (c *Client) SendMedia(ctx context.Context, sessionID, token string, fields map[string]string, files []File) (Result, error) {
	return c.requestMultipart(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/send-media", sessionID), c.userHeaders(token), fields, files)
}

// SendVoice uploads a PTT voice note (multipart). Callers must set
// fields["ptt"] = "true" for the bridge to flag it as voice.
func (c *Client) SendVoice(ctx context.Context, sessionID, token string, fields map[string]string, files []File) (Result, error) {
	return c.requestMultipart(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/send-voice", sessionID), c.userHeaders(token), fields, files)
}

func (c *Client) SendPoll(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/poll", sessionID), c.userHeaders(token), payload)
}

func (c *Client) SendLocation(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/location", sessionID), c.userHeaders(token), payload)
}

func (c *Client) SendContact(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/contact", sessionID), c.userHeaders(token), payload)
}

func (c *Client) SendReaction(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/reaction", sessionID), c.userHeaders(token), payload)
}

func (c *Client) EditMessage(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/edit", sessionID), c.userHeaders(token), payload)
}

func (c *Client) DeleteMessage(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/delete", sessionID), c.userHeaders(token), payload)
}

func (c *Client) PinMessage(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/pin", sessionID), c.userHeaders(token), payload)
}

func (c *Client) UnpinMessage(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/unpin", sessionID), c.userHeaders(token), payload)
}

func (c *Client) StarMessage(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/star", sessionID), c.userHeaders(token), payload)
}

// ReadMessages marks specific message keys as read (the blue double check).
func (c *Client) ReadMessages(ctx context.Context, sessionID, token string, payload map[string]any) (Result, error) {
	return c.request(ctx, http.MethodPost, fmt.Sprintf("/%s/messages/read", sessionID), c.userHeaders(token), payload)
}
