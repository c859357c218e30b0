package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/core/config"
	"github.com/sirupsen/logrus"
)

// AuthDeniedMarker is the literal error string the bridge returns when an
// instance token is no longer valid. It is the only signal that authorizes
// a token self-heal; everything else is surfaced as-is.
const AuthDeniedMarker = "ACESSO NEGADO"

// Result is the outcome of a single bridge call. OK reflects the HTTP status
// (2xx); Body is the parsed JSON payload, which on failures usually carries
// an "error" field.
type Result struct {
	OK         bool
	StatusCode int
	Body       map[string]any
}

// List returns the body's raw list when the bridge answered with a JSON
// array instead of an object (GET /sessions does this).
func (r Result) List() []any {
	if raw, ok := r.Body["list"].([]any); ok {
		return raw
	}
	return nil
}

// ErrorText extracts the bridge's error message, if any.
func (r Result) ErrorText() string {
	if r.Body == nil {
		return ""
	}
	if s, ok := r.Body["error"].(string); ok {
		return s
	}
	if s, ok := r.Body["message"].(string); ok {
		return s
	}
	return ""
}

// HealFunc refreshes the locally stored token for a session via the admin
// session list and returns the new token. ok=false means no token could be
// recovered and the retry must not happen.
type HealFunc func(ctx context.Context, sessionID string) (token string, ok bool)

// Client is the typed HTTP client against the bridge. The same client serves
// both auth modes: admin calls send x-api-key, per-instance calls send the
// instance bearer token and never the admin key.
type Client struct {
	baseURL     string
	adminKey    string
	httpClient  *http.Client
	mediaClient *http.Client
	attempts    int
	backoff     time.Duration
	heal        HealFunc
}

// File is one part of a multipart upload.
type File struct {
	Field    string
	Name     string
	MimeType string
	Content  []byte
}

// NewClient builds a bridge client from the loaded configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Bridge.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	mediaTimeout := time.Duration(cfg.Bridge.MediaTimeout) * time.Second
	if mediaTimeout <= 0 {
		mediaTimeout = 120 * time.Second
	}
	attempts := cfg.Bridge.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := time.Duration(cfg.Bridge.RetryBackoffMs) * time.Millisecond
	if backoff <= 0 {
		backoff = 600 * time.Millisecond
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.Bridge.BaseURL, "/"),
		adminKey:    cfg.Bridge.AdminKey,
		httpClient:  &http.Client{Timeout: timeout},
		mediaClient: &http.Client{Timeout: mediaTimeout},
		attempts:    attempts,
		backoff:     backoff,
	}
}

// SetHealFunc wires the token self-heal routine. Without it, ExecUser never
// retries on auth-denied.
func (c *Client) SetHealFunc(fn HealFunc) {
	c.heal = fn
}

// IsAuthDenied reports whether the bridge rejected the instance token.
func IsAuthDenied(res Result) bool {
	if res.OK {
		return false
	}
	raw, err := json.Marshal(res.Body)
	if err != nil {
		return false
	}
	return strings.Contains(string(raw), AuthDeniedMarker)
}

// NormalizeStatus maps raw bridge status values onto the instance lifecycle:
// open -> CONNECTED, close -> DISCONNECTED, already-normalized values pass
// through uppercased.
func NormalizeStatus(raw string) string {
	sv := strings.TrimSpace(raw)
	if sv == "" {
		return ""
	}
	switch sv {
	case "open":
		return "CONNECTED"
	case "close":
		return "DISCONNECTED"
	}
	return strings.ToUpper(sv)
}

// ExecUser runs a per-instance call. When the bridge answers with the
// invalid-token marker, the heal routine runs once and the call is retried
// exactly once with the refreshed token.
func (c *Client) ExecUser(ctx context.Context, sessionID, token string, fn func(token string) (Result, error)) (Result, error) {
	res, err := fn(token)
	if err != nil {
		return res, err
	}
	if !IsAuthDenied(res) || c.heal == nil {
		return res, nil
	}

	logrus.Warnf("[BRIDGE] Token rejected for session %s, attempting self-heal", sessionID)
	newToken, ok := c.heal(ctx, sessionID)
	if !ok {
		return res, nil
	}
	return fn(newToken)
}

func (c *Client) adminHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("x-api-key", c.adminKey)
	return h
}

func (c *Client) userHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+token)
	return h
}

// request performs one HTTP exchange. Non-media calls with a transport
// failure are retried with linear backoff (0.6s * attempt); media uploads
// are never replayed because the body stream is consumed.
func (c *Client) request(ctx context.Context, method, endpoint string, headers http.Header, payload any) (Result, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return Result{}, fmt.Errorf("marshal bridge payload: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		res, err := c.do(ctx, c.httpClient, method, endpoint, headers, reader)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < c.attempts {
			wait := c.backoff * time.Duration(attempt)
			logrus.Warnf("[BRIDGE] %s %s attempt %d failed (%v), retrying in %s", method, endpoint, attempt, err, wait)
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return Result{}, lastErr
}

// requestMultipart performs a single multipart exchange on the media client.
func (c *Client) requestMultipart(ctx context.Context, method, endpoint string, headers http.Header, fields map[string]string, files []File) (Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return Result{}, err
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return Result{}, err
		}
		if _, err := part.Write(f.Content); err != nil {
			return Result{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	// The multipart writer owns the Content-Type boundary.
	h := headers.Clone()
	h.Set("Content-Type", writer.FormDataContentType())

	return c.do(ctx, c.mediaClient, method, endpoint, h, &buf)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, endpoint string, headers http.Header, body io.Reader) (Result, error) {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return Result{}, err
	}
	req.Header = headers.Clone()

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		OK:         resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Body:       map[string]any{},
	}
	if len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			result.Body = map[string]any{"error": string(raw)}
		} else {
			switch v := parsed.(type) {
			case map[string]any:
				result.Body = v
			case []any:
				result.Body = map[string]any{"list": v}
			default:
				result.Body = map[string]any{"value": v}
			}
		}
	}

	if !result.OK {
		logrus.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		}).Errorf("[BRIDGE] %s failed: %s", method, result.ErrorText())
	}
	return result, nil
}
