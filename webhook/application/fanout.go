package application

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/AzielCF/az-hub/webhook/domain"
	"github.com/sirupsen/logrus"
)

// fanoutTimeout is intentionally short: tenant callbacks must never hold
// the ingress pipeline hostage.
const fanoutTimeout = 5 * time.Second

// Forwarder POSTs original event payloads to tenant callbacks, signed
// with the per-instance webhook secret.
type Forwarder struct {
	client    *http.Client
	errorLogs domain.ErrorLogRepository
}

func NewForwarder(errorLogs domain.ErrorLogRepository) *Forwarder {
	return &Forwarder{
		client:    &http.Client{Timeout: fanoutTimeout},
		errorLogs: errorLogs,
	}
}

// ShouldForward applies the per-event-class flags. Connection updates are
// always forwarded when a URL is configured.
func ShouldForward(cfg *instancesDomain.WebhookConfig, eventType string) bool {
	if cfg == nil || cfg.URL == "" {
		return false
	}
	switch classifyEvent(eventType) {
	case classMessage:
		return cfg.SendMessages
	case classAck:
		return cfg.SendAck
	case classPresence:
		return cfg.SendPresence
	case classSession:
		return true
	default:
		return false
	}
}

// Forward delivers the payload once. Failures are logged and recorded,
// never retried; delivery guarantees are the tenant's problem.
func (f *Forwarder) Forward(ctx context.Context, cfg *instancesDomain.WebhookConfig, sessionID string, payload []byte) {
	signature, err := utils.GetMessageDigestOrSignature(payload, []byte(cfg.Secret))
	if err != nil {
		f.recordFailure(ctx, sessionID, "signature computation failed: "+err.Error(), payload)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		f.recordFailure(ctx, sessionID, "fanout request build failed: "+err.Error(), payload)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", "sha256="+signature)

	resp, err := f.client.Do(req)
	if err != nil {
		f.recordFailure(ctx, sessionID, "fanout delivery failed: "+err.Error(), payload)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.recordFailure(ctx, sessionID, "fanout rejected with status "+resp.Status, payload)
		return
	}
	logrus.Debugf("[FANOUT] Delivered event for %s to %s", sessionID, cfg.URL)
}

func (f *Forwarder) recordFailure(ctx context.Context, sessionID, message string, payload []byte) {
	logrus.Warnf("[FANOUT] %s (%s)", message, sessionID)
	if f.errorLogs == nil {
		return
	}
	entry := &domain.ErrorLog{
		Source:    domain.SourceFanout,
		SessionID: sessionID,
		Message:   message,
		Payload:   string(payload),
	}
	if err := f.errorLogs.Save(ctx, entry); err != nil {
		logrus.Errorf("[FANOUT] Could not persist error log: %v", err)
	}
}

type eventClass int

const (
	classUnknown eventClass = iota
	classSession
	classMessage
	classAck
	classPresence
)

func classifyEvent(eventType string) eventClass {
	switch eventType {
	case "message", "messages.upsert":
		return classMessage
	case "message.ack", "messages.update", "ack":
		return classAck
	case "presence", "presence.update":
		return classPresence
	case "session-update", "connection.update", "qr":
		return classSession
	default:
		return classUnknown
	}
}

// MarshalEvent renders the original frame for fan-out delivery.
func MarshalEvent(eventType, sessionID string, data map[string]any) []byte {
	payload, err := json.Marshal(map[string]any{
		"type":      eventType,
		"sessionId": sessionID,
		"data":      data,
	})
	if err != nil {
		return []byte("{}")
	}
	return payload
}
