package application

import (
	"strings"
	"time"

	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
)

// InboundMessage es el evento de mensaje ya normalizado que consumen el
// historial y el motor de chatbot.
type InboundMessage struct {
	SessionID string
	RemoteJID string
	PushName  string
	WAMID     string
	FromMe    bool
	IsGroup   bool
	Kind      messagesDomain.Kind
	Content   string
	Key       map[string]any // clave cruda del bridge, para quote/reaction/read
	Timestamp time.Time
}

// envelopeKeys are the nesting wrappers some bridge builds put around the
// real payload. Unwrapping descends until none of them remain.
var envelopeKeys = []string{
	"ephemeralMessage",
	"viewOnceMessage",
	"viewOnceMessageV2",
	"documentWithCaptionMessage",
	"editedMessage",
}

func unwrapEnvelope(message map[string]any) map[string]any {
	for {
		unwrapped := false
		for _, key := range envelopeKeys {
			wrapper, ok := message[key].(map[string]any)
			if !ok {
				continue
			}
			if inner, ok := wrapper["message"].(map[string]any); ok {
				message = inner
				unwrapped = true
				break
			}
		}
		if !unwrapped {
			return message
		}
	}
}

func extractContent(message, data map[string]any) string {
	if s, ok := message["conversation"].(string); ok && s != "" {
		return s
	}
	if ext, ok := message["extendedTextMessage"].(map[string]any); ok {
		if s, ok := ext["text"].(string); ok && s != "" {
			return s
		}
	}
	for key, value := range message {
		if !strings.HasSuffix(key, "Message") {
			continue
		}
		if m, ok := value.(map[string]any); ok {
			if s, ok := m["caption"].(string); ok && s != "" {
				return s
			}
		}
	}
	if s, ok := data["content"].(string); ok {
		return s
	}
	return ""
}

func extractKind(message map[string]any) messagesDomain.Kind {
	ordered := []struct {
		key  string
		kind messagesDomain.Kind
	}{
		{"imageMessage", messagesDomain.KindImage},
		{"videoMessage", messagesDomain.KindVideo},
		{"audioMessage", messagesDomain.KindAudio},
		{"documentMessage", messagesDomain.KindDocument},
		{"stickerMessage", messagesDomain.KindSticker},
	}
	for _, entry := range ordered {
		if _, ok := message[entry.key]; ok {
			return entry.kind
		}
	}
	return messagesDomain.KindText
}

// NormalizeMessageEvent flattens a raw bridge message frame into an
// InboundMessage. data is the frame's `data` object.
func NormalizeMessageEvent(sessionID string, data map[string]any) *InboundMessage {
	inbound := &InboundMessage{
		SessionID: sessionID,
		Kind:      messagesDomain.KindText,
		Timestamp: time.Now().UTC(),
	}

	if key, ok := data["key"].(map[string]any); ok {
		inbound.Key = key
		if s, ok := key["remoteJid"].(string); ok {
			inbound.RemoteJID = s
		}
		if s, ok := key["id"].(string); ok {
			inbound.WAMID = s
		}
		if b, ok := key["fromMe"].(bool); ok {
			inbound.FromMe = b
		}
	}
	if inbound.RemoteJID == "" {
		if s, ok := data["remoteJid"].(string); ok {
			inbound.RemoteJID = s
		}
	}
	if s, ok := data["pushName"].(string); ok {
		inbound.PushName = s
	}
	if ts, ok := data["messageTimestamp"].(float64); ok && ts > 0 {
		inbound.Timestamp = time.Unix(int64(ts), 0).UTC()
	}
	inbound.IsGroup = strings.HasSuffix(inbound.RemoteJID, "@g.us")

	message, _ := data["message"].(map[string]any)
	if message != nil {
		message = unwrapEnvelope(message)
		inbound.Kind = extractKind(message)
		inbound.Content = extractContent(message, data)
	} else {
		inbound.Content = extractContent(map[string]any{}, data)
	}
	return inbound
}
