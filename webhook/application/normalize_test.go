package application

import (
	"testing"

	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_PlainConversation(t *testing.T) {
	inbound := NormalizeMessageEvent("sess_a", map[string]any{
		"key": map[string]any{
			"remoteJid": "5511999@s.whatsapp.net",
			"id":        "WAMID-1",
			"fromMe":    false,
		},
		"pushName": "María",
		"message":  map[string]any{"conversation": "hola"},
	})

	assert.Equal(t, "5511999@s.whatsapp.net", inbound.RemoteJID)
	assert.Equal(t, "WAMID-1", inbound.WAMID)
	assert.Equal(t, "María", inbound.PushName)
	assert.Equal(t, "hola", inbound.Content)
	assert.Equal(t, messagesDomain.KindText, inbound.Kind)
	assert.False(t, inbound.FromMe)
	assert.False(t, inbound.IsGroup)
}

func TestNormalize_UnwrapsNestedEnvelopes(t *testing.T) {
	// viewOnce dentro de ephemeral: se desciende hasta el payload real.
	inbound := NormalizeMessageEvent("sess_a", map[string]any{
		"key": map[string]any{"remoteJid": "x@s.whatsapp.net", "id": "W1"},
		"message": map[string]any{
			"ephemeralMessage": map[string]any{
				"message": map[string]any{
					"viewOnceMessage": map[string]any{
						"message": map[string]any{
							"imageMessage": map[string]any{"caption": "mira esto"},
						},
					},
				},
			},
		},
	})

	assert.Equal(t, messagesDomain.KindImage, inbound.Kind)
	assert.Equal(t, "mira esto", inbound.Content)
}

func TestNormalize_ContentPriority(t *testing.T) {
	// extendedTextMessage.text gana sobre data.content.
	inbound := NormalizeMessageEvent("sess_a", map[string]any{
		"key":     map[string]any{"remoteJid": "x@s.whatsapp.net", "id": "W1"},
		"content": "fallback",
		"message": map[string]any{
			"extendedTextMessage": map[string]any{"text": "texto largo"},
		},
	})
	assert.Equal(t, "texto largo", inbound.Content)

	// Sin message: cae a data.content.
	inbound = NormalizeMessageEvent("sess_a", map[string]any{
		"key":     map[string]any{"remoteJid": "x@s.whatsapp.net"},
		"content": "fallback",
	})
	assert.Equal(t, "fallback", inbound.Content)
}

func TestNormalize_KindFirstMatch(t *testing.T) {
	inbound := NormalizeMessageEvent("sess_a", map[string]any{
		"key": map[string]any{"remoteJid": "x@s.whatsapp.net"},
		"message": map[string]any{
			"documentMessage": map[string]any{"caption": "adjunto"},
		},
	})
	assert.Equal(t, messagesDomain.KindDocument, inbound.Kind)
	assert.Equal(t, "adjunto", inbound.Content)
}

func TestNormalize_GroupJID(t *testing.T) {
	inbound := NormalizeMessageEvent("sess_a", map[string]any{
		"key":     map[string]any{"remoteJid": "12036304@g.us", "id": "W1"},
		"message": map[string]any{"conversation": "hola grupo"},
	})
	assert.True(t, inbound.IsGroup)
}
