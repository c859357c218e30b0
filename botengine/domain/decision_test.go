package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision_CanonicalForm(t *testing.T) {
	raw := `{"messages":["hola","¿en qué te ayudo?"],"delays_ms":[500,900],"quote":true,"reaction_emoji":"👍","send_media_id":"m1","transfer_url":"","save_name":""}`
	decision, err := ParseDecision(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"hola", "¿en qué te ayudo?"}, decision.Messages)
	assert.Equal(t, []int{500, 900}, decision.DelaysMs)
	assert.True(t, decision.Quote)
	assert.Equal(t, "👍", decision.ReactionEmoji)
	assert.Equal(t, "m1", decision.SendMediaID)
}

func TestParseDecision_CodeFence(t *testing.T) {
	raw := "```json\n{\"messages\":[\"ok\"]}\n```"
	decision, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, decision.Messages)
}

func TestParseDecision_LegacyReplyText(t *testing.T) {
	// Formatos viejos del modelo: reply_text o reply plano.
	decision, err := ParseDecision(`{"reply_text":"respuesta plana"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"respuesta plana"}, decision.Messages)

	decision, err = ParseDecision(`{"reply":"otra forma"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"otra forma"}, decision.Messages)
}

func TestParseDecision_PlainTextFallback(t *testing.T) {
	decision, err := ParseDecision("no soy JSON, solo texto")
	require.NoError(t, err)
	assert.Equal(t, []string{"no soy JSON, solo texto"}, decision.Messages)
}

func TestParseDecision_RejectsUnknownReaction(t *testing.T) {
	decision, err := ParseDecision(`{"messages":["x"],"reaction_emoji":"🤖"}`)
	require.NoError(t, err)
	assert.Empty(t, decision.ReactionEmoji, "emoji fuera del set permitido se descarta")
}
