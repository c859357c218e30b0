package domain

import (
	"encoding/json"
	"strings"
)

// Decision es el contrato JSON que el modelo debe devolver. El parser es
// tolerante: respuestas con reply_text/reply plano se promueven a la forma
// canónica en vez de descartarse.
type Decision struct {
	Messages      []string `json:"messages"`
	DelaysMs      []int    `json:"delays_ms"`
	Quote         bool     `json:"quote"`
	ReactionEmoji string   `json:"reaction_emoji"`
	SendMediaID   string   `json:"send_media_id"`
	TransferURL   string   `json:"transfer_url"`
	SaveName      string   `json:"save_name"`
}

// Usage son los tokens consumidos por una llamada al proveedor.
type Usage struct {
	TotalTokens int64
}

// ParseDecision decodes the model output. Code fences and plain-text
// fallbacks are handled here so providers can stay dumb.
func ParseDecision(raw string) (*Decision, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return &Decision{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		// No es JSON: el texto completo es el único mensaje.
		return &Decision{Messages: []string{cleaned}}, nil
	}

	var decision Decision
	if err := json.Unmarshal([]byte(cleaned), &decision); err != nil {
		return nil, err
	}

	// Formatos viejos: reply_text / reply como string plano.
	if len(decision.Messages) == 0 {
		for _, key := range []string{"reply_text", "reply"} {
			if rawVal, ok := probe[key]; ok {
				var text string
				if json.Unmarshal(rawVal, &text) == nil && strings.TrimSpace(text) != "" {
					decision.Messages = []string{strings.TrimSpace(text)}
					break
				}
			}
		}
	}

	if _, ok := AllowedReactions[decision.ReactionEmoji]; !ok {
		decision.ReactionEmoji = ""
	}
	return &decision, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
