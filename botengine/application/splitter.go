package application

import (
	"strings"
	"unicode/utf8"

	"github.com/AzielCF/az-hub/botengine/domain"
)

// SplitMessages enforces the per-message length cap and the hard cap on
// the number of bubbles. Splitting prefers natural break points: newline,
// sentence end, then word boundary; a cut is accepted when it keeps at
// least half of the limit. Anything past the bubble cap is dropped.
func SplitMessages(messages []string) []string {
	out := make([]string, 0, domain.HardMaxMessages)
	for _, msg := range messages {
		for _, piece := range splitOne(strings.TrimSpace(msg)) {
			if piece == "" {
				continue
			}
			out = append(out, piece)
			if len(out) == domain.HardMaxMessages {
				return out
			}
		}
	}
	return out
}

func splitOne(msg string) []string {
	var pieces []string
	remaining := msg
	for len(remaining) > domain.MaxAICharsPerMessage {
		cut := findCut(remaining)
		pieces = append(pieces, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])

		// Guardia contra bucles: si el corte no avanza, se tira el resto.
		if cut == 0 {
			return pieces
		}
	}
	if remaining != "" {
		pieces = append(pieces, remaining)
	}
	return pieces
}

// findCut looks for the best break inside the window, walking separator
// preference in order.
func findCut(text string) int {
	window := text[:domain.MaxAICharsPerMessage]
	minAccept := domain.MaxAICharsPerMessage / 2

	for _, sep := range []string{"\n", ". ", " "} {
		idx := strings.LastIndex(window, sep)
		if idx >= minAccept {
			return idx + len(sep)
		}
	}
	// Sin separador razonable: corte duro en el límite, sin partir runas.
	cut := domain.MaxAICharsPerMessage
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return cut
}
