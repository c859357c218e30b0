package application

import (
	"strings"
	"testing"

	"github.com/AzielCF/az-hub/botengine/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessages_ShortPassThrough(t *testing.T) {
	out := SplitMessages([]string{"hola", "¿cómo estás?"})
	assert.Equal(t, []string{"hola", "¿cómo estás?"}, out)
}

func TestSplitMessages_HardCapOnCount(t *testing.T) {
	in := []string{"1", "2", "3", "4", "5", "6"}
	out := SplitMessages(in)
	assert.Len(t, out, domain.HardMaxMessages, "nunca más de 4 burbujas")
}

func TestSplitMessages_PrefersNewline(t *testing.T) {
	first := strings.Repeat("a", 500)
	second := strings.Repeat("b", 400)
	out := SplitMessages([]string{first + "\n" + second})

	require.Len(t, out, 2)
	assert.Equal(t, first, out[0])
	assert.Equal(t, second, out[1])
}

func TestSplitMessages_SentenceBoundary(t *testing.T) {
	sentence := strings.Repeat("palabra ", 60) + "fin. "
	long := sentence + strings.Repeat("otra ", 80)
	out := SplitMessages([]string{long})

	require.GreaterOrEqual(t, len(out), 2)
	for _, piece := range out {
		assert.LessOrEqual(t, len(piece), domain.MaxAICharsPerMessage)
	}
}

func TestSplitMessages_HardCutWithoutSeparators(t *testing.T) {
	long := strings.Repeat("x", domain.MaxAICharsPerMessage*2)
	out := SplitMessages([]string{long})

	require.Len(t, out, 2)
	assert.Len(t, out[0], domain.MaxAICharsPerMessage)
}

func TestSplitMessages_DropsEmpty(t *testing.T) {
	out := SplitMessages([]string{"", "  ", "hola"})
	assert.Equal(t, []string{"hola"}, out)
}
