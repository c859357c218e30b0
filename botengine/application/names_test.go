package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPersonName(t *testing.T) {
	valid := []string{"María", "Jean-Pierre", "O'Brien", "Ana Luísa", "José"}
	for _, name := range valid {
		assert.True(t, IsValidPersonName(name), name)
	}

	invalid := []string{
		"",
		"A",
		"http://spam.com",
		"user@example.com",
		"5511999@s.whatsapp.net",
		"1234",
		"😀",
	}
	for _, name := range invalid {
		assert.False(t, IsValidPersonName(name), name)
	}
}

func TestIsValidPersonName_LengthCountsRunes(t *testing.T) {
	// 80 runas acentuadas ocupan 160 bytes; el límite es por caracteres.
	assert.True(t, IsValidPersonName(strings.Repeat("é", 80)))
	assert.False(t, IsValidPersonName(strings.Repeat("é", 81)))
}

func TestEvaluateNameTriggers_DenialClears(t *testing.T) {
	action, _ := EvaluateNameTriggers("ese no es mi nombre", "")
	assert.Equal(t, NameClear, action)

	action, _ = EvaluateNameTriggers("that's not my name!", "")
	assert.Equal(t, NameClear, action)
}

func TestEvaluateNameTriggers_ExplicitSelfID(t *testing.T) {
	action, name := EvaluateNameTriggers("meu nome é Carlos", "")
	assert.Equal(t, NameStore, action)
	assert.Equal(t, "Carlos", name)

	action, name = EvaluateNameTriggers("my name is Anne Marie", "")
	assert.Equal(t, NameStore, action)
	assert.Equal(t, "Anne Marie", name)

	// Auto-identificación con basura no guarda nada.
	action, _ = EvaluateNameTriggers("me llamo http://spam.com", "")
	assert.Equal(t, NameNoop, action)
}

func TestEvaluateNameTriggers_SolicitedShortReply(t *testing.T) {
	// El bot acaba de preguntar el nombre: una respuesta corta cuenta.
	action, name := EvaluateNameTriggers("Paulo", "Antes de continuar, qual é o seu nome?")
	assert.Equal(t, NameStore, action)
	assert.Equal(t, "Paulo", name)

	// Sin pregunta previa, la misma respuesta no dispara nada.
	action, _ = EvaluateNameTriggers("Paulo", "¿En qué puedo ayudarte?")
	assert.Equal(t, NameNoop, action)

	// Respuesta larga tras la pregunta tampoco: no parece un nombre.
	action, _ = EvaluateNameTriggers(
		"bueno en realidad quería preguntar por los precios de ustedes",
		"¿cuál es tu nombre?",
	)
	assert.Equal(t, NameNoop, action)
}

func TestEvaluateNameTriggers_DenialWinsOverSelfID(t *testing.T) {
	action, _ := EvaluateNameTriggers("no es mi nombre, me llamo Pedro... olvídalo", "")
	assert.Equal(t, NameClear, action)
}
