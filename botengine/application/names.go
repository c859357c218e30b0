package application

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// validNamePattern acepta nombres latinos con apóstrofes, guiones y
// espacios. Entre 2 y 80 caracteres en total.
var validNamePattern = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ][A-Za-zÀ-ÖØ-öø-ÿ'’\- ]{0,79}$`)

// Disparadores de la política de nombres, por idioma mezclados a propósito:
// los usuarios cambian de idioma sin avisar.
var (
	denialPatterns = []string{
		"não é meu nome", "nao e meu nome", "esse não é meu nome",
		"no es mi nombre", "ese no es mi nombre",
		"that's not my name", "not my name",
		"ce n'est pas mon nom",
	}
	selfIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmeu nome é\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bme chamo\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bpode me chamar de\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bmi nombre es\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bme llamo\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bmy name is\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bcall me\s+(.{2,80})$`),
		regexp.MustCompile(`(?i)\bje m'appelle\s+(.{2,80})$`),
	}
	botAskedNamePatterns = []string{
		"qual é o seu nome", "qual seu nome", "como você se chama", "como se chama",
		"cuál es tu nombre", "cual es tu nombre", "cómo te llamas", "como te llamas",
		"what's your name", "what is your name",
		"comment vous appelez-vous",
	}
)

// NameAction es el resultado de evaluar el mensaje contra la política.
type NameAction int

const (
	NameNoop NameAction = iota
	NameClear
	NameStore
)

// IsValidPersonName rejects anything that smells like an identifier
// instead of a human name.
func IsValidPersonName(name string) bool {
	name = strings.TrimSpace(name)
	// El límite 2–80 es en runas: un nombre acentuado ocupa más bytes que
	// caracteres.
	if n := utf8.RuneCountInString(name); n < 2 || n > 80 {
		return false
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "http") || strings.Contains(name, "@") ||
		strings.Contains(lower, "s.whatsapp.net") {
		return false
	}
	return validNamePattern.MatchString(name)
}

// EvaluateNameTriggers aplica las tres reglas, en orden de prioridad:
//  1. Negación ("ese no es mi nombre") limpia el nombre guardado.
//  2. Auto-identificación explícita guarda el nombre.
//  3. Respuesta corta inmediatamente después de que el bot preguntó el
//     nombre también lo guarda.
func EvaluateNameTriggers(userText, lastBotMessage string) (NameAction, string) {
	trimmed := strings.TrimSpace(userText)
	lower := strings.ToLower(trimmed)

	for _, pattern := range denialPatterns {
		if strings.Contains(lower, pattern) {
			return NameClear, ""
		}
	}

	for _, re := range selfIDPatterns {
		if match := re.FindStringSubmatch(trimmed); len(match) == 2 {
			candidate := strings.TrimRight(strings.TrimSpace(match[1]), ".!?")
			if IsValidPersonName(candidate) {
				return NameStore, candidate
			}
			return NameNoop, ""
		}
	}

	if botAskedForName(lastBotMessage) && len([]rune(trimmed)) <= 40 {
		candidate := strings.TrimRight(trimmed, ".!?")
		if IsValidPersonName(candidate) {
			return NameStore, candidate
		}
	}

	return NameNoop, ""
}

func botAskedForName(lastBotMessage string) bool {
	lower := strings.ToLower(lastBotMessage)
	for _, pattern := range botAskedNamePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
