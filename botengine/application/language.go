package application

import (
	"strings"

	"github.com/AzielCF/az-hub/botengine/domain"
)

// Idiomas soportados por el motor. El default es portugués porque la base
// de usuarios del producto original es brasileña.
const (
	LangPT = "pt"
	LangEN = "en"
	LangES = "es"
	LangFR = "fr"

	DefaultLanguage = LangPT
)

// explicitRequests mapea frases de pedido explícito de idioma. Siempre
// ganan sobre cualquier heurística.
var explicitRequests = map[string]string{
	"fala em portugues": LangPT,
	"fala em português": LangPT,
	"responde em portugues": LangPT,
	"em portugues por favor": LangPT,
	"speak english": LangEN,
	"in english please": LangEN,
	"answer in english": LangEN,
	"habla español": LangES,
	"habla espanol": LangES,
	"en español por favor": LangES,
	"responde en español": LangES,
	"parle français": LangFR,
	"en français": LangFR,
	"reponds en francais": LangFR,
}

// Lexicones cortos de palabras frecuentes e inequívocas por idioma.
var lexicons = map[string][]string{
	LangPT: {"você", "voce", "obrigado", "obrigada", "não", "nao", "sim", "bom dia", "boa tarde", "boa noite", "tudo bem", "preciso", "quero", "fazer", "como", "onde", "quanto", "ajuda", "por favor", "valor", "horário", "horario"},
	LangEN: {"you", "the", "thanks", "thank you", "hello", "please", "need", "want", "how", "where", "price", "help", "good morning", "what", "can"},
	LangES: {"usted", "gracias", "hola", "necesito", "quiero", "hacer", "cómo", "como", "dónde", "donde", "cuánto", "cuanto", "ayuda", "por favor", "precio", "horario", "buenos días", "buenos dias"},
	LangFR: {"vous", "merci", "bonjour", "besoin", "vouloir", "comment", "où", "combien", "aide", "s'il vous plaît", "prix", "bonsoir"},
}

// DetectLanguage resuelve el idioma activo de la conversación con una
// escalera de señales: pedido explícito, morfología pt, mayoría estricta
// de lexicón, historial del más nuevo al más viejo, default.
func DetectLanguage(userText string, history []domain.Turn, stored string) string {
	lower := strings.ToLower(userText)

	if lang := explicitRequestIn(lower); lang != "" {
		return lang
	}
	if lang := signalsIn(lower); lang != "" {
		return lang
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].FromMe {
			continue
		}
		if lang := signalsIn(strings.ToLower(history[i].Content)); lang != "" {
			return lang
		}
	}
	if stored != "" {
		return stored
	}
	return DefaultLanguage
}

func explicitRequestIn(lower string) string {
	for phrase, lang := range explicitRequests {
		if strings.Contains(lower, phrase) {
			return lang
		}
	}
	return ""
}

func signalsIn(lower string) string {
	// ã/õ son exclusivas del portugués entre los idiomas soportados.
	if strings.ContainsAny(lower, "ãõ") {
		return LangPT
	}
	return lexiconMajority(lower)
}

// lexiconMajority returns a language only when it strictly beats every
// other candidate. Ties are inconclusive on purpose.
func lexiconMajority(lower string) string {
	padded := " " + lower + " "
	best, bestScore, runnerUp := "", 0, 0
	for lang, words := range lexicons {
		score := 0
		for _, w := range words {
			if strings.Contains(padded, " "+w+" ") || strings.Contains(padded, " "+w+",") ||
				strings.Contains(padded, " "+w+".") || strings.Contains(padded, " "+w+"?") {
				score++
			}
		}
		if score > bestScore {
			runnerUp = bestScore
			best, bestScore = lang, score
		} else if score > runnerUp {
			runnerUp = score
		}
	}
	if bestScore > 0 && bestScore > runnerUp {
		return best
	}
	return ""
}

// LanguageLabel is the human name injected into the prompt.
func LanguageLabel(lang string) string {
	switch lang {
	case LangEN:
		return "English"
	case LangES:
		return "Español"
	case LangFR:
		return "Français"
	default:
		return "Português"
	}
}

// TransferPhrase renders the localized single handoff message.
func TransferPhrase(lang, url string) string {
	switch lang {
	case LangEN:
		return "Perfect — I'll connect you right here: " + url
	case LangES:
		return "Perfecto — te derivo por aquí: " + url
	case LangFR:
		return "Parfait — je vous mets en relation ici : " + url
	default:
		return "Perfeito — vou te encaminhar por aqui: " + url
	}
}

// FallbackPhrase is sent when the provider fails but a reply is owed.
func FallbackPhrase(lang string) string {
	switch lang {
	case LangEN:
		return "Sorry, I couldn't process your message right now. Could you try again?"
	case LangES:
		return "Perdón, no pude procesar tu mensaje ahora. ¿Puedes intentarlo de nuevo?"
	case LangFR:
		return "Désolé, je n'ai pas pu traiter votre message. Pouvez-vous réessayer ?"
	default:
		return "Desculpe, não consegui processar sua mensagem agora. Pode tentar de novo?"
	}
}
