package domain

import (
	"time"

	"github.com/AzielCF/az-hub/pkg/timeutils"
)

// Límites operativos del motor. Vienen del comportamiento afinado en
// producción; cambiarlos altera el "ritmo humano" de las respuestas.
const (
	MaxUserMessageChars  = 4000
	MaxAICharsPerMessage = 750
	HardMaxMessages      = 4
	MaxHistoryEntries    = 30
	MaxTransferTargets   = 5
	MaxCatalogEntries    = 30
	MaxCatalogDescChars  = 120
)

// AllowedReactions es el set cerrado de emojis que el bot puede usar como
// reacción. Cualquier otro valor del modelo se descarta.
var AllowedReactions = map[string]struct{}{
	"👍": {}, "❤️": {}, "😂": {}, "🙏": {}, "👏": {},
	"😮": {}, "😢": {}, "🔥": {}, "✨": {}, "✅": {},
}

// ProviderKind identifica el backend de IA configurado.
type ProviderKind string

const (
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// TransferTarget es un destino de derivación humana. Se renderiza en el
// prompt como wa.me/<solo dígitos>.
type TransferTarget struct {
	Label  string `json:"label"`
	Number string `json:"number"` // E.164
	Active bool   `json:"active"`
}

// ChatbotConfig es la configuración 1:1 entre un chatbot y una instancia.
type ChatbotConfig struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	InstanceID string `json:"instance_id"`

	Active           bool `json:"active"`
	RespondInGroups  bool `json:"respond_in_groups"`
	TriggerOnUnknown bool `json:"trigger_on_unknown"` // responder a contactos nuevos
	AllowMedia       bool `json:"allow_media"`

	// Identidad y conocimiento del negocio. Todo esto alimenta el prompt.
	CompanyName     string `json:"company_name"`
	CompanyWebsite  string `json:"company_website,omitempty"`
	Persona         string `json:"persona"`
	Tone            string `json:"tone"`
	Segment         string `json:"segment"`
	BusinessSummary string `json:"business_summary"`
	BusinessHours   string `json:"business_hours"`
	ContextInfo     string `json:"context_info"`
	Skills          string `json:"skills"`
	Extras          string `json:"extras"`
	InternalNotes   string `json:"internal_notes"` // nunca se revela al usuario final

	// Comportamiento conversacional.
	SimulateTyping bool `json:"simulate_typing"`
	TypingMinMs    int  `json:"typing_min_ms"`
	TypingMaxMs    int  `json:"typing_max_ms"`
	UseHistory     bool `json:"use_history"`
	HistoryLimit   int  `json:"history_limit"` // ≤ MaxHistoryEntries

	// Proveedor de IA. La API key se guarda cifrada.
	Provider ProviderKind `json:"provider"`
	Model    string       `json:"model"`
	APIKey   string       `json:"-"`

	Transfers []TransferTarget `json:"transfers"`

	// Contadores de cuota. Se resetean según el bucket de periodicidad.
	ConversationsCount int                  `json:"conversations_count"`
	ConversationsLimit int                  `json:"conversations_limit"`
	LastResetDate      time.Time            `json:"last_reset_date"`
	CurrentTokensUsed  int64                `json:"current_tokens_used"`
	TokenLimit         int64                `json:"token_limit"`
	Periodicity        timeutils.PeriodKind `json:"periodicity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveHistoryLimit applies the hard cap.
func (c *ChatbotConfig) EffectiveHistoryLimit() int {
	if c.HistoryLimit <= 0 || c.HistoryLimit > MaxHistoryEntries {
		return MaxHistoryEntries
	}
	return c.HistoryLimit
}

// ActiveTransfers filters the catalog down to usable targets.
func (c *ChatbotConfig) ActiveTransfers() []TransferTarget {
	out := make([]TransferTarget, 0, len(c.Transfers))
	for _, t := range c.Transfers {
		if t.Active && t.Number != "" {
			out = append(out, t)
		}
		if len(out) == MaxTransferTargets {
			break
		}
	}
	return out
}

// ChatbotContact es el estado por (config, remote_jid). PushName guarda el
// nombre CONFIRMADO por la persona; el pushName de WhatsApp jamás se
// persiste aquí.
type ChatbotContact struct {
	ID               string    `json:"id"`
	ConfigID         string    `json:"config_id"`
	RemoteJID        string    `json:"remote_jid"`
	PushName         string    `json:"push_name,omitempty"`
	Notes            string    `json:"notes,omitempty"` // solo operador, nunca entra al prompt de salida
	IsBlocked        bool      `json:"is_blocked"`
	Language         string    `json:"language,omitempty"`
	FirstInteraction time.Time `json:"first_interaction"`
	LastInteraction  time.Time `json:"last_interaction"`
}

// ChatbotMedia referencia un MediaFile del tenant dentro del catálogo que
// la IA puede ofrecer.
type ChatbotMedia struct {
	ID               string    `json:"id"`
	ConfigID         string    `json:"config_id"`
	MediaFileID      string    `json:"media_file_id"`
	Kind             string    `json:"kind"`
	Description      string    `json:"description"`
	IsAccessibleByAI bool      `json:"is_accessible_by_ai"`
	SendRules        string    `json:"send_rules,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
