package domain

import (
	"context"
	"time"
)

// ConfigRepository persiste las configuraciones de chatbot.
type ConfigRepository interface {
	Create(ctx context.Context, cfg *ChatbotConfig) error
	GetByID(ctx context.Context, id string) (*ChatbotConfig, error)
	GetByInstance(ctx context.Context, instanceID string) (*ChatbotConfig, error)
	Update(ctx context.Context, cfg *ChatbotConfig) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, tenantID string) ([]*ChatbotConfig, error)
	CountByOwner(ctx context.Context, tenantID string) (int, error)

	// IncrementConversations aplica el rollover de periodicidad si toca y
	// suma 1 al contador, de forma atómica. Devuelve el contador resultante.
	IncrementConversations(ctx context.Context, configID string, now time.Time) (int, error)

	// AddTokens acumula el uso reportado por el proveedor.
	AddTokens(ctx context.Context, configID string, tokens int64) error
}

// ContactRepository persiste el estado por contacto.
type ContactRepository interface {
	GetOrCreate(ctx context.Context, configID, remoteJID string, now time.Time) (*ChatbotContact, bool, error)
	Get(ctx context.Context, configID, remoteJID string) (*ChatbotContact, error)
	Update(ctx context.Context, contact *ChatbotContact) error
	ListByConfig(ctx context.Context, configID string) ([]*ChatbotContact, error)
}

// MediaCatalogRepository persiste el catálogo de medios del bot.
type MediaCatalogRepository interface {
	Create(ctx context.Context, media *ChatbotMedia) error
	GetByID(ctx context.Context, id string) (*ChatbotMedia, error)
	Update(ctx context.Context, media *ChatbotMedia) error
	Delete(ctx context.Context, id string) error
	ListByConfig(ctx context.Context, configID string) ([]*ChatbotMedia, error)

	// ListAccessible devuelve hasta MaxCatalogEntries medios visibles para
	// la IA, con la descripción recortada a MaxCatalogDescChars.
	ListAccessible(ctx context.Context, configID string) ([]*ChatbotMedia, error)
}
