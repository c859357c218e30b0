package domain

import (
	"context"
	"time"
)

// ListFilter controla el barrido del reconciler.
type ListFilter struct {
	OnlyStaleBefore *time.Time // updated_at < este instante
	Max             int
}

// InstanceRepository define la persistencia de instancias y su webhook config.
type InstanceRepository interface {
	Create(ctx context.Context, instance *Instance) error
	GetByID(ctx context.Context, id string) (*Instance, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Instance, error)
	GetByToken(ctx context.Context, token string) (*Instance, error)
	Update(ctx context.Context, instance *Instance) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, tenantID string) ([]*Instance, error)
	List(ctx context.Context, filter ListFilter) ([]*Instance, error)
	CountByOwner(ctx context.Context, tenantID string) (int, error)

	// UpdateStatusFields aplica solo los campos no nil, keyed por session_id.
	// Es la única vía de escritura para webhook ingress y reconciler.
	UpdateStatusFields(ctx context.Context, sessionID string, fields StatusFields) error

	GetWebhookConfig(ctx context.Context, instanceID string) (*WebhookConfig, error)
	SaveWebhookConfig(ctx context.Context, cfg *WebhookConfig) error
}
