package domain

import (
	"context"
	"time"
)

// TemplateRepository persiste los templates de campaña.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *Template) error
	GetByID(ctx context.Context, id string) (*Template, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Template, error)
	Update(ctx context.Context, tpl *Template) error
	Delete(ctx context.Context, id string) error
	InitSchema(ctx context.Context) error
}

// GroupRepository persiste los grupos de contactos y sus miembros.
type GroupRepository interface {
	Create(ctx context.Context, group *ContactGroup) error
	GetByID(ctx context.Context, id string) (*ContactGroup, error)
	ListByTenant(ctx context.Context, tenantID string) ([]ContactGroup, error)
	Delete(ctx context.Context, id string) error

	AddContacts(ctx context.Context, groupID string, contacts []GroupContact) error
	ListContacts(ctx context.Context, groupID string) ([]GroupContact, error)
	RemoveContact(ctx context.Context, groupID, contactID string) error
	InitSchema(ctx context.Context) error
}

// CampaignRepository persiste campañas, destinatarios y la cola.
type CampaignRepository interface {
	Create(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id string) (*Campaign, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Campaign, error)
	Update(ctx context.Context, c *Campaign) error
	UpdateStatus(ctx context.Context, id string, status CampaignStatus) error
	Delete(ctx context.Context, id string) error

	// DueScheduled lista campañas SCHEDULED cuyo start_at ya venció.
	DueScheduled(ctx context.Context, now time.Time) ([]Campaign, error)

	CreateRecipients(ctx context.Context, recipients []Recipient) error
	ListRecipients(ctx context.Context, campaignID string) ([]Recipient, error)

	CreateItems(ctx context.Context, items []QueueItem) error
	GetItemByID(ctx context.Context, id string) (*QueueItem, error)
	ListItems(ctx context.Context, campaignID string, limit, offset int) ([]QueueItem, error)

	// ClaimItems toma hasta max items QUEUED con scheduled_at vencido de
	// campañas RUNNING, marcándolos SENDING de forma atómica para que dos
	// workers jamás reclamen el mismo item.
	ClaimItems(ctx context.Context, now time.Time, max int) ([]QueueItem, error)

	MarkSent(ctx context.Context, itemID, wamid string) error
	MarkFailed(ctx context.Context, itemID, reason string) error
	// Requeue devuelve un item SENDING a QUEUED (puerta de pacing cerrada).
	Requeue(ctx context.Context, itemID string, scheduledAt time.Time) error
	CancelPending(ctx context.Context, campaignID string) error

	// AdvanceAck sube el estado del item por wamid solo si escala; la
	// escalera SENT → DELIVERED → READ → PLAYED nunca retrocede.
	AdvanceAck(ctx context.Context, instanceID, wamid string, next ItemStatus) (*QueueItem, error)

	// RefreshCounters recalcula los contadores de la campaña a partir de
	// los estados reales de sus items y devuelve la campaña actualizada.
	RefreshCounters(ctx context.Context, campaignID string) (*Campaign, error)

	Summary(ctx context.Context, tenantID string) (*CampaignSummary, error)
	InitSchema(ctx context.Context) error
}

// DispatchStateRepository guarda la puerta de pacing por instancia.
type DispatchStateRepository interface {
	// Get devuelve el estado de la instancia, o uno en cero si no existe.
	Get(ctx context.Context, instanceID string) (*InstanceDispatchState, error)
	// SetNextAvailable fija el próximo momento habilitado de la instancia.
	SetNextAvailable(ctx context.Context, instanceID string, at time.Time) error
	InitSchema(ctx context.Context) error
}
