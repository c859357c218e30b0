package domain

import "time"

// CampaignStatus es el ciclo de vida de una campaña.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignRunning   CampaignStatus = "RUNNING"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignCanceled  CampaignStatus = "CANCELED"
	CampaignFailed    CampaignStatus = "FAILED"
)

// ItemStatus es el estado de un envío individual. A partir de SENT solo
// avanza por acks del bridge, nunca retrocede.
type ItemStatus string

const (
	ItemQueued    ItemStatus = "QUEUED"
	ItemSending   ItemStatus = "SENDING"
	ItemSent      ItemStatus = "SENT"
	ItemDelivered ItemStatus = "DELIVERED"
	ItemRead      ItemStatus = "READ"
	ItemPlayed    ItemStatus = "PLAYED"
	ItemFailed    ItemStatus = "FAILED"
	ItemCanceled  ItemStatus = "CANCELED"
)

// ackRank ordena la escalera de acks para garantizar monotonicidad.
var ackRank = map[ItemStatus]int{
	ItemSent:      1,
	ItemDelivered: 2,
	ItemRead:      3,
	ItemPlayed:    4,
}

// AckStatusForLevel traduce el nivel numérico del bridge a estado.
func AckStatusForLevel(level int) (ItemStatus, bool) {
	switch level {
	case 2:
		return ItemDelivered, true
	case 3:
		return ItemRead, true
	case 4:
		return ItemPlayed, true
	default:
		return "", false
	}
}

// AckAdvances reports whether moving from current to next climbs the
// ladder instead of regressing.
func AckAdvances(current, next ItemStatus) bool {
	cur, okCur := ackRank[current]
	nxt, okNext := ackRank[next]
	if !okNext {
		return false
	}
	return !okCur || nxt > cur
}

// Defaults de pacing por instancia, en segundos.
const (
	DefaultMinDelaySeconds = 20
	DefaultMaxDelaySeconds = 45
)

// NamePlaceholder es el marcador sustituible en el cuerpo del template.
const NamePlaceholder = "{nome}"

// Template es un cuerpo de mensaje reutilizable, con media opcional.
type Template struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	MediaFileID string    `json:"media_file_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContactGroup agrupa contactos reutilizables entre campañas.
type ContactGroup struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupContact es un miembro de un grupo.
type GroupContact struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	JID         string    `json:"jid"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Campaign es un envío masivo pautado sobre una instancia.
type Campaign struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	InstanceID string `json:"instance_id"`
	Name       string `json:"name"`

	StartAt              *time.Time `json:"start_at,omitempty"`
	MinDelaySeconds      int        `json:"min_delay_seconds"`
	MaxDelaySeconds      int        `json:"max_delay_seconds"`
	MessagesPerRecipient int        `json:"messages_per_recipient"`
	UseNamePlaceholder   bool       `json:"use_name_placeholder"`
	RawNumbers           string     `json:"raw_numbers,omitempty"`
	GroupIDs             []string   `json:"group_ids,omitempty"`
	TemplateIDs          []string   `json:"template_ids,omitempty"`

	Status CampaignStatus `json:"status"`

	Planned   int `json:"planned"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
	Delivered int `json:"delivered"`
	Read      int `json:"read"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeDelays aplica los defaults y el invariante min ≥ 1, max ≥ min.
func (c *Campaign) NormalizeDelays() {
	if c.MinDelaySeconds < 1 {
		c.MinDelaySeconds = DefaultMinDelaySeconds
	}
	if c.MaxDelaySeconds < c.MinDelaySeconds {
		c.MaxDelaySeconds = DefaultMaxDelaySeconds
	}
	if c.MaxDelaySeconds < c.MinDelaySeconds {
		c.MaxDelaySeconds = c.MinDelaySeconds
	}
	if c.MessagesPerRecipient < 1 {
		c.MessagesPerRecipient = 1
	}
}

// IsTerminal reports whether no further work can happen.
func (c *Campaign) IsTerminal() bool {
	switch c.Status {
	case CampaignCompleted, CampaignCanceled, CampaignFailed:
		return true
	}
	return false
}

// RecipientSource indica de dónde salió el destinatario.
type RecipientSource string

const (
	SourceInline RecipientSource = "INLINE"
	SourceGroup  RecipientSource = "GROUP"
)

// Recipient es el snapshot de un destino, único por (campaña, jid).
type Recipient struct {
	ID          string          `json:"id"`
	CampaignID  string          `json:"campaign_id"`
	JID         string          `json:"jid"`
	DisplayName string          `json:"display_name,omitempty"`
	Source      RecipientSource `json:"source"`
	CreatedAt   time.Time       `json:"created_at"`
}

// QueueItem es un envío individual: (campaña, destinatario, paso) único.
type QueueItem struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaign_id"`
	RecipientID string `json:"recipient_id"`
	InstanceID  string `json:"instance_id"`
	Step        int    `json:"step"`

	TemplateID   string     `json:"template_id"`
	MediaFileID  string     `json:"media_file_id,omitempty"`
	RenderedBody string     `json:"rendered_body"`
	JID          string     `json:"jid"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Status       ItemStatus `json:"status"`
	WAMID        string     `json:"wamid,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	Attempts     int        `json:"attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstanceDispatchState es la puerta de pacing por instancia.
type InstanceDispatchState struct {
	InstanceID      string    `json:"instance_id"`
	NextAvailableAt time.Time `json:"next_available_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CampaignSummary son los agregados que muestra el panel.
type CampaignSummary struct {
	Total     int `json:"total"`
	Draft     int `json:"draft"`
	Scheduled int `json:"scheduled"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Planned   int `json:"planned"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}
