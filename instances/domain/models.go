package domain

import "time"

// Status es el ciclo de vida de una sesión de WhatsApp.
type Status string

const (
	StatusCreated      Status = "CREATED"
	StatusQRScanned    Status = "QR_SCANNED"
	StatusConnected    Status = "CONNECTED"
	StatusDisconnected Status = "DISCONNECTED"
	StatusBan          Status = "BAN"
)

// Instance es una sesión lógica de WhatsApp, 1:1 con una sesión del bridge.
type Instance struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	SessionID      string    `json:"session_id"` // estable, formato sess_<16 hex>
	Token          string    `json:"token,omitempty"` // bearer emitido por el bridge, puede faltar
	PhoneConnected string    `json:"phone_connected,omitempty"`
	Status         Status    `json:"status"`
	Battery        int       `json:"battery,omitempty"`
	Platform       string    `json:"platform,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WebhookConfig es 1:1 con la instancia; controla el fan-out de eventos al
// callback del tenant.
type WebhookConfig struct {
	InstanceID   string    `json:"instance_id"`
	URL          string    `json:"url,omitempty"`
	Secret       string    `json:"secret"` // write-once, generado al crear
	SendMessages bool      `json:"send_messages"`
	SendAck      bool      `json:"send_ack"`
	SendPresence bool      `json:"send_presence"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusFields agrupa los campos que sincroniza el reconciler / webhook.
// Un puntero nil significa "no tocar".
type StatusFields struct {
	Status *Status
	Token  *string
	Phone  *string
}
