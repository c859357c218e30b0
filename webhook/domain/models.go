package domain

import (
	"context"
	"time"
)

// ErrorLog registra fallas de ingestión o de fan-out para diagnóstico.
// El payload se recorta; es una pista, no un archivo de eventos.
type ErrorLog struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"` // ingress | fanout
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	SourceIngress = "ingress"
	SourceFanout  = "fanout"

	// MaxPayloadChars limita el snippet guardado por fila.
	MaxPayloadChars = 2000
)

type ErrorLogRepository interface {
	Save(ctx context.Context, entry *ErrorLog) error
	ListRecent(ctx context.Context, limit int) ([]*ErrorLog, error)
	Prune(ctx context.Context, olderThan time.Time) error
}
