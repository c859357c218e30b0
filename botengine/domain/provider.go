package domain

import "context"

// Turn es una entrada de historial tal como se entrega al proveedor.
type Turn struct {
	FromMe  bool
	Content string
}

// Provider es el contrato mínimo contra un backend de IA: prompt de
// sistema + historial + mensaje actual → decisión estructurada.
type Provider interface {
	Call(ctx context.Context, cfg *ChatbotConfig, system string, history []Turn, user string) (*Decision, Usage, error)
}

// Parámetros de generación compartidos por todos los proveedores.
const (
	GenTemperature     = 0.35
	GenMaxOutputTokens = 420
)
