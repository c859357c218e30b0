package domain

import "context"

// MessageRepository persiste el historial de mensajes por instancia.
type MessageRepository interface {
	// Save inserta el mensaje. Un wamid repetido para la misma instancia
	// se ignora en silencio (dedup de reintentos del bridge).
	Save(ctx context.Context, message *Message) error

	// Recent devuelve los últimos mensajes de un chat en orden cronológico,
	// con el contenido recortado a MaxContentChars. limit se acota a 30.
	Recent(ctx context.Context, instanceID, remoteJID string, limit int) ([]HistoryEntry, error)

	// List pagina el historial completo de un chat, más reciente primero.
	List(ctx context.Context, instanceID, remoteJID string, limit, offset int) ([]*Message, error)

	DeleteByInstance(ctx context.Context, instanceID string) error
}
