package domain

import "time"

// Kind clasifica el contenido de un mensaje según su payload.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindSticker  Kind = "sticker"
	KindOther    Kind = "other"
)

// MaxContentChars is the per-entry cap applied when history is read back
// for conversational context.
const MaxContentChars = 900

// Message es una entrada del historial de conversación de una instancia.
// WAMID es el id de WhatsApp; puede faltar en mensajes sintéticos (bot).
type Message struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	RemoteJID  string    `json:"remote_jid"`
	WAMID      string    `json:"wamid,omitempty"`
	FromMe     bool      `json:"from_me"`
	SenderName string    `json:"sender_name,omitempty"`
	Kind       Kind      `json:"kind"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry es la vista recortada que consume el motor de chatbot.
type HistoryEntry struct {
	FromMe  bool
	Content string
}
