package domain

import (
	"strings"
	"time"
)

// Kind clasifica un archivo por su mime declarado.
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
)

// KindFromMime derives the coarse kind from a mime type string.
func KindFromMime(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	default:
		return KindDocument
	}
}

// MediaFile es un blob subido por un tenant. La fila y el blob viven y
// mueren juntos: borrar o reemplazar la fila elimina el blob (y su
// thumbnail si lo hay).
type MediaFile struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	OriginalName  string    `json:"original_name"`
	MimeType      string    `json:"mime_type"`
	Kind          Kind      `json:"kind"`
	SizeBytes     int64     `json:"size_bytes"`
	BlobPath      string    `json:"-"`
	ThumbnailPath string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
