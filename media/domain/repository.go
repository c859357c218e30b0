package domain

import "context"

// MediaRepository persiste las filas de archivos; los blobs son cosa
// del BlobStore.
type MediaRepository interface {
	Create(ctx context.Context, file *MediaFile) error
	GetByID(ctx context.Context, id string) (*MediaFile, error)
	Update(ctx context.Context, file *MediaFile) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, tenantID string) ([]*MediaFile, error)
}
