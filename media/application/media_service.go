package application

import (
	"context"
	"io"

	"github.com/AzielCF/az-hub/media/domain"
	"github.com/AzielCF/az-hub/media/storage"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MediaService coordina la fila y el blob: nunca queda uno sin el otro.
type MediaService struct {
	repo  domain.MediaRepository
	blobs *storage.BlobStore
}

func NewMediaService(repo domain.MediaRepository, blobs *storage.BlobStore) *MediaService {
	return &MediaService{repo: repo, blobs: blobs}
}

// Upload stores the blob first and only then the row; a failed insert
// rolls the blob back.
func (s *MediaService) Upload(ctx context.Context, tenantID, originalName, mimeType string, src io.Reader) (*domain.MediaFile, error) {
	if originalName == "" {
		return nil, pkgError.ValidationError("file name is required")
	}

	fileID := uuid.New().String()
	path, size, err := s.blobs.Save(tenantID, fileID, originalName, src)
	if err != nil {
		return nil, err
	}

	file := &domain.MediaFile{
		ID:           fileID,
		TenantID:     tenantID,
		OriginalName: originalName,
		MimeType:     mimeType,
		Kind:         domain.KindFromMime(mimeType),
		SizeBytes:    size,
		BlobPath:     path,
	}
	if file.Kind == domain.KindImage {
		file.ThumbnailPath = s.blobs.Thumbnail(path)
	}

	if err := s.repo.Create(ctx, file); err != nil {
		s.blobs.Delete(path, file.ThumbnailPath)
		return nil, err
	}

	logrus.Infof("[MEDIA] Uploaded %s (%d bytes) for tenant %s", originalName, size, tenantID)
	return file, nil
}

// Replace swaps the blob of an existing row. The old blob and thumbnail
// are removed once the new one is persisted.
func (s *MediaService) Replace(ctx context.Context, id, originalName, mimeType string, src io.Reader) (*domain.MediaFile, error) {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldBlob, oldThumb := file.BlobPath, file.ThumbnailPath

	path, size, err := s.blobs.Save(file.TenantID, file.ID, originalName, src)
	if err != nil {
		return nil, err
	}

	file.OriginalName = originalName
	file.MimeType = mimeType
	file.Kind = domain.KindFromMime(mimeType)
	file.SizeBytes = size
	file.BlobPath = path
	file.ThumbnailPath = ""
	if file.Kind == domain.KindImage {
		file.ThumbnailPath = s.blobs.Thumbnail(path)
	}

	if err := s.repo.Update(ctx, file); err != nil {
		s.blobs.Delete(path, file.ThumbnailPath)
		return nil, err
	}

	if oldBlob != path {
		s.blobs.Delete(oldBlob, oldThumb)
	} else if oldThumb != "" && oldThumb != file.ThumbnailPath {
		s.blobs.Delete("", oldThumb)
	}
	return file, nil
}

// Delete removes row and blob together.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.blobs.Delete(file.BlobPath, file.ThumbnailPath)
	return nil
}

func (s *MediaService) Get(ctx context.Context, id string) (*domain.MediaFile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *MediaService) ListByOwner(ctx context.Context, tenantID string) ([]*domain.MediaFile, error) {
	return s.repo.ListByOwner(ctx, tenantID)
}

// OpenBlob hands the raw content to transport layers (bridge multipart).
func (s *MediaService) OpenBlob(file *domain.MediaFile) (io.ReadCloser, error) {
	return s.blobs.Open(file.BlobPath)
}
