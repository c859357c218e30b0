package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-hub/media/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type mediaFileModel struct {
	ID            string `gorm:"primaryKey"`
	TenantID      string `gorm:"index:idx_media_tenant;not null"`
	OriginalName  string `gorm:"not null"`
	MimeType      string
	Kind          string
	SizeBytes     int64
	BlobPath      string `gorm:"not null"`
	ThumbnailPath string
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (mediaFileModel) TableName() string {
	return "media_files"
}

type MediaGormRepository struct {
	db *gorm.DB
}

func NewMediaGormRepository(db *gorm.DB) *MediaGormRepository {
	return &MediaGormRepository{db: db}
}

func (r *MediaGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&mediaFileModel{})
}

func (r *MediaGormRepository) Create(ctx context.Context, file *domain.MediaFile) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	file.CreatedAt = now
	file.UpdatedAt = now
	model := toMediaModel(file)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *MediaGormRepository) GetByID(ctx context.Context, id string) (*domain.MediaFile, error) {
	var model mediaFileModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("media file not found")
		}
		return nil, err
	}
	return toMediaDomain(&model), nil
}

func (r *MediaGormRepository) Update(ctx context.Context, file *domain.MediaFile) error {
	file.UpdatedAt = time.Now().UTC()
	model := toMediaModel(file)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *MediaGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&mediaFileModel{}, "id = ?", id).Error
}

func (r *MediaGormRepository) ListByOwner(ctx context.Context, tenantID string) ([]*domain.MediaFile, error) {
	var models []mediaFileModel
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.MediaFile, 0, len(models))
	for i := range models {
		out = append(out, toMediaDomain(&models[i]))
	}
	return out, nil
}

func toMediaModel(f *domain.MediaFile) mediaFileModel {
	return mediaFileModel{
		ID:            f.ID,
		TenantID:      f.TenantID,
		OriginalName:  f.OriginalName,
		MimeType:      f.MimeType,
		Kind:          string(f.Kind),
		SizeBytes:     f.SizeBytes,
		BlobPath:      f.BlobPath,
		ThumbnailPath: f.ThumbnailPath,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

func toMediaDomain(m *mediaFileModel) *domain.MediaFile {
	return &domain.MediaFile{
		ID:            m.ID,
		TenantID:      m.TenantID,
		OriginalName:  m.OriginalName,
		MimeType:      m.MimeType,
		Kind:          domain.Kind(m.Kind),
		SizeBytes:     m.SizeBytes,
		BlobPath:      m.BlobPath,
		ThumbnailPath: m.ThumbnailPath,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
