package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-hub/webhook/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type errorLogModel struct {
	ID        string `gorm:"primaryKey"`
	Source    string `gorm:"index:idx_errorlog_source"`
	SessionID string
	Message   string    `gorm:"type:text"`
	Payload   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_errorlog_created;not null"`
}

func (errorLogModel) TableName() string {
	return "webhook_error_logs"
}

type ErrorLogGormRepository struct {
	db *gorm.DB
}

func NewErrorLogGormRepository(db *gorm.DB) *ErrorLogGormRepository {
	return &ErrorLogGormRepository{db: db}
}

func (r *ErrorLogGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&errorLogModel{})
}

func (r *ErrorLogGormRepository) Save(ctx context.Context, entry *domain.ErrorLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()
	if len(entry.Payload) > domain.MaxPayloadChars {
		entry.Payload = entry.Payload[:domain.MaxPayloadChars]
	}
	model := errorLogModel{
		ID:        entry.ID,
		Source:    entry.Source,
		SessionID: entry.SessionID,
		Message:   entry.Message,
		Payload:   entry.Payload,
		CreatedAt: entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ErrorLogGormRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ErrorLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []errorLogModel
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ErrorLog, 0, len(models))
	for i := range models {
		m := models[i]
		out = append(out, &domain.ErrorLog{
			ID:        m.ID,
			Source:    m.Source,
			SessionID: m.SessionID,
			Message:   m.Message,
			Payload:   m.Payload,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *ErrorLogGormRepository) Prune(ctx context.Context, olderThan time.Time) error {
	return r.db.WithContext(ctx).Delete(&errorLogModel{}, "created_at < ?", olderThan).Error
}
