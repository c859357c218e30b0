package repository

import (
	"context"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/messages/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type messageModel struct {
	ID         string  `gorm:"primaryKey"`
	InstanceID string  `gorm:"index:idx_messages_chat,priority:1;uniqueIndex:idx_messages_wamid,priority:1;not null"`
	RemoteJID  string  `gorm:"index:idx_messages_chat,priority:2;not null"`
	WAMID      *string `gorm:"uniqueIndex:idx_messages_wamid,priority:2"`
	FromMe     bool
	SenderName string
	Kind       string    `gorm:"default:'text'"`
	Content    string    `gorm:"type:text"`
	Timestamp  time.Time `gorm:"index:idx_messages_chat,priority:3;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (messageModel) TableName() string {
	return "messages"
}

type MessageGormRepository struct {
	db *gorm.DB
}

func NewMessageGormRepository(db *gorm.DB) *MessageGormRepository {
	return &MessageGormRepository{db: db}
}

func (r *MessageGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&messageModel{})
}

func (r *MessageGormRepository) Save(ctx context.Context, message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if message.Timestamp.IsZero() {
		message.Timestamp = now
	}
	message.CreatedAt = now

	model := toMessageModel(message)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		// wamid repetido = reintento del bridge, no es un error.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value") {
			return nil
		}
		return err
	}
	return nil
}

func (r *MessageGormRepository) Recent(ctx context.Context, instanceID, remoteJID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 || limit > 30 {
		limit = 30
	}
	var models []messageModel
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND remote_jid = ? AND content <> ''", instanceID, remoteJID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	// Se consulta más reciente primero y se invierte para entregar en
	// orden cronológico.
	entries := make([]domain.HistoryEntry, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		content := models[i].Content
		if runes := []rune(content); len(runes) > domain.MaxContentChars {
			content = string(runes[:domain.MaxContentChars])
		}
		entries = append(entries, domain.HistoryEntry{
			FromMe:  models[i].FromMe,
			Content: content,
		})
	}
	return entries, nil
}

func (r *MessageGormRepository) List(ctx context.Context, instanceID, remoteJID string, limit, offset int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []messageModel
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND remote_jid = ?", instanceID, remoteJID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Message, 0, len(models))
	for i := range models {
		out = append(out, toMessageDomain(&models[i]))
	}
	return out, nil
}

func (r *MessageGormRepository) DeleteByInstance(ctx context.Context, instanceID string) error {
	return r.db.WithContext(ctx).Delete(&messageModel{}, "instance_id = ?", instanceID).Error
}

func toMessageModel(m *domain.Message) messageModel {
	var wamid *string
	if m.WAMID != "" {
		w := m.WAMID
		wamid = &w
	}
	return messageModel{
		ID:         m.ID,
		InstanceID: m.InstanceID,
		RemoteJID:  m.RemoteJID,
		WAMID:      wamid,
		FromMe:     m.FromMe,
		SenderName: m.SenderName,
		Kind:       string(m.Kind),
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		CreatedAt:  m.CreatedAt,
	}
}

func toMessageDomain(m *messageModel) *domain.Message {
	wamid := ""
	if m.WAMID != nil {
		wamid = *m.WAMID
	}
	return &domain.Message{
		ID:         m.ID,
		InstanceID: m.InstanceID,
		RemoteJID:  m.RemoteJID,
		WAMID:      wamid,
		FromMe:     m.FromMe,
		SenderName: m.SenderName,
		Kind:       domain.Kind(m.Kind),
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		CreatedAt:  m.CreatedAt,
	}
}
