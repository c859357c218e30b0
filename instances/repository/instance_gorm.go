package repository

import (
	"context"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type instanceModel struct {
	ID             string  `gorm:"primaryKey"`
	TenantID       string  `gorm:"index:idx_instances_tenant;not null"`
	Name           string  `gorm:"not null"`
	SessionID      string  `gorm:"uniqueIndex;not null"`
	Token          *string `gorm:"uniqueIndex"` // nullable: unique solo cuando existe
	PhoneConnected string
	Status         string `gorm:"index:idx_instances_status;default:'CREATED'"`
	Battery        int    `gorm:"default:0"`
	Platform       string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"index:idx_instances_updated;not null"`
}

func (instanceModel) TableName() string {
	return "instances"
}

type webhookConfigModel struct {
	InstanceID   string `gorm:"primaryKey"`
	URL          string
	Secret       string `gorm:"not null"`
	SendMessages bool   `gorm:"default:true"`
	SendAck      bool   `gorm:"default:false"`
	SendPresence bool   `gorm:"default:false"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (webhookConfigModel) TableName() string {
	return "webhook_configs"
}

// --- Repository Implementation ---

type InstanceGormRepository struct {
	db *gorm.DB
}

func NewInstanceGormRepository(db *gorm.DB) *InstanceGormRepository {
	return &InstanceGormRepository{db: db}
}

func (r *InstanceGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&instanceModel{}, &webhookConfigModel{})
}

func (r *InstanceGormRepository) Create(ctx context.Context, instance *domain.Instance) error {
	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}
	instance.UpdatedAt = now

	model := toInstanceModel(instance)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value") {
			return pkgError.ConflictError("session_id or token already exists")
		}
		return err
	}
	return nil
}

func (r *InstanceGormRepository) GetByID(ctx context.Context, id string) (*domain.Instance, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *InstanceGormRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Instance, error) {
	return r.getOne(ctx, "session_id = ?", sessionID)
}

func (r *InstanceGormRepository) GetByToken(ctx context.Context, token string) (*domain.Instance, error) {
	if token == "" {
		return nil, pkgError.NotFoundError("instance not found")
	}
	return r.getOne(ctx, "token = ?", token)
}

func (r *InstanceGormRepository) getOne(ctx context.Context, query string, arg any) (*domain.Instance, error) {
	var model instanceModel
	err := r.db.WithContext(ctx).First(&model, query, arg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("instance not found")
		}
		return nil, err
	}
	return toInstanceDomain(&model), nil
}

func (r *InstanceGormRepository) Update(ctx context.Context, instance *domain.Instance) error {
	instance.UpdatedAt = time.Now().UTC()
	model := toInstanceModel(instance)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *InstanceGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&webhookConfigModel{}, "instance_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&instanceModel{}, "id = ?", id).Error
	})
}

func (r *InstanceGormRepository) ListByOwner(ctx context.Context, tenantID string) ([]*domain.Instance, error) {
	var models []instanceModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return toInstanceDomainList(models), nil
}

func (r *InstanceGormRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Instance, error) {
	q := r.db.WithContext(ctx).Order("updated_at")
	if filter.OnlyStaleBefore != nil {
		q = q.Where("updated_at < ?", *filter.OnlyStaleBefore)
	}
	if filter.Max > 0 {
		q = q.Limit(filter.Max)
	}
	var models []instanceModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return toInstanceDomainList(models), nil
}

func (r *InstanceGormRepository) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&instanceModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return int(count), err
}

// UpdateStatusFields aplica una actualización parcial keyed por session_id.
// Nunca pisa campos que no vienen seteados, así webhook ingress, reconciler
// y contadores del chatbot no se sobreescriben entre sí.
func (r *InstanceGormRepository) UpdateStatusFields(ctx context.Context, sessionID string, fields domain.StatusFields) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if fields.Status != nil {
		updates["status"] = string(*fields.Status)
	}
	if fields.Token != nil {
		if *fields.Token == "" {
			updates["token"] = nil
		} else {
			updates["token"] = *fields.Token
		}
	}
	if fields.Phone != nil {
		updates["phone_connected"] = *fields.Phone
	}

	result := r.db.WithContext(ctx).Model(&instanceModel{}).
		Where("session_id = ?", sessionID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("instance not found")
	}
	return nil
}

func (r *InstanceGormRepository) GetWebhookConfig(ctx context.Context, instanceID string) (*domain.WebhookConfig, error) {
	var model webhookConfigModel
	err := r.db.WithContext(ctx).First(&model, "instance_id = ?", instanceID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("webhook config not found")
		}
		return nil, err
	}
	return &domain.WebhookConfig{
		InstanceID:   model.InstanceID,
		URL:          model.URL,
		Secret:       model.Secret,
		SendMessages: model.SendMessages,
		SendAck:      model.SendAck,
		SendPresence: model.SendPresence,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

func (r *InstanceGormRepository) SaveWebhookConfig(ctx context.Context, cfg *domain.WebhookConfig) error {
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	model := webhookConfigModel{
		InstanceID:   cfg.InstanceID,
		URL:          cfg.URL,
		Secret:       cfg.Secret,
		SendMessages: cfg.SendMessages,
		SendAck:      cfg.SendAck,
		SendPresence: cfg.SendPresence,
		CreatedAt:    cfg.CreatedAt,
		UpdatedAt:    cfg.UpdatedAt,
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// --- Converters ---

func toInstanceModel(i *domain.Instance) instanceModel {
	var token *string
	if i.Token != "" {
		t := i.Token
		token = &t
	}
	return instanceModel{
		ID:             i.ID,
		TenantID:       i.TenantID,
		Name:           i.Name,
		SessionID:      i.SessionID,
		Token:          token,
		PhoneConnected: i.PhoneConnected,
		Status:         string(i.Status),
		Battery:        i.Battery,
		Platform:       i.Platform,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func toInstanceDomain(m *instanceModel) *domain.Instance {
	token := ""
	if m.Token != nil {
		token = *m.Token
	}
	return &domain.Instance{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Name:           m.Name,
		SessionID:      m.SessionID,
		Token:          token,
		PhoneConnected: m.PhoneConnected,
		Status:         domain.Status(m.Status),
		Battery:        m.Battery,
		Platform:       m.Platform,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toInstanceDomainList(models []instanceModel) []*domain.Instance {
	out := make([]*domain.Instance, 0, len(models))
	for i := range models {
		out = append(out, toInstanceDomain(&models[i]))
	}
	return out
}
