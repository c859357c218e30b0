package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/botengine/domain"
	"github.com/AzielCF/az-hub/pkg/crypto"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/timeutils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Models ---

type chatbotConfigModel struct {
	ID         string `gorm:"primaryKey"`
	TenantID   string `gorm:"index:idx_chatbots_tenant;not null"`
	InstanceID string `gorm:"uniqueIndex;not null"`

	Active           bool `gorm:"default:false"`
	RespondInGroups  bool `gorm:"default:false"`
	TriggerOnUnknown bool `gorm:"default:true"`
	AllowMedia       bool `gorm:"default:true"`

	CompanyName     string
	CompanyWebsite  string
	Persona         string `gorm:"type:text"`
	Tone            string
	Segment         string
	BusinessSummary string `gorm:"type:text"`
	BusinessHours   string `gorm:"type:text"`
	ContextInfo     string `gorm:"type:text"`
	Skills          string `gorm:"type:text"`
	Extras          string `gorm:"type:text"`
	InternalNotes   string `gorm:"type:text"`

	SimulateTyping bool `gorm:"default:true"`
	TypingMinMs    int  `gorm:"default:800"`
	TypingMaxMs    int  `gorm:"default:2500"`
	UseHistory     bool `gorm:"default:true"`
	HistoryLimit   int  `gorm:"default:30"`

	Provider        string `gorm:"default:'openai'"`
	Model           string
	EncryptedAPIKey string `gorm:"type:text"`

	TransfersJSON string `gorm:"type:text"`

	ConversationsCount int       `gorm:"default:0"`
	ConversationsLimit int       `gorm:"default:0"`
	LastResetDate      time.Time
	CurrentTokensUsed  int64     `gorm:"default:0"`
	TokenLimit         int64     `gorm:"default:0"`
	Periodicity        string    `gorm:"default:'monthly'"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (chatbotConfigModel) TableName() string {
	return "chatbot_configs"
}

type chatbotContactModel struct {
	ID               string `gorm:"primaryKey"`
	ConfigID         string `gorm:"uniqueIndex:idx_chatbot_contacts,priority:1;not null"`
	RemoteJID        string `gorm:"uniqueIndex:idx_chatbot_contacts,priority:2;not null"`
	PushName         string
	Notes            string `gorm:"type:text"`
	IsBlocked        bool   `gorm:"default:false"`
	Language         string
	FirstInteraction time.Time
	LastInteraction  time.Time
}

func (chatbotContactModel) TableName() string {
	return "chatbot_contacts"
}

type chatbotMediaModel struct {
	ID               string `gorm:"primaryKey"`
	ConfigID         string `gorm:"index:idx_chatbot_media_config;not null"`
	MediaFileID      string `gorm:"not null"`
	Kind             string
	Description      string
	IsAccessibleByAI bool `gorm:"default:true"`
	SendRules        string
	CreatedAt        time.Time `gorm:"not null"`
}

func (chatbotMediaModel) TableName() string {
	return "chatbot_media"
}

// --- Config Repository ---

type ChatbotGormRepository struct {
	db *gorm.DB
}

func NewChatbotGormRepository(db *gorm.DB) *ChatbotGormRepository {
	return &ChatbotGormRepository{db: db}
}

func (r *ChatbotGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&chatbotConfigModel{}, &chatbotContactModel{}, &chatbotMediaModel{},
	)
}

func (r *ChatbotGormRepository) Create(ctx context.Context, cfg *domain.ChatbotConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if cfg.LastResetDate.IsZero() {
		cfg.LastResetDate = now
	}
	model, err := toConfigModel(cfg)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicate(err) {
			return pkgError.ConflictError("instance already has a chatbot")
		}
		return err
	}
	return nil
}

func (r *ChatbotGormRepository) GetByID(ctx context.Context, id string) (*domain.ChatbotConfig, error) {
	return r.getConfig(ctx, "id = ?", id)
}

func (r *ChatbotGormRepository) GetByInstance(ctx context.Context, instanceID string) (*domain.ChatbotConfig, error) {
	return r.getConfig(ctx, "instance_id = ?", instanceID)
}

func (r *ChatbotGormRepository) getConfig(ctx context.Context, query string, arg any) (*domain.ChatbotConfig, error) {
	var model chatbotConfigModel
	err := r.db.WithContext(ctx).First(&model, query, arg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("chatbot config not found")
		}
		return nil, err
	}
	return toConfigDomain(&model)
}

func (r *ChatbotGormRepository) Update(ctx context.Context, cfg *domain.ChatbotConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	model, err := toConfigModel(cfg)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *ChatbotGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&chatbotContactModel{}, "config_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&chatbotMediaModel{}, "config_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&chatbotConfigModel{}, "id = ?", id).Error
	})
}

func (r *ChatbotGormRepository) ListByOwner(ctx context.Context, tenantID string) ([]*domain.ChatbotConfig, error) {
	var models []chatbotConfigModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.ChatbotConfig, 0, len(models))
	for i := range models {
		cfg, err := toConfigDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (r *ChatbotGormRepository) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&chatbotConfigModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return int(count), err
}

// IncrementConversations aplica el rollover del bucket y suma 1, todo
// dentro de una transacción con lock de fila en postgres. En sqlite la
// conexión única ya serializa.
func (r *ChatbotGormRepository) IncrementConversations(ctx context.Context, configID string, now time.Time) (int, error) {
	var result int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var model chatbotConfigModel
		if err := q.First(&model, "id = ?", configID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgError.NotFoundError("chatbot config not found")
			}
			return err
		}

		updates := map[string]any{}
		count := model.ConversationsCount
		if timeutils.RolloverDue(timeutils.PeriodKind(model.Periodicity), model.LastResetDate, now) {
			count = 0
			updates["last_reset_date"] = now
			updates["current_tokens_used"] = int64(0)
		}
		count++
		updates["conversations_count"] = count
		updates["updated_at"] = now

		result = count
		return tx.Model(&chatbotConfigModel{}).Where("id = ?", configID).Updates(updates).Error
	})
	return result, err
}

func (r *ChatbotGormRepository) AddTokens(ctx context.Context, configID string, tokens int64) error {
	return r.db.WithContext(ctx).Model(&chatbotConfigModel{}).
		Where("id = ?", configID).
		UpdateColumn("current_tokens_used", gorm.Expr("current_tokens_used + ?", tokens)).Error
}

// --- Contact Repository ---

type ContactGormRepository struct {
	db *gorm.DB
}

func NewContactGormRepository(db *gorm.DB) *ContactGormRepository {
	return &ContactGormRepository{db: db}
}

func (r *ContactGormRepository) GetOrCreate(ctx context.Context, configID, remoteJID string, now time.Time) (*domain.ChatbotContact, bool, error) {
	if contact, err := r.Get(ctx, configID, remoteJID); err == nil {
		return contact, false, nil
	}

	model := chatbotContactModel{
		ID:               uuid.New().String(),
		ConfigID:         configID,
		RemoteJID:        remoteJID,
		FirstInteraction: now,
		LastInteraction:  now,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		// Carrera entre dos eventos del mismo chat: el otro ganó.
		if isDuplicate(err) {
			contact, getErr := r.Get(ctx, configID, remoteJID)
			return contact, false, getErr
		}
		return nil, false, err
	}
	return toContactDomain(&model), true, nil
}

func (r *ContactGormRepository) Get(ctx context.Context, configID, remoteJID string) (*domain.ChatbotContact, error) {
	var model chatbotContactModel
	err := r.db.WithContext(ctx).First(&model, "config_id = ? AND remote_jid = ?", configID, remoteJID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("contact not found")
		}
		return nil, err
	}
	return toContactDomain(&model), nil
}

func (r *ContactGormRepository) Update(ctx context.Context, contact *domain.ChatbotContact) error {
	model := chatbotContactModel{
		ID:               contact.ID,
		ConfigID:         contact.ConfigID,
		RemoteJID:        contact.RemoteJID,
		PushName:         contact.PushName,
		Notes:            contact.Notes,
		IsBlocked:        contact.IsBlocked,
		Language:         contact.Language,
		FirstInteraction: contact.FirstInteraction,
		LastInteraction:  contact.LastInteraction,
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *ContactGormRepository) ListByConfig(ctx context.Context, configID string) ([]*domain.ChatbotContact, error) {
	var models []chatbotContactModel
	if err := r.db.WithContext(ctx).Where("config_id = ?", configID).Order("last_interaction DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.ChatbotContact, 0, len(models))
	for i := range models {
		out = append(out, toContactDomain(&models[i]))
	}
	return out, nil
}

// --- Media Catalog Repository ---

type MediaCatalogGormRepository struct {
	db *gorm.DB
}

func NewMediaCatalogGormRepository(db *gorm.DB) *MediaCatalogGormRepository {
	return &MediaCatalogGormRepository{db: db}
}

func (r *MediaCatalogGormRepository) Create(ctx context.Context, media *domain.ChatbotMedia) error {
	if media.ID == "" {
		media.ID = uuid.New().String()
	}
	media.CreatedAt = time.Now().UTC()
	model := toCatalogModel(media)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *MediaCatalogGormRepository) GetByID(ctx context.Context, id string) (*domain.ChatbotMedia, error) {
	var model chatbotMediaModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("catalog entry not found")
		}
		return nil, err
	}
	return toCatalogDomain(&model), nil
}

func (r *MediaCatalogGormRepository) Update(ctx context.Context, media *domain.ChatbotMedia) error {
	model := toCatalogModel(media)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *MediaCatalogGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&chatbotMediaModel{}, "id = ?", id).Error
}

func (r *MediaCatalogGormRepository) ListByConfig(ctx context.Context, configID string) ([]*domain.ChatbotMedia, error) {
	var models []chatbotMediaModel
	if err := r.db.WithContext(ctx).Where("config_id = ?", configID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	return toCatalogDomainList(models), nil
}

func (r *MediaCatalogGormRepository) ListAccessible(ctx context.Context, configID string) ([]*domain.ChatbotMedia, error) {
	var models []chatbotMediaModel
	err := r.db.WithContext(ctx).
		Where("config_id = ? AND is_accessible_by_ai = ?", configID, true).
		Order("created_at").
		Limit(domain.MaxCatalogEntries).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := toCatalogDomainList(models)
	for _, m := range out {
		if runes := []rune(m.Description); len(runes) > domain.MaxCatalogDescChars {
			m.Description = string(runes[:domain.MaxCatalogDescChars])
		}
	}
	return out, nil
}

// --- Converters ---

func toConfigModel(cfg *domain.ChatbotConfig) (chatbotConfigModel, error) {
	transfers, err := json.Marshal(cfg.Transfers)
	if err != nil {
		return chatbotConfigModel{}, err
	}
	encrypted := ""
	if cfg.APIKey != "" {
		encrypted, err = crypto.Encrypt(cfg.APIKey)
		if err != nil {
			return chatbotConfigModel{}, err
		}
	}
	return chatbotConfigModel{
		ID:               cfg.ID,
		TenantID:         cfg.TenantID,
		InstanceID:       cfg.InstanceID,
		Active:           cfg.Active,
		RespondInGroups:  cfg.RespondInGroups,
		TriggerOnUnknown: cfg.TriggerOnUnknown,
		AllowMedia:       cfg.AllowMedia,
		CompanyName:      cfg.CompanyName,
		CompanyWebsite:   cfg.CompanyWebsite,
		Persona:          cfg.Persona,
		Tone:             cfg.Tone,
		Segment:          cfg.Segment,
		BusinessSummary:  cfg.BusinessSummary,
		BusinessHours:    cfg.BusinessHours,
		ContextInfo:      cfg.ContextInfo,
		Skills:           cfg.Skills,
		Extras:           cfg.Extras,
		InternalNotes:    cfg.InternalNotes,
		SimulateTyping:   cfg.SimulateTyping,
		TypingMinMs:      cfg.TypingMinMs,
		TypingMaxMs:      cfg.TypingMaxMs,
		UseHistory:       cfg.UseHistory,
		HistoryLimit:     cfg.HistoryLimit,
		Provider:         string(cfg.Provider),
		Model:            cfg.Model,
		EncryptedAPIKey:  encrypted,
		TransfersJSON:    string(transfers),

		ConversationsCount: cfg.ConversationsCount,
		ConversationsLimit: cfg.ConversationsLimit,
		LastResetDate:      cfg.LastResetDate,
		CurrentTokensUsed:  cfg.CurrentTokensUsed,
		TokenLimit:         cfg.TokenLimit,
		Periodicity:        string(cfg.Periodicity),
		CreatedAt:          cfg.CreatedAt,
		UpdatedAt:          cfg.UpdatedAt,
	}, nil
}

func toConfigDomain(m *chatbotConfigModel) (*domain.ChatbotConfig, error) {
	var transfers []domain.TransferTarget
	if m.TransfersJSON != "" {
		if err := json.Unmarshal([]byte(m.TransfersJSON), &transfers); err != nil {
			logrus.Warnf("[BOT-REPO] Corrupt transfers payload for config %s", m.ID)
		}
	}
	apiKey := ""
	if m.EncryptedAPIKey != "" {
		decrypted, err := crypto.Decrypt(m.EncryptedAPIKey)
		if err != nil {
			return nil, err
		}
		apiKey = decrypted
	}
	return &domain.ChatbotConfig{
		ID:               m.ID,
		TenantID:         m.TenantID,
		InstanceID:       m.InstanceID,
		Active:           m.Active,
		RespondInGroups:  m.RespondInGroups,
		TriggerOnUnknown: m.TriggerOnUnknown,
		AllowMedia:       m.AllowMedia,
		CompanyName:      m.CompanyName,
		CompanyWebsite:   m.CompanyWebsite,
		Persona:          m.Persona,
		Tone:             m.Tone,
		Segment:          m.Segment,
		BusinessSummary:  m.BusinessSummary,
		BusinessHours:    m.BusinessHours,
		ContextInfo:      m.ContextInfo,
		Skills:           m.Skills,
		Extras:           m.Extras,
		InternalNotes:    m.InternalNotes,
		SimulateTyping:   m.SimulateTyping,
		TypingMinMs:      m.TypingMinMs,
		TypingMaxMs:      m.TypingMaxMs,
		UseHistory:       m.UseHistory,
		HistoryLimit:     m.HistoryLimit,
		Provider:         domain.ProviderKind(m.Provider),
		Model:            m.Model,
		APIKey:           apiKey,
		Transfers:        transfers,

		ConversationsCount: m.ConversationsCount,
		ConversationsLimit: m.ConversationsLimit,
		LastResetDate:      m.LastResetDate,
		CurrentTokensUsed:  m.CurrentTokensUsed,
		TokenLimit:         m.TokenLimit,
		Periodicity:        timeutils.PeriodKind(m.Periodicity),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

func toContactDomain(m *chatbotContactModel) *domain.ChatbotContact {
	return &domain.ChatbotContact{
		ID:               m.ID,
		ConfigID:         m.ConfigID,
		RemoteJID:        m.RemoteJID,
		PushName:         m.PushName,
		Notes:            m.Notes,
		IsBlocked:        m.IsBlocked,
		Language:         m.Language,
		FirstInteraction: m.FirstInteraction,
		LastInteraction:  m.LastInteraction,
	}
}

func toCatalogModel(media *domain.ChatbotMedia) chatbotMediaModel {
	return chatbotMediaModel{
		ID:               media.ID,
		ConfigID:         media.ConfigID,
		MediaFileID:      media.MediaFileID,
		Kind:             media.Kind,
		Description:      media.Description,
		IsAccessibleByAI: media.IsAccessibleByAI,
		SendRules:        media.SendRules,
		CreatedAt:        media.CreatedAt,
	}
}

func toCatalogDomain(m *chatbotMediaModel) *domain.ChatbotMedia {
	return &domain.ChatbotMedia{
		ID:               m.ID,
		ConfigID:         m.ConfigID,
		MediaFileID:      m.MediaFileID,
		Kind:             m.Kind,
		Description:      m.Description,
		IsAccessibleByAI: m.IsAccessibleByAI,
		SendRules:        m.SendRules,
		CreatedAt:        m.CreatedAt,
	}
}

func toCatalogDomainList(models []chatbotMediaModel) []*domain.ChatbotMedia {
	out := make([]*domain.ChatbotMedia, 0, len(models))
	for i := range models {
		out = append(out, toCatalogDomain(&models[i]))
	}
	return out
}

func isDuplicate(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}
