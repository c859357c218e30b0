package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/dispatch/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Models ---

type templateModel struct {
	ID          string `gorm:"primaryKey"`
	TenantID    string `gorm:"index:idx_templates_tenant;not null"`
	Name        string `gorm:"not null"`
	Body        string `gorm:"type:text;not null"`
	MediaFileID string
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (templateModel) TableName() string {
	return "dispatch_templates"
}

type contactGroupModel struct {
	ID        string    `gorm:"primaryKey"`
	TenantID  string    `gorm:"index:idx_contact_groups_tenant;not null"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (contactGroupModel) TableName() string {
	return "dispatch_contact_groups"
}

type groupContactModel struct {
	ID          string `gorm:"primaryKey"`
	GroupID     string `gorm:"uniqueIndex:idx_group_contacts_jid,priority:1;not null"`
	JID         string `gorm:"uniqueIndex:idx_group_contacts_jid,priority:2;not null"`
	DisplayName string
	CreatedAt   time.Time `gorm:"not null"`
}

func (groupContactModel) TableName() string {
	return "dispatch_group_contacts"
}

type campaignModel struct {
	ID         string `gorm:"primaryKey"`
	TenantID   string `gorm:"index:idx_campaigns_tenant;not null"`
	InstanceID string `gorm:"index:idx_campaigns_instance;not null"`
	Name       string `gorm:"not null"`

	StartAt              *time.Time
	MinDelaySeconds      int    `gorm:"default:20"`
	MaxDelaySeconds      int    `gorm:"default:45"`
	MessagesPerRecipient int    `gorm:"default:1"`
	UseNamePlaceholder   bool   `gorm:"default:false"`
	RawNumbers           string `gorm:"type:text"`
	GroupIDsJSON         string `gorm:"type:text"`
	TemplateIDsJSON      string `gorm:"type:text"`

	Status string `gorm:"index:idx_campaigns_status;default:'DRAFT'"`

	Planned   int `gorm:"default:0"`
	Sent      int `gorm:"default:0"`
	Failed    int `gorm:"default:0"`
	Canceled  int `gorm:"default:0"`
	Delivered int `gorm:"default:0"`
	Read      int `gorm:"default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (campaignModel) TableName() string {
	return "dispatch_campaigns"
}

type recipientModel struct {
	ID          string `gorm:"primaryKey"`
	CampaignID  string `gorm:"uniqueIndex:idx_recipients_jid,priority:1;not null"`
	JID         string `gorm:"uniqueIndex:idx_recipients_jid,priority:2;not null"`
	DisplayName string
	Source      string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (recipientModel) TableName() string {
	return "dispatch_recipients"
}

type queueItemModel struct {
	ID          string `gorm:"primaryKey"`
	CampaignID  string `gorm:"uniqueIndex:idx_queue_items_step,priority:1;not null"`
	RecipientID string `gorm:"uniqueIndex:idx_queue_items_step,priority:2;not null"`
	Step        int    `gorm:"uniqueIndex:idx_queue_items_step,priority:3;not null"`

	InstanceID   string    `gorm:"index:idx_queue_items_claim,priority:1;not null"`
	Status       string    `gorm:"index:idx_queue_items_claim,priority:2;default:'QUEUED'"`
	ScheduledAt  time.Time `gorm:"index:idx_queue_items_claim,priority:3;not null"`
	TemplateID   string
	MediaFileID  string
	RenderedBody string `gorm:"type:text"`
	JID          string `gorm:"not null"`
	WAMID        string `gorm:"index:idx_queue_items_wamid"`
	LastError    string `gorm:"type:text"`
	Attempts     int    `gorm:"default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (queueItemModel) TableName() string {
	return "dispatch_queue_items"
}

type dispatchStateModel struct {
	InstanceID      string    `gorm:"primaryKey"`
	NextAvailableAt time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (dispatchStateModel) TableName() string {
	return "instance_dispatch_states"
}

func isDuplicateErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// --- Template Repository ---

type TemplateGormRepository struct {
	db *gorm.DB
}

func NewTemplateGormRepository(db *gorm.DB) *TemplateGormRepository {
	return &TemplateGormRepository{db: db}
}

func (r *TemplateGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&templateModel{})
}

func (r *TemplateGormRepository) Create(ctx context.Context, tpl *domain.Template) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tpl.CreatedAt, tpl.UpdatedAt = now, now
	model := toTemplateModel(tpl)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *TemplateGormRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	var model templateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("template not found")
		}
		return nil, err
	}
	return toTemplateDomain(&model), nil
}

func (r *TemplateGormRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Template, error) {
	var models []templateModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Template, 0, len(models))
	for i := range models {
		out = append(out, *toTemplateDomain(&models[i]))
	}
	return out, nil
}

func (r *TemplateGormRepository) Update(ctx context.Context, tpl *domain.Template) error {
	tpl.UpdatedAt = time.Now().UTC()
	model := toTemplateModel(tpl)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *TemplateGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&templateModel{}, "id = ?", id).Error
}

// --- Group Repository ---

type GroupGormRepository struct {
	db *gorm.DB
}

func NewGroupGormRepository(db *gorm.DB) *GroupGormRepository {
	return &GroupGormRepository{db: db}
}

func (r *GroupGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&contactGroupModel{}, &groupContactModel{})
}

func (r *GroupGormRepository) Create(ctx context.Context, group *domain.ContactGroup) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	group.CreatedAt = time.Now().UTC()
	model := contactGroupModel{
		ID:        group.ID,
		TenantID:  group.TenantID,
		Name:      group.Name,
		CreatedAt: group.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GroupGormRepository) GetByID(ctx context.Context, id string) (*domain.ContactGroup, error) {
	var model contactGroupModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("contact group not found")
		}
		return nil, err
	}
	return &domain.ContactGroup{ID: model.ID, TenantID: model.TenantID, Name: model.Name, CreatedAt: model.CreatedAt}, nil
}

func (r *GroupGormRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.ContactGroup, error) {
	var models []contactGroupModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ContactGroup, 0, len(models))
	for _, m := range models {
		out = append(out, domain.ContactGroup{ID: m.ID, TenantID: m.TenantID, Name: m.Name, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func (r *GroupGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&groupContactModel{}, "group_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&contactGroupModel{}, "id = ?", id).Error
	})
}

func (r *GroupGormRepository) AddContacts(ctx context.Context, groupID string, contacts []domain.GroupContact) error {
	if len(contacts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]groupContactModel, 0, len(contacts))
	for i := range contacts {
		if contacts[i].ID == "" {
			contacts[i].ID = uuid.New().String()
		}
		contacts[i].GroupID = groupID
		contacts[i].CreatedAt = now
		models = append(models, groupContactModel{
			ID:          contacts[i].ID,
			GroupID:     groupID,
			JID:         contacts[i].JID,
			DisplayName: contacts[i].DisplayName,
			CreatedAt:   now,
		})
	}
	// Los repetidos dentro del grupo se ignoran en silencio.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models).Error
}

func (r *GroupGormRepository) ListContacts(ctx context.Context, groupID string) ([]domain.GroupContact, error) {
	var models []groupContactModel
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.GroupContact, 0, len(models))
	for _, m := range models {
		out = append(out, domain.GroupContact{
			ID: m.ID, GroupID: m.GroupID, JID: m.JID,
			DisplayName: m.DisplayName, CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *GroupGormRepository) RemoveContact(ctx context.Context, groupID, contactID string) error {
	return r.db.WithContext(ctx).Delete(&groupContactModel{}, "group_id = ? AND id = ?", groupID, contactID).Error
}

// --- Campaign Repository ---

type CampaignGormRepository struct {
	db *gorm.DB
}

func NewCampaignGormRepository(db *gorm.DB) *CampaignGormRepository {
	return &CampaignGormRepository{db: db}
}

func (r *CampaignGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&campaignModel{}, &recipientModel{}, &queueItemModel{})
}

func (r *CampaignGormRepository) Create(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}
	c.NormalizeDelays()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	model := toCampaignModel(c)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *CampaignGormRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model campaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("campaign not found")
		}
		return nil, err
	}
	return toCampaignDomain(&model), nil
}

func (r *CampaignGormRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Campaign, error) {
	var models []campaignModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(models))
	for i := range models {
		out = append(out, *toCampaignDomain(&models[i]))
	}
	return out, nil
}

func (r *CampaignGormRepository) Update(ctx context.Context, c *domain.Campaign) error {
	c.UpdatedAt = time.Now().UTC()
	model := toCampaignModel(c)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *CampaignGormRepository) UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	result := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("campaign not found")
	}
	return nil
}

func (r *CampaignGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&queueItemModel{}, "campaign_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&recipientModel{}, "campaign_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&campaignModel{}, "id = ?", id).Error
	})
}

func (r *CampaignGormRepository) DueScheduled(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	var models []campaignModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.CampaignScheduled)).
		Where("start_at IS NULL OR start_at <= ?", now).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(models))
	for i := range models {
		out = append(out, *toCampaignDomain(&models[i]))
	}
	return out, nil
}

func (r *CampaignGormRepository) CreateRecipients(ctx context.Context, recipients []domain.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]recipientModel, 0, len(recipients))
	for i := range recipients {
		if recipients[i].ID == "" {
			recipients[i].ID = uuid.New().String()
		}
		recipients[i].CreatedAt = now
		models = append(models, recipientModel{
			ID:          recipients[i].ID,
			CampaignID:  recipients[i].CampaignID,
			JID:         recipients[i].JID,
			DisplayName: recipients[i].DisplayName,
			Source:      string(recipients[i].Source),
			CreatedAt:   now,
		})
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		if isDuplicateErr(err) {
			return pkgError.ConflictError("duplicate recipient in campaign")
		}
		return err
	}
	return nil
}

func (r *CampaignGormRepository) ListRecipients(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	var models []recipientModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Recipient, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Recipient{
			ID: m.ID, CampaignID: m.CampaignID, JID: m.JID,
			DisplayName: m.DisplayName, Source: domain.RecipientSource(m.Source), CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *CampaignGormRepository) CreateItems(ctx context.Context, items []domain.QueueItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]queueItemModel, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		if items[i].Status == "" {
			items[i].Status = domain.ItemQueued
		}
		items[i].CreatedAt, items[i].UpdatedAt = now, now
		models = append(models, toQueueItemModel(&items[i]))
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		if isDuplicateErr(err) {
			return pkgError.ConflictError("duplicate queue item")
		}
		return err
	}
	return nil
}

func (r *CampaignGormRepository) GetItemByID(ctx context.Context, id string) (*domain.QueueItem, error) {
	var model queueItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("queue item not found")
		}
		return nil, err
	}
	return toQueueItemDomain(&model), nil
}

func (r *CampaignGormRepository) ListItems(ctx context.Context, campaignID string, limit, offset int) ([]domain.QueueItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []queueItemModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("scheduled_at").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.QueueItem, 0, len(models))
	for i := range models {
		out = append(out, *toQueueItemDomain(&models[i]))
	}
	return out, nil
}

// ClaimItems marca SENDING hasta max items vencidos, uno a uno con un UPDATE
// condicionado al estado QUEUED: si otro worker llegó primero, RowsAffected
// da cero y el item se descarta sin enviarlo dos veces.
func (r *CampaignGormRepository) ClaimItems(ctx context.Context, now time.Time, max int) ([]domain.QueueItem, error) {
	if max <= 0 {
		max = 20
	}
	var candidates []queueItemModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", string(domain.ItemQueued), now).
		Where("campaign_id IN (?)", r.db.Model(&campaignModel{}).
			Select("id").Where("status = ?", string(domain.CampaignRunning))).
		Order("scheduled_at").
		Limit(max).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]domain.QueueItem, 0, len(candidates))
	for i := range candidates {
		result := r.db.WithContext(ctx).Model(&queueItemModel{}).
			Where("id = ? AND status = ?", candidates[i].ID, string(domain.ItemQueued)).
			Updates(map[string]any{
				"status":     string(domain.ItemSending),
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		item := toQueueItemDomain(&candidates[i])
		item.Status = domain.ItemSending
		item.Attempts++
		claimed = append(claimed, *item)
	}
	return claimed, nil
}

func (r *CampaignGormRepository) MarkSent(ctx context.Context, itemID, wamid string) error {
	return r.db.WithContext(ctx).Model(&queueItemModel{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"status":     string(domain.ItemSent),
			"wamid":      wamid,
			"last_error": "",
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *CampaignGormRepository) MarkFailed(ctx context.Context, itemID, reason string) error {
	return r.db.WithContext(ctx).Model(&queueItemModel{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"status":     string(domain.ItemFailed),
			"last_error": reason,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *CampaignGormRepository) Requeue(ctx context.Context, itemID string, scheduledAt time.Time) error {
	return r.db.WithContext(ctx).Model(&queueItemModel{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"status":       string(domain.ItemQueued),
			"scheduled_at": scheduledAt,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *CampaignGormRepository) CancelPending(ctx context.Context, campaignID string) error {
	return r.db.WithContext(ctx).Model(&queueItemModel{}).
		Where("campaign_id = ? AND status IN ?", campaignID,
			[]string{string(domain.ItemQueued), string(domain.ItemSending)}).
		Updates(map[string]any{
			"status":     string(domain.ItemCanceled),
			"updated_at": time.Now().UTC(),
		}).Error
}

// AdvanceAck sube la escalera por wamid. El WHERE sobre los estados previos
// válidos garantiza que un DELIVERED tardío jamás pise un READ.
func (r *CampaignGormRepository) AdvanceAck(ctx context.Context, instanceID, wamid string, next domain.ItemStatus) (*domain.QueueItem, error) {
	var allowed []string
	switch next {
	case domain.ItemDelivered:
		allowed = []string{string(domain.ItemSent)}
	case domain.ItemRead:
		allowed = []string{string(domain.ItemSent), string(domain.ItemDelivered)}
	case domain.ItemPlayed:
		allowed = []string{string(domain.ItemSent), string(domain.ItemDelivered), string(domain.ItemRead)}
	default:
		return nil, pkgError.ValidationError("invalid ack status")
	}

	result := r.db.WithContext(ctx).Model(&queueItemModel{}).
		Where("instance_id = ? AND wamid = ? AND status IN ?", instanceID, wamid, allowed).
		Updates(map[string]any{"status": string(next), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var model queueItemModel
	if err := r.db.WithContext(ctx).First(&model, "instance_id = ? AND wamid = ?", instanceID, wamid).Error; err != nil {
		return nil, err
	}
	return toQueueItemDomain(&model), nil
}

func (r *CampaignGormRepository) RefreshCounters(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	type statusCount struct {
		Status string
		N      int
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&queueItemModel{}).
		Select("status, COUNT(*) AS n").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[domain.ItemStatus]int{}
	total := 0
	for _, row := range rows {
		counts[domain.ItemStatus(row.Status)] = row.N
		total += row.N
	}
	// SENT y los acks posteriores cuentan todos como enviados.
	sent := counts[domain.ItemSent] + counts[domain.ItemDelivered] + counts[domain.ItemRead] + counts[domain.ItemPlayed]
	delivered := counts[domain.ItemDelivered] + counts[domain.ItemRead] + counts[domain.ItemPlayed]
	read := counts[domain.ItemRead] + counts[domain.ItemPlayed]
	failed := counts[domain.ItemFailed]
	canceled := counts[domain.ItemCanceled]

	updates := map[string]any{
		"planned":    total,
		"sent":       sent,
		"failed":     failed,
		"canceled":   canceled,
		"delivered":  delivered,
		"read":       read,
		"updated_at": time.Now().UTC(),
	}
	if total > 0 && sent+failed+canceled == total {
		updates["status"] = gorm.Expr(
			"CASE WHEN status IN (?, ?) THEN ? ELSE status END",
			string(domain.CampaignRunning), string(domain.CampaignPaused), string(domain.CampaignCompleted),
		)
	}
	if err := r.db.WithContext(ctx).Model(&campaignModel{}).Where("id = ?", campaignID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, campaignID)
}

func (r *CampaignGormRepository) Summary(ctx context.Context, tenantID string) (*domain.CampaignSummary, error) {
	var models []campaignModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&models).Error; err != nil {
		return nil, err
	}
	summary := &domain.CampaignSummary{}
	for _, m := range models {
		summary.Total++
		switch domain.CampaignStatus(m.Status) {
		case domain.CampaignDraft:
			summary.Draft++
		case domain.CampaignScheduled:
			summary.Scheduled++
		case domain.CampaignRunning:
			summary.Running++
		case domain.CampaignCompleted:
			summary.Completed++
		}
		summary.Planned += m.Planned
		summary.Sent += m.Sent
		summary.Failed += m.Failed
	}
	return summary, nil
}

// --- Dispatch State Repository ---

type DispatchStateGormRepository struct {
	db *gorm.DB
}

func NewDispatchStateGormRepository(db *gorm.DB) *DispatchStateGormRepository {
	return &DispatchStateGormRepository{db: db}
}

func (r *DispatchStateGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&dispatchStateModel{})
}

func (r *DispatchStateGormRepository) Get(ctx context.Context, instanceID string) (*domain.InstanceDispatchState, error) {
	var model dispatchStateModel
	err := r.db.WithContext(ctx).First(&model, "instance_id = ?", instanceID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &domain.InstanceDispatchState{InstanceID: instanceID}, nil
		}
		return nil, err
	}
	return &domain.InstanceDispatchState{
		InstanceID:      model.InstanceID,
		NextAvailableAt: model.NextAvailableAt,
		UpdatedAt:       model.UpdatedAt,
	}, nil
}

func (r *DispatchStateGormRepository) SetNextAvailable(ctx context.Context, instanceID string, at time.Time) error {
	model := dispatchStateModel{
		InstanceID:      instanceID,
		NextAvailableAt: at,
		UpdatedAt:       time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"next_available_at", "updated_at"}),
	}).Create(&model).Error
}

// --- Converters ---

func toTemplateModel(t *domain.Template) templateModel {
	return templateModel{
		ID:          t.ID,
		TenantID:    t.TenantID,
		Name:        t.Name,
		Body:        t.Body,
		MediaFileID: t.MediaFileID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTemplateDomain(m *templateModel) *domain.Template {
	return &domain.Template{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Body:        m.Body,
		MediaFileID: m.MediaFileID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toCampaignModel(c *domain.Campaign) campaignModel {
	groupIDs, _ := json.Marshal(c.GroupIDs)
	templateIDs, _ := json.Marshal(c.TemplateIDs)
	return campaignModel{
		ID:                   c.ID,
		TenantID:             c.TenantID,
		InstanceID:           c.InstanceID,
		Name:                 c.Name,
		StartAt:              c.StartAt,
		MinDelaySeconds:      c.MinDelaySeconds,
		MaxDelaySeconds:      c.MaxDelaySeconds,
		MessagesPerRecipient: c.MessagesPerRecipient,
		UseNamePlaceholder:   c.UseNamePlaceholder,
		RawNumbers:           c.RawNumbers,
		GroupIDsJSON:         string(groupIDs),
		TemplateIDsJSON:      string(templateIDs),
		Status:               string(c.Status),
		Planned:              c.Planned,
		Sent:                 c.Sent,
		Failed:               c.Failed,
		Canceled:             c.Canceled,
		Delivered:            c.Delivered,
		Read:                 c.Read,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func toCampaignDomain(m *campaignModel) *domain.Campaign {
	var groupIDs, templateIDs []string
	if m.GroupIDsJSON != "" {
		_ = json.Unmarshal([]byte(m.GroupIDsJSON), &groupIDs)
	}
	if m.TemplateIDsJSON != "" {
		_ = json.Unmarshal([]byte(m.TemplateIDsJSON), &templateIDs)
	}
	return &domain.Campaign{
		ID:                   m.ID,
		TenantID:             m.TenantID,
		InstanceID:           m.InstanceID,
		Name:                 m.Name,
		StartAt:              m.StartAt,
		MinDelaySeconds:      m.MinDelaySeconds,
		MaxDelaySeconds:      m.MaxDelaySeconds,
		MessagesPerRecipient: m.MessagesPerRecipient,
		UseNamePlaceholder:   m.UseNamePlaceholder,
		RawNumbers:           m.RawNumbers,
		GroupIDs:             groupIDs,
		TemplateIDs:          templateIDs,
		Status:               domain.CampaignStatus(m.Status),
		Planned:              m.Planned,
		Sent:                 m.Sent,
		Failed:               m.Failed,
		Canceled:             m.Canceled,
		Delivered:            m.Delivered,
		Read:                 m.Read,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toQueueItemModel(i *domain.QueueItem) queueItemModel {
	return queueItemModel{
		ID:           i.ID,
		CampaignID:   i.CampaignID,
		RecipientID:  i.RecipientID,
		Step:         i.Step,
		InstanceID:   i.InstanceID,
		Status:       string(i.Status),
		ScheduledAt:  i.ScheduledAt,
		TemplateID:   i.TemplateID,
		MediaFileID:  i.MediaFileID,
		RenderedBody: i.RenderedBody,
		JID:          i.JID,
		WAMID:        i.WAMID,
		LastError:    i.LastError,
		Attempts:     i.Attempts,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func toQueueItemDomain(m *queueItemModel) *domain.QueueItem {
	return &domain.QueueItem{
		ID:           m.ID,
		CampaignID:   m.CampaignID,
		RecipientID:  m.RecipientID,
		Step:         m.Step,
		InstanceID:   m.InstanceID,
		Status:       domain.ItemStatus(m.Status),
		ScheduledAt:  m.ScheduledAt,
		TemplateID:   m.TemplateID,
		MediaFileID:  m.MediaFileID,
		RenderedBody: m.RenderedBody,
		JID:          m.JID,
		WAMID:        m.WAMID,
		LastError:    m.LastError,
		Attempts:     m.Attempts,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
