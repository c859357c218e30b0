package repository

import (
	"context"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/tenants/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type tenantModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null"`
	Email           string `gorm:"index:idx_tenants_email"`
	Phone           string
	PlanID          string `gorm:"index:idx_tenants_plan"`
	PlanStartDate   *time.Time
	PlanEndDate     *time.Time
	ModuleAPI       bool `gorm:"default:false"`
	ModuleScheduler bool `gorm:"default:false"`
	ModuleChatbot   bool `gorm:"default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (tenantModel) TableName() string {
	return "tenants"
}

type planModel struct {
	ID                   string `gorm:"primaryKey"`
	Name                 string `gorm:"uniqueIndex;not null"`
	MaxInstances         int    `gorm:"default:1"`
	MaxChatbots          int    `gorm:"default:1"`
	MonthlyConversations int    `gorm:"default:0"`
	DurationKind         string `gorm:"default:'months'"`
	DurationValue        int    `gorm:"default:1"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

func (planModel) TableName() string {
	return "plans"
}

// --- Repository Implementation ---

type TenantGormRepository struct {
	db *gorm.DB
}

func NewTenantGormRepository(db *gorm.DB) *TenantGormRepository {
	return &TenantGormRepository{db: db}
}

func (r *TenantGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&tenantModel{}, &planModel{})
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

func (r *TenantGormRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	model := toTenantModel(tenant)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateErr(err) {
			return pkgError.ConflictError("tenant already exists")
		}
		return err
	}
	return nil
}

func (r *TenantGormRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var model tenantModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("tenant not found")
		}
		return nil, err
	}
	return toTenantDomain(&model), nil
}

func (r *TenantGormRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()
	model := toTenantModel(tenant)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *TenantGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&tenantModel{}, "id = ?", id).Error
}

func (r *TenantGormRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	var models []tenantModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Tenant, 0, len(models))
	for i := range models {
		out = append(out, toTenantDomain(&models[i]))
	}
	return out, nil
}

// --- Plan repository ---

type PlanGormRepository struct {
	db *gorm.DB
}

func NewPlanGormRepository(db *gorm.DB) *PlanGormRepository {
	return &PlanGormRepository{db: db}
}

func (r *PlanGormRepository) Create(ctx context.Context, plan *domain.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	model := toPlanModel(plan)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateErr(err) {
			return pkgError.ConflictError("plan name already exists")
		}
		return err
	}
	return nil
}

func (r *PlanGormRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	var model planModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("plan not found")
		}
		return nil, err
	}
	return toPlanDomain(&model), nil
}

func (r *PlanGormRepository) Update(ctx context.Context, plan *domain.Plan) error {
	plan.UpdatedAt = time.Now().UTC()
	model := toPlanModel(plan)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *PlanGormRepository) List(ctx context.Context) ([]*domain.Plan, error) {
	var models []planModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Plan, 0, len(models))
	for i := range models {
		out = append(out, toPlanDomain(&models[i]))
	}
	return out, nil
}

// --- Converters ---

func toTenantModel(t *domain.Tenant) tenantModel {
	return tenantModel{
		ID:              t.ID,
		Name:            t.Name,
		Email:           t.Email,
		Phone:           t.Phone,
		PlanID:          t.PlanID,
		PlanStartDate:   t.PlanStartDate,
		PlanEndDate:     t.PlanEndDate,
		ModuleAPI:       t.ModuleAPI,
		ModuleScheduler: t.ModuleScheduler,
		ModuleChatbot:   t.ModuleChatbot,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toTenantDomain(m *tenantModel) *domain.Tenant {
	return &domain.Tenant{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		PlanID:          m.PlanID,
		PlanStartDate:   m.PlanStartDate,
		PlanEndDate:     m.PlanEndDate,
		ModuleAPI:       m.ModuleAPI,
		ModuleScheduler: m.ModuleScheduler,
		ModuleChatbot:   m.ModuleChatbot,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toPlanModel(p *domain.Plan) planModel {
	return planModel{
		ID:                   p.ID,
		Name:                 p.Name,
		MaxInstances:         p.MaxInstances,
		MaxChatbots:          p.MaxChatbots,
		MonthlyConversations: p.MonthlyConversations,
		DurationKind:         string(p.DurationKind),
		DurationValue:        p.DurationValue,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func toPlanDomain(m *planModel) *domain.Plan {
	return &domain.Plan{
		ID:                   m.ID,
		Name:                 m.Name,
		MaxInstances:         m.MaxInstances,
		MaxChatbots:          m.MaxChatbots,
		MonthlyConversations: m.MonthlyConversations,
		DurationKind:         domain.DurationKind(m.DurationKind),
		DurationValue:        m.DurationValue,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
