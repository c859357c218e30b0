package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-hub/tenants/domain"
	"github.com/sirupsen/logrus"
)

// ResourceCounter answers how many of a tenant's resources already exist.
// Implemented by the instance and chatbot stores.
type ResourceCounter interface {
	CountByOwner(ctx context.Context, tenantID string) (int, error)
}

// PlanService concentrates every plan-gate decision: validity window,
// instance quota and chatbot quota.
type PlanService struct {
	tenants   domain.TenantRepository
	plans     domain.PlanRepository
	instances ResourceCounter
	chatbots  ResourceCounter
}

func NewPlanService(tenants domain.TenantRepository, plans domain.PlanRepository, instances, chatbots ResourceCounter) *PlanService {
	return &PlanService{
		tenants:   tenants,
		plans:     plans,
		instances: instances,
		chatbots:  chatbots,
	}
}

// IsPlanValid reporta si el tenant tiene plan y su ventana sigue abierta.
// PlanEndDate nil significa plan vitalicio.
func (s *PlanService) IsPlanValid(tenant *domain.Tenant) bool {
	if tenant == nil || !tenant.HasPlan() {
		return false
	}
	if tenant.PlanEndDate == nil {
		return true
	}
	return time.Now().UTC().Before(*tenant.PlanEndDate)
}

// CanCreateInstance verifica ventana de plan y cupo de instancias.
func (s *PlanService) CanCreateInstance(ctx context.Context, tenant *domain.Tenant) (bool, error) {
	if !s.IsPlanValid(tenant) {
		return false, nil
	}
	plan, err := s.plans.GetByID(ctx, tenant.PlanID)
	if err != nil {
		return false, err
	}
	count, err := s.instances.CountByOwner(ctx, tenant.ID)
	if err != nil {
		return false, err
	}
	return count < plan.MaxInstances, nil
}

// CanCreateChatbot verifica ventana de plan y cupo de chatbots.
func (s *PlanService) CanCreateChatbot(ctx context.Context, tenant *domain.Tenant) (bool, error) {
	if !s.IsPlanValid(tenant) {
		return false, nil
	}
	plan, err := s.plans.GetByID(ctx, tenant.PlanID)
	if err != nil {
		return false, err
	}
	count, err := s.chatbots.CountByOwner(ctx, tenant.ID)
	if err != nil {
		return false, err
	}
	return count < plan.MaxChatbots, nil
}

// AssignPlan fija plan, inicio = now y fin = now + duración (nil si es
// vitalicio), y persiste el tenant.
func (s *PlanService) AssignPlan(ctx context.Context, tenant *domain.Tenant, plan *domain.Plan, now time.Time) error {
	now = now.UTC()
	tenant.PlanID = plan.ID
	tenant.PlanStartDate = &now
	tenant.PlanEndDate = domain.PlanWindow(plan, now)

	if err := s.tenants.Update(ctx, tenant); err != nil {
		return err
	}
	logrus.Infof("[PLAN] Tenant %s assigned plan %s (until %v)", tenant.ID, plan.Name, tenant.PlanEndDate)
	return nil
}

// GetTenant is a convenience lookup used by the REST layer.
func (s *PlanService) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}
