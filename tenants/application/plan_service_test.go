package application

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-hub/tenants/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantRepo struct {
	tenants map[string]*domain.Tenant
}

func (f *fakeTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	f.tenants[t.ID] = t
	return nil
}
func (f *fakeTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return f.tenants[id], nil
}
func (f *fakeTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	f.tenants[t.ID] = t
	return nil
}
func (f *fakeTenantRepo) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	return nil, nil
}

type fakePlanRepo struct {
	plans map[string]*domain.Plan
}

func (f *fakePlanRepo) Create(ctx context.Context, p *domain.Plan) error { return nil }
func (f *fakePlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	return f.plans[id], nil
}
func (f *fakePlanRepo) Update(ctx context.Context, p *domain.Plan) error { return nil }
func (f *fakePlanRepo) List(ctx context.Context) ([]*domain.Plan, error) { return nil, nil }

type fixedCounter int

func (f fixedCounter) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	return int(f), nil
}

func newService(instances, chatbots int, plan *domain.Plan) *PlanService {
	plans := &fakePlanRepo{plans: map[string]*domain.Plan{}}
	if plan != nil {
		plans.plans[plan.ID] = plan
	}
	return NewPlanService(
		&fakeTenantRepo{tenants: map[string]*domain.Tenant{}},
		plans,
		fixedCounter(instances),
		fixedCounter(chatbots),
	)
}

func TestIsPlanValid(t *testing.T) {
	svc := newService(0, 0, nil)

	future := time.Now().UTC().Add(24 * time.Hour)
	past := time.Now().UTC().Add(-24 * time.Hour)

	assert.False(t, svc.IsPlanValid(&domain.Tenant{}), "sin plan no es válido")
	assert.True(t, svc.IsPlanValid(&domain.Tenant{PlanID: "p1", PlanEndDate: &future}))
	assert.False(t, svc.IsPlanValid(&domain.Tenant{PlanID: "p1", PlanEndDate: &past}))
	assert.True(t, svc.IsPlanValid(&domain.Tenant{PlanID: "p1"}), "fin nil = vitalicio")
}

func TestCanCreateInstance_QuotaEnforced(t *testing.T) {
	plan := &domain.Plan{ID: "p1", MaxInstances: 2}
	future := time.Now().UTC().Add(time.Hour)
	tenant := &domain.Tenant{ID: "t1", PlanID: "p1", PlanEndDate: &future}

	ok, err := newService(1, 0, plan).CanCreateInstance(context.Background(), tenant)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = newService(2, 0, plan).CanCreateInstance(context.Background(), tenant)
	require.NoError(t, err)
	assert.False(t, ok, "en el límite no se permite crear")
}

func TestAssignPlan_SetsWindow(t *testing.T) {
	svc := newService(0, 0, nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tenant := &domain.Tenant{ID: "t1"}
	plan := &domain.Plan{ID: "p1", Name: "mensal", DurationKind: domain.DurationMonths, DurationValue: 3}

	require.NoError(t, svc.AssignPlan(context.Background(), tenant, plan, now))
	require.NotNil(t, tenant.PlanEndDate)
	assert.Equal(t, now.AddDate(0, 3, 0), *tenant.PlanEndDate)
	assert.Equal(t, now, *tenant.PlanStartDate)

	lifetime := &domain.Plan{ID: "p2", Name: "vitalicio", DurationKind: domain.DurationLifetime}
	require.NoError(t, svc.AssignPlan(context.Background(), tenant, lifetime, now))
	assert.Nil(t, tenant.PlanEndDate)
}
