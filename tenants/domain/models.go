package domain

import "time"

// DurationKind define cómo se calcula la ventana de vigencia de un plan.
type DurationKind string

const (
	DurationDays     DurationKind = "days"
	DurationMonths   DurationKind = "months"
	DurationYears    DurationKind = "years"
	DurationLifetime DurationKind = "lifetime"
)

// Plan agrupa los límites comerciales de un tenant. Solo lectura para el
// orquestador; la facturación vive fuera de este sistema.
type Plan struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	MaxInstances         int          `json:"max_instances"`
	MaxChatbots          int          `json:"max_chatbots"`
	MonthlyConversations int          `json:"monthly_conversations"`
	DurationKind         DurationKind `json:"duration_kind"`
	DurationValue        int          `json:"duration_value"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Tenant es el dueño de instancias, chatbots, media y campañas.
type Tenant struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	PlanID        string     `json:"plan_id,omitempty"`
	PlanStartDate *time.Time `json:"plan_start_date,omitempty"`
	PlanEndDate   *time.Time `json:"plan_end_date,omitempty"` // nil = vitalicio
	ModuleAPI     bool       `json:"module_api"`
	ModuleScheduler bool     `json:"module_scheduler"`
	ModuleChatbot bool       `json:"module_chatbot"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasPlan reporta si el tenant tiene un plan asignado.
func (t *Tenant) HasPlan() bool {
	return t.PlanID != ""
}

// PlanWindow calcula la fecha de fin para un plan asignado en `start`.
// Retorna nil para planes vitalicios.
func PlanWindow(plan *Plan, start time.Time) *time.Time {
	var end time.Time
	switch plan.DurationKind {
	case DurationDays:
		end = start.AddDate(0, 0, plan.DurationValue)
	case DurationMonths:
		end = start.AddDate(0, plan.DurationValue, 0)
	case DurationYears:
		end = start.AddDate(plan.DurationValue, 0, 0)
	default:
		return nil
	}
	return &end
}
