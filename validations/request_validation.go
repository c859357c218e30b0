package validations

import (
	"context"

	botDomain "github.com/AzielCF/az-hub/botengine/domain"
	dispatchDomain "github.com/AzielCF/az-hub/dispatch/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateTenant(ctx context.Context, tenant *tenantsDomain.Tenant) error {
	err := validation.ValidateStructWithContext(ctx, tenant,
		validation.Field(&tenant.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&tenant.Email, is.Email),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidatePlan(ctx context.Context, plan *tenantsDomain.Plan) error {
	err := validation.ValidateStructWithContext(ctx, plan,
		validation.Field(&plan.Name, validation.Required),
		validation.Field(&plan.MaxInstances, validation.Min(0)),
		validation.Field(&plan.MaxChatbots, validation.Min(0)),
		validation.Field(&plan.DurationKind, validation.Required, validation.In(
			tenantsDomain.DurationDays, tenantsDomain.DurationMonths,
			tenantsDomain.DurationYears, tenantsDomain.DurationLifetime,
		)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateTemplate(ctx context.Context, tpl *dispatchDomain.Template) error {
	err := validation.ValidateStructWithContext(ctx, tpl,
		validation.Field(&tpl.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&tpl.Body, validation.Required, validation.Length(1, 4000)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateCampaign(ctx context.Context, c *dispatchDomain.Campaign) error {
	err := validation.ValidateStructWithContext(ctx, c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 160)),
		validation.Field(&c.InstanceID, validation.Required),
		validation.Field(&c.MinDelaySeconds, validation.Min(0)),
		validation.Field(&c.MaxDelaySeconds, validation.Min(0)),
		validation.Field(&c.MessagesPerRecipient, validation.Min(0), validation.Max(10)),
		validation.Field(&c.TemplateIDs, validation.Required, validation.Length(1, 20)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	if c.MaxDelaySeconds > 0 && c.MaxDelaySeconds < c.MinDelaySeconds {
		return pkgError.ValidationError("max_delay_seconds must be >= min_delay_seconds")
	}
	return nil
}

func ValidateChatbotConfig(ctx context.Context, cfg *botDomain.ChatbotConfig) error {
	err := validation.ValidateStructWithContext(ctx, cfg,
		validation.Field(&cfg.InstanceID, validation.Required),
		validation.Field(&cfg.CompanyName, validation.Required, validation.Length(2, 160)),
		validation.Field(&cfg.Provider, validation.Required, validation.In(
			botDomain.ProviderOpenAI, botDomain.ProviderGemini,
		)),
		validation.Field(&cfg.HistoryLimit, validation.Min(0), validation.Max(botDomain.MaxHistoryEntries)),
		validation.Field(&cfg.Transfers, validation.Length(0, botDomain.MaxTransferTargets)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
