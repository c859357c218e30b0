package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-hub/dispatch/domain"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/sirupsen/logrus"
)

// CampaignService expone el ciclo de vida de campañas al panel admin.
type CampaignService struct {
	campaigns domain.CampaignRepository
	instances instancesDomain.InstanceRepository
	planner   *Planner
}

func NewCampaignService(campaigns domain.CampaignRepository, instances instancesDomain.InstanceRepository, planner *Planner) *CampaignService {
	return &CampaignService{campaigns: campaigns, instances: instances, planner: planner}
}

// Create registra una campaña en DRAFT tras validar que la instancia
// pertenece al tenant.
func (s *CampaignService) Create(ctx context.Context, c *domain.Campaign) error {
	if c.Name == "" {
		return pkgError.ValidationError("campaign name is required")
	}
	instance, err := s.instances.GetByID(ctx, c.InstanceID)
	if err != nil {
		return err
	}
	if instance.TenantID != c.TenantID {
		return pkgError.AuthDeniedError("instance does not belong to this account")
	}
	c.Status = domain.CampaignDraft
	c.NormalizeDelays()
	return s.campaigns.Create(ctx, c)
}

// Schedule planifica la campaña (destinatarios + cola) y la deja en
// SCHEDULED; el worker la promueve a RUNNING cuando start_at vence.
func (s *CampaignService) Schedule(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.planner.Plan(ctx, campaignID)
}

func (s *CampaignService) Pause(ctx context.Context, campaignID string) error {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != domain.CampaignRunning {
		return pkgError.ValidationError("only RUNNING campaigns can be paused")
	}
	return s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignPaused)
}

func (s *CampaignService) Resume(ctx context.Context, campaignID string) error {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != domain.CampaignPaused {
		return pkgError.ValidationError("only PAUSED campaigns can be resumed")
	}
	return s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignRunning)
}

// Cancel corta la campaña: los items pendientes pasan a CANCELED y los ya
// enviados conservan su estado.
func (s *CampaignService) Cancel(ctx context.Context, campaignID string) error {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.IsTerminal() {
		return pkgError.ValidationError("campaign already finished")
	}
	if err := s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignCanceled); err != nil {
		return err
	}
	if err := s.campaigns.CancelPending(ctx, campaignID); err != nil {
		return err
	}
	if _, err := s.campaigns.RefreshCounters(ctx, campaignID); err != nil {
		logrus.Warnf("[DISPATCH] Counter refresh failed after cancel of %s: %v", campaignID, err)
	}
	return nil
}

func (s *CampaignService) Get(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.campaigns.GetByID(ctx, campaignID)
}

func (s *CampaignService) List(ctx context.Context, tenantID string) ([]domain.Campaign, error) {
	return s.campaigns.ListByTenant(ctx, tenantID)
}

func (s *CampaignService) ListItems(ctx context.Context, campaignID string, limit, offset int) ([]domain.QueueItem, error) {
	return s.campaigns.ListItems(ctx, campaignID, limit, offset)
}

func (s *CampaignService) Delete(ctx context.Context, campaignID string) error {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == domain.CampaignRunning {
		return pkgError.ValidationError("cancel the campaign before deleting it")
	}
	return s.campaigns.Delete(ctx, campaignID)
}

func (s *CampaignService) Summary(ctx context.Context, tenantID string) (*domain.CampaignSummary, error) {
	return s.campaigns.Summary(ctx, tenantID)
}

// Reschedule mueve el arranque de una campaña aún no iniciada.
func (s *CampaignService) Reschedule(ctx context.Context, campaignID string, startAt *time.Time) error {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != domain.CampaignDraft && campaign.Status != domain.CampaignScheduled {
		return pkgError.ValidationError("campaign already started")
	}
	campaign.StartAt = startAt
	return s.campaigns.Update(ctx, campaign)
}
