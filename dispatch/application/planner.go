package application

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/dispatch/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/sirupsen/logrus"
)

var nonDigits = regexp.MustCompile(`\D+`)

// NormalizeNumber convierte un número crudo en el JID canónico
// `<dígitos>@s.whatsapp.net`. Un JID ya formado pasa tal cual.
func NormalizeNumber(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "@") {
		return raw, true
	}
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) < 8 {
		return "", false
	}
	return digits + "@s.whatsapp.net", true
}

// ParseRawNumbers separa el bloque crudo por comas, punto y coma o saltos
// de línea y normaliza cada entrada, descartando las inválidas.
func ParseRawNumbers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if jid, ok := NormalizeNumber(f); ok {
			out = append(out, jid)
		}
	}
	return out
}

// RenderBody sustituye el marcador {nome} por el nombre del destinatario.
// Sin nombre conocido el marcador desaparece y se colapsan los espacios.
func RenderBody(body, displayName string, usePlaceholder bool) string {
	if !usePlaceholder || !strings.Contains(body, domain.NamePlaceholder) {
		return body
	}
	rendered := strings.ReplaceAll(body, domain.NamePlaceholder, strings.TrimSpace(displayName))
	if displayName == "" {
		rendered = strings.Join(strings.Fields(rendered), " ")
	}
	return rendered
}

// Planner materializa una campaña DRAFT en destinatarios e items de cola.
type Planner struct {
	campaigns domain.CampaignRepository
	templates domain.TemplateRepository
	groups    domain.GroupRepository
}

func NewPlanner(campaigns domain.CampaignRepository, templates domain.TemplateRepository, groups domain.GroupRepository) *Planner {
	return &Planner{campaigns: campaigns, templates: templates, groups: groups}
}

// Plan resuelve el universo de destinatarios (números crudos + grupos,
// deduplicados por JID), reparte templates round-robin y crea un item por
// (destinatario, paso). Devuelve la campaña con planned actualizado.
func (p *Planner) Plan(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	campaign, err := p.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != domain.CampaignDraft {
		return nil, pkgError.ValidationError("only DRAFT campaigns can be planned")
	}
	if len(campaign.TemplateIDs) == 0 {
		return nil, pkgError.ValidationError("campaign has no templates")
	}
	campaign.NormalizeDelays()

	templates := make([]domain.Template, 0, len(campaign.TemplateIDs))
	for _, id := range campaign.TemplateIDs {
		tpl, err := p.templates.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}

	// Unión deduplicada: el primer origen que aporta un JID gana, y con él
	// su display name.
	seen := map[string]bool{}
	recipients := make([]domain.Recipient, 0)
	for _, jid := range ParseRawNumbers(campaign.RawNumbers) {
		if seen[jid] {
			continue
		}
		seen[jid] = true
		recipients = append(recipients, domain.Recipient{
			CampaignID: campaign.ID,
			JID:        jid,
			Source:     domain.SourceInline,
		})
	}
	for _, groupID := range campaign.GroupIDs {
		contacts, err := p.groups.ListContacts(ctx, groupID)
		if err != nil {
			return nil, err
		}
		for _, contact := range contacts {
			jid, ok := NormalizeNumber(contact.JID)
			if !ok || seen[jid] {
				continue
			}
			seen[jid] = true
			recipients = append(recipients, domain.Recipient{
				CampaignID:  campaign.ID,
				JID:         jid,
				DisplayName: contact.DisplayName,
				Source:      domain.SourceGroup,
			})
		}
	}
	if len(recipients) == 0 {
		return nil, pkgError.ValidationError("campaign has no recipients")
	}

	if err := p.campaigns.CreateRecipients(ctx, recipients); err != nil {
		return nil, err
	}

	scheduledAt := time.Now().UTC()
	if campaign.StartAt != nil {
		scheduledAt = campaign.StartAt.UTC()
	}

	items := make([]domain.QueueItem, 0, len(recipients)*campaign.MessagesPerRecipient)
	tplIdx := 0
	for _, recipient := range recipients {
		for step := 0; step < campaign.MessagesPerRecipient; step++ {
			tpl := templates[tplIdx%len(templates)]
			tplIdx++
			items = append(items, domain.QueueItem{
				CampaignID:   campaign.ID,
				RecipientID:  recipient.ID,
				InstanceID:   campaign.InstanceID,
				Step:         step,
				TemplateID:   tpl.ID,
				MediaFileID:  tpl.MediaFileID,
				RenderedBody: RenderBody(tpl.Body, recipient.DisplayName, campaign.UseNamePlaceholder),
				JID:          recipient.JID,
				ScheduledAt:  scheduledAt,
				Status:       domain.ItemQueued,
			})
		}
	}
	if err := p.campaigns.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	campaign.Planned = len(items)
	campaign.Status = domain.CampaignScheduled
	if err := p.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}

	logrus.Infof("[DISPATCH] Campaign %s planned: %d recipients, %d items", campaign.ID, len(recipients), len(items))
	return campaign, nil
}
