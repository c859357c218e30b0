package application

import (
	"context"
	"testing"

	"github.com/AzielCF/az-hub/dispatch/domain"
	"github.com/AzielCF/az-hub/dispatch/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDispatchDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func newDispatchRepos(t *testing.T, db *gorm.DB) (*repository.CampaignGormRepository, *repository.TemplateGormRepository, *repository.GroupGormRepository, *repository.DispatchStateGormRepository) {
	t.Helper()
	ctx := context.Background()
	campaigns := repository.NewCampaignGormRepository(db)
	templates := repository.NewTemplateGormRepository(db)
	groups := repository.NewGroupGormRepository(db)
	state := repository.NewDispatchStateGormRepository(db)
	require.NoError(t, campaigns.InitSchema(ctx))
	require.NoError(t, templates.InitSchema(ctx))
	require.NoError(t, groups.InitSchema(ctx))
	require.NoError(t, state.InitSchema(ctx))
	return campaigns, templates, groups, state
}

func TestNormalizeNumber(t *testing.T) {
	jid, ok := NormalizeNumber("+55 (11) 99999-9999")
	require.True(t, ok)
	assert.Equal(t, "5511999999999@s.whatsapp.net", jid)

	// Un JID ya formado pasa intacto, incluidos los de grupo.
	jid, ok = NormalizeNumber("120363012345678901@g.us")
	require.True(t, ok)
	assert.Equal(t, "120363012345678901@g.us", jid)

	_, ok = NormalizeNumber("123")
	assert.False(t, ok, "muy corto para ser un número real")
	_, ok = NormalizeNumber("   ")
	assert.False(t, ok)
}

func TestRenderBody(t *testing.T) {
	body := "Olá {nome}, tudo bem?"
	assert.Equal(t, "Olá Maria, tudo bem?", RenderBody(body, "Maria", true))
	assert.Equal(t, "Olá , tudo bem?", RenderBody(body, "", true), "sin nombre el marcador desaparece")
	assert.Equal(t, body, RenderBody(body, "Maria", false), "placeholder deshabilitado")
}

func TestPlan_DedupAndRoundRobin(t *testing.T) {
	campaigns, templates, groups, _ := newDispatchRepos(t, newDispatchDB(t))
	ctx := context.Background()

	tplA := &domain.Template{TenantID: "t1", Name: "a", Body: "Oi {nome}!"}
	tplB := &domain.Template{TenantID: "t1", Name: "b", Body: "Promoção da semana"}
	require.NoError(t, templates.Create(ctx, tplA))
	require.NoError(t, templates.Create(ctx, tplB))

	group := &domain.ContactGroup{TenantID: "t1", Name: "clientes"}
	require.NoError(t, groups.Create(ctx, group))
	require.NoError(t, groups.AddContacts(ctx, group.ID, []domain.GroupContact{
		{JID: "5511988887777", DisplayName: "Maria"},
		// Repetido contra los números crudos: el primero en entrar gana.
		{JID: "5511999999999", DisplayName: "Carlos"},
	}))

	campaign := &domain.Campaign{
		TenantID:             "t1",
		InstanceID:           "inst-1",
		Name:                 "lanzamiento",
		RawNumbers:           "5511999999999, 55 11 99999-9999\n5511977776666",
		GroupIDs:             []string{group.ID},
		TemplateIDs:          []string{tplA.ID, tplB.ID},
		MessagesPerRecipient: 2,
		UseNamePlaceholder:   true,
	}
	require.NoError(t, campaigns.Create(ctx, campaign))

	planner := NewPlanner(campaigns, templates, groups)
	planned, err := planner.Plan(ctx, campaign.ID)
	require.NoError(t, err)

	// 3 JIDs únicos (el crudo repetido y el duplicado del grupo colapsan).
	recipients, err := campaigns.ListRecipients(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, recipients, 3)

	assert.Equal(t, 6, planned.Planned, "3 destinatarios x 2 mensajes")
	assert.Equal(t, domain.CampaignScheduled, planned.Status)

	items, err := campaigns.ListItems(ctx, campaign.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, items, 6)

	byTemplate := map[string]int{}
	for _, item := range items {
		byTemplate[item.TemplateID]++
		assert.Equal(t, domain.ItemQueued, item.Status)
	}
	assert.Equal(t, 3, byTemplate[tplA.ID], "round-robin parejo entre templates")
	assert.Equal(t, 3, byTemplate[tplB.ID])

	// El contacto del grupo con nombre recibe el cuerpo personalizado.
	var mariaBodies []string
	for _, item := range items {
		if item.JID == "5511988887777@s.whatsapp.net" && item.TemplateID == tplA.ID {
			mariaBodies = append(mariaBodies, item.RenderedBody)
		}
	}
	require.NotEmpty(t, mariaBodies)
	assert.Equal(t, "Oi Maria!", mariaBodies[0])
}

func TestPlan_RejectsNonDraftAndEmpty(t *testing.T) {
	campaigns, templates, groups, _ := newDispatchRepos(t, newDispatchDB(t))
	ctx := context.Background()

	tpl := &domain.Template{TenantID: "t1", Name: "a", Body: "hola"}
	require.NoError(t, templates.Create(ctx, tpl))

	empty := &domain.Campaign{
		TenantID: "t1", InstanceID: "inst-1", Name: "vacía",
		TemplateIDs: []string{tpl.ID},
	}
	require.NoError(t, campaigns.Create(ctx, empty))

	planner := NewPlanner(campaigns, templates, groups)
	_, err := planner.Plan(ctx, empty.ID)
	require.Error(t, err, "sin destinatarios no hay plan")

	scheduled := &domain.Campaign{
		TenantID: "t1", InstanceID: "inst-1", Name: "ya planificada",
		RawNumbers: "5511999999999", TemplateIDs: []string{tpl.ID},
	}
	require.NoError(t, campaigns.Create(ctx, scheduled))
	require.NoError(t, campaigns.UpdateStatus(ctx, scheduled.ID, domain.CampaignScheduled))
	_, err = planner.Plan(ctx, scheduled.ID)
	require.Error(t, err, "solo DRAFT se planifica")
}
