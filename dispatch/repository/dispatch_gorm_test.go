package repository

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-hub/dispatch/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	ctx := context.Background()
	require.NoError(t, NewTemplateGormRepository(db).InitSchema(ctx))
	require.NoError(t, NewGroupGormRepository(db).InitSchema(ctx))
	require.NoError(t, NewCampaignGormRepository(db).InitSchema(ctx))
	require.NoError(t, NewDispatchStateGormRepository(db).InitSchema(ctx))
	return db
}

func seedCampaign(t *testing.T, repo *CampaignGormRepository, status domain.CampaignStatus, items int) *domain.Campaign {
	t.Helper()
	ctx := context.Background()

	campaign := &domain.Campaign{
		TenantID:    "t1",
		InstanceID:  "inst-1",
		Name:        "lanzamiento",
		TemplateIDs: []string{"tpl-1"},
	}
	require.NoError(t, repo.Create(ctx, campaign))
	require.NoError(t, repo.UpdateStatus(ctx, campaign.ID, status))
	campaign.Status = status

	recipients := make([]domain.Recipient, 0, items)
	queue := make([]domain.QueueItem, 0, items)
	for i := 0; i < items; i++ {
		recipients = append(recipients, domain.Recipient{
			CampaignID: campaign.ID,
			JID:        jidFor(i),
			Source:     domain.SourceInline,
		})
	}
	require.NoError(t, repo.CreateRecipients(ctx, recipients))
	for i := 0; i < items; i++ {
		queue = append(queue, domain.QueueItem{
			CampaignID:   campaign.ID,
			RecipientID:  recipients[i].ID,
			InstanceID:   "inst-1",
			Step:         0,
			TemplateID:   "tpl-1",
			RenderedBody: "hola",
			JID:          recipients[i].JID,
			ScheduledAt:  time.Now().UTC().Add(-time.Minute),
		})
	}
	require.NoError(t, repo.CreateItems(ctx, queue))
	return campaign
}

func jidFor(i int) string {
	return "551199999000" + string(rune('0'+i)) + "@s.whatsapp.net"
}

func TestClaimItems_SingleClaim(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	seedCampaign(t, repo, domain.CampaignRunning, 3)

	first, err := repo.ClaimItems(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, item := range first {
		assert.Equal(t, domain.ItemSending, item.Status)
		assert.Equal(t, 1, item.Attempts)
	}

	// Ya reclamados: un segundo ciclo no devuelve nada.
	second, err := repo.ClaimItems(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestClaimItems_OnlyRunningCampaigns(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	seedCampaign(t, repo, domain.CampaignPaused, 2)

	claimed, err := repo.ClaimItems(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Empty(t, claimed, "una campaña pausada no entrega items")
}

func TestClaimItems_RespectsSchedule(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	campaign := seedCampaign(t, repo, domain.CampaignRunning, 1)

	items, err := repo.ListItems(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Requeue(ctx, items[0].ID, time.Now().UTC().Add(time.Hour)))

	claimed, err := repo.ClaimItems(ctx, time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Empty(t, claimed, "scheduled_at en el futuro no se reclama")
}

func TestAdvanceAck_NeverRegresses(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	campaign := seedCampaign(t, repo, domain.CampaignRunning, 1)

	items, err := repo.ListItems(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	itemID := items[0].ID
	require.NoError(t, repo.MarkSent(ctx, itemID, "WAMID-1"))

	item, err := repo.AdvanceAck(ctx, "inst-1", "WAMID-1", domain.ItemRead)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, domain.ItemRead, item.Status)

	// Un DELIVERED tardío no baja la escalera.
	item, err = repo.AdvanceAck(ctx, "inst-1", "WAMID-1", domain.ItemDelivered)
	require.NoError(t, err)
	assert.Nil(t, item)

	reloaded, err := repo.GetItemByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemRead, reloaded.Status)
}

func TestAdvanceAck_UnknownWamidIsSilent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	seedCampaign(t, repo, domain.CampaignRunning, 1)

	item, err := repo.AdvanceAck(context.Background(), "inst-1", "NO-EXISTE", domain.ItemDelivered)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestRefreshCounters_CompletesCampaign(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	campaign := seedCampaign(t, repo, domain.CampaignRunning, 3)

	items, err := repo.ListItems(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, items[0].ID, "W-1"))
	require.NoError(t, repo.MarkSent(ctx, items[1].ID, "W-2"))
	require.NoError(t, repo.MarkFailed(ctx, items[2].ID, "número inexistente"))

	refreshed, err := repo.RefreshCounters(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed.Planned)
	assert.Equal(t, 2, refreshed.Sent)
	assert.Equal(t, 1, refreshed.Failed)
	assert.Equal(t, domain.CampaignCompleted, refreshed.Status, "sent+failed+canceled == planned cierra la campaña")
}

func TestRefreshCounters_AcksCountAsSent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	campaign := seedCampaign(t, repo, domain.CampaignRunning, 2)

	items, err := repo.ListItems(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, items[0].ID, "W-1"))
	_, err = repo.AdvanceAck(ctx, "inst-1", "W-1", domain.ItemRead)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, items[1].ID, "W-2"))

	refreshed, err := repo.RefreshCounters(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.Sent, "un item leído sigue contando como enviado")
	assert.Equal(t, 1, refreshed.Read)
	assert.Equal(t, domain.CampaignCompleted, refreshed.Status)
}

func TestCancelPending_KeepsSentItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	campaign := seedCampaign(t, repo, domain.CampaignRunning, 3)

	items, err := repo.ListItems(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, items[0].ID, "W-1"))
	require.NoError(t, repo.CancelPending(ctx, campaign.ID))

	reloaded, err := repo.ListItems(ctx, campaign.ID, 10, 0)
	require.NoError(t, err)
	statuses := map[domain.ItemStatus]int{}
	for _, item := range reloaded {
		statuses[item.Status]++
	}
	assert.Equal(t, 1, statuses[domain.ItemSent])
	assert.Equal(t, 2, statuses[domain.ItemCanceled])
}

func TestDispatchState_UpsertAndZeroValue(t *testing.T) {
	db := newTestDB(t)
	repo := NewDispatchStateGormRepository(db)
	ctx := context.Background()

	// Sin fila previa: estado en cero, instancia libre.
	state, err := repo.Get(ctx, "inst-1")
	require.NoError(t, err)
	assert.True(t, state.NextAvailableAt.IsZero())

	at := time.Now().UTC().Add(30 * time.Second).Truncate(time.Second)
	require.NoError(t, repo.SetNextAvailable(ctx, "inst-1", at))
	require.NoError(t, repo.SetNextAvailable(ctx, "inst-1", at.Add(time.Minute)))

	state, err = repo.Get(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, at.Add(time.Minute), state.NextAvailableAt.UTC().Truncate(time.Second))
}

func TestCreateRecipients_DuplicateJIDConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewCampaignGormRepository(db)
	ctx := context.Background()
	campaign := seedCampaign(t, repo, domain.CampaignDraft, 1)

	err := repo.CreateRecipients(ctx, []domain.Recipient{{
		CampaignID: campaign.ID,
		JID:        jidFor(0),
		Source:     domain.SourceGroup,
	}})
	require.Error(t, err)
}
