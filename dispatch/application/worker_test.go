package application

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AzielCF/az-hub/bridge"
	coreconfig "github.com/AzielCF/az-hub/core/config"
	"github.com/AzielCF/az-hub/dispatch/domain"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	instancesRepo "github.com/AzielCF/az-hub/instances/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerFixture struct {
	worker    *Worker
	campaigns domain.CampaignRepository
	state     domain.DispatchStateRepository
	sends     *int
}

func newWorkerFixture(t *testing.T, instanceStatus instancesDomain.Status) *workerFixture {
	t.Helper()
	db := newDispatchDB(t)
	ctx := context.Background()
	campaigns, templates, groups, state := newDispatchRepos(t, db)
	instances := instancesRepo.NewInstanceGormRepository(db)
	require.NoError(t, instances.InitSchema(ctx))
	require.NoError(t, instances.Create(ctx, &instancesDomain.Instance{
		ID:        "inst-1",
		TenantID:  "t1",
		Name:      "ventas",
		SessionID: "sess_x",
		Token:     "tok-1",
		Status:    instanceStatus,
	}))

	sends := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages/send") {
			sends++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"key": map[string]any{"id": "WAMID-1"}},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "not found"})
	}))
	t.Cleanup(server.Close)

	cfg := &coreconfig.Config{}
	cfg.Bridge.BaseURL = server.URL
	cfg.Bridge.AdminKey = "admin-key"
	cfg.Bridge.TimeoutSec = 5
	cfg.Bridge.MediaTimeout = 5
	cfg.Bridge.RetryAttempts = 1
	cfg.Bridge.RetryBackoffMs = 1
	client := bridge.NewClient(cfg)

	fx := &workerFixture{
		worker:    NewWorker(campaigns, state, instances, nil, client),
		campaigns: campaigns,
		state:     state,
		sends:     &sends,
	}

	tpl := &domain.Template{TenantID: "t1", Name: "a", Body: "hola"}
	require.NoError(t, templates.Create(ctx, tpl))
	campaign := &domain.Campaign{
		TenantID:        "t1",
		InstanceID:      "inst-1",
		Name:            "pauta",
		RawNumbers:      "5511999990001, 5511999990002",
		TemplateIDs:     []string{tpl.ID},
		MinDelaySeconds: 20,
		MaxDelaySeconds: 20,
	}
	require.NoError(t, campaigns.Create(ctx, campaign))
	_, err := NewPlanner(campaigns, templates, groups).Plan(ctx, campaign.ID)
	require.NoError(t, err)
	return fx
}

func TestProcessQueue_SendsAndClosesPacingGate(t *testing.T) {
	fx := newWorkerFixture(t, instancesDomain.StatusConnected)
	ctx := context.Background()
	before := time.Now().UTC()

	stats, err := fx.worker.ProcessQueue(ctx, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Promoted, "la campaña SCHEDULED arranca en este ciclo")
	assert.Equal(t, 2, stats.Claimed)
	assert.Equal(t, 1, stats.Sent, "la puerta de pacing deja pasar un solo envío")
	assert.Equal(t, 1, stats.Deferred)
	assert.Equal(t, 1, *fx.sends)

	// min = max = 20s: la instancia queda bloqueada exactamente 20s.
	state, err := fx.state.Get(ctx, "inst-1")
	require.NoError(t, err)
	gap := state.NextAvailableAt.Sub(before)
	assert.GreaterOrEqual(t, gap, 19*time.Second)
	assert.LessOrEqual(t, gap, 21*time.Second)

	// Otro ciclo inmediato no envía nada: todo diferido.
	stats, err = fx.worker.ProcessQueue(ctx, 20)
	require.NoError(t, err)
	assert.Zero(t, stats.Sent)
	assert.Equal(t, 1, *fx.sends)
}

func TestProcessQueue_FailsWhenInstanceDisconnected(t *testing.T) {
	fx := newWorkerFixture(t, instancesDomain.StatusDisconnected)
	ctx := context.Background()

	stats, err := fx.worker.ProcessQueue(ctx, 20)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.Failed, 1)
	assert.Zero(t, *fx.sends)

	campaigns, err := fx.campaigns.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	items, err := fx.campaigns.ListItems(ctx, campaigns[0].ID, 10, 0)
	require.NoError(t, err)
	var failed int
	for _, item := range items {
		if item.Status == domain.ItemFailed {
			failed++
			assert.Contains(t, item.LastError, "not connected")
		}
	}
	require.GreaterOrEqual(t, failed, 1)
}

func TestHandleAck_ClimbsLadderWithoutRegression(t *testing.T) {
	fx := newWorkerFixture(t, instancesDomain.StatusConnected)
	ctx := context.Background()

	_, err := fx.worker.ProcessQueue(ctx, 20)
	require.NoError(t, err)

	campaigns, err := fx.campaigns.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	campaignID := campaigns[0].ID

	fx.worker.HandleAck(ctx, "sess_x", "WAMID-1", 3)
	items, err := fx.campaigns.ListItems(ctx, campaignID, 10, 0)
	require.NoError(t, err)
	var read int
	for _, item := range items {
		if item.Status == domain.ItemRead {
			read++
		}
	}
	assert.Equal(t, 1, read)

	// Un delivered tardío (nivel 2) no deshace el READ.
	fx.worker.HandleAck(ctx, "sess_x", "WAMID-1", 2)
	reloaded, err := fx.campaigns.ListItems(ctx, campaignID, 10, 0)
	require.NoError(t, err)
	read = 0
	for _, item := range reloaded {
		if item.Status == domain.ItemRead {
			read++
		}
	}
	assert.Equal(t, 1, read)

	// Acks de mensajes ajenos a campañas se ignoran en silencio.
	fx.worker.HandleAck(ctx, "sess_x", "OTRO-WAMID", 2)
	fx.worker.HandleAck(ctx, "sess_desconocida", "WAMID-1", 3)
}
