package application

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/AzielCF/az-hub/bridge"
	"github.com/AzielCF/az-hub/dispatch/domain"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	mediaApp "github.com/AzielCF/az-hub/media/application"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/sirupsen/logrus"
)

// Stats resume un ciclo del worker de despacho.
type Stats struct {
	Promoted int `json:"promoted"`
	Claimed  int `json:"claimed"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred"`
}

// Worker drena la cola de campañas respetando la puerta de pacing por
// instancia. También implementa el sink de acks del webhook ingress.
type Worker struct {
	campaigns domain.CampaignRepository
	state     domain.DispatchStateRepository
	instances instancesDomain.InstanceRepository
	media     *mediaApp.MediaService
	bridge    *bridge.Client

	mu  sync.Mutex
	rng *rand.Rand
}

func NewWorker(
	campaigns domain.CampaignRepository,
	state domain.DispatchStateRepository,
	instances instancesDomain.InstanceRepository,
	media *mediaApp.MediaService,
	bridgeClient *bridge.Client,
) *Worker {
	return &Worker{
		campaigns: campaigns,
		state:     state,
		instances: instances,
		media:     media,
		bridge:    bridgeClient,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ProcessQueue ejecuta un ciclo: promueve campañas SCHEDULED vencidas a
// RUNNING, reclama hasta maxItems items y los envía uno a uno.
func (w *Worker) ProcessQueue(ctx context.Context, maxItems int) (Stats, error) {
	stats := Stats{}
	now := time.Now().UTC()

	due, err := w.campaigns.DueScheduled(ctx, now)
	if err != nil {
		return stats, err
	}
	for _, campaign := range due {
		if err := w.campaigns.UpdateStatus(ctx, campaign.ID, domain.CampaignRunning); err != nil {
			logrus.Warnf("[DISPATCH] Promote failed for campaign %s: %v", campaign.ID, err)
			continue
		}
		stats.Promoted++
	}

	items, err := w.campaigns.ClaimItems(ctx, now, maxItems)
	if err != nil {
		return stats, err
	}
	stats.Claimed = len(items)

	touched := map[string]bool{}
	for i := range items {
		item := &items[i]
		sent, deferred := w.processItem(ctx, item)
		switch {
		case deferred:
			stats.Deferred++
		case sent:
			stats.Sent++
			touched[item.CampaignID] = true
		default:
			stats.Failed++
			touched[item.CampaignID] = true
		}
	}

	for campaignID := range touched {
		if _, err := w.campaigns.RefreshCounters(ctx, campaignID); err != nil {
			logrus.Warnf("[DISPATCH] Counter refresh failed for campaign %s: %v", campaignID, err)
		}
	}
	return stats, nil
}

// processItem intenta el envío de un item reclamado. Devuelve (sent,
// deferred): deferred significa que la puerta de pacing estaba cerrada y
// el item volvió a la cola sin consumir intento de envío.
func (w *Worker) processItem(ctx context.Context, item *domain.QueueItem) (bool, bool) {
	now := time.Now().UTC()

	state, err := w.state.Get(ctx, item.InstanceID)
	if err != nil {
		logrus.Warnf("[DISPATCH] Pacing state read failed for %s: %v", item.InstanceID, err)
		_ = w.campaigns.Requeue(ctx, item.ID, now.Add(5*time.Second))
		return false, true
	}
	if state.NextAvailableAt.After(now) {
		_ = w.campaigns.Requeue(ctx, item.ID, state.NextAvailableAt)
		return false, true
	}

	campaign, err := w.campaigns.GetByID(ctx, item.CampaignID)
	if err != nil {
		_ = w.campaigns.MarkFailed(ctx, item.ID, "campaign lookup failed: "+err.Error())
		return false, false
	}

	// La puerta se cierra ANTES de soltar la instancia: aunque el envío
	// falle, la siguiente salida respeta el intervalo aleatorio.
	delay := w.randomDelay(campaign.MinDelaySeconds, campaign.MaxDelaySeconds)
	if err := w.state.SetNextAvailable(ctx, item.InstanceID, now.Add(delay)); err != nil {
		logrus.Warnf("[DISPATCH] Pacing state write failed for %s: %v", item.InstanceID, err)
	}

	instance, err := w.instances.GetByID(ctx, item.InstanceID)
	if err != nil {
		_ = w.campaigns.MarkFailed(ctx, item.ID, "instance not found")
		return false, false
	}
	if instance.Status != instancesDomain.StatusConnected {
		_ = w.campaigns.MarkFailed(ctx, item.ID, "instance not connected")
		return false, false
	}

	wamid, err := w.send(ctx, instance, item)
	if err != nil {
		logrus.Warnf("[DISPATCH] Send failed for item %s: %v", item.ID, err)
		_ = w.campaigns.MarkFailed(ctx, item.ID, err.Error())
		return false, false
	}
	if err := w.campaigns.MarkSent(ctx, item.ID, wamid); err != nil {
		logrus.Warnf("[DISPATCH] MarkSent failed for item %s: %v", item.ID, err)
	}
	return true, false
}

func (w *Worker) send(ctx context.Context, instance *instancesDomain.Instance, item *domain.QueueItem) (string, error) {
	if item.MediaFileID != "" {
		return w.sendMedia(ctx, instance, item)
	}

	payload := map[string]any{
		"to":      item.JID,
		"message": item.RenderedBody,
	}
	res, err := w.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return w.bridge.SendMessage(ctx, instance.SessionID, token, payload)
	})
	if err != nil {
		return "", err
	}
	if !res.OK {
		return "", bridgeSendError(res)
	}
	return extractWAMID(res), nil
}

func (w *Worker) sendMedia(ctx context.Context, instance *instancesDomain.Instance, item *domain.QueueItem) (string, error) {
	file, err := w.media.Get(ctx, item.MediaFileID)
	if err != nil {
		return "", err
	}
	blob, err := w.media.OpenBlob(file)
	if err != nil {
		return "", err
	}
	content, err := io.ReadAll(blob)
	_ = blob.Close()
	if err != nil {
		return "", err
	}

	fields := map[string]string{"to": item.JID}
	if item.RenderedBody != "" {
		fields["caption"] = item.RenderedBody
	}
	files := []bridge.File{{
		Field:    "file",
		Name:     file.OriginalName,
		MimeType: file.MimeType,
		Content:  content,
	}}
	res, err := w.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return w.bridge.SendMedia(ctx, instance.SessionID, token, fields, files)
	})
	if err != nil {
		return "", err
	}
	if !res.OK {
		return "", bridgeSendError(res)
	}
	return extractWAMID(res), nil
}

// HandleAck correlaciona un ack del bridge con su item por wamid y sube la
// escalera de estados. Los acks de mensajes ajenos a campañas se ignoran.
func (w *Worker) HandleAck(ctx context.Context, sessionID, wamid string, level int) {
	next, ok := domain.AckStatusForLevel(level)
	if !ok || wamid == "" {
		return
	}
	instance, err := w.instances.GetBySessionID(ctx, sessionID)
	if err != nil {
		return
	}
	item, err := w.campaigns.AdvanceAck(ctx, instance.ID, wamid, next)
	if err != nil {
		logrus.Debugf("[DISPATCH] Ack advance failed for %s: %v", wamid, err)
		return
	}
	if item == nil {
		return
	}
	if _, err := w.campaigns.RefreshCounters(ctx, item.CampaignID); err != nil {
		logrus.Debugf("[DISPATCH] Counter refresh failed for campaign %s: %v", item.CampaignID, err)
	}
}

// Run ejecuta ProcessQueue en loop hasta que el contexto muera.
func (w *Worker) Run(ctx context.Context, maxItems int, sleep time.Duration) {
	if sleep < time.Second {
		sleep = 5 * time.Second
	}
	logrus.Infof("[DISPATCH] Worker started (max %d items, every %s)", maxItems, sleep)
	for {
		stats, err := w.ProcessQueue(ctx, maxItems)
		if err != nil {
			logrus.Errorf("[DISPATCH] Cycle failed: %v", err)
		} else if stats.Claimed > 0 {
			logrus.Infof("[DISPATCH] Cycle: %d claimed, %d sent, %d failed, %d deferred",
				stats.Claimed, stats.Sent, stats.Failed, stats.Deferred)
		}
		select {
		case <-ctx.Done():
			logrus.Info("[DISPATCH] Worker stopped")
			return
		case <-time.After(sleep):
		}
	}
}

func (w *Worker) randomDelay(minSec, maxSec int) time.Duration {
	if minSec < 1 {
		minSec = domain.DefaultMinDelaySeconds
	}
	if maxSec < minSec {
		maxSec = minSec
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if maxSec == minSec {
		return time.Duration(minSec) * time.Second
	}
	return time.Duration(minSec+w.rng.Intn(maxSec-minSec+1)) * time.Second
}

func bridgeSendError(res bridge.Result) error {
	text := res.ErrorText()
	if text == "" {
		text = "bridge rejected the send"
	}
	return pkgError.BridgeError(text)
}

func extractWAMID(res bridge.Result) string {
	data, _ := res.Body["data"].(map[string]any)
	if data == nil {
		data = res.Body
	}
	if key, ok := data["key"].(map[string]any); ok {
		if id, ok := key["id"].(string); ok {
			return id
		}
	}
	if id, ok := data["id"].(string); ok {
		return id
	}
	if id, ok := data["messageId"].(string); ok {
		return id
	}
	return ""
}
