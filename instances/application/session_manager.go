package application

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-hub/bridge"
	"github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/sirupsen/logrus"
)

// PlanGate is the slice of the plan service the session manager needs.
type PlanGate interface {
	IsPlanValid(tenant *tenantsDomain.Tenant) bool
	CanCreateInstance(ctx context.Context, tenant *tenantsDomain.Tenant) (bool, error)
}

// QRPayload is the normalized answer of a QR poll.
type QRPayload struct {
	Status string         `json:"status,omitempty"`
	QRCode string         `json:"qrcode,omitempty"` // data URL listo para <img>
	QR     string         `json:"qr,omitempty"`     // texto crudo del QR
	Raw    map[string]any `json:"raw,omitempty"`
}

// SessionManager drives instances through their lifecycle against the
// bridge: create, start, QR polling, deletion and token self-healing.
type SessionManager struct {
	repo    domain.InstanceRepository
	tenants tenantsDomain.TenantRepository
	plans   PlanGate
	bridge  *bridge.Client
	qrCache QRCache
}

func NewSessionManager(repo domain.InstanceRepository, tenants tenantsDomain.TenantRepository, plans PlanGate, bridgeClient *bridge.Client, qrCache QRCache) *SessionManager {
	if qrCache == nil {
		qrCache = NewMemoryQRCache()
	}
	return &SessionManager{
		repo:    repo,
		tenants: tenants,
		plans:   plans,
		bridge:  bridgeClient,
		qrCache: qrCache,
	}
}

// Create registers a new instance after checking the owner's quota.
// The session id and the webhook secret are minted here, once.
func (m *SessionManager) Create(ctx context.Context, tenantID, name string) (*domain.Instance, error) {
	tenant, err := m.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	ok, err := m.plans.CanCreateInstance(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgError.PlanDeniedError("instance quota reached or plan expired")
	}

	instance := &domain.Instance{
		TenantID:  tenantID,
		Name:      name,
		SessionID: "sess_" + utils.RandomHex(8),
		Status:    domain.StatusCreated,
	}
	if err := m.repo.Create(ctx, instance); err != nil {
		return nil, err
	}

	cfg := &domain.WebhookConfig{
		InstanceID:   instance.ID,
		Secret:       utils.RandomHex(32),
		SendMessages: true,
		SendAck:      false,
		SendPresence: false,
	}
	if err := m.repo.SaveWebhookConfig(ctx, cfg); err != nil {
		return nil, err
	}

	logrus.Infof("[SESSION] Instance %s created for tenant %s (session %s)", instance.ID, tenantID, instance.SessionID)
	return instance, nil
}

// Start asks the bridge to spawn the session process.
func (m *SessionManager) Start(ctx context.Context, instance *domain.Instance) error {
	res, err := m.bridge.CreateSession(ctx, instance.SessionID)
	if err != nil {
		return pkgError.BridgeError(fmt.Sprintf("session start failed: %v", err))
	}
	if !res.OK {
		return pkgError.BridgeError(fmt.Sprintf("session start rejected: %s", res.ErrorText()))
	}
	return nil
}

// Delete tears the bridge session down best-effort and then removes the
// local rows. Local removal wins regardless of the bridge outcome.
func (m *SessionManager) Delete(ctx context.Context, instance *domain.Instance) error {
	if _, err := m.bridge.DeleteSession(ctx, instance.SessionID); err != nil {
		logrus.Warnf("[SESSION] Bridge delete for %s failed (ignored): %v", instance.SessionID, err)
	}
	m.qrCache.Delete(ctx, instance.SessionID)
	return m.repo.Delete(ctx, instance.ID)
}

// PollQR fetches the current QR payload once and applies the status side
// effects (QR present and not connected -> QR_SCANNED).
func (m *SessionManager) PollQR(ctx context.Context, instance *domain.Instance) (*QRPayload, error) {
	res, err := m.bridge.GetQRCode(ctx, instance.SessionID)
	if err != nil {
		return nil, pkgError.BridgeError(fmt.Sprintf("qr poll failed: %v", err))
	}
	payload := normalizeQRPayload(res.Body)

	if payload.QRCode != "" && payload.Status != string(domain.StatusConnected) {
		status := domain.StatusQRScanned
		if instance.Status != domain.StatusConnected && instance.Status != domain.StatusQRScanned {
			if err := m.repo.UpdateStatusFields(ctx, instance.SessionID, domain.StatusFields{Status: &status}); err != nil {
				logrus.Warnf("[SESSION] Could not persist QR_SCANNED for %s: %v", instance.SessionID, err)
			}
		}
		m.qrCache.Put(ctx, instance.SessionID, payload.QRCode)
	}
	return payload, nil
}

// WaitForQR polls the QR endpoint until the session connects or a QR image
// shows up. On timeout the last observed payload is returned.
func (m *SessionManager) WaitForQR(ctx context.Context, instance *domain.Instance, deadline, interval time.Duration) (*QRPayload, error) {
	if deadline <= 0 {
		deadline = 45 * time.Second
	}
	if interval < 300*time.Millisecond {
		interval = 1500 * time.Millisecond
	}

	timeout := time.After(deadline)
	var last *QRPayload

	for {
		payload, err := m.PollQR(ctx, instance)
		if err == nil && payload != nil {
			last = payload
			if payload.Status == string(domain.StatusConnected) || payload.QRCode != "" || payload.QR != "" {
				return payload, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-timeout:
			if last == nil {
				last = &QRPayload{}
			}
			return last, nil
		case <-time.After(interval):
		}
	}
}

// CachedQR returns the transiently cached QR image for the UI hub.
func (m *SessionManager) CachedQR(ctx context.Context, sessionID string) string {
	return m.qrCache.Get(ctx, sessionID)
}

// SyncToken is the token self-heal routine: look the session up in the
// admin list and persist token/status/phone atomically when they differ.
// Returns the current bridge token and whether one is present, which makes
// it usable directly as the bridge client's HealFunc.
func (m *SessionManager) SyncToken(ctx context.Context, sessionID string) (string, bool) {
	entries, res, err := m.bridge.ListSessions(ctx)
	if err != nil || !res.OK {
		logrus.Warnf("[SESSION] Self-heal list sessions failed for %s: %v", sessionID, err)
		return "", false
	}

	var target *bridge.SessionEntry
	for i := range entries {
		if entries[i].SessionID == sessionID {
			target = &entries[i]
			break
		}
	}
	if target == nil {
		return "", false
	}

	instance, err := m.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return "", false
	}

	fields := domain.StatusFields{}
	if target.Token != "" && target.Token != instance.Token {
		fields.Token = &target.Token
	}
	if norm := bridge.NormalizeStatus(target.Status); norm != "" && norm != string(instance.Status) {
		status := domain.Status(norm)
		fields.Status = &status
	}
	if target.PhoneNumber != "" && target.PhoneNumber != instance.PhoneConnected {
		fields.Phone = &target.PhoneNumber
	}

	if fields.Status != nil || fields.Token != nil || fields.Phone != nil {
		if err := m.repo.UpdateStatusFields(ctx, sessionID, fields); err != nil {
			logrus.Warnf("[SESSION] Self-heal persist failed for %s: %v", sessionID, err)
			return "", false
		}
		logrus.Infof("[SESSION] Self-heal applied for %s", sessionID)
	}

	return target.Token, target.Token != ""
}

// EnforcePlanGuard forces DISCONNECTED when the owner's plan is no longer
// valid. Called before any user-facing save of the instance.
func (m *SessionManager) EnforcePlanGuard(ctx context.Context, instance *domain.Instance) {
	tenant, err := m.tenants.GetByID(ctx, instance.TenantID)
	if err != nil {
		return
	}
	if !m.plans.IsPlanValid(tenant) && instance.Status != domain.StatusDisconnected {
		instance.Status = domain.StatusDisconnected
	}
}

func normalizeQRPayload(body map[string]any) *QRPayload {
	payload := &QRPayload{Raw: body}
	if body == nil {
		return payload
	}
	if s, ok := body["status"].(string); ok {
		payload.Status = bridge.NormalizeStatus(s)
	}
	if s, ok := body["qrCode"].(string); ok && s != "" {
		payload.QRCode = s
	} else if s, ok := body["qrcode"].(string); ok {
		payload.QRCode = s
	}
	if s, ok := body["qr"].(string); ok {
		payload.QR = s
	}
	return payload
}
