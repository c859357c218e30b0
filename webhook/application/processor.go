package application

import (
	"context"
	"strings"

	"github.com/AzielCF/az-hub/bridge"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	"github.com/AzielCF/az-hub/pkg/msgworker"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/AzielCF/az-hub/webhook/domain"
	"github.com/sirupsen/logrus"
)

// Result is the outcome the HTTP layer translates into a response.
type Result struct {
	Status string
	Code   int
}

const (
	StatusProcessed   = "processed"
	StatusIgnored     = "ignored"
	StatusPlanExpired = "plan_expired_ignored"
)

// PlanChecker es la porción del servicio de planes que necesita el ingress.
type PlanChecker interface {
	IsPlanValid(tenant *tenantsDomain.Tenant) bool
}

// TokenHealer re-sincroniza el token de una sesión desde el bridge.
type TokenHealer interface {
	SyncToken(ctx context.Context, sessionID string) (string, bool)
}

// EngineTrigger recibe los mensajes entrantes normalizados. La llamada se
// hace dentro del worker pool, nunca en el hilo del request.
type EngineTrigger interface {
	HandleInbound(ctx context.Context, instance *instancesDomain.Instance, inbound *InboundMessage)
}

// AckSink correlates delivery receipts back to the dispatch queue.
type AckSink interface {
	HandleAck(ctx context.Context, sessionID, wamid string, level int)
}

// StatusNotifier pushes lifecycle transitions to the UI hub.
type StatusNotifier interface {
	NotifyStatus(sessionID, status string)
	NotifyQR(sessionID, qr string)
}

// Processor is the ingress pipeline: classify, authenticate upstream (the
// HTTP layer owns the header check), normalize, persist, hand off, fan out.
type Processor struct {
	instances instancesDomain.InstanceRepository
	tenants   tenantsDomain.TenantRepository
	messages  messagesDomain.MessageRepository
	plans     PlanChecker
	healer    TokenHealer
	engine    EngineTrigger
	acks      AckSink
	notifier  StatusNotifier
	forwarder *Forwarder
	pool      *msgworker.Pool
	errorLogs domain.ErrorLogRepository
}

type ProcessorDeps struct {
	Instances instancesDomain.InstanceRepository
	Tenants   tenantsDomain.TenantRepository
	Messages  messagesDomain.MessageRepository
	Plans     PlanChecker
	Healer    TokenHealer
	Engine    EngineTrigger
	Acks      AckSink
	Notifier  StatusNotifier
	Forwarder *Forwarder
	Pool      *msgworker.Pool
	ErrorLogs domain.ErrorLogRepository
}

func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		instances: deps.Instances,
		tenants:   deps.Tenants,
		messages:  deps.Messages,
		plans:     deps.Plans,
		healer:    deps.Healer,
		engine:    deps.Engine,
		acks:      deps.Acks,
		notifier:  deps.Notifier,
		forwarder: deps.Forwarder,
		pool:      deps.Pool,
		errorLogs: deps.ErrorLogs,
	}
}

// Process handles one bridge frame. sessionID must already be present;
// the HTTP layer rejects frames without it.
func (p *Processor) Process(ctx context.Context, eventType, sessionID string, data map[string]any) Result {
	instance, err := p.instances.GetBySessionID(ctx, sessionID)
	if err != nil {
		logrus.Debugf("[INGRESS] Unknown session %s (%s), ignored", sessionID, eventType)
		return Result{Status: StatusIgnored, Code: 404}
	}

	tenant, err := p.tenants.GetByID(ctx, instance.TenantID)
	if err != nil || tenant == nil || !p.plans.IsPlanValid(tenant) {
		return Result{Status: StatusPlanExpired, Code: 200}
	}

	switch classifyEvent(eventType) {
	case classSession:
		p.processSessionUpdate(ctx, instance, data)
	case classMessage:
		p.processMessage(ctx, instance, data)
	case classAck:
		p.processAck(ctx, instance, data)
	case classPresence:
		// Solo interesa para el fan-out.
	default:
		logrus.Debugf("[INGRESS] Unhandled event type %q for %s", eventType, sessionID)
	}

	p.fanOut(ctx, instance, eventType, sessionID, data)
	return Result{Status: StatusProcessed, Code: 200}
}

func (p *Processor) processSessionUpdate(ctx context.Context, instance *instancesDomain.Instance, data map[string]any) {
	fields := instancesDomain.StatusFields{}

	rawStatus, _ := data["status"].(string)
	normalized := ""
	if rawStatus != "" {
		normalized = bridge.NormalizeStatus(rawStatus)
		if normalized != string(instance.Status) {
			status := instancesDomain.Status(normalized)
			fields.Status = &status
		}
	}

	if me, ok := data["me"].(map[string]any); ok {
		if id, ok := me["id"].(string); ok && id != "" {
			phone := strings.SplitN(id, ":", 2)[0]
			if phone != instance.PhoneConnected {
				fields.Phone = &phone
			}
		}
	} else if phone, ok := data["phoneNumber"].(string); ok && phone != "" && phone != instance.PhoneConnected {
		fields.Phone = &phone
	}

	if token, ok := data["token"].(string); ok && token != "" && token != instance.Token {
		fields.Token = &token
	}

	// QR presente sin conexión: el usuario está frente al código.
	qr := qrFromData(data)
	if qr != "" && normalized != string(instancesDomain.StatusConnected) {
		if instance.Status != instancesDomain.StatusConnected {
			status := instancesDomain.StatusQRScanned
			fields.Status = &status
		}
		if p.notifier != nil {
			p.notifier.NotifyQR(instance.SessionID, qr)
		}
	}

	if fields.Status != nil || fields.Token != nil || fields.Phone != nil {
		if err := p.instances.UpdateStatusFields(ctx, instance.SessionID, fields); err != nil {
			p.recordIngressError(ctx, instance.SessionID, "session update persist failed: "+err.Error())
			return
		}
		if fields.Status != nil && p.notifier != nil {
			p.notifier.NotifyStatus(instance.SessionID, string(*fields.Status))
		}
	}

	// Conectada sin token: el bridge no lo mandó en el evento, se recupera
	// por la lista admin.
	if normalized == string(instancesDomain.StatusConnected) && instance.Token == "" && fields.Token == nil && p.healer != nil {
		p.healer.SyncToken(ctx, instance.SessionID)
	}
}

func (p *Processor) processMessage(ctx context.Context, instance *instancesDomain.Instance, data map[string]any) {
	inbound := NormalizeMessageEvent(instance.SessionID, data)
	if inbound.RemoteJID == "" {
		return
	}

	// Solo eventos con wamid se persisten; el dedup vive en el repo.
	if inbound.WAMID != "" {
		err := p.messages.Save(ctx, &messagesDomain.Message{
			InstanceID: instance.ID,
			RemoteJID:  inbound.RemoteJID,
			WAMID:      inbound.WAMID,
			FromMe:     inbound.FromMe,
			SenderName: inbound.PushName,
			Kind:       inbound.Kind,
			Content:    inbound.Content,
			Timestamp:  inbound.Timestamp,
		})
		if err != nil {
			p.recordIngressError(ctx, instance.SessionID, "message persist failed: "+err.Error())
		}
	}

	if p.engine == nil || inbound.FromMe {
		return
	}

	instanceCopy := *instance
	inboundCopy := *inbound
	accepted := p.pool.TryDispatch(msgworker.Job{
		InstanceID: instance.ID,
		RemoteJID:  inbound.RemoteJID,
		Handler: func(jobCtx context.Context) error {
			p.engine.HandleInbound(jobCtx, &instanceCopy, &inboundCopy)
			return nil
		},
	})
	if !accepted {
		logrus.Warnf("[INGRESS] Worker pool saturated, dropped chatbot job for %s", instance.SessionID)
	}
}

func (p *Processor) processAck(ctx context.Context, instance *instancesDomain.Instance, data map[string]any) {
	if p.acks == nil {
		return
	}
	wamid := ""
	if key, ok := data["key"].(map[string]any); ok {
		wamid, _ = key["id"].(string)
	}
	if wamid == "" {
		wamid, _ = data["id"].(string)
	}
	if wamid == "" {
		return
	}
	level := 0
	if f, ok := data["ack"].(float64); ok {
		level = int(f)
	} else if f, ok := data["status"].(float64); ok {
		level = int(f)
	}
	p.acks.HandleAck(ctx, instance.SessionID, wamid, level)
}

func (p *Processor) fanOut(ctx context.Context, instance *instancesDomain.Instance, eventType, sessionID string, data map[string]any) {
	if p.forwarder == nil {
		return
	}
	cfg, err := p.instances.GetWebhookConfig(ctx, instance.ID)
	if err != nil || !ShouldForward(cfg, eventType) {
		return
	}
	payload := MarshalEvent(eventType, sessionID, data)
	go p.forwarder.Forward(context.WithoutCancel(ctx), cfg, sessionID, payload)
}

func (p *Processor) recordIngressError(ctx context.Context, sessionID, message string) {
	logrus.Warnf("[INGRESS] %s (%s)", message, sessionID)
	if p.errorLogs == nil {
		return
	}
	_ = p.errorLogs.Save(ctx, &domain.ErrorLog{
		Source:    domain.SourceIngress,
		SessionID: sessionID,
		Message:   message,
	})
}

func qrFromData(data map[string]any) string {
	for _, key := range []string{"qrCode", "qrcode", "qr"} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
