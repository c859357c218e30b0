package botengine

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/botengine/application"
	"github.com/AzielCF/az-hub/botengine/domain"
	"github.com/AzielCF/az-hub/bridge"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	mediaApp "github.com/AzielCF/az-hub/media/application"
	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	"github.com/AzielCF/az-hub/pkg/chatpresence"
	"github.com/AzielCF/az-hub/pkg/timeutils"
	webhookApp "github.com/AzielCF/az-hub/webhook/application"
	"github.com/sirupsen/logrus"
)

// mediaHistoryPlaceholder es lo que queda en el historial cuando el bot
// manda un archivo del catálogo.
const mediaHistoryPlaceholder = "[Arquivo enviado automaticamente]"

// Engine es la máquina de estados por mensaje entrante: cuotas, decisión
// del modelo y secuencia de envío humanizada. Corre dentro del worker
// pool, que garantiza orden por (instancia, chat).
type Engine struct {
	configs   domain.ConfigRepository
	contacts  domain.ContactRepository
	catalog   domain.MediaCatalogRepository
	history   messagesDomain.MessageRepository
	media     *mediaApp.MediaService
	bridge    *bridge.Client
	providers map[domain.ProviderKind]domain.Provider
	humanizer *application.Humanizer
	enricher  *application.WebsiteEnricher
}

type EngineDeps struct {
	Configs   domain.ConfigRepository
	Contacts  domain.ContactRepository
	Catalog   domain.MediaCatalogRepository
	History   messagesDomain.MessageRepository
	Media     *mediaApp.MediaService
	Bridge    *bridge.Client
	Providers map[domain.ProviderKind]domain.Provider
	Enricher  *application.WebsiteEnricher
}

func NewEngine(deps EngineDeps) *Engine {
	return &Engine{
		configs:   deps.Configs,
		contacts:  deps.Contacts,
		catalog:   deps.Catalog,
		history:   deps.History,
		media:     deps.Media,
		bridge:    deps.Bridge,
		providers: deps.Providers,
		humanizer: application.NewHumanizer(),
		enricher:  deps.Enricher,
	}
}

// HandleInbound procesa un mensaje entrante de punta a punta. Todos los
// returns tempranos son silenciosos a propósito: un bot que no debe
// responder no responde, sin ruido.
func (e *Engine) HandleInbound(ctx context.Context, instance *instancesDomain.Instance, inbound *webhookApp.InboundMessage) {
	now := time.Now().UTC()

	// La config se relee en cada mensaje: el operador puede apagar el bot
	// en caliente.
	cfg, err := e.configs.GetByInstance(ctx, instance.ID)
	if err != nil || cfg == nil || !cfg.Active {
		return
	}
	if inbound.IsGroup && !cfg.RespondInGroups {
		return
	}

	// Cuotas de conversaciones y tokens, mirando el bucket de periodicidad.
	// Ambos contadores se resetean juntos en el rollover; el gate tiene que
	// verlo igual o el bot queda bloqueado hasta que alguien escriba el
	// registro.
	effectiveCount := cfg.ConversationsCount
	effectiveTokens := cfg.CurrentTokensUsed
	if timeutils.RolloverDue(cfg.Periodicity, cfg.LastResetDate, now) {
		effectiveCount = 0
		effectiveTokens = 0
	}
	if cfg.ConversationsLimit > 0 && effectiveCount >= cfg.ConversationsLimit {
		logrus.Infof("[BOT] Conversation quota reached for config %s", cfg.ID)
		return
	}
	if cfg.TokenLimit > 0 && effectiveTokens >= cfg.TokenLimit {
		logrus.Infof("[BOT] Token quota reached for config %s", cfg.ID)
		return
	}

	userText := inbound.Content
	if runes := []rune(userText); len(runes) > domain.MaxUserMessageChars {
		userText = string(runes[:domain.MaxUserMessageChars])
	}
	if strings.TrimSpace(userText) == "" {
		return
	}

	contact, created, err := e.contacts.GetOrCreate(ctx, cfg.ID, inbound.RemoteJID, now)
	if err != nil {
		logrus.Warnf("[BOT] Contact lookup failed for %s: %v", inbound.RemoteJID, err)
		return
	}
	if created && !cfg.TriggerOnUnknown {
		return
	}
	if contact.IsBlocked {
		return
	}
	contact.LastInteraction = now

	var history []domain.Turn
	var lastBotMessage string
	if cfg.UseHistory {
		entries, err := e.history.Recent(ctx, instance.ID, inbound.RemoteJID, cfg.EffectiveHistoryLimit())
		if err == nil {
			for _, entry := range entries {
				history = append(history, domain.Turn{FromMe: entry.FromMe, Content: entry.Content})
				if entry.FromMe {
					lastBotMessage = entry.Content
				}
			}
		}
	}

	switch action, name := application.EvaluateNameTriggers(userText, lastBotMessage); action {
	case application.NameClear:
		contact.PushName = ""
	case application.NameStore:
		contact.PushName = name
	}

	language := application.DetectLanguage(userText, history, contact.Language)
	contact.Language = language
	if err := e.contacts.Update(ctx, contact); err != nil {
		logrus.Debugf("[BOT] Contact update failed: %v", err)
	}

	// Pausa de lectura y acuse: el bot "abre" el chat como una persona.
	if !application.Sleep(ctx, e.humanizer.ReadPause()) {
		return
	}
	e.markRead(ctx, instance, inbound)

	catalog, _ := e.catalog.ListAccessible(ctx, cfg.ID)
	websiteText := ""
	if e.enricher != nil && cfg.CompanyWebsite != "" {
		websiteText = e.enricher.Fetch(ctx, cfg.CompanyWebsite)
	}
	system := application.BuildSystemPrompt(cfg, application.PromptInput{
		Language:      language,
		ConfirmedName: contact.PushName,
		PushName:      inbound.PushName,
		Catalog:       catalog,
		WebsiteText:   websiteText,
	})

	provider, ok := e.providers[cfg.Provider]
	if !ok {
		logrus.Errorf("[BOT] No provider registered for %q (config %s)", cfg.Provider, cfg.ID)
		return
	}

	// La conversación se cobra ANTES de llamar al modelo: un intento
	// fallido también consume el turno.
	if _, err := e.configs.IncrementConversations(ctx, cfg.ID, now); err != nil {
		logrus.Warnf("[BOT] Conversation counter update failed for %s: %v", cfg.ID, err)
	}

	keepalive := chatpresence.Start(ctx, func(pctx context.Context, state string) error {
		return e.setPresence(pctx, instance, inbound.RemoteJID, state)
	})
	decision, usage, err := provider.Call(ctx, cfg, system, history, userText)
	keepalive.Stop(ctx)

	if usage.TotalTokens > 0 {
		if err := e.configs.AddTokens(ctx, cfg.ID, usage.TotalTokens); err != nil {
			logrus.Debugf("[BOT] Token accounting failed for %s: %v", cfg.ID, err)
		}
	}
	if err != nil {
		// Silencio ante el error del proveedor: mejor no responder que
		// responder basura.
		logrus.Errorf("[BOT] Provider call failed for %s: %v", cfg.ID, err)
		return
	}

	e.applyDecision(ctx, cfg, instance, inbound, contact, decision, language)
}

func (e *Engine) applyDecision(ctx context.Context, cfg *domain.ChatbotConfig, instance *instancesDomain.Instance, inbound *webhookApp.InboundMessage, contact *domain.ChatbotContact, decision *domain.Decision, language string) {
	if name := strings.TrimSpace(decision.SaveName); name != "" && application.IsValidPersonName(name) {
		contact.PushName = name
		if err := e.contacts.Update(ctx, contact); err != nil {
			logrus.Debugf("[BOT] Contact name save failed: %v", err)
		}
	}

	if decision.ReactionEmoji != "" && inbound.Key != nil {
		go e.sendReaction(context.WithoutCancel(ctx), instance, inbound, decision.ReactionEmoji)
	}

	if url := strings.TrimSpace(decision.TransferURL); url != "" {
		text := application.TransferPhrase(language, url)
		e.sendText(ctx, instance, inbound, text, false)
		e.persistOwn(ctx, instance, inbound.RemoteJID, text)
		return
	}

	messages := application.SplitMessages(decision.Messages)
	if len(messages) == 0 && (decision.SendMediaID == "" || !cfg.AllowMedia) {
		// Se debe una respuesta: una decisión vacía cae al texto localizado
		// en vez de dejar al usuario hablando solo.
		messages = []string{application.FallbackPhrase(language)}
	}

	// Los delays del modelo son pausas ENTRE mensajes: gaps[i] separa el
	// mensaje i del i+1. Los huecos que el modelo no mandó se rellenan con
	// la ventana de tipeo configurada.
	gaps := e.humanizer.FillDelays(decision.DelaysMs, len(messages)-1)
	if cfg.SimulateTyping {
		for i := len(decision.DelaysMs); i < len(gaps); i++ {
			gaps[i] = e.humanizer.TypingFor(cfg.TypingMinMs, cfg.TypingMaxMs)
		}
	}

	for i, text := range messages {
		if i > 0 {
			if cfg.SimulateTyping {
				e.setPresence(ctx, instance, inbound.RemoteJID, "composing")
				if !application.Sleep(ctx, gaps[i-1]) {
					return
				}
				e.setPresence(ctx, instance, inbound.RemoteJID, "paused")
			} else if !application.Sleep(ctx, gaps[i-1]) {
				return
			}
		}

		quote := i == 0 && decision.Quote && inbound.Key != nil
		if ok := e.sendText(ctx, instance, inbound, text, quote); !ok {
			return
		}
		e.persistOwn(ctx, instance, inbound.RemoteJID, text)
	}

	if decision.SendMediaID != "" && cfg.AllowMedia {
		if !application.Sleep(ctx, e.humanizer.MediaPause()) {
			return
		}
		if e.sendCatalogMedia(ctx, cfg, instance, inbound, decision.SendMediaID) {
			e.persistOwn(ctx, instance, inbound.RemoteJID, mediaHistoryPlaceholder)
		}
	}
}

func (e *Engine) sendText(ctx context.Context, instance *instancesDomain.Instance, inbound *webhookApp.InboundMessage, text string, quote bool) bool {
	payload := map[string]any{
		"to":      inbound.RemoteJID,
		"message": text,
	}
	var res bridge.Result
	var err error
	if quote {
		payload["quotedKey"] = inbound.Key
		res, err = e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
			return e.bridge.SendQuote(ctx, instance.SessionID, token, payload)
		})
	} else {
		res, err = e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
			return e.bridge.SendMessage(ctx, instance.SessionID, token, payload)
		})
	}
	if err != nil || !res.OK {
		logrus.Warnf("[BOT] Send failed for %s: %v %s", instance.SessionID, err, res.ErrorText())
		return false
	}
	return true
}

func (e *Engine) sendCatalogMedia(ctx context.Context, cfg *domain.ChatbotConfig, instance *instancesDomain.Instance, inbound *webhookApp.InboundMessage, catalogID string) bool {
	entry, err := e.catalog.GetByID(ctx, catalogID)
	if err != nil || entry.ConfigID != cfg.ID || !entry.IsAccessibleByAI {
		logrus.Debugf("[BOT] Ignored media id %q outside the catalog", catalogID)
		return false
	}
	file, err := e.media.Get(ctx, entry.MediaFileID)
	if err != nil {
		return false
	}
	blob, err := e.media.OpenBlob(file)
	if err != nil {
		return false
	}
	defer blob.Close()

	content, err := io.ReadAll(blob)
	if err != nil {
		return false
	}

	res, err := e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return e.bridge.SendMedia(ctx, instance.SessionID, token,
			map[string]string{"to": inbound.RemoteJID},
			[]bridge.File{{Field: "file", Name: file.OriginalName, MimeType: file.MimeType, Content: content}},
		)
	})
	if err != nil || !res.OK {
		logrus.Warnf("[BOT] Media send failed for %s: %v", instance.SessionID, err)
		return false
	}
	return true
}

func (e *Engine) sendReaction(ctx context.Context, instance *instancesDomain.Instance, inbound *webhookApp.InboundMessage, emoji string) {
	_, err := e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return e.bridge.SendReaction(ctx, instance.SessionID, token, map[string]any{
			"key":      inbound.Key,
			"reaction": emoji,
		})
	})
	if err != nil {
		logrus.Debugf("[BOT] Reaction failed: %v", err)
	}
}

func (e *Engine) markRead(ctx context.Context, instance *instancesDomain.Instance, inbound *webhookApp.InboundMessage) {
	if inbound.Key != nil {
		_, _ = e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
			return e.bridge.ReadMessages(ctx, instance.SessionID, token, map[string]any{
				"keys": []any{inbound.Key},
			})
		})
	}
	_, _ = e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return e.bridge.MarkChatRead(ctx, instance.SessionID, token, map[string]any{
			"jid": inbound.RemoteJID,
		})
	})
}

func (e *Engine) setPresence(ctx context.Context, instance *instancesDomain.Instance, jid, state string) error {
	_, err := e.bridge.ExecUser(ctx, instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return e.bridge.SetPresence(ctx, instance.SessionID, token, map[string]any{
			"to":       jid,
			"presence": state,
		})
	})
	return err
}

func (e *Engine) persistOwn(ctx context.Context, instance *instancesDomain.Instance, remoteJID, content string) {
	err := e.history.Save(ctx, &messagesDomain.Message{
		InstanceID: instance.ID,
		RemoteJID:  remoteJID,
		FromMe:     true,
		Kind:       messagesDomain.KindText,
		Content:    content,
	})
	if err != nil {
		logrus.Debugf("[BOT] Own message persist failed: %v", err)
	}
}
