package listener

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/AzielCF/az-hub/core/config"
	webhookApp "github.com/AzielCF/az-hub/webhook/application"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const reconnectDelay = 5 * time.Second

// frame es el sobre que emite el bridge por su canal websocket. Es el
// mismo formato que llega por el webhook HTTP.
type frame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

// Listener mantiene una conexión websocket persistente con el bridge y
// alimenta el mismo pipeline que el webhook HTTP. Es la vía de ingestión
// preferida cuando hub y bridge comparten red.
type Listener struct {
	url       string
	adminKey  string
	processor *webhookApp.Processor
}

func New(cfg *config.Config, processor *webhookApp.Processor) *Listener {
	return &Listener{
		url:       listenerURL(cfg),
		adminKey:  cfg.Bridge.AdminKey,
		processor: processor,
	}
}

// listenerURL deriva el endpoint ws:// desde BaseURL cuando no se
// configuró uno explícito.
func listenerURL(cfg *config.Config) string {
	if cfg.Bridge.ListenerURL != "" {
		return cfg.Bridge.ListenerURL
	}
	url := cfg.Bridge.BaseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimSuffix(url, "/") + "/ws"
}

// Run conecta y reconecta hasta que el contexto se cancele.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.connectAndListen(ctx); err != nil {
			logrus.Warnf("[LISTENER] Connection lost: %v. Reconnecting in %s", err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) connectAndListen(ctx context.Context) error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	header := http.Header{}
	if l.adminKey != "" {
		header.Set("x-api-key", l.adminKey)
	}

	conn, _, err := dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	logrus.Infof("[LISTENER] Connected to bridge at %s", l.url)

	// Pide el estado de todas las sesiones para resincronizar lo que se
	// perdió mientras estuvimos desconectados.
	if err := conn.WriteJSON(map[string]string{"type": "get-all-sessions"}); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		l.handleFrame(ctx, raw)
	}
}

func (l *Listener) handleFrame(ctx context.Context, raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		logrus.Debugf("[LISTENER] Ignoring unparseable frame: %v", err)
		return
	}
	if f.Type == "" || f.SessionID == "" {
		return
	}

	result := l.processor.Process(ctx, f.Type, f.SessionID, f.Data)
	logrus.Debugf("[LISTENER] %s from %s -> %s", f.Type, f.SessionID, result.Status)
}
