package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// shutdownOnSignal ejecuta fn cuando llega SIGINT/SIGTERM. No bloquea.
func shutdownOnSignal(fn func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[APP] Termination signal received, shutting down gracefully...")
		fn()
	}()
}

// signalContext devuelve un contexto que se cancela con SIGINT/SIGTERM,
// para los subcomandos de loop (reconcile, dispatcher, listener).
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
