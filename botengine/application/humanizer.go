package application

import (
	"context"
	"math/rand"
	"time"
)

// Ventanas de pausa, en milisegundos. La forma "media de dos uniformes"
// concentra los valores hacia el centro de la ventana, que es como se
// distribuyen los tiempos de reacción humanos reales.
const (
	readPauseMinMs  = 250
	readPauseMaxMs  = 1100
	typingGapMinMs  = 450
	typingGapMaxMs  = 1600
	mediaPauseMinMs = 200
	mediaPauseMaxMs = 800
)

// Humanizer genera las pausas del flujo de respuesta.
type Humanizer struct {
	rng *rand.Rand
}

func NewHumanizer() *Humanizer {
	return &Humanizer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// delay samples the mean of two uniforms over [min, max].
func (h *Humanizer) delay(minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	span := maxMs - minMs
	a := minMs + h.rng.Intn(span+1)
	b := minMs + h.rng.Intn(span+1)
	return time.Duration((a+b)/2) * time.Millisecond
}

// ReadPause is the initial pause before marking the chat read.
func (h *Humanizer) ReadPause() time.Duration {
	return h.delay(readPauseMinMs, readPauseMaxMs)
}

// TypingGap is the pause between consecutive bubbles.
func (h *Humanizer) TypingGap() time.Duration {
	return h.delay(typingGapMinMs, typingGapMaxMs)
}

// MediaPause precede al envío de un adjunto.
func (h *Humanizer) MediaPause() time.Duration {
	return h.delay(mediaPauseMinMs, mediaPauseMaxMs)
}

// TypingFor respects the per-bot configured window when typing simulation
// is on.
func (h *Humanizer) TypingFor(minMs, maxMs int) time.Duration {
	if minMs <= 0 && maxMs <= 0 {
		return h.TypingGap()
	}
	if maxMs < minMs {
		maxMs = minMs
	}
	return h.delay(minMs, maxMs)
}

// FillDelays completa los delays que el modelo no mandó, acotando los que
// sí mandó a la ventana de tipeo.
func (h *Humanizer) FillDelays(delays []int, count int) []time.Duration {
	out := make([]time.Duration, count)
	for i := 0; i < count; i++ {
		if i < len(delays) && delays[i] >= typingGapMinMs && delays[i] <= typingGapMaxMs*3 {
			out[i] = time.Duration(delays[i]) * time.Millisecond
			continue
		}
		out[i] = h.TypingGap()
	}
	return out
}

// Sleep waits out a pause but wakes on context cancellation.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
