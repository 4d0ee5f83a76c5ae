package broadcast

import (
	"fmt"
	"log/slog"
	"sync"

	"contact-stream/internal/jsoncodec"

	"github.com/samber/lo"
)

// Channel é uma conexão de saída capaz de receber eventos já enquadrados.
//
// Send não pode bloquear: a entrega é fire-and-forget.
type Channel interface {
	ID() string
	Send(frame []byte) error
	Close()
}

// BroadcastWriteError representa a falha de entrega para um único canal.
// Nunca é propagado para quem publica; só vai para log e métricas.
type BroadcastWriteError struct {
	ChannelID string
	Event     string
	Err       error
}

func (e *BroadcastWriteError) Error() string {
	return fmt.Sprintf("broadcast %q to %s: %v", e.Event, e.ChannelID, e.Err)
}

func (e *BroadcastWriteError) Unwrap() error { return e.Err }

// Observer recebe os sinais do hub para métricas. Todos os métodos são opcionais
// na prática (NopObserver).
type Observer interface {
	Subscribed(active int)
	Unsubscribed(active int)
	Published(event string, delivered int)
	WriteFailed(event string)
}

type NopObserver struct{}

func (NopObserver) Subscribed(int)        {}
func (NopObserver) Unsubscribed(int)      {}
func (NopObserver) Published(string, int) {}
func (NopObserver) WriteFailed(string)    {}

// Hub é o conjunto, local ao processo, de canais ativos.
//
// Não guarda histórico: quem assina depois de um publish não recebe aquele evento.
// É seguro para uso concorrente.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]Channel
	log      *slog.Logger
	observer Observer
}

type HubOption func(*Hub)

func WithObserver(o Observer) HubOption {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

func NewHub(log *slog.Logger, opts ...HubOption) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		channels: make(map[string]Channel),
		log:      log,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe adiciona o canal ao conjunto ativo.
func (h *Hub) Subscribe(ch Channel) {
	h.mu.Lock()
	h.channels[ch.ID()] = ch
	n := len(h.channels)
	h.mu.Unlock()

	h.observer.Subscribed(n)
	h.log.Debug("Stream subscribed", "channel", ch.ID(), "active", n)
}

// Unsubscribe remove o canal; chamar com um canal ausente é no-op.
func (h *Hub) Unsubscribe(ch Channel) {
	h.mu.Lock()
	_, ok := h.channels[ch.ID()]
	if ok {
		delete(h.channels, ch.ID())
	}
	n := len(h.channels)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.observer.Unsubscribed(n)
	h.log.Debug("Stream unsubscribed", "channel", ch.ID(), "active", n)
}

// Publish codifica payload uma única vez e envia o evento a todos os canais ativos.
//
// Retorna quantos canais aceitaram o frame. Falha de um canal não interrompe os demais.
func (h *Hub) Publish(event string, payload any) int {
	data, err := jsoncodec.Marshal(payload)
	if err != nil {
		h.log.Error("Failed to encode broadcast payload", "event", event, "err", err)
		return 0
	}
	frame := Frame(event, data)

	// snapshot: um Unsubscribe concorrente não altera a iteração em andamento
	h.mu.RLock()
	targets := lo.Values(h.channels)
	h.mu.RUnlock()

	delivered := 0
	for _, ch := range targets {
		if err := ch.Send(frame); err != nil {
			werr := &BroadcastWriteError{ChannelID: ch.ID(), Event: event, Err: err}
			h.log.Warn("Broadcast write failed", "err", werr)
			h.observer.WriteFailed(event)
			continue
		}
		delivered++
	}
	h.observer.Published(event, delivered)
	return delivered
}

// Len devolve o número de canais ativos.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// Close fecha e remove todos os canais. Usado no shutdown do servidor para
// liberar as conexões de stream.
func (h *Hub) Close() {
	h.mu.Lock()
	targets := lo.Values(h.channels)
	h.channels = make(map[string]Channel)
	h.mu.Unlock()

	for _, ch := range targets {
		ch.Close()
	}
	if len(targets) > 0 {
		h.observer.Unsubscribed(0)
		h.log.Info("Closed stream channels", "count", len(targets))
	}
}
