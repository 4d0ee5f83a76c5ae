package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"contact-stream/broadcast"
)

// StreamHub é a parte de broadcast.Hub usada pelo stream.
type StreamHub interface {
	Subscribe(ch broadcast.Channel)
	Unsubscribe(ch broadcast.Channel)
}

type streamer struct {
	hub    StreamHub
	log    *slog.Logger
	ping   time.Duration
	buffer int
}

// serve mantém a conexão SSE aberta. Esta goroutine é a única que escreve no
// ResponseWriter: o hub só enfileira frames no Subscriber.
func (s *streamer) serve(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	sub := broadcast.NewSubscriber("", s.buffer)
	// assina antes de mandar os headers: nada publicado depois do 200 se perde
	s.hub.Subscribe(sub)
	defer func() {
		s.hub.Unsubscribe(sub)
		sub.Close()
	}()

	// o WriteTimeout do servidor não vale para o stream
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.log.Debug("Could not clear write deadline", "err", err)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	if r.ProtoMajor == 1 {
		h.Set("Connection", "keep-alive")
	}
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Error("Stream flush unsupported", "err", err)
		return
	}

	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case frame := <-sub.Frames():
			if !s.write(w, rc, sub, frame) {
				return
			}
		case <-ticker.C:
			if !s.write(w, rc, sub, broadcast.PingFrame) {
				return
			}
		}
	}
}

func (s *streamer) write(w http.ResponseWriter, rc *http.ResponseController, sub *broadcast.Subscriber, frame []byte) bool {
	if _, err := w.Write(frame); err != nil {
		s.log.Debug("Stream write failed", "channel", sub.ID(), "err", err)
		return false
	}
	if err := rc.Flush(); err != nil {
		s.log.Debug("Stream flush failed", "channel", sub.ID(), "err", err)
		return false
	}
	return true
}
