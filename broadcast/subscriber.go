package broadcast

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrSubscriberBusy   = errors.New("subscriber buffer is full")
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewChannelID devolve um ULID ordenável por tempo para identificar a conexão.
func NewChannelID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Subscriber é o Channel de uma conexão de stream.
//
// Send apenas enfileira o frame num buffer limitado; quem escreve na conexão é
// a goroutine do handler, que lê Frames(). Buffer cheio conta como falha de escrita
// e o frame descartado está perdido para esta conexão; não há reenvio.
type Subscriber struct {
	id     string
	frames chan []byte
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewSubscriber(id string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 1
	}
	if id == "" {
		id = NewChannelID()
	}
	return &Subscriber{
		id:     id,
		frames: make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (s *Subscriber) ID() string { return s.id }

func (s *Subscriber) Send(frame []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	select {
	case s.frames <- frame:
		return nil
	default:
		return ErrSubscriberBusy
	}
}

// Close sinaliza Done(); chamadas repetidas são ignoradas.
// O canal de frames não é fechado, para que um Send concorrente nunca entre em pânico.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *Subscriber) Frames() <-chan []byte { return s.frames }

func (s *Subscriber) Done() <-chan struct{} { return s.done }
