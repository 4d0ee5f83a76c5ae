package broadcast

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type failingChannel struct {
	id    string
	err   error
	calls int
}

func (f *failingChannel) ID() string { return f.id }
func (f *failingChannel) Send([]byte) error {
	f.calls++
	return f.err
}
func (f *failingChannel) Close() {}

// leavingChannel se remove do hub de dentro do próprio Send.
type leavingChannel struct {
	*Subscriber
	hub *Hub
}

func (l leavingChannel) Send(frame []byte) error {
	l.hub.Unsubscribe(l)
	return l.Subscriber.Send(frame)
}

type countingObserver struct {
	mu        sync.Mutex
	active    int
	failures  int
	delivered int
}

func (o *countingObserver) Subscribed(n int)   { o.set(n) }
func (o *countingObserver) Unsubscribed(n int) { o.set(n) }
func (o *countingObserver) set(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = n
}
func (o *countingObserver) Published(_ string, d int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivered += d
}
func (o *countingObserver) WriteFailed(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

type brokenPayload struct{}

func (brokenPayload) MarshalJSON() ([]byte, error) { return nil, errors.New("boom") }

func newTestHub(opts ...HubOption) *Hub {
	return NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), opts...)
}

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	a := NewSubscriber("a", 4)
	b := NewSubscriber("b", 4)
	hub.Subscribe(a)
	hub.Subscribe(b)

	n := hub.Publish("contact:new", map[string]any{"id": 1})
	req.Equal(2, n)

	want := "event: contact:new\ndata: {\"id\":1}\n\n"
	req.Equal(want, string(<-a.Frames()))
	req.Equal(want, string(<-b.Frames()))
}

func TestHub_NoHistoryForLateSubscribers(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	req.Equal(0, hub.Publish("contact:new", 1))

	late := NewSubscriber("late", 4)
	hub.Subscribe(late)
	req.Len(late.Frames(), 0)
}

func TestHub_FailingChannelDoesNotStopOthers(t *testing.T) {
	req := require.New(t)
	obs := &countingObserver{}
	hub := newTestHub(WithObserver(obs))

	bad := &failingChannel{id: "bad", err: errors.New("broken pipe")}
	closed := NewSubscriber("closed", 4)
	closed.Close()
	good := NewSubscriber("good", 4)

	hub.Subscribe(bad)
	hub.Subscribe(closed)
	hub.Subscribe(good)

	n := hub.Publish("contact:new", "payload")

	req.Equal(1, n)
	req.Equal(1, bad.calls)
	req.Len(good.Frames(), 1)
	req.Equal(2, obs.failures)
	req.Equal(1, obs.delivered)
}

func TestHub_BusySubscriberCountsAsFailure(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	slow := NewSubscriber("slow", 1)
	hub.Subscribe(slow)

	req.Equal(1, hub.Publish("e", 1))
	req.Equal(0, hub.Publish("e", 2))
	req.ErrorIs(slow.Send([]byte("x")), ErrSubscriberBusy)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	req := require.New(t)
	obs := &countingObserver{}
	hub := newTestHub(WithObserver(obs))

	s := NewSubscriber("s", 1)
	hub.Subscribe(s)
	req.Equal(1, hub.Len())
	req.Equal(1, obs.active)

	hub.Unsubscribe(s)
	hub.Unsubscribe(s)
	hub.Unsubscribe(NewSubscriber("never-subscribed", 1))

	req.Equal(0, hub.Len())
	req.Equal(0, obs.active)
	req.Equal(0, hub.Publish("e", 1))
}

func TestHub_UnsubscribeFromWithinSend(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	leaving := leavingChannel{Subscriber: NewSubscriber("leaving", 2), hub: hub}
	other := NewSubscriber("other", 2)
	hub.Subscribe(leaving)
	hub.Subscribe(other)

	req.Equal(2, hub.Publish("e", 1))
	req.Equal(1, hub.Len())
	req.Len(other.Frames(), 1)

	req.Equal(1, hub.Publish("e", 2))
	req.Len(other.Frames(), 2)
}

func TestHub_CloseReleasesSubscribers(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	s := NewSubscriber("", 1)
	req.NotEmpty(s.ID())
	hub.Subscribe(s)

	hub.Close()

	req.Equal(0, hub.Len())
	select {
	case <-s.Done():
	default:
		req.Fail("subscriber should be closed")
	}
	req.ErrorIs(s.Send([]byte("x")), ErrSubscriberClosed)
	s.Close()
}

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := NewSubscriber("", 8)
			hub.Subscribe(s)
			hub.Unsubscribe(s)
		}()
		go func() {
			defer wg.Done()
			hub.Publish("e", i)
		}()
	}
	wg.Wait()
	require.Equal(t, 0, hub.Len())
}

func TestHub_EncodeFailureDeliversNothing(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()
	s := NewSubscriber("s", 1)
	hub.Subscribe(s)

	req.Equal(0, hub.Publish("e", brokenPayload{}))
	req.Len(s.Frames(), 0)
}
