package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/metrics"
)

const subscriptionBuffer = 64

// Subscription is one subscriber's view of the hub. Events stops yielding
// when the subscription is closed, the hub stops, or the subscriber fell so
// far behind that the hub dropped it.
type Subscription struct {
	hub    *Hub
	filter Filter
	send   chan Event
	once   sync.Once
}

func (s *Subscription) Events() <-chan Event {
	return s.send
}

func (s *Subscription) Filter() Filter {
	return s.filter
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}

type Hub struct {
	subs       map[*Subscription]struct{}
	register   chan *Subscription
	unregister chan *Subscription
	broadcast  chan Event
	done       chan struct{}

	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		subs:       make(map[*Subscription]struct{}),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		broadcast:  make(chan Event),
		done:       make(chan struct{}),
		log:        log,
		metrics:    m,
	}
}

// Run owns the subscriber set until ctx is cancelled, then closes every
// subscription.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for s := range h.subs {
			h.remove(s)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-h.register:
			h.subs[s] = struct{}{}
			h.gauge(1)
			h.log.Debug("feed subscription added", zap.Stringer("filter", s.filter))

		case s := <-h.unregister:
			h.remove(s)

		case e := <-h.broadcast:
			for s := range h.subs {
				if !s.filter.Match(e) {
					continue
				}
				select {
				case s.send <- e:
				default:
					h.log.Warn("dropping slow feed subscriber", zap.Stringer("filter", s.filter))
					if h.metrics != nil {
						h.metrics.FeedDropped.Inc()
					}
					h.remove(s)
				}
			}
		}
	}
}

func (h *Hub) remove(s *Subscription) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	h.gauge(-1)
	close(s.send)
}

func (h *Hub) gauge(delta float64) {
	if h.metrics != nil {
		h.metrics.FeedSubscriptions.Add(delta)
	}
}

// Subscribe registers a new subscription. If the hub has stopped the
// subscription comes back already closed.
func (h *Hub) Subscribe(f Filter) *Subscription {
	s := &Subscription{hub: h, filter: f, send: make(chan Event, subscriptionBuffer)}
	select {
	case h.register <- s:
	case <-h.done:
		close(s.send)
	}
	return s
}

// Publish hands e to the hub. It blocks until the hub takes it, the hub
// stops, or ctx ends.
func (h *Hub) Publish(ctx context.Context, e Event) {
	select {
	case h.broadcast <- e:
	case <-h.done:
	case <-ctx.Done():
	}
}
