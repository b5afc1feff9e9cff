package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/database"
	"github.com/emilythestrangee/feedback-board/backend/internal/metrics"
)

// Publisher is where the listener sends decoded events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Listener holds a LISTEN connection on the change channel.
type Listener struct {
	dsn     string
	pub     Publisher
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewListener(dsn string, pub Publisher, log *zap.Logger, m *metrics.Metrics) *Listener {
	return &Listener{dsn: dsn, pub: pub, log: log, metrics: m}
}

// Run listens until ctx is cancelled. pq reconnects on its own; after a
// reconnect a Resync event tells subscribers to re-fetch.
func (l *Listener) Run(ctx context.Context) error {
	report := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Warn("change feed connection problem", zap.Int("event", int(ev)), zap.Error(err))
		}
	}

	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, report)
	defer listener.Close()

	if err := listener.Listen(database.ChangeChannel); err != nil {
		return fmt.Errorf("error listening on %s: %w", database.ChangeChannel, err)
	}
	l.log.Info("change feed listening", zap.String("channel", database.ChangeChannel))

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("change feed stopping")
			return nil

		case n := <-listener.Notify:
			if n == nil {
				l.log.Warn("change feed reconnected, asking subscribers to resync")
				l.publish(ctx, Event{Type: Resync})
				continue
			}
			e, err := ParseEvent([]byte(n.Extra))
			if err != nil {
				l.log.Error("dropping malformed change event", zap.Error(err))
				continue
			}
			l.publish(ctx, e)

		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.log.Warn("change feed ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (l *Listener) publish(ctx context.Context, e Event) {
	if l.metrics != nil {
		l.metrics.FeedEvents.WithLabelValues(e.Table, string(e.Type)).Inc()
	}
	l.pub.Publish(ctx, e)
}
