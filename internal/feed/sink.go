package feed

import (
	"context"

	"go.uber.org/zap"
)

// Sink consumes events off the hub inside the server process.
type Sink interface {
	Name() string
	Filter() Filter
	Deliver(ctx context.Context, e Event) error
}

// RunSink subscribes the sink and delivers events until ctx ends or the hub
// stops. When the hub drops the sink for falling behind, RunSink subscribes
// again and hands the sink a Resync event for its table, since the events
// in between are lost. Delivery errors are logged and skipped.
func RunSink(ctx context.Context, hub *Hub, sink Sink, log *zap.Logger) error {
	log = log.With(zap.String("sink", sink.Name()))
	log.Info("sink started", zap.Stringer("filter", sink.Filter()))

	for {
		sub := hub.Subscribe(sink.Filter())
		dropped := consume(ctx, hub, sub, sink, log)
		sub.Close()
		if !dropped {
			return nil
		}

		log.Warn("sink fell behind, resubscribing")
		deliver(ctx, sink, Event{Table: sink.Filter().Table, Type: Resync}, log)
	}
}

// consume delivers events from sub until it ends. It reports true when the
// hub dropped the subscription while both ctx and the hub are still alive.
func consume(ctx context.Context, hub *Hub, sub *Subscription, sink Sink, log *zap.Logger) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-sub.Events():
			if !ok {
				select {
				case <-hub.done:
					log.Info("sink subscription closed")
					return false
				default:
				}
				return ctx.Err() == nil
			}
			deliver(ctx, sink, e, log)
		}
	}
}

func deliver(ctx context.Context, sink Sink, e Event, log *zap.Logger) {
	if err := sink.Deliver(ctx, e); err != nil {
		log.Error("sink delivery failed",
			zap.String("table", e.Table),
			zap.String("type", string(e.Type)),
			zap.Error(err))
	}
}
