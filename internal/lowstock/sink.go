package lowstock

import (
	"context"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Sink delivers a low-stock alert somewhere durable or visible.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Deliver(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// LogSink writes the alert as a structured warning.
type LogSink struct {
	Logger *logger.Logger
}

func (s LogSink) Deliver(ctx context.Context, event Event) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Warn(s.Logger.WithFields(ctx, event.fields()), "stock unit at or below low-stock threshold")
	return nil
}

// MultiSink delivers to every sink and combines their errors.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, event Event) error {
	var err error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		err = multierr.Append(err, sink.Deliver(ctx, event))
	}
	return err
}
