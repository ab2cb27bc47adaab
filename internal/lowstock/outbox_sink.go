package lowstock

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OutboxSink records the alert as a low_stock outbox event in its own transaction so
// the relay can publish it.
type OutboxSink struct {
	tx     txRunner
	outbox outboxEmitter
}

// NewOutboxSink builds the sink.
func NewOutboxSink(tx txRunner, emitter outboxEmitter) (*OutboxSink, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if emitter == nil {
		return nil, errors.New("outbox emitter required")
	}
	return &OutboxSink{tx: tx, outbox: emitter}, nil
}

func (s *OutboxSink) Deliver(ctx context.Context, event Event) error {
	aggregateID := event.Unit.ProductID
	if event.Unit.VariantID != nil {
		aggregateID = *event.Unit.VariantID
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateStockUnit,
			AggregateID:   aggregateID,
			Data:          event.Payload(),
			Version:       1,
			OccurredAt:    event.OccurredAt,
		})
	})
}
