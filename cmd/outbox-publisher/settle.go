package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// verdict is what happened to one row on this pass.
type verdict struct {
	outcome outcome
	topic   string
	limit   int
	reason  enums.OutboxDLQErrorReason
	err     error
}

// deliver resolves and publishes a row and decides its fate. Decode failures and
// missing publishers are dead-lettered at once; transient publish errors retry until
// the event type's attempt limit.
func (r *Relay) deliver(ctx context.Context, row models.OutboxEvent) verdict {
	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return verdict{outcome: outcomeDeadLetter, limit: r.maxAttempts, reason: enums.OutboxDLQReasonNonRetryable, err: err}
	}

	v := verdict{
		topic: resolved.Descriptor.Topic,
		limit: resolved.Descriptor.AttemptLimit(r.maxAttempts),
	}
	err = r.publish(ctx, row, resolved)
	var nonRetryable registry.NonRetryableError
	switch {
	case err == nil:
		v.outcome = outcomePublished
	case errors.As(err, &nonRetryable):
		v.outcome = outcomeDeadLetter
		v.reason = enums.OutboxDLQReasonNonRetryable
		v.err = err
	case row.AttemptCount+1 >= v.limit:
		v.outcome = outcomeDeadLetter
		v.reason = enums.OutboxDLQReasonMaxAttempts
		v.err = fmt.Errorf("gave up after %d attempts: %w", v.limit, err)
	default:
		v.outcome = outcomeRetry
		v.err = err
	}
	return v
}

// settle records the verdict on the row inside the batch transaction.
func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, v verdict) error {
	logCtx := r.logg.WithFields(ctx, rowFields(row, v))
	eventType := string(row.EventType)

	switch v.outcome {
	case outcomePublished:
		if err := r.repo.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.metrics.IncRow(eventType, metrics.OutboxPublished)
		r.logg.Info(logCtx, "outbox event published")

	case outcomeRetry:
		if err := r.repo.MarkFailedTx(tx, row.ID, v.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", row.ID, err)
		}
		r.metrics.IncRow(eventType, metrics.OutboxRetried)
		r.logg.Warn(r.logg.WithField(logCtx, "error", v.err.Error()), "outbox publish failed, will retry")

	case outcomeDeadLetter:
		msg := v.err.Error()
		entry := models.OutboxDLQ{
			EventID:       row.ID,
			EventType:     row.EventType,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			Payload:       row.Payload,
			ErrorReason:   v.reason,
			ErrorMessage:  &msg,
			AttemptCount:  row.AttemptCount + 1,
			FailedAt:      time.Now().UTC(),
		}
		if err := r.dlq.InsertTx(tx, entry); err != nil {
			return fmt.Errorf("dead-letter %s: %w", row.ID, err)
		}
		// Parked at the relay-wide limit so the fetch query never returns it.
		if err := r.repo.MarkTerminalTx(tx, row.ID, v.err, r.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", row.ID, err)
		}
		r.metrics.IncRow(eventType, metrics.OutboxTerminal)
		r.logg.Warn(r.logg.WithField(logCtx, "error", msg), "outbox event dead-lettered")
	}
	return nil
}

func rowFields(row models.OutboxEvent, v verdict) map[string]any {
	fields := map[string]any{
		"outbox_id":      row.ID.String(),
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID.String(),
		"attempt":        row.AttemptCount + 1,
		"attempt_limit":  v.limit,
	}
	if v.topic != "" {
		fields["topic"] = v.topic
	}
	if v.reason != "" {
		fields["dlq_reason"] = string(v.reason)
	}
	return fields
}
