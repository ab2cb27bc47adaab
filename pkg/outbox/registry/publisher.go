package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// lowStockMaxAttempts bounds retries for alerts; a stale alert is dead-lettered early.
const lowStockMaxAttempts = 3

// EventDescriptor links an event type to its aggregate, topic and payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
	// MaxAttempts caps publish attempts for this type; 0 defers to the relay.
	MaxAttempts int
	// Attributes derives Pub/Sub attributes subscribers filter on.
	Attributes func(payload interface{}) map[string]string
}

// AttemptLimit returns the descriptor's cap, bounded by the relay-wide limit.
func (d EventDescriptor) AttemptLimit(relayLimit int) int {
	if d.MaxAttempts > 0 && (relayLimit <= 0 || d.MaxAttempts < relayLimit) {
		return d.MaxAttempts
	}
	return relayLimit
}

// AttributesFor returns the routing attributes for a decoded payload, or nil.
func (d EventDescriptor) AttributesFor(payload interface{}) map[string]string {
	if d.Attributes == nil || payload == nil {
		return nil
	}
	return d.Attributes(payload)
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if cfg.InventoryTopic == "" {
		return nil, fmt.Errorf("inventory topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventOrderPlaced,
			AggregateType:  enums.AggregateOrder,
			Topic:          cfg.OrdersTopic,
			PayloadFactory: func() interface{} { return &payloads.OrderPlacedEvent{} },
			Attributes:     orderPlacedAttributes,
		},
		{
			EventType:      enums.EventLowStock,
			AggregateType:  enums.AggregateStockUnit,
			Topic:          cfg.InventoryTopic,
			PayloadFactory: func() interface{} { return &payloads.LowStockEvent{} },
			MaxAttempts:    lowStockMaxAttempts,
			Attributes:     lowStockAttributes,
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

// Topics lists every topic the registry can route to.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	topics := []string{}
	for _, desc := range r.entries {
		if _, ok := seen[desc.Topic]; ok {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	sort.Strings(topics)
	return topics
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

func orderPlacedAttributes(payload interface{}) map[string]string {
	p, ok := payload.(*payloads.OrderPlacedEvent)
	if !ok {
		return nil
	}
	kind := "guest"
	if p.CustomerID != nil {
		kind = "customer"
	}
	return map[string]string{
		"order_number":  p.OrderNumber,
		"customer_kind": kind,
		"item_count":    strconv.Itoa(len(p.Items)),
		"total":         p.Total.StringFixed(2),
	}
}

func lowStockAttributes(payload interface{}) map[string]string {
	p, ok := payload.(*payloads.LowStockEvent)
	if !ok {
		return nil
	}
	return map[string]string{
		"stock_unit": p.StockUnit,
		"stock":      strconv.Itoa(p.Stock),
		"threshold":  strconv.Itoa(p.Threshold),
		"sold_out":   strconv.FormatBool(p.Stock == 0),
	}
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
