package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

const readinessTimeout = 3 * time.Second

type readinessChecker func(context.Context) error

type successEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type dlqStore interface {
	List(context.Context, outbox.DLQFilter) ([]models.OutboxDLQ, error)
	Requeue(context.Context, uuid.UUID) (*models.OutboxDLQ, error)
}

type opsParams struct {
	Env      string
	Logger   *logger.Logger
	Ready    readinessChecker
	Gatherer prometheus.Gatherer
	DLQ      dlqStore
	Metrics  *metrics.OutboxMetrics
}

type dlqEntry struct {
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type"`
	AggregateType string  `json:"aggregate_type"`
	AggregateID   string  `json:"aggregate_id"`
	Reason        string  `json:"reason"`
	Message       *string `json:"message,omitempty"`
	AttemptCount  int     `json:"attempt_count"`
	FailedAt      string  `json:"failed_at"`
}

// newOpsRouter serves readiness, the Prometheus scrape endpoint and, when a store is
// wired, the dead-letter listing and requeue endpoints.
func newOpsRouter(p opsParams) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(p.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Storefront-Env", p.Env)
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()
		if err := p.Ready(ctx); err != nil {
			writeError(w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "relay not ready"))
			return
		}
		writeJSON(w, http.StatusOK, successEnvelope{Data: map[string]string{"status": "ready"}})
	})
	r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))

	if p.DLQ != nil {
		r.Get("/dlq", listDLQ(p))
		r.Post("/dlq/{eventID}/requeue", requeueDLQ(p))
	}
	return r
}

func listDLQ(p opsParams) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var filter outbox.DLQFilter
		if raw := req.URL.Query().Get("event_type"); raw != "" {
			eventType, err := enums.ParseOutboxEventType(raw)
			if err != nil {
				writeError(w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			filter.EventType = eventType
		}
		if raw := req.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			filter.Limit = limit
		}

		rows, err := p.DLQ.List(req.Context(), filter)
		if err != nil {
			p.Logger.Error(req.Context(), "list dead-lettered events", err)
			writeError(w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list dead-lettered events"))
			return
		}
		entries := make([]dlqEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, dlqEntry{
				EventID:       row.EventID.String(),
				EventType:     string(row.EventType),
				AggregateType: string(row.AggregateType),
				AggregateID:   row.AggregateID.String(),
				Reason:        string(row.ErrorReason),
				Message:       row.ErrorMessage,
				AttemptCount:  row.AttemptCount,
				FailedAt:      row.FailedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, successEnvelope{Data: entries})
	}
}

func requeueDLQ(p opsParams) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		eventID, err := uuid.Parse(chi.URLParam(req, "eventID"))
		if err != nil {
			writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "event id must be a uuid"))
			return
		}

		entry, err := p.DLQ.Requeue(req.Context(), eventID)
		switch {
		case errors.Is(err, outbox.ErrNotDeadLettered):
			writeError(w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "event is not dead-lettered"))
			return
		case errors.Is(err, outbox.ErrEventNotPending):
			writeError(w, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "event is no longer pending"))
			return
		case err != nil:
			p.Logger.Error(req.Context(), "requeue dead-lettered event", err)
			writeError(w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "requeue dead-lettered event"))
			return
		}

		p.Metrics.IncRow(string(entry.EventType), metrics.OutboxRequeued)
		p.Logger.Info(p.Logger.WithFields(req.Context(), map[string]any{
			"outbox_id":  eventID.String(),
			"event_type": string(entry.EventType),
			"dlq_reason": string(entry.ErrorReason),
		}), "dead-lettered event requeued")
		writeJSON(w, http.StatusOK, successEnvelope{Data: map[string]string{
			"event_id": eventID.String(),
			"status":   "requeued",
		}})
	}
}

func recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					if logg != nil {
						logg.Error(logg.WithFields(r.Context(), map[string]any{"panic": rec, "path": r.URL.Path}), "panic.recovered", err)
					}
					writeError(w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, err *pkgerrors.Error) {
	meta := pkgerrors.MetadataFor(err.Code())
	writeJSON(w, meta.HTTPStatus, errorEnvelope{Error: apiError{
		Code:    string(err.Code()),
		Message: err.PublicMessage(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
