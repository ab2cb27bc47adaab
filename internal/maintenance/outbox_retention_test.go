package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

type fakePruner struct {
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakePruner) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 3, f.err
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestOutboxRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.FixedZone("PST", -8*3600))
	pruner := &fakePruner{}
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		DB:            passthroughTx{},
		Repository:    pruner,
		RetentionDays: 7,
		Clock:         func() time.Time { return now },
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, now.UTC().Add(-7*24*time.Hour), pruner.cutoff)
	assert.Equal(t, time.UTC, pruner.cutoff.Location())
}

func TestOutboxRetentionDefaultsAndErrors(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionParams{Repository: &fakePruner{}})
	require.Error(t, err)
	_, err = NewOutboxRetentionJob(OutboxRetentionParams{DB: passthroughTx{}})
	require.Error(t, err)

	pruner := &fakePruner{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{DB: passthroughTx{}, Repository: pruner})
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, job.retention)
	require.ErrorContains(t, job.Run(context.Background()), "boom")
}

func TestOutboxRetentionPrunesOnlyOldPublishedRows(t *testing.T) {
	conn := dbtest.Open(t)
	repo := outbox.NewRepository(conn)
	now := time.Now().UTC()
	stale := now.Add(-45 * 24 * time.Hour)

	keep := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	drop := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderPlaced, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`), PublishedAt: &stale}
	require.NoError(t, repo.Insert(conn, keep))
	require.NoError(t, repo.Insert(conn, drop))

	job, err := NewOutboxRetentionJob(OutboxRetentionParams{DB: db.Wrap(conn), Repository: repo})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	var ids []uuid.UUID
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Pluck("id", &ids).Error)
	assert.Equal(t, []uuid.UUID{keep.ID}, ids)
}
