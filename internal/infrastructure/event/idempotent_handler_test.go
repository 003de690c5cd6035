package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenStore struct{}

func (brokenStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis timeout")
}
func (brokenStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (brokenStore) Release(context.Context, string) error             { return nil }
func (brokenStore) Close() error                                      { return nil }

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := &recordingHandler{types: []string{"SaleCreated"}}
	h := NewIdempotentHandler("archiver", inner, store, time.Hour, zap.NewNop())
	assert.Equal(t, []string{"SaleCreated"}, h.EventTypes())

	e := newTestEvent("SaleCreated")
	require.NoError(t, h.Handle(context.Background(), e))
	require.NoError(t, h.Handle(context.Background(), e))
	assert.Equal(t, 1, inner.count())

	other := NewIdempotentHandler("audit", &recordingHandler{}, store, time.Hour, zap.NewNop())
	require.NoError(t, other.Handle(context.Background(), e))
	assert.Equal(t, 2, store.Size(), "claims are scoped per handler name")
}

func TestIdempotentHandler_ReleasesOnFailure(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := &recordingHandler{err: errors.New("upload failed")}
	h := NewIdempotentHandler("archiver", inner, store, time.Hour, zap.NewNop())
	e := newTestEvent("SaleCreated")

	assert.Error(t, h.Handle(context.Background(), e))
	inner.err = nil
	assert.NoError(t, h.Handle(context.Background(), e))
	assert.Equal(t, 2, inner.count())
}

func TestIdempotentHandler_StoreErrorStillHandles(t *testing.T) {
	inner := &recordingHandler{}
	h := NewIdempotentHandler("archiver", inner, brokenStore{}, 0, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newTestEvent("SaleCreated")))
	assert.Equal(t, 1, inner.count())
}
