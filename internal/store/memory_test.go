package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ble-atlas/internal/models"
)

func TestMemoryObserverStoreRoundTrip(t *testing.T) {
	s := NewMemoryObserverStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, models.ObserverRecord{ID: "a", X: 1, Y: 2, Name: "A"}))
	require.NoError(t, s.Save(ctx, models.ObserverRecord{ID: "a", X: 3, Y: 4, Name: "A2"}))
	require.NoError(t, s.Save(ctx, models.ObserverRecord{ID: "b", X: 5, Y: 6, Name: "B"}))

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3.0, records["a"].X, "save must overwrite by id")

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"), "double delete must succeed")

	records, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, records, "a")
}

func TestMemoryScaleStoreRoundTrip(t *testing.T) {
	s := NewMemoryScaleStore()
	ctx := context.Background()

	rec, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec, "unset scale loads as nil")

	require.NoError(t, s.Save(ctx, models.ScaleRecord{PixelsPerUnit: 40, Unit: "m"}))

	rec, err = s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 40.0, rec.PixelsPerUnit)
}
