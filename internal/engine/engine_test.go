package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ble-atlas/internal/models"
	"ble-atlas/internal/store"
)

func rssi(v float64) *float64 {
	return &v
}

func newTestEngine(t *testing.T) (*Engine, *store.MemoryObserverStore, *store.MemoryScaleStore) {
	t.Helper()

	observers := store.NewMemoryObserverStore()
	scales := store.NewMemoryScaleStore()

	eng, err := New(context.Background(), observers, scales, zerolog.Nop())
	require.NoError(t, err)

	return eng, observers, scales
}

func TestSubmitReportCreatesObserverAtDefaultPosition(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	err := eng.SubmitReport(context.Background(), &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	})
	require.NoError(t, err)

	snap := eng.Snapshot()
	display, ok := snap.Displays["disp-1"]
	require.True(t, ok)
	assert.Equal(t, models.DefaultObserverX, display.X)
	assert.Equal(t, models.DefaultObserverY, display.Y)
	assert.False(t, display.Configured)
	assert.False(t, display.LastUpdate.IsZero())
}

func TestSubmitReportMalformedRejectedAtomically(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	err := eng.SubmitReport(context.Background(), &models.Report{
		DisplayID: "disp-1",
		Devices: []models.ReportDevice{
			{Address: "aa:bb", RSSI: rssi(-65)},
			{Address: "", RSSI: rssi(-70)},
		},
	})
	require.ErrorIs(t, err, ErrMalformedReport)

	snap := eng.Snapshot()
	assert.Empty(t, snap.Displays, "rejected report must not create the observer")
	assert.Empty(t, snap.Devices)
}

func TestSubmitReportReplacesSightingsWholesale(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))
	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "cc:dd", RSSI: rssi(-70)}},
	}))

	snap := eng.Snapshot()
	assert.NotContains(t, snap.Devices, "aa:bb",
		"device from the previous report must vanish immediately")
	assert.Contains(t, snap.Devices, "cc:dd")
}

func TestEndToEndTwoObserverScenario(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SetObserverPosition(ctx, "A", 100, 100, "Display A"))
	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "A",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))

	est, ok := eng.Snapshot().Devices["aa:bb"]
	require.True(t, ok)
	assert.Equal(t, 100.0, est.X)
	assert.Equal(t, 100.0, est.Y)
	assert.Equal(t, models.ConfidenceLow, est.Confidence)

	require.NoError(t, eng.SetObserverPosition(ctx, "B", 300, 100, "Display B"))
	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "B",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-70)}},
	}))

	est, ok = eng.Snapshot().Devices["aa:bb"]
	require.True(t, ok)
	assert.Equal(t, models.ConfidenceMedium, est.Confidence)
	assert.Greater(t, est.X, 100.0)
	assert.Less(t, est.X, 300.0)
	// A reported the stronger signal, so the estimate leans its way.
	assert.Less(t, est.X, 200.0)
	assert.InDelta(t, 100.0, est.Y, 1e-9)
}

func TestDeleteObserverVanishingProperty(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "O",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))
	require.Contains(t, eng.Snapshot().Devices, "aa:bb")

	require.NoError(t, eng.DeleteObserver(ctx, "O"))

	snap := eng.Snapshot()
	assert.NotContains(t, snap.Devices, "aa:bb")
	assert.NotContains(t, snap.Displays, "O")
}

func TestDeleteUnknownObserverIsNoOpSuccess(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	assert.NoError(t, eng.DeleteObserver(context.Background(), "never-seen"))
}

func TestSetObserverPositionIdempotent(t *testing.T) {
	eng, observers, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SetObserverPosition(ctx, "disp-1", 10, 20, "Kitchen"))
	require.NoError(t, eng.SetObserverPosition(ctx, "disp-1", 10, 20, "Kitchen"))

	records, err := observers.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records["disp-1"]
	assert.Equal(t, 10.0, rec.X)
	assert.Equal(t, 20.0, rec.Y)
	assert.Equal(t, "Kitchen", rec.Name)
}

func TestCalibratedPositionUsedForNewReports(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SetObserverPosition(ctx, "disp-1", 42, 24, "Hall"))
	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))

	est := eng.Snapshot().Devices["aa:bb"]
	assert.Equal(t, 42.0, est.X)
	assert.Equal(t, 24.0, est.Y)
}

func TestRestartRoundTrip(t *testing.T) {
	observers := store.NewMemoryObserverStore()
	scales := store.NewMemoryScaleStore()
	ctx := context.Background()

	eng, err := New(ctx, observers, scales, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, eng.SetObserverPosition(ctx, "disp-1", 77, 88, "Lobby"))
	_, err = eng.SetScale(ctx, 200, 5, "m")
	require.NoError(t, err)

	// Same durable stores, fresh process.
	reloaded, err := New(ctx, observers, scales, zerolog.Nop())
	require.NoError(t, err)

	display, ok := reloaded.Snapshot().Displays["disp-1"]
	require.True(t, ok)
	assert.True(t, display.Configured)
	assert.Equal(t, 77.0, display.X)
	assert.Equal(t, 88.0, display.Y)
	assert.Equal(t, "Lobby", display.Name)

	scale := reloaded.GetScale()
	require.NotNil(t, scale)
	assert.InDelta(t, 40.0, scale.PixelsPerUnit, 1e-9)
	assert.Equal(t, "m", scale.Unit)
}

func TestRenameObserverRecomputesNames(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))
	require.NoError(t, eng.RenameObserver(ctx, "disp-1", "Entrance"))

	snap := eng.Snapshot()
	assert.Equal(t, "Entrance", snap.Displays["disp-1"].Name)
	// Rename runs a recompute, so the estimate set is republished.
	assert.Contains(t, snap.Devices, "aa:bb")
}

func TestSubmitReportDuplicateAddressCountsOneObserver(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	require.NoError(t, eng.SubmitReport(context.Background(), &models.Report{
		DisplayID: "disp-1",
		Devices: []models.ReportDevice{
			{Address: "aa:bb", RSSI: rssi(-65)},
			{Address: "aa:bb", RSSI: rssi(-70)},
		},
	}))

	est, ok := eng.Snapshot().Devices["aa:bb"]
	require.True(t, ok)
	assert.Equal(t, models.ConfidenceLow, est.Confidence,
		"one observer must stay low confidence no matter how often it lists the address")
	assert.Equal(t, 1, est.SeenBy)
}

func TestSnapshotPublishedBeforeUpdateHook(t *testing.T) {
	observers := store.NewMemoryObserverStore()
	scales := store.NewMemoryScaleStore()

	var eng *Engine
	var err error
	var hookSnaps []*models.Snapshot

	eng, err = New(context.Background(), observers, scales, zerolog.Nop(),
		WithUpdateHook(func(s *models.Snapshot) {
			// By the time the hook runs, readers must already see the
			// snapshot the hook was handed.
			hookSnaps = append(hookSnaps, eng.Snapshot())
			assert.Same(t, s, eng.Snapshot())
		}))
	require.NoError(t, err)

	require.NoError(t, eng.SubmitReport(context.Background(), &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))
	require.Len(t, hookSnaps, 1)
}

func TestConcurrentMutationsYieldCoherentSnapshot(t *testing.T) {
	eng, observers, _ := newTestEngine(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("disp-%02d", i)
			assert.NoError(t, eng.SetObserverPosition(ctx, id, float64(i), 0, ""))
			assert.NoError(t, eng.SubmitReport(ctx, &models.Report{
				DisplayID: id,
				Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
			}))
		}(i)
	}
	wg.Wait()

	// All mutations returned, so the published snapshot must reflect
	// every one of them, not an older recompute that lost the race.
	snap := eng.Snapshot()
	require.Len(t, snap.Displays, n)
	assert.Equal(t, n, snap.Devices["aa:bb"].SeenBy)

	records, err := observers.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestUpdateHookFiresOnEveryMutation(t *testing.T) {
	observers := store.NewMemoryObserverStore()
	scales := store.NewMemoryScaleStore()

	var published []*models.Snapshot
	eng, err := New(context.Background(), observers, scales, zerolog.Nop(),
		WithUpdateHook(func(s *models.Snapshot) {
			published = append(published, s)
		}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, eng.SubmitReport(ctx, &models.Report{
		DisplayID: "disp-1",
		Devices:   []models.ReportDevice{{Address: "aa:bb", RSSI: rssi(-65)}},
	}))
	require.NoError(t, eng.RenameObserver(ctx, "disp-1", "Entrance"))
	require.NoError(t, eng.DeleteObserver(ctx, "disp-1"))

	assert.Len(t, published, 3)
}

func TestScaleValidation(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.SetScale(ctx, 0, 5, "m")
	assert.ErrorIs(t, err, ErrMalformedReport)

	_, err = eng.SetScale(ctx, 100, 5, "furlong")
	assert.ErrorIs(t, err, ErrMalformedReport)

	assert.Nil(t, eng.GetScale(), "failed calibrations must not stick")
}
