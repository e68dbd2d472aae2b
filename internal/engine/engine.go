package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ble-atlas/internal/models"
	"ble-atlas/internal/store"
)

// SightingSink receives accepted sightings after each report, e.g. for
// telemetry export. The engine never reads anything back from it.
type SightingSink interface {
	WriteSightings(ctx context.Context, observerID string, sightings []models.Sighting) error
}

// Engine owns all tracking state: the live observer registry, the last
// computed set of device estimates, and the scale calibration. Every
// mutation applies its registry change and a full recompute under one
// lock; the resulting snapshot is published through an atomic pointer
// so reads never block writers.
type Engine struct {
	mu        sync.Mutex
	observers map[string]*models.Observer
	scale     *models.ScaleRecord

	snapshot atomic.Pointer[models.Snapshot]

	observerStore store.ObserverStore
	scaleStore    store.ScaleStore

	referenceRSSI float64
	sink          SightingSink
	onUpdate      func(*models.Snapshot)

	logger zerolog.Logger
}

type Option func(*Engine)

// WithReferenceRSSI overrides the path-loss calibration reference.
func WithReferenceRSSI(rssi float64) Option {
	return func(e *Engine) {
		if rssi != 0 {
			e.referenceRSSI = rssi
		}
	}
}

// WithSightingSink attaches a telemetry sink for accepted sightings.
func WithSightingSink(sink SightingSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithUpdateHook registers a callback invoked with every freshly
// published snapshot, outside the engine lock.
func WithUpdateHook(fn func(*models.Snapshot)) Option {
	return func(e *Engine) {
		e.onUpdate = fn
	}
}

// New builds an engine seeded from durable storage: calibrated
// observers come back with their positions and configured flags, the
// scale record with its values.
func New(ctx context.Context, observers store.ObserverStore, scales store.ScaleStore, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		observers:     make(map[string]*models.Observer),
		observerStore: observers,
		scaleStore:    scales,
		referenceRSSI: DefaultReferenceRSSI,
		logger:        logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	records, err := observers.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load observer records: %w", err)
	}
	for id, rec := range records {
		obs := &models.Observer{
			ID:         id,
			Name:       rec.Name,
			X:          rec.X,
			Y:          rec.Y,
			Configured: true,
		}
		obs.Prepare()
		e.observers[id] = obs
	}

	scale, err := scales.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scale record: %w", err)
	}
	e.scale = scale

	e.snapshot.Store(e.buildSnapshot(nil))

	logger.Info().
		Int("calibrated_observers", len(records)).
		Bool("scale_configured", scale != nil).
		Msg("Engine state loaded from storage")

	return e, nil
}

// SubmitReport applies one observer report: the observer is created at
// the default position if unseen, its sighting snapshot is replaced
// wholesale, and every device estimate is recomputed before the call
// returns. A malformed report is rejected before any state changes.
func (e *Engine) SubmitReport(ctx context.Context, report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedReport, err)
	}

	sightings := make([]models.Sighting, 0, len(report.Devices))
	for _, d := range report.Devices {
		rssi := *d.RSSI
		sightings = append(sightings, models.Sighting{
			Address:  d.Address,
			Name:     d.Name,
			RSSI:     rssi,
			Distance: EstimateDistance(rssi, e.referenceRSSI),
		})
	}

	e.mu.Lock()
	obs, ok := e.observers[report.DisplayID]
	if !ok {
		obs = &models.Observer{
			ID: report.DisplayID,
			X:  models.DefaultObserverX,
			Y:  models.DefaultObserverY,
		}
		e.observers[report.DisplayID] = obs
	}
	if report.DisplayName != "" {
		obs.Name = report.DisplayName
	}
	obs.Prepare()
	obs.Sightings = sightings
	obs.LastReportAt = time.Now()

	snap := e.recomputePublishLocked()
	e.mu.Unlock()

	e.notify(snap)

	if e.sink != nil {
		if err := e.sink.WriteSightings(ctx, report.DisplayID, sightings); err != nil {
			e.logger.Warn().Err(err).
				Str("observer_id", report.DisplayID).
				Msg("Failed to export sightings")
		}
	}

	return nil
}

// SetObserverPosition calibrates an observer. It is the only operation
// that marks the observer configured, and its durable record is what a
// restart reloads. Unknown ids are created on write.
func (e *Engine) SetObserverPosition(ctx context.Context, id string, x, y float64, name string) error {
	if id == "" {
		return fmt.Errorf("%w: observer id is required", ErrMalformedReport)
	}

	e.mu.Lock()
	obs, ok := e.observers[id]
	if !ok {
		obs = &models.Observer{ID: id}
		e.observers[id] = obs
	}
	obs.X = x
	obs.Y = y
	if name != "" {
		obs.Name = name
	}
	obs.Configured = true
	obs.Prepare()

	// Persist and publish before releasing the lock, so racing
	// mutations cannot land durable records or snapshots out of order.
	e.persistObserver(ctx, models.ObserverRecord{ID: id, X: x, Y: y, Name: obs.Name})
	snap := e.recomputePublishLocked()
	e.mu.Unlock()

	e.notify(snap)

	return nil
}

// RenameObserver updates the display name. The rename is persisted and
// a recompute runs so estimate readings carry the new name immediately.
func (e *Engine) RenameObserver(ctx context.Context, id, name string) error {
	if id == "" || name == "" {
		return fmt.Errorf("%w: observer id and name are required", ErrMalformedReport)
	}

	e.mu.Lock()
	obs, ok := e.observers[id]
	if !ok {
		obs = &models.Observer{
			ID: id,
			X:  models.DefaultObserverX,
			Y:  models.DefaultObserverY,
		}
		e.observers[id] = obs
	}
	obs.Name = name
	if obs.Configured {
		e.persistObserver(ctx, models.ObserverRecord{ID: id, X: obs.X, Y: obs.Y, Name: name})
	}

	snap := e.recomputePublishLocked()
	e.mu.Unlock()

	e.notify(snap)

	return nil
}

// DeleteObserver removes an observer's live and durable state and
// recomputes, so estimates that relied on its sightings lose a
// contributor or disappear. Deleting an unknown id succeeds.
func (e *Engine) DeleteObserver(ctx context.Context, id string) error {
	e.mu.Lock()
	_, existed := e.observers[id]
	delete(e.observers, id)
	if err := e.observerStore.Delete(ctx, id); err != nil {
		e.logger.Warn().Err(err).
			Str("observer_id", id).
			Msg("Failed to delete observer record")
	}
	snap := e.recomputePublishLocked()
	e.mu.Unlock()

	e.notify(snap)

	if !existed {
		e.logger.Debug().Str("observer_id", id).Msg("Delete of unknown observer treated as no-op")
	}
	return nil
}

// Observers lists the live registry.
func (e *Engine) Observers() []models.ObserverDto {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.ObserverDto, 0, len(e.observers))
	for _, obs := range e.observers {
		out = append(out, obs.ToDto())
	}
	return out
}

// Snapshot returns the last computed state without recomputing.
func (e *Engine) Snapshot() *models.Snapshot {
	return e.snapshot.Load()
}

// SetScale persists a new floor-plan scale calibration, overwriting
// any previous one.
func (e *Engine) SetScale(ctx context.Context, pixelLength, realLength float64, unit string) (*models.ScaleRecord, error) {
	record, err := models.NewScaleRecord(pixelLength, realLength, unit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedReport, err)
	}

	e.mu.Lock()
	e.scale = record
	if err := e.scaleStore.Save(ctx, *record); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to persist scale record")
	}
	e.mu.Unlock()

	return record, nil
}

// GetScale returns the current calibration, or nil when unset.
func (e *Engine) GetScale() *models.ScaleRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale
}

// recomputePublishLocked recomputes every estimate and stores the new
// snapshot while the caller still holds the mutex, so concurrent
// mutations can never publish their snapshots in inverted order.
func (e *Engine) recomputePublishLocked() *models.Snapshot {
	snap := e.buildSnapshot(computeEstimates(e.observers))
	e.snapshot.Store(snap)
	return snap
}

func (e *Engine) buildSnapshot(estimates map[string]models.DeviceEstimate) *models.Snapshot {
	if estimates == nil {
		estimates = make(map[string]models.DeviceEstimate)
	}

	displays := make(map[string]models.ObserverDto, len(e.observers))
	for id, obs := range e.observers {
		displays[id] = obs.ToDto()
	}

	return &models.Snapshot{
		Displays:  displays,
		Devices:   estimates,
		Timestamp: time.Now(),
	}
}

// notify runs the update hook outside the engine lock; the snapshot
// itself is already published by then.
func (e *Engine) notify(snap *models.Snapshot) {
	if e.onUpdate != nil {
		e.onUpdate(snap)
	}
}

// persistObserver writes through to durable storage. A failed write is
// logged and the in-memory state keeps the change; the next periodic
// report or calibration repairs any divergence.
func (e *Engine) persistObserver(ctx context.Context, record models.ObserverRecord) {
	if err := e.observerStore.Save(ctx, record); err != nil {
		e.logger.Warn().Err(err).
			Str("observer_id", record.ID).
			Msg("Failed to persist observer record")
	}
}
