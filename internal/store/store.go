package store

import (
	"context"

	"ble-atlas/internal/models"
)

// ObserverStore is the durable side of the registry: one record per
// calibrated observer, keyed by id. Implementations are swappable
// without touching engine logic.
type ObserverStore interface {
	LoadAll(ctx context.Context) (map[string]models.ObserverRecord, error)
	Save(ctx context.Context, record models.ObserverRecord) error
	Delete(ctx context.Context, id string) error
}

// ScaleStore persists the single floor-plan scale calibration record.
// Load returns (nil, nil) when no calibration has ever been saved.
type ScaleStore interface {
	Load(ctx context.Context) (*models.ScaleRecord, error)
	Save(ctx context.Context, record models.ScaleRecord) error
}
