package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ble-atlas/internal/models"
)

// ObserverStore is the gorm-backed durable store for calibrated
// observer positions, one row per observer id.
type ObserverStore struct {
	db *gorm.DB
}

func NewObserverStore(db *gorm.DB) *ObserverStore {
	return &ObserverStore{db: db}
}

func (s *ObserverStore) LoadAll(ctx context.Context) (map[string]models.ObserverRecord, error) {
	var records []models.ObserverRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}

	out := make(map[string]models.ObserverRecord, len(records))
	for _, rec := range records {
		out[rec.ID] = rec
	}
	return out, nil
}

func (s *ObserverStore) Save(ctx context.Context, record models.ObserverRecord) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"x", "y", "name"}),
	}).Create(&record).Error
}

func (s *ObserverStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Delete(&models.ObserverRecord{}, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
