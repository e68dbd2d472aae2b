package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ble-atlas/internal/models"
)

// ScaleStore persists the single floor-plan scale record. The row id
// is pinned so a new calibration always overwrites the previous one.
type ScaleStore struct {
	db *gorm.DB
}

func NewScaleStore(db *gorm.DB) *ScaleStore {
	return &ScaleStore{db: db}
}

func (s *ScaleStore) Load(ctx context.Context) (*models.ScaleRecord, error) {
	var record models.ScaleRecord
	err := s.db.WithContext(ctx).First(&record, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *ScaleStore) Save(ctx context.Context, record models.ScaleRecord) error {
	record.ID = 1
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&record).Error
}
