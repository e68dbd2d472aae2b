package models

import "fmt"

// ScaleRecord is the single persisted mapping between plan-pixel
// distance and a real-world unit. It is consumed only by the
// visualization layer, never by the estimator.
type ScaleRecord struct {
	ID            uint    `gorm:"primaryKey" json:"-"`
	PixelsPerUnit float64 `json:"pixelsPerUnit"`
	PixelLength   float64 `json:"pixelLength"`
	RealLength    float64 `json:"realWorldLength"`
	Unit          string  `json:"unit"`
}

func (ScaleRecord) TableName() string {
	return "scale_records"
}

// ToMeters converts a length in the given unit to meters, the
// canonical unit for pixelsPerUnit.
func ToMeters(length float64, unit string) (float64, error) {
	switch unit {
	case "m", "meter", "meters":
		return length, nil
	case "cm":
		return length / 100.0, nil
	case "ft", "foot", "feet":
		return length * 0.3048, nil
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
}

// NewScaleRecord validates the calibration inputs and derives
// pixelsPerUnit.
func NewScaleRecord(pixelLength, realLength float64, unit string) (*ScaleRecord, error) {
	if pixelLength <= 0 {
		return nil, fmt.Errorf("pixel length must be positive")
	}
	if realLength <= 0 {
		return nil, fmt.Errorf("real-world length must be positive")
	}

	meters, err := ToMeters(realLength, unit)
	if err != nil {
		return nil, err
	}

	return &ScaleRecord{
		ID:            1,
		PixelsPerUnit: pixelLength / meters,
		PixelLength:   pixelLength,
		RealLength:    realLength,
		Unit:          unit,
	}, nil
}
