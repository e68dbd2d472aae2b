package models

import "time"

// Confidence classifies a position estimate by how many distinct
// observers currently corroborate it. It never depends on distance or
// signal quality.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceForCount maps a contributor count onto a tier.
func ConfidenceForCount(n int) Confidence {
	switch {
	case n >= 3:
		return ConfidenceHigh
	case n == 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Reading is one observer's contribution to a device estimate.
type Reading struct {
	ObserverID string  `json:"displayId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	RSSI       float64 `json:"rssi"`
	Distance   float64 `json:"distance"`
}

// DeviceEstimate is the fully derived position of one tracked device.
// It exists exactly as long as at least one observer's current
// snapshot mentions the address.
type DeviceEstimate struct {
	Address    string     `json:"address"`
	Name       string     `json:"name"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Confidence Confidence `json:"confidence"`
	SeenBy     int        `json:"seenBy"`
	Readings   []Reading  `json:"readings"`
}

// Snapshot is the engine's last computed state, published
// copy-on-write and served without recomputation.
type Snapshot struct {
	Displays  map[string]ObserverDto    `json:"displays"`
	Devices   map[string]DeviceEstimate `json:"devices"`
	Timestamp time.Time                 `json:"timestamp"`
}
