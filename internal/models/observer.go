package models

import "time"

// DefaultObserverX / DefaultObserverY is the placeholder position an
// observer receives when it reports before anyone has calibrated it.
const (
	DefaultObserverX = 50.0
	DefaultObserverY = 50.0
)

// Observer is a fixed reporting node with a calibrated position in
// floor-plan pixel space.
type Observer struct {
	ID           string
	Name         string
	X            float64
	Y            float64
	Configured   bool
	LastReportAt time.Time
	Sightings    []Sighting
}

// Sighting is one observer's current reading of one device. The whole
// slice is replaced on every report; nothing is appended.
type Sighting struct {
	Address  string
	Name     string
	RSSI     float64
	Distance float64
}

// Prepare fills defaults for an observer created implicitly by its
// first report.
func (o *Observer) Prepare() {
	if o.Name == "" {
		o.Name = "Display " + o.ID
	}
}

// ObserverRecord is the durable form of a calibrated observer, one
// record per id.
type ObserverRecord struct {
	ID   string  `gorm:"primaryKey" json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
}

func (ObserverRecord) TableName() string {
	return "observer_records"
}

// ObserverDto is the wire shape of an observer inside the snapshot
// response. Field names match what the visualization layer expects.
type ObserverDto struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	X          float64       `json:"x"`
	Y          float64       `json:"y"`
	Devices    []SightingDto `json:"devices"`
	LastUpdate time.Time     `json:"lastUpdate"`
	Configured bool          `json:"configured"`
}

type SightingDto struct {
	Address  string  `json:"address"`
	Name     string  `json:"name,omitempty"`
	RSSI     float64 `json:"rssi"`
	Distance float64 `json:"distance"`
}

func (o *Observer) ToDto() ObserverDto {
	devices := make([]SightingDto, 0, len(o.Sightings))
	for _, s := range o.Sightings {
		devices = append(devices, SightingDto{
			Address:  s.Address,
			Name:     s.Name,
			RSSI:     s.RSSI,
			Distance: s.Distance,
		})
	}

	return ObserverDto{
		ID:         o.ID,
		Name:       o.Name,
		X:          o.X,
		Y:          o.Y,
		Devices:    devices,
		LastUpdate: o.LastReportAt,
		Configured: o.Configured,
	}
}
