package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"

	"ble-atlas/internal/models"
)

// SightingWriter exports accepted sightings as time-series points.
// Write-only telemetry: the tracking engine never reads these back, so
// its snapshot semantics stay untouched.
type SightingWriter struct {
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

func NewSightingWriter(writeAPI api.WriteAPI, logger zerolog.Logger) *SightingWriter {
	return &SightingWriter{
		writeAPI: writeAPI,
		logger:   logger,
	}
}

func (w *SightingWriter) WriteSightings(ctx context.Context, observerID string, sightings []models.Sighting) error {
	timestamp := time.Now()

	for _, s := range sightings {
		tags := map[string]string{
			"display_id": observerID,
			"address":    s.Address,
		}

		fields := map[string]interface{}{
			"rssi":     s.RSSI,
			"distance": s.Distance,
		}

		point := influxdb2.NewPoint("sighting", tags, fields, timestamp)
		w.writeAPI.WritePoint(point)
	}

	w.logger.Debug().
		Str("display_id", observerID).
		Int("sightings", len(sightings)).
		Msg("Exported sightings to InfluxDB")

	return nil
}
