package engine

import (
	"sort"

	"ble-atlas/internal/models"
)

// distanceFloor is added to every distance before inverting it into a
// weight, so a zero distance cannot blow up the division.
const distanceFloor = 0.1

// computeEstimates derives the full set of device position estimates
// from the current observer snapshots. It is a single deterministic
// pass with no incremental state; every mutation recomputes everything.
func computeEstimates(observers map[string]*models.Observer) map[string]models.DeviceEstimate {
	type contribution struct {
		reading models.Reading
		name    string
	}

	byAddress := make(map[string][]contribution)
	for _, obs := range observers {
		seen := make(map[string]bool, len(obs.Sightings))
		for _, s := range obs.Sightings {
			// A report listing the same address twice is still one
			// observer; only its first entry contributes.
			if seen[s.Address] {
				continue
			}
			seen[s.Address] = true

			byAddress[s.Address] = append(byAddress[s.Address], contribution{
				reading: models.Reading{
					ObserverID: obs.ID,
					X:          obs.X,
					Y:          obs.Y,
					RSSI:       s.RSSI,
					Distance:   s.Distance,
				},
				name: s.Name,
			})
		}
	}

	estimates := make(map[string]models.DeviceEstimate, len(byAddress))
	for address, contribs := range byAddress {
		// Map iteration order must not leak into the output: sort by
		// observer id so readings, and the name pick below, come out
		// identical for identical state.
		sort.Slice(contribs, func(i, j int) bool {
			return contribs[i].reading.ObserverID < contribs[j].reading.ObserverID
		})

		readings := make([]models.Reading, 0, len(contribs))
		name := ""
		for _, c := range contribs {
			readings = append(readings, c.reading)
			if name == "" && c.name != "" {
				name = c.name
			}
		}

		x, y := estimatePosition(readings)
		estimates[address] = models.DeviceEstimate{
			Address:    address,
			Name:       name,
			X:          x,
			Y:          y,
			Confidence: models.ConfidenceForCount(len(readings)),
			SeenBy:     len(readings),
			Readings:   readings,
		}
	}

	return estimates
}

// estimatePosition collapses the readings for one address into a
// position. With one contributor the device sits at that observer;
// with more it is the inverse-distance weighted centroid of the
// contributing observers. Readings with an unknown distance are left
// out of the weighting; if none remain, the plain mean of the
// contributor positions is used instead.
func estimatePosition(readings []models.Reading) (float64, float64) {
	if len(readings) == 1 {
		return readings[0].X, readings[0].Y
	}

	var sumX, sumY, sumW float64
	for _, r := range readings {
		if r.Distance == DistanceUnknown {
			continue
		}
		w := 1.0 / (r.Distance + distanceFloor)
		sumX += r.X * w
		sumY += r.Y * w
		sumW += w
	}

	if sumW == 0 {
		for _, r := range readings {
			sumX += r.X
			sumY += r.Y
		}
		n := float64(len(readings))
		return sumX / n, sumY / n
	}

	return sumX / sumW, sumY / sumW
}
