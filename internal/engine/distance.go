package engine

import "math"

// DefaultReferenceRSSI is the expected RSSI at one meter from the
// transmitter, used to calibrate the path-loss model.
const DefaultReferenceRSSI = -59.0

// DistanceUnknown is returned when a reading carries no usable signal
// strength. Callers must exclude it from any weighting arithmetic.
const DistanceUnknown = -1.0

// EstimateDistance maps an RSSI reading to an estimated distance in
// meters using a calibrated path-loss heuristic. It is not physically
// exact; it is total over its numeric domain except for the rssi == 0
// sentinel case.
func EstimateDistance(rssi, referenceRSSI float64) float64 {
	if rssi == 0 {
		return DistanceUnknown
	}

	ratio := rssi / referenceRSSI
	if ratio < 1.0 {
		return math.Pow(ratio, 10)
	}
	return 0.89976*math.Pow(ratio, 7.7095) + 0.111
}
