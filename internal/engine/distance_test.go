package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateDistanceZeroRSSI(t *testing.T) {
	for _, ref := range []float64{-40, -59, -70, -100} {
		assert.Equal(t, DistanceUnknown, EstimateDistance(0, ref),
			"rssi 0 must yield the unknown sentinel for reference %v", ref)
	}
}

func TestEstimateDistanceAtReference(t *testing.T) {
	// ratio == 1.0 falls into the far branch: 0.89976*1 + 0.111.
	got := EstimateDistance(-59, -59)
	assert.InDelta(t, 1.01076, got, 1e-9)
}

func TestEstimateDistanceNearBranch(t *testing.T) {
	// Stronger than reference: ratio < 1, distance = ratio^10.
	got := EstimateDistance(-29.5, -59)
	assert.InDelta(t, 0.0009765625, got, 1e-12)
	assert.Less(t, got, 1.0)
}

func TestEstimateDistanceFarBranch(t *testing.T) {
	near := EstimateDistance(-65, -59)
	far := EstimateDistance(-80, -59)

	assert.Greater(t, near, 1.0)
	assert.Greater(t, far, near, "weaker signal must estimate farther")
}

func TestEstimateDistanceMonotonicAcrossBranches(t *testing.T) {
	prev := EstimateDistance(-30, -59)
	for rssi := -35.0; rssi >= -95; rssi -= 5 {
		d := EstimateDistance(rssi, -59)
		assert.Greater(t, d, prev, "distance must grow as rssi weakens (rssi %v)", rssi)
		prev = d
	}
}
