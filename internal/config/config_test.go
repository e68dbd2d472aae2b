package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, -59.0, cfg.Engine.ReferenceRSSI)
	assert.False(t, cfg.MQTT.Enabled, "MQTT stays off without MQTT_HOST")
	assert.False(t, cfg.InfluxDB.Enabled, "Influx stays off without INFLUXDB_TOKEN")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REFERENCE_RSSI", "-62.5")
	t.Setenv("MQTT_HOST", "broker.local")
	t.Setenv("MQTT_BASE_TOPIC", "atlas/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, -62.5, cfg.Engine.ReferenceRSSI)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "atlas", cfg.MQTT.BaseTopic, "trailing slash is trimmed")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "etcd")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsPositiveReferenceRSSI(t *testing.T) {
	t.Setenv("REFERENCE_RSSI", "10")
	_, err := Load()
	assert.Error(t, err)
}
