package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ble-atlas/internal/models"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	return conn
}

func TestHubBroadcastDeliversSnapshot(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)

	hub.Broadcast(&models.Snapshot{
		Displays:  map[string]models.ObserverDto{},
		Devices:   map[string]models.DeviceEstimate{},
		Timestamp: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var received models.Snapshot
	require.NoError(t, conn.ReadJSON(&received))
	assert.NotNil(t, received.Displays)
}

func TestHubBroadcastDropsDeadClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)

	conn.Close()

	// A dead peer must be evicted rather than wedging the broadcast
	// path; either the write failure or the reader loop removes it.
	snap := &models.Snapshot{Timestamp: time.Now()}
	require.Eventually(t, func() bool {
		hub.Broadcast(snap)
		return hub.ClientCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHubBroadcastWithNoClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Broadcast(&models.Snapshot{Timestamp: time.Now()})
	assert.Equal(t, 0, hub.ClientCount())
}
