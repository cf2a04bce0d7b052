package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baton/types"
)

// readEvent reads one event frame with a deadline.
func readEvent(t *testing.T, conn *websocket.Conn) types.EventMessage {
	var event types.EventMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

// TestWebSocketScanEvents tests that a scan streams progress to subscribers
func TestWebSocketScanEvents(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/ws/events/scan")
	defer conn.Close()

	// Give the hub a moment to register the client before events flow.
	time.Sleep(100 * time.Millisecond)

	var queued struct {
		Job types.ScanJob `json:"job"`
	}
	resp := helper.PostJSON(t, "/api/set/scan", nil, &queued)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	sawProgress := false
	for {
		event := readEvent(t, conn)
		assert.Equal(t, types.TopicScan, event.Topic)
		assert.Equal(t, queued.Job.ID, event.JobID)
		assert.False(t, event.Timestamp.IsZero())

		if event.Type == "progress" {
			sawProgress = true
		}
		if event.Type == "complete" {
			assert.Equal(t, 100.0, event.Progress)
			break
		}
		if event.Type == "error" {
			t.Fatalf("scan failed: %s", event.Message)
		}
	}
	assert.True(t, sawProgress, "expected at least one progress event before completion")
}

// TestWebSocketBeatEvents tests beat fan-out to beat subscribers
func TestWebSocketBeatEvents(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/ws/events/beat")
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	helper.Hub.BroadcastEvent(types.EventMessage{
		Topic: types.TopicBeat,
		Type:  "beat",
		Beat:  5,
	})

	event := readEvent(t, conn)
	assert.Equal(t, types.TopicBeat, event.Topic)
	assert.Equal(t, "beat", event.Type)
	assert.Equal(t, 5, event.Beat)
	assert.False(t, event.Timestamp.IsZero())
}

// TestWebSocketEventBurst tests that back-to-back broadcasts all reach the
// subscriber; the hub must absorb a burst faster than its dispatch loop
func TestWebSocketEventBurst(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/ws/events/beat")
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	const beats = 32
	for i := 1; i <= beats; i++ {
		helper.Hub.BroadcastEvent(types.EventMessage{
			Topic: types.TopicBeat,
			Type:  "beat",
			Beat:  i,
		})
	}

	for i := 1; i <= beats; i++ {
		event := readEvent(t, conn)
		assert.Equal(t, types.TopicBeat, event.Topic)
		assert.Equal(t, i, event.Beat, "burst events arrive complete and in order")
	}
}

// TestWebSocketTopicFiltering tests that subscribers only see their topic
func TestWebSocketTopicFiltering(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/ws/events/transport")
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	helper.Hub.BroadcastEvent(types.EventMessage{Topic: types.TopicBeat, Type: "beat", Beat: 1})
	helper.Hub.BroadcastEvent(types.EventMessage{Topic: types.TopicTransport, Type: "startup"})

	// The first frame through must be the transport event; the beat event
	// never reaches this subscriber.
	event := readEvent(t, conn)
	assert.Equal(t, types.TopicTransport, event.Topic)
	assert.Equal(t, "startup", event.Type)
}

// TestWebSocketAllTopic tests that the all topic receives everything
func TestWebSocketAllTopic(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/ws/events")
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	helper.Hub.BroadcastEvent(types.EventMessage{Topic: types.TopicBeat, Type: "beat", Beat: 3})
	helper.Hub.BroadcastEvent(types.EventMessage{Topic: types.TopicScan, Type: "status", Message: "queued"})

	first := readEvent(t, conn)
	assert.Equal(t, types.TopicBeat, first.Topic)

	second := readEvent(t, conn)
	assert.Equal(t, types.TopicScan, second.Topic)
}

// TestWebSocketInvalidTopic tests that unknown topics are rejected
func TestWebSocketInvalidTopic(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	wsURL := "ws" + helper.Server.URL[4:] + "/ws/events/bogus"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if conn != nil {
		conn.Close()
	}
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
