package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"organtour/pkg/event"
)

func TestEventHub_StreamsEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := event.NewBus()
	hub := NewEventHub(bus)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello HelloMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.NotEmpty(t, hello.Client)
	assert.Equal(t, 1, hub.Clients())

	bus.Publish(event.Event{Type: event.DisplayOpened, Hotspot: "heart", Title: "Heart"})

	var got event.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, event.DisplayOpened, got.Type)
	assert.Equal(t, "heart", got.Hotspot)
	assert.False(t, got.Timestamp.IsZero())

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// Events after Close are not delivered anywhere.
	bus.Publish(event.Event{Type: event.DisplayClosed, Hotspot: "heart"})
}

func TestEventHub_DropsSlowClient(t *testing.T) {
	bus := event.NewBus()
	hub := NewEventHub(bus)
	defer hub.Close()

	slow := &hubClient{id: "slow", send: make(chan []byte, 1)}
	hub.clients[slow.id] = slow

	bus.Publish(event.Event{Type: event.PromptShown, Hotspot: "lungs"})
	assert.Equal(t, 1, hub.Clients())

	bus.Publish(event.Event{Type: event.PromptHidden, Hotspot: "lungs"})
	assert.Equal(t, 0, hub.Clients())

	msg, ok := <-slow.send
	require.True(t, ok)
	var ev event.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, event.PromptShown, ev.Type)

	_, ok = <-slow.send
	assert.False(t, ok, "queue of a dropped client is closed")
}

func TestEventHub_RefusesAfterClose(t *testing.T) {
	hub := NewEventHub(event.NewBus())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Clients())
}
