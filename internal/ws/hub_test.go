package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestClient(hub *Hub, userUID string) *Client {
	return &Client{
		UserUID: userUID,
		send:    make(chan any, sendBufferSize),
		hub:     hub,
		log:     newNoopLogger(),
	}
}

func receiveOrTimeout(t *testing.T, ch chan any) any {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func registerAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[c.UserUID][c]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func unregisterAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.unregister <- c
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[c.UserUID][c]
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub(newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	first := newTestClient(hub, "uid-1")
	second := newTestClient(hub, "uid-1")
	other := newTestClient(hub, "uid-2")

	registerAndWait(t, hub, first)
	registerAndWait(t, hub, second)
	registerAndWait(t, hub, other)

	hub.SendToUser("uid-1", "hello")

	assert.Equal(t, "hello", receiveOrTimeout(t, first.send))
	assert.Equal(t, "hello", receiveOrTimeout(t, second.send))
	assert.Empty(t, other.send)

	// Отправка неизвестному пользователю не должна ничего ломать
	hub.SendToUser("uid-unknown", "lost")

	unregisterAndWait(t, hub, first)
	unregisterAndWait(t, hub, second)
	unregisterAndWait(t, hub, other)
	cancel()
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	first := newTestClient(hub, "uid-1")
	second := newTestClient(hub, "uid-2")

	registerAndWait(t, hub, first)
	registerAndWait(t, hub, second)

	payload := map[string]any{"type": "rates_update"}
	hub.Broadcast(payload)

	assert.Equal(t, payload, receiveOrTimeout(t, first.send))
	assert.Equal(t, payload, receiveOrTimeout(t, second.send))

	unregisterAndWait(t, hub, first)
	unregisterAndWait(t, hub, second)
	cancel()
}

func TestHub_DropsClientWithFullSendChannel(t *testing.T) {
	hub := NewHub(newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	stuck := &Client{
		UserUID: "uid-1",
		send:    make(chan any),
		hub:     hub,
		log:     newNoopLogger(),
	}
	registerAndWait(t, hub, stuck)

	// Никто не читает канал, клиент должен быть отключен
	hub.SendToUser("uid-1", "message")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["uid-1"]) == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-stuck.send
	assert.False(t, open, "send channel should be closed after drop")

	cancel()
}

func TestHub_UnregisterLastConnectionRemovesUser(t *testing.T) {
	hub := NewHub(newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := newTestClient(hub, "uid-1")
	registerAndWait(t, hub, client)
	unregisterAndWait(t, hub, client)

	hub.mu.RLock()
	_, ok := hub.clients["uid-1"]
	hub.mu.RUnlock()
	assert.False(t, ok, "user entry should be removed with last connection")

	cancel()
}
