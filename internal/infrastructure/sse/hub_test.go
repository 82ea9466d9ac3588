package sse

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/notification/mocks"
)

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	ops := "ops"
	a := notification.NewSSEClient("a", &ops)
	b := notification.NewSSEClient("b", nil)
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.GetClientCount())

	hub.BroadcastToAll(notification.NewSSEMessage("ping", json.RawMessage(`{}`)))
	assert.Len(t, a.MessageChan, 1)
	assert.Len(t, b.MessageChan, 1)

	hub.BroadcastToUser("ops", notification.NewSSEMessage("ping", json.RawMessage(`{}`)))
	assert.Len(t, a.MessageChan, 2)
	assert.Len(t, b.MessageChan, 1)

	hub.Unregister("a")
	assert.Equal(t, 1, hub.GetClientCount())
	_, open := <-a.MessageChan
	assert.True(t, open)

	assert.ErrorIs(t, hub.SendToClient("a", notification.NewSSEMessage("x", nil)), notification.ErrClientNotFound)
	require.NoError(t, hub.SendToClient("b", notification.NewSSEMessage("x", nil)))

	hub.Stop()
	assert.Equal(t, 0, hub.GetClientCount())
}

func TestHub_FullChannel(t *testing.T) {
	hub := NewHub()
	c := notification.NewSSEClient("c", nil)
	hub.Register(c)

	for i := 0; i < cap(c.MessageChan); i++ {
		require.NoError(t, hub.SendToClient("c", notification.NewSSEMessage("x", nil)))
	}

	assert.ErrorIs(t, hub.SendToClient("c", notification.NewSSEMessage("x", nil)), notification.ErrChannelFull)
}

func TestPublisher_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	hub := mocks.NewMockSSEHub(ctrl)
	n := notification.NewNotification(notification.KindSubmissionCompleted, notification.ChannelSSE, "k", nil)

	hub.EXPECT().BroadcastToAll(gomock.Any()).Do(func(msg *notification.SSEMessage) {
		assert.Equal(t, string(notification.KindSubmissionCompleted), msg.Event)
		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &body))
		assert.Equal(t, "k", body["dedupeKey"])
	})

	p := NewPublisher(hub)
	assert.Equal(t, notification.ChannelSSE, p.Channel())
	require.NoError(t, p.Publish(context.Background(), n, notification.Event{Kind: notification.KindSubmissionCompleted, UserID: "u1"}))
}
