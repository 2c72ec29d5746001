package websocket_test

import (
	"testing"

	"github.com/devcorner/tvdash/internal/adapters/primary/websocket"
	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestClient_WantsDashboard(t *testing.T) {
	client := &websocket.Client{Subscriptions: make(map[string]bool)}

	// No subscriptions: receive everything.
	assert.True(t, client.WantsDashboard("nova"))
	assert.True(t, client.WantsDashboard("operational"))

	client.AddSubscription("nova")
	assert.True(t, client.WantsDashboard("nova"))
	assert.False(t, client.WantsDashboard("operational"))

	client.RemoveSubscription("nova")
	assert.True(t, client.WantsDashboard("operational"), "back to receive-all")
}

func TestClient_GetSubscriptions(t *testing.T) {
	client := &websocket.Client{Subscriptions: make(map[string]bool)}
	client.AddSubscription("nova")
	client.AddSubscription("trevor")

	subs := client.GetSubscriptions()
	assert.ElementsMatch(t, []string{"nova", "trevor"}, subs)
}

func TestClient_CloseSendIsIdempotent(t *testing.T) {
	client := &websocket.Client{Send: make(chan domain.Event, 1)}

	client.CloseSend()
	assert.NotPanics(t, func() { client.CloseSend() })

	_, open := <-client.Send
	assert.False(t, open)
}
