package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"seoaudit/internal/messagebus"
	"seoaudit/internal/models"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNats(t *testing.T, port int) (*nats.Conn, *server.Server) {
	opts := natsserver.DefaultTestOptions
	opts.Port = port
	server := natsserver.RunServer(&opts)

	nc, err := nats.Connect("nats://127.0.0.1:" + strconv.Itoa(port))
	require.NoError(t, err, "Should connect to NATS")
	return nc, server
}

func setupWs(hub *Hub) *httptest.Server {
	handler := NewHandler(hub, slog.New(slog.DiscardHandler))
	return httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
}

func setupIntegration(t *testing.T) (*messagebus.MessageBus, string, func()) {
	nc, server := setupNats(t, 8400)

	hub := NewHub(WithHubLogger(slog.New(slog.DiscardHandler)))
	wsServer := setupWs(hub)
	mb := messagebus.New(nc, nil)

	svc := NewService(hub, mb, WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, svc.Start(context.Background()), "Should start relay subscriptions")

	shutdown := func() {
		svc.Stop()
		server.Shutdown()
		nc.Close()
		wsServer.Close()
	}

	wsURL := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	return mb, wsURL, shutdown
}

func dialClients(t *testing.T, wsURL string, n int) []*websocket.Conn {
	clients := make([]*websocket.Conn, 0, n)
	for i := 0; i < n; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err, "Should connect WebSocket client %d", i+1)
		clients = append(clients, conn)
	}
	t.Cleanup(func() {
		for _, c := range clients {
			c.Close()
		}
	})
	return clients
}

func sendSubscription(t *testing.T, conn *websocket.Conn, action, auditID string) {
	data, err := json.Marshal(SubscriptionMessage{Action: action, Group: auditID})
	require.NoError(t, err, "Should marshal subscription message")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data), "Should send %s", action)
}

func progressMsg(auditID string, phase models.AuditPhase) messagebus.AuditProgressMessage {
	return messagebus.AuditProgressMessage{
		AuditID: auditID,
		Event:   models.ProgressEvent{AuditID: auditID, Phase: phase},
	}
}

func TestService_ProgressReachesSubscribers_Integration(t *testing.T) {
	mb, wsURL, shutdown := setupIntegration(t)
	defer shutdown()

	time.Sleep(200 * time.Millisecond)

	clients := dialClients(t, wsURL, 3)
	time.Sleep(100 * time.Millisecond)

	// First 2 clients follow the audit, client 3 stays unsubscribed
	for i := 0; i < 2; i++ {
		sendSubscription(t, clients[i], "subscribe", "audit-456")
	}
	time.Sleep(100 * time.Millisecond)

	msg := messagebus.AuditProgressMessage{
		AuditID: "audit-456",
		Event: models.ProgressEvent{
			AuditID: "audit-456",
			Phase:   models.PhaseLinking,
			Link: &models.LinkResult{
				Candidate: models.LinkCandidate{Link: models.Link{Href: "https://example.com/about", Internal: true}},
				Outcome:   models.LinkOutcomeOK,
			},
			Checked: 1,
			Total:   10,
		},
	}
	require.NoError(t, mb.PublishAuditProgress(context.Background(), msg), "Should publish audit progress")

	time.Sleep(300 * time.Millisecond)

	for i := 0; i < 2; i++ {
		clients[i].SetReadDeadline(time.Now().Add(3 * time.Second))
		_, data, err := clients[i].ReadMessage()
		require.NoError(t, err, "Subscribed client %d should receive progress", i+1)

		var received messagebus.AuditProgressMessage
		require.NoError(t, json.Unmarshal(data, &received), "Should unmarshal progress for client %d", i+1)

		assert.Equal(t, messagebus.AuditProgressMessageType, received.Type, "Message type should match for client %d", i+1)
		assert.Equal(t, "audit-456", received.AuditID, "Audit ID should match for client %d", i+1)
		assert.Equal(t, models.PhaseLinking, received.Event.Phase, "Phase should match for client %d", i+1)
		assert.Equal(t, 1, received.Event.Checked, "Checked should match for client %d", i+1)
		assert.Equal(t, 10, received.Event.Total, "Total should match for client %d", i+1)
		require.NotNil(t, received.Event.Link, "Link result should be present for client %d", i+1)
		assert.Equal(t, "https://example.com/about", received.Event.Link.Candidate.Href)
	}

	clients[2].SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, _, err := clients[2].ReadMessage()
	assert.Error(t, err, "Unsubscribed client should not receive audit progress")
}

func TestService_CompletionReachesSubscribers_Integration(t *testing.T) {
	mb, wsURL, shutdown := setupIntegration(t)
	defer shutdown()

	time.Sleep(200 * time.Millisecond)

	clients := dialClients(t, wsURL, 3)
	time.Sleep(100 * time.Millisecond)

	// Client 1 follows the audit, client 2 another audit, client 3 nothing
	sendSubscription(t, clients[0], "subscribe", "audit-789")
	sendSubscription(t, clients[1], "subscribe", "other-audit")
	time.Sleep(100 * time.Millisecond)

	msg := messagebus.AuditCompletedMessage{
		AuditID: "audit-789",
		Status:  messagebus.AuditStatusCompleted,
		Result: &models.AuditResult{
			ID:           "audit-789",
			URL:          "https://example.com/",
			OverallScore: 87,
			Grade:        "B",
		},
	}
	require.NoError(t, mb.PublishAuditCompleted(context.Background(), msg), "Should publish audit completion")

	time.Sleep(300 * time.Millisecond)

	clients[0].SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := clients[0].ReadMessage()
	require.NoError(t, err, "Subscribed client should receive completion")

	var received messagebus.AuditCompletedMessage
	require.NoError(t, json.Unmarshal(data, &received), "Should unmarshal completion")

	assert.Equal(t, messagebus.AuditCompletedMessageType, received.Type)
	assert.Equal(t, messagebus.AuditStatusCompleted, received.Status)
	require.NotNil(t, received.Result, "Result should be present")
	assert.Equal(t, 87, received.Result.OverallScore)
	assert.Equal(t, "B", received.Result.Grade)

	for i := 1; i < 3; i++ {
		clients[i].SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, _, err := clients[i].ReadMessage()
		assert.Error(t, err, "Client %d should not receive completion of another audit", i+1)
	}
}

func TestService_FailedAuditIsRelayed_Integration(t *testing.T) {
	mb, wsURL, shutdown := setupIntegration(t)
	defer shutdown()

	time.Sleep(200 * time.Millisecond)

	clients := dialClients(t, wsURL, 1)
	time.Sleep(100 * time.Millisecond)

	sendSubscription(t, clients[0], "subscribe", "audit-failed")
	time.Sleep(100 * time.Millisecond)

	msg := messagebus.AuditCompletedMessage{
		AuditID: "audit-failed",
		Status:  messagebus.AuditStatusFailed,
		Error: &models.AuditError{
			Kind:       "fetch",
			Message:    "HTTP 503",
			URL:        "https://down.example.com/",
			StatusCode: 503,
		},
	}
	require.NoError(t, mb.PublishAuditCompleted(context.Background(), msg))

	clients[0].SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := clients[0].ReadMessage()
	require.NoError(t, err, "Subscribed client should receive the failure")

	var received messagebus.AuditCompletedMessage
	require.NoError(t, json.Unmarshal(data, &received))

	assert.Equal(t, messagebus.AuditStatusFailed, received.Status)
	assert.Nil(t, received.Result)
	require.NotNil(t, received.Error)
	assert.Equal(t, "fetch", received.Error.Kind)
	assert.Equal(t, 503, received.Error.StatusCode)
}

func TestService_ConcurrentClients_Integration(t *testing.T) {
	mb, wsURL, shutdown := setupIntegration(t)
	defer shutdown()

	time.Sleep(200 * time.Millisecond)

	const clientCount = 5
	clients := dialClients(t, wsURL, clientCount)
	time.Sleep(200 * time.Millisecond)

	subscribedCount := clientCount / 2
	for i := 0; i < subscribedCount; i++ {
		sendSubscription(t, clients[i], "subscribe", "concurrent-audit")
	}
	time.Sleep(100 * time.Millisecond)

	phases := []models.AuditPhase{models.PhaseFetching, models.PhaseExtracting, models.PhaseScoring}
	for _, p := range phases {
		require.NoError(t, mb.PublishAuditProgress(context.Background(), progressMsg("concurrent-audit", p)))
	}

	time.Sleep(300 * time.Millisecond)

	// Subscribers see every phase in publish order
	for i := 0; i < subscribedCount; i++ {
		for _, want := range phases {
			clients[i].SetReadDeadline(time.Now().Add(time.Second))
			_, data, err := clients[i].ReadMessage()
			require.NoError(t, err, "Client %d should receive phase %s", i+1, want)

			var received messagebus.AuditProgressMessage
			require.NoError(t, json.Unmarshal(data, &received))
			assert.Equal(t, want, received.Event.Phase, "Client %d phase order", i+1)
		}
	}

	for i := subscribedCount; i < clientCount; i++ {
		clients[i].SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, _, err := clients[i].ReadMessage()
		assert.Error(t, err, "Client %d should not receive progress", i+1)
	}
}

func TestService_UnsubscribeAudit_Integration(t *testing.T) {
	mb, wsURL, shutdown := setupIntegration(t)
	defer shutdown()

	time.Sleep(200 * time.Millisecond)

	client := dialClients(t, wsURL, 1)[0]
	time.Sleep(100 * time.Millisecond)

	sendSubscription(t, client, "subscribe", "unsubscribe-audit")
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, mb.PublishAuditProgress(context.Background(), progressMsg("unsubscribe-audit", models.PhaseFetching)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err, "Client should receive progress while subscribed")

	var received messagebus.AuditProgressMessage
	require.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, models.PhaseFetching, received.Event.Phase)

	sendSubscription(t, client, "unsubscribe", "unsubscribe-audit")
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, mb.PublishAuditProgress(context.Background(), progressMsg("unsubscribe-audit", models.PhaseChecking)))

	time.Sleep(300 * time.Millisecond)

	client.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, _, err = client.ReadMessage()
	assert.Error(t, err, "Client should not receive progress after unsubscribing")
}
