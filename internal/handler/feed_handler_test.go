package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialFeed(t *testing.T, server *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/feed"
	return websocket.DefaultDialer.Dial(wsURL, header)
}

func TestFeedStreamsForumEvents(t *testing.T) {
	ts := newTestServer(t, testConfig())
	server := httptest.NewServer(ts.router)
	defer server.Close()

	conn, _, err := dialFeed(t, server, "http://localhost:5173")
	require.NoError(t, err)
	defer conn.Close()

	_, cookie := ts.register(t, "live@example.com")
	w := ts.do(t, http.MethodPost, "/api/threads", map[string]string{
		"title": "Live", "content": "Streaming", "category": "services",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	threadID := decode(t, w)["id"].(string)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event broker.Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, broker.EventThreadCreated, event.Type)
	assert.Contains(t, string(event.Data), threadID)
}

func TestFeedRejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t, testConfig())
	server := httptest.NewServer(ts.router)
	defer server.Close()

	_, resp, err := dialFeed(t, server, "https://evil.example.com")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFeedClosesWhenBrokerCloses(t *testing.T) {
	ts := newTestServer(t, testConfig())
	server := httptest.NewServer(ts.router)
	defer server.Close()

	conn, _, err := dialFeed(t, server, "")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, ts.events.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
