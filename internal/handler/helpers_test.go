package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/internal/config"
	"github.com/buildtalk/forum/internal/handler"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/internal/repository/memory"
	"github.com/buildtalk/forum/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:          "test",
		SessionTTL:           time.Hour,
		StateSecret:          "test-state-secret-with-enough-length",
		AuthStrategy:         config.AuthCredentials,
		FrontendURL:          "http://localhost:5173",
		AllowUpvoteOverwrite: true,
		CORSAllowedOrigins:   []string{"http://localhost:5173"},
	}
}

// testServer is a router backed by the in-memory store.
type testServer struct {
	router *gin.Engine
	store  *repository.Store
	events *broker.MemoryEventBroker
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	store := memory.NewStore()
	events := broker.NewMemoryEventBroker()
	t.Cleanup(func() { _ = events.Close() })

	router := handler.NewRouter(handler.Deps{
		Config:   cfg,
		Store:    store,
		Sessions: session.NewMemoryStore(cfg.SessionTTL),
		Broker:   events,
	})
	return &testServer{router: router, store: store, events: events}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// register signs up a user and returns its id and session cookie.
func (ts *testServer) register(t *testing.T, email string) (string, *http.Cookie) {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "Test123456",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var identity map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &identity))

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	return identity["id"].(string), cookie
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
