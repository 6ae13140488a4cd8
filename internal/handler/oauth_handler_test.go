package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/internal/config"
	"github.com/buildtalk/forum/internal/handler"
	"github.com/buildtalk/forum/internal/repository/memory"
	"github.com/buildtalk/forum/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

type OAuthHandlerTestSuite struct {
	suite.Suite
	provider *httptest.Server
	router   *gin.Engine
	userInfo map[string]interface{}
}

func (s *OAuthHandlerTestSuite) SetupTest() {
	s.userInfo = map[string]interface{}{
		"sub":        "provider|42",
		"email":      "Fed@Example.com",
		"given_name": "Fed",
		"picture":    "https://img.example.com/fed.png",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.userInfo)
	})
	s.provider = httptest.NewServer(mux)

	cfg := testConfig()
	cfg.AuthStrategy = config.AuthOIDC
	cfg.OIDC = config.OIDCConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      s.provider.URL + "/authorize",
		TokenURL:     s.provider.URL + "/token",
		UserInfoURL:  s.provider.URL + "/userinfo",
		RedirectURL:  "http://localhost:5000/auth/callback",
		Scopes:       []string{"openid", "email"},
	}

	events := broker.NewMemoryEventBroker()
	s.router = handler.NewRouter(handler.Deps{
		Config:   cfg,
		Store:    memory.NewStore(),
		Sessions: session.NewMemoryStore(cfg.SessionTTL),
		Broker:   events,
		OAuth: &oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Scopes:       cfg.OIDC.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.OIDC.AuthURL,
				TokenURL:  cfg.OIDC.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	})
}

func (s *OAuthHandlerTestSuite) TearDownTest() {
	s.provider.Close()
}

func (s *OAuthHandlerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// startLogin returns the issued state and its cookie.
func (s *OAuthHandlerTestSuite) startLogin() (string, *http.Cookie) {
	w := s.serve(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	s.Require().Equal(http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal(s.provider.URL+"/authorize", location.Scheme+"://"+location.Host+location.Path)
	s.Equal("client", location.Query().Get("client_id"))

	state := location.Query().Get("state")
	s.Require().NotEmpty(state)

	for _, c := range w.Result().Cookies() {
		if c.Name == "bt_oauth_state" {
			s.Equal(state, c.Value)
			return state, c
		}
	}
	s.FailNow("state cookie not set")
	return "", nil
}

func (s *OAuthHandlerTestSuite) callback(state, code string, cookie *http.Cookie) *httptest.ResponseRecorder {
	q := url.Values{"state": {state}, "code": {code}}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return s.serve(req)
}

func (s *OAuthHandlerTestSuite) TestLoginRoundTrip() {
	state, cookie := s.startLogin()

	w := s.callback(state, "good-code", cookie)
	s.Require().Equal(http.StatusFound, w.Code, w.Body.String())
	s.Equal("http://localhost:5173", w.Header().Get("Location"))

	sess := sessionCookie(w)
	s.Require().NotNil(sess)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(sess)
	w = s.serve(req)
	s.Require().Equal(http.StatusOK, w.Code)

	body := decode(s.T(), w)
	s.Equal("fed@example.com", body["email"])
	s.Equal("Fed", body["firstName"])
	s.Equal("https://img.example.com/fed.png", body["profileImageUrl"])
}

func (s *OAuthHandlerTestSuite) TestRepeatLoginReusesUser() {
	state, cookie := s.startLogin()
	first := s.callback(state, "good-code", cookie)
	s.Require().Equal(http.StatusFound, first.Code)

	s.userInfo["first_name"] = "Renamed"
	delete(s.userInfo, "given_name")

	state, cookie = s.startLogin()
	second := s.callback(state, "good-code", cookie)
	s.Require().Equal(http.StatusFound, second.Code)

	whoami := func(c *http.Cookie) map[string]interface{} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(c)
		return decode(s.T(), s.serve(req))
	}
	a, b := whoami(sessionCookie(first)), whoami(sessionCookie(second))
	s.Equal(a["id"], b["id"])
	s.Equal("Renamed", b["firstName"])
}

func (s *OAuthHandlerTestSuite) TestCallbackRejectsStateMismatch() {
	state, cookie := s.startLogin()

	w := s.callback(state+"x", "good-code", cookie)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.callback(state, "good-code", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	forged := &http.Cookie{Name: "bt_oauth_state", Value: "forged"}
	w = s.callback("forged", "good-code", forged)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *OAuthHandlerTestSuite) TestCallbackRejectsBadCode() {
	state, cookie := s.startLogin()

	w := s.callback(state, "bad-code", cookie)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Nil(sessionCookie(w))
}

func (s *OAuthHandlerTestSuite) TestLogout() {
	state, cookie := s.startLogin()
	sess := sessionCookie(s.callback(state, "good-code", cookie))
	s.Require().NotNil(sess)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(sess)
	w := s.serve(req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(`"cache"`, w.Header().Get("Clear-Site-Data"))

	req = httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.AddCookie(sess)
	s.Equal(http.StatusUnauthorized, s.serve(req).Code)
}

func TestOAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(OAuthHandlerTestSuite))
}
