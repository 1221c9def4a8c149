package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sakif/account-auth/internal/auth"
	"github.com/sakif/account-auth/internal/config"
	"github.com/sakif/account-auth/internal/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.JWT.Secret = "server-test-secret-0123456789"
	cfg.CORS.Origins = []string{"https://app.example.com"}
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	srv, err := New(cfg, testLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func serve(srv *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.Secret = "short"

	_, err := New(cfg, testLogger(), nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rr := serve(srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealth_StoreClosed(t *testing.T) {
	srv := newTestServer(t, testConfig())
	require.NoError(t, srv.Close())

	rr := serve(srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rr := serve(srv, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@x.com","password":"pw1"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			session = c
		}
	}
	require.NotNil(t, session)

	withCookie := http.Header{"Cookie": {"token=" + session.Value}}

	rr = serve(srv, http.MethodGet, "/api/auth/is-auth", "", withCookie)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(srv, http.MethodGet, "/api/user/data", "", withCookie)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"userData":{"name":"Ann","isAccountVerified":false}}`, rr.Body.String())

	rr = serve(srv, http.MethodGet, "/api/user/data", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(srv, http.MethodPost, "/api/auth/send-verify-otp", "", withCookie)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestProductionCookie(t *testing.T) {
	cfg := testConfig()
	cfg.Env = config.EnvProduction
	srv := newTestServer(t, cfg)

	rr := serve(srv, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@x.com","password":"pw1"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int(auth.SessionTTL.Seconds()), cookies[0].MaxAge)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	serve(srv, http.MethodPost, "/api/auth/login", `{"email":"nobody@x.com","password":"pw"}`, nil)

	rr := serve(srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `account_auth_operations_total{operation="login",outcome="failure"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	srv := newTestServer(t, cfg)

	rr := serve(srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rr := serve(srv, http.MethodOptions, "/api/auth/login", "", http.Header{
		"Origin":                        {"https://app.example.com"},
		"Access-Control-Request-Method": {http.MethodPost},
	})

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	rr = serve(srv, http.MethodOptions, "/api/auth/login", "", http.Header{
		"Origin":                        {"https://evil.example.com"},
		"Access-Control-Request-Method": {http.MethodPost},
	})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewNotifier(t *testing.T) {
	_, isLog := NewNotifier(config.SMTPConfig{}, testLogger()).(*notify.LogNotifier)
	assert.True(t, isLog)

	_, isSMTP := NewNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 587, Sender: "a@b.c"}, testLogger()).(*notify.SMTPNotifier)
	assert.True(t, isSMTP)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	srv, err := New(cfg, testLogger(), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
