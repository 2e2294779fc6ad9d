package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/essence/internal/config"
	"github.com/danmuck/essence/internal/essence"
	"github.com/danmuck/essence/internal/testutil/testlog"
	"github.com/danmuck/essence/internal/testutil/tlstest"
	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultServerConfig()
	cfg.AuthToken = token
	cfg.LogRequests = false
	s := Appear(cfg, essence.New(essence.Config{MemorySize: 0}))
	s.RegisterRoutes()
	return s
}

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v body=%s", method, path, err, rr.Body.String())
		}
	}
	testlog.Logf("server/http: %s %s status=%d body=%s", method, path, rr.Code, strings.TrimSpace(rr.Body.String()))
	return rr.Code, out
}

func TestHealthReadyAndPage(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "")

	code, body := do(t, s, http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || body["status"] != "ok" || body["service"] != "essence" {
		t.Fatalf("unexpected health response %d %#v", code, body)
	}
	code, body = do(t, s, http.MethodGet, "/ready", "", nil)
	if code != http.StatusOK || body["ready"] != true {
		t.Fatalf("unexpected ready response %d %#v", code, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "/api/status") {
		t.Fatalf("unexpected demo page %d", rr.Code)
	}
}

func TestExecuteAndStatus(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "")

	code, body := do(t, s, http.MethodPost, "/api/execute", `{"code":"x := 40 + 2"}`, nil)
	if code != http.StatusOK || body["rule"] != "assign" || body["output"] != "42" {
		t.Fatalf("unexpected execute response %d %#v", code, body)
	}
	if _, hasErr := body["error"]; hasErr {
		t.Fatalf("expected no error field on success, got %#v", body)
	}

	do(t, s, http.MethodPost, "/api/execute", `{"code":"results <- \"done\""}`, nil)
	do(t, s, http.MethodPost, "/api/execute", `{"code":"own!([1, 2], \"arr\")"}`, nil)
	do(t, s, http.MethodPost, "/api/execute", `{"code":"malloc!(16)"}`, nil)

	code, body = do(t, s, http.MethodGet, "/api/status", "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status code %d", code)
	}
	if body["go_channel"] != float64(1) || body["rust_owned"] != float64(1) || body["c_memory"] != float64(16) {
		t.Fatalf("unexpected status counts %#v", body)
	}
	data, ok := body["python_data"].(map[string]any)
	if !ok || data["x"] != float64(42) {
		t.Fatalf("expected python_data to expose variables, got %#v", body["python_data"])
	}
}

func TestExecuteErrorIsReportedInBody(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "")

	code, body := do(t, s, http.MethodPost, "/api/execute", `{"code":"1 / 0"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200 for executor error, got %d", code)
	}
	if body["rule"] != "eval" || !strings.Contains(body["error"].(string), "division by zero") {
		t.Fatalf("unexpected error body %#v", body)
	}
	if !strings.HasPrefix(body["output"].(string), "error: ") {
		t.Fatalf("expected error output, got %#v", body["output"])
	}

	code, _ = do(t, s, http.MethodPost, "/api/execute", `{"code":`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", code)
	}

	huge := `{"code":"` + strings.Repeat("1", maxBodyBytes) + `"}`
	code, _ = do(t, s, http.MethodPost, "/api/execute", huge, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", code)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "secret")

	code, body := do(t, s, http.MethodPost, "/api/classify", `{"code":"x := a ?? b"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("classify must not require a token, got %d", code)
	}
	essences, _ := body["essences"].([]any)
	if len(essences) != 2 || essences[0] != "GO" || essences[1] != "SWIFT" {
		t.Fatalf("unexpected essences %#v", body["essences"])
	}
	if _, ok := s.Dispatcher().Vars().Get("x"); ok {
		t.Fatalf("classify must not execute")
	}
}

func TestTokenGuard(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "secret")

	code, _ := do(t, s, http.MethodPost, "/api/execute", `{"code":"1"}`, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	code, _ = do(t, s, http.MethodPost, "/api/events/ping", `{"code":"1"}`, map[string]string{"Authorization": "Bearer nope"})
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", code)
	}
	code, body := do(t, s, http.MethodPost, "/api/execute", `{"code":"1 + 1"}`, map[string]string{"X-Essence-Token": "secret"})
	if code != http.StatusOK || body["output"] != "2" {
		t.Fatalf("expected authorized execute, got %d %#v", code, body)
	}
}

func TestEmitEndpoint(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "")

	var got []any
	s.Dispatcher().On("ping", func(v any) { got = append(got, v) })

	code, body := do(t, s, http.MethodPost, "/api/events/ping", `{"code":"[1, 2]"}`, nil)
	if code != http.StatusOK || body["output"] != "emitted ping to 1 listeners" {
		t.Fatalf("unexpected emit response %d %#v", code, body)
	}
	code, _ = do(t, s, http.MethodPost, "/api/events/ping", "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected empty body to emit nil, got %d", code)
	}
	if len(got) != 2 || got[1] != nil {
		t.Fatalf("unexpected payloads %#v", got)
	}

	code, _ = do(t, s, http.MethodPost, "/api/events/bad-name", `{"code":"1"}`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid event name, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, "")

	do(t, s, http.MethodPost, "/api/execute", `{"code":"1"}`, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "essence_dispatch_executions_total") {
		t.Fatalf("expected dispatch metrics in exposition")
	}
}

func TestServeListenerTLS(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	ca := tlstest.NewAuthority(t, "essence-test-ca")
	certFile, keyFile := ca.IssueLocalhost(t, t.TempDir())

	cfg := config.DefaultServerConfig()
	cfg.LogRequests = false
	cfg.TLSCertFile = certFile
	cfg.TLSKeyFile = keyFile
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate tls config: %v", err)
	}
	s := Appear(cfg, essence.New(essence.Config{MemorySize: 0}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: ca.Pool()}},
	}
	url := "https://" + ln.Addr().String() + "/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = client.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("tls health request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.TLS == nil {
		t.Fatalf("expected 200 over TLS, got %d tls=%v", resp.StatusCode, resp.TLS != nil)
	}
	testlog.Logf("server/tls: GET %s status=%d", url, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}
