package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/auth"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

const apiTestSecret = "api-test-secret"

type envelope struct {
	Result  string          `json:"result"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// testTable builds a six-motor table with motor 3 reporting healthy data.
func testTable(t *testing.T) *monitor.Table {
	t.Helper()

	tbl := monitor.NewTable(6, 0)
	now := time.Now()
	err := tbl.Accept(telemetry.MotorSample{
		MotorIndex:   2,
		Updated:      true,
		ThrottleIn:   42.5,
		ThrottleOut:  43.1,
		RPM:          5230.25,
		BusVoltage:   22.4,
		BusCurrent:   9.4,
		PhaseCurrent: 3.1,
		MosfetTemp:   41.2,
		CapTemp:      38.9,
	}, now)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	tbl.ClassifyAll(health.NewEngine(health.DefaultLimits()), now)
	return tbl
}

func newTestMux(t *testing.T, mw *auth.Middleware) (*http.ServeMux, *Stream) {
	t.Helper()

	stream := NewStream()
	srv := NewServer(testTable(t), stream, mw)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return mux, stream
}

func doGet(t *testing.T, mux *http.ServeMux, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("GET %s: response is not an envelope: %v\n%s", path, err, rr.Body.String())
	}
	return rr, env
}

func mintAPIToken(t *testing.T, scopes ...string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "test-user",
		"scopes": scopes,
	}).SignedString([]byte(apiTestSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHealthStaysOpenWithAuth(t *testing.T) {
	verifier, err := auth.NewVerifier(apiTestSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	mux, _ := newTestMux(t, auth.NewMiddleware(verifier))

	rr, env := doGet(t, mux, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rr.Code)
	}
	if env.Result != "ok" {
		t.Errorf("result = %q, want ok", env.Result)
	}

	var data struct {
		Status string `json:"status"`
		Motors int    `json:"motors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Status != "ok" || data.Motors != 6 {
		t.Errorf("data = %+v, want status ok with 6 motors", data)
	}
}

func TestStatusEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rr, env := doGet(t, mux, "/api/v1/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/status = %d, want 200", rr.Code)
	}

	var snap telemetry.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.MotorStatusList) != 6 {
		t.Fatalf("motorStatusList has %d entries, want 6", len(snap.MotorStatusList))
	}
	if snap.MotorStatusList[2] != "normal" {
		t.Errorf("motor 3 status = %q, want normal", snap.MotorStatusList[2])
	}
	if snap.MotorStatusList[0] != "unknown" {
		t.Errorf("motor 1 status = %q, want unknown", snap.MotorStatusList[0])
	}
	if snap.MotorRPMList[2] != 5230.25 {
		t.Errorf("motor 3 rpm = %v, want 5230.25", snap.MotorRPMList[2])
	}
}

func TestStatusEndpointRejectsPost(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/v1/status = %d, want 405", rr.Code)
	}
}

func TestMotorsEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rr, env := doGet(t, mux, "/api/v1/motors", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/motors = %d, want 200", rr.Code)
	}

	var views []struct {
		Motor  string        `json:"motor"`
		Status health.Status `json:"status"`
		Seen   bool          `json:"seen"`
	}
	if err := json.Unmarshal(env.Data, &views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	if len(views) != 6 {
		t.Fatalf("listed %d motors, want 6", len(views))
	}
	if views[2].Motor != "3" || views[2].Status != health.StatusNormal || !views[2].Seen {
		t.Errorf("motor 3 view = %+v, want seen and normal", views[2])
	}
	if views[0].Motor != "1" || views[0].Status != health.StatusUnknown {
		t.Errorf("motor 1 view = %+v, want unknown", views[0])
	}
}

func TestMotorEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	rr, env := doGet(t, mux, "/api/v1/motors/3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/motors/3 = %d, want 200", rr.Code)
	}
	var view struct {
		Motor  string                `json:"motor"`
		Status health.Status         `json:"status"`
		Sample telemetry.MotorSample `json:"sample"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Motor != "3" || view.Status != health.StatusNormal {
		t.Errorf("view = %+v, want motor 3 normal", view)
	}
	if view.Sample.RPM != 5230.25 {
		t.Errorf("sample rpm = %v, want 5230.25", view.Sample.RPM)
	}

	for _, path := range []string{
		"/api/v1/motors/0",
		"/api/v1/motors/7",
		"/api/v1/motors/abc",
	} {
		rr, env := doGet(t, mux, path, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rr.Code)
		}
		if env.Code != "NOT_FOUND" {
			t.Errorf("GET %s code = %q, want NOT_FOUND", path, env.Code)
		}
	}
}

func TestScopesGateEndpoints(t *testing.T) {
	verifier, err := auth.NewVerifier(apiTestSecret)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	mux, _ := newTestMux(t, auth.NewMiddleware(verifier))

	readToken := mintAPIToken(t, auth.ScopeRead)
	streamToken := mintAPIToken(t, auth.ScopeTelemetry)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"status without token", "/api/v1/status", "", http.StatusUnauthorized},
		{"status with read scope", "/api/v1/status", readToken, http.StatusOK},
		{"status with wrong scope", "/api/v1/status", streamToken, http.StatusForbidden},
		{"motors with read scope", "/api/v1/motors", readToken, http.StatusOK},
		{"stream with read scope only", "/api/v1/stream", readToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := doGet(t, mux, tt.path, tt.token)
			if rr.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rr.Code, tt.want)
			}
		})
	}
}

func TestStreamDeliversPublishedDocuments(t *testing.T) {
	mux, stream := newTestMux(t, nil)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	rd := bufio.NewReader(resp.Body)
	readLine := func() string {
		line, err := rd.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		return line
	}

	if line := readLine(); line != "event: ready\n" {
		t.Fatalf("first frame = %q, want ready event", line)
	}
	readLine() // data: {}
	readLine() // blank

	// The ready frame confirms the subscription is registered.
	stream.Publish(monitor.DocSnapshot, []byte(`{"motorRPMList":[5230]}`))

	if line := readLine(); line != "event: snapshot\n" {
		t.Errorf("event line = %q, want snapshot", line)
	}
	if line := readLine(); line != `data: {"motorRPMList":[5230]}`+"\n" {
		t.Errorf("data line = %q", line)
	}
}

func TestStreamRejectsNonGet(t *testing.T) {
	mux, _ := newTestMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stream", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/v1/stream = %d, want 405", rr.Code)
	}
}

func TestStreamSubscriberBookkeeping(t *testing.T) {
	stream := NewStream()

	ch := stream.Subscribe()
	if stream.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", stream.ClientCount())
	}

	stream.Publish(monitor.DocStatusLine, []byte(`{"motor":"1","status":"normal"}`))
	select {
	case frame := <-ch:
		want := "event: status\ndata: {\"motor\":\"1\",\"status\":\"normal\"}\n\n"
		if string(frame) != want {
			t.Errorf("frame = %q, want %q", frame, want)
		}
	default:
		t.Fatal("published frame never reached the subscriber")
	}

	stream.Unsubscribe(ch)
	if stream.ClientCount() != 0 {
		t.Fatalf("ClientCount after unsubscribe = %d, want 0", stream.ClientCount())
	}
	// A broadcast after unsubscribe must not panic or block.
	stream.Publish(monitor.DocStatusLine, []byte(`{}`))
}
