package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"centerout/adapters/clock"
	"centerout/adapters/ledger"
	"centerout/app"
	"centerout/internal/params"
	"centerout/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	srv   *Server
	svc   *app.TaskService
	clock *clock.Manual
	hub   *SSEHub
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := ledger.Open(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := ledger.NewAttemptRepository(db)

	p := params.Default()
	p.Device = params.Device{Left: 0, Right: 600, Bottom: 0, Top: 600}
	p.Subject = "S07"
	p.Seed = 1

	hub := NewSSEHub(nil)
	t.Cleanup(hub.Close)
	clk := clock.NewManual(0)
	svc, err := app.NewTaskService(p, app.TaskDeps{Clock: clk, Ledger: repo, Events: hub})
	require.NoError(t, err)
	return fixture{srv: NewServer(svc, repo, hub, clk, nil), svc: svc, clock: clk, hub: hub}
}

func (f fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/session/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "t1_pre", decode(t, w)["phase"])

	w = f.do(t, http.MethodPost, "/api/session/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, w)["code"])

	w = f.do(t, http.MethodPost, "/api/sample", ports.RawSample{X: 300, Y: 300, TimestampMs: 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/sample", ports.RawSample{X: 300, Y: 300, TimestampMs: 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, "t1_hold_1", status["phase"])
	assert.EqualValues(t, 1, status["rows"])
	assert.EqualValues(t, 15, status["total"])

	w = f.do(t, http.MethodGet, "/api/rows?since=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = f.do(t, http.MethodPost, "/api/session/end", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "", decode(t, w)["export"])

	w = f.do(t, http.MethodPost, "/api/session/end", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandValidation(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/session/start", nil).Code)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"known phase", map[string]interface{}{"type": "state", "state": "go"}, http.StatusOK},
		{"unknown phase", map[string]interface{}{"type": "state", "state": "warp"}, http.StatusBadRequest},
		{"target hint", map[string]interface{}{"type": "tgt", "tgt": 6}, http.StatusOK},
		{"target out of range", map[string]interface{}{"type": "tgt", "tgt": 9}, http.StatusBadRequest},
		{"unknown command", map[string]interface{}{"type": "jump"}, http.StatusBadRequest},
		{"pause", map[string]interface{}{"type": "pause"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/command", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader("{"))
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, "idle", f.svc.Status().Phase.String())
}

func TestQueries(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/targets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	targets := body["targets"].([]interface{})
	require.Len(t, targets, 8)
	first := targets[0].(map[string]interface{})["position"].(map[string]interface{})
	assert.InDelta(t, 500, first["x"], 1e-9)
	assert.InDelta(t, 300, first["y"], 1e-9)

	w = f.do(t, http.MethodGet, "/api/params", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["fingerprint"])

	w = f.do(t, http.MethodGet, "/api/attempts?type=vmr&success=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["attempts"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/attempts?type=bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/attempts?limit=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/rows?since=x", nil).Code)

	w = f.do(t, http.MethodGet, "/api/session/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1")
	assert.Contains(t, w.Body.String(), "S07")
}

func TestSSEHub_FiltersAndCountsUsers(t *testing.T) {
	hub := NewSSEHub(nil)
	defer hub.Close()

	all := SSEClient{Channel: make(chan ports.TaskEvent, 8)}
	phases := SSEClient{Channel: make(chan ports.TaskEvent, 8), Types: map[string]bool{ports.EventPhase: true}}
	hub.register <- all
	hub.register <- phases
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(ports.TaskEvent{Type: ports.EventCursor})
	hub.Publish(ports.TaskEvent{Type: ports.EventPhase})

	next := func(c SSEClient) ports.TaskEvent {
		select {
		case e := <-c.Channel:
			return e
		case <-time.After(time.Second):
			t.Fatal("no event")
			return ports.TaskEvent{}
		}
	}
	assert.Equal(t, ports.EventUsers, next(all).Type)
	assert.Equal(t, ports.EventUsers, next(all).Type)
	assert.Equal(t, ports.EventCursor, next(all).Type)
	assert.Equal(t, ports.EventPhase, next(all).Type)
	assert.Equal(t, ports.EventPhase, next(phases).Type)
}

type recordingPublisher struct{ events []ports.TaskEvent }

func (r *recordingPublisher) Publish(e ports.TaskEvent) { r.events = append(r.events, e) }

func TestPublishers(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	Publishers{a, nil, b}.Publish(ports.TaskEvent{Type: ports.EventSession})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
