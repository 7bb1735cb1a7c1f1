package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/atlasmap-sc/scatter/internal/cache"
	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/dataset"
	"github.com/atlasmap-sc/scatter/internal/service"
)

// testServer holds the router and its dependencies
type testServer struct {
	router http.Handler
	store  *service.Store
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	var b strings.Builder
	b.WriteString("x,y\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, i%7)
	}
	ds, err := dataset.Read(strings.NewReader(b.String()), dataset.Columns{})
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	ds.ID = "line"

	cacheManager, err := cache.NewManager(cache.Config{
		FrameCacheSizeMB: 16,
		FrameTTL:         time.Minute,
		QueryCacheSize:   16,
	})
	if err != nil {
		t.Fatalf("Failed to initialize cache: %v", err)
	}
	t.Cleanup(func() { cacheManager.Close() })

	store := service.NewStore(4, time.Minute)
	t.Cleanup(store.Close)

	registry := NewDatasetRegistry("", "")
	registry.Register(ds)

	plotCfg := config.DefaultConfig().Plot
	plotCfg.Width, plotCfg.Height = 320, 240

	router := NewRouter(RouterConfig{
		Registry:    registry,
		Sessions:    store,
		Cache:       cacheManager,
		Plot:        plotCfg,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{router: router, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/sessions", map[string]string{"dataset": "line"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if resp.ID == "" || resp.Dataset != "line" {
		t.Fatalf("unexpected session response %+v", resp)
	}
	return resp.ID
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestDatasets(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/datasets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	var payload struct {
		Default  string        `json:"default"`
		Datasets []DatasetInfo `json:"datasets"`
		Title    string        `json:"title"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if payload.Default != "line" || len(payload.Datasets) != 1 || payload.Datasets[0].Points != 20 {
		t.Errorf("unexpected payload %+v", payload)
	}
	if payload.Title != "Scatter" {
		t.Errorf("unexpected title %q", payload.Title)
	}
}

func TestCreateSession_UnknownDataset(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/sessions", map[string]string{"dataset": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/sessions/missing/frame.png", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFrame(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodGet, "/api/sessions/"+id+"/frame.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("frame: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}
	if rec.Header().Get("X-Render-Version") == "" {
		t.Error("missing render version header")
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("frame is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("frame size %v, want 320x240", b)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	rec := ts.do(t, http.MethodPut, base+"/selection", selectionBody{Indices: []int{5, 2}})
	if rec.Code != http.StatusOK {
		t.Fatalf("put selection: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, base+"/selection/add", selectionBody{Indices: []int{9}})
	if rec.Code != http.StatusOK {
		t.Fatalf("add selection: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, base+"/selection", nil)
	var got selectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	slices.Sort(got.Indices)
	if !slices.Equal(got.Indices, []int{2, 5, 9}) {
		t.Errorf("selection = %v, want [2 5 9]", got.Indices)
	}

	rec = ts.do(t, http.MethodPut, base+"/selection", selectionBody{Indices: []int{99}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad index, got %d", rec.Code)
	}
}

func TestWindowAndGestures(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t)
	base := "/api/sessions/" + id

	rec := ts.do(t, http.MethodPut, base+"/window", service.Window{X0: 2, X1: 6, Y0: 1, Y1: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("put window: %d %s", rec.Code, rec.Body.String())
	}
	var win service.Window
	if err := json.Unmarshal(rec.Body.Bytes(), &win); err != nil {
		t.Fatal(err)
	}
	if win.X0 > 2 || win.X1 < 6 {
		t.Errorf("window %+v does not contain the request", win)
	}

	rec = ts.do(t, http.MethodPost, base+"/gesture", service.Gesture{Type: "reset"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset: %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, base+"/gesture", service.Gesture{Type: "spin"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown gesture, got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, base+"/hit?x=abc&y=1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad coordinate, got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, base+"/hit?x=1&y=1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("hit: %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodGet, base+"/stats", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("stats: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteSession(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/api/sessions/"+id+"/window", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestEventsStream(t *testing.T) {
	ts := setupTestServer(t)
	id := ts.createSession(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/events"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, service.Gesture{Type: "zoom", Factor: 2, X: 100, Y: 80}); err != nil {
		t.Fatalf("write gesture: %v", err)
	}
	for {
		var n service.Notification
		if err := wsjson.Read(ctx, conn, &n); err != nil {
			t.Fatalf("read: %v", err)
		}
		if n.Type == "error" {
			t.Fatalf("gesture rejected: %s", n.Reason)
		}
		if n.Type == "window" {
			if n.Window == nil {
				t.Fatal("window notification without a window")
			}
			return
		}
	}
}
