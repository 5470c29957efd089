package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gcodeview/pkg/kinematics"
)

const testProgram = `; Required tools:
; 1/8 end mill

T1 M6
G0 X5 Y5
G1 X15 F600
G1 Y15
G0 X0 Y0
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{Addr: ":0", Limits: kinematics.DefaultLimits()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func loadTestDocument(t *testing.T, s *Server) {
	t.Helper()
	doc, err := LoadDocument("test.gcode", strings.NewReader(testProgram), s.estimator, 0)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	s.Load(doc)
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("response missing 'result' field: %v", resp)
	}
	return result
}

func TestDocumentEndpointEmpty(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/document", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("no document: status = %d, want 404", rec.Code)
	}
}

func TestDocumentEndpoint(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	req := httptest.NewRequest("GET", "/api/document", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	result := decodeResult(t, rec)

	if result["name"] != "test.gcode" {
		t.Errorf("name = %v", result["name"])
	}
	if result["segments"].(float64) != 4 {
		t.Errorf("segments = %v, want 4", result["segments"])
	}
	if result["total_seconds"].(float64) <= 0 {
		t.Errorf("total_seconds = %v, want positive", result["total_seconds"])
	}
	if _, ok := result["bounds"]; !ok {
		t.Error("result missing 'bounds'")
	}
}

func TestLoadEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/document/load?name=demo.nc", strings.NewReader(testProgram))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	result := decodeResult(t, rec)
	if result["name"] != "demo.nc" {
		t.Errorf("name = %v", result["name"])
	}

	if s.Document() == nil {
		t.Error("document was not installed")
	}
}

func TestToolsEndpoint(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	req := httptest.NewRequest("GET", "/api/document/tools", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	result := decodeResult(t, rec)
	tools, ok := result["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v, want one entry", result["tools"])
	}
	first := tools[0].(map[string]any)
	if first["name"] != "1/8 end mill" {
		t.Errorf("tool name = %v", first["name"])
	}
}

func TestSegmentsEndpointPaging(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	req := httptest.NewRequest("GET", "/api/document/segments?offset=1&limit=2", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	result := decodeResult(t, rec)
	if result["total"].(float64) != 4 {
		t.Errorf("total = %v, want 4", result["total"])
	}
	page := result["segments"].([]any)
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	first := page[0].(map[string]any)
	if first["index"].(float64) != 1 {
		t.Errorf("first index = %v, want 1", first["index"])
	}
	if first["kind"] != "cut" {
		t.Errorf("first kind = %v, want cut", first["kind"])
	}
}

func TestLocateEndpoint(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	req := httptest.NewRequest("GET", "/api/locate?traveled=5", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	result := decodeResult(t, rec)
	// 5 mm into the first 10 mm cut (segment 1).
	if result["segment"].(float64) != 1 {
		t.Errorf("segment = %v, want 1", result["segment"])
	}
	if p := result["progress"].(float64); p < 0.49 || p > 0.51 {
		t.Errorf("progress = %v, want ~0.5", p)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gcodeview_segments_total") {
		t.Error("metrics output missing segment counter")
	}
}

func TestPlaybackCommands(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	if _, err := s.dispatchCommand("playback.play", nil); err != nil {
		t.Fatalf("play: %v", err)
	}
	doc := s.Document()
	state := s.player.advance(1, doc)
	if !state.Playing && !state.Done {
		t.Error("player should be playing after play command")
	}
	if state.Elapsed <= 0 {
		t.Errorf("elapsed = %v, want positive after a 1s tick", state.Elapsed)
	}

	if _, err := s.dispatchCommand("playback.pause", nil); err != nil {
		t.Fatalf("pause: %v", err)
	}
	before := s.player.snapshot(doc).Elapsed
	after := s.player.advance(1, doc).Elapsed
	if after != before {
		t.Error("paused player must not advance")
	}

	result, err := s.dispatchCommand("playback.speed", map[string]any{"speed": 2.0})
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	if result.(map[string]any)["speed"].(float64) != 2 {
		t.Errorf("speed result = %v", result)
	}

	if _, err := s.dispatchCommand("playback.seek", map[string]any{"traveled": 10.0}); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if got := s.player.snapshot(doc).Traveled; got != 10 {
		t.Errorf("traveled after seek = %v, want 10", got)
	}
}

func TestPlaybackRunsToCompletion(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)
	doc := s.Document()

	s.player.play()
	state := s.player.advance(doc.Report.TotalSeconds*2, doc)
	if !state.Done {
		t.Error("player should finish after the full estimated duration")
	}
	if state.Playing {
		t.Error("finished player must pause itself")
	}
	if state.Segment != len(doc.Result.Segments)-1 {
		t.Errorf("final segment = %d, want last", state.Segment)
	}
}

func TestCommandsWithoutDocument(t *testing.T) {
	s := newTestServer(t)
	for _, method := range []string{"playback.play", "playback.pause", "playback.seek"} {
		if _, err := s.dispatchCommand(method, nil); err == nil {
			t.Errorf("%s without a document should fail", method)
		}
	}

	result, err := s.dispatchCommand("viewer.info", nil)
	if err != nil {
		t.Fatalf("viewer.info: %v", err)
	}
	if result.(map[string]any)["loaded"] != false {
		t.Error("viewer.info should report loaded=false")
	}
}

func TestWebSocketCommand(t *testing.T) {
	s := newTestServer(t)
	loadTestDocument(t, s)

	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + server.URL[4:] + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"method": "viewer.info", "id": 1}); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp map[string]any
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
	result, ok := resp["result"].(map[string]any)
	if !ok || result["loaded"] != true {
		t.Errorf("result = %v, want loaded=true", resp["result"])
	}
}

func TestWebSocketUnknownMethod(t *testing.T) {
	s := newTestServer(t)

	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + server.URL[4:] + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"method": "nope", "id": 2}); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp map[string]any
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if resp["error"] == nil {
		t.Error("unknown method should return an error")
	}
}
