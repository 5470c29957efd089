// Package server exposes analyzed G-code documents over HTTP and
// WebSocket. REST endpoints answer one-shot document queries; WebSocket
// clients additionally receive periodic playback notifications driven by
// a server-side clock.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gcodeview/pkg/kinematics"
	"gcodeview/pkg/log"
	"gcodeview/pkg/metrics"
)

const (
	maxUploadBytes   = 64 * 1024 * 1024
	broadcastPeriod  = 250 * time.Millisecond
	wsWriteTimeout   = 10 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsPingPeriod     = 30 * time.Second
	wsMaxMessageSize = 64 * 1024
)

// Config holds server configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8911".
	Addr string

	// Limits for the time estimator applied to loaded documents.
	Limits kinematics.Limits

	// FallbackRate for playback seeking in files without cut distance
	// or timing; zero selects the default.
	FallbackRate float64
}

// Server serves one active document at a time.
type Server struct {
	addr         string
	estimator    *kinematics.Estimator
	fallbackRate float64

	docMu sync.RWMutex
	doc   *Document

	player *player

	httpServer *http.Server
	upgrader   websocket.Upgrader

	clientMu sync.RWMutex
	clients  map[int64]*wsClient
	nextID   int64

	running atomic.Bool
	logger  *log.Logger
}

// New creates a server. The limits are validated up front.
func New(cfg Config) (*Server, error) {
	est, err := kinematics.NewEstimator(cfg.Limits)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:         cfg.Addr,
		estimator:    est,
		fallbackRate: cfg.FallbackRate,
		player:       newPlayer(),
		clients:      make(map[int64]*wsClient),
		logger:       log.GetLogger("server"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return s, nil
}

// Load parses, estimates, and installs a document as the active one.
// Playback rewinds to the start.
func (s *Server) Load(doc *Document) {
	s.docMu.Lock()
	s.doc = doc
	s.docMu.Unlock()
	s.player.reset()

	s.logger.WithField("name", doc.Name).
		WithField("segments", len(doc.Result.Segments)).
		Info("document loaded")

	s.notify("notify_document_loaded", doc.status())
}

// Document returns the active document, or nil.
func (s *Server) Document() *Document {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	return s.doc
}

// Handler builds the HTTP routing table. Exposed separately from Start
// so tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/websocket", s.handleWebSocket)

	mux.HandleFunc("/api/document", s.handleDocument)
	mux.HandleFunc("/api/document/load", s.handleLoad)
	mux.HandleFunc("/api/document/tools", s.handleTools)
	mux.HandleFunc("/api/document/segments", s.handleSegments)
	mux.HandleFunc("/api/playback", s.handlePlayback)
	mux.HandleFunc("/api/locate", s.handleLocate)

	mux.Handle("/metrics", metrics.Default().Registry.Handler())

	return mux
}

// Start runs the server until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.running.Store(true)
	s.logger.WithField("addr", s.addr).Info("listening")

	go s.broadcastLoop()

	return s.httpServer.ListenAndServe()
}

// Stop closes all client connections and the listener.
func (s *Server) Stop() error {
	s.running.Store(false)

	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = make(map[int64]*wsClient)
	s.clientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// REST handlers

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	if doc == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no document loaded"))
		return
	}
	s.writeJSON(w, map[string]any{"result": doc.status()})
}

// handleLoad accepts raw G-code as the request body and installs it as
// the active document. The file name comes from the "name" query
// parameter.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "untitled.gcode"
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	doc, err := LoadDocument(name, body, s.estimator, s.fallbackRate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Load(doc)
	s.writeJSON(w, map[string]any{"result": doc.status()})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	if doc == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no document loaded"))
		return
	}
	s.writeJSON(w, map[string]any{"result": map[string]any{
		"inline": doc.Result.Tools.IsInlineRegime(),
		"tools":  doc.toolList(),
	}})
}

// handleSegments pages through the segment list via "offset" and "limit"
// query parameters.
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	if doc == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no document loaded"))
		return
	}

	segments := doc.Result.Segments
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 1000)
	if offset < 0 {
		offset = 0
	}
	if offset > len(segments) {
		offset = len(segments)
	}
	end := offset + limit
	if limit <= 0 || end > len(segments) {
		end = len(segments)
	}

	page := make([]map[string]any, 0, end-offset)
	for i := offset; i < end; i++ {
		seg := &segments[i]
		page = append(page, map[string]any{
			"index": i,
			"kind":  seg.Kind.String(),
			"start": []float64{seg.Start.X, seg.Start.Y, seg.Start.Z},
			"end":   []float64{seg.End.X, seg.End.Y, seg.End.Z},
			"feed":  seg.FeedRate,
			"tool":  seg.Tool,
			"line":  seg.SourceLine,
		})
	}

	s.writeJSON(w, map[string]any{"result": map[string]any{
		"total":    len(segments),
		"offset":   offset,
		"segments": page,
	}})
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	if doc == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no document loaded"))
		return
	}
	s.writeJSON(w, map[string]any{"result": s.player.snapshot(doc)})
}

// handleLocate answers a one-shot seek query without touching the
// playback clock.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	if doc == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no document loaded"))
		return
	}

	traveled := queryFloat(r, "traveled", 0)
	elapsed := queryFloat(r, "elapsed", 0)
	speed := queryFloat(r, "speed", 1)

	loc := doc.Index.Locate(traveled, elapsed, speed)
	s.writeJSON(w, map[string]any{"result": map[string]any{
		"segment":  loc.Segment,
		"progress": loc.Progress,
	}})
}

// WebSocket command dispatch. Commands reuse the notification envelope:
// {"method": "...", "params": {...}, "id": n}.

func (s *Server) dispatchCommand(method string, params map[string]any) (any, error) {
	doc := s.Document()

	switch method {
	case "viewer.info":
		result := map[string]any{"loaded": doc != nil}
		if doc != nil {
			result["document"] = doc.status()
		}
		return result, nil
	case "playback.play":
		if doc == nil {
			return nil, fmt.Errorf("no document loaded")
		}
		s.player.play()
		return s.player.snapshot(doc), nil
	case "playback.pause":
		if doc == nil {
			return nil, fmt.Errorf("no document loaded")
		}
		s.player.pause()
		return s.player.snapshot(doc), nil
	case "playback.speed":
		if doc == nil {
			return nil, fmt.Errorf("no document loaded")
		}
		speed, _ := params["speed"].(float64)
		return map[string]any{"speed": s.player.setSpeed(speed)}, nil
	case "playback.seek":
		if doc == nil {
			return nil, fmt.Errorf("no document loaded")
		}
		traveled, _ := params["traveled"].(float64)
		s.player.seek(traveled, doc)
		return s.player.snapshot(doc), nil
	default:
		return nil, fmt.Errorf("method not found: %s", method)
	}
}

// broadcastLoop advances the playback clock and pushes state to all
// connected clients.
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(broadcastPeriod)
	defer ticker.Stop()

	last := time.Now()
	for s.running.Load() {
		now := <-ticker.C
		dt := now.Sub(last).Seconds()
		last = now

		doc := s.Document()
		if doc == nil {
			continue
		}

		state := s.player.advance(dt, doc)
		s.notify("notify_playback_update", state)
	}
}

// notify fans a notification out to every connected client.
func (s *Server) notify(method string, params any) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	for _, c := range s.clients {
		c.send(wsMessage{Method: method, Params: params})
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := s.newClient(conn)

	s.clientMu.Lock()
	s.clients[client.id] = client
	s.clientMu.Unlock()

	s.logger.WithField("client", client.id).Debug("websocket connected")

	go client.writePump()
	client.readPump() // blocks until the connection closes
}

func (s *Server) removeClient(c *wsClient) {
	s.clientMu.Lock()
	delete(s.clients, c.id)
	s.clientMu.Unlock()
	s.logger.WithField("client", c.id).Debug("websocket disconnected")
}

// JSON helpers

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": err.Error()},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
