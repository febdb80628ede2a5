// Package web serves the prediction form, the JSON prediction API, and a
// websocket stream of live usage stats. One submission triggers one linear
// pass: validate, predict, render.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"ckd-predictor/internal/attrs"
	"ckd-predictor/internal/metrics"
	"ckd-predictor/internal/ml"
	"ckd-predictor/internal/storage"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// UsageStats is a live snapshot broadcast to websocket clients.
type UsageStats struct {
	Timestamp          time.Time `json:"timestamp"`
	PredictionsServed  int64     `json:"predictionsServed"`
	ValidationFailures int64     `json:"validationFailures"`
	LastProbability    float64   `json:"lastProbability"`
	LastLabel          string    `json:"lastLabel"`
	ModelVersion       string    `json:"modelVersion"`
	FallbackActive     bool      `json:"fallbackActive"`
}

// PredictRequest is the JSON body of POST /api/predict. Values arrive as
// strings exactly as entered in the form.
type PredictRequest struct {
	Values map[string]string `json:"values"`
}

// Indicator positions one submitted value within its clinical range for the
// result charts.
type Indicator struct {
	Field string  `json:"field"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// PredictResponse is the JSON result of one prediction.
type PredictResponse struct {
	Probability  float64     `json:"probability"`
	Label        string      `json:"label"`
	Threshold    float64     `json:"threshold"`
	ModelVersion string      `json:"model_version"`
	Fallback     bool        `json:"fallback"`
	LatencyMs    float64     `json:"latency_ms"`
	Indicators   []Indicator `json:"indicators"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Server hosts the form UI and prediction API.
type Server struct {
	predictor *ml.Predictor
	store     *storage.Store // nil when history is disabled
	rec       *metrics.Recorder
	tmpl      *template.Template

	server       *http.Server
	historyLimit int

	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan UsageStats
	stop      chan struct{}

	mu      sync.RWMutex
	running bool

	statsMu     sync.Mutex
	predictions int64
	failures    int64
	lastScore   ml.RiskScore
}

// NewServer creates the web server on the given port. store may be nil.
func NewServer(predictor *ml.Predictor, store *storage.Store, rec *metrics.Recorder, port, historyLimit int) *Server {
	s := &Server{
		predictor:    predictor,
		store:        store,
		rec:          rec,
		tmpl:         template.Must(template.New("form").Parse(pageTemplate)),
		historyLimit: historyLimit,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan UsageStats, 100),
		stop:         make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleForm).Methods("GET")
	r.HandleFunc("/api/predict", s.handlePredict).Methods("POST")
	r.HandleFunc("/api/model/info", s.handleModelInfo).Methods("GET")
	r.HandleFunc("/api/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start launches the HTTP server and the stats broadcast loops.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("web server is already running")
	}

	go s.statsCollector()
	go s.clientBroadcaster()

	go func() {
		log.Info().Str("address", s.server.Addr).Msg("starting web server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("web server failed")
		}
	}()

	s.running = true
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	close(s.stop)

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown web server")
		return err
	}

	s.running = false
	log.Info().Msg("web server stopped")
	return nil
}

// statsCollector snapshots usage stats every second for broadcasting.
func (s *Server) statsCollector() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case s.broadcast <- s.collectStats():
			default:
				// Channel full, skip this update
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Server) clientBroadcaster() {
	for {
		select {
		case stats := <-s.broadcast:
			s.broadcastToClients(stats)
		case <-s.stop:
			return
		}
	}
}

func (s *Server) collectStats() UsageStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	return UsageStats{
		Timestamp:          time.Now(),
		PredictionsServed:  s.predictions,
		ValidationFailures: s.failures,
		LastProbability:    s.lastScore.Probability,
		LastLabel:          s.lastScore.Label,
		ModelVersion:       s.predictor.ModelVersion(),
		FallbackActive:     !s.predictor.Available(),
	}
}

func (s *Server) broadcastToClients(stats UsageStats) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	data, err := json.Marshal(stats)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stats for broadcast")
		return
	}

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(s.clients, client)
		}
	}
}

// Template data for the form page.
type pageGroup struct {
	Name   string
	Fields []pageField
}

type pageField struct {
	Name        string
	Label       string
	Categorical bool
	Min         float64
	Max         float64
	Options     []string
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if s.rec != nil {
		s.rec.RequestsInc()
	}

	groups := make([]pageGroup, 0, 3)
	for _, name := range attrs.Groups() {
		g := pageGroup{Name: name}
		for _, f := range attrs.Fields {
			if f.Group != name {
				continue
			}
			g.Fields = append(g.Fields, pageField{
				Name:        f.Name,
				Label:       f.Label,
				Categorical: f.Kind == attrs.Categorical,
				Min:         f.Min,
				Max:         f.Max,
				Options:     f.Options,
			})
		}
		groups = append(groups, g)
	}

	w.Header().Set("Content-Type", "text/html")
	if err := s.tmpl.Execute(w, struct{ Groups []pageGroup }{groups}); err != nil {
		log.Error().Err(err).Msg("failed to render form page")
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.rec != nil {
		s.rec.RequestsInc()
	}
	start := time.Now()

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	record, err := attrs.Collect(req.Values)
	if err != nil {
		var verr *attrs.ValidationError
		if errors.As(err, &verr) {
			if s.rec != nil {
				s.rec.ValidationFailuresInc()
			}
			s.statsMu.Lock()
			s.failures++
			s.statsMu.Unlock()

			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	score, err := s.predictor.Predict(record)
	if err != nil {
		if errors.Is(err, ml.ErrModelUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model unavailable"})
			return
		}
		var ierr *ml.InvalidInputError
		if errors.As(err, &ierr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: ierr.Error()})
			return
		}
		log.Error().Err(err).Msg("prediction failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
		return
	}

	s.statsMu.Lock()
	s.predictions++
	s.lastScore = score
	s.statsMu.Unlock()

	if s.store != nil {
		rec := storage.PredictionRecord{
			Timestamp:    time.Now(),
			Vector:       record.Vector(),
			Probability:  score.Probability,
			Label:        score.Label,
			ModelVersion: s.predictor.ModelVersion(),
			Fallback:     score.Fallback,
		}
		if err := s.store.StorePrediction(rec); err != nil {
			log.Warn().Err(err).Msg("failed to persist prediction record")
		} else if s.rec != nil {
			s.rec.HistoryWritesInc()
		}
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		Probability:  score.Probability,
		Label:        score.Label,
		Threshold:    s.predictor.Threshold(),
		ModelVersion: s.predictor.ModelVersion(),
		Fallback:     score.Fallback,
		LatencyMs:    float64(time.Since(start).Microseconds()) / 1000.0,
		Indicators:   buildIndicators(record),
	})
}

// buildIndicators returns the numeric lab values positioned within their
// clinical ranges for the result charts.
func buildIndicators(record attrs.PatientRecord) []Indicator {
	indicators := make([]Indicator, 0, len(attrs.Fields))
	for _, f := range attrs.Fields {
		if f.Kind != attrs.Numeric {
			continue
		}
		val, ok := record.Get(f.Name)
		if !ok {
			continue
		}
		indicators = append(indicators, Indicator{
			Field: f.Name,
			Label: f.Label,
			Value: val,
			Min:   f.Min,
			Max:   f.Max,
		})
	}
	return indicators
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if s.rec != nil {
		s.rec.RequestsInc()
	}
	writeJSON(w, http.StatusOK, s.predictor.ModelInfo())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.rec != nil {
		s.rec.RequestsInc()
	}

	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "prediction history is not enabled"})
		return
	}

	records, err := s.store.Recent(s.historyLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to read prediction history")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read history"})
		return
	}
	if records == nil {
		records = []storage.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	// Send initial snapshot
	if data, err := json.Marshal(s.collectStats()); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":        "ok",
		"model_version": s.predictor.ModelVersion(),
		"fallback":      !s.predictor.Available(),
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
