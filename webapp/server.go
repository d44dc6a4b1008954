package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"

	"mmr-forecast/chart"
	"mmr-forecast/dashboard"
	"mmr-forecast/predictor"
	"mmr-forecast/series"
)

const (
	sessionHeader = "X-Session-ID"
	sessionTTL    = 30 * time.Minute
)

type Server struct {
	service *predictor.Service
	adapter chart.Adapter
	log     *slog.Logger

	sessions map[string]*session
	mu       sync.Mutex
}

// session is one page load: its own overlay, chart snapshot and in-flight flag.
type session struct {
	board    *dashboard.Dashboard
	snapshot *chart.Snapshot
	seen     time.Time
}

var indexTmpl = template.Must(template.New("home").Parse(indexHTML))

func NewServer(service *predictor.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:  service,
		adapter:  chart.Adapter{Title: "Maternal Mortality Ratio"},
		log:      logger,
		sessions: make(map[string]*session),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, service *predictor.Service, logger *slog.Logger) error {
	s := NewServer(service, logger)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard available", "url", "http://"+displayAddr(addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/model-info", s.handleModelInfo)
	mux.HandleFunc("/api/schema", s.handleSchema)
	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/api/submit", s.handleSubmit)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/chart.png", s.handleChartPNG)
	return withRequestLog(s.log, withCORS(mux))
}

// openSession starts a dashboard with its history loaded and registers it
// under a fresh id. Sessions idle for longer than sessionTTL are dropped.
func (s *Server) openSession(ctx context.Context) (string, *session) {
	id := uuid.New().String()
	snap := chart.NewSnapshot(s.adapter)
	local := predictor.Local{Service: s.service}
	board := dashboard.New(local, local, snap, s.log.With("component", "dashboard", "session", id))
	// Load failures are logged by the dashboard; the chart just stays empty.
	_ = board.Load(ctx)

	sess := &session{board: board, snapshot: snap, seen: time.Now()}
	s.mu.Lock()
	for k, old := range s.sessions {
		if sess.seen.Sub(old.seen) > sessionTTL {
			delete(s.sessions, k)
		}
	}
	s.sessions[id] = sess
	s.mu.Unlock()
	return id, sess
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get(sessionHeader); id != "" {
		return id
	}
	return r.URL.Query().Get("session")
}

// sessionFor returns the caller's session, opening a new one for a missing or
// expired id. The id in use is echoed in the response header.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session {
	id := sessionID(r)
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.seen = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		id, sess = s.openSession(r.Context())
	}
	w.Header().Set(sessionHeader, id)
	return sess
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// submitRequest mirrors the form; every field may arrive as null.
type submitRequest = predictor.Input

type pageData struct {
	Session string
}

type submitResponse struct {
	Summary dashboard.Summary `json:"summary"`
	Chart   *chart.Config     `json:"chart,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	// Every page load gets its own overlay.
	id, _ := s.openSession(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(sessionHeader, id)
	if err := indexTmpl.Execute(w, pageData{Session: id}); err != nil {
		s.log.Error("render page", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.service.History())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in predictor.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.service.Predict(in)
	if err != nil {
		s.writeError(w, predictStatus(err), err.Error())
		return
	}
	s.writeJSON(w, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, healthResponse{Status: "healthy", ModelLoaded: s.service != nil})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.service.Info())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s.writeJSON(w, reflector.Reflect(&series.PredictionRequest{}))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	cfg, ok := sess.snapshot.Latest()
	if !ok {
		s.writeError(w, http.StatusServiceUnavailable, "chart not initialized")
		return
	}
	s.writeJSON(w, cfg)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.board.Loaded() {
		s.writeError(w, http.StatusServiceUnavailable, "chart not initialized")
		return
	}
	var buf bytes.Buffer
	if err := s.adapter.WritePNG(&buf, sess.board.State()); err != nil {
		s.log.Error("render chart png", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Debug("write chart png", "error", err)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in submitRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Year == nil {
		s.writeError(w, http.StatusBadRequest, predictor.ErrYearRequired.Error())
		return
	}
	sess := s.sessionFor(w, r)
	summary, err := sess.board.Submit(r.Context(), series.PredictionRequest{
		Year:                   *in.Year,
		SkilledBirthAttendance: orNaN(in.SkilledBirthAttendance),
		AntenatalCareCoverage:  orNaN(in.AntenatalCareCoverage),
		HealthSpending:         orNaN(in.HealthSpending),
	})
	if err != nil {
		if errors.Is(err, dashboard.ErrBusy) {
			s.writeError(w, http.StatusConflict, dashboard.UserMessage(err))
			return
		}
		s.writeError(w, predictStatus(err), err.Error())
		return
	}
	resp := submitResponse{Summary: summary}
	if cfg, ok := sess.snapshot.Latest(); ok {
		resp.Chart = &cfg
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	delete(s.sessions, sessionID(r))
	s.mu.Unlock()
	id, _ := s.openSession(r.Context())
	w.Header().Set(sessionHeader, id)
	s.writeJSON(w, map[string]string{"status": "reset", "session": id})
}

func predictStatus(err error) int {
	if predictor.IsInputError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	s.writeJSONStatus(w, http.StatusOK, v)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Error("encoding JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSONStatus(w, status, errorResponse{Error: msg})
}
