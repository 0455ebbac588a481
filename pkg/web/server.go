package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/export"
	"github.com/tsanders/estimate-ai/pkg/ingest"
	"github.com/tsanders/estimate-ai/pkg/pipeline"
	"github.com/tsanders/estimate-ai/pkg/session"
	"github.com/tsanders/estimate-ai/pkg/templates"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// errBusy is returned while another generation or edit holds the server.
var errBusy = errors.New("generation already in progress")

const (
	maxUploadBytes = 64 << 20
	maxBodyBytes   = 8 << 20
)

// Config holds the collaborators of an EstimateServer.
type Config struct {
	Generator *pipeline.Generator
	Sessions  *session.Store     // a fresh store when nil
	Ingest    *ingest.Extractor  // ingest.New() when nil
	PDF       export.PDFRenderer // PDF export disabled when nil
	Logger    *zap.Logger
	Addr      string           // default: 127.0.0.1:8080
	Now       func() time.Time // clock for export filenames
}

// EstimateServer serves the estimate web UI and its JSON API.
type EstimateServer struct {
	generator *pipeline.Generator
	sessions  *session.Store
	extractor *ingest.Extractor
	pdf       export.PDFRenderer
	logger    *zap.Logger
	addr      string
	now       func() time.Time

	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex
	writeMutex   sync.Mutex
	server       *http.Server

	generating bool
	busyMutex  sync.Mutex
}

// NewEstimateServer creates a new web server.
func NewEstimateServer(cfg Config) *EstimateServer {
	s := &EstimateServer{
		generator: cfg.Generator,
		sessions:  cfg.Sessions,
		extractor: cfg.Ingest,
		pdf:       cfg.PDF,
		logger:    cfg.Logger,
		addr:      cfg.Addr,
		now:       cfg.Now,
		clients:   make(map[*websocket.Conn]bool),
	}
	if s.sessions == nil {
		s.sessions = session.NewStore()
	}
	if s.extractor == nil {
		s.extractor = ingest.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.addr == "" {
		s.addr = "127.0.0.1:8080"
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the routed API. Everything except the WebSocket endpoint
// passes through the request logger.
func (s *EstimateServer) Handler() http.Handler {
	api := http.NewServeMux()

	// Static files
	api.Handle("GET /static/", http.FileServer(http.FS(staticFiles)))
	api.HandleFunc("GET /{$}", s.handleIndex)

	api.HandleFunc("GET /api/templates", s.handleTemplates)
	api.HandleFunc("GET /api/status", s.handleStatus)
	api.HandleFunc("POST /api/generate", s.handleGenerate)
	api.HandleFunc("POST /api/generate/raw", s.handleGenerateRaw)
	api.HandleFunc("POST /api/ingest", s.handleIngest)

	api.HandleFunc("GET /api/sessions", s.handleListSessions)
	api.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	api.HandleFunc("PUT /api/sessions/{id}", s.handleUpdateSession)
	api.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	api.HandleFunc("POST /api/sessions/{id}/edit", s.handleEditSession)
	api.HandleFunc("POST /api/sessions/{id}/reset", s.handleResetSession)
	api.HandleFunc("GET /api/sessions/{id}/export/html", s.handleExportHTML)
	api.HandleFunc("GET /api/sessions/{id}/export/pdf", s.handleExportPDF)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/", logRequests(s.logger, api))
	return mux
}

// Start starts the web server and optionally opens the browser. Template
// directory changes are picked up while it runs.
func (s *EstimateServer) Start(ctx context.Context, openBrowser bool) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Check if port is available
	if !s.isPortAvailable() {
		return fmt.Errorf("port %s is already in use", s.addr)
	}

	if store := s.generator.Templates(); store.Dir() != "" {
		go func() {
			if err := store.Watch(ctx); err != nil {
				s.logger.Warn("template watcher stopped", zap.Error(err))
			}
		}()
	}

	s.logger.Info("starting web interface", zap.String("url", "http://"+s.addr))

	if openBrowser {
		go s.openBrowserDelayed("http://" + s.addr)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the web server.
func (s *EstimateServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// isPortAvailable checks if the configured port is available.
func (s *EstimateServer) isPortAvailable() bool {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// openBrowserDelayed opens the browser after a short delay.
func (s *EstimateServer) openBrowserDelayed(url string) {
	time.Sleep(500 * time.Millisecond)
	if err := openBrowser(url); err != nil {
		s.logger.Warn("failed to open browser", zap.Error(err))
	}
}

// openBrowser opens the default browser to the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// acquire marks the server busy. It fails with errBusy when a generation
// or edit is already running.
func (s *EstimateServer) acquire() error {
	s.busyMutex.Lock()
	defer s.busyMutex.Unlock()
	if s.generating {
		return errBusy
	}
	s.generating = true
	return nil
}

func (s *EstimateServer) release() {
	s.busyMutex.Lock()
	s.generating = false
	s.busyMutex.Unlock()
}

func (s *EstimateServer) busy() bool {
	s.busyMutex.Lock()
	defer s.busyMutex.Unlock()
	return s.generating
}

// handleIndex serves the main HTML page.
func (s *EstimateServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("error writing response", zap.Error(err))
	}
}

func (s *EstimateServer) handleTemplates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.generator.Templates().List())
}

func (s *EstimateServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"generating": s.busy(),
		"provider":   s.generator.Provider().Name(),
		"sessions":   len(s.sessions.List()),
		"pdf":        s.pdf != nil,
	})
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Project      estimate.ProjectInfo `json:"project"`
	Template     string               `json:"template"`
	TemplateHTML string               `json:"templateHtml"`
}

// GenerateRawRequest is the body of POST /api/generate/raw.
type GenerateRawRequest struct {
	RawText      string               `json:"rawText"`
	Defaults     estimate.ProjectInfo `json:"defaults"`
	Template     string               `json:"template"`
	TemplateHTML string               `json:"templateHtml"`
}

// GenerateResponse carries the new session and the generation details.
type GenerateResponse struct {
	Session session.Snapshot `json:"session"`
	Result  *pipeline.Result `json:"result"`
}

func (s *EstimateServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.runGeneration(w, r, func(ctx context.Context, progress *WebSocketProgressWriter) (*pipeline.Result, error) {
		return s.generator.Generate(ctx, pipeline.Request{
			Project:      req.Project,
			Template:     req.Template,
			TemplateHTML: req.TemplateHTML,
			Progress:     progress,
		})
	})
}

func (s *EstimateServer) handleGenerateRaw(w http.ResponseWriter, r *http.Request) {
	var req GenerateRawRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.runGeneration(w, r, func(ctx context.Context, progress *WebSocketProgressWriter) (*pipeline.Result, error) {
		return s.generator.GenerateFromRaw(ctx, pipeline.RawRequest{
			RawText:      req.RawText,
			Defaults:     req.Defaults,
			Template:     req.Template,
			TemplateHTML: req.TemplateHTML,
			Progress:     progress,
		})
	})
}

// runGeneration holds the busy guard around gen, stores the result as a
// new session and broadcasts the outcome.
func (s *EstimateServer) runGeneration(w http.ResponseWriter, r *http.Request, gen func(context.Context, *WebSocketProgressWriter) (*pipeline.Result, error)) {
	if err := s.acquire(); err != nil {
		s.writeError(w, err)
		return
	}
	defer s.release()

	progress := NewWebSocketProgressWriter(s)
	res, err := gen(r.Context(), progress)
	if err != nil {
		progress.Error("견적서 생성 실패: %v", err)
		s.writeError(w, err)
		return
	}

	sess := s.sessions.Create(res.Project.DisplayName(), res.Template, res.Variant, res.HTML)
	snap := sess.Snapshot()
	s.BroadcastUpdate(ProgressUpdate{
		Type: "complete",
		Data: map[string]interface{}{
			"session_id":  snap.ID,
			"total":       res.Breakdown.Total,
			"tokens_used": res.TokensUsed,
			"cost":        res.Cost,
		},
	})
	s.writeJSON(w, http.StatusOK, GenerateResponse{Session: snap, Result: res})
}

// IngestResponse is the reply of POST /api/ingest.
type IngestResponse struct {
	Files    []ingest.Result `json:"files"`
	Combined string          `json:"combined"`
}

// handleIngest extracts text from the uploaded "files" parts. A file that
// cannot be read is reported in its own result and does not fail the
// request.
func (s *EstimateServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeMessage(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", h.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", h.Filename, err))
			return
		}
		files = append(files, ingest.File{Name: h.Filename, Data: data})
	}

	results := s.extractor.ExtractAll(r.Context(), files)
	s.writeJSON(w, http.StatusOK, IngestResponse{Files: results, Combined: ingest.Combine(results)})
}

func (s *EstimateServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *EstimateServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// UpdateRequest is the body of PUT /api/sessions/{id}.
type UpdateRequest struct {
	HTML string `json:"html"`
}

func (s *EstimateServer) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.HTML == "" {
		s.writeMessage(w, http.StatusBadRequest, "html is required")
		return
	}
	sess.Update(req.HTML)
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *EstimateServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditRequest is the body of POST /api/sessions/{id}/edit.
type EditRequest struct {
	Instruction string `json:"instruction"`
}

func (s *EstimateServer) handleEditSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req EditRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.acquire(); err != nil {
		s.writeError(w, err)
		return
	}
	defer s.release()

	err := sess.Edit(r.Context(), s.generator.Provider(), s.generator.Prompts(), req.Instruction)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session edited", zap.String("session", sess.ID), zap.String("instruction", req.Instruction))
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *EstimateServer) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *EstimateServer) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name := export.Filename(sess.Project, s.now(), "html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(name))
	_, _ = io.WriteString(w, export.Standalone(sess.Current()))
}

func (s *EstimateServer) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.pdf == nil {
		s.writeMessage(w, http.StatusServiceUnavailable, "PDF export is not available")
		return
	}
	data, err := s.pdf.RenderPDF(r.Context(), export.PrepareForPrint(sess.Current()))
	if err != nil {
		s.logger.Error("pdf export failed", zap.String("session", sess.ID), zap.Error(err))
		s.writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("pdf export failed: %v", err))
		return
	}
	name := export.Filename(sess.Project, s.now(), "pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(name))
	_, _ = w.Write(data)
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

// session looks up the {id} path value, answering 404 when it is unknown.
func (s *EstimateServer) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *EstimateServer) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// statusFor maps an error to its HTTP status. Anything unrecognized is
// treated as an upstream provider failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBusy):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, session.ErrEmptyInstruction),
		errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, templates.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func (s *EstimateServer) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.writeMessage(w, status, err.Error())
}

func (s *EstimateServer) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *EstimateServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("error encoding response", zap.Error(err))
	}
}

// handleWebSocket handles WebSocket connections for live updates.
func (s *EstimateServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.clientsMutex.Lock()
	s.clients[conn] = true
	s.clientsMutex.Unlock()

	// Handle messages from client
	go func() {
		defer func() {
			s.clientsMutex.Lock()
			delete(s.clients, conn)
			s.clientsMutex.Unlock()
			conn.Close()
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

// BroadcastUpdate sends an update to all connected WebSocket clients.
func (s *EstimateServer) BroadcastUpdate(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("failed to marshal update", zap.Error(err))
		return
	}

	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	// A connection allows one concurrent writer.
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("failed to send update to client", zap.Error(err))
		}
	}
}

// ProgressUpdate represents a WebSocket update message.
type ProgressUpdate struct {
	Type string      `json:"type"` // "info", "error", "phase_start", "step", "phase_end", "complete"
	Data interface{} `json:"data"`
}

// WebSocketProgressWriter implements ux.ProgressWriter and broadcasts to WebSocket clients.
type WebSocketProgressWriter struct {
	server *EstimateServer

	mu           sync.Mutex
	currentPhase string
	phaseIndex   int
	steps        int
	done         int
}

// NewWebSocketProgressWriter creates a writer broadcasting through server.
func NewWebSocketProgressWriter(server *EstimateServer) *WebSocketProgressWriter {
	return &WebSocketProgressWriter{server: server}
}

func (w *WebSocketProgressWriter) Info(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	w.server.BroadcastUpdate(ProgressUpdate{
		Type: "info",
		Data: map[string]string{
			"message": message,
		},
	})
}

func (w *WebSocketProgressWriter) Error(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	w.server.BroadcastUpdate(ProgressUpdate{
		Type: "error",
		Data: map[string]string{
			"message": message,
		},
	})
}

func (w *WebSocketProgressWriter) StartPhase(phaseName string, steps int) {
	w.mu.Lock()
	w.currentPhase = phaseName
	w.phaseIndex++
	w.steps = steps
	w.done = 0
	index := w.phaseIndex
	w.mu.Unlock()

	w.server.BroadcastUpdate(ProgressUpdate{
		Type: "phase_start",
		Data: map[string]interface{}{
			"phase_name":  phaseName,
			"phase_index": index,
			"steps":       steps,
		},
	})
}

func (w *WebSocketProgressWriter) Step(label string) {
	w.mu.Lock()
	w.done++
	data := map[string]interface{}{
		"phase_name": w.currentPhase,
		"label":      label,
		"done":       w.done,
		"steps":      w.steps,
	}
	w.mu.Unlock()

	w.server.BroadcastUpdate(ProgressUpdate{Type: "step", Data: data})
}

func (w *WebSocketProgressWriter) EndPhase() {
	w.mu.Lock()
	data := map[string]interface{}{
		"phase_name":  w.currentPhase,
		"phase_index": w.phaseIndex,
	}
	w.mu.Unlock()

	w.server.BroadcastUpdate(ProgressUpdate{Type: "phase_end", Data: data})
}
