// Package http implements the REST API for vocacast.
//
// The API accepts podcast requests (vocabulary lists as JSON or CSV
// uploads), exposes job status and event polling, and serves the finished
// MP3 artifact. Liveness and readiness probes live on the same listener.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vocacast/vocacast/internal/domain"
	"github.com/vocacast/vocacast/internal/studio"
	"github.com/vocacast/vocacast/internal/vocab"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const (
	maxJSONBody      = 1 << 20  // 1 MB
	maxCSVUpload     = 10 << 20 // 10 MB
	csvFormFileField = "file"
)

// Config holds the HTTP server settings.
type Config struct {
	Port        int
	VocabColumn string
}

// PodcastRequest is the JSON body for POST /podcasts.
type PodcastRequest struct {
	Vocab        []string               `json:"vocab,omitempty"`
	SourceText   string                 `json:"source_text,omitempty"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	Dialogue     domain.Dialogue        `json:"dialogue,omitempty"`
	Voices       domain.VoiceAssignment `json:"voices,omitempty"`
}

// Server exposes the vocacast REST API.
type Server struct {
	cfg    Config
	studio *studio.Studio
	ready  atomic.Bool
	server *http.Server
}

// New creates a new API server over the given studio.
func New(cfg Config, st *studio.Studio) *Server {
	if cfg.VocabColumn == "" {
		cfg.VocabColumn = vocab.DefaultColumn
	}
	return &Server{cfg: cfg, studio: st}
}

// SetReady marks the daemon as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// ListenAndServe starts the API server. It blocks until the context is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /podcasts", s.handleCreate)
	mux.HandleFunc("GET /podcasts/{id}", s.handleGet)
	mux.HandleFunc("GET /podcasts/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /podcasts/{id}/transcript", s.handleTranscript)
	mux.HandleFunc("GET /podcasts/{id}/audio", s.handleAudio)

	mux.HandleFunc("GET /healthz", s.handleProbe)
	mux.HandleFunc("GET /readyz", s.handleProbe)

	// Swagger UI serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("api server listening", "port", s.cfg.Port)

	go func() {
		<-ctx.Done()
		slog.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleCreate processes a POST /podcasts request.
//
// @Summary     Create a podcast from a vocabulary list
// @Description Accepts a JSON request (vocab words, pre-written source text, or a
// @Description ready dialogue) or a multipart CSV upload with a word column.
// @Description The podcast is produced asynchronously; poll the returned job.
// @Tags        podcasts
// @Accept      json
// @Accept      multipart/form-data
// @Produce     json
// @Param       request  body      PodcastRequest  false  "Podcast request (JSON). For CSV, upload the file in the 'file' form field."
// @Success     202  {object}  domain.Job  "Accepted job"
// @Failure     400  {string}  string  "Invalid request body or CSV"
// @Failure     500  {string}  string  "Internal error"
// @Router      /podcasts [post]
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCreate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.studio.CreatePodcast(req)
	if err != nil {
		slog.Error("create podcast failed", "error", err)
		http.Error(w, "creating podcast: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// decodeCreate builds a StartRequest from either a JSON body or a multipart
// CSV upload.
func (s *Server) decodeCreate(r *http.Request) (studio.StartRequest, error) {
	contentType := r.Header.Get("Content-Type")

	if contentType == "application/json" {
		var body PodcastRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&body); err != nil {
			return studio.StartRequest{}, fmt.Errorf("invalid json: %w", err)
		}
		return studio.StartRequest{
			Vocab:        body.Vocab,
			SourceText:   body.SourceText,
			SystemPrompt: body.SystemPrompt,
			Dialogue:     body.Dialogue,
			Voices:       body.Voices,
		}, nil
	}

	// Treat everything else as a multipart CSV upload.
	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		return studio.StartRequest{}, fmt.Errorf("parsing upload: %w", err)
	}

	file, _, err := r.FormFile(csvFormFileField)
	if err != nil {
		return studio.StartRequest{}, fmt.Errorf("missing %q upload: %w", csvFormFileField, err)
	}
	defer file.Close()

	column := r.FormValue("column")
	if column == "" {
		column = s.cfg.VocabColumn
	}

	words, err := vocab.ParseCSV(io.LimitReader(file, maxCSVUpload), column)
	if err != nil {
		return studio.StartRequest{}, fmt.Errorf("parsing csv: %w", err)
	}

	return studio.StartRequest{
		Vocab:        words,
		SystemPrompt: r.FormValue("system_prompt"),
		Voices: domain.VoiceAssignment{
			InterviewerVoice: r.FormValue("interviewer_voice"),
			GuestVoice:       r.FormValue("guest_voice"),
			LanguageCode:     r.FormValue("language_code"),
		},
	}, nil
}

// handleGet processes a GET /podcasts/{id} request.
//
// @Summary     Get job status
// @Description Returns the current snapshot of a podcast job, including the
// @Description failure stage and reason when the job has failed.
// @Tags        podcasts
// @Produce     json
// @Param       id  path  string  true  "Job ID"
// @Success     200  {object}  domain.Job
// @Failure     404  {string}  string  "Unknown job"
// @Router      /podcasts/{id} [get]
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	job, ok := s.studio.Job(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleEvents processes a GET /podcasts/{id}/events request.
//
// @Summary     Poll job events
// @Description Returns the job's events with sequence numbers greater than
// @Description the 'since' parameter. Clients resume from the last sequence
// @Description they saw.
// @Tags        podcasts
// @Produce     json
// @Param       id     path   string  true   "Job ID"
// @Param       since  query  int     false  "Last seen sequence number (default 0)"
// @Success     200  {array}  jobs.Event
// @Failure     400  {string}  string  "Invalid since parameter"
// @Failure     404  {string}  string  "Unknown job"
// @Router      /podcasts/{id}/events [get]
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if _, ok := s.studio.Job(jobID); !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	events := s.studio.Events(jobID, since)
	writeJSON(w, http.StatusOK, events)
}

// handleTranscript processes a GET /podcasts/{id}/transcript request.
//
// @Summary     Get the podcast transcript
// @Description Returns the dialogue turns behind a ready podcast.
// @Tags        podcasts
// @Produce     json
// @Param       id  path  string  true  "Job ID"
// @Success     200  {array}  domain.DialogueTurn
// @Failure     404  {string}  string  "Unknown job"
// @Failure     409  {string}  string  "Podcast not ready"
// @Router      /podcasts/{id}/transcript [get]
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if _, ok := s.studio.Job(jobID); !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	dialogue, err := s.studio.Transcript(jobID)
	if err != nil {
		if errors.Is(err, studio.ErrNotReady) {
			http.Error(w, "podcast not ready", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dialogue)
}

// handleAudio processes a GET /podcasts/{id}/audio request.
//
// @Summary     Download the podcast audio
// @Description Streams the merged MP3. Delivery releases the job workspace,
// @Description so the artifact can be downloaded once.
// @Tags        podcasts
// @Produce     audio/mpeg
// @Param       id  path  string  true  "Job ID"
// @Success     200  {file}  file  "MP3 audio"
// @Failure     404  {string}  string  "Unknown job"
// @Failure     409  {string}  string  "Podcast not ready"
// @Failure     500  {string}  string  "Artifact read error"
// @Router      /podcasts/{id}/audio [get]
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if _, ok := s.studio.Job(jobID); !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	path, err := s.studio.ArtifactPath(jobID)
	if err != nil {
		if errors.Is(err, studio.ErrNotReady) {
			http.Error(w, "podcast not ready", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Error("opening artifact", "job", jobID, "error", err)
		http.Error(w, "reading artifact", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="podcast_full.mp3"`)
	if info, statErr := f.Stat(); statErr == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	if _, err := io.Copy(w, f); err != nil {
		// Headers are already out; the client sees a truncated body. Keep
		// the artifact so the download can be retried.
		slog.Error("streaming artifact", "job", jobID, "error", err)
		return
	}

	if err := s.studio.MarkDelivered(jobID); err != nil {
		slog.Warn("marking delivery", "job", jobID, "error", err)
	}
}

// handleProbe serves the /healthz and /readyz endpoints.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
