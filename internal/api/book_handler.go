package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/audiobound/audiobound/internal/book"
	"github.com/audiobound/audiobound/internal/core"
	"github.com/audiobound/audiobound/internal/orchestrator"
	"github.com/audiobound/audiobound/internal/packaging"
	"github.com/audiobound/audiobound/internal/parser"
	"github.com/audiobound/audiobound/internal/progress"
	"github.com/audiobound/audiobound/pkg/types"
)

// reviewDecision carries the character->voice overrides an operator
// submits in response to a pending review, or an error that aborts it.
type reviewDecision struct {
	voiceMap map[string]string
	err      error
}

// BookHandler handles conversion-job API endpoints: upload, status,
// review, progress, and download. One Orchestrator backs every job; a job
// runs in its own goroutine against its own progress.Bus.
type BookHandler struct {
	repo             book.Repository
	parserFactory    parser.Factory
	orch             *orchestrator.Orchestrator
	packagingService *packaging.Service
	defaults         types.OrchestratorInput
	log              *slog.Logger

	mu      sync.Mutex
	buses   map[string]*progress.Bus
	reviews map[string]chan reviewDecision
}

// NewBookHandler creates a new book handler. defaults supplies the
// OrchestratorInput fields not carried by the upload request itself
// (LLM credentials, rendering/audio/ladder settings, output directory).
func NewBookHandler(repo book.Repository, parserFactory parser.Factory, orch *orchestrator.Orchestrator, packagingService *packaging.Service, defaults types.OrchestratorInput) *BookHandler {
	return &BookHandler{
		repo:             repo,
		parserFactory:    parserFactory,
		orch:             orch,
		packagingService: packagingService,
		defaults:         defaults,
		log:              slog.Default(),
		buses:            make(map[string]*progress.Bus),
		reviews:          make(map[string]chan reviewDecision),
	}
}

// ListBooks handles GET /api/v1/books.
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.repo.ListJobs(r.Context())
	if err != nil {
		h.log.Error("list jobs failed", "err", err)
		respondError(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	respondJSON(w, jobs, http.StatusOK)
}

// UploadBook handles POST /api/v1/books: it stores the upload, creates a
// job record, and starts conversion in the background.
func (h *BookHandler) UploadBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		respondError(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	bookName := r.FormValue("book_name")
	if bookName == "" {
		bookName = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}
	language := r.FormValue("language")
	if language == "" {
		language = "en"
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	format := strings.TrimPrefix(ext, ".")
	if format == "" {
		respondError(w, "could not detect file format", http.StatusBadRequest)
		return
	}
	if _, err := h.parserFactory.GetParser(format); err != nil {
		respondError(w, fmt.Sprintf("unsupported format: %s", format), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	jobID := fmt.Sprintf("job_%d", time.Now().UnixNano())
	input := h.defaults
	input.BookName = bookName
	input.Language = language

	job := &types.Job{
		ID:        jobID,
		BookName:  bookName,
		State:     types.JobUploaded,
		Input:     input,
		RawFormat: format,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	ctx := r.Context()
	if err := h.repo.SaveJob(ctx, job); err != nil {
		respondError(w, "failed to save job", http.StatusInternalServerError)
		return
	}
	if err := h.repo.SaveRawFile(ctx, jobID, data, format); err != nil {
		respondError(w, "failed to save raw file", http.StatusInternalServerError)
		return
	}

	go h.runJob(jobID, data, format)

	respondJSON(w, job, http.StatusCreated)
}

// runJob parses the upload, runs the orchestrator, and persists the
// outcome. It owns the job's progress.Bus for the run's lifetime.
func (h *BookHandler) runJob(jobID string, data []byte, format string) {
	ctx := context.Background()

	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("job panicked", "job", jobID, "panic", rec)
			h.failJob(ctx, jobID, fmt.Sprintf("panic: %v", rec))
		}
	}()

	job, err := h.repo.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error("job disappeared before run", "job", jobID, "err", err)
		return
	}

	p, err := h.parserFactory.GetParser(format)
	if err != nil {
		h.failJob(ctx, jobID, fmt.Sprintf("parser error: %v", err))
		return
	}
	paragraphs, err := p.Parse(ctx, data)
	if err != nil {
		h.failJob(ctx, jobID, fmt.Sprintf("parse failed: %v", err))
		return
	}

	job.Input.Text = strings.Join(paragraphs, "\n\n")
	job.State = types.JobRunning
	job.UpdatedAt = time.Now()
	if err := h.repo.UpdateJob(ctx, job); err != nil {
		h.log.Warn("failed to mark job running", "job", jobID, "err", err)
	}

	bus := h.busFor(jobID)
	defer h.dropBus(jobID)

	result, runErr := h.orch.Run(ctx, job.Input, bus, nil, h.reviewFuncFor(jobID))

	job, getErr := h.repo.GetJob(ctx, jobID)
	if getErr != nil {
		h.log.Error("failed to reload job after run", "job", jobID, "err", getErr)
		return
	}
	job.Result = &result
	job.UpdatedAt = time.Now()
	switch {
	case runErr == nil && result.Status == types.RunComplete:
		job.State = types.JobComplete
	case result.Status == types.RunCancelled:
		job.State = types.JobCancelled
	default:
		job.State = types.JobError
		if runErr != nil {
			job.Error = runErr.Error()
		}
	}
	if err := h.repo.UpdateJob(ctx, job); err != nil {
		h.log.Error("failed to persist job result", "job", jobID, "err", err)
	}
}

func (h *BookHandler) failJob(ctx context.Context, jobID, message string) {
	job, err := h.repo.GetJob(ctx, jobID)
	if err != nil || job == nil {
		return
	}
	job.State = types.JobError
	job.Error = message
	job.UpdatedAt = time.Now()
	h.repo.UpdateJob(ctx, job)
}

// reviewFuncFor returns an orchestrator.ReviewFunc that blocks the run
// until an operator POSTs a decision to /review, publishing a "review"
// progress event in the meantime so a UI shell knows to prompt.
func (h *BookHandler) reviewFuncFor(jobID string) orchestrator.ReviewFunc {
	return func(ctx context.Context, characters []*types.Character, voiceMap map[string]string) (map[string]string, error) {
		ch := make(chan reviewDecision, 1)
		h.mu.Lock()
		h.reviews[jobID] = ch
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.reviews, jobID)
			h.mu.Unlock()
		}()

		h.busFor(jobID).Publish(types.ProgressEvent{
			Stage:   "review",
			Message: fmt.Sprintf("awaiting voice map confirmation for %d characters", len(characters)),
		})

		select {
		case d := <-ch:
			return d.voiceMap, d.err
		case <-ctx.Done():
			return nil, core.Cancelled{}
		}
	}
}

// SubmitReview handles POST /api/v1/books/{jobID}/review: it resumes a
// run that's paused awaiting a voice-map decision.
func (h *BookHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	h.mu.Lock()
	ch, ok := h.reviews[jobID]
	h.mu.Unlock()
	if !ok {
		respondError(w, "no review pending for this job", http.StatusNotFound)
		return
	}

	var voiceMap map[string]string
	if err := json.NewDecoder(r.Body).Decode(&voiceMap); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	select {
	case ch <- reviewDecision{voiceMap: voiceMap}:
		respondJSON(w, map[string]string{"status": "accepted"}, http.StatusAccepted)
	default:
		respondError(w, "review already submitted", http.StatusConflict)
	}
}

// GetBook handles GET /api/v1/books/{jobID}.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.repo.GetJob(r.Context(), jobID)
	if err != nil {
		respondError(w, "job not found", http.StatusNotFound)
		return
	}
	respondJSON(w, job, http.StatusOK)
}

// GetBookStatus handles GET /api/v1/books/{jobID}/status, layering the
// job's persisted state with the latest in-flight progress snapshot.
func (h *BookHandler) GetBookStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.repo.GetJob(r.Context(), jobID)
	if err != nil {
		respondError(w, "job not found", http.StatusNotFound)
		return
	}

	status := map[string]interface{}{
		"job_id":     job.ID,
		"state":      job.State,
		"updated_at": job.UpdatedAt,
	}
	if job.Error != "" {
		status["error"] = job.Error
	}
	if job.Result != nil {
		status["result"] = job.Result
	}

	h.mu.Lock()
	bus, running := h.buses[jobID]
	h.mu.Unlock()
	if running {
		status["progress"] = bus.Snapshot()
	}

	respondJSON(w, status, http.StatusOK)
}

// DownloadBook handles GET /api/v1/books/{jobID}/download.
func (h *BookHandler) DownloadBook(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := h.repo.GetJob(r.Context(), jobID)
	if err != nil {
		respondError(w, "job not found", http.StatusNotFound)
		return
	}

	zipReader, err := h.packagingService.PackageBook(job, map[string]string{})
	if err != nil {
		respondError(w, fmt.Sprintf("failed to package book: %v", err), http.StatusInternalServerError)
		return
	}

	filename := sanitizeFilename(job.BookName) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, zipReader)
}

// GetAudio handles GET /api/v1/books/{jobID}/audio/{fileName}, streaming
// one rendered segment straight off disk (ffmpeg's output destination,
// not the storage.Adapter that holds job records).
func (h *BookHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	fileName := chi.URLParam(r, "fileName")
	if strings.Contains(fileName, "..") || strings.ContainsAny(fileName, "/\\") {
		respondError(w, "invalid file name", http.StatusBadRequest)
		return
	}

	job, err := h.repo.GetJob(r.Context(), jobID)
	if err != nil {
		respondError(w, "job not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(job.Input.OutputDir, job.BookName, fileName)
	f, err := os.Open(path)
	if err != nil {
		respondError(w, "audio file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/ogg")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

// GetProgress handles GET /api/v1/books/{jobID}/progress, upgrading to a
// websocket stream of the job's progress events for as long as it runs.
func (h *BookHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	h.mu.Lock()
	bus, ok := h.buses[jobID]
	h.mu.Unlock()
	if !ok {
		respondError(w, "job is not currently running", http.StatusNotFound)
		return
	}

	if err := progress.ServeWS(bus, w, r); err != nil {
		h.log.Warn("progress websocket closed", "job", jobID, "err", err)
	}
}

func (h *BookHandler) busFor(jobID string) *progress.Bus {
	h.mu.Lock()
	defer h.mu.Unlock()
	if bus, ok := h.buses[jobID]; ok {
		return bus
	}
	bus := progress.NewBus()
	h.buses[jobID] = bus
	return bus
}

func (h *BookHandler) dropBus(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.buses, jobID)
}

func sanitizeFilename(name string) string {
	if name == "" {
		return "book"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if safe == "" {
		return "book"
	}
	return safe
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
