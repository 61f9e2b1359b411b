package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/internal/audio"
	"github.com/audiobound/audiobound/internal/book"
	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/internal/llmpipeline"
	"github.com/audiobound/audiobound/internal/orchestrator"
	"github.com/audiobound/audiobound/internal/packaging"
	"github.com/audiobound/audiobound/internal/parser"
	"github.com/audiobound/audiobound/internal/profile"
	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/internal/tts"
	"github.com/audiobound/audiobound/internal/voice"
	"github.com/audiobound/audiobound/pkg/types"
)

type fakeLLMClient struct{}

func (fakeLLMClient) Close() error { return nil }

func (fakeLLMClient) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	switch req.SchemaName {
	case types.StageExtract:
		return llmclient.Response{Content: `[{"canonicalName":"Alice","variations":["Alice"],"gender":"female"}]`}, nil
	case types.StageMerge:
		return llmclient.Response{Content: `{"merges":[]}`}, nil
	case types.StageAssign:
		return llmclient.Response{Content: `{"0":"A","1":"A"}`}, nil
	default:
		return llmclient.Response{Content: "{}"}, nil
	}
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available on PATH")
	}
}

func testDefaults(outputDir string) types.OrchestratorInput {
	creds := types.LLMStageCredentials{APIKey: "test-key", Model: "test-model", Temperature: 0.2, TopP: 1}
	return types.OrchestratorInput{
		Extract: creds,
		Merge:   creds,
		Assign:  creds,
		Rendering: types.RenderingSettings{
			NarratorVoice: "en-US, onyx",
			DefaultVoice:  "en-US, onyx",
			LLMThreads:    1,
			TTSThreads:    1,
			EnabledVoices: []string{
				"en-US, alloy", "multi, alloy",
				"en-US, echo", "multi, echo",
				"en-US, nova", "multi, nova",
				"en-US, shimmer", "multi, shimmer",
				"en-US, onyx", "multi, onyx",
			},
		},
		AudioProcessing: types.AudioProcessingSettings{
			SilenceGapMs: 50,
			Opus:         types.OpusSettings{MinBitrate: 16, MaxBitrate: 32, CompressionLevel: 5},
		},
		Ladder:    types.DefaultLadderSettings(),
		OutputDir: outputDir,
	}
}

func newTestBookHandler(t *testing.T) *BookHandler {
	t.Helper()
	adapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)

	deps := orchestrator.Dependencies{
		LLM: llmpipeline.Clients{
			Extract: fakeLLMClient{},
			Merge:   fakeLLMClient{},
			Assign:  fakeLLMClient{},
		},
		Speaker:      tts.NewStubSpeaker(),
		Encoder:      audio.NewEncoder(""),
		Profiles:     profile.NewFileStore(adapter),
		VoiceCatalog: voice.DefaultCatalog(),
	}

	outputDir := t.TempDir()
	repo := book.NewRepository(adapter)
	return NewBookHandler(repo, parser.NewFactory(), orchestrator.New(deps), packaging.NewService(), testDefaults(outputDir))
}

func uploadTestBook(t *testing.T, h *BookHandler, content string) *types.Job {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "story.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	h.UploadBook(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var job types.Job
	require.NoError(t, json.NewDecoder(w.Body).Decode(&job))
	return &job
}

func waitForTerminalState(t *testing.T, h *BookHandler, jobID string) *types.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := h.repo.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		if job.State == types.JobComplete || job.State == types.JobError || job.State == types.JobCancelled {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state in time")
	return nil
}

func TestUploadBookRejectsUnsupportedFormat(t *testing.T) {
	h := newTestBookHandler(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "story.xyz")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	h.UploadBook(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadBookRunsJobToCompletion(t *testing.T) {
	requireFFmpeg(t)
	h := newTestBookHandler(t)

	job := uploadTestBook(t, h, "Narration opens the scene.\n\nAlice waved at the crowd.")
	assert.Equal(t, types.JobUploaded, job.State)

	finished := waitForTerminalState(t, h, job.ID)
	require.Equal(t, types.JobComplete, finished.State)
	require.NotNil(t, finished.Result)
	assert.Equal(t, types.RunComplete, finished.Result.Status)
}

func TestGetBookStatusReportsUnknownJob(t *testing.T) {
	h := newTestBookHandler(t)

	r := chi.NewRouter()
	r.Get("/api/v1/books/{jobID}/status", h.GetBookStatus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/nonexistent/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadBookAfterCompletion(t *testing.T) {
	requireFFmpeg(t)
	h := newTestBookHandler(t)

	job := uploadTestBook(t, h, "Narration opens the scene.\n\nAlice waved at the crowd.")
	finished := waitForTerminalState(t, h, job.ID)
	require.Equal(t, types.JobComplete, finished.State)

	r := chi.NewRouter()
	r.Get("/api/v1/books/{jobID}/download", h.DownloadBook)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/"+finished.ID+"/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestSubmitReviewRejectsWhenNothingPending(t *testing.T) {
	h := newTestBookHandler(t)

	r := chi.NewRouter()
	r.Post("/api/v1/books/{jobID}/review", h.SubmitReview)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/nonexistent/review", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
