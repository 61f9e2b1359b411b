// Package book persists conversion job records: what was uploaded, what
// settings were requested, and how the run ended.
package book

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/pkg/types"
)

// Repository handles conversion job persistence.
type Repository interface {
	// SaveJob stores a new job record.
	SaveJob(ctx context.Context, job *types.Job) error

	// GetJob retrieves a job record by ID.
	GetJob(ctx context.Context, jobID string) (*types.Job, error)

	// UpdateJob overwrites an existing job record.
	UpdateJob(ctx context.Context, job *types.Job) error

	// ListJobs returns every known job record.
	ListJobs(ctx context.Context) ([]*types.Job, error)

	// SaveRawFile stores the uploaded source file for a job.
	SaveRawFile(ctx context.Context, jobID string, data []byte, format string) error

	// GetRawFile retrieves the uploaded source file for a job.
	GetRawFile(ctx context.Context, jobID string) ([]byte, string, error)
}

// StorageRepository implements Repository using a storage.Adapter.
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a new job repository backed by storageAdapter.
func NewRepository(storageAdapter storage.Adapter) Repository {
	return &StorageRepository{storage: storageAdapter}
}

func jobPath(jobID string) string {
	return filepath.Join("jobs", jobID, "job.json")
}

// SaveJob stores a new job record.
func (r *StorageRepository) SaveJob(ctx context.Context, job *types.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return r.storage.Put(ctx, jobPath(job.ID), bytes.NewReader(data))
}

// GetJob retrieves a job record by ID.
func (r *StorageRepository) GetJob(ctx context.Context, jobID string) (*types.Job, error) {
	reader, err := r.storage.Get(ctx, jobPath(jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	defer reader.Close()

	var job types.Job
	if err := json.NewDecoder(reader).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

// UpdateJob overwrites an existing job record.
func (r *StorageRepository) UpdateJob(ctx context.Context, job *types.Job) error {
	return r.SaveJob(ctx, job)
}

// ListJobs returns every known job record.
func (r *StorageRepository) ListJobs(ctx context.Context) ([]*types.Job, error) {
	paths, err := r.storage.List(ctx, "jobs/")
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*types.Job, 0, len(paths))
	for _, path := range paths {
		if filepath.Base(path) != "job.json" {
			continue
		}

		reader, err := r.storage.Get(ctx, path)
		if err != nil {
			continue
		}

		var job types.Job
		if err := json.NewDecoder(reader).Decode(&job); err != nil {
			reader.Close()
			continue
		}
		reader.Close()

		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// SaveRawFile stores the uploaded source file for a job.
func (r *StorageRepository) SaveRawFile(ctx context.Context, jobID string, data []byte, format string) error {
	path := filepath.Join("jobs", jobID, fmt.Sprintf("raw.%s", format))
	return r.storage.Put(ctx, path, bytes.NewReader(data))
}

// GetRawFile retrieves the uploaded source file for a job, trying every
// format this system can parse until one is found.
func (r *StorageRepository) GetRawFile(ctx context.Context, jobID string) ([]byte, string, error) {
	formats := []string{"pdf", "epub", "txt"}
	for _, format := range formats {
		path := filepath.Join("jobs", jobID, fmt.Sprintf("raw.%s", format))
		exists, err := r.storage.Exists(ctx, path)
		if err != nil || !exists {
			continue
		}

		reader, err := r.storage.Get(ctx, path)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			continue
		}

		return data, format, nil
	}

	return nil, "", fmt.Errorf("raw file not found for job %s", jobID)
}
