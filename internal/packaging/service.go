// Package packaging bundles a finished conversion job's rendered audio,
// character voice map, and run metadata into a single downloadable ZIP.
package packaging

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/audiobound/audiobound/pkg/types"
)

// Service builds a ZIP archive for one finished job. Unlike job records
// (which live behind storage.Adapter), the rendered segments live on the
// local filesystem under the job's OutputDir, because ffmpeg writes there
// directly — so this service reads the filesystem, not the storage
// abstraction.
type Service struct{}

// NewService creates a new packaging service.
func NewService() *Service {
	return &Service{}
}

// Manifest is the top-level book manifest bundled into the ZIP.
type Manifest struct {
	JobID         string    `json:"job_id"`
	BookName      string    `json:"book_name"`
	Language      string    `json:"language"`
	TotalDuration float64   `json:"total_duration_seconds"`
	CreatedAt     time.Time `json:"created_at"`
	Version       string    `json:"version"`
}

// TOC lists the rendered output segments in order.
type TOC struct {
	Segments []TOCEntry `json:"segments"`
}

// TOCEntry names one rendered audio file within the archive.
type TOCEntry struct {
	Label    string `json:"label"`
	FileName string `json:"file_name"`
}

// PackageBook builds a ZIP for job, reading its rendered .opus files from
// <job.Input.OutputDir>/<job.BookName>/. job must have finished
// successfully.
func (s *Service) PackageBook(job *types.Job, voiceMap map[string]string) (io.Reader, error) {
	if job.Result == nil || job.Result.Status != types.RunComplete {
		return nil, fmt.Errorf("job %s is not complete (state: %s)", job.ID, job.State)
	}

	bookDir := filepath.Join(job.Input.OutputDir, job.BookName)
	entries, err := os.ReadDir(bookDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var fileNames []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".opus" {
			continue
		}
		fileNames = append(fileNames, e.Name())
	}
	sort.Strings(fileNames)

	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	manifest := s.generateManifest(job)
	if err := addJSONFile(zipWriter, "manifest.json", manifest); err != nil {
		return nil, fmt.Errorf("failed to add manifest: %w", err)
	}

	toc := s.generateTOC(fileNames)
	if err := addJSONFile(zipWriter, "toc.json", toc); err != nil {
		return nil, fmt.Errorf("failed to add toc: %w", err)
	}

	if err := addJSONFile(zipWriter, "voice-map.json", voiceMap); err != nil {
		return nil, fmt.Errorf("failed to add voice-map: %w", err)
	}

	for _, name := range fileNames {
		if err := addFileFromDisk(zipWriter, filepath.Join(bookDir, name), filepath.Join("audio", name)); err != nil {
			return nil, fmt.Errorf("failed to add audio %s: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

// generateManifest creates the manifest file for job.
func (s *Service) generateManifest(job *types.Job) *Manifest {
	return &Manifest{
		JobID:     job.ID,
		BookName:  job.BookName,
		Language:  job.Input.Language,
		CreatedAt: job.CreatedAt,
		Version:   "1.0",
	}
}

// generateTOC lists every rendered audio file, in filename order (the
// segment-label ordinal prefix DeriveSegments assigns keeps this
// chronological).
func (s *Service) generateTOC(fileNames []string) *TOC {
	toc := &TOC{Segments: make([]TOCEntry, 0, len(fileNames))}
	for _, name := range fileNames {
		label := filepath.Base(name)
		label = label[:len(label)-len(filepath.Ext(label))]
		toc.Segments = append(toc.Segments, TOCEntry{Label: label, FileName: name})
	}
	return toc
}

func addJSONFile(zipWriter *zip.Writer, path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	writer, err := zipWriter.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := writer.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

func addFileFromDisk(zipWriter *zip.Writer, srcPath, zipPath string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	writer, err := zipWriter.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if _, err := io.Copy(writer, f); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	return nil
}
