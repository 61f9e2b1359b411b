package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/pkg/types"
)

// FileStore persists CharacterProfile JSON at "<bookName>/<bookName>.json"
// through a storage.Adapter (spec §6: CharacterProfile v2 artefact path).
type FileStore struct {
	adapter storage.Adapter
}

// NewFileStore returns a FileStore backed by adapter.
func NewFileStore(adapter storage.Adapter) *FileStore {
	return &FileStore{adapter: adapter}
}

func profilePath(bookName string) string {
	return fmt.Sprintf("%s/%s.json", bookName, bookName)
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, bookName string) (*types.CharacterProfile, error) {
	exists, err := s.adapter.Exists(ctx, profilePath(bookName))
	if err != nil {
		return nil, fmt.Errorf("profile: check existence: %w", err)
	}
	if !exists {
		return nil, nil
	}

	reader, err := s.adapter.Get(ctx, profilePath(bookName))
	if err != nil {
		return nil, fmt.Errorf("profile: get: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("profile: read: %w", err)
	}

	var profile types.CharacterProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("profile: parse: %w", err)
	}
	return &profile, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, bookName string, profile *types.CharacterProfile) error {
	if profile == nil {
		return errors.New("profile: cannot save nil profile")
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: marshal: %w", err)
	}
	if err := s.adapter.Put(ctx, profilePath(bookName), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("profile: put: %w", err)
	}
	return nil
}
