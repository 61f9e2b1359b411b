package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/audiobound/audiobound/pkg/types"
)

// Schema is the DDL for the character_profiles table.
const Schema = `
CREATE TABLE IF NOT EXISTS character_profiles (
    book_name      TEXT PRIMARY KEY,
    version        INT NOT NULL,
    narrator_voice TEXT NOT NULL DEFAULT '',
    total_lines    INT NOT NULL DEFAULT 0,
    entries        JSONB NOT NULL DEFAULT '{}',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the subset of *pgxpool.Pool / *pgx.Conn the PostgresStore needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a Store backed by PostgreSQL, for deployments that want
// cross-book queryable character history instead of one JSON blob per book.
type PostgresStore struct {
	db DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore returns a PostgresStore over db. Callers must invoke
// Migrate before first use.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the character_profiles table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("profile: migrate: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, bookName string) (*types.CharacterProfile, error) {
	const query = `SELECT version, narrator_voice, total_lines, entries
		FROM character_profiles WHERE book_name = $1`

	var profile types.CharacterProfile
	var entriesJSON []byte
	err := s.db.QueryRow(ctx, query, bookName).Scan(
		&profile.Version, &profile.NarratorVoice, &profile.TotalLines, &entriesJSON,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: get: %w", err)
	}

	if err := json.Unmarshal(entriesJSON, &profile.Entries); err != nil {
		return nil, fmt.Errorf("profile: unmarshal entries: %w", err)
	}
	return &profile, nil
}

// Save implements Store, upserting by book_name.
func (s *PostgresStore) Save(ctx context.Context, bookName string, profile *types.CharacterProfile) error {
	entriesJSON, err := json.Marshal(profile.Entries)
	if err != nil {
		return fmt.Errorf("profile: marshal entries: %w", err)
	}

	const query = `
		INSERT INTO character_profiles (book_name, version, narrator_voice, total_lines, entries, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (book_name) DO UPDATE SET
			version = EXCLUDED.version,
			narrator_voice = EXCLUDED.narrator_voice,
			total_lines = EXCLUDED.total_lines,
			entries = EXCLUDED.entries,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query, bookName, profile.Version, profile.NarratorVoice, profile.TotalLines, entriesJSON); err != nil {
		return fmt.Errorf("profile: save: %w", err)
	}
	return nil
}
