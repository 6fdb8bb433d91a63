package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ArticleAugmenter/internal/domain"
	"ArticleAugmenter/internal/ports"
)

const (
	table           = "augmentations"
	kindSummary     = "summary"
	kindTranslation = "translation"
)

const schema = `CREATE TABLE IF NOT EXISTS augmentations (
    article_id  TEXT        NOT NULL,
    render_mode TEXT        NOT NULL,
    language    TEXT        NOT NULL,
    kind        TEXT        NOT NULL,
    payload     TEXT        NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (article_id, render_mode, language, kind)
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists finished augmentations so they survive restarts.
type PostgresStore struct {
	db *sql.DB
}

var (
	_ ports.AugmentationStore = (*PostgresStore)(nil)
	_ ports.AugmentationIndex = (*PostgresStore)(nil)
)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the augmentations table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadSummary reads a stored summary.
func (s *PostgresStore) LoadSummary(ctx context.Context, key domain.AugmentationKey) (string, bool, error) {
	return s.load(ctx, key, kindSummary)
}

// SaveSummary upserts a summary.
func (s *PostgresStore) SaveSummary(ctx context.Context, key domain.AugmentationKey, summary string) error {
	return s.save(ctx, key, kindSummary, summary)
}

// LoadTranslation reads and decodes a stored translation map.
func (s *PostgresStore) LoadTranslation(ctx context.Context, key domain.AugmentationKey) (domain.TranslationMap, bool, error) {
	payload, ok, err := s.load(ctx, key, kindTranslation)
	if err != nil || !ok {
		return nil, false, err
	}
	var translations domain.TranslationMap
	if err := json.Unmarshal([]byte(payload), &translations); err != nil {
		return nil, false, fmt.Errorf("decode translation %s: %w", key, err)
	}
	return translations, true, nil
}

// SaveTranslation encodes and upserts a translation map.
func (s *PostgresStore) SaveTranslation(ctx context.Context, key domain.AugmentationKey, translations domain.TranslationMap) error {
	raw, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("encode translation %s: %w", key, err)
	}
	return s.save(ctx, key, kindTranslation, string(raw))
}

// AugmentedArticles returns the subset of ids with at least one stored augmentation.
func (s *PostgresStore) AugmentedArticles(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if s.db == nil || len(ids) == 0 {
		return result, nil
	}

	query, args, err := augmentedQuery(ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query augmented: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) load(ctx context.Context, key domain.AugmentationKey, kind string) (string, bool, error) {
	if s.db == nil {
		return "", false, nil
	}

	query, args, err := selectQuery(key, kind)
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var payload string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %s %s: %w", kind, key, err)
	}
	return payload, true, nil
}

func (s *PostgresStore) save(ctx context.Context, key domain.AugmentationKey, kind, payload string) error {
	if s.db == nil {
		return nil
	}

	query, args, err := upsertQuery(key, kind, payload)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, key, err)
	}
	return nil
}

func selectQuery(key domain.AugmentationKey, kind string) (string, []interface{}, error) {
	return psql.Select("payload").
		From(table).
		Where(sq.Eq{
			"article_id":  key.ArticleID,
			"render_mode": string(key.Mode),
			"language":    key.Language,
			"kind":        kind,
		}).
		ToSql()
}

func upsertQuery(key domain.AugmentationKey, kind, payload string) (string, []interface{}, error) {
	return psql.Insert(table).
		Columns("article_id", "render_mode", "language", "kind", "payload").
		Values(key.ArticleID, string(key.Mode), key.Language, kind, payload).
		Suffix(`ON CONFLICT (article_id, render_mode, language, kind) DO UPDATE
              SET payload = EXCLUDED.payload,
                  updated_at = NOW()`).
		ToSql()
}

func augmentedQuery(ids []string) (string, []interface{}, error) {
	return psql.Select("DISTINCT article_id").
		From(table).
		Where("article_id = ANY(?)", pq.StringArray(ids)).
		ToSql()
}
