// Package postgres provides a Postgres-backed page record sink.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for page rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Sink writes page records into Postgres, upserting on url_hash.
type Sink struct {
	pool  execCloser
	table string
}

// New creates a Postgres-backed Sink using the provided config.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sink.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "pages"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Sink{
		pool:  pool,
		table: table,
	}, nil
}

// NewWithPool constructs a sink from an existing pool (primarily for testing).
func NewWithPool(pool execCloser, table string) (*Sink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "pages"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Sink{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Sink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Emit upserts a page row keyed by url_hash. Revisits of the same
// canonical URL update the stored row in place.
func (s *Sink) Emit(ctx context.Context, record crawler.PageRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("postgres sink is not configured")
	}
	if record.URLHash == "" {
		return fmt.Errorf("record url_hash is required")
	}
	keywordsJSON, err := json.Marshal(normalizeKeywords(record.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	metadataJSON, err := json.Marshal(normalizeMetadata(record.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	url,
	url_hash,
	normalized_url,
	domain,
	source_url,
	depth,
	keywords,
	title,
	description,
	status_code,
	content_type,
	crawled_at,
	error_count,
	is_active,
	metadata
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (url_hash) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	url = EXCLUDED.url,
	normalized_url = EXCLUDED.normalized_url,
	domain = EXCLUDED.domain,
	source_url = EXCLUDED.source_url,
	depth = EXCLUDED.depth,
	keywords = EXCLUDED.keywords,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	status_code = EXCLUDED.status_code,
	content_type = EXCLUDED.content_type,
	crawled_at = EXCLUDED.crawled_at,
	error_count = %s.error_count + EXCLUDED.error_count,
	is_active = EXCLUDED.is_active,
	metadata = EXCLUDED.metadata`, s.table, s.table)

	args := []any{
		record.RunID,
		record.URL,
		record.URLHash,
		record.NormalizedURL,
		record.Domain,
		record.SourceURL,
		record.Depth,
		keywordsJSON,
		record.Title,
		record.Description,
		record.StatusCode,
		record.ContentType,
		record.Timestamp,
		record.ErrorCount,
		record.IsActive,
		metadataJSON,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

func normalizeKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return []string{}
	}
	return append([]string(nil), keywords...)
}

func normalizeMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
