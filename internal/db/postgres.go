package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_body_gin ON documents USING GIN (body jsonb_path_ops);
`

// PostgresStore implements DocumentStore as JSONB rows in a single documents table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, collection string, doc Document) (Document, error) {
	stored, err := normalize(withID(doc))
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", collection, stored.ID(), err)
	}

	query := `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
	if _, err := s.pool.Exec(ctx, query, collection, stored.ID(), body); err != nil {
		return nil, fmt.Errorf("save %s/%s: %w", collection, stored.ID(), err)
	}
	s.logger.Debug("document saved", zap.String("collection", collection), zap.String("id", stored.ID()))
	return stored, nil
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc Document) (Document, error) {
	stored, err := normalize(withID(doc))
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", collection, stored.ID(), err)
	}

	query := `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING`
	tag, err := s.pool.Exec(ctx, query, collection, stored.ID(), body)
	if err != nil {
		return nil, fmt.Errorf("insert %s/%s: %w", collection, stored.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("insert %s/%s: %w", collection, stored.ID(), ErrAlreadyExists)
	}
	return stored, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *PostgresStore) Remove(ctx context.Context, collection, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("remove %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Query(collection string) Query {
	return &postgresQuery{store: s, collection: collection, filter: map[string]interface{}{}}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// postgresQuery filters with JSONB containment, which compares values with their JSON types.
type postgresQuery struct {
	store      *PostgresStore
	collection string
	filter     map[string]interface{}
	limit      int
}

func (q *postgresQuery) Eq(field string, value interface{}) Query {
	q.filter[field] = value
	return q
}

func (q *postgresQuery) Limit(n int) Query {
	q.limit = n
	return q
}

func (q *postgresQuery) Find(ctx context.Context) (QueryResult, error) {
	filter, err := json.Marshal(q.filter)
	if err != nil {
		return QueryResult{}, fmt.Errorf("encode filter for %s: %w", q.collection, err)
	}

	sql := `SELECT body FROM documents WHERE collection = $1 AND body @> $2::jsonb ORDER BY id`
	args := []interface{}{q.collection, string(filter)}
	if q.limit > 0 {
		sql += ` LIMIT $3`
		args = append(args, q.limit)
	}

	rows, err := q.store.pool.Query(ctx, sql, args...)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query %s: %w", q.collection, err)
	}
	defer rows.Close()

	var result QueryResult
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return QueryResult{}, fmt.Errorf("scan %s: %w", q.collection, err)
		}
		var doc Document
		if err := json.Unmarshal(body, &doc); err != nil {
			return QueryResult{}, fmt.Errorf("decode %s: %w", q.collection, err)
		}
		result.Items = append(result.Items, doc)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("iterate %s: %w", q.collection, err)
	}
	return result, nil
}
