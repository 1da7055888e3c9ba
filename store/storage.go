package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"videorag/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type VectorStorer interface {
	Insert(ctx context.Context, records []types.EmbeddingRecord) error
	SimilaritySearch(ctx context.Context, vector []float32, how string, k int, filters []types.Filter) ([]types.SearchResult, error)
	Count(ctx context.Context) (int64, error)
}

// StorageError wraps connectivity and query failures. No retry happens
// here; retry policy belongs to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// filter keys are column identifiers and cannot be bound as query
// parameters, so only known columns are accepted.
var filterableColumns = map[string]bool{
	"source":       true,
	"sourceurl":    true,
	"content_type": true,
	"topic":        true,
	"language":     true,
}

type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

func NewPostgresStore(ctx context.Context, connStr string, dimension int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, &StorageError{Op: "connect", Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StorageError{Op: "ping", Err: err}
	}

	return &PostgresStore{
		pool:      pool,
		dimension: dimension,
	}, nil
}

// Insert stores records one row at a time. There is no transaction
// across rows: a failure partway leaves the earlier rows in place.
func (p *PostgresStore) Insert(ctx context.Context, records []types.EmbeddingRecord) error {
	query := `
    INSERT INTO video_embeddings (id, embedding, chunks, time, metadata, date, source, sourceurl, topic, content_type, language)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	for _, rec := range records {
		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return &StorageError{Op: "insert", Err: err}
		}
		_, err = p.pool.Exec(ctx, query,
			rec.ID,
			pgvector.NewVector(rec.Embedding),
			rec.Chunks,
			rec.Time,
			metadata,
			rec.Date,
			rec.Source,
			rec.SourceURL,
			rec.Topic,
			string(rec.ContentType),
			rec.Language,
		)
		if err != nil {
			return &StorageError{Op: "insert", Err: err}
		}
	}
	return nil
}

// SimilaritySearch returns the k nearest rows to vector. how selects the
// ranking: "cosine" orders by similarity descending, "l2" by Euclidean
// distance ascending. Filters are ANDed equality predicates.
func (p *PostgresStore) SimilaritySearch(ctx context.Context, vector []float32, how string, k int, filters []types.Filter) ([]types.SearchResult, error) {
	var score, order string
	switch how {
	case "cosine":
		score = "1 - (embedding <=> $1) AS similarity"
		order = "similarity DESC"
	case "l2":
		score = "embedding <-> $1 AS distance"
		order = "distance ASC"
	default:
		return nil, &StorageError{Op: "search", Err: fmt.Errorf("unknown method %q", how)}
	}

	args := []any{pgvector.NewVector(vector)}
	var where []string
	for _, f := range filters {
		if !filterableColumns[f.Key] {
			return nil, &StorageError{Op: "search", Err: fmt.Errorf("cannot filter on %q", f.Key)}
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s = $%d", f.Key, len(args)))
	}

	query := fmt.Sprintf(
		"SELECT id, embedding, chunks, time, metadata, date, source, sourceurl, topic, content_type, language, %s FROM video_embeddings",
		score,
	)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, k)
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d", order, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() {
		var res types.SearchResult
		var embedding pgvector.Vector
		var metadata []byte
		var contentType string
		var scoreVal float64
		err := rows.Scan(
			&res.Record.ID,
			&embedding,
			&res.Record.Chunks,
			&res.Record.Time,
			&metadata,
			&res.Record.Date,
			&res.Record.Source,
			&res.Record.SourceURL,
			&res.Record.Topic,
			&contentType,
			&res.Record.Language,
			&scoreVal,
		)
		if err != nil {
			return nil, &StorageError{Op: "search", Err: err}
		}
		res.Record.Embedding = embedding.Slice()
		res.Record.ContentType = types.ContentType(contentType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &res.Record.Metadata); err != nil {
				return nil, &StorageError{Op: "search", Err: err}
			}
		}
		if how == "cosine" {
			res.Similarity = scoreVal
		} else {
			res.Distance = scoreVal
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}
	return results, nil
}

// Count doubles as a connectivity probe at startup.
func (p *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := p.pool.QueryRow(ctx, "SELECT count(*) FROM video_embeddings").Scan(&count); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS video_embeddings (
        id UUID PRIMARY KEY,
        embedding vector(%d),
        chunks TEXT,
        time INTEGER,
        metadata JSON,
        date TEXT,
        source TEXT,
        sourceurl TEXT,
        topic TEXT,
        content_type TEXT,
        language VARCHAR(10)
    );

    CREATE INDEX IF NOT EXISTS idx_video_embeddings_embedding ON video_embeddings
    USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);

    CREATE INDEX IF NOT EXISTS idx_video_embeddings_source ON video_embeddings(source);
    CREATE INDEX IF NOT EXISTS idx_video_embeddings_content_type ON video_embeddings(content_type);
    `, p.dimension)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	if err := p.createTables(ctx); err != nil {
		return &StorageError{Op: "init", Err: err}
	}
	return nil
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
