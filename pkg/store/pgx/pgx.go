// Package pgx implements the passage store on PostgreSQL with pgvector.
package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PassageDBStore implements store.PassageStore on PostgreSQL with pgvector
// for cosine similarity search. The connection must have pgvector types
// registered.
type PassageDBStore struct {
	conn pgxIConn
}

// NewPassageDBStore creates a store using an existing connection or pool.
func NewPassageDBStore(conn pgxIConn) *PassageDBStore {
	return &PassageDBStore{conn: conn}
}

// IndexPassages persists passages with their embeddings in one transaction.
func (s *PassageDBStore) IndexPassages(
	ctx context.Context,
	passages []store.Passage,
	embeddings [][]float32,
) error {
	if len(passages) != len(embeddings) {
		return fmt.Errorf("passage/embedding count mismatch: %d != %d", len(passages), len(embeddings))
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, p := range passages {
		_, err := tx.Exec(ctx,
			`INSERT INTO passages (public_id, source, content, embedding)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (public_id) DO UPDATE
			 SET source = EXCLUDED.source,
			     content = EXCLUDED.content,
			     embedding = EXCLUDED.embedding`,
			p.ID,
			p.Source,
			util.SanitizePostgresText(p.Content),
			pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert passage %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit passages: %w", err)
	}
	return nil
}

// Search returns the k nearest passages by cosine distance.
func (s *PassageDBStore) Search(ctx context.Context, embedding []float32, k int) ([]store.Passage, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT public_id, source, content
		 FROM passages
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}
	defer rows.Close()

	var passages []store.Passage
	for rows.Next() {
		var p store.Passage
		if err := rows.Scan(&p.ID, &p.Source, &p.Content); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passages: %w", err)
	}
	return passages, nil
}

// Count reports the number of indexed passages.
func (s *PassageDBStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM passages`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return count, nil
}

// Sources lists distinct source IDs with their passage counts.
func (s *PassageDBStore) Sources(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT source, COUNT(*) FROM passages GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[string]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

// DeleteSource removes all passages of one source.
func (s *PassageDBStore) DeleteSource(ctx context.Context, source string) (int64, error) {
	tag, err := s.conn.Exec(ctx, `DELETE FROM passages WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Clear removes the whole index.
func (s *PassageDBStore) Clear(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, `DELETE FROM passages`); err != nil {
		return fmt.Errorf("failed to clear passages: %w", err)
	}
	return nil
}
