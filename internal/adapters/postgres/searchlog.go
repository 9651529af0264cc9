package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
)

const queryInsertSearch = `
INSERT INTO searches
    (id, query, page_size, outcome, result_count, status_code, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`

const queryRecentSearches = `
SELECT id, query, page_size, outcome, result_count, status_code, duration_ms, created_at
FROM searches
ORDER BY created_at DESC
LIMIT $1`

// SearchLog is a PostgreSQL-backed ports.SearchLog.
type SearchLog struct {
	pool *pgxpool.Pool
}

// New creates a SearchLog backed by the given connection pool.
func New(pool *pgxpool.Pool) *SearchLog {
	return &SearchLog{pool: pool}
}

// Append persists rec. Duplicate IDs are silently ignored.
func (s *SearchLog) Append(ctx context.Context, rec search.Record) error {
	_, err := s.pool.Exec(ctx, queryInsertSearch,
		rec.ID,
		rec.Query,
		rec.PageSize,
		string(rec.Outcome),
		rec.ResultCount,
		rec.StatusCode,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	return err
}

func (s *SearchLog) Recent(ctx context.Context, limit int) ([]search.Record, error) {
	rows, err := s.pool.Query(ctx, queryRecentSearches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []search.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SearchLog) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// scanRecord reads a searches row from either a pgx.Row or pgx.Rows.
func scanRecord(s interface {
	Scan(dest ...any) error
}) (search.Record, error) {
	var (
		id          uuid.UUID
		query       string
		pageSize    int
		outcome     string
		resultCount int
		statusCode  int
		durationMS  int64
		createdAt   time.Time
	)
	if err := s.Scan(
		&id, &query, &pageSize, &outcome, &resultCount, &statusCode, &durationMS, &createdAt,
	); err != nil {
		return search.Record{}, err
	}
	return search.Record{
		ID:          id,
		Query:       query,
		PageSize:    pageSize,
		Outcome:     search.Outcome(outcome),
		ResultCount: resultCount,
		StatusCode:  statusCode,
		Duration:    time.Duration(durationMS) * time.Millisecond,
		CreatedAt:   createdAt,
	}, nil
}
