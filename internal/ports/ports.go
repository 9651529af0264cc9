package ports

import (
	"context"
	"errors"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
)

// Sentinel store errors.
var (
	ErrNotConfigured = errors.New("not configured")
)

// GameCatalog searches an external game catalog. SearchGames never fails:
// upstream errors come back as search.Fallback().
type GameCatalog interface {
	SearchGames(ctx context.Context, query string, pageSize int) search.Response
}

// SearchLog is the persistence interface for search history.
type SearchLog interface {
	Append(ctx context.Context, rec search.Record) error
	// Recent returns at most limit records, newest first.
	Recent(ctx context.Context, limit int) ([]search.Record, error)
}

// Prober reports whether a backing dependency is reachable.
type Prober interface {
	// Ping returns nil when the dependency answered, ErrNotConfigured when
	// it is disabled, or the connection error.
	Ping(ctx context.Context) error
}
