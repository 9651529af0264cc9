package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
	"github.com/FilipeSCampos/GameSphere/internal/ports"
)

var ErrEmptyQuery = errors.New("empty search query")
var ErrGameNotFound = errors.New("no game matches the search term")

// GameSearcher handles catalog searches on behalf of HTTP clients.
type GameSearcher struct {
	catalog ports.GameCatalog
}

func NewGameSearcher(catalog ports.GameCatalog) *GameSearcher {
	return &GameSearcher{catalog: catalog}
}

// Search runs a catalog search for query. The query is trimmed and must not
// be empty; the catalog response is returned unchanged.
func (g *GameSearcher) Search(ctx context.Context, query string, pageSize int) (search.Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return g.catalog.SearchGames(ctx, query, pageSize), nil
}

// Lookup returns the best-rated game matching term, or ErrGameNotFound.
// A catalog failure is indistinguishable from an empty match.
func (g *GameSearcher) Lookup(ctx context.Context, term string) (map[string]any, error) {
	resp, err := g.Search(ctx, term, 1)
	if err != nil {
		return nil, err
	}
	results := resp.Results()
	if len(results) == 0 {
		return nil, ErrGameNotFound
	}
	game, ok := results[0].(map[string]any)
	if !ok {
		return nil, ErrGameNotFound
	}
	return game, nil
}
