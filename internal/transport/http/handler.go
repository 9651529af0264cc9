package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
	"github.com/FilipeSCampos/GameSphere/internal/ports"
	"github.com/FilipeSCampos/GameSphere/internal/usecase"
)

const probeTimeout = 2 * time.Second

// searchRecordJSON is the wire representation of search.Record.
type searchRecordJSON struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	PageSize    int       `json:"page_size"`
	Outcome     string    `json:"outcome"`
	ResultCount int       `json:"result_count"`
	StatusCode  int       `json:"status_code,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSearchRecordsJSON(recs []search.Record) []searchRecordJSON {
	out := make([]searchRecordJSON, len(recs))
	for i, r := range recs {
		out[i] = searchRecordJSON{
			ID:          r.ID.String(),
			Query:       r.Query,
			PageSize:    r.PageSize,
			Outcome:     string(r.Outcome),
			ResultCount: r.ResultCount,
			StatusCode:  r.StatusCode,
			DurationMS:  r.Duration.Milliseconds(),
			CreatedAt:   r.CreatedAt,
		}
	}
	return out
}

// Handlers holds all usecase dependencies.
type Handlers struct {
	searcher *usecase.GameSearcher
	history  *usecase.HistoryReader
	probes   map[string]ports.Prober
}

// NewHandlers wires the handlers. probes are reported by /api/v1/status
// under their map keys.
func NewHandlers(
	searcher *usecase.GameSearcher,
	history *usecase.HistoryReader,
	probes map[string]ports.Prober,
) *Handlers {
	return &Handlers{searcher: searcher, history: history, probes: probes}
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// handleStatus pings every configured dependency.
func (h *Handlers) handleStatus(c echo.Context) error {
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	out := map[string]any{"time": time.Now().UTC().Format(time.RFC3339)}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
		err := h.probes[name].Ping(ctx)
		cancel()
		switch {
		case err == nil:
			out[name] = map[string]string{"status": "connected"}
		case errors.Is(err, ports.ErrNotConfigured):
			out[name] = map[string]string{"status": "not configured"}
		default:
			out[name] = map[string]string{"status": "error", "error": err.Error()}
		}
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) handleSearch(c echo.Context) error {
	pageSize, err := positiveIntParam(c, "page_size")
	if err != nil {
		return writeErr(c, err)
	}

	resp, err := h.searcher.Search(c.Request().Context(), c.QueryParam("q"), pageSize)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleLookup returns the single best match for the :term path parameter.
func (h *Handlers) handleLookup(c echo.Context) error {
	term := c.Param("term")
	// Echo routes on RawPath when the request needed it, leaving the
	// parameter escaped.
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(term); err == nil {
			term = unescaped
		}
	}

	game, err := h.searcher.Lookup(c.Request().Context(), term)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, game)
}

func (h *Handlers) handleRecentSearches(c echo.Context) error {
	limit, err := positiveIntParam(c, "limit")
	if err != nil {
		return writeErr(c, err)
	}

	recs, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"searches": toSearchRecordsJSON(recs),
	})
}

// positiveIntParam parses an optional positive integer query parameter.
// An absent parameter yields 0 so the usecase default applies.
func positiveIntParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &paramError{Name: name}
	}
	return n, nil
}
