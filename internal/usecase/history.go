package usecase

import (
	"context"
	"log/slog"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
	"github.com/FilipeSCampos/GameSphere/internal/ports"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryReader serves the recent search history.
type HistoryReader struct {
	log ports.SearchLog
}

func NewHistoryReader(log ports.SearchLog) *HistoryReader {
	return &HistoryReader{log: log}
}

// Recent returns up to limit records, newest first. limit <= 0 selects
// DefaultHistoryLimit; larger values are capped at MaxHistoryLimit.
func (h *HistoryReader) Recent(ctx context.Context, limit int) ([]search.Record, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return h.log.Recent(ctx, limit)
}

// Recorder appends every observed search to a SearchLog. Append failures
// are logged and otherwise ignored so they never affect search results.
type Recorder struct {
	log    ports.SearchLog
	logger *slog.Logger
}

func NewRecorder(log ports.SearchLog, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: log, logger: logger}
}

func (r *Recorder) ObserveSearch(ctx context.Context, rec search.Record) {
	// The search may have ended because ctx was cancelled; the record
	// should still be written.
	if err := r.log.Append(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.WarnContext(ctx, "search log append failed", "search_id", rec.ID, "error", err)
	}
}
