package search

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPageSize is used when a caller does not ask for a specific page size.
const DefaultPageSize = 5

// ResultsKey is the response field holding the ordered game records.
const ResultsKey = "results"

// Response is a catalog search response. Upstream fields are passed through
// verbatim; ResultsKey is always present and holds a non-nil slice.
type Response map[string]any

// Fallback returns the synthetic response substituted for any failure.
func Fallback() Response {
	return Response{ResultsKey: []any{}}
}

// Results returns the game records of r, or an empty slice.
func (r Response) Results() []any {
	if items, ok := r[ResultsKey].([]any); ok && items != nil {
		return items
	}
	return []any{}
}

// Request describes a single search.
type Request struct {
	Query    string
	PageSize int
}

// Normalize returns req with PageSize defaulted when it is not positive.
func (req Request) Normalize() Request {
	if req.PageSize <= 0 {
		req.PageSize = DefaultPageSize
	}
	return req
}

// Outcome values distinguish how a search ended even though callers always
// receive a well-formed Response.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeStatusError    Outcome = "status_error"
	OutcomeTransportError Outcome = "transport_error"
)

// Record is one entry in the search history.
type Record struct {
	ID          uuid.UUID
	Query       string
	PageSize    int
	Outcome     Outcome
	ResultCount int
	// StatusCode is the upstream HTTP status, or 0 when no response arrived.
	StatusCode int
	Duration   time.Duration
	CreatedAt  time.Time
}

// NewRecord builds a Record for req with a fresh ID.
func NewRecord(req Request, outcome Outcome, resultCount, statusCode int, took time.Duration, now time.Time) Record {
	return Record{
		ID:          uuid.New(),
		Query:       req.Query,
		PageSize:    req.PageSize,
		Outcome:     outcome,
		ResultCount: resultCount,
		StatusCode:  statusCode,
		Duration:    took,
		CreatedAt:   now,
	}
}
