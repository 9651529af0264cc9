package rawg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
)

// DefaultBaseURL is the RAWG API root.
const DefaultBaseURL = "https://api.rawg.io/api"

const (
	gamesPath = "/games"
	ordering  = "-rating"

	// maxDrain bounds how much of an error body is read before closing it.
	maxDrain = 64 << 10
)

var (
	errNotObject    = errors.New("response body is not a JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
)

// StatusError reports a non-2xx response from the catalog.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rawg: unexpected status %s", e.Status)
}

// TransportError reports a failure to obtain or parse a response: dial and
// DNS errors, timeouts, cancellation, unreadable or malformed bodies.
// Op is one of "request", "read" or "decode".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rawg: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Observer is notified once per SearchGames call. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveSearch(ctx context.Context, rec search.Record)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for outbound requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver adds an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// Client searches the RAWG game catalog. It holds no mutable state after
// New returns, so one Client may serve any number of concurrent searches.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	observers  []Observer
}

// New creates a Client for apiKey. It never fails; an empty key is reported
// with a warning and requests are still attempted.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.logger.Warn("RAWG_API_KEY is not set; catalog requests will likely be rejected")
	}
	return c
}

// SearchGames queries the catalog and returns the upstream body verbatim.
// Every failure is logged and replaced by search.Fallback(), so the result
// always carries a results slice and no error reaches the caller.
// A pageSize <= 0 selects search.DefaultPageSize.
func (c *Client) SearchGames(ctx context.Context, query string, pageSize int) search.Response {
	req := search.Request{Query: query, PageSize: pageSize}.Normalize()

	start := time.Now()
	resp, statusCode, err := c.do(ctx, req)
	outcome := search.OutcomeOK
	if err != nil {
		outcome = c.logFailure(ctx, req, err)
		resp = search.Fallback()
	}

	rec := search.NewRecord(req, outcome, len(resp.Results()), statusCode, time.Since(start), time.Now())
	for _, o := range c.observers {
		o.ObserveSearch(ctx, rec)
	}
	return resp
}

// Search is SearchGames without the fallback: failures are returned as
// *StatusError or *TransportError and nothing is logged or observed.
func (c *Client) Search(ctx context.Context, query string, pageSize int) (search.Response, error) {
	resp, _, err := c.do(ctx, search.Request{Query: query, PageSize: pageSize}.Normalize())
	return resp, err
}

func (c *Client) do(ctx context.Context, req search.Request) (search.Response, int, error) {
	reqURL := c.baseURL + gamesPath + "?" + c.queryParams(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, &TransportError{Op: "request", Err: stripURL(err)}
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "rawg request", "query", req.Query, "page_size", req.PageSize)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, &TransportError{Op: "request", Err: stripURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		return nil, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := decodeResponse(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func (c *Client) queryParams(req search.Request) url.Values {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("search", req.Query)
	q.Set("page_size", strconv.Itoa(req.PageSize))
	q.Set("search_precise", "true")
	q.Set("ordering", ordering)
	return q
}

// decodeResponse parses a JSON object body. Numbers are kept as json.Number
// so they round-trip unchanged. Anything after the object other than
// whitespace is rejected. A missing or null results field becomes an
// empty slice; any other non-array results value is rejected.
func decodeResponse(r io.Reader) (search.Response, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body search.Response
	if err := dec.Decode(&body); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TransportError{Op: "decode", Err: err}
		}
		return nil, &TransportError{Op: "read", Err: stripURL(err)}
	}
	if body == nil {
		return nil, &TransportError{Op: "decode", Err: errNotObject}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return nil, &TransportError{Op: "decode", Err: err}
	}

	switch results := body[search.ResultsKey].(type) {
	case []any:
	case nil:
		body[search.ResultsKey] = []any{}
	default:
		return nil, &TransportError{Op: "decode", Err: fmt.Errorf("results is %T, not an array", results)}
	}
	return body, nil
}

func (c *Client) logFailure(ctx context.Context, req search.Request, err error) search.Outcome {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		c.logger.ErrorContext(ctx, "error calling RAWG API",
			"kind", "status",
			"status", statusErr.StatusCode,
			"query", req.Query,
		)
		return search.OutcomeStatusError
	}

	op := "request"
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		op = transportErr.Op
	}
	c.logger.ErrorContext(ctx, "unexpected error calling RAWG API",
		"kind", "transport",
		"op", op,
		"canceled", errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
		"query", req.Query,
		"error", err,
	)
	return search.OutcomeTransportError
}

// stripURL drops the request URL from net/http errors so the API key in
// the query string never reaches the logs.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
