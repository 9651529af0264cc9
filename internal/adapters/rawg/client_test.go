package rawg_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FilipeSCampos/GameSphere/internal/adapters/rawg"
	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
	"github.com/FilipeSCampos/GameSphere/internal/logging"
)

// recordingObserver collects every record it is handed.
type recordingObserver struct {
	mu      sync.Mutex
	records []search.Record
}

func (o *recordingObserver) ObserveSearch(_ context.Context, rec search.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

func (o *recordingObserver) all() []search.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]search.Record(nil), o.records...)
}

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// logRecords decodes the JSON log lines in buf.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func countLevel(recs []map[string]any, level string) int {
	n := 0
	for _, r := range recs {
		if r["level"] == level {
			n++
		}
	}
	return n
}

func decodeWithNumbers(t *testing.T, body string) search.Response {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var out search.Response
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("decode expected body: %v", err)
	}
	return out
}

func newClient(t *testing.T, baseURL string, opts ...rawg.Option) *rawg.Client {
	t.Helper()
	opts = append([]rawg.Option{
		rawg.WithBaseURL(baseURL),
		rawg.WithLogger(logging.Discard()),
	}, opts...)
	return rawg.New("test-key", opts...)
}

func TestSearchGames_PassesBodyThrough(t *testing.T) {
	const body = `{"results": [{"id": 1, "name": "Game A"}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	got := newClient(t, ts.URL).SearchGames(context.Background(), "game a", 5)

	want := decodeWithNumbers(t, body)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %#v, got %#v", want, got)
	}
}

func TestSearchGames_KeepsExtraFields(t *testing.T) {
	const body = `{"count": 1234, "next": "https://api.rawg.io/api/games?page=2", "results": [{"id": 3498, "rating": 4.47}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	got := newClient(t, ts.URL).SearchGames(context.Background(), "gta", 5)

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var gotGeneric, wantGeneric any
	_ = json.Unmarshal(raw, &gotGeneric)
	_ = json.Unmarshal([]byte(body), &wantGeneric)
	if !reflect.DeepEqual(gotGeneric, wantGeneric) {
		t.Fatalf("round trip changed body:\nwant %s\ngot  %s", body, raw)
	}
	if !strings.Contains(string(raw), `"rating":4.47`) {
		t.Fatalf("number representation changed: %s", raw)
	}
}

func TestSearchGames_MissingResultsIsFilled(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing", body: `{"count": 0}`},
		{name: "null", body: `{"count": 0, "results": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			got := newClient(t, ts.URL).SearchGames(context.Background(), "x", 5)
			items, ok := got[search.ResultsKey].([]any)
			if !ok || items == nil || len(items) != 0 {
				t.Fatalf("expected empty results slice, got %#v", got[search.ResultsKey])
			}
			if got["count"] != json.Number("0") {
				t.Fatalf("count not passed through: %#v", got["count"])
			}
		})
	}
}

func TestSearchGames_FailuresReturnFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": "The key parameter is not provided"}`))
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results": [`))
			},
		},
		{
			name: "array body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1, 2, 3]`))
			},
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
		{
			name: "trailing garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results": [{"id": 1}]}<html>oops`))
			},
		},
		{
			name: "two objects",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results": []} {"results": []}`))
			},
		},
		{
			name: "results not an array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results": "nope"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			got := newClient(t, ts.URL).SearchGames(context.Background(), "anything", 5)
			if !reflect.DeepEqual(got, search.Fallback()) {
				t.Fatalf("want fallback, got %#v", got)
			}
		})
	}
}

func TestSearchGames_ConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := ts.URL
	ts.Close()

	var logs bytes.Buffer
	got := newClient(t, baseURL, rawg.WithLogger(newLogger(&logs))).SearchGames(context.Background(), "anything", 5)
	if !reflect.DeepEqual(got, search.Fallback()) {
		t.Fatalf("want fallback, got %#v", got)
	}
	if strings.Contains(logs.String(), "test-key") {
		t.Fatalf("api key leaked into logs: %s", logs.String())
	}
}

func TestSearchGames_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	obs := &recordingObserver{}
	got := newClient(t, ts.URL, rawg.WithObserver(obs)).SearchGames(ctx, "anything", 5)
	if !reflect.DeepEqual(got, search.Fallback()) {
		t.Fatalf("want fallback, got %#v", got)
	}
	recs := obs.all()
	if len(recs) != 1 || recs[0].Outcome != search.OutcomeTransportError {
		t.Fatalf("expected one transport_error record, got %+v", recs)
	}
}

func TestSearchGames_RequestParameters(t *testing.T) {
	var (
		gotPath  string
		gotQuery url.Values
		gotBody  int64
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotBody = r.ContentLength
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer ts.Close()

	newClient(t, ts.URL).SearchGames(context.Background(), "zelda", 10)

	if gotPath != "/games" {
		t.Fatalf("path: want /games, got %q", gotPath)
	}
	want := map[string]string{
		"key":            "test-key",
		"search":         "zelda",
		"page_size":      "10",
		"search_precise": "true",
		"ordering":       "-rating",
	}
	for k, v := range want {
		if got := gotQuery.Get(k); got != v {
			t.Errorf("%s: want %q, got %q", k, v, got)
		}
	}
	if len(gotQuery) != len(want) {
		t.Errorf("unexpected extra parameters: %v", gotQuery)
	}
	if gotBody > 0 {
		t.Errorf("expected no request body, got %d bytes", gotBody)
	}
}

func TestSearchGames_DefaultPageSize(t *testing.T) {
	var gotPageSize string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("page_size")
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer ts.Close()

	newClient(t, ts.URL).SearchGames(context.Background(), "zelda", 0)
	if gotPageSize != "5" {
		t.Fatalf("page_size: want 5, got %q", gotPageSize)
	}
}

func TestNew_WarnsOnceWithoutKey(t *testing.T) {
	var logs bytes.Buffer
	c := rawg.New("", rawg.WithLogger(newLogger(&logs)))
	if c == nil {
		t.Fatal("expected a client")
	}
	if n := countLevel(logRecords(t, &logs), "WARN"); n != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %s", n, logs.String())
	}

	logs.Reset()
	rawg.New("", rawg.WithLogger(newLogger(&logs)))
	if n := countLevel(logRecords(t, &logs), "WARN"); n != 1 {
		t.Fatalf("second construction: expected exactly 1 warning, got %d", n)
	}
}

func TestNew_NoWarningWithKey(t *testing.T) {
	var logs bytes.Buffer
	rawg.New("key", rawg.WithLogger(newLogger(&logs)))
	if n := countLevel(logRecords(t, &logs), "WARN"); n != 0 {
		t.Fatalf("expected no warning, got %d", n)
	}
}

func TestSearchGames_LogsFailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind string
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind: "status",
		},
		{
			name: "decode",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantKind: "transport",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			var logs bytes.Buffer
			newClient(t, ts.URL, rawg.WithLogger(newLogger(&logs))).SearchGames(context.Background(), "q", 5)

			var errs []map[string]any
			for _, r := range logRecords(t, &logs) {
				if r["level"] == "ERROR" {
					errs = append(errs, r)
				}
			}
			if len(errs) != 1 {
				t.Fatalf("expected 1 error record, got %d: %s", len(errs), logs.String())
			}
			if errs[0]["kind"] != tt.wantKind {
				t.Fatalf("kind: want %q, got %v", tt.wantKind, errs[0]["kind"])
			}
		})
	}
}

func TestSearch_ErrorVariants(t *testing.T) {
	statusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer statusSrv.Close()

	_, err := newClient(t, statusSrv.URL).Search(context.Background(), "q", 5)
	var statusErr *rawg.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status: want 503, got %d", statusErr.StatusCode)
	}

	decodeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer decodeSrv.Close()

	_, err = newClient(t, decodeSrv.URL).Search(context.Background(), "q", 5)
	var transportErr *rawg.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Op != "decode" {
		t.Fatalf("op: want decode, got %q", transportErr.Op)
	}
	if errors.As(err, &statusErr) {
		t.Fatal("transport failure must not look like a status error")
	}
}

func TestSearchGames_ObserverOutcomes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"results": [{"id": 1}, {"id": 2}]}`))
	}))
	defer ts.Close()

	obs := &recordingObserver{}
	c := newClient(t, ts.URL, rawg.WithObserver(obs))
	c.SearchGames(context.Background(), "good", 2)
	c.SearchGames(context.Background(), "bad", 2)

	recs := obs.all()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Outcome != search.OutcomeOK || recs[0].ResultCount != 2 || recs[0].StatusCode != http.StatusOK {
		t.Fatalf("unexpected ok record: %+v", recs[0])
	}
	if recs[1].Outcome != search.OutcomeStatusError || recs[1].ResultCount != 0 || recs[1].StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status record: %+v", recs[1])
	}
	if recs[0].Query != "good" || recs[0].PageSize != 2 {
		t.Fatalf("request not recorded: %+v", recs[0])
	}
}

func TestSearchGames_Concurrent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("search")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"name": q}},
		})
	}))
	defer ts.Close()

	c := newClient(t, ts.URL)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			query := fmt.Sprintf("game-%d", i)
			items := c.SearchGames(context.Background(), query, 1).Results()
			if len(items) != 1 {
				errs <- fmt.Errorf("%s: expected 1 result, got %d", query, len(items))
				return
			}
			item, _ := items[0].(map[string]any)
			if item["name"] != query {
				errs <- fmt.Errorf("%s: got result for %v", query, item["name"])
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
