package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auri-app/auri/internal/config"
	"github.com/auri-app/auri/pkg/analysis"
	"github.com/auri-app/auri/pkg/cache"
	"github.com/auri-app/auri/pkg/journal"
	"github.com/auri-app/auri/pkg/journal/memory"
	"github.com/auri-app/auri/pkg/metrics"
	"github.com/auri-app/auri/pkg/pipeline"
	"github.com/auri-app/auri/pkg/render"
)

const (
	testSecret = "test-secret-0123456789"
	testUser   = "user-1"
)

type testServer struct {
	*Server
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Server.JWTSecret = testSecret
	for _, m := range mutate {
		m(cfg)
	}

	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.New(io.Discard)

	s, err := New(cfg, Deps{
		Store:    memory.NewSeeded(testUser),
		Analyzer: analysis.Mock{},
		Runner:   pipeline.NewRunner(fc, nil, logger),
		Metrics:  metrics.NewRegistry(),
		Logger:   logger,
	})
	require.NoError(t, err)

	ts := &testServer{Server: s, handler: s.Handler()}
	if s.auth != nil {
		ts.token, err = s.auth.Issue(testUser, time.Hour)
		require.NoError(t, err)
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return ts.doToken(t, method, path, body, ts.token)
}

func (ts *testServer) doToken(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, code, resp.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestNewRequiresSecret(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg, Deps{Store: memory.New()})
	assert.Error(t, err)

	cfg.Server.JWTSecret = "short"
	_, err = New(cfg, Deps{Store: memory.New()})
	assert.Error(t, err)

	cfg.Server.NoAuth = true
	_, err = New(cfg, Deps{})
	assert.Error(t, err, "store is required")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.doToken(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[healthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	other, err := NewAuthenticator("another-secret-0123456789")
	require.NoError(t, err)
	forged, err := other.Issue(testUser, time.Hour)
	require.NoError(t, err)
	expired, err := ts.auth.Issue(testUser, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong secret", forged, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", expired, http.StatusUnauthorized, "SESSION_EXPIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.doToken(t, http.MethodGet, "/v1/entries", nil, tt.token)
			assertError(t, rec, tt.status, tt.code)
		})
	}

	rec := ts.do(t, http.MethodGet, "/v1/entries", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	a, err := NewAuthenticator(testSecret)
	require.NoError(t, err)
	// {"alg":"none"} header with a subject and no signature.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEifQ."
	_, err = a.Verify(token)
	assert.Error(t, err)
}

func TestNoAuthUsesLocalUser(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Server.NoAuth = true
		c.User = testUser
	})
	rec := ts.doToken(t, http.MethodGet, "/v1/entries", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[listEntriesResponse](t, rec).Entries, 3)
}

func TestEntries(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/entries", createEntryRequest{
		Text:    "So happy and grateful for my friends.",
		Analyze: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[journal.Entry](t, rec)
	assert.Equal(t, testUser, created.UserID)
	assert.Equal(t, analysis.MockInsight, created.Analysis)
	assert.Equal(t, []string{"Joy", "Gratitude"}, created.Emotions)

	rec = ts.do(t, http.MethodGet, "/v1/entries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[listEntriesResponse](t, rec).Entries
	require.Len(t, entries, 4)
	assert.Equal(t, created.ID, entries[0].ID, "newest first")

	rec = ts.do(t, http.MethodGet, "/v1/entries?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[listEntriesResponse](t, rec).Entries, 2)

	rec = ts.do(t, http.MethodGet, "/v1/entries/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Text, decodeBody[journal.Entry](t, rec).Text)

	rec = ts.do(t, http.MethodDelete, "/v1/entries/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/entries/"+created.ID.String(), nil)
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestEntriesAreScopedByUser(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/entries", createEntryRequest{Text: "mine"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[journal.Entry](t, rec)

	otherToken, err := ts.auth.Issue("user-2", time.Hour)
	require.NoError(t, err)

	rec = ts.doToken(t, http.MethodGet, "/v1/entries", nil, otherToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[listEntriesResponse](t, rec).Entries)

	rec = ts.doToken(t, http.MethodDelete, "/v1/entries/"+created.ID.String(), nil, otherToken)
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestEntriesBadRequests(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   string
	}{
		{"empty body", http.MethodPost, "/v1/entries", nil, "INVALID_INPUT"},
		{"malformed", http.MethodPost, "/v1/entries", "{", "INVALID_INPUT"},
		{"unknown field", http.MethodPost, "/v1/entries", `{"text":"x","mood":1}`, "INVALID_INPUT"},
		{"missing text", http.MethodPost, "/v1/entries", createEntryRequest{}, "INVALID_INPUT"},
		{"blank text", http.MethodPost, "/v1/entries", createEntryRequest{Text: "   "}, "INVALID_INPUT"},
		{"bad since", http.MethodGet, "/v1/entries?since=yesterday", nil, "INVALID_INPUT"},
		{"bad limit", http.MethodGet, "/v1/entries?limit=-1", nil, "INVALID_INPUT"},
		{"bad id", http.MethodDelete, "/v1/entries/42", nil, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assertError(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestAnalysis(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/analysis", analyzeRequest{Text: "Worried about the deadline."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeBody[analysis.Result](t, rec)
	assert.Equal(t, analysis.MockInsight, res.Insight)
	assert.Equal(t, []string{"Anxiety", "Stress"}, res.Emotions)

	rec = ts.do(t, http.MethodPost, "/v1/analysis", analyzeRequest{})
	assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")
}

func TestEmotions(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		query string
		want  int
		label string
	}{
		{"", 8, "All Entries"},
		{"?filter=positive", 6, "Positive"},
		{"?filter=Negative", 2, "Negative"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/v1/emotions"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decodeBody[emotionsResponse](t, rec)
			assert.Len(t, resp.Emotions, tt.want)
			assert.Equal(t, tt.label, resp.Label)
		})
	}

	rec := ts.do(t, http.MethodGet, "/v1/emotions?filter=sideways", nil)
	assertError(t, rec, http.StatusBadRequest, "INVALID_FILTER")
}

func TestBubbles(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/emotions/bubbles", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypeJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get("X-Auri-Cache"))
	assert.Equal(t, "0", rec.Header().Get("X-Auri-Overflow"))

	l := decodeBody[render.Layout](t, rec)
	require.Len(t, l.Bubbles, 8)
	assert.Positive(t, l.Width)

	rec = ts.do(t, http.MethodGet, "/v1/emotions/bubbles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-Auri-Cache"))

	rec = ts.do(t, http.MethodGet, "/v1/emotions/bubbles?format=svg&filter=negative&width=300&height=300", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypeSVG, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `class="bubble`))
}

func TestBubblesBadRequests(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		query string
		code  string
	}{
		{"?format=png", "INVALID_FORMAT"},
		{"?filter=up", "INVALID_FILTER"},
		{"?width=wide", "INVALID_INPUT"},
		{"?best_effort=maybe", "INVALID_INPUT"},
		{"?palette=neon", "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/v1/emotions/bubbles"+tt.query, nil)
			assertError(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/layout", layoutRequest{
		Bubbles: []layoutBubble{{Label: "Joy", Frequency: 10}, {Label: "Fear", Frequency: 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	l := decodeBody[render.Layout](t, rec)
	require.Len(t, l.Bubbles, 2)
	assert.Equal(t, "Joy", l.Bubbles[0].Label)
	assert.InDelta(t, 60, l.Bubbles[0].X, 1e-9, "first bubble sits on the initial ring")
	assert.InDelta(t, 0, l.Bubbles[0].Y, 1e-9)

	rec = ts.do(t, http.MethodPost, "/v1/layout", layoutRequest{
		Bubbles: []layoutBubble{{Label: "Joy", Frequency: 1}},
		Format:  "svg",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeSVG, rec.Header().Get("Content-Type"))
}

func TestLayoutOverflow(t *testing.T) {
	ts := newTestServer(t)
	req := layoutRequest{
		Bubbles:       []layoutBubble{{Label: "A", Frequency: 5}, {Label: "B", Frequency: 5}},
		MaxIterations: 1,
	}

	rec := ts.do(t, http.MethodPost, "/v1/layout", req)
	assertError(t, rec, http.StatusUnprocessableEntity, "LAYOUT_OVERFLOW")

	req.BestEffort = true
	rec = ts.do(t, http.MethodPost, "/v1/layout", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	l := decodeBody[render.Layout](t, rec)
	assert.True(t, l.Bubbles[1].Overflow)
}

func TestLayoutCanvasBoundsSearch(t *testing.T) {
	ts := newTestServer(t)
	big := make([]layoutBubble, 500)
	for i := range big {
		big[i] = layoutBubble{Label: "Big", Frequency: 100000}
	}

	start := time.Now()
	rec := ts.do(t, http.MethodPost, "/v1/layout", layoutRequest{Bubbles: big, Width: 400, Height: 400})
	assertError(t, rec, http.StatusUnprocessableEntity, "LAYOUT_OVERFLOW")
	assert.Less(t, time.Since(start), 5*time.Second, "canvas should bound the spiral search")

	rec = ts.do(t, http.MethodPost, "/v1/layout", layoutRequest{Bubbles: big[:2], Width: 400, Height: 400, MaxRadius: 1})
	assertError(t, rec, http.StatusUnprocessableEntity, "LAYOUT_OVERFLOW")
}

func TestLayoutValidation(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name string
		body any
		want string
	}{
		{"no bubbles", layoutRequest{}, "Bubbles"},
		{"empty label", layoutRequest{Bubbles: []layoutBubble{{Frequency: 1}}}, "Label"},
		{"negative frequency", layoutRequest{Bubbles: []layoutBubble{{Label: "Joy", Frequency: -1}}}, "Frequency"},
		{"bad format", layoutRequest{Bubbles: []layoutBubble{{Label: "Joy"}}, Format: "gif"}, "Format"},
		{"negative max radius", layoutRequest{Bubbles: []layoutBubble{{Label: "Joy"}}, MaxRadius: -1}, "MaxRadius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/v1/layout", tt.body)
			assertError(t, rec, http.StatusBadRequest, "INVALID_INPUT")
			assert.Contains(t, decodeBody[ErrorResponse](t, rec).Message, tt.want)
		})
	}
}

func TestNotFoundRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/v2/nothing", nil)
	assertError(t, rec, http.StatusNotFound, "NOT_FOUND")

	rec = ts.do(t, http.MethodPut, "/v1/layout", nil)
	assertError(t, rec, http.StatusMethodNotAllowed, "INVALID_INPUT")
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/entries", createEntryRequest{Text: "counting"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[journal.Entry](t, rec).ID

	ts.do(t, http.MethodDelete, "/v1/entries/"+id.String(), nil)

	got := testutil.ToFloat64(ts.metrics.HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/v1/entries/{id}", "204"))
	assert.Equal(t, 1.0, got)

	rec = ts.doToken(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auri_http_requests_total")
}
