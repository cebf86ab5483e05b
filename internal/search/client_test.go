package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/telechat/internal/logger"
)

func noSleep(time.Duration) {}

func newGoogleProvider(t *testing.T, handler http.HandlerFunc) *googleProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &googleProvider{
		apiKey:   "test-key",
		engineID: "test-cx",
		client:   server.Client(),
		logger:   logger.NewTestLogger(),
		sleep:    noSleep,
		baseURL:  server.URL,
	}
}

func TestGoogleSearch(t *testing.T) {
	p := newGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-cx", r.URL.Query().Get("cx"))
		assert.Equal(t, "go generics", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("num"))
		w.Write([]byte(`{"items":[
			{"title":"First","snippet":"one","link":"https://a.example"},
			{"title":"Second","snippet":"two","link":"https://b.example"},
			{"title":"Dup","snippet":"three","link":"https://a.example"}
		]}`))
	})

	result, err := p.search(context.Background(), "go generics", 3)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "1. First\none\nSource: https://a.example")
	assert.Contains(t, result.Text, "2. Second")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, result.URLs)
}

func TestGoogleSearchRetriesOnRateLimit(t *testing.T) {
	var calls int
	p := newGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"items":[{"title":"Late","snippet":"s","link":"https://x.example"}]}`))
	})

	result, err := p.search(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"https://x.example"}, result.URLs)
}

func TestGoogleSearchGivesUpAfterRetries(t *testing.T) {
	var calls int
	p := newGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.search(context.Background(), "query", 3)
	require.Error(t, err)
	assert.Equal(t, maxRetries+1, calls)
}

func TestGoogleSearchNonRetryableFailsFast(t *testing.T) {
	var calls int
	p := newGoogleProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := p.search(context.Background(), "query", 3)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSearxNGInstanceFallback(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(blocked.Close)

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"results":[{"title":"Hit","content":"body","url":"https://hit.example"}]}`))
	}))
	t.Cleanup(working.Close)

	p := &searxNGProvider{
		instances: []string{blocked.URL, working.URL},
		client:    http.DefaultClient,
		logger:    logger.NewTestLogger(),
		sleep:     noSleep,
	}

	result, err := p.search(context.Background(), "query", 3)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "1. Hit")
	assert.Equal(t, []string{"https://hit.example"}, result.URLs)
}

func TestSearxNGAllInstancesFail(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(down.Close)

	p := &searxNGProvider{
		instances: []string{down.URL},
		client:    http.DefaultClient,
		logger:    logger.NewTestLogger(),
		sleep:     noSleep,
	}

	_, err := p.search(context.Background(), "query", 3)
	require.Error(t, err)
}

type stubSearchProvider struct {
	providerName string
	result       Result
	err          error
	calls        int
}

func (s *stubSearchProvider) name() string { return s.providerName }

func (s *stubSearchProvider) search(ctx context.Context, query string, count int) (Result, error) {
	s.calls++
	return s.result, s.err
}

func TestClientFallsThroughProviders(t *testing.T) {
	failing := &stubSearchProvider{providerName: "first", err: assert.AnError}
	empty := &stubSearchProvider{providerName: "second"}
	working := &stubSearchProvider{providerName: "third", result: Result{Text: "hit", URLs: []string{"https://x"}}}

	c := &Client{
		providers:   []provider{failing, empty, working},
		resultCount: 3,
		logger:      logger.NewTestLogger(),
	}

	result := c.Search(context.Background(), "query")
	assert.Equal(t, "hit", result.Text)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 1, working.calls)
}

func TestClientAllProvidersFail(t *testing.T) {
	c := &Client{
		providers:   []provider{&stubSearchProvider{providerName: "only", err: assert.AnError}},
		resultCount: 3,
		logger:      logger.NewTestLogger(),
	}

	result := c.Search(context.Background(), "query")
	assert.True(t, result.Empty())
}

func TestFormatItemsTruncatesAndDedupes(t *testing.T) {
	items := []searchItem{
		{title: "a", snippet: "s1", link: "https://a"},
		{title: "b", snippet: "s2", link: "https://a"},
		{title: "c", snippet: "s3", link: "https://c"},
		{title: "d", snippet: "s4", link: "https://d"},
	}

	result := formatItems(items, 3)
	assert.Contains(t, result.Text, "3. c")
	assert.NotContains(t, result.Text, "4. d")
	assert.Equal(t, []string{"https://a", "https://c"}, result.URLs)
}
