package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) { s.onResponse = cb }
func (s *stubHooks) OnError(cb colly.ErrorCallback)       { s.onError = cb }

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestConfigureHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	var result crawler.FetchResponse
	var fetchErr error
	hooks := &stubHooks{}
	f.configureHooks(hooks, time.Now(), &result, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("<html>ok</html>"),
		Headers:    &http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com/")},
	})
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", result.ContentType)
	require.Equal(t, "https://example.com/", result.URL)
	require.Equal(t, "<html>ok</html>", string(result.Body))

	hooks.onError(&colly.Response{StatusCode: http.StatusForbidden}, errors.New("forbidden"))
	var asFetch *crawler.FetchError
	require.ErrorAs(t, fetchErr, &asFetch)
	require.Equal(t, http.StatusForbidden, asFetch.StatusCode)
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>hi</title></html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "keywordcrawl-test", Timeout: 5 * time.Second})
	resp, err := f.Fetch(t.Context(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "hi")
	require.Equal(t, "text/html", resp.ContentType)
	require.Positive(t, resp.Duration)
}

func TestFetchHTTPErrorCarriesStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(t.Context(), srv.URL)
	require.Error(t, err)
	status, ok := crawler.StatusCodeOf(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, status)
}

func TestFetchStartedVisitRunsToCompletion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>slow but done</html>"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	f := New(Config{Timeout: 5 * time.Second})
	resp, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "slow but done")
}

func TestFetchDoesNotStartWhenCanceled(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(0), hits.Load())
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	// Reserve a port, then close the listener so the address refuses.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(t.Context(), addr)
	require.Error(t, err)
	_, ok := crawler.StatusCodeOf(err)
	require.False(t, ok)
}
