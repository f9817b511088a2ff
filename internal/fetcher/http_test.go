package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:    "test-agent",
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		PerHostRate:  100,
		PerHostBurst: 100,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte("<html><title>Chili</title></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL+"/recipe")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.HTML, "Chili")
	assert.Equal(t, srv.URL+"/recipe", page.FinalURL)
}

func TestFetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>moved</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", page.FinalURL)
}

func TestFetch_NotFoundIsFetchError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/gone")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	// 404 is terminal, no retries.
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html>recovered</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL+"/flaky")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "recovered")
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetch_ExhaustedRetriesReturnFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/down")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
}

func TestAdaptiveLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 10)
	assert.Equal(t, rate.Limit(10), lim.Limit())

	lim.OnRateLimit()
	assert.Equal(t, rate.Limit(5), lim.Limit())

	// Floor at initial/4.
	for range 10 {
		lim.OnRateLimit()
	}
	assert.Equal(t, rate.Limit(2.5), lim.Limit())

	// Ceiling at 2x initial.
	for range 20 {
		lim.OnSuccess()
	}
	assert.Equal(t, rate.Limit(20), lim.Limit())
}

func TestLimiterFor_ReusedPerHost(t *testing.T) {
	f := newTestFetcher()
	a := f.limiterFor("https://blog.example.com/a")
	b := f.limiterFor("https://blog.example.com/b")
	c := f.limiterFor("https://other.example.org/a")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}
