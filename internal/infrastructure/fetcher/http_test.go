package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPFetcher(t *testing.T) {
	f := NewHTTPFetcher(Options{})

	assert.NotNil(t, f.httpClient)
	assert.NotNil(t, f.rateLimiter)
	assert.Equal(t, DefaultUserAgent, f.userAgent)
	assert.Equal(t, defaultAcceptLanguage, f.acceptLanguage)
	assert.Equal(t, defaultTimeout, f.timeout)
	assert.False(t, f.debug)
}

func TestSetDebug(t *testing.T) {
	f := NewHTTPFetcher(Options{})

	f.SetDebug(true)
	assert.True(t, f.debug)

	f.SetDebug(false)
	assert.False(t, f.debug)
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.Equal(t, "en-GB,en;q=0.9", r.Header.Get("Accept-Language"))
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{Timeout: 2 * time.Second})
	body, err := f.Fetch(context.Background(), server.URL+"/search")

	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", body)
}

func TestFetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := NewHTTPFetcher(Options{Timeout: 2 * time.Second})
	body, err := f.Fetch(context.Background(), server.URL+"/old")

	require.NoError(t, err)
	assert.Equal(t, "moved", body)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{Timeout: 2 * time.Second})
	body, err := f.Fetch(context.Background(), server.URL)

	assert.Empty(t, body)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	assert.Equal(t, 1, attempts) // no retries
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{Timeout: 100 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)

	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewHTTPFetcher(Options{})
	_, err := f.Fetch(context.Background(), "://invalid-url")

	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func TestDebugLog(t *testing.T) {
	f := NewHTTPFetcher(Options{})

	f.debug = false
	f.debugLog("test message %s", "arg")

	f.debug = true
	f.debugLog("test message %s", "arg")
}

func TestReadLimitedBody(t *testing.T) {
	t.Run("reads within limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("short content"))
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := readLimitedBody(resp.Body, 1000)
		require.NoError(t, err)
		assert.Equal(t, "short content", string(body))
	})

	t.Run("reads exactly the limit", func(t *testing.T) {
		body, err := readLimitedBody(strings.NewReader(strings.Repeat("x", 100)), 100)
		require.NoError(t, err)
		assert.Len(t, body, 100)
	})

	t.Run("rejects bodies beyond limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for i := 0; i < 100; i++ {
				w.Write([]byte("0123456789"))
			}
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := readLimitedBody(resp.Body, 100)
		assert.ErrorIs(t, err, errBodyTooLarge)
		assert.Nil(t, body)
	})
}

func TestFetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("<p>page</p>", maxBodyBytes/11+1)))
	}))
	defer server.Close()

	f := NewHTTPFetcher(Options{Timeout: 5 * time.Second})
	body, err := f.Fetch(context.Background(), server.URL)

	assert.Empty(t, body)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
	assert.ErrorIs(t, err, errBodyTooLarge)
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, server.URL, fetchErr.URL)
}
