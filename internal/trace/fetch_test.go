package trace

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFetcherJoinsURL(t *testing.T) {
	assert.Equal(t, "https://example.com/cdn-cgi/trace", NewFetcher("https://example.com/", "", nil, 0).URL)
	assert.Equal(t, "https://example.com/cdn-cgi/trace", NewFetcher("https://example.com", "cdn-cgi/trace", nil, 0).URL)
	assert.Equal(t, "https://example.com/x/trace", NewFetcher("https://example.com/x", "/trace", nil, 0).URL)
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DefaultPath, r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, sampleTrace)
	}))
	defer srv.Close()

	text, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleTrace, text)
}

func fetchErr(t *testing.T, err error) *FetchError {
	t.Helper()
	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %v", err)
	return fe
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(context.Background())
	fe := fetchErr(t, err)
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(url, "", nil, time.Second).Fetch(context.Background())
	fe := fetchErr(t, err)
	assert.Equal(t, KindNetwork, fe.Kind)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(context.Background())
	assert.Equal(t, KindEmptyBody, fetchErr(t, err).Kind)
}

func TestFetchBodyRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		io.WriteString(w, "loc=US\n")
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(context.Background())
	assert.Equal(t, KindBodyRead, fetchErr(t, err).Kind)
}

func TestFetchOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pad="+strings.Repeat("x", maxBodySize)+"\n")
		io.WriteString(w, sampleTrace)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(context.Background())
	assert.Equal(t, KindBodyRead, fetchErr(t, err).Kind)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchBodyAtLimit(t *testing.T) {
	body := strings.Repeat("x", maxBodySize-len(sampleTrace)-1) + "\n" + sampleTrace
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	defer srv.Close()

	text, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, text, maxBodySize)
	assert.Equal(t, "SJC", Parse(text)["colo"])
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleTrace)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(srv.URL, "", nil, time.Second).Fetch(ctx)
	assert.Equal(t, KindNetwork, fetchErr(t, err).Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "http_status", KindHTTPStatus.String())
	assert.Equal(t, "body_read", KindBodyRead.String())
	assert.Equal(t, "empty_body", KindEmptyBody.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
