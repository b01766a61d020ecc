package specstory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	specstory "github.com/specstoryai/specstory-go"
)

func newClient(t *testing.T, baseURL string, opts ...specstory.Option) *specstory.Client {
	t.Helper()
	opts = append([]specstory.Option{specstory.WithBaseURL(baseURL)}, opts...)
	c, err := specstory.New("sk-test", opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"data":{"projects":[]}}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.Projects.List(context.Background())
	require.NoError(t, err)

	require.Equal(t, "Bearer sk-test", got.Get("Authorization"))
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.Equal(t, "specstory-sdk-go/"+specstory.Version, got.Get("User-Agent"))
	require.Equal(t, specstory.Version, got.Get("X-SDK-Version"))
	require.Equal(t, "go", got.Get("X-SDK-Language"))
}

func TestRetriesOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"projects":[]}}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	projects, err := c.Projects.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, projects)
	require.Equal(t, int32(3), attempts.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("x-request-id", "req-400")
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.Projects.List(context.Background())

	var apiErr *specstory.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "req-400", apiErr.RequestID)
	require.Equal(t, int32(1), attempts.Load())
}

func TestRetriesExhaustedSurfaceLastStatus(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, specstory.WithMaxRetries(1))
	_, err := c.Projects.List(context.Background())

	var apiErr *specstory.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	require.Equal(t, int32(2), attempts.Load(), "one retry means two attempts")
}

func TestNetworkErrorCode(t *testing.T) {
	// Nothing listens here.
	c := newClient(t, "http://127.0.0.1:1", specstory.WithMaxRetries(0))
	_, err := c.Projects.List(context.Background())

	var apiErr *specstory.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, specstory.ErrorCodeNetwork, apiErr.Code)
}

func TestNoContentResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	body, err := c.GraphQL.Query(context.Background(), "mutation { noop }", nil)
	require.NoError(t, err)
	require.Empty(t, body)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// The deadline lands during the first or second backoff wait.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	c := newClient(t, srv.URL, specstory.WithMaxRetries(10))
	_, err := c.Projects.List(ctx)

	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, attempts.Load(), int32(11), "retries must stop at the deadline")
}
