package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()
		client := New(nil)
		assert.Equal(t, DefaultTimeout, client.defaultTimeout)
		assert.Equal(t, defaultUserAgent, client.userAgent)
	})

	t.Run("custom config", func(t *testing.T) {
		t.Parallel()
		cfg := Config{DefaultTimeout: 5 * time.Second, UserAgent: "TestAgent/1.0"}
		client := New(&cfg)
		assert.Equal(t, 5*time.Second, client.defaultTimeout)
		assert.Equal(t, "TestAgent/1.0", client.userAgent)
	})

	t.Run("zero values use defaults and config is not mutated", func(t *testing.T) {
		t.Parallel()
		cfg := Config{}
		client := New(&cfg)
		assert.Equal(t, DefaultTimeout, client.defaultTimeout)
		assert.NotEmpty(t, client.userAgent)
		assert.Zero(t, cfg.DefaultTimeout)
	})
}

func TestDo_BasicRequest(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("success"))
	})
	client := newTestClient(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(t.Context(), req)
	require.NoError(t, err)
	defer closeResponseBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "success", string(body))
}

func TestDo_DefaultHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept atomic.Value
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		gotAccept.Store(r.Header.Get("Accept"))
	})

	cfg := Config{UserAgent: "CustomAgent/2.0", Headers: http.Header{"Accept": {"text/csv"}}}
	client := newTestClientWithConfig(t, &cfg)

	resp, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	closeResponseBody(t, resp)
	assert.Equal(t, "CustomAgent/2.0", gotUA.Load())
	assert.Equal(t, "text/csv", gotAccept.Load())

	resp, err = client.Get(t.Context(), server.URL, http.Header{"Accept": {"application/json"}})
	require.NoError(t, err)
	closeResponseBody(t, resp)
	assert.Equal(t, "application/json", gotAccept.Load(), "request headers win over defaults")
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	resp, err := client.Get(ctx, server.URL, nil)
	defer closeResponseBody(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_DefaultTimeout(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	})

	cfg := Config{DefaultTimeout: 50 * time.Millisecond}
	client := newTestClientWithConfig(t, &cfg)

	resp, err := client.Get(t.Context(), server.URL, nil)
	defer closeResponseBody(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_ContextTimeoutOverridesDefault(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
	})

	cfg := Config{DefaultTimeout: 10 * time.Millisecond}
	client := newTestClientWithConfig(t, &cfg)

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, server.URL, nil)
	require.NoError(t, err, "context deadline replaces the default timeout")
	defer closeResponseBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_BodyReadableAfterReturn(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		for i := range 100 {
			_, _ = fmt.Fprintf(w, "%d,row\n", i)
		}
	})
	cfg := Config{DefaultTimeout: time.Second}
	client := newTestClientWithConfig(t, &cfg)

	resp, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "timeout context is released on close, not on return")
	assert.Contains(t, string(body), "99,row")
	require.NoError(t, resp.Body.Close())
	assert.NoError(t, resp.Body.Close(), "double close is safe")
}

func TestDo_ConcurrentRequests(t *testing.T) {
	t.Parallel()
	var requestCount atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
	})
	client := newTestClient(t)

	const concurrency = 20
	var wg sync.WaitGroup
	errChan := make(chan error, concurrency)
	for range concurrency {
		wg.Go(func() {
			resp, err := client.Get(t.Context(), server.URL, nil)
			if err != nil {
				errChan <- err
				return
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				errChan <- fmt.Errorf("expected status 200, got %d", resp.StatusCode)
			}
		})
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(concurrency), requestCount.Load())
}

func TestDo_Hooks(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	client := newTestClient(t)

	var beforeCalled bool
	var status int
	var elapsed time.Duration
	client.SetBeforeRequestHook(func(r *http.Request) {
		beforeCalled = true
		assert.Equal(t, server.URL, r.URL.String())
	})
	client.SetAfterResponseHook(func(_ *http.Request, resp *http.Response, err error, d time.Duration) {
		require.NoError(t, err)
		status = resp.StatusCode
		elapsed = d
	})

	resp, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	defer closeResponseBody(t, resp)

	assert.True(t, beforeCalled)
	assert.Equal(t, http.StatusAccepted, status)
	assert.True(t, elapsed > 0, "elapsed time reported")
}

func TestDo_NilRequest(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)
	resp, err := client.Do(t.Context(), nil)
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	t.Parallel()
	client := New(nil)
	client.Close()
	client.Close()
}
