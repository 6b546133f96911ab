package esmfold

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proviewer/internal/resilience"
)

const (
	testSequence = "PIAQIHILEGRSDEQKETLIREVSEAISRSLDAPLTSVRVIITEMAKGHFGIGGELASK"
	testPDB      = "ATOM      1  CA  PRO A   1       0.000   0.000   0.000  1.00 50.00           C\nEND\n"
)

func newTestClient(url string, opts ...Option) Client {
	base := []Option{WithBaseURL(url), WithRateLimit(1000)}
	return NewClient(append(base, opts...)...)
}

func TestFold_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/foldSequence/v1/pdb/", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, testSequence, string(body))

		w.Write([]byte(testPDB))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Fold(context.Background(), testSequence)
	require.NoError(t, err)
	assert.Equal(t, testPDB, got)
}

func TestFold_TrailingSlashBaseURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foldSequence/v1/pdb/", r.URL.Path)
		w.Write([]byte(testPDB))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL + "/").Fold(context.Background(), testSequence)
	require.NoError(t, err)
}

func TestFold_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`invalid sequence`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fold(context.Background(), "XXXX")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resilience.StatusCode(err))
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid sequence")
}

func TestFold_SingleAttemptByDefault(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fold(context.Background(), testSequence)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFold_RetriesWhenConfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(testPDB))
	}))
	defer srv.Close()

	retry := resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	got, err := newTestClient(srv.URL, WithRetry(retry)).Fold(context.Background(), testSequence)
	require.NoError(t, err)
	assert.Equal(t, testPDB, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFold_EmptyBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fold(context.Background(), testSequence)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response body")
}

func TestFold_InvalidUTF8(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fold(context.Background(), testSequence)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
}

func TestFold_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(testPDB))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, WithTimeout(20*time.Millisecond)).Fold(context.Background(), testSequence)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestFold_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPDB))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Fold(ctx, testSequence)
	require.Error(t, err)
}
