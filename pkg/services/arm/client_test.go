package arm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func noSleep(time.Duration) {}

func TestClientGet_RetriesTransientStatuses(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(nil, WithSleep(noSleep))
	resp, ok := client.Get(context.Background(), srv.URL)

	assert.True(t, ok)
	assert.Equal(t, 3, calls)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestClientGet_TerminalStatusIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(nil, WithSleep(noSleep))
	_, ok := client.Get(context.Background(), srv.URL)

	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestClientGet_ExhaustsRetryBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(nil, WithSleep(noSleep), WithMaxAttempts(3))
	_, ok := client.Get(context.Background(), srv.URL)

	assert.False(t, ok)
	assert.Equal(t, 3, calls)
}

func TestClientGet_BackoffIsExponential(t *testing.T) {
	var slept []time.Duration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(nil, WithSleep(func(d time.Duration) { slept = append(slept, d) }))
	_, ok := client.Get(context.Background(), srv.URL)

	assert.False(t, ok)
	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	}, slept)
}
