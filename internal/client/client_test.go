package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"selfservice-kiosk/internal/domain"

	"github.com/stretchr/testify/assert"
)

func newTestClient() *Resilient {
	return NewResilient(time.Second, 3, time.Millisecond)
}

func TestResilient_RetriesServerErrorsUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":"temporarily down"}`, http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	resp, err := newTestClient().Send(context.Background(), http.MethodGet, server.URL, nil, Options{})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResilient_NeverRetriesClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid order"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient().Send(context.Background(), http.MethodPost, server.URL, map[string]string{"x": "y"}, Options{})

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var appErr *domain.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrKindRemote, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "invalid order")
	assert.False(t, appErr.Recoverable())
}

func TestResilient_ExhaustedRetriesReportLastServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient().Send(context.Background(), http.MethodGet, server.URL, nil, Options{})

	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var appErr *domain.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrKindRemote, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.True(t, appErr.Recoverable())
}

func TestResilient_NetworkFailureIsRecoverable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient().Send(context.Background(), http.MethodGet, server.URL, nil, Options{})

	assert.Error(t, err)
	var appErr *domain.Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.ErrKindNetwork, appErr.Kind)
	assert.True(t, appErr.Recoverable())
}

func TestResilient_PerSendOptionsOverrideDefaults(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient().Send(context.Background(), http.MethodGet, server.URL, nil, Options{Retries: 1})

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBodyMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error field", body: `{"error":"nope"}`, want: "nope"},
		{name: "message field", body: `{"message":"later"}`, want: "later"},
		{name: "plain text", body: "gateway timeout", want: "gateway timeout"},
		{name: "empty", body: "", want: "remote service error"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, bodyMessage([]byte(testCase.body)))
		})
	}
}
