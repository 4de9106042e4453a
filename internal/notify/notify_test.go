package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/kosarica/quote-service/internal/http"
	"github.com/kosarica/quote-service/internal/http/ratelimit"
	"github.com/kosarica/quote-service/internal/submission"
	"github.com/kosarica/quote-service/internal/taskqueue"
)

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.WebhookURL = url
	cfg.Secret = "s3cret"
	cfg.Retry = ratelimit.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	return cfg
}

func testEvent() submission.Event {
	return submission.Event{
		Type:       submission.EventSubmitted,
		OccurredAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		Submission: &submission.Submission{ID: "sub-1"},
	}
}

func TestHTTPNotifier(t *testing.T) {
	t.Run("PostsSignedEvent", func(t *testing.T) {
		var got []byte
		var signature string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			signature = r.Header.Get("X-Signature")
			got, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		n := NewHTTPNotifier(testConfig(srv.URL), zerolog.Nop())
		require.NoError(t, n.Notify(context.Background(), testEvent()))

		var decoded struct {
			Type       string `json:"type"`
			Submission struct {
				ID string `json:"id"`
			} `json:"submission"`
		}
		require.NoError(t, json.Unmarshal(got, &decoded))
		assert.Equal(t, "submitted", decoded.Type)
		assert.Equal(t, "sub-1", decoded.Submission.ID)
		assert.Equal(t, "sha256="+apphttp.Sign(got, "s3cret"), signature)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		n := NewHTTPNotifier(testConfig(srv.URL), zerolog.Nop())
		require.NoError(t, n.Notify(context.Background(), testEvent()))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		n := NewHTTPNotifier(testConfig(srv.URL), zerolog.Nop())
		err := n.Notify(context.Background(), testEvent())
		require.Error(t, err)
		var retryErr *ratelimit.RetryError
		require.True(t, errors.As(err, &retryErr))
		assert.Equal(t, http.StatusServiceUnavailable, retryErr.LastStatus)
		assert.Equal(t, 3, retryErr.Attempts)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("DoesNotRetryClientErrors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		n := NewHTTPNotifier(testConfig(srv.URL), zerolog.Nop())
		require.Error(t, n.Notify(context.Background(), testEvent()))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("NoEndpoint", func(t *testing.T) {
		n := NewHTTPNotifier(testConfig(""), zerolog.Nop())
		assert.ErrorIs(t, n.Notify(context.Background(), testEvent()), ErrNoEndpoint)
	})
}

type fakeScheduler struct {
	inputs []taskqueue.ScheduleTaskInput
	err    error
}

func (f *fakeScheduler) ScheduleTask(_ context.Context, input taskqueue.ScheduleTaskInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inputs = append(f.inputs, input)
	return "task-1", nil
}

func TestQueueNotifier(t *testing.T) {
	sched := &fakeScheduler{}
	n := NewQueueNotifier(sched, zerolog.Nop())
	require.NoError(t, n.Notify(context.Background(), testEvent()))
	require.Len(t, sched.inputs, 1)
	assert.Equal(t, taskqueue.TaskTypeCRMSync, sched.inputs[0].TaskType)
	assert.Equal(t, testEvent(), sched.inputs[0].Payload)

	sched.err = errors.New("db down")
	assert.ErrorContains(t, n.Notify(context.Background(), testEvent()), "db down")
}

func TestSyncHandler(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	handler := SyncHandler(NewHTTPNotifier(testConfig(srv.URL), zerolog.Nop()))
	payload, err := json.Marshal(testEvent())
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), payload))
	assert.JSONEq(t, string(payload), string(got))

	assert.Error(t, handler(context.Background(), []byte("not json")))
	assert.Error(t, handler(context.Background(), []byte(`{"submission":null}`)))
}
