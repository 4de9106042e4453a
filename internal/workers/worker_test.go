package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/quote-service/internal/taskqueue"
)

type fakeQueue struct {
	mu         sync.Mutex
	pending    []taskqueue.ClaimedTask
	processing []string
	completed  []string
	failed     map[string]bool
}

func newFakeQueue(tasks ...taskqueue.ClaimedTask) *fakeQueue {
	return &fakeQueue{pending: tasks, failed: map[string]bool{}}
}

func (q *fakeQueue) ClaimTasks(_ context.Context, input taskqueue.ClaimTasksInput) ([]taskqueue.ClaimedTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := min(input.MaxTasks, len(q.pending))
	out := q.pending[:n]
	q.pending = q.pending[n:]
	return out, nil
}

func (q *fakeQueue) MarkProcessing(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing = append(q.processing, id)
	return nil
}

func (q *fakeQueue) CompleteTask(_ context.Context, id string, _ any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, id)
	return nil
}

func (q *fakeQueue) FailTask(_ context.Context, id, _ string, retry bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[id] = retry
	return nil
}

func (q *fakeQueue) done() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed) + len(q.failed)
}

func TestWorkerProcessesTasks(t *testing.T) {
	q := newFakeQueue(
		taskqueue.ClaimedTask{ID: "t1", TaskType: taskqueue.TaskTypeCRMSync, Payload: []byte(`{"type":"submitted"}`)},
		taskqueue.ClaimedTask{ID: "t2", TaskType: taskqueue.TaskTypeCRMSync, Payload: []byte(`{"type":"declined"}`)},
		taskqueue.ClaimedTask{ID: "t3", TaskType: "unknown", Payload: []byte(`{}`)},
	)

	w := New(q, WorkerConfig{WorkerID: "test", MaxTasks: 2, NumWorkers: 1, PollDelay: 5 * time.Millisecond}, zerolog.Nop())
	w.RegisterHandler(taskqueue.TaskTypeCRMSync, func(_ context.Context, payload []byte) error {
		if string(payload) == `{"type":"declined"}` {
			return errors.New("crm unavailable")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	require.Eventually(t, func() bool { return q.done() == 3 }, time.Second, 5*time.Millisecond)
	w.Stop()

	assert.Equal(t, []string{"t1"}, q.completed)
	assert.True(t, q.failed["t2"], "handler errors are retried")
	retry, ok := q.failed["t3"]
	assert.True(t, ok)
	assert.False(t, retry, "unknown task types are not retried")
	assert.ElementsMatch(t, []string{"t1", "t2"}, q.processing)
}

func TestWorkerStopIsIdempotent(t *testing.T) {
	w := New(newFakeQueue(), WorkerConfig{}, zerolog.Nop())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

type fakeExpirer struct {
	n   int
	err error
}

func (f fakeExpirer) ExpireDue(context.Context) (int, error) { return f.n, f.err }

func TestExpireHandler(t *testing.T) {
	h := NewExpireHandler(fakeExpirer{n: 3}, zerolog.Nop())
	assert.NoError(t, h(context.Background(), []byte(`{"requested_by":"cli"}`)))
	assert.NoError(t, h(context.Background(), nil))
	assert.Error(t, h(context.Background(), []byte(`{`)))

	h = NewExpireHandler(fakeExpirer{err: errors.New("boom")}, zerolog.Nop())
	assert.ErrorContains(t, h(context.Background(), nil), "boom")
}
