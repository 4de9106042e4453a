package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTaskNotFound is returned by GetTask for an unknown id
var ErrTaskNotFound = errors.New("task not found")

type TaskQueue struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *TaskQueue {
	return &TaskQueue{pool: pool}
}

type ScheduleTaskInput struct {
	TaskType    string
	Payload     any
	Priority    int
	ScheduledAt *time.Time
	MaxRetries  int
}

// ScheduleTask enqueues a task and returns its id
func (q *TaskQueue) ScheduleTask(ctx context.Context, input ScheduleTaskInput) (string, error) {
	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	maxRetries := 3
	if input.MaxRetries > 0 {
		maxRetries = input.MaxRetries
	}

	scheduled := time.Now()
	if input.ScheduledAt != nil {
		scheduled = *input.ScheduledAt
	}

	var id string
	err = q.pool.QueryRow(ctx, `
		INSERT INTO task_queue (task_type, payload, priority, scheduled_for, max_retries)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, input.TaskType, payload, input.Priority, scheduled, maxRetries).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to schedule %s task: %w", input.TaskType, err)
	}
	return id, nil
}

type ClaimTasksInput struct {
	WorkerID  string
	TaskTypes []string
	MaxTasks  int
}

// ClaimTasks atomically claims up to MaxTasks due tasks for a worker
func (q *TaskQueue) ClaimTasks(ctx context.Context, input ClaimTasksInput) ([]ClaimedTask, error) {
	rows, err := q.pool.Query(ctx, `SELECT id, task_type, payload FROM claim_tasks($1, $2, $3)`,
		input.WorkerID, input.TaskTypes, input.MaxTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to claim tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[ClaimedTask])
	if err != nil {
		return nil, fmt.Errorf("failed to scan claimed tasks: %w", err)
	}
	return tasks, nil
}

// MarkProcessing moves a claimed task to processing
func (q *TaskQueue) MarkProcessing(ctx context.Context, taskID string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1
	`, taskID)
	return err
}

func (q *TaskQueue) CompleteTask(ctx context.Context, taskID string, result any) error {
	var data []byte
	if result != nil {
		var err error
		if data, err = json.Marshal(result); err != nil {
			return fmt.Errorf("failed to marshal task result: %w", err)
		}
	}
	_, err := q.pool.Exec(ctx, `SELECT complete_task($1, $2::jsonb)`, taskID, data)
	return err
}

func (q *TaskQueue) FailTask(ctx context.Context, taskID, errorMessage string, shouldRetry bool) error {
	_, err := q.pool.Exec(ctx, `SELECT fail_task($1, $2, $3)`, taskID, errorMessage, shouldRetry)
	return err
}

func (q *TaskQueue) CleanupOldTasks(ctx context.Context, daysToKeep int) (int, error) {
	var count int
	err := q.pool.QueryRow(ctx, `SELECT cleanup_old_tasks($1)`, daysToKeep).Scan(&count)
	return count, err
}

// RecoverOrphanedTasks requeues tasks whose worker stopped updating them
func (q *TaskQueue) RecoverOrphanedTasks(ctx context.Context, timeout time.Duration) (recovered, failed int32, err error) {
	err = q.pool.QueryRow(ctx, `SELECT recovered, failed FROM recover_orphaned_tasks($1)`, timeout).
		Scan(&recovered, &failed)
	return recovered, failed, err
}

func (q *TaskQueue) CancelTask(ctx context.Context, taskID string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'claimed')
	`, taskID)
	return err
}

func (q *TaskQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	err := q.pool.QueryRow(ctx, `
		SELECT id, task_type, payload, priority, status,
		       scheduled_for, started_at, completed_at, failed_at,
		       worker_id, retry_count, max_retries, error_message,
		       created_at, updated_at
		FROM task_queue
		WHERE id = $1
	`, taskID).Scan(
		&task.ID, &task.TaskType, &task.Payload, &task.Priority, &task.Status,
		&task.ScheduledFor, &task.StartedAt, &task.CompletedAt, &task.FailedAt,
		&task.WorkerID, &task.RetryCount, &task.MaxRetries, &task.ErrorMessage,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}
