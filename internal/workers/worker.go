package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kosarica/quote-service/internal/taskqueue"
)

// Handler processes one task payload.
type Handler func(ctx context.Context, payload []byte) error

// Queue is the part of the task queue a worker needs.
type Queue interface {
	ClaimTasks(ctx context.Context, input taskqueue.ClaimTasksInput) ([]taskqueue.ClaimedTask, error)
	MarkProcessing(ctx context.Context, taskID string) error
	CompleteTask(ctx context.Context, taskID string, result any) error
	FailTask(ctx context.Context, taskID, errorMessage string, shouldRetry bool) error
}

type WorkerConfig struct {
	WorkerID   string        `mapstructure:"id"`
	TaskTypes  []string      `mapstructure:"task_types"`
	MaxTasks   int           `mapstructure:"max_tasks"`
	NumWorkers int           `mapstructure:"num_workers"`
	PollDelay  time.Duration `mapstructure:"poll_delay"`
}

// DefaultWorkerConfig returns the defaults used by the server
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerID:   "quote-worker",
		TaskTypes:  []string{taskqueue.TaskTypeCRMSync, taskqueue.TaskTypeExpireSubmissions},
		MaxTasks:   5,
		NumWorkers: 2,
		PollDelay:  2 * time.Second,
	}
}

type Worker struct {
	queue    Queue
	config   WorkerConfig
	handlers map[string]Handler
	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(queue Queue, config WorkerConfig, logger zerolog.Logger) *Worker {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.MaxTasks < 1 {
		config.MaxTasks = 1
	}
	if config.PollDelay <= 0 {
		config.PollDelay = time.Second
	}
	return &Worker{
		queue:    queue,
		config:   config,
		handlers: make(map[string]Handler),
		logger:   logger.With().Str("component", "worker").Str("worker_id", config.WorkerID).Logger(),
		stopChan: make(chan struct{}),
	}
}

// RegisterHandler must be called before Start.
func (w *Worker) RegisterHandler(taskType string, handler Handler) {
	w.handlers[taskType] = handler
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().
		Strs("task_types", w.config.TaskTypes).
		Int("goroutines", w.config.NumWorkers).
		Msg("Starting worker")

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// Stop signals all loops and waits for in-flight tasks.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.logger.Info().Msg("Worker stopping, waiting for in-flight tasks")
	w.wg.Wait()
	w.logger.Info().Msg("Worker stopped")
}

func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()
	workerID := fmt.Sprintf("%s-%d", w.config.WorkerID, workerNum)
	logger := w.logger.With().Str("worker_id", workerID).Logger()
	logger.Debug().Msg("Starting worker goroutine")

	ticker := time.NewTicker(w.config.PollDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Worker shutting down")
			return
		case <-w.stopChan:
			logger.Debug().Msg("Worker received stop signal")
			return
		case <-ticker.C:
			w.processTasks(ctx, workerID, logger)
		}
	}
}

func (w *Worker) processTasks(ctx context.Context, workerID string, logger zerolog.Logger) {
	tasks, err := w.queue.ClaimTasks(ctx, taskqueue.ClaimTasksInput{
		WorkerID:  workerID,
		TaskTypes: w.config.TaskTypes,
		MaxTasks:  w.config.MaxTasks,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to claim tasks")
		return
	}
	if len(tasks) == 0 {
		return
	}

	logger.Info().Int("task_count", len(tasks)).Msg("Worker claimed tasks")
	for _, task := range tasks {
		w.processTask(ctx, task, logger)
	}
}

func (w *Worker) processTask(ctx context.Context, task taskqueue.ClaimedTask, logger zerolog.Logger) {
	logger = logger.With().Str("task_id", task.ID).Str("task_type", task.TaskType).Logger()

	handler, exists := w.handlers[task.TaskType]
	if !exists {
		logger.Warn().Msg("No handler for task type")
		w.fail(ctx, task.ID, "no handler registered", false, logger)
		return
	}

	if err := w.queue.MarkProcessing(ctx, task.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to mark task as processing")
		w.fail(ctx, task.ID, fmt.Sprintf("status update failed: %v", err), true, logger)
		return
	}

	start := time.Now()
	if err := handler(ctx, task.Payload); err != nil {
		logger.Error().Err(err).Msg("Task failed")
		w.fail(ctx, task.ID, err.Error(), true, logger)
		return
	}

	if err := w.queue.CompleteTask(ctx, task.ID, nil); err != nil {
		logger.Error().Err(err).Msg("Failed to mark task as completed")
		return
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("Worker completed task")
}

func (w *Worker) fail(ctx context.Context, taskID, msg string, retry bool, logger zerolog.Logger) {
	if err := w.queue.FailTask(ctx, taskID, msg, retry); err != nil {
		logger.Error().Err(err).Msg("Failed to mark task as failed")
	}
}
