package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

type WorkerPool struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	isClosing atomic.Bool // thread-safe value
	closeOnce sync.Once
	logger    *slog.Logger
}

func NewWorkerPool(size, queueSize int, logger *slog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	wp := &WorkerPool{
		taskQueue: make(chan Task, queueSize),
		logger:    logger,
	}

	// Start the workers
	for range size {
		wp.wg.Add(1) // add to WaitGroup
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done() // signal when worker finished
	for task := range wp.taskQueue {
		// tasks outlive the request that queued them
		if err := task(context.Background()); err != nil {
			wp.logger.Warn("worker task failed", slog.Any("err", err))
		}
	}
}

// Submit queues t without blocking. It reports false when the task was
// dropped because the pool is shutting down or the queue is full.
func (wp *WorkerPool) Submit(t Task) (queued bool) {
	if wp.isClosing.Load() {
		wp.logger.Warn("task submitted during shutdown, dropping")
		return false
	}
	// Shutdown may close the queue between the check above and the send
	defer func() {
		if recover() != nil {
			queued = false
		}
	}()
	select {
	case wp.taskQueue <- t: // send task to worker pool
		return true
	default:
		wp.logger.Warn("task queue full, dropping task")
		return false
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	wp.closeOnce.Do(func() {
		wp.isClosing.Store(true)
		close(wp.taskQueue) // Stop accepting new tasks
	})
	wp.wg.Wait() // Wait for all active workers to finish tasks
}
