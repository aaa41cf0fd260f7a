// Package notification delivers payment confirmations to customers in the background.
package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bowling-booking-backend/config"
)

// Confirmation is the payload sent when a booking is paid.
type Confirmation struct {
	UserID      int64   `json:"user_id"`
	Recipient   string  `json:"recipient"`
	FullName    string  `json:"full_name"`
	BookingID   int64   `json:"booking_id"`
	BookingDate string  `json:"booking_date"`
	LaneNumber  string  `json:"lane_number"`
	TotalPrice  float64 `json:"total_price"`
}

// Channel delivers a confirmation over one medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, c Confirmation) error
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size     int
	jobs     chan Confirmation
	channels []Channel
	log      *zap.Logger
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new worker pool delivering every job to each channel.
func NewWorkerPool(cfg config.WorkerPoolConfig, log *zap.Logger, channels ...Channel) *WorkerPool {
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 100
	}
	return &WorkerPool{
		size:     size,
		jobs:     make(chan Confirmation, queue),
		channels: channels,
		log:      log,
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case job := <-wp.jobs:
			wp.deliver(ctx, job)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a confirmation without blocking. It reports false and drops the job
// when the queue is full.
func (wp *WorkerPool) Dispatch(c Confirmation) bool {
	select {
	case wp.jobs <- c:
		return true
	default:
		wp.log.Warn("notification queue full, dropping confirmation",
			zap.Int64("booking_id", c.BookingID), zap.Int("queue_size", cap(wp.jobs)))
		return false
	}
}

// deliver sends c on every channel. A failing channel does not stop the others.
func (wp *WorkerPool) deliver(ctx context.Context, c Confirmation) {
	for _, ch := range wp.channels {
		if err := ch.Send(ctx, c); err != nil {
			wp.log.Error("notification channel failed",
				zap.String("channel", ch.Name()),
				zap.Int64("booking_id", c.BookingID),
				zap.Error(err))
			continue
		}
		wp.log.Info("confirmation sent",
			zap.String("channel", ch.Name()), zap.Int64("booking_id", c.BookingID))
	}
}
