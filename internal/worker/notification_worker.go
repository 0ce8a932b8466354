package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/taskboard/internal/config"
	"github.com/spec-kit/taskboard/internal/notify"
	"github.com/spec-kit/taskboard/internal/observability"
)

// NotificationPool drains the notification queue with a fixed number of
// workers. Every job is delivered on its own; a failed job is retried with
// exponential backoff and then dropped without affecting any other job.
type NotificationPool struct {
	queue       notify.Queue
	sender      notify.Sender
	logger      *zap.Logger
	metrics     *observability.Metrics
	workers     int
	maxAttempts int
	backoff     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotificationPool builds a pool; call Start to launch it.
func NewNotificationPool(cfg config.NotificationConfig, queue notify.Queue, sender notify.Sender, logger *zap.Logger, metrics *observability.Metrics) *NotificationPool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &NotificationPool{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		metrics:     metrics,
		workers:     workers,
		maxAttempts: attempts,
		backoff:     cfg.RetryBackoff,
	}
}

// Start launches the workers. They run until Stop or until ctx is cancelled.
func (p *NotificationPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.logger.Info("notification workers started", zap.Int("workers", p.workers))
}

// Stop closes the queue, lets workers drain what is already buffered until
// ctx expires, then cancels them and waits.
func (p *NotificationPool) Stop(ctx context.Context) {
	_ = p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("notification drain timed out")
		if p.cancel != nil {
			p.cancel()
		}
		<-done
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("notification workers stopped")
}

func (p *NotificationPool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.With(zap.Int("worker", id))

	for {
		job, err := p.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, notify.ErrQueueClosed) {
				return
			}
			log.Error("pop notification job", zap.Error(err))
			if !sleep(ctx, p.backoff) {
				return
			}
			continue
		}
		p.Deliver(ctx, job)
	}
}

// Deliver sends one job, retrying up to the configured attempts.
func (p *NotificationPool) Deliver(ctx context.Context, job notify.Job) {
	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("ticket_id", job.TicketID),
		zap.String("chat_id", job.Chat.ChatID),
		zap.String("audience", string(job.Audience)),
	}

	for attempt := job.Attempt + 1; attempt <= p.maxAttempts; attempt++ {
		ack, err := p.sender.Dispatch(ctx, job.Chat, job.Text)
		if err == nil {
			if ack.Skipped {
				p.metrics.RecordDelivery(observability.DeliverySkipped)
				return
			}
			p.metrics.RecordDelivery(observability.DeliverySent)
			p.logger.Debug("notification delivered", append(fields, zap.Int("attempt", attempt))...)
			return
		}

		if attempt == p.maxAttempts {
			p.metrics.RecordDelivery(observability.DeliveryFailed)
			p.logger.Error("notification delivery failed", append(fields, zap.Int("attempt", attempt), zap.Error(err))...)
			return
		}

		p.metrics.RecordDelivery(observability.DeliveryRetried)
		p.logger.Warn("notification delivery retry", append(fields, zap.Int("attempt", attempt), zap.Error(err))...)
		if !sleep(ctx, p.backoff<<(attempt-1)) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
