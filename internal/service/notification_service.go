package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/taskboard/internal/config"
	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/events"
	"github.com/spec-kit/taskboard/internal/notify"
	"github.com/spec-kit/taskboard/internal/observability"
)

// NotificationService turns ticket events into queued delivery jobs.
type NotificationService struct {
	dispatcher events.Dispatcher
	composer   *notify.Composer
	queue      notify.Queue
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, composer *notify.Composer, queue notify.Queue, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		composer:   composer,
		queue:      queue,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to ticket events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || !n.cfg.Enabled {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handle)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handle)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	kind, details, actor, err := unpackEvent(event)
	if err != nil {
		return err
	}

	msgs := n.composer.Compose(notify.Event{Kind: kind, Details: details, Actor: actor})
	jobs := notify.Plan(kind, details, msgs, n.now())
	n.Enqueue(ctx, jobs)
	return nil
}

// Enqueue pushes every job independently; a rejected push is logged and
// counted and does not stop the others.
func (n *NotificationService) Enqueue(ctx context.Context, jobs []notify.Job) int {
	queued := 0
	for _, job := range jobs {
		if err := n.queue.Push(ctx, job); err != nil {
			n.metrics.RecordDelivery(observability.DeliveryDropped)
			n.logger.Warn("notification job dropped",
				zap.String("job_id", job.ID),
				zap.String("ticket_id", job.TicketID),
				zap.String("chat_id", job.Chat.ChatID),
				zap.Error(err),
			)
			continue
		}
		queued++
	}
	n.logger.Debug("notification jobs queued", zap.Int("queued", queued), zap.Int("planned", len(jobs)))
	return queued
}

func unpackEvent(event events.Event) (notify.Kind, domain.TicketDetails, *domain.User, error) {
	switch payload := event.Payload.(type) {
	case events.TicketPayload:
		kind := notify.KindUpdated
		if event.Type == events.EventTicketCreated {
			kind = notify.KindCreated
		}
		return kind, payload.Details, &payload.Actor, nil
	case events.TicketStatusChangedPayload:
		return notify.KindStatusChanged, payload.Details, &payload.Actor, nil
	default:
		return "", domain.TicketDetails{}, nil, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
}
