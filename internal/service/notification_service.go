package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketApproved, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketRejected, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventActivityCreated, n.handleActivityEvent)
	n.dispatcher.Subscribe(events.EventActivityStatusChanged, n.handleActivityEvent)
	n.dispatcher.Subscribe(events.EventActivityAssigned, n.handleActivityEvent)
	n.dispatcher.Subscribe(events.EventPreventiveGenerated, n.handleActivityEvent)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleActivityEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("activity event",
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
