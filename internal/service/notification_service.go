package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/events"
)

// NotificationService turns domain events into outbound notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     orNop(logger),
		cfg:        cfg,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// WebhookEnabled reports whether events are forwarded to a webhook.
func (n *NotificationService) WebhookEnabled() bool {
	return strings.TrimSpace(n.cfg.WebhookURL) != ""
}

// RegisterHandlers subscribes to every event type. Each event is logged and
// then handed to enqueue for delivery; a nil enqueue only logs.
func (n *NotificationService) RegisterHandlers(enqueue func(events.Event) error) {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			n.logEvent(event)
			if enqueue == nil || !n.WebhookEnabled() {
				return nil
			}
			return enqueue(event)
		})
	}
}

func (n *NotificationService) logEvent(event events.Event) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Type)),
		zap.String("actor_id", event.ActorID),
		zap.String("subject_id", event.SubjectID),
	}
	switch p := event.Payload.(type) {
	case events.AccountTokenPayload:
		// tokens stay out of the logs
		n.logger.Info("account token issued", append(fields,
			zap.String("email", p.Email),
			zap.String("purpose", string(p.Purpose)),
			zap.Time("expires_at", p.ExpiresAt))...)
	default:
		n.logger.Info("domain event", append(fields, zap.Any("payload", event.Payload))...)
	}
}

type webhookEnvelope struct {
	From  string       `json:"from,omitempty"`
	Event events.Event `json:"event"`
}

// Deliver posts the event as JSON to the configured webhook.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) error {
	if !n.WebhookEnabled() {
		return nil
	}
	body, err := json.Marshal(webhookEnvelope{From: n.cfg.EmailFrom, Event: event})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(event.Type))
	req.Header.Set("X-Event-ID", event.ID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver event %s: %w", event.ID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver event %s: webhook returned %d", event.ID, resp.StatusCode)
	}
	n.logger.Debug("event delivered", zap.String("event_id", event.ID), zap.String("event", string(event.Type)))
	return nil
}
