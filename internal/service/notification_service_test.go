package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/events"
)

func TestDeliverPostsEventJSON(t *testing.T) {
	var got struct {
		From  string `json:"from"`
		Event struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"event"`
	}
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewNotificationService(nil, nil, config.NotificationConfig{EmailFrom: "noreply@skillswap.test", WebhookURL: srv.URL})
	event := events.New(events.EventUserBanned, "admin", "u1", events.UserBannedPayload{Email: "u1@example.com"})

	require.NoError(t, svc.Deliver(context.Background(), event))
	assert.Equal(t, "noreply@skillswap.test", got.From)
	assert.Equal(t, event.ID, got.Event.ID)
	assert.Equal(t, "user_banned", got.Event.Type)
	assert.Equal(t, "user_banned", header.Get("X-Event-Type"))
}

func TestDeliverReportsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewNotificationService(nil, nil, config.NotificationConfig{WebhookURL: srv.URL})
	err := svc.Deliver(context.Background(), events.New(events.EventMessageSent, "a", "m1", nil))
	assert.ErrorContains(t, err, "webhook returned 500")
}

func TestRegisterHandlersEnqueuesEveryEventType(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: "http://hooks.test"})

	var queued []events.EventType
	svc.RegisterHandlers(func(e events.Event) error {
		queued = append(queued, e.Type)
		return nil
	})

	for _, eventType := range events.AllEventTypes {
		require.NoError(t, dispatcher.Publish(context.Background(), events.New(eventType, "a", "b", nil)))
	}
	assert.Equal(t, events.AllEventTypes, queued)
}

func TestRegisterHandlersOnlyLogsWithoutWebhook(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, nil, config.NotificationConfig{})

	called := false
	svc.RegisterHandlers(func(events.Event) error {
		called = true
		return nil
	})
	require.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventPasswordResetRequested, "u", "u", events.AccountTokenPayload{Token: "t"})))
	assert.False(t, called)
	assert.NoError(t, svc.Deliver(context.Background(), events.New(events.EventMessageSent, "a", "b", nil)))
}
