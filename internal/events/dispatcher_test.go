package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventMessageSent, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.SubjectID)
		return errors.New("webhook down")
	})
	d.Subscribe(EventMessageSent, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventUserBanned, func(context.Context, Event) error {
		calls = append(calls, "banned")
		return nil
	})

	err := d.Publish(context.Background(), New(EventMessageSent, "u-1", "m-1", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook down")
	assert.Equal(t, []string{"first:m-1", "second:m-1"}, calls)
}

func TestNewStampsEvent(t *testing.T) {
	e := New(EventAnnouncementPosted, "admin", "a-1", AnnouncementPayload{Title: "Hi"})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "admin", e.ActorID)

	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), e))
}
