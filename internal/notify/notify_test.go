package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focus/internal/core/model"
)

type recordingSink struct {
	notified  []model.NotificationID
	dismissed []model.NotificationID
	err       error
}

func (sink *recordingSink) Notify(_ context.Context, notification model.Notification) error {
	sink.notified = append(sink.notified, notification.ID)
	return sink.err
}

func (sink *recordingSink) Dismiss(_ context.Context, id model.NotificationID) error {
	sink.dismissed = append(sink.dismissed, id)
	return nil
}

func focusNotification(t *testing.T) model.Notification {
	t.Helper()
	notification, ok := model.CompletionNotification(model.PhaseFocusing)
	require.True(t, ok)
	return notification
}

func TestMultiTracksPending(t *testing.T) {
	ctx := context.Background()
	first, second := &recordingSink{}, &recordingSink{}
	multi := NewMulti(zerolog.Nop(), first, second)

	var changes [][]model.Notification
	multi.OnChange(func(pending []model.Notification) { changes = append(changes, pending) })

	notification := focusNotification(t)
	require.NoError(t, multi.Notify(ctx, notification))
	require.NoError(t, multi.Notify(ctx, notification))
	assert.Len(t, multi.Pending(), 1)
	assert.Equal(t, []model.NotificationID{model.NotificationFocus, model.NotificationFocus}, first.notified)
	assert.Equal(t, first.notified, second.notified)

	require.NoError(t, multi.Dismiss(ctx, model.NotificationFocus))
	assert.Empty(t, multi.Pending())
	assert.Equal(t, []model.NotificationID{model.NotificationFocus}, second.dismissed)
	require.Len(t, changes, 3)
	assert.Empty(t, changes[2])
}

func TestMultiAttemptsEverySink(t *testing.T) {
	broken := &recordingSink{err: errors.New("no daemon")}
	working := &recordingSink{}
	multi := NewMulti(zerolog.Nop(), broken, working)

	err := multi.Notify(context.Background(), focusNotification(t))
	require.Error(t, err)
	assert.Len(t, working.notified, 1)
	assert.Len(t, multi.Pending(), 1)
}

func TestTerminalNotify(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })

	tests := []struct {
		name string
		bell bool
		want string
	}{
		{name: "with bell", bell: true, want: "\aFocus finished  Click to start rest.\n"},
		{name: "silent", bell: false, want: "Focus finished  Click to start rest.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			terminal := NewTerminalWithWriter(tt.bell, &buf)
			require.NoError(t, terminal.Notify(context.Background(), focusNotification(t)))
			assert.Equal(t, tt.want, buf.String())
			require.NoError(t, terminal.Dismiss(context.Background(), model.NotificationFocus))
		})
	}
}
