package notify

import (
	"context"

	"fyne.io/fyne/v2"

	"focus/internal/core/model"
)

// Desktop raises notifications through the running fyne application.
type Desktop struct {
	app fyne.App
}

// NewDesktop creates a desktop notifier for app.
func NewDesktop(app fyne.App) *Desktop {
	return &Desktop{app: app}
}

// Notify sends the notification to the operating system.
func (desktop *Desktop) Notify(_ context.Context, notification model.Notification) error {
	message := fyne.NewNotification(notification.Title, notification.Body)
	fyne.Do(func() {
		desktop.app.SendNotification(message)
	})
	return nil
}

// Dismiss is a no-op: fyne cannot withdraw a sent notification, the tray
// drops the pending entry instead.
func (desktop *Desktop) Dismiss(context.Context, model.NotificationID) error {
	return nil
}
