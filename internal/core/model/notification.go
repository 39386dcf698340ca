package model

// NotificationID identifies a notification slot. Raising a notification
// with an ID that is already shown replaces it.
type NotificationID string

const (
	NotificationFocus NotificationID = "focus"
	NotificationRest  NotificationID = "rest"
	NotificationFree  NotificationID = "free"
)

// Notification is a user-facing alert raised when a phase completes.
type Notification struct {
	ID         NotificationID
	Title      string
	Body       string
	Icon       string
	Persistent bool
}

// CompletionNotification returns the alert raised when phase completes.
func CompletionNotification(phase Phase) (Notification, bool) {
	switch phase {
	case PhaseFocusing:
		return Notification{
			ID:         NotificationFocus,
			Title:      "Focus finished",
			Body:       "Click to start rest.",
			Icon:       "notification.png",
			Persistent: true,
		}, true
	case PhaseResting:
		return Notification{
			ID:         NotificationRest,
			Title:      "The rest is over",
			Body:       "Click to return to focus.",
			Icon:       "notification.png",
			Persistent: true,
		}, true
	case PhaseFreeTime:
		return Notification{
			ID:         NotificationFree,
			Title:      "Free time is over",
			Body:       "Click to return to focus.",
			Icon:       "notification.png",
			Persistent: true,
		}, true
	}
	return Notification{}, false
}

// AcknowledgeTarget returns the phase requested when the user acknowledges
// the notification.
func AcknowledgeTarget(id NotificationID) (Phase, bool) {
	switch id {
	case NotificationFocus:
		return PhaseResting, true
	case NotificationRest, NotificationFree:
		return PhaseFocusing, true
	}
	return "", false
}
