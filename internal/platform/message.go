package platform

import (
	"errors"

	"focus/internal/core/model"
)

// Control message types.
const (
	MessageChangeState         = "changeState"
	MessageClear               = "clear"
	MessageUpdateConfig        = "update-config"
	MessageNotificationClicked = "notification-clicked"
	MessageToggle              = "toggle"
	MessageStatus              = "status"
)

// Message is one control message on the wire.
type Message struct {
	Type           string        `json:"type"`
	Phase          string        `json:"phase,omitempty"`
	Config         *model.Config `json:"config,omitempty"`
	NotificationID string        `json:"notificationId,omitempty"`
}

// Reply answers a Message.
type Reply struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

// Success is a reply carrying an optional snapshot.
func Success(snapshot *model.Snapshot) Reply {
	return Reply{OK: true, Snapshot: snapshot}
}

// Failure is a reply describing err.
func Failure(err error) Reply {
	return Reply{Error: err.Error()}
}

// Err returns the reply's error, if any.
func (reply Reply) Err() error {
	if reply.OK {
		return nil
	}
	if reply.Error == "" {
		return errors.New("request failed")
	}
	return errors.New(reply.Error)
}
