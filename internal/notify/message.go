package notify

import (
	"context"
	"errors"

	"github.com/oshokin/tag-guard/internal/domain/proximity"
)

// ErrDisabled is returned by the Disabled sender.
var ErrDisabled = errors.New("push notifications are disabled")

// Message is a push notification.
type Message struct {
	// Title is the notification headline.
	Title string
	// Body is the notification text.
	Body string
	// Reason is the alert reason, also sent as a data field.
	Reason proximity.Reason
}

// Sender delivers one message. Implementations are called from a single worker.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Disabled is the sender used when push credentials are unavailable.
type Disabled struct{}

// Send always fails with ErrDisabled.
func (Disabled) Send(context.Context, Message) error {
	return ErrDisabled
}

// MessageFor returns the notification text for reason.
func MessageFor(reason proximity.Reason) Message {
	switch reason {
	case proximity.ReasonSignalLost:
		return Message{
			Title:  "Emergency: tag signal lost",
			Body:   "The child's tag is no longer detected. Check their location now!",
			Reason: reason,
		}
	case proximity.ReasonDistanceWeak:
		return Message{
			Title:  "Emergency: child out of range",
			Body:   "The child has left the safe zone. Check their location now!",
			Reason: reason,
		}
	default:
		return Message{
			Title:  "Emergency",
			Body:   "The tag monitor raised an alert.",
			Reason: reason,
		}
	}
}
