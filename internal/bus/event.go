package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the chat client.
const (
	MessagesChanged     = "message.snapshot"
	MessageWriteFailed  = "message.write_failed"
	TypingChanged       = "typing.status"
	FriendsChanged      = "friends.changed"
	PresenceChanged     = "presence.changed"
	ConfirmationNeeded  = "confirm.required"
	ConfirmationSettled = "confirm.settled"
	RestoreChoiceNeeded = "session.restore_choice"
)
