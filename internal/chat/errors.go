package chat

import "errors"

var (
	ErrEmptyBody       = errors.New("message body is empty")
	ErrNotImage        = errors.New("media is not an image")
	ErrNotSender       = errors.New("only the sender can change this message")
	ErrDeleted         = errors.New("message was deleted")
	ErrNotFound        = errors.New("message not found")
	ErrNoConversation  = errors.New("no conversation is open")
	ErrOwnReceipt      = errors.New("senders cannot mark their own messages")
	ErrInvalidReaction = errors.New("invalid reaction")
)
