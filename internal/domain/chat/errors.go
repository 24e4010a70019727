package chat

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotActive   = errors.New("cannot send message to inactive session")
	ErrSessionEnded       = errors.New("session is already ended")
	ErrNotParticipant     = errors.New("user is not part of this session")
	ErrMessageNotFound    = errors.New("message not found")
	ErrNotMessageSender   = errors.New("only the sender can delete a message")
	ErrEmptyContent       = errors.New("message content is required")
	ErrInvalidMessageType = errors.New("invalid message type")
)
