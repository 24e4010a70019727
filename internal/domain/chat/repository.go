package chat

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSession(ctx context.Context, s *Session) error

	// GetSession loads the session with its doctor relation (needed for
	// participant checks against the doctor's owning user).
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)

	EndSession(ctx context.Context, s *Session) error

	// ListSessionsByUser returns sessions where the user participates on
	// either side, newest first.
	ListSessionsByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*Session, int64, error)

	CreateMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error

	// ListMessages returns a session's messages oldest first.
	ListMessages(ctx context.Context, q *ListMessagesQuery) (*PagedMessages, error)

	// MarkRead flips the read flag on every unread message in the session not
	// sent by the reader. One bulk update.
	MarkRead(ctx context.Context, sessionID, readerID uuid.UUID) (int64, error)

	// UnreadCount counts unread messages across all active sessions where the
	// user participates, excluding the user's own messages.
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}
