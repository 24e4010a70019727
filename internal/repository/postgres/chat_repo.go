package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medbook/medbook-api/internal/domain/chat"
)

type ChatRepo struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) CreateSession(ctx context.Context, s *chat.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *ChatRepo) GetSession(ctx context.Context, id uuid.UUID) (*chat.Session, error) {
	var s chat.Session
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		Preload("Doctor.User").
		First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &s, nil
}

func (r *ChatRepo) EndSession(ctx context.Context, s *chat.Session) error {
	err := r.db.WithContext(ctx).Model(&chat.Session{}).Where("id = ?", s.ID).
		Updates(map[string]any{
			"status":   chat.SessionEnded,
			"ended_at": s.EndedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return nil
}

func (r *ChatRepo) ListSessionsByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*chat.Session, int64, error) {
	tx := r.db.WithContext(ctx).Model(&chat.Session{}).
		Joins("JOIN doctors ON doctors.id = chat_sessions.doctor_id").
		Where("chat_sessions.patient_id = ? OR doctors.user_id = ?", userID, userID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting sessions: %w", err)
	}

	var sessions []*chat.Session
	err := tx.Preload("Patient").
		Preload("Doctor").
		Preload("Doctor.User").
		Order("chat_sessions.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, total, nil
}

func (r *ChatRepo) CreateMessage(ctx context.Context, m *chat.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (r *ChatRepo) GetMessage(ctx context.Context, id uuid.UUID) (*chat.Message, error) {
	var m chat.Message
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, chat.ErrMessageNotFound
		}
		return nil, fmt.Errorf("querying message: %w", err)
	}
	return &m, nil
}

func (r *ChatRepo) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&chat.Message{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return chat.ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepo) ListMessages(ctx context.Context, q *chat.ListMessagesQuery) (*chat.PagedMessages, error) {
	tx := r.db.WithContext(ctx).Model(&chat.Message{}).
		Where("session_id = ?", q.SessionID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	var messages []*chat.Message
	err := tx.Preload("Sender").
		Order("created_at ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	return &chat.PagedMessages{
		Messages:   messages,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *ChatRepo) MarkRead(ctx context.Context, sessionID, readerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&chat.Message{}).
		Where("session_id = ? AND sender_id <> ? AND NOT is_read", sessionID, readerID).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("marking messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *ChatRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&chat.Message{}).
		Joins("JOIN chat_sessions ON chat_sessions.id = chat_messages.session_id").
		Joins("JOIN doctors ON doctors.id = chat_sessions.doctor_id").
		Where("chat_sessions.status = ?", chat.SessionActive).
		Where("chat_sessions.patient_id = ? OR doctors.user_id = ?", userID, userID).
		Where("chat_messages.sender_id <> ? AND NOT chat_messages.is_read", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return count, nil
}
