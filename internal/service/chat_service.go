package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/chat"
	"github.com/medbook/medbook-api/internal/domain/doctor"
)

type ChatService struct {
	repo       chat.Repository
	userRepo   UserRepository
	doctorRepo doctor.Repository
	log        *zap.Logger
}

func NewChatService(repo chat.Repository, userRepo UserRepository, doctorRepo doctor.Repository, log *zap.Logger) *ChatService {
	return &ChatService{repo: repo, userRepo: userRepo, doctorRepo: doctorRepo, log: log}
}

// CreateSession opens a consultation thread. The caller must be one of the
// two participants; identity comes from the authenticated claims, never the
// payload.
func (s *ChatService) CreateSession(ctx context.Context, patientID, doctorID uuid.UUID, bookingID *uuid.UUID, caller *domain.Claims) (*chat.Session, error) {
	patient, err := s.userRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	d, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if caller.UserID != patient.ID && caller.UserID != d.UserID {
		return nil, chat.ErrNotParticipant
	}

	session := &chat.Session{
		PatientID: patientID,
		DoctorID:  doctorID,
		BookingID: bookingID,
		Status:    chat.SessionActive,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	session.Patient = patient
	session.Doctor = d

	s.log.Info("chat session created",
		zap.String("session_id", session.ID.String()),
		zap.String("doctor_id", doctorID.String()),
	)
	return session, nil
}

func (s *ChatService) GetSession(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*chat.Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && !session.HasParticipant(caller.UserID) {
		// Outsiders cannot learn whether the session exists.
		return nil, chat.ErrSessionNotFound
	}
	return session, nil
}

func (s *ChatService) ListSessions(ctx context.Context, caller *domain.Claims, page, pageSize int) ([]*chat.Session, int64, error) {
	normalizePage(&page, &pageSize)
	return s.repo.ListSessionsByUser(ctx, caller.UserID, page, pageSize)
}

// SendMessage appends to an active session. The sender is always the caller.
func (s *ChatService) SendMessage(ctx context.Context, sessionID uuid.UUID, caller *domain.Claims, content string, msgType chat.MessageType) (*chat.Message, error) {
	if content == "" {
		return nil, chat.ErrEmptyContent
	}
	if msgType == "" {
		msgType = chat.MessageText
	}
	if !msgType.IsValid() {
		return nil, chat.ErrInvalidMessageType
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasParticipant(caller.UserID) {
		return nil, chat.ErrNotParticipant
	}
	if session.Status != chat.SessionActive {
		return nil, chat.ErrSessionNotActive
	}

	m := &chat.Message{
		SessionID: sessionID,
		SenderID:  caller.UserID,
		Content:   content,
		Type:      msgType,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *ChatService) ListMessages(ctx context.Context, sessionID uuid.UUID, caller *domain.Claims, page, pageSize int) (*chat.PagedMessages, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && !session.HasParticipant(caller.UserID) {
		return nil, chat.ErrSessionNotFound
	}

	normalizePage(&page, &pageSize)
	return s.repo.ListMessages(ctx, &chat.ListMessagesQuery{
		SessionID: sessionID,
		Page:      page,
		PageSize:  pageSize,
	})
}

// MarkRead flips the read flag on every message in the session that the
// caller did not send. One bulk update.
func (s *ChatService) MarkRead(ctx context.Context, sessionID uuid.UUID, caller *domain.Claims) (int64, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if !session.HasParticipant(caller.UserID) {
		return 0, chat.ErrNotParticipant
	}
	return s.repo.MarkRead(ctx, sessionID, caller.UserID)
}

// UnreadCount counts unread messages addressed to the caller across all of
// their active sessions.
func (s *ChatService) UnreadCount(ctx context.Context, caller *domain.Claims) (int64, error) {
	return s.repo.UnreadCount(ctx, caller.UserID)
}

// DeleteMessage removes a message; only its sender may do so.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID uuid.UUID, caller *domain.Claims) error {
	m, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m.SenderID != caller.UserID {
		return chat.ErrNotMessageSender
	}
	return s.repo.DeleteMessage(ctx, messageID)
}

// EndSession closes the thread and records the end timestamp.
func (s *ChatService) EndSession(ctx context.Context, sessionID uuid.UUID, caller *domain.Claims) (*chat.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin && !session.HasParticipant(caller.UserID) {
		return nil, chat.ErrSessionNotFound
	}
	if session.Status == chat.SessionEnded {
		return nil, chat.ErrSessionEnded
	}

	now := time.Now()
	session.Status = chat.SessionEnded
	session.EndedAt = &now
	if err := s.repo.EndSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
