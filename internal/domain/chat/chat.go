package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/doctor"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Session is a consultation thread between a patient and a doctor, optionally
// tied to a booking.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PatientID uuid.UUID    `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	Patient   *domain.User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`

	DoctorID uuid.UUID      `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`
	Doctor   *doctor.Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`

	BookingID *uuid.UUID `gorm:"column:booking_id;type:uuid;index" json:"booking_id,omitempty"`

	Status  SessionStatus `gorm:"column:status;type:varchar(10);not null;default:'active';index" json:"status"`
	EndedAt *time.Time    `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

func (Session) TableName() string {
	return "chat_sessions"
}

// HasParticipant reports whether the given user is one of the session's two
// parties. The doctor side is identified by the doctor's owning user account,
// so the Doctor relation must be loaded.
func (s *Session) HasParticipant(userID uuid.UUID) bool {
	if s.PatientID == userID {
		return true
	}
	return s.Doctor != nil && s.Doctor.UserID == userID
}

type MessageType string

const (
	MessageText         MessageType = "text"
	MessageImage        MessageType = "image"
	MessageFile         MessageType = "file"
	MessagePrescription MessageType = "prescription"
)

func (t MessageType) IsValid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessagePrescription:
		return true
	}
	return false
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	SessionID uuid.UUID `gorm:"column:session_id;type:uuid;not null;index" json:"session_id"`

	SenderID uuid.UUID    `gorm:"column:sender_id;type:uuid;not null;index" json:"sender_id"`
	Sender   *domain.User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Content string      `gorm:"column:content;type:text;not null" json:"content"`
	Type    MessageType `gorm:"column:type;type:varchar(20);not null;default:'text'" json:"type"`
	IsRead  bool        `gorm:"column:is_read;default:false;index" json:"is_read"`
}

func (Message) TableName() string {
	return "chat_messages"
}

type ListMessagesQuery struct {
	SessionID uuid.UUID
	Page      int
	PageSize  int
}

type PagedMessages struct {
	Messages   []*Message `json:"messages"`
	TotalCount int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
