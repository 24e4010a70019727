package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain/chat"
	"github.com/medbook/medbook-api/internal/middleware"
	"github.com/medbook/medbook-api/internal/service"
	"github.com/medbook/medbook-api/pkg/metrics"
)

type ChatHandler struct {
	svc       *service.ChatService
	collector *metrics.Collector
}

func NewChatHandler(svc *service.ChatService, collector *metrics.Collector) *ChatHandler {
	return &ChatHandler{svc: svc, collector: collector}
}

type createSessionRequest struct {
	PatientID uuid.UUID  `json:"patient_id" binding:"required"`
	DoctorID  uuid.UUID  `json:"doctor_id" binding:"required"`
	BookingID *uuid.UUID `json:"booking_id"`
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.CreateSession(c.Request.Context(), req.PatientID, req.DoctorID, req.BookingID, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "session created", session)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	session, err := h.svc.GetSession(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	page, pageSize := pagination(c)
	sessions, total, err := h.svc.ListSessions(c.Request.Context(), claims, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"sessions": sessions, "total": total, "page": page, "page_size": pageSize})
}

type sendMessageRequest struct {
	Content string           `json:"content" binding:"required"`
	Type    chat.MessageType `json:"type"`
}

// SendMessage appends to the session. The sender identity always comes from
// the token, never the body.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.SendMessage(c.Request.Context(), id, claims, req.Content, req.Type)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.MessagesSentTotal.Inc()
	respondCreated(c, "message sent", m)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	messages, err := h.svc.ListMessages(c.Request.Context(), id, claims, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", messages)
}

// MarkRead flags every message addressed to the caller in one update.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	updated, err := h.svc.MarkRead(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "messages marked read", gin.H{"updated": updated})
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"unread": count})
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "messageId")
	if !ok {
		return
	}

	if err := h.svc.DeleteMessage(c.Request.Context(), id, claims); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "message deleted", nil)
}

func (h *ChatHandler) EndSession(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	session, err := h.svc.EndSession(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "session ended", session)
}
