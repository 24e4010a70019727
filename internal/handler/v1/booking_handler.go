package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/middleware"
	"github.com/medbook/medbook-api/internal/service"
	"github.com/medbook/medbook-api/pkg/metrics"
)

type BookingHandler struct {
	svc       *service.BookingService
	collector *metrics.Collector
}

func NewBookingHandler(svc *service.BookingService, collector *metrics.Collector) *BookingHandler {
	return &BookingHandler{svc: svc, collector: collector}
}

// scopeFor translates the caller's claims into a booking visibility scope.
func scopeFor(claims *domain.Claims) booking.Scope {
	scope := booking.Scope{Role: claims.Role}
	switch claims.Role {
	case domain.RolePatient:
		scope.PatientID = claims.UserID
	case domain.RoleDoctor:
		scope.DoctorID = claims.DoctorID
	}
	return scope
}

type createBookingRequest struct {
	DoctorID         uuid.UUID                `json:"doctor_id" binding:"required"`
	SlotID           *uuid.UUID               `json:"slot_id"`
	AppointmentAt    time.Time                `json:"appointment_at" binding:"required"`
	ConsultationType booking.ConsultationType `json:"consultation_type" binding:"required"`
	Symptoms         string                   `json:"symptoms"`
	Notes            string                   `json:"notes"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.svc.Create(c.Request.Context(), &booking.CreateBookingCommand{
		PatientID:        claims.UserID,
		DoctorID:         req.DoctorID,
		SlotID:           req.SlotID,
		AppointmentAt:    req.AppointmentAt,
		ConsultationType: req.ConsultationType,
		Symptoms:         req.Symptoms,
		Notes:            req.Notes,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.BookingsTotal.WithLabelValues(string(booking.StatusPending)).Inc()
	respondCreated(c, "booking created", b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.svc.Get(c.Request.Context(), id, scopeFor(claims))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", b)
}

type updateBookingRequest struct {
	Status       *booking.Status `json:"status"`
	Symptoms     *string         `json:"symptoms"`
	Notes        *string         `json:"notes"`
	Prescription *string         `json:"prescription"`
}

func (h *BookingHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.svc.Update(c.Request.Context(), id, &booking.UpdateBookingCommand{
		Status:       req.Status,
		Symptoms:     req.Symptoms,
		Notes:        req.Notes,
		Prescription: req.Prescription,
	}, scopeFor(claims), claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if req.Status != nil {
		h.collector.BookingsTotal.WithLabelValues(string(*req.Status)).Inc()
	}
	respondOK(c, "booking updated", b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.svc.Cancel(c.Request.Context(), id, scopeFor(claims), claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.BookingsTotal.WithLabelValues(string(booking.StatusCancelled)).Inc()
	respondOK(c, "booking cancelled", b)
}

func (h *BookingHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	q := &booking.ListBookingsQuery{Scope: scopeFor(claims)}
	q.Page, q.PageSize = pagination(c)
	if raw := c.Query("status"); raw != "" {
		status := booking.Status(raw)
		q.Status = &status
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}

// Stats aggregates booking counts by status within the caller's scope.
func (h *BookingHandler) Stats(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), scopeFor(claims))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", stats)
}

type createSlotRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// CreateSlot publishes a bookable window for the authenticated doctor.
func (h *BookingHandler) CreateSlot(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if claims.DoctorID == nil {
		respondServiceError(c, service.ErrForbidden)
		return
	}

	var req createSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.svc.CreateSlot(c.Request.Context(), &booking.CreateSlotCommand{
		DoctorID:  *claims.DoctorID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.SlotsCreatedTotal.Inc()
	respondCreated(c, "slot created", slot)
}

// ListOwnSlots returns all of the authenticated doctor's upcoming slots,
// including ones already taken.
func (h *BookingHandler) ListOwnSlots(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if claims.DoctorID == nil {
		respondServiceError(c, service.ErrForbidden)
		return
	}

	slots, err := h.svc.ListSlots(c.Request.Context(), *claims.DoctorID, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", slots)
}

// ListSlots returns a doctor's upcoming open slots. Public endpoint used by
// the booking flow.
func (h *BookingHandler) ListSlots(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	slots, err := h.svc.ListSlots(c.Request.Context(), doctorID, c.DefaultQuery("available", "true") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", slots)
}
