package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/domain/chat"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/internal/domain/specialty"
	"github.com/medbook/medbook-api/internal/service"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Success: false, Message: message})
}

// respondServiceError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "validation failed",
			Errors:  validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, doctor.ErrDoctorNotFound),
		errors.Is(err, specialty.ErrSpecialtyNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrSlotNotFound),
		errors.Is(err, chat.ErrSessionNotFound),
		errors.Is(err, chat.ErrMessageNotFound):
		respondError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, domain.ErrEmailAlreadyUsed),
		errors.Is(err, doctor.ErrLicenseAlreadyUsed),
		errors.Is(err, doctor.ErrDoctorNotBookable),
		errors.Is(err, specialty.ErrSpecialtyExists),
		errors.Is(err, specialty.ErrSpecialtyInUse),
		errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrSlotConflict),
		errors.Is(err, booking.ErrAlreadyCancelled),
		errors.Is(err, booking.ErrAlreadyCompleted),
		errors.Is(err, booking.ErrInvalidStatusTransition),
		errors.Is(err, chat.ErrSessionNotActive),
		errors.Is(err, chat.ErrSessionEnded):
		respondError(c, http.StatusConflict, err.Error())

	case errors.Is(err, doctor.ErrInvalidFee),
		errors.Is(err, doctor.ErrInvalidExperience),
		errors.Is(err, doctor.ErrLicenseRequired),
		errors.Is(err, doctor.ErrSpecialtyRequired),
		errors.Is(err, specialty.ErrNameRequired),
		errors.Is(err, booking.ErrInvalidConsultationType),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, booking.ErrAppointmentInPast),
		errors.Is(err, booking.ErrInvalidSlotWindow),
		errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrInvalidMessageType),
		errors.Is(err, service.ErrWrongPassword):
		respondError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid credentials")

	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, chat.ErrNotParticipant),
		errors.Is(err, chat.ErrNotMessageSender):
		respondError(c, http.StatusForbidden, "access denied")

	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func pagination(c *gin.Context) (page, pageSize int) {
	return parseQueryInt(c, "page", 1), parseQueryInt(c, "page_size", 20)
}
