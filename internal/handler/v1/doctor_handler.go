package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/internal/middleware"
	"github.com/medbook/medbook-api/internal/service"
	"github.com/medbook/medbook-api/pkg/metrics"
)

type DoctorHandler struct {
	svc       *service.DoctorService
	collector *metrics.Collector
}

func NewDoctorHandler(svc *service.DoctorService, collector *metrics.Collector) *DoctorHandler {
	return &DoctorHandler{svc: svc, collector: collector}
}

type registerDoctorRequest struct {
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	Phone                string `json:"phone"`
	LicenseNumber        string `json:"license_number" binding:"required"`
	Specialty            string `json:"specialty" binding:"required"`
	ExperienceYears      int    `json:"experience_years"`
	Education            string `json:"education"`
	Bio                  string `json:"bio"`
	ImageURL             string `json:"image_url"`
	ConsultationFeeCents int64  `json:"consultation_fee_cents"`
}

type doctorAuthResponse struct {
	Doctor *doctor.Doctor    `json:"doctor"`
	Tokens *domain.TokenPair `json:"tokens"`
}

func (h *DoctorHandler) Register(c *gin.Context) {
	var req registerDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, tokens, err := h.svc.Register(c.Request.Context(), &doctor.RegisterDoctorCommand{
		Email:                req.Email,
		Password:             req.Password,
		Name:                 req.Name,
		Phone:                req.Phone,
		LicenseNumber:        req.LicenseNumber,
		Specialty:            req.Specialty,
		ExperienceYears:      req.ExperienceYears,
		Education:            req.Education,
		Bio:                  req.Bio,
		ImageURL:             req.ImageURL,
		ConsultationFeeCents: req.ConsultationFeeCents,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.UsersRegisteredTotal.Inc()
	respondCreated(c, "doctor registered, pending verification", doctorAuthResponse{Doctor: d, Tokens: tokens})
}

// List is the public directory: available, verified doctors only.
func (h *DoctorHandler) List(c *gin.Context) {
	q := &doctor.ListDoctorsQuery{
		Specialty: c.Query("specialty"),
		Search:    c.Query("search"),
	}
	q.Page, q.PageSize = pagination(c)

	page, err := h.svc.ListDirectory(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", d)
}

// GetOwnProfile resolves the doctor record behind the authenticated account.
func (h *DoctorHandler) GetOwnProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	d, err := h.svc.GetProfileByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", d)
}

type updateDoctorRequest struct {
	Name                 *string `json:"name"`
	Phone                *string `json:"phone"`
	Specialty            *string `json:"specialty"`
	ExperienceYears      *int    `json:"experience_years"`
	Education            *string `json:"education"`
	Bio                  *string `json:"bio"`
	ImageURL             *string `json:"image_url"`
	ConsultationFeeCents *int64  `json:"consultation_fee_cents"`
	IsAvailable          *bool   `json:"is_available"`
}

func (h *DoctorHandler) UpdateOwnProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.GetProfileByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	updated, err := h.svc.UpdateProfile(c.Request.Context(), d.ID, &doctor.UpdateDoctorCommand{
		Name:                 req.Name,
		Phone:                req.Phone,
		Specialty:            req.Specialty,
		ExperienceYears:      req.ExperienceYears,
		Education:            req.Education,
		Bio:                  req.Bio,
		ImageURL:             req.ImageURL,
		ConsultationFeeCents: req.ConsultationFeeCents,
		IsAvailable:          req.IsAvailable,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "profile updated", updated)
}

type verifyDoctorRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// Verify toggles the admin verification flag on a doctor.
func (h *DoctorHandler) Verify(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req verifyDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.Verify(c.Request.Context(), id, *req.Verified, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "verification updated", d)
}

// Stats returns the authenticated doctor's booking and revenue aggregates.
func (h *DoctorHandler) Stats(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if claims.DoctorID == nil {
		respondServiceError(c, service.ErrForbidden)
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), *claims.DoctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", stats)
}
