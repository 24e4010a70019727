package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medbook/medbook-api/internal/domain/specialty"
	"github.com/medbook/medbook-api/internal/middleware"
	"github.com/medbook/medbook-api/internal/service"
)

type SpecialtyHandler struct {
	svc *service.SpecialtyService
}

func NewSpecialtyHandler(svc *service.SpecialtyService) *SpecialtyHandler {
	return &SpecialtyHandler{svc: svc}
}

func (h *SpecialtyHandler) List(c *gin.Context) {
	specialties, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", specialties)
}

type specialtyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *SpecialtyHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req specialtyRequest
	if !bindJSON(c, &req) {
		return
	}

	sp, err := h.svc.Create(c.Request.Context(), req.Name, req.Description, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "specialty created", sp)
}

type updateSpecialtyRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *SpecialtyHandler) Update(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateSpecialtyRequest
	if !bindJSON(c, &req) {
		return
	}

	sp, err := h.svc.Update(c.Request.Context(), id, &specialty.UpdateSpecialtyCommand{
		Name:        req.Name,
		Description: req.Description,
	}, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "specialty updated", sp)
}

func (h *SpecialtyHandler) Delete(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, claims.UserID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "specialty deleted", nil)
}

// Stats lists every specialty with its doctor headcount.
func (h *SpecialtyHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", stats)
}
