package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/middleware"
	"github.com/medbook/medbook-api/internal/service"
	"github.com/medbook/medbook-api/pkg/metrics"
)

type UserHandler struct {
	svc       *service.UserService
	collector *metrics.Collector
}

func NewUserHandler(svc *service.UserService, collector *metrics.Collector) *UserHandler {
	return &UserHandler{svc: svc, collector: collector}
}

type registerRequest struct {
	Email       string        `json:"email" binding:"required,email"`
	Password    string        `json:"password" binding:"required"`
	Name        string        `json:"name" binding:"required"`
	Phone       string        `json:"phone"`
	DateOfBirth *time.Time    `json:"date_of_birth"`
	Gender      domain.Gender `json:"gender"`
	Address     string        `json:"address"`
}

type authResponse struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := h.svc.Register(c.Request.Context(), &service.RegisterUserCommand{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.UsersRegisteredTotal.Inc()
	respondCreated(c, "account created", authResponse{User: user, Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "login successful", authResponse{User: user, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "token refreshed", tokens)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.svc.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", user)
}

type updateProfileRequest struct {
	Name        *string        `json:"name"`
	Phone       *string        `json:"phone"`
	DateOfBirth *time.Time     `json:"date_of_birth"`
	Gender      *domain.Gender `json:"gender"`
	Address     *string        `json:"address"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), claims.UserID, &domain.UpdateUserCommand{
		Name:        req.Name,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "profile updated", user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "password changed", nil)
}

// Deactivate closes the caller's own account.
func (h *UserHandler) Deactivate(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), claims.UserID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "account deactivated", nil)
}

// ListUsers is admin-only; role gating happens in the router.
func (h *UserHandler) ListUsers(c *gin.Context) {
	q := &domain.ListUsersQuery{}
	q.Page, q.PageSize = pagination(c)
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		q.Role = &role
	}

	page, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}
