package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/pkg/auth"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, cmd *domain.UpdateUserCommand) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *domain.ListUsersQuery) (*domain.PagedUsers, error)
}

type RegisterUserCommand struct {
	Email       string
	Password    string
	Name        string
	Phone       string
	DateOfBirth *time.Time
	Gender      domain.Gender
	Address     string
}

type UserService struct {
	repo       UserRepository
	doctorRepo doctor.Repository
	jwtManager *auth.JWTManager
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewUserService(repo UserRepository, doctorRepo doctor.Repository, jwtManager *auth.JWTManager, auditSvc *AuditService, log *zap.Logger) *UserService {
	return &UserService{repo: repo, doctorRepo: doctorRepo, jwtManager: jwtManager, auditSvc: auditSvc, log: log}
}

// Register creates a patient account and issues a token pair. Self-registration
// never grants an elevated role.
func (s *UserService) Register(ctx context.Context, cmd *RegisterUserCommand, ip string) (*domain.User, *domain.TokenPair, error) {
	if err := validatePasswordStrength(cmd.Password); err != nil {
		return nil, nil, err
	}
	if cmd.Gender != "" && !cmd.Gender.IsValid() {
		return nil, nil, &ValidationError{Fields: []string{"gender must be one of male, female, other"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		Email:        cmd.Email,
		PasswordHash: string(hash),
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		DateOfBirth:  cmd.DateOfBirth,
		Gender:       cmd.Gender,
		Address:      cmd.Address,
		Role:         domain.RolePatient,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: u.ID.String(), UserRole: string(u.Role),
		Action: "create", ResourceType: "user", ResourceID: u.ID.String(), IPAddress: ip,
	})
	s.log.Info("user registered", zap.String("user_id", u.ID.String()))

	return u, pair, nil
}

// Login authenticates by email and password. Unknown email, inactive account,
// and wrong password all collapse into the same generic error so responses
// cannot be used for account enumeration.
func (s *UserService) Login(ctx context.Context, email, password, ip string) (*domain.User, *domain.TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Burn a bcrypt comparison so response timing does not reveal
		// whether the email exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt", zap.String("email", email), zap.String("ip", ip))
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.log.Warn("login attempt on inactive account", zap.String("user_id", user.ID.String()))
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: user.ID.String(), UserRole: string(user.Role),
		Action: "login", ResourceType: "user", ResourceID: user.ID.String(), IPAddress: ip,
	})

	return user, pair, nil
}

// RefreshToken issues a new token pair given a valid refresh token. The user
// must still be active; deactivation takes effect here at the latest.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, cmd *domain.UpdateUserCommand) (*domain.User, error) {
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		return nil, &ValidationError{Fields: []string{"gender must be one of male, female, other"}}
	}
	return s.repo.Update(ctx, userID, cmd)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// Deactivate soft-deletes the account. Already-issued access tokens stay valid
// until expiry; refresh is rejected once the active flag is off.
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID, ip string) error {
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: userID.String(),
		Action: "update", ResourceType: "user", ResourceID: userID.String(), IPAddress: ip,
		Changes: `{"is_active":false}`,
	})
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, q *domain.ListUsersQuery) (*domain.PagedUsers, error) {
	if q.Role != nil && !q.Role.IsValid() {
		return nil, &ValidationError{Fields: []string{"role filter must be one of patient, doctor, admin"}}
	}
	normalizePage(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

// issueTokens builds claims for the user and signs a token pair. Doctor
// accounts get their doctor profile ID embedded so booking and slot
// ownership checks keep working after the registration token expires.
func (s *UserService) issueTokens(ctx context.Context, u *domain.User) (*domain.TokenPair, error) {
	claims := &domain.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}

	if u.Role == domain.RoleDoctor {
		d, err := s.doctorRepo.GetByUserID(ctx, u.ID)
		if err != nil {
			s.log.Error("failed to resolve doctor profile for token",
				zap.String("user_id", u.ID.String()), zap.Error(err))
			return nil, fmt.Errorf("resolving doctor profile: %w", err)
		}
		claims.DoctorID = &d.ID
	}

	pair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return &ValidationError{Fields: []string{"password must be at least 8 characters"}}
	}
	return nil
}

func normalizePage(page, pageSize *int) {
	if *page <= 0 {
		*page = 1
	}
	if *pageSize <= 0 || *pageSize > 100 {
		*pageSize = 20
	}
}
