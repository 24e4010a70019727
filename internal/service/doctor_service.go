package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/pkg/auth"
)

type DoctorService struct {
	repo        doctor.Repository
	bookingRepo booking.Repository
	jwtManager  *auth.JWTManager
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewDoctorService(
	repo doctor.Repository,
	bookingRepo booking.Repository,
	jwtManager *auth.JWTManager,
	auditSvc *AuditService,
	log *zap.Logger,
) *DoctorService {
	return &DoctorService{repo: repo, bookingRepo: bookingRepo, jwtManager: jwtManager, auditSvc: auditSvc, log: log}
}

// Register creates the doctor's user account and profile atomically: either
// both rows exist afterwards or neither does.
func (s *DoctorService) Register(ctx context.Context, cmd *doctor.RegisterDoctorCommand, ip string) (*doctor.Doctor, *domain.TokenPair, error) {
	if err := validatePasswordStrength(cmd.Password); err != nil {
		return nil, nil, err
	}
	if cmd.LicenseNumber == "" {
		return nil, nil, doctor.ErrLicenseRequired
	}
	if cmd.Specialty == "" {
		return nil, nil, doctor.ErrSpecialtyRequired
	}
	if cmd.ConsultationFeeCents < 0 {
		return nil, nil, doctor.ErrInvalidFee
	}
	if cmd.ExperienceYears < 0 || cmd.ExperienceYears > 60 {
		return nil, nil, doctor.ErrInvalidExperience
	}

	// Cheap pre-check; the unique index still decides under concurrency.
	exists, err := s.repo.ExistsByLicense(ctx, cmd.LicenseNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("checking license: %w", err)
	}
	if exists {
		return nil, nil, doctor.ErrLicenseAlreadyUsed
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
		Role:         domain.RoleDoctor,
		IsActive:     true,
	}
	d := &doctor.Doctor{
		LicenseNumber:        cmd.LicenseNumber,
		Specialty:            cmd.Specialty,
		ExperienceYears:      cmd.ExperienceYears,
		Education:            cmd.Education,
		Bio:                  cmd.Bio,
		ImageURL:             cmd.ImageURL,
		ConsultationFeeCents: cmd.ConsultationFeeCents,
		IsAvailable:          true,
	}

	if err := s.repo.Register(ctx, u, d); err != nil {
		return nil, nil, err
	}
	d.User = u

	pair, err := s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		DoctorID: &d.ID,
	})
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: u.ID.String(), UserRole: string(u.Role),
		Action: "create", ResourceType: "doctor", ResourceID: d.ID.String(), IPAddress: ip,
	})
	s.log.Info("doctor registered",
		zap.String("doctor_id", d.ID.String()),
		zap.String("specialty", d.Specialty),
	)

	return d, pair, nil
}

func (s *DoctorService) GetProfile(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorService) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// UpdateProfile patches account fields (name, phone) and profile fields in one
// logical, transactional update.
func (s *DoctorService) UpdateProfile(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, ip string) (*doctor.Doctor, error) {
	if cmd.ConsultationFeeCents != nil && *cmd.ConsultationFeeCents < 0 {
		return nil, doctor.ErrInvalidFee
	}
	if cmd.ExperienceYears != nil && (*cmd.ExperienceYears < 0 || *cmd.ExperienceYears > 60) {
		return nil, doctor.ErrInvalidExperience
	}

	d, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: d.UserID.String(), UserRole: string(domain.RoleDoctor),
		Action: "update", ResourceType: "doctor", ResourceID: id.String(), IPAddress: ip,
	})
	return d, nil
}

// ListDirectory returns the public directory: only available, verified doctors
// with an active account.
func (s *DoctorService) ListDirectory(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	normalizePage(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

func (s *DoctorService) Verify(ctx context.Context, id uuid.UUID, verified bool, adminID uuid.UUID, ip string) (*doctor.Doctor, error) {
	d, err := s.repo.SetVerified(ctx, id, verified)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: adminID.String(), UserRole: string(domain.RoleAdmin),
		Action: "update", ResourceType: "doctor", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"is_verified":%t}`, verified),
	})
	return d, nil
}

// Stats aggregates the doctor's booking counts, revenue over completed and
// paid bookings, and average rating over completed ones.
func (s *DoctorService) Stats(ctx context.Context, doctorID uuid.UUID) (*doctor.Stats, error) {
	if _, err := s.repo.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	revenue, avgRating, counts, err := s.bookingRepo.DoctorStats(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("aggregating doctor stats: %w", err)
	}

	return &doctor.Stats{
		TotalBookings:     counts.Total,
		PendingBookings:   counts.Pending,
		CompletedBookings: counts.Completed,
		RevenueCents:      revenue,
		AverageRating:     avgRating,
	}, nil
}
