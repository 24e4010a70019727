package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/internal/domain/specialty"
)

type SpecialtyService struct {
	repo       specialty.Repository
	doctorRepo doctor.Repository
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewSpecialtyService(repo specialty.Repository, doctorRepo doctor.Repository, auditSvc *AuditService, log *zap.Logger) *SpecialtyService {
	return &SpecialtyService{repo: repo, doctorRepo: doctorRepo, auditSvc: auditSvc, log: log}
}

func (s *SpecialtyService) List(ctx context.Context) ([]*specialty.Specialty, error) {
	return s.repo.List(ctx)
}

func (s *SpecialtyService) Create(ctx context.Context, name, description string, adminID uuid.UUID, ip string) (*specialty.Specialty, error) {
	if name == "" {
		return nil, specialty.ErrNameRequired
	}

	sp := &specialty.Specialty{Name: name, Description: description}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: adminID.String(), UserRole: string(domain.RoleAdmin),
		Action: "create", ResourceType: "specialty", ResourceID: sp.ID.String(), IPAddress: ip,
	})
	return sp, nil
}

func (s *SpecialtyService) Update(ctx context.Context, id uuid.UUID, cmd *specialty.UpdateSpecialtyCommand, adminID uuid.UUID, ip string) (*specialty.Specialty, error) {
	if cmd.Name != nil && *cmd.Name == "" {
		return nil, specialty.ErrNameRequired
	}

	sp, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: adminID.String(), UserRole: string(domain.RoleAdmin),
		Action: "update", ResourceType: "specialty", ResourceID: id.String(), IPAddress: ip,
	})
	return sp, nil
}

// Delete removes a specialty. The repository rejects the delete with
// ErrSpecialtyInUse while any doctor still references it by name.
func (s *SpecialtyService) Delete(ctx context.Context, id uuid.UUID, adminID uuid.UUID, ip string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: adminID.String(), UserRole: string(domain.RoleAdmin),
		Action: "delete", ResourceType: "specialty", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

// Stats returns every specialty with the number of doctors referencing it.
func (s *SpecialtyService) Stats(ctx context.Context) ([]*specialty.UsageStat, error) {
	specialties, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]*specialty.UsageStat, 0, len(specialties))
	for _, sp := range specialties {
		count, err := s.doctorRepo.CountBySpecialty(ctx, sp.Name)
		if err != nil {
			return nil, fmt.Errorf("counting doctors for %s: %w", sp.Name, err)
		}
		stats = append(stats, &specialty.UsageStat{Specialty: *sp, DoctorCount: count})
	}
	return stats, nil
}
