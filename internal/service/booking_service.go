package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/domain/doctor"
)

type BookingService struct {
	repo       booking.Repository
	slotRepo   booking.SlotRepository
	doctorRepo doctor.Repository
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewBookingService(
	repo booking.Repository,
	slotRepo booking.SlotRepository,
	doctorRepo doctor.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *BookingService {
	return &BookingService{repo: repo, slotRepo: slotRepo, doctorRepo: doctorRepo, auditSvc: auditSvc, log: log}
}

// Create books a consultation. The doctor must be bookable; when a slot is
// named it must belong to the doctor, be free, and carry no live booking.
// The doctor's current fee is captured onto the booking; the insert and the
// slot flip commit in one transaction inside the repository.
func (s *BookingService) Create(ctx context.Context, cmd *booking.CreateBookingCommand, ip string) (*booking.Booking, error) {
	if !cmd.ConsultationType.IsValid() {
		return nil, booking.ErrInvalidConsultationType
	}
	if cmd.AppointmentAt.Before(time.Now()) {
		return nil, booking.ErrAppointmentInPast
	}

	d, err := s.doctorRepo.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, err
	}
	if !d.Bookable() || (d.User != nil && !d.User.IsActive) {
		return nil, doctor.ErrDoctorNotBookable
	}

	b := &booking.Booking{
		PatientID:        cmd.PatientID,
		DoctorID:         cmd.DoctorID,
		SlotID:           cmd.SlotID,
		AppointmentAt:    cmd.AppointmentAt,
		ConsultationType: cmd.ConsultationType,
		Status:           booking.StatusPending,
		Symptoms:         cmd.Symptoms,
		Notes:            cmd.Notes,
		TotalAmountCents: d.ConsultationFeeCents,
		PaymentStatus:    booking.PaymentPending,
	}

	if err := s.repo.Reserve(ctx, b); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: cmd.PatientID.String(), UserRole: string(domain.RolePatient),
		Action: "create", ResourceType: "booking", ResourceID: b.ID.String(), IPAddress: ip,
	})
	s.log.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("doctor_id", cmd.DoctorID.String()),
		zap.Bool("with_slot", cmd.SlotID != nil),
	)

	return b, nil
}

func (s *BookingService) Get(ctx context.Context, id uuid.UUID, scope booking.Scope) (*booking.Booking, error) {
	return s.repo.Get(ctx, id, scope)
}

// Update patches symptoms, notes, prescription, and optionally the status.
// Status changes must follow the state machine; anything else is rejected.
func (s *BookingService) Update(ctx context.Context, id uuid.UUID, cmd *booking.UpdateBookingCommand, scope booking.Scope, callerID uuid.UUID, ip string) (*booking.Booking, error) {
	b, err := s.repo.Get(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	if cmd.Status != nil && *cmd.Status != b.Status {
		if !cmd.Status.IsValid() {
			return nil, booking.ErrInvalidStatus
		}
		if !b.CanTransitionTo(*cmd.Status) {
			return nil, booking.ErrInvalidStatusTransition
		}
		b.Status = *cmd.Status
	}
	if cmd.Symptoms != nil {
		b.Symptoms = *cmd.Symptoms
	}
	if cmd.Notes != nil {
		b.Notes = *cmd.Notes
	}
	if cmd.Prescription != nil {
		b.Prescription = *cmd.Prescription
	}

	updated, err := s.repo.Update(ctx, b)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID.String(), UserRole: string(scope.Role),
		Action: "update", ResourceType: "booking", ResourceID: id.String(), IPAddress: ip,
	})
	return updated, nil
}

// Cancel rejects already-cancelled and completed bookings, and releases the
// attached slot in the same transaction as the status flip.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, scope booking.Scope, callerID uuid.UUID, ip string) (*booking.Booking, error) {
	b, err := s.repo.Get(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	if err := b.Cancel(callerID); err != nil {
		return nil, err
	}

	if err := s.repo.CancelAndRelease(ctx, b); err != nil {
		return nil, fmt.Errorf("cancelling booking: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID.String(), UserRole: string(scope.Role),
		Action: "update", ResourceType: "booking", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"status":"cancelled"}`,
	})
	s.log.Info("booking cancelled",
		zap.String("booking_id", id.String()),
		zap.Bool("slot_released", b.SlotID != nil),
	)

	return b, nil
}

func (s *BookingService) List(ctx context.Context, q *booking.ListBookingsQuery) (*booking.PagedBookings, error) {
	if q.Status != nil && !q.Status.IsValid() {
		return nil, booking.ErrInvalidStatus
	}
	normalizePage(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

func (s *BookingService) Stats(ctx context.Context, scope booking.Scope) (*booking.Stats, error) {
	return s.repo.Stats(ctx, scope)
}

// CreateSlot publishes a bookable window for a doctor.
func (s *BookingService) CreateSlot(ctx context.Context, cmd *booking.CreateSlotCommand) (*booking.Slot, error) {
	if !cmd.EndTime.After(cmd.StartTime) {
		return nil, booking.ErrInvalidSlotWindow
	}
	if cmd.StartTime.Before(time.Now()) {
		return nil, booking.ErrAppointmentInPast
	}

	slot := &booking.Slot{
		DoctorID:    cmd.DoctorID,
		StartTime:   cmd.StartTime,
		EndTime:     cmd.EndTime,
		IsAvailable: true,
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ListSlots returns a doctor's upcoming slots. availableOnly is used by the
// public directory detail view.
func (s *BookingService) ListSlots(ctx context.Context, doctorID uuid.UUID, availableOnly bool) ([]*booking.Slot, error) {
	return s.slotRepo.ListByDoctor(ctx, doctorID, time.Now(), availableOnly)
}
