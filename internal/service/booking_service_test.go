package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/domain/doctor"
)

type bookingFixture struct {
	svc        *BookingService
	doctorRepo *fakeDoctorRepo
	repo       *fakeBookingRepo
	slots      *fakeSlotRepo
	doc        *doctor.Doctor
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	doctorRepo := newFakeDoctorRepo()
	doc := doctorRepo.add(&doctor.Doctor{
		UserID:               uuid.New(),
		LicenseNumber:        "LIC-1001",
		Specialty:            "Cardiology",
		ConsultationFeeCents: 15_000,
		IsVerified:           true,
		IsAvailable:          true,
	})

	slots := newFakeSlotRepo()
	repo := newFakeBookingRepo(slots)
	svc := NewBookingService(repo, slots, doctorRepo, testAuditService(), zap.NewNop())

	return &bookingFixture{svc: svc, doctorRepo: doctorRepo, repo: repo, slots: slots, doc: doc}
}

func (f *bookingFixture) createCommand() *booking.CreateBookingCommand {
	return &booking.CreateBookingCommand{
		PatientID:        uuid.New(),
		DoctorID:         f.doc.ID,
		AppointmentAt:    time.Now().Add(24 * time.Hour),
		ConsultationType: booking.ConsultationOnline,
		Symptoms:         "headache",
	}
}

func TestCreateBookingCapturesFee(t *testing.T) {
	f := newBookingFixture(t)

	b, err := f.svc.Create(context.Background(), f.createCommand(), "10.0.0.1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if b.TotalAmountCents != 15_000 {
		t.Errorf("TotalAmountCents = %d, want 15000", b.TotalAmountCents)
	}
	if b.Status != booking.StatusPending {
		t.Errorf("status = %s, want pending", b.Status)
	}

	// A later fee change must not affect the existing booking.
	f.doc.ConsultationFeeCents = 20_000
	if b.TotalAmountCents != 15_000 {
		t.Errorf("fee changed retroactively: %d", b.TotalAmountCents)
	}
}

func TestCreateBookingRejectsPastAppointment(t *testing.T) {
	f := newBookingFixture(t)

	cmd := f.createCommand()
	cmd.AppointmentAt = time.Now().Add(-time.Hour)

	_, err := f.svc.Create(context.Background(), cmd, "")
	if !errors.Is(err, booking.ErrAppointmentInPast) {
		t.Errorf("got %v, want ErrAppointmentInPast", err)
	}
}

func TestCreateBookingRejectsInvalidConsultationType(t *testing.T) {
	f := newBookingFixture(t)

	cmd := f.createCommand()
	cmd.ConsultationType = "video"

	_, err := f.svc.Create(context.Background(), cmd, "")
	if !errors.Is(err, booking.ErrInvalidConsultationType) {
		t.Errorf("got %v, want ErrInvalidConsultationType", err)
	}
}

func TestCreateBookingRejectsUnverifiedDoctor(t *testing.T) {
	f := newBookingFixture(t)
	f.doc.IsVerified = false

	_, err := f.svc.Create(context.Background(), f.createCommand(), "")
	if !errors.Is(err, doctor.ErrDoctorNotBookable) {
		t.Errorf("got %v, want ErrDoctorNotBookable", err)
	}
}

func TestCreateBookingRejectsUnavailableDoctor(t *testing.T) {
	f := newBookingFixture(t)
	f.doc.IsAvailable = false

	_, err := f.svc.Create(context.Background(), f.createCommand(), "")
	if !errors.Is(err, doctor.ErrDoctorNotBookable) {
		t.Errorf("got %v, want ErrDoctorNotBookable", err)
	}
}

func TestCreateBookingConsumesSlot(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.slots.add(&booking.Slot{
		DoctorID:    f.doc.ID,
		StartTime:   time.Now().Add(24 * time.Hour),
		EndTime:     time.Now().Add(25 * time.Hour),
		IsAvailable: true,
	})

	cmd := f.createCommand()
	cmd.SlotID = &slot.ID

	if _, err := f.svc.Create(context.Background(), cmd, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if slot.IsAvailable {
		t.Error("slot still available after booking")
	}

	// Second booking against the consumed slot must fail.
	cmd2 := f.createCommand()
	cmd2.SlotID = &slot.ID
	_, err := f.svc.Create(context.Background(), cmd2, "")
	if !errors.Is(err, booking.ErrSlotUnavailable) {
		t.Errorf("got %v, want ErrSlotUnavailable", err)
	}
}

func TestCreateBookingRejectsForeignSlot(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.slots.add(&booking.Slot{
		DoctorID:    uuid.New(), // belongs to another doctor
		StartTime:   time.Now().Add(24 * time.Hour),
		EndTime:     time.Now().Add(25 * time.Hour),
		IsAvailable: true,
	})

	cmd := f.createCommand()
	cmd.SlotID = &slot.ID

	_, err := f.svc.Create(context.Background(), cmd, "")
	if !errors.Is(err, booking.ErrSlotNotFound) {
		t.Errorf("got %v, want ErrSlotNotFound", err)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.slots.add(&booking.Slot{
		DoctorID:    f.doc.ID,
		StartTime:   time.Now().Add(24 * time.Hour),
		EndTime:     time.Now().Add(25 * time.Hour),
		IsAvailable: true,
	})

	cmd := f.createCommand()
	cmd.SlotID = &slot.ID
	b, err := f.svc.Create(context.Background(), cmd, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	scope := booking.Scope{Role: domain.RolePatient, PatientID: cmd.PatientID}
	cancelled, err := f.svc.Cancel(context.Background(), b.ID, scope, cmd.PatientID, "")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if cancelled.Status != booking.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if !slot.IsAvailable {
		t.Error("slot not released after cancellation")
	}
}

func TestCancelTwiceFails(t *testing.T) {
	f := newBookingFixture(t)

	cmd := f.createCommand()
	b, err := f.svc.Create(context.Background(), cmd, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	scope := booking.Scope{Role: domain.RolePatient, PatientID: cmd.PatientID}
	if _, err := f.svc.Cancel(context.Background(), b.ID, scope, cmd.PatientID, ""); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), b.ID, scope, cmd.PatientID, "")
	if !errors.Is(err, booking.ErrAlreadyCancelled) {
		t.Errorf("got %v, want ErrAlreadyCancelled", err)
	}
}

func TestUpdateEnforcesStateMachine(t *testing.T) {
	f := newBookingFixture(t)

	cmd := f.createCommand()
	b, err := f.svc.Create(context.Background(), cmd, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	scope := booking.Scope{Role: domain.RoleDoctor, DoctorID: &f.doc.ID}

	// pending -> completed skips confirmation and must be rejected.
	completed := booking.StatusCompleted
	_, err = f.svc.Update(context.Background(), b.ID, &booking.UpdateBookingCommand{Status: &completed}, scope, f.doc.UserID, "")
	if !errors.Is(err, booking.ErrInvalidStatusTransition) {
		t.Errorf("got %v, want ErrInvalidStatusTransition", err)
	}

	// pending -> confirmed -> completed is the legal path.
	confirmed := booking.StatusConfirmed
	if _, err := f.svc.Update(context.Background(), b.ID, &booking.UpdateBookingCommand{Status: &confirmed}, scope, f.doc.UserID, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.Update(context.Background(), b.ID, &booking.UpdateBookingCommand{Status: &completed}, scope, f.doc.UserID, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	f := newBookingFixture(t)

	cmd := f.createCommand()
	b, err := f.svc.Create(context.Background(), cmd, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A different patient cannot see it, and cannot tell it exists.
	otherScope := booking.Scope{Role: domain.RolePatient, PatientID: uuid.New()}
	_, err = f.svc.Get(context.Background(), b.ID, otherScope)
	if !errors.Is(err, booking.ErrBookingNotFound) {
		t.Errorf("got %v, want ErrBookingNotFound", err)
	}

	// The owning patient and an admin both can.
	if _, err := f.svc.Get(context.Background(), b.ID, booking.Scope{Role: domain.RolePatient, PatientID: cmd.PatientID}); err != nil {
		t.Errorf("owner Get: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), b.ID, booking.Scope{Role: domain.RoleAdmin}); err != nil {
		t.Errorf("admin Get: %v", err)
	}
}

func TestCreateSlotValidatesWindow(t *testing.T) {
	f := newBookingFixture(t)

	start := time.Now().Add(24 * time.Hour)
	_, err := f.svc.CreateSlot(context.Background(), &booking.CreateSlotCommand{
		DoctorID:  f.doc.ID,
		StartTime: start,
		EndTime:   start.Add(-time.Hour),
	})
	if !errors.Is(err, booking.ErrInvalidSlotWindow) {
		t.Errorf("got %v, want ErrInvalidSlotWindow", err)
	}

	_, err = f.svc.CreateSlot(context.Background(), &booking.CreateSlotCommand{
		DoctorID:  f.doc.ID,
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	})
	if !errors.Is(err, booking.ErrAppointmentInPast) {
		t.Errorf("got %v, want ErrAppointmentInPast", err)
	}

	slot, err := f.svc.CreateSlot(context.Background(), &booking.CreateSlotCommand{
		DoctorID:  f.doc.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if !slot.IsAvailable {
		t.Error("new slot must start available")
	}
}

func TestBookingStats(t *testing.T) {
	f := newBookingFixture(t)

	patientID := uuid.New()
	for _, status := range []booking.Status{booking.StatusPending, booking.StatusConfirmed, booking.StatusCompleted} {
		f.repo.bookings[uuid.New()] = &booking.Booking{
			ID:        uuid.New(),
			PatientID: patientID,
			DoctorID:  f.doc.ID,
			Status:    status,
		}
	}

	stats, err := f.svc.Stats(context.Background(), booking.Scope{Role: domain.RolePatient, PatientID: patientID})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Confirmed != 1 || stats.Completed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
