package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
)

type BookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// scoped narrows a booking query to what the requester may see. A booking
// outside the scope looks the same as one that does not exist.
func scoped(tx *gorm.DB, s booking.Scope) *gorm.DB {
	switch s.Role {
	case domain.RolePatient:
		return tx.Where("bookings.patient_id = ?", s.PatientID)
	case domain.RoleDoctor:
		if s.DoctorID == nil {
			// Doctor claims without a profile see nothing.
			return tx.Where("1 = 0")
		}
		return tx.Where("bookings.doctor_id = ?", *s.DoctorID)
	default: // admin
		return tx
	}
}

func (r *BookingRepo) Reserve(ctx context.Context, b *booking.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.SlotID != nil {
			// Lock the slot row so concurrent reservations serialize here.
			var slot booking.Slot
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&slot, "id = ?", *b.SlotID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return booking.ErrSlotNotFound
				}
				return fmt.Errorf("locking slot: %w", err)
			}

			if slot.DoctorID != b.DoctorID || !slot.IsAvailable {
				return booking.ErrSlotUnavailable
			}

			var live int64
			err = tx.Model(&booking.Booking{}).
				Where("slot_id = ? AND status IN ?", *b.SlotID,
					[]booking.Status{booking.StatusPending, booking.StatusConfirmed}).
				Count(&live).Error
			if err != nil {
				return fmt.Errorf("checking live bookings: %w", err)
			}
			if live > 0 {
				return booking.ErrSlotConflict
			}
		}

		if err := tx.Create(b).Error; err != nil {
			// The partial unique index on live slot bookings backstops the
			// check above; treat its violation as the same conflict.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return booking.ErrSlotConflict
			}
			return fmt.Errorf("inserting booking: %w", err)
		}

		if b.SlotID != nil {
			err := tx.Model(&booking.Slot{}).Where("id = ?", *b.SlotID).
				Update("is_available", false).Error
			if err != nil {
				return fmt.Errorf("consuming slot: %w", err)
			}
		}
		return nil
	})
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID, scope booking.Scope) (*booking.Booking, error) {
	var b booking.Booking
	err := scoped(r.db.WithContext(ctx), scope).
		Preload("Patient").
		Preload("Doctor").
		Preload("Doctor.User").
		Preload("Slot").
		First(&b, "bookings.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepo) Update(ctx context.Context, b *booking.Booking) (*booking.Booking, error) {
	err := r.db.WithContext(ctx).Model(&booking.Booking{}).Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":       b.Status,
			"symptoms":     b.Symptoms,
			"notes":        b.Notes,
			"prescription": b.Prescription,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("updating booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepo) CancelAndRelease(ctx context.Context, b *booking.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&booking.Booking{}).Where("id = ?", b.ID).
			Updates(map[string]any{
				"status":       booking.StatusCancelled,
				"cancelled_at": b.CancelledAt,
				"cancelled_by": b.CancelledBy,
			}).Error
		if err != nil {
			return fmt.Errorf("cancelling booking: %w", err)
		}

		if b.SlotID != nil {
			err := tx.Model(&booking.Slot{}).Where("id = ?", *b.SlotID).
				Update("is_available", true).Error
			if err != nil {
				return fmt.Errorf("releasing slot: %w", err)
			}
		}
		return nil
	})
}

func (r *BookingRepo) List(ctx context.Context, q *booking.ListBookingsQuery) (*booking.PagedBookings, error) {
	tx := scoped(r.db.WithContext(ctx).Model(&booking.Booking{}), q.Scope)
	if q.Status != nil {
		tx = tx.Where("bookings.status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting bookings: %w", err)
	}

	var bookings []*booking.Booking
	err := tx.Preload("Patient").
		Preload("Doctor").
		Preload("Doctor.User").
		Preload("Slot").
		Order("appointment_at DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}

	return &booking.PagedBookings{
		Bookings:   bookings,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *BookingRepo) Stats(ctx context.Context, scope booking.Scope) (*booking.Stats, error) {
	rows := []struct {
		Status booking.Status
		Count  int64
	}{}
	err := scoped(r.db.WithContext(ctx).Model(&booking.Booking{}), scope).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating booking stats: %w", err)
	}

	stats := &booking.Stats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case booking.StatusPending:
			stats.Pending = row.Count
		case booking.StatusConfirmed:
			stats.Confirmed = row.Count
		case booking.StatusCompleted:
			stats.Completed = row.Count
		case booking.StatusCancelled:
			stats.Cancelled = row.Count
		case booking.StatusNoShow:
			stats.NoShow = row.Count
		}
	}
	return stats, nil
}

func (r *BookingRepo) DoctorStats(ctx context.Context, doctorID uuid.UUID) (int64, float64, *booking.Stats, error) {
	counts, err := r.Stats(ctx, booking.Scope{Role: domain.RoleDoctor, DoctorID: &doctorID})
	if err != nil {
		return 0, 0, nil, err
	}

	var revenue struct {
		Total int64
	}
	err = r.db.WithContext(ctx).Model(&booking.Booking{}).
		Select("COALESCE(SUM(total_amount_cents), 0) AS total").
		Where("doctor_id = ? AND status = ? AND payment_status = ?",
			doctorID, booking.StatusCompleted, booking.PaymentCompleted).
		Scan(&revenue).Error
	if err != nil {
		return 0, 0, nil, fmt.Errorf("aggregating revenue: %w", err)
	}

	var rating struct {
		Avg float64
	}
	err = r.db.WithContext(ctx).Model(&booking.Booking{}).
		Select("COALESCE(AVG(rating), 0) AS avg").
		Where("doctor_id = ? AND status = ? AND rating IS NOT NULL",
			doctorID, booking.StatusCompleted).
		Scan(&rating).Error
	if err != nil {
		return 0, 0, nil, fmt.Errorf("aggregating rating: %w", err)
	}

	return revenue.Total, rating.Avg, counts, nil
}

type SlotRepo struct {
	db *gorm.DB
}

func NewSlotRepo(db *gorm.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

func (r *SlotRepo) Create(ctx context.Context, s *booking.Slot) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("inserting slot: %w", err)
	}
	return nil
}

func (r *SlotRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time, availableOnly bool) ([]*booking.Slot, error) {
	tx := r.db.WithContext(ctx).
		Where("doctor_id = ? AND start_time >= ?", doctorID, from)
	if availableOnly {
		tx = tx.Where("is_available")
	}

	var slots []*booking.Slot
	if err := tx.Order("start_time ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	return slots, nil
}
