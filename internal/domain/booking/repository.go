package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Reserve inserts the booking and, when a slot is attached, flips that
	// slot to unavailable — both inside one transaction. The slot row is
	// locked before the live-booking check, so of two concurrent reservations
	// against the same slot exactly one succeeds; the loser gets
	// ErrSlotConflict (or ErrSlotUnavailable once the flip is visible).
	Reserve(ctx context.Context, b *Booking) error

	// Get retrieves a booking visible within the scope. A booking that exists
	// but is outside the scope yields ErrBookingNotFound.
	Get(ctx context.Context, id uuid.UUID, scope Scope) (*Booking, error)

	// Update persists the booking's mutable fields (status, symptoms, notes,
	// prescription).
	Update(ctx context.Context, b *Booking) (*Booking, error)

	// CancelAndRelease sets the booking cancelled and, in the same
	// transaction, restores the attached slot's availability.
	CancelAndRelease(ctx context.Context, b *Booking) error

	// List returns scope-filtered bookings ordered by appointment time descending.
	List(ctx context.Context, q *ListBookingsQuery) (*PagedBookings, error)

	// Stats returns per-status counts within the scope.
	Stats(ctx context.Context, scope Scope) (*Stats, error)

	// DoctorStats aggregates for a single doctor: per-status counts, revenue
	// over completed+paid bookings, and average rating over completed ones.
	DoctorStats(ctx context.Context, doctorID uuid.UUID) (totalCents int64, avgRating float64, counts *Stats, err error)
}

type SlotRepository interface {
	Create(ctx context.Context, s *Slot) error

	// ListByDoctor returns the doctor's slots starting after `from`, soonest first.
	// When availableOnly is set, consumed slots are excluded.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time, availableOnly bool) ([]*Slot, error)
}
