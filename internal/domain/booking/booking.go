package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/doctor"
)

// Slot is a doctor-owned bookable time window. It is flipped unavailable when
// a booking consumes it and released again if that booking is cancelled.
type Slot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DoctorID uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`

	StartTime   time.Time `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime     time.Time `gorm:"column:end_time;not null" json:"end_time"`
	IsAvailable bool      `gorm:"column:is_available;default:true;index" json:"is_available"`
}

func (Slot) TableName() string {
	return "slots"
}

type ConsultationType string

const (
	ConsultationOnline  ConsultationType = "online"
	ConsultationOffline ConsultationType = "offline"
)

func (t ConsultationType) IsValid() bool {
	return t == ConsultationOnline || t == ConsultationOffline
}

// State transition possibilities:
//
//	pending   → confirmed | cancelled
//	confirmed → completed | no_show | cancelled
//	cancelled, completed, no_show are terminal
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Live reports whether the status holds a slot reservation.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Booking struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID uuid.UUID    `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	Patient   *domain.User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`

	DoctorID uuid.UUID      `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`
	Doctor   *doctor.Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`

	SlotID *uuid.UUID `gorm:"column:slot_id;type:uuid;index" json:"slot_id,omitempty"`
	Slot   *Slot      `gorm:"foreignKey:SlotID" json:"slot,omitempty"`

	AppointmentAt    time.Time        `gorm:"column:appointment_at;not null;index" json:"appointment_at"`
	ConsultationType ConsultationType `gorm:"column:consultation_type;type:varchar(10);not null" json:"consultation_type"`
	Status           Status           `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`

	Symptoms     string `gorm:"column:symptoms;type:text" json:"symptoms,omitempty"`
	Notes        string `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Prescription string `gorm:"column:prescription;type:text" json:"prescription,omitempty"`

	// Fee captured from the doctor at creation time. Later fee changes do not
	// affect existing bookings.
	TotalAmountCents int64 `gorm:"column:total_amount_cents;not null" json:"total_amount_cents"`

	Rating        *int          `gorm:"column:rating" json:"rating,omitempty"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(20);default:'pending'" json:"payment_status"`

	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) CanTransitionTo(next Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
		StatusCancelled: {},
		StatusCompleted: {},
		StatusNoShow:    {},
	}

	for _, s := range allowed[b.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Cancel marks the booking cancelled. The caller is responsible for releasing
// an attached slot in the same transaction.
func (b *Booking) Cancel(cancelledBy uuid.UUID) error {
	switch b.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	if !b.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.CancelledBy = &cancelledBy
	return nil
}

type CreateBookingCommand struct {
	PatientID        uuid.UUID
	DoctorID         uuid.UUID
	SlotID           *uuid.UUID
	AppointmentAt    time.Time
	ConsultationType ConsultationType
	Symptoms         string
	Notes            string
}

// UpdateBookingCommand patches the mutable booking fields. A non-nil Status is
// validated against the state machine before it is applied.
type UpdateBookingCommand struct {
	Status       *Status
	Symptoms     *string
	Notes        *string
	Prescription *string
}

type CreateSlotCommand struct {
	DoctorID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

// Scope restricts booking queries to what the requester may see: patients see
// their own bookings, doctors see their practice's, admins see everything.
type Scope struct {
	Role      domain.Role
	PatientID uuid.UUID  // set for patient role
	DoctorID  *uuid.UUID // set for doctor role
}

type ListBookingsQuery struct {
	Scope    Scope
	Status   *Status
	Page     int
	PageSize int
}

type PagedBookings struct {
	Bookings   []*Booking `json:"bookings"`
	TotalCount int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	NoShow    int64 `json:"no_show"`
}
