package booking

import "errors"

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrSlotNotFound            = errors.New("slot not found")
	ErrSlotUnavailable         = errors.New("selected slot is not available")
	ErrSlotConflict            = errors.New("selected slot is already booked")
	ErrAlreadyCancelled        = errors.New("booking is already cancelled")
	ErrAlreadyCompleted        = errors.New("cannot cancel completed booking")
	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
	ErrInvalidConsultationType = errors.New("invalid consultation type")
	ErrInvalidStatus           = errors.New("invalid booking status")
	ErrAppointmentInPast       = errors.New("appointment time cannot be in the past")
	ErrInvalidSlotWindow       = errors.New("slot end time must be after start time")
)
