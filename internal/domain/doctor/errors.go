package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrLicenseAlreadyUsed  = errors.New("doctor with this license number already exists")
	ErrDoctorNotBookable   = errors.New("doctor is not available for bookings")
	ErrInvalidFee          = errors.New("consultation fee cannot be negative")
	ErrInvalidExperience   = errors.New("experience years must be between 0 and 60")
	ErrLicenseRequired     = errors.New("medical license number is required")
	ErrSpecialtyRequired   = errors.New("medical specialty is required")
)
