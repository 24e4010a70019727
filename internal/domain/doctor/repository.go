package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain"
)

type Repository interface {
	// Register creates the user and doctor rows in a single transaction.
	// Either both rows exist afterwards or neither does.
	Register(ctx context.Context, u *domain.User, d *Doctor) error

	// GetByID retrieves a doctor by primary key. Returns ErrDoctorNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// GetByUserID retrieves the doctor profile owned by a user account.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)

	// Update applies a partial update across the doctor row and its owning
	// user row as one transaction.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDoctorCommand) (*Doctor, error)

	// List returns the public directory: available, verified doctors whose
	// owning user is active.
	List(ctx context.Context, q *ListDoctorsQuery) (*PagedDoctors, error)

	// SetVerified toggles the admin verification flag.
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*Doctor, error)

	// ExistsByLicense checks license-number uniqueness without fetching the row.
	ExistsByLicense(ctx context.Context, licenseNumber string) (bool, error)

	// CountBySpecialty returns the number of doctors referencing a specialty name.
	CountBySpecialty(ctx context.Context, specialty string) (int64, error)
}
