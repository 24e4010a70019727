package specialty

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Specialty) error
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateSpecialtyCommand) (*Specialty, error)

	// Delete removes the specialty unless any doctor still references it by
	// name; an in-use specialty yields ErrSpecialtyInUse. The usage check and
	// the delete run in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns all specialties ordered by name.
	List(ctx context.Context) ([]*Specialty, error)
}
