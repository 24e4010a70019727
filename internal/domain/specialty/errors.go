package specialty

import "errors"

var (
	ErrSpecialtyNotFound = errors.New("specialty not found")
	ErrSpecialtyExists   = errors.New("specialty with this name already exists")
	ErrSpecialtyInUse    = errors.New("cannot delete specialty that is being used by doctors")
	ErrNameRequired      = errors.New("specialty name is required")
)
