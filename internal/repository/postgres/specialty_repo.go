package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/internal/domain/specialty"
)

type SpecialtyRepo struct {
	db *gorm.DB
}

func NewSpecialtyRepo(db *gorm.DB) *SpecialtyRepo {
	return &SpecialtyRepo{db: db}
}

func (r *SpecialtyRepo) Create(ctx context.Context, s *specialty.Specialty) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return specialty.ErrSpecialtyExists
		}
		return fmt.Errorf("inserting specialty: %w", err)
	}
	return nil
}

func (r *SpecialtyRepo) GetByID(ctx context.Context, id uuid.UUID) (*specialty.Specialty, error) {
	var s specialty.Specialty
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, specialty.ErrSpecialtyNotFound
		}
		return nil, fmt.Errorf("querying specialty: %w", err)
	}
	return &s, nil
}

func (r *SpecialtyRepo) Update(ctx context.Context, id uuid.UUID, cmd *specialty.UpdateSpecialtyCommand) (*specialty.Specialty, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&specialty.Specialty{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, specialty.ErrSpecialtyExists
			}
			return nil, fmt.Errorf("updating specialty: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, specialty.ErrSpecialtyNotFound
		}
	}

	return r.GetByID(ctx, id)
}

// Delete locks the specialty row, checks that no doctor references it by
// name, and deletes it, all inside one transaction. Concurrent deletes of the
// same specialty serialize on the row lock.
func (r *SpecialtyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sp specialty.Specialty
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sp, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return specialty.ErrSpecialtyNotFound
			}
			return fmt.Errorf("locking specialty: %w", err)
		}

		var inUse int64
		if err := tx.Model(&doctor.Doctor{}).Where("specialty = ?", sp.Name).Count(&inUse).Error; err != nil {
			return fmt.Errorf("checking specialty usage: %w", err)
		}
		if inUse > 0 {
			return specialty.ErrSpecialtyInUse
		}

		if err := tx.Delete(&specialty.Specialty{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting specialty: %w", err)
		}
		return nil
	})
}

func (r *SpecialtyRepo) List(ctx context.Context) ([]*specialty.Specialty, error) {
	var specialties []*specialty.Specialty
	err := r.db.WithContext(ctx).Order("name ASC").Find(&specialties).Error
	if err != nil {
		return nil, fmt.Errorf("listing specialties: %w", err)
	}
	return specialties, nil
}
