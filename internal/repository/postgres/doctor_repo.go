package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/doctor"
)

type DoctorRepo struct {
	db *gorm.DB
}

func NewDoctorRepo(db *gorm.DB) *DoctorRepo {
	return &DoctorRepo{db: db}
}

func (r *DoctorRepo) Register(ctx context.Context, u *domain.User, d *doctor.Doctor) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrEmailAlreadyUsed
			}
			return fmt.Errorf("inserting user: %w", err)
		}
		d.UserID = u.ID
		if err := tx.Create(d).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return doctor.ErrLicenseAlreadyUsed
			}
			return fmt.Errorf("inserting doctor: %w", err)
		}
		return nil
	})
	return err
}

func (r *DoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Preload("User").First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("querying doctor: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("querying doctor by user: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepo) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d doctor.Doctor
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return doctor.ErrDoctorNotFound
			}
			return err
		}

		userUpdates := map[string]any{}
		if cmd.Name != nil {
			userUpdates["name"] = *cmd.Name
		}
		if cmd.Phone != nil {
			userUpdates["phone"] = *cmd.Phone
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&domain.User{}).Where("id = ?", d.UserID).Updates(userUpdates).Error; err != nil {
				return fmt.Errorf("updating owning user: %w", err)
			}
		}

		docUpdates := map[string]any{}
		if cmd.Specialty != nil {
			docUpdates["specialty"] = *cmd.Specialty
		}
		if cmd.ExperienceYears != nil {
			docUpdates["experience_years"] = *cmd.ExperienceYears
		}
		if cmd.Education != nil {
			docUpdates["education"] = *cmd.Education
		}
		if cmd.Bio != nil {
			docUpdates["bio"] = *cmd.Bio
		}
		if cmd.ImageURL != nil {
			docUpdates["image_url"] = *cmd.ImageURL
		}
		if cmd.ConsultationFeeCents != nil {
			docUpdates["consultation_fee_cents"] = *cmd.ConsultationFeeCents
		}
		if cmd.IsAvailable != nil {
			docUpdates["is_available"] = *cmd.IsAvailable
		}
		if len(docUpdates) > 0 {
			if err := tx.Model(&doctor.Doctor{}).Where("id = ?", id).Updates(docUpdates).Error; err != nil {
				return fmt.Errorf("updating doctor: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *DoctorRepo) List(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	tx := r.db.WithContext(ctx).Model(&doctor.Doctor{}).
		Joins("JOIN users ON users.id = doctors.user_id").
		Where("doctors.is_available AND doctors.is_verified AND users.is_active")

	if q.Specialty != "" {
		tx = tx.Where("doctors.specialty = ?", q.Specialty)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		tx = tx.Where("users.name ILIKE ? OR doctors.specialty ILIKE ? OR doctors.bio ILIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting doctors: %w", err)
	}

	var doctors []*doctor.Doctor
	err := tx.Preload("User").
		Order("doctors.rating DESC, doctors.total_reviews DESC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&doctors).Error
	if err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}

	return &doctor.PagedDoctors{
		Doctors:    doctors,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *DoctorRepo) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*doctor.Doctor, error) {
	res := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("id = ?", id).
		Update("is_verified", verified)
	if res.Error != nil {
		return nil, fmt.Errorf("updating verification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, doctor.ErrDoctorNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *DoctorRepo) ExistsByLicense(ctx context.Context, licenseNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&doctor.Doctor{}).
		Where("license_number = ?", licenseNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking license: %w", err)
	}
	return count > 0, nil
}

func (r *DoctorRepo) CountBySpecialty(ctx context.Context, specialty string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&doctor.Doctor{}).
		Where("specialty = ?", specialty).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting doctors by specialty: %w", err)
	}
	return count, nil
}
