package specialty

import (
	"time"

	"github.com/google/uuid"
)

type Specialty struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Name        string `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (Specialty) TableName() string {
	return "specialties"
}

type UpdateSpecialtyCommand struct {
	Name        *string
	Description *string
}

// UsageStat is a specialty together with the number of doctors referencing it.
type UsageStat struct {
	Specialty
	DoctorCount int64 `json:"doctor_count"`
}
