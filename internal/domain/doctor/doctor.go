package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/medbook/medbook-api/internal/domain"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	UserID uuid.UUID    `gorm:"column:user_id;type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *domain.User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	LicenseNumber   string `gorm:"column:license_number;type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialty       string `gorm:"column:specialty;type:varchar(100);not null;index" json:"specialty"`
	ExperienceYears int    `gorm:"column:experience_years;default:0" json:"experience_years"`
	Education       string `gorm:"column:education;type:varchar(500)" json:"education,omitempty"`
	Bio             string `gorm:"column:bio;type:text" json:"bio,omitempty"`
	ImageURL        string `gorm:"column:image_url;type:text" json:"image_url,omitempty"`

	// Fee charged per consultation, captured onto each booking at creation.
	ConsultationFeeCents int64 `gorm:"column:consultation_fee_cents;not null" json:"consultation_fee_cents"`

	Rating       float64 `gorm:"column:rating;default:0" json:"rating"`
	TotalReviews int     `gorm:"column:total_reviews;default:0" json:"total_reviews"`

	IsVerified  bool `gorm:"column:is_verified;default:false;index" json:"is_verified"`
	IsAvailable bool `gorm:"column:is_available;default:true;index" json:"is_available"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Bookable reports whether the doctor can currently accept new bookings.
// The owning user's active flag is checked separately at the query layer.
func (d *Doctor) Bookable() bool {
	return d.IsAvailable && d.IsVerified
}

type RegisterDoctorCommand struct {
	Email                string
	Password             string
	Name                 string
	Phone                string
	LicenseNumber        string
	Specialty            string
	ExperienceYears      int
	Education            string
	Bio                  string
	ImageURL             string
	ConsultationFeeCents int64
}

// UpdateDoctorCommand patches both the doctor row and its owning user row.
// Nil fields are left unchanged.
type UpdateDoctorCommand struct {
	Name                 *string
	Phone                *string
	Specialty            *string
	ExperienceYears      *int
	Education            *string
	Bio                  *string
	ImageURL             *string
	ConsultationFeeCents *int64
	IsAvailable          *bool
}

type ListDoctorsQuery struct {
	Specialty string
	Search    string // case-insensitive match on name, specialty, or bio
	Page      int
	PageSize  int
}

type PagedDoctors struct {
	Doctors    []*Doctor `json:"doctors"`
	TotalCount int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

type Stats struct {
	TotalBookings     int64   `json:"total_bookings"`
	PendingBookings   int64   `json:"pending_bookings"`
	CompletedBookings int64   `json:"completed_bookings"`
	RevenueCents      int64   `json:"revenue_cents"`
	AverageRating     float64 `json:"average_rating"`
}
