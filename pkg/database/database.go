package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medbook/medbook-api/internal/config"
	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/domain/chat"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/internal/domain/specialty"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN(),
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&doctor.Doctor{},
		&specialty.Specialty{},
		&booking.Slot{},
		&booking.Booking{},
		&chat.Session{},
		&chat.Message{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// Invariant: at most one live (pending/confirmed) booking per slot.
		// The application locks the slot row before checking, but this index
		// makes the store itself reject a double-booking that slips through.
		{
			name:  "uniq_bookings_live_slot",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS uniq_bookings_live_slot ON bookings (slot_id) WHERE slot_id IS NOT NULL AND deleted_at IS NULL AND status IN ('pending', 'confirmed')`,
		},
		{
			name:  "idx_bookings_patient_time",
			query: `CREATE INDEX IF NOT EXISTS idx_bookings_patient_time ON bookings (patient_id, appointment_at DESC) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_bookings_doctor_time",
			query: `CREATE INDEX IF NOT EXISTS idx_bookings_doctor_time ON bookings (doctor_id, appointment_at DESC) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_slots_doctor_open",
			query: `CREATE INDEX IF NOT EXISTS idx_slots_doctor_open ON slots (doctor_id, start_time) WHERE is_available`,
		},
		{
			name:  "idx_chat_messages_unread",
			query: `CREATE INDEX IF NOT EXISTS idx_chat_messages_unread ON chat_messages (session_id, sender_id) WHERE NOT is_read`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("creating index %s: %w", idx.name, err)
		}
	}

	return nil
}
