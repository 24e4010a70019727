package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/medbook-api/internal/config"
	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/domain/booking"
	"github.com/medbook/medbook-api/internal/domain/chat"
	"github.com/medbook/medbook-api/internal/domain/doctor"
	"github.com/medbook/medbook-api/pkg/auth"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-1234",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "medbook-test",
	})
}

func testAuditService() *AuditService {
	return NewAuditService(&fakeAuditRepo{}, zap.NewNop(), nil)
}

type fakeAuditRepo struct {
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyUsed
		}
	}
	f.add(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id uuid.UUID, cmd *domain.UpdateUserCommand) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if cmd.Name != nil {
		u.Name = *cmd.Name
	}
	if cmd.Phone != nil {
		u.Phone = *cmd.Phone
	}
	if cmd.Gender != nil {
		u.Gender = *cmd.Gender
	}
	if cmd.Address != nil {
		u.Address = *cmd.Address
	}
	if cmd.DateOfBirth != nil {
		u.DateOfBirth = cmd.DateOfBirth
	}
	return u, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsActive = false
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, q *domain.ListUsersQuery) (*domain.PagedUsers, error) {
	var out []*domain.User
	for _, u := range f.users {
		if q.Role != nil && u.Role != *q.Role {
			continue
		}
		out = append(out, u)
	}
	return &domain.PagedUsers{Users: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize}, nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*doctor.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*doctor.Doctor)}
}

func (f *fakeDoctorRepo) add(d *doctor.Doctor) *doctor.Doctor {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.doctors[d.ID] = d
	return d
}

func (f *fakeDoctorRepo) Register(_ context.Context, u *domain.User, d *doctor.Doctor) error {
	for _, existing := range f.doctors {
		if existing.LicenseNumber == d.LicenseNumber {
			return doctor.ErrLicenseAlreadyUsed
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	d.UserID = u.ID
	f.add(d)
	return nil
}

func (f *fakeDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (f *fakeDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	for _, d := range f.doctors {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (f *fakeDoctorRepo) Update(_ context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if cmd.Specialty != nil {
		d.Specialty = *cmd.Specialty
	}
	if cmd.ConsultationFeeCents != nil {
		d.ConsultationFeeCents = *cmd.ConsultationFeeCents
	}
	if cmd.IsAvailable != nil {
		d.IsAvailable = *cmd.IsAvailable
	}
	if cmd.Bio != nil {
		d.Bio = *cmd.Bio
	}
	return d, nil
}

func (f *fakeDoctorRepo) List(_ context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	var out []*doctor.Doctor
	for _, d := range f.doctors {
		if !d.Bookable() {
			continue
		}
		if q.Specialty != "" && d.Specialty != q.Specialty {
			continue
		}
		out = append(out, d)
	}
	return &doctor.PagedDoctors{Doctors: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeDoctorRepo) SetVerified(_ context.Context, id uuid.UUID, verified bool) (*doctor.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	d.IsVerified = verified
	return d, nil
}

func (f *fakeDoctorRepo) ExistsByLicense(_ context.Context, licenseNumber string) (bool, error) {
	for _, d := range f.doctors {
		if d.LicenseNumber == licenseNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDoctorRepo) CountBySpecialty(_ context.Context, specialty string) (int64, error) {
	var n int64
	for _, d := range f.doctors {
		if d.Specialty == specialty {
			n++
		}
	}
	return n, nil
}

type fakeBookingRepo struct {
	bookings map[uuid.UUID]*booking.Booking
	slots    *fakeSlotRepo
}

func newFakeBookingRepo(slots *fakeSlotRepo) *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*booking.Booking), slots: slots}
}

func (f *fakeBookingRepo) Reserve(_ context.Context, b *booking.Booking) error {
	if b.SlotID != nil {
		slot, ok := f.slots.slots[*b.SlotID]
		if !ok {
			return booking.ErrSlotNotFound
		}
		if slot.DoctorID != b.DoctorID {
			return booking.ErrSlotNotFound
		}
		if !slot.IsAvailable {
			return booking.ErrSlotUnavailable
		}
		for _, existing := range f.bookings {
			if existing.SlotID != nil && *existing.SlotID == *b.SlotID && existing.Status.Live() {
				return booking.ErrSlotConflict
			}
		}
		slot.IsAvailable = false
	}
	b.ID = uuid.New()
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeBookingRepo) visible(b *booking.Booking, scope booking.Scope) bool {
	switch scope.Role {
	case domain.RolePatient:
		return b.PatientID == scope.PatientID
	case domain.RoleDoctor:
		return scope.DoctorID != nil && b.DoctorID == *scope.DoctorID
	case domain.RoleAdmin:
		return true
	}
	return false
}

func (f *fakeBookingRepo) Get(_ context.Context, id uuid.UUID, scope booking.Scope) (*booking.Booking, error) {
	b, ok := f.bookings[id]
	if !ok || !f.visible(b, scope) {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) Update(_ context.Context, b *booking.Booking) (*booking.Booking, error) {
	if _, ok := f.bookings[b.ID]; !ok {
		return nil, booking.ErrBookingNotFound
	}
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeBookingRepo) CancelAndRelease(_ context.Context, b *booking.Booking) error {
	if _, ok := f.bookings[b.ID]; !ok {
		return booking.ErrBookingNotFound
	}
	f.bookings[b.ID] = b
	if b.SlotID != nil {
		if slot, ok := f.slots.slots[*b.SlotID]; ok {
			slot.IsAvailable = true
		}
	}
	return nil
}

func (f *fakeBookingRepo) List(_ context.Context, q *booking.ListBookingsQuery) (*booking.PagedBookings, error) {
	var out []*booking.Booking
	for _, b := range f.bookings {
		if !f.visible(b, q.Scope) {
			continue
		}
		if q.Status != nil && b.Status != *q.Status {
			continue
		}
		out = append(out, b)
	}
	return &booking.PagedBookings{Bookings: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeBookingRepo) Stats(_ context.Context, scope booking.Scope) (*booking.Stats, error) {
	stats := &booking.Stats{}
	for _, b := range f.bookings {
		if !f.visible(b, scope) {
			continue
		}
		stats.Total++
		switch b.Status {
		case booking.StatusPending:
			stats.Pending++
		case booking.StatusConfirmed:
			stats.Confirmed++
		case booking.StatusCompleted:
			stats.Completed++
		case booking.StatusCancelled:
			stats.Cancelled++
		case booking.StatusNoShow:
			stats.NoShow++
		}
	}
	return stats, nil
}

func (f *fakeBookingRepo) DoctorStats(_ context.Context, doctorID uuid.UUID) (int64, float64, *booking.Stats, error) {
	stats := &booking.Stats{}
	var revenue int64
	var ratingSum, rated int
	for _, b := range f.bookings {
		if b.DoctorID != doctorID {
			continue
		}
		stats.Total++
		switch b.Status {
		case booking.StatusPending:
			stats.Pending++
		case booking.StatusCompleted:
			stats.Completed++
			if b.PaymentStatus == booking.PaymentCompleted {
				revenue += b.TotalAmountCents
			}
			if b.Rating != nil {
				ratingSum += *b.Rating
				rated++
			}
		}
	}
	var avg float64
	if rated > 0 {
		avg = float64(ratingSum) / float64(rated)
	}
	return revenue, avg, stats, nil
}

type fakeSlotRepo struct {
	slots map[uuid.UUID]*booking.Slot
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[uuid.UUID]*booking.Slot)}
}

func (f *fakeSlotRepo) add(s *booking.Slot) *booking.Slot {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.slots[s.ID] = s
	return s
}

func (f *fakeSlotRepo) Create(_ context.Context, s *booking.Slot) error {
	f.add(s)
	return nil
}

func (f *fakeSlotRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, from time.Time, availableOnly bool) ([]*booking.Slot, error) {
	var out []*booking.Slot
	for _, s := range f.slots {
		if s.DoctorID != doctorID || s.StartTime.Before(from) {
			continue
		}
		if availableOnly && !s.IsAvailable {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeChatRepo struct {
	sessions map[uuid.UUID]*chat.Session
	messages map[uuid.UUID]*chat.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		sessions: make(map[uuid.UUID]*chat.Session),
		messages: make(map[uuid.UUID]*chat.Message),
	}
}

func (f *fakeChatRepo) CreateSession(_ context.Context, s *chat.Session) error {
	s.ID = uuid.New()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeChatRepo) GetSession(_ context.Context, id uuid.UUID) (*chat.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, chat.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeChatRepo) EndSession(_ context.Context, s *chat.Session) error {
	if _, ok := f.sessions[s.ID]; !ok {
		return chat.ErrSessionNotFound
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeChatRepo) ListSessionsByUser(_ context.Context, userID uuid.UUID, page, pageSize int) ([]*chat.Session, int64, error) {
	var out []*chat.Session
	for _, s := range f.sessions {
		if s.HasParticipant(userID) {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeChatRepo) CreateMessage(_ context.Context, m *chat.Message) error {
	m.ID = uuid.New()
	f.messages[m.ID] = m
	return nil
}

func (f *fakeChatRepo) GetMessage(_ context.Context, id uuid.UUID) (*chat.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	return m, nil
}

func (f *fakeChatRepo) DeleteMessage(_ context.Context, id uuid.UUID) error {
	if _, ok := f.messages[id]; !ok {
		return chat.ErrMessageNotFound
	}
	delete(f.messages, id)
	return nil
}

func (f *fakeChatRepo) ListMessages(_ context.Context, q *chat.ListMessagesQuery) (*chat.PagedMessages, error) {
	var out []*chat.Message
	for _, m := range f.messages {
		if m.SessionID == q.SessionID {
			out = append(out, m)
		}
	}
	return &chat.PagedMessages{Messages: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeChatRepo) MarkRead(_ context.Context, sessionID, readerID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range f.messages {
		if m.SessionID == sessionID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeChatRepo) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range f.messages {
		session, ok := f.sessions[m.SessionID]
		if !ok || session.Status != chat.SessionActive {
			continue
		}
		if session.HasParticipant(userID) && m.SenderID != userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}
