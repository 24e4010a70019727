package booking

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusNoShow, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusNoShow, StatusConfirmed, false},
	}

	for _, tc := range cases {
		b := &Booking{Status: tc.from}
		if got := b.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("transition %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCancelFromPending(t *testing.T) {
	by := uuid.New()
	b := &Booking{Status: StatusPending}

	if err := b.Cancel(by); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if b.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", b.Status)
	}
	if b.CancelledAt == nil {
		t.Error("CancelledAt not set")
	}
	if b.CancelledBy == nil || *b.CancelledBy != by {
		t.Error("CancelledBy not recorded")
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	b := &Booking{Status: StatusPending}
	if err := b.Cancel(uuid.New()); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}

	err := b.Cancel(uuid.New())
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("second Cancel: got %v, want ErrAlreadyCancelled", err)
	}
}

func TestCancelCompleted(t *testing.T) {
	b := &Booking{Status: StatusCompleted}
	if err := b.Cancel(uuid.New()); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("got %v, want ErrAlreadyCompleted", err)
	}
}

func TestCancelNoShow(t *testing.T) {
	b := &Booking{Status: StatusNoShow}
	if err := b.Cancel(uuid.New()); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("got %v, want ErrInvalidStatusTransition", err)
	}
}

func TestStatusLive(t *testing.T) {
	live := map[Status]bool{
		StatusPending:   true,
		StatusConfirmed: true,
		StatusCancelled: false,
		StatusCompleted: false,
		StatusNoShow:    false,
	}
	for status, want := range live {
		if got := status.Live(); got != want {
			t.Errorf("%s.Live() = %v, want %v", status, got, want)
		}
	}
}

func TestConsultationTypeIsValid(t *testing.T) {
	if !ConsultationOnline.IsValid() || !ConsultationOffline.IsValid() {
		t.Error("online/offline must be valid")
	}
	if ConsultationType("video").IsValid() {
		t.Error("unknown type must be invalid")
	}
}
