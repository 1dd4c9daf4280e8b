package store

import (
	"context"
	"sync"
	"time"

	"carewatch/internal/booking/models"
	"carewatch/pkg/domain"
	"carewatch/pkg/platform/shardlock"
)

// day holds every booking for one (institution, date) key. It is only
// touched while that key's shard lock is held.
type day struct {
	bookings []*models.Booking
}

func (d *day) confirmedIn(slot models.TimeSlot) *models.Booking {
	for _, b := range d.bookings {
		if b.TimeSlot == slot && b.IsConfirmed() {
			return b
		}
	}
	return nil
}

func (d *day) find(id domain.BookingID) *models.Booking {
	for _, b := range d.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// InMemory serializes check-and-reserve per (institution, date) key through
// a sharded lock. Different keys proceed in parallel.
type InMemory struct {
	locks *shardlock.Locker
	days  sync.Map // slot key -> *day
	index sync.Map // booking id -> slot key
}

func NewInMemory() *InMemory {
	return &InMemory{locks: shardlock.New(shardlock.DefaultTimeout)}
}

func (s *InMemory) day(key string) *day {
	d, _ := s.days.LoadOrStore(key, &day{})
	return d.(*day)
}

// Reserve stores b unless a confirmed booking already holds its slot.
func (s *InMemory) Reserve(ctx context.Context, b *models.Booking) error {
	key := b.Key()
	return s.locks.WithKey(ctx, key, func() error {
		d := s.day(key)
		if d.confirmedIn(b.TimeSlot) != nil {
			return ErrConflict
		}
		d.bookings = append(d.bookings, b.Clone())
		s.index.Store(b.ID, key)
		return nil
	})
}

func (s *InMemory) BookedSlots(ctx context.Context, institutionID domain.InstitutionID, date domain.Date) ([]models.TimeSlot, error) {
	key := models.SlotKey(institutionID, date)
	var booked []models.TimeSlot
	err := s.locks.WithKey(ctx, key, func() error {
		v, ok := s.days.Load(key)
		if !ok {
			return nil
		}
		for _, b := range v.(*day).bookings {
			if b.IsConfirmed() {
				booked = append(booked, b.TimeSlot)
			}
		}
		return nil
	})
	return booked, err
}

func (s *InMemory) FindByID(ctx context.Context, id domain.BookingID) (*models.Booking, error) {
	var out *models.Booking
	err := s.withBooking(ctx, id, func(b *models.Booking) {
		out = b.Clone()
	})
	return out, err
}

// Cancel marks the booking cancelled and frees its slot. changed is false
// when the booking was already cancelled.
func (s *InMemory) Cancel(ctx context.Context, id domain.BookingID, at time.Time) (*models.Booking, bool, error) {
	var (
		out     *models.Booking
		changed bool
	)
	err := s.withBooking(ctx, id, func(b *models.Booking) {
		changed = b.Cancel(at)
		out = b.Clone()
	})
	return out, changed, err
}

func (s *InMemory) withBooking(ctx context.Context, id domain.BookingID, fn func(*models.Booking)) error {
	k, ok := s.index.Load(id)
	if !ok {
		return ErrNotFound
	}
	key := k.(string)
	return s.locks.WithKey(ctx, key, func() error {
		b := s.day(key).find(id)
		if b == nil {
			return ErrNotFound
		}
		fn(b)
		return nil
	})
}
