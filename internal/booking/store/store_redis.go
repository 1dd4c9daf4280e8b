package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carewatch/internal/booking/models"
	"carewatch/pkg/domain"
)

const (
	bookingKeyPrefix = "carewatch:booking:"
	slotKeyPrefix    = "carewatch:slot:"
)

// reserveScript claims the slot key with SETNX and writes the booking in the
// same atomic step.
var reserveScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

// cancelScript returns {0} when the booking is missing, {1, booking} when it
// was already cancelled and {2, booking} after cancelling it. The slot key
// is released only while it still points at this booking.
var cancelScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {0}
end
local b = cjson.decode(raw)
if b.status == 'cancelled' then
  return {1, raw}
end
b.status = 'cancelled'
b.cancelled_at = ARGV[1]
local out = cjson.encode(b)
redis.call('SET', KEYS[1], out)
local slot = ARGV[2] .. b.institution_id .. ':' .. b.visit_date .. ':' .. b.time_slot
if redis.call('GET', slot) == b.id then
  redis.call('DEL', slot)
end
return {2, out}
`)

// Redis keeps each booking as JSON under carewatch:booking:<id> and guards
// each slot with carewatch:slot:<institution>:<date>:<slot> holding the id
// of the confirmed booking.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func bookingKey(id domain.BookingID) string {
	return bookingKeyPrefix + id.String()
}

func slotKey(institutionID domain.InstitutionID, date domain.Date, slot models.TimeSlot) string {
	return slotKeyPrefix + institutionID.String() + ":" + date.String() + ":" + string(slot)
}

func (s *Redis) Reserve(ctx context.Context, b *models.Booking) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	keys := []string{slotKey(b.InstitutionID, b.VisitDate, b.TimeSlot), bookingKey(b.ID)}
	n, err := reserveScript.Run(ctx, s.client, keys, b.ID.String(), payload).Int()
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Redis) BookedSlots(ctx context.Context, institutionID domain.InstitutionID, date domain.Date) ([]models.TimeSlot, error) {
	all := models.FullSlotSet()
	keys := make([]string, len(all))
	for i, slot := range all {
		keys[i] = slotKey(institutionID, date, slot)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read slot keys: %w", err)
	}
	var booked []models.TimeSlot
	for i, v := range vals {
		if v != nil {
			booked = append(booked, all[i])
		}
	}
	return booked, nil
}

func (s *Redis) FindByID(ctx context.Context, id domain.BookingID) (*models.Booking, error) {
	raw, err := s.client.Get(ctx, bookingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return decodeBooking(raw)
}

func (s *Redis) Cancel(ctx context.Context, id domain.BookingID, at time.Time) (*models.Booking, bool, error) {
	res, err := cancelScript.Run(ctx, s.client, []string{bookingKey(id)},
		at.UTC().Format(time.RFC3339Nano), slotKeyPrefix).Slice()
	if err != nil {
		return nil, false, fmt.Errorf("cancel booking: %w", err)
	}
	code, _ := res[0].(int64)
	if code == 0 {
		return nil, false, ErrNotFound
	}
	raw, _ := res[1].(string)
	b, err := decodeBooking([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return b, code == 2, nil
}

func decodeBooking(raw []byte) (*models.Booking, error) {
	var b models.Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode booking: %w", err)
	}
	return &b, nil
}
