package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// transitions lists the allowed next states; terminal states have none.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:  {StatusCheckedOut, StatusCancelled},
	StatusCheckedOut: nil,
	StatusCancelled:  nil,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidBooking, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool { return s.Valid() && len(transitions[s]) == 0 }

// Occupying reports whether a booking in this status holds a room for occupancy.
func (s Status) Occupying() bool { return s == StatusConfirmed || s == StatusCheckedIn }

// Transition validates from -> to. It does not persist anything.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

type Booking struct {
	ID           string          `json:"id"`
	GuestID      string          `json:"guest_id"`
	RoomType     string          `json:"room_type"`
	RoomNumber   string          `json:"room_number,omitempty"`
	CheckIn      time.Time       `json:"check_in"`
	CheckOut     time.Time       `json:"check_out"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	RatePerNight decimal.Decimal `json:"rate_per_night"`
}

// NewBooking normalizes the stay to calendar dates and validates the result.
func NewBooking(id, guestID, roomType string, checkIn, checkOut time.Time, status Status, rate decimal.Decimal) (Booking, error) {
	b := Booking{
		ID:           id,
		GuestID:      guestID,
		RoomType:     strings.TrimSpace(roomType),
		CheckIn:      DateOf(checkIn),
		CheckOut:     DateOf(checkOut),
		Status:       status,
		RatePerNight: rate,
	}
	if err := b.Validate(); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (b Booking) Validate() error {
	if b.RoomType == "" {
		return fmt.Errorf("%w: room type is required", ErrInvalidBooking)
	}
	if !DateOf(b.CheckOut).After(DateOf(b.CheckIn)) {
		return fmt.Errorf("%w: check-out %s must be after check-in %s", ErrInvalidBooking,
			b.CheckOut.Format(DateLayout), b.CheckIn.Format(DateLayout))
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidBooking, b.Status)
	}
	if b.RatePerNight.IsNegative() {
		return fmt.Errorf("%w: negative rate %s", ErrInvalidBooking, b.RatePerNight)
	}
	return nil
}

func (b Booking) Stay() DateRange { return DateRange{Start: DateOf(b.CheckIn), End: DateOf(b.CheckOut)} }

func (b Booking) Nights() int { return b.Stay().Days() }

// Overlaps is the half-open interval test; cancelled bookings never overlap anything.
func (b Booking) Overlaps(o Booking) bool {
	if b.Status == StatusCancelled || o.Status == StatusCancelled {
		return false
	}
	return b.Stay().Overlaps(o.Stay())
}

// ConflictResult is empty when nothing overlaps the candidate.
type ConflictResult struct {
	BookingIDs []string `json:"conflicting_booking_ids"`
}

func (r ConflictResult) Conflict() bool { return len(r.BookingIDs) > 0 }

type BookingFilter struct {
	RoomType *string
	Range    *DateRange
	Statuses []Status
}
