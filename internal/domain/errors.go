package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidBooking  = errors.New("invalid booking")
	ErrUnknownRoomType = errors.New("unknown room type")
)

// InvalidRangeError is returned for a date range whose start is not before its end.
type InvalidRangeError struct {
	Start, End time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is not before end %s",
		e.Start.Format(DateLayout), e.End.Format(DateLayout))
}

// InvalidTransitionError names the rejected status change.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// ConflictError lists every booking that overlaps a rejected write.
type ConflictError struct {
	RoomType   string
	BookingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with %d existing booking(s) for %s: %s",
		len(e.BookingIDs), e.RoomType, strings.Join(e.BookingIDs, ", "))
}
