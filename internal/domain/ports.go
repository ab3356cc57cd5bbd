package domain

import "context"

// InsertGuard runs inside the store's per-room-type critical section with the
// non-cancelled bookings of the candidate's room type that overlap its stay.
// A non-nil error aborts the write and is returned unchanged.
type InsertGuard func(existing []Booking, candidate Booking) error

type BookingStore interface {
	// Write paths
	InsertBooking(ctx context.Context, b Booking, guard InsertGuard) (Booking, error)
	// UpdateBookingStatus runs guard only when the booking starts holding a
	// room (pending to confirmed).
	UpdateBookingStatus(ctx context.Context, id string, to Status, guard InsertGuard) (Booking, error)
	AmendBookingDates(ctx context.Context, id string, stay DateRange, guard InsertGuard) (Booking, error)
	UpsertBookings(ctx context.Context, bs []Booking) error

	// Read paths
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
}

type OrderFeed interface {
	ListOrders(ctx context.Context, r DateRange) ([]Order, error)
}

type OrderStore interface {
	OrderFeed
	UpsertOrders(ctx context.Context, os []Order) error
}

// RejectLog records backend rows that failed validation during import.
type RejectLog interface {
	LogReject(ctx context.Context, resource, sourceID, reason string) error
}

// BackendClient reads raw rows from the hosted backend's REST interface.
type BackendClient interface {
	ListRows(ctx context.Context, resource string, q RowQuery) ([]map[string]any, error)
}

type RowQuery struct {
	// Filters are PostgREST-style column filters, e.g. {"check_in_date": "lt.2025-07-01"}.
	Filters map[string]string
	Limit   int
	Offset  int
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
}
