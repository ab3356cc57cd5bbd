package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotel_occupancy/internal/domain"
)

/********** alias registries (single source of truth) **********/

var bookingAliases = map[string][]string{
	"id":          {"id", "booking_id", "bookingId"},
	"guest":       {"guest_id", "user_id", "userId", "guest.id", "user.id"},
	"room_type":   {"room_type", "roomType", "room.type", "room_type_name"},
	"room_number": {"room_number", "roomNumber", "room.number", "room_no"},
	"check_in":    {"check_in_date", "check_in", "checkIn", "checkin", "arrival_date"},
	"check_out":   {"check_out_date", "check_out", "checkOut", "checkout", "departure_date"},
	"status":      {"status", "booking_status"},
	"rate":        {"rate_per_night", "nightly_rate", "price_per_night", "rate"},
	"created_at":  {"created_at", "createdAt", "inserted_at"},
}

var orderAliases = map[string][]string{
	"id":     {"id", "order_id", "orderId"},
	"date":   {"created_at", "order_date", "scheduled_for", "pickup_time", "date"},
	"amount": {"total_amount", "amount", "total", "price"},
	"status": {"status", "order_status"},
}

// orderKinds maps backend tables to Order.Kind.
var orderKinds = map[string]string{
	"orders":           "order",
	"room_service":     "room_service",
	"shuttle_bookings": "shuttle",
}

// defaultBookingStatus matches what the backend assigns on insert.
const defaultBookingStatus = domain.StatusConfirmed

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// scalarStr renders strings and JSON numbers as text; anything else is "".
func scalarStr(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

// firstNonEmptyAlias: first non-empty scalar for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := scalarStr(lookupAny(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// decimalFlexible: money from several paths (float64/int/string like "12,50").
// ok is false when a value is present but unparsable.
func decimalFlexible(m map[string]any, paths ...string) (d decimal.Decimal, found, ok bool) {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			return decimal.NewFromFloat(v), true, true
		case int:
			return decimal.NewFromInt(int64(v)), true, true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return decimal.Zero, true, false
			}
			return d, true, true
		}
	}
	return decimal.Zero, false, true
}

func timeAlias(m map[string]any, aliases map[string][]string, key string) (time.Time, error) {
	s := firstNonEmptyAlias(m, aliases, key)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing %s", key)
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s %q", key, s)
	}
	return t, nil
}

/********** booking mapper **********/

// mapBooking turns a backend bookings row into a validated Booking.
// Rows without a room type get defaultRoomType.
func mapBooking(row map[string]any, defaultRoomType string) (domain.Booking, error) {
	id := firstNonEmptyAlias(row, bookingAliases, "id")
	if id == "" {
		return domain.Booking{}, fmt.Errorf("%w: missing id", domain.ErrInvalidBooking)
	}
	in, err := timeAlias(row, bookingAliases, "check_in")
	if err != nil {
		return domain.Booking{}, fmt.Errorf("%w: %v", domain.ErrInvalidBooking, err)
	}
	out, err := timeAlias(row, bookingAliases, "check_out")
	if err != nil {
		return domain.Booking{}, fmt.Errorf("%w: %v", domain.ErrInvalidBooking, err)
	}

	status := defaultBookingStatus
	if s := firstNonEmptyAlias(row, bookingAliases, "status"); s != "" {
		if status, err = domain.ParseStatus(s); err != nil {
			return domain.Booking{}, err
		}
	}

	rate, _, ok := decimalFlexible(row, bookingAliases["rate"]...)
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: bad rate", domain.ErrInvalidBooking)
	}

	roomType := firstNonEmptyAlias(row, bookingAliases, "room_type")
	if roomType == "" {
		roomType = defaultRoomType
	}

	b, err := domain.NewBooking(id, firstNonEmptyAlias(row, bookingAliases, "guest"), roomType, in, out, status, rate)
	if err != nil {
		return domain.Booking{}, err
	}
	b.RoomNumber = firstNonEmptyAlias(row, bookingAliases, "room_number")
	if s := firstNonEmptyAlias(row, bookingAliases, "created_at"); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			b.CreatedAt = t.UTC()
		}
	}
	return b, nil
}

/********** order mapper **********/

// mapOrder turns a row of one of the order tables into an Order.
func mapOrder(resource string, row map[string]any) (domain.Order, error) {
	kind, ok := orderKinds[resource]
	if !ok {
		return domain.Order{}, fmt.Errorf("unknown order resource %q", resource)
	}
	id := firstNonEmptyAlias(row, orderAliases, "id")
	if id == "" {
		return domain.Order{}, fmt.Errorf("missing id")
	}
	date, err := timeAlias(row, orderAliases, "date")
	if err != nil {
		return domain.Order{}, err
	}
	amount, found, ok := decimalFlexible(row, orderAliases["amount"]...)
	switch {
	case !ok:
		return domain.Order{}, fmt.Errorf("bad amount")
	case !found:
		return domain.Order{}, fmt.Errorf("missing amount")
	case amount.IsNegative():
		return domain.Order{}, fmt.Errorf("negative amount %s", amount)
	}
	status := strings.ToLower(firstNonEmptyAlias(row, orderAliases, "status"))
	if status == "" {
		status = "pending"
	}
	return domain.Order{ID: id, Kind: kind, Date: date, Amount: amount, Status: status}, nil
}

// rowID is a best-effort identifier for reject logging.
func rowID(resource string, row map[string]any) string {
	aliases := orderAliases
	if resource == bookingsResource {
		aliases = bookingAliases
	}
	if id := firstNonEmptyAlias(row, aliases, "id"); id != "" {
		return id
	}
	return "unknown"
}
