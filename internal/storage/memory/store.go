// Package memory is an in-process booking store. Writers are serialized by a
// single mutex, so a write guard always sees every committed booking.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hotel_occupancy/internal/domain"
)

type Reject struct {
	Resource, SourceID, Reason string
}

type Store struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
	orders   map[string]domain.Order
	rejects  []Reject
	now      func() time.Time
}

func New() *Store {
	return &Store{
		bookings: make(map[string]domain.Booking),
		orders:   make(map[string]domain.Order),
		now:      time.Now,
	}
}

func (s *Store) InsertBooking(ctx context.Context, b domain.Booking, guard domain.InsertGuard) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}
	if err := b.Validate(); err != nil {
		return domain.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, exists := s.bookings[b.ID]; exists {
		return domain.Booking{}, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidBooking, b.ID)
	}
	if guard != nil {
		if err := guard(s.overlapping(b), b); err != nil {
			return domain.Booking{}, err
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id string, to domain.Status, guard domain.InsertGuard) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err := domain.Transition(b.Status, to); err != nil {
		return domain.Booking{}, err
	}
	next := b
	next.Status = to
	if guard != nil && !b.Status.Occupying() && to.Occupying() {
		if err := guard(s.overlapping(next), next); err != nil {
			return domain.Booking{}, err
		}
	}
	s.bookings[id] = next
	return next, nil
}

func (s *Store) AmendBookingDates(ctx context.Context, id string, stay domain.DateRange, guard domain.InsertGuard) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	if cur.Status.Terminal() {
		return domain.Booking{}, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidBooking, id, cur.Status)
	}
	next := cur
	next.CheckIn, next.CheckOut = domain.DateOf(stay.Start), domain.DateOf(stay.End)
	if err := next.Validate(); err != nil {
		return domain.Booking{}, err
	}
	if guard != nil {
		if err := guard(s.overlapping(next), next); err != nil {
			return domain.Booking{}, err
		}
	}
	s.bookings[id] = next
	return next, nil
}

func (s *Store) UpsertBookings(ctx context.Context, bs []domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bs {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now().UTC()
		}
		s.bookings[b.ID] = b
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Booking
	for _, b := range s.bookings {
		if f.RoomType != nil && b.RoomType != *f.RoomType {
			continue
		}
		if f.Range != nil && !b.Stay().Overlaps(*f.Range) {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, b.Status) {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

func (s *Store) ListOrders(ctx context.Context, r domain.DateRange) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if r.Contains(o.Date) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpsertOrders(ctx context.Context, os []domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range os {
		s.orders[o.Kind+":"+o.ID] = o
	}
	return nil
}

func (s *Store) LogReject(ctx context.Context, resource, sourceID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects = append(s.rejects, Reject{Resource: resource, SourceID: sourceID, Reason: reason})
	return nil
}

func (s *Store) Rejects() []Reject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Reject(nil), s.rejects...)
}

// overlapping must be called with mu held.
func (s *Store) overlapping(c domain.Booking) []domain.Booking {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.ID == c.ID || b.RoomType != c.RoomType || b.Status == domain.StatusCancelled {
			continue
		}
		if b.Stay().Overlaps(c.Stay()) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

func hasStatus(in []domain.Status, st domain.Status) bool {
	for _, x := range in {
		if x == st {
			return true
		}
	}
	return false
}

func sortBookings(bs []domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].CheckIn.Equal(bs[j].CheckIn) {
			return bs[i].CheckIn.Before(bs[j].CheckIn)
		}
		return bs[i].ID < bs[j].ID
	})
}
