package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_occupancy/internal/adapters/observability"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/occupancy"
)

// CreateBooking is the input of BookingService.Create and CheckConflict.
type CreateBooking struct {
	ID               string
	GuestID          string
	RoomType         string
	RoomNumber       string
	CheckIn          time.Time
	CheckOut         time.Time
	Status           domain.Status
	RatePerNight     decimal.Decimal
	AllowOverbooking bool
}

// ConflictCheck is the dry-run answer for a prospective booking.
type ConflictCheck struct {
	Scope          string                `json:"scope"`
	Conflict       domain.ConflictResult `json:"conflict"`
	OverbookedDays []domain.OccupancyDay `json:"overbooked_days"`
	Blocked        bool                  `json:"blocked"`
}

// BookingService owns the write-side booking policy:
// a booking with a room number may never overlap another booking of that room;
// a room-type booking is refused when it would push any night past inventory,
// unless the caller explicitly allows overbooking.
type BookingService struct {
	store domain.BookingStore
	inv   domain.Inventory
	cache domain.Cache
}

func NewBookingService(store domain.BookingStore, inv domain.Inventory, cache domain.Cache) *BookingService {
	return &BookingService{store: store, inv: inv, cache: cache}
}

func (s *BookingService) Create(ctx context.Context, req CreateBooking) (domain.Booking, error) {
	b, total, err := s.candidate(req)
	if err != nil {
		return domain.Booking{}, err
	}
	switch b.Status {
	case domain.StatusPending, domain.StatusConfirmed, domain.StatusCheckedIn:
	default:
		return domain.Booking{}, fmt.Errorf("%w: cannot create a booking as %s", domain.ErrInvalidBooking, b.Status)
	}

	out, err := s.store.InsertBooking(ctx, b, s.guard(total, req.AllowOverbooking))
	if err != nil {
		return domain.Booking{}, err
	}
	log.Info().
		Str("booking_id", out.ID).
		Str("room_type", out.RoomType).
		Str("stay", out.Stay().String()).
		Msg("booking created")
	bumpReportGeneration(ctx, s.cache)
	return out, nil
}

// CheckConflict evaluates req against current bookings without writing.
func (s *BookingService) CheckConflict(ctx context.Context, req CreateBooking) (ConflictCheck, error) {
	b, total, err := s.candidate(req)
	if err != nil {
		return ConflictCheck{}, err
	}
	stay := b.Stay()
	existing, err := s.store.ListBookings(ctx, domain.BookingFilter{
		RoomType: &b.RoomType,
		Range:    &stay,
		Statuses: []domain.Status{domain.StatusPending, domain.StatusConfirmed, domain.StatusCheckedIn},
	})
	if err != nil {
		return ConflictCheck{}, err
	}

	scope := occupancy.ScopeFor(b)
	res, err := occupancy.DetectConflict(scope.Filter(existing, b), b)
	if err != nil {
		return ConflictCheck{}, err
	}
	over, err := occupancy.OverbookedDays(existing, b, total)
	if err != nil {
		return ConflictCheck{}, err
	}
	blocked := (scope == occupancy.ScopeRoom && res.Conflict()) ||
		(len(over) > 0 && !req.AllowOverbooking)
	return ConflictCheck{Scope: scope.String(), Conflict: res, OverbookedDays: over, Blocked: blocked}, nil
}

// UpdateStatus moves a booking through its lifecycle. Confirming a pending
// booking re-runs the Create guard.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, to domain.Status, allowOverbooking bool) (domain.Booking, error) {
	cur, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	// imported bookings may carry a room type with no configured capacity
	var guard domain.InsertGuard
	if total, err := s.inv.TotalRooms(cur.RoomType); err == nil {
		guard = s.guard(total, allowOverbooking)
	}
	out, err := s.store.UpdateBookingStatus(ctx, id, to, guard)
	if err != nil {
		return domain.Booking{}, err
	}
	log.Info().Str("booking_id", id).Str("status", string(to)).Msg("booking status updated")
	bumpReportGeneration(ctx, s.cache)
	return out, nil
}

// AmendDates moves a booking's stay, re-running the same guard as Create.
func (s *BookingService) AmendDates(ctx context.Context, id string, stay domain.DateRange, allowOverbooking bool) (domain.Booking, error) {
	if err := stay.Validate(); err != nil {
		return domain.Booking{}, err
	}
	cur, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	total, err := s.inv.TotalRooms(cur.RoomType)
	if err != nil {
		return domain.Booking{}, err
	}
	out, err := s.store.AmendBookingDates(ctx, id, stay, s.guard(total, allowOverbooking))
	if err != nil {
		return domain.Booking{}, err
	}
	log.Info().Str("booking_id", id).Str("stay", out.Stay().String()).Msg("booking dates amended")
	bumpReportGeneration(ctx, s.cache)
	return out, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (domain.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	if f.Range != nil {
		if err := f.Range.Validate(); err != nil {
			return nil, err
		}
	}
	return s.store.ListBookings(ctx, f)
}

// candidate builds the validated booking for req; a zero rate takes the
// room type's base rate.
func (s *BookingService) candidate(req CreateBooking) (domain.Booking, int, error) {
	cfg, ok := s.inv[req.RoomType]
	if !ok {
		return domain.Booking{}, 0, fmt.Errorf("%w: %q", domain.ErrUnknownRoomType, req.RoomType)
	}
	status := req.Status
	if status == "" {
		status = domain.StatusPending
	}
	rate := req.RatePerNight
	if rate.IsZero() {
		rate = cfg.BaseRate
	}
	b, err := domain.NewBooking(req.ID, req.GuestID, req.RoomType, req.CheckIn, req.CheckOut, status, rate)
	if err != nil {
		return domain.Booking{}, 0, err
	}
	b.RoomNumber = req.RoomNumber
	return b, cfg.Rooms, nil
}

// guard runs inside the store's critical section for the room type.
func (s *BookingService) guard(totalRooms int, allowOverbooking bool) domain.InsertGuard {
	return func(existing []domain.Booking, c domain.Booking) error {
		if occupancy.ScopeFor(c) == occupancy.ScopeRoom {
			res, err := occupancy.DetectConflict(occupancy.ScopeRoom.Filter(existing, c), c)
			if err != nil {
				return err
			}
			if res.Conflict() {
				observability.ObserveConflict(c.RoomType, occupancy.ScopeRoom.String(), "rejected")
				return &domain.ConflictError{RoomType: c.RoomType, BookingIDs: res.BookingIDs}
			}
		}

		over, err := occupancy.OverbookedDays(existing, c, totalRooms)
		if err != nil {
			return err
		}
		if len(over) == 0 {
			return nil
		}
		if allowOverbooking {
			observability.ObserveConflict(c.RoomType, occupancy.ScopeRoomType.String(), "overbooked")
			log.Warn().
				Str("room_type", c.RoomType).
				Int("nights", len(over)).
				Str("first_night", over[0].Date.Format(domain.DateLayout)).
				Msg("booking accepted as overbooking")
			return nil
		}
		res, err := occupancy.DetectConflict(occupancy.ScopeRoomType.Filter(existing, c), c)
		if err != nil {
			return err
		}
		observability.ObserveConflict(c.RoomType, occupancy.ScopeRoomType.String(), "rejected")
		return &domain.ConflictError{RoomType: c.RoomType, BookingIDs: res.BookingIDs}
	}
}
