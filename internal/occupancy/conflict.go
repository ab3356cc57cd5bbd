package occupancy

import (
	"fmt"
	"sort"

	"hotel_occupancy/internal/domain"
)

// Scope is the granularity at which two bookings compete for the same room.
type Scope int

const (
	// ScopeRoomType compares every booking of the same room type.
	ScopeRoomType Scope = iota
	// ScopeRoom compares only bookings assigned to the same room number.
	ScopeRoom
)

func (s Scope) String() string {
	if s == ScopeRoom {
		return "room"
	}
	return "room_type"
}

// ScopeFor picks room-level comparison when the booking carries a room number.
func ScopeFor(b domain.Booking) Scope {
	if b.RoomNumber != "" {
		return ScopeRoom
	}
	return ScopeRoomType
}

// Filter keeps the bookings that share the candidate's room type (and room
// number under ScopeRoom).
func (s Scope) Filter(existing []domain.Booking, candidate domain.Booking) []domain.Booking {
	out := make([]domain.Booking, 0, len(existing))
	for _, b := range existing {
		if b.RoomType != candidate.RoomType {
			continue
		}
		if s == ScopeRoom && b.RoomNumber != candidate.RoomNumber {
			continue
		}
		out = append(out, b)
	}
	return out
}

// DetectConflict lists every booking in existing whose stay overlaps the
// candidate's. Cancelled bookings never conflict and a booking never
// conflicts with itself. The caller decides what a conflict means.
func DetectConflict(existing []domain.Booking, candidate domain.Booking) (domain.ConflictResult, error) {
	if err := candidate.Validate(); err != nil {
		return domain.ConflictResult{}, fmt.Errorf("candidate: %w", err)
	}
	if err := validateAll(existing); err != nil {
		return domain.ConflictResult{}, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, b := range existing {
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		if !candidate.Overlaps(b) {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return domain.ConflictResult{BookingIDs: ids}, nil
}

// OverbookedDays returns the days of the candidate's stay on which admitting
// it would push occupancy of its room type past totalRooms. The candidate is
// counted as occupying unless it is cancelled.
func OverbookedDays(existing []domain.Booking, candidate domain.Booking, totalRooms int) ([]domain.OccupancyDay, error) {
	if err := candidate.Validate(); err != nil {
		return nil, fmt.Errorf("candidate: %w", err)
	}
	if candidate.Status == domain.StatusCancelled {
		return nil, nil
	}
	c := candidate
	if !c.Status.Occupying() {
		c.Status = domain.StatusConfirmed
	}

	all := make([]domain.Booking, 0, len(existing)+1)
	for _, b := range existing {
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		all = append(all, b)
	}
	all = append(all, c)

	days, err := ComputeOccupancy(all, c.RoomType, c.Stay(), totalRooms)
	if err != nil {
		return nil, err
	}
	var over []domain.OccupancyDay
	for _, d := range days {
		if d.Overbooked {
			over = append(over, d)
		}
	}
	return over, nil
}
