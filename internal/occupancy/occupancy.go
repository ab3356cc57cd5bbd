// Package occupancy computes room occupancy, booking conflicts and revenue KPIs
// from snapshots of bookings and orders. Every function is pure: no I/O, no
// logging, no package state.
package occupancy

import (
	"errors"
	"fmt"
	"time"

	"hotel_occupancy/internal/domain"
)

var ErrNegativeInventory = errors.New("occupancy: negative room inventory")

// ComputeOccupancy returns one entry per day of r, in ascending order, counting
// confirmed and checked-in bookings of roomType whose stay contains the day.
// Occupied is the raw count; a count above totalRooms sets Overbooked.
func ComputeOccupancy(bookings []domain.Booking, roomType string, r domain.DateRange, totalRooms int) ([]domain.OccupancyDay, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if totalRooms < 0 {
		return nil, fmt.Errorf("%w: %s has %d rooms", ErrNegativeInventory, roomType, totalRooms)
	}
	if err := validateAll(bookings); err != nil {
		return nil, err
	}

	r = normalize(r)
	counts := occupiedPerDay(bookings, r, func(b domain.Booking) bool {
		return b.RoomType == roomType
	})

	out := make([]domain.OccupancyDay, len(counts))
	for i, n := range counts {
		out[i] = domain.OccupancyDay{
			Date:       r.Start.AddDate(0, 0, i),
			RoomType:   roomType,
			TotalRooms: totalRooms,
			Occupied:   n,
			Available:  max(totalRooms-n, 0),
			Overbooked: n > totalRooms,
		}
	}
	return out, nil
}

// occupiedPerDay sweeps a difference array over the occupying bookings that
// pass keep, clipped to r.
func occupiedPerDay(bookings []domain.Booking, r domain.DateRange, keep func(domain.Booking) bool) []int {
	days := r.Days()
	diff := make([]int, days+1)
	for _, b := range bookings {
		if !b.Status.Occupying() || !keep(b) {
			continue
		}
		from, to, ok := clip(b.Stay(), r)
		if !ok {
			continue
		}
		diff[from]++
		diff[to]--
	}
	counts := make([]int, days)
	run := 0
	for i := 0; i < days; i++ {
		run += diff[i]
		counts[i] = run
	}
	return counts
}

// clip maps stay onto day indexes of r as a half-open [from, to) pair.
func clip(stay, r domain.DateRange) (from, to int, ok bool) {
	if !stay.Overlaps(r) {
		return 0, 0, false
	}
	s, e := stay.Start, stay.End
	if s.Before(r.Start) {
		s = r.Start
	}
	if e.After(r.End) {
		e = r.End
	}
	return dayIndex(r.Start, s), dayIndex(r.Start, e), true
}

func dayIndex(start, d time.Time) int {
	return domain.DaysBetween(start, d)
}

func normalize(r domain.DateRange) domain.DateRange {
	return domain.DateRange{Start: domain.DateOf(r.Start), End: domain.DateOf(r.End)}
}

func validateAll(bookings []domain.Booking) error {
	for _, b := range bookings {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("booking %s: %w", b.ID, err)
		}
	}
	return nil
}
