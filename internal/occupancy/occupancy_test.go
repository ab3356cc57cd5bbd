package occupancy_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/occupancy"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func rng(from, to string) domain.DateRange {
	return domain.DateRange{Start: day(from), End: day(to)}
}

func booking(id, roomType, in, out string, st domain.Status) domain.Booking {
	return domain.Booking{
		ID:       id,
		GuestID:  "guest-" + id,
		RoomType: roomType,
		CheckIn:  day(in),
		CheckOut: day(out),
		Status:   st,
	}
}

func occupiedByDate(days []domain.OccupancyDay) map[string]int {
	out := make(map[string]int, len(days))
	for _, d := range days {
		out[d.Date.Format(domain.DateLayout)] = d.Occupied
	}
	return out
}

func TestComputeOccupancy_TwoOverlappingBookings(t *testing.T) {
	bs := []domain.Booking{
		booking("id1", "Standard", "2025-06-01", "2025-06-03", domain.StatusConfirmed),
		booking("id2", "Standard", "2025-06-02", "2025-06-04", domain.StatusConfirmed),
	}

	days, err := occupancy.ComputeOccupancy(bs, "Standard", rng("2025-06-01", "2025-06-04"), 2)
	require.NoError(t, err)
	require.Len(t, days, 3)
	require.Equal(t, map[string]int{"2025-06-01": 1, "2025-06-02": 2, "2025-06-03": 1}, occupiedByDate(days))
	for i, d := range days {
		require.False(t, d.Overbooked, "day %d", i)
		if i > 0 {
			require.True(t, d.Date.After(days[i-1].Date), "days must ascend")
		}
	}
	require.Equal(t, 0, days[1].Available)
}

func TestComputeOccupancy_CenturiesLongRange(t *testing.T) {
	bs := []domain.Booking{booking("late", "Standard", "2399-06-01", "2399-06-03", domain.StatusConfirmed)}

	days, err := occupancy.ComputeOccupancy(bs, "Standard", rng("2000-01-01", "2400-01-01"), 1)
	require.NoError(t, err)
	require.Len(t, days, 146097)
	require.Equal(t, day("2399-12-31"), days[len(days)-1].Date)
	require.Equal(t, 1, occupiedByDate(days)["2399-06-02"])
	require.Zero(t, occupiedByDate(days)["2399-06-03"])
}

func TestComputeOccupancy_FlagsOverbooking(t *testing.T) {
	bs := []domain.Booking{
		booking("id1", "Standard", "2025-06-01", "2025-06-03", domain.StatusConfirmed),
		booking("id2", "Standard", "2025-06-02", "2025-06-04", domain.StatusConfirmed),
		booking("id3", "Standard", "2025-06-02", "2025-06-03", domain.StatusConfirmed),
	}

	days, err := occupancy.ComputeOccupancy(bs, "Standard", rng("2025-06-01", "2025-06-04"), 2)
	require.NoError(t, err)
	require.Equal(t, 3, days[1].Occupied)
	require.True(t, days[1].Overbooked)
	require.Equal(t, 0, days[1].Available)
	require.False(t, days[0].Overbooked)
	require.False(t, days[2].Overbooked)
}

func TestComputeOccupancy_EmptyBookings(t *testing.T) {
	days, err := occupancy.ComputeOccupancy(nil, "Deluxe", rng("2025-01-30", "2025-03-02"), 5)
	require.NoError(t, err)
	require.Len(t, days, 31)
	for _, d := range days {
		require.Zero(t, d.Occupied)
		require.Equal(t, 5, d.Available)
		require.False(t, d.Overbooked)
	}
}

func TestComputeOccupancy_FiltersStatusAndRoomType(t *testing.T) {
	bs := []domain.Booking{
		booking("p", "Standard", "2025-06-01", "2025-06-05", domain.StatusPending),
		booking("c", "Standard", "2025-06-01", "2025-06-05", domain.StatusCancelled),
		booking("o", "Standard", "2025-06-01", "2025-06-05", domain.StatusCheckedOut),
		booking("d", "Deluxe", "2025-06-01", "2025-06-05", domain.StatusConfirmed),
		booking("in", "Standard", "2025-06-01", "2025-06-05", domain.StatusCheckedIn),
	}

	days, err := occupancy.ComputeOccupancy(bs, "Standard", rng("2025-06-01", "2025-06-05"), 3)
	require.NoError(t, err)
	for _, d := range days {
		require.Equal(t, 1, d.Occupied, d.Date)
	}
}

func TestComputeOccupancy_ClipsStaysToRange(t *testing.T) {
	bs := []domain.Booking{
		booking("long", "Standard", "2025-05-20", "2025-07-01", domain.StatusConfirmed),
		booking("before", "Standard", "2025-05-01", "2025-06-01", domain.StatusConfirmed),
		booking("after", "Standard", "2025-06-03", "2025-06-10", domain.StatusConfirmed),
	}

	days, err := occupancy.ComputeOccupancy(bs, "Standard", rng("2025-06-01", "2025-06-04"), 10)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"2025-06-01": 1, "2025-06-02": 1, "2025-06-03": 2}, occupiedByDate(days))
}

func TestComputeOccupancy_InvalidRange(t *testing.T) {
	for _, r := range []domain.DateRange{rng("2025-06-04", "2025-06-01"), rng("2025-06-01", "2025-06-01")} {
		_, err := occupancy.ComputeOccupancy(nil, "Standard", r, 1)
		var ire *domain.InvalidRangeError
		require.ErrorAs(t, err, &ire)
	}
}

func TestComputeOccupancy_RejectsWholeCallOnInvalidBooking(t *testing.T) {
	bs := []domain.Booking{
		booking("ok", "Standard", "2025-06-01", "2025-06-03", domain.StatusConfirmed),
		booking("bad", "Standard", "2025-06-03", "2025-06-03", domain.StatusConfirmed),
	}
	days, err := occupancy.ComputeOccupancy(bs, "Standard", rng("2025-06-01", "2025-06-04"), 2)
	require.ErrorIs(t, err, domain.ErrInvalidBooking)
	require.Nil(t, days)

	_, err = occupancy.ComputeOccupancy(nil, "Standard", rng("2025-06-01", "2025-06-04"), -1)
	require.ErrorIs(t, err, occupancy.ErrNegativeInventory)
}

func TestNewBooking_RejectsEmptyOrReversedStay(t *testing.T) {
	for _, out := range []string{"2025-06-01", "2025-05-31"} {
		_, err := domain.NewBooking("x", "g", "Standard", day("2025-06-01"), day(out), domain.StatusPending, decimal.Zero)
		require.ErrorIs(t, err, domain.ErrInvalidBooking, out)
	}
	b, err := domain.NewBooking("x", "g", "Standard", day("2025-06-01").Add(15*time.Hour), day("2025-06-02"), domain.StatusPending, decimal.Zero)
	require.NoError(t, err)
	require.Equal(t, day("2025-06-01"), b.CheckIn)
	require.Equal(t, 1, b.Nights())
}
