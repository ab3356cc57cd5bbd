package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/storage/memory"
)

func TestImportWindow_MirrorsAndRejects(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	cache := &fakeCache{}
	be := &fakeBackend{rows: map[string][]map[string]any{
		"bookings": {
			{"id": "b1", "user_id": "u1", "room_type": "standard", "check_in_date": "2025-06-01", "check_out_date": "2025-06-03", "status": "confirmed"},
			{"id": "b2", "user_id": "u2", "check_in_date": "2025-06-02T14:00:00Z", "check_out_date": "2025-06-04T10:00:00Z"},
			{"id": "b3", "user_id": "u3", "check_in_date": "2025-06-05", "check_out_date": "2025-06-05"},
			{"id": "b4", "user_id": "u4", "check_in_date": "2025-06-01", "check_out_date": "2025-06-02", "status": "teleported"},
			{"user_id": "u5", "check_in_date": "2025-06-01", "check_out_date": "2025-06-02"},
		},
		"orders": {
			{"id": 7, "created_at": "2025-06-01T09:30:00+00:00", "total_amount": "42.50", "status": "completed"},
			{"id": 8, "created_at": "2025-06-02T09:30:00+00:00", "total_amount": "abc"},
		},
		"room_service": {
			{"id": "rs1", "created_at": "2025-06-02T20:00:00Z", "total_amount": 18.25, "status": "delivered"},
		},
	}}
	svc := app.NewImportService(be, st, st, st, cache, 2, "Standard")

	stats, err := svc.ImportWindow(ctx, stay("2025-06-01", "2025-06-08"))
	require.NoError(t, err)
	require.Equal(t, app.ImportStats{Bookings: 2, Orders: 2, Rejected: 4}, stats)

	b2, err := st.GetBooking(ctx, "b2")
	require.NoError(t, err)
	require.Equal(t, "Standard", b2.RoomType)
	require.Equal(t, domain.StatusConfirmed, b2.Status)
	require.True(t, b2.CheckIn.Equal(day("2025-06-02")))
	require.Equal(t, 2, b2.Nights())

	orders, err := st.ListOrders(ctx, stay("2025-06-01", "2025-06-08"))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "order", orders[0].Kind)
	require.Equal(t, "room_service", orders[1].Kind)

	rejects := st.Rejects()
	require.Len(t, rejects, 4)
	require.Equal(t, "bookings", rejects[0].Resource)
	require.Equal(t, "b3", rejects[0].SourceID)
	require.Equal(t, "unknown", rejects[2].SourceID)
	require.Equal(t, "orders", rejects[3].Resource)

	// pages of 2 over 5 rows: offsets 0, 2, 4
	require.Len(t, be.queries["bookings"], 3)
	q := be.queries["bookings"][0]
	require.Equal(t, "lt.2025-06-08", q.Filters["check_in_date"])
	require.Equal(t, "gt.2025-06-01", q.Filters["check_out_date"])
	require.Equal(t, "(created_at.gte.2025-06-01,created_at.lt.2025-06-08)", be.queries["orders"][0].Filters["and"])

	require.Equal(t, int64(1), cache.counter("reports:gen"))
}

func TestImportWindow_InvalidRange(t *testing.T) {
	st := memory.New()
	svc := app.NewImportService(&fakeBackend{}, st, st, st, nil, 10, "standard")
	_, err := svc.ImportWindow(context.Background(), stay("2025-06-02", "2025-06-01"))
	var ire *domain.InvalidRangeError
	require.ErrorAs(t, err, &ire)
}

func TestSplitWindows(t *testing.T) {
	ws := app.SplitWindows(stay("2025-01-01", "2025-03-01"), 31)
	require.Len(t, ws, 2)
	require.Equal(t, stay("2025-01-01", "2025-02-01"), ws[0])
	require.Equal(t, stay("2025-02-01", "2025-03-01"), ws[1])

	require.Len(t, app.SplitWindows(stay("2025-01-01", "2025-01-02"), 31), 1)
	require.Nil(t, app.SplitWindows(stay("2025-01-02", "2025-01-01"), 31))
	require.Nil(t, app.SplitWindows(stay("2025-01-01", "2025-01-02"), 0))
}
