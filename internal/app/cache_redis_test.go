package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	redisad "hotel_occupancy/internal/adapters/redis"
	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/storage/memory"
)

func TestReports_CorruptCacheEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	st := memory.New()
	seedConfirmed(t, st, "1", "standard", "2025-06-01", "2025-06-03")
	reports := app.NewReportService(st, st, testInventory(), cache, time.Minute)

	r := stay("2025-06-01", "2025-06-03")
	occKey := "occ:0:standard:" + r.String()
	kpiKey := "kpi:0::" + r.String()
	require.NoError(t, mr.Set(occKey, "{not json"))
	require.NoError(t, mr.Set(kpiKey, `{"days":"drifted"}`))

	occ, err := reports.Occupancy(ctx, "standard", r)
	require.NoError(t, err)
	require.Len(t, occ.Days, 2)
	require.Equal(t, 1, occ.Days[0].Occupied)

	kpi, err := reports.KPIs(ctx, r, "")
	require.NoError(t, err)
	require.Len(t, kpi.Days, 2)
	require.Equal(t, 2, kpi.Summary.RoomNightsSold)

	// the bad entries were replaced by fresh reports
	raw, err := mr.Get(occKey)
	require.NoError(t, err)
	var cached domain.OccupancyReport
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	require.Len(t, cached.Days, 2)

	raw, err = mr.Get(kpiKey)
	require.NoError(t, err)
	var cachedKPI domain.KPIReport
	require.NoError(t, json.Unmarshal([]byte(raw), &cachedKPI))
	require.Equal(t, 2, cachedKPI.Summary.RoomNightsSold)
}
