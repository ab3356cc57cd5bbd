package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_occupancy/internal/adapters/observability"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/occupancy"
)

// reportGenKey is bumped on every booking write; report cache keys embed it,
// so a write makes every cached report unreachable at once.
const reportGenKey = "reports:gen"

type ReportService struct {
	bookings domain.BookingStore
	orders   domain.OrderFeed
	inv      domain.Inventory
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewReportService(b domain.BookingStore, o domain.OrderFeed, inv domain.Inventory, c domain.Cache, ttl time.Duration) *ReportService {
	return &ReportService{bookings: b, orders: o, inv: inv, cache: c, cacheTTL: ttl}
}

func (s *ReportService) Occupancy(ctx context.Context, roomType string, r domain.DateRange) (domain.OccupancyReport, error) {
	if err := r.Validate(); err != nil {
		return domain.OccupancyReport{}, err
	}
	total, err := s.inv.TotalRooms(roomType)
	if err != nil {
		return domain.OccupancyReport{}, err
	}

	key := fmt.Sprintf("occ:%d:%s:%s", s.generation(ctx), roomType, r)
	var out domain.OccupancyReport
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	bs, err := s.bookings.ListBookings(ctx, domain.BookingFilter{
		RoomType: &roomType,
		Range:    &r,
		Statuses: []domain.Status{domain.StatusConfirmed, domain.StatusCheckedIn},
	})
	if err != nil {
		return domain.OccupancyReport{}, err
	}
	days, err := occupancy.ComputeOccupancy(bs, roomType, r, total)
	if err != nil {
		return domain.OccupancyReport{}, err
	}
	over := 0
	for _, d := range days {
		if d.Overbooked {
			over++
		}
	}
	observability.ObserveOverbooked(roomType, over)

	out = domain.OccupancyReport{From: r.Start, To: r.End, RoomType: roomType, Days: days}
	s.store(ctx, key, out)
	return out, nil
}

// KPIs reports over the whole inventory, or a single room type when roomType
// is non-empty.
func (s *ReportService) KPIs(ctx context.Context, r domain.DateRange, roomType string) (domain.KPIReport, error) {
	if err := r.Validate(); err != nil {
		return domain.KPIReport{}, err
	}
	inv := s.inv
	var rtFilter *string
	if roomType != "" {
		only, err := s.inv.Only(roomType)
		if err != nil {
			return domain.KPIReport{}, err
		}
		inv, rtFilter = only, &roomType
	}

	key := fmt.Sprintf("kpi:%d:%s:%s", s.generation(ctx), roomType, r)
	var out domain.KPIReport
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	// one day earlier so stays ending on the first day count as check-outs
	fetch := domain.DateRange{Start: r.Start.AddDate(0, 0, -1), End: r.End}

	var bs []domain.Booking
	var os []domain.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bs, err = s.bookings.ListBookings(gctx, domain.BookingFilter{RoomType: rtFilter, Range: &fetch})
		return err
	})
	g.Go(func() error {
		var err error
		os, err = s.orders.ListOrders(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.KPIReport{}, err
	}

	out, err := occupancy.ComputeKPIs(bs, os, r, inv)
	if err != nil {
		return domain.KPIReport{}, err
	}
	s.store(ctx, key, out)
	return out, nil
}

func (s *ReportService) generation(ctx context.Context) int64 {
	if s.cache == nil {
		return 0
	}
	var gen int64
	if _, err := s.cache.Get(ctx, reportGenKey, &gen); err != nil {
		log.Warn().Err(err).Msg("report generation read failed")
	}
	return gen
}

// cached reports whether dst was filled from the cache. An entry that fails to
// decode is dropped and treated as a miss.
func (s *ReportService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return ok
	}
	log.Warn().Err(err).Str("error_type", observability.LabelErr(err)).Str("key", key).Msg("report cache read failed")
	if ok {
		if err := s.cache.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("report cache delete failed")
		}
	}
	return false
}

func (s *ReportService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report cache set failed")
	}
}

func bumpReportGeneration(ctx context.Context, c domain.Cache) {
	if c == nil {
		return
	}
	if _, err := c.Incr(ctx, reportGenKey); err != nil {
		log.Warn().Err(err).Msg("report generation bump failed")
	}
}
