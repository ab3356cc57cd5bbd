package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_occupancy/internal/adapters/observability"
	"hotel_occupancy/internal/domain"
)

const bookingsResource = "bookings"

// OrderResources are the backend tables mirrored into the order feed.
var OrderResources = []string{"orders", "room_service", "shuttle_bookings"}

type ImportStats struct {
	Bookings int `json:"bookings"`
	Orders   int `json:"orders"`
	Rejected int `json:"rejected"`
}

func (a *ImportStats) add(b ImportStats) {
	a.Bookings += b.Bookings
	a.Orders += b.Orders
	a.Rejected += b.Rejected
}

// ImportService mirrors backend rows into the local stores. The backend is the
// source of truth, so bookings are upserted without the conflict guard.
type ImportService struct {
	client          domain.BackendClient
	bookings        domain.BookingStore
	orders          domain.OrderStore
	rejects         domain.RejectLog
	cache           domain.Cache
	pageSize        int
	defaultRoomType string
}

func NewImportService(c domain.BackendClient, b domain.BookingStore, o domain.OrderStore, rl domain.RejectLog, cache domain.Cache, pageSize int, defaultRoomType string) *ImportService {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &ImportService{
		client: c, bookings: b, orders: o, rejects: rl, cache: cache,
		pageSize: pageSize, defaultRoomType: defaultRoomType,
	}
}

// ImportWindow mirrors bookings overlapping r and orders dated inside r.
func (s *ImportService) ImportWindow(ctx context.Context, r domain.DateRange) (ImportStats, error) {
	if err := r.Validate(); err != nil {
		return ImportStats{}, err
	}
	from, to := r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout)

	var stats ImportStats
	st, err := s.importBookings(ctx, map[string]string{
		"check_in_date":  "lt." + to,
		"check_out_date": "gt." + from,
	})
	stats.add(st)
	if err != nil {
		return stats, fmt.Errorf("import bookings %s: %w", r, err)
	}
	if st.Bookings > 0 {
		bumpReportGeneration(ctx, s.cache)
	}

	for _, res := range OrderResources {
		st, err := s.importOrders(ctx, res, map[string]string{
			"and": fmt.Sprintf("(created_at.gte.%s,created_at.lt.%s)", from, to),
		})
		stats.add(st)
		if err != nil {
			return stats, fmt.Errorf("import %s %s: %w", res, r, err)
		}
	}

	log.Info().
		Str("window", r.String()).
		Int("bookings", stats.Bookings).
		Int("orders", stats.Orders).
		Int("rejected", stats.Rejected).
		Msg("import window done")
	return stats, nil
}

func (s *ImportService) importBookings(ctx context.Context, filters map[string]string) (ImportStats, error) {
	var stats ImportStats
	err := s.pages(ctx, bookingsResource, filters, func(rows []map[string]any) error {
		valid := make([]domain.Booking, 0, len(rows))
		for _, row := range rows {
			b, err := mapBooking(row, s.defaultRoomType)
			if err != nil {
				s.reject(ctx, bookingsResource, row, err)
				stats.Rejected++
				continue
			}
			valid = append(valid, b)
		}
		if err := s.bookings.UpsertBookings(ctx, valid); err != nil {
			return err
		}
		stats.Bookings += len(valid)
		observability.ObserveImport(bookingsResource, "ok", len(valid))
		return nil
	})
	return stats, err
}

func (s *ImportService) importOrders(ctx context.Context, resource string, filters map[string]string) (ImportStats, error) {
	var stats ImportStats
	err := s.pages(ctx, resource, filters, func(rows []map[string]any) error {
		valid := make([]domain.Order, 0, len(rows))
		for _, row := range rows {
			o, err := mapOrder(resource, row)
			if err != nil {
				s.reject(ctx, resource, row, err)
				stats.Rejected++
				continue
			}
			valid = append(valid, o)
		}
		if err := s.orders.UpsertOrders(ctx, valid); err != nil {
			return err
		}
		stats.Orders += len(valid)
		observability.ObserveImport(resource, "ok", len(valid))
		return nil
	})
	return stats, err
}

// pages walks resource with limit/offset until a short page.
func (s *ImportService) pages(ctx context.Context, resource string, filters map[string]string, fn func([]map[string]any) error) error {
	for offset := 0; ; offset += s.pageSize {
		rows, err := s.client.ListRows(ctx, resource, domain.RowQuery{Filters: filters, Limit: s.pageSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := fn(rows); err != nil {
				return err
			}
		}
		if len(rows) < s.pageSize {
			return nil
		}
	}
}

func (s *ImportService) reject(ctx context.Context, resource string, row map[string]any, cause error) {
	id := rowID(resource, row)
	observability.ObserveImport(resource, "rejected", 1)
	log.Warn().Err(cause).Str("resource", resource).Str("source_id", id).Msg("row rejected")
	if s.rejects == nil {
		return
	}
	if err := s.rejects.LogReject(ctx, resource, id, cause.Error()); err != nil {
		log.Error().Err(err).Str("resource", resource).Str("source_id", id).Msg("log reject failed")
	}
}

// SplitWindows cuts r into consecutive windows of at most days days.
func SplitWindows(r domain.DateRange, days int) []domain.DateRange {
	if days <= 0 || r.Validate() != nil {
		return nil
	}
	var out []domain.DateRange
	for start := r.Start; start.Before(r.End); start = start.AddDate(0, 0, days) {
		end := start.AddDate(0, 0, days)
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, domain.DateRange{Start: start, End: end})
	}
	return out
}
