package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
)

const importJobName = "backend_import"

// WindowImporter is satisfied by app.ImportService.
type WindowImporter interface {
	ImportWindow(ctx context.Context, r domain.DateRange) (app.ImportStats, error)
}

// ImportWindowAt is the window a scheduled run mirrors: from lookbackDays
// before now through aheadDays after it.
func ImportWindowAt(now time.Time, lookbackDays, aheadDays int) domain.DateRange {
	today := domain.DateOf(now)
	return domain.DateRange{
		Start: today.AddDate(0, 0, -lookbackDays),
		End:   today.AddDate(0, 0, aheadDays+1),
	}
}

// RegisterImportJob mirrors the rolling window on every cronExpr tick.
func RegisterImportJob(s *Service, cronExpr string, imp WindowImporter, lookbackDays, aheadDays int, timeout time.Duration) error {
	_, err := s.AddJob(importJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		w := ImportWindowAt(time.Now(), lookbackDays, aheadDays)
		stats, err := imp.ImportWindow(ctx, w)
		if err != nil {
			log.Error().Err(err).Str("window", w.String()).Msg("scheduled import failed")
			return
		}
		log.Info().
			Str("window", w.String()).
			Int("bookings", stats.Bookings).
			Int("orders", stats.Orders).
			Int("rejected", stats.Rejected).
			Msg("scheduled import done")
	})
	return err
}
