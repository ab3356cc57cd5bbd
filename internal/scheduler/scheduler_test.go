package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
	"hotel_occupancy/internal/scheduler"
)

type nopImporter struct{}

func (nopImporter) ImportWindow(ctx context.Context, r domain.DateRange) (app.ImportStats, error) {
	return app.ImportStats{}, nil
}

func TestAddJob_Validation(t *testing.T) {
	s, err := scheduler.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	_, err = s.AddJob("", "*/5 * * * *", func() {})
	require.True(t, errors.Is(err, scheduler.ErrEmptyJobName))

	_, err = s.AddJob("x", " ", func() {})
	require.True(t, errors.Is(err, scheduler.ErrEmptyCronExpr))

	_, err = s.AddJob("x", "not a cron", func() {})
	require.Error(t, err)

	job, err := s.AddJob("x", "*/5 * * * *", func() {})
	require.NoError(t, err)
	require.Equal(t, "x", job.Name())
}

func TestRegisterImportJob_StartStop(t *testing.T) {
	s, err := scheduler.New()
	require.NoError(t, err)

	require.NoError(t, scheduler.RegisterImportJob(s, "0 * * * *", nopImporter{}, 7, 30, time.Minute))
	s.Start()
	require.NoError(t, s.Stop())
	// second stop is a no-op
	require.NoError(t, s.Stop())
}

func TestImportWindowAt(t *testing.T) {
	now := time.Date(2025, 6, 10, 17, 45, 0, 0, time.UTC)
	w := scheduler.ImportWindowAt(now, 7, 30)
	require.True(t, w.Start.Equal(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)))
	require.True(t, w.End.Equal(time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 38, w.Days())
}
