package occupancy

import (
	"math"

	"github.com/shopspring/decimal"

	"hotel_occupancy/internal/domain"
)

// ComputeKPIs derives daily and range KPIs for the room types in inv.
//
// Occupancy rate uses occupied rooms clamped to each type's inventory, so an
// overbooked day reads 100% and is flagged instead. ADR is the mean nightly
// rate of the bookings occupying the day; a booking without a rate is priced
// at its room type's base rate. Revenue is the sum of non-cancelled orders
// dated that day, also split by order kind.
func ComputeKPIs(bookings []domain.Booking, orders []domain.Order, r domain.DateRange, inv domain.Inventory) (domain.KPIReport, error) {
	if err := r.Validate(); err != nil {
		return domain.KPIReport{}, err
	}
	if err := inv.Validate(); err != nil {
		return domain.KPIReport{}, err
	}
	if err := validateAll(bookings); err != nil {
		return domain.KPIReport{}, err
	}

	r = normalize(r)
	n := r.Days()
	total := inv.Total()

	occupied := make([]int, n)
	sellable := make([]int, n)
	overbooked := make([]bool, n)
	for _, rt := range inv.RoomTypes() {
		rooms := inv[rt].Rooms
		counts := occupiedPerDay(bookings, r, func(b domain.Booking) bool { return b.RoomType == rt })
		for i, c := range counts {
			occupied[i] += c
			sellable[i] += min(c, rooms)
			if c > rooms {
				overbooked[i] = true
			}
		}
	}

	rateSum := make([]decimal.Decimal, n+1)
	checkIns := make([]int, n)
	checkOuts := make([]int, n)
	for _, b := range bookings {
		cfg, ok := inv[b.RoomType]
		if !ok || b.Status == domain.StatusCancelled {
			continue
		}
		if r.Contains(b.CheckIn) {
			checkIns[dayIndex(r.Start, b.CheckIn)]++
		}
		if r.Contains(b.CheckOut) {
			checkOuts[dayIndex(r.Start, b.CheckOut)]++
		}
		if !b.Status.Occupying() {
			continue
		}
		from, to, ok := clip(b.Stay(), r)
		if !ok {
			continue
		}
		rate := b.RatePerNight
		if rate.IsZero() {
			rate = cfg.BaseRate
		}
		rateSum[from] = rateSum[from].Add(rate)
		rateSum[to] = rateSum[to].Sub(rate)
	}

	revenue := make([]decimal.Decimal, n)
	byKind := make([]map[string]decimal.Decimal, n)
	for _, o := range orders {
		if o.Cancelled() || !r.Contains(o.Date) {
			continue
		}
		i := dayIndex(r.Start, o.Date)
		revenue[i] = revenue[i].Add(o.Amount)
		if byKind[i] == nil {
			byKind[i] = make(map[string]decimal.Decimal)
		}
		k := o.RevenueKind()
		byKind[i][k] = byKind[i][k].Add(o.Amount)
	}

	rep := domain.KPIReport{From: r.Start, To: r.End, Days: make([]domain.KPIDay, n)}
	sum := &rep.Summary
	sum.LowestOccupancy = math.Inf(1)
	run := decimal.Zero
	var rateTotal float64
	for i := 0; i < n; i++ {
		run = run.Add(rateSum[i])
		day := domain.KPIDay{
			Date:          r.Start.AddDate(0, 0, i),
			TotalRooms:    total,
			Occupied:      occupied[i],
			RoomRevenue:   run.Round(2),
			Revenue:       revenue[i].Round(2),
			RevenueByKind: roundAll(byKind[i]),
			CheckIns:      checkIns[i],
			CheckOuts:     checkOuts[i],
			Overbooked:    overbooked[i],
			ADR:           decimal.Zero,
			RevPAR:        decimal.Zero,
		}
		if total > 0 {
			day.OccupancyRate = round2(float64(sellable[i]) / float64(total) * 100)
		}
		if occupied[i] > 0 {
			adr := run.Div(decimal.NewFromInt(int64(occupied[i])))
			day.ADR = adr.Round(2)
			if total > 0 {
				day.RevPAR = adr.Mul(decimal.NewFromInt(int64(sellable[i]))).
					Div(decimal.NewFromInt(int64(total))).Round(2)
			}
		}
		rep.Days[i] = day

		rateTotal += day.OccupancyRate
		sum.PeakOccupancy = math.Max(sum.PeakOccupancy, day.OccupancyRate)
		sum.LowestOccupancy = math.Min(sum.LowestOccupancy, day.OccupancyRate)
		sum.RoomRevenue = sum.RoomRevenue.Add(run)
		sum.TotalRevenue = sum.TotalRevenue.Add(revenue[i])
		for k, v := range byKind[i] {
			if sum.RevenueByKind == nil {
				sum.RevenueByKind = make(map[string]decimal.Decimal)
			}
			sum.RevenueByKind[k] = sum.RevenueByKind[k].Add(v)
		}
		sum.RoomNightsSold += occupied[i]
		sum.CheckIns += checkIns[i]
		sum.CheckOuts += checkOuts[i]
		if overbooked[i] {
			sum.OverbookedDays++
		}
	}

	sum.AverageOccupancy = round2(rateTotal / float64(n))
	if sum.RoomNightsSold > 0 {
		sum.ADR = sum.RoomRevenue.Div(decimal.NewFromInt(int64(sum.RoomNightsSold))).Round(2)
	}
	if total > 0 {
		sum.RevPAR = sum.RoomRevenue.Div(decimal.NewFromInt(int64(total * n))).Round(2)
	}
	sum.RoomRevenue = sum.RoomRevenue.Round(2)
	sum.TotalRevenue = sum.TotalRevenue.Round(2)
	sum.RevenueByKind = roundAll(sum.RevenueByKind)
	return rep, nil
}

func roundAll(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	for k, v := range m {
		m[k] = v.Round(2)
	}
	return m
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
