package httpserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
)

// Wire types: calendar dates travel as "2006-01-02".

type bookingRequest struct {
	ID               string           `json:"id"`
	GuestID          string           `json:"guest_id"`
	RoomType         string           `json:"room_type"`
	RoomNumber       string           `json:"room_number"`
	CheckIn          string           `json:"check_in"`
	CheckOut         string           `json:"check_out"`
	Status           string           `json:"status"`
	RatePerNight     *decimal.Decimal `json:"rate_per_night"`
	AllowOverbooking bool             `json:"allow_overbooking"`
}

func (r bookingRequest) toCommand() (app.CreateBooking, error) {
	in, err := domain.ParseDate(r.CheckIn)
	if err != nil {
		return app.CreateBooking{}, fmt.Errorf("%w: check_in must be YYYY-MM-DD", domain.ErrInvalidBooking)
	}
	out, err := domain.ParseDate(r.CheckOut)
	if err != nil {
		return app.CreateBooking{}, fmt.Errorf("%w: check_out must be YYYY-MM-DD", domain.ErrInvalidBooking)
	}
	cmd := app.CreateBooking{
		ID:               strings.TrimSpace(r.ID),
		GuestID:          r.GuestID,
		RoomType:         strings.TrimSpace(r.RoomType),
		RoomNumber:       strings.TrimSpace(r.RoomNumber),
		CheckIn:          in,
		CheckOut:         out,
		AllowOverbooking: r.AllowOverbooking,
	}
	if r.Status != "" {
		if cmd.Status, err = domain.ParseStatus(r.Status); err != nil {
			return app.CreateBooking{}, err
		}
	}
	if r.RatePerNight != nil {
		cmd.RatePerNight = *r.RatePerNight
	}
	return cmd, nil
}

type statusRequest struct {
	Status           string `json:"status"`
	AllowOverbooking bool   `json:"allow_overbooking"`
}

type datesRequest struct {
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	AllowOverbooking bool   `json:"allow_overbooking"`
}

type bookingDTO struct {
	ID           string          `json:"id"`
	GuestID      string          `json:"guest_id,omitempty"`
	RoomType     string          `json:"room_type"`
	RoomNumber   string          `json:"room_number,omitempty"`
	CheckIn      string          `json:"check_in"`
	CheckOut     string          `json:"check_out"`
	Nights       int             `json:"nights"`
	Status       domain.Status   `json:"status"`
	RatePerNight decimal.Decimal `json:"rate_per_night"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	return bookingDTO{
		ID:           b.ID,
		GuestID:      b.GuestID,
		RoomType:     b.RoomType,
		RoomNumber:   b.RoomNumber,
		CheckIn:      b.CheckIn.Format(domain.DateLayout),
		CheckOut:     b.CheckOut.Format(domain.DateLayout),
		Nights:       b.Nights(),
		Status:       b.Status,
		RatePerNight: b.RatePerNight,
		CreatedAt:    b.CreatedAt,
	}
}

type bookingsPage struct {
	Items []bookingDTO `json:"items"`
	Count int          `json:"count"`
}

type occupancyDayDTO struct {
	Date       string `json:"date"`
	TotalRooms int    `json:"total_rooms"`
	Occupied   int    `json:"occupied"`
	Available  int    `json:"available"`
	Overbooked bool   `json:"overbooked"`
}

type occupancyDTO struct {
	RoomType string            `json:"room_type"`
	From     string            `json:"from"`
	To       string            `json:"to"`
	Days     []occupancyDayDTO `json:"days"`
}

func toOccupancyDTO(rep domain.OccupancyReport) occupancyDTO {
	out := occupancyDTO{
		RoomType: rep.RoomType,
		From:     rep.From.Format(domain.DateLayout),
		To:       rep.To.Format(domain.DateLayout),
		Days:     make([]occupancyDayDTO, len(rep.Days)),
	}
	for i, d := range rep.Days {
		out.Days[i] = occupancyDayDTO{
			Date:       d.Date.Format(domain.DateLayout),
			TotalRooms: d.TotalRooms,
			Occupied:   d.Occupied,
			Available:  d.Available,
			Overbooked: d.Overbooked,
		}
	}
	return out
}

type kpiDayDTO struct {
	Date          string                     `json:"date"`
	TotalRooms    int                        `json:"total_rooms"`
	Occupied      int                        `json:"occupied"`
	OccupancyRate float64                    `json:"occupancy_rate"`
	ADR           decimal.Decimal            `json:"adr"`
	RevPAR        decimal.Decimal            `json:"revpar"`
	RoomRevenue   decimal.Decimal            `json:"room_revenue"`
	Revenue       decimal.Decimal            `json:"revenue"`
	RevenueByKind map[string]decimal.Decimal `json:"revenue_by_kind,omitempty"`
	CheckIns      int                        `json:"check_ins"`
	CheckOuts     int                        `json:"check_outs"`
	Overbooked    bool                       `json:"overbooked"`
}

type kpiDTO struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Days    []kpiDayDTO       `json:"days"`
	Summary domain.KPISummary `json:"summary"`
}

func toKPIDTO(rep domain.KPIReport) kpiDTO {
	out := kpiDTO{
		From:    rep.From.Format(domain.DateLayout),
		To:      rep.To.Format(domain.DateLayout),
		Days:    make([]kpiDayDTO, len(rep.Days)),
		Summary: rep.Summary,
	}
	for i, d := range rep.Days {
		out.Days[i] = kpiDayDTO{
			Date:          d.Date.Format(domain.DateLayout),
			TotalRooms:    d.TotalRooms,
			Occupied:      d.Occupied,
			OccupancyRate: d.OccupancyRate,
			ADR:           d.ADR,
			RevPAR:        d.RevPAR,
			RoomRevenue:   d.RoomRevenue,
			Revenue:       d.Revenue,
			RevenueByKind: d.RevenueByKind,
			CheckIns:      d.CheckIns,
			CheckOuts:     d.CheckOuts,
			Overbooked:    d.Overbooked,
		}
	}
	return out
}

type conflictDTO struct {
	Scope          string   `json:"scope"`
	Blocked        bool     `json:"blocked"`
	BookingIDs     []string `json:"conflicting_booking_ids"`
	OverbookedDays []string `json:"overbooked_days"`
}

func toConflictDTO(c app.ConflictCheck) conflictDTO {
	out := conflictDTO{
		Scope:          c.Scope,
		Blocked:        c.Blocked,
		BookingIDs:     c.Conflict.BookingIDs,
		OverbookedDays: make([]string, len(c.OverbookedDays)),
	}
	if out.BookingIDs == nil {
		out.BookingIDs = []string{}
	}
	for i, d := range c.OverbookedDays {
		out.OverbookedDays[i] = d.Date.Format(domain.DateLayout)
	}
	return out
}
