package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OccupancyDay is derived per calendar date and room type; it is never stored.
type OccupancyDay struct {
	Date       time.Time `json:"date"`
	RoomType   string    `json:"room_type"`
	TotalRooms int       `json:"total_rooms"`
	Occupied   int       `json:"occupied"`
	Available  int       `json:"available"`
	Overbooked bool      `json:"overbooked"`
}

type KPIDay struct {
	Date          time.Time                  `json:"date"`
	TotalRooms    int                        `json:"total_rooms"`
	Occupied      int                        `json:"occupied"`
	OccupancyRate float64                    `json:"occupancy_rate"`
	ADR           decimal.Decimal            `json:"adr"`
	RevPAR        decimal.Decimal            `json:"revpar"`
	RoomRevenue   decimal.Decimal            `json:"room_revenue"`
	Revenue       decimal.Decimal            `json:"revenue"`
	// RevenueByKind splits Revenue by order kind.
	RevenueByKind map[string]decimal.Decimal `json:"revenue_by_kind,omitempty"`
	CheckIns      int                        `json:"check_ins"`
	CheckOuts     int                        `json:"check_outs"`
	Overbooked    bool                       `json:"overbooked"`
}

type KPISummary struct {
	AverageOccupancy float64                    `json:"average_occupancy"`
	PeakOccupancy    float64                    `json:"peak_occupancy"`
	LowestOccupancy  float64                    `json:"lowest_occupancy"`
	ADR              decimal.Decimal            `json:"adr"`
	RevPAR           decimal.Decimal            `json:"revpar"`
	RoomRevenue      decimal.Decimal            `json:"room_revenue"`
	TotalRevenue     decimal.Decimal            `json:"total_revenue"`
	RevenueByKind    map[string]decimal.Decimal `json:"revenue_by_kind,omitempty"`
	RoomNightsSold   int                        `json:"room_nights_sold"`
	CheckIns         int                        `json:"check_ins"`
	CheckOuts        int                        `json:"check_outs"`
	OverbookedDays   int                        `json:"overbooked_days"`
}

type KPIReport struct {
	From    time.Time  `json:"from"`
	To      time.Time  `json:"to"`
	Days    []KPIDay   `json:"days"`
	Summary KPISummary `json:"summary"`
}

type OccupancyReport struct {
	From     time.Time      `json:"from"`
	To       time.Time      `json:"to"`
	RoomType string         `json:"room_type"`
	Days     []OccupancyDay `json:"days"`
}
