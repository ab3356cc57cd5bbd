package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a revenue line from the order feed (restaurant, room service, shuttle).
// It is joined to KPI days by calendar date only.
type Order struct {
	ID     string          `json:"id"`
	Kind   string          `json:"kind"` // order|room_service|shuttle
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

func (o Order) Cancelled() bool { return o.Status == "cancelled" }

// RevenueKind is the bucket o's amount is reported under.
func (o Order) RevenueKind() string {
	if o.Kind == "" {
		return "other"
	}
	return o.Kind
}
