package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type RoomTypeConfig struct {
	Rooms    int             `json:"rooms"`
	BaseRate decimal.Decimal `json:"base_rate"`
}

// Inventory maps room type to its configured capacity and base nightly rate.
type Inventory map[string]RoomTypeConfig

func (inv Inventory) TotalRooms(roomType string) (int, error) {
	c, ok := inv[roomType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRoomType, roomType)
	}
	return c.Rooms, nil
}

// RoomTypes returns the configured room types in a stable order.
func (inv Inventory) RoomTypes() []string {
	out := make([]string, 0, len(inv))
	for k := range inv {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (inv Inventory) Total() int {
	n := 0
	for _, c := range inv {
		n += c.Rooms
	}
	return n
}

// Only returns a sub-inventory holding just roomType.
func (inv Inventory) Only(roomType string) (Inventory, error) {
	c, ok := inv[roomType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoomType, roomType)
	}
	return Inventory{roomType: c}, nil
}

func (inv Inventory) Validate() error {
	for k, c := range inv {
		if k == "" {
			return fmt.Errorf("inventory: empty room type name")
		}
		if c.Rooms < 0 {
			return fmt.Errorf("inventory: %s has negative room count %d", k, c.Rooms)
		}
		if c.BaseRate.IsNegative() {
			return fmt.Errorf("inventory: %s has negative base rate", k)
		}
	}
	return nil
}
