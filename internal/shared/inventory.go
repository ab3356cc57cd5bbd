package shared

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"hotel_occupancy/internal/domain"
)

// inventoryFile is the on-disk shape of the room inventory:
//
//	room_types:
//	  standard: {rooms: 40, base_rate: 325}
type inventoryFile struct {
	RoomTypes map[string]struct {
		Rooms    int    `yaml:"rooms"`
		BaseRate string `yaml:"base_rate"`
	} `yaml:"room_types"`
}

func LoadInventory(path string) (domain.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	return ParseInventory(data)
}

func ParseInventory(data []byte) (domain.Inventory, error) {
	var f inventoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	inv := make(domain.Inventory, len(f.RoomTypes))
	for name, rt := range f.RoomTypes {
		rate := decimal.Zero
		if rt.BaseRate != "" {
			r, err := decimal.NewFromString(rt.BaseRate)
			if err != nil {
				return nil, fmt.Errorf("inventory %s: base_rate %q: %w", name, rt.BaseRate, err)
			}
			rate = r
		}
		inv[name] = domain.RoomTypeConfig{Rooms: rt.Rooms, BaseRate: rate}
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}
