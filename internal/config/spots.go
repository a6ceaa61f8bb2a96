package config

import (
	"encoding/json"
	"fmt"
	"os"

	"parking-monitor/internal/domain/parking"
)

// LoadSpots reads the parking spot definitions from a JSON file. The file
// must define at least one spot, every spot a unique id and a non-degenerate
// boundary region; anything else is a fatal configuration error.
func LoadSpots(path string) ([]parking.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spots file %s: %w", path, err)
	}

	var spots []parking.Spot
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, fmt.Errorf("parse spots file %s: %w", path, err)
	}

	if err := ValidateSpots(spots); err != nil {
		return nil, fmt.Errorf("spots file %s: %w", path, err)
	}
	return spots, nil
}

func ValidateSpots(spots []parking.Spot) error {
	if len(spots) == 0 {
		return fmt.Errorf("no parking spots defined")
	}
	seen := make(map[string]bool, len(spots))
	for i, spot := range spots {
		if spot.ID == "" {
			return fmt.Errorf("spot %d: id is required", i)
		}
		if seen[spot.ID] {
			return fmt.Errorf("spot %q: duplicate id", spot.ID)
		}
		seen[spot.ID] = true
		if spot.Name == "" {
			return fmt.Errorf("spot %q: name is required", spot.ID)
		}
		if err := spot.Region.Validate(); err != nil {
			return fmt.Errorf("spot %q: %w", spot.ID, err)
		}
	}
	return nil
}
