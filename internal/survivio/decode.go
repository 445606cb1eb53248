package survivio

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode the market listing response. The endpoint reports failures
// inside the body, so a 200 is not enough
func DecodeMarketItems(data []byte) ([]MarketItem, error) {

	var listing struct {
		Success bool         `json:"success"`
		Items   []MarketItem `json:"items"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("market response is not valid json: %w", err)
	}
	if !listing.Success {
		return nil, fmt.Errorf("market endpoint reported failure")
	}
	return listing.Items, nil
}

// Decode the player stats response. The endpoint returns an empty or
// null body for unknown players, which is not an error
func DecodePlayerStats(data []byte) (PlayerStats, bool, error) {

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PlayerStats{}, false, nil
	}
	var stats PlayerStats
	if err := json.Unmarshal(trimmed, &stats); err != nil {
		return PlayerStats{}, false, fmt.Errorf("stats response is not valid json: %w", err)
	}
	return stats, true, nil
}
