// Package survivio is the client for the surviv.io website and API.
package survivio

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"survbot/internal/common"
)

const DefaultBaseURL = "https://surviv.io"

// Routes inside the surviv.io API
const ROUTE_GAMES_MODES = "/api/games_modes"
const ROUTE_MARKET = "/api/user/market/get_market_available_items"
const ROUTE_USER_STATS = "/api/user_stats"

// Name of the rotating session cookie the market endpoint wants
const appSIDCookie = "app-sid"

// Every outbound request is bounded by this timeout; a timed out call
// is treated the same as a connection failure
const requestTimeout = 10 * time.Second

type Client struct {
	baseURL string
	proxy   common.Proxy
}

func NewClient(baseURL string, restrictions []common.Restriction) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Client{baseURL, common.NewProxy(nil, requestTimeout, restrictions)}
}

// ServerStatus probes the website and, when reachable, the game API.
// It never fails: connection problems are a status, not an error.
// The API is only reported for cycles where the frontend answered
func (c *Client) ServerStatus() StatusMap {

	status := StatusMap{}

	// Probe the frontend first
	reply, err := c.proxy.Get(c.baseURL, true)
	if err != nil {
		status[ComponentFrontend] = StatusUnplannedDown
		log.Info().Msg("Surviv frontend down")
		return status
	}
	switch reply.StatusCode {
	case common.SERVICE_UNAVAILABLE:
		status[ComponentFrontend] = StatusPlannedDown
		log.Info().Msg("Surviv frontend down")
		return status
	case common.BAD_GATEWAY:
		// The gateway choking does not imply the API is gone,
		// so keep probing
		status[ComponentFrontend] = StatusUnplannedDown
		log.Info().Msg("Surviv frontend down")
	default:
		status[ComponentFrontend] = StatusUp
		log.Info().Msg("Surviv frontend up")
	}

	// Probe the API
	if _, err := c.proxy.Get(c.baseURL+ROUTE_GAMES_MODES, true); err != nil {
		status[ComponentAPI] = StatusDown
		log.Info().Msg("Surviv api down")
	} else {
		status[ComponentAPI] = StatusUp
		log.Info().Msg("Surviv api up")
	}
	return status
}

// MarketItems queries the market listing for the provided rarity and
// item type. The endpoint authenticates with a rotating app-sid cookie;
// when the server hands back a fresh one it is returned alongside the
// items so the caller can persist it
func (c *Client) MarketItems(rarity string, itemType string, survivID string, appSID string) ([]MarketItem, string, error) {

	payload := struct {
		Rarity string `json:"rarity"`
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}{rarity, itemType, survivID}

	cookies := []*http.Cookie{{Name: appSIDCookie, Value: appSID}}
	reply, err := c.proxy.PostJSON(c.baseURL+ROUTE_MARKET, payload, cookies, false)
	if err != nil {
		return nil, "", fmt.Errorf("market request failed: %w", err)
	}

	// Pick up a rotated session cookie even on failed replies
	var rotated string
	for _, cookie := range reply.Cookies {
		if cookie.Name == appSIDCookie {
			rotated = cookie.Value
		}
	}

	if reply.StatusCode != common.OK {
		return nil, rotated, fmt.Errorf("market endpoint returned %d", reply.StatusCode)
	}
	items, err := DecodeMarketItems(reply.Body)
	if err != nil {
		return nil, rotated, err
	}
	return items, rotated, nil
}

// PlayerStats queries the lifetime statistics of the player with the
// provided slug. The second return value reports whether the player
// exists at all
func (c *Client) PlayerStats(slug string) (PlayerStats, bool, error) {

	payload := struct {
		Interval    string `json:"interval"`
		MapIDFilter string `json:"mapIdFilter"`
		Slug        string `json:"slug"`
	}{"all", "-1", slug}

	reply, err := c.proxy.PostJSON(c.baseURL+ROUTE_USER_STATS, payload, nil, false)
	if err != nil {
		return PlayerStats{}, false, fmt.Errorf("stats request failed: %w", err)
	}
	if reply.StatusCode != common.OK {
		return PlayerStats{}, false, fmt.Errorf("stats endpoint returned %d", reply.StatusCode)
	}
	return DecodePlayerStats(reply.Body)
}
