// Package botconfig holds the process-wide bot configuration and the
// guard that serializes mutations to it.
package botconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// ProcessConfig is the single process-wide configuration record,
// persisted as a JSON document on disk. It is distinct from the
// per-guild configuration kept in the store
type ProcessConfig struct {
	Blocked        []int64 `json:"blocked"`
	SurvivAppSID   string  `json:"surviv_app_sid"`
	SurvivID       string  `json:"surviv_id"`
	MarketEnabled  bool    `json:"market_enabled"`
	FeedbackUserID int64   `json:"discord_feedback_user_id"`
	JoinLink       string  `json:"discord_join_link"`
}

func (cfg ProcessConfig) IsBlocked(userID int64) bool {
	return slices.Contains(cfg.Blocked, userID)
}

// Guard provides scoped exclusive access to the ProcessConfig.
// Every mutation re-reads the backing file first, so edits made to the
// file while the bot is running are not lost, then writes it back
type Guard struct {
	path string
	mu   sync.Mutex
	cfg  ProcessConfig
}

func Load(path string) (*Guard, error) {
	guard := Guard{path: path}
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	guard.cfg = cfg
	return &guard, nil
}

func read(path string) (ProcessConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ProcessConfig{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	var cfg ProcessConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ProcessConfig{}, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return cfg, nil
}

// Snapshot returns a copy of the current configuration for lock-free
// reads. The copy may be stale with respect to a mutation in flight
func (g *Guard) Snapshot() ProcessConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	cfg := g.cfg
	cfg.Blocked = slices.Clone(g.cfg.Blocked)
	return cfg
}

// Update runs fn inside the critical section: reload the latest
// persisted configuration, mutate it, persist it back. The lock is
// released on every exit path
func (g *Guard) Update(fn func(cfg *ProcessConfig)) error {
	log.Debug().Msg("Waiting for config lock")
	g.mu.Lock()
	defer g.mu.Unlock()

	cfg, err := read(g.path)
	if err != nil {
		return err
	}
	fn(&cfg)

	raw, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(g.path, raw, 0o644); err != nil {
		return fmt.Errorf("write config file %s: %w", g.path, err)
	}
	g.cfg = cfg
	return nil
}

func (g *Guard) BlockUser(userID int64) error {
	err := g.Update(func(cfg *ProcessConfig) {
		if !cfg.IsBlocked(userID) {
			cfg.Blocked = append(cfg.Blocked, userID)
		}
	})
	if err == nil {
		log.Info().Msg(fmt.Sprintf("Blocked user with id %d", userID))
	}
	return err
}

func (g *Guard) SetAppSID(cookie string) error {
	err := g.Update(func(cfg *ProcessConfig) {
		cfg.SurvivAppSID = cookie
	})
	if err == nil {
		log.Debug().Msg("Updated app-sid cookie")
	}
	return err
}
