// Package store persists the per-guild bot configuration.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Default values a guild starts with the first time the bot sees it
const DefaultPrefix = "sv!"

// GuildConfig is the configuration record of a single guild. It is
// stored as one row per guild, with everything but the id JSON-encoded
// in a single column
type GuildConfig struct {
	GuildID         int64  `json:"-"`
	Prefix          string `json:"prefix"`
	ManagerRoleID   int64  `json:"manager_role_id"`
	StatusChannelID int64  `json:"server_status_channel"`
}

func DefaultConfig(guildID int64) GuildConfig {
	return GuildConfig{GuildID: guildID, Prefix: DefaultPrefix}
}

var (
	// ErrNotFound is returned when no record exists for the guild
	ErrNotFound = errors.New("guild config not found")
	// ErrDuplicate is returned when creating a record that already exists
	ErrDuplicate = errors.New("guild config already exists")
)

// Store is the persistence interface for guild configurations.
// The backend is selected once at startup; callers only see this interface
type Store interface {
	// Create inserts a record with default values.
	// Fails with ErrDuplicate if the guild already has one
	Create(ctx context.Context, guildID int64) (GuildConfig, error)
	// EnsureExists returns the guild's record, creating it with
	// defaults if it does not exist yet. Safe to call on every event
	EnsureExists(ctx context.Context, guildID int64) (GuildConfig, error)
	// Get returns the current record or ErrNotFound
	Get(ctx context.Context, guildID int64) (GuildConfig, error)
	// Update replaces the stored record. Fails with ErrNotFound
	// if the guild has no record
	Update(ctx context.Context, cfg GuildConfig) error
	// Delete removes the record. Deleting an absent guild is not an error
	Delete(ctx context.Context, guildID int64) error
	// ListIDs returns the ids of all known guilds
	ListIDs(ctx context.Context) ([]int64, error)
	Close() error
}

// Open selects the backend from the configured driver name
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Shared read-then-create used by both backends. The bot is the single
// writer, but a lost race is still healed by re-reading the record
func ensureExists(ctx context.Context, s Store, guildID int64) (GuildConfig, error) {
	cfg, err := s.Get(ctx, guildID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return GuildConfig{}, err
	}
	cfg, err = s.Create(ctx, guildID)
	if errors.Is(err, ErrDuplicate) {
		return s.Get(ctx, guildID)
	}
	return cfg, err
}
