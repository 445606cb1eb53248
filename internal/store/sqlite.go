package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS servers (
	server_id INTEGER PRIMARY KEY,
	config TEXT NOT NULL
);`

// SQLiteStore implements Store backed by a local SQLite file.
// This is the default backend for self-hosted instances
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create servers table: %w", err)
	}
	log.Info().Msg(fmt.Sprintf("Opened sqlite store at %s", path))
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, guildID int64) (GuildConfig, error) {
	cfg := DefaultConfig(guildID)
	raw, err := json.Marshal(cfg)
	if err != nil {
		return GuildConfig{}, fmt.Errorf("encode config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO servers (server_id, config) VALUES (?, ?)`, guildID, string(raw))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return GuildConfig{}, fmt.Errorf("guild %d: %w", guildID, ErrDuplicate)
		}
		return GuildConfig{}, fmt.Errorf("insert guild %d: %w", guildID, err)
	}
	log.Info().Msg(fmt.Sprintf("Server with id %d created", guildID))
	return cfg, nil
}

func (s *SQLiteStore) EnsureExists(ctx context.Context, guildID int64) (GuildConfig, error) {
	return ensureExists(ctx, s, guildID)
}

func (s *SQLiteStore) Get(ctx context.Context, guildID int64) (GuildConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM servers WHERE server_id = ?`, guildID).Scan(&raw)
	if err == sql.ErrNoRows {
		return GuildConfig{}, fmt.Errorf("guild %d: %w", guildID, ErrNotFound)
	}
	if err != nil {
		return GuildConfig{}, fmt.Errorf("select guild %d: %w", guildID, err)
	}
	cfg := GuildConfig{GuildID: guildID}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return GuildConfig{}, fmt.Errorf("decode config of guild %d: %w", guildID, err)
	}
	return cfg, nil
}

func (s *SQLiteStore) Update(ctx context.Context, cfg GuildConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE servers SET config = ? WHERE server_id = ?`, string(raw), cfg.GuildID)
	if err != nil {
		return fmt.Errorf("update guild %d: %w", cfg.GuildID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update guild %d: %w", cfg.GuildID, err)
	}
	if affected == 0 {
		return fmt.Errorf("guild %d: %w", cfg.GuildID, ErrNotFound)
	}
	log.Info().Msg(fmt.Sprintf("Server with id %d reconfigured", cfg.GuildID))
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, guildID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM servers WHERE server_id = ?`, guildID); err != nil {
		return fmt.Errorf("delete guild %d: %w", guildID, err)
	}
	log.Info().Msg(fmt.Sprintf("Server with id %d deleted", guildID))
	return nil
}

func (s *SQLiteStore) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT server_id FROM servers`)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan guild id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	return ids, nil
}
