package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// uniqueViolation is the Postgres error code for a duplicate key
const uniqueViolation = "23505"

// PostgresStore implements Store backed by PostgreSQL.
// Hosted instances use this backend
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func OpenPostgres(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Msg("Opened postgres store")
	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, guildID int64) (GuildConfig, error) {
	cfg := DefaultConfig(guildID)
	raw, err := json.Marshal(cfg)
	if err != nil {
		return GuildConfig{}, fmt.Errorf("encode config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO servers (server_id, config) VALUES ($1, $2)`, guildID, string(raw))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return GuildConfig{}, fmt.Errorf("guild %d: %w", guildID, ErrDuplicate)
		}
		return GuildConfig{}, fmt.Errorf("insert guild %d: %w", guildID, err)
	}
	log.Info().Msg(fmt.Sprintf("Server with id %d created", guildID))
	return cfg, nil
}

func (s *PostgresStore) EnsureExists(ctx context.Context, guildID int64) (GuildConfig, error) {
	return ensureExists(ctx, s, guildID)
}

func (s *PostgresStore) Get(ctx context.Context, guildID int64) (GuildConfig, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM servers WHERE server_id = $1`, guildID).Scan(&raw)
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

func (s *PostgresStore) Update(ctx context.Context, cfg GuildConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE servers SET config = $1 WHERE server_id = $2`, string(raw), cfg.GuildID)
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

func (s *PostgresStore) Delete(ctx context.Context, guildID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM servers WHERE server_id = $1`, guildID); err != nil {
		return fmt.Errorf("delete guild %d: %w", guildID, err)
	}
	log.Info().Msg(fmt.Sprintf("Server with id %d deleted", guildID))
	return nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]int64, error) {
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
