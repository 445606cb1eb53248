package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

// newMockStore creates a sqlmock-backed PostgresStore with automatic
// cleanup and expectation checking
func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return &PostgresStore{db: db}, mock
}

func TestPostgresCreate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO servers \(server_id, config\) VALUES \(\$1, \$2\)`).
		WithArgs(int64(42), `{"prefix":"sv!","manager_role_id":0,"server_status_channel":0}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cfg, err := s.Create(context.Background(), 42)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cfg.Prefix != "sv!" {
		t.Errorf("prefix = %q, want %q", cfg.Prefix, "sv!")
	}
}

func TestPostgresCreateDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO servers`).
		WithArgs(int64(42), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	if _, err := s.Create(context.Background(), 42); !errors.Is(err, ErrDuplicate) {
		t.Errorf("create error = %v, want ErrDuplicate", err)
	}
}

func TestPostgresGet(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT config FROM servers WHERE server_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).
			AddRow(`{"prefix":"!!","manager_role_id":7,"server_status_channel":99}`))

	cfg, err := s.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := GuildConfig{GuildID: 42, Prefix: "!!", ManagerRoleID: 7, StatusChannelID: 99}
	if cfg != want {
		t.Errorf("get = %+v, want %+v", cfg, want)
	}
}

func TestPostgresGetMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT config FROM servers WHERE server_id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("get error = %v, want ErrNotFound", err)
	}
}

func TestPostgresUpdateMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE servers SET config = \$1 WHERE server_id = \$2`).
		WithArgs(sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), GuildConfig{GuildID: 42, Prefix: "sv!"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update error = %v, want ErrNotFound", err)
	}
}

func TestPostgresListIDs(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT server_id FROM servers`).
		WillReturnRows(sqlmock.NewRows([]string{"server_id"}).AddRow(1).AddRow(2))

	ids, err := s.ListIDs(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("ids = %v, want [1 2]", ids)
	}
}
