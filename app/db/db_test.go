package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/trexense-api/config"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil))
	assert.ErrorIs(t, Translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	dup := Translate(&pgconn.PgError{Code: "23505", ConstraintName: "bookmarks_pkey"})
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.Contains(t, dup.Error(), "bookmarks_pkey")

	fk := &pgconn.PgError{Code: "23503"}
	assert.Same(t, error(fk), Translate(fk))
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM banner_ads").WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mock.ExpectCommit()

		err = WithTx(ctx, mock, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "DELETE FROM banner_ads")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackOnError", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		failure := errors.New("copy failed")
		err = WithTx(ctx, mock, func(pgx.Tx) error { return failure })
		assert.ErrorIs(t, err, failure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("pool closed"))
		err = WithTx(ctx, mock, func(pgx.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorContains(t, err, "failed to begin transaction")
	})
}

func TestNewDatabaseConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Repositories.Postgres.Host = "db"
	cfg.Repositories.Postgres.Port = "5432"
	cfg.Repositories.Postgres.Username = "trexense"
	cfg.Repositories.Postgres.Password = "p@ss"
	cfg.Repositories.Postgres.DB = "trexense"

	got, err := NewDatabaseConfig(cfg, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "postgresql://trexense:p%40ss@db:5432/trexense?sslmode=disable&timezone=utc", got.ConnectionURL)

	_, err = NewDatabaseConfig(&config.Config{}, slog.Default())
	assert.Error(t, err)
}
