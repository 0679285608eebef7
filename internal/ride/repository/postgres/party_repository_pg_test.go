package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

func setupPartyRepoTest(t *testing.T) (*PgPartyRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPgPartyRepository(mockPool, logger), mockPool
}

func TestPgPartyRepository_FindByID(t *testing.T) {
	repo, mockPool := setupPartyRepoTest(t)
	defer mockPool.Close()

	partyID := uuid.New()
	query := `SELECT id, role, name, number, created_at\s+FROM parties\s+WHERE id = \$1 AND role = \$2`

	t.Run("Found", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"id", "role", "name", "number", "created_at"}).
			AddRow(partyID, domain.RoleCustomer, "Alice", "+31970001", time.Now())

		mockPool.ExpectQuery(query).
			WithArgs(partyID, domain.RoleCustomer).
			WillReturnRows(rows)

		party, err := repo.FindByID(context.Background(), partyID, domain.RoleCustomer)
		require.NoError(t, err)
		require.NotNil(t, party)
		assert.Equal(t, "Alice", party.Name)
		assert.Equal(t, "+31970001", party.Number)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool.ExpectQuery(query).
			WithArgs(partyID, domain.RoleDriver).
			WillReturnError(pgx.ErrNoRows)

		party, err := repo.FindByID(context.Background(), partyID, domain.RoleDriver)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, party)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		dbErr := errors.New("database error")
		mockPool.ExpectQuery(query).
			WithArgs(partyID, domain.RoleCustomer).
			WillReturnError(dbErr)

		party, err := repo.FindByID(context.Background(), partyID, domain.RoleCustomer)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, party)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgPartyRepository_List(t *testing.T) {
	repo, mockPool := setupPartyRepoTest(t)
	defer mockPool.Close()

	query := `SELECT id, role, name, number, created_at\s+FROM parties\s+WHERE role = \$1\s+ORDER BY name ASC`

	t.Run("ReturnsParties", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"id", "role", "name", "number", "created_at"}).
			AddRow(uuid.New(), domain.RoleDriver, "Bob", "+31970002", time.Now()).
			AddRow(uuid.New(), domain.RoleDriver, "Carol", "+31970004", time.Now())

		mockPool.ExpectQuery(query).
			WithArgs(domain.RoleDriver).
			WillReturnRows(rows)

		parties, err := repo.List(context.Background(), domain.RoleDriver)
		require.NoError(t, err)
		require.Len(t, parties, 2)
		assert.Equal(t, "Bob", parties[0].Name)
		assert.Equal(t, "Carol", parties[1].Name)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		mockPool.ExpectQuery(query).
			WithArgs(domain.RoleCustomer).
			WillReturnError(errors.New("database error"))

		parties, err := repo.List(context.Background(), domain.RoleCustomer)
		require.Error(t, err)
		assert.Nil(t, parties)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgProxyNumberRepository_List(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewPgProxyNumberRepository(mockPool, logger)

	query := `SELECT id, number, created_at\s+FROM proxy_numbers\s+ORDER BY number ASC`

	t.Run("ReturnsNumbers", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"id", "number", "created_at"}).
			AddRow(uuid.New(), "+31970100", time.Now()).
			AddRow(uuid.New(), "+31970101", time.Now())

		mockPool.ExpectQuery(query).WillReturnRows(rows)

		numbers, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, numbers, 2)
		assert.Equal(t, "+31970100", numbers[0].Number)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		mockPool.ExpectQuery(query).WillReturnError(errors.New("database error"))

		numbers, err := repo.List(context.Background())
		require.Error(t, err)
		assert.Nil(t, numbers)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
