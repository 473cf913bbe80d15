package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brdatabot/internal/domain"
)

func TestPostgresUserStoreUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresUserStore(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("12345", domain.PlatformTelegram, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Upsert(context.Background(), domain.User{
		UserID:    "12345",
		Platform:  domain.PlatformTelegram,
		FirstName: "Maria",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresUserStore(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE").
		WithArgs("missing", domain.PlatformWhatsApp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = store.Find(context.Background(), domain.PlatformWhatsApp, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryLogStoreAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresQueryLogStore(db)

	mock.ExpectExec("INSERT INTO query_logs").
		WithArgs("hash1", domain.PlatformTelegram, domain.QueryCNPJ, sqlmock.AnyArg(),
			domain.StatusSuccess, sqlmock.AnyArg(), int64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Append(context.Background(), domain.QueryLog{
		UserIDHash:     "hash1",
		Platform:       domain.PlatformTelegram,
		QueryType:      domain.QueryCNPJ,
		ResultStatus:   domain.StatusSuccess,
		ResponseTimeMS: 42,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryLogStoreAggregates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresQueryLogStore(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM query_logs$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM query_logs WHERE created_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT AVG\\(response_time_ms\\) FROM query_logs").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(88.5))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	since, err := store.CountSince(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), since)

	avg, err := store.AvgResponseTimeMS(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 88.5, avg)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryLogStoreAvgEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresQueryLogStore(db)

	mock.ExpectQuery("SELECT AVG\\(response_time_ms\\) FROM query_logs").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := store.AvgResponseTimeMS(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBlockedUserStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresBlockedUserStore(db)

	mock.ExpectExec("INSERT INTO blocked_users").
		WithArgs("u1", domain.PlatformWhatsApp, "spam", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM blocked_users").
		WithArgs("u1", domain.PlatformWhatsApp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Insert(context.Background(), domain.BlockedUser{
		UserID:   "u1",
		Platform: domain.PlatformWhatsApp,
		Reason:   "spam",
	}))
	require.NoError(t, store.Delete(context.Background(), domain.PlatformWhatsApp, "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
