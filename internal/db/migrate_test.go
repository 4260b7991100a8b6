package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaAddsOnlyMissingColumns(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS booking_customers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS app_config").WillReturnResult(sqlmock.NewResult(0, 0))

	for _, col := range lateBookingColumns {
		q := mock.ExpectQuery("information_schema.columns").WithArgs("bookings", col.name)
		if col.name == "customer_address" {
			q.WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
			mock.ExpectExec("ALTER TABLE bookings ADD COLUMN customer_address TEXT NULL").
				WillReturnResult(sqlmock.NewResult(0, 0))
			continue
		}
		q.WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow(col.name))
	}

	require.NoError(t, EnsureSchema(conn))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaRequiresConnection(t *testing.T) {
	require.Error(t, EnsureSchema(nil))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "", Placeholders(0))
	require.Equal(t, "?", Placeholders(1))
	require.Equal(t, "?, ?, ?", Placeholders(3))
}

func TestNullIfEmpty(t *testing.T) {
	require.Nil(t, NullIfEmpty(""))
	require.Equal(t, "x", NullIfEmpty("x"))
}
