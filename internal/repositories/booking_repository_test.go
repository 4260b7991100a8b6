package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{
	"id", "name", "email", "phone", "booking_type",
	"base_amount", "gst", "total", "created_at",
	"hotel_name", "hotel_city", "hotel_country",
	"operator_name", "from_journey", "from_journey_country",
	"to_journey", "to_journey_country", "vehicle_number",
	"service_date", "service_time", "customer_address",
	"apply_gst", "is_group_booking",
}

var created = time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)

func addBookingRow(rows *sqlmock.Rows, id int64, name, typ string, base float64, group bool) *sqlmock.Rows {
	return rows.AddRow(id, name, "", "9876543210", typ,
		base, 0.0, base, created,
		"", "", "",
		"", "", "",
		"", "", "",
		"", "", "",
		false, group)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func TestCreateGroupBookingInsertsCustomers(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(12, 1))
	prep := mock.ExpectPrepare("INSERT INTO booking_customers")
	prep.ExpectExec().WithArgs(int64(12), "Asha", "asha@example.com", nil, "A1", 600.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(int64(12), "Ravi", nil, "9876543210", nil, 400.0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), models.Booking{
		Name:           "Asha",
		BookingType:    "Hotel",
		BaseAmount:     1000,
		Total:          1000,
		IsGroupBooking: true,
		Customers: []models.Customer{
			{Name: "Asha", Email: "asha@example.com", SeatRoom: "A1", Amount: 600},
			{Name: "Ravi", Phone: "9876543210", Amount: 400},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackWhenCustomerInsertFails(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(3, 1))
	prep := mock.ExpectPrepare("INSERT INTO booking_customers")
	prep.ExpectExec().WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), models.Booking{
		Name:           "Asha",
		IsGroupBooking: true,
		Customers:      []models.Customer{{Name: "Asha", Amount: 10}},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := repo.GetByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestGetByIDLoadsGroupCustomers(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(5)).
		WillReturnRows(addBookingRow(sqlmock.NewRows(bookingCols), 5, "Asha", "Bus", 900, true))
	mock.ExpectQuery("FROM booking_customers").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "customer_name", "customer_email", "customer_phone", "seat_room_number", "customer_amount"}).
			AddRow(1, 5, "Asha", "", "", "S1", 450.0).
			AddRow(2, 5, "Ravi", "", "", "S2", 450.0))

	b, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14 10:30:00", b.Date)
	require.Len(t, b.Customers, 2)
	assert.Equal(t, "Ravi", b.Customers[1].Name)
	assert.Equal(t, "S2", b.Customers[1].SeatRoom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesCustomersThenBooking(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, booking_type, is_group_booking FROM bookings").WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "booking_type", "is_group_booking"}).AddRow(8, "Asha", "Hotel", true))
	mock.ExpectExec("DELETE FROM booking_customers WHERE booking_id = ?").WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM bookings WHERE id = ?").WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := repo.Delete(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "Asha", b.Name)
	assert.True(t, b.IsGroupBooking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingBooking(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, booking_type, is_group_booking FROM bookings").WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "booking_type", "is_group_booking"}))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), 8)
	assert.True(t, domain.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteManyOnlyCountsExisting(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM bookings WHERE id IN \(\?, \?, \?\)`).WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))
	mock.ExpectExec(`DELETE FROM booking_customers WHERE booking_id IN`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM bookings WHERE id IN`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleted, err := repo.DeleteMany(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchFiltersByTypeAndPages(t *testing.T) {
	conn, mock := newMock(t)
	repo := BookingRepository{DB: conn}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE booking_type = \?`).WithArgs("Flight").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	rows := sqlmock.NewRows(bookingCols)
	addBookingRow(rows, 20, "Asha", "Flight", 500, false)
	addBookingRow(rows, 19, "Group", "Flight", 900, true)
	mock.ExpectQuery(`WHERE booking_type = \? ORDER BY created_at DESC, id DESC LIMIT \? OFFSET \?`).
		WithArgs("Flight", 2, 2).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT booking_id, customer_name FROM booking_customers").WithArgs(int64(19)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "customer_name"}).
			AddRow(19, "A").AddRow(19, "B").AddRow(19, "C").AddRow(19, "D"))

	page := domain.PageRequest{Page: 2, PerPage: 2}
	out, total, err := repo.Search(context.Background(), SearchFilter{Type: "Flight"}, page)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].CustomerCount)
	assert.Empty(t, out[0].CustomerNames)
	assert.Equal(t, 4, out[1].CustomerCount)
	assert.Equal(t, []string{"A", "B", "C"}, out[1].CustomerNames)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchFilterWhereMatchesTextColumns(t *testing.T) {
	where, args := SearchFilter{Query: " asha ", Type: "Hotel"}.where()
	assert.Contains(t, where, "name LIKE ?")
	assert.Contains(t, where, "bc.customer_name LIKE ?")
	assert.Contains(t, where, "booking_type = ?")
	require.Len(t, args, 10)
	assert.Equal(t, "%asha%", args[0])
	assert.Equal(t, "Hotel", args[9])

	where, args = SearchFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestRepositoryWithoutDB(t *testing.T) {
	_, err := BookingRepository{}.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoDB)
}
