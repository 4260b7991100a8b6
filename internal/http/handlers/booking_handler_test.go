package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"travelbooking/internal/http/middleware"
	"travelbooking/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow    = time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)
	bookingCols = []string{
		"id", "name", "email", "phone", "booking_type",
		"base_amount", "gst", "total", "created_at",
		"hotel_name", "hotel_city", "hotel_country",
		"operator_name", "from_journey", "from_journey_country",
		"to_journey", "to_journey_country", "vehicle_number",
		"service_date", "service_time", "customer_address",
		"apply_gst", "is_group_booking",
	}
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAPI(t *testing.T, extra map[string]string) (*API, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	values := map[string]string{
		"AGENCY_NAME":      "Blue Sky Travels",
		"GST_PERCENT":      "5",
		"EMAIL_ENABLED":    "false",
		"WHATSAPP_ENABLED": "false",
	}
	for k, v := range extra {
		values[k] = v
	}
	return &API{
		DB:       conn,
		Config:   services.NewStaticSettings(values),
		BillsDir: t.TempDir(),
		Now:      func() time.Time { return fixedNow },
	}, mock
}

func bookingRouter(a *API) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/", a.CreateBooking)
	r.GET("/get_booking/:id", a.GetBooking)
	r.POST("/update_booking/:id", a.UpdateBooking)
	r.POST("/delete_booking/:id", a.DeleteBooking)
	r.POST("/bulk_delete_bookings", a.BulkDeleteBookings)
	r.GET("/export_bookings", a.ExportBookings)
	r.GET("/api/search_bookings", a.SearchBookings)
	return r
}

func hotelRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows(bookingCols).AddRow(
		id, "Asha Rao", "asha@example.com", "9876543210", "Hotel",
		1000.0, 50.0, 1050.0, fixedNow,
		"Sea View", "Goa", "India",
		"", "", "", "", "", "",
		"2025-04-01", "", "",
		true, false,
	)
}

func do(r http.Handler, method, target, contentType, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func postForm(r http.Handler, target string, form url.Values) (*httptest.ResponseRecorder, map[string]any) {
	return do(r, http.MethodPost, target, "application/x-www-form-urlencoded", form.Encode())
}

func TestCreateBookingFromForm(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	w, body := postForm(bookingRouter(a), "/", url.Values{
		"name":                              {"Asha Rao"},
		"phone":                             {"98765 43210"},
		"booking_type":                      {"hotel"},
		"base_amount":                       {"1,000"},
		"apply_gst":                         {"on"},
		"hotel_name":                        {"Sea View"},
		"vehicle_train_flight_hotel_number": {"R-204"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Booking created successfully", body["message"])
	assert.Equal(t, "/invoice/7", body["pdf_url"])
	assert.EqualValues(t, 7, body["booking_id"])
	assert.FileExists(t, services.DocsService{Dir: a.BillsDir}.InvoicePath(7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing name", url.Values{"phone": {"9876543210"}, "booking_type": {"Hotel"}, "base_amount": {"10"}},
			"Missing required field: name"},
		{"bad amount", url.Values{"name": {"A"}, "phone": {"9876543210"}, "booking_type": {"Hotel"}, "base_amount": {"ten"}},
			"Base amount must be a valid number"},
		{"bad customers", url.Values{"is_group_booking": {"true"}, "booking_type": {"Bus"}, "customers_data": {"{oops"}},
			"Invalid customer data format"},
		{"empty group", url.Values{"is_group_booking": {"1"}, "booking_type": {"Bus"}, "customers_data": {"[]"}},
			"Group booking must have at least one customer"},
		{"unknown type", url.Values{"name": {"A"}, "phone": {"9876543210"}, "booking_type": {"Rocket"}, "base_amount": {"10"}},
			"Invalid booking type: Rocket"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, mock := testAPI(t, nil)
			w, body := postForm(bookingRouter(a), "/", tc.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.want, body["message"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetBooking(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(12)).WillReturnRows(hotelRow(12))

	w, body := do(bookingRouter(a), http.MethodGet, "/get_booking/12", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	b := body["booking"].(map[string]any)
	assert.Equal(t, "Asha Rao", b["name"])
	assert.Equal(t, []any{}, b["customers"])
}

func TestGetBookingNotFound(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(bookingCols))

	w, body := do(bookingRouter(a), http.MethodGet, "/get_booking/99", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Booking not found", body["message"])

	w, body = do(bookingRouter(a), http.MethodGet, "/get_booking/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid booking id", body["message"])
}

func TestUpdateBookingAppliesPresentFields(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(12)).WillReturnRows(hotelRow(12))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_customers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	w, body := do(bookingRouter(a), http.MethodPost, "/update_booking/12", "application/json",
		`{"base_amount":"2000","apply_gst":"false"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Booking #000012 updated successfully", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGroupBookingCustomerAliases(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(20)).WillReturnRows(
		sqlmock.NewRows(bookingCols).AddRow(
			20, "Asha", "asha@example.com", "9876543210", "Train",
			800.0, 40.0, 840.0, fixedNow,
			"", "", "",
			"IRCTC", "Pune", "", "Delhi", "", "",
			"", "", "",
			true, true,
		))
	mock.ExpectQuery("FROM booking_customers").WithArgs(int64(20)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "booking_id", "customer_name", "customer_email", "customer_phone", "seat_room_number", "customer_amount"}).
			AddRow(1, 20, "Asha", "asha@example.com", "9876543210", "", 500.0).
			AddRow(2, 20, "Ravi", "", "", "", 300.0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET").WithArgs(
		"Zoya", nil, "9000000001", "Train", 150.0, 7.5, 157.5,
		nil, nil, nil,
		"IRCTC", "Pune", nil,
		"Delhi", nil, nil,
		nil, nil, nil,
		true, true, int64(20),
	).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_customers").WithArgs(int64(20)).WillReturnResult(sqlmock.NewResult(0, 2))
	prep := mock.ExpectPrepare("INSERT INTO booking_customers")
	prep.ExpectExec().WithArgs(int64(20), "Zoya", nil, "9000000001", nil, 100.25).WillReturnResult(sqlmock.NewResult(3, 1))
	prep.ExpectExec().WithArgs(int64(20), "Kabir", nil, nil, nil, 49.75).WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	w, body := do(bookingRouter(a), http.MethodPost, "/update_booking/20", "application/json", `{"customers":[
		{"customer_name":"Zoya","customer_phone":"9000000001","customer_amount":"100.25"},
		{"name":"Kabir","amount":49.75}
	]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Booking #000020 updated successfully", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingRejectsNonScalarFields(t *testing.T) {
	a, mock := testAPI(t, nil)

	w, body := do(bookingRouter(a), http.MethodPost, "/update_booking/12", "application/json", `{"name":{"a":1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "Invalid booking data")

	w, _ = do(bookingRouter(a), http.MethodPost, "/update_booking/12", "application/json", `{"phone":["9876543210"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingNoChanges(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery("FROM bookings WHERE id = ?").WithArgs(int64(12)).WillReturnRows(hotelRow(12))

	w, body := do(bookingRouter(a), http.MethodPost, "/update_booking/12", "application/json", `{"name":"Asha Rao"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No changes were made", body["message"])

	w, body = do(bookingRouter(a), http.MethodPost, "/update_booking/12", "application/json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No data provided", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBooking(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "booking_type", "is_group_booking"}).AddRow(12, "Asha Rao", "Hotel", false))
	mock.ExpectExec("DELETE FROM booking_customers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, body := do(bookingRouter(a), http.MethodPost, "/delete_booking/12", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Booking #000012 for Asha Rao has been deleted successfully", body["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBookingMissing(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	w, body := do(bookingRouter(a), http.MethodPost, "/delete_booking/5", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Booking not found", body["message"])
}

func TestBulkDeleteMessages(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"", "No data provided"},
		{"not json", "No data provided"},
		{`{}`, "No booking IDs provided"},
		{`{"booking_ids":[]}`, "No booking IDs provided"},
		{`{"booking_ids":"5"}`, "Invalid booking IDs format"},
		{`{"booking_ids":[0,-2]}`, "No booking IDs provided"},
	}
	for _, tc := range cases {
		a, _ := testAPI(t, nil)
		w, body := do(bookingRouter(a), http.MethodPost, "/bulk_delete_bookings", "application/json", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.Equal(t, tc.want, body["message"], tc.body)
	}
}

func TestBulkDeleteBookings(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings WHERE id IN").WithArgs(int64(3), int64(4), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(4))
	mock.ExpectExec("DELETE FROM booking_customers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	w, body := do(bookingRouter(a), http.MethodPost, "/bulk_delete_bookings", "application/json",
		`{"booking_ids":[3,"4",9,3]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Successfully deleted 2 booking(s)", body["message"])
	assert.EqualValues(t, 2, body["deleted_count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkDeleteNothingMatched(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings WHERE id IN").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	w, body := do(bookingRouter(a), http.MethodPost, "/bulk_delete_bookings", "application/json", `{"booking_ids":[77]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No bookings were deleted", body["message"])
}

func TestSearchBookingsClampsPage(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery(`LIMIT \? OFFSET \?`).WithArgs(100, 0).WillReturnRows(hotelRow(12))

	w, body := do(bookingRouter(a), http.MethodGet, "/api/search_bookings?per_page=500&page=-3", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := body["bookings"].([]any)
	require.Len(t, rows, 1)
	page := body["pagination"].(map[string]any)
	assert.EqualValues(t, 100, page["per_page"])
	assert.EqualValues(t, 1, page["page"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportBookingsCSV(t *testing.T) {
	a, mock := testAPI(t, nil)
	mock.ExpectQuery("ORDER BY created_at DESC").WillReturnRows(hotelRow(12))
	mock.ExpectQuery("FROM booking_customers").WillReturnRows(sqlmock.NewRows(
		[]string{"id", "booking_id", "customer_name", "customer_email", "customer_phone", "seat_room_number", "customer_amount"}))

	w, _ := do(bookingRouter(a), http.MethodGet, "/export_bookings", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="blue_sky_travels_bookings_20250314.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Name,Email,Phone,Booking Type"))
	assert.True(t, strings.HasPrefix(lines[1], "12,Asha Rao,asha@example.com"))
}

func TestFlexTypes(t *testing.T) {
	var p struct {
		Phone  FlexString `json:"phone"`
		Amount FlexFloat  `json:"amount"`
		GST    FlexBool   `json:"gst"`
		ID     FlexID     `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"phone":9876543210,"amount":"1,250.50","gst":"yes","id":"15"}`), &p))
	assert.Equal(t, "9876543210", p.Phone.String())
	assert.Equal(t, 1250.5, float64(p.Amount))
	assert.True(t, bool(p.GST))
	assert.EqualValues(t, 15, p.ID)

	var name FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &name))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &name))
	require.NoError(t, json.Unmarshal([]byte(`true`), &name))
	assert.Equal(t, "true", name.String())
}

func TestParseCustomersDataAliases(t *testing.T) {
	got, err := parseCustomersData(`[
		{"name":"Ravi","customer_name":"Ravi K","amount":"500","seat_room":"12A"},
		{"customer_name":"Meena","customer_amount":750,"phone":"9876500000"}
	]`)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ravi K", got[0].Name)
	assert.Equal(t, 500.0, got[0].Amount)
	assert.Equal(t, "12A", got[0].SeatRoom)
	assert.Equal(t, 750.0, got[1].Amount)
	assert.Equal(t, "9876500000", got[1].Phone)

	_, err = parseCustomersData(`{"name":"x"}`)
	assert.EqualError(t, err, "Invalid customer data format")
}
