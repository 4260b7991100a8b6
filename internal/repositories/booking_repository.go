package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "travelbooking/internal/config"
	intdb "travelbooking/internal/db"
	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/utils"
)

var ErrNoDB = errors.New("database not connected")

// BookingRepository persists bookings and their customer line items.
type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() (*sql.DB, error) {
	if r.DB != nil {
		return r.DB, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, ErrNoDB
}

const bookingColumns = `id, name, COALESCE(email,''), COALESCE(phone,''), booking_type,
	base_amount, gst, total, created_at,
	COALESCE(hotel_name,''), COALESCE(hotel_city,''), COALESCE(hotel_country,''),
	COALESCE(operator_name,''), COALESCE(from_journey,''), COALESCE(from_journey_country,''),
	COALESCE(to_journey,''), COALESCE(to_journey_country,''), COALESCE(vehicle_number,''),
	COALESCE(service_date,''), COALESCE(service_time,''), COALESCE(customer_address,''),
	apply_gst, is_group_booking`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (models.Booking, error) {
	var b models.Booking
	err := s.Scan(
		&b.ID, &b.Name, &b.Email, &b.Phone, &b.BookingType,
		&b.BaseAmount, &b.GST, &b.Total, &b.CreatedAt,
		&b.HotelName, &b.HotelCity, &b.HotelCountry,
		&b.OperatorName, &b.FromJourney, &b.FromJourneyCountry,
		&b.ToJourney, &b.ToJourneyCountry, &b.VehicleNumber,
		&b.ServiceDate, &b.ServiceTime, &b.CustomerAddress,
		&b.ApplyGST, &b.IsGroupBooking,
	)
	if err != nil {
		return b, err
	}
	b.Date = utils.FormatDateTime(b.CreatedAt)
	return b, nil
}

func bookingArgs(b models.Booking) []any {
	return []any{
		b.Name, intdb.NullIfEmpty(b.Email), intdb.NullIfEmpty(b.Phone), b.BookingType,
		b.BaseAmount, b.GST, b.Total,
		intdb.NullIfEmpty(b.HotelName), intdb.NullIfEmpty(b.HotelCity), intdb.NullIfEmpty(b.HotelCountry),
		intdb.NullIfEmpty(b.OperatorName), intdb.NullIfEmpty(b.FromJourney), intdb.NullIfEmpty(b.FromJourneyCountry),
		intdb.NullIfEmpty(b.ToJourney), intdb.NullIfEmpty(b.ToJourneyCountry), intdb.NullIfEmpty(b.VehicleNumber),
		intdb.NullIfEmpty(b.ServiceDate), intdb.NullIfEmpty(b.ServiceTime), intdb.NullIfEmpty(b.CustomerAddress),
		b.ApplyGST, b.IsGroupBooking,
	}
}

// Create inserts the booking and its customers in one transaction and returns the new id.
func (r BookingRepository) Create(ctx context.Context, b models.Booking) (int64, error) {
	conn, err := r.db()
	if err != nil {
		return 0, err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	args := append(bookingArgs(b), b.CreatedAt)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (
			name, email, phone, booking_type, base_amount, gst, total,
			hotel_name, hotel_city, hotel_country,
			operator_name, from_journey, from_journey_country,
			to_journey, to_journey_country, vehicle_number,
			service_date, service_time, customer_address,
			apply_gst, is_group_booking, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", intdb.MapError("booking", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertCustomers(ctx, tx, id, b.Customers); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites every column of an existing booking and replaces its customers.
func (r BookingRepository) Update(ctx context.Context, b models.Booking) error {
	conn, err := r.db()
	if err != nil {
		return err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	args := append(bookingArgs(b), b.ID)
	if _, err := tx.ExecContext(ctx, `
		UPDATE bookings SET
			name = ?, email = ?, phone = ?, booking_type = ?, base_amount = ?, gst = ?, total = ?,
			hotel_name = ?, hotel_city = ?, hotel_country = ?,
			operator_name = ?, from_journey = ?, from_journey_country = ?,
			to_journey = ?, to_journey_country = ?, vehicle_number = ?,
			service_date = ?, service_time = ?, customer_address = ?,
			apply_gst = ?, is_group_booking = ?
		WHERE id = ?`, args...); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_customers WHERE booking_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear customers: %w", err)
	}
	if err := insertCustomers(ctx, tx, b.ID, b.Customers); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCustomers(ctx context.Context, tx *sql.Tx, bookingID int64, customers []models.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO booking_customers
			(booking_id, customer_name, customer_email, customer_phone, seat_room_number, customer_amount)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare customer insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range customers {
		if _, err := stmt.ExecContext(ctx, bookingID, c.Name,
			intdb.NullIfEmpty(c.Email), intdb.NullIfEmpty(c.Phone), intdb.NullIfEmpty(c.SeatRoom), c.Amount); err != nil {
			return fmt.Errorf("insert customer %d: %w", i+1, intdb.MapError("booking", err))
		}
	}
	return nil
}

// GetByID loads a booking with its customers.
func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	conn, err := r.db()
	if err != nil {
		return models.Booking{}, err
	}
	b, err := scanBooking(conn.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, err
	}
	if b.IsGroupBooking {
		if b.Customers, err = r.ListCustomers(ctx, id); err != nil {
			return models.Booking{}, err
		}
	}
	return b, nil
}

func (r BookingRepository) ListCustomers(ctx context.Context, bookingID int64) ([]models.Customer, error) {
	conn, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, `
		SELECT id, booking_id, customer_name, COALESCE(customer_email,''), COALESCE(customer_phone,''),
			COALESCE(seat_room_number,''), customer_amount
		FROM booking_customers
		WHERE booking_id = ?
		ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func scanCustomers(rows *sql.Rows) ([]models.Customer, error) {
	out := []models.Customer{}
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.BookingID, &c.Name, &c.Email, &c.Phone, &c.SeatRoom, &c.Amount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes one booking (customers first) and returns what was deleted.
func (r BookingRepository) Delete(ctx context.Context, id int64) (models.Booking, error) {
	conn, err := r.db()
	if err != nil {
		return models.Booking{}, err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, err
	}
	defer tx.Rollback()

	var b models.Booking
	err = tx.QueryRowContext(ctx, `SELECT id, name, booking_type, is_group_booking FROM bookings WHERE id = ? FOR UPDATE`, id).
		Scan(&b.ID, &b.Name, &b.BookingType, &b.IsGroupBooking)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_customers WHERE booking_id = ?`, id); err != nil {
		return models.Booking{}, fmt.Errorf("delete customers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return models.Booking{}, fmt.Errorf("delete booking: %w", err)
	}
	return b, tx.Commit()
}

// DeleteMany removes every existing booking among ids and returns the ids actually deleted.
func (r BookingRepository) DeleteMany(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	conn, err := r.db()
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	in := intdb.Placeholders(len(ids))

	rows, err := tx.QueryContext(ctx, `SELECT id FROM bookings WHERE id IN (`+in+`) FOR UPDATE`, args...)
	if err != nil {
		return nil, err
	}
	existing := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		existing = append(existing, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return existing, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_customers WHERE booking_id IN (`+in+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete customers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id IN (`+in+`)`, args...); err != nil {
		return nil, fmt.Errorf("delete bookings: %w", err)
	}
	return existing, tx.Commit()
}

// SearchFilter narrows a booking search.
type SearchFilter struct {
	Query string
	Type  string
}

func (f SearchFilter) where() (string, []any) {
	clauses := []string{}
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		clauses = append(clauses, `(name LIKE ? OR email LIKE ? OR phone LIKE ? OR hotel_name LIKE ?
			OR operator_name LIKE ? OR from_journey LIKE ? OR to_journey LIKE ? OR vehicle_number LIKE ?
			OR EXISTS (SELECT 1 FROM booking_customers bc WHERE bc.booking_id = bookings.id AND bc.customer_name LIKE ?))`)
		for i := 0; i < 9; i++ {
			args = append(args, like)
		}
	}
	if t := strings.TrimSpace(f.Type); t != "" {
		clauses = append(clauses, "booking_type = ?")
		args = append(args, t)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Search returns one page of bookings (newest first) and the total match count.
func (r BookingRepository) Search(ctx context.Context, f SearchFilter, page domain.PageRequest) ([]models.BookingSummary, int, error) {
	conn, err := r.db()
	if err != nil {
		return nil, 0, err
	}
	where, args := f.where()

	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	listArgs := append(append([]any{}, args...), page.PerPage, page.Offset())
	rows, err := conn.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings`+where+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	out := []models.BookingSummary{}
	groupIDs := []int64{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		if b.IsGroupBooking {
			groupIDs = append(groupIDs, b.ID)
		}
		out = append(out, models.BookingSummary{Booking: b, CustomerNames: []string{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(groupIDs) > 0 {
		names, err := r.customerNames(ctx, conn, groupIDs)
		if err != nil {
			return nil, 0, err
		}
		for i := range out {
			all := names[out[i].ID]
			out[i].CustomerCount = len(all)
			if len(all) > 3 {
				all = all[:3]
			}
			if all != nil {
				out[i].CustomerNames = all
			}
		}
	}
	return out, total, nil
}

func (r BookingRepository) customerNames(ctx context.Context, conn *sql.DB, ids []int64) (map[int64][]string, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := conn.QueryContext(ctx, `SELECT booking_id, customer_name FROM booking_customers
		WHERE booking_id IN (`+intdb.Placeholders(len(ids))+`) ORDER BY booking_id, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("customer names: %w", err)
	}
	defer rows.Close()

	out := map[int64][]string{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

// ListAll returns every booking newest first, group bookings with their customers.
func (r BookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	conn, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	out := []models.Booking{}
	index := map[int64]int{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := conn.QueryContext(ctx, `
		SELECT id, booking_id, customer_name, COALESCE(customer_email,''), COALESCE(customer_phone,''),
			COALESCE(seat_room_number,''), customer_amount
		FROM booking_customers
		ORDER BY booking_id, id`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	customers, err := scanCustomers(crows)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		if i, ok := index[c.BookingID]; ok {
			out[i].Customers = append(out[i].Customers, c)
		}
	}
	return out, nil
}

// Count returns the number of stored bookings.
func (r BookingRepository) Count(ctx context.Context) (int, error) {
	conn, err := r.db()
	if err != nil {
		return 0, err
	}
	var n int
	err = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n)
	return n, err
}
