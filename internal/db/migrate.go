package db

import (
	"database/sql"
	"fmt"
	"log"
)

const createBookings = `
CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT NOT NULL AUTO_INCREMENT,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NULL,
	phone VARCHAR(50) NULL,
	booking_type VARCHAR(50) NOT NULL,
	base_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	gst DECIMAL(12,2) NOT NULL DEFAULT 0,
	total DECIMAL(12,2) NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	hotel_name VARCHAR(255) NULL,
	hotel_city VARCHAR(255) NULL,
	hotel_country VARCHAR(255) NULL,
	operator_name VARCHAR(255) NULL,
	from_journey VARCHAR(255) NULL,
	from_journey_country VARCHAR(255) NULL,
	to_journey VARCHAR(255) NULL,
	to_journey_country VARCHAR(255) NULL,
	vehicle_number VARCHAR(100) NULL,
	service_date VARCHAR(20) NULL,
	service_time VARCHAR(20) NULL,
	customer_address TEXT NULL,
	apply_gst TINYINT(1) NOT NULL DEFAULT 0,
	is_group_booking TINYINT(1) NOT NULL DEFAULT 0,
	PRIMARY KEY (id),
	KEY idx_bookings_name (name),
	KEY idx_bookings_email (email),
	KEY idx_bookings_phone (phone),
	KEY idx_bookings_type (booking_type),
	KEY idx_bookings_created_at (created_at),
	KEY idx_bookings_hotel_name (hotel_name),
	KEY idx_bookings_operator (operator_name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createBookingCustomers = `
CREATE TABLE IF NOT EXISTS booking_customers (
	id BIGINT NOT NULL AUTO_INCREMENT,
	booking_id BIGINT NOT NULL,
	customer_name VARCHAR(255) NOT NULL,
	customer_email VARCHAR(255) NULL,
	customer_phone VARCHAR(50) NULL,
	seat_room_number VARCHAR(50) NULL,
	customer_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
	PRIMARY KEY (id),
	KEY idx_booking_customers_booking (booking_id),
	KEY idx_booking_customers_name (customer_name),
	CONSTRAINT fk_booking_customers_booking FOREIGN KEY (booking_id)
		REFERENCES bookings (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createAppConfig = `
CREATE TABLE IF NOT EXISTS app_config (
	config_key VARCHAR(100) NOT NULL,
	config_value TEXT NULL,
	config_type VARCHAR(20) NOT NULL DEFAULT 'string',
	category VARCHAR(50) NOT NULL DEFAULT 'general',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (config_key),
	KEY idx_app_config_category (category)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

// Columns added after the first release. Older databases get them via ALTER TABLE.
var lateBookingColumns = []struct {
	name string
	ddl  string
}{
	{"hotel_country", "VARCHAR(255) NULL"},
	{"from_journey_country", "VARCHAR(255) NULL"},
	{"to_journey_country", "VARCHAR(255) NULL"},
	{"vehicle_number", "VARCHAR(100) NULL"},
	{"service_date", "VARCHAR(20) NULL"},
	{"service_time", "VARCHAR(20) NULL"},
	{"customer_address", "TEXT NULL"},
	{"apply_gst", "TINYINT(1) NOT NULL DEFAULT 0"},
	{"is_group_booking", "TINYINT(1) NOT NULL DEFAULT 0"},
}

// EnsureSchema creates the tables when missing and backfills late columns.
func EnsureSchema(conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("ensure schema: db not connected")
	}
	for _, stmt := range []string{createBookings, createBookingCustomers, createAppConfig} {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	for _, col := range lateBookingColumns {
		if HasColumn(conn, "bookings", col.name) {
			continue
		}
		if _, err := conn.Exec(fmt.Sprintf("ALTER TABLE bookings ADD COLUMN %s %s", col.name, col.ddl)); err != nil {
			return fmt.Errorf("add column bookings.%s: %w", col.name, err)
		}
		log.Printf("[SCHEMA] added column bookings.%s", col.name)
	}
	return nil
}
