package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 10
	connMaxLifetime = 10 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// OpenDB opens a MySQL pool for dsn and pings it.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)
	conn.SetConnMaxIdleTime(connMaxIdleTime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping mysql %s: %w", DescribeDSN(dsn), err)
	}
	return conn, nil
}

// DescribeDSN renders user@addr/db without the password, for logs.
func DescribeDSN(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "(invalid dsn)"
	}
	return fmt.Sprintf("%s@%s/%s", cfg.User, cfg.Addr, cfg.DBName)
}

// ConnectDB opens the shared pool once. Bookings cannot be served without
// the database, so any failure stops the process.
func ConnectDB(env Env) *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()
	if DB != nil {
		return DB
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := OpenDB(ctx, env.DSN())
	if err != nil {
		log.Fatalf("database unavailable: %v", err)
	}
	DB = conn
	log.Printf("connected to MySQL %s", DescribeDSN(env.DSN()))
	return DB
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
