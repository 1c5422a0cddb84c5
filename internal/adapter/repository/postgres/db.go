package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Pool limits for the slot store. Mutations are serialized by the portfolio
// service, so a batch transaction holds one connection while reads use the rest.
const (
	MaxOpenConns    = 8
	MaxIdleConns    = 4
	ConnMaxLifetime = 30 * time.Minute
	ConnMaxIdleTime = 5 * time.Minute
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB opens a pooled connection and checks it with a ping.
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=moneyney sslmode=disable"
func NewDB(ctx context.Context, connectionString string) (*DB, error) {
	db, err := open(connectionString)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// open creates the pool without connecting
func open(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(ConnMaxLifetime)
	db.SetConnMaxIdleTime(ConnMaxIdleTime)
	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
