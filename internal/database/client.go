package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Client wraps the sqlite store that replaces the browser's per-wallet
// local storage. All rows are scoped by wallet address.
type Client struct {
	db *sql.DB
}

func NewClient(path string) (*Client, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Concurrent writers on one connection trip SQLITE_BUSY; serialize at
	// the pool instead.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}
