package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the sqlite database at path and prepares it
// for concurrent use by the validator sessions and the ingestion
// client.  The DSN enables WAL journaling, a short busy timeout so
// writers colliding on the exclusive lock wait instead of failing, and
// immediate-lock transactions so every sql.Tx acquires the write lock
// at BEGIN.  Schema creation is idempotent.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=500&_synchronous=NORMAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Ping with timeout to surface a broken file before serving.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// initSchema creates the required tables when they do not exist.  The
// unique index on tickets.ticket_id backs the replace-by-id upsert used
// by the ingestion client; the one on tickets.token backs activation.
func initSchema(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS coupons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			coupon_id INTEGER,
			customer_id INTEGER,
			card_id INTEGER,
			card_number TEXT,
			valid_from TEXT,
			valid_to TEXT,
			traffic_area_group TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id INTEGER,
			article_name TEXT,
			article_price REAL
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticket_id INTEGER,
			active INTEGER,
			date_created TEXT,
			account_id INTEGER,
			caption TEXT,
			valid_from TEXT,
			valid_to TEXT,
			traffic_area TEXT,
			traffic_zone INTEGER,
			article_id INTEGER,
			invoice_item_id INTEGER,
			token TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_ticket_id ON tickets(ticket_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_token ON tickets(token)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id INTEGER,
			card_number TEXT,
			quantity INTEGER,
			success INTEGER,
			timestamp TEXT DEFAULT (datetime('now','localtime'))
		)`,
		`CREATE TABLE IF NOT EXISTS qr_validated (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			datetime TEXT DEFAULT (datetime('now','localtime')),
			qr_code TEXT,
			validator_id INTEGER,
			valid INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS card_validated (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			datetime TEXT DEFAULT (datetime('now','localtime')),
			card_id INTEGER,
			valid INTEGER
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("execute schema query: %w", err)
		}
	}
	return nil
}

// Checkpoint forces a full WAL checkpoint, pushing every committed frame
// into the primary database file.  Activation and ticket ingestion call
// this after commit so a power cut on the vehicle never loses a stamped
// window or a synced ticket that was already acknowledged.
func Checkpoint(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `PRAGMA wal_checkpoint(FULL)`)
	if err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}
