package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"meritage-scraper/models"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// Configured reports whether a database connection is configured via
// the environment. The sink stays disabled otherwise.
func Configured() bool {
	return os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != ""
}

// NewDB creates a new database connection
func NewDB() (*DB, error) {
	// Get connection string from environment variable
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		// Try to build from individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "meritage_scraper")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "meritage_scraper")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the communities table if it doesn't exist
func (db *DB) initSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS communities (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			name TEXT,
			price_from TEXT,
			address TEXT,
			phone TEXT,
			homeplan_count INTEGER NOT NULL DEFAULT 0,
			homesite_count INTEGER NOT NULL DEFAULT 0,
			extracted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create communities table: %w", err)
	}
	return nil
}

// SaveCommunity inserts or refreshes the summary row for a community.
// It implements the pipeline Sink interface.
func (db *DB) SaveCommunity(community *models.Community) error {
	_, err := db.conn.Exec(`
		INSERT INTO communities (url, name, price_from, address, phone, homeplan_count, homesite_count, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			price_from = EXCLUDED.price_from,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			homeplan_count = EXCLUDED.homeplan_count,
			homesite_count = EXCLUDED.homesite_count,
			extracted_at = EXCLUDED.extracted_at
	`, community.URL, community.Name, community.PriceFrom, community.Address, community.Phone,
		len(community.HomePlans), len(community.HomeSites), community.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save community: %w", err)
	}
	return nil
}
